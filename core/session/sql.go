package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/dialogbot/core/dialog"
)

// identRe bounds the table names accepted by the generic entity CRUD.
var identRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type sessionRow struct {
	ChatID       int64     `db:"chat_id"`
	UserID       int64     `db:"user_id"`
	State        string    `db:"state"`
	Step         int       `db:"step"`
	Scratch      []byte    `db:"scratch"`
	LastActivity time.Time `db:"last_activity"`
}

// SQLStore persists sessions and entities through sqlx. It works against
// postgres and sqlite; placeholders are rebound per driver.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore wraps an open sqlx handle.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Load reads one session row, decoding the scratch JSON.
func (s *SQLStore) Load(ctx context.Context, id dialog.ConversationID) (*dialog.Session, error) {
	query := s.db.Rebind(`SELECT chat_id, user_id, state, step, scratch, last_activity
		FROM sessions WHERE chat_id = ? AND user_id = ?`)

	var row sessionRow
	if err := s.db.GetContext(ctx, &row, query, id.ChatID, id.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dialog.ErrSessionNotFound
		}
		return nil, fmt.Errorf("session: load %s: %w", id, err)
	}

	scratch := dialog.Scratch{}
	if len(row.Scratch) > 0 {
		if err := json.Unmarshal(row.Scratch, &scratch); err != nil {
			return nil, fmt.Errorf("session: decode scratch %s: %w", id, err)
		}
	}
	return &dialog.Session{
		Conversation: id,
		State:        row.State,
		Step:         row.Step,
		Scratch:      scratch,
		LastActivity: row.LastActivity,
	}, nil
}

// Save upserts one session row.
func (s *SQLStore) Save(ctx context.Context, id dialog.ConversationID, sess *dialog.Session) error {
	scratch, err := json.Marshal(sess.Scratch)
	if err != nil {
		return fmt.Errorf("session: encode scratch %s: %w", id, err)
	}

	query := s.db.Rebind(`INSERT INTO sessions (chat_id, user_id, state, step, scratch, last_activity)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (chat_id, user_id) DO UPDATE SET
			state = excluded.state,
			step = excluded.step,
			scratch = excluded.scratch,
			last_activity = excluded.last_activity`)

	if _, err := s.db.ExecContext(ctx, query,
		id.ChatID, id.UserID, sess.State, sess.Step, scratch, sess.LastActivity,
	); err != nil {
		return fmt.Errorf("session: save %s: %w", id, err)
	}
	return nil
}

// List returns rows of the named table matching the equality filter.
func (s *SQLStore) List(ctx context.Context, model string, filter map[string]any) ([]map[string]any, error) {
	if err := checkIdent(model); err != nil {
		return nil, err
	}

	query := "SELECT * FROM " + model
	var args []any
	if len(filter) > 0 {
		cols := make([]string, 0, len(filter))
		for col := range filter {
			cols = append(cols, col)
		}
		sort.Strings(cols)

		conds := make([]string, 0, len(cols))
		for _, col := range cols {
			if err := checkIdent(col); err != nil {
				return nil, err
			}
			conds = append(conds, col+" = ?")
			args = append(args, filter[col])
		}
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := s.db.QueryxContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("session: list %s: %w", model, err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		record := map[string]any{}
		if err := rows.MapScan(record); err != nil {
			return nil, fmt.Errorf("session: scan %s: %w", model, err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Get returns the row of the named table with the given primary key.
func (s *SQLStore) Get(ctx context.Context, model string, pk any) (map[string]any, error) {
	if err := checkIdent(model); err != nil {
		return nil, err
	}
	query := s.db.Rebind("SELECT * FROM " + model + " WHERE id = ?")
	row := s.db.QueryRowxContext(ctx, query, pk)
	record := map[string]any{}
	if err := row.MapScan(record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session: %s id %v not found", model, pk)
		}
		return nil, fmt.Errorf("session: get %s: %w", model, err)
	}
	return record, nil
}

// Create inserts one row and returns its generated id.
func (s *SQLStore) Create(ctx context.Context, model string, fields map[string]any) (int64, error) {
	if err := checkIdent(model); err != nil {
		return 0, err
	}
	if len(fields) == 0 {
		return 0, fmt.Errorf("session: create %s without fields", model)
	}

	cols := make([]string, 0, len(fields))
	for col := range fields {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	marks := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for _, col := range cols {
		if err := checkIdent(col); err != nil {
			return 0, err
		}
		marks = append(marks, "?")
		args = append(args, fields[col])
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		model, strings.Join(cols, ", "), strings.Join(marks, ", "))

	if s.db.DriverName() == "postgres" {
		var id int64
		err := s.db.QueryRowxContext(ctx, s.db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("session: create %s: %w", model, err)
		}
		return id, nil
	}

	res, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("session: create %s: %w", model, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session: create %s id: %w", model, err)
	}
	return id, nil
}

// Delete removes the row of the named table with the given primary key.
func (s *SQLStore) Delete(ctx context.Context, model string, pk any) error {
	if err := checkIdent(model); err != nil {
		return err
	}
	query := s.db.Rebind("DELETE FROM " + model + " WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, query, pk); err != nil {
		return fmt.Errorf("session: delete %s: %w", model, err)
	}
	return nil
}

func checkIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("session: invalid identifier %q", name)
	}
	return nil
}
