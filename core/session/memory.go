package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/m3rciful/dialogbot/core/dialog"
)

// MemoryStore is an in-memory Store implementation for tests and
// development.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[dialog.ConversationID]*dialog.Session
	entities map[string]map[int64]map[string]any
	nextID   map[string]int64

	saves int
}

// NewMemoryStore constructs an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[dialog.ConversationID]*dialog.Session),
		entities: make(map[string]map[int64]map[string]any),
		nextID:   make(map[string]int64),
	}
}

// Load returns a copy of the stored session.
func (m *MemoryStore) Load(ctx context.Context, id dialog.ConversationID) (*dialog.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, dialog.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Save stores a copy of the session.
func (m *MemoryStore) Save(ctx context.Context, id dialog.ConversationID, sess *dialog.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = sess.Clone()
	m.saves++
	return nil
}

// SaveCount reports how many writes reached the store.
func (m *MemoryStore) SaveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// List returns entity rows matching the equality filter, ordered by id.
func (m *MemoryStore) List(ctx context.Context, model string, filter map[string]any) ([]map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]int64, 0, len(m.entities[model]))
	for id := range m.entities[model] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []map[string]any
	for _, id := range ids {
		record := m.entities[model][id]
		match := true
		for col, want := range filter {
			if record[col] != want {
				match = false
				break
			}
		}
		if match {
			out = append(out, cloneRecord(record))
		}
	}
	return out, nil
}

// Get returns the entity row with the given id.
func (m *MemoryStore) Get(ctx context.Context, model string, pk any) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, err := toID(pk)
	if err != nil {
		return nil, err
	}
	record, ok := m.entities[model][id]
	if !ok {
		return nil, fmt.Errorf("session: %s id %v not found", model, pk)
	}
	return cloneRecord(record), nil
}

// Create inserts one entity row and returns its id.
func (m *MemoryStore) Create(ctx context.Context, model string, fields map[string]any) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entities[model] == nil {
		m.entities[model] = make(map[int64]map[string]any)
	}
	m.nextID[model]++
	id := m.nextID[model]
	record := cloneRecord(fields)
	record["id"] = id
	m.entities[model][id] = record
	return id, nil
}

// Delete removes the entity row with the given id.
func (m *MemoryStore) Delete(ctx context.Context, model string, pk any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, err := toID(pk)
	if err != nil {
		return err
	}
	delete(m.entities[model], id)
	return nil
}

func cloneRecord(record map[string]any) map[string]any {
	out := make(map[string]any, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}

func toID(pk any) (int64, error) {
	switch v := pk.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		var id int64
		if _, err := fmt.Sscanf(v, "%d", &id); err != nil {
			return 0, fmt.Errorf("session: invalid id %q", v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("session: invalid id type %T", pk)
	}
}
