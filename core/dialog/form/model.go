package form

import (
	"context"
	"fmt"
	"sort"

	"github.com/m3rciful/dialogbot/core/dialog"
	"github.com/m3rciful/dialogbot/core/dialog/field"
)

// Home/list navigation tokens of the CRUD state.
const (
	tokenAdd    = "add"
	tokenList   = "list"
	tokenHome   = "home"
	tokenDetail = "detail"
	tokenDelete = "del"
	tokenYes    = "yes"
)

// ModelState is a generic browse/add/detail/delete dialogue over one entity
// kind: step 1 is the home menu, step 2 runs the add form, step 3 pages
// through records, step 4 shows one record, step 5 confirms deletion.
type ModelState struct {
	*dialog.Base
	model    string
	labelCol string
	pageSize int
	fields   []FieldDef
	store    EntityStore
}

// NewModelState builds the CRUD state. labelCol names the column shown in
// list rows.
func NewModelState(name, model, labelCol string, fields []FieldDef, store EntityStore) *ModelState {
	s := &ModelState{
		model:    model,
		labelCol: labelCol,
		pageSize: field.DefaultPageSize(),
		fields:   fields,
		store:    store,
	}
	s.Base = dialog.NewBase(name,
		dialog.Step{Menu: s.homeMenu, Next: s.homeNext},
		dialog.Step{Menu: s.addMenu, Next: s.addNext},
		dialog.Step{Menu: s.listMenu, Next: s.listNext},
		dialog.Step{Menu: s.detailMenu, Next: s.detailNext},
		dialog.Step{Menu: s.deleteMenu, Next: s.deleteNext},
	).WithTransitions(map[string]string{"start": dialog.StartState})
	return s
}

// WithPageSize overrides the number of records per list page.
func (s *ModelState) WithPageSize(n int) *ModelState {
	if n > 0 {
		s.pageSize = n
	}
	return s
}

func (s *ModelState) key(suffix string) string {
	return "crud." + s.model + "." + suffix
}

func (s *ModelState) homeMenu(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (*dialog.Menu, error) {
	return dialog.NewMenu("What do you want to do?",
		[]dialog.Button{dialog.Btn("Add", tokenAdd), dialog.Btn("List", tokenList)},
	), nil
}

func (s *ModelState) homeNext(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.NextResponse, error) {
	switch ev.Token {
	case tokenAdd:
		return dialog.GotoStep(s.Name(), 2), nil
	case tokenList:
		return dialog.GotoStep(s.Name(), 3), nil
	}
	return dialog.Goto(s.Name()), nil
}

// formHook returns the installed add-form, installing a fresh one when the
// step is entered for the first time.
func (s *ModelState) formHook(sess *dialog.Session) (dialog.Hook, error) {
	h, err := dialog.CurrentHook(sess)
	if err != nil || h == nil {
		f := New(s.model, s.fields, s.store)
		dialog.InstallHook(sess, f)
		return f, nil
	}
	return h, nil
}

func (s *ModelState) addMenu(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (*dialog.Menu, error) {
	h, err := s.formHook(sess)
	if err != nil {
		return nil, err
	}
	res, err := h.Render(ctx, ev, sess)
	if err != nil {
		return nil, err
	}
	if res.Status == dialog.Continue {
		return res.Menu, nil
	}
	return dialog.NewMenu("Aborted",
		[]dialog.Button{dialog.Btn("Back", tokenHome)},
	), nil
}

func (s *ModelState) addNext(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.NextResponse, error) {
	h, err := s.formHook(sess)
	if err != nil {
		return dialog.NextResponse{}, err
	}
	res, err := h.Consume(ctx, ev, sess)
	if err != nil {
		return dialog.NextResponse{}, err
	}
	if res.Status == dialog.Continue {
		return dialog.Goto(s.Name()), nil
	}
	dialog.ClearHook(sess)
	return dialog.GotoStep(s.Name(), 3), nil
}

// listHook returns the installed record selector, building one over the
// current record set when the step is entered for the first time.
func (s *ModelState) listHook(ctx context.Context, sess *dialog.Session) (dialog.Hook, error) {
	h, err := dialog.CurrentHook(sess)
	if err == nil && h != nil {
		return h, nil
	}
	records, err := s.store.List(ctx, s.model, nil)
	if err != nil {
		return nil, err
	}
	choices := make([]field.Choice, 0, len(records))
	for _, record := range records {
		choices = append(choices, field.Choice{
			Label: s.recordLabel(record),
			Value: fmt.Sprintf("%v", record["id"]),
		})
	}
	sel := field.NewSelect(s.model, choices).
		WithOffset(s.pageSize).
		WithReturnOnClick()
	dialog.InstallHook(sess, sel)
	return sel, nil
}

func (s *ModelState) recordLabel(record map[string]any) string {
	if v, ok := record[s.labelCol]; ok {
		return fmt.Sprintf("%v", v)
	}
	return fmt.Sprintf("%v", record["id"])
}

func (s *ModelState) listMenu(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (*dialog.Menu, error) {
	h, err := s.listHook(ctx, sess)
	if err != nil {
		return nil, err
	}
	res, err := h.Render(ctx, ev, sess)
	if err != nil {
		return nil, err
	}
	if res.Status == dialog.Continue {
		return res.Menu, nil
	}
	return dialog.NewMenu("Aborted",
		[]dialog.Button{dialog.Btn("Back", tokenHome)},
	), nil
}

func (s *ModelState) listNext(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.NextResponse, error) {
	h, err := s.listHook(ctx, sess)
	if err != nil {
		return dialog.NextResponse{}, err
	}
	res, err := h.Consume(ctx, ev, sess)
	if err != nil {
		return dialog.NextResponse{}, err
	}
	switch res.Status {
	case dialog.Continue:
		return dialog.Goto(s.Name()), nil
	case dialog.Stop:
		dialog.ClearHook(sess)
		if v, ok := res.Value.(string); ok && v != "" {
			sess.Scratch.Set(s.key("pk"), v)
			return dialog.GotoStep(s.Name(), 4), nil
		}
		return dialog.GotoStep(s.Name(), 1), nil
	default:
		dialog.ClearHook(sess)
		return dialog.GotoStep(s.Name(), 1), nil
	}
}

func (s *ModelState) detailMenu(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (*dialog.Menu, error) {
	pk := sess.Scratch.GetString(s.key("pk"), "")
	if pk == "" {
		return dialog.NewMenu("No item selected",
			[]dialog.Button{dialog.Btn("Back", tokenHome)},
		), nil
	}
	record, err := s.store.Get(ctx, s.model, pk)
	if err != nil {
		return nil, err
	}

	cols := make([]string, 0, len(record))
	for col := range record {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	text := fmt.Sprintf("%s details\n", s.model)
	for _, col := range cols {
		text += fmt.Sprintf("\n%s: %v", col, record[col])
	}
	return dialog.NewMenu(text,
		[]dialog.Button{dialog.Btn("Del", tokenDelete)},
		[]dialog.Button{dialog.Btn("Home", tokenHome), dialog.Btn("Back to List", tokenList)},
	), nil
}

func (s *ModelState) detailNext(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.NextResponse, error) {
	switch ev.Token {
	case tokenDelete:
		return dialog.GotoStep(s.Name(), 5), nil
	case tokenList:
		return dialog.GotoStep(s.Name(), 3), nil
	case tokenHome:
		sess.Scratch.Delete(s.key("pk"))
		return dialog.GotoStep(s.Name(), 1), nil
	}
	return dialog.Goto(s.Name()), nil
}

func (s *ModelState) deleteMenu(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (*dialog.Menu, error) {
	if sess.Scratch.GetBool(s.key("deleted"), false) {
		sess.Scratch.Delete(s.key("deleted"))
		return dialog.NewMenu(fmt.Sprintf("%s object deleted", s.model),
			[]dialog.Button{dialog.Btn("Back", tokenList)},
		), nil
	}
	pk := sess.Scratch.GetString(s.key("pk"), "")
	return dialog.NewMenu(fmt.Sprintf("Do you really want to delete %s %s?", s.model, pk),
		[]dialog.Button{dialog.Btn("Yes", tokenYes), dialog.Btn("No", tokenDetail)},
	), nil
}

func (s *ModelState) deleteNext(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.NextResponse, error) {
	switch ev.Token {
	case tokenYes:
		pk := sess.Scratch.GetString(s.key("pk"), "")
		if pk != "" {
			if err := s.store.Delete(ctx, s.model, pk); err != nil {
				return dialog.NextResponse{}, err
			}
			sess.Scratch.Delete(s.key("pk"))
			sess.Scratch.Set(s.key("deleted"), true)
		}
		return dialog.Goto(s.Name()), nil
	case tokenDetail:
		return dialog.GotoStep(s.Name(), 4), nil
	case tokenList:
		return dialog.GotoStep(s.Name(), 3), nil
	}
	return dialog.Goto(s.Name()), nil
}
