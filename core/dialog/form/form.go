// Package form composes atomic input fields into multi-field sub-dialogues
// that collect a record and persist it through the entity store, plus a
// generic CRUD state built on top of them.
package form

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/m3rciful/dialogbot/core/dialog"
)

const kindForm = "form"

// Form action tokens.
const (
	TokenSave   = "action::save"
	TokenCancel = "action::cancel"
)

// EntityStore is the record CRUD a form persists through.
type EntityStore interface {
	List(ctx context.Context, model string, filter map[string]any) ([]map[string]any, error)
	Get(ctx context.Context, model string, pk any) (map[string]any, error)
	Create(ctx context.Context, model string, fields map[string]any) (int64, error)
	Delete(ctx context.Context, model string, pk any) error
}

// FieldDef names one field of a form and how to rebuild its input widget.
type FieldDef struct {
	Name   string         `json:"name"`
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// Register installs the form hook factory bound to the given store. Must be
// called once during wiring, before any form hook is reconstructed.
func Register(store EntityStore) {
	dialog.RegisterHook(kindForm, func(spec dialog.HookSpec) (dialog.Hook, error) {
		return formFromSpec(spec, store)
	})
}

// Form is a hook that walks an ordered field list, staging one value per
// field, then asks for confirmation and creates the record.
type Form struct {
	Model  string
	Fields []FieldDef
	store  EntityStore
}

// New builds a form over the given model and field definitions.
func New(model string, fields []FieldDef, store EntityStore) *Form {
	return &Form{Model: model, Fields: fields, store: store}
}

// Spec returns the persisted identity of this form.
func (f *Form) Spec() dialog.HookSpec {
	fields := make([]any, 0, len(f.Fields))
	for _, fd := range f.Fields {
		fields = append(fields, map[string]any{
			"name":   fd.Name,
			"kind":   fd.Kind,
			"params": fd.Params,
		})
	}
	return dialog.HookSpec{
		Kind: kindForm,
		Params: map[string]any{
			"model":  f.Model,
			"fields": fields,
		},
	}
}

func formFromSpec(spec dialog.HookSpec, store EntityStore) (dialog.Hook, error) {
	model, _ := spec.Params["model"].(string)
	if model == "" {
		return nil, fmt.Errorf("form: spec without model")
	}
	raw, err := json.Marshal(spec.Params["fields"])
	if err != nil {
		return nil, fmt.Errorf("form: encode fields: %w", err)
	}
	var fields []FieldDef
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("form: decode fields: %w", err)
	}
	return New(model, fields, store), nil
}

func (f *Form) key(suffix string) string {
	return "form." + f.Model + "." + suffix
}

func (f *Form) position(sess *dialog.Session) int {
	return sess.Scratch.GetInt(f.key("pos"), 0)
}

func (f *Form) values(sess *dialog.Session) map[string]any {
	if v, ok := sess.Scratch.Get(f.key("values")); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	m := map[string]any{}
	sess.Scratch.Set(f.key("values"), m)
	return m
}

func (f *Form) setValue(sess *dialog.Session, name string, value any) {
	values := f.values(sess)
	values[name] = value
	sess.Scratch.Set(f.key("values"), values)
}

// advance moves to the next field.
func (f *Form) advance(sess *dialog.Session) {
	sess.Scratch.Set(f.key("pos"), f.position(sess)+1)
}

// reset drops every staged form key.
func (f *Form) reset(sess *dialog.Session) {
	sess.Scratch.Delete(f.key("pos"))
	sess.Scratch.Delete(f.key("values"))
}

// currentField rebuilds the input widget of the active field. The staged
// field name is injected into its params.
func (f *Form) currentField(sess *dialog.Session) (dialog.Hook, error) {
	pos := f.position(sess)
	if pos < 0 || pos >= len(f.Fields) {
		return nil, nil
	}
	fd := f.Fields[pos]
	params := map[string]any{"name": fd.Name}
	for k, v := range fd.Params {
		params[k] = v
	}
	return dialog.NewHook(dialog.HookSpec{Kind: fd.Kind, Params: params})
}

// Render delegates to the active field, or shows the save confirmation once
// every field has been visited.
func (f *Form) Render(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	fld, err := f.currentField(sess)
	if err != nil {
		return dialog.InputResponse{}, err
	}
	if fld == nil {
		text := "Do you want to save these datas?\n"
		values := f.values(sess)
		for _, fd := range f.Fields {
			text += fmt.Sprintf("\n%s: `%v`", fd.Name, values[fd.Name])
		}
		menu := dialog.NewMenu(text,
			[]dialog.Button{dialog.Btn("Save", TokenSave), dialog.Btn("Cancel", TokenCancel)},
		)
		return dialog.ContinueWith(menu), nil
	}
	return fld.Render(ctx, ev, sess)
}

// Consume finalizes on save/cancel, otherwise feeds the token to the active
// field and applies its result: a stopped field stores its value and the
// form advances exactly one field; an aborted field stores an empty value
// and advances the same way.
func (f *Form) Consume(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	switch ev.Token {
	case TokenSave:
		values := f.values(sess)
		id, err := f.store.Create(ctx, f.Model, values)
		if err != nil {
			return dialog.InputResponse{}, fmt.Errorf("form: save %s: %w", f.Model, err)
		}
		f.reset(sess)
		record := make(map[string]any, len(values)+1)
		for k, v := range values {
			record[k] = v
		}
		record["id"] = id
		return dialog.StopWith(record), nil
	case TokenCancel:
		f.reset(sess)
		return dialog.Aborted(), nil
	}

	fld, err := f.currentField(sess)
	if err != nil {
		return dialog.InputResponse{}, err
	}
	if fld == nil {
		// Confirmation step only understands save/cancel.
		return dialog.InputResponse{Status: dialog.Continue}, nil
	}

	pos := f.position(sess)
	res, err := fld.Consume(ctx, ev, sess)
	if err != nil {
		return dialog.InputResponse{}, err
	}
	switch res.Status {
	case dialog.Stop:
		f.setValue(sess, f.Fields[pos].Name, res.Value)
		f.advance(sess)
	case dialog.Abort:
		f.setValue(sess, f.Fields[pos].Name, nil)
		f.advance(sess)
	}
	return dialog.InputResponse{Status: dialog.Continue}, nil
}
