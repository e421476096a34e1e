package field

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/m3rciful/dialogbot/core/dialog"
)

const kindSelect = "select"

// Select action tokens encoded as "<action>::<value>".
const (
	selActionValue  = "value"
	selActionNav    = "nav"
	selTokenOK      = "ok::ok"
	selTokenCancel  = "cancel::cancel"
	selectedMark = " ✅"
)

// defaultPageSize seeds the Offset of selects built without WithOffset.
// Configurable via SetDefaultPageSize; set once at startup, before any
// events are handled.
var defaultPageSize = 10

// SetDefaultPageSize overrides the default select page size. Non-positive
// values are ignored.
func SetDefaultPageSize(n int) {
	if n > 0 {
		defaultPageSize = n
	}
}

// DefaultPageSize reports the current default select page size.
func DefaultPageSize() int { return defaultPageSize }

// Choice is one selectable (label, value) pair.
type Choice struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Select captures one value (or a set of values) from a paginated list.
// Cancel restores the selection the field was constructed with, not an
// empty one.
type Select struct {
	base
	Choices  []Choice
	Offset   int
	Multiple bool
	// ReturnOnClick finalizes on the first picked value, skipping the ok
	// confirmation. Used by list-browse flows.
	ReturnOnClick bool
	// Initial is the selection restored on cancel.
	Initial []string
}

// NewSelect builds a single-select field over the given choices.
func NewSelect(name string, choices []Choice) *Select {
	return &Select{base: base{name: name}, Choices: choices, Offset: defaultPageSize}
}

// NewMultiSelect builds a multi-select field over the given choices.
func NewMultiSelect(name string, choices []Choice) *Select {
	s := NewSelect(name, choices)
	s.Multiple = true
	return s
}

// WithInitial sets the selection restored on cancel and pre-marked on render.
func (s *Select) WithInitial(values ...string) *Select {
	s.Initial = values
	return s
}

// WithOffset sets the page size.
func (s *Select) WithOffset(offset int) *Select {
	if offset > 0 {
		s.Offset = offset
	}
	return s
}

// WithReturnOnClick makes the field finalize on the first picked value.
func (s *Select) WithReturnOnClick() *Select {
	s.ReturnOnClick = true
	return s
}

// Spec returns the persisted identity of this field.
func (s *Select) Spec() dialog.HookSpec {
	choices := make([]any, 0, len(s.Choices))
	for _, c := range s.Choices {
		choices = append(choices, map[string]any{"label": c.Label, "value": c.Value})
	}
	return dialog.HookSpec{
		Kind: kindSelect,
		Params: map[string]any{
			"name":            s.name,
			"choices":         choices,
			"offset":          s.Offset,
			"multiple":        s.Multiple,
			"return_on_click": s.ReturnOnClick,
			"initial":         s.Initial,
		},
	}
}

func selectFromSpec(spec dialog.HookSpec) (dialog.Hook, error) {
	name := paramString(spec.Params, "name", "")
	if name == "" {
		return nil, fmt.Errorf("field: select spec without name")
	}
	s := &Select{
		base:          base{name: name},
		Choices:       decodeChoices(spec.Params["choices"]),
		Offset:        paramInt(spec.Params, "offset", defaultPageSize),
		Multiple:      paramBool(spec.Params, "multiple", false),
		ReturnOnClick: paramBool(spec.Params, "return_on_click", false),
		Initial:       paramStrings(spec.Params, "initial"),
	}
	if s.Offset <= 0 {
		s.Offset = defaultPageSize
	}
	return s, nil
}

func decodeChoices(raw any) []Choice {
	items, ok := raw.([]any)
	if !ok {
		if typed, ok := raw.([]Choice); ok {
			return slices.Clone(typed)
		}
		return nil
	}
	choices := make([]Choice, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		choices = append(choices, Choice{
			Label: paramString(m, "label", ""),
			Value: paramString(m, "value", ""),
		})
	}
	return choices
}

// selection returns the staged selection, seeding it from Initial on first
// use so pre-selected values are marked.
func (s *Select) selection(sess *dialog.Session) []string {
	if _, ok := sess.Scratch.Get(s.key("selected")); !ok {
		sess.Scratch.Set(s.key("selected"), slices.Clone(s.Initial))
	}
	return sess.Scratch.GetStrings(s.key("selected"))
}

func (s *Select) setSelection(sess *dialog.Session, values []string) {
	sess.Scratch.Set(s.key("selected"), values)
}

// Render shows the current page of choices, the pagination row, and the
// ok/cancel row.
func (s *Select) Render(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	selected := s.selection(sess)
	page := sess.Scratch.GetInt(s.key("page"), 0)

	menu := dialog.NewMenu(fmt.Sprintf("Please select a %s", s.name))

	start := page * s.Offset
	end := min(start+s.Offset, len(s.Choices))
	if start > len(s.Choices) {
		start = len(s.Choices)
	}
	for _, choice := range s.Choices[start:end] {
		label := choice.Label
		if slices.Contains(selected, choice.Value) {
			label += selectedMark
		}
		menu.AddRow(dialog.Btn(label, selActionValue+"::"+choice.Value))
	}

	pages, hasPrev, hasNext := pageWindow(len(s.Choices), s.Offset, page)
	var nav []dialog.Button
	if hasPrev {
		nav = append(nav, dialog.Btn("⏪", fmt.Sprintf("%s::%d", selActionNav, page-1)))
	}
	for _, p := range pages {
		nav = append(nav, dialog.Btn(strconv.Itoa(p+1), fmt.Sprintf("%s::%d", selActionNav, p)))
	}
	if hasNext {
		nav = append(nav, dialog.Btn("⏩", fmt.Sprintf("%s::%d", selActionNav, page+1)))
	}
	if len(nav) > 0 {
		menu.AddRow(nav...)
	}

	menu.AddRow(dialog.Btn("OK", selTokenOK), dialog.Btn("Cancel", selTokenCancel))
	return dialog.ContinueWith(menu), nil
}

// Consume interprets a page jump, a value toggle, or a finalizing token.
func (s *Select) Consume(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	switch ev.Token {
	case selTokenOK:
		selected := s.selection(sess)
		s.clear(sess, "selected", "page")
		return dialog.StopWith(s.finalValue(selected)), nil
	case selTokenCancel:
		s.clear(sess, "selected", "page")
		return dialog.StopWith(s.finalValue(slices.Clone(s.Initial))), nil
	}

	action, value, ok := strings.Cut(ev.Token, "::")
	if !ok {
		return dialog.InputResponse{Status: dialog.Continue}, nil
	}

	switch action {
	case selActionNav:
		// Tokens arrive from the transport unverified, so a forged page
		// number must not park the widget beyond the final page.
		if p, err := strconv.Atoi(value); err == nil && p >= 0 {
			sess.Scratch.Set(s.key("page"), min(p, s.lastPage()))
		}
	case selActionValue:
		if s.ReturnOnClick {
			s.clear(sess, "selected", "page")
			return dialog.StopWith(value), nil
		}
		selected := s.selection(sess)
		if s.Multiple {
			if i := slices.Index(selected, value); i >= 0 {
				selected = slices.Delete(selected, i, i+1)
			} else {
				selected = append(selected, value)
			}
		} else {
			selected = []string{value}
		}
		s.setSelection(sess, selected)
	}
	return dialog.InputResponse{Status: dialog.Continue}, nil
}

// lastPage is the zero-based index of the last page that holds choices.
func (s *Select) lastPage() int {
	offset := s.Offset
	if offset <= 0 {
		offset = defaultPageSize
	}
	if len(s.Choices) == 0 {
		return 0
	}
	return (len(s.Choices) - 1) / offset
}

// finalValue shapes the finalized selection: a slice for multi-selects, a
// scalar (possibly empty) for single selects.
func (s *Select) finalValue(selected []string) any {
	if s.Multiple {
		return selected
	}
	if len(selected) == 0 {
		return ""
	}
	return selected[0]
}

// pageWindow computes the pagination controls for one page: up to three
// page-number buttons plus previous/next arrows. Let last be the zero-based
// index of the final page; forward candidates run from current+1 up to but
// excluding min(last, current+3), then missing slots are backfilled with
// pages below current, clipped at zero.
func pageWindow(total, offset, current int) (pages []int, hasPrev, hasNext bool) {
	if offset <= 0 {
		offset = defaultPageSize
	}
	last := total / offset
	rest := total % offset

	upper := min(last, current+3)
	for p := current + 1; p < upper; p++ {
		pages = append(pages, p)
	}
	remaining := 3 - len(pages)
	for p := current - remaining; p < current; p++ {
		if p < 0 {
			continue
		}
		pages = append(pages, p)
	}
	slices.Sort(pages)

	hasPrev = current > 0
	switch {
	case current > last:
	case current == last && rest != 0:
	default:
		hasNext = true
	}
	return pages, hasPrev, hasNext
}
