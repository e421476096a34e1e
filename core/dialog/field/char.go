package field

import (
	"context"
	"fmt"

	"github.com/m3rciful/dialogbot/core/dialog"
)

const (
	kindChar = "char"
	kindText = "text"
)

// Char captures a length-bounded string. Typed variants (int, float, bool,
// text) reuse the same capture loop with a different parse function.
type Char struct {
	base
	kind       string
	MinLen     int
	MaxLen     int
	AllowBlank bool
	Initial    string

	// parse converts validated raw text to the final value. nil keeps the
	// raw string.
	parse func(raw string) (any, error)
}

// NewChar builds a string field with the given length bounds.
func NewChar(name string, minLen, maxLen int) *Char {
	return &Char{base: base{name: name}, kind: kindChar, MinLen: minLen, MaxLen: maxLen}
}

// NewText builds a long-text field bounded by one transport message.
func NewText(name string) *Char {
	return &Char{base: base{name: name}, kind: kindText, MaxLen: 4096, AllowBlank: true}
}

// WithInitial sets the value restored when the user confirms without input.
func (c *Char) WithInitial(value string) *Char {
	c.Initial = value
	return c
}

// Spec returns the persisted identity of this field.
func (c *Char) Spec() dialog.HookSpec {
	return dialog.HookSpec{
		Kind: c.kind,
		Params: map[string]any{
			"name":    c.name,
			"min_len": c.MinLen,
			"max_len": c.MaxLen,
			"blank":   c.AllowBlank,
			"initial": c.Initial,
		},
	}
}

// charFromSpec rebuilds any of the text-backed field kinds.
func charFromSpec(spec dialog.HookSpec) (dialog.Hook, error) {
	name := paramString(spec.Params, "name", "")
	if name == "" {
		return nil, fmt.Errorf("field: %s spec without name", spec.Kind)
	}
	c := &Char{
		base:       base{name: name},
		kind:       spec.Kind,
		MinLen:     paramInt(spec.Params, "min_len", 0),
		MaxLen:     paramInt(spec.Params, "max_len", 0),
		AllowBlank: paramBool(spec.Params, "blank", false),
		Initial:    paramString(spec.Params, "initial", ""),
	}
	switch spec.Kind {
	case kindInt:
		c.parse = parseInt
	case kindFloat:
		c.parse = parseFloat
	case kindBool:
		c.parse = parseBool
	}
	return c, nil
}

// currentValue returns the staged value, falling back to the initial one.
func (c *Char) currentValue(sess *dialog.Session) (any, bool) {
	if v, ok := sess.Scratch.Get(c.key("value")); ok {
		return v, true
	}
	if c.Initial != "" {
		return c.Initial, false
	}
	return nil, false
}

// Render produces the prompt with the staged value and any pending error.
func (c *Char) Render(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	text := fmt.Sprintf("Send the value of %s", c.name)
	if value, _ := c.currentValue(sess); value != nil {
		text += fmt.Sprintf("\n\nCurrent value: %v", value)
	}
	if errMsg := c.peekError(sess); errMsg != "" {
		text += "\n\nError: " + errMsg
	}

	menu := dialog.NewMenu(text,
		[]dialog.Button{dialog.Btn("OK", TokenOK)},
		[]dialog.Button{dialog.Btn("Cancel", TokenCancel)},
	)
	return dialog.ContinueWith(menu), nil
}

// Consume interprets one token: confirm, cancel, or a candidate value.
func (c *Char) Consume(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	switch ev.Token {
	case TokenOK:
		value, staged := c.currentValue(sess)
		if !staged && value == nil && !c.AllowBlank {
			c.stageError(sess, "The field can't be blank")
			return dialog.InputResponse{Status: dialog.Continue}, nil
		}
		c.clear(sess, "value", "error")
		return dialog.StopWith(value), nil
	case TokenCancel:
		c.clear(sess, "value", "error")
		return dialog.Aborted(), nil
	}

	raw := ev.Token
	if msg, ok := c.validate(raw); !ok {
		c.stageError(sess, msg)
		return dialog.InputResponse{Status: dialog.Continue}, nil
	}

	value := any(raw)
	if c.parse != nil {
		parsed, err := c.parse(raw)
		if err != nil {
			c.stageError(sess, err.Error())
			return dialog.InputResponse{Status: dialog.Continue}, nil
		}
		value = parsed
	}

	c.takeError(sess)
	sess.Scratch.Set(c.key("value"), value)
	return dialog.InputResponse{Status: dialog.Continue, Value: value}, nil
}

// validate applies the length and blank constraints.
func (c *Char) validate(raw string) (string, bool) {
	if raw == "" && !c.AllowBlank {
		return "The field can't be blank", false
	}
	if c.MaxLen > 0 && len(raw) > c.MaxLen {
		return "The submitted value is greater than the max length allowed", false
	}
	if c.MinLen > 0 && len(raw) < c.MinLen {
		return "The submitted value is lower than the min length allowed", false
	}
	return "", true
}
