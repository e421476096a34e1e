// Package field implements the input widget library: atomic, hook-capable
// dialogues that capture one typed value each. Every widget stages partial
// input and recoverable errors in the conversation scratch so it can be
// reconstructed between events.
package field

import (
	"encoding/json"

	"github.com/m3rciful/dialogbot/core/dialog"
)

// Control tokens shared by text-like widgets. The double-star framing keeps
// them out of the space of plausible user values.
const (
	TokenOK     = "**ok**"
	TokenCancel = "**cancel**"
)

func init() {
	dialog.RegisterHook(kindChar, charFromSpec)
	dialog.RegisterHook(kindText, charFromSpec)
	dialog.RegisterHook(kindInt, charFromSpec)
	dialog.RegisterHook(kindFloat, charFromSpec)
	dialog.RegisterHook(kindBool, charFromSpec)
	dialog.RegisterHook(kindDate, dateFromSpec)
	dialog.RegisterHook(kindCalendar, calendarFromSpec)
	dialog.RegisterHook(kindSelect, selectFromSpec)
}

// base carries the widget name and its scratch staging keys.
type base struct {
	name string
}

func (b base) key(suffix string) string {
	return "field." + b.name + "." + suffix
}

// stageError records a recoverable, field-level validation message shown on
// the next render.
func (b base) stageError(sess *dialog.Session, msg string) {
	sess.Scratch.Set(b.key("error"), msg)
}

// takeError consumes the staged validation message.
func (b base) takeError(sess *dialog.Session) string {
	msg := sess.Scratch.GetString(b.key("error"), "")
	sess.Scratch.Delete(b.key("error"))
	return msg
}

// peekError reads the staged validation message without consuming it.
func (b base) peekError(sess *dialog.Session) string {
	return sess.Scratch.GetString(b.key("error"), "")
}

// clear drops every staged key of this widget.
func (b base) clear(sess *dialog.Session, suffixes ...string) {
	for _, s := range suffixes {
		sess.Scratch.Delete(b.key(s))
	}
}

// Spec params survive a JSON round trip, so readers tolerate decoded forms.

func paramString(params map[string]any, key, fallback string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return fallback
}

func paramInt(params map[string]any, key string, fallback int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return fallback
}

func paramBool(params map[string]any, key string, fallback bool) bool {
	if v, ok := params[key].(bool); ok {
		return v
	}
	return fallback
}

func paramStrings(params map[string]any, key string) []string {
	switch v := params[key].(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func paramInts(params map[string]any, key string) []int {
	switch v := params[key].(type) {
	case []int:
		out := make([]int, len(v))
		copy(out, v)
		return out
	case []any:
		out := make([]int, 0, len(v))
		for _, item := range v {
			switch n := item.(type) {
			case int:
				out = append(out, n)
			case float64:
				out = append(out, int(n))
			}
		}
		return out
	}
	return nil
}
