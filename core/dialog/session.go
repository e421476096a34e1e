package dialog

import (
	"encoding/json"
	"time"
)

// StartState is the distinguished entry state every conversation begins in
// and the state the dispatcher falls back to on unrecoverable failures.
const StartState = "START"

const restoreKey = "__restore"

// Scratch is the per-conversation ephemeral key-value working memory used by
// steps and widgets. Values must survive a JSON round trip, so numeric
// getters accept both native ints and decoded float64s.
type Scratch map[string]any

// Set stores a value under key.
func (s Scratch) Set(key string, value any) {
	s[key] = value
}

// Delete removes key if present.
func (s Scratch) Delete(key string) {
	delete(s, key)
}

// Get returns the raw value and whether it was present.
func (s Scratch) Get(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}

// GetString returns the value under key as a string, or fallback.
func (s Scratch) GetString(key, fallback string) string {
	if v, ok := s[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return fallback
}

// GetInt returns the value under key as an int, or fallback.
func (s Scratch) GetInt(key string, fallback int) int {
	v, ok := s[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return fallback
}

// GetBool returns the value under key as a bool, or fallback.
func (s Scratch) GetBool(key string, fallback bool) bool {
	if v, ok := s[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

// GetStrings returns the value under key as a string slice, or nil.
// Slices decoded from JSON arrive as []any and are converted element-wise.
func (s Scratch) GetStrings(key string) []string {
	v, ok := s[key]
	if !ok {
		return nil
	}
	switch vs := v.(type) {
	case []string:
		out := make([]string, len(vs))
		copy(out, vs)
		return out
	case []any:
		out := make([]string, 0, len(vs))
		for _, item := range vs {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Clone returns a deep copy made via a JSON round trip, so the copy is
// decoupled from in-place mutation by the active conversation.
func (s Scratch) Clone() Scratch {
	if len(s) == 0 {
		return Scratch{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		out := make(Scratch, len(s))
		for k, v := range s {
			out[k] = v
		}
		return out
	}
	out := Scratch{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Scratch{}
	}
	return out
}

// Session is the persisted position of one conversation: current state name,
// current step (>= 1), scratch storage, and the last activity timestamp.
type Session struct {
	Conversation ConversationID
	State        string
	Step         int
	Scratch      Scratch
	LastActivity time.Time
}

// NewSession creates a fresh session parked at the start state.
func NewSession(id ConversationID) *Session {
	return &Session{
		Conversation: id,
		State:        StartState,
		Step:         1,
		Scratch:      Scratch{},
		LastActivity: time.Now().UTC(),
	}
}

// Touch refreshes the last activity timestamp.
func (s *Session) Touch() {
	s.LastActivity = time.Now().UTC()
}

// RestoreTo asks the dispatcher to record the given state as the final
// persisted state of the current event instead of the rendered one. Used by
// sub-dialogs that must bounce the conversation back to a parent state.
func (s *Session) RestoreTo(state string) {
	s.Scratch.Set(restoreKey, state)
}

// takeRestore consumes a pending restore request, if any.
func (s *Session) takeRestore() string {
	state := s.Scratch.GetString(restoreKey, "")
	s.Scratch.Delete(restoreKey)
	return state
}

// Clone returns a deep copy safe to hand to the deferred saver while the
// original keeps being mutated.
func (s *Session) Clone() *Session {
	return &Session{
		Conversation: s.Conversation,
		State:        s.State,
		Step:         s.Step,
		Scratch:      s.Scratch.Clone(),
		LastActivity: s.LastActivity,
	}
}
