package dialog

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

const hookKey = "__hook"

// Hook is a nested dialogue unit (widget, form, sub-state) a host state
// temporarily delegates to. Hooks are not kept alive between events: the
// host persists a HookSpec and the engine reconstructs the hook from it.
type Hook interface {
	// Spec returns the discriminator and constructor parameters needed to
	// rebuild this hook on the next event.
	Spec() HookSpec
	// Render produces the hook's menu, reading staged input from scratch.
	Render(ctx context.Context, ev *Event, sess *Session) (InputResponse, error)
	// Consume interprets the event's token against the hook's alphabet.
	Consume(ctx context.Context, ev *Event, sess *Session) (InputResponse, error)
}

// HookSpec is the minimal persisted identity of an installed hook.
type HookSpec struct {
	Kind   string         `json:"kind"`
	Params map[string]any `json:"params,omitempty"`
}

// HookFactory rebuilds a hook from its persisted spec.
type HookFactory func(spec HookSpec) (Hook, error)

var (
	hookMu        sync.RWMutex
	hookFactories = map[string]HookFactory{}
)

// RegisterHook associates a hook kind with its factory.
func RegisterHook(kind string, factory HookFactory) {
	if kind == "" || factory == nil {
		return
	}
	hookMu.Lock()
	defer hookMu.Unlock()
	hookFactories[kind] = factory
}

// NewHook constructs a hook from a spec via the registered factory.
func NewHook(spec HookSpec) (Hook, error) {
	hookMu.RLock()
	factory, ok := hookFactories[spec.Kind]
	hookMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("dialog: unknown hook kind %q", spec.Kind)
	}
	return factory(spec)
}

// InstallHook stores the hook's spec in the session, making it the single
// active hook of the conversation. A nil hook clears the slot; installing
// over an existing hook replaces it.
func InstallHook(sess *Session, h Hook) {
	if h == nil {
		sess.Scratch.Delete(hookKey)
		return
	}
	spec := h.Spec()
	sess.Scratch.Set(hookKey, map[string]any{
		"kind":   spec.Kind,
		"params": spec.Params,
	})
}

// ClearHook removes the installed hook, if any.
func ClearHook(sess *Session) {
	sess.Scratch.Delete(hookKey)
}

// CurrentHook reconstructs the installed hook from its persisted spec so it
// resumes exactly where it left off. Returns (nil, nil) when no hook is
// installed.
func CurrentHook(sess *Session) (Hook, error) {
	raw, ok := sess.Scratch.Get(hookKey)
	if !ok {
		return nil, nil
	}
	spec, err := decodeHookSpec(raw)
	if err != nil {
		return nil, err
	}
	return NewHook(spec)
}

// decodeHookSpec accepts both the in-memory map and the JSON-decoded form.
func decodeHookSpec(raw any) (HookSpec, error) {
	switch v := raw.(type) {
	case HookSpec:
		return v, nil
	case map[string]any:
		var spec HookSpec
		data, err := json.Marshal(v)
		if err != nil {
			return HookSpec{}, fmt.Errorf("dialog: encode hook spec: %w", err)
		}
		if err := json.Unmarshal(data, &spec); err != nil {
			return HookSpec{}, fmt.Errorf("dialog: decode hook spec: %w", err)
		}
		if spec.Kind == "" {
			return HookSpec{}, fmt.Errorf("dialog: hook spec without kind")
		}
		return spec, nil
	default:
		return HookSpec{}, fmt.Errorf("dialog: malformed hook spec %T", raw)
	}
}
