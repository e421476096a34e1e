package dialog

import "context"

// MenuFunc renders the menu of one step.
type MenuFunc func(ctx context.Context, ev *Event, sess *Session) (*Menu, error)

// NextFunc consumes the event for one step and returns a transition.
type NextFunc func(ctx context.Context, ev *Event, sess *Session) (NextResponse, error)

// Step is a (menu, next) handler pair bound to a position inside a state.
type Step struct {
	Menu MenuFunc
	Next NextFunc
}

// State is a named behavior unit holding one or more steps. Implementations
// are stateless per instance: the registry reconstructs them for every event
// and all conversation-scoped data lives in the session.
type State interface {
	Name() string
	// Menu renders the output for the session's current step.
	Menu(ctx context.Context, ev *Event, sess *Session) (*Menu, error)
	// Next consumes the event for the session's current step.
	Next(ctx context.Context, ev *Event, sess *Session) (NextResponse, error)
}

// Guard is a chainable access predicate gating state entry. A menu check
// failure yields a terminal denial menu; a next check failure yields a
// transition to the guard's fallback state.
type Guard interface {
	CheckMenu(ev *Event) (bool, *Menu)
	CheckNext(ev *Event) (bool, NextResponse)
}

// Guarded is implemented by states whose entry is gated by guards.
type Guarded interface {
	Guards() []Guard
}

// Base is the common multi-step state implementation: it resolves the active
// step from the session and dispatches to that step's handler pair.
type Base struct {
	name        string
	steps       []Step
	transitions map[string]string
	guards      []Guard
}

// NewBase builds a state from ordered steps. Step positions are 1-based.
// A state needs at least one step; panicking here surfaces a misregistered
// state at wiring time rather than on the first event.
func NewBase(name string, steps ...Step) *Base {
	if len(steps) == 0 {
		panic("dialog: state " + name + " declared with no steps")
	}
	return &Base{name: name, steps: steps}
}

// WithTransitions declares the symbolic reason -> target state map.
func (b *Base) WithTransitions(transitions map[string]string) *Base {
	b.transitions = transitions
	return b
}

// WithGuards attaches access guards evaluated before entry.
func (b *Base) WithGuards(guards ...Guard) *Base {
	b.guards = append(b.guards, guards...)
	return b
}

// Name returns the state's registry name.
func (b *Base) Name() string { return b.name }

// Guards returns the attached guard chain.
func (b *Base) Guards() []Guard { return b.guards }

// Transition resolves a symbolic reason to a target state name.
func (b *Base) Transition(reason string) (string, bool) {
	target, ok := b.transitions[reason]
	return target, ok
}

// Steps reports the number of declared steps.
func (b *Base) Steps() int { return len(b.steps) }

// step clamps the session step into the valid range and returns the pair.
func (b *Base) step(sess *Session) Step {
	pos := sess.Step
	if pos < 1 || pos > len(b.steps) {
		pos = 1
	}
	return b.steps[pos-1]
}

// Menu dispatches to the active step's menu handler.
func (b *Base) Menu(ctx context.Context, ev *Event, sess *Session) (*Menu, error) {
	step := b.step(sess)
	if step.Menu == nil {
		return NewMenu(""), nil
	}
	return step.Menu(ctx, ev, sess)
}

// Next dispatches to the active step's next handler. A step without a next
// handler stays where it is.
func (b *Base) Next(ctx context.Context, ev *Event, sess *Session) (NextResponse, error) {
	step := b.step(sess)
	if step.Next == nil {
		return NextResponse{State: b.name}, nil
	}
	return step.Next(ctx, ev, sess)
}
