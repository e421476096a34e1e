package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/m3rciful/dialogbot/core/logger"
)

// ErrSessionNotFound is returned by a SessionStore when the conversation has
// no persisted session yet.
var ErrSessionNotFound = errors.New("dialog: session not found")

// SessionStore is the persistence surface the dispatcher depends on.
// Save may defer the actual write; SaveForced must flush before returning so
// the next event on the same conversation reads its own writes.
type SessionStore interface {
	Load(ctx context.Context, id ConversationID) (*Session, error)
	Save(ctx context.Context, id ConversationID, sess *Session) error
	SaveForced(ctx context.Context, id ConversationID, sess *Session) error
}

// Dispatcher routes one inbound event through guard checks, the current
// state's next handler, and the resulting state's menu handler, persisting
// the session around the render.
type Dispatcher struct {
	states   *Registry
	sessions SessionStore

	mu    sync.Mutex
	locks map[ConversationID]*sync.Mutex
}

// NewDispatcher wires a dispatcher over a state registry and session store.
func NewDispatcher(states *Registry, sessions SessionStore) *Dispatcher {
	return &Dispatcher{
		states:   states,
		sessions: sessions,
		locks:    make(map[ConversationID]*sync.Mutex),
	}
}

// lockFor returns the exclusivity token of one conversation. Events for the
// same conversation run strictly one at a time; distinct conversations run
// in parallel.
func (d *Dispatcher) lockFor(id ConversationID) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	mu, ok := d.locks[id]
	if !ok {
		mu = &sync.Mutex{}
		d.locks[id] = mu
	}
	return mu
}

// HandleEvent processes one event end to end and returns the menu to render.
// A nil menu with a nil error means nothing could be rendered for this event;
// the session is still left consistent. A non-nil error reports a
// persistence failure.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev *Event) (*Menu, error) {
	id := ev.Conversation()
	mu := d.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := d.sessions.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("dialog: load session: %w", err)
		}
		sess = NewSession(id)
		logger.Debug(ctx, "dialog", "session.created",
			slog.String("conversation", id.String()),
		)
	}

	current := d.load(ctx, sess.State)
	resp := d.advance(ctx, current, ev, sess)

	next := d.load(ctx, resp.State)
	d.applyTransition(sess, current.Name(), next.Name(), resp)

	// First write: commit the advanced position before rendering so a
	// failed render cannot lose the transition.
	sess.Touch()
	if err := d.sessions.Save(ctx, id, sess); err != nil {
		return nil, fmt.Errorf("dialog: save session: %w", err)
	}

	menu := d.render(ctx, next, ev, sess)

	if restore := sess.takeRestore(); restore != "" && d.states.Has(restore) {
		sess.State = restore
	}
	if sess.Step < 1 {
		sess.Step = 1
	}

	// Second write: the authoritative final value, flushed before control
	// returns to the transport.
	if err := d.sessions.SaveForced(ctx, id, sess); err != nil {
		return menu, fmt.Errorf("dialog: save session: %w", err)
	}
	return menu, nil
}

// Reset forces the conversation into step 1 of the named state, dropping any
// active widget. Used for slash commands that restart a flow.
func (d *Dispatcher) Reset(ctx context.Context, id ConversationID, state string) error {
	mu := d.lockFor(id)
	mu.Lock()
	defer mu.Unlock()

	sess, err := d.sessions.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			return fmt.Errorf("dialog: load session: %w", err)
		}
		sess = NewSession(id)
	}
	if !d.states.Has(state) {
		state = StartState
	}
	sess.State = state
	sess.Step = 1
	ClearHook(sess)
	sess.Touch()
	if err := d.sessions.SaveForced(ctx, id, sess); err != nil {
		return fmt.Errorf("dialog: save session: %w", err)
	}
	return nil
}

// load resolves a state name, falling back to the start state for unknown
// names so the conversation can never dangle.
func (d *Dispatcher) load(ctx context.Context, name string) State {
	st, err := d.states.New(name)
	if err == nil {
		return st
	}
	logger.Warn(ctx, "dialog", "state.unknown",
		slog.String("state", name),
	)
	start, startErr := d.states.New(StartState)
	if startErr != nil {
		panic(fmt.Sprintf("dialog: start state %q not registered", StartState))
	}
	return start
}

// advance runs the next-context guard chain and the state's next handler.
// Any failure is recovered by forcing the transition to the start state.
func (d *Dispatcher) advance(ctx context.Context, st State, ev *Event, sess *Session) (resp NextResponse) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "dialog", "advance.panic",
				slog.String("state", st.Name()),
				slog.Any("err", r),
				slog.String("stack", string(debug.Stack())),
			)
			resp = NextResponse{State: StartState, ForceReturn: 1}
		}
	}()

	if guarded, ok := st.(Guarded); ok {
		for _, g := range guarded.Guards() {
			if allowed, fallback := g.CheckNext(ev); !allowed {
				logger.Debug(ctx, "dialog", "guard.denied",
					slog.String("state", st.Name()),
					slog.String("context", "next"),
					slog.Int64("user_id", ev.User.ID),
				)
				return fallback
			}
		}
	}

	resp, err := st.Next(ctx, ev, sess)
	if err != nil {
		logger.Error(ctx, "dialog", "advance.failed",
			slog.String("state", st.Name()),
			slog.Int("step", sess.Step),
			slog.String("err", err.Error()),
		)
		return NextResponse{State: StartState, ForceReturn: 1}
	}
	if resp.State == "" {
		resp.State = st.Name()
	}
	return resp
}

// applyTransition moves the session to the resolved state and step.
func (d *Dispatcher) applyTransition(sess *Session, from, to string, resp NextResponse) {
	switch {
	case resp.ForceReturn > 0:
		sess.Step = resp.ForceReturn
	case resp.Step > 0 && to == from:
		sess.Step = resp.Step
	case to != from:
		sess.Step = 1
	}
	sess.State = to
}

// render runs the menu-context guard chain and the state's menu handler.
// On failure it re-renders from the start state; a failure there too is
// swallowed and nothing is rendered, but the session stays consistent.
func (d *Dispatcher) render(ctx context.Context, st State, ev *Event, sess *Session) *Menu {
	if guarded, ok := st.(Guarded); ok {
		for _, g := range guarded.Guards() {
			if allowed, denied := g.CheckMenu(ev); !allowed {
				logger.Debug(ctx, "dialog", "guard.denied",
					slog.String("state", st.Name()),
					slog.String("context", "menu"),
					slog.Int64("user_id", ev.User.ID),
				)
				return denied
			}
		}
	}

	menu, err := d.renderState(ctx, st, ev, sess)
	if err == nil {
		return menu
	}
	logger.Error(ctx, "dialog", "render.failed",
		slog.String("state", st.Name()),
		slog.Int("step", sess.Step),
		slog.String("err", err.Error()),
	)

	sess.State = StartState
	sess.Step = 1
	start := d.load(ctx, StartState)
	menu, err = d.renderState(ctx, start, ev, sess)
	if err != nil {
		logger.Error(ctx, "dialog", "render.fallback_failed",
			slog.String("err", err.Error()),
		)
		return nil
	}
	return menu
}

// renderState invokes Menu with panic recovery.
func (d *Dispatcher) renderState(ctx context.Context, st State, ev *Event, sess *Session) (menu *Menu, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dialog: menu panic in %s: %v", st.Name(), r)
		}
	}()
	return st.Menu(ctx, ev, sess)
}
