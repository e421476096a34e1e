package dialog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory SessionStore recording write counts.
type memStore struct {
	sessions map[ConversationID]*Session
	saves    int
	forced   int
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[ConversationID]*Session)}
}

func (m *memStore) Load(ctx context.Context, id ConversationID) (*Session, error) {
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (m *memStore) Save(ctx context.Context, id ConversationID, sess *Session) error {
	m.sessions[id] = sess
	m.saves++
	return nil
}

func (m *memStore) SaveForced(ctx context.Context, id ConversationID, sess *Session) error {
	m.sessions[id] = sess
	m.forced++
	return nil
}

func testEvent(token string) *Event {
	return &Event{
		Token: token,
		User:  User{ID: 7},
		Chat:  Chat{ID: 42, Type: ChatPrivate},
	}
}

func startState() *Base {
	return NewBase(StartState,
		Step{
			Menu: func(ctx context.Context, ev *Event, sess *Session) (*Menu, error) {
				return NewMenu("home"), nil
			},
			Next: func(ctx context.Context, ev *Event, sess *Session) (NextResponse, error) {
				switch ev.Token {
				case "go":
					return Goto("OTHER"), nil
				case "step2":
					return GotoStep(StartState, 2), nil
				}
				return Goto(StartState), nil
			},
		},
		Step{
			Menu: func(ctx context.Context, ev *Event, sess *Session) (*Menu, error) {
				return NewMenu("home step 2"), nil
			},
		},
	)
}

func otherState() *Base {
	return NewBase("OTHER",
		Step{
			Menu: func(ctx context.Context, ev *Event, sess *Session) (*Menu, error) {
				return NewMenu("other"), nil
			},
			Next: func(ctx context.Context, ev *Event, sess *Session) (NextResponse, error) {
				return Goto("OTHER"), nil
			},
		},
	)
}

func testDispatcher(t *testing.T, states ...State) (*Dispatcher, *memStore) {
	t.Helper()
	reg := NewRegistry()
	reg.RegisterState(startState())
	for _, st := range states {
		reg.RegisterState(st)
	}
	store := newMemStore()
	return NewDispatcher(reg, store), store
}

func TestHandleEventCreatesSession(t *testing.T) {
	d, store := testDispatcher(t)

	menu, err := d.HandleEvent(context.Background(), testEvent("hi"))
	require.NoError(t, err)
	require.NotNil(t, menu)
	assert.Equal(t, "home", menu.Text)

	sess := store.sessions[ConversationID{ChatID: 42, UserID: 7}]
	require.NotNil(t, sess)
	assert.Equal(t, StartState, sess.State)
	assert.Equal(t, 1, sess.Step)
	assert.False(t, sess.LastActivity.IsZero())
}

func TestHandleEventWritesTwice(t *testing.T) {
	d, store := testDispatcher(t)

	_, err := d.HandleEvent(context.Background(), testEvent("hi"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, store.forced)
}

func TestCrossStateTransitionResetsStep(t *testing.T) {
	d, store := testDispatcher(t, otherState())
	id := ConversationID{ChatID: 42, UserID: 7}

	sess := NewSession(id)
	sess.Step = 2
	store.sessions[id] = sess

	menu, err := d.HandleEvent(context.Background(), testEvent("anything"))
	require.NoError(t, err)
	require.NotNil(t, menu)

	// Step 2 has no next handler, so the conversation stays where it is.
	assert.Equal(t, StartState, store.sessions[id].State)
	assert.Equal(t, 2, store.sessions[id].Step)

	store.sessions[id].Step = 1
	_, err = d.HandleEvent(context.Background(), testEvent("go"))
	require.NoError(t, err)
	assert.Equal(t, "OTHER", store.sessions[id].State)
	assert.Equal(t, 1, store.sessions[id].Step)
}

func TestStepHintAppliesWithinState(t *testing.T) {
	d, store := testDispatcher(t)
	id := ConversationID{ChatID: 42, UserID: 7}

	menu, err := d.HandleEvent(context.Background(), testEvent("step2"))
	require.NoError(t, err)
	require.NotNil(t, menu)
	assert.Equal(t, "home step 2", menu.Text)
	assert.Equal(t, 2, store.sessions[id].Step)
}

func TestForceReturnOverridesStep(t *testing.T) {
	jumper := NewBase("JUMPER",
		Step{
			Next: func(ctx context.Context, ev *Event, sess *Session) (NextResponse, error) {
				return Return(StartState, 2), nil
			},
		},
	)
	d, store := testDispatcher(t, jumper)
	id := ConversationID{ChatID: 42, UserID: 7}
	sess := NewSession(id)
	sess.State = "JUMPER"
	store.sessions[id] = sess

	menu, err := d.HandleEvent(context.Background(), testEvent("x"))
	require.NoError(t, err)
	require.NotNil(t, menu)
	assert.Equal(t, StartState, store.sessions[id].State)
	assert.Equal(t, 2, store.sessions[id].Step)
	assert.Equal(t, "home step 2", menu.Text)
}

func TestNextPanicRecoversToStart(t *testing.T) {
	broken := NewBase("BROKEN",
		Step{
			Next: func(ctx context.Context, ev *Event, sess *Session) (NextResponse, error) {
				panic("boom")
			},
		},
	)
	d, store := testDispatcher(t, broken)
	id := ConversationID{ChatID: 42, UserID: 7}
	sess := NewSession(id)
	sess.State = "BROKEN"
	store.sessions[id] = sess

	menu, err := d.HandleEvent(context.Background(), testEvent("x"))
	require.NoError(t, err)
	require.NotNil(t, menu)
	assert.Equal(t, "home", menu.Text)
	assert.Equal(t, StartState, store.sessions[id].State)
	assert.Equal(t, 1, store.sessions[id].Step)
}

func TestUnknownStateFallsBackToStart(t *testing.T) {
	d, store := testDispatcher(t)
	id := ConversationID{ChatID: 42, UserID: 7}
	sess := NewSession(id)
	sess.State = "GONE"
	store.sessions[id] = sess

	menu, err := d.HandleEvent(context.Background(), testEvent("x"))
	require.NoError(t, err)
	require.NotNil(t, menu)
	assert.Equal(t, StartState, store.sessions[id].State)
}

func TestRenderFailureFallsBackToStart(t *testing.T) {
	failing := NewBase("FAILING",
		Step{
			Menu: func(ctx context.Context, ev *Event, sess *Session) (*Menu, error) {
				panic("render boom")
			},
			Next: func(ctx context.Context, ev *Event, sess *Session) (NextResponse, error) {
				return Goto("FAILING"), nil
			},
		},
	)
	d, store := testDispatcher(t, failing)
	id := ConversationID{ChatID: 42, UserID: 7}
	sess := NewSession(id)
	sess.State = "FAILING"
	store.sessions[id] = sess

	menu, err := d.HandleEvent(context.Background(), testEvent("x"))
	require.NoError(t, err)
	require.NotNil(t, menu)
	assert.Equal(t, "home", menu.Text)
	assert.Equal(t, StartState, store.sessions[id].State)
	assert.Equal(t, 1, store.sessions[id].Step)
}

func TestRestoreConsumedAfterRender(t *testing.T) {
	restoring := NewBase("RESTORING",
		Step{
			Menu: func(ctx context.Context, ev *Event, sess *Session) (*Menu, error) {
				sess.RestoreTo(StartState)
				return NewMenu("sub-dialog"), nil
			},
			Next: func(ctx context.Context, ev *Event, sess *Session) (NextResponse, error) {
				return Goto("RESTORING"), nil
			},
		},
	)
	d, store := testDispatcher(t, restoring)
	id := ConversationID{ChatID: 42, UserID: 7}
	sess := NewSession(id)
	sess.State = "RESTORING"
	store.sessions[id] = sess

	menu, err := d.HandleEvent(context.Background(), testEvent("x"))
	require.NoError(t, err)
	require.NotNil(t, menu)
	assert.Equal(t, "sub-dialog", menu.Text)
	assert.Equal(t, StartState, store.sessions[id].State)
	_, ok := store.sessions[id].Scratch.Get("__restore")
	assert.False(t, ok)
}

func TestGuardDeniedNextRoutesToFallback(t *testing.T) {
	denied := NewBase("LOCKED",
		Step{
			Menu: func(ctx context.Context, ev *Event, sess *Session) (*Menu, error) {
				return NewMenu("secret"), nil
			},
			Next: func(ctx context.Context, ev *Event, sess *Session) (NextResponse, error) {
				return Goto("LOCKED"), nil
			},
		},
	).WithGuards(denyAll{})

	d, store := testDispatcher(t, denied)
	id := ConversationID{ChatID: 42, UserID: 7}
	sess := NewSession(id)
	sess.State = "LOCKED"
	store.sessions[id] = sess

	menu, err := d.HandleEvent(context.Background(), testEvent("x"))
	require.NoError(t, err)
	require.NotNil(t, menu)
	assert.Equal(t, "home", menu.Text)
	assert.Equal(t, StartState, store.sessions[id].State)
	assert.Equal(t, 1, store.sessions[id].Step)
}

func TestReset(t *testing.T) {
	d, store := testDispatcher(t, otherState())
	id := ConversationID{ChatID: 42, UserID: 7}
	sess := NewSession(id)
	sess.State = "OTHER"
	sess.Step = 3
	InstallHook(sess, stubHook{})
	store.sessions[id] = sess

	require.NoError(t, d.Reset(context.Background(), id, StartState))
	assert.Equal(t, StartState, store.sessions[id].State)
	assert.Equal(t, 1, store.sessions[id].Step)
	_, ok := store.sessions[id].Scratch.Get("__hook")
	assert.False(t, ok)
}

type denyAll struct{}

func (denyAll) CheckMenu(ev *Event) (bool, *Menu) {
	return false, NewMenu("denied")
}

func (denyAll) CheckNext(ev *Event) (bool, NextResponse) {
	return false, Return(StartState, 1)
}

type stubHook struct{}

func (stubHook) Spec() HookSpec {
	return HookSpec{Kind: "stub"}
}

func (stubHook) Render(ctx context.Context, ev *Event, sess *Session) (InputResponse, error) {
	return ContinueWith(NewMenu("stub")), nil
}

func (stubHook) Consume(ctx context.Context, ev *Event, sess *Session) (InputResponse, error) {
	return StopWith("done"), nil
}
