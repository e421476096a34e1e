package dialog

// Button is one labeled choice in a menu. Token is the opaque value sent
// back by the transport when the user picks it.
type Button struct {
	Label string
	Token string
}

// Btn is a shorthand Button constructor.
func Btn(label, token string) Button {
	return Button{Label: label, Token: token}
}

// Menu is a pure render payload: display text plus an ordered grid of
// labeled choices. A menu without rows prompts for free text.
type Menu struct {
	Text string
	Rows [][]Button
}

// NewMenu builds a menu from text and optional button rows.
func NewMenu(text string, rows ...[]Button) *Menu {
	return &Menu{Text: text, Rows: rows}
}

// AddRow appends one row of buttons to the menu.
func (m *Menu) AddRow(buttons ...Button) *Menu {
	m.Rows = append(m.Rows, buttons)
	return m
}

// NextResponse is a transition directive returned by a state's next handler.
// Step is applied only when the transition stays in the same state.
// ForceReturn overrides the step unconditionally, even when the target state
// differs, and wins over Step when both are set.
type NextResponse struct {
	State       string
	Step        int
	ForceReturn int
}

// Goto builds a transition to the given state.
func Goto(state string) NextResponse {
	return NextResponse{State: state}
}

// GotoStep builds a transition to the given state with a step hint.
func GotoStep(state string, step int) NextResponse {
	return NextResponse{State: state, Step: step}
}

// Return builds a transition that jumps into a specific step of the target
// state regardless of where the conversation was.
func Return(state string, step int) NextResponse {
	return NextResponse{State: state, ForceReturn: step}
}

// InputStatus reports the outcome of one widget interaction.
type InputStatus int

const (
	// Continue means the widget needs more input and stays active.
	Continue InputStatus = iota
	// Stop means the widget finalized with a value.
	Stop
	// Abort means the user cancelled the widget.
	Abort
)

// String names the status for logs.
func (s InputStatus) String() string {
	switch s {
	case Continue:
		return "continue"
	case Stop:
		return "stop"
	case Abort:
		return "abort"
	}
	return "unknown"
}

// InputResponse is the widget-result protocol tying hooks to their hosts.
// Menu is set on the render path while Status is Continue. Value is set
// when Status is Stop.
type InputResponse struct {
	Status InputStatus
	Menu   *Menu
	Value  any
}

// ContinueWith wraps a menu into a Continue input response.
func ContinueWith(menu *Menu) InputResponse {
	return InputResponse{Status: Continue, Menu: menu}
}

// StopWith finalizes the widget with a value.
func StopWith(value any) InputResponse {
	return InputResponse{Status: Stop, Value: value}
}

// Aborted reports an intentionally cancelled widget.
func Aborted() InputResponse {
	return InputResponse{Status: Abort}
}
