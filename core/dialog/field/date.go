package field

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/m3rciful/dialogbot/core/dialog"
)

const kindDate = "date"

// TokenClear resets every staged date component.
const TokenClear = "clear"

// DateValue is the structured result of the date widgets.
type DateValue struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

// Date captures a date through three sequential prompts: year from a fixed
// set, then month, then day. Each prompt is gated behind the previous
// component being staged.
type Date struct {
	base
	Years []int
}

// NewDate builds a sequential date field offering the given years. An empty
// list defaults to a window around the current year.
func NewDate(name string, years ...int) *Date {
	if len(years) == 0 {
		current := time.Now().Year()
		for y := current - 4; y <= current+4; y++ {
			years = append(years, y)
		}
	}
	return &Date{base: base{name: name}, Years: years}
}

// Spec returns the persisted identity of this field.
func (d *Date) Spec() dialog.HookSpec {
	return dialog.HookSpec{
		Kind: kindDate,
		Params: map[string]any{
			"name":  d.name,
			"years": d.Years,
		},
	}
}

func dateFromSpec(spec dialog.HookSpec) (dialog.Hook, error) {
	name := paramString(spec.Params, "name", "")
	if name == "" {
		return nil, fmt.Errorf("field: date spec without name")
	}
	return NewDate(name, paramInts(spec.Params, "years")...), nil
}

func (d *Date) staged(sess *dialog.Session) (year, month, day int) {
	year = sess.Scratch.GetInt(d.key("year"), 0)
	month = sess.Scratch.GetInt(d.key("month"), 0)
	day = sess.Scratch.GetInt(d.key("day"), 0)
	return
}

// Render prompts for the first unset component.
func (d *Date) Render(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	year, month, day := d.staged(sess)

	var menu *dialog.Menu
	switch {
	case year == 0:
		menu = dialog.NewMenu("Please select the year:")
		menu.Rows = numberGrid(d.Years, 3)
	case month == 0:
		menu = dialog.NewMenu(fmt.Sprintf("%s: --/--/%d\n\nPlease select the month:", d.name, year))
		menu.Rows = numberRange(1, 12, 3)
		menu.AddRow(dialog.Btn("Clear", TokenClear))
	case day == 0:
		menu = dialog.NewMenu(fmt.Sprintf("%s: --/%02d/%d\n\nPlease select the day:", d.name, month, year))
		menu.Rows = numberRange(1, 31, 3)
		menu.AddRow(dialog.Btn("Clear", TokenClear))
	default:
		menu = dialog.NewMenu(fmt.Sprintf("%s: %02d/%02d/%d", d.name, day, month, year))
		menu.AddRow(dialog.Btn("Clear", TokenClear))
		menu.AddRow(dialog.Btn("OK", TokenOK))
	}

	if errMsg := d.peekError(sess); errMsg != "" {
		menu.Text += "\n\nError: " + errMsg
	}
	return dialog.ContinueWith(menu), nil
}

// Consume stages the next component, resets on clear, or finalizes on ok.
func (d *Date) Consume(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	year, month, day := d.staged(sess)

	switch ev.Token {
	case TokenOK:
		if year == 0 || month == 0 || day == 0 {
			d.stageError(sess, "The date is not complete")
			return dialog.InputResponse{Status: dialog.Continue}, nil
		}
		d.clear(sess, "year", "month", "day", "error")
		return dialog.StopWith(DateValue{Year: year, Month: month, Day: day}), nil
	case TokenClear:
		d.clear(sess, "year", "month", "day", "error")
		return dialog.InputResponse{Status: dialog.Continue}, nil
	case TokenCancel:
		d.clear(sess, "year", "month", "day", "error")
		return dialog.Aborted(), nil
	}

	n, err := strconv.Atoi(ev.Token)
	if err != nil {
		d.stageError(sess, "Please enter a valid number")
		return dialog.InputResponse{Status: dialog.Continue}, nil
	}

	d.takeError(sess)
	switch {
	case year == 0:
		d.stageComponent(sess, "year", n, d.validYear(n), "Please enter a valid year")
	case month == 0:
		d.stageComponent(sess, "month", n, n >= 1 && n <= 12, "Please enter a valid month")
	case day == 0:
		d.stageComponent(sess, "day", n, n >= 1 && n <= 31, "Please enter a valid day")
	}
	return dialog.InputResponse{Status: dialog.Continue}, nil
}

func (d *Date) stageComponent(sess *dialog.Session, component string, n int, valid bool, msg string) {
	if !valid {
		d.stageError(sess, msg)
		return
	}
	sess.Scratch.Set(d.key(component), n)
}

func (d *Date) validYear(n int) bool {
	for _, y := range d.Years {
		if y == n {
			return true
		}
	}
	return false
}

// numberGrid lays out the given numbers as token buttons, perRow per row.
func numberGrid(numbers []int, perRow int) [][]dialog.Button {
	var rows [][]dialog.Button
	var row []dialog.Button
	for _, n := range numbers {
		row = append(row, dialog.Btn(fmt.Sprintf("%02d", n), strconv.Itoa(n)))
		if len(row) == perRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

// numberRange lays out from..to inclusive as token buttons.
func numberRange(from, to, perRow int) [][]dialog.Button {
	numbers := make([]int, 0, to-from+1)
	for n := from; n <= to; n++ {
		numbers = append(numbers, n)
	}
	return numberGrid(numbers, perRow)
}
