package field

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/dialogbot/core/dialog"
)

const kindCalendar = "calendar"

// Calendar grid actions encoded into button tokens as
// "<action>::<year>::<month>::<day>".
const (
	calActionIgnore = "IGNORE"
	calActionDay    = "DAY"
	calActionPrev   = "PREV-MONTH"
	calActionNext   = "NEXT-MONTH"
)

// Calendar captures a date from a month-grid picker with previous/next
// month navigation. The displayed (year, month) defaults to today.
type Calendar struct {
	base
}

// NewCalendar builds a calendar-grid date field.
func NewCalendar(name string) *Calendar {
	return &Calendar{base: base{name: name}}
}

// Spec returns the persisted identity of this field.
func (c *Calendar) Spec() dialog.HookSpec {
	return dialog.HookSpec{
		Kind:   kindCalendar,
		Params: map[string]any{"name": c.name},
	}
}

func calendarFromSpec(spec dialog.HookSpec) (dialog.Hook, error) {
	name := paramString(spec.Params, "name", "")
	if name == "" {
		return nil, fmt.Errorf("field: calendar spec without name")
	}
	return NewCalendar(name), nil
}

func (c *Calendar) displayed(sess *dialog.Session) (int, time.Month) {
	now := time.Now()
	year := sess.Scratch.GetInt(c.key("year"), now.Year())
	month := sess.Scratch.GetInt(c.key("month"), int(now.Month()))
	return year, time.Month(month)
}

func calToken(action string, year int, month time.Month, day int) string {
	return fmt.Sprintf("%s::%d::%d::%d", action, year, int(month), day)
}

// Render draws the month header, weekday row, day grid, and navigation row.
func (c *Calendar) Render(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	year, month := c.displayed(sess)
	ignore := calToken(calActionIgnore, year, month, 0)

	menu := dialog.NewMenu(c.name)
	menu.AddRow(dialog.Btn(fmt.Sprintf("%s %d", month.String(), year), ignore))

	weekdays := []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}
	header := make([]dialog.Button, 0, 7)
	for _, wd := range weekdays {
		header = append(header, dialog.Btn(wd, ignore))
	}
	menu.AddRow(header...)

	for _, week := range monthWeeks(year, month) {
		row := make([]dialog.Button, 0, 7)
		for _, day := range week {
			if day == 0 {
				row = append(row, dialog.Btn(" ", ignore))
				continue
			}
			row = append(row, dialog.Btn(strconv.Itoa(day), calToken(calActionDay, year, month, day)))
		}
		menu.AddRow(row...)
	}

	menu.AddRow(
		dialog.Btn("<", calToken(calActionPrev, year, month, 0)),
		dialog.Btn(" ", ignore),
		dialog.Btn(">", calToken(calActionNext, year, month, 0)),
	)
	return dialog.ContinueWith(menu), nil
}

// Consume interprets a grid token: pick a day or step one month.
func (c *Calendar) Consume(ctx context.Context, ev *dialog.Event, sess *dialog.Session) (dialog.InputResponse, error) {
	parts := strings.Split(ev.Token, "::")
	if len(parts) != 4 {
		if ev.Token == TokenCancel {
			c.clear(sess, "year", "month")
			return dialog.Aborted(), nil
		}
		return dialog.InputResponse{Status: dialog.Continue}, nil
	}
	action := parts[0]
	year, _ := strconv.Atoi(parts[1])
	month, _ := strconv.Atoi(parts[2])
	day, _ := strconv.Atoi(parts[3])
	if year == 0 || month < 1 || month > 12 {
		return dialog.InputResponse{Status: dialog.Continue}, nil
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)

	switch action {
	case calActionDay:
		c.clear(sess, "year", "month")
		return dialog.StopWith(DateValue{Year: year, Month: month, Day: day}), nil
	case calActionPrev:
		prev := first.AddDate(0, 0, -1)
		sess.Scratch.Set(c.key("year"), prev.Year())
		sess.Scratch.Set(c.key("month"), int(prev.Month()))
	case calActionNext:
		// Exact month arithmetic: stepping from the first of the month can
		// never overshoot a short month.
		next := first.AddDate(0, 1, 0)
		sess.Scratch.Set(c.key("year"), next.Year())
		sess.Scratch.Set(c.key("month"), int(next.Month()))
	}
	return dialog.InputResponse{Status: dialog.Continue}, nil
}

// monthWeeks returns the weeks of a month as 7-day rows starting on Monday,
// padding out-of-month cells with zero.
func monthWeeks(year int, month time.Month) [][]int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()

	// Monday-indexed weekday of the 1st (0 = Monday).
	lead := (int(first.Weekday()) + 6) % 7

	var weeks [][]int
	week := make([]int, 7)
	pos := lead
	for day := 1; day <= daysInMonth; day++ {
		week[pos] = day
		pos++
		if pos == 7 {
			weeks = append(weeks, week)
			week = make([]int, 7)
			pos = 0
		}
	}
	if pos > 0 {
		weeks = append(weeks, week)
	}
	return weeks
}
