package field

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/dialog"
)

func TestCalendarDaySelection(t *testing.T) {
	c := NewCalendar("appointment")
	sess := newSession()

	res, err := c.Consume(context.Background(), token("DAY::2025::3::14"), sess)
	require.NoError(t, err)
	assert.Equal(t, dialog.Stop, res.Status)
	assert.Equal(t, DateValue{Year: 2025, Month: 3, Day: 14}, res.Value)
}

func TestCalendarNextMonthAcrossYear(t *testing.T) {
	c := NewCalendar("appointment")
	sess := newSession()
	ctx := context.Background()

	_, err := c.Consume(ctx, token("NEXT-MONTH::2025::12::0"), sess)
	require.NoError(t, err)
	year, month := c.displayed(sess)
	assert.Equal(t, 2026, year)
	assert.Equal(t, 1, int(month))
}

func TestCalendarNextMonthFromJanuary(t *testing.T) {
	// Stepping forward from a 31-day month must land exactly one month
	// ahead, not skip into March.
	c := NewCalendar("appointment")
	sess := newSession()

	_, err := c.Consume(context.Background(), token("NEXT-MONTH::2025::1::0"), sess)
	require.NoError(t, err)
	year, month := c.displayed(sess)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 2, int(month))
}

func TestCalendarPrevMonthAcrossYear(t *testing.T) {
	c := NewCalendar("appointment")
	sess := newSession()

	_, err := c.Consume(context.Background(), token("PREV-MONTH::2025::1::0"), sess)
	require.NoError(t, err)
	year, month := c.displayed(sess)
	assert.Equal(t, 2024, year)
	assert.Equal(t, 12, int(month))
}

func TestCalendarIgnoreToken(t *testing.T) {
	c := NewCalendar("appointment")
	sess := newSession()

	res, err := c.Consume(context.Background(), token("IGNORE::2025::3::0"), sess)
	require.NoError(t, err)
	assert.Equal(t, dialog.Continue, res.Status)
}

func TestCalendarRenderGrid(t *testing.T) {
	c := NewCalendar("appointment")
	sess := newSession()
	sess.Scratch.Set("field.appointment.year", 2025)
	sess.Scratch.Set("field.appointment.month", 9)

	res, err := c.Render(context.Background(), token(""), sess)
	require.NoError(t, err)
	rows := res.Menu.Rows

	// Header, weekday row, five weeks, nav row.
	require.Len(t, rows, 8)
	assert.Equal(t, "September 2025", rows[0][0].Label)
	assert.Equal(t, "Mo", rows[1][0].Label)

	// September 1st 2025 is a Monday.
	assert.Equal(t, "1", rows[2][0].Label)
	assert.Equal(t, "DAY::2025::9::1", rows[2][0].Token)

	nav := rows[7]
	assert.Equal(t, "<", nav[0].Label)
	assert.Equal(t, ">", nav[2].Label)
}

func TestMonthWeeksPadding(t *testing.T) {
	weeks := monthWeeks(2025, 2) // February 2025 starts on a Saturday
	require.NotEmpty(t, weeks)
	first := weeks[0]
	assert.Equal(t, 0, first[0])
	assert.Equal(t, 1, first[5])
	assert.Equal(t, 2, first[6])

	last := weeks[len(weeks)-1]
	assert.Equal(t, 28, last[4])
	assert.Equal(t, 0, last[6])
}
