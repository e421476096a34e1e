package field

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/dialog"
)

func TestDateSequentialCapture(t *testing.T) {
	d := NewDate("birthday", 2024, 2025, 2026)
	sess := newSession()
	ctx := context.Background()

	res, err := d.Render(ctx, token(""), sess)
	require.NoError(t, err)
	assert.Contains(t, res.Menu.Text, "year")

	_, err = d.Consume(ctx, token("2025"), sess)
	require.NoError(t, err)
	res, err = d.Render(ctx, token(""), sess)
	require.NoError(t, err)
	assert.Contains(t, res.Menu.Text, "month")

	_, err = d.Consume(ctx, token("6"), sess)
	require.NoError(t, err)
	res, err = d.Render(ctx, token(""), sess)
	require.NoError(t, err)
	assert.Contains(t, res.Menu.Text, "day")

	_, err = d.Consume(ctx, token("15"), sess)
	require.NoError(t, err)

	final, err := d.Consume(ctx, token(TokenOK), sess)
	require.NoError(t, err)
	assert.Equal(t, dialog.Stop, final.Status)
	assert.Equal(t, DateValue{Year: 2025, Month: 6, Day: 15}, final.Value)
}

func TestDateRejectsOutOfRange(t *testing.T) {
	d := NewDate("birthday", 2024, 2025)
	sess := newSession()
	ctx := context.Background()

	_, err := d.Consume(ctx, token("1999"), sess)
	require.NoError(t, err)
	res, err := d.Render(ctx, token(""), sess)
	require.NoError(t, err)
	assert.Contains(t, res.Menu.Text, "valid year")

	_, err = d.Consume(ctx, token("2024"), sess)
	require.NoError(t, err)
	_, err = d.Consume(ctx, token("13"), sess)
	require.NoError(t, err)
	res, err = d.Render(ctx, token(""), sess)
	require.NoError(t, err)
	assert.Contains(t, res.Menu.Text, "valid month")

	_, err = d.Consume(ctx, token("12"), sess)
	require.NoError(t, err)
	_, err = d.Consume(ctx, token("32"), sess)
	require.NoError(t, err)
	res, err = d.Render(ctx, token(""), sess)
	require.NoError(t, err)
	assert.Contains(t, res.Menu.Text, "valid day")
}

func TestDateClearResetsComponents(t *testing.T) {
	d := NewDate("birthday", 2024)
	sess := newSession()
	ctx := context.Background()

	_, err := d.Consume(ctx, token("2024"), sess)
	require.NoError(t, err)
	_, err = d.Consume(ctx, token("6"), sess)
	require.NoError(t, err)

	_, err = d.Consume(ctx, token(TokenClear), sess)
	require.NoError(t, err)

	res, err := d.Render(ctx, token(""), sess)
	require.NoError(t, err)
	assert.Contains(t, res.Menu.Text, "year")
}

func TestDateIncompleteConfirmRejected(t *testing.T) {
	d := NewDate("birthday", 2024)
	sess := newSession()
	ctx := context.Background()

	_, err := d.Consume(ctx, token("2024"), sess)
	require.NoError(t, err)

	res, err := d.Consume(ctx, token(TokenOK), sess)
	require.NoError(t, err)
	assert.Equal(t, dialog.Continue, res.Status)

	render, err := d.Render(ctx, token(""), sess)
	require.NoError(t, err)
	assert.Contains(t, render.Menu.Text, "not complete")
}

func TestDateCancelAborts(t *testing.T) {
	d := NewDate("birthday", 2024)
	sess := newSession()

	res, err := d.Consume(context.Background(), token(TokenCancel), sess)
	require.NoError(t, err)
	assert.Equal(t, dialog.Abort, res.Status)
}

func TestDateHookRoundTrip(t *testing.T) {
	d := NewDate("birthday", 2024, 2025)
	h, err := dialog.NewHook(d.Spec())
	require.NoError(t, err)

	rebuilt, ok := h.(*Date)
	require.True(t, ok)
	assert.Equal(t, []int{2024, 2025}, rebuilt.Years)
}

func TestDateDefaultYearsWindow(t *testing.T) {
	d := NewDate("birthday")
	assert.Len(t, d.Years, 9)
}
