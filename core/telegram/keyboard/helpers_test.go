package keyboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/dialogbot/core/dialog"
)

func TestFromMenuCarriesTokensVerbatim(t *testing.T) {
	menu := dialog.NewMenu("pick",
		[]dialog.Button{dialog.Btn("OK", "**ok**"), dialog.Btn("Cancel", "**cancel**")},
		[]dialog.Button{dialog.Btn("Item", "value::v1")},
	)

	markup := FromMenu(menu)
	require.NotNil(t, markup)
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Equal(t, "OK", markup.InlineKeyboard[0][0].Text)
	assert.Equal(t, "**ok**", markup.InlineKeyboard[0][0].Data)
	assert.Equal(t, "value::v1", markup.InlineKeyboard[1][0].Data)
}

func TestFromMenuEmpty(t *testing.T) {
	assert.Nil(t, FromMenu(nil))
	assert.Nil(t, FromMenu(dialog.NewMenu("free text prompt")))
	assert.Nil(t, FromMenu(&dialog.Menu{Rows: [][]dialog.Button{{}}}))
}

func TestRows(t *testing.T) {
	markup := Rows([]dialog.Button{dialog.Btn("A", "a")})
	require.NotNil(t, markup)
	assert.Equal(t, "a", markup.InlineKeyboard[0][0].Data)
}
