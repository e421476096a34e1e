// Package keyboard builds Telegram reply markups from engine menus.
package keyboard

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dialogbot/core/dialog"
)

// ForceReply returns a markup that forces the user to reply.
func ForceReply() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{ForceReply: true}
}

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// FromMenu converts menu rows into an inline keyboard. Button tokens are
// carried verbatim as callback data so they round-trip through Telegram
// unchanged. A menu without rows yields a nil markup.
func FromMenu(menu *dialog.Menu) *tele.ReplyMarkup {
	if menu == nil || len(menu.Rows) == 0 {
		return nil
	}
	inline := make([][]tele.InlineButton, 0, len(menu.Rows))
	for _, row := range menu.Rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, 0, len(row))
		for _, btn := range row {
			r = append(r, tele.InlineButton{Text: btn.Label, Data: btn.Token})
		}
		inline = append(inline, r)
	}
	if len(inline) == 0 {
		return nil
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// Rows builds an inline keyboard from rows of (label, data) buttons.
func Rows(rows ...[]dialog.Button) *tele.ReplyMarkup {
	return FromMenu(&dialog.Menu{Rows: rows})
}
