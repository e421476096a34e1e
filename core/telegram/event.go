package telegram

import (
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dialogbot/core/dialog"
)

// Roles resolves staff and superuser flags for inbound updates.
type Roles struct {
	AdminIDs []int64
	StaffIDs []int64
}

func (r Roles) isSuper(id int64) bool {
	for _, v := range r.AdminIDs {
		if v == id {
			return true
		}
	}
	return false
}

func (r Roles) isStaff(id int64) bool {
	if r.isSuper(id) {
		return true
	}
	for _, v := range r.StaffIDs {
		if v == id {
			return true
		}
	}
	return false
}

// BuildEvent converts a Telebot update into an engine event. Callback data is
// the token for button presses; message text is the token otherwise.
func BuildEvent(c tele.Context, roles Roles) *dialog.Event {
	ev := &dialog.Event{}

	if cb := c.Callback(); cb != nil {
		// Telebot prefixes callback data with "\f" for unique-tagged
		// buttons; raw-data buttons arrive untouched.
		ev.Token = strings.TrimPrefix(cb.Data, "\f")
	} else {
		ev.Token = c.Text()
	}

	if user := c.Sender(); user != nil {
		ev.User = dialog.User{
			ID:       user.ID,
			Username: user.Username,
			IsStaff:  roles.isStaff(user.ID),
			IsSuper:  roles.isSuper(user.ID),
		}
	}
	if chat := c.Chat(); chat != nil {
		ev.Chat = dialog.Chat{
			ID:       chat.ID,
			Username: chat.Username,
			Title:    chat.Title,
			Type:     dialog.ChatType(chat.Type),
			IsStaff:  roles.isStaff(chat.ID),
		}
	}
	return ev
}
