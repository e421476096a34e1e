package dialog

import "fmt"

// ChatType mirrors the transport's chat categories.
type ChatType string

const (
	// ChatPrivate is a one-to-one chat with the bot.
	ChatPrivate ChatType = "private"
	// ChatGroup is a basic group chat.
	ChatGroup ChatType = "group"
	// ChatSupergroup is a large group chat.
	ChatSupergroup ChatType = "supergroup"
	// ChatChannel is a broadcast channel.
	ChatChannel ChatType = "channel"
)

// User carries the identity and role facts of the acting user.
type User struct {
	ID       int64
	Username string
	IsStaff  bool
	IsSuper  bool
}

// Chat carries the identity and role facts of the conversation's chat.
type Chat struct {
	ID       int64
	Username string
	Title    string
	Type     ChatType
	IsStaff  bool
}

// Event is one user action routed through the engine. Token holds the opaque
// value of the action: a button token for callbacks, raw text otherwise.
type Event struct {
	Token string
	User  User
	Chat  Chat
}

// ConversationID identifies one (chat, user) dialogue.
type ConversationID struct {
	ChatID int64
	UserID int64
}

// String renders the id as "<chat>:<user>" for cache keys and logs.
func (id ConversationID) String() string {
	return fmt.Sprintf("%d:%d", id.ChatID, id.UserID)
}

// Conversation returns the id of the dialogue this event belongs to.
func (e *Event) Conversation() ConversationID {
	return ConversationID{ChatID: e.Chat.ID, UserID: e.User.ID}
}
