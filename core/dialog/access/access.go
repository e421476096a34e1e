// Package access provides chainable predicates gating state entry: role
// checks, chat-type checks, and identity membership checks. Guards are pure
// over the event's identity facts and safe for concurrent evaluation.
package access

import (
	"slices"

	"github.com/m3rciful/dialogbot/core/dialog"
)

// DefaultDeniedMessage is shown when a menu-context check refuses the event.
const DefaultDeniedMessage = "Sorry! You are not authorized"

// options are shared by every guard: where a refused next-context check
// routes, and what a refused menu-context check says.
type options struct {
	fallback string
	message  string
}

// Option customizes a guard's refusal behavior.
type Option func(*options)

// WithFallback overrides the state a refused next check transitions to.
func WithFallback(state string) Option {
	return func(o *options) { o.fallback = state }
}

// WithMessage overrides the denial message of a refused menu check.
func WithMessage(message string) Option {
	return func(o *options) { o.message = message }
}

func buildOptions(opts []Option) options {
	o := options{fallback: dialog.StartState, message: DefaultDeniedMessage}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// predicate adapts a boolean check over the event into the two-context
// guard contract.
type predicate struct {
	opts  options
	allow func(ev *dialog.Event) bool
}

// CheckMenu refuses with a terminal denial menu.
func (p predicate) CheckMenu(ev *dialog.Event) (bool, *dialog.Menu) {
	if p.allow(ev) {
		return true, nil
	}
	return false, dialog.NewMenu(p.opts.message)
}

// CheckNext refuses with a forced jump to step 1 of the fallback state.
func (p predicate) CheckNext(ev *dialog.Event) (bool, dialog.NextResponse) {
	if p.allow(ev) {
		return true, dialog.NextResponse{}
	}
	return false, dialog.Return(p.opts.fallback, 1)
}

// UserIsStaff allows events from staff users.
func UserIsStaff(opts ...Option) dialog.Guard {
	return predicate{buildOptions(opts), func(ev *dialog.Event) bool {
		return ev.User.IsStaff
	}}
}

// UserIsSuper allows events from superusers.
func UserIsSuper(opts ...Option) dialog.Guard {
	return predicate{buildOptions(opts), func(ev *dialog.Event) bool {
		return ev.User.IsSuper
	}}
}

// ChatIsStaff allows events from staff chats.
func ChatIsStaff(opts ...Option) dialog.Guard {
	return predicate{buildOptions(opts), func(ev *dialog.Event) bool {
		return ev.Chat.IsStaff
	}}
}

// ChatTypeIs allows events from chats of the given type.
func ChatTypeIs(t dialog.ChatType, opts ...Option) dialog.Guard {
	return predicate{buildOptions(opts), func(ev *dialog.Event) bool {
		return ev.Chat.Type == t
	}}
}

// ChatIsAnyGroup allows events from groups and supergroups.
func ChatIsAnyGroup(opts ...Option) dialog.Guard {
	return predicate{buildOptions(opts), func(ev *dialog.Event) bool {
		return ev.Chat.Type == dialog.ChatGroup || ev.Chat.Type == dialog.ChatSupergroup
	}}
}

// UserIDIn allows events from the listed user ids.
func UserIDIn(ids []int64, opts ...Option) dialog.Guard {
	return predicate{buildOptions(opts), func(ev *dialog.Event) bool {
		return slices.Contains(ids, ev.User.ID)
	}}
}

// UserUsernameIn allows events from the listed usernames.
func UserUsernameIn(names []string, opts ...Option) dialog.Guard {
	return predicate{buildOptions(opts), func(ev *dialog.Event) bool {
		return slices.Contains(names, ev.User.Username)
	}}
}

// ChatIDIn allows events from the listed chat ids.
func ChatIDIn(ids []int64, opts ...Option) dialog.Guard {
	return predicate{buildOptions(opts), func(ev *dialog.Event) bool {
		return slices.Contains(ids, ev.Chat.ID)
	}}
}

// ChatUsernameIn allows events from the listed chat usernames.
func ChatUsernameIn(names []string, opts ...Option) dialog.Guard {
	return predicate{buildOptions(opts), func(ev *dialog.Event) bool {
		return slices.Contains(names, ev.Chat.Username)
	}}
}

// All combines guards so every one must allow the event. The first refusal
// wins and supplies the fallback response.
func All(guards ...dialog.Guard) dialog.Guard {
	return chain(guards)
}

type chain []dialog.Guard

func (c chain) CheckMenu(ev *dialog.Event) (bool, *dialog.Menu) {
	for _, g := range c {
		if ok, denied := g.CheckMenu(ev); !ok {
			return false, denied
		}
	}
	return true, nil
}

func (c chain) CheckNext(ev *dialog.Event) (bool, dialog.NextResponse) {
	for _, g := range c {
		if ok, fallback := g.CheckNext(ev); !ok {
			return false, fallback
		}
	}
	return true, dialog.NextResponse{}
}
