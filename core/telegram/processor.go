package telegram

import (
	"context"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/dialogbot/core/dialog"
	"github.com/m3rciful/dialogbot/core/logger"
	"github.com/m3rciful/dialogbot/core/telegram/keyboard"
)

// Processor bridges Telebot updates and the dialogue dispatcher. Every text
// message and callback press becomes one engine event; the returned menu is
// rendered back into the chat.
type Processor struct {
	dispatcher *dialog.Dispatcher
	roles      Roles

	// commands maps slash commands to the state they reset the
	// conversation to, e.g. "/start" -> the start state.
	commands map[string]string
}

// NewProcessor wires a processor over the dispatcher.
func NewProcessor(dispatcher *dialog.Dispatcher, roles Roles) *Processor {
	return &Processor{
		dispatcher: dispatcher,
		roles:      roles,
		commands:   map[string]string{"/start": dialog.StartState},
	}
}

// MapCommand routes a slash command to a state. The conversation is forced
// into step 1 of that state before the event is dispatched.
func (p *Processor) MapCommand(command, state string) {
	p.commands[command] = state
}

// HandleText processes an inbound text message.
func (p *Processor) HandleText(c tele.Context) error {
	return p.handle(c, false)
}

// HandleCallback processes an inbound callback press. The callback is always
// answered so the client stops showing a spinner.
func (p *Processor) HandleCallback(c tele.Context) error {
	defer func() { _ = c.Respond(&tele.CallbackResponse{}) }()
	return p.handle(c, true)
}

func (p *Processor) handle(c tele.Context, isCallback bool) error {
	ctx := requestContext(c)
	ev := BuildEvent(c, p.roles)
	if ev.Chat.ID == 0 || ev.User.ID == 0 {
		return nil
	}

	if state, ok := p.commandTarget(ev.Token); ok {
		if err := p.dispatcher.Reset(ctx, ev.Conversation(), state); err != nil {
			logger.Error(ctx, "tg", "command.reset_failed",
				slog.String("command", ev.Token),
				slog.String("err", err.Error()),
			)
			return err
		}
	}

	start := time.Now()
	menu, err := p.dispatcher.HandleEvent(ctx, ev)
	took := time.Since(start)
	if err != nil {
		logger.Error(ctx, "tg", "event.failed",
			slog.String("conversation", ev.Conversation().String()),
			slog.Duration("duration", logger.RoundMS(took)),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.Debug(ctx, "tg", "event.handled",
		slog.String("conversation", ev.Conversation().String()),
		slog.Bool("rendered", menu != nil),
		slog.Duration("duration", logger.RoundMS(took)),
	)
	if menu == nil {
		return nil
	}
	return p.reply(c, menu, isCallback)
}

// reply edits the originating message for callback presses and sends a fresh
// message otherwise.
func (p *Processor) reply(c tele.Context, menu *dialog.Menu, isCallback bool) error {
	markup := keyboard.FromMenu(menu)
	text := menu.Text
	if text == "" {
		text = "…"
	}

	if isCallback {
		if err := c.Edit(text, markup); err == nil {
			return nil
		}
		// Editing fails when the message is too old or unchanged;
		// fall through to a fresh send.
	}
	if markup != nil {
		return c.Send(text, markup)
	}
	return c.Send(text)
}

func (p *Processor) commandTarget(token string) (string, bool) {
	if !strings.HasPrefix(token, "/") {
		return "", false
	}
	cmd := token
	if i := strings.IndexAny(cmd, " @"); i > 0 {
		cmd = cmd[:i]
	}
	state, ok := p.commands[cmd]
	return state, ok
}

// requestContext recovers the per-update context stored by the logging
// middleware, falling back to a fresh background context.
func requestContext(c tele.Context) context.Context {
	if ctx, ok := c.Get("ctx").(context.Context); ok && ctx != nil {
		return ctx
	}
	return logger.Background()
}
