package telegram

import (
	"context"
	"errors"
	"log/slog"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
)

// Sender delivers replies through the Bot API.
//
// A screen answering a button edits the message that carried the button;
// a screen answering text is sent as a new message. A notice answering a
// button becomes the callback answer (an alert when urgent); a notice
// answering text is sent as a plain message. Every callback query is
// answered exactly once.
type Sender struct {
	client *Client
	logger *slog.Logger
}

// NewSender creates a Sender.
func NewSender(client *Client, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{client: client, logger: logger}
}

// Deliver sends reply in answer to ev.
func (s *Sender) Deliver(ctx context.Context, ev chat.Event, reply chat.Reply) error {
	switch reply.Kind {
	case chat.ReplyScreen:
		return s.deliverScreen(ctx, ev, reply)
	case chat.ReplyNotice:
		return s.deliverNotice(ctx, ev, reply)
	default:
		return errors.New("telegram: reply has no kind")
	}
}

func (s *Sender) deliverScreen(ctx context.Context, ev chat.Event, reply chat.Reply) error {
	kb := Markup(reply.Keyboard)

	if ev.Kind != chat.EventButton || ev.Ref.MessageID == 0 {
		return s.client.SendMessage(ctx, ev.Ref.ChatID, reply.Text, kb)
	}

	err := s.client.EditMessageText(ctx, ev.Ref.ChatID, ev.Ref.MessageID, reply.Text, kb)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			return errors.Join(err, s.answer(ctx, ev))
		}
		// Old or deleted messages cannot be edited; fall back to a new one.
		s.logger.Debug("edit rejected, sending new message", "user", ev.UserID, "error", err)
		err = s.client.SendMessage(ctx, ev.Ref.ChatID, reply.Text, kb)
	}
	return errors.Join(err, s.answer(ctx, ev))
}

func (s *Sender) deliverNotice(ctx context.Context, ev chat.Event, reply chat.Reply) error {
	if ev.Kind == chat.EventButton && ev.Ref.CallbackID != "" {
		return s.client.AnswerCallbackQuery(ctx, ev.Ref.CallbackID, reply.Text, reply.Urgent)
	}
	return s.client.SendMessage(ctx, ev.Ref.ChatID, reply.Text, nil)
}

func (s *Sender) answer(ctx context.Context, ev chat.Event) error {
	if ev.Ref.CallbackID == "" {
		return nil
	}
	return s.client.AnswerCallbackQuery(ctx, ev.Ref.CallbackID, "", false)
}

// Markup converts a keyboard to inline markup. A nil or empty keyboard
// yields nil, which removes any buttons on edit.
func Markup(kb chat.Keyboard) *InlineKeyboardMarkup {
	if len(kb) == 0 {
		return nil
	}
	rows := make([][]InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, InlineKeyboardButton{
				Text:         b.Label,
				CallbackData: b.Action,
				URL:          b.URL,
			})
		}
		rows = append(rows, buttons)
	}
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}
