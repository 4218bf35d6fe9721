package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
)

// DefaultPollTimeout is the long-poll wait passed to getUpdates.
const DefaultPollTimeout = 30 * time.Second

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second

	// confirmTimeout bounds the final offset acknowledgement on shutdown.
	confirmTimeout = 5 * time.Second
)

// Sink accepts converted events. Returning false stops the poller.
type Sink func(chat.Event) bool

// Poller long-polls getUpdates and feeds events to a Sink.
type Poller struct {
	client  *Client
	timeout time.Duration
	logger  *slog.Logger
	offset  int64
}

// NewPoller creates a poller. A zero timeout uses DefaultPollTimeout.
func NewPoller(client *Client, timeout time.Duration, logger *slog.Logger) *Poller {
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{client: client, timeout: timeout, logger: logger}
}

// Run polls until ctx is cancelled or the sink refuses an event.
// API failures are logged and retried with exponential backoff.
// On exit the offset of the handled updates is confirmed to Telegram so a
// restart does not receive them again. A refused event is not confirmed.
func (p *Poller) Run(ctx context.Context, sink Sink) error {
	p.logger.Info("poller starting", "timeout", p.timeout)
	defer p.confirm(ctx)
	backoff := minBackoff

	for {
		updates, err := p.client.GetUpdates(ctx, p.offset, p.timeout)
		if ctx.Err() != nil {
			p.logger.Info("poller stopping: context cancelled")
			return nil
		}
		if err != nil {
			p.logger.Warn("getUpdates failed", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		for _, u := range updates {
			ev, ok := ToEvent(u)
			if !ok {
				// Acknowledge updates we ignore as well.
				p.logger.Debug("update ignored", "update_id", u.UpdateID)
				p.offset = max(p.offset, u.UpdateID+1)
				continue
			}
			if !sink(ev) {
				p.logger.Info("poller stopping: sink closed", "update_id", u.UpdateID)
				return nil
			}
			p.offset = max(p.offset, u.UpdateID+1)
		}
	}
}

// confirm tells Telegram which updates were handled. getUpdates only
// discards updates below the offset of the next request, so without this
// the last batch would be redelivered after a restart.
func (p *Poller) confirm(ctx context.Context) {
	if p.offset == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), confirmTimeout)
	defer cancel()

	if _, err := p.client.GetUpdates(ctx, p.offset, 0); err != nil {
		p.logger.Warn("failed to confirm update offset", "offset", p.offset, "error", err)
		return
	}
	p.logger.Debug("update offset confirmed", "offset", p.offset)
}

// Offset returns the next update id the poller will request.
func (p *Poller) Offset() int64 {
	return p.offset
}

// ToEvent converts an update into a chat event. ok is false for updates
// the bot does not react to (edited messages, stickers, bot senders).
func ToEvent(u Update) (chat.Event, bool) {
	switch {
	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.From.IsBot || m.Text == "" {
			return chat.Event{}, false
		}
		ev := chat.TextEvent(card.UserID(m.From.ID), m.Text)
		ev.Ref = chat.Ref{ChatID: m.Chat.ID, MessageID: m.MessageID}
		return ev, true

	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		ev := chat.Event{
			Kind:   chat.EventButton,
			UserID: card.UserID(cq.From.ID),
			Action: cq.Data,
			Ref:    chat.Ref{CallbackID: cq.ID},
		}
		if cq.Message != nil {
			ev.Ref.ChatID = cq.Message.Chat.ID
			ev.Ref.MessageID = cq.Message.MessageID
		}
		return ev, true
	}
	return chat.Event{}, false
}
