// Package flow implements the conversation state machine.
//
// The engine receives one chat event at a time for a user, reads that
// user's state from the session registry, and produces exactly one reply.
//
// CREATE flow (strictly linear, one validated field per step):
//
//	Name -> Surname -> Location -> Phone -> Instagram -> Profession -> insert, Idle
//
// EDIT flow (one step):
//
//	edit_<field> button -> Editing{field} -> valid text -> update, Idle
//
// Invalid input never moves the state; the same step is asked again.
// Reads (view, share, menus) never touch the state.
//
// The engine is not safe for concurrent events of the same user; the
// dispatcher serializes them. Events of different users may run in
// parallel.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/present"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/session"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/store"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/validate"
)

// Store is the record store the engine needs.
// Implemented by *store.Store.
type Store interface {
	GetLatest(ctx context.Context, userID card.UserID) (card.Record, bool, error)
	Insert(ctx context.Context, userID card.UserID, c card.Card) (int64, error)
	UpdateField(ctx context.Context, userID card.UserID, f card.Field, value string) error
}

// Observer is notified of flow outcomes (metrics).
type Observer interface {
	ValidationFailed(f card.Field)
	CardCreated()
	CardUpdated(f card.Field)
}

type nopObserver struct{}

func (nopObserver) ValidationFailed(card.Field) {}
func (nopObserver) CardCreated()                {}
func (nopObserver) CardUpdated(card.Field)      {}

// StartCommand resets the conversation and shows the main menu.
const StartCommand = "/start"

// Engine is the conversation state machine.
type Engine struct {
	store    Store
	sessions *session.Registry
	observer Observer
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithObserver sets the outcome observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine over a store and a session registry.
func New(st Store, sessions *session.Registry, opts ...Option) *Engine {
	e := &Engine{
		store:    st,
		sessions: sessions,
		observer: nopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Sessions returns the registry the engine mutates.
func (e *Engine) Sessions() *session.Registry {
	return e.sessions
}

// Handle evaluates one event and returns the reply to send.
//
// A non-nil error means an infrastructure failure (see Error); the state of
// the user is unchanged and the returned Reply must be ignored.
func (e *Engine) Handle(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	switch ev.Kind {
	case chat.EventText:
		return e.handleText(ctx, ev.UserID, ev.Text)
	case chat.EventButton:
		return e.handleButton(ctx, ev.UserID, ev.Action)
	default:
		return chat.Reply{}, &Error{
			Code:   ErrCodeUnknownEvent,
			Op:     fmt.Sprintf("handle event kind %d", ev.Kind),
			UserID: ev.UserID,
		}
	}
}

func (e *Engine) handleText(ctx context.Context, uid card.UserID, text string) (chat.Reply, error) {
	if isStartCommand(text) {
		e.sessions.Reset(uid)
		return present.MainMenu(), nil
	}

	switch st := e.sessions.Get(uid).(type) {
	case session.Idle:
		return present.MainMenu(), nil
	case session.Creating:
		return e.collect(ctx, uid, st, text)
	case session.Editing:
		return e.edit(ctx, uid, st, text)
	default:
		panic(fmt.Sprintf("flow: unhandled state %T", st))
	}
}

// collect validates the answer for the current create step and advances.
func (e *Engine) collect(ctx context.Context, uid card.UserID, st session.Creating, text string) (chat.Reply, error) {
	value, err := validate.Field(st.Step, text)
	if err != nil {
		return e.retry(uid, st.Step, err)
	}

	next, done := st.Advance(value)
	if !done {
		e.sessions.Set(uid, next)
		e.logger.Debug("create step accepted", "user", uid, "field", st.Step.Key(), "next", next.Step.Key())
		return present.CreatePrompt(next.Step), nil
	}

	seq, err := e.store.Insert(ctx, uid, next.Draft)
	if err != nil {
		return chat.Reply{}, storeError(uid, "insert", err)
	}

	e.sessions.Reset(uid)
	e.observer.CardCreated()
	e.logger.Info("card created", "user", uid, "seq", seq)
	return present.Saved(), nil
}

// edit validates the new value for the field being edited and stores it.
func (e *Engine) edit(ctx context.Context, uid card.UserID, st session.Editing, text string) (chat.Reply, error) {
	value, err := validate.Field(st.Field, text)
	if err != nil {
		return e.retry(uid, st.Field, err)
	}

	err = e.store.UpdateField(ctx, uid, st.Field, value)
	if errors.Is(err, store.ErrNoExistingCard) {
		e.sessions.Reset(uid)
		return present.NoCard(), nil
	}
	if err != nil {
		return chat.Reply{}, storeError(uid, "update "+st.Field.Key(), err)
	}

	e.sessions.Reset(uid)
	e.observer.CardUpdated(st.Field)
	e.logger.Info("card updated", "user", uid, "field", st.Field.Key())
	return present.Updated(), nil
}

func (e *Engine) retry(uid card.UserID, f card.Field, err error) (chat.Reply, error) {
	var ve *validate.Error
	if !errors.As(err, &ve) {
		return chat.Reply{}, fmt.Errorf("validate %s: %w", f.Key(), err)
	}
	e.observer.ValidationFailed(f)
	e.logger.Debug("input rejected", "user", uid, "field", f.Key())
	return present.Retry(f, ve.Reason), nil
}

func (e *Engine) handleButton(ctx context.Context, uid card.UserID, raw string) (chat.Reply, error) {
	action, ok := chat.ParseAction(raw)
	if !ok {
		e.logger.Warn("unknown button action", "user", uid, "action", raw)
		return present.MainMenu(), nil
	}

	if f, ok := action.EditField(); ok {
		return e.startEdit(ctx, uid, f)
	}

	switch action {
	case chat.ActionCreate:
		return e.startCreate(ctx, uid)
	case chat.ActionMyCard:
		return e.withCard(ctx, uid, present.CardView, present.NoCard)
	case chat.ActionEditCard:
		return e.withCard(ctx, uid, func(card.Card) chat.Reply { return present.EditMenu() }, present.CreateFirst)
	case chat.ActionShareCard:
		return e.withCard(ctx, uid, present.Share, present.CreateFirst)
	case chat.ActionBackMenu:
		return present.MainMenu(), nil
	}
	panic(fmt.Sprintf("flow: unhandled action %q", action.Value))
}

// startCreate enters the create flow unless a card already exists.
func (e *Engine) startCreate(ctx context.Context, uid card.UserID) (chat.Reply, error) {
	_, found, err := e.store.GetLatest(ctx, uid)
	if err != nil {
		return chat.Reply{}, storeError(uid, "get latest", err)
	}
	if found {
		return present.AlreadyExists(), nil
	}

	st := session.StartCreating()
	e.sessions.Set(uid, st)
	e.logger.Debug("create flow started", "user", uid)
	return present.CreatePrompt(st.Step), nil
}

// startEdit enters the edit flow for f when the user has a card.
func (e *Engine) startEdit(ctx context.Context, uid card.UserID, f card.Field) (chat.Reply, error) {
	_, found, err := e.store.GetLatest(ctx, uid)
	if err != nil {
		return chat.Reply{}, storeError(uid, "get latest", err)
	}
	if !found {
		return present.CreateFirst(), nil
	}

	e.sessions.Set(uid, session.Editing{Field: f})
	e.logger.Debug("edit flow started", "user", uid, "field", f.Key())
	return present.EditPrompt(f), nil
}

// withCard renders a read-only screen from the latest card.
func (e *Engine) withCard(
	ctx context.Context,
	uid card.UserID,
	found func(card.Card) chat.Reply,
	absent func() chat.Reply,
) (chat.Reply, error) {
	rec, ok, err := e.store.GetLatest(ctx, uid)
	if err != nil {
		return chat.Reply{}, storeError(uid, "get latest", err)
	}
	if !ok {
		return absent(), nil
	}
	return found(rec.Card), nil
}

// isStartCommand matches "/start", "/start@botname" and "/start <payload>".
func isStartCommand(text string) bool {
	cmd, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == StartCommand
}
