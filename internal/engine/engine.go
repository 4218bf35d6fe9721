package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/present"
)

// Handler turns one event into one reply.
// Implemented by *flow.Engine.
type Handler interface {
	Handle(ctx context.Context, ev chat.Event) (chat.Reply, error)
}

// Sender delivers a reply for the event that produced it.
// Implemented by the Telegram and console transports.
type Sender interface {
	Deliver(ctx context.Context, ev chat.Event, reply chat.Reply) error
}

// Observer is notified of dispatch outcomes (metrics).
type Observer interface {
	EventHandled(kind chat.EventKind, elapsed time.Duration, err error)
	DeliveryFailed()
}

type nopObserver struct{}

func (nopObserver) EventHandled(chat.EventKind, time.Duration, error) {}
func (nopObserver) DeliveryFailed()                                   {}

// Dispatcher routes events to per-user mailboxes.
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Dispatch(): safe from any goroutine, bypasses mailboxes
//   - Run()/Stop(): call once
//
// INVARIANTS:
//   - At most one event per user is being handled at any time
//   - Events of one user are handled in Enqueue order
//   - Every accepted event produces exactly one Deliver call
type Dispatcher struct {
	handler  Handler
	sender   Sender
	seq      *Sequence
	traces   TokenGenerator
	observer Observer
	logger   *slog.Logger

	mu        sync.Mutex
	mailboxes map[card.UserID]*eventQueue
	stopped   bool
	wg        sync.WaitGroup

	// ctx is handed to handlers and senders; it outlives Run's context so
	// queued events can still drain during shutdown.
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithSequence sets the arrival sequence (default: NewSequence(0)).
func WithSequence(s *Sequence) Option {
	return func(d *Dispatcher) {
		d.seq = s
	}
}

// WithTokenGenerator sets the trace token generator (default: UUIDv7Generator).
func WithTokenGenerator(g TokenGenerator) Option {
	return func(d *Dispatcher) {
		d.traces = g
	}
}

// WithObserver sets the outcome observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) {
		d.observer = o
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

// New creates a Dispatcher that sends every reply through sender.
func New(handler Handler, sender Sender, opts ...Option) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		handler:   handler,
		sender:    sender,
		seq:       NewSequence(0),
		traces:    UUIDv7Generator{},
		observer:  nopObserver{},
		logger:    slog.Default(),
		mailboxes: make(map[card.UserID]*eventQueue),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enqueue submits an event to its user's mailbox.
// Returns false if the dispatcher has been stopped.
func (d *Dispatcher) Enqueue(ev chat.Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return false
	}

	env := d.stamp(ev)
	q, ok := d.mailboxes[ev.UserID]
	if !ok {
		q = newEventQueue()
		d.mailboxes[ev.UserID] = q
		d.wg.Add(1)
		go d.drain(ev.UserID, q)
	}
	q.Enqueue(env)

	d.logger.Debug("event enqueued",
		"user", ev.UserID,
		"kind", ev.Kind,
		"seq", env.Seq,
		"trace", env.Trace,
	)
	return true
}

// Dispatch handles one event synchronously and returns the reply that
// would have been delivered. Handler errors are logged and replaced by the
// failure notice, exactly as on the mailbox path; the error is returned
// as well for callers that want to report it.
//
// Dispatch does not serialize against Enqueue; use one or the other for a
// given user.
func (d *Dispatcher) Dispatch(ctx context.Context, ev chat.Event) (chat.Reply, error) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return chat.Reply{}, &DispatchError{
			Code:    ErrCodeStopped,
			Message: "dispatcher stopped",
			UserID:  ev.UserID,
		}
	}
	env := d.stamp(ev)
	d.mu.Unlock()

	return d.handle(ctx, env)
}

// Run blocks until ctx is cancelled, then stops the dispatcher and waits
// for queued events to drain.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher starting")
	<-ctx.Done()
	d.logger.Info("dispatcher stopping: context cancelled", "pending", d.Pending())
	d.Stop()
	return nil
}

// Stop refuses new events and blocks until every mailbox is empty.
// Safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	d.wg.Wait()
	d.cancel()
}

// Sequence returns the dispatcher's arrival sequence.
func (d *Dispatcher) Sequence() *Sequence {
	return d.seq
}

// Active returns the number of users with a live mailbox.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.mailboxes)
}

// Pending returns the number of queued events across all mailboxes.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, q := range d.mailboxes {
		n += q.Len()
	}
	return n
}

// stamp assigns seq and trace. Caller holds d.mu so seq order matches
// mailbox order.
func (d *Dispatcher) stamp(ev chat.Event) Envelope {
	return Envelope{
		Event: ev,
		Seq:   d.seq.Next(),
		Trace: d.traces.Generate(),
	}
}

// drain is the mailbox goroutine for one user. It exits when the queue is
// empty; the emptiness check and the map removal happen under d.mu, the
// same lock Enqueue holds, so no event is stranded.
func (d *Dispatcher) drain(uid card.UserID, q *eventQueue) {
	defer d.wg.Done()

	for {
		env, ok := q.TryDequeue()
		if ok {
			d.process(env)
			continue
		}

		d.mu.Lock()
		if q.Len() > 0 {
			d.mu.Unlock()
			continue
		}
		delete(d.mailboxes, uid)
		q.Close()
		d.mu.Unlock()
		return
	}
}

// process handles one envelope and delivers its reply.
func (d *Dispatcher) process(env Envelope) {
	reply, _ := d.handle(d.ctx, env)

	if err := d.sender.Deliver(d.ctx, env.Event, reply); err != nil {
		d.observer.DeliveryFailed()
		d.logger.Error("reply delivery failed",
			"error", &DispatchError{
				Code:    ErrCodeDeliveryFailed,
				Message: "deliver " + reply.Kind.String(),
				UserID:  env.Event.UserID,
				Trace:   env.Trace,
				Err:     err,
			},
			"user", env.Event.UserID,
			"seq", env.Seq,
			"trace", env.Trace,
		)
	}
}

func (d *Dispatcher) handle(ctx context.Context, env Envelope) (chat.Reply, error) {
	start := time.Now()
	reply, err := d.handler.Handle(ctx, env.Event)
	d.observer.EventHandled(env.Event.Kind, time.Since(start), err)

	if err != nil {
		d.logEventError(env, err)
		return present.Failure(), err
	}
	return reply, nil
}

// logEventError logs a handler failure with full event context.
// Event text is omitted; it may carry personal data.
func (d *Dispatcher) logEventError(env Envelope, err error) {
	switch env.Event.Kind {
	case chat.EventText:
		d.logger.Error("text event failed",
			"error", err,
			"user", env.Event.UserID,
			"seq", env.Seq,
			"trace", env.Trace,
		)
	case chat.EventButton:
		d.logger.Error("button event failed",
			"error", err,
			"user", env.Event.UserID,
			"action", env.Event.Action,
			"seq", env.Seq,
			"trace", env.Trace,
		)
	default:
		d.logger.Error("event processing failed",
			"error", err,
			"user", env.Event.UserID,
			"event_kind", env.Event.Kind,
			"seq", env.Seq,
			"trace", env.Trace,
		)
	}
}
