package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/engine"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/flow"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/session"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/store"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/testutil"
)

// errStoreDown is returned by every store call while a scenario has the
// store switched off.
var errStoreDown = errors.New("store unavailable")

// switchableStore is a record store that can be taken down mid-scenario.
type switchableStore struct {
	*store.Store
	down bool
}

func (s *switchableStore) GetLatest(ctx context.Context, userID card.UserID) (card.Record, bool, error) {
	if s.down {
		return card.Record{}, false, errStoreDown
	}
	return s.Store.GetLatest(ctx, userID)
}

func (s *switchableStore) Insert(ctx context.Context, userID card.UserID, c card.Card) (int64, error) {
	if s.down {
		return 0, errStoreDown
	}
	return s.Store.Insert(ctx, userID, c)
}

func (s *switchableStore) UpdateField(ctx context.Context, userID card.UserID, f card.Field, value string) error {
	if s.down {
		return errStoreDown
	}
	return s.Store.UpdateField(ctx, userID, f, value)
}

// Harness is the scenario execution engine.
// It wires the real flow engine and dispatcher to a fresh in-memory store,
// a manual clock and a fixed trace token.
type Harness struct {
	store      *switchableStore
	sessions   *session.Registry
	dispatcher *engine.Dispatcher
	clock      *testutil.ManualClock
	scenario   *Scenario
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Steps are dispatched synchronously, so the trace is deterministic.
//
// Execution flow:
// 1. Create fresh in-memory database and session registry
// 2. Execute steps in order, checking each expect clause
// 3. Evaluate assertions against the trace and final state
// 4. Return result with pass/fail, trace, and errors
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	// Suppress logs in tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	clock := testutil.NewManualClock()
	regOpts := []session.Option{session.WithClock(clock.Now)}
	if scenario.SessionTTL > 0 {
		regOpts = append(regOpts, session.WithTTL(scenario.SessionTTL))
	}
	sessions := session.NewRegistry(regOpts...)

	h := &Harness{
		store:    &switchableStore{Store: st},
		sessions: sessions,
		clock:    clock,
		scenario: scenario,
	}
	h.dispatcher = engine.New(
		flow.New(h.store, sessions, flow.WithLogger(logger)),
		nil,
		engine.WithTokenGenerator(testutil.NewFixedTokenGenerator(scenario.Trace)),
		engine.WithLogger(logger),
	)
	defer h.dispatcher.Stop()

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{
		Store:    st,
		Sessions: sessions,
		Scenario: scenario,
		Ctx:      ctx,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	return result, nil
}

// executeStep performs one step and records it in the trace.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	uid := h.scenario.userFor(step.User)
	ev := TraceEvent{
		Seq:  int64(index + 1),
		User: int64(uid),
	}

	switch {
	case step.Advance != 0:
		h.clock.Advance(step.Advance)
		ev.Input = "advance: " + step.Advance.String()

	case step.Store != "":
		h.store.down = step.Store == StoreDown
		ev.Input = "store: " + step.Store

	default:
		var in chat.Event
		if step.Text != nil {
			in = chat.TextEvent(uid, *step.Text)
			ev.Input = "text: " + *step.Text
		} else {
			in = chat.Event{Kind: chat.EventButton, UserID: uid, Action: step.Press}
			ev.Input = "press: " + step.Press
		}

		reply, err := h.dispatcher.Dispatch(ctx, in)
		if engine.IsStopped(err) {
			return err
		}
		if err != nil {
			ev.Error = err.Error()
		}
		ev.Kind = reply.Kind.String()
		ev.Text = reply.Text
		ev.Buttons = buttonTargets(reply.Keyboard)
		ev.Urgent = reply.Urgent
	}

	ev.State = h.sessions.Get(uid).Name()
	result.AddTrace(ev)

	if step.Expect != nil {
		for _, msg := range checkExpect(index, step.Expect, ev) {
			result.AddError(msg)
		}
	}
	return nil
}

// checkExpect compares one trace event with a step's expect clause.
func checkExpect(index int, want *ExpectClause, got TraceEvent) []string {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("step %d (%s): ", index, got.Input)+fmt.Sprintf(format, args...))
	}

	if want.Kind != "" && want.Kind != got.Kind {
		fail("expected %s reply, got %s", want.Kind, got.Kind)
	}
	for _, sub := range want.Contains {
		if !strings.Contains(got.Text, sub) {
			fail("expected reply to contain %q, got %q", sub, got.Text)
		}
	}
	if want.Buttons != nil && strings.Join(want.Buttons, ",") != strings.Join(got.Buttons, ",") {
		fail("expected buttons %v, got %v", want.Buttons, got.Buttons)
	}
	if want.Urgent != nil && *want.Urgent != got.Urgent {
		fail("expected urgent=%t, got %t", *want.Urgent, got.Urgent)
	}
	if want.State != "" && want.State != got.State {
		fail("expected state %s, got %s", want.State, got.State)
	}
	return errs
}

// buttonTargets flattens a keyboard to its action ids (or URLs).
func buttonTargets(kb chat.Keyboard) []string {
	var out []string
	for _, row := range kb {
		for _, b := range row {
			if b.Action != "" {
				out = append(out, b.Action)
			} else {
				out = append(out, b.URL)
			}
		}
	}
	return out
}
