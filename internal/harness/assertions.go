package harness

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/session"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] user=%d %s -> %s %s\n",
				event.Seq, event.User, event.Input, event.Kind, firstLine(event.Text))
		}
	}

	return buf.String()
}

// AssertionContext provides the final state for evaluating assertions.
type AssertionContext struct {
	Store    *store.Store
	Sessions *session.Registry
	Scenario *Scenario
	Ctx      context.Context
}

func (a *AssertionContext) user(override int64) card.UserID {
	if a.Scenario == nil {
		if override != 0 {
			return card.UserID(override)
		}
		return card.UserID(DefaultUser)
	}
	return a.Scenario.userFor(override)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// Reply assertions only need the trace; state assertions need actx.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertReplyContains:
			err = assertReplyContains(result.Trace, assertion)
		case AssertReplyOrder:
			err = assertReplyOrder(result.Trace, assertion)
		case AssertReplyCount:
			err = assertReplyCount(result.Trace, assertion)
		case AssertCard, AssertNoCard, AssertRecordCount:
			if actx == nil || actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: %s requires store context", i, assertion.Type)
				break
			}
			uid := actx.user(assertion.User)
			switch assertion.Type {
			case AssertCard:
				err = assertCard(actx.Ctx, actx.Store, uid, assertion)
			case AssertNoCard:
				err = assertNoCard(actx.Ctx, actx.Store, uid)
			default:
				err = assertRecordCount(actx.Ctx, actx.Store, uid, assertion)
			}
		case AssertState:
			if actx == nil || actx.Sessions == nil {
				err = fmt.Errorf("assertion[%d]: state requires session context", i)
			} else {
				err = assertState(actx.Sessions, actx.user(assertion.User), assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

// replies returns the trace events that carry a reply, restricted to one
// user when the assertion names one.
func replies(trace []TraceEvent, user int64) []TraceEvent {
	out := make([]TraceEvent, 0, len(trace))
	for _, ev := range trace {
		if ev.Kind == "" {
			continue
		}
		if user != 0 && ev.User != user {
			continue
		}
		out = append(out, ev)
	}
	return out
}

// assertReplyContains checks that some reply contains the text.
func assertReplyContains(trace []TraceEvent, assertion Assertion) error {
	for _, ev := range replies(trace, assertion.User) {
		if strings.Contains(ev.Text, assertion.Text) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertReplyContains,
		Expected: fmt.Sprintf("a reply containing %q", assertion.Text),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertReplyOrder checks that replies containing each text appear in order.
// Replies don't need to be consecutive (intervening replies are allowed).
func assertReplyOrder(trace []TraceEvent, assertion Assertion) error {
	events := replies(trace, assertion.User)
	pos := 0
	for _, want := range assertion.Texts {
		found := false
		for pos < len(events) {
			ev := events[pos]
			pos++
			if strings.Contains(ev.Text, want) {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertReplyOrder,
				Expected: fmt.Sprintf("replies in order: %q", assertion.Texts),
				Actual:   fmt.Sprintf("no reply containing %q after the previous match", want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertReplyCount checks that exactly Count replies contain the text.
func assertReplyCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, ev := range replies(trace, assertion.User) {
		if strings.Contains(ev.Text, assertion.Text) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertReplyCount,
			Expected: fmt.Sprintf("%d replies containing %q", assertion.Count, assertion.Text),
			Actual:   fmt.Sprintf("%d replies", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertCard checks the latest card of the user (subset match on fields).
func assertCard(ctx context.Context, st *store.Store, uid card.UserID, assertion Assertion) error {
	rec, found, err := st.GetLatest(ctx, uid)
	if err != nil {
		return fmt.Errorf("card assertion: %w", err)
	}
	if !found {
		return &AssertionError{
			Type:     AssertCard,
			Expected: fmt.Sprintf("a card for user %s", uid),
			Actual:   "no card",
		}
	}

	// Sort keys for deterministic output
	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		f, ok := card.ParseField(key)
		if !ok {
			return fmt.Errorf("card assertion: unknown field %q", key)
		}
		want := assertion.Expect[key]
		if got := rec.Get(f); got != want {
			return &AssertionError{
				Type:     AssertCard,
				Expected: fmt.Sprintf("field %q = %q", key, want),
				Actual:   fmt.Sprintf("field %q = %q", key, got),
			}
		}
	}
	return nil
}

// assertNoCard checks that the user has no stored card.
func assertNoCard(ctx context.Context, st *store.Store, uid card.UserID) error {
	rec, found, err := st.GetLatest(ctx, uid)
	if err != nil {
		return fmt.Errorf("no_card assertion: %w", err)
	}
	if found {
		return &AssertionError{
			Type:     AssertNoCard,
			Expected: fmt.Sprintf("no card for user %s", uid),
			Actual:   fmt.Sprintf("card seq %d (%s %s)", rec.Seq, rec.Name, rec.Surname),
		}
	}
	return nil
}

// assertRecordCount checks how many records the user has accumulated.
func assertRecordCount(ctx context.Context, st *store.Store, uid card.UserID, assertion Assertion) error {
	n, err := st.Count(ctx, uid)
	if err != nil {
		return fmt.Errorf("record_count assertion: %w", err)
	}
	if n != assertion.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d records for user %s", assertion.Count, uid),
			Actual:   fmt.Sprintf("%d records", n),
		}
	}
	return nil
}

// assertState checks the user's final conversation state.
func assertState(sessions *session.Registry, uid card.UserID, assertion Assertion) error {
	if got := sessions.Get(uid).Name(); got != assertion.State {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("state %s for user %s", assertion.State, uid),
			Actual:   fmt.Sprintf("state %s", got),
		}
	}
	return nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
