package harness

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/card"
	"github.com/csdeziycsdezy-ops/VirtualVizitka/internal/chat"
)

// DefaultUser is the user id of steps that do not name one.
const DefaultUser int64 = 1001

// Scenario defines a conversation test.
// A scenario drives the real flow engine through a sequence of user
// inputs and asserts on the replies and the final store and session state.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// User is the default user for steps and assertions (default: DefaultUser).
	User int64 `yaml:"user,omitempty"`

	// SessionTTL enables abandoned-flow eviction; combine with advance steps.
	SessionTTL time.Duration `yaml:"session_ttl,omitempty"`

	// Steps are executed in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`

	// Trace is an optional fixed trace token for log correlation.
	Trace string `yaml:"trace,omitempty"`
}

// Step is one scenario step. Exactly one of Text, Press, Advance or Store
// is set.
type Step struct {
	// Text sends a text message.
	Text *string `yaml:"text,omitempty"`

	// Press presses the button with this action id.
	Press string `yaml:"press,omitempty"`

	// Advance moves the session clock forward.
	Advance time.Duration `yaml:"advance,omitempty"`

	// Store switches the record store "down" or back "up".
	Store string `yaml:"store,omitempty"`

	// User overrides Scenario.User for this step.
	User int64 `yaml:"user,omitempty"`

	// Expect validates the reply and the state after the step.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected reply of a step.
// Every field is optional; only the set ones are checked.
type ExpectClause struct {
	// Kind is "screen" or "notice".
	Kind string `yaml:"kind,omitempty"`

	// Contains lists substrings the reply text must contain.
	Contains []string `yaml:"contains,omitempty"`

	// Buttons is the exact list of button targets, row by row
	// (action ids, or URLs for link buttons).
	Buttons []string `yaml:"buttons,omitempty"`

	// Urgent is the expected urgency of a notice.
	Urgent *bool `yaml:"urgent,omitempty"`

	// State is the expected conversation state name after the step
	// ("idle", "creating/phone", "editing/name").
	State string `yaml:"state,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "reply_contains": some reply contains Text
	// - "reply_order": replies containing Texts appear in order
	// - "reply_count": exactly Count replies contain Text
	// - "card": the user's latest card has the Expect field values
	// - "no_card": the user has no card
	// - "state": the user's final conversation state is State
	// - "record_count": the user has exactly Count stored records
	Type string `yaml:"type"`

	// User overrides Scenario.User.
	User int64 `yaml:"user,omitempty"`

	// Text is the reply substring (reply_contains, reply_count).
	Text string `yaml:"text,omitempty"`

	// Texts are the reply substrings in order (reply_order).
	Texts []string `yaml:"texts,omitempty"`

	// Count is the expected number (reply_count, record_count).
	Count int `yaml:"count,omitempty"`

	// Expect maps field keys to expected values (card). Subset match.
	Expect map[string]string `yaml:"expect,omitempty"`

	// State is the expected state name (state).
	State string `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertReplyContains = "reply_contains"
	AssertReplyOrder    = "reply_order"
	AssertReplyCount    = "reply_count"
	AssertCard          = "card"
	AssertNoCard        = "no_card"
	AssertState         = "state"
	AssertRecordCount   = "record_count"
)

// Store step values.
const (
	StoreDown = "down"
	StoreUp   = "up"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	if scenario.User == 0 {
		scenario.User = DefaultUser
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.SessionTTL < 0 {
		return fmt.Errorf("session_ttl must be non-negative")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s *Step) error {
	set := 0
	if s.Text != nil {
		set++
	}
	if s.Press != "" {
		set++
	}
	if s.Advance != 0 {
		set++
	}
	if s.Store != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of text, press, advance, store is required", index)
	}

	if s.Advance < 0 {
		return fmt.Errorf("steps[%d]: advance must be positive", index)
	}
	if s.Store != "" && s.Store != StoreDown && s.Store != StoreUp {
		return fmt.Errorf("steps[%d]: store must be %q or %q", index, StoreDown, StoreUp)
	}

	if s.Expect != nil {
		if s.Advance != 0 || s.Store != "" {
			if s.Expect.Kind != "" || len(s.Expect.Contains) > 0 || s.Expect.Buttons != nil || s.Expect.Urgent != nil {
				return fmt.Errorf("steps[%d].expect: advance and store steps produce no reply", index)
			}
		}
		switch s.Expect.Kind {
		case "", chat.ReplyScreen.String(), chat.ReplyNotice.String():
		default:
			return fmt.Errorf("steps[%d].expect: unknown kind %q", index, s.Expect.Kind)
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertReplyContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for reply_contains", index)
		}
	case AssertReplyOrder:
		if len(a.Texts) == 0 {
			return fmt.Errorf("assertions[%d]: texts list is required for reply_order", index)
		}
	case AssertReplyCount:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for reply_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for reply_count", index)
		}
	case AssertCard:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for card", index)
		}
		for key := range a.Expect {
			if _, ok := card.ParseField(key); !ok {
				return fmt.Errorf("assertions[%d]: unknown card field %q", index, key)
			}
		}
	case AssertNoCard:
	case AssertState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for state", index)
		}
	case AssertRecordCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for record_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// userFor picks the step or assertion user, falling back to the scenario's.
func (s *Scenario) userFor(override int64) card.UserID {
	if override != 0 {
		return card.UserID(override)
	}
	if s.User == 0 {
		return card.UserID(DefaultUser)
	}
	return card.UserID(s.User)
}
