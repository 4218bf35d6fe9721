package harness

// TraceEvent records one step of a conversation: the input and the reply
// the user would have seen.
type TraceEvent struct {
	Seq   int64  `json:"seq"`
	User  int64  `json:"user"`
	Input string `json:"input"` // "text: Ali", "press: create"

	// Reply fields are empty for steps that produce no reply (advance, store).
	Kind    string   `json:"kind,omitempty"` // "screen" or "notice"
	Text    string   `json:"text,omitempty"`
	Buttons []string `json:"buttons,omitempty"`
	Urgent  bool     `json:"urgent,omitempty"`
	State   string   `json:"state"`
	Error   string   `json:"error,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every step in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends one step to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
