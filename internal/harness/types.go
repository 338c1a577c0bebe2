package harness

// Outcome of a step that succeeded.
const OutcomeOK = "ok"

// TraceEvent is one executed step. Addresses are shown by alias.
type TraceEvent struct {
	Step      int              `json:"step"`
	Op        string           `json:"op"`
	OpID      string           `json:"op_id"`
	Args      map[string]any   `json:"args"`
	Outcome   string           `json:"outcome"`
	Events    []map[string]any `json:"events,omitempty"`
	Reclaimed int              `json:"reclaimed,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every step met its expectation and every
	// assertion held.
	Pass bool `json:"pass"`

	// Trace holds one entry per step, in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
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

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddStep appends a step to the trace.
func (r *Result) AddStep(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
