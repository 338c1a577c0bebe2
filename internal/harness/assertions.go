package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/gpl/internal/ir"
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
		for _, step := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v -> %s\n", step.Step, step.Op, step.Args, step.Outcome)
		}
	}

	return buf.String()
}

// committedEvents flattens the events of every step in trace order.
func committedEvents(trace []TraceEvent) []map[string]any {
	var out []map[string]any
	for _, step := range trace {
		out = append(out, step.Events...)
	}
	return out
}

// assertEventCount checks that exactly Count events of Kind were committed.
func assertEventCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range committedEvents(trace) {
		if ev["kind"] == a.Kind {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertEventSequence checks the full kind sequence of the log.
func assertEventSequence(trace []TraceEvent, a Assertion) error {
	var kinds []string
	for _, ev := range committedEvents(trace) {
		kinds = append(kinds, ev["kind"].(string))
	}

	match := len(kinds) == len(a.Kinds)
	for i := 0; match && i < len(kinds); i++ {
		match = kinds[i] == a.Kinds[i]
	}
	if !match {
		return &AssertionError{
			Type:     AssertEventSequence,
			Expected: fmt.Sprintf("%v", a.Kinds),
			Actual:   fmt.Sprintf("%v", kinds),
			Trace:    trace,
		}
	}
	return nil
}

// assertEventContains checks that some event of Kind carries every field
// in Fields (subset match on the aliased payload).
func assertEventContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range committedEvents(trace) {
		if ev["kind"] == a.Kind && matchFields(ev, a.Fields) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("%s event with %v", a.Kind, a.Fields),
		Actual:   "not found in event log",
		Trace:    trace,
	}
}

// assertProfileExists checks slot occupancy in the runtime.
func assertProfileExists(h *Harness, a Assertion) error {
	addr, err := h.aliases.resolve(a.Profile)
	if err != nil {
		return err
	}
	acct, ok := h.runtime.Account(addr)
	exists := ok && acct.Kind == ir.AccountProfile
	if exists != a.Exists {
		return &AssertionError{
			Type:     AssertProfileExists,
			Expected: fmt.Sprintf("profile %s exists=%t", a.Profile, a.Exists),
			Actual:   fmt.Sprintf("exists=%t", exists),
		}
	}
	return nil
}

// assertRefunded checks the bytes reclaimed to a key.
func assertRefunded(h *Harness, a Assertion) error {
	addr, err := h.aliases.resolve(a.Key)
	if err != nil {
		return err
	}
	if got := h.runtime.Refunded(addr); got != a.Bytes {
		return &AssertionError{
			Type:     AssertRefunded,
			Expected: fmt.Sprintf("%d bytes refunded to %s", a.Bytes, a.Key),
			Actual:   fmt.Sprintf("%d bytes", got),
		}
	}
	return nil
}

// matchFields reports whether actual carries every expected field.
// Numbers compare by value regardless of Go type; YAML decodes integers
// as int while payloads carry int64.
func matchFields(actual, expected map[string]any) bool {
	for key, want := range expected {
		got, ok := actual[key]
		if !ok {
			return false
		}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertEventCount:
			err = assertEventCount(result.Trace, a)
		case AssertEventSequence:
			err = assertEventSequence(result.Trace, a)
		case AssertEventContains:
			err = assertEventContains(result.Trace, a)
		case AssertProfileExists:
			err = assertProfileExists(h, a)
		case AssertRefunded:
			err = assertRefunded(h, a)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
