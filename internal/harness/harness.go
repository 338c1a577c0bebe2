package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"github.com/roach88/gpl/internal/address"
	"github.com/roach88/gpl/internal/credential"
	"github.com/roach88/gpl/internal/ir"
	"github.com/roach88/gpl/internal/lifecycle"
	"github.com/roach88/gpl/internal/testutil"
)

// Harness is the scenario execution engine.
// It runs steps with a fixed clock and fixed operation ids.
type Harness struct {
	runtime *testutil.MemRuntime
	manager *lifecycle.Manager
	keys    map[string]*credential.Keypair
	aliases *aliasTable
	logger  *slog.Logger
}

// Option configures Run.
type Option func(*Harness)

// WithLogger sets the logger used by the harness and its manager.
// Logs are discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory runtime. A non-nil error
// means the scenario itself is broken (for example a step refers to an
// alias that a failed create never bound); unmet expectations are
// reported through Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		runtime: testutil.NewMemRuntime(),
		keys:    make(map[string]*credential.Keypair),
		aliases: newAliasTable(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(h)
	}

	start := scenario.ClockStart
	if start == 0 {
		start = DefaultClockStart
	}
	opIDs := make([]string, len(scenario.Steps))
	for i := range opIDs {
		opIDs[i] = fmt.Sprintf("op-%03d", i+1)
	}
	h.manager = lifecycle.NewManager(h.runtime,
		lifecycle.WithClock(testutil.NewFixedClock(start, 1)),
		lifecycle.WithOpIDGenerator(lifecycle.NewFixedGenerator(opIDs...)),
		lifecycle.WithLogger(h.logger),
	)

	if err := h.setup(scenario); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h) {
		result.AddError(msg)
	}
	return result, nil
}

// setup creates keys, stores users, and derives named profile slots.
func (h *Harness) setup(scenario *Scenario) error {
	for name, fill := range scenario.Keys {
		kp := testutil.Keypair(byte(fill))
		h.keys[name] = kp
		h.aliases.bind(name, kp.Address())
	}

	for _, u := range scenario.Users {
		addr, err := h.runtime.PutUser(h.keys[u.Authority].Address(), testutil.Salt(byte(u.Salt)))
		if err != nil {
			return fmt.Errorf("user %s: %w", u.Alias, err)
		}
		h.aliases.bind(u.Alias, addr)
	}

	for _, p := range scenario.Profiles {
		ns, err := ir.ParseNamespace(p.Namespace)
		if err != nil {
			return fmt.Errorf("profile %s: %w", p.Alias, err)
		}
		user, err := h.aliases.resolve(p.User)
		if err != nil {
			return fmt.Errorf("profile %s: %w", p.Alias, err)
		}
		addr, _, err := address.ProfileAddress(ns, user)
		if err != nil {
			return fmt.Errorf("profile %s: %w", p.Alias, err)
		}
		h.aliases.bind(p.Alias, addr)
	}
	return nil
}

// executeStep runs one step, records it, and checks its expectation.
func (h *Harness) executeStep(ctx context.Context, index int, step Step, result *Result) error {
	user, err := h.aliases.resolve(step.User)
	if err != nil {
		return err
	}

	trace := TraceEvent{
		Step: index + 1,
		Op:   step.Op,
		Args: map[string]any{
			"caller": step.Caller,
			"user":   step.User,
		},
	}
	if step.Signer != "" {
		trace.Args["signer"] = step.Signer
	}

	var (
		opID    string
		events  []ir.Event
		stepErr error
	)
	switch step.Op {
	case OpCreate:
		trace.Args["namespace"] = step.Namespace
		ns, err := parseStepNamespace(step.Namespace)
		if err != nil {
			stepErr = err
			break
		}
		req := lifecycle.CreateRequest{Namespace: ns, User: user}
		res, err := h.manager.Create(ctx, req, h.caller(step, req))
		if err != nil {
			stepErr = err
			break
		}
		opID = res.OpID
		events = append(events, res.Event)
		if step.As != "" {
			h.aliases.bind(step.As, res.Address)
		}

	case OpDelete:
		trace.Args["profile"] = step.Profile
		profile, err := h.aliases.resolve(step.Profile)
		if err != nil {
			return err
		}
		req := lifecycle.DeleteRequest{Profile: profile, User: user}
		res, err := h.manager.Delete(ctx, req, h.caller(step, req))
		if err != nil {
			stepErr = err
			break
		}
		opID = res.OpID
		events = append(events, res.Event)
		trace.Reclaimed = res.Reclaimed

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}

	trace.Outcome = OutcomeOK
	if stepErr != nil {
		code := ir.CodeOf(stepErr)
		if code == "" {
			return stepErr
		}
		trace.Outcome = string(code)
	}
	trace.OpID = opID
	for _, ev := range events {
		trace.Events = append(trace.Events, h.aliases.eventMap(ev))
	}
	result.AddStep(trace)

	if trace.Outcome != step.Expect {
		result.AddError(fmt.Sprintf("step %d (%s): expected %s, got %s",
			index+1, step.Op, step.Expect, trace.Outcome))
	}

	h.logger.Info("step completed",
		"step", index+1,
		"op", step.Op,
		"outcome", trace.Outcome,
	)
	return nil
}

// caller builds the presented credential. When the step names a separate
// signer, the signature does not match the claimed authority. A request
// that cannot be encoded goes out unsigned; the manager rejects it before
// looking at the signature.
func (h *Harness) caller(step Step, req testutil.Signable) credential.Caller {
	signer := step.Signer
	if signer == "" {
		signer = step.Caller
	}
	c := credential.Caller{Authority: h.keys[step.Caller].Address()}
	msg, err := req.Message()
	if err != nil {
		return c
	}
	signed, err := h.keys[signer].Sign(msg)
	if err != nil {
		return c
	}
	c.Signature = signed.Signature
	return c
}

// parseStepNamespace accepts a namespace name or a raw numeric tag, so
// scenarios can present tags outside the enumeration.
func parseStepNamespace(s string) (ir.Namespace, error) {
	ns, err := ir.ParseNamespace(s)
	if err == nil {
		return ns, nil
	}
	tag, convErr := strconv.ParseUint(s, 10, 8)
	if convErr != nil {
		return 0, err
	}
	return ir.Namespace(tag), nil
}
