// Package agent drives the reasoning loop: snapshot the transcript, ask the
// reasoner, dispatch the requested tool calls, append the observations, and
// repeat until the reasoner produces a final answer or the iteration cap is
// reached.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/invoke"
	"github.com/effective-security/agentic/pkg/metricskey"
	"github.com/effective-security/agentic/tools"
	"github.com/effective-security/agentic/transcript"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentic", "agent")

var (
	// ErrReasoningParse is returned when the reasoner output can not be
	// interpreted as either a final answer or a list of tool calls.
	ErrReasoningParse = errors.New("failed to parse reasoner output")
	// ErrIterationLimit is returned when a turn exceeds the reasoning
	// round-trip cap without producing a final answer.
	ErrIterationLimit = errors.New("iteration limit exceeded")
)

// Outcome is one reasoning step: either a final answer, or a non-empty list
// of tool calls. Never both.
type Outcome struct {
	FinalAnswer string
	// Commentary is the free-form reasoning text accompanying tool calls.
	Commentary string
	ToolCalls  []invoke.Request
}

// Reasoner produces the next step from a transcript snapshot. The snapshot
// is an immutable copy; implementations must not retain or mutate it.
type Reasoner interface {
	Reason(ctx context.Context, entries []transcript.Entry) (*Outcome, error)
}

// ReasonerFunc adapts a function to the Reasoner interface.
type ReasonerFunc func(ctx context.Context, entries []transcript.Entry) (*Outcome, error)

func (f ReasonerFunc) Reason(ctx context.Context, entries []transcript.Entry) (*Outcome, error) {
	return f(ctx, entries)
}

// TurnResult is the output of one completed turn.
type TurnResult struct {
	Answer string
	// Entries are the entries this turn appended to the transcript,
	// in order: the user message, each reasoning step, its observations,
	// and the final answer.
	Entries []transcript.Entry
	// Iterations is the number of reasoning round-trips the turn used.
	Iterations int
}

// Callback receives loop lifecycle events, in addition to the per-tool
// events delivered through the invoker.
type Callback interface {
	tools.Callback
	OnTurnStart(ctx context.Context, agent, sessionID, input string)
	OnTurnEnd(ctx context.Context, agent, sessionID string, result *TurnResult)
	OnTurnError(ctx context.Context, agent, sessionID string, err error)
	OnReasonerCallStart(ctx context.Context, agent string, entries []transcript.Entry)
	OnReasonerCallEnd(ctx context.Context, agent string, outcome *Outcome)
}

// Agent owns one reasoner, one frozen tool registry and one transcript
// store, and can serve any number of sessions.
type Agent struct {
	reasoner Reasoner
	registry *tools.Registry
	store    transcript.Store
	invoker  *invoke.Invoker
	cfg      *Config
	name     string
}

// New creates an Agent. The registry is frozen: tools can not be added once
// the loop may be running.
func New(reasoner Reasoner, registry *tools.Registry, store transcript.Store, opts ...Option) *Agent {
	cfg := NewConfig(opts...)
	registry.Freeze()

	invokeOpts := []invoke.Option{
		invoke.WithTimeout(cfg.ToolTimeout),
	}
	if cfg.Callback != nil {
		invokeOpts = append(invokeOpts, invoke.WithCallback(cfg.Callback))
	}

	return &Agent{
		reasoner: reasoner,
		registry: registry,
		store:    store,
		invoker:  invoke.NewInvoker(registry, invokeOpts...),
		cfg:      cfg,
		name:     cfg.Name,
	}
}

// Name returns the agent name used in logs and metrics.
func (a *Agent) Name() string {
	return a.name
}

// Registry returns the frozen tool registry.
func (a *Agent) Registry() *tools.Registry {
	return a.registry
}

// Run executes one turn for the session: append the user message, then loop
// reasoning and tool dispatch until a final answer or a terminal error. On
// error the entries appended so far remain in the store and are returned in
// the partial TurnResult.
func (a *Agent) Run(ctx context.Context, sessionID, input string) (*TurnResult, error) {
	started := time.Now()
	if a.cfg.Callback != nil {
		a.cfg.Callback.OnTurnStart(ctx, a.name, sessionID, input)
	}

	res, err := a.run(ctx, sessionID, input)
	metricskey.PerfTurn.MeasureSince(started, a.name)
	if err != nil {
		metricskey.StatsTurnsFailed.IncrCounter(1, a.name)
		if a.cfg.Callback != nil {
			a.cfg.Callback.OnTurnError(ctx, a.name, sessionID, err)
		}
		logger.ContextKV(ctx, xlog.WARNING,
			"agent", a.name,
			"session_id", sessionID,
			"status", "turn_failed",
			"err", err.Error(),
		)
		return res, err
	}

	metricskey.StatsTurnsSucceeded.IncrCounter(1, a.name)
	if a.cfg.Callback != nil {
		a.cfg.Callback.OnTurnEnd(ctx, a.name, sessionID, res)
	}
	return res, nil
}

func (a *Agent) run(ctx context.Context, sessionID, input string) (*TurnResult, error) {
	res := &TurnResult{}

	userEntry := transcript.UserMessage(input)
	if err := a.store.Append(ctx, sessionID, userEntry); err != nil {
		return res, errors.WithMessage(err, "failed to append user message")
	}
	res.Entries = append(res.Entries, userEntry)

	for i := 1; i <= a.cfg.MaxIterations; i++ {
		res.Iterations = i
		metricskey.StatsLoopIterations.IncrCounter(1, a.name)

		if err := ctx.Err(); err != nil {
			return res, errors.WithStack(err)
		}

		snapshot, err := a.store.Snapshot(ctx, sessionID)
		if err != nil {
			return res, errors.WithMessage(err, "failed to snapshot transcript")
		}

		outcome, err := a.reason(ctx, snapshot)
		if err != nil {
			if errors.Is(err, ErrReasoningParse) {
				metricskey.StatsReasonerParseErrors.IncrCounter(1, a.name)
			}
			return res, err
		}

		if len(outcome.ToolCalls) == 0 {
			final := transcript.FinalAnswer(outcome.FinalAnswer)
			if err := a.store.Append(ctx, sessionID, final); err != nil {
				return res, errors.WithMessage(err, "failed to append final answer")
			}
			res.Entries = append(res.Entries, final)
			res.Answer = outcome.FinalAnswer

			logger.ContextKV(ctx, xlog.DEBUG,
				"agent", a.name,
				"session_id", sessionID,
				"status", "turn_completed",
				"iterations", i,
			)
			return res, nil
		}

		calls := normalizeCalls(outcome.ToolCalls)
		reasoningEntry := transcript.Reasoning(outcome.Commentary, calls...)
		if err := a.store.Append(ctx, sessionID, reasoningEntry); err != nil {
			return res, errors.WithMessage(err, "failed to append reasoning")
		}
		res.Entries = append(res.Entries, reasoningEntry)

		observations := a.dispatch(ctx, calls)
		if err := a.store.Append(ctx, sessionID, observations...); err != nil {
			return res, errors.WithMessage(err, "failed to append observations")
		}
		res.Entries = append(res.Entries, observations...)
	}

	return res, errors.WithMessagef(ErrIterationLimit,
		"agent %s: no final answer after %d iterations", a.name, a.cfg.MaxIterations)
}

func (a *Agent) reason(ctx context.Context, snapshot []transcript.Entry) (*Outcome, error) {
	if a.cfg.Callback != nil {
		a.cfg.Callback.OnReasonerCallStart(ctx, a.name, snapshot)
	}

	started := time.Now()
	outcome, err := a.reasoner.Reason(ctx, snapshot)
	metricskey.PerfReasonerCall.MeasureSince(started, a.name)
	if err != nil {
		return nil, errors.WithMessage(err, "reasoner call failed")
	}
	if outcome == nil || (outcome.FinalAnswer == "" && len(outcome.ToolCalls) == 0) {
		return nil, errors.WithMessage(ErrReasoningParse,
			"reasoner returned neither a final answer nor tool calls")
	}
	if outcome.FinalAnswer != "" && len(outcome.ToolCalls) > 0 {
		return nil, errors.WithMessage(ErrReasoningParse,
			"reasoner returned both a final answer and tool calls")
	}

	if a.cfg.Callback != nil {
		a.cfg.Callback.OnReasonerCallEnd(ctx, a.name, outcome)
	}
	return outcome, nil
}

// dispatch runs the step's tool calls concurrently and returns the
// observations in call order, so the transcript order is deterministic
// regardless of completion order.
func (a *Agent) dispatch(ctx context.Context, calls []invoke.Request) []transcript.Entry {
	results := make([]invoke.Result, len(calls))

	var wg sync.WaitGroup
	wg.Add(len(calls))
	for i, call := range calls {
		go func(index int, req invoke.Request) {
			defer wg.Done()
			results[index] = a.invoker.Invoke(ctx, req)
		}(i, call)
	}
	wg.Wait()

	observations := make([]transcript.Entry, len(calls))
	for i, call := range calls {
		observations[i] = transcript.Observation(call, results[i])
	}
	return observations
}

// normalizeCalls fills in missing call IDs.
func normalizeCalls(calls []invoke.Request) []invoke.Request {
	out := make([]invoke.Request, len(calls))
	for i, call := range calls {
		if call.ID == "" {
			call.ID = fmt.Sprintf("%s_%d", call.Tool, i)
		}
		out[i] = call
	}
	return out
}
