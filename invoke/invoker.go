// Package invoke executes tool-invocation requests against the registry,
// validating arguments, enforcing timeouts, and normalizing every outcome
// into a Result that is safe to feed back to the reasoning loop.
package invoke

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/pkg/metricskey"
	"github.com/effective-security/agentic/tools"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/agentic", "invoke")

// DefaultTimeout bounds a single tool execution unless the tool
// implements tools.TimeLimiter.
const DefaultTimeout = 15 * time.Second

// Invoker dispatches requests to registered tools. A single tool's failure
// never escapes as an error: every path produces a Result.
type Invoker struct {
	registry *tools.Registry
	timeout  time.Duration
	callback tools.Callback
}

// Option configures an Invoker.
type Option func(*Invoker)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(inv *Invoker) {
		if d > 0 {
			inv.timeout = d
		}
	}
}

// WithCallback sets the tool execution callback.
func WithCallback(cb tools.Callback) Option {
	return func(inv *Invoker) {
		inv.callback = cb
	}
}

func NewInvoker(registry *tools.Registry, opts ...Option) *Invoker {
	inv := &Invoker{
		registry: registry,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Invoke resolves, validates and executes one request.
func (inv *Invoker) Invoke(ctx context.Context, req Request) Result {
	started := time.Now()

	tool, err := inv.registry.Lookup(req.Tool)
	if err != nil {
		metricskey.StatsToolCallsNotFound.IncrCounter(1, req.Tool)
		available := strings.Join(inv.registry.Names(), ", ")
		logger.ContextKV(ctx, xlog.WARNING,
			"status", "tool_not_found",
			"tool", req.Tool,
			"available_tools", available,
		)
		return Result{
			Tool:    req.Tool,
			Outcome: OutcomeExecutionError,
			Error:   errors.WithMessagef(err, "available tools: %s", available).Error(),
			Elapsed: time.Since(started),
		}
	}

	args, err := tool.Schema().ValidateArgs(req.Arguments)
	if err != nil {
		metricskey.StatsToolCallsRejected.IncrCounter(1, req.Tool)
		logger.ContextKV(ctx, xlog.DEBUG,
			"status", "tool_args_rejected",
			"tool", req.Tool,
			"err", err.Error(),
		)
		return Result{
			Tool:    req.Tool,
			Outcome: OutcomeValidationError,
			Error:   err.Error(),
			Elapsed: time.Since(started),
		}
	}

	input, err := marshalArgs(args)
	if err != nil {
		metricskey.StatsToolCallsRejected.IncrCounter(1, req.Tool)
		return Result{
			Tool:    req.Tool,
			Outcome: OutcomeValidationError,
			Error:   err.Error(),
			Elapsed: time.Since(started),
		}
	}

	if inv.callback != nil {
		inv.callback.OnToolStart(ctx, tool, input)
	}

	res := inv.execute(ctx, tool, input)
	res.Elapsed = time.Since(started)
	metricskey.PerfToolCall.MeasureSince(started, req.Tool)

	switch res.Outcome {
	case OutcomeSuccess:
		metricskey.StatsToolCallsSucceeded.IncrCounter(1, req.Tool)
		if inv.callback != nil {
			inv.callback.OnToolEnd(ctx, tool, input, res.Payload)
		}
	case OutcomeTimeout:
		metricskey.StatsToolCallsTimedOut.IncrCounter(1, req.Tool)
		if inv.callback != nil {
			inv.callback.OnToolError(ctx, tool, input, errors.New(res.Error))
		}
	default:
		metricskey.StatsToolCallsFailed.IncrCounter(1, req.Tool)
		if inv.callback != nil {
			inv.callback.OnToolError(ctx, tool, input, errors.New(res.Error))
		}
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "tool_call",
		"tool", req.Tool,
		"outcome", res.Outcome,
		"elapsed", res.Elapsed.String(),
	)
	return res
}

// execute runs the tool under a bounded timeout. On deadline the goroutine is
// detached: its late result is discarded, never joined.
func (inv *Invoker) execute(ctx context.Context, tool tools.ITool, input string) Result {
	timeout := inv.timeout
	if tl, ok := tool.(tools.TimeLimiter); ok && tl.Timeout() > 0 {
		timeout = tl.Timeout()
	}

	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type callResult struct {
		out string
		err error
	}
	// buffered so a late completion does not leak the goroutine
	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- callResult{err: errors.Newf("tool %s panicked: %v", tool.Name(), r)}
			}
		}()
		out, err := tool.Call(cctx, input)
		done <- callResult{out: out, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			// a cooperative tool returns the deadline error itself
			if errors.Is(res.err, context.DeadlineExceeded) && ctx.Err() == nil {
				return Result{
					Tool:    tool.Name(),
					Outcome: OutcomeTimeout,
					Error:   errors.Newf("tool %s timed out after %s", tool.Name(), timeout).Error(),
				}
			}
			return Result{
				Tool:    tool.Name(),
				Outcome: OutcomeExecutionError,
				Error:   res.err.Error(),
			}
		}
		return Result{
			Tool:    tool.Name(),
			Outcome: OutcomeSuccess,
			Payload: res.out,
		}
	case <-cctx.Done():
		if errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{
				Tool:    tool.Name(),
				Outcome: OutcomeTimeout,
				Error:   errors.Newf("tool %s timed out after %s", tool.Name(), timeout).Error(),
			}
		}
		// caller cancellation
		return Result{
			Tool:    tool.Name(),
			Outcome: OutcomeExecutionError,
			Error:   ctx.Err().Error(),
		}
	}
}

func marshalArgs(args map[string]any) (string, error) {
	bs, err := json.Marshal(args)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal arguments")
	}
	return string(bs), nil
}
