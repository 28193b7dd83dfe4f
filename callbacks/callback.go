// Package callbacks provides ready-made handlers for loop and tool events:
// a no-op, a writer printer, a structured logger, and a fanout combinator.
package callbacks

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/effective-security/agentic/agent"
	"github.com/effective-security/agentic/tools"
	"github.com/effective-security/agentic/transcript"
	"github.com/effective-security/xlog"
)

// ensure that the callbacks implement the correct interfaces
var (
	_ agent.Callback = (*Noop)(nil)
	_ tools.Callback = (*Noop)(nil)
	_ agent.Callback = (*Printer)(nil)
	_ tools.Callback = (*Printer)(nil)
	_ agent.Callback = (*PackageLogger)(nil)
	_ tools.Callback = (*PackageLogger)(nil)
	_ agent.Callback = (*Fanout)(nil)
	_ tools.Callback = (*Fanout)(nil)
)

// Mode defines the mode for callback printing
type Mode int

const (
	// ModeDefault is the default mode for callback printing
	ModeDefault Mode = iota
	// ModeVerbose is the verbose mode for callback printing
	ModeVerbose
)

// Fanout is a callback handler that forwards the events to multiple callbacks.
type Fanout struct {
	callbacks []agent.Callback
}

func NewFanout(callbacks ...agent.Callback) *Fanout {
	return &Fanout{callbacks: callbacks}
}

func (l *Fanout) Add(callback agent.Callback) {
	l.callbacks = append(l.callbacks, callback)
}

func (l *Fanout) OnTurnStart(ctx context.Context, agentName, sessionID, input string) {
	for _, callback := range l.callbacks {
		callback.OnTurnStart(ctx, agentName, sessionID, input)
	}
}

func (l *Fanout) OnTurnEnd(ctx context.Context, agentName, sessionID string, result *agent.TurnResult) {
	for _, callback := range l.callbacks {
		callback.OnTurnEnd(ctx, agentName, sessionID, result)
	}
}

func (l *Fanout) OnTurnError(ctx context.Context, agentName, sessionID string, err error) {
	for _, callback := range l.callbacks {
		callback.OnTurnError(ctx, agentName, sessionID, err)
	}
}

func (l *Fanout) OnReasonerCallStart(ctx context.Context, agentName string, entries []transcript.Entry) {
	for _, callback := range l.callbacks {
		callback.OnReasonerCallStart(ctx, agentName, entries)
	}
}

func (l *Fanout) OnReasonerCallEnd(ctx context.Context, agentName string, outcome *agent.Outcome) {
	for _, callback := range l.callbacks {
		callback.OnReasonerCallEnd(ctx, agentName, outcome)
	}
}

func (l *Fanout) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	for _, callback := range l.callbacks {
		callback.OnToolStart(ctx, tool, input)
	}
}

func (l *Fanout) OnToolEnd(ctx context.Context, tool tools.ITool, input, output string) {
	for _, callback := range l.callbacks {
		callback.OnToolEnd(ctx, tool, input, output)
	}
}

func (l *Fanout) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	for _, callback := range l.callbacks {
		callback.OnToolError(ctx, tool, input, err)
	}
}

// Noop does nothing.
type Noop struct{}

func NewNoop() *Noop {
	return &Noop{}
}

func (l *Noop) OnTurnStart(ctx context.Context, agentName, sessionID, input string) {}
func (l *Noop) OnTurnEnd(ctx context.Context, agentName, sessionID string, result *agent.TurnResult) {
}
func (l *Noop) OnTurnError(ctx context.Context, agentName, sessionID string, err error) {}
func (l *Noop) OnReasonerCallStart(ctx context.Context, agentName string, entries []transcript.Entry) {
}
func (l *Noop) OnReasonerCallEnd(ctx context.Context, agentName string, outcome *agent.Outcome) {}
func (l *Noop) OnToolStart(ctx context.Context, tool tools.ITool, input string)                 {}
func (l *Noop) OnToolEnd(ctx context.Context, tool tools.ITool, input, output string)           {}
func (l *Noop) OnToolError(ctx context.Context, tool tools.ITool, input string, err error)      {}

// Printer is a callback handler that prints to the Writer.
type Printer struct {
	Out  io.Writer
	Mode Mode

	lock sync.Mutex
}

func NewPrinter(out io.Writer, mode Mode) *Printer {
	return &Printer{Out: out, Mode: mode}
}

func (l *Printer) OnTurnStart(ctx context.Context, agentName, sessionID, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Turn Start: %s (%s)\n", agentName, sessionID)
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnTurnEnd(ctx context.Context, agentName, sessionID string, result *agent.TurnResult) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Turn End: %s (%s): %d iterations\n", agentName, sessionID, result.Iterations)
	if l.Mode == ModeVerbose && result.Answer != "" {
		fmt.Fprintln(l.Out, result.Answer)
	}
}

func (l *Printer) OnTurnError(ctx context.Context, agentName, sessionID string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Turn Error: %s (%s): %s\n", agentName, sessionID, err.Error())
}

func (l *Printer) OnReasonerCallStart(ctx context.Context, agentName string, entries []transcript.Entry) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Reasoner Call: %s: %d entries\n", agentName, len(entries))
}

func (l *Printer) OnReasonerCallEnd(ctx context.Context, agentName string, outcome *agent.Outcome) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Reasoner Call End: %s: %d tool calls\n", agentName, len(outcome.ToolCalls))
	if l.Mode == ModeVerbose && outcome.FinalAnswer != "" {
		fmt.Fprintln(l.Out, outcome.FinalAnswer)
	}
}

func (l *Printer) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Start: %s\n", tool.Name())
	fmt.Fprintf(l.Out, "Input: %s\n", input)
}

func (l *Printer) OnToolEnd(ctx context.Context, tool tools.ITool, input, output string) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool End: %s\n", tool.Name())
	if l.Mode == ModeVerbose {
		fmt.Fprintf(l.Out, "Output: %s\n", output)
	}
}

func (l *Printer) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	fmt.Fprintf(l.Out, "Tool Error: %s: %s\n", tool.Name(), err.Error())
}

// PackageLogger is a callback handler that prints to the logger.
type PackageLogger struct {
	logger *xlog.PackageLogger
}

func NewPackageLogger(logger *xlog.PackageLogger) *PackageLogger {
	return &PackageLogger{logger: logger}
}

func (l *PackageLogger) OnTurnStart(ctx context.Context, agentName, sessionID, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "turn_start",
		"agent", agentName,
		"session_id", sessionID,
		"input", input,
	)
}

func (l *PackageLogger) OnTurnEnd(ctx context.Context, agentName, sessionID string, result *agent.TurnResult) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "turn_end",
		"agent", agentName,
		"session_id", sessionID,
		"iterations", result.Iterations,
	)
}

func (l *PackageLogger) OnTurnError(ctx context.Context, agentName, sessionID string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "turn_error",
		"agent", agentName,
		"session_id", sessionID,
		"err", err.Error(),
	)
}

func (l *PackageLogger) OnReasonerCallStart(ctx context.Context, agentName string, entries []transcript.Entry) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "reasoner_call_start",
		"agent", agentName,
		"entries", len(entries),
	)
}

func (l *PackageLogger) OnReasonerCallEnd(ctx context.Context, agentName string, outcome *agent.Outcome) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "reasoner_call_end",
		"agent", agentName,
		"tool_calls", len(outcome.ToolCalls),
	)
}

func (l *PackageLogger) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_start",
		"tool", tool.Name(),
		"input", input,
	)
}

func (l *PackageLogger) OnToolEnd(ctx context.Context, tool tools.ITool, input, output string) {
	l.logger.ContextKV(ctx, xlog.DEBUG,
		"event", "tool_end",
		"tool", tool.Name(),
		"output", output,
	)
}

func (l *PackageLogger) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	l.logger.ContextKV(ctx, xlog.ERROR,
		"event", "tool_error",
		"tool", tool.Name(),
		"err", err.Error(),
	)
}
