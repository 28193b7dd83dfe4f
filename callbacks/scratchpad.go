package callbacks

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/effective-security/agentic/agent"
	"github.com/effective-security/agentic/tools"
	"github.com/effective-security/agentic/transcript"
)

// ensure Scratchpad implements agent.Callback
var _ agent.Callback = (*Scratchpad)(nil)

var TimeNowFn = time.Now

// RunStats aggregates counters over one session's recorded events.
type RunStats struct {
	SessionID string

	Duration       time.Duration
	Turns          uint32
	TurnsSucceeded uint32
	TurnsFailed    uint32
	ReasonerCalls  uint32

	ToolsCalls          uint32
	ToolsCallsSucceeded uint32
	ToolsCallsFailed    uint32
}

// Scratchpad records one session's events into a human-readable log with
// aggregated counters. Attach one per session, directly or via Fanout.
type Scratchpad struct {
	sessionID string
	mode      Mode
	started   time.Time

	w     bytes.Buffer
	lock  sync.Mutex
	stats RunStats
}

// NewScratchpad starts recording. When sessionID is not empty, turn events
// of other sessions are ignored; tool and reasoner events are always
// recorded since turns within a session are serialized.
func NewScratchpad(sessionID string, mode Mode) *Scratchpad {
	s := &Scratchpad{
		sessionID: sessionID,
		mode:      mode,
		started:   TimeNowFn(),
		stats:     RunStats{SessionID: sessionID},
	}
	s.print("*** Run Started ***")
	return s
}

// End closes the recording and returns the stats with the rendered log.
func (l *Scratchpad) End() (*RunStats, []byte) {
	stats := l.stats
	stats.Duration = time.Since(l.started)

	l.print(fmt.Sprintf("Turns: %d, Failed: %d",
		stats.Turns,
		stats.TurnsFailed,
	))
	l.print(fmt.Sprintf("Reasoner calls: %d", stats.ReasonerCalls))
	l.print(fmt.Sprintf("Tool calls: %d, Failed: %d",
		stats.ToolsCalls,
		stats.ToolsCallsFailed,
	))
	l.print(fmt.Sprintf("*** Run Ended. Duration: %s ***", stats.Duration))

	l.lock.Lock()
	defer l.lock.Unlock()
	return &stats, l.w.Bytes()
}

func (l *Scratchpad) mine(sessionID string) bool {
	return l.sessionID == "" || l.sessionID == sessionID
}

func (l *Scratchpad) OnTurnStart(ctx context.Context, agentName, sessionID, input string) {
	if !l.mine(sessionID) {
		return
	}
	atomic.AddUint32(&l.stats.Turns, 1)
	l.print(agentName, "*** Turn Start ***")
	l.print(agentName, "Input:", input)
}

func (l *Scratchpad) OnTurnEnd(ctx context.Context, agentName, sessionID string, result *agent.TurnResult) {
	if !l.mine(sessionID) {
		return
	}
	atomic.AddUint32(&l.stats.TurnsSucceeded, 1)
	if l.mode == ModeVerbose {
		l.print(agentName, "Answer:", result.Answer)
	}
	l.print(agentName, "*** Turn End ***", fmt.Sprintf("%d iterations", result.Iterations))
}

func (l *Scratchpad) OnTurnError(ctx context.Context, agentName, sessionID string, err error) {
	if !l.mine(sessionID) {
		return
	}
	atomic.AddUint32(&l.stats.TurnsFailed, 1)
	l.print(agentName, "*** Turn Error ***", err.Error())
}

func (l *Scratchpad) OnReasonerCallStart(ctx context.Context, agentName string, entries []transcript.Entry) {
	atomic.AddUint32(&l.stats.ReasonerCalls, 1)
	l.print(agentName, "*** Reasoner Call ***", fmt.Sprintf("%d entries", len(entries)))
}

func (l *Scratchpad) OnReasonerCallEnd(ctx context.Context, agentName string, outcome *agent.Outcome) {
	if len(outcome.ToolCalls) > 0 {
		l.print(agentName, "*** Reasoner Call End ***", fmt.Sprintf("%d tool calls", len(outcome.ToolCalls)))
	} else {
		l.print(agentName, "*** Reasoner Call End ***", "final answer")
	}
	if l.mode == ModeVerbose && outcome.FinalAnswer != "" {
		l.print(agentName, "Answer:", outcome.FinalAnswer)
	}
}

func (l *Scratchpad) OnToolStart(ctx context.Context, tool tools.ITool, input string) {
	atomic.AddUint32(&l.stats.ToolsCalls, 1)
	l.print(tool.Name(), "*** Tool Start ***")
	l.print(tool.Name(), "Input:", input)
}

func (l *Scratchpad) OnToolEnd(ctx context.Context, tool tools.ITool, input, output string) {
	atomic.AddUint32(&l.stats.ToolsCallsSucceeded, 1)
	if l.mode == ModeVerbose {
		l.print(tool.Name(), "Output:", output)
	}
	l.print(tool.Name(), "*** Tool End ***")
}

func (l *Scratchpad) OnToolError(ctx context.Context, tool tools.ITool, input string, err error) {
	atomic.AddUint32(&l.stats.ToolsCallsFailed, 1)
	l.print(tool.Name(), "*** Tool Error ***", err.Error())
}

// print writes the entries to the scratchpad's output.
// The entries are written in the following format:
// [timestamp sessionID] entry entry\n
func (l *Scratchpad) print(entries ...string) {
	l.lock.Lock()
	defer l.lock.Unlock()

	now := TimeNowFn()
	ts := now.Format("2006-01-02 15:04:05")

	_, _ = l.w.WriteString(ts)
	if l.sessionID != "" {
		_, _ = l.w.WriteString(" ")
		_, _ = l.w.WriteString(l.sessionID)
	}
	for _, entry := range entries {
		_, _ = l.w.WriteString(" ")
		_, _ = l.w.WriteString(entry)
	}
	_, _ = l.w.WriteString("\n")
}
