// Package transcript provides the ordered, append-only record of one
// conversation: user messages, reasoning outputs, tool observations and the
// final answer. Insertion order is the only meaningful order; entries are
// never reordered, mutated or deleted.
package transcript

import (
	"context"
	"time"

	"github.com/effective-security/agentic/invoke"
)

// Kind tags a transcript entry variant.
type Kind string

const (
	KindUserMessage Kind = "user"
	KindReasoning   Kind = "reasoning"
	KindObservation Kind = "observation"
	KindFinalAnswer Kind = "final"
)

// Entry is one tagged transcript record.
type Entry struct {
	Kind Kind      `json:"kind"`
	Time time.Time `json:"time,omitempty"`

	// Text holds the user message, the reasoning commentary,
	// or the final answer.
	Text string `json:"text,omitempty"`
	// ToolCalls holds the requests of a reasoning entry.
	ToolCalls []invoke.Request `json:"tool_calls,omitempty"`
	// Request is the originating request of an observation.
	Request *invoke.Request `json:"request,omitempty"`
	// Result is the outcome of an observation.
	Result *invoke.Result `json:"result,omitempty"`
}

func UserMessage(text string) Entry {
	return Entry{Kind: KindUserMessage, Time: time.Now().UTC(), Text: text}
}

func Reasoning(text string, calls ...invoke.Request) Entry {
	return Entry{Kind: KindReasoning, Time: time.Now().UTC(), Text: text, ToolCalls: calls}
}

func Observation(req invoke.Request, res invoke.Result) Entry {
	return Entry{Kind: KindObservation, Time: time.Now().UTC(), Request: &req, Result: &res}
}

func FinalAnswer(text string) Entry {
	return Entry{Kind: KindFinalAnswer, Time: time.Now().UTC(), Text: text}
}

// Store keeps per-session transcripts. Append of multiple entries is atomic
// with respect to Snapshot: a snapshot never exposes a partially written
// batch.
type Store interface {
	Append(ctx context.Context, sessionID string, entries ...Entry) error
	Snapshot(ctx context.Context, sessionID string) ([]Entry, error)
	Clear(ctx context.Context, sessionID string) error
}
