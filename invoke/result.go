package invoke

import (
	"fmt"
	"time"
)

// Outcome tags the result of a tool invocation.
type Outcome string

const (
	OutcomeSuccess         Outcome = "success"
	OutcomeValidationError Outcome = "validation_error"
	OutcomeExecutionError  Outcome = "execution_error"
	OutcomeTimeout         Outcome = "timeout"
)

// Request is a tool invocation produced by the reasoner.
// Arguments are raw and untyped at this layer; the Invoker validates them
// against the tool's declared schema.
type Request struct {
	ID        string         `json:"id,omitempty"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

func (r Request) String() string {
	return fmt.Sprintf("%s(%v)", r.Tool, r.Arguments)
}

// Result is the uniform envelope for one tool invocation. It is appended to
// the transcript as an observation and never mutated after creation.
type Result struct {
	Tool    string        `json:"tool"`
	Outcome Outcome       `json:"outcome"`
	Payload string        `json:"payload,omitempty"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// Succeeded reports whether the invocation completed without error.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeSuccess
}

// Content returns the text to feed back to the reasoner: the payload on
// success, or the error detail so the model can self-correct.
func (r Result) Content() string {
	if r.Succeeded() {
		return r.Payload
	}
	return fmt.Sprintf("Tool call failed: %s", r.Error)
}
