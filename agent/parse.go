package agent

import (
	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/invoke"
	"github.com/effective-security/agentic/pkg/llmutils"
)

type parsedOutcome struct {
	Answer    string           `json:"answer,omitempty"`
	Thought   string           `json:"thought,omitempty"`
	ToolCalls []invoke.Request `json:"tool_calls,omitempty"`
}

// ParseOutcome interprets free-text reasoner output as a step outcome. The
// text must be a JSON object with either an `answer` or a non-empty
// `tool_calls` list; markdown fences and surrounding prose are tolerated.
// Anything else fails with ErrReasoningParse.
func ParseOutcome(text string) (*Outcome, error) {
	var po parsedOutcome
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(text)), &po); err != nil {
		return nil, errors.WithSecondaryError(errors.WithStack(ErrReasoningParse), err)
	}
	if po.Answer == "" && len(po.ToolCalls) == 0 {
		return nil, errors.WithMessage(ErrReasoningParse,
			"expected an answer or tool calls")
	}
	if po.Answer != "" && len(po.ToolCalls) > 0 {
		return nil, errors.WithMessage(ErrReasoningParse,
			"got both an answer and tool calls")
	}
	for i, call := range po.ToolCalls {
		if call.Tool == "" {
			return nil, errors.WithMessagef(ErrReasoningParse,
				"tool call %d has no tool name", i)
		}
	}
	return &Outcome{
		FinalAnswer: po.Answer,
		Commentary:  po.Thought,
		ToolCalls:   po.ToolCalls,
	}, nil
}
