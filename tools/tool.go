package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bububa/ljson"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/pkg/llmutils"
	"github.com/effective-security/agentic/pkg/schema"
	"github.com/go-playground/validator/v10"
)

// ErrFailedUnmarshalInput is returned by a tool when the input JSON does not
// match its declared schema.
var ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")

// ITool is a capability the agent can invoke.
type ITool interface {
	// Name returns the name of the Tool.
	Name() string
	// Description returns the description of the tool, to be used in the prompt.
	// Should not exceed LLM model limit.
	Description() string
	// Schema returns the parameters definition of the tool.
	Schema() *schema.Schema

	// Call executes the tool with the given JSON input and returns the result.
	// If the tool fails to parse the input, it should return ErrFailedUnmarshalInput.
	Call(context.Context, string) (string, error)
}

// Callback receives tool execution events.
type Callback interface {
	OnToolStart(context.Context, ITool, string)
	OnToolEnd(context.Context, ITool, string, string)
	OnToolError(context.Context, ITool, string, error)
}

// TimeLimiter is implemented by tools that need a non-default
// execution timeout.
type TimeLimiter interface {
	Timeout() time.Duration
}

type Tool[I any, O any] interface {
	ITool
	Run(context.Context, *I) (*O, error)
}

var validate = validator.New()

// UnmarshalInput decodes tool input JSON into req, leniently: surrounding
// prose and code fences are stripped, and struct tags are validated.
// Returns ErrFailedUnmarshalInput on failure.
func UnmarshalInput[I any](input string, req *I) error {
	if err := ljson.Unmarshal(llmutils.CleanJSON([]byte(input)), req); err != nil {
		return errors.WithSecondaryError(ErrFailedUnmarshalInput, err)
	}
	if err := validate.Struct(req); err != nil {
		return errors.WithSecondaryError(ErrFailedUnmarshalInput, err)
	}
	return nil
}

// CallTyped adapts a typed Run to the string based Call contract,
// marshaling the output as JSON.
func CallTyped[I any, O any](ctx context.Context, t Tool[I, O], input string) (string, error) {
	var req I
	if err := UnmarshalInput(input, &req); err != nil {
		return "", err
	}
	out, err := t.Run(ctx, &req)
	if err != nil {
		return "", err
	}
	bs, err := json.Marshal(out)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal output")
	}
	return string(bs), nil
}

type toolDescription struct {
	Name        string `json:"Name" yaml:"Name"`
	Description string `json:"Description" yaml:"Description"`
}

type toolsDescription struct {
	Tools []toolDescription `json:"Tools" yaml:"Tools"`
}

// GetDescriptions returns a fenced JSON block describing the tools,
// suitable for inclusion in a system prompt.
func GetDescriptions(list ...ITool) string {
	var d toolsDescription
	for _, tool := range list {
		d.Tools = append(d.Tools, toolDescription{
			Name:        tool.Name(),
			Description: tool.Description(),
		})
	}
	return llmutils.BackticksJSON(llmutils.ToJSONIndent(d))
}
