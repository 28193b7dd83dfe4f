// Package calc provides an arithmetic tool so the model never does mental
// math. Expressions are evaluated by pkg/mathexpr over a fixed grammar,
// never by any general-purpose interpreter.
package calc

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/pkg/mathexpr"
	"github.com/effective-security/agentic/pkg/schema"
	"github.com/effective-security/agentic/tools"
)

const ToolName = "calculate"

// CalcRequest represents the tool input.
type CalcRequest struct {
	Expression string `json:"expression" yaml:"expression" jsonschema:"title=expression,description=A mathematical expression to evaluate. Supports + - * / % ^ and parentheses; functions sqrt sin cos tan log log10 log2 exp abs round floor ceil pow; constants pi and e; percent forms like '15% of 289.99'."`
}

// CalcResult represents the tool output.
type CalcResult struct {
	Expression string  `json:"expression" yaml:"expression"`
	Result     string  `json:"result" yaml:"result"`
	Value      float64 `json:"value" yaml:"value"`
}

// Tool evaluates arithmetic expressions.
type Tool struct{}

var _ tools.Tool[CalcRequest, CalcResult] = (*Tool)(nil)

func New() *Tool {
	return &Tool{}
}

func (t *Tool) Name() string {
	return ToolName
}

func (t *Tool) Description() string {
	return "Evaluates a mathematical expression and returns the exact result. Use this for any arithmetic instead of computing yourself."
}

func (t *Tool) Schema() *schema.Schema {
	return schema.MustNew(CalcRequest{})
}

func (t *Tool) Run(_ context.Context, req *CalcRequest) (*CalcResult, error) {
	if req.Expression == "" {
		return nil, errors.New("invalid request: empty expression")
	}

	val, err := mathexpr.Eval(req.Expression)
	if err != nil {
		return nil, err
	}

	return &CalcResult{
		Expression: req.Expression,
		Result:     fmt.Sprintf("%s = %s", req.Expression, mathexpr.Format(val)),
		Value:      val,
	}, nil
}

func (t *Tool) Call(ctx context.Context, input string) (string, error) {
	return tools.CallTyped(ctx, t, input)
}
