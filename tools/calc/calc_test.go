package calc_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/effective-security/agentic/tools/calc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Tool(t *testing.T) {
	ctx := context.Background()
	tool := calc.New()

	assert.Equal(t, calc.ToolName, tool.Name())
	assert.Contains(t, tool.Description(), "mathematical")

	res, err := tool.Run(ctx, &calc.CalcRequest{Expression: "sqrt(16) + 5^2"})
	require.NoError(t, err)
	assert.Equal(t, "sqrt(16) + 5^2 = 29", res.Result)
	assert.InDelta(t, 29, res.Value, 1e-9)

	out, err := tool.Call(ctx, `{"expression": "15% of 289.99"}`)
	require.NoError(t, err)

	var parsed calc.CalcResult
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "15% of 289.99 = 43.4985", parsed.Result)

	_, err = tool.Run(ctx, &calc.CalcRequest{Expression: "1/0"})
	require.Error(t, err)
	_, err = tool.Run(ctx, &calc.CalcRequest{})
	require.Error(t, err)
}
