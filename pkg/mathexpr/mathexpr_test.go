package mathexpr_test

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentic/pkg/mathexpr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Eval(t *testing.T) {
	tcases := []struct {
		expr string
		exp  float64
	}{
		{"2 + 2", 4},
		{"10 * 5", 50},
		{"100 * 1.08", 108},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"-5 + 3", -2},
		{"-(2 + 3)", -5},
		{"2 ^ 10", 1024},
		{"5 ** 2", 25},
		{"2 ^ 3 ^ 2", 512},
		{"sqrt(16) + 5**2", 29},
		{"sin(pi/2)", 1},
		{"cos(0)", 1},
		{"log(e)", 1},
		{"log10(1000)", 3},
		{"log2(8)", 3},
		{"exp(0)", 1},
		{"abs(-7.5)", 7.5},
		{"round(2.6)", 3},
		{"floor(2.9)", 2},
		{"ceil(2.1)", 3},
		{"pow(2, 8)", 256},
		{"15% of 289.99", 43.4985},
		{"8%", 0.08},
		{"SQRT(4)", 2},
	}
	for _, tc := range tcases {
		t.Run(tc.expr, func(t *testing.T) {
			val, err := mathexpr.Eval(tc.expr)
			require.NoError(t, err)
			assert.InDelta(t, tc.exp, val, 1e-9)
		})
	}
}

func Test_Eval_Errors(t *testing.T) {
	tcases := []struct {
		name string
		expr string
		err  error
	}{
		{"empty", "", mathexpr.ErrSyntax},
		{"division by zero", "1 / 0", mathexpr.ErrDivisionByZero},
		{"modulo by zero", "5 % 0", mathexpr.ErrDivisionByZero},
		{"dangling operator", "2 +", mathexpr.ErrSyntax},
		{"unbalanced parens", "(2 + 3", mathexpr.ErrSyntax},
		{"trailing garbage", "2 + 3 )", mathexpr.ErrSyntax},
		{"unknown identifier", "x + 1", mathexpr.ErrSyntax},
		{"pow arity", "pow(2)", mathexpr.ErrSyntax},
	}
	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mathexpr.Eval(tc.expr)
			require.Error(t, err)
			if tc.err != nil {
				assert.True(t, errors.Is(err, tc.err), "got: %v", err)
			}
		})
	}

	// no identifier escapes the allow-list
	_, err := mathexpr.Eval("import(1)")
	require.Error(t, err)
	_, err = mathexpr.Eval("eval(1)")
	require.Error(t, err)
	_, err = mathexpr.Eval("sqrt(-1)")
	require.Error(t, err)
}

func Test_Format(t *testing.T) {
	assert.Equal(t, "4", mathexpr.Format(4.0))
	assert.Equal(t, "2.5", mathexpr.Format(2.5))
	assert.Equal(t, "1", mathexpr.Format(0.9999999999999999))
	assert.Equal(t, "43.4985", mathexpr.Format(43.4985))
	assert.Equal(t, "-7", mathexpr.Format(-7.0))
}
