// Package mathexpr evaluates arithmetic expressions over a fixed grammar:
// numbers, + - * / % ^, parentheses, unary minus, a fixed allow-list of
// functions, and the constants pi and e. There is no variable binding and no
// way to reach outside the grammar, so model-supplied expressions are safe
// to evaluate.
package mathexpr

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrSyntax         = errors.New("invalid expression syntax")
)

var functions = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"log":   math.Log,
	"log10": math.Log10,
	"log2":  math.Log2,
	"exp":   math.Exp,
	"abs":   math.Abs,
	"round": math.Round,
	"floor": math.Floor,
	"ceil":  math.Ceil,
}

var constants = map[string]float64{
	"pi": math.Pi,
	"e":  math.E,
}

var (
	percentOfRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%\s*of\s*(\d+(?:\.\d+)?)`)
	percentRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

// Eval evaluates the expression. Percent forms are normalized first:
// "15% of 200" becomes 200*0.15 and a bare "8%" becomes (8/100).
func Eval(expression string) (float64, error) {
	expr := strings.ToLower(strings.TrimSpace(expression))
	if expr == "" {
		return 0, errors.WithMessage(ErrSyntax, "empty expression")
	}

	if m := percentOfRe.FindStringSubmatch(expr); m != nil {
		percent, _ := strconv.ParseFloat(m[1], 64)
		value, _ := strconv.ParseFloat(m[2], 64)
		return value * percent / 100, nil
	}
	expr = percentRe.ReplaceAllString(expr, "($1/100)")
	expr = strings.ReplaceAll(expr, "**", "^")

	p := &parser{input: expr}
	val, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos != len(p.input) {
		return 0, errors.WithMessagef(ErrSyntax, "unexpected %q at position %d", p.input[p.pos], p.pos)
	}
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, errors.New("result is not a finite number")
	}
	return val, nil
}

// Format renders the result the way a person would write it: integers
// without a fraction, everything else rounded to 10 decimal places.
func Format(val float64) string {
	rounded := math.Round(val*1e10) / 1e10
	if rounded == math.Trunc(rounded) && math.Abs(rounded) < 1e15 {
		return strconv.FormatFloat(math.Trunc(rounded), 'f', -1, 64)
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

type parser struct {
	input string
	pos   int
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *parser) peek() byte {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0
	}
	return p.input[p.pos]
}

// expr := term (('+'|'-') term)*
func (p *parser) parseExpr() (float64, error) {
	left, err := p.parseTerm()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '+':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left += right
		case '-':
			p.pos++
			right, err := p.parseTerm()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

// term := unary (('*'|'/'|'%') unary)*
func (p *parser) parseTerm() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek() {
		case '*':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			left *= right
		case '/':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, errors.WithStack(ErrDivisionByZero)
			}
			left /= right
		case '%':
			p.pos++
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if right == 0 {
				return 0, errors.WithStack(ErrDivisionByZero)
			}
			left = math.Mod(left, right)
		default:
			return left, nil
		}
	}
}

// unary := '-' unary | power
func (p *parser) parseUnary() (float64, error) {
	if p.peek() == '-' {
		p.pos++
		val, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return -val, nil
	}
	return p.parsePower()
}

// power := primary ('^' unary)?, right associative
func (p *parser) parsePower() (float64, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	if p.peek() == '^' {
		p.pos++
		exp, err := p.parseUnary()
		if err != nil {
			return 0, err
		}
		return math.Pow(base, exp), nil
	}
	return base, nil
}

// primary := number | ident ('(' args ')')? | '(' expr ')'
func (p *parser) parsePrimary() (float64, error) {
	c := p.peek()
	switch {
	case c == '(':
		p.pos++
		val, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, errors.WithMessage(ErrSyntax, "missing closing parenthesis")
		}
		p.pos++
		return val, nil
	case c >= '0' && c <= '9' || c == '.':
		return p.parseNumber()
	case c >= 'a' && c <= 'z':
		return p.parseIdent()
	case c == 0:
		return 0, errors.WithMessage(ErrSyntax, "unexpected end of expression")
	default:
		return 0, errors.WithMessagef(ErrSyntax, "unexpected %q at position %d", c, p.pos)
	}
}

func (p *parser) parseNumber() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= '0' && c <= '9' || c == '.' {
			p.pos++
			continue
		}
		break
	}
	val, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, errors.WithMessagef(ErrSyntax, "invalid number %q", p.input[start:p.pos])
	}
	return val, nil
}

func (p *parser) parseIdent() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c >= 'a' && c <= 'z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	name := p.input[start:p.pos]

	if val, ok := constants[name]; ok {
		return val, nil
	}

	if p.peek() != '(' {
		return 0, errors.WithMessagef(ErrSyntax, "unknown identifier %q", name)
	}
	p.pos++

	// pow is the only two-argument function
	if name == "pow" {
		base, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ',' {
			return 0, errors.WithMessage(ErrSyntax, "pow requires two arguments")
		}
		p.pos++
		exp, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, errors.WithMessage(ErrSyntax, "missing closing parenthesis")
		}
		p.pos++
		return math.Pow(base, exp), nil
	}

	fn, ok := functions[name]
	if !ok {
		return 0, errors.Newf("unknown function %q", name)
	}
	arg, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.peek() != ')' {
		return 0, errors.WithMessage(ErrSyntax, "missing closing parenthesis")
	}
	p.pos++

	val := fn(arg)
	if math.IsNaN(val) {
		return 0, errors.Newf("%s is undefined for %s", name, Format(arg))
	}
	return val, nil
}
