package tools

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrBadExpression = errors.New("bad expression")

// 语音里念出来的算式很短，超出上限直接拒绝
const (
	maxExpressionLen = 128
	maxNesting       = 16
)

// Evaluate computes the arithmetic expressions the classifier extracts:
// numbers, + - * / (x as multiply) and parentheses, with the usual precedence.
func Evaluate(expr string) (float64, error) {
	if len(expr) > maxExpressionLen {
		return 0, fmt.Errorf("%w: longer than %d bytes", ErrBadExpression, maxExpressionLen)
	}
	p := &exprParser{src: strings.ReplaceAll(strings.ToLower(expr), "x", "*")}
	v, err := p.sum()
	if err != nil {
		return 0, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return 0, fmt.Errorf("%w: unexpected %q", ErrBadExpression, p.src[p.pos:])
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, fmt.Errorf("%w: division by zero", ErrBadExpression)
	}
	return v, nil
}

type exprParser struct {
	src   string
	pos   int
	depth int
}

// enter counts one level of unary minus or parentheses.
func (p *exprParser) enter() error {
	if p.depth >= maxNesting {
		return fmt.Errorf("%w: nested deeper than %d", ErrBadExpression, maxNesting)
	}
	p.depth++
	return nil
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *exprParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) sum() (float64, error) {
	left, err := p.product()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.product()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			left += right
		} else {
			left -= right
		}
	}
}

func (p *exprParser) product() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		p.pos++
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			left *= right
		} else {
			left /= right
		}
	}
}

func (p *exprParser) unary() (float64, error) {
	if p.peek() == '-' {
		p.pos++
		if err := p.enter(); err != nil {
			return 0, err
		}
		v, err := p.unary()
		p.depth--
		return -v, err
	}
	return p.atom()
}

func (p *exprParser) atom() (float64, error) {
	if p.peek() == '(' {
		p.pos++
		if err := p.enter(); err != nil {
			return 0, err
		}
		v, err := p.sum()
		p.depth--
		if err != nil {
			return 0, err
		}
		if p.peek() != ')' {
			return 0, fmt.Errorf("%w: missing )", ErrBadExpression)
		}
		p.pos++
		return v, nil
	}

	start := p.pos
	for p.pos < len(p.src) && (p.src[p.pos] == '.' || (p.src[p.pos] >= '0' && p.src[p.pos] <= '9')) {
		p.pos++
	}
	if start == p.pos {
		return 0, fmt.Errorf("%w: expected a number at %d", ErrBadExpression, start)
	}
	v, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadExpression, err)
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
