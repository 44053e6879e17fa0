// Package eval materializes mathematical constants at arbitrary precision:
// a fixed catalog of named constants and a small whitelisted expression
// evaluator for custom values.
//
// The expression grammar is deliberately tiny — numeric literals, catalog
// constants, the unary functions sqrt/exp/ln/log, the operators + - * /,
// integer exponentiation with ^, and parentheses. It is not a
// general-purpose expression language and must never grow call-out or
// assignment forms; untrusted input is safe to evaluate.
package eval

import (
	"math/big"
	"strings"

	dlerrors "github.com/digitloom/digitloom/internal/errors"
	"github.com/digitloom/digitloom/pkg/digits"
)

// maxExponent bounds integer exponents in ^ expressions.
const maxExponent = 1 << 20

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenOp    // + - * / ^
	tokenLParen
	tokenRParen
	tokenEOF
)

type token struct {
	kind tokenKind
	text string
}

// lex splits an expression into tokens. Whitespace separates tokens and is
// otherwise ignored.
func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n':
			i++
		case c == '(':
			toks = append(toks, token{tokenLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokenRParen, ")"})
			i++
		case c == '+' || c == '-' || c == '*' || c == '/' || c == '^':
			toks = append(toks, token{tokenOp, string(c)})
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			seenDot := false
			for j < len(input) && (input[j] >= '0' && input[j] <= '9' || input[j] == '.') {
				if input[j] == '.' {
					if seenDot {
						return nil, dlerrors.NewEvalError(input[i:j+1], dlerrors.ErrBadExpression)
					}
					seenDot = true
				}
				j++
			}
			toks = append(toks, token{tokenNumber, input[i:j]})
			i = j
		case c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_':
			j := i
			for j < len(input) && (input[j] >= 'a' && input[j] <= 'z' ||
				input[j] >= 'A' && input[j] <= 'Z' ||
				input[j] >= '0' && input[j] <= '9' || input[j] == '_') {
				j++
			}
			toks = append(toks, token{tokenIdent, input[i:j]})
			i = j
		default:
			return nil, dlerrors.NewEvalError(string(c), dlerrors.ErrBadExpression)
		}
	}
	return append(toks, token{tokenEOF, ""}), nil
}

// parser is a recursive-descent evaluator. Evaluation happens during the
// parse; there is no separate AST since expressions are evaluated once.
type parser struct {
	toks    []token
	pos     int
	prec    uint
	decimal int
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) next() token  { t := p.toks[p.pos]; p.pos++; return t }
func (p *parser) acceptOp(op string) bool {
	if p.peek().kind == tokenOp && p.peek().text == op {
		p.pos++
		return true
	}
	return false
}

// Evaluate parses and evaluates a custom expression at the given decimal
// precision.
func Evaluate(expr string, decimalDigits int) (digits.Value, error) {
	if decimalDigits < 0 {
		return digits.Value{}, dlerrors.ErrNegativeDigits
	}
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return digits.Value{}, dlerrors.NewEvalError(expr, dlerrors.ErrBadExpression)
	}
	toks, err := lex(trimmed)
	if err != nil {
		return digits.Value{}, err
	}
	p := &parser{toks: toks, prec: digits.Bits(decimalDigits) + 32, decimal: decimalDigits}
	x, err := p.parseExpr()
	if err != nil {
		return digits.Value{}, err
	}
	if p.peek().kind != tokenEOF {
		return digits.Value{}, dlerrors.NewEvalError(p.peek().text, dlerrors.ErrBadExpression)
	}
	return digits.NewValue(x, decimalDigits), nil
}

func (p *parser) parseExpr() (*big.Float, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.acceptOp("+"):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left.Add(left, right)
		case p.acceptOp("-"):
			right, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			left.Sub(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseTerm() (*big.Float, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.acceptOp("*"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left.Mul(left, right)
		case p.acceptOp("/"):
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if right.Sign() == 0 {
				return nil, dlerrors.NewEvalError("/", dlerrors.ErrMathDomain)
			}
			left.Quo(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (*big.Float, error) {
	if p.acceptOp("-") {
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return x.Neg(x), nil
	}
	return p.parsePower()
}

func (p *parser) parsePower() (*big.Float, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if !p.acceptOp("^") {
		return base, nil
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return p.intPower(base, exp)
}

// intPower raises base to an integer exponent by repeated squaring.
// Fractional exponents are rejected; expressing roots goes through sqrt.
func (p *parser) intPower(base, exp *big.Float) (*big.Float, error) {
	if !exp.IsInt() {
		return nil, dlerrors.NewEvalError("^", dlerrors.ErrBadExpression)
	}
	n, _ := exp.Int64()
	if n > maxExponent || n < -maxExponent {
		return nil, dlerrors.NewEvalError("^", dlerrors.ErrBadExpression)
	}
	negative := n < 0
	if negative {
		if base.Sign() == 0 {
			return nil, dlerrors.NewEvalError("^", dlerrors.ErrMathDomain)
		}
		n = -n
	}

	result := oneAt(p.prec)
	sq := new(big.Float).SetPrec(p.prec).Set(base)
	for n > 0 {
		if n&1 == 1 {
			result.Mul(result, sq)
		}
		sq.Mul(sq, sq)
		n >>= 1
	}
	if negative {
		result.Quo(oneAt(p.prec), result)
	}
	return result, nil
}

func (p *parser) parseAtom() (*big.Float, error) {
	tok := p.next()
	switch tok.kind {
	case tokenNumber:
		x, _, err := big.ParseFloat(tok.text, 10, p.prec, big.ToNearestEven)
		if err != nil {
			return nil, dlerrors.NewEvalError(tok.text, dlerrors.ErrBadExpression)
		}
		return x, nil

	case tokenIdent:
		if p.peek().kind == tokenLParen {
			p.pos++
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.next().kind != tokenRParen {
				return nil, dlerrors.NewEvalError(tok.text, dlerrors.ErrBadExpression)
			}
			return p.applyFunc(tok.text, arg)
		}
		return p.constant(tok.text)

	case tokenLParen:
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokenRParen {
			return nil, dlerrors.NewEvalError("(", dlerrors.ErrBadExpression)
		}
		return x, nil

	default:
		return nil, dlerrors.NewEvalError(tok.text, dlerrors.ErrBadExpression)
	}
}

// applyFunc dispatches the whitelisted unary functions.
func (p *parser) applyFunc(name string, arg *big.Float) (*big.Float, error) {
	switch strings.ToLower(name) {
	case "sqrt":
		if arg.Sign() < 0 {
			return nil, dlerrors.NewEvalError(name, dlerrors.ErrMathDomain)
		}
		return arg.Sqrt(arg), nil
	case "exp":
		return Exp(arg, p.prec), nil
	case "ln", "log":
		return Ln(arg, p.prec)
	default:
		return nil, dlerrors.NewEvalError(name, dlerrors.ErrBadExpression)
	}
}

// constant resolves a bare identifier against the catalog.
func (p *parser) constant(name string) (*big.Float, error) {
	fn, ok := catalog[normalizeName(name)]
	if !ok {
		return nil, dlerrors.NewEvalError(name, dlerrors.ErrUnknownConstant)
	}
	x, err := fn(p.decimal, p.prec)
	if err != nil {
		return nil, err
	}
	return new(big.Float).SetPrec(p.prec).Set(x), nil
}
