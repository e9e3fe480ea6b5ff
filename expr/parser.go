// Copyright 2025 Specware Inc. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package expr

type (
	parseRule struct {
		precedence   precedence
		prefixParser prefixParseFn
		infixParser  infixParseFn
	}
	prefixParseFn func(p *parser, token exprToken) (node, error)
	infixParseFn  func(p *parser, token exprToken, left node) (node, error)
	precedence    int
)

const (
	precedenceLowest  precedence = iota
	precedenceTernary            // ?:
	precedenceOr                 // ||
	precedenceAnd                // &&
	precedenceCompare            // ==, !=, <, <=, >, >=
	precedenceAdd                // +, -
	precedenceMul                // *, /
	precedenceUnary              // ! and - (prefix)
)

// operatorRules maps operator tokens to their precedence and parser
// functions. Initialized in init to avoid an initialization cycle with the
// parser functions.
var operatorRules map[string]parseRule

func init() {
	operatorRules = map[string]parseRule{
		"?":  {precedence: precedenceTernary, infixParser: parseTernaryOperator},
		"||": {precedence: precedenceOr, infixParser: parseBinaryOperator},
		"&&": {precedence: precedenceAnd, infixParser: parseBinaryOperator},
		"==": {precedence: precedenceCompare, infixParser: parseCompareOperator},
		"!=": {precedence: precedenceCompare, infixParser: parseCompareOperator},
		"<":  {precedence: precedenceCompare, infixParser: parseCompareOperator},
		"<=": {precedence: precedenceCompare, infixParser: parseCompareOperator},
		">":  {precedence: precedenceCompare, infixParser: parseCompareOperator},
		">=": {precedence: precedenceCompare, infixParser: parseCompareOperator},
		"+":  {precedence: precedenceAdd, infixParser: parseBinaryOperator},
		"-":  {precedence: precedenceAdd, prefixParser: parseUnaryOperator, infixParser: parseBinaryOperator},
		"*":  {precedence: precedenceMul, infixParser: parseBinaryOperator},
		"/":  {precedence: precedenceMul, infixParser: parseBinaryOperator},
		"!":  {precedence: precedenceUnary, prefixParser: parseUnaryOperator},
		"(":  {precedence: precedenceLowest, prefixParser: parseOpenParenthesis},
	}
}

type parser struct {
	lx  *exprLexer
	buf *exprToken // one-token lookahead
}

func (p *parser) next() (exprToken, error) {
	if p.buf != nil {
		token := *p.buf
		p.buf = nil
		return token, nil
	}
	return p.lx.next()
}

func (p *parser) peek() (exprToken, error) {
	if p.buf == nil {
		token, err := p.lx.next()
		if err != nil {
			return exprToken{}, err
		}
		p.buf = &token
	}
	return *p.buf, nil
}

func (p *parser) consumeOperator(op string) error {
	token, err := p.next()
	if err != nil {
		return err
	}
	if token.kind != tokenOperator || token.text != op {
		return syntaxErrorf("expected %q, found %q", op, token.text)
	}
	return nil
}

// parseExprPrecedence implements Pratt parsing with precedence climbing;
// minPrecedence controls how tightly the loop binds infix operators.
func (p *parser) parseExprPrecedence(minPrecedence precedence) (node, error) {
	token, err := p.next()
	if err != nil {
		return nil, err
	}

	var result node
	switch token.kind {
	case tokenNumber:
		result = numberLeaf{raw: token.text}
	case tokenString:
		result = stringLeaf{raw: token.text}
	case tokenVersion:
		result = versionLeaf{raw: token.text}
	case tokenOperator:
		rule, exists := operatorRules[token.text]
		if !exists || rule.prefixParser == nil {
			return nil, syntaxErrorf("unexpected %q", token.text)
		}
		result, err = rule.prefixParser(p, token)
		if err != nil {
			return nil, err
		}
	default:
		return nil, syntaxErrorf("unexpected end of expression")
	}

	for {
		token, err := p.peek()
		if err != nil {
			return nil, err
		}
		if token.kind != tokenOperator {
			return result, nil
		}
		rule, exists := operatorRules[token.text]
		if !exists || rule.infixParser == nil || rule.precedence < minPrecedence {
			return result, nil
		}
		p.buf = nil // consume the peeked operator
		result, err = rule.infixParser(p, token, result)
		if err != nil {
			return nil, err
		}
	}
}

func parseBinaryOperator(p *parser, token exprToken, left node) (node, error) {
	rhs, err := p.parseExprPrecedence(operatorRules[token.text].precedence + 1)
	if err != nil {
		return nil, err
	}
	return binaryNode{op: token.text, left: left, right: rhs}, nil
}

// parseCompareOperator parses a single comparison; the grammar does not
// allow chaining them, so a trailing comparison operator is rejected.
func parseCompareOperator(p *parser, token exprToken, left node) (node, error) {
	rhs, err := p.parseExprPrecedence(precedenceCompare + 1)
	if err != nil {
		return nil, err
	}
	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	if next.kind == tokenOperator {
		if rule, exists := operatorRules[next.text]; exists && rule.precedence == precedenceCompare {
			return nil, syntaxErrorf("comparison operators do not chain")
		}
	}
	return binaryNode{op: token.text, left: left, right: rhs}, nil
}

func parseTernaryOperator(p *parser, _ exprToken, cond node) (node, error) {
	thenBranch, err := p.parseExprPrecedence(precedenceLowest)
	if err != nil {
		return nil, err
	}
	if err := p.consumeOperator(":"); err != nil {
		return nil, err
	}
	elseBranch, err := p.parseExprPrecedence(precedenceLowest)
	if err != nil {
		return nil, err
	}
	return ternaryNode{cond: cond, then: thenBranch, els: elseBranch}, nil
}

func parseUnaryOperator(p *parser, token exprToken) (node, error) {
	inner, err := p.parseExprPrecedence(precedenceUnary)
	if err != nil {
		return nil, err
	}
	return unaryNode{op: token.text, x: inner}, nil
}

func parseOpenParenthesis(p *parser, _ exprToken) (node, error) {
	inner, err := p.parseExprPrecedence(precedenceLowest)
	if err != nil {
		return nil, err
	}
	if err := p.consumeOperator(")"); err != nil {
		return nil, err
	}
	return inner, nil
}

// Parse parses expression text into an evaluatable tree without evaluating
// it. Trailing garbage after a complete expression is an error.
func Parse(text string) (Expr, error) {
	p := &parser{lx: &exprLexer{input: text}}
	result, err := p.parseExprPrecedence(precedenceLowest)
	if err != nil {
		return nil, err
	}
	token, err := p.next()
	if err != nil {
		return nil, err
	}
	if token.kind != tokenEOF {
		return nil, syntaxErrorf("trailing %q after expression", token.text)
	}
	return result, nil
}

// Eval parses and evaluates expression text. The expand callback, when
// non-nil, is applied to every operand before use; it runs lazily so that
// unreached branches of &&, || and ?: have no side effects.
func Eval(text string, expand ExpandFunc) (Value, error) {
	tree, err := Parse(text)
	if err != nil {
		return Value{}, err
	}
	return tree.Eval(expand)
}
