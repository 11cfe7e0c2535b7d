// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package parser implements the recursive-descent parser over
// internal/lexer's token stream (spec §4.2), producing internal/ast nodes.
//
// Parsing a declaration loops consuming `:key value` attribute pairs until a
// non-keyword token is reached; for functions that terminator is the nested
// `(body expr*)` form, which must be the last thing in the declaration.
// Parse errors are reported by panicking with a *ParseError and recovering at
// the single Parse entry point, the same one-clean-error-path technique
// go/parser and text/template use internally rather than threading an error
// return through every recursive call.
package parser

import (
	"fmt"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/span"
	"github.com/corelang/corelang/internal/token"
)

// ParseError is a single parser failure: an expectation mismatch or a
// structural rule violation, with the offending token's span attached.
type ParseError struct {
	Message string
	Span    span.Span
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s (at %s)", e.Message, e.Span.Start)
}

var primitiveNames = map[string]bool{
	"int": true, "float": true, "string": true, "bool": true,
	"bytes": true, "uuid": true, "timestamp": true, "json": true, "unit": true,
}

var genericNames = map[string]bool{
	"List": true, "Map": true, "Option": true, "Result": true,
}

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"=": true, "==": true, "!=": true,
	"<": true, "<=": true, ">": true, ">=": true,
	"and": true, "or": true,
}

var unaryOps = map[string]bool{
	"-": true, "not": true, "!": true,
}

// Parser consumes a token slice produced by internal/lexer.
type Parser struct {
	toks []token.Token
	pos  int
}

// New creates a Parser over toks. toks must end with an EOF token (as
// lexer.Tokenize and lexer.TokenizeRaw both guarantee).
func New(toks []token.Token) *Parser {
	return &Parser{toks: toks}
}

// Parse parses a single top-level `(mod ...)` form and returns the resulting
// Module, converting any internal panic into a returned error.
func Parse(toks []token.Token) (mod *ast.Module, err error) {
	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(*ParseError); ok {
				err = pe
				return
			}
			panic(r)
		}
	}()
	p := New(toks)
	mod = p.parseModule()
	p.expect(token.EOF)
	return mod, nil
}

func (p *Parser) fail(sp span.Span, format string, args ...interface{}) {
	panic(&ParseError{Message: fmt.Sprintf(format, args...), Span: sp})
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) expect(kind token.Kind) token.Token {
	t := p.peek()
	if t.Kind != kind {
		p.fail(t.Span, "expected %s, got %s", kind, t.Kind)
	}
	return p.advance()
}

func (p *Parser) at(kind token.Kind) bool {
	return p.peek().Kind == kind
}

// identText consumes an IDENT token and returns its text, used for names
// that are not structural keywords.
func (p *Parser) identText() (string, span.Span) {
	t := p.expect(token.IDENT)
	return t.Value, t.Span
}

// parseDottedName consumes `a.b.c`, returning the joined parts.
func (p *Parser) parseDottedName() ([]string, span.Span) {
	first := p.expect(token.IDENT)
	parts := []string{first.Value}
	sp := first.Span
	for p.at(token.DOT) {
		p.advance()
		part := p.expect(token.IDENT)
		parts = append(parts, part.Value)
		sp = span.Merge(sp, part.Span)
	}
	return parts, sp
}

func (p *Parser) parseBool() bool {
	t := p.expect(token.BOOLEAN)
	return t.Value == "true"
}

// ---- module ----

func (p *Parser) parseModule() *ast.Module {
	start := p.expect(token.LPAREN)
	p.expect(token.MOD)
	name, _ := p.identText()

	m := &ast.Module{Name: name}
	if p.at(token.VERSION) {
		m.Version = p.advance().Value
	}

	for !p.at(token.RPAREN) {
		m.Elements = append(m.Elements, p.parseElement())
	}
	end := p.expect(token.RPAREN)
	m.Span = span.Merge(start.Span, end.Span)
	return m
}

func (p *Parser) parseElement() ast.ModuleElement {
	t := p.peek()
	if t.Kind != token.LPAREN {
		p.fail(t.Span, "expected a module element, got %s", t.Kind)
	}
	switch p.peekAt(1).Kind {
	case token.FN:
		return p.parseFunction()
	case token.TYPEDEF:
		return p.parseTypeDef()
	case token.ROLE:
		return p.parseRole()
	case token.PERMISSION:
		return p.parsePermission()
	case token.POLICY:
		return p.parsePolicy()
	default:
		p.fail(p.peekAt(1).Span, "unrecognized module element head %s", p.peekAt(1).Kind)
		return nil
	}
}

// ---- function ----

func (p *Parser) parseFunction() *ast.Function {
	start := p.expect(token.LPAREN)
	p.expect(token.FN)
	name, _ := p.identText()

	fn := &ast.Function{Name: name}
	fn.VersionInfo.Version = p.expect(token.VERSION).Value
	fn.VersionInfo.Stability = ast.StabilityStable

	seen := map[string]bool{}
	requireAttr := func(key string) {
		if seen[key] {
			p.fail(p.peek().Span, "duplicate attribute %q", key)
		}
		seen[key] = true
	}

	for p.at(token.KEYWORD) {
		kw := p.advance()
		requireAttr(kw.Value)
		switch kw.Value {
		case ":pure":
			fn.Pure = p.parseBool()
		case ":idempotent":
			fn.Idempotent = p.parseBool()
		case ":inputs":
			fn.Inputs = p.parseParamList()
		case ":outputs":
			fn.Outputs = p.parseParamList()
		case ":requires":
			fn.RequiredRoles = p.parseIdentList()
		case ":permissions":
			fn.RequiredPerms = p.parseDottedNameList()
		case ":effects":
			fn.Effects = p.parseEffectRefList()
		case ":secrets":
			fn.HandlesSecrets = p.parseBool()
		case ":audit":
			fn.AuditRequired = p.parseBool()
		case ":replaces":
			fn.VersionInfo.Replaces = p.expect(token.VERSION).Value
		case ":stability":
			fn.VersionInfo.Stability = ast.Stability(mustIdentOrKeyword(p))
		case ":rollback_safe":
			fn.VersionInfo.RollbackSafe = p.parseBool()
		case ":deprecated":
			fn.VersionInfo.Deprecated = p.parseBool()
		default:
			p.fail(kw.Span, "unrecognized function attribute %q", kw.Value)
		}
	}

	fn.Body = p.parseBodyForm()
	end := p.expect(token.RPAREN)
	fn.Span = span.Merge(start.Span, end.Span)
	return fn
}

// mustIdentOrKeyword reads a bare-word attribute value that may lex as
// either IDENT or KEYWORD (a leading colon is harmless noise here), used for
// enum-like attribute values such as :stability.
func mustIdentOrKeyword(p *Parser) string {
	t := p.peek()
	switch t.Kind {
	case token.IDENT:
		p.advance()
		return t.Value
	case token.KEYWORD:
		p.advance()
		return t.Value[1:]
	default:
		p.fail(t.Span, "expected an identifier, got %s", t.Kind)
		return ""
	}
}

// parseBodyForm parses the trailing `(body expr*)` wrapper all declarations
// with executable content must end with.
func (p *Parser) parseBodyForm() []ast.Expr {
	t := p.peek()
	if t.Kind != token.LPAREN {
		p.fail(t.Span, "function is missing its (body ...) form")
	}
	p.advance()
	head := p.expect(token.IDENT)
	if head.Value != "body" {
		p.fail(head.Span, "expected 'body', got %q", head.Value)
	}
	var body []ast.Expr
	for !p.at(token.RPAREN) {
		body = append(body, p.parseExpr())
	}
	p.expect(token.RPAREN)
	return body
}

// ---- type ----

func (p *Parser) parseTypeDef() *ast.TypeDef {
	start := p.expect(token.LPAREN)
	p.expect(token.TYPEDEF)
	name, _ := p.identText()

	td := &ast.TypeDef{Name: name}
	td.VersionInfo.Version = p.expect(token.VERSION).Value
	td.VersionInfo.Stability = ast.StabilityStable

	seen := map[string]bool{}
	for p.at(token.KEYWORD) {
		kw := p.advance()
		if seen[kw.Value] {
			p.fail(kw.Span, "duplicate attribute %q", kw.Value)
		}
		seen[kw.Value] = true
		switch kw.Value {
		case ":fields":
			td.Fields = p.parseParamList()
		case ":variants":
			td.Variants = p.parseVariantList()
		case ":replaces":
			td.VersionInfo.Replaces = p.expect(token.VERSION).Value
		case ":stability":
			td.VersionInfo.Stability = ast.Stability(mustIdentOrKeyword(p))
		case ":rollback_safe":
			td.VersionInfo.RollbackSafe = p.parseBool()
		case ":deprecated":
			td.VersionInfo.Deprecated = p.parseBool()
		default:
			p.fail(kw.Span, "unrecognized type attribute %q", kw.Value)
		}
	}
	end := p.expect(token.RPAREN)
	td.Span = span.Merge(start.Span, end.Span)
	return td
}

func (p *Parser) parseVariantList() []ast.VariantCase {
	p.expect(token.LBRACKET)
	var cases []ast.VariantCase
	for !p.at(token.RBRACKET) {
		p.expect(token.LPAREN)
		name, _ := p.identText()
		var fields []ast.Param
		if p.at(token.LBRACKET) {
			fields = p.parseParamList()
		}
		p.expect(token.RPAREN)
		cases = append(cases, ast.VariantCase{Name: name, Fields: fields})
	}
	p.expect(token.RBRACKET)
	return cases
}

// ---- role / permission / policy ----

func (p *Parser) parseRole() *ast.Role {
	start := p.expect(token.LPAREN)
	p.expect(token.ROLE)
	name, _ := p.identText()
	r := &ast.Role{Name: name}

	seen := map[string]bool{}
	for p.at(token.KEYWORD) {
		kw := p.advance()
		if seen[kw.Value] {
			p.fail(kw.Span, "duplicate attribute %q", kw.Value)
		}
		seen[kw.Value] = true
		switch kw.Value {
		case ":permissions":
			r.Permissions = p.parseDottedNameList()
		case ":parents":
			r.Parents = p.parseIdentList()
		default:
			p.fail(kw.Span, "unrecognized role attribute %q", kw.Value)
		}
	}
	end := p.expect(token.RPAREN)
	r.Span = span.Merge(start.Span, end.Span)
	return r
}

func (p *Parser) parsePermission() *ast.Permission {
	start := p.expect(token.LPAREN)
	p.expect(token.PERMISSION)
	name, _ := p.parseDottedName()
	perm := &ast.Permission{Name: joinDots(name)}

	seen := map[string]bool{}
	for p.at(token.KEYWORD) {
		kw := p.advance()
		if seen[kw.Value] {
			p.fail(kw.Span, "duplicate attribute %q", kw.Value)
		}
		seen[kw.Value] = true
		switch kw.Value {
		case ":doc":
			perm.Doc = p.expect(token.STRING).Value
		case ":scope":
			perm.Scope = p.parseScopeMap()
		case ":classification":
			perm.Classification = mustIdentOrKeyword(p)
		case ":audit_required":
			perm.AuditRequired = p.parseBool()
		default:
			p.fail(kw.Span, "unrecognized permission attribute %q", kw.Value)
		}
	}
	end := p.expect(token.RPAREN)
	perm.Span = span.Merge(start.Span, end.Span)
	return perm
}

func (p *Parser) parseScopeMap() map[string]string {
	p.expect(token.LBRACE)
	out := map[string]string{}
	for !p.at(token.RBRACE) {
		key, _ := p.identText()
		var val string
		if p.at(token.STRING) {
			val = p.advance().Value
		} else {
			val, _ = p.identText()
		}
		out[key] = val
	}
	p.expect(token.RBRACE)
	return out
}

func (p *Parser) parsePolicy() *ast.Policy {
	start := p.expect(token.LPAREN)
	p.expect(token.POLICY)
	name, _ := p.identText()
	policy := &ast.Policy{Name: name}

	for p.at(token.LPAREN) {
		policy.Rules = append(policy.Rules, p.parsePolicyRule())
	}
	end := p.expect(token.RPAREN)
	policy.Span = span.Merge(start.Span, end.Span)
	return policy
}

func (p *Parser) parsePolicyRule() ast.PolicyRule {
	p.expect(token.LPAREN)
	head, _ := p.identText()
	if head != "rule" {
		p.fail(p.peek().Span, "expected 'rule', got %q", head)
	}
	rule := ast.PolicyRule{Effect: "allow"}

	seen := map[string]bool{}
	for p.at(token.KEYWORD) {
		kw := p.advance()
		if seen[kw.Value] {
			p.fail(kw.Span, "duplicate attribute %q", kw.Value)
		}
		seen[kw.Value] = true
		switch kw.Value {
		case ":effect":
			rule.Effect = mustIdentOrKeyword(p)
		case ":roles":
			rule.Roles = p.parseIdentList()
		case ":permissions":
			rule.Permissions = p.parseDottedNameList()
		case ":version_constraint":
			if p.at(token.STRING) {
				rule.VersionConstraint = p.advance().Value
			} else {
				rule.VersionConstraint = mustIdentOrKeyword(p)
			}
		case ":reason":
			rule.Reason = p.expect(token.STRING).Value
		default:
			p.fail(kw.Span, "unrecognized rule attribute %q", kw.Value)
		}
	}
	p.expect(token.RPAREN)
	return rule
}

func joinDots(parts []string) string {
	out := ""
	for i, part := range parts {
		if i > 0 {
			out += "."
		}
		out += part
	}
	return out
}

// ---- shared list/param helpers ----

func (p *Parser) parseIdentList() []string {
	p.expect(token.LBRACKET)
	var out []string
	for !p.at(token.RBRACKET) {
		name, _ := p.identText()
		out = append(out, name)
	}
	p.expect(token.RBRACKET)
	return out
}

func (p *Parser) parseDottedNameList() []string {
	p.expect(token.LBRACKET)
	var out []string
	for !p.at(token.RBRACKET) {
		parts, _ := p.parseDottedName()
		out = append(out, joinDots(parts))
	}
	p.expect(token.RBRACKET)
	return out
}

func (p *Parser) parseEffectRefList() []ast.EffectRef {
	p.expect(token.LBRACKET)
	var out []ast.EffectRef
	for !p.at(token.RBRACKET) {
		p.expect(token.LPAREN)
		effectType, _ := p.identText()
		target, _ := p.identText()
		p.expect(token.RPAREN)
		out = append(out, ast.EffectRef{EffectType: effectType, Target: target})
	}
	p.expect(token.RBRACKET)
	return out
}

func (p *Parser) parseParamList() []ast.Param {
	p.expect(token.LBRACKET)
	var out []ast.Param
	for !p.at(token.RBRACKET) {
		out = append(out, p.parseParam())
	}
	p.expect(token.RBRACKET)
	return out
}

func (p *Parser) parseParam() ast.Param {
	start := p.expect(token.LPAREN)
	name, _ := p.identText()
	typeExpr := p.parseTypeExpr()

	param := ast.Param{Name: name, Type: typeExpr}
loop:
	for {
		switch {
		case p.at(token.QUESTION):
			p.advance()
			param.Optional = true
		case p.at(token.KEYWORD) && p.peek().Value == ":classification":
			p.advance()
			param.Classification = mustIdentOrKeyword(p)
		default:
			break loop
		}
	}
	end := p.expect(token.RPAREN)
	param.Span = span.Merge(start.Span, end.Span)
	return param
}

func (p *Parser) parseTypeExpr() ast.TypeExpr {
	t := p.peek()
	switch t.Kind {
	case token.KEYWORD:
		p.advance()
		name := t.Value[1:]
		if genericNames[name] {
			return ast.GenericType{Name: name}
		}
		if primitiveNames[name] {
			return ast.PrimitiveType{Name: name}
		}
		return ast.NamedType{Name: name}
	case token.IDENT:
		p.advance()
		if primitiveNames[t.Value] {
			return ast.PrimitiveType{Name: t.Value}
		}
		if genericNames[t.Value] {
			return ast.GenericType{Name: t.Value}
		}
		return ast.NamedType{Name: t.Value}
	case token.LPAREN:
		p.advance()
		nameTok := p.peek()
		var name string
		if nameTok.Kind == token.KEYWORD {
			p.advance()
			name = nameTok.Value[1:]
		} else {
			name, _ = p.identText()
		}
		var args []ast.TypeExpr
		for !p.at(token.RPAREN) {
			args = append(args, p.parseTypeExpr())
		}
		p.expect(token.RPAREN)
		if primitiveNames[name] {
			return ast.PrimitiveType{Name: name}
		}
		return ast.GenericType{Name: name, Args: args}
	default:
		p.fail(t.Span, "expected a type expression, got %s", t.Kind)
		return nil
	}
}

// ---- expressions ----

func (p *Parser) parseExpr() ast.Expr {
	t := p.peek()
	switch t.Kind {
	case token.NUMBER:
		return p.parseLiteralNumber()
	case token.STRING:
		p.advance()
		return &ast.Literal{Kind: "string", Value: t.Value[1 : len(t.Value)-1], Span: t.Span}
	case token.BOOLEAN:
		p.advance()
		return &ast.Literal{Kind: "bool", Value: t.Value == "true", Span: t.Span}
	case token.IDENT:
		return p.parseIdentOrQualified()
	case token.LPAREN:
		return p.parseParenExpr()
	default:
		p.fail(t.Span, "expected an expression, got %s", t.Kind)
		return nil
	}
}

func (p *Parser) parseLiteralNumber() ast.Expr {
	t := p.advance()
	isFloat := false
	for _, c := range t.Value {
		if c == '.' {
			isFloat = true
			break
		}
	}
	if isFloat {
		var f float64
		fmt.Sscanf(t.Value, "%g", &f)
		return &ast.Literal{Kind: "float", Value: f, Span: t.Span}
	}
	var n int
	fmt.Sscanf(t.Value, "%d", &n)
	return &ast.Literal{Kind: "int", Value: n, Span: t.Span}
}

func (p *Parser) parseIdentOrQualified() ast.Expr {
	first := p.advance()
	if !p.at(token.DOT) {
		id := &ast.Identifier{Name: first.Value, Span: first.Span}
		if p.at(token.VERSION) {
			v := p.advance()
			id.Version = v.Value
			id.Span = span.Merge(id.Span, v.Span)
		}
		return id
	}
	parts := []string{first.Value}
	sp := first.Span
	for p.at(token.DOT) {
		p.advance()
		part := p.expect(token.IDENT)
		parts = append(parts, part.Value)
		sp = span.Merge(sp, part.Span)
	}
	qn := &ast.QualifiedName{Parts: parts, Span: sp}
	if p.at(token.VERSION) {
		v := p.advance()
		qn.Version = v.Value
		qn.Span = span.Merge(qn.Span, v.Span)
	}
	return qn
}

func (p *Parser) parseParenExpr() ast.Expr {
	start := p.expect(token.LPAREN)
	switch p.peek().Kind {
	case token.LET:
		return p.parseLet(start)
	case token.IF:
		return p.parseIf(start)
	case token.COND:
		return p.parseCond(start)
	case token.MATCH:
		return p.parseMatch(start)
	case token.DO:
		return p.parseDo(start)
	case token.LAMBDA:
		return p.parseLambda(start)
	default:
		return p.parseCallOrOp(start)
	}
}

func (p *Parser) parseLet(start token.Token) ast.Expr {
	p.advance()
	p.expect(token.LPAREN)
	var bindings []ast.Binding
	for !p.at(token.RPAREN) {
		p.expect(token.LPAREN)
		name, _ := p.identText()
		value := p.parseExpr()
		p.expect(token.RPAREN)
		bindings = append(bindings, ast.Binding{Name: name, Value: value})
	}
	p.expect(token.RPAREN)

	var body []ast.Expr
	for !p.at(token.RPAREN) {
		body = append(body, p.parseExpr())
	}
	end := p.expect(token.RPAREN)
	return &ast.Let{Bindings: bindings, Body: body, Span: span.Merge(start.Span, end.Span)}
}

func (p *Parser) parseIf(start token.Token) ast.Expr {
	p.advance()
	cond := p.parseExpr()
	then := p.parseExpr()
	els := p.parseExpr()
	end := p.expect(token.RPAREN)
	return &ast.If{Cond: cond, Then: then, Else: els, Span: span.Merge(start.Span, end.Span)}
}

func (p *Parser) parseCond(start token.Token) ast.Expr {
	p.advance()
	var clauses []ast.CondClause
	for !p.at(token.RPAREN) {
		p.expect(token.LPAREN)
		test := p.parseExpr()
		body := p.parseExpr()
		p.expect(token.RPAREN)
		clauses = append(clauses, ast.CondClause{Test: test, Body: body})
	}
	end := p.expect(token.RPAREN)
	return &ast.Cond{Clauses: clauses, Span: span.Merge(start.Span, end.Span)}
}

func (p *Parser) parseMatch(start token.Token) ast.Expr {
	p.advance()
	scrutinee := p.parseExpr()
	var cases []ast.MatchCase
	for !p.at(token.RPAREN) {
		p.expect(token.LPAREN)
		pattern := p.parsePattern()
		body := p.parseExpr()
		p.expect(token.RPAREN)
		cases = append(cases, ast.MatchCase{Pattern: pattern, Body: body})
	}
	end := p.expect(token.RPAREN)
	return &ast.Match{Scrutinee: scrutinee, Cases: cases, Span: span.Merge(start.Span, end.Span)}
}

func (p *Parser) parsePattern() ast.Pattern {
	t := p.peek()
	switch t.Kind {
	case token.NUMBER:
		lit := p.parseLiteralNumber().(*ast.Literal)
		return ast.LiteralPattern{Value: lit}
	case token.STRING:
		p.advance()
		return ast.LiteralPattern{Value: &ast.Literal{Kind: "string", Value: t.Value[1 : len(t.Value)-1], Span: t.Span}}
	case token.BOOLEAN:
		p.advance()
		return ast.LiteralPattern{Value: &ast.Literal{Kind: "bool", Value: t.Value == "true", Span: t.Span}}
	case token.IDENT:
		p.advance()
		if t.Value == "_" {
			return ast.WildcardPattern{}
		}
		return ast.WildcardPattern{Bind: t.Value}
	case token.LPAREN:
		p.advance()
		typeName, _ := p.identText()
		caseName, _ := p.identText()
		p.expect(token.RPAREN)
		return ast.ConstructorPattern{TypeName: typeName, Case: caseName}
	default:
		p.fail(t.Span, "expected a pattern, got %s", t.Kind)
		return nil
	}
}

func (p *Parser) parseDo(start token.Token) ast.Expr {
	p.advance()
	var exprs []ast.Expr
	for !p.at(token.RPAREN) {
		exprs = append(exprs, p.parseExpr())
	}
	end := p.expect(token.RPAREN)
	return &ast.Do{Exprs: exprs, Span: span.Merge(start.Span, end.Span)}
}

func (p *Parser) parseLambda(start token.Token) ast.Expr {
	p.advance()
	p.expect(token.LBRACKET)
	var params []string
	for !p.at(token.RBRACKET) {
		name, _ := p.identText()
		params = append(params, name)
	}
	p.expect(token.RBRACKET)
	body := p.parseExpr()
	end := p.expect(token.RPAREN)
	return &ast.Lambda{Params: params, Body: body, Span: span.Merge(start.Span, end.Span)}
}

// parseCallOrOp parses `(target arg*)`, specializing into BinaryOp/UnaryOp
// when the target is a recognized operator symbol used at its expected
// arity; otherwise it is a plain Call.
func (p *Parser) parseCallOrOp(start token.Token) ast.Expr {
	target := p.parseExpr()
	var args []ast.Expr
	for !p.at(token.RPAREN) {
		args = append(args, p.parseExpr())
	}
	end := p.expect(token.RPAREN)
	fullSpan := span.Merge(start.Span, end.Span)

	if ident, ok := target.(*ast.Identifier); ok {
		if len(args) == 2 && binaryOps[ident.Name] {
			return &ast.BinaryOp{Op: ident.Name, Left: args[0], Right: args[1], Span: fullSpan}
		}
		if len(args) == 1 && unaryOps[ident.Name] {
			return &ast.UnaryOp{Op: ident.Name, Operand: args[0], Span: fullSpan}
		}
	}
	return &ast.Call{Target: target, Args: args, Span: fullSpan}
}
