// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package ast defines the abstract syntax produced by internal/parser (spec
// §3.2): module elements and expressions.
package ast

import "github.com/corelang/corelang/internal/span"

// Stability is one of the four lifecycle stages a versioned entity can carry.
type Stability string

const (
	StabilityStable     Stability = "stable"
	StabilityBeta       Stability = "beta"
	StabilityAlpha      Stability = "alpha"
	StabilityDeprecated Stability = "deprecated"
)

// VersionInfo is the versioning metadata every Function and TypeDef carries
// (spec §3.3).
type VersionInfo struct {
	Version      string
	Stability    Stability
	Replaces     string // predecessor version string, "" if absent
	RollbackSafe bool
	Deprecated   bool
}

// Param is a named, typed function parameter or type field.
type Param struct {
	Name           string
	Type           TypeExpr
	Optional       bool
	Classification string // "", public, internal, confidential, restricted
	Span           span.Span
}

// EffectRef names a declared capability a function needs at runtime, e.g.
// (effect_type="db", target="read").
type EffectRef struct {
	EffectType string
	Target     string
}

// TypeExpr is the sum of type-expression forms (spec §4.2).
type TypeExpr interface {
	typeExpr()
	String() string
}

// PrimitiveType is one of the fixed set of primitive type names.
type PrimitiveType struct {
	Name string // int, float, string, bool, bytes, uuid, timestamp, json, unit
}

func (PrimitiveType) typeExpr()        {}
func (p PrimitiveType) String() string { return p.Name }

// GenericType is one of {List, Map, Option, Result} applied to type args.
type GenericType struct {
	Name string
	Args []TypeExpr
}

func (GenericType) typeExpr() {}
func (g GenericType) String() string {
	s := g.Name + "<"
	for i, a := range g.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ">"
}

// NamedType is a reference to a user-defined type.
type NamedType struct {
	Name string
}

func (NamedType) typeExpr()        {}
func (n NamedType) String() string { return n.Name }

// ModuleElement is the sum of top-level declarations (spec §3.2).
type ModuleElement interface {
	moduleElement()
}

// Module is the root AST node: a named collection of elements.
type Module struct {
	Name     string
	Version  string
	Elements []ModuleElement
	Span     span.Span
}

// Function declares a versioned, optionally secured, optionally effectful
// function.
type Function struct {
	Name             string
	VersionInfo      VersionInfo
	Inputs           []Param
	Outputs          []Param
	Pure             bool
	Idempotent       bool
	RequiredRoles    []string
	RequiredPerms    []string
	Effects          []EffectRef
	HandlesSecrets   bool
	AuditRequired    bool
	Body             []Expr
	Span             span.Span
}

func (*Function) moduleElement() {}

// TypeDef declares a versioned record or variant type.
type TypeDef struct {
	Name        string
	VersionInfo VersionInfo
	Fields      []Param
	Variants    []VariantCase // non-empty for sum types
	Span        span.Span
}

func (*TypeDef) moduleElement() {}

// VariantCase is one constructor of a variant TypeDef.
type VariantCase struct {
	Name   string
	Fields []Param
}

// Role declares a named permission set with optional parents (spec §3.5).
type Role struct {
	Name        string
	Permissions []string
	Parents     []string
	Span        span.Span
}

func (*Role) moduleElement() {}

// Permission declares a dotted capability name with optional metadata.
type Permission struct {
	Name           string
	Doc            string
	Scope          map[string]string
	Classification string
	AuditRequired  bool
	Span           span.Span
}

func (*Permission) moduleElement() {}

// PolicyRule is one allow/deny rule inside a Policy (spec §3.5).
type PolicyRule struct {
	Effect           string // "allow" or "deny"
	Roles            []string
	Permissions      []string
	VersionConstraint string // raw constraint text: all_versions | stable_only | specific(...) | range("...")
	Reason           string
}

// Policy declares an ordered list of rules.
type Policy struct {
	Name  string
	Rules []PolicyRule
	Span  span.Span
}

func (*Policy) moduleElement() {}

// Channel, Contract, Import, Export are reserved module elements (spec §3.2).
// The parser never produces them: the lexer has no keyword tokens for these
// names, and a module element headed by one is rejected as unrecognized.
type Channel struct{ Span span.Span }
type Contract struct{ Span span.Span }
type Import struct {
	Path string
	Span span.Span
}
type Export struct {
	Names []string
	Span  span.Span
}

func (*Channel) moduleElement()  {}
func (*Contract) moduleElement() {}
func (*Import) moduleElement()   {}
func (*Export) moduleElement()   {}

// Expr is the sum of expression forms (spec §3.2).
type Expr interface {
	exprNode()
	ExprSpan() span.Span
}

// Literal is a constant value: int, float, string, bool.
type Literal struct {
	Kind  string // "int", "float", "string", "bool"
	Value interface{}
	Span  span.Span
}

func (*Literal) exprNode()            {}
func (l *Literal) ExprSpan() span.Span { return l.Span }

// Identifier is a bare name reference.
type Identifier struct {
	Name    string
	Version string // "" unless a :vN marker pins a specific version, e.g. calc:v2
	Span    span.Span
}

func (*Identifier) exprNode()            {}
func (i *Identifier) ExprSpan() span.Span { return i.Span }

// QualifiedName is a dot-joined reference in expression position, optionally
// versioned (the trailing :vN binds to the whole target).
type QualifiedName struct {
	Parts   []string
	Version string
	Span    span.Span
}

func (*QualifiedName) exprNode()            {}
func (q *QualifiedName) ExprSpan() span.Span { return q.Span }

// Joined renders the dot-joined name, e.g. "db.users.find".
func (q *QualifiedName) Joined() string {
	s := ""
	for i, p := range q.Parts {
		if i > 0 {
			s += "."
		}
		s += p
	}
	return s
}

// Call is a function application, possibly to a qualified or versioned
// target.
type Call struct {
	Target Expr
	Args   []Expr
	Span   span.Span
}

func (*Call) exprNode()            {}
func (c *Call) ExprSpan() span.Span { return c.Span }

// Binding is one `(name value)` pair inside a Let.
type Binding struct {
	Name  string
	Value Expr
}

// Let introduces local bindings, then evaluates a sequence body.
type Let struct {
	Bindings []Binding
	Body     []Expr
	Span     span.Span
}

func (*Let) exprNode()            {}
func (l *Let) ExprSpan() span.Span { return l.Span }

// If is a two-armed conditional.
type If struct {
	Cond Expr
	Then Expr
	Else Expr
	Span span.Span
}

func (*If) exprNode()            {}
func (i *If) ExprSpan() span.Span { return i.Span }

// CondClause is one `(test body)` clause of a Cond.
type CondClause struct {
	Test Expr
	Body Expr
}

// Cond is a multi-armed conditional.
type Cond struct {
	Clauses []CondClause
	Span    span.Span
}

func (*Cond) exprNode()            {}
func (c *Cond) ExprSpan() span.Span { return c.Span }

// Pattern is the sum of match-arm patterns.
type Pattern interface {
	patternNode()
}

// LiteralPattern matches a literal value.
type LiteralPattern struct{ Value *Literal }

// ConstructorPattern matches a variant case, e.g. (Some x).
type ConstructorPattern struct {
	TypeName string
	Case     string
}

// WildcardPattern matches anything, optionally binding a name.
type WildcardPattern struct{ Bind string }

func (LiteralPattern) patternNode()     {}
func (ConstructorPattern) patternNode() {}
func (WildcardPattern) patternNode()    {}

// MatchCase is one `(pattern body)` arm of a Match.
type MatchCase struct {
	Pattern Pattern
	Body    Expr
}

// Match evaluates a scrutinee against an ordered list of cases.
type Match struct {
	Scrutinee Expr
	Cases     []MatchCase
	Span      span.Span
}

func (*Match) exprNode()            {}
func (m *Match) ExprSpan() span.Span { return m.Span }

// Do evaluates a sequence of expressions for effect, yielding the last.
type Do struct {
	Exprs []Expr
	Span  span.Span
}

func (*Do) exprNode()            {}
func (d *Do) ExprSpan() span.Span { return d.Span }

// Lambda is reserved and rejected by the bytecode compiler (spec §4.11,
// §9); the parser still builds the node so later front-end passes can give a
// precise error instead of a generic parse failure.
type Lambda struct {
	Params []string
	Body   Expr
	Span   span.Span
}

func (*Lambda) exprNode()            {}
func (l *Lambda) ExprSpan() span.Span { return l.Span }

// BinaryOp applies a binary operator to two operands.
type BinaryOp struct {
	Op    string
	Left  Expr
	Right Expr
	Span  span.Span
}

func (*BinaryOp) exprNode()            {}
func (b *BinaryOp) ExprSpan() span.Span { return b.Span }

// UnaryOp applies a unary operator to one operand.
type UnaryOp struct {
	Op      string
	Operand Expr
	Span    span.Span
}

func (*UnaryOp) exprNode()            {}
func (u *UnaryOp) ExprSpan() span.Span { return u.Span }
