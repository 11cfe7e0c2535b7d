// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package compiler

import (
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/bytecode"
	"github.com/corelang/corelang/internal/semver"
	"github.com/corelang/corelang/internal/span"
)

// reservedEffectPrefixes are the dotted-name heads spec §4.11 compiles as
// EXEC_EFFECT rather than CALL_NATIVE.
var reservedEffectPrefixes = map[string]bool{
	"db": true, "http": true, "fs": true, "log": true, "event": true,
}

// CompileModule compiles every function in m into a bytecode.ModuleRecord.
// Each function's body is compiled independently against a fresh Builder, so
// the fan-out runs concurrently via errgroup.Group the same way
// cmd/build-metadata/main.go fans per-project extraction out across
// goroutines; Context's registries are read-only once RegisterModule has
// run, so concurrent CompileFunction calls share no mutable state.
// Functions that fail to compile (a Lambda body, an invalid version, an
// unknown operator, an unsupported call target or pattern) are skipped with
// their error collected; callers that need strict behavior
// should check the returned error slice.
func (c *Context) CompileModule(m *ast.Module) (*bytecode.ModuleRecord, []error) {
	mr := bytecode.NewModuleRecord(m.Name, "")

	var fns []*ast.Function
	for _, el := range m.Elements {
		if fn, ok := el.(*ast.Function); ok {
			fns = append(fns, fn)
		}
	}

	results := make([]*bytecode.FunctionRecord, len(fns))
	compileErrs := make([]error, len(fns))

	var g errgroup.Group
	for i, fn := range fns {
		i, fn := i, fn
		g.Go(func() error {
			fr, err := c.CompileFunction(fn)
			if err != nil {
				compileErrs[i] = err
				return nil
			}
			results[i] = fr
			return nil
		})
	}
	_ = g.Wait() // per-function errors are collected, not fatal to the batch

	var errs []error
	for i, fr := range results {
		if fr != nil {
			mr.AddFunction(fr)
		} else if compileErrs[i] != nil {
			errs = append(errs, compileErrs[i])
		}
	}
	return mr, errs
}

// CompileFunction compiles one function declaration into a FunctionRecord
// (spec §4.11). Parameters become indexed locals 0..arity-1, consistent
// with LOAD_ARG reading an indexed register file (spec §4.14).
func (c *Context) CompileFunction(fn *ast.Function) (*bytecode.FunctionRecord, error) {
	v, err := semver.Parse(fn.VersionInfo.Version)
	if err != nil {
		return nil, fmt.Errorf("compiler: function %q has an invalid version: %w", fn.Name, err)
	}

	b := bytecode.NewBuilder()
	for i, p := range fn.Inputs {
		b.Locals[p.Name] = i
	}

	fc := &funcCompiler{ctx: c, b: b, arity: len(fn.Inputs)}
	for i, expr := range fn.Body {
		if i == len(fn.Body)-1 {
			if err := fc.compile(expr); err != nil {
				return nil, err
			}
		} else {
			if err := fc.compile(expr); err != nil {
				return nil, err
			}
			b.Emit(bytecode.POP, nil, expr.ExprSpan())
		}
	}
	b.Emit(bytecode.RETURN, nil, fn.Span)

	return &bytecode.FunctionRecord{
		Name:          fn.Name,
		Version:       v,
		Arity:         len(fn.Inputs),
		Instructions:  b.Finish(),
		RequiredRoles: fn.RequiredRoles,
		RequiredPerms: fn.RequiredPerms,
		Effects:       fn.Effects,
		Pure:          fn.Pure,
		Idempotent:    fn.Idempotent,
		LocalCount:    len(b.Locals),
	}, nil
}

// funcCompiler walks one function body's expression tree, emitting
// instructions via its Builder (spec §4.11's per-expression-form table).
type funcCompiler struct {
	ctx   *Context
	b     *bytecode.Builder
	arity int
}

func (fc *funcCompiler) compile(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Literal:
		return fc.compileLiteral(n)
	case *ast.Identifier:
		return fc.compileIdentifier(n)
	case *ast.Let:
		return fc.compileLet(n)
	case *ast.If:
		return fc.compileIf(n)
	case *ast.Cond:
		return fc.compileCond(n)
	case *ast.Match:
		return fc.compileMatch(n)
	case *ast.Do:
		return fc.compileDo(n)
	case *ast.BinaryOp:
		return fc.compileBinaryOp(n)
	case *ast.UnaryOp:
		return fc.compileUnaryOp(n)
	case *ast.Call:
		return fc.compileCall(n)
	case *ast.QualifiedName:
		return fc.compileQualifiedRef(n)
	case *ast.Lambda:
		return fmt.Errorf("compiler: lambdas are unsupported (spec reserves them for a future extension)")
	default:
		return fmt.Errorf("compiler: unsupported expression node %T", e)
	}
}

func (fc *funcCompiler) compileLiteral(l *ast.Literal) error {
	kind := l.Kind
	if kind == "int" {
		if _, ok := l.Value.(int); !ok {
			kind = "float"
		}
	}
	fc.b.Emit(bytecode.PUSH, bytecode.LiteralOperand{Kind: kind, Value: l.Value}, l.Span)
	return nil
}

func (fc *funcCompiler) compileIdentifier(id *ast.Identifier) error {
	if slot, ok := fc.b.Locals[id.Name]; ok && slot < fc.arity {
		fc.b.Emit(bytecode.LOAD_ARG, slot, id.Span)
		return nil
	}
	fc.b.Emit(bytecode.LOAD_VAR, id.Name, id.Span)
	return nil
}

func (fc *funcCompiler) compileLet(l *ast.Let) error {
	for _, binding := range l.Bindings {
		if err := fc.compile(binding.Value); err != nil {
			return err
		}
		// STORE_VAR keeps the top of stack (spec §9); the body below expects
		// to push its own fresh value rather than consume this one.
		fc.b.Emit(bytecode.STORE_VAR, binding.Name, l.Span)
	}
	return fc.compileSequence(l.Body, l.Span)
}

func (fc *funcCompiler) compileIf(i *ast.If) error {
	if err := fc.compile(i.Cond); err != nil {
		return err
	}
	elseLabel := fc.b.NewLabel()
	endLabel := fc.b.NewLabel()
	fc.b.EmitJump(bytecode.JUMP_IF_FALSE, elseLabel, i.Span)
	if err := fc.compile(i.Then); err != nil {
		return err
	}
	fc.b.EmitJump(bytecode.JUMP, endLabel, i.Span)
	fc.b.PlaceLabel(elseLabel)
	if err := fc.compile(i.Else); err != nil {
		return err
	}
	fc.b.PlaceLabel(endLabel)
	return nil
}

func (fc *funcCompiler) compileCond(cnd *ast.Cond) error {
	endLabel := fc.b.NewLabel()
	for _, clause := range cnd.Clauses {
		if err := fc.compile(clause.Test); err != nil {
			return err
		}
		nextLabel := fc.b.NewLabel()
		fc.b.EmitJump(bytecode.JUMP_IF_FALSE, nextLabel, cnd.Span)
		if err := fc.compile(clause.Body); err != nil {
			return err
		}
		fc.b.EmitJump(bytecode.JUMP, endLabel, cnd.Span)
		fc.b.PlaceLabel(nextLabel)
	}
	fc.b.Emit(bytecode.PUSH, bytecode.LiteralOperand{Kind: "string", Value: "no cond clause matched"}, cnd.Span)
	fc.b.Emit(bytecode.HALT, nil, cnd.Span)
	fc.b.PlaceLabel(endLabel)
	return nil
}

func (fc *funcCompiler) compileMatch(m *ast.Match) error {
	if err := fc.compile(m.Scrutinee); err != nil {
		return err
	}
	endLabel := fc.b.NewLabel()
	for i, kase := range m.Cases {
		last := i == len(m.Cases)-1
		if !last {
			fc.b.Emit(bytecode.DUP, nil, m.Span)
		}
		if err := fc.compileMatchPattern(kase.Pattern, m.Span); err != nil {
			return err
		}
		nextLabel := fc.b.NewLabel()
		fc.b.EmitJump(bytecode.JUMP_IF_FALSE, nextLabel, m.Span)
		if !last {
			// The DUP'd scrutinee copy was consumed by the pattern test; the
			// original copy underneath is still live and must go before the
			// case body runs, or it corrupts any enclosing multi-arg form.
			fc.b.Emit(bytecode.POP, nil, m.Span)
		}
		if err := fc.compile(kase.Body); err != nil {
			return err
		}
		fc.b.EmitJump(bytecode.JUMP, endLabel, m.Span)
		fc.b.PlaceLabel(nextLabel)
	}
	fc.b.Emit(bytecode.PUSH, bytecode.LiteralOperand{Kind: "string", Value: "no match case matched"}, m.Span)
	fc.b.Emit(bytecode.HALT, nil, m.Span)
	fc.b.PlaceLabel(endLabel)
	return nil
}

func (fc *funcCompiler) compileMatchPattern(p ast.Pattern, sp span.Span) error {
	switch pat := p.(type) {
	case ast.LiteralPattern:
		if err := fc.compileLiteral(pat.Value); err != nil {
			return err
		}
		fc.b.Emit(bytecode.EQ, nil, sp)
	case ast.ConstructorPattern:
		fc.b.Emit(bytecode.MATCH_VARIANT, bytecode.VariantOperand{Type: pat.TypeName, Case: pat.Case}, sp)
	case ast.WildcardPattern:
		fc.b.Emit(bytecode.POP, nil, sp)
		fc.b.Emit(bytecode.PUSH, bytecode.LiteralOperand{Kind: "bool", Value: true}, sp)
	default:
		return fmt.Errorf("compiler: unsupported match pattern %T", p)
	}
	return nil
}

func (fc *funcCompiler) compileDo(d *ast.Do) error {
	return fc.compileSequence(d.Exprs, d.Span)
}

func (fc *funcCompiler) compileSequence(exprs []ast.Expr, sp span.Span) error {
	if len(exprs) == 0 {
		fc.b.Emit(bytecode.PUSH, bytecode.LiteralOperand{Kind: "unit", Value: nil}, sp)
		return nil
	}
	for i, e := range exprs {
		if err := fc.compile(e); err != nil {
			return err
		}
		if i < len(exprs)-1 {
			fc.b.Emit(bytecode.POP, nil, e.ExprSpan())
		}
	}
	return nil
}

var binaryOpcodes = map[string]bytecode.Opcode{
	"+": bytecode.ADD, "-": bytecode.SUB, "*": bytecode.MUL, "/": bytecode.DIV, "%": bytecode.MOD,
	"=": bytecode.EQ, "==": bytecode.EQ, "!=": bytecode.NE, "<": bytecode.LT, "<=": bytecode.LE, ">": bytecode.GT, ">=": bytecode.GE,
	"and": bytecode.AND, "or": bytecode.OR,
}

func (fc *funcCompiler) compileBinaryOp(b *ast.BinaryOp) error {
	if err := fc.compile(b.Left); err != nil {
		return err
	}
	if err := fc.compile(b.Right); err != nil {
		return err
	}
	op, ok := binaryOpcodes[b.Op]
	if !ok {
		return fmt.Errorf("compiler: unknown binary operator %q", b.Op)
	}
	fc.b.Emit(op, nil, b.Span)
	return nil
}

func (fc *funcCompiler) compileUnaryOp(u *ast.UnaryOp) error {
	if err := fc.compile(u.Operand); err != nil {
		return err
	}
	switch u.Op {
	case "-":
		fc.b.Emit(bytecode.NEG, nil, u.Span)
	case "not", "!":
		fc.b.Emit(bytecode.NOT, nil, u.Span)
	default:
		return fmt.Errorf("compiler: unknown unary operator %q", u.Op)
	}
	return nil
}

func (fc *funcCompiler) compileCall(call *ast.Call) error {
	switch target := call.Target.(type) {
	case *ast.QualifiedName:
		return fc.compileQualifiedCall(target, call)
	case *ast.Identifier:
		for _, arg := range call.Args {
			if err := fc.compile(arg); err != nil {
				return err
			}
		}
		fc.b.Emit(bytecode.CALL, bytecode.CallOperand{Name: target.Name, Version: target.Version, Arity: len(call.Args)}, call.Span)
		return nil
	default:
		return fmt.Errorf("compiler: unsupported call target %T", call.Target)
	}
}

func (fc *funcCompiler) compileQualifiedCall(qn *ast.QualifiedName, call *ast.Call) error {
	for _, arg := range call.Args {
		if err := fc.compile(arg); err != nil {
			return err
		}
	}
	head := qn.Parts[0]
	if reservedEffectPrefixes[head] {
		fc.b.Emit(bytecode.EXEC_EFFECT, bytecode.EffectOperand{
			Handler:    head,
			Operation:  strings.Join(qn.Parts[1:], "."),
			ParamCount: len(call.Args),
		}, call.Span)
		return nil
	}
	fc.b.Emit(bytecode.CALL_NATIVE, bytecode.NativeCallOperand{Name: qn.Joined(), Arity: len(call.Args)}, call.Span)
	return nil
}

// compileQualifiedRef handles a bare QualifiedName in non-call position
// (e.g. passed as a function_ref value); it resolves like a zero-arg call.
func (fc *funcCompiler) compileQualifiedRef(qn *ast.QualifiedName) error {
	head := qn.Parts[0]
	if reservedEffectPrefixes[head] {
		fc.b.Emit(bytecode.EXEC_EFFECT, bytecode.EffectOperand{
			Handler:   head,
			Operation: strings.Join(qn.Parts[1:], "."),
		}, qn.Span)
		return nil
	}
	fc.b.Emit(bytecode.CALL_NATIVE, bytecode.NativeCallOperand{Name: qn.Joined()}, qn.Span)
	return nil
}
