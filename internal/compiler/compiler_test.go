// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/bytecode"
	"github.com/corelang/corelang/internal/compileropts"
	"github.com/corelang/corelang/internal/lexer"
	"github.com/corelang/corelang/internal/parser"
)

func parseModule(t *testing.T, src string) *ast.Module {
	t.Helper()
	toks := lexer.Tokenize(src)
	mod, err := parser.Parse(toks)
	require.NoError(t, err)
	return mod
}

func TestCompileFunctionLiteralReturn(t *testing.T) {
	mod := parseModule(t, `(mod test (fn get_answer :v1 :pure true :inputs [] :outputs [(result :int)] (body 42)))`)
	fn := mod.Elements[0].(*ast.Function)

	ctx := New(compileropts.Default())
	fr, err := ctx.CompileFunction(fn)
	require.NoError(t, err)
	assert.Equal(t, "get_answer", fr.Name)
	assert.Equal(t, 0, fr.Arity)

	var ops []bytecode.Opcode
	for _, instr := range fr.Instructions {
		ops = append(ops, instr.Op)
	}
	assert.Contains(t, ops, bytecode.PUSH)
	assert.Equal(t, bytecode.RETURN, ops[len(ops)-1])
}

func TestCompileFunctionArgumentArithmetic(t *testing.T) {
	mod := parseModule(t, `(mod test (fn add :v1 :pure true :inputs [(a :int) (b :int)] :outputs [(r :int)] (body (+ a b))))`)
	fn := mod.Elements[0].(*ast.Function)

	ctx := New(compileropts.Default())
	fr, err := ctx.CompileFunction(fn)
	require.NoError(t, err)
	assert.Equal(t, 2, fr.Arity)

	var ops []bytecode.Opcode
	for _, instr := range fr.Instructions {
		ops = append(ops, instr.Op)
	}
	assert.Equal(t, []bytecode.Opcode{bytecode.LOAD_ARG, bytecode.LOAD_ARG, bytecode.ADD, bytecode.RETURN}, ops)
}

func TestCompileFunctionBranchSelection(t *testing.T) {
	mod := parseModule(t, `(mod test (fn check :v1 :inputs [(x :int)] :outputs [(s :string)] (body (if (> x 10) "big" "small"))))`)
	fn := mod.Elements[0].(*ast.Function)

	ctx := New(compileropts.Default())
	fr, err := ctx.CompileFunction(fn)
	require.NoError(t, err)

	var ops []bytecode.Opcode
	for _, instr := range fr.Instructions {
		ops = append(ops, instr.Op)
	}
	assert.Contains(t, ops, bytecode.JUMP_IF_FALSE)
	assert.Contains(t, ops, bytecode.JUMP)
	assert.Contains(t, ops, bytecode.GT)
}

func TestCompileFunctionPinnedVersionCallEmitsCallOperandVersion(t *testing.T) {
	mod := parseModule(t, `(mod test (fn f :v1 :inputs [] :outputs [] (body (calc:v2 1 2))))`)
	fn := mod.Elements[0].(*ast.Function)

	ctx := New(compileropts.Default())
	fr, err := ctx.CompileFunction(fn)
	require.NoError(t, err)

	var found bytecode.CallOperand
	var ok bool
	for _, instr := range fr.Instructions {
		if instr.Op == bytecode.CALL {
			found, ok = instr.Operand.(bytecode.CallOperand)
			break
		}
	}
	require.True(t, ok, "expected a CALL instruction")
	assert.Equal(t, "calc", found.Name)
	assert.Equal(t, ":v2", found.Version)
	assert.Equal(t, 2, found.Arity)
}

// A non-last match case must POP its duplicated scrutinee on the success
// path before its body runs, leaving a net stack effect of +1 like any
// other expression. Without the POP, an earlier case winning leaves the
// scrutinee duplicate under the body's result.
func TestCompileMatchNonLastCasePopsDuplicatedScrutinee(t *testing.T) {
	mod := parseModule(t, `(mod test (fn f :v1 :inputs [] :outputs []
		(body (match 1 (1 "one") (_ "other")))))`)
	fn := mod.Elements[0].(*ast.Function)

	ctx := New(compileropts.Default())
	fr, err := ctx.CompileFunction(fn)
	require.NoError(t, err)

	var ops []bytecode.Opcode
	for _, instr := range fr.Instructions {
		ops = append(ops, instr.Op)
	}
	// DUP, PUSH 1, EQ, JUMP_IF_FALSE, POP (the fix), PUSH "one", JUMP, ...
	dupAt := -1
	for i, op := range ops {
		if op == bytecode.DUP {
			dupAt = i
			break
		}
	}
	require.GreaterOrEqual(t, dupAt, 0, "expected a DUP for the non-last case")

	jumpIfFalseAt := -1
	for i := dupAt; i < len(ops); i++ {
		if ops[i] == bytecode.JUMP_IF_FALSE {
			jumpIfFalseAt = i
			break
		}
	}
	require.GreaterOrEqual(t, jumpIfFalseAt, 0)
	require.Greater(t, len(ops), jumpIfFalseAt+1, "expected an instruction after JUMP_IF_FALSE")
	assert.Equal(t, bytecode.POP, ops[jumpIfFalseAt+1], "the duplicated scrutinee must be popped before the case body compiles")
}

func TestCompileLambdaRejected(t *testing.T) {
	body := []ast.Expr{&ast.Lambda{Params: []string{"x"}, Body: &ast.Identifier{Name: "x"}}}
	fn := &ast.Function{
		Name:        "f",
		VersionInfo: ast.VersionInfo{Version: ":v1"},
		Body:        body,
	}
	ctx := New(compileropts.Default())
	_, err := ctx.CompileFunction(fn)
	require.Error(t, err)
}

func TestRegisterModuleReplacementChainSetsLatestVersion(t *testing.T) {
	mod := parseModule(t, `(mod test
		(fn calc :v1.0.0 :inputs [] :outputs [] (body 0))
		(fn calc :v2.0.0 :replaces :v1.0.0 :inputs [] :outputs [] (body 1)))`)

	ctx := New(compileropts.Default())
	b := ctx.RegisterModule(mod)
	assert.False(t, b.HasErrors())

	v1, ok := ctx.Functions.LatestVersion("calc")
	require.True(t, ok)
	assert.Equal(t, "2.0.0", v1.Key())
}

func TestRegisterModuleInvalidVersionEmitsVER001(t *testing.T) {
	fn := &ast.Function{Name: "bad", VersionInfo: ast.VersionInfo{Version: ":not-a-version!!"}}
	mod := &ast.Module{Name: "test", Elements: []ast.ModuleElement{fn}}

	ctx := New(compileropts.Default())
	b := ctx.RegisterModule(mod)
	require.True(t, b.HasErrors())
	found := false
	for _, d := range b.Diagnostics() {
		if d.Code == "VER001" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolveFunctionVersionLatest(t *testing.T) {
	mod := parseModule(t, `(mod test
		(fn calc :v1.0.0 :inputs [] :outputs [] (body 0))
		(fn calc :v2.0.0 :replaces :v1.0.0 :inputs [] :outputs [] (body 1)))`)
	ctx := New(compileropts.Default())
	ctx.RegisterModule(mod)

	entity, err := ctx.ResolveFunctionVersion("calc", "")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", entity.Version.Key())
}

// Per spec §4.10: a breaking change (here, a removed input parameter)
// replacing a predecessor without bumping the major version emits both the
// VER004 per-change detail warning and the VER003 major-bump error.
func TestRegisterModuleBreakingChangeWithoutMajorBumpEmitsVER003AndVER004(t *testing.T) {
	mod := parseModule(t, `(mod test
		(fn calc :v1.0.0 :inputs [(x :int)] :outputs [] (body 0))
		(fn calc :v1.1.0 :replaces :v1.0.0 :inputs [] :outputs [] (body 1)))`)
	ctx := New(compileropts.Default())
	b := ctx.RegisterModule(mod)
	require.True(t, b.HasErrors())

	var sawVER003, sawVER004 bool
	for _, d := range b.Diagnostics() {
		switch d.Code {
		case "VER003":
			sawVER003 = true
		case "VER004":
			sawVER004 = true
		}
	}
	assert.True(t, sawVER003, "expected VER003 (breaking change without major bump)")
	assert.True(t, sawVER004, "expected VER004 (breaking change detail)")
}

// The same breaking change across a major version bump suppresses VER003
// but still reports the VER004 change detail.
func TestRegisterModuleBreakingChangeWithMajorBumpOmitsVER003(t *testing.T) {
	mod := parseModule(t, `(mod test
		(fn calc :v1.0.0 :inputs [(x :int)] :outputs [] (body 0))
		(fn calc :v2.0.0 :replaces :v1.0.0 :inputs [] :outputs [] (body 1)))`)
	ctx := New(compileropts.Default())
	b := ctx.RegisterModule(mod)

	var sawVER003, sawVER004 bool
	for _, d := range b.Diagnostics() {
		switch d.Code {
		case "VER003":
			sawVER003 = true
		case "VER004":
			sawVER004 = true
		}
	}
	assert.False(t, sawVER003)
	assert.True(t, sawVER004)
}

func TestResolveFunctionVersionBadConstraintEmitsVER008(t *testing.T) {
	mod := parseModule(t, `(mod test (fn calc :v1.0.0 :inputs [] :outputs [] (body 0)))`)
	ctx := New(compileropts.Default())
	ctx.RegisterModule(mod)

	_, err := ctx.ResolveFunctionVersion("calc", "???broken???")
	require.Error(t, err)
	rerr, ok := err.(*ResolveError)
	require.True(t, ok)
	assert.Equal(t, "VER008", rerr.Code)
}

func TestResolveFunctionVersionNoMatchEmitsVER009(t *testing.T) {
	mod := parseModule(t, `(mod test (fn calc :v1.0.0 :stability alpha :inputs [] :outputs [] (body 0)))`)
	ctx := New(compileropts.Default())
	ctx.RegisterModule(mod)

	_, err := ctx.ResolveFunctionVersion("calc", "stable")
	require.Error(t, err)
	rerr, ok := err.(*ResolveError)
	require.True(t, ok)
	assert.Equal(t, "VER009", rerr.Code)
}

func TestResolveTypeVersionErrorsUseVER010(t *testing.T) {
	ctx := New(compileropts.Default())

	_, err := ctx.ResolveTypeVersion("missing", "latest")
	require.Error(t, err)
	rerr, ok := err.(*ResolveError)
	require.True(t, ok)
	assert.Equal(t, "VER010", rerr.Code)
}

func TestCompileModuleCompilesEveryFunction(t *testing.T) {
	mod := parseModule(t, `(mod test
		(fn a :v1 :inputs [] :outputs [] (body 1))
		(fn b :v1 :inputs [] :outputs [] (body 2)))`)
	ctx := New(compileropts.Default())
	mr, errs := ctx.CompileModule(mod)
	require.Empty(t, errs)
	assert.Len(t, mr.Functions, 2)
}
