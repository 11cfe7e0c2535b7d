// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/lexer"
)

func parseSource(t *testing.T, src string) *ast.Module {
	t.Helper()
	toks := lexer.Tokenize(src)
	mod, err := Parse(toks)
	require.NoError(t, err)
	require.NotNil(t, mod)
	return mod
}

func TestParseRoundTripCompileScenario(t *testing.T) {
	mod := parseSource(t, `(mod test (fn get_answer :v1 :pure true :inputs [] :outputs [(result :int)] (body 42)))`)
	require.Equal(t, "test", mod.Name)
	require.Len(t, mod.Elements, 1)

	fn, ok := mod.Elements[0].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "get_answer", fn.Name)
	assert.Equal(t, ":v1", fn.VersionInfo.Version)
	assert.True(t, fn.Pure)
	assert.Empty(t, fn.Inputs)
	require.Len(t, fn.Outputs, 1)
	assert.Equal(t, "result", fn.Outputs[0].Name)
	assert.Equal(t, ast.PrimitiveType{Name: "int"}, fn.Outputs[0].Type)
	require.Len(t, fn.Body, 1)

	lit, ok := fn.Body[0].(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "int", lit.Kind)
	assert.Equal(t, 42, lit.Value)
}

func TestParseArgumentArithmeticScenario(t *testing.T) {
	mod := parseSource(t, `(mod test (fn add :v1 :pure true :inputs [(a :int) (b :int)] :outputs [(r :int)] (body (+ a b))))`)
	fn := mod.Elements[0].(*ast.Function)
	require.Len(t, fn.Inputs, 2)
	assert.Equal(t, "a", fn.Inputs[0].Name)
	assert.Equal(t, "b", fn.Inputs[1].Name)

	require.Len(t, fn.Body, 1)
	bop, ok := fn.Body[0].(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, "+", bop.Op)
	assert.Equal(t, "a", bop.Left.(*ast.Identifier).Name)
	assert.Equal(t, "b", bop.Right.(*ast.Identifier).Name)
}

func TestParseBranchSelectionScenario(t *testing.T) {
	mod := parseSource(t, `(mod test (fn check :v1 :inputs [(x :int)] :outputs [(s :string)] (body (if (> x 10) "big" "small"))))`)
	fn := mod.Elements[0].(*ast.Function)
	require.Len(t, fn.Body, 1)

	ifExpr, ok := fn.Body[0].(*ast.If)
	require.True(t, ok)

	cond, ok := ifExpr.Cond.(*ast.BinaryOp)
	require.True(t, ok)
	assert.Equal(t, ">", cond.Op)

	then, ok := ifExpr.Then.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "big", then.Value)

	els, ok := ifExpr.Else.(*ast.Literal)
	require.True(t, ok)
	assert.Equal(t, "small", els.Value)
}

func TestParseRoleDenialScenario(t *testing.T) {
	mod := parseSource(t, `(mod test (fn admin_only :v1 :requires [admin] :inputs [] :outputs [(s :string)] (body "success")))`)
	fn := mod.Elements[0].(*ast.Function)
	assert.Equal(t, []string{"admin"}, fn.RequiredRoles)
}

func TestParseDenyPrecedencePolicyScenario(t *testing.T) {
	mod := parseSource(t, `(mod test
		(role user :permissions [data.access])
		(fn access_data :v1 :permissions [data.access] :inputs [] :outputs [(s :string)] (body "ok"))
		(policy default
			(rule :effect allow :roles [user] :permissions [data.access] :version_constraint all_versions)
			(rule :effect deny :roles [user] :permissions [data.access] :version_constraint all_versions)))`)

	require.Len(t, mod.Elements, 3)
	role := mod.Elements[0].(*ast.Role)
	assert.Equal(t, "user", role.Name)
	assert.Equal(t, []string{"data.access"}, role.Permissions)

	fn := mod.Elements[1].(*ast.Function)
	assert.Equal(t, []string{"data.access"}, fn.RequiredPerms)

	policy := mod.Elements[2].(*ast.Policy)
	require.Len(t, policy.Rules, 2)
	assert.Equal(t, "allow", policy.Rules[0].Effect)
	assert.Equal(t, "deny", policy.Rules[1].Effect)
	assert.Equal(t, "all_versions", policy.Rules[1].VersionConstraint)
}

func TestParseMigrationPathScenarioVersionInfo(t *testing.T) {
	mod := parseSource(t, `(mod test (fn calc :v2.0.0 :replaces :v1.0.0 :inputs [] :outputs [] (body 0)))`)
	fn := mod.Elements[0].(*ast.Function)
	assert.Equal(t, ":v2.0.0", fn.VersionInfo.Version)
	assert.Equal(t, ":v1.0.0", fn.VersionInfo.Replaces)
}

func TestParseDuplicateAttributeIsHardError(t *testing.T) {
	toks := lexer.Tokenize(`(mod test (fn f :v1 :pure true :pure false :inputs [] :outputs [] (body 1)))`)
	_, err := Parse(toks)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate attribute")
}

func TestParseMissingBodyIsHardError(t *testing.T) {
	toks := lexer.Tokenize(`(mod test (fn f :v1 :inputs [] :outputs []))`)
	_, err := Parse(toks)
	require.Error(t, err)
}

func TestParseLetAndDo(t *testing.T) {
	mod := parseSource(t, `(mod test (fn f :v1 :inputs [] :outputs [(r :int)]
		(body (let ((x 1) (y 2)) (do (+ x y))))))`)
	fn := mod.Elements[0].(*ast.Function)
	let, ok := fn.Body[0].(*ast.Let)
	require.True(t, ok)
	require.Len(t, let.Bindings, 2)
	assert.Equal(t, "x", let.Bindings[0].Name)
	assert.Equal(t, "y", let.Bindings[1].Name)

	do, ok := let.Body[0].(*ast.Do)
	require.True(t, ok)
	require.Len(t, do.Exprs, 1)
}

func TestParseMatchWithConstructorAndWildcardPatterns(t *testing.T) {
	mod := parseSource(t, `(mod test (fn f :v1 :inputs [] :outputs [(r :string)]
		(body (match x
			((Option Some) "got one")
			(_ "nothing")))))`)
	fn := mod.Elements[0].(*ast.Function)
	m, ok := fn.Body[0].(*ast.Match)
	require.True(t, ok)
	require.Len(t, m.Cases, 2)

	ctor, ok := m.Cases[0].Pattern.(ast.ConstructorPattern)
	require.True(t, ok)
	assert.Equal(t, "Option", ctor.TypeName)
	assert.Equal(t, "Some", ctor.Case)

	_, ok = m.Cases[1].Pattern.(ast.WildcardPattern)
	require.True(t, ok)
}

func TestParseQualifiedCallBecomesEffectLikeCall(t *testing.T) {
	mod := parseSource(t, `(mod test (fn f :v1 :inputs [] :outputs [(r :string)]
		(body (db.read "users"))))`)
	fn := mod.Elements[0].(*ast.Function)
	call, ok := fn.Body[0].(*ast.Call)
	require.True(t, ok)
	qn, ok := call.Target.(*ast.QualifiedName)
	require.True(t, ok)
	assert.Equal(t, "db.read", qn.Joined())
}

func TestParseVersionedPlainCallPinsVersion(t *testing.T) {
	mod := parseSource(t, `(mod test (fn f :v1 :inputs [] :outputs []
		(body (calc:v2 1 2))))`)
	fn := mod.Elements[0].(*ast.Function)
	call, ok := fn.Body[0].(*ast.Call)
	require.True(t, ok)
	ident, ok := call.Target.(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "calc", ident.Name)
	assert.Equal(t, ":v2", ident.Version)
	assert.Len(t, call.Args, 2)
}

func TestParseGenericTypeExpression(t *testing.T) {
	mod := parseSource(t, `(mod test (fn f :v1 :inputs [(xs (List :int))] :outputs [] (body 0)))`)
	fn := mod.Elements[0].(*ast.Function)
	gt, ok := fn.Inputs[0].Type.(ast.GenericType)
	require.True(t, ok)
	assert.Equal(t, "List", gt.Name)
	require.Len(t, gt.Args, 1)
	assert.Equal(t, ast.PrimitiveType{Name: "int"}, gt.Args[0])
}

func TestParseOptionalParamAndClassification(t *testing.T) {
	mod := parseSource(t, `(mod test (type Account :v1 :fields [(ssn :string :classification restricted) (nickname :string ?)]))`)
	td := mod.Elements[0].(*ast.TypeDef)
	require.Len(t, td.Fields, 2)
	assert.Equal(t, "restricted", td.Fields[0].Classification)
	assert.True(t, td.Fields[1].Optional)
}
