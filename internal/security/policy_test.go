// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/semver"
)

func baseContext() *Context {
	c := NewContext()
	c.Roles["admin"] = &ast.Role{Name: "admin", Permissions: []string{"db.write"}}
	c.Roles["viewer"] = &ast.Role{Name: "viewer"}
	c.Functions["deleteUser"] = &ast.Function{Name: "deleteUser", RequiredPerms: []string{"db.write"}}
	return c
}

func TestEvaluateUnknownRoleDenied(t *testing.T) {
	c := baseContext()
	d := Evaluate(c, DefaultOptions(), "ghost", "deleteUser", nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, "role does not exist", d.Reason)
}

func TestEvaluateAllowByMatchingPermission(t *testing.T) {
	c := baseContext()
	c.Policies["p"] = &ast.Policy{Name: "p", Rules: []ast.PolicyRule{
		{Effect: "allow", Roles: []string{"admin"}, Permissions: []string{"db.write"}, VersionConstraint: "all_versions"},
	}}
	d := Evaluate(c, DefaultOptions(), "admin", "deleteUser", nil)
	assert.True(t, d.Allowed)
}

func TestEvaluateDenyTakesPrecedenceOverAllow(t *testing.T) {
	c := baseContext()
	c.Policies["allow-policy"] = &ast.Policy{Name: "allow-policy", Rules: []ast.PolicyRule{
		{Effect: "allow", Roles: []string{"admin"}, Permissions: []string{"db.write"}},
	}}
	c.Policies["deny-policy"] = &ast.Policy{Name: "deny-policy", Rules: []ast.PolicyRule{
		{Effect: "deny", Roles: []string{"admin"}, Permissions: []string{"db.write"}, Reason: "maintenance freeze"},
	}}
	d := Evaluate(c, DefaultOptions(), "admin", "deleteUser", nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, "maintenance freeze", d.Reason)
}

func TestEvaluateNoPoliciesFallsBackToRequiredRoles(t *testing.T) {
	c := NewContext()
	c.Roles["admin"] = &ast.Role{Name: "admin"}
	c.Functions["f"] = &ast.Function{Name: "f", RequiredRoles: []string{"admin"}}

	d := Evaluate(c, DefaultOptions(), "admin", "f", nil)
	assert.True(t, d.Allowed)
}

func TestEvaluateNoMatchingRuleDenied(t *testing.T) {
	c := baseContext()
	c.Policies["p"] = &ast.Policy{Name: "p", Rules: []ast.PolicyRule{
		{Effect: "allow", Roles: []string{"viewer"}, Permissions: []string{"db.write"}},
	}}
	d := Evaluate(c, DefaultOptions(), "admin", "deleteUser", nil)
	assert.False(t, d.Allowed)
	assert.Equal(t, "no matching rule", d.Reason)
}

func TestEvaluatePermissionSubstringHeuristic(t *testing.T) {
	c := NewContext()
	c.Roles["admin"] = &ast.Role{Name: "admin"}
	c.Functions["writeLog"] = &ast.Function{Name: "writeLog"} // no required perms
	c.Policies["p"] = &ast.Policy{Name: "p", Rules: []ast.PolicyRule{
		{Effect: "allow", Roles: []string{"admin"}, Permissions: []string{"log.write"}},
	}}

	d := Evaluate(c, DefaultOptions(), "admin", "writeLog", nil)
	assert.True(t, d.Allowed)

	noHeuristic := Options{AllowPermissionSubstringHeuristic: false}
	d = Evaluate(c, noHeuristic, "admin", "writeLog", nil)
	assert.False(t, d.Allowed)
}

func TestEvaluateVersionConstraintStableOnly(t *testing.T) {
	c := baseContext()
	c.Policies["p"] = &ast.Policy{Name: "p", Rules: []ast.PolicyRule{
		{Effect: "allow", Roles: []string{"admin"}, Permissions: []string{"db.write"}, VersionConstraint: "stable_only"},
	}}

	stable := semver.MustParse("1.0.0")
	d := Evaluate(c, DefaultOptions(), "admin", "deleteUser", &stable)
	assert.True(t, d.Allowed)

	beta := semver.MustParse("1.0.0-beta")
	d = Evaluate(c, DefaultOptions(), "admin", "deleteUser", &beta)
	assert.False(t, d.Allowed)
}

func TestEvaluateVersionConstraintSpecific(t *testing.T) {
	c := baseContext()
	c.Policies["p"] = &ast.Policy{Name: "p", Rules: []ast.PolicyRule{
		{Effect: "allow", Roles: []string{"admin"}, Permissions: []string{"db.write"}, VersionConstraint: `specific(1.0.0, 2.0.0)`},
	}}

	v1 := semver.MustParse("1.0.0")
	assert.True(t, Evaluate(c, DefaultOptions(), "admin", "deleteUser", &v1).Allowed)

	v3 := semver.MustParse("3.0.0")
	assert.False(t, Evaluate(c, DefaultOptions(), "admin", "deleteUser", &v3).Allowed)
}

func TestEvaluateVersionConstraintRange(t *testing.T) {
	c := baseContext()
	c.Policies["p"] = &ast.Policy{Name: "p", Rules: []ast.PolicyRule{
		{Effect: "allow", Roles: []string{"admin"}, Permissions: []string{"db.write"}, VersionConstraint: `range(">=1.0.0 <2.0.0")`},
	}}

	inRange := semver.MustParse("1.5.0")
	assert.True(t, Evaluate(c, DefaultOptions(), "admin", "deleteUser", &inRange).Allowed)

	outOfRange := semver.MustParse("2.0.0")
	assert.False(t, Evaluate(c, DefaultOptions(), "admin", "deleteUser", &outOfRange).Allowed)
}

func TestEvaluateRoleInheritanceAppliesToRules(t *testing.T) {
	c := NewContext()
	c.Roles["base"] = &ast.Role{Name: "base"}
	c.Roles["admin"] = &ast.Role{Name: "admin", Parents: []string{"base"}}
	c.Functions["f"] = &ast.Function{Name: "f", RequiredPerms: []string{"x"}}
	c.Policies["p"] = &ast.Policy{Name: "p", Rules: []ast.PolicyRule{
		{Effect: "allow", Roles: []string{"base"}, Permissions: []string{"x"}},
	}}

	d := Evaluate(c, DefaultOptions(), "admin", "f", nil)
	assert.True(t, d.Allowed)
}
