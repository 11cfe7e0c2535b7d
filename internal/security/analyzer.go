// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package security

import (
	"fmt"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/diagnostics"
)

// Analyze runs the static security analyzer's pass 2 (spec §4.8) over a
// Context already populated by RegisterModule, emitting SEC001-SEC009
// diagnostics.
func Analyze(c *Context) *diagnostics.Builder {
	b := diagnostics.NewBuilder()

	for _, role := range c.Roles {
		checkRoleParentsExist(c, role, b)
	}
	for _, role := range c.Roles {
		checkRoleCycle(c, role, b)
	}
	for _, role := range c.Roles {
		checkRolePermissionsExist(c, role, b)
	}
	for _, policy := range c.Policies {
		checkPolicy(c, policy, b)
	}
	for _, fn := range c.Functions {
		checkFunctionRolesAndPerms(c, fn, b)
		checkFunctionAudit(fn, b)
	}
	for _, fn := range c.Functions {
		checkFunctionClassifiedFields(c, fn, b)
	}

	return b
}

// checkRoleParentsExist is SEC001: every inherited parent role must exist.
func checkRoleParentsExist(c *Context, role *ast.Role, b *diagnostics.Builder) {
	for _, parent := range role.Parents {
		if _, ok := c.Roles[parent]; !ok {
			b.Error("SEC001", fmt.Sprintf("role %q inherits from unknown role %q", role.Name, parent), role.Span)
		}
	}
}

// checkRoleCycle is SEC002: no cycles in role inheritance, detected by DFS
// with a visited set per traversal.
func checkRoleCycle(c *Context, role *ast.Role, b *diagnostics.Builder) {
	visited := map[string]bool{}
	if hasCycle(c, role.Name, visited) {
		b.Error("SEC002", fmt.Sprintf("role %q has a cyclic inheritance chain", role.Name), role.Span)
	}
}

func hasCycle(c *Context, name string, visited map[string]bool) bool {
	if visited[name] {
		return true
	}
	visited[name] = true
	role, ok := c.Roles[name]
	if !ok {
		return false
	}
	for _, parent := range role.Parents {
		if hasCycle(c, parent, visited) {
			return true
		}
	}
	delete(visited, name)
	return false
}

// checkRolePermissionsExist is SEC003: permissions referenced by roles must
// exist.
func checkRolePermissionsExist(c *Context, role *ast.Role, b *diagnostics.Builder) {
	for _, p := range role.Permissions {
		if _, ok := c.Permissions[p]; !ok {
			b.Warning("SEC003", fmt.Sprintf("role %q references unknown permission %q", role.Name, p), role.Span)
		}
	}
}

// checkPolicy is SEC004/SEC005: policy rules reference existing roles
// (error) and permissions (warning).
func checkPolicy(c *Context, policy *ast.Policy, b *diagnostics.Builder) {
	for _, rule := range policy.Rules {
		for _, r := range rule.Roles {
			if _, ok := c.Roles[r]; !ok {
				b.Error("SEC004", fmt.Sprintf("policy %q rule references unknown role %q", policy.Name, r), policy.Span)
			}
		}
		for _, p := range rule.Permissions {
			if _, ok := c.Permissions[p]; !ok {
				b.Warning("SEC005", fmt.Sprintf("policy %q rule references unknown permission %q", policy.Name, p), policy.Span)
			}
		}
	}
}

// checkFunctionRolesAndPerms is SEC006/SEC007: a function's required roles
// must exist (error); required permissions must exist (warning).
func checkFunctionRolesAndPerms(c *Context, fn *ast.Function, b *diagnostics.Builder) {
	for _, r := range fn.RequiredRoles {
		if _, ok := c.Roles[r]; !ok {
			b.Error("SEC006", fmt.Sprintf("function %q requires unknown role %q", fn.Name, r), fn.Span)
		}
	}
	for _, p := range fn.RequiredPerms {
		if _, ok := c.Permissions[p]; !ok {
			b.Warning("SEC007", fmt.Sprintf("function %q requires unknown permission %q", fn.Name, p), fn.Span)
		}
	}
}

// checkFunctionAudit is SEC008: a function flagged as handling secrets
// without audit_required produces a warning with a hint.
func checkFunctionAudit(fn *ast.Function, b *diagnostics.Builder) {
	if fn.HandlesSecrets && !fn.AuditRequired {
		b.Warning("SEC008", fmt.Sprintf("function %q handles secrets but does not require audit", fn.Name), fn.Span)
		b.WithHint("set audit_required on functions that handle secrets")
	}
}

// checkFunctionClassifiedFields is SEC009: a type containing confidential or
// restricted fields, referenced as input or output by a non-auditing
// function, produces a warning.
func checkFunctionClassifiedFields(c *Context, fn *ast.Function, b *diagnostics.Builder) {
	if fn.AuditRequired {
		return
	}
	for _, param := range append(append([]ast.Param{}, fn.Inputs...), fn.Outputs...) {
		named, ok := param.Type.(ast.NamedType)
		if !ok {
			continue
		}
		t, ok := c.Types[named.Name]
		if !ok {
			continue
		}
		if Rank(TypeMaxClassification(t)) >= Rank(Confidential) {
			b.Warning("SEC009", fmt.Sprintf(
				"function %q references classified type %q without requiring audit", fn.Name, named.Name), fn.Span)
			return
		}
	}
}
