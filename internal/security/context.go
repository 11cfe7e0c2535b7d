// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package security implements the role/permission/policy data model (spec
// §3.5), the static security analyzer (§4.8), and the runtime policy
// evaluator (§4.9).
package security

import (
	"fmt"
	"sort"

	"github.com/corelang/corelang/internal/ast"
)

// Classification is one of corelang's four data-sensitivity levels, ordered
// ascending by restrictiveness.
type Classification string

const (
	Public       Classification = "public"
	Internal     Classification = "internal"
	Confidential Classification = "confidential"
	Restricted   Classification = "restricted"
)

// classificationOrder maps a classification to its ordinal for comparisons.
var classificationOrder = map[Classification]int{
	Public:       0,
	Internal:     1,
	Confidential: 2,
	Restricted:   3,
}

// Rank returns c's ordinal position in the total order public < internal <
// confidential < restricted. An unrecognized or empty string ranks as public.
func Rank(c Classification) int {
	if r, ok := classificationOrder[c]; ok {
		return r
	}
	return 0
}

// Context is the security subsystem's registry: roles, permissions,
// policies, and the functions/types they govern (spec §3.4).
type Context struct {
	Roles       map[string]*ast.Role
	Permissions map[string]*ast.Permission
	Policies    map[string]*ast.Policy
	Functions   map[string]*ast.Function
	Types       map[string]*ast.TypeDef

	// PolicyOrder preserves declaration order, since the runtime evaluator's
	// deny/allow precedence is defined over "the first match" (spec §4.9).
	PolicyOrder []string
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{
		Roles:       map[string]*ast.Role{},
		Permissions: map[string]*ast.Permission{},
		Policies:    map[string]*ast.Policy{},
		Functions:   map[string]*ast.Function{},
		Types:       map[string]*ast.TypeDef{},
	}
}

// RegisterModule is pass 1 of spec §4.8: register every role, permission,
// policy, function, and type declared in m.
func (c *Context) RegisterModule(m *ast.Module) {
	for _, el := range m.Elements {
		switch e := el.(type) {
		case *ast.Role:
			c.Roles[e.Name] = e
		case *ast.Permission:
			c.Permissions[e.Name] = e
		case *ast.Policy:
			if _, exists := c.Policies[e.Name]; !exists {
				c.PolicyOrder = append(c.PolicyOrder, e.Name)
			}
			c.Policies[e.Name] = e
		case *ast.Function:
			c.Functions[e.Name] = e
		case *ast.TypeDef:
			c.Types[e.Name] = e
		}
	}
}

// OrderedPolicies returns every registered policy: those listed in
// PolicyOrder first, in declaration order, then any policy present in
// Policies but absent from PolicyOrder, sorted by name.
func (c *Context) OrderedPolicies() []*ast.Policy {
	out := make([]*ast.Policy, 0, len(c.Policies))
	seen := map[string]bool{}
	for _, name := range c.PolicyOrder {
		if p, ok := c.Policies[name]; ok && !seen[name] {
			seen[name] = true
			out = append(out, p)
		}
	}
	rest := make([]string, 0, len(c.Policies)-len(seen))
	for name := range c.Policies {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	for _, name := range rest {
		out = append(out, c.Policies[name])
	}
	return out
}

// EffectivePermissions resolves a role's permissions plus every ancestor's,
// recursively, guarding against inheritance cycles with a visited set (spec
// §3.5: inheritance is permission-union).
func (c *Context) EffectivePermissions(roleName string) map[string]bool {
	perms := map[string]bool{}
	visited := map[string]bool{}
	c.collectPermissions(roleName, perms, visited)
	return perms
}

func (c *Context) collectPermissions(roleName string, perms, visited map[string]bool) {
	if visited[roleName] {
		return
	}
	visited[roleName] = true
	role, ok := c.Roles[roleName]
	if !ok {
		return
	}
	for _, p := range role.Permissions {
		perms[p] = true
	}
	for _, parent := range role.Parents {
		c.collectPermissions(parent, perms, visited)
	}
}

// EffectiveRoles returns roleName plus every ancestor reachable via
// inheritance, cycle-guarded (spec §4.9 step 2).
func (c *Context) EffectiveRoles(roleName string) map[string]bool {
	roles := map[string]bool{}
	c.collectRoles(roleName, roles)
	return roles
}

func (c *Context) collectRoles(roleName string, roles map[string]bool) {
	if roles[roleName] {
		return
	}
	roles[roleName] = true
	role, ok := c.Roles[roleName]
	if !ok {
		return
	}
	for _, parent := range role.Parents {
		c.collectRoles(parent, roles)
	}
}

// CanRoleAccessFunction implements the §4.8 access query: true iff the role
// or any ancestor is listed in the function's required roles, or the role
// (with inheritance) has any of the function's required permissions.
func (c *Context) CanRoleAccessFunction(roleName, fnName string) (bool, error) {
	fn, ok := c.Functions[fnName]
	if !ok {
		return false, fmt.Errorf("security: unknown function %q", fnName)
	}

	effectiveRoles := c.EffectiveRoles(roleName)
	for _, required := range fn.RequiredRoles {
		if effectiveRoles[required] {
			return true, nil
		}
	}

	effectivePerms := c.EffectivePermissions(roleName)
	for _, required := range fn.RequiredPerms {
		if effectivePerms[required] {
			return true, nil
		}
	}

	return false, nil
}

// TypeMaxClassification returns the ordinal-max classification over t's
// fields (spec §3.5's "maximum classification").
func TypeMaxClassification(t *ast.TypeDef) Classification {
	max := Public
	for _, f := range t.Fields {
		c := Classification(f.Classification)
		if Rank(c) > Rank(max) {
			max = c
		}
	}
	for _, v := range t.Variants {
		for _, f := range v.Fields {
			c := Classification(f.Classification)
			if Rank(c) > Rank(max) {
				max = c
			}
		}
	}
	return max
}
