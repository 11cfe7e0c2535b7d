// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package security

import (
	"strings"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/semver"
)

// Decision is the result of a runtime policy evaluation (spec §4.9).
type Decision struct {
	Allowed bool
	Reason  string
}

func allowed(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func denied(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// Options gates optional evaluator behavior. AllowPermissionSubstringHeuristic
// defaults to true to preserve the documented escape hatch in spec §4.9 step
// 3b; new policies should not rely on it.
type Options struct {
	AllowPermissionSubstringHeuristic bool
}

// DefaultOptions returns the evaluator defaults.
func DefaultOptions() Options {
	return Options{AllowPermissionSubstringHeuristic: true}
}

// Evaluate implements the runtime policy evaluator of spec §4.9: given a
// role, a function name, and an optional function version, decide
// allow/deny with deny-precedence.
func Evaluate(c *Context, opts Options, role, fnName string, version *semver.Version) Decision {
	if _, ok := c.Roles[role]; !ok {
		return denied("role does not exist")
	}

	effectiveRoles := c.EffectiveRoles(role)

	var allows, denies []Decision

	for _, policy := range c.OrderedPolicies() {
		for _, rule := range policy.Rules {
			if !ruleMatches(c, opts, rule, effectiveRoles, fnName, version) {
				continue
			}
			reason := rule.Reason
			if reason == "" {
				reason = "policy " + policy.Name
			}
			if rule.Effect == "deny" {
				denies = append(denies, denied(reason))
			} else {
				allows = append(allows, allowed(reason))
			}
		}
	}

	if len(denies) > 0 {
		return denies[0]
	}
	if len(allows) > 0 {
		return allows[0]
	}

	if len(c.Policies) == 0 {
		fn, ok := c.Functions[fnName]
		if ok {
			for _, r := range fn.RequiredRoles {
				if effectiveRoles[r] {
					return allowed("back-compat: role listed in function's required roles")
				}
			}
		}
		return denied("no matching rule")
	}

	return denied("no matching rule")
}

// ruleMatches implements spec §4.9 step 3: a rule matches iff all of (a)
// some effective role appears in rule.Roles, (b) the permission check
// passes, and (c) the version constraint (if any) is satisfied.
func ruleMatches(c *Context, opts Options, rule ast.PolicyRule, effectiveRoles map[string]bool, fnName string, version *semver.Version) bool {
	roleMatch := false
	for _, r := range rule.Roles {
		if effectiveRoles[r] {
			roleMatch = true
			break
		}
	}
	if !roleMatch {
		return false
	}

	if !permissionMatches(c, opts, rule, fnName) {
		return false
	}

	return versionMatches(rule.VersionConstraint, version)
}

// permissionMatches implements step 3b: the referenced function exists and
// any of its required permissions is in rule.Permissions, OR — if the
// function lists no required permissions — the function name contains some
// dot-separated part of a permission string in the rule (the documented
// heuristic escape hatch, gated by Options).
func permissionMatches(c *Context, opts Options, rule ast.PolicyRule, fnName string) bool {
	fn, ok := c.Functions[fnName]
	if !ok {
		return false
	}

	if len(fn.RequiredPerms) > 0 {
		required := map[string]bool{}
		for _, p := range fn.RequiredPerms {
			required[p] = true
		}
		for _, p := range rule.Permissions {
			if required[p] {
				return true
			}
		}
		return false
	}

	if !opts.AllowPermissionSubstringHeuristic {
		return false
	}
	for _, p := range rule.Permissions {
		for _, part := range strings.Split(p, ".") {
			if part != "" && strings.Contains(fnName, part) {
				return true
			}
		}
	}
	return false
}

// versionMatches implements step 3c's constraint kinds: all, stable_only,
// specific([v…]), range("expr"). An empty constraint (no version gate
// declared) always matches.
func versionMatches(constraint string, version *semver.Version) bool {
	constraint = strings.TrimSpace(constraint)
	if constraint == "" || constraint == "all_versions" {
		return true
	}
	if version == nil {
		// A version-gated rule cannot match a call with no version supplied,
		// except the "all" case already handled above.
		return false
	}

	switch {
	case constraint == "stable_only":
		return version.IsStable()
	case strings.HasPrefix(constraint, "specific(") && strings.HasSuffix(constraint, ")"):
		inner := constraint[len("specific(") : len(constraint)-1]
		for _, raw := range strings.Split(inner, ",") {
			raw = strings.TrimSpace(raw)
			raw = strings.Trim(raw, `"`)
			if raw == "" {
				continue
			}
			v, err := semver.Parse(raw)
			if err != nil {
				continue
			}
			if semver.Compare(*version, v) == 0 {
				return true
			}
		}
		return false
	case strings.HasPrefix(constraint, "range(") && strings.HasSuffix(constraint, ")"):
		inner := strings.Trim(constraint[len("range(") : len(constraint)-1], `"`)
		c, err := semver.ParseConstraint(inner)
		if err != nil {
			return false
		}
		return semver.Satisfies(*version, c)
	default:
		return false
	}
}
