// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package security

import "github.com/corelang/corelang/internal/semver"

// FunctionDecision pairs a function name with its evaluated Decision.
type FunctionDecision struct {
	FunctionName string
	Decision     Decision
}

// AccessReport is the derived bulk-evaluation report of spec §4.9: totals
// plus a per-function decision breakdown for one role.
type AccessReport struct {
	Role        string
	Allowed     int
	Denied      int
	PerFunction []FunctionDecision
}

// EvaluateBulk evaluates role against every name in fnNames, with no
// version constraint supplied (equivalent to resolving against a caller's
// already-chosen function version).
func EvaluateBulk(c *Context, opts Options, role string, fnNames []string) []FunctionDecision {
	out := make([]FunctionDecision, 0, len(fnNames))
	for _, name := range fnNames {
		out = append(out, FunctionDecision{FunctionName: name, Decision: Evaluate(c, opts, role, name, nil)})
	}
	return out
}

// AccessibleFunctions returns the names of every registered function role
// can access.
func AccessibleFunctions(c *Context, opts Options, role string) []string {
	var out []string
	for name := range c.Functions {
		if Evaluate(c, opts, role, name, nil).Allowed {
			out = append(out, name)
		}
	}
	return out
}

// BuildAccessReport evaluates role against every registered function and
// summarizes totals alongside the per-function breakdown.
func BuildAccessReport(c *Context, opts Options, role string) AccessReport {
	names := make([]string, 0, len(c.Functions))
	for name := range c.Functions {
		names = append(names, name)
	}
	decisions := EvaluateBulk(c, opts, role, names)

	report := AccessReport{Role: role, PerFunction: decisions}
	for _, d := range decisions {
		if d.Decision.Allowed {
			report.Allowed++
		} else {
			report.Denied++
		}
	}
	return report
}

// EvaluateVersioned is Evaluate with an explicit function version, exposed
// separately so callers resolving a specific version (e.g. the VM before a
// CALL) don't need to construct a *semver.Version by hand for the common
// no-version case.
func EvaluateVersioned(c *Context, opts Options, role, fnName string, version semver.Version) Decision {
	return Evaluate(c, opts, role, fnName, &version)
}
