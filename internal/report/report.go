// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package report implements spec §6's `inspect(module, flags) -> report`:
// a serializable snapshot of a registered module's version chains, security
// posture, and accumulated diagnostics, dual-marshaled to JSON and YAML with
// round-trip validation the same way cmd/build-metadata/main.go's artifact
// stage validates the metadata it writes out.
package report

import (
	"fmt"

	"github.com/corelang/corelang/internal/compiler"
	"github.com/corelang/corelang/internal/diagnostics"
	"github.com/corelang/corelang/internal/migration"
	"github.com/corelang/corelang/internal/security"
	"github.com/corelang/corelang/internal/semver"
	"github.com/corelang/corelang/internal/versionregistry"
)

// Flag names recognized by Build, matching spec §6's `inspect` flags.
const (
	FlagVersions    = "versions"
	FlagSecurity    = "security"
	FlagDiagnostics = "diagnostics"
)

// Report is the top-level inspect() result. Only the sections named by the
// requested flags are populated; the rest are left nil so they marshal as
// absent (`omitempty`) rather than as a misleading empty value.
type Report struct {
	Module      string            `json:"module" yaml:"module"`
	Versions    *VersionsReport   `json:"versions,omitempty" yaml:"versions,omitempty"`
	Security    *SecurityReport   `json:"security,omitempty" yaml:"security,omitempty"`
	Diagnostics []DiagnosticEntry `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// VersionEntry describes one registered version of a named function or type.
type VersionEntry struct {
	Version        string `json:"version" yaml:"version"`
	Stability      string `json:"stability" yaml:"stability"`
	Replaces       string `json:"replaces,omitempty" yaml:"replaces,omitempty"`
	ReplacedBy     string `json:"replaced_by,omitempty" yaml:"replaced_by,omitempty"`
	RollbackSafe   bool   `json:"rollback_safe" yaml:"rollback_safe"`
	IsLatest       bool   `json:"is_latest" yaml:"is_latest"`
	IsLatestStable bool   `json:"is_latest_stable,omitempty" yaml:"is_latest_stable,omitempty"`
}

// EntityVersions collects every registered version of one name plus, for
// functions with at least two registered versions, the migration coverage
// over every ordered pair of those versions (spec §4.7's
// coverage_percentage/missing pairs).
type EntityVersions struct {
	Name     string           `json:"name" yaml:"name"`
	Versions []VersionEntry   `json:"versions" yaml:"versions"`
	Coverage *CoverageSummary `json:"migration_coverage,omitempty" yaml:"migration_coverage,omitempty"`
}

// CoverageSummary is the serializable form of migration.CoverageReport.
type CoverageSummary struct {
	TotalPairs         int         `json:"total_pairs" yaml:"total_pairs"`
	CoveredPairs       int         `json:"covered_pairs" yaml:"covered_pairs"`
	CoveragePercentage float64     `json:"coverage_percentage" yaml:"coverage_percentage"`
	MissingPairs       [][2]string `json:"missing_pairs,omitempty" yaml:"missing_pairs,omitempty"`
}

// VersionsReport is the `versions` flag's section: every registered
// function's and type's version chain.
type VersionsReport struct {
	Functions []EntityVersions `json:"functions" yaml:"functions"`
	Types     []EntityVersions `json:"types" yaml:"types"`
}

// RoleSummary describes one registered role's direct and inherited
// permissions.
type RoleSummary struct {
	Name                 string   `json:"name" yaml:"name"`
	Permissions          []string `json:"permissions" yaml:"permissions"`
	Parents              []string `json:"parents,omitempty" yaml:"parents,omitempty"`
	EffectivePermissions []string `json:"effective_permissions" yaml:"effective_permissions"`
}

// PolicyRuleSummary is the serializable form of one ast.PolicyRule.
type PolicyRuleSummary struct {
	Effect            string   `json:"effect" yaml:"effect"`
	Roles             []string `json:"roles" yaml:"roles"`
	Permissions       []string `json:"permissions" yaml:"permissions"`
	VersionConstraint string   `json:"version_constraint" yaml:"version_constraint"`
}

// PolicySummary is one registered policy in declaration order.
type PolicySummary struct {
	Name  string              `json:"name" yaml:"name"`
	Rules []PolicyRuleSummary `json:"rules" yaml:"rules"`
}

// AccessReportEntry is one role's bulk access evaluation (spec §4.9 derived
// reports), embedding security.AccessReport's totals without its
// per-function Decision type so this package marshals independently of the
// security package's internal representation.
type AccessReportEntry struct {
	Role    string   `json:"role" yaml:"role"`
	Allowed int      `json:"allowed" yaml:"allowed"`
	Denied  int      `json:"denied" yaml:"denied"`
	Access  []string `json:"accessible_functions" yaml:"accessible_functions"`
}

// PermissionSummary is one registered permission's classification metadata.
type PermissionSummary struct {
	Name           string `json:"name" yaml:"name"`
	Classification string `json:"classification,omitempty" yaml:"classification,omitempty"`
	AuditRequired  bool   `json:"audit_required" yaml:"audit_required"`
}

// SecurityReport is the `security` flag's section.
type SecurityReport struct {
	Roles        []RoleSummary       `json:"roles" yaml:"roles"`
	Permissions  []PermissionSummary `json:"permissions" yaml:"permissions"`
	Policies     []PolicySummary     `json:"policies" yaml:"policies"`
	AccessByRole []AccessReportEntry `json:"access_by_role" yaml:"access_by_role"`
}

// DiagnosticEntry is the serializable form of one diagnostics.Diagnostic.
type DiagnosticEntry struct {
	Severity string `json:"severity" yaml:"severity"`
	Code     string `json:"code,omitempty" yaml:"code,omitempty"`
	Message  string `json:"message" yaml:"message"`
	Line     int    `json:"line" yaml:"line"`
	Column   int    `json:"column" yaml:"column"`
	Hint     string `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// Build assembles a Report from ctx's registries and diags, including only
// the sections named in flags. An unrecognized flag is an error, matching
// spec §7's "validation layers accumulate, execution layers fail fast" for
// a caller-facing malformed request.
func Build(moduleName string, ctx *compiler.Context, diags *diagnostics.Builder, flags []string) (*Report, error) {
	r := &Report{Module: moduleName}

	for _, flag := range flags {
		switch flag {
		case FlagVersions:
			r.Versions = buildVersionsReport(ctx)
		case FlagSecurity:
			r.Security = buildSecurityReport(ctx)
		case FlagDiagnostics:
			r.Diagnostics = buildDiagnosticsReport(diags)
		default:
			return nil, fmt.Errorf("report: unrecognized inspect flag %q", flag)
		}
	}
	return r, nil
}

func buildVersionsReport(ctx *compiler.Context) *VersionsReport {
	return &VersionsReport{
		Functions: entityVersionsFor(ctx.Functions, ctx.Migration),
		Types:     entityVersionsFor(ctx.Types, nil),
	}
}

func entityVersionsFor(reg *versionregistry.Registry, mig *migration.Registry) []EntityVersions {
	names := reg.Names()
	out := make([]EntityVersions, 0, len(names))
	for _, name := range names {
		latest, _ := reg.LatestVersion(name)
		latestStable, hasStable := reg.LatestStableVersion(name)

		entities := reg.All(name)
		versions := make([]VersionEntry, 0, len(entities))
		for _, e := range entities {
			ve := VersionEntry{
				Version:      e.Version.String(),
				Stability:    string(e.Stability),
				RollbackSafe: e.RollbackSafe,
				IsLatest:     semver.Compare(e.Version, latest) == 0,
			}
			if e.Replaces != nil {
				ve.Replaces = e.Replaces.String()
			}
			if e.ReplacedBy != nil {
				ve.ReplacedBy = e.ReplacedBy.String()
			}
			if hasStable {
				ve.IsLatestStable = semver.Compare(e.Version, latestStable) == 0
			}
			versions = append(versions, ve)
		}

		ev := EntityVersions{Name: name, Versions: versions}
		if mig != nil {
			cov := mig.AnalyzeCoverage(name, reg)
			if cov.TotalPairs > 0 {
				ev.Coverage = coverageSummary(cov)
			}
		}
		out = append(out, ev)
	}
	return out
}

func coverageSummary(cov migration.CoverageReport) *CoverageSummary {
	missing := make([][2]string, 0, len(cov.MissingPairs))
	for _, pair := range cov.MissingPairs {
		missing = append(missing, [2]string{pair[0].String(), pair[1].String()})
	}
	return &CoverageSummary{
		TotalPairs:         cov.TotalPairs,
		CoveredPairs:       cov.CoveredPairs,
		CoveragePercentage: cov.CoveragePercentage,
		MissingPairs:       missing,
	}
}

func buildSecurityReport(ctx *compiler.Context) *SecurityReport {
	sec := ctx.Security
	opts := security.DefaultOptions()

	roles := make([]RoleSummary, 0, len(sec.Roles))
	roleNames := make([]string, 0, len(sec.Roles))
	for name, role := range sec.Roles {
		effective := sec.EffectivePermissions(name)
		perms := make([]string, 0, len(effective))
		for p := range effective {
			perms = append(perms, p)
		}
		roles = append(roles, RoleSummary{
			Name:                 name,
			Permissions:          role.Permissions,
			Parents:              role.Parents,
			EffectivePermissions: perms,
		})
		roleNames = append(roleNames, name)
	}

	permissions := make([]PermissionSummary, 0, len(sec.Permissions))
	for name, p := range sec.Permissions {
		permissions = append(permissions, PermissionSummary{
			Name:           name,
			Classification: p.Classification,
			AuditRequired:  p.AuditRequired,
		})
	}

	policies := make([]PolicySummary, 0, len(sec.PolicyOrder))
	for _, p := range sec.OrderedPolicies() {
		rules := make([]PolicyRuleSummary, 0, len(p.Rules))
		for _, rule := range p.Rules {
			rules = append(rules, PolicyRuleSummary{
				Effect:            rule.Effect,
				Roles:             rule.Roles,
				Permissions:       rule.Permissions,
				VersionConstraint: rule.VersionConstraint,
			})
		}
		policies = append(policies, PolicySummary{Name: p.Name, Rules: rules})
	}

	access := make([]AccessReportEntry, 0, len(roleNames))
	for _, name := range roleNames {
		ar := security.BuildAccessReport(sec, opts, name)
		access = append(access, AccessReportEntry{
			Role:    ar.Role,
			Allowed: ar.Allowed,
			Denied:  ar.Denied,
			Access:  security.AccessibleFunctions(sec, opts, name),
		})
	}

	return &SecurityReport{Roles: roles, Permissions: permissions, Policies: policies, AccessByRole: access}
}

func buildDiagnosticsReport(diags *diagnostics.Builder) []DiagnosticEntry {
	if diags == nil {
		return nil
	}
	ds := diags.Diagnostics()
	out := make([]DiagnosticEntry, 0, len(ds))
	for _, d := range ds {
		out = append(out, DiagnosticEntry{
			Severity: d.Severity.String(),
			Code:     d.Code,
			Message:  d.Message,
			Line:     d.Span.Start.Line,
			Column:   d.Span.Start.Column,
			Hint:     d.Hint,
		})
	}
	return out
}
