// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package migration implements the migration registry of spec §4.7: records
// linking a function's successive versions, path construction along a
// version registry's replacement chain, and coverage analysis.
package migration

import (
	"sort"

	"github.com/corelang/corelang/internal/semver"
	"github.com/corelang/corelang/internal/versionregistry"
)

// Record is one registered migration between two versions of a function.
type Record struct {
	TargetFnName string
	From         semver.Version
	To           semver.Version
	Node         interface{} // the migration's AST/bytecode representation
	Issues       []string
	Validated    bool
}

// Registry holds every registered migration record, keyed by target
// function name.
type Registry struct {
	records map[string][]*Record
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{records: map[string][]*Record{}}
}

// Register appends a migration record for targetFnName.
func (r *Registry) Register(targetFnName string, from, to semver.Version, node interface{}) *Record {
	rec := &Record{TargetFnName: targetFnName, From: from, To: to, Node: node}
	r.records[targetFnName] = append(r.records[targetFnName], rec)
	return rec
}

// ValidatePredicate is the predicate a caller supplies to Validate — spec
// §3.4 leaves the exact check to the source/target function pair the caller
// has in hand (e.g. the migration's declared input/output types line up with
// the source and target function signatures).
type ValidatePredicate func(rec *Record) []string

// Validate runs pred against rec and records the resulting issues; rec is
// validated iff the issues list comes back empty.
func Validate(rec *Record, pred ValidatePredicate) {
	rec.Issues = pred(rec)
	rec.Validated = len(rec.Issues) == 0
}

// BuildPathResult is the outcome of BuildPath.
type BuildPathResult struct {
	Steps      []*Record
	IsComplete bool
}

// BuildPath walks the replacement chain for fnName starting at from, and for
// each consecutive pair on the chain, looks up a validated migration; it
// stops at the first missing step and reports IsComplete only if the last
// step's To equals the target `to`.
func (r *Registry) BuildPath(fnName string, from, to semver.Version, reg *versionregistry.Registry) BuildPathResult {
	chain := reg.ReplacementChainForward(fnName, from)
	var steps []*Record

	for i := 0; i+1 < len(chain); i++ {
		step := r.findValidated(fnName, chain[i], chain[i+1])
		if step == nil {
			break
		}
		steps = append(steps, step)
		if semver.Compare(chain[i+1], to) == 0 {
			return BuildPathResult{Steps: steps, IsComplete: true}
		}
	}

	return BuildPathResult{Steps: steps, IsComplete: false}
}

func (r *Registry) findValidated(fnName string, from, to semver.Version) *Record {
	for _, rec := range r.records[fnName] {
		if rec.Validated && semver.Compare(rec.From, from) == 0 && semver.Compare(rec.To, to) == 0 {
			return rec
		}
	}
	return nil
}

// CoverageReport is the result of analyzing how many ordered version pairs
// (v_i, v_j), i<j, of a function have a validated migration.
type CoverageReport struct {
	TotalPairs         int
	CoveredPairs       int
	CoveragePercentage float64
	MissingPairs       [][2]semver.Version
}

// AnalyzeCoverage enumerates ordered version pairs (v_i, v_j), i<j, from the
// entity's sorted registered versions and counts validated migrations that
// exactly cover each pair.
func (r *Registry) AnalyzeCoverage(fnName string, reg *versionregistry.Registry) CoverageReport {
	entities := reg.All(fnName)
	versions := make([]semver.Version, 0, len(entities))
	for _, e := range entities {
		versions = append(versions, e.Version)
	}
	sort.Slice(versions, func(i, j int) bool { return semver.Less(versions[i], versions[j]) })

	var report CoverageReport
	for i := 0; i < len(versions); i++ {
		for j := i + 1; j < len(versions); j++ {
			report.TotalPairs++
			if r.findValidated(fnName, versions[i], versions[j]) != nil {
				report.CoveredPairs++
			} else {
				report.MissingPairs = append(report.MissingPairs, [2]semver.Version{versions[i], versions[j]})
			}
		}
	}
	if report.TotalPairs > 0 {
		report.CoveragePercentage = 100 * float64(report.CoveredPairs) / float64(report.TotalPairs)
	}
	return report
}
