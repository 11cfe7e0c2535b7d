// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package compat implements the compatibility analyzer of spec §4.6: given
// an old and new version of a function or type, classify the change and
// suggest a version bump.
package compat

import (
	"fmt"

	"github.com/corelang/corelang/internal/ast"
)

// Classification is the overall verdict for a compared pair.
type Classification int

const (
	FullyCompatible Classification = iota
	BackwardCompatible
	Breaking
)

func (c Classification) String() string {
	switch c {
	case FullyCompatible:
		return "fully-compatible"
	case BackwardCompatible:
		return "backward-compatible"
	case Breaking:
		return "breaking"
	default:
		return "unknown"
	}
}

// ChangeSeverity tags one detected Change.
type ChangeSeverity int

const (
	SeverityError ChangeSeverity = iota
	SeverityWarning
	SeverityNote
)

// Change is one detected difference between old and new.
type Change struct {
	Severity ChangeSeverity
	Message  string
}

// Report is the full result of comparing a function or type pair.
type Report struct {
	Classification Classification
	Changes        []Change
}

// classificationRank orders the four field classifications from least to
// most restrictive, for the "classification increase/decrease" rule.
var classificationRank = map[string]int{
	"":             0,
	"public":       1,
	"internal":     2,
	"confidential": 3,
	"restricted":   4,
}

// CompareFunctions classifies the change from old to new per spec §4.6.
func CompareFunctions(old, new_ *ast.Function) Report {
	var changes []Change

	changes = append(changes, compareParams(old.Inputs, new_.Inputs, "input")...)
	changes = append(changes, compareParams(old.Outputs, new_.Outputs, "output")...)
	changes = append(changes, compareEffects(old.Effects, new_.Effects)...)
	changes = append(changes, compareSecurity(old, new_)...)

	if old.Pure && !new_.Pure {
		changes = append(changes, Change{SeverityError, "purity lost: function is no longer pure"})
	}

	return classify(changes)
}

// compareParams detects removal, type change, and required-addition over an
// ordered parameter list (inputs or outputs), matched positionally by name.
func compareParams(oldParams, newParams []ast.Param, kind string) []Change {
	var changes []Change

	byName := make(map[string]ast.Param, len(newParams))
	for _, p := range newParams {
		byName[p.Name] = p
	}

	for _, op := range oldParams {
		np, ok := byName[op.Name]
		if !ok {
			changes = append(changes, Change{SeverityError,
				fmt.Sprintf("%s parameter %q removed", kind, op.Name)})
			continue
		}
		if op.Type.String() != np.Type.String() {
			changes = append(changes, Change{SeverityError,
				fmt.Sprintf("%s parameter %q type changed from %s to %s", kind, op.Name, op.Type, np.Type)})
		}
	}

	oldByName := make(map[string]bool, len(oldParams))
	for _, p := range oldParams {
		oldByName[p.Name] = true
	}
	for i, np := range newParams {
		if oldByName[np.Name] {
			continue
		}
		if i >= len(oldParams) && !np.Optional {
			changes = append(changes, Change{SeverityError,
				fmt.Sprintf("required %s parameter %q added", kind, np.Name)})
		}
	}
	return changes
}

// compareEffects detects added (breaking) and removed (warning) effect refs.
func compareEffects(old, new_ []ast.EffectRef) []Change {
	var changes []Change
	key := func(e ast.EffectRef) string { return e.EffectType + "." + e.Target }

	oldSet := make(map[string]bool, len(old))
	for _, e := range old {
		oldSet[key(e)] = true
	}
	newSet := make(map[string]bool, len(new_))
	for _, e := range new_ {
		newSet[key(e)] = true
	}

	for _, e := range new_ {
		if !oldSet[key(e)] {
			changes = append(changes, Change{SeverityError, fmt.Sprintf("effect %s added", key(e))})
		}
	}
	for _, e := range old {
		if !newSet[key(e)] {
			changes = append(changes, Change{SeverityWarning, fmt.Sprintf("effect %s removed", key(e))})
		}
	}
	return changes
}

// compareSecurity detects stricter (breaking) and looser (warning) role
// requirements, and an audit flip (warning).
func compareSecurity(old, new_ *ast.Function) []Change {
	var changes []Change

	oldRoles := toSet(old.RequiredRoles)
	newRoles := toSet(new_.RequiredRoles)
	oldPerms := toSet(old.RequiredPerms)
	newPerms := toSet(new_.RequiredPerms)

	for r := range newRoles {
		if !oldRoles[r] {
			changes = append(changes, Change{SeverityError, fmt.Sprintf("security stricter: new required role %q", r)})
		}
	}
	for p := range newPerms {
		if !oldPerms[p] {
			changes = append(changes, Change{SeverityError, fmt.Sprintf("security stricter: new required permission %q", p)})
		}
	}
	for r := range oldRoles {
		if !newRoles[r] {
			changes = append(changes, Change{SeverityWarning, fmt.Sprintf("security looser: role %q no longer required", r)})
		}
	}

	if !old.AuditRequired && new_.AuditRequired {
		changes = append(changes, Change{SeverityWarning, "security stricter: audit now required"})
	}

	return changes
}

func toSet(ss []string) map[string]bool {
	out := make(map[string]bool, len(ss))
	for _, s := range ss {
		out[s] = true
	}
	return out
}

// CompareTypes classifies a TypeDef field-level change per spec §4.6: field
// removal is breaking, field type change is breaking, classification
// increase/decrease is a warning, field addition is a note.
func CompareTypes(old, new_ *ast.TypeDef) Report {
	var changes []Change

	byName := make(map[string]ast.Param, len(new_.Fields))
	for _, f := range new_.Fields {
		byName[f.Name] = f
	}
	oldByName := make(map[string]ast.Param, len(old.Fields))
	for _, f := range old.Fields {
		oldByName[f.Name] = f
	}

	for _, of := range old.Fields {
		nf, ok := byName[of.Name]
		if !ok {
			changes = append(changes, Change{SeverityError, fmt.Sprintf("field %q removed", of.Name)})
			continue
		}
		if of.Type.String() != nf.Type.String() {
			changes = append(changes, Change{SeverityError,
				fmt.Sprintf("field %q type changed from %s to %s", of.Name, of.Type, nf.Type)})
		}
		oldRank := classificationRank[of.Classification]
		newRank := classificationRank[nf.Classification]
		if newRank > oldRank {
			changes = append(changes, Change{SeverityWarning,
				fmt.Sprintf("field %q classification increased from %q to %q", of.Name, of.Classification, nf.Classification)})
		} else if newRank < oldRank {
			changes = append(changes, Change{SeverityWarning,
				fmt.Sprintf("field %q classification decreased from %q to %q", of.Name, of.Classification, nf.Classification)})
		}
	}

	for _, nf := range new_.Fields {
		if _, ok := oldByName[nf.Name]; !ok {
			changes = append(changes, Change{SeverityNote, fmt.Sprintf("field %q added", nf.Name)})
		}
	}

	return classify(changes)
}

// classify derives the overall Classification from the accumulated changes:
// any error makes it breaking, any warning (with no errors) makes it
// backward-compatible, otherwise fully compatible.
func classify(changes []Change) Report {
	hasError := false
	hasWarning := false
	for _, c := range changes {
		switch c.Severity {
		case SeverityError:
			hasError = true
		case SeverityWarning:
			hasWarning = true
		}
	}
	switch {
	case hasError:
		return Report{Classification: Breaking, Changes: changes}
	case hasWarning:
		return Report{Classification: BackwardCompatible, Changes: changes}
	default:
		return Report{Classification: FullyCompatible, Changes: changes}
	}
}

// SuggestBump returns the version-bump component the report's classification
// implies: major for breaking, minor for anything else that changed
// (warnings or backward-compatible notes), patch otherwise.
func SuggestBump(r Report) string {
	switch r.Classification {
	case Breaking:
		return "major"
	case BackwardCompatible:
		return "minor"
	default:
		if len(r.Changes) > 0 {
			return "minor"
		}
		return "patch"
	}
}
