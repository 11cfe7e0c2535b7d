// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package semver

import (
	"fmt"
	"regexp"
	"strings"
)

// ConstraintKind tags which of the spec §3.3 constraint shapes a Constraint
// holds.
type ConstraintKind int

const (
	Exact ConstraintKind = iota
	Caret
	Tilde
	Range
	LatestKind
	StableKind
	AnyKind
)

// Constraint is one parsed version constraint. Only the fields relevant to
// Kind are populated.
type Constraint struct {
	Kind ConstraintKind

	// Exact, Caret, Tilde
	Version Version

	// Range
	Min          *Version
	Max          *Version
	MinInclusive bool
	MaxInclusive bool
}

var rangeOperatorPattern = regexp.MustCompile(`^(>=|>)?\s*([^\s<>=]+)?\s*(<=|<)?\s*([^\s<>=]+)?$`)

// ParseConstraint parses a constraint string per spec §4.4's grammar:
//
//	latest, *              -> latest
//	stable, stable-only     -> stable
//	any, all-versions       -> any
//	^V                      -> caret
//	~V                      -> tilde
//	V (bare)                -> exact
//	(>=|>)? V (<=|<)? V?    -> range
//
// The caret/tilde-to-range expansion technique (operator regex, then rewrite
// to an inclusive lower / exclusive upper pair) is the one
// internal/pyversions/constraints.go used for Poetry-style "^"/"~=" operators;
// here the expansion is computed lazily by Satisfies rather than rewritten
// into a string, since corelang constraints carry parsed Versions, not text.
func ParseConstraint(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "latest", "*":
		return Constraint{Kind: LatestKind}, nil
	case "stable", "stable-only":
		return Constraint{Kind: StableKind}, nil
	case "any", "all-versions":
		return Constraint{Kind: AnyKind}, nil
	}

	if strings.HasPrefix(s, "^") {
		v, err := Parse(s[1:])
		if err != nil {
			return Constraint{}, fmt.Errorf("semver: invalid caret constraint %q: %w", s, err)
		}
		return Constraint{Kind: Caret, Version: v}, nil
	}
	if strings.HasPrefix(s, "~") {
		v, err := Parse(s[1:])
		if err != nil {
			return Constraint{}, fmt.Errorf("semver: invalid tilde constraint %q: %w", s, err)
		}
		return Constraint{Kind: Tilde, Version: v}, nil
	}

	if !strings.ContainsAny(s, "<>") {
		v, err := Parse(s)
		if err != nil {
			return Constraint{}, fmt.Errorf("semver: invalid constraint %q: %w", s, err)
		}
		return Constraint{Kind: Exact, Version: v}, nil
	}

	return parseRange(s)
}

// parseRange parses `(>=|>)? V (<=|<)? V?` into a Range constraint.
func parseRange(s string) (Constraint, error) {
	m := rangeOperatorPattern.FindStringSubmatch(s)
	if m == nil {
		return Constraint{}, fmt.Errorf("semver: invalid range constraint %q", s)
	}

	c := Constraint{Kind: Range}
	lowOp, lowVer, highOp, highVer := m[1], m[2], m[3], m[4]

	if lowVer != "" {
		v, err := Parse(lowVer)
		if err != nil {
			return Constraint{}, fmt.Errorf("semver: invalid range lower bound in %q: %w", s, err)
		}
		c.Min = &v
		c.MinInclusive = lowOp == ">="
	}
	if highVer != "" {
		v, err := Parse(highVer)
		if err != nil {
			return Constraint{}, fmt.Errorf("semver: invalid range upper bound in %q: %w", s, err)
		}
		c.Max = &v
		c.MaxInclusive = highOp == "<="
	}
	if c.Min == nil && c.Max == nil {
		return Constraint{}, fmt.Errorf("semver: range constraint %q has no bounds", s)
	}
	return c, nil
}

// Satisfies reports whether v matches c. `latest` is vacuously true here —
// resolving "the" latest version among candidates is the registry's job
// (internal/versionregistry), not the constraint's.
func Satisfies(v Version, c Constraint) bool {
	switch c.Kind {
	case LatestKind, AnyKind:
		return true
	case StableKind:
		return v.IsStable()
	case Exact:
		return Compare(v, c.Version) == 0
	case Caret:
		return !Less(v, c.Version) && Less(v, NextMajor(c.Version))
	case Tilde:
		return !Less(v, c.Version) && Less(v, NextMinor(c.Version))
	case Range:
		if c.Min != nil {
			cmp := Compare(v, *c.Min)
			if c.MinInclusive {
				if cmp < 0 {
					return false
				}
			} else if cmp <= 0 {
				return false
			}
		}
		if c.Max != nil {
			cmp := Compare(v, *c.Max)
			if c.MaxInclusive {
				if cmp > 0 {
					return false
				}
			} else if cmp >= 0 {
				return false
			}
		}
		return true
	default:
		return false
	}
}
