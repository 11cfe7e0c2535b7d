// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package semver implements the version algebra of spec §4.4: parsing,
// canonical formatting, ordering, and constraint satisfaction for corelang's
// `major.minor.patch[-prerelease][+build]` version strings (optionally
// `:`-prefixed, as they appear in version-marker tokens).
//
// Ordering of the (major, minor, patch) triple delegates to
// golang.org/x/mod/semver once a version has been normalized to semver's
// canonical "vX.Y.Z" form; the prerelease tie-break is applied separately
// because corelang's rule (plain lexicographic string comparison) is
// deliberately simpler than full SemVer 2.0 prerelease precedence.
package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	xsemver "golang.org/x/mod/semver"
)

// Version is a parsed corelang version string.
type Version struct {
	Major      int
	Minor      int
	Patch      int
	Prerelease string // without leading '-'; "" if absent
	Build      string // without leading '+'; "" if absent
}

var versionPattern = regexp.MustCompile(
	`^v?(\d+)(?:\.(\d+))?(?:\.(\d+))?(?:-([A-Za-z0-9.\-]+))?(?:\+([A-Za-z0-9.\-]+))?$`,
)

// Parse parses a corelang version string. A leading ':' is stripped first (so
// version-marker token values like ":v1.2.3" parse directly); missing minor
// and patch components default to 0.
func Parse(s string) (Version, error) {
	s = strings.TrimPrefix(s, ":")
	m := versionPattern.FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("semver: invalid version string %q", s)
	}
	major, err := strconv.Atoi(m[1])
	if err != nil {
		return Version{}, fmt.Errorf("semver: invalid major component in %q: %w", s, err)
	}
	minor := 0
	if m[2] != "" {
		minor, err = strconv.Atoi(m[2])
		if err != nil {
			return Version{}, fmt.Errorf("semver: invalid minor component in %q: %w", s, err)
		}
	}
	patch := 0
	if m[3] != "" {
		patch, err = strconv.Atoi(m[3])
		if err != nil {
			return Version{}, fmt.Errorf("semver: invalid patch component in %q: %w", s, err)
		}
	}
	return Version{Major: major, Minor: minor, Patch: patch, Prerelease: m[4], Build: m[5]}, nil
}

// MustParse parses s and panics on error; reserved for tests and constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String renders "M.m.p[-pre][+build]", the general format function.
func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// Key returns the canonical registry key "M.m.p[-pre]" (spec §3.4); build
// metadata is never part of the key since it is ignored for ordering and
// identity.
func (v Version) Key() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	return s
}

// semverTriple renders just the "vX.Y.Z" form x/mod/semver expects.
func (v Version) semverTriple() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 per spec §3.3: lexicographic on the
// (major,minor,patch) triple, then the prerelease rule (no-prerelease beats
// same-triple-with-prerelease; prereleases compare lexicographically to each
// other). Build metadata never affects ordering.
func Compare(a, b Version) int {
	if c := xsemver.Compare(a.semverTriple(), b.semverTriple()); c != 0 {
		return c
	}
	if a.Prerelease == "" && b.Prerelease == "" {
		return 0
	}
	if a.Prerelease == "" {
		return 1
	}
	if b.Prerelease == "" {
		return -1
	}
	return strings.Compare(a.Prerelease, b.Prerelease)
}

// Less reports whether a orders strictly before b.
func Less(a, b Version) bool { return Compare(a, b) < 0 }

// Max returns the greater of a and b; ties return a.
func Max(a, b Version) Version {
	if Compare(b, a) > 0 {
		return b
	}
	return a
}

// NextMajor returns the version that bounds a caret constraint's upper edge:
// {major+1, 0, 0}.
func NextMajor(v Version) Version {
	return Version{Major: v.Major + 1}
}

// NextMinor returns the version that bounds a tilde constraint's upper edge:
// {major, minor+1, 0}.
func NextMinor(v Version) Version {
	return Version{Major: v.Major, Minor: v.Minor + 1}
}

// IsStable reports whether v has no prerelease tag (the `stable` constraint's
// predicate, spec §3.4).
func (v Version) IsStable() bool {
	return v.Prerelease == ""
}
