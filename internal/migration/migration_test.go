// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/semver"
	"github.com/corelang/corelang/internal/versionregistry"
)

func setupChain(t *testing.T) *versionregistry.Registry {
	t.Helper()
	reg := versionregistry.New()
	v1 := semver.MustParse("1.0.0")
	v2 := semver.MustParse("2.0.0")
	v3 := semver.MustParse("3.0.0")
	require.NoError(t, reg.Register(versionregistry.VersionedEntity{Name: "calc", Version: v1, Stability: ast.StabilityStable}))
	require.NoError(t, reg.Register(versionregistry.VersionedEntity{Name: "calc", Version: v2, Stability: ast.StabilityStable, Replaces: &v1}))
	require.NoError(t, reg.Register(versionregistry.VersionedEntity{Name: "calc", Version: v3, Stability: ast.StabilityStable, Replaces: &v2}))
	return reg
}

func alwaysValid(rec *Record) []string { return nil }

func TestBuildPathCompleteTwoSteps(t *testing.T) {
	reg := setupChain(t)
	m := New()

	r1 := m.Register("calc", semver.MustParse("1.0.0"), semver.MustParse("2.0.0"), nil)
	Validate(r1, alwaysValid)
	r2 := m.Register("calc", semver.MustParse("2.0.0"), semver.MustParse("3.0.0"), nil)
	Validate(r2, alwaysValid)

	result := m.BuildPath("calc", semver.MustParse("1.0.0"), semver.MustParse("3.0.0"), reg)
	assert.True(t, result.IsComplete)
	assert.Len(t, result.Steps, 2)
}

func TestBuildPathIncompleteAfterRemovingStep(t *testing.T) {
	reg := setupChain(t)
	m := New()

	r1 := m.Register("calc", semver.MustParse("1.0.0"), semver.MustParse("2.0.0"), nil)
	Validate(r1, alwaysValid)
	// v2->v3 migration never registered.

	result := m.BuildPath("calc", semver.MustParse("1.0.0"), semver.MustParse("3.0.0"), reg)
	assert.False(t, result.IsComplete)
	assert.Len(t, result.Steps, 1)
}

func TestValidatePopulatesIssuesAndValidatedFlag(t *testing.T) {
	m := New()
	rec := m.Register("calc", semver.MustParse("1.0.0"), semver.MustParse("2.0.0"), nil)

	Validate(rec, func(rec *Record) []string { return []string{"output type mismatch"} })
	assert.False(t, rec.Validated)
	assert.Equal(t, []string{"output type mismatch"}, rec.Issues)

	Validate(rec, alwaysValid)
	assert.True(t, rec.Validated)
	assert.Empty(t, rec.Issues)
}

func TestAnalyzeCoverageFullThenPartial(t *testing.T) {
	reg := setupChain(t)
	m := New()

	r1 := m.Register("calc", semver.MustParse("1.0.0"), semver.MustParse("2.0.0"), nil)
	Validate(r1, alwaysValid)
	r2 := m.Register("calc", semver.MustParse("2.0.0"), semver.MustParse("3.0.0"), nil)
	Validate(r2, alwaysValid)
	r3 := m.Register("calc", semver.MustParse("1.0.0"), semver.MustParse("3.0.0"), nil)
	Validate(r3, alwaysValid)

	report := m.AnalyzeCoverage("calc", reg)
	assert.Equal(t, 3, report.TotalPairs)
	assert.Equal(t, 3, report.CoveredPairs)
	assert.InDelta(t, 100.0, report.CoveragePercentage, 0.001)
	assert.Empty(t, report.MissingPairs)

	m2 := New()
	r4 := m2.Register("calc", semver.MustParse("1.0.0"), semver.MustParse("2.0.0"), nil)
	Validate(r4, alwaysValid)
	report2 := m2.AnalyzeCoverage("calc", reg)
	assert.Equal(t, 3, report2.TotalPairs)
	assert.Equal(t, 1, report2.CoveredPairs)
	assert.Len(t, report2.MissingPairs, 2)
}
