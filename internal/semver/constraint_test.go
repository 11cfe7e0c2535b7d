// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package semver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConstraintKeywords(t *testing.T) {
	cases := map[string]ConstraintKind{
		"latest":      LatestKind,
		"*":           LatestKind,
		"stable":      StableKind,
		"stable-only": StableKind,
		"any":         AnyKind,
		"all-versions": AnyKind,
	}
	for in, want := range cases {
		c, err := ParseConstraint(in)
		require.NoError(t, err)
		assert.Equal(t, want, c.Kind, "constraint %q", in)
	}
}

func TestParseConstraintExact(t *testing.T) {
	c, err := ParseConstraint("1.2.3")
	require.NoError(t, err)
	assert.Equal(t, Exact, c.Kind)
	assert.Equal(t, MustParse("1.2.3"), c.Version)
}

func TestParseConstraintCaret(t *testing.T) {
	c, err := ParseConstraint("^1.2.0")
	require.NoError(t, err)
	assert.Equal(t, Caret, c.Kind)
	assert.True(t, Satisfies(MustParse("1.2.0"), c))
	assert.True(t, Satisfies(MustParse("1.9.9"), c))
	assert.False(t, Satisfies(MustParse("2.0.0"), c))
	assert.False(t, Satisfies(MustParse("1.1.9"), c))
}

func TestParseConstraintTilde(t *testing.T) {
	c, err := ParseConstraint("~1.2.0")
	require.NoError(t, err)
	assert.Equal(t, Tilde, c.Kind)
	assert.True(t, Satisfies(MustParse("1.2.5"), c))
	assert.False(t, Satisfies(MustParse("1.3.0"), c))
	assert.False(t, Satisfies(MustParse("1.1.9"), c))
}

func TestParseConstraintRangeBothBoundsInclusive(t *testing.T) {
	c, err := ParseConstraint(">=1.0.0 <=2.0.0")
	require.NoError(t, err)
	assert.Equal(t, Range, c.Kind)
	assert.True(t, Satisfies(MustParse("1.0.0"), c))
	assert.True(t, Satisfies(MustParse("2.0.0"), c))
	assert.True(t, Satisfies(MustParse("1.5.0"), c))
	assert.False(t, Satisfies(MustParse("2.0.1"), c))
	assert.False(t, Satisfies(MustParse("0.9.0"), c))
}

func TestParseConstraintRangeExclusiveUpper(t *testing.T) {
	c, err := ParseConstraint(">=1.0.0 <2.0.0")
	require.NoError(t, err)
	assert.True(t, Satisfies(MustParse("1.9.9"), c))
	assert.False(t, Satisfies(MustParse("2.0.0"), c))
}

func TestParseConstraintRangeLowerOnly(t *testing.T) {
	c, err := ParseConstraint(">1.0.0")
	require.NoError(t, err)
	assert.False(t, Satisfies(MustParse("1.0.0"), c))
	assert.True(t, Satisfies(MustParse("1.0.1"), c))
}

func TestParseConstraintStableSatisfies(t *testing.T) {
	c, err := ParseConstraint("stable")
	require.NoError(t, err)
	assert.True(t, Satisfies(MustParse("1.0.0"), c))
	assert.False(t, Satisfies(MustParse("1.0.0-beta"), c))
}

func TestParseConstraintInvalid(t *testing.T) {
	_, err := ParseConstraint("^not-a-version")
	assert.Error(t, err)

	_, err = ParseConstraint("~also-bad")
	assert.Error(t, err)

	_, err = ParseConstraint("garbage!!!")
	assert.Error(t, err)
}

func TestSatisfiesLatestAndAnyAlwaysTrue(t *testing.T) {
	latest, _ := ParseConstraint("latest")
	any_, _ := ParseConstraint("any")
	v := MustParse("0.0.1-alpha")
	assert.True(t, Satisfies(v, latest))
	assert.True(t, Satisfies(v, any_))
}
