// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package compileropts

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHasPermissionHeuristicOn(t *testing.T) {
	opts := Default()
	assert.True(t, opts.AllowPermissionSubstringHeuristic)
	assert.False(t, opts.WarnOnDeprecated)
}

func TestLoadFileMissingReturnsDefaults(t *testing.T) {
	opts, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), opts)
}

func TestLoadFileParsesTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corelang.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
warn_on_deprecated = true
allow_unstable_versions = true
`), 0o644))

	opts, err := LoadFile(path)
	require.NoError(t, err)
	assert.True(t, opts.WarnOnDeprecated)
	assert.True(t, opts.AllowUnstableVersions)
}

func TestLoadFileInvalidTOMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "corelang.toml")
	require.NoError(t, os.WriteFile(path, []byte(`not valid toml :::`), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestFunctionalOptionsOverrideFile(t *testing.T) {
	opts, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.toml"),
		WithWarnOnDeprecated(true),
		WithAllowPermissionSubstringHeuristic(false))
	require.NoError(t, err)
	assert.True(t, opts.WarnOnDeprecated)
	assert.False(t, opts.AllowPermissionSubstringHeuristic)
}
