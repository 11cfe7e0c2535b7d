// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package compileropts implements the compiler context's recognized options
// (spec §4.10), loadable from a TOML project file, environment variables, or
// functional options, in that increasing order of precedence — the same
// layered-configuration shape cmd/build-metadata/main.go used for its
// action-input/env-var inputs, generalized to a typed struct instead of
// ad-hoc action.GetInput calls.
package compileropts

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sethvargo/go-envconfig"
)

// Options is the compiler context's options table (spec §4.10).
type Options struct {
	// StrictVersioning is reserved; currently unused but must be accepted.
	StrictVersioning bool `toml:"strict_versioning" env:"CORELANG_STRICT_VERSIONING"`

	// WarnOnDeprecated emits VER005 when registering a deprecated version.
	WarnOnDeprecated bool `toml:"warn_on_deprecated" env:"CORELANG_WARN_ON_DEPRECATED"`

	// RequireMigrations is reserved; currently unused.
	RequireMigrations bool `toml:"require_migrations" env:"CORELANG_REQUIRE_MIGRATIONS"`

	// AllowUnstableVersions suppresses VER006 for alpha/beta registrations.
	AllowUnstableVersions bool `toml:"allow_unstable_versions" env:"CORELANG_ALLOW_UNSTABLE_VERSIONS"`

	// AllowPermissionSubstringHeuristic gates the policy evaluator's dotted-
	// substring escape hatch (spec §4.9 step 3b). Defaults to true to match
	// the documented back-compat behavior; new policies should not rely on
	// it, hence the option to turn it off.
	AllowPermissionSubstringHeuristic bool `toml:"allow_permission_substring_heuristic" env:"CORELANG_ALLOW_PERMISSION_SUBSTRING_HEURISTIC"`
}

// Default returns the recognized options at their documented defaults.
func Default() Options {
	return Options{
		AllowPermissionSubstringHeuristic: true,
	}
}

// Option mutates an Options value; functional options take precedence over
// both the TOML file and the environment when applied last by the caller.
type Option func(*Options)

// WithStrictVersioning sets the reserved strict_versioning flag.
func WithStrictVersioning(v bool) Option { return func(o *Options) { o.StrictVersioning = v } }

// WithWarnOnDeprecated sets warn_on_deprecated.
func WithWarnOnDeprecated(v bool) Option { return func(o *Options) { o.WarnOnDeprecated = v } }

// WithRequireMigrations sets the reserved require_migrations flag.
func WithRequireMigrations(v bool) Option { return func(o *Options) { o.RequireMigrations = v } }

// WithAllowUnstableVersions sets allow_unstable_versions.
func WithAllowUnstableVersions(v bool) Option {
	return func(o *Options) { o.AllowUnstableVersions = v }
}

// WithAllowPermissionSubstringHeuristic sets the policy evaluator's
// substring-heuristic gate.
func WithAllowPermissionSubstringHeuristic(v bool) Option {
	return func(o *Options) { o.AllowPermissionSubstringHeuristic = v }
}

// LoadFile reads a TOML project file (e.g. `corelang.toml`) on top of
// Default, returning an error if the file exists but fails to parse.
func LoadFile(path string) (Options, error) {
	opts := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return opts, nil
	}
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, fmt.Errorf("compileropts: failed to parse %s: %w", path, err)
	}
	return opts, nil
}

// LoadEnv overlays environment variables (CORELANG_*) onto opts, in place.
func LoadEnv(ctx context.Context, opts *Options) error {
	if err := envconfig.Process(ctx, opts); err != nil {
		return fmt.Errorf("compileropts: failed to process environment: %w", err)
	}
	return nil
}

// Load composes the full precedence chain: defaults, then the TOML file (if
// present), then the environment, then any functional options supplied last.
func Load(ctx context.Context, tomlPath string, overrides ...Option) (Options, error) {
	opts, err := LoadFile(tomlPath)
	if err != nil {
		return Options{}, err
	}
	if err := LoadEnv(ctx, &opts); err != nil {
		return Options{}, err
	}
	for _, o := range overrides {
		o(&opts)
	}
	return opts, nil
}
