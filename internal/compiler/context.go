// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package compiler implements the compiler context of spec §4.11: module
// registration (wiring the security context, function/type version
// registries, and the migration registry, emitting VER001-VER010 and
// SEC001-SEC009 diagnostics), version-constraint resolution, and AST-to-
// bytecode compilation.
//
// The orchestration shape — fan a module's declarations out to per-concern
// registration passes, accumulate diagnostics, only then move to the next
// stage — follows cmd/build-metadata/main.go's detect -> extract -> validate
// -> output pipeline, generalized from "one project directory" to "one
// module's declarations".
package compiler

import (
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/compat"
	"github.com/corelang/corelang/internal/compileropts"
	"github.com/corelang/corelang/internal/diagnostics"
	"github.com/corelang/corelang/internal/migration"
	"github.com/corelang/corelang/internal/security"
	"github.com/corelang/corelang/internal/semver"
	"github.com/corelang/corelang/internal/versionregistry"
)

// Context is the compiler's registration and compilation state (spec §3.4).
// Registries are mutated only during RegisterModule; compilation and
// execution treat them as read-only, per spec §5's shared-resource policy.
type Context struct {
	Options Options

	Functions *versionregistry.Registry
	Types     *versionregistry.Registry
	Migration *migration.Registry
	Security  *security.Context

	// resolveGroup deduplicates concurrent identical version-constraint
	// resolutions made through ResolveFunctionVersion/ResolveTypeVersion
	// (the VM resolves calls through bytecode.ModuleRecord instead), the same
	// collapsing-duplicate-work technique
	// cmd/build-metadata/main.go applies to concurrent extractor runs.
	resolveGroup singleflight.Group
}

// Options aliases compileropts.Options so callers only need this package's
// import, not compileropts directly.
type Options = compileropts.Options

// New creates an empty Context.
func New(opts Options) *Context {
	return &Context{
		Options:   opts,
		Functions: versionregistry.New(),
		Types:     versionregistry.New(),
		Migration: migration.New(),
		Security:  security.NewContext(),
	}
}

// RegisterModule runs the full registration pass over m: functions and
// types into their version registries (emitting VER001-VER007; VER008-VER010
// come from ResolveFunctionVersion/ResolveTypeVersion), and
// roles/permissions/policies/functions/types into the security context
// (emitting SEC001-SEC009 via security.Analyze). Version registration
// errors prevent that single entity from registering but do not halt
// registration of the rest of the module, per spec §7's "errors prevent
// registration but do not halt compilation of other entities."
func (c *Context) RegisterModule(m *ast.Module) *diagnostics.Builder {
	b := diagnostics.NewBuilder()

	c.Security.RegisterModule(m)

	for _, el := range m.Elements {
		switch e := el.(type) {
		case *ast.Function:
			c.registerFunction(e, b)
		case *ast.TypeDef:
			c.registerType(e, b)
		}
	}

	b.Merge(security.Analyze(c.Security))
	return b
}

func (c *Context) registerFunction(fn *ast.Function, b *diagnostics.Builder) {
	v, err := semver.Parse(fn.VersionInfo.Version)
	if err != nil {
		b.Error("VER001", fmt.Sprintf("function %q has an invalid version %q: %v", fn.Name, fn.VersionInfo.Version, err), fn.Span)
		return
	}

	if _, exists := c.Functions.Lookup(fn.Name, v); exists {
		b.Warning("VER002", fmt.Sprintf("function %q version %s is already registered; overwriting", fn.Name, v.Key()), fn.Span)
	}

	var replaces *semver.Version
	if fn.VersionInfo.Replaces != "" {
		rv, err := semver.Parse(fn.VersionInfo.Replaces)
		if err != nil {
			b.Error("VER001", fmt.Sprintf("function %q replaces an invalid version %q: %v", fn.Name, fn.VersionInfo.Replaces, err), fn.Span)
			return
		}
		replaces = &rv
		if prior, ok := c.Functions.Lookup(fn.Name, rv); !ok {
			b.Warning("VER002", fmt.Sprintf("function %q replaces version %s, which is not yet registered", fn.Name, rv.Key()), fn.Span)
		} else if predFn, ok := prior.Node.(*ast.Function); ok {
			report := compat.CompareFunctions(predFn, fn)
			if report.Classification == compat.Breaking {
				// spec §4.10: VER004 warns with every breaking-change detail;
				// VER003 additionally fires as an error when the major version
				// did not increase across a breaking replacement.
				for _, change := range report.Changes {
					if change.Severity == compat.SeverityError {
						b.Warning("VER004", fmt.Sprintf("function %q %s -> %s: %s", fn.Name, rv.Key(), v.Key(), change.Message), fn.Span)
					}
				}
				if v.Major <= rv.Major {
					b.Error("VER003", fmt.Sprintf("function %q %s -> %s is a breaking change without a major version bump; suggested bump: %s", fn.Name, rv.Key(), v.Key(), compat.SuggestBump(report)), fn.Span)
				}
			}
		}
	}

	if fn.VersionInfo.Deprecated && c.Options.WarnOnDeprecated {
		b.Warning("VER005", fmt.Sprintf("function %q version %s is deprecated", fn.Name, v.Key()), fn.Span)
	}

	if !c.Options.AllowUnstableVersions && (fn.VersionInfo.Stability == ast.StabilityAlpha || fn.VersionInfo.Stability == ast.StabilityBeta) {
		b.Warning("VER006", fmt.Sprintf("function %q version %s has unstable stability %q", fn.Name, v.Key(), fn.VersionInfo.Stability), fn.Span)
	}

	if err := c.Functions.Register(versionregistry.VersionedEntity{
		Name:         fn.Name,
		Version:      v,
		Stability:    fn.VersionInfo.Stability,
		Node:         fn,
		Replaces:     replaces,
		RollbackSafe: fn.VersionInfo.RollbackSafe,
	}); err != nil {
		b.Error("VER001", err.Error(), fn.Span)
		return
	}
}

func (c *Context) registerType(td *ast.TypeDef, b *diagnostics.Builder) {
	v, err := semver.Parse(td.VersionInfo.Version)
	if err != nil {
		b.Error("VER001", fmt.Sprintf("type %q has an invalid version %q: %v", td.Name, td.VersionInfo.Version, err), td.Span)
		return
	}

	if _, exists := c.Types.Lookup(td.Name, v); exists {
		b.Warning("VER002", fmt.Sprintf("type %q version %s is already registered; overwriting", td.Name, v.Key()), td.Span)
	}

	var replaces *semver.Version
	if td.VersionInfo.Replaces != "" {
		rv, err := semver.Parse(td.VersionInfo.Replaces)
		if err != nil {
			b.Error("VER001", fmt.Sprintf("type %q replaces an invalid version %q: %v", td.Name, td.VersionInfo.Replaces, err), td.Span)
			return
		}
		replaces = &rv
		if prior, ok := c.Types.Lookup(td.Name, rv); !ok {
			b.Warning("VER002", fmt.Sprintf("type %q replaces version %s, which is not yet registered", td.Name, rv.Key()), td.Span)
		} else if predType, ok := prior.Node.(*ast.TypeDef); ok {
			report := compat.CompareTypes(predType, td)
			if report.Classification == compat.Breaking {
				// spec §4.10: "types use VER007" — the type-form equivalent of
				// VER004's breaking-change detail warnings.
				for _, change := range report.Changes {
					if change.Severity == compat.SeverityError {
						b.Warning("VER007", fmt.Sprintf("type %q %s -> %s: %s", td.Name, rv.Key(), v.Key(), change.Message), td.Span)
					}
				}
				if v.Major <= rv.Major {
					b.Error("VER003", fmt.Sprintf("type %q %s -> %s is a breaking change without a major version bump; suggested bump: %s", td.Name, rv.Key(), v.Key(), compat.SuggestBump(report)), td.Span)
				}
			}
		}
	}

	if td.VersionInfo.Deprecated && c.Options.WarnOnDeprecated {
		b.Warning("VER005", fmt.Sprintf("type %q version %s is deprecated", td.Name, v.Key()), td.Span)
	}
	if !c.Options.AllowUnstableVersions && (td.VersionInfo.Stability == ast.StabilityAlpha || td.VersionInfo.Stability == ast.StabilityBeta) {
		b.Warning("VER006", fmt.Sprintf("type %q version %s has unstable stability %q", td.Name, v.Key(), td.VersionInfo.Stability), td.Span)
	}

	if err := c.Types.Register(versionregistry.VersionedEntity{
		Name:         td.Name,
		Version:      v,
		Stability:    td.VersionInfo.Stability,
		Node:         td,
		Replaces:     replaces,
		RollbackSafe: td.VersionInfo.RollbackSafe,
	}); err != nil {
		b.Error("VER001", err.Error(), td.Span)
		return
	}
}

// ResolveError is a version-resolution failure carrying the VER code spec
// §4.10 assigns it, so callers (and tests) can branch on the code the way
// spec §4.10 specifies: "Error codes are part of the contract."
type ResolveError struct {
	Code    string
	Message string
}

func (e *ResolveError) Error() string { return fmt.Sprintf("[%s] %s", e.Code, e.Message) }

// ResolveFunctionVersion resolves constraint against the registered
// versions of name. An empty constraint resolves to "latest". Per spec
// §4.10, a constraint parse failure is VER008 and a registry miss is VER009.
func (c *Context) ResolveFunctionVersion(name, constraint string) (*versionregistry.VersionedEntity, error) {
	return c.resolveVersion(c.Functions, name, constraint, "VER008", "VER009")
}

// ResolveTypeVersion resolves constraint against the registered versions of
// name. Per spec §4.10, "types use VER010" for both failure modes.
func (c *Context) ResolveTypeVersion(name, constraint string) (*versionregistry.VersionedEntity, error) {
	return c.resolveVersion(c.Types, name, constraint, "VER010", "VER010")
}

func (c *Context) resolveVersion(reg *versionregistry.Registry, name, constraint, parseFailCode, noMatchCode string) (*versionregistry.VersionedEntity, error) {
	if constraint == "" {
		constraint = "latest"
	}
	con, err := semver.ParseConstraint(constraint)
	if err != nil {
		return nil, &ResolveError{Code: parseFailCode, Message: fmt.Sprintf("invalid version constraint %q for %q: %v", constraint, name, err)}
	}

	key := name + "@" + constraint
	v, err, _ := c.resolveGroup.Do(key, func() (interface{}, error) {
		return reg.Resolve(name, con)
	})
	if err != nil {
		return nil, &ResolveError{Code: noMatchCode, Message: fmt.Sprintf("no version of %q satisfies constraint %q: %v", name, constraint, err)}
	}
	return v.(*versionregistry.VersionedEntity), nil
}
