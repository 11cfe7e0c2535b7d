// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corelang/internal/compiler"
	"github.com/corelang/corelang/internal/compileropts"
	"github.com/corelang/corelang/internal/diagnostics"
	"github.com/corelang/corelang/internal/lexer"
	"github.com/corelang/corelang/internal/parser"
)

func registerModule(t *testing.T, src string) (*compiler.Context, *diagnostics.Builder) {
	t.Helper()
	toks := lexer.Tokenize(src)
	mod, err := parser.Parse(toks)
	require.NoError(t, err)

	ctx := compiler.New(compileropts.Default())
	diags := ctx.RegisterModule(mod)
	return ctx, diags
}

func TestBuildRejectsUnrecognizedFlag(t *testing.T) {
	ctx, diags := registerModule(t, `(mod test (fn f :v1 :inputs [] :outputs [] (body 0)))`)
	_, err := Build("test", ctx, diags, []string{"bogus"})
	assert.Error(t, err)
}

func TestVersionsReportTracksReplacementChain(t *testing.T) {
	ctx, diags := registerModule(t, `
		(mod test
			(fn calc :v1.0.0 :inputs [] :outputs [] (body 0))
			(fn calc :v2.0.0 :replaces :v1.0.0 :inputs [] :outputs [] (body 0)))`)

	r, err := Build("test", ctx, diags, []string{FlagVersions})
	require.NoError(t, err)
	require.NotNil(t, r.Versions)
	require.Len(t, r.Versions.Functions, 1)

	calc := r.Versions.Functions[0]
	assert.Equal(t, "calc", calc.Name)
	assert.Len(t, calc.Versions, 2)

	var v1, v2 *VersionEntry
	for i := range calc.Versions {
		switch calc.Versions[i].Version {
		case "1.0.0":
			v1 = &calc.Versions[i]
		case "2.0.0":
			v2 = &calc.Versions[i]
		}
	}
	require.NotNil(t, v1)
	require.NotNil(t, v2)
	assert.Equal(t, "2.0.0", v1.ReplacedBy)
	assert.Equal(t, "1.0.0", v2.Replaces)
	assert.True(t, v2.IsLatest)
	assert.False(t, v1.IsLatest)
}

func TestSecurityReportDenyPrecedence(t *testing.T) {
	ctx, diags := registerModule(t, `
		(mod test
			(role user :permissions [data.access])
			(fn access_data :v1 :permissions [data.access] :inputs [] :outputs [(s :string)] (body "ok"))
			(policy default
				(rule :effect allow :roles [user] :permissions [data.access] :version_constraint all_versions)
				(rule :effect deny :roles [user] :permissions [data.access] :version_constraint all_versions)))`)

	r, err := Build("test", ctx, diags, []string{FlagSecurity})
	require.NoError(t, err)
	require.NotNil(t, r.Security)
	require.Len(t, r.Security.Policies, 1)
	require.Len(t, r.Security.Policies[0].Rules, 2)
	assert.Equal(t, "allow", r.Security.Policies[0].Rules[0].Effect)
	assert.Equal(t, "deny", r.Security.Policies[0].Rules[1].Effect)

	require.Len(t, r.Security.AccessByRole, 1)
	assert.Equal(t, "user", r.Security.AccessByRole[0].Role)
	assert.Equal(t, 0, r.Security.AccessByRole[0].Allowed)
	assert.Equal(t, 1, r.Security.AccessByRole[0].Denied)
}

func TestDiagnosticsReportCarriesVersioningWarnings(t *testing.T) {
	ctx, diags := registerModule(t, `(mod test (fn f :v1 :stability alpha :inputs [] :outputs [] (body 0)))`)

	r, err := Build("test", ctx, diags, []string{FlagDiagnostics})
	require.NoError(t, err)
	require.NotEmpty(t, r.Diagnostics)

	found := false
	for _, d := range r.Diagnostics {
		if d.Code == "VER006" {
			found = true
		}
	}
	assert.True(t, found, "expected a VER006 unstable-stability warning")
}

func TestReportRoundTripsThroughJSONAndYAML(t *testing.T) {
	ctx, diags := registerModule(t, `(mod test (fn f :v1 :inputs [] :outputs [] (body 0)))`)
	r, err := Build("test", ctx, diags, []string{FlagVersions, FlagSecurity, FlagDiagnostics})
	require.NoError(t, err)

	compact, pretty, err := r.ToJSON(true)
	require.NoError(t, err)
	assert.NotEmpty(t, compact)
	assert.NotEmpty(t, pretty)

	back, err := ParseJSON(compact, true)
	require.NoError(t, err)
	assert.Equal(t, r.Module, back.Module)

	yamlBytes, err := r.ToYAML(true)
	require.NoError(t, err)
	assert.NotEmpty(t, yamlBytes)

	backYAML, err := ParseYAML(yamlBytes, true)
	require.NoError(t, err)
	assert.Equal(t, r.Module, backYAML.Module)
}

func TestParseJSONStripsComments(t *testing.T) {
	commented := []byte(`{
		// module under inspection
		"module": "test"
	}`)

	r, err := ParseJSON(commented, false)
	require.NoError(t, err)
	assert.Equal(t, "test", r.Module)
}
