// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package security

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corelang/corelang/internal/ast"
)

func TestBuildAccessReportTotals(t *testing.T) {
	c := NewContext()
	c.Roles["admin"] = &ast.Role{Name: "admin"}
	c.Functions["allowed1"] = &ast.Function{Name: "allowed1", RequiredRoles: []string{"admin"}}
	c.Functions["allowed2"] = &ast.Function{Name: "allowed2", RequiredRoles: []string{"admin"}}
	c.Functions["denied1"] = &ast.Function{Name: "denied1", RequiredRoles: []string{"superadmin"}}

	report := BuildAccessReport(c, DefaultOptions(), "admin")
	assert.Equal(t, "admin", report.Role)
	assert.Equal(t, 2, report.Allowed)
	assert.Equal(t, 1, report.Denied)
	assert.Len(t, report.PerFunction, 3)
}

func TestAccessibleFunctionsListsOnlyAllowed(t *testing.T) {
	c := NewContext()
	c.Roles["admin"] = &ast.Role{Name: "admin"}
	c.Functions["yes"] = &ast.Function{Name: "yes", RequiredRoles: []string{"admin"}}
	c.Functions["no"] = &ast.Function{Name: "no", RequiredRoles: []string{"other"}}

	names := AccessibleFunctions(c, DefaultOptions(), "admin")
	assert.Equal(t, []string{"yes"}, names)
}

func TestEvaluateBulkMatchesEvaluate(t *testing.T) {
	c := NewContext()
	c.Roles["admin"] = &ast.Role{Name: "admin"}
	c.Functions["f"] = &ast.Function{Name: "f", RequiredRoles: []string{"admin"}}

	results := EvaluateBulk(c, DefaultOptions(), "admin", []string{"f", "missing"})
	assert.Len(t, results, 2)
	assert.True(t, results[0].Decision.Allowed)
	assert.False(t, results[1].Decision.Allowed)
}
