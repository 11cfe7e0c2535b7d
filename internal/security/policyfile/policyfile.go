// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package policyfile loads role/permission/policy declarations from an
// external HCL bundle (a supplement beyond the language's own `role`,
// `permission`, and `policy` forms, for operators who want to manage
// authorization data outside corelang source files).
//
// Parsing follows the HCL-via-PartialContent technique
// internal/extractor/terraform used to read `terraform { … }` blocks: parse
// once with hclparse, declare a BodySchema for the blocks of interest, and
// walk the returned blocks by type rather than hand-rolling a recursive
// descent over HCL's own syntax tree.
package policyfile

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/diagnostics"
	"github.com/corelang/corelang/internal/span"
)

// Bundle is the result of parsing one HCL policy file.
type Bundle struct {
	Roles       []*ast.Role
	Permissions []*ast.Permission
	Policies    []*ast.Policy
}

var bundleSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "role", LabelNames: []string{"name"}},
		{Type: "permission", LabelNames: []string{"name"}},
		{Type: "policy", LabelNames: []string{"name"}},
	},
}

var roleSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "permissions"},
		{Name: "parents"},
	},
}

var permissionSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "doc"},
		{Name: "classification"},
		{Name: "audit_required"},
	},
}

var policySchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "rule"},
	},
}

var ruleSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "effect"},
		{Name: "roles"},
		{Name: "permissions"},
		{Name: "version_constraint"},
		{Name: "reason"},
	},
}

// Load parses an HCL policy bundle's raw bytes. HCL diagnostics translate
// into the compiler's own Diagnostic type rather than being returned
// as-is, so callers can merge bundle errors into one diagnostic stream.
func Load(src []byte, filename string) (*Bundle, *diagnostics.Builder) {
	b := diagnostics.NewBuilder()
	parser := hclparse.NewParser()

	file, diags := parser.ParseHCL(src, filename)
	if translateDiags(diags, b); diags.HasErrors() || file == nil || file.Body == nil {
		return nil, b
	}

	content, _, partialDiags := file.Body.PartialContent(bundleSchema)
	translateDiags(partialDiags, b)
	if content == nil {
		return &Bundle{}, b
	}

	bundle := &Bundle{}
	for _, block := range content.Blocks {
		switch block.Type {
		case "role":
			if r := parseRole(block, b); r != nil {
				bundle.Roles = append(bundle.Roles, r)
			}
		case "permission":
			if p := parsePermission(block, b); p != nil {
				bundle.Permissions = append(bundle.Permissions, p)
			}
		case "policy":
			if p := parsePolicy(block, b); p != nil {
				bundle.Policies = append(bundle.Policies, p)
			}
		}
	}
	return bundle, b
}

func parseRole(block *hcl.Block, b *diagnostics.Builder) *ast.Role {
	if len(block.Labels) == 0 {
		return nil
	}
	content, _, diags := block.Body.PartialContent(roleSchema)
	translateDiags(diags, b)

	role := &ast.Role{Name: block.Labels[0], Span: blockSpan(block)}
	if attr, ok := content.Attributes["permissions"]; ok {
		role.Permissions = stringListAttr(attr, b)
	}
	if attr, ok := content.Attributes["parents"]; ok {
		role.Parents = stringListAttr(attr, b)
	}
	return role
}

func parsePermission(block *hcl.Block, b *diagnostics.Builder) *ast.Permission {
	if len(block.Labels) == 0 {
		return nil
	}
	content, _, diags := block.Body.PartialContent(permissionSchema)
	translateDiags(diags, b)

	perm := &ast.Permission{Name: block.Labels[0], Span: blockSpan(block)}
	if attr, ok := content.Attributes["doc"]; ok {
		perm.Doc = stringAttr(attr, b)
	}
	if attr, ok := content.Attributes["classification"]; ok {
		perm.Classification = stringAttr(attr, b)
	}
	if attr, ok := content.Attributes["audit_required"]; ok {
		perm.AuditRequired = boolAttr(attr, b)
	}
	return perm
}

func parsePolicy(block *hcl.Block, b *diagnostics.Builder) *ast.Policy {
	if len(block.Labels) == 0 {
		return nil
	}
	content, _, diags := block.Body.PartialContent(policySchema)
	translateDiags(diags, b)

	policy := &ast.Policy{Name: block.Labels[0], Span: blockSpan(block)}
	for _, ruleBlock := range content.Blocks {
		if ruleBlock.Type != "rule" {
			continue
		}
		ruleContent, _, ruleDiags := ruleBlock.Body.PartialContent(ruleSchema)
		translateDiags(ruleDiags, b)

		rule := ast.PolicyRule{Effect: "allow"}
		if attr, ok := ruleContent.Attributes["effect"]; ok {
			rule.Effect = stringAttr(attr, b)
		}
		if attr, ok := ruleContent.Attributes["roles"]; ok {
			rule.Roles = stringListAttr(attr, b)
		}
		if attr, ok := ruleContent.Attributes["permissions"]; ok {
			rule.Permissions = stringListAttr(attr, b)
		}
		if attr, ok := ruleContent.Attributes["version_constraint"]; ok {
			rule.VersionConstraint = stringAttr(attr, b)
		}
		if attr, ok := ruleContent.Attributes["reason"]; ok {
			rule.Reason = stringAttr(attr, b)
		}
		policy.Rules = append(policy.Rules, rule)
	}
	return policy
}

func stringAttr(attr *hcl.Attribute, b *diagnostics.Builder) string {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		translateDiags(diags, b)
		return ""
	}
	return val.AsString()
}

func boolAttr(attr *hcl.Attribute, b *diagnostics.Builder) bool {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		translateDiags(diags, b)
		return false
	}
	return val.True()
}

func stringListAttr(attr *hcl.Attribute, b *diagnostics.Builder) []string {
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		translateDiags(diags, b)
		return nil
	}
	if !val.CanIterateElements() {
		return nil
	}
	var out []string
	it := val.ElementIterator()
	for it.Next() {
		_, v := it.Element()
		out = append(out, v.AsString())
	}
	return out
}

// blockSpan approximates a corelang span.Span from an HCL block's range;
// HCL ranges are 1-based for both line and column, matching corelang's own
// convention (spec §3.1).
func blockSpan(block *hcl.Block) span.Span {
	r := block.DefRange
	return span.Span{
		Start: span.Position{Line: r.Start.Line, Column: r.Start.Column, Offset: r.Start.Byte},
		End:   span.Position{Line: r.End.Line, Column: r.End.Column, Offset: r.End.Byte},
	}
}

// translateDiags appends HCL diagnostics onto b, translated into corelang's
// own Diagnostic shape.
func translateDiags(diags hcl.Diagnostics, b *diagnostics.Builder) {
	for _, d := range diags {
		sp := span.Span{}
		if d.Subject != nil {
			sp = span.Span{
				Start: span.Position{Line: d.Subject.Start.Line, Column: d.Subject.Start.Column, Offset: d.Subject.Start.Byte},
				End:   span.Position{Line: d.Subject.End.Line, Column: d.Subject.End.Column, Offset: d.Subject.End.Byte},
			}
		}
		msg := d.Summary
		if d.Detail != "" {
			msg = fmt.Sprintf("%s: %s", d.Summary, d.Detail)
		}
		switch d.Severity {
		case hcl.DiagError:
			b.Error("POLICYFILE", msg, sp)
		default:
			b.Warning("POLICYFILE", msg, sp)
		}
	}
}
