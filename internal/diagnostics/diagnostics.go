// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package diagnostics implements severity-tagged compiler messages (spec
// §4.3), shaped after the (Severity, Summary/Detail, Subject range) tuple
// `hashicorp/hcl/v2`'s hcl.Diagnostic carries — the same four-part shape this
// package's Diagnostic uses, adapted to corelang's own Span type.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/mitchellh/go-wordwrap"

	"github.com/corelang/corelang/internal/span"
)

// Severity classifies a Diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
	Info
	Hint
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Hint:
		return "hint"
	default:
		return "unknown"
	}
}

// glyph returns the one-character marker the formatter prefixes a rendered
// diagnostic with.
func (s Severity) glyph() string {
	switch s {
	case Error:
		return "✗"
	case Warning:
		return "⚠"
	case Info:
		return "ℹ"
	case Hint:
		return "→"
	default:
		return "?"
	}
}

// Related is a secondary (message, span) pair attached to a Diagnostic, used
// to point at another location relevant to the primary message (e.g. the
// predecessor version a breaking change was compared against).
type Related struct {
	Message string
	Span    span.Span
}

// Diagnostic is a single severity-tagged compiler message.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     span.Span
	Code     string // stable error code, e.g. "VER003", "SEC002"; "" if none
	Hint     string
	Related  []Related
}

// wrapWidth is the column width diagnostic hints wrap to when rendered.
const wrapWidth = 80

// Builder appends diagnostics in order, with fluent helpers to attach hints
// and related notes to the most recently added entry.
type Builder struct {
	diagnostics []Diagnostic
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add appends a diagnostic and returns the Builder for chaining.
func (b *Builder) Add(d Diagnostic) *Builder {
	b.diagnostics = append(b.diagnostics, d)
	return b
}

// Error appends an error-severity diagnostic.
func (b *Builder) Error(code, message string, sp span.Span) *Builder {
	return b.Add(Diagnostic{Severity: Error, Message: message, Span: sp, Code: code})
}

// Warning appends a warning-severity diagnostic.
func (b *Builder) Warning(code, message string, sp span.Span) *Builder {
	return b.Add(Diagnostic{Severity: Warning, Message: message, Span: sp, Code: code})
}

// Info appends an info-severity diagnostic.
func (b *Builder) Info(code, message string, sp span.Span) *Builder {
	return b.Add(Diagnostic{Severity: Info, Message: message, Span: sp, Code: code})
}

// WithHint attaches a hint to the most recently added diagnostic. It is a
// no-op if nothing has been added yet.
func (b *Builder) WithHint(hint string) *Builder {
	if len(b.diagnostics) == 0 {
		return b
	}
	b.diagnostics[len(b.diagnostics)-1].Hint = hint
	return b
}

// WithRelated attaches a related note to the most recently added diagnostic.
func (b *Builder) WithRelated(message string, sp span.Span) *Builder {
	if len(b.diagnostics) == 0 {
		return b
	}
	last := &b.diagnostics[len(b.diagnostics)-1]
	last.Related = append(last.Related, Related{Message: message, Span: sp})
	return b
}

// Diagnostics returns all appended diagnostics, in append order.
func (b *Builder) Diagnostics() []Diagnostic {
	return b.diagnostics
}

// HasErrors is true iff any appended diagnostic is Error severity.
func (b *Builder) HasErrors() bool {
	for _, d := range b.diagnostics {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Merge appends another builder's diagnostics onto this one, in order.
func (b *Builder) Merge(other *Builder) {
	if other == nil {
		return
	}
	b.diagnostics = append(b.diagnostics, other.diagnostics...)
}

// Format renders a diagnostic as severity glyph, message, optional bracketed
// code, a `--> line L, column C` location, a three-line source snippet with a
// caret underline for single-line spans, an optional wrapped hint line, and
// an optional related-notes section.
func Format(d Diagnostic, source string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s", d.Severity.glyph(), d.Message)
	if d.Code != "" {
		fmt.Fprintf(&b, " [%s]", d.Code)
	}
	fmt.Fprintf(&b, "\n  --> line %d, column %d\n", d.Span.Start.Line, d.Span.Start.Column)

	if snippet := renderSnippet(d.Span, source); snippet != "" {
		b.WriteString(snippet)
	}

	if d.Hint != "" {
		fmt.Fprintf(&b, "  hint: %s\n", wordwrap.WrapString(d.Hint, wrapWidth))
	}

	if len(d.Related) > 0 {
		b.WriteString("  related:\n")
		for _, r := range d.Related {
			fmt.Fprintf(&b, "    - %s (line %d, column %d)\n", r.Message, r.Span.Start.Line, r.Span.Start.Column)
		}
	}

	return b.String()
}

// renderSnippet renders the offending line plus one line of context on
// either side, with a caret underline when the span is single-line.
func renderSnippet(sp span.Span, source string) string {
	if source == "" {
		return ""
	}
	lines := strings.Split(source, "\n")
	lineIdx := sp.Start.Line - 1
	if lineIdx < 0 || lineIdx >= len(lines) {
		return ""
	}

	var b strings.Builder
	if lineIdx > 0 {
		fmt.Fprintf(&b, "  %4d | %s\n", lineIdx, lines[lineIdx-1])
	}
	fmt.Fprintf(&b, "  %4d | %s\n", lineIdx+1, lines[lineIdx])

	if sp.SingleLine() {
		underline := strings.Repeat(" ", sp.Start.Column-1)
		width := sp.End.Column - sp.Start.Column
		if width < 1 {
			width = 1
		}
		fmt.Fprintf(&b, "       | %s%s\n", underline, strings.Repeat("^", width))
	}

	if lineIdx+1 < len(lines) {
		fmt.Fprintf(&b, "  %4d | %s\n", lineIdx+2, lines[lineIdx+1])
	}

	return b.String()
}
