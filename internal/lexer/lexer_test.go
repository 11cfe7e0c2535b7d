// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corelang/corelang/internal/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestTokenizeStructural(t *testing.T) {
	toks := Tokenize(`(fn add :v1 [a b] -> c , | ?)`)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.LPAREN, toks[0].Kind)
	assert.Equal(t, token.FN, toks[1].Kind)
	assert.Equal(t, token.IDENT, toks[2].Kind)
	assert.Equal(t, token.VERSION, toks[3].Kind)
}

func TestTokenizeVersionMarker(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare major", ":v1", ":v1"},
		{"major minor patch", ":v2.3.4", ":v2.3.4"},
		{"prerelease", ":v1.0.0-beta.1", ":v1.0.0-beta.1"},
		{"build metadata", ":v1.0.0+build5", ":v1.0.0+build5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			toks := Tokenize(tc.input)
			require.Len(t, toks, 2) // marker + EOF
			assert.Equal(t, token.VERSION, toks[0].Kind)
			assert.Equal(t, tc.want, toks[0].Value)
		})
	}
}

func TestTokenizeKeywordMarker(t *testing.T) {
	toks := Tokenize(":inputs")
	require.Len(t, toks, 2)
	assert.Equal(t, token.KEYWORD, toks[0].Kind)
	assert.Equal(t, ":inputs", toks[0].Value)
}

func TestTokenizeNumberVsIdentifierMinus(t *testing.T) {
	toks := Tokenize("-5 -abc - 3")
	require.Len(t, toks, 5)
	assert.Equal(t, token.NUMBER, toks[0].Kind)
	assert.Equal(t, "-5", toks[0].Value)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, "-abc", toks[1].Value)
	// A bare '-' not followed by a digit lexes as the start of an identifier.
	assert.Equal(t, token.IDENT, toks[2].Kind)
	assert.Equal(t, token.NUMBER, toks[3].Kind)
}

func TestTokenizeOperatorSymbols(t *testing.T) {
	toks := Tokenize("(+ a b)")
	require.Len(t, toks, 5)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, "+", toks[1].Value)
}

func TestTokenizeComparisonOperators(t *testing.T) {
	toks := Tokenize("(> x 10)")
	require.Len(t, toks, 5)
	assert.Equal(t, token.IDENT, toks[1].Kind)
	assert.Equal(t, ">", toks[1].Value)
}

func TestTokenizeTwoCharOperators(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<=", "<="},
		{">=", ">="},
		{"==", "=="},
		{"!=", "!="},
	}
	for _, tt := range tests {
		toks := Tokenize(tt.input)
		require.Len(t, toks, 2, tt.input)
		assert.Equal(t, token.IDENT, toks[0].Kind, tt.input)
		assert.Equal(t, tt.want, toks[0].Value, tt.input)
	}
}

func TestTokenizeSingleCharOperatorsDistinctFromTwoChar(t *testing.T) {
	toks := Tokenize("* / % = < >")
	require.Len(t, toks, 7)
	want := []string{"*", "/", "%", "=", "<", ">"}
	for i, w := range want {
		assert.Equal(t, token.IDENT, toks[i].Kind)
		assert.Equal(t, w, toks[i].Value)
	}
}

func TestTokenizeFloat(t *testing.T) {
	toks := Tokenize("3.14 -2.5 42")
	require.Len(t, toks, 4)
	assert.Equal(t, "3.14", toks[0].Value)
	assert.Equal(t, "-2.5", toks[1].Value)
	assert.Equal(t, "42", toks[2].Value)
}

func TestTokenizeString(t *testing.T) {
	toks := Tokenize(`"hello \"world\""`)
	require.Len(t, toks, 2)
	assert.Equal(t, token.STRING, toks[0].Kind)
	assert.Equal(t, `"hello \"world\""`, toks[0].Value)
}

func TestTokenizeComment(t *testing.T) {
	toks := Tokenize("(fn ; this is a comment\n add)")
	got := kinds(toks)
	assert.Equal(t, []token.Kind{token.LPAREN, token.FN, token.IDENT, token.RPAREN, token.EOF}, got)
}

func TestTokenizeBoolean(t *testing.T) {
	toks := Tokenize("true false")
	require.Len(t, toks, 3)
	assert.Equal(t, token.BOOLEAN, toks[0].Kind)
	assert.Equal(t, token.BOOLEAN, toks[1].Kind)
}

func TestTokenizeInvalidDropped(t *testing.T) {
	toks := Tokenize("(a @ b)")
	got := kinds(toks)
	assert.Equal(t, []token.Kind{token.LPAREN, token.IDENT, token.IDENT, token.RPAREN, token.EOF}, got)
}

func TestTokenizeRawKeepsInvalid(t *testing.T) {
	toks := TokenizeRaw("a @ b")
	got := kinds(toks)
	assert.Equal(t, []token.Kind{token.IDENT, token.INVALID, token.IDENT, token.EOF}, got)
}

func TestQualifiedIdentifierDot(t *testing.T) {
	toks := Tokenize("a.b.c")
	got := kinds(toks)
	assert.Equal(t, []token.Kind{token.IDENT, token.DOT, token.IDENT, token.DOT, token.IDENT, token.EOF}, got)
}

func TestSpanTracking(t *testing.T) {
	toks := Tokenize("(add\n  1)")
	require.Len(t, toks, 5)
	assert.Equal(t, 1, toks[0].Span.Start.Line)
	assert.Equal(t, 2, toks[2].Span.Start.Line)
}
