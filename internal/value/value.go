// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package value implements corelang's runtime value model (spec §3.6): a
// tagged union of scalars, containers, variants, and the Result/Option
// wrapper types the VM's MAKE_* opcodes construct.
//
// The sum type follows the same marker-interface shape internal/ast uses for
// TypeExpr and Pattern (a `valueNode()` method plus a concrete struct per
// variant) rather than one fat struct with a Tag field and one field per
// case — consistent with how the rest of the front end models sum types.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Value is the sum of all runtime value shapes.
type Value interface {
	valueNode()
	// Kind returns the tag name used in diagnostics and type-mismatch errors.
	Kind() string
}

// Unit is the sole inhabitant of the unit type, returned when a frame halts
// with an empty stack.
type Unit struct{}

func (Unit) valueNode()   {}
func (Unit) Kind() string { return "unit" }

// Bool wraps a boolean.
type Bool struct{ V bool }

func (Bool) valueNode()   {}
func (Bool) Kind() string { return "bool" }

// Int wraps an integer. NewInt truncates a float toward zero per spec §4.12.
type Int struct{ V int }

func (Int) valueNode()   {}
func (Int) Kind() string { return "int" }

// NewInt truncates x toward zero, matching `int(x)` construction semantics.
func NewInt(x float64) Int { return Int{V: int(math.Trunc(x))} }

// Float wraps a floating-point number.
type Float struct{ V float64 }

func (Float) valueNode()   {}
func (Float) Kind() string { return "float" }

// String wraps a UTF-8 string.
type String struct{ V string }

func (String) valueNode()   {}
func (String) Kind() string { return "string" }

// Bytes wraps a byte slice; equality is length then pairwise byte compare.
type Bytes struct{ V []byte }

func (Bytes) valueNode()   {}
func (Bytes) Kind() string { return "bytes" }

// UUID wraps a github.com/google/uuid value.
type UUID struct{ V uuid.UUID }

func (UUID) valueNode()   {}
func (UUID) Kind() string { return "uuid" }

// Timestamp wraps an absolute instant; equality compares the instant, not
// the wall-clock representation or location.
type Timestamp struct{ V time.Time }

func (Timestamp) valueNode()   {}
func (Timestamp) Kind() string { return "timestamp" }

// JSON wraps an arbitrary JSON document, equality compares serialized form.
type JSON struct{ Raw interface{} }

func (JSON) valueNode()   {}
func (JSON) Kind() string { return "json" }

// List is an ordered, homogeneous-by-convention (not enforced) sequence.
type List struct{ Items []Value }

func (List) valueNode()   {}
func (List) Kind() string { return "list" }

// Map is a string-keyed dictionary.
type Map struct{ Entries map[string]Value }

func (Map) valueNode()   {}
func (Map) Kind() string { return "map" }

// Record is a named struct value; Classification is the type's declared
// maximum field classification, carried for audit-log redaction.
type Record struct {
	TypeName       string
	Fields         map[string]Value
	Classification string
}

func (Record) valueNode()   {}
func (Record) Kind() string { return "record" }

// Variant is one constructed case of a sum type, with an optional payload.
type Variant struct {
	TypeName string
	Case     string
	Payload  Value // nil if the case carries no payload
}

func (Variant) valueNode()   {}
func (Variant) Kind() string { return "variant" }

// FunctionRef names a resolved function target, carried by CONSTRUCT_RECORD
// fields and the value model's function_ref tag.
type FunctionRef struct {
	Name    string
	Version string
}

func (FunctionRef) valueNode()   {}
func (FunctionRef) Kind() string { return "function_ref" }

// Result is the MAKE_OK/MAKE_ERR wrapper.
type Result struct {
	Ok    bool
	Inner Value
}

func (Result) valueNode()   {}
func (Result) Kind() string { return "result" }

// MakeOk builds a successful Result.
func MakeOk(v Value) Result { return Result{Ok: true, Inner: v} }

// MakeErr builds a failed Result; per spec §4.13, DIV-by-zero pushes
// MakeErr(String{"Division by zero"}) in place of a numeric result.
func MakeErr(v Value) Result { return Result{Ok: false, Inner: v} }

// Option is the MAKE_SOME/MAKE_NONE wrapper.
type Option struct {
	Some  bool
	Inner Value // nil when Some is false
}

func (Option) valueNode()   {}
func (Option) Kind() string { return "option" }

// MakeSome builds a populated Option.
func MakeSome(v Value) Option { return Option{Some: true, Inner: v} }

// MakeNone builds an empty Option.
func MakeNone() Option { return Option{Some: false} }

// Equal implements the structural equality rule of spec §4.12 and §3.6:
// values of different tags are never equal (notably int and float never
// compare equal across tags, even when numerically identical); bytes
// compare by length and pairwise byte; timestamps by absolute instant; json
// by serialized form; records additionally check type_name.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Unit:
		return true
	case Bool:
		return av.V == b.(Bool).V
	case Int:
		return av.V == b.(Int).V
	case Float:
		return av.V == b.(Float).V
	case String:
		return av.V == b.(String).V
	case Bytes:
		return bytes.Equal(av.V, b.(Bytes).V)
	case UUID:
		return av.V == b.(UUID).V
	case Timestamp:
		return av.V.Equal(b.(Timestamp).V)
	case JSON:
		return equalJSON(av, b.(JSON))
	case List:
		bv := b.(List)
		if len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case Map:
		bv := b.(Map)
		if len(av.Entries) != len(bv.Entries) {
			return false
		}
		for k, v := range av.Entries {
			ov, ok := bv.Entries[k]
			if !ok || !Equal(v, ov) {
				return false
			}
		}
		return true
	case Record:
		bv := b.(Record)
		if av.TypeName != bv.TypeName || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for k, v := range av.Fields {
			ov, ok := bv.Fields[k]
			if !ok || !Equal(v, ov) {
				return false
			}
		}
		return true
	case Variant:
		bv := b.(Variant)
		if av.TypeName != bv.TypeName || av.Case != bv.Case {
			return false
		}
		if (av.Payload == nil) != (bv.Payload == nil) {
			return false
		}
		return av.Payload == nil || Equal(av.Payload, bv.Payload)
	case FunctionRef:
		bv := b.(FunctionRef)
		return av.Name == bv.Name && av.Version == bv.Version
	case Result:
		bv := b.(Result)
		return av.Ok == bv.Ok && Equal(av.Inner, bv.Inner)
	case Option:
		bv := b.(Option)
		if av.Some != bv.Some {
			return false
		}
		return !av.Some || Equal(av.Inner, bv.Inner)
	default:
		return false
	}
}

func equalJSON(a, b JSON) bool {
	ab, aerr := json.Marshal(a.Raw)
	bb, berr := json.Marshal(b.Raw)
	if aerr != nil || berr != nil {
		return false
	}
	return string(ab) == string(bb)
}

// Render renders a debug-friendly form for diagnostics and DEBUG_PRINT.
func Render(v Value) string {
	switch tv := v.(type) {
	case Unit:
		return "unit"
	case Bool:
		return fmt.Sprintf("%t", tv.V)
	case Int:
		return fmt.Sprintf("%d", tv.V)
	case Float:
		return fmt.Sprintf("%g", tv.V)
	case String:
		return tv.V
	case Bytes:
		return fmt.Sprintf("bytes(%d)", len(tv.V))
	case UUID:
		return tv.V.String()
	case Timestamp:
		return tv.V.Format(time.RFC3339Nano)
	case JSON:
		b, _ := json.Marshal(tv.Raw)
		return string(b)
	case List:
		return fmt.Sprintf("list(%d)", len(tv.Items))
	case Map:
		return fmt.Sprintf("map(%d)", len(tv.Entries))
	case Record:
		return fmt.Sprintf("%s{...}", tv.TypeName)
	case Variant:
		return fmt.Sprintf("%s.%s", tv.TypeName, tv.Case)
	case FunctionRef:
		return fmt.Sprintf("%s:%s", tv.Name, tv.Version)
	case Result:
		if tv.Ok {
			return fmt.Sprintf("ok(%s)", Render(tv.Inner))
		}
		return fmt.Sprintf("err(%s)", Render(tv.Inner))
	case Option:
		if tv.Some {
			return fmt.Sprintf("some(%s)", Render(tv.Inner))
		}
		return "none"
	default:
		return "<unknown>"
	}
}
