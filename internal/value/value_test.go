// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package value

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewIntTruncatesTowardZero(t *testing.T) {
	assert.Equal(t, Int{V: 3}, NewInt(3.9))
	assert.Equal(t, Int{V: -3}, NewInt(-3.9))
	assert.Equal(t, Int{V: 0}, NewInt(0.4))
}

func TestEqualIntAndFloatNeverEqualAcrossTags(t *testing.T) {
	assert.False(t, Equal(Int{V: 2}, Float{V: 2}))
	assert.False(t, Equal(Float{V: 2}, Int{V: 2}))
}

func TestEqualScalars(t *testing.T) {
	assert.True(t, Equal(String{V: "a"}, String{V: "a"}))
	assert.False(t, Equal(String{V: "a"}, String{V: "b"}))
	assert.True(t, Equal(Bool{V: true}, Bool{V: true}))
}

func TestEqualBytesPairwise(t *testing.T) {
	assert.True(t, Equal(Bytes{V: []byte{1, 2, 3}}, Bytes{V: []byte{1, 2, 3}}))
	assert.False(t, Equal(Bytes{V: []byte{1, 2, 3}}, Bytes{V: []byte{1, 2}}))
}

func TestEqualTimestampByInstant(t *testing.T) {
	utc := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	elsewhere := utc.In(time.FixedZone("test", 3600))
	assert.True(t, Equal(Timestamp{V: utc}, Timestamp{V: elsewhere}))
}

func TestEqualJSONBySerializedForm(t *testing.T) {
	a := JSON{Raw: map[string]interface{}{"a": 1.0}}
	b := JSON{Raw: map[string]interface{}{"a": 1.0}}
	assert.True(t, Equal(a, b))
}

func TestEqualRecordChecksTypeName(t *testing.T) {
	r1 := Record{TypeName: "Account", Fields: map[string]Value{"n": String{V: "x"}}}
	r2 := Record{TypeName: "User", Fields: map[string]Value{"n": String{V: "x"}}}
	assert.False(t, Equal(r1, r2))

	r3 := Record{TypeName: "Account", Fields: map[string]Value{"n": String{V: "x"}}}
	assert.True(t, Equal(r1, r3))
}

func TestEqualVariantChecksCaseAndPayload(t *testing.T) {
	some := Variant{TypeName: "Option", Case: "Some", Payload: Int{V: 1}}
	same := Variant{TypeName: "Option", Case: "Some", Payload: Int{V: 1}}
	none := Variant{TypeName: "Option", Case: "None"}
	assert.True(t, Equal(some, same))
	assert.False(t, Equal(some, none))
}

func TestEqualListRecursesElementwise(t *testing.T) {
	a := List{Items: []Value{Int{V: 1}, Int{V: 2}}}
	b := List{Items: []Value{Int{V: 1}, Int{V: 2}}}
	c := List{Items: []Value{Int{V: 1}, Int{V: 3}}}
	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
}

func TestEqualResultAndOption(t *testing.T) {
	assert.True(t, Equal(MakeOk(Int{V: 1}), MakeOk(Int{V: 1})))
	assert.False(t, Equal(MakeOk(Int{V: 1}), MakeErr(Int{V: 1})))
	assert.True(t, Equal(MakeSome(Int{V: 1}), MakeSome(Int{V: 1})))
	assert.True(t, Equal(MakeNone(), MakeNone()))
}

func TestUUIDKind(t *testing.T) {
	u := UUID{V: uuid.New()}
	assert.Equal(t, "uuid", u.Kind())
}

func TestRenderResultAndOption(t *testing.T) {
	assert.Equal(t, "ok(1)", Render(MakeOk(Int{V: 1})))
	assert.Equal(t, "none", Render(MakeNone()))
}
