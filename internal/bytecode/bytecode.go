// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package bytecode defines corelang's instruction set, the per-function and
// per-module records the VM executes, and a label-patching builder for
// emitting jump targets before their offsets are known (spec §3.7, §4.11,
// §4.13).
package bytecode

import (
	"fmt"
	"strings"

	"github.com/corelang/corelang/internal/ast"
	"github.com/corelang/corelang/internal/semver"
	"github.com/corelang/corelang/internal/span"
)

// Opcode is one instruction in the stack machine's instruction set (spec
// §4.13).
type Opcode int

const (
	PUSH Opcode = iota
	POP
	DUP
	SWAP
	LOAD_VAR
	STORE_VAR
	LOAD_ARG

	CALL
	CALL_NATIVE
	RETURN
	JUMP
	JUMP_IF_FALSE
	JUMP_IF_TRUE
	HALT

	ADD
	SUB
	MUL
	DIV
	MOD
	NEG

	EQ
	NE
	LT
	LE
	GT
	GE

	AND
	OR
	NOT

	EXEC_EFFECT

	MAKE_OK
	MAKE_ERR
	MAKE_SOME
	MAKE_NONE
	MAKE_LIST
	MAKE_MAP
	CONSTRUCT_RECORD
	ACCESS_FIELD
	CONSTRUCT_VARIANT
	MATCH_VARIANT

	LIST_GET
	LIST_LEN
	LIST_SET
	LIST_APPEND
	MAP_GET
	MAP_SET
	MAP_HAS

	STR_CONCAT
	STR_LEN

	DEBUG_PRINT
)

var opcodeNames = map[Opcode]string{
	PUSH: "PUSH", POP: "POP", DUP: "DUP", SWAP: "SWAP",
	LOAD_VAR: "LOAD_VAR", STORE_VAR: "STORE_VAR", LOAD_ARG: "LOAD_ARG",
	CALL: "CALL", CALL_NATIVE: "CALL_NATIVE", RETURN: "RETURN",
	JUMP: "JUMP", JUMP_IF_FALSE: "JUMP_IF_FALSE", JUMP_IF_TRUE: "JUMP_IF_TRUE", HALT: "HALT",
	ADD: "ADD", SUB: "SUB", MUL: "MUL", DIV: "DIV", MOD: "MOD", NEG: "NEG",
	EQ: "EQ", NE: "NE", LT: "LT", LE: "LE", GT: "GT", GE: "GE",
	AND: "AND", OR: "OR", NOT: "NOT",
	EXEC_EFFECT: "EXEC_EFFECT",
	MAKE_OK:     "MAKE_OK", MAKE_ERR: "MAKE_ERR", MAKE_SOME: "MAKE_SOME", MAKE_NONE: "MAKE_NONE",
	MAKE_LIST: "MAKE_LIST", MAKE_MAP: "MAKE_MAP",
	CONSTRUCT_RECORD: "CONSTRUCT_RECORD", ACCESS_FIELD: "ACCESS_FIELD",
	CONSTRUCT_VARIANT: "CONSTRUCT_VARIANT", MATCH_VARIANT: "MATCH_VARIANT",
	LIST_GET: "LIST_GET", LIST_LEN: "LIST_LEN", LIST_SET: "LIST_SET", LIST_APPEND: "LIST_APPEND",
	MAP_GET: "MAP_GET", MAP_SET: "MAP_SET", MAP_HAS: "MAP_HAS",
	STR_CONCAT: "STR_CONCAT", STR_LEN: "STR_LEN",
	DEBUG_PRINT: "DEBUG_PRINT",
}

func (op Opcode) String() string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return "UNKNOWN"
}

// CallOperand is CALL's operand: a target name, an optional explicit
// version constraint string, and the expected argument count.
type CallOperand struct {
	Name    string
	Version string // "" means "resolve to latest", per spec §9
	Arity   int
}

// NativeCallOperand is CALL_NATIVE's operand.
type NativeCallOperand struct {
	Name  string
	Arity int
}

// EffectOperand is EXEC_EFFECT's operand.
type EffectOperand struct {
	Handler       string
	Operation     string
	ParamCount    int
	AuditRequired bool
	Resource      string
}

// RecordOperand is CONSTRUCT_RECORD's operand. FieldNames gives the field
// order fields are popped in (last field on top of stack), so the VM can
// pair popped values back up with their names without a separate lookup.
type RecordOperand struct {
	Type       string
	FieldCount int
	FieldNames []string
}

// VariantOperand is CONSTRUCT_VARIANT's and MATCH_VARIANT's operand.
type VariantOperand struct {
	Type string
	Case string
}

// LiteralOperand is PUSH's operand: a literal value tag plus its Go value,
// resolved to a value.Value by the VM at dispatch time.
type LiteralOperand struct {
	Kind  string
	Value interface{}
}

// Instruction is one opcode plus its operand and originating span, used for
// VM error reporting and disassembly.
type Instruction struct {
	Op      Opcode
	Operand interface{}
	Span    span.Span
}

// FunctionRecord is the compiled form of one ast.Function (spec §3.7).
type FunctionRecord struct {
	Name          string
	Version       semver.Version
	Arity         int
	Instructions  []Instruction
	RequiredRoles []string
	RequiredPerms []string
	Effects       []ast.EffectRef
	Pure          bool
	Idempotent    bool
	LocalCount    int
}

// Key returns the "{name}:{version}" key the module record indexes functions
// by (spec §3.7).
func (f *FunctionRecord) Key() string {
	return f.Name + ":" + f.Version.Key()
}

// ModuleRecord is the compiled form of one ast.Module.
type ModuleRecord struct {
	Name      string
	Version   string
	Functions map[string]*FunctionRecord
	Types     map[string]*ast.TypeDef
}

// NewModuleRecord creates an empty ModuleRecord ready for function
// registration.
func NewModuleRecord(name, version string) *ModuleRecord {
	return &ModuleRecord{
		Name:      name,
		Version:   version,
		Functions: map[string]*FunctionRecord{},
		Types:     map[string]*ast.TypeDef{},
	}
}

// AddFunction registers fr under its Key() ("name:version").
func (m *ModuleRecord) AddFunction(fr *FunctionRecord) {
	m.Functions[fr.Key()] = fr
}

// Resolve looks up a function by name, optionally pinned to an explicit
// version. An empty version resolves to the **latest** registered version
// by semantic-version ordering (spec §9's fix for the source's
// nondeterministic "last one seen" fallback), not declaration order.
func (m *ModuleRecord) Resolve(name, version string) (*FunctionRecord, error) {
	if version != "" {
		v, err := semver.Parse(version)
		if err != nil {
			return nil, fmt.Errorf("bytecode: invalid version %q for %q: %w", version, name, err)
		}
		fr, ok := m.Functions[name+":"+v.Key()]
		if !ok {
			return nil, fmt.Errorf("bytecode: no function %q registered at version %q", name, version)
		}
		return fr, nil
	}

	var latest *FunctionRecord
	for _, fr := range m.Functions {
		if fr.Name != name {
			continue
		}
		if latest == nil || semver.Less(latest.Version, fr.Version) {
			latest = fr
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("bytecode: no function registered under name %q", name)
	}
	return latest, nil
}

// Label is an unresolved jump target created by Builder.NewLabel.
type Label int

// Builder emits instructions for one function body, tracking a locals map
// (name -> argument/local slot) and a label/patch mechanism so forward jumps
// (If/Cond/Match branches) can be emitted before their target offset is
// known. Patches resolve to absolute instruction offsets once the whole body
// has been emitted, the same two-pass "emit placeholder, patch later"
// technique most bytecode compilers use for a single linear instruction
// stream without a separate basic-block graph.
type Builder struct {
	instructions []Instruction
	labelTargets map[Label]int // label -> resolved instruction index, -1 if unplaced
	patches      map[int]Label // instruction index -> label it jumps to
	nextLabel    Label
	Locals       map[string]int
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		labelTargets: map[Label]int{},
		patches:      map[int]Label{},
		Locals:       map[string]int{},
	}
}

// NewLabel allocates a fresh, unplaced label.
func (b *Builder) NewLabel() Label {
	l := b.nextLabel
	b.nextLabel++
	b.labelTargets[l] = -1
	return l
}

// PlaceLabel binds l to the next instruction's offset.
func (b *Builder) PlaceLabel(l Label) {
	b.labelTargets[l] = len(b.instructions)
}

// Emit appends an instruction and returns its offset.
func (b *Builder) Emit(op Opcode, operand interface{}, sp span.Span) int {
	b.instructions = append(b.instructions, Instruction{Op: op, Operand: operand, Span: sp})
	return len(b.instructions) - 1
}

// EmitJump appends a jump-family instruction with a placeholder operand,
// recording the label it should resolve to once placed.
func (b *Builder) EmitJump(op Opcode, l Label, sp span.Span) int {
	idx := b.Emit(op, nil, sp)
	b.patches[idx] = l
	return idx
}

// Finish resolves every recorded patch to an absolute instruction offset and
// returns the completed instruction stream. It panics if a label was
// referenced by EmitJump but never placed — a builder-usage bug, not a
// user-facing compile error.
func (b *Builder) Finish() []Instruction {
	for idx, label := range b.patches {
		target, ok := b.labelTargets[label]
		if !ok || target < 0 {
			panic(fmt.Sprintf("bytecode: label %d used at instruction %d was never placed", label, idx))
		}
		b.instructions[idx].Operand = target
	}
	return b.instructions
}

// Disassemble renders an instruction stream as one line per instruction:
// offset, opcode mnemonic, and operand, for debugging and the §8
// stable-disassembly property test.
func Disassemble(instrs []Instruction) string {
	var out strings.Builder
	for i, instr := range instrs {
		fmt.Fprintf(&out, "%04d %-18s", i, instr.Op)
		if instr.Operand != nil {
			fmt.Fprintf(&out, " %v", instr.Operand)
		}
		out.WriteByte('\n')
	}
	return out.String()
}
