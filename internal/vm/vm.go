// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package vm implements the stack-based bytecode interpreter of spec §4.14:
// frame management, the opcode dispatch loop, the security gate, and
// delegation to CALL_NATIVE and EXEC_EFFECT.
package vm

import (
	"fmt"
	"strconv"

	"github.com/corelang/corelang/internal/bytecode"
	"github.com/corelang/corelang/internal/effects"
	"github.com/corelang/corelang/internal/natives"
	"github.com/corelang/corelang/internal/principal"
	"github.com/corelang/corelang/internal/value"
)

// ErrorKind tags the three typed VM error kinds of spec §7.
type ErrorKind int

const (
	KindVM ErrorKind = iota
	KindSecurity
	KindTypeMismatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindSecurity:
		return "SecurityError"
	case KindTypeMismatch:
		return "TypeMismatchError"
	default:
		return "VMError"
	}
}

// Error is a typed VM error carrying the instruction pointer and offending
// instruction, per spec §4.13's "type mismatches at any opcode raise a
// typed VM error carrying the instruction pointer."
type Error struct {
	Kind        ErrorKind
	Message     string
	IP          int
	Instruction bytecode.Instruction
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (ip=%d, op=%s)", e.Kind, e.Message, e.IP, e.Instruction.Op)
}

func newError(kind ErrorKind, ip int, instr bytecode.Instruction, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), IP: ip, Instruction: instr}
}

// VM owns the module's compiled functions and the shared, read-only
// services (native functions, effect handlers) each execution dispatches
// into. Each Execute call gets a fresh frame; the VM itself holds no
// per-execution state, per spec §5's shared-resource policy.
type VM struct {
	Module  *bytecode.ModuleRecord
	Natives *natives.Registry
	Effects *effects.Registry
}

// New creates a VM bound to module, with the given native and effect
// registries (both may be nil to start from empty defaults).
func New(module *bytecode.ModuleRecord, nativeReg *natives.Registry, effectReg *effects.Registry) *VM {
	if nativeReg == nil {
		nativeReg = natives.NewRegistry()
	}
	if effectReg == nil {
		effectReg = effects.NewRegistry()
	}
	return &VM{Module: module, Natives: nativeReg, Effects: effectReg}
}

// frame is one call's private stack, locals, args, and instruction pointer
// (spec §4.14: "each call gets a fresh frame").
type frame struct {
	stack  []value.Value
	locals map[string]value.Value
	args   []value.Value
	ip     int
}

func (f *frame) push(v value.Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() (value.Value, bool) {
	if len(f.stack) == 0 {
		return nil, false
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v, true
}

func (f *frame) peek() (value.Value, bool) {
	if len(f.stack) == 0 {
		return nil, false
	}
	return f.stack[len(f.stack)-1], true
}

// Execute implements spec §4.14's entry point: `execute(module, "name:version",
// args, principal)`.
func (vm *VM) Execute(nameVersion string, args []value.Value, p principal.Principal) (value.Value, error) {
	name, version := splitNameVersion(nameVersion)
	fr, err := vm.Module.Resolve(name, version)
	if err != nil {
		return nil, err
	}
	return vm.ExecuteFunction(fr, args, p)
}

func splitNameVersion(nameVersion string) (name, version string) {
	for i := len(nameVersion) - 1; i >= 0; i-- {
		if nameVersion[i] == ':' {
			return nameVersion[:i], nameVersion[i+1:]
		}
	}
	return nameVersion, ""
}

// ExecuteFunction runs fr to completion with args and p already resolved,
// implementing spec §4.14 steps 2-6.
func (vm *VM) ExecuteFunction(fr *bytecode.FunctionRecord, args []value.Value, p principal.Principal) (value.Value, error) {
	if len(args) != fr.Arity {
		return nil, &Error{Kind: KindVM, Message: fmt.Sprintf("function %q expects %d argument(s), got %d", fr.Name, fr.Arity, len(args))}
	}

	if len(fr.RequiredRoles) > 0 && !p.HasAnyRole(fr.RequiredRoles) {
		return nil, &Error{Kind: KindSecurity, Message: "Permission denied"}
	}

	f := &frame{locals: map[string]value.Value{}, args: args}

	for f.ip < len(fr.Instructions) {
		instr := fr.Instructions[f.ip]
		halt, result, err := vm.step(f, fr, instr, p)
		if err != nil {
			return nil, err
		}
		if halt {
			return result, nil
		}
		f.ip++
	}

	if v, ok := f.peek(); ok {
		return v, nil
	}
	return value.Unit{}, nil
}

// step dispatches one instruction. It returns (halt, result, err); halt is
// true for RETURN and HALT, at which point result is the function's return
// value.
func (vm *VM) step(f *frame, fr *bytecode.FunctionRecord, instr bytecode.Instruction, p principal.Principal) (bool, value.Value, error) {
	switch instr.Op {
	case bytecode.PUSH:
		lit, ok := instr.Operand.(bytecode.LiteralOperand)
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "PUSH operand has unexpected type %T", instr.Operand)
		}
		f.push(resolveLiteral(lit))

	case bytecode.POP:
		if _, ok := f.pop(); !ok {
			return false, nil, newError(KindVM, f.ip, instr, "POP on empty stack")
		}

	case bytecode.DUP:
		v, ok := f.peek()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "DUP on empty stack")
		}
		f.push(v)

	case bytecode.SWAP:
		a, ok1 := f.pop()
		b, ok2 := f.pop()
		if !ok1 || !ok2 {
			return false, nil, newError(KindVM, f.ip, instr, "SWAP requires two stack values")
		}
		f.push(a)
		f.push(b)

	case bytecode.LOAD_VAR:
		name, _ := instr.Operand.(string)
		v, ok := f.locals[name]
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "undefined variable %q", name)
		}
		f.push(v)

	case bytecode.STORE_VAR:
		name, _ := instr.Operand.(string)
		v, ok := f.peek()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "STORE_VAR on empty stack")
		}
		f.locals[name] = v

	case bytecode.LOAD_ARG:
		idx, _ := instr.Operand.(int)
		if idx < 0 || idx >= len(f.args) {
			return false, nil, newError(KindVM, f.ip, instr, "argument index %d out of range", idx)
		}
		f.push(f.args[idx])

	case bytecode.CALL:
		return false, nil, vm.dispatchCall(f, instr, p)

	case bytecode.CALL_NATIVE:
		return false, nil, vm.dispatchNative(f, instr)

	case bytecode.EXEC_EFFECT:
		return false, nil, vm.dispatchEffect(f, instr, p)

	case bytecode.RETURN:
		v, ok := f.pop()
		if !ok {
			return true, value.Unit{}, nil
		}
		return true, v, nil

	case bytecode.HALT:
		v, ok := f.pop()
		if !ok {
			return true, value.Unit{}, nil
		}
		return true, v, nil

	case bytecode.JUMP:
		offset, _ := instr.Operand.(int)
		f.ip = offset - 1

	case bytecode.JUMP_IF_FALSE:
		v, ok := f.pop()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "JUMP_IF_FALSE on empty stack")
		}
		b, ok := v.(value.Bool)
		if !ok {
			return false, nil, newError(KindTypeMismatch, f.ip, instr, "JUMP_IF_FALSE expects bool, got %s", v.Kind())
		}
		if !b.V {
			offset, _ := instr.Operand.(int)
			f.ip = offset - 1
		}

	case bytecode.JUMP_IF_TRUE:
		v, ok := f.pop()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "JUMP_IF_TRUE on empty stack")
		}
		b, ok := v.(value.Bool)
		if !ok {
			return false, nil, newError(KindTypeMismatch, f.ip, instr, "JUMP_IF_TRUE expects bool, got %s", v.Kind())
		}
		if b.V {
			offset, _ := instr.Operand.(int)
			f.ip = offset - 1
		}

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD:
		return false, nil, vm.arith(f, instr)

	case bytecode.NEG:
		v, ok := f.pop()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "NEG on empty stack")
		}
		switch n := v.(type) {
		case value.Int:
			f.push(value.Int{V: -n.V})
		case value.Float:
			f.push(value.Float{V: -n.V})
		default:
			return false, nil, newError(KindTypeMismatch, f.ip, instr, "NEG expects a number, got %s", v.Kind())
		}

	case bytecode.EQ, bytecode.NE:
		b, ok1 := f.pop()
		a, ok2 := f.pop()
		if !ok1 || !ok2 {
			return false, nil, newError(KindVM, f.ip, instr, "%s requires two stack values", instr.Op)
		}
		eq := value.Equal(a, b)
		if instr.Op == bytecode.NE {
			eq = !eq
		}
		f.push(value.Bool{V: eq})

	case bytecode.LT, bytecode.LE, bytecode.GT, bytecode.GE:
		return false, nil, vm.compareNumeric(f, instr)

	case bytecode.AND, bytecode.OR:
		b, ok1 := f.pop()
		a, ok2 := f.pop()
		if !ok1 || !ok2 {
			return false, nil, newError(KindVM, f.ip, instr, "%s requires two stack values", instr.Op)
		}
		ab, ok1 := a.(value.Bool)
		bb, ok2 := b.(value.Bool)
		if !ok1 || !ok2 {
			return false, nil, newError(KindTypeMismatch, f.ip, instr, "%s expects bool operands", instr.Op)
		}
		if instr.Op == bytecode.AND {
			f.push(value.Bool{V: ab.V && bb.V})
		} else {
			f.push(value.Bool{V: ab.V || bb.V})
		}

	case bytecode.NOT:
		v, ok := f.pop()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "NOT on empty stack")
		}
		b, ok := v.(value.Bool)
		if !ok {
			return false, nil, newError(KindTypeMismatch, f.ip, instr, "NOT expects bool, got %s", v.Kind())
		}
		f.push(value.Bool{V: !b.V})

	case bytecode.MAKE_OK:
		v, ok := f.pop()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "MAKE_OK on empty stack")
		}
		f.push(value.MakeOk(v))

	case bytecode.MAKE_ERR:
		v, ok := f.pop()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "MAKE_ERR on empty stack")
		}
		f.push(value.MakeErr(v))

	case bytecode.MAKE_SOME:
		v, ok := f.pop()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "MAKE_SOME on empty stack")
		}
		f.push(value.MakeSome(v))

	case bytecode.MAKE_NONE:
		f.push(value.MakeNone())

	case bytecode.MAKE_LIST:
		return false, nil, vm.makeList(f, instr)

	case bytecode.MAKE_MAP:
		return false, nil, vm.makeMap(f, instr)

	case bytecode.CONSTRUCT_RECORD:
		return false, nil, vm.constructRecord(f, instr)

	case bytecode.ACCESS_FIELD:
		return false, nil, vm.accessField(f, instr)

	case bytecode.CONSTRUCT_VARIANT:
		return false, nil, vm.constructVariant(f, instr)

	case bytecode.MATCH_VARIANT:
		return false, nil, vm.matchVariant(f, instr)

	case bytecode.LIST_GET:
		return false, nil, vm.listGet(f, instr)
	case bytecode.LIST_LEN:
		return false, nil, vm.listLen(f, instr)
	case bytecode.LIST_SET:
		return false, nil, vm.listSet(f, instr)
	case bytecode.LIST_APPEND:
		return false, nil, vm.listAppend(f, instr)
	case bytecode.MAP_GET:
		return false, nil, vm.mapGet(f, instr)
	case bytecode.MAP_SET:
		return false, nil, vm.mapSet(f, instr)
	case bytecode.MAP_HAS:
		return false, nil, vm.mapHas(f, instr)

	case bytecode.STR_CONCAT:
		b, ok1 := f.pop()
		a, ok2 := f.pop()
		as, ok3 := a.(value.String)
		bs, ok4 := b.(value.String)
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return false, nil, newError(KindTypeMismatch, f.ip, instr, "STR_CONCAT expects two strings")
		}
		f.push(value.String{V: as.V + bs.V})

	case bytecode.STR_LEN:
		v, ok := f.pop()
		s, ok2 := v.(value.String)
		if !ok || !ok2 {
			return false, nil, newError(KindTypeMismatch, f.ip, instr, "STR_LEN expects a string")
		}
		f.push(value.NewInt(float64(len(s.V))))

	case bytecode.DEBUG_PRINT:
		v, ok := f.peek()
		if !ok {
			return false, nil, newError(KindVM, f.ip, instr, "DEBUG_PRINT on empty stack")
		}
		fmt.Println(value.Render(v))

	default:
		return false, nil, newError(KindVM, f.ip, instr, "unimplemented opcode %s", instr.Op)
	}
	return false, nil, nil
}

// dispatchCall implements spec §4.14's "user call dispatch": resolve the
// callee (latest version if none specified), run the security gate, and
// execute it in a fresh frame.
func (vm *VM) dispatchCall(f *frame, instr bytecode.Instruction, p principal.Principal) error {
	op, ok := instr.Operand.(bytecode.CallOperand)
	if !ok {
		return newError(KindVM, f.ip, instr, "CALL operand has unexpected type %T", instr.Operand)
	}
	args := make([]value.Value, op.Arity)
	for i := op.Arity - 1; i >= 0; i-- {
		v, ok := f.pop()
		if !ok {
			return newError(KindVM, f.ip, instr, "CALL %q expected %d argument(s) on the stack", op.Name, op.Arity)
		}
		args[i] = v
	}

	callee, err := vm.Module.Resolve(op.Name, op.Version)
	if err != nil {
		return newError(KindVM, f.ip, instr, "%v", err)
	}

	result, err := vm.ExecuteFunction(callee, args, p)
	if err != nil {
		return err
	}
	f.push(result)
	return nil
}

func (vm *VM) dispatchNative(f *frame, instr bytecode.Instruction) error {
	op, ok := instr.Operand.(bytecode.NativeCallOperand)
	if !ok {
		return newError(KindVM, f.ip, instr, "CALL_NATIVE operand has unexpected type %T", instr.Operand)
	}
	args := make([]value.Value, op.Arity)
	for i := op.Arity - 1; i >= 0; i-- {
		v, ok := f.pop()
		if !ok {
			return newError(KindVM, f.ip, instr, "CALL_NATIVE %q expected %d argument(s) on the stack", op.Name, op.Arity)
		}
		args[i] = v
	}
	result, err := vm.Natives.Call(op.Name, args)
	if err != nil {
		return newError(KindVM, f.ip, instr, "%v", err)
	}
	f.push(result)
	return nil
}

func (vm *VM) dispatchEffect(f *frame, instr bytecode.Instruction, p principal.Principal) error {
	op, ok := instr.Operand.(bytecode.EffectOperand)
	if !ok {
		return newError(KindVM, f.ip, instr, "EXEC_EFFECT operand has unexpected type %T", instr.Operand)
	}
	params := make([]value.Value, op.ParamCount)
	for i := op.ParamCount - 1; i >= 0; i-- {
		v, ok := f.pop()
		if !ok {
			return newError(KindVM, f.ip, instr, "EXEC_EFFECT %q expected %d parameter(s) on the stack", op.Handler, op.ParamCount)
		}
		params[i] = v
	}
	result, err := vm.Effects.Dispatch(op.Handler, op.Operation, params, p, effects.Metadata{
		AuditRequired: op.AuditRequired,
		Resource:      op.Resource,
	})
	if err != nil {
		// Effect failures re-throw after audit (spec §7); the audit entry was
		// already appended by Dispatch.
		return newError(KindVM, f.ip, instr, "%v", err)
	}
	f.push(result)
	return nil
}

func resolveLiteral(lit bytecode.LiteralOperand) value.Value {
	switch lit.Kind {
	case "int":
		if n, ok := lit.Value.(int); ok {
			return value.Int{V: n}
		}
		return value.NewInt(toFloat(lit.Value))
	case "float":
		return value.Float{V: toFloat(lit.Value)}
	case "string":
		s, _ := lit.Value.(string)
		return value.String{V: s}
	case "bool":
		b, _ := lit.Value.(bool)
		return value.Bool{V: b}
	case "unit":
		return value.Unit{}
	default:
		return value.Unit{}
	}
}

// arith implements ADD/SUB/MUL/DIV/MOD. MOD takes only int operands and
// yields an int; ADD/SUB/MUL on two ints yield an int; DIV always yields a
// float, and ADD/SUB/MUL promote to float if either operand is a float. DIV by
// a zero divisor pushes MakeErr(String{"Division by zero"}) in place of a
// numeric result, per spec §4.13/§9.
func (vm *VM) arith(f *frame, instr bytecode.Instruction) error {
	b, ok1 := f.pop()
	a, ok2 := f.pop()
	if !ok1 || !ok2 {
		return newError(KindVM, f.ip, instr, "%s requires two stack values", instr.Op)
	}

	// ADD is polymorphic over int+int, float+float, and string+string; the
	// other arithmetic opcodes are numeric-only (spec §4.11).
	if instr.Op == bytecode.ADD {
		if as, ok1 := a.(value.String); ok1 {
			bs, ok2 := b.(value.String)
			if !ok2 {
				return newError(KindTypeMismatch, f.ip, instr, "ADD expects two strings, got %s and %s", a.Kind(), b.Kind())
			}
			f.push(value.String{V: as.V + bs.V})
			return nil
		}
	}

	if instr.Op == bytecode.MOD {
		ai, ok1 := a.(value.Int)
		bi, ok2 := b.(value.Int)
		if !ok1 || !ok2 {
			return newError(KindTypeMismatch, f.ip, instr, "MOD expects two ints, got %s and %s", a.Kind(), b.Kind())
		}
		if bi.V == 0 {
			f.push(value.MakeErr(value.String{V: "Division by zero"}))
			return nil
		}
		f.push(value.Int{V: ai.V % bi.V})
		return nil
	}

	af, aIsFloat, aok := numeric(a)
	bf, bIsFloat, bok := numeric(b)
	if !aok || !bok {
		return newError(KindTypeMismatch, f.ip, instr, "%s expects numeric operands, got %s and %s", instr.Op, a.Kind(), b.Kind())
	}
	bothInt := !aIsFloat && !bIsFloat

	if instr.Op == bytecode.DIV && bf == 0 {
		f.push(value.MakeErr(value.String{V: "Division by zero"}))
		return nil
	}

	var result float64
	switch instr.Op {
	case bytecode.ADD:
		result = af + bf
	case bytecode.SUB:
		result = af - bf
	case bytecode.MUL:
		result = af * bf
	case bytecode.DIV:
		result = af / bf
	}

	if bothInt && instr.Op != bytecode.DIV {
		f.push(value.Int{V: int(result)})
	} else if bothInt && instr.Op == bytecode.DIV {
		f.push(value.Float{V: result})
	} else {
		f.push(value.Float{V: result})
	}
	return nil
}

func numeric(v value.Value) (f float64, isFloat bool, ok bool) {
	switch n := v.(type) {
	case value.Int:
		return float64(n.V), false, true
	case value.Float:
		return n.V, true, true
	default:
		return 0, false, false
	}
}

func (vm *VM) compareNumeric(f *frame, instr bytecode.Instruction) error {
	b, ok1 := f.pop()
	a, ok2 := f.pop()
	if !ok1 || !ok2 {
		return newError(KindVM, f.ip, instr, "%s requires two stack values", instr.Op)
	}
	af, _, aok := numeric(a)
	bf, _, bok := numeric(b)
	if !aok || !bok {
		return newError(KindTypeMismatch, f.ip, instr, "%s expects numeric operands, got %s and %s", instr.Op, a.Kind(), b.Kind())
	}
	var result bool
	switch instr.Op {
	case bytecode.LT:
		result = af < bf
	case bytecode.LE:
		result = af <= bf
	case bytecode.GT:
		result = af > bf
	case bytecode.GE:
		result = af >= bf
	}
	f.push(value.Bool{V: result})
	return nil
}

func (vm *VM) makeList(f *frame, instr bytecode.Instruction) error {
	n, ok := instr.Operand.(int)
	if !ok {
		return newError(KindVM, f.ip, instr, "MAKE_LIST operand has unexpected type %T", instr.Operand)
	}
	items := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		v, ok := f.pop()
		if !ok {
			return newError(KindVM, f.ip, instr, "MAKE_LIST expected %d item(s) on the stack", n)
		}
		items[i] = v
	}
	f.push(value.List{Items: items})
	return nil
}

func (vm *VM) makeMap(f *frame, instr bytecode.Instruction) error {
	n, ok := instr.Operand.(int)
	if !ok {
		return newError(KindVM, f.ip, instr, "MAKE_MAP operand has unexpected type %T", instr.Operand)
	}
	entries := make(map[string]value.Value, n)
	for i := 0; i < n; i++ {
		v, ok1 := f.pop()
		k, ok2 := f.pop()
		if !ok1 || !ok2 {
			return newError(KindVM, f.ip, instr, "MAKE_MAP expected %d pair(s) on the stack", n)
		}
		ks, ok := k.(value.String)
		if !ok {
			return newError(KindTypeMismatch, f.ip, instr, "MAKE_MAP keys must be strings, got %s", k.Kind())
		}
		entries[ks.V] = v
	}
	f.push(value.Map{Entries: entries})
	return nil
}

func (vm *VM) constructRecord(f *frame, instr bytecode.Instruction) error {
	op, ok := instr.Operand.(bytecode.RecordOperand)
	if !ok {
		return newError(KindVM, f.ip, instr, "CONSTRUCT_RECORD operand has unexpected type %T", instr.Operand)
	}
	fields := make(map[string]value.Value, op.FieldCount)
	for i := op.FieldCount - 1; i >= 0; i-- {
		v, ok := f.pop()
		if !ok {
			return newError(KindVM, f.ip, instr, "CONSTRUCT_RECORD %q expected %d field(s) on the stack", op.Type, op.FieldCount)
		}
		name := fmt.Sprintf("field%d", i)
		if i < len(op.FieldNames) {
			name = op.FieldNames[i]
		}
		fields[name] = v
	}
	f.push(value.Record{TypeName: op.Type, Fields: fields})
	return nil
}

func (vm *VM) accessField(f *frame, instr bytecode.Instruction) error {
	name, ok := instr.Operand.(string)
	if !ok {
		return newError(KindVM, f.ip, instr, "ACCESS_FIELD operand has unexpected type %T", instr.Operand)
	}
	v, ok := f.pop()
	if !ok {
		return newError(KindVM, f.ip, instr, "ACCESS_FIELD on empty stack")
	}
	rec, ok := v.(value.Record)
	if !ok {
		return newError(KindTypeMismatch, f.ip, instr, "ACCESS_FIELD expects a record, got %s", v.Kind())
	}
	fv, ok := rec.Fields[name]
	if !ok {
		return newError(KindVM, f.ip, instr, "record %q has no field %q", rec.TypeName, name)
	}
	f.push(fv)
	return nil
}

func (vm *VM) constructVariant(f *frame, instr bytecode.Instruction) error {
	op, ok := instr.Operand.(bytecode.VariantOperand)
	if !ok {
		return newError(KindVM, f.ip, instr, "CONSTRUCT_VARIANT operand has unexpected type %T", instr.Operand)
	}
	var payload value.Value
	if v, ok := f.peek(); ok {
		if _, isUnit := v.(value.Unit); !isUnit {
			payload, _ = f.pop()
		}
	}
	f.push(value.Variant{TypeName: op.Type, Case: op.Case, Payload: payload})
	return nil
}

// matchVariant implements MATCH_VARIANT{type, case}: pop the scrutinee and
// push whether it matches. A copy stays on the stack for subsequent cases
// because the Match compilation scheme DUPs it before every case but the last.
func (vm *VM) matchVariant(f *frame, instr bytecode.Instruction) error {
	op, ok := instr.Operand.(bytecode.VariantOperand)
	if !ok {
		return newError(KindVM, f.ip, instr, "MATCH_VARIANT operand has unexpected type %T", instr.Operand)
	}
	v, ok := f.pop()
	if !ok {
		return newError(KindVM, f.ip, instr, "MATCH_VARIANT on empty stack")
	}
	variant, ok := v.(value.Variant)
	if !ok {
		return newError(KindTypeMismatch, f.ip, instr, "MATCH_VARIANT expects a variant, got %s", v.Kind())
	}
	f.push(value.Bool{V: variant.TypeName == op.Type && variant.Case == op.Case})
	return nil
}

func (vm *VM) listGet(f *frame, instr bytecode.Instruction) error {
	idxV, ok1 := f.pop()
	listV, ok2 := f.pop()
	if !ok1 || !ok2 {
		return newError(KindVM, f.ip, instr, "LIST_GET requires a list and an index")
	}
	lst, ok := listV.(value.List)
	idx, ok2 := idxV.(value.Int)
	if !ok || !ok2 {
		return newError(KindTypeMismatch, f.ip, instr, "LIST_GET expects a list and an int index")
	}
	if idx.V < 0 || idx.V >= len(lst.Items) {
		return newError(KindVM, f.ip, instr, "list index %d out of range (length %d)", idx.V, len(lst.Items))
	}
	f.push(lst.Items[idx.V])
	return nil
}

func (vm *VM) listLen(f *frame, instr bytecode.Instruction) error {
	v, ok := f.pop()
	lst, ok2 := v.(value.List)
	if !ok || !ok2 {
		return newError(KindTypeMismatch, f.ip, instr, "LIST_LEN expects a list, got %s", v.Kind())
	}
	f.push(value.NewInt(float64(len(lst.Items))))
	return nil
}

func (vm *VM) listSet(f *frame, instr bytecode.Instruction) error {
	newV, ok1 := f.pop()
	idxV, ok2 := f.pop()
	listV, ok3 := f.pop()
	if !ok1 || !ok2 || !ok3 {
		return newError(KindVM, f.ip, instr, "LIST_SET requires a list, an index, and a value")
	}
	lst, ok := listV.(value.List)
	idx, ok2 := idxV.(value.Int)
	if !ok || !ok2 {
		return newError(KindTypeMismatch, f.ip, instr, "LIST_SET expects a list and an int index")
	}
	if idx.V < 0 || idx.V >= len(lst.Items) {
		return newError(KindVM, f.ip, instr, "list index %d out of range (length %d)", idx.V, len(lst.Items))
	}
	updated := make([]value.Value, len(lst.Items))
	copy(updated, lst.Items)
	updated[idx.V] = newV
	f.push(value.List{Items: updated})
	return nil
}

func (vm *VM) listAppend(f *frame, instr bytecode.Instruction) error {
	v, ok1 := f.pop()
	listV, ok2 := f.pop()
	if !ok1 || !ok2 {
		return newError(KindVM, f.ip, instr, "LIST_APPEND requires a list and a value")
	}
	lst, ok := listV.(value.List)
	if !ok {
		return newError(KindTypeMismatch, f.ip, instr, "LIST_APPEND expects a list, got %s", listV.Kind())
	}
	updated := make([]value.Value, len(lst.Items)+1)
	copy(updated, lst.Items)
	updated[len(lst.Items)] = v
	f.push(value.List{Items: updated})
	return nil
}

func (vm *VM) mapGet(f *frame, instr bytecode.Instruction) error {
	keyV, ok1 := f.pop()
	mapV, ok2 := f.pop()
	if !ok1 || !ok2 {
		return newError(KindVM, f.ip, instr, "MAP_GET requires a map and a key")
	}
	m, ok := mapV.(value.Map)
	key, ok2 := keyV.(value.String)
	if !ok || !ok2 {
		return newError(KindTypeMismatch, f.ip, instr, "MAP_GET expects a map and a string key")
	}
	v, found := m.Entries[key.V]
	if !found {
		f.push(value.MakeNone())
		return nil
	}
	f.push(value.MakeSome(v))
	return nil
}

func (vm *VM) mapSet(f *frame, instr bytecode.Instruction) error {
	v, ok1 := f.pop()
	keyV, ok2 := f.pop()
	mapV, ok3 := f.pop()
	if !ok1 || !ok2 || !ok3 {
		return newError(KindVM, f.ip, instr, "MAP_SET requires a map, a key, and a value")
	}
	m, ok := mapV.(value.Map)
	key, ok2 := keyV.(value.String)
	if !ok || !ok2 {
		return newError(KindTypeMismatch, f.ip, instr, "MAP_SET expects a map and a string key")
	}
	updated := make(map[string]value.Value, len(m.Entries)+1)
	for k, ev := range m.Entries {
		updated[k] = ev
	}
	updated[key.V] = v
	f.push(value.Map{Entries: updated})
	return nil
}

func (vm *VM) mapHas(f *frame, instr bytecode.Instruction) error {
	keyV, ok1 := f.pop()
	mapV, ok2 := f.pop()
	if !ok1 || !ok2 {
		return newError(KindVM, f.ip, instr, "MAP_HAS requires a map and a key")
	}
	m, ok := mapV.(value.Map)
	key, ok2 := keyV.(value.String)
	if !ok || !ok2 {
		return newError(KindTypeMismatch, f.ip, instr, "MAP_HAS expects a map and a string key")
	}
	_, found := m.Entries[key.V]
	f.push(value.Bool{V: found})
	return nil
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	default:
		f, _ := strconv.ParseFloat(fmt.Sprint(v), 64)
		return f
	}
}
