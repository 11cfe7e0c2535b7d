// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package natives implements the host function table CALL_NATIVE dispatches
// into (spec §4.14): dotted names like `str.concat`, `str.uppercase`,
// `list.length` that have no dedicated opcode. Arity and type checks live
// in each native function, per spec.
package natives

import (
	"fmt"
	"sort"
	"strings"

	"github.com/corelang/corelang/internal/value"
)

// Func is one native function's implementation.
type Func func(args []value.Value) (value.Value, error)

// Registry is the CALL_NATIVE lookup table.
type Registry struct {
	fns map[string]Func
}

// NewRegistry builds a Registry pre-populated with the standard str.*,
// list.*, and map.* natives.
func NewRegistry() *Registry {
	r := &Registry{fns: map[string]Func{}}
	r.registerDefaults()
	return r
}

// Register adds or overrides a native function by its dotted name.
func (r *Registry) Register(name string, fn Func) {
	r.fns[name] = fn
}

// Call looks up name and invokes it with args.
func (r *Registry) Call(name string, args []value.Value) (value.Value, error) {
	fn, ok := r.fns[name]
	if !ok {
		return nil, fmt.Errorf("natives: no native function registered for %q", name)
	}
	return fn(args)
}

func wantString(args []value.Value, i int, fn string) (string, error) {
	if i >= len(args) {
		return "", fmt.Errorf("%s: expected at least %d arguments", fn, i+1)
	}
	s, ok := args[i].(value.String)
	if !ok {
		return "", fmt.Errorf("%s: argument %d must be a string, got %s", fn, i, args[i].Kind())
	}
	return s.V, nil
}

func wantList(args []value.Value, i int, fn string) ([]value.Value, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("%s: expected at least %d arguments", fn, i+1)
	}
	l, ok := args[i].(value.List)
	if !ok {
		return nil, fmt.Errorf("%s: argument %d must be a list, got %s", fn, i, args[i].Kind())
	}
	return l.Items, nil
}

func wantMap(args []value.Value, i int, fn string) (map[string]value.Value, error) {
	if i >= len(args) {
		return nil, fmt.Errorf("%s: expected at least %d arguments", fn, i+1)
	}
	m, ok := args[i].(value.Map)
	if !ok {
		return nil, fmt.Errorf("%s: argument %d must be a map, got %s", fn, i, args[i].Kind())
	}
	return m.Entries, nil
}

func (r *Registry) registerDefaults() {
	r.fns["str.concat"] = func(args []value.Value) (value.Value, error) {
		var b strings.Builder
		for i := range args {
			s, err := wantString(args, i, "str.concat")
			if err != nil {
				return nil, err
			}
			b.WriteString(s)
		}
		return value.String{V: b.String()}, nil
	}
	r.fns["str.uppercase"] = func(args []value.Value) (value.Value, error) {
		s, err := wantString(args, 0, "str.uppercase")
		if err != nil {
			return nil, err
		}
		return value.String{V: strings.ToUpper(s)}, nil
	}
	r.fns["str.lowercase"] = func(args []value.Value) (value.Value, error) {
		s, err := wantString(args, 0, "str.lowercase")
		if err != nil {
			return nil, err
		}
		return value.String{V: strings.ToLower(s)}, nil
	}
	r.fns["str.trim"] = func(args []value.Value) (value.Value, error) {
		s, err := wantString(args, 0, "str.trim")
		if err != nil {
			return nil, err
		}
		return value.String{V: strings.TrimSpace(s)}, nil
	}
	r.fns["str.split"] = func(args []value.Value) (value.Value, error) {
		s, err := wantString(args, 0, "str.split")
		if err != nil {
			return nil, err
		}
		sep, err := wantString(args, 1, "str.split")
		if err != nil {
			return nil, err
		}
		parts := strings.Split(s, sep)
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.String{V: p}
		}
		return value.List{Items: items}, nil
	}
	r.fns["list.length"] = func(args []value.Value) (value.Value, error) {
		items, err := wantList(args, 0, "list.length")
		if err != nil {
			return nil, err
		}
		return value.NewInt(float64(len(items))), nil
	}
	r.fns["list.reverse"] = func(args []value.Value) (value.Value, error) {
		items, err := wantList(args, 0, "list.reverse")
		if err != nil {
			return nil, err
		}
		out := make([]value.Value, len(items))
		for i, v := range items {
			out[len(items)-1-i] = v
		}
		return value.List{Items: out}, nil
	}
	r.fns["list.contains"] = func(args []value.Value) (value.Value, error) {
		items, err := wantList(args, 0, "list.contains")
		if err != nil {
			return nil, err
		}
		if len(args) < 2 {
			return nil, fmt.Errorf("list.contains: expected at least 2 arguments")
		}
		for _, v := range items {
			if value.Equal(v, args[1]) {
				return value.Bool{V: true}, nil
			}
		}
		return value.Bool{V: false}, nil
	}
	r.fns["map.keys"] = func(args []value.Value) (value.Value, error) {
		entries, err := wantMap(args, 0, "map.keys")
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = value.String{V: k}
		}
		return value.List{Items: items}, nil
	}
	r.fns["map.values"] = func(args []value.Value) (value.Value, error) {
		entries, err := wantMap(args, 0, "map.values")
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = entries[k]
		}
		return value.List{Items: items}, nil
	}
}
