// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

package effects

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/corelang/corelang/internal/principal"
	"github.com/corelang/corelang/internal/value"
)

// baseHandler provides the common Name/permission-table plumbing every mock
// handler shares, the same embed-a-base-struct shape the teacher's
// per-language extractors use for their shared Name/Priority fields.
type baseHandler struct {
	name string
	// allowedRoles maps operation -> roles permitted to invoke it. An empty
	// or absent entry means any role is permitted.
	allowedRoles map[string][]string
}

func (b *baseHandler) Name() string { return b.name }

func (b *baseHandler) CheckPermission(operation string, p principal.Principal) bool {
	roles, ok := b.allowedRoles[operation]
	if !ok || len(roles) == 0 {
		return true
	}
	return p.HasAnyRole(roles)
}

// AllowRole restricts operation on this handler to roles; tests use this
// to exercise the permission-denied path. Operations with no entry admit
// any principal.
func (b *baseHandler) AllowRole(operation string, roles ...string) {
	if b.allowedRoles == nil {
		b.allowedRoles = map[string][]string{}
	}
	b.allowedRoles[operation] = roles
}

// DBHandler is a mock key-value table store standing in for `db.*` effects.
type DBHandler struct {
	baseHandler
	tables map[string]map[string]value.Value
}

// NewDBHandler creates an empty mock database handler.
func NewDBHandler() *DBHandler {
	return &DBHandler{
		baseHandler: baseHandler{name: "db", allowedRoles: map[string][]string{}},
		tables:      map[string]map[string]value.Value{},
	}
}

// Execute supports "read" and "write" operations against an in-memory
// table keyed by record id. "read" looks up the id given as the first
// param; "write" stores the first param as the record under a freshly
// generated id and returns that id.
func (h *DBHandler) Execute(operation string, params []value.Value, p principal.Principal, metadata Metadata) (value.Value, error) {
	table := metadata.Resource
	if table == "" {
		table = "default"
	}
	switch operation {
	case "read":
		if len(params) < 1 {
			return value.MakeErr(value.String{V: "db.read requires a record id"}), nil
		}
		id, ok := params[0].(value.String)
		if !ok {
			return value.MakeErr(value.String{V: "db.read id must be a string"}), nil
		}
		rows := h.tables[table]
		row, found := rows[id.V]
		if !found {
			return value.MakeNone(), nil
		}
		return value.MakeSome(row), nil
	case "write":
		if len(params) < 1 {
			return value.MakeErr(value.String{V: "db.write requires a record"}), nil
		}
		id := uuid.New().String()
		if _, ok := h.tables[table]; !ok {
			h.tables[table] = map[string]value.Value{}
		}
		h.tables[table][id] = params[0]
		return value.MakeOk(value.String{V: id}), nil
	default:
		return nil, fmt.Errorf("db: unsupported operation %q", operation)
	}
}

// HTTPHandler is a mock HTTP client standing in for `http.*` effects; it
// never performs real network I/O, returning canned responses registered
// via Stub.
type HTTPHandler struct {
	baseHandler
	stubs map[string]value.Value
}

// NewHTTPHandler creates an HTTP handler with no stubbed routes.
func NewHTTPHandler() *HTTPHandler {
	return &HTTPHandler{
		baseHandler: baseHandler{name: "http", allowedRoles: map[string][]string{}},
		stubs:       map[string]value.Value{},
	}
}

// Stub registers a canned response value.Value for a given route key
// ("GET /users", etc), used by tests to drive http.call deterministically.
func (h *HTTPHandler) Stub(route string, response value.Value) {
	h.stubs[route] = response
}

func (h *HTTPHandler) Execute(operation string, params []value.Value, p principal.Principal, metadata Metadata) (value.Value, error) {
	if operation != "call" {
		return nil, fmt.Errorf("http: unsupported operation %q", operation)
	}
	if len(params) < 1 {
		return value.MakeErr(value.String{V: "http.call requires a route"}), nil
	}
	route, ok := params[0].(value.String)
	if !ok {
		return value.MakeErr(value.String{V: "http.call route must be a string"}), nil
	}
	resp, found := h.stubs[route.V]
	if !found {
		return value.MakeErr(value.String{V: "no stub registered for route " + route.V}), nil
	}
	return value.MakeOk(resp), nil
}

// FSHandler is a mock in-memory filesystem standing in for `fs.*` effects.
type FSHandler struct {
	baseHandler
	files map[string]string
}

// NewFSHandler creates an empty mock filesystem handler.
func NewFSHandler() *FSHandler {
	return &FSHandler{
		baseHandler: baseHandler{name: "fs", allowedRoles: map[string][]string{}},
		files:       map[string]string{},
	}
}

func (h *FSHandler) Execute(operation string, params []value.Value, p principal.Principal, metadata Metadata) (value.Value, error) {
	switch operation {
	case "read":
		if len(params) < 1 {
			return value.MakeErr(value.String{V: "fs.read requires a path"}), nil
		}
		path, ok := params[0].(value.String)
		if !ok {
			return value.MakeErr(value.String{V: "fs.read path must be a string"}), nil
		}
		content, found := h.files[path.V]
		if !found {
			return value.MakeErr(value.String{V: "no such file: " + path.V}), nil
		}
		return value.MakeOk(value.String{V: content}), nil
	case "write":
		if len(params) < 2 {
			return value.MakeErr(value.String{V: "fs.write requires a path and content"}), nil
		}
		path, ok1 := params[0].(value.String)
		content, ok2 := params[1].(value.String)
		if !ok1 || !ok2 {
			return value.MakeErr(value.String{V: "fs.write path and content must be strings"}), nil
		}
		h.files[path.V] = content.V
		return value.MakeOk(value.Unit{}), nil
	default:
		return nil, fmt.Errorf("fs: unsupported operation %q", operation)
	}
}

// LogHandler is a mock structured logger standing in for `log.*` effects.
// It applies the same classification-aware redaction the audit log uses to
// any record-valued message before appending to its in-memory sink.
type LogHandler struct {
	baseHandler
	entries []string
}

// NewLogHandler creates an empty mock log handler.
func NewLogHandler() *LogHandler {
	return &LogHandler{baseHandler: baseHandler{name: "log", allowedRoles: map[string][]string{}}}
}

// Entries returns every message logged so far, in order.
func (h *LogHandler) Entries() []string {
	return h.entries
}

func (h *LogHandler) Execute(operation string, params []value.Value, p principal.Principal, metadata Metadata) (value.Value, error) {
	if operation != "write" {
		return nil, fmt.Errorf("log: unsupported operation %q", operation)
	}
	if len(params) < 1 {
		return value.MakeErr(value.String{V: "log.write requires a message"}), nil
	}

	var rendered string
	if rec, ok := params[0].(value.Record); ok {
		rendered = RedactForAudit(rec, metadata.FieldClassifications)
	} else {
		rendered = value.Render(params[0])
	}
	h.entries = append(h.entries, rendered)
	return value.MakeOk(value.Unit{}), nil
}

// EventHandler is a mock publish/subscribe bus standing in for `event.*`
// effects; subscribers are plain string tags, not callbacks, since the VM
// has no closure support (spec §9, "Lambdas and closures").
type EventHandler struct {
	baseHandler
	published map[string][]value.Value
}

// NewEventHandler creates an empty mock event handler.
func NewEventHandler() *EventHandler {
	return &EventHandler{
		baseHandler: baseHandler{name: "event", allowedRoles: map[string][]string{}},
		published:   map[string][]value.Value{},
	}
}

// Published returns every value published under topic, in order.
func (h *EventHandler) Published(topic string) []value.Value {
	return h.published[topic]
}

func (h *EventHandler) Execute(operation string, params []value.Value, p principal.Principal, metadata Metadata) (value.Value, error) {
	if operation != "publish" {
		return nil, fmt.Errorf("event: unsupported operation %q", operation)
	}
	if len(params) < 2 {
		return value.MakeErr(value.String{V: "event.publish requires a topic and payload"}), nil
	}
	topic, ok := params[0].(value.String)
	if !ok {
		return value.MakeErr(value.String{V: "event.publish topic must be a string"}), nil
	}
	h.published[topic.V] = append(h.published[topic.V], params[1])
	return value.MakeOk(value.Unit{}), nil
}
