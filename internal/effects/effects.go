// SPDX-License-Identifier: Apache-2.0
// SPDX-FileCopyrightText: 2025 The Linux Foundation

// Package effects implements the effect handler registry of spec §4.15:
// named handlers (db, http, fs, log, event), a permission gate per
// dispatch, and a classification-aware, append-only audit log.
//
// The registry follows the same global-map-plus-Register-function shape
// the teacher uses for its per-language extractors (RegisterExtractor /
// GetExtractor): Extractor becomes Handler, Detect/Extract become
// CheckPermission/Execute.
package effects

import (
	"fmt"
	"time"

	"github.com/corelang/corelang/internal/principal"
	"github.com/corelang/corelang/internal/security"
	"github.com/corelang/corelang/internal/value"
)

// Handler is one named effect capability (db, http, fs, log, event, ...).
type Handler interface {
	// Name returns the handler's registry key, e.g. "db".
	Name() string
	// CheckPermission reports whether p may invoke operation on this
	// handler, by simple role-string membership in the handler's mock
	// configuration.
	CheckPermission(operation string, p principal.Principal) bool
	// Execute runs operation with params and returns a value or an error.
	// Errors here are surfaced to the VM as a thrown error (re-thrown after
	// audit, per spec §7); handlers that want to surface a value-level
	// failure should return value.MakeErr(...) instead of a Go error.
	Execute(operation string, params []value.Value, p principal.Principal, metadata Metadata) (value.Value, error)
}

// Metadata carries the EXEC_EFFECT operand fields that govern audit
// behavior (spec §4.13's EXEC_EFFECT{handler, operation, param_count,
// audit_required?, resource?}).
type Metadata struct {
	AuditRequired bool
	Resource      string
	// FieldClassifications maps a record-typed param's field name to its
	// declared classification, consulted by the redaction rule below when a
	// param is a value.Record. Handlers that don't construct records from
	// typed schemas may leave this nil.
	FieldClassifications map[string]security.Classification
}

// AuditEntry is one append-only audit log record (spec §4.15).
type AuditEntry struct {
	Timestamp   time.Time
	PrincipalID string
	Handler     string
	Operation   string
	Params      []string // redacted, rendered form
	Result      string   // rendered result, "" if Error is set
	Error       string   // "" on success
	Success     bool
}

// Registry holds the set of named handlers and the audit log their
// dispatches append to.
type Registry struct {
	handlers map[string]Handler
	audit    []AuditEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register adds h to the registry, keyed by h.Name().
func (r *Registry) Register(h Handler) {
	r.handlers[h.Name()] = h
}

// Get retrieves a handler by name.
func (r *Registry) Get(name string) (Handler, error) {
	h, ok := r.handlers[name]
	if !ok {
		return nil, fmt.Errorf("effects: no handler registered for %q", name)
	}
	return h, nil
}

// AuditLog returns every entry appended so far, in dispatch order.
func (r *Registry) AuditLog() []AuditEntry {
	return r.audit
}

// ClearAudit empties the audit log; tests may call this between scenarios.
func (r *Registry) ClearAudit() {
	r.audit = nil
}

// Dispatch implements EXEC_EFFECT{handler, operation, param_count,
// audit_required?, resource?}: look up the handler, check its permission
// predicate, invoke it, and — on permission failure, execution failure, or
// success — append a redacted audit entry if metadata.AuditRequired is set.
func (r *Registry) Dispatch(handlerName, operation string, params []value.Value, p principal.Principal, metadata Metadata) (value.Value, error) {
	h, err := r.Get(handlerName)
	if err != nil {
		return nil, err
	}

	if !h.CheckPermission(operation, p) {
		r.maybeAudit(metadata, p, handlerName, operation, params, "", "permission denied", false)
		return nil, fmt.Errorf("effects: principal %q denied permission for %s.%s", p.ID, handlerName, operation)
	}

	result, execErr := h.Execute(operation, params, p, metadata)
	if execErr != nil {
		r.maybeAudit(metadata, p, handlerName, operation, params, "", execErr.Error(), false)
		return nil, execErr
	}

	r.maybeAudit(metadata, p, handlerName, operation, params, value.Render(result), "", true)
	return result, nil
}

func (r *Registry) maybeAudit(metadata Metadata, p principal.Principal, handlerName, operation string, params []value.Value, result, errMsg string, success bool) {
	if !metadata.AuditRequired {
		return
	}
	redacted := make([]string, len(params))
	for i, v := range params {
		redacted[i] = RedactForAudit(v, metadata.FieldClassifications)
	}
	r.audit = append(r.audit, AuditEntry{
		Timestamp:   time.Now(),
		PrincipalID: p.ID,
		Handler:     handlerName,
		Operation:   operation,
		Params:      redacted,
		Result:      result,
		Error:       errMsg,
		Success:     success,
	})
}

// RedactForAudit implements spec §4.15's classification-aware redaction
// rule: restricted/confidential fields become the literal "[REDACTED]";
// internal fields become a type-only stub "{type: T}"; public or
// unclassified values are rendered verbatim, recursing into
// records/lists/maps.
func RedactForAudit(v value.Value, fieldClassifications map[string]security.Classification) string {
	return redact(v, "", fieldClassifications)
}

func redact(v value.Value, fieldName string, classifications map[string]security.Classification) string {
	if c, ok := classifications[fieldName]; ok {
		switch c {
		case security.Restricted, security.Confidential:
			return "[REDACTED]"
		case security.Internal:
			return fmt.Sprintf("{type: %s}", v.Kind())
		}
	}

	switch tv := v.(type) {
	case value.Record:
		if c := security.Classification(tv.Classification); c == security.Restricted || c == security.Confidential {
			return "[REDACTED]"
		} else if c == security.Internal {
			return fmt.Sprintf("{type: %s}", tv.TypeName)
		}
		out := fmt.Sprintf("%s{", tv.TypeName)
		first := true
		for k, fv := range tv.Fields {
			if !first {
				out += ", "
			}
			first = false
			out += k + ": " + redact(fv, k, classifications)
		}
		return out + "}"
	case value.List:
		out := "["
		for i, item := range tv.Items {
			if i > 0 {
				out += ", "
			}
			out += redact(item, fieldName, classifications)
		}
		return out + "]"
	case value.Map:
		out := "{"
		first := true
		for k, mv := range tv.Entries {
			if !first {
				out += ", "
			}
			first = false
			out += k + ": " + redact(mv, k, classifications)
		}
		return out + "}"
	default:
		return value.Render(v)
	}
}
