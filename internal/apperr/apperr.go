// Package apperr defines the error kinds handlers translate into HTTP responses.
package apperr

import (
	"database/sql"
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindInsufficientStock
	KindConcurrentModification
	KindConflict
	KindUnauthorized
	KindForbidden
)

// Code is the client-facing WMS error code.
type Code string

const (
	CodeInventoryNotFound      Code = "WMS-1001"
	CodeInsufficientStock      Code = "WMS-1002"
	CodeInvalidSKU             Code = "WMS-1003"
	CodeStockLocked            Code = "WMS-1004"
	CodeOrderNotFound          Code = "WMS-2001"
	CodeInvalidOrderStatus     Code = "WMS-2002"
	CodeOrderAlreadyShipped    Code = "WMS-2003"
	CodeOrderCancelled         Code = "WMS-2005"
	CodeUnauthorized           Code = "WMS-4001"
	CodeInsufficientPermission Code = "WMS-4002"
	CodeValidation             Code = "WMS-5000"
	CodeDuplicateEntry         Code = "WMS-5001"
	CodeNotFound               Code = "WMS-5002"
	CodeInvalidTransition      Code = "WMS-5003"
	CodeDatabase               Code = "WMS-5004"
	CodeTimeout                Code = "WMS-6004"
)

// Error is a classified application error. MessageID selects the localized
// message; Data feeds both the message template and the response hint fields.
type Error struct {
	Kind      Kind
	Code      Code
	MessageID string
	Message   string
	Data      map[string]any
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// With attaches a hint field to the error and returns it.
func (e *Error) With(key string, value any) *Error {
	if e.Data == nil {
		e.Data = map[string]any{}
	}
	e.Data[key] = value
	return e
}

// Wrap records the underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Err = err
	return e
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	ae, ok := As(err)
	return ok && ae.Kind == kind
}

func NotFound(messageID, message string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, MessageID: messageID, Message: message}
}

func Invalid(messageID, message string) *Error {
	return &Error{Kind: KindInvalid, Code: CodeValidation, MessageID: messageID, Message: message}
}

func Conflict(messageID, message string) *Error {
	return &Error{Kind: KindConflict, Code: CodeDuplicateEntry, MessageID: messageID, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: CodeUnauthorized, MessageID: "Unauthorized", Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeInsufficientPermission, MessageID: "Forbidden", Message: message}
}

func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeDatabase, MessageID: "InternalError", Message: "internal error", Err: err}
}

// MissingFields reports absent request fields; the names land in the "required" hint.
func MissingFields(fields ...string) *Error {
	return Invalid("MissingFields", "required fields are missing").With("required", fields)
}

// InvalidValue reports an enum field outside its allowed set.
func InvalidValue(field string, valid []string) *Error {
	return Invalid("InvalidValue", fmt.Sprintf("invalid %s", field)).
		With("field", field).
		With("validValues", valid)
}

// InsufficientStock carries the quantities the client needs to retry sensibly.
func InsufficientStock(available, requested int) *Error {
	return &Error{
		Kind:      KindInsufficientStock,
		Code:      CodeInsufficientStock,
		MessageID: "InsufficientStock",
		Message:   "insufficient stock",
		Data:      map[string]any{"available": available, "requested": requested},
	}
}

// ConcurrentModification signals the row changed between read and conditional write.
func ConcurrentModification(entity string) *Error {
	return &Error{
		Kind:      KindConcurrentModification,
		Code:      CodeStockLocked,
		MessageID: "ConcurrentModification",
		Message:   fmt.Sprintf("%s was modified concurrently", entity),
		Data:      map[string]any{"entity": entity},
	}
}

// InvalidTransition rejects a workflow status change.
func InvalidTransition(entity, from, to string) *Error {
	return &Error{
		Kind:      KindConflict,
		Code:      CodeInvalidTransition,
		MessageID: "InvalidTransition",
		Message:   fmt.Sprintf("cannot transition %s from %s to %s", entity, from, to),
		Data:      map[string]any{"entity": entity, "from": from, "to": to},
	}
}

// FromRepo converts sql.ErrNoRows into a NotFound error and wraps anything else
// as internal. nil stays nil.
func FromRepo(err error, notFound *Error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return notFound
	default:
		if _, ok := As(err); ok {
			return err
		}
		return Internal(err)
	}
}
