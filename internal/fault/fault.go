// Package fault defines the error taxonomy of the binding layer.
//
// Missing context, asset load failures, structural splice violations and
// illegal lifecycle transitions are fatal: they propagate to the nearest
// error boundary and are never retried. Unsupported live updates are not
// errors at all; they are reported with UNSUPPORTED_UPDATE only to callers
// that ask for them and are otherwise logged and ignored.
package fault

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code categorizes binding errors.
type Code string

const (
	// CodeMissingContext: a node needs an ambient value no ancestor published.
	CodeMissingContext Code = "MISSING_CONTEXT"

	// CodeAssetLoad: one or more assets of a batch failed to load.
	CodeAssetLoad Code = "ASSET_LOAD_FAILED"

	// CodeStructural: a splice placeholder or content node was missing at
	// swap time, which only happens after out-of-order teardown.
	CodeStructural Code = "STRUCTURAL_VIOLATION"

	// CodeUnsupportedUpdate: the engine has no live-update path for the change.
	CodeUnsupportedUpdate Code = "UNSUPPORTED_UPDATE"

	// CodeIllegalTransition: a scene node lifecycle hook ran out of order.
	CodeIllegalTransition Code = "ILLEGAL_TRANSITION"
)

// Error is a categorized binding error.
type Error struct {
	// Code identifies the error category.
	Code Code

	// Message is a human-readable description.
	Message string

	// Entity identifies the engine entity or node kind involved, if any.
	Entity string

	// Details carries additional context.
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Entity != "" {
		fmt.Fprintf(&b, " (entity=%s)", e.Entity)
	}
	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%s", k, e.Details[k])
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}

// IsMissingContext reports whether err is a missing context error.
func IsMissingContext(err error) bool {
	return CodeOf(err) == CodeMissingContext
}

// IsAssetLoad reports whether err is an asset load failure.
func IsAssetLoad(err error) bool {
	return CodeOf(err) == CodeAssetLoad
}

// IsStructural reports whether err is a splice structural violation.
func IsStructural(err error) bool {
	return CodeOf(err) == CodeStructural
}

// IsUnsupportedUpdate reports whether err marks an ignored live update.
func IsUnsupportedUpdate(err error) bool {
	return CodeOf(err) == CodeUnsupportedUpdate
}

// IsIllegalTransition reports whether err is a lifecycle ordering error.
func IsIllegalTransition(err error) bool {
	return CodeOf(err) == CodeIllegalTransition
}

// MissingContext creates the error returned when key is required but absent.
func MissingContext(key, entity string) *Error {
	return &Error{
		Code:    CodeMissingContext,
		Message: fmt.Sprintf("missing required context %q", key),
		Entity:  entity,
	}
}

// AssetLoad wraps the first failure of an asset batch.
func AssetLoad(name string, err error) *Error {
	return &Error{
		Code:    CodeAssetLoad,
		Message: fmt.Sprintf("asset %q failed to load", name),
		Entity:  name,
		Err:     err,
	}
}

// Structural creates a splice structural violation.
func Structural(message string) *Error {
	return &Error{
		Code:    CodeStructural,
		Message: message,
	}
}

// UnsupportedUpdate creates the marker error for an ignored live update.
func UnsupportedUpdate(entity, message string) *Error {
	return &Error{
		Code:    CodeUnsupportedUpdate,
		Message: message,
		Entity:  entity,
	}
}

// IllegalTransition creates a lifecycle ordering error.
func IllegalTransition(entity, from, to string) *Error {
	return &Error{
		Code:    CodeIllegalTransition,
		Message: fmt.Sprintf("cannot move from %s to %s", from, to),
		Entity:  entity,
		Details: map[string]string{"from": from, "to": to},
	}
}
