package shark

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors returned by the Shark client.
var (
	// Construction errors
	ErrInvalidCredentials = errors.New("shark: email, password and a known mobile OS are required")

	// Session errors
	ErrNoSession = errors.New("shark: no session (call Login first)")

	// Argument validation errors
	ErrEmptySerialNumber = errors.New("shark: serial number cannot be empty")
	ErrEmptyPropertyName = errors.New("shark: property name cannot be empty")
)

// ErrorKind tags the failure classes returned by every client call.
type ErrorKind int

const (
	// KindNone is reported for nil errors and errors not produced by this package.
	KindNone ErrorKind = iota
	// KindPipeline covers transport failures, unreadable bodies and unexpected panics.
	KindPipeline
	// KindRequestRejected means the server answered with a non-success status.
	KindRequestRejected
	// KindResponseValidation means a success body did not have the expected shape.
	KindResponseValidation
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindPipeline:
		return "pipeline"
	case KindRequestRejected:
		return "request_rejected"
	case KindResponseValidation:
		return "response_validation"
	default:
		return "none"
	}
}

// kinded is implemented by the three error types below.
type kinded interface {
	error
	Kind() ErrorKind
}

// KindOf returns the tag of the outermost shark error in err's chain.
func KindOf(err error) ErrorKind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindNone
}

// RequestRejectedError is returned when the API answers with a non-2xx status.
type RequestRejectedError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *RequestRejectedError) Error() string {
	return fmt.Sprintf("shark: request rejected (%d): %s", e.StatusCode, e.Message)
}

// Kind returns KindRequestRejected.
func (e *RequestRejectedError) Kind() ErrorKind { return KindRequestRejected }

// FieldError is a single shape failure inside a response body.
type FieldError struct {
	Path   string
	Reason string
}

// String renders the failure as "path: reason".
func (f FieldError) String() string {
	if f.Path == "" {
		return f.Reason
	}
	return f.Path + ": " + f.Reason
}

// ResponseValidationError is returned when a success body fails shape validation.
type ResponseValidationError struct {
	Endpoint Endpoint
	Fields   []FieldError
}

// Error implements the error interface.
func (e *ResponseValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("shark: unexpected %s response: %s", e.Endpoint, strings.Join(parts, "; "))
}

// Kind returns KindResponseValidation.
func (e *ResponseValidationError) Kind() ErrorKind { return KindResponseValidation }

// PipelineError is the catch-all for failures that are neither a rejection nor
// a validation failure.
type PipelineError struct {
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Op == "" {
		return "shark: " + e.Message
	}
	return fmt.Sprintf("shark: %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause.
func (e *PipelineError) Unwrap() error { return e.Err }

// Kind returns KindPipeline.
func (e *PipelineError) Kind() ErrorKind { return KindPipeline }

// newPipelineError wraps an arbitrary cause. Non-error causes (recovered panics)
// are stringified and kept out of the unwrap chain.
func newPipelineError(op string, cause any) *PipelineError {
	pe := &PipelineError{Op: op, Message: describeCause(cause)}
	if err, ok := cause.(error); ok {
		pe.Err = err
	}
	return pe
}

// describeCause renders any value as a message. JSON is tried for structured
// values. encoding/json reports cycles as an error; only the dynamic type is
// used then, since %v would recurse forever on a self-referencing map.
func describeCause(cause any) string {
	switch v := cause.(type) {
	case nil:
		return "unknown error"
	case error:
		return v.Error()
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	if data, err := json.Marshal(cause); err == nil {
		return string(data)
	}
	return fmt.Sprintf("unprintable %T value", cause)
}

// IsRequestRejected returns true if err is a RequestRejectedError.
func IsRequestRejected(err error) bool {
	return KindOf(err) == KindRequestRejected
}

// IsResponseValidation returns true if err is a ResponseValidationError.
func IsResponseValidation(err error) bool {
	return KindOf(err) == KindResponseValidation
}

// IsPipelineError returns true if err is a PipelineError.
func IsPipelineError(err error) bool {
	return KindOf(err) == KindPipeline
}

// IsUnauthorized returns true if the server rejected the request as unauthenticated.
func IsUnauthorized(err error) bool {
	var rej *RequestRejectedError
	if errors.As(err, &rej) {
		return rej.StatusCode == http.StatusUnauthorized
	}
	return false
}

// IsTimeout returns true if the error indicates a timeout.
func IsTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
