package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// TransportError reports that the signing service could not be reached:
// connection refused, DNS failure, timeout or a cancelled context.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError reports a response that does not have the expected shape,
// including any non-2xx status.
type ProtocolError struct {
	Op         string
	StatusCode int
	Reason     string
	Err        error
}

func (e *ProtocolError) Error() string {
	msg := fmt.Sprintf("%s: protocol error: %s", e.Op, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ValidationError is raised at the input boundary and never reaches the signing client.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PersistenceError reports a failed read or write against durable storage.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence error: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsTransportError reports whether err, or anything it wraps, is a TransportError
func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsProtocolError reports whether err, or anything it wraps, is a ProtocolError
func IsProtocolError(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}

// IsValidationError reports whether err, or anything it wraps, is a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsPersistenceError reports whether err, or anything it wraps, is a PersistenceError
func IsPersistenceError(err error) bool {
	var target *PersistenceError
	return errors.As(err, &target)
}
