package types

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// MaxMessageLength is the largest message, in characters, a session accepts.
const MaxMessageLength = 300

// TimestampLayout renders signing times the same way the history log stores them.
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// Message is the user supplied text submitted for signing.
type Message string

// Len returns the length of the message in characters (not bytes).
func (m Message) Len() int {
	return utf8.RuneCountInString(string(m))
}

// Signature is the opaque value returned by the signing service.
// It is stored and displayed, never parsed.
type Signature string

// Timestamp is a display-formatted capture of the moment a signature was produced.
type Timestamp string

// NewTimestamp formats t for display
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.Format(TimestampLayout))
}

// VerificationResult is the outcome of the last verification attempt.
type VerificationResult int

const (
	VerificationUnknown VerificationResult = iota
	VerificationValid
	VerificationInvalid
)

func (v VerificationResult) String() string {
	switch v {
	case VerificationUnknown:
		return "unknown"
	case VerificationValid:
		return "valid"
	case VerificationInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("VerificationResult(%d)", int(v))
	}
}

// VerificationFromBool maps the service's boolean judgment onto a VerificationResult
func VerificationFromBool(valid bool) VerificationResult {
	if valid {
		return VerificationValid
	}
	return VerificationInvalid
}

// HistoryEntry records one successful signing operation. Entries are never mutated after creation.
type HistoryEntry struct {
	Message   Message   `json:"msg"`
	Signature Signature `json:"sig"`
	Timestamp Timestamp `json:"time"`
}

// History is the ordered, append-only log of HistoryEntry values.
// Insertion order is the order in which sign operations resolved.
type History []HistoryEntry

// Clone returns a copy of h that shares no backing array with it.
// A nil or empty history clones to an empty, non-nil History.
func (h History) Clone() History {
	out := make(History, len(h))
	copy(out, h)
	return out
}

// ValidateMessage enforces the message length bound at the input boundary.
func ValidateMessage(text string) error {
	if n := Message(text).Len(); n > MaxMessageLength {
		return &ValidationError{
			Field:  "message",
			Reason: fmt.Sprintf("message is %d characters, maximum is %d", n, MaxMessageLength),
		}
	}
	return nil
}
