package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Kind identifies the outcome being reported
type Kind string

const (
	KindSignSuccess        Kind = "sign-success"
	KindSignFailure        Kind = "sign-failure"
	KindVerifyValid        Kind = "verify-success-valid"
	KindVerifyInvalid      Kind = "verify-success-invalid"
	KindVerifyFailure      Kind = "verify-failure"
	KindCleared            Kind = "clear"
	KindHistoryCleared     Kind = "clear-history"
	KindPersistenceFailure Kind = "persistence-failure"
	KindSignatureCopied    Kind = "signature-copied"
)

// User-facing texts for each outcome
const (
	TextSigned          = "Message signed!"
	TextSignFailed      = "Signing failed!"
	TextValid           = "Signature is valid!"
	TextInvalid         = "Signature is invalid!"
	TextVerifyFailed    = "Verification failed!"
	TextCleared         = "Cleared"
	TextHistoryCleared  = "History cleared"
	TextCopied          = "Signature copied!"
	TextHistoryNotSaved = "History could not be saved"
	TextHistoryNotRead  = "History could not be loaded"
)

// Level is how an event should be presented
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelInfo    Level = "info"
)

// Event is a single user-visible outcome
type Event struct {
	Kind    Kind
	Level   Level
	Message string
	// Err is the underlying failure, if any
	Err error
}

// LevelFor returns the presentation level of an event kind
func LevelFor(kind Kind) Level {
	switch kind {
	case KindSignSuccess, KindVerifyValid:
		return LevelSuccess
	case KindSignFailure, KindVerifyInvalid, KindVerifyFailure, KindPersistenceFailure:
		return LevelError
	default:
		return LevelInfo
	}
}

// NewEvent builds an Event with the level implied by kind
func NewEvent(kind Kind, message string, err error) Event {
	return Event{Kind: kind, Level: LevelFor(kind), Message: message, Err: err}
}

// INotificationSink receives outcome events. Notify is fire-and-forget: it has
// no return value and must not block the caller for long.
type INotificationSink interface {
	Notify(event Event)
}

// NopSink discards every event
type NopSink struct{}

func (NopSink) Notify(Event) {}

// LoggerSink logs every event through zap
type LoggerSink struct {
	logger *zap.Logger
}

// NewLoggerSink creates a sink that writes events to logger
func NewLoggerSink(logger *zap.Logger) *LoggerSink {
	return &LoggerSink{logger: logger}
}

func (s *LoggerSink) Notify(event Event) {
	fields := []interface{}{"kind", event.Kind}
	if event.Err != nil {
		fields = append(fields, "error", event.Err)
	}

	switch event.Level {
	case LevelError:
		s.logger.Sugar().Warnw(event.Message, fields...)
	default:
		s.logger.Sugar().Infow(event.Message, fields...)
	}
}

// ConsoleSink renders events as single lines for a terminal, in the style of a toast
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleSink creates a sink that prints to out
func NewConsoleSink(out io.Writer) *ConsoleSink {
	return &ConsoleSink{out: out}
}

func (s *ConsoleSink) Notify(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = fmt.Fprintf(s.out, "%s %s\n", icon(event.Kind), event.Message)
}

func icon(kind Kind) string {
	switch kind {
	case KindSignSuccess, KindVerifyValid:
		return "✅"
	case KindSignFailure, KindVerifyInvalid, KindVerifyFailure:
		return "❌"
	case KindPersistenceFailure:
		return "⚠️"
	case KindCleared:
		return "🧹"
	case KindHistoryCleared:
		return "🗑️"
	case KindSignatureCopied:
		return "📋"
	default:
		return "ℹ️"
	}
}

// MultiSink fans each event out to several sinks in order
type MultiSink []INotificationSink

func (m MultiSink) Notify(event Event) {
	for _, s := range m {
		if s != nil {
			s.Notify(event)
		}
	}
}

// RecordingSink keeps every event it receives. Safe for concurrent use.
type RecordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *RecordingSink) Notify(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

// Events returns a copy of the recorded events
func (r *RecordingSink) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Kinds returns the kinds of the recorded events in order
func (r *RecordingSink) Kinds() []Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

// Compile-time checks
var (
	_ INotificationSink = NopSink{}
	_ INotificationSink = (*LoggerSink)(nil)
	_ INotificationSink = (*ConsoleSink)(nil)
	_ INotificationSink = MultiSink(nil)
	_ INotificationSink = (*RecordingSink)(nil)
)
