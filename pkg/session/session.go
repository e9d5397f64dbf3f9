// Package session holds the state of one signing session: the message being
// edited, the last signature the service produced for it, and the service's
// latest verdict. Remote calls go through an ISigningClient and every
// successful signature is recorded in a HistoryStore.
//
// Operations may be called from several goroutines. Field access is guarded
// by a mutex that is never held across a call to the signing service, so a
// Verify can run while a Sign is in flight. Each field is last-write-wins in
// the order calls resolve, and concurrent Sign calls reach the history in the
// same order they update the signature.
package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/clients/signingClient"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/history"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/notify"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config holds the collaborators of a SessionState
type Config struct {
	Client  signingClient.ISigningClient
	History *history.HistoryStore
	// Sink receives outcome events. Defaults to notify.NopSink.
	Sink   notify.INotificationSink
	Logger *zap.Logger
	// Clock stamps new signatures. Defaults to time.Now.
	Clock func() time.Time
}

// Snapshot is a consistent copy of every session field
type Snapshot struct {
	Message      types.Message
	Signature    types.Signature
	HasSignature bool
	Verification types.VerificationResult
	Timestamp    types.Timestamp
	HasTimestamp bool
}

// SessionState is the client-side state machine for one session.
type SessionState struct {
	client  signingClient.ISigningClient
	history *history.HistoryStore
	sink    notify.INotificationSink
	logger  *zap.Logger
	clock   func() time.Time

	mu           sync.Mutex
	message      types.Message
	signature    types.Signature
	hasSignature bool
	verification types.VerificationResult
	timestamp    types.Timestamp
	hasTimestamp bool

	// resolveMu orders sign resolutions so the history matches the field updates
	resolveMu sync.Mutex
}

// NewSessionState creates a session with empty fields and restores the
// persisted history. A history that cannot be read leaves the session usable
// with an empty history; the failure is reported to the sink.
func NewSessionState(ctx context.Context, cfg *Config) (*SessionState, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, fmt.Errorf("signing client is required")
	}
	if cfg.History == nil {
		return nil, fmt.Errorf("history store is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	s := &SessionState{
		client:       cfg.Client,
		history:      cfg.History,
		sink:         cfg.Sink,
		logger:       cfg.Logger,
		clock:        cfg.Clock,
		verification: types.VerificationUnknown,
	}
	if s.sink == nil {
		s.sink = notify.NopSink{}
	}
	if s.clock == nil {
		s.clock = time.Now
	}

	if _, err := s.history.Load(ctx); err != nil {
		s.notify(notify.KindPersistenceFailure, notify.TextHistoryNotRead, err)
	}

	return s, nil
}

// SetMessage replaces the message. Text longer than types.MaxMessageLength
// characters is rejected with a ValidationError and the message is unchanged.
func (s *SessionState) SetMessage(text string) error {
	if err := types.ValidateMessage(text); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = types.Message(text)
	return nil
}

// Sign asks the service to sign the current message.
//
// On success the signature and timestamp are set and the entry is appended to
// the history. If the history cannot be written the fields stay set and a
// PersistenceError is returned. On failure nothing changes and the
// Transport or Protocol error is returned.
func (s *SessionState) Sign(ctx context.Context) error {
	s.mu.Lock()
	message := s.message
	s.mu.Unlock()

	signature, err := s.client.Sign(ctx, message)
	if err != nil {
		s.logger.Sugar().Warnw("Sign failed", "error", err)
		s.notify(notify.KindSignFailure, notify.TextSignFailed, err)
		return err
	}

	s.resolveMu.Lock()
	defer s.resolveMu.Unlock()

	timestamp := types.NewTimestamp(s.clock())

	s.mu.Lock()
	s.signature, s.hasSignature = signature, true
	s.timestamp, s.hasTimestamp = timestamp, true
	s.mu.Unlock()

	s.logger.Sugar().Infow("Message signed",
		"message_length", message.Len(),
		"timestamp", timestamp,
	)
	s.notify(notify.KindSignSuccess, notify.TextSigned, nil)

	entry := types.HistoryEntry{Message: message, Signature: signature, Timestamp: timestamp}
	if err := s.history.Append(ctx, entry); err != nil {
		s.notify(notify.KindPersistenceFailure, notify.TextHistoryNotSaved, err)
		return err
	}
	return nil
}

// Verify asks the service whether the current signature is valid for the
// current message. The two are not required to have been signed together.
// Without a signature no request is made and a ValidationError is returned.
func (s *SessionState) Verify(ctx context.Context) error {
	s.mu.Lock()
	message, signature, ok := s.message, s.signature, s.hasSignature
	s.mu.Unlock()

	if !ok {
		err := &types.ValidationError{Field: "signature", Reason: "nothing to verify, sign a message first"}
		s.notify(notify.KindVerifyFailure, notify.TextVerifyFailed, err)
		return err
	}

	valid, err := s.client.Verify(ctx, message, signature)
	if err != nil {
		s.logger.Sugar().Warnw("Verify failed", "error", err)
		s.notify(notify.KindVerifyFailure, notify.TextVerifyFailed, err)
		return err
	}

	s.mu.Lock()
	s.verification = types.VerificationFromBool(valid)
	s.mu.Unlock()

	if valid {
		s.notify(notify.KindVerifyValid, notify.TextValid, nil)
	} else {
		s.notify(notify.KindVerifyInvalid, notify.TextInvalid, nil)
	}
	return nil
}

// Clear resets every session field. The history is not touched.
func (s *SessionState) Clear() {
	s.mu.Lock()
	s.message = ""
	s.signature, s.hasSignature = "", false
	s.verification = types.VerificationUnknown
	s.timestamp, s.hasTimestamp = "", false
	s.mu.Unlock()

	s.notify(notify.KindCleared, notify.TextCleared, nil)
}

// ClearHistory empties the history in memory and in storage. If storage
// cannot be cleared the history is left as it was.
func (s *SessionState) ClearHistory(ctx context.Context) error {
	if err := s.history.Clear(ctx); err != nil {
		s.notify(notify.KindPersistenceFailure, notify.TextHistoryNotSaved, err)
		return err
	}

	s.notify(notify.KindHistoryCleared, notify.TextHistoryCleared, nil)
	return nil
}

// CopySignature writes the current signature to w
func (s *SessionState) CopySignature(w io.Writer) error {
	signature, ok := s.Signature()
	if !ok {
		return &types.ValidationError{Field: "signature", Reason: "nothing to copy, sign a message first"}
	}

	if _, err := io.WriteString(w, string(signature)); err != nil {
		return errors.Wrap(err, "failed to copy signature")
	}

	s.notify(notify.KindSignatureCopied, notify.TextCopied, nil)
	return nil
}

func (s *SessionState) Message() types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

// Signature returns the current signature and whether one is present
func (s *SessionState) Signature() (types.Signature, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signature, s.hasSignature
}

func (s *SessionState) Verification() types.VerificationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verification
}

// Timestamp returns when the current signature was produced, if there is one
func (s *SessionState) Timestamp() (types.Timestamp, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timestamp, s.hasTimestamp
}

// History returns a copy of the signing history, oldest first
func (s *SessionState) History() types.History {
	return s.history.Entries()
}

// Snapshot returns every field as of a single instant
func (s *SessionState) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Message:      s.message,
		Signature:    s.signature,
		HasSignature: s.hasSignature,
		Verification: s.verification,
		Timestamp:    s.timestamp,
		HasTimestamp: s.hasTimestamp,
	}
}

func (s *SessionState) notify(kind notify.Kind, message string, err error) {
	s.sink.Notify(notify.NewEvent(kind, message, err))
}
