package testutil

import (
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// ServiceMode selects how the fake signing service answers
type ServiceMode int

const (
	// ModeOK answers every request correctly
	ModeOK ServiceMode = iota
	// ModeStatusError answers with the configured non-2xx status
	ModeStatusError
	// ModeMalformed answers 200 with a body that is not JSON
	ModeMalformed
	// ModeMissingField answers 200 with an empty JSON object
	ModeMissingField
)

// FakeSigningService is an in-process signing service. Signatures are the hex
// encoded keyed BLAKE2b-256 digest of the message, so only this instance
// verifies its own signatures.
type FakeSigningService struct {
	server *httptest.Server
	key    []byte
	logger *zap.Logger

	mu          sync.Mutex
	mode        ServiceMode
	statusCode  int
	delay       time.Duration
	signCalls   int
	verifyCalls int
	requestIDs  []string
}

// NewFakeSigningService starts a fake signing service that is shut down when the test ends
func NewFakeSigningService(t *testing.T, logger *zap.Logger) *FakeSigningService {
	t.Helper()

	s := &FakeSigningService{
		key:        []byte("dss-test-signing-key"),
		logger:     logger,
		statusCode: http.StatusInternalServerError,
	}

	router := mux.NewRouter()
	router.HandleFunc("/sign", s.handleSign).Methods(http.MethodPost)
	router.HandleFunc("/verify", s.handleVerify).Methods(http.MethodPost)

	s.server = httptest.NewServer(router)
	t.Cleanup(s.Close)

	return s
}

// URL returns the service base URL
func (s *FakeSigningService) URL() string {
	return s.server.URL
}

// Close shuts the service down; later requests fail at the transport level
func (s *FakeSigningService) Close() {
	s.server.Close()
}

// SetMode changes how subsequent requests are answered
func (s *FakeSigningService) SetMode(mode ServiceMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = mode
}

// SetStatusCode sets the status used by ModeStatusError
func (s *FakeSigningService) SetStatusCode(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statusCode = code
}

// SetDelay makes every handler sleep before answering
func (s *FakeSigningService) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// SignCalls returns the number of /sign requests received
func (s *FakeSigningService) SignCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signCalls
}

// VerifyCalls returns the number of /verify requests received
func (s *FakeSigningService) VerifyCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verifyCalls
}

// RequestIDs returns the X-Request-Id headers seen so far, in arrival order
func (s *FakeSigningService) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// SignatureFor returns the signature this service issues for message
func (s *FakeSigningService) SignatureFor(message types.Message) types.Signature {
	h, err := blake2b.New256(s.key)
	if err != nil {
		// key is shorter than blake2b.Size
		panic(err)
	}
	_, _ = h.Write([]byte(message))
	return types.Signature(hex.EncodeToString(h.Sum(nil)))
}

// begin records the request and returns the mode to answer with
func (s *FakeSigningService) begin(r *http.Request, verify bool) (ServiceMode, int) {
	s.mu.Lock()
	if verify {
		s.verifyCalls++
	} else {
		s.signCalls++
	}
	s.requestIDs = append(s.requestIDs, r.Header.Get("X-Request-Id"))
	mode, status, delay := s.mode, s.statusCode, s.delay
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
		}
	}
	return mode, status
}

func (s *FakeSigningService) handleSign(w http.ResponseWriter, r *http.Request) {
	mode, status := s.begin(r, false)
	if s.writeFault(w, mode, status) {
		return
	}

	var req types.SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sig := s.SignatureFor(req.Message)
	s.logger.Sugar().Debugw("Fake signing service signed message", "signature", sig)
	s.writeJSON(w, &types.SignResponse{Signature: &sig})
}

func (s *FakeSigningService) handleVerify(w http.ResponseWriter, r *http.Request) {
	mode, status := s.begin(r, true)
	if s.writeFault(w, mode, status) {
		return
	}

	var req types.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	expected := s.SignatureFor(req.Message)
	valid := subtle.ConstantTimeCompare([]byte(expected), []byte(req.Signature)) == 1
	s.writeJSON(w, &types.VerifyResponse{Valid: &valid})
}

// writeFault answers according to a failure mode and reports whether it did
func (s *FakeSigningService) writeFault(w http.ResponseWriter, mode ServiceMode, status int) bool {
	switch mode {
	case ModeStatusError:
		http.Error(w, "signing service unavailable", status)
		return true
	case ModeMalformed:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("<html>not json</html>"))
		return true
	case ModeMissingField:
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
		return true
	}
	return false
}

func (s *FakeSigningService) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Sugar().Errorw("Fake signing service failed to encode response", "error", err)
	}
}
