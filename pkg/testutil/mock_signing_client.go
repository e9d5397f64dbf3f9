package testutil

import (
	"context"
	"sync"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
)

// PendingCall is a request held by a gated MockSigningClient until the test answers it
type PendingCall struct {
	Op        string // "sign" or "verify"
	Message   types.Message
	Signature types.Signature // verify only

	reply chan mockReply
}

type mockReply struct {
	signature types.Signature
	valid     bool
	err       error
}

// RespondSign completes a pending sign call
func (p *PendingCall) RespondSign(sig types.Signature, err error) {
	p.reply <- mockReply{signature: sig, err: err}
}

// RespondVerify completes a pending verify call
func (p *PendingCall) RespondVerify(valid bool, err error) {
	p.reply <- mockReply{valid: valid, err: err}
}

// MockSigningClient is an in-memory signing client. Ungated, it answers
// immediately using SignFunc and VerifyFunc. Gated, each call is published on
// Calls() and blocks until the test responds, which lets tests choose the
// order in which concurrent operations resolve.
type MockSigningClient struct {
	SignFunc   func(ctx context.Context, message types.Message) (types.Signature, error)
	VerifyFunc func(ctx context.Context, message types.Message, signature types.Signature) (bool, error)

	mu          sync.Mutex
	gated       bool
	calls       chan *PendingCall
	signCalls   int
	verifyCalls int
}

// NewMockSigningClient returns an ungated mock that signs with MockSignatureFor
func NewMockSigningClient() *MockSigningClient {
	return &MockSigningClient{
		calls: make(chan *PendingCall, 16),
		SignFunc: func(_ context.Context, message types.Message) (types.Signature, error) {
			return MockSignatureFor(message), nil
		},
		VerifyFunc: func(_ context.Context, message types.Message, signature types.Signature) (bool, error) {
			return signature == MockSignatureFor(message), nil
		},
	}
}

// MockSignatureFor returns the signature an ungated mock issues for message
func MockSignatureFor(message types.Message) types.Signature {
	return types.Signature("sig:" + string(message))
}

// Gate makes subsequent calls block until answered through Calls()
func (m *MockSigningClient) Gate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gated = true
}

// Calls delivers gated calls in the order they were made
func (m *MockSigningClient) Calls() <-chan *PendingCall {
	return m.calls
}

// SignCalls returns how many times Sign was called
func (m *MockSigningClient) SignCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signCalls
}

// VerifyCalls returns how many times Verify was called
func (m *MockSigningClient) VerifyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifyCalls
}

func (m *MockSigningClient) Sign(ctx context.Context, message types.Message) (types.Signature, error) {
	m.mu.Lock()
	m.signCalls++
	gated := m.gated
	m.mu.Unlock()

	if !gated {
		return m.SignFunc(ctx, message)
	}

	r, err := m.wait(ctx, &PendingCall{Op: "sign", Message: message})
	if err != nil {
		return "", err
	}
	return r.signature, r.err
}

func (m *MockSigningClient) Verify(ctx context.Context, message types.Message, signature types.Signature) (bool, error) {
	m.mu.Lock()
	m.verifyCalls++
	gated := m.gated
	m.mu.Unlock()

	if !gated {
		return m.VerifyFunc(ctx, message, signature)
	}

	r, err := m.wait(ctx, &PendingCall{Op: "verify", Message: message, Signature: signature})
	if err != nil {
		return false, err
	}
	return r.valid, r.err
}

func (m *MockSigningClient) wait(ctx context.Context, call *PendingCall) (mockReply, error) {
	call.reply = make(chan mockReply, 1)
	select {
	case m.calls <- call:
	case <-ctx.Done():
		return mockReply{}, &types.TransportError{Op: call.Op, Err: ctx.Err()}
	}

	select {
	case r := <-call.reply:
		return r, nil
	case <-ctx.Done():
		return mockReply{}, &types.TransportError{Op: call.Op, Err: ctx.Err()}
	}
}
