package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestFlakyPersistence(t *testing.T) {
	flaky := NewFlakyPersistence(memory.NewMemoryPersistence())

	flaky.FailNextSaves(1)
	assert.ErrorIs(t, flaky.SaveSlot("s", []byte("a")), ErrInjected)
	require.NoError(t, flaky.SaveSlot("s", []byte("b")))
	assert.Equal(t, 2, flaky.SaveCalls())

	data, err := flaky.LoadSlot("s")
	require.NoError(t, err)
	assert.Equal(t, []byte("b"), data)

	flaky.SetLoadError(ErrInjected)
	_, err = flaky.LoadSlot("s")
	assert.ErrorIs(t, err, ErrInjected)

	flaky.SetClearError(ErrInjected)
	assert.ErrorIs(t, flaky.ClearSlot("s"), ErrInjected)
	flaky.SetClearError(nil)
	require.NoError(t, flaky.ClearSlot("s"))
	assert.Equal(t, 2, flaky.ClearCalls())
	assert.Equal(t, 2, flaky.LoadCalls())
}

func TestFakeSigningService(t *testing.T) {
	svc := NewFakeSigningService(t, zaptest.NewLogger(t))

	post := func(path string, body interface{}) *http.Response {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		resp, err := http.Post(svc.URL()+path, "application/json", bytes.NewReader(raw))
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := post("/sign", &types.SignRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var signed types.SignResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&signed))
	require.NotNil(t, signed.Signature)
	assert.Equal(t, svc.SignatureFor("hello"), *signed.Signature)
	assert.Len(t, string(*signed.Signature), 64)

	resp = post("/verify", &types.VerifyRequest{Message: "hello", Signature: *signed.Signature})
	var verified types.VerifyResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verified))
	require.NotNil(t, verified.Valid)
	assert.True(t, *verified.Valid)

	resp = post("/verify", &types.VerifyRequest{Message: "hello!", Signature: *signed.Signature})
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verified))
	assert.False(t, *verified.Valid)

	svc.SetMode(ModeStatusError)
	svc.SetStatusCode(http.StatusServiceUnavailable)
	resp = post("/sign", &types.SignRequest{Message: "hello"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	assert.Equal(t, 2, svc.SignCalls())
	assert.Equal(t, 2, svc.VerifyCalls())
}

func TestMockSigningClient_Ungated(t *testing.T) {
	m := NewMockSigningClient()
	ctx := context.Background()

	sig, err := m.Sign(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, MockSignatureFor("hi"), sig)

	valid, err := m.Verify(ctx, "hi", sig)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = m.Verify(ctx, "other", sig)
	require.NoError(t, err)
	assert.False(t, valid)

	assert.Equal(t, 1, m.SignCalls())
	assert.Equal(t, 2, m.VerifyCalls())
}

func TestMockSigningClient_Gated(t *testing.T) {
	m := NewMockSigningClient()
	m.Gate()

	done := make(chan types.Signature, 1)
	go func() {
		sig, _ := m.Sign(context.Background(), "gated")
		done <- sig
	}()

	var call *PendingCall
	select {
	case call = <-m.Calls():
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for gated call")
	}
	assert.Equal(t, "sign", call.Op)
	assert.Equal(t, types.Message("gated"), call.Message)

	select {
	case <-done:
		t.Fatal("gated call returned before it was answered")
	default:
	}

	call.RespondSign("answered", nil)
	select {
	case sig := <-done:
		assert.Equal(t, types.Signature("answered"), sig)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for gated call to return")
	}
}

func TestMockSigningClient_GatedCancel(t *testing.T) {
	m := NewMockSigningClient()
	m.Gate()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Verify(ctx, "x", "y")
	require.Error(t, err)
	assert.True(t, types.IsTransportError(err))
}
