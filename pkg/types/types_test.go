package types

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMessage(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "empty", text: "", wantErr: false},
		{name: "short", text: "hello", wantErr: false},
		{name: "exactly at bound", text: strings.Repeat("a", MaxMessageLength), wantErr: false},
		{name: "one past bound", text: strings.Repeat("a", MaxMessageLength+1), wantErr: true},
		// 300 three-byte runes is 900 bytes but still within the character bound
		{name: "multibyte at bound", text: strings.Repeat("ж", MaxMessageLength), wantErr: false},
		{name: "multibyte past bound", text: strings.Repeat("ж", MaxMessageLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMessage(tt.text)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), "maximum is 300")
		})
	}
}

func TestVerificationResult(t *testing.T) {
	assert.Equal(t, VerificationValid, VerificationFromBool(true))
	assert.Equal(t, VerificationInvalid, VerificationFromBool(false))

	assert.Equal(t, "unknown", VerificationUnknown.String())
	assert.Equal(t, "valid", VerificationValid.String())
	assert.Equal(t, "invalid", VerificationInvalid.String())
	assert.Equal(t, "VerificationResult(7)", VerificationResult(7).String())
}

func TestNewTimestamp(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC))
	assert.Equal(t, Timestamp("3/5/2024, 2:07:09 PM"), ts)
}

func TestHistoryClone(t *testing.T) {
	var empty History
	cloned := empty.Clone()
	require.NotNil(t, cloned)
	assert.Empty(t, cloned)

	h := History{{Message: "a", Signature: "s1", Timestamp: "t1"}}
	c := h.Clone()
	c[0].Signature = "changed"
	assert.Equal(t, Signature("s1"), h[0].Signature)
}

func TestErrorPredicates_SeeThroughWrapping(t *testing.T) {
	cause := fmt.Errorf("connection refused")

	transport := errors.Wrap(&TransportError{Op: "sign", Err: cause}, "signing failed")
	assert.True(t, IsTransportError(transport))
	assert.False(t, IsProtocolError(transport))
	assert.ErrorIs(t, transport, cause)

	protocol := errors.Wrap(&ProtocolError{Op: "verify", StatusCode: 500, Reason: "unexpected status"}, "verify failed")
	assert.True(t, IsProtocolError(protocol))
	assert.Contains(t, protocol.Error(), "status 500")

	persistence := &PersistenceError{Op: "append", Err: cause}
	assert.True(t, IsPersistenceError(persistence))
	assert.False(t, IsValidationError(persistence))
}
