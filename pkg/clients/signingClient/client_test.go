package signingClient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/testutil"
	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(&Config{BaseURL: baseURL, Timeout: 5 * time.Second}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func Test_NewClient(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name    string
		cfg     *Config
		wantErr string
	}{
		{name: "nil config", cfg: nil, wantErr: "config cannot be nil"},
		{name: "empty base url", cfg: &Config{}, wantErr: "base URL is required"},
		{name: "bad scheme", cfg: &Config{BaseURL: "ftp://signer"}, wantErr: "scheme must be http or https"},
		{name: "unparsable url", cfg: &Config{BaseURL: "http://[::1"}, wantErr: "invalid base URL"},
		{name: "negative timeout", cfg: &Config{BaseURL: "http://signer", Timeout: -time.Second}, wantErr: "timeout cannot be negative"},
		{name: "negative rate", cfg: &Config{BaseURL: "http://signer", RequestsPerSecond: -1}, wantErr: "requests per second cannot be negative"},
		{name: "defaults", cfg: DefaultConfig()},
		{name: "trailing slash", cfg: &Config{BaseURL: "https://signer.example/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.cfg, logger)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client)
			assert.False(t, strings.HasSuffix(client.baseURL, "/"))
		})
	}

	t.Run("nil logger", func(t *testing.T) {
		_, err := NewClient(DefaultConfig(), nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger is required")
	})
}

func Test_SignAndVerify(t *testing.T) {
	svc := testutil.NewFakeSigningService(t, zaptest.NewLogger(t))
	client := newTestClient(t, svc.URL())
	ctx := context.Background()

	sig, err := client.Sign(ctx, "Hello DSS")
	require.NoError(t, err)
	assert.Equal(t, svc.SignatureFor("Hello DSS"), sig)

	valid, err := client.Verify(ctx, "Hello DSS", sig)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = client.Verify(ctx, "Hello DSS!", sig)
	require.NoError(t, err)
	assert.False(t, valid, "a signature for a different message must not verify")

	assert.Equal(t, 1, svc.SignCalls())
	assert.Equal(t, 2, svc.VerifyCalls())
}

func Test_SignatureIsOpaque(t *testing.T) {
	// whatever the service returns is passed through untouched
	weird := "  not-hex ✍️ \n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"signature":"  not-hex ✍️ \n"}`))
	}))
	defer server.Close()

	sig, err := newTestClient(t, server.URL).Sign(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, types.Signature(weird), sig)
}

func Test_RequestHeaders(t *testing.T) {
	svc := testutil.NewFakeSigningService(t, zaptest.NewLogger(t))
	client := newTestClient(t, svc.URL()+"/")

	_, err := client.Sign(context.Background(), "a")
	require.NoError(t, err)
	_, err = client.Sign(context.Background(), "b")
	require.NoError(t, err)

	ids := svc.RequestIDs()
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.NotEqual(t, ids[0], ids[1])
}

func Test_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		mode        testutil.ServiceMode
		status      int
		isTransport bool
		isProtocol  bool
		wantStatus  int
	}{
		{name: "server error", mode: testutil.ModeStatusError, status: http.StatusInternalServerError, isProtocol: true, wantStatus: 500},
		{name: "bad request", mode: testutil.ModeStatusError, status: http.StatusBadRequest, isProtocol: true, wantStatus: 400},
		{name: "malformed body", mode: testutil.ModeMalformed, isProtocol: true, wantStatus: 200},
		{name: "missing field", mode: testutil.ModeMissingField, isProtocol: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := testutil.NewFakeSigningService(t, zaptest.NewLogger(t))
			svc.SetMode(tt.mode)
			if tt.status != 0 {
				svc.SetStatusCode(tt.status)
			}
			client := newTestClient(t, svc.URL())

			_, signErr := client.Sign(ctx, "msg")
			_, verifyErr := client.Verify(ctx, "msg", "sig")

			for _, err := range []error{signErr, verifyErr} {
				require.Error(t, err)
				assert.Equal(t, tt.isTransport, types.IsTransportError(err))
				assert.Equal(t, tt.isProtocol, types.IsProtocolError(err))

				var perr *types.ProtocolError
				if tt.isProtocol && assert.ErrorAs(t, err, &perr) {
					assert.Equal(t, tt.wantStatus, perr.StatusCode)
				}
			}
		})
	}

	t.Run("unreachable service", func(t *testing.T) {
		svc := testutil.NewFakeSigningService(t, zaptest.NewLogger(t))
		url := svc.URL()
		svc.Close()

		client := newTestClient(t, url)
		_, err := client.Sign(ctx, "msg")
		require.Error(t, err)
		assert.True(t, types.IsTransportError(err))

		_, err = client.Verify(ctx, "msg", "sig")
		require.Error(t, err)
		assert.True(t, types.IsTransportError(err))
	})

	t.Run("timeout", func(t *testing.T) {
		svc := testutil.NewFakeSigningService(t, zaptest.NewLogger(t))
		svc.SetDelay(2 * time.Second)

		client, err := NewClient(&Config{BaseURL: svc.URL(), Timeout: 50 * time.Millisecond}, zaptest.NewLogger(t))
		require.NoError(t, err)

		_, err = client.Sign(ctx, "msg")
		require.Error(t, err)
		assert.True(t, types.IsTransportError(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		svc := testutil.NewFakeSigningService(t, zaptest.NewLogger(t))
		client := newTestClient(t, svc.URL())

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := client.Sign(cctx, "msg")
		require.Error(t, err)
		assert.True(t, types.IsTransportError(err))
		assert.Equal(t, 0, svc.SignCalls())
	})
}

func Test_RateLimit(t *testing.T) {
	svc := testutil.NewFakeSigningService(t, zaptest.NewLogger(t))
	client, err := NewClient(&Config{BaseURL: svc.URL(), Timeout: 5 * time.Second, RequestsPerSecond: 20}, zaptest.NewLogger(t))
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.Sign(context.Background(), "msg")
		require.NoError(t, err)
	}
	// first request uses the burst token, the next two wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func Test_SetHttpClient(t *testing.T) {
	svc := testutil.NewFakeSigningService(t, zaptest.NewLogger(t))
	client := newTestClient(t, svc.URL())

	custom := &http.Client{Timeout: time.Second}
	client.SetHttpClient(custom)
	assert.Same(t, custom, client.httpClient)

	_, err := client.Sign(context.Background(), "msg")
	require.NoError(t, err)
}

func Test_ClientImplementsInterface(t *testing.T) {
	client, err := NewClient(DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	var signer ISigningClient = client
	assert.NotNil(t, signer)
}
