package signingClient

import (
	"context"
	"net/http"

	"github.com/Layr-Labs/eigenx-dss-client/pkg/types"
)

// ISigningClient is the contract with the external signing service.
// Both operations are safe to retry; the client itself never retries.
type ISigningClient interface {
	// Sign submits message to /sign and returns the service's signature.
	// Fails with *types.TransportError if the service is unreachable and
	// *types.ProtocolError if the response lacks a signature.
	Sign(ctx context.Context, message types.Message) (types.Signature, error)

	// Verify submits the pair to /verify. The boolean is the service's
	// judgment, not this client's. Same failure kinds as Sign.
	Verify(ctx context.Context, message types.Message, signature types.Signature) (bool, error)
}

// IConfigurableSigningClient is an ISigningClient whose transport can be swapped
type IConfigurableSigningClient interface {
	ISigningClient

	// SetHttpClient replaces the HTTP client used for requests, e.g. in tests.
	SetHttpClient(client *http.Client)
}

// Compile-time check to ensure Client implements IConfigurableSigningClient
var _ IConfigurableSigningClient = (*Client)(nil)
