package types

// SignRequest is the body POSTed to the signing service's /sign endpoint
type SignRequest struct {
	Message Message `json:"message"`
}

// SignResponse is the body returned by /sign. Signature is a pointer so a
// missing field can be told apart from an empty signature.
type SignResponse struct {
	Signature *Signature `json:"signature"`
}

// VerifyRequest is the body POSTed to /verify
type VerifyRequest struct {
	Message   Message   `json:"message"`
	Signature Signature `json:"signature"`
}

// VerifyResponse is the body returned by /verify.
type VerifyResponse struct {
	Valid *bool `json:"valid"`
}
