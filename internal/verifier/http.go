package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single HTTP verification call when none is configured.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a verifier response is read.
const maxResponseBytes = 1 << 20

// verifyRequest is the JSON body posted to an HTTP verifier.
type verifyRequest struct {
	Proof         string   `json:"proof"`
	PublicSignals []string `json:"public_signals"`
}

// verifyResponse is the JSON body an HTTP verifier answers with.
type verifyResponse struct {
	Verified *bool `json:"verified"`
}

// HTTPVerifier calls a remote verifier over HTTP.
//
// The request is POST <endpoint> with {"proof": ..., "public_signals": [...]};
// the response must be 2xx with {"verified": bool}. Anything else is a call
// failure, never a rejection.
type HTTPVerifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTP creates an HTTP verifier. A zero timeout selects DefaultTimeout.
func NewHTTP(endpoint string, timeout time.Duration) *HTTPVerifier {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPVerifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Endpoint returns the URL the verifier posts to.
func (h *HTTPVerifier) Endpoint() string {
	return h.endpoint
}

// Verify implements Verifier.
func (h *HTTPVerifier) Verify(ctx context.Context, proof string, publicSignals []string) (bool, error) {
	if publicSignals == nil {
		publicSignals = []string{}
	}
	body, err := json.Marshal(verifyRequest{Proof: proof, PublicSignals: publicSignals})
	if err != nil {
		return false, fmt.Errorf("encode verify request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return false, fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("call verifier %s: %w", h.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("read verifier response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("verifier %s returned status %d", h.endpoint, resp.StatusCode)
	}

	var out verifyResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return false, fmt.Errorf("decode verifier response: %w", err)
	}
	if out.Verified == nil {
		return false, fmt.Errorf("verifier response missing \"verified\" field")
	}

	return *out.Verified, nil
}
