// services/verifier_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"time"
)

// VerifierClient talks to the evidence verification service. One call per
// submission, no automatic retry: the artifact is a single-shot user upload.
type VerifierClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// Verdict is the verifier's judgment on one evidence artifact. Consumed once
// per submission, never persisted as-is.
type Verdict struct {
	Success  bool    `json:"success"`
	Verified bool    `json:"verified"`
	Label    string  `json:"label,omitempty"`
	Score    float64 `json:"confidence,omitempty"`
}

func NewVerifierClient(baseURL, token string) *VerifierClient {
	return &VerifierClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// VerifyPhoto posts the evidence photo as multipart form data to
// /api/verify-planting. Any transport error, non-200 status or undecodable
// body is reported as ErrVerificationUnavailable — never as a verdict.
func (c *VerifierClient) VerifyPhoto(ctx context.Context, filename string, photo []byte) (*Verdict, error) {
	url := fmt.Sprintf("%s/api/verify-planting", c.BaseURL)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(photo); err != nil {
		return nil, fmt.Errorf("failed to write photo part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, &buf)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Printf("❌ [VERIFIER] Request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ [VERIFIER] Returned %d: %s", resp.StatusCode, string(body))
		return nil, fmt.Errorf("%w: status %d", ErrVerificationUnavailable, resp.StatusCode)
	}

	var verdict Verdict
	if err := json.Unmarshal(body, &verdict); err != nil {
		log.Printf("❌ [VERIFIER] Malformed response body: %v", err)
		return nil, fmt.Errorf("%w: malformed response", ErrVerificationUnavailable)
	}

	return &verdict, nil
}
