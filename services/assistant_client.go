// services/assistant_client.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// AssistantClient calls the AI assistant service. Stateless request/response:
// the session history lives on our side, the assistant only sees one message
// plus a context hint per call.
type AssistantClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

type assistantRequest struct {
	Message string `json:"message"`
	Context string `json:"context"`
}

type assistantResponse struct {
	Response string `json:"response"`
}

func NewAssistantClient(baseURL, token string) *AssistantClient {
	return &AssistantClient{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
}

// Ask sends one user message and returns the assistant's reply text. Any
// transport error, non-200 status, undecodable body or empty reply is
// reported as ErrAssistantUnavailable.
func (c *AssistantClient) Ask(ctx context.Context, message, contextHint string) (string, error) {
	url := fmt.Sprintf("%s/api/chat", c.BaseURL)

	jsonData, _ := json.Marshal(assistantRequest{
		Message: message,
		Context: contextHint,
	})

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		log.Printf("❌ [ASSISTANT] Request failed: %v", err)
		return "", fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		log.Printf("❌ [ASSISTANT] Returned %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("%w: status %d", ErrAssistantUnavailable, resp.StatusCode)
	}

	var out assistantResponse
	if err := json.Unmarshal(body, &out); err != nil {
		log.Printf("❌ [ASSISTANT] Malformed response body: %v", err)
		return "", fmt.Errorf("%w: malformed response", ErrAssistantUnavailable)
	}
	if out.Response == "" {
		return "", fmt.Errorf("%w: empty response", ErrAssistantUnavailable)
	}

	return out.Response, nil
}
