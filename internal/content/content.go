// Package content stores listing documents (photos, terms) in an external
// content-addressed store and returns their addresses.
package content

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the content store gateway over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type storeRequest struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type storeResponse struct {
	Address string `json:"address"`
}

// Store uploads content and returns its content address.
func (c *Client) Store(ctx context.Context, content []byte, metadata map[string]string) (string, error) {
	body, err := json.Marshal(storeRequest{
		Content:  base64.StdEncoding.EncodeToString(content),
		Metadata: metadata,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/store", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("content store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("content store returned %d", resp.StatusCode)
	}

	var out storeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode content store response: %w", err)
	}
	if out.Address == "" {
		return "", fmt.Errorf("content store returned empty address")
	}
	return out.Address, nil
}
