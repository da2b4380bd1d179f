// Package pin uploads QR images to an IPFS pinning gateway so verify
// pages can serve them from a stable content-addressed URL.
package pin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Pinner stores a blob and returns the public URL it is reachable at.
type Pinner interface {
	PinBytes(ctx context.Context, filename string, data []byte) (string, error)
}

// HTTPPinner talks to a Pinata-compatible pinning API.
type HTTPPinner struct {
	apiURL  string
	apiKey  string
	gateway string
	client  *http.Client
}

// NewHTTPPinner builds a pinner against apiURL authenticated with apiKey.
// Returned URLs are rooted at gateway.
func NewHTTPPinner(apiURL, apiKey, gateway string) *HTTPPinner {
	return &HTTPPinner{
		apiURL:  apiURL,
		apiKey:  apiKey,
		gateway: strings.TrimRight(gateway, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// PinBytes uploads data as a multipart file and returns its gateway URL.
func (p *HTTPPinner) PinBytes(ctx context.Context, filename string, data []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("pin upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pin upload: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("pin upload: decode response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pin upload: empty hash in response")
	}
	return p.gateway + "/" + out.IpfsHash, nil
}

// Disabled is a no-op pinner for deployments without pinning credentials.
// It returns an empty URL so callers fall back to serving codes inline.
type Disabled struct{}

func (Disabled) PinBytes(ctx context.Context, filename string, data []byte) (string, error) {
	return "", nil
}
