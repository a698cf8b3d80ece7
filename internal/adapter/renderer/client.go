// Package renderer talks to the external PDF rendering service. The service
// turns a finalized logbook into a signed document and hands back a link;
// document storage and signing stay outside this backend.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/praxislog/logbook-backend/internal/config"
)

// Client requests logbook documents over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a renderer client from configuration.
func NewClient(cfg config.RendererConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With("adapter", "renderer"),
	}
}

// NewClientWithURL creates a Client with a custom base URL (for testing).
func NewClientWithURL(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", "renderer"),
	}
}

// DocumentRequest identifies the logbook version to render.
type DocumentRequest struct {
	LogbookID uuid.UUID `json:"logbook_id"`
	OwnerID   uuid.UUID `json:"owner_id"`
	WeekStart string    `json:"week_start"`
	Status    string    `json:"status"`
}

// DocumentResult is the renderer's answer: a fetchable document URL with an
// expiry.
type DocumentResult struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestDocument asks the renderer for a document link.
func (c *Client) RequestDocument(ctx context.Context, docReq DocumentRequest) (DocumentResult, error) {
	payload, err := json.Marshal(docReq)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("renderer: encode request: %w", err)
	}

	c.log.DebugContext(ctx, "renderer request", slog.String("logbook_id", docReq.LogbookID.String()))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/documents", bytes.NewReader(payload))
	if err != nil {
		return DocumentResult{}, fmt.Errorf("renderer: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.doWithRetry(ctx, req, payload)
	if err != nil {
		c.log.ErrorContext(ctx, "renderer request failed",
			slog.String("logbook_id", docReq.LogbookID.String()),
			slog.String("error", err.Error()))
		return DocumentResult{}, fmt.Errorf("renderer: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return DocumentResult{}, fmt.Errorf("renderer: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return DocumentResult{}, fmt.Errorf("renderer: read body: %w", err)
	}

	var result DocumentResult
	if err := json.Unmarshal(body, &result); err != nil {
		return DocumentResult{}, fmt.Errorf("renderer: decode json: %w", err)
	}
	if result.URL == "" {
		return DocumentResult{}, fmt.Errorf("renderer: empty document url")
	}

	c.log.DebugContext(ctx, "renderer response",
		slog.String("logbook_id", docReq.LogbookID.String()),
		slog.Int("status", resp.StatusCode))

	return result, nil
}

// doWithRetry executes the request with a single retry on 5xx or network
// errors. The body is re-attached for the second attempt.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, payload []byte) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)

	shouldRetry := err != nil || (resp != nil && resp.StatusCode >= 500)
	if !shouldRetry {
		return resp, err
	}

	if ctx.Err() != nil {
		return resp, err
	}

	reason := "network error"
	if err == nil && resp != nil {
		reason = fmt.Sprintf("status %d", resp.StatusCode)
	}
	c.log.WarnContext(ctx, "renderer retry", slog.String("reason", reason))

	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	time.Sleep(500 * time.Millisecond)

	retry := req.Clone(ctx)
	retry.Body = io.NopCloser(bytes.NewReader(payload))
	return c.httpClient.Do(retry)
}
