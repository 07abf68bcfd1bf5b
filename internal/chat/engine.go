package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Gateway produces replies for inbound messages.
type Gateway interface {
	Reply(ctx context.Context, req Request) (Response, error)
}

// EngineClient is the HTTP Gateway implementation talking to the reply
// engine.
type EngineClient struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewEngineClient creates a client for the engine at baseURL.
func NewEngineClient(log *slog.Logger, baseURL string, timeout time.Duration) *EngineClient {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &EngineClient{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  log.With(slog.String("component", "engine")),
	}
}

// Reply posts the run to the engine and decodes its replies.
func (c *EngineClient) Reply(ctx context.Context, req Request) (Response, error) {
	if c.baseURL == "" {
		return Response{}, fmt.Errorf("engine url not configured")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode engine request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/replies", bytes.NewReader(payload))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("engine request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return Response{}, fmt.Errorf("read engine response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("engine status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var decoded Response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Response{}, fmt.Errorf("decode engine response: %w", err)
	}
	return decoded, nil
}
