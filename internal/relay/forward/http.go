package forward

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/staylink/rentops/internal/domain"
	"github.com/staylink/rentops/pkg/logger"
)

// HTTPForwarder posts notification events to the landlord process over its
// local address. The two processes are co-located, so a plain request with
// a short timeout is the whole delivery mechanism.
type HTTPForwarder struct {
	url    string
	client *http.Client
}

func NewHTTPForwarder(landlordURL string) *HTTPForwarder {
	return &HTTPForwarder{
		url: landlordURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (f *HTTPForwarder) Forward(ctx context.Context, event domain.NotificationEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return &Error{Target: f.url, Err: fmt.Errorf("encode event: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return &Error{Target: f.url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	if requestID := ctx.Value(logger.RequestIDKey); requestID != nil {
		if id, ok := requestID.(string); ok {
			req.Header.Set("X-Request-ID", id)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return &Error{Target: f.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &Error{Target: f.url, Err: fmt.Errorf("status=%d body=%s", resp.StatusCode, respBody)}
	}

	logger.DebugContext(ctx, "Forwarded notification", "target", f.url, "event_id", event.ID)
	return nil
}
