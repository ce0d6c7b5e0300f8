package avito

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/staylink/rentops/pkg/config"
	"github.com/staylink/rentops/pkg/logger"
)

// TokenProvider supplies bearer tokens for outbound platform requests.
// *TokenSource is the production implementation.
type TokenProvider interface {
	Token(ctx context.Context) (Token, error)
	Invalidate()
}

// Client executes platform operations under the retry policy the remote
// platform is known to tolerate: at most maxAttempts sequential attempts per
// logical call, exponential backoff on rate limiting, a fixed delay on
// server errors and transport failures, and a single token refresh after a
// 401. The attempt count, backoff formula, and 401-retry-once rule are the
// reliability contract toward the platform and must not change.
type Client struct {
	baseURL string
	auth    TokenProvider
	http    *http.Client

	maxAttempts      int
	retryBaseDelay   time.Duration
	serverErrorDelay time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg config.PlatformConfig, auth TokenProvider) *Client {
	c := &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		auth:             auth,
		http:             &http.Client{Timeout: cfg.RequestTimeout},
		maxAttempts:      cfg.MaxAttempts,
		retryBaseDelay:   cfg.RetryBaseDelay,
		serverErrorDelay: cfg.ServerErrorDelay,
		sleep:            sleepContext,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = 3
	}
	if c.retryBaseDelay <= 0 {
		c.retryBaseDelay = time.Second
	}
	if c.serverErrorDelay <= 0 {
		c.serverErrorDelay = 2 * time.Second
	}
	return c
}

// accountPlaceholder marks the spot in an account-scoped path template where
// the authenticated account id is substituted.
const accountPlaceholder = "{account}"

// do runs one logical call against the platform. body is JSON-encoded when
// non-nil; a 2xx response is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return validationErr(op, "encode request body: %v", err)
		}
	}

	var (
		lastErr     *Error
		authRetried bool
		rateLimited int
	)

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		tok, err := c.auth.Token(ctx)
		if err != nil {
			return err
		}

		reqPath := strings.ReplaceAll(path, accountPlaceholder, strconv.FormatInt(tok.AccountID, 10))
		reqURL := c.baseURL + reqPath
		if len(query) > 0 {
			reqURL += "?" + query.Encode()
		}

		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return &Error{Kind: KindTransport, Op: op, Err: err}
		}
		req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = &Error{Kind: KindTransport, Op: op, Err: err}
			logger.WarnContext(ctx, "Platform request failed",
				"op", op, "attempt", attempt, "error", err,
			)
			if attempt == c.maxAttempts || c.sleep(ctx, c.retryBaseDelay) != nil {
				return lastErr
			}
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = &Error{Kind: KindTransport, Op: op, Err: err}
			if attempt == c.maxAttempts || c.sleep(ctx, c.retryBaseDelay) != nil {
				return lastErr
			}
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if out == nil || len(respBody) == 0 {
				return nil
			}
			if err := json.Unmarshal(respBody, out); err != nil {
				return &Error{Kind: KindTransport, Op: op, Err: fmt.Errorf("decode response: %w", err)}
			}
			return nil

		case resp.StatusCode == http.StatusUnauthorized:
			c.auth.Invalidate()
			lastErr = &Error{Kind: KindAuthentication, Op: op, Status: resp.StatusCode, Body: string(respBody)}
			if authRetried {
				// A fresh token was already tried once; a second 401 is
				// terminal, not a transient condition.
				return lastErr
			}
			authRetried = true
			continue

		case resp.StatusCode == http.StatusTooManyRequests:
			rateLimited++
			lastErr = &Error{Kind: KindRateLimited, Op: op, Status: resp.StatusCode, Body: string(respBody)}
			logger.WarnContext(ctx, "Platform rate limit hit",
				"op", op, "attempt", attempt, "backoff_s", 1<<rateLimited,
			)
			if attempt == c.maxAttempts || c.sleep(ctx, time.Duration(1<<rateLimited)*time.Second) != nil {
				return lastErr
			}
			continue

		case resp.StatusCode >= 500:
			lastErr = &Error{Kind: KindServer, Op: op, Status: resp.StatusCode, Body: string(respBody)}
			if attempt == c.maxAttempts || c.sleep(ctx, c.serverErrorDelay) != nil {
				return lastErr
			}
			continue

		default:
			// Any other 4xx is a well-formed rejection; retrying cannot
			// change the outcome.
			return &Error{Kind: KindClient, Op: op, Status: resp.StatusCode, Body: string(respBody)}
		}
	}

	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
