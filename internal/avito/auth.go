package avito

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/staylink/rentops/pkg/config"
	"github.com/staylink/rentops/pkg/logger"
)

// Token is a bearer credential together with the account it authenticates.
// The account id is resolved once per token lifetime via the self-account
// endpoint and cached alongside the token.
type Token struct {
	AccessToken string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	AccountID   int64
}

// TokenSource owns the OAuth client-credentials exchange and the on-disk
// token snapshot. It is the only writer of the cached token; concurrent
// callers that hit an expired or near-expiry token are coalesced behind a
// single in-flight exchange.
type TokenSource struct {
	clientID     string
	clientSecret string
	tokenURL     string
	selfURL      string
	snapshotPath string

	refreshMargin  time.Duration
	marginFraction float64

	http *http.Client
	now  func() time.Time

	mu    sync.Mutex
	tok   *Token
	group singleflight.Group
}

func NewTokenSource(cfg config.PlatformConfig) *TokenSource {
	s := &TokenSource{
		clientID:       cfg.ClientID,
		clientSecret:   cfg.ClientSecret,
		tokenURL:       cfg.TokenURL,
		selfURL:        cfg.SelfURL,
		snapshotPath:   cfg.SnapshotPath,
		refreshMargin:  cfg.RefreshMargin,
		marginFraction: cfg.RefreshMarginFraction,
		http:           &http.Client{Timeout: cfg.RequestTimeout},
		now:            time.Now,
	}
	if s.refreshMargin <= 0 {
		s.refreshMargin = 5 * time.Minute
	}
	s.loadSnapshot()
	return s
}

// Token returns a valid bearer token, performing a fresh exchange when the
// cached one is missing, expired, or inside the safety margin of expiry.
func (s *TokenSource) Token(ctx context.Context) (Token, error) {
	if tok, ok := s.current(); ok {
		return tok, nil
	}

	v, err, _ := s.group.Do(s.clientID, func() (any, error) {
		// Another caller may have finished a refresh while this one was
		// queued on the singleflight group.
		if tok, ok := s.current(); ok {
			return tok, nil
		}
		return s.exchange(ctx)
	})
	if err != nil {
		return Token{}, err
	}
	return v.(Token), nil
}

// AccountID returns the authenticated account's identifier, refreshing the
// token first when needed.
func (s *TokenSource) AccountID(ctx context.Context) (int64, error) {
	tok, err := s.Token(ctx)
	if err != nil {
		return 0, err
	}
	return tok.AccountID, nil
}

// Invalidate drops the cached token so the next Token call performs a fresh
// exchange. The request executor calls this after a 401 from the platform.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.tok = nil
	s.mu.Unlock()
}

func (s *TokenSource) current() (Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tok == nil {
		return Token{}, false
	}
	if !s.now().Before(s.tok.ExpiresAt.Add(-s.margin(*s.tok))) {
		return Token{}, false
	}
	return *s.tok, true
}

// margin is the pre-expiry window within which a token is treated as stale.
// A configured fraction of the token's total lifetime wins over the
// absolute default.
func (s *TokenSource) margin(tok Token) time.Duration {
	if s.marginFraction > 0 && tok.ExpiresAt.After(tok.IssuedAt) {
		return time.Duration(float64(tok.ExpiresAt.Sub(tok.IssuedAt)) * s.marginFraction)
	}
	return s.refreshMargin
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

type selfResponse struct {
	ID int64 `json:"id"`
}

// exchange performs the client-credentials grant followed by the
// self-account lookup, stores the result, and rewrites the snapshot. There
// is no retry here; retry policy belongs to the request executor and auth
// exchange failures surface as terminal authentication failures.
func (s *TokenSource) exchange(ctx context.Context) (Token, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, &Error{Kind: KindAuthentication, Op: "token", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return Token{}, &Error{Kind: KindAuthentication, Op: "token", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, &Error{Kind: KindAuthentication, Op: "token", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Token{}, &Error{Kind: KindAuthentication, Op: "token", Status: resp.StatusCode, Body: string(body)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, &Error{Kind: KindAuthentication, Op: "token", Err: err}
	}
	if tr.AccessToken == "" || tr.ExpiresIn <= 0 {
		return Token{}, &Error{Kind: KindAuthentication, Op: "token", Err: fmt.Errorf("token response missing access_token or expires_in")}
	}

	issued := s.now()
	tok := Token{
		AccessToken: tr.AccessToken,
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(time.Duration(tr.ExpiresIn) * time.Second),
	}

	accountID, err := s.fetchAccountID(ctx, tok.AccessToken)
	if err != nil {
		return Token{}, err
	}
	tok.AccountID = accountID

	s.mu.Lock()
	s.tok = &tok
	s.mu.Unlock()
	s.saveSnapshot(tok)

	logger.InfoContext(ctx, "Obtained platform token",
		"account_id", tok.AccountID,
		"expires_at", tok.ExpiresAt.Format(time.RFC3339),
	)
	return tok, nil
}

func (s *TokenSource) fetchAccountID(ctx context.Context, accessToken string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.selfURL, nil)
	if err != nil {
		return 0, &Error{Kind: KindAuthentication, Op: "self", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.http.Do(req)
	if err != nil {
		return 0, &Error{Kind: KindAuthentication, Op: "self", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, &Error{Kind: KindAuthentication, Op: "self", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &Error{Kind: KindAuthentication, Op: "self", Status: resp.StatusCode, Body: string(body)}
	}

	var sr selfResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return 0, &Error{Kind: KindAuthentication, Op: "self", Err: err}
	}
	if sr.ID == 0 {
		return 0, &Error{Kind: KindAuthentication, Op: "self", Err: fmt.Errorf("self response missing account id")}
	}
	return sr.ID, nil
}

// snapshot is the persisted token record. It is keyed by client id so a
// stale file left behind by different credentials is ignored on load.
type snapshot struct {
	ClientID    string    `json:"client_id"`
	AccessToken string    `json:"access_token"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
	AccountID   int64     `json:"account_id"`
}

func (s *TokenSource) loadSnapshot() {
	if s.snapshotPath == "" {
		return
	}
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		logger.Warn("Ignoring malformed token snapshot", "path", s.snapshotPath, "error", err)
		return
	}
	if snap.ClientID != s.clientID || snap.AccessToken == "" || snap.ExpiresAt.IsZero() {
		return
	}

	s.tok = &Token{
		AccessToken: snap.AccessToken,
		IssuedAt:    snap.IssuedAt,
		ExpiresAt:   snap.ExpiresAt,
		AccountID:   snap.AccountID,
	}
}

func (s *TokenSource) saveSnapshot(tok Token) {
	if s.snapshotPath == "" {
		return
	}
	data, err := json.Marshal(snapshot{
		ClientID:    s.clientID,
		AccessToken: tok.AccessToken,
		IssuedAt:    tok.IssuedAt,
		ExpiresAt:   tok.ExpiresAt,
		AccountID:   tok.AccountID,
	})
	if err != nil {
		return
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o600); err != nil {
		logger.Warn("Failed to persist token snapshot", "path", s.snapshotPath, "error", err)
	}
}
