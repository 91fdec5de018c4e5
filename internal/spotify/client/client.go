package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	lerrors "github.com/siva673/loop-agent/internal/errors"
	"github.com/siva673/loop-agent/internal/spotify/auth"
)

const (
	// BaseURL is the Spotify Web API base URL.
	BaseURL = "https://api.spotify.com/v1"

	baseRetryWait = 500 * time.Millisecond
)

// TokenStore persists the OAuth token between runs.
type TokenStore interface {
	Load() (*auth.Token, error)
	Save(token *auth.Token) error
	Delete() error
}

// Refresher trades a refresh token for a new access token.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*auth.Token, error)
}

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL    string
	HTTPClient *http.Client
	// MaxRetries is how many times network errors and 5xx responses are retried.
	MaxRetries int
	Logger     *zap.Logger
}

// Client is a Spotify API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	maxRetries int
	storage    TokenStore
	refresher  Refresher
	logger     *zap.Logger

	mu     sync.RWMutex
	token  *auth.Token
	loaded bool

	refreshGroup singleflight.Group
}

// New creates a new Spotify client. The token is read from storage on the
// first authorized request.
func New(storage TokenStore, refresher Refresher, opts Options) *Client {
	c := &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		maxRetries: opts.MaxRetries,
		storage:    storage,
		refresher:  refresher,
		logger:     opts.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.baseURL == "" {
		c.baseURL = BaseURL
	}
	if c.maxRetries < 0 {
		c.maxRetries = 0
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// LoadToken loads the token from storage, replacing any cached token.
func (c *Client) LoadToken() error {
	token, err := c.storage.Load()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.token = token
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// SetToken sets the current token and persists it.
func (c *Client) SetToken(token *auth.Token) error {
	c.mu.Lock()
	c.token = token
	c.loaded = true
	c.mu.Unlock()
	return c.storage.Save(token)
}

// ClearToken forgets the cached token and removes the stored one.
func (c *Client) ClearToken() error {
	c.mu.Lock()
	c.token = nil
	c.loaded = true
	c.mu.Unlock()
	return c.storage.Delete()
}

// IsAuthenticated returns true if there's a valid (non-expired) token.
func (c *Client) IsAuthenticated() bool {
	tok, err := c.cachedToken()
	return err == nil && tok != nil && !tok.IsExpired()
}

// HasToken returns true if there's any token (even if expired).
func (c *Client) HasToken() bool {
	tok, err := c.cachedToken()
	return err == nil && tok != nil
}

func (c *Client) cachedToken() (*auth.Token, error) {
	c.mu.RLock()
	tok, loaded := c.token, c.loaded
	c.mu.RUnlock()
	if loaded {
		return tok, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		stored, err := c.storage.Load()
		if err != nil {
			return nil, fmt.Errorf("load token: %w", err)
		}
		c.token = stored
		c.loaded = true
	}
	return c.token, nil
}

// accessToken returns a usable access token, refreshing once for all
// concurrent callers when it has expired.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	tok, err := c.cachedToken()
	if err != nil {
		return "", err
	}
	if tok == nil {
		return "", lerrors.Wrap(lerrors.KindAuth, "no stored Spotify token", lerrors.ErrNotAuthenticated)
	}
	if !tok.IsExpired() {
		return tok.AccessToken, nil
	}

	v, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.refreshToken(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	if shared {
		c.logger.Debug("shared token refresh")
	}
	return v.(*auth.Token).AccessToken, nil
}

func (c *Client) refreshToken(ctx context.Context) (*auth.Token, error) {
	c.mu.RLock()
	current := c.token
	c.mu.RUnlock()

	if current != nil && !current.IsExpired() {
		return current, nil
	}
	if !current.CanRefresh() || c.refresher == nil {
		return nil, lerrors.Wrap(lerrors.KindAuth, "token expired and cannot be refreshed", lerrors.ErrNotAuthenticated)
	}

	c.logger.Debug("refreshing access token")
	fresh, err := c.refresher.Refresh(ctx, current.RefreshToken)
	if err != nil {
		return nil, lerrors.Wrap(lerrors.KindAuth, "refresh access token", err)
	}
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = current.RefreshToken
	}

	c.mu.Lock()
	c.token = fresh
	c.mu.Unlock()

	if err := c.storage.Save(fresh); err != nil {
		c.logger.Warn("persist refreshed token", zap.Error(err))
	}
	return fresh, nil
}

// Get performs a GET request to the Spotify API.
func (c *Client) Get(ctx context.Context, path string, result any) error {
	return c.request(ctx, http.MethodGet, path, nil, result)
}

// Post performs a POST request to the Spotify API.
func (c *Client) Post(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPost, path, body, result)
}

// Put performs a PUT request to the Spotify API.
func (c *Client) Put(ctx context.Context, path string, body any, result any) error {
	return c.request(ctx, http.MethodPut, path, body, result)
}

// Delete performs a DELETE request to the Spotify API.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.request(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) request(ctx context.Context, method, path string, body any, result any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var jsonBody []byte
	if body != nil {
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	fullURL := c.baseURL + path
	log := c.logger.With(zap.String("method", method), zap.String("path", path))
	log.Debug("spotify request", zap.ByteString("body", jsonBody))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := baseRetryWait * time.Duration(1<<(attempt-1))
			log.Debug("retrying spotify request",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		var bodyReader io.Reader
		if jsonBody != nil {
			bodyReader = strings.NewReader(string(jsonBody))
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		log.Debug("spotify response", zap.Int("status", resp.StatusCode))

		if resp.StatusCode == http.StatusNoContent {
			return nil
		}

		if resp.StatusCode >= 500 {
			lastErr = decodeAPIError(resp.StatusCode, respBody)
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized {
			return lerrors.Wrap(lerrors.KindAuth, "spotify rejected the access token", decodeAPIError(resp.StatusCode, respBody))
		}

		if resp.StatusCode >= 400 {
			log.Debug("spotify error body", zap.ByteString("body", respBody))
			return decodeAPIError(resp.StatusCode, respBody)
		}

		if result != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
		}

		return nil
	}

	if c.maxRetries == 0 {
		return lastErr
	}
	return fmt.Errorf("request failed after %d retries: %w", c.maxRetries, lastErr)
}

// APIError represents a Spotify API error response.
type APIError struct {
	ErrorInfo struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
		Reason  string `json:"reason,omitempty"`
	} `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Spotify API error %d: %s", e.ErrorInfo.Status, e.ErrorInfo.Message)
}

// Status returns the HTTP status of the failed call.
func (e *APIError) Status() int {
	return e.ErrorInfo.Status
}

func decodeAPIError(status int, body []byte) *APIError {
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.ErrorInfo.Message == "" {
		apiErr.ErrorInfo.Message = strings.TrimSpace(string(body))
		if apiErr.ErrorInfo.Message == "" {
			apiErr.ErrorInfo.Message = http.StatusText(status)
		}
	}
	if apiErr.ErrorInfo.Status == 0 {
		apiErr.ErrorInfo.Status = status
	}
	return &apiErr
}

// StatusOf returns the HTTP status carried by an API error in err's chain,
// or 0 when there is none.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status()
	}
	return 0
}

// IsNoActiveDeviceError checks if an error is a "no active device" error.
func IsNoActiveDeviceError(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// IsPremiumRequiredError checks if an error is a 403 restriction, which
// Spotify returns for free accounts and restricted devices.
func IsPremiumRequiredError(err error) bool {
	return StatusOf(err) == http.StatusForbidden
}

// BuildURL builds a URL with query parameters.
func BuildURL(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}

	u, _ := url.Parse(path)
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
