package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// temporalTokenTTL is the bridge's validity window for temporal tokens,
// applied when a token response carries no explicit expires_in.
const temporalTokenTTL = time.Hour

const defaultTimeout = 30 * time.Second

// ErrClientInvalidated is returned by requests abandoned because the client
// was torn down mid-flight.
var ErrClientInvalidated = errors.New("bridge: client invalidated")

// Config carries the constructor parameters for a Client. Zero values fall
// back to defaults.
type Config struct {
	Endpoint    string        // base URL of the bridge service, required
	Tokens      TokenSource   // temporal token source, nil disables attachment
	Timeout     time.Duration // overall per-call deadline, default 30s
	MaxRetries  int           // retries after the first attempt, default 3
	BackoffBase time.Duration // first inter-attempt delay, default 500ms
	Logger      *slog.Logger
}

// Client is a shared, thread-safe HTTP client bound to one bridge endpoint.
type Client struct {
	endpoint  string
	http      *http.Client
	base      *http.Transport
	logger    *slog.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// New constructs a Client from the given configuration. The endpoint is
// normalized (scheme and host required, trailing slash stripped) so that two
// spellings of the same base URL share one instance under a Registry.
func New(cfg Config) (*Client, error) {
	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	backoffBase := cfg.BackoffBase
	if backoffBase <= 0 {
		backoffBase = defaultBackoffBase
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	done := make(chan struct{})

	transport := &retryTransport{
		next: &tokenTransport{
			next:   base,
			source: cfg.Tokens,
		},
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		logger:      logger,
		done:        done,
	}

	return &Client{
		endpoint: endpoint,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		base:   base,
		logger: logger,
		done:   done,
	}, nil
}

// normalizeEndpoint validates the base URL and strips the trailing slash.
func normalizeEndpoint(endpoint string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("bridge: invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("bridge: endpoint %q must carry scheme and host", endpoint)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Endpoint returns the normalized base endpoint the client is bound to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Close releases pooled connections and abandons in-flight retry waits. A
// closed client stays closed; the Registry builds a replacement on demand.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.base.CloseIdleConnections()
	})
}

// AuthenticateResponse is the answer of the register-or-verify endpoint.
type AuthenticateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Action  string `json:"action"` // "registered" or "authenticated"
}

type authenticateRequest struct {
	AccountID string `json:"account_id"`
	Password  string `json:"password"`
}

type tokenRequest struct {
	Username     string `json:"username,omitempty"`
	Password     string `json:"password,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

type tokenResponse struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	TemporalToken string `json:"temporal_token,omitempty"`
	ExpiresIn     int64  `json:"expires_in,omitempty"`
}

// Authenticate submits the account id and derived password to the
// register-or-verify endpoint. First presentation registers the credential;
// later ones verify it.
func (c *Client) Authenticate(ctx context.Context, accountID, password string) (AuthenticateResponse, error) {
	var out AuthenticateResponse
	err := c.postJSON(ctx, "/authenticate", "authenticate",
		authenticateRequest{AccountID: accountID, Password: password}, &out)
	if err != nil {
		return AuthenticateResponse{}, err
	}
	if !out.Success {
		return AuthenticateResponse{}, rejectionError("authenticate", out.Message)
	}
	return out, nil
}

// Login exchanges a username/password pair for a long-lived refresh token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out tokenResponse
	err := c.postJSON(ctx, "/token", "login",
		tokenRequest{Username: username, Password: password}, &out)
	if err != nil {
		return "", err
	}
	if !out.Success || out.RefreshToken == "" {
		return "", rejectionError("login", out.Message)
	}
	return out.RefreshToken, nil
}

// Refresh presents a refresh token and returns a fresh temporal token along
// with its validity window.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (string, time.Duration, error) {
	var out tokenResponse
	err := c.postJSON(ctx, "/token", "refresh",
		tokenRequest{RefreshToken: refreshToken}, &out)
	if err != nil {
		return "", 0, err
	}
	if !out.Success || out.TemporalToken == "" {
		return "", 0, rejectionError("refresh", out.Message)
	}

	validity := temporalTokenTTL
	if out.ExpiresIn > 0 {
		validity = time.Duration(out.ExpiresIn) * time.Second
	}
	return out.TemporalToken, validity, nil
}

// Health probes the bridge's health endpoint.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("bridge: building health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err, "health")
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return statusError("health", resp.StatusCode)
	}
	return nil
}

// postJSON performs one JSON POST and decodes the response body into out.
func (c *Client) postJSON(ctx context.Context, path, operation string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("bridge: encoding %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("bridge: building %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(err, operation)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return statusError(operation, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("bridge: decoding %s response: %w", operation, err)
	}
	return nil
}
