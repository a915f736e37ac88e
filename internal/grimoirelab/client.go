// Package grimoirelab is a client for the GrimoireLab REST API.
package grimoirelab

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bitergia/grimoirelab-metrics/internal/contract"
)

// DefaultHTTPTimeout bounds every API call.
const DefaultHTTPTimeout = 30 * time.Second

// APIError is a non-2xx answer from the API.
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Message returns the "error" field of a JSON error body, if any.
func (e *APIError) Message() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	return body.Error
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// ErrNotConnected is returned when a request is made before Connect.
var ErrNotConnected = errors.New("session not connected, call Connect first")

// Client talks to the GrimoireLab API. It keeps the access and refresh tokens
// obtained by Connect and is safe for concurrent use.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	log        *contract.Logger

	mu           sync.RWMutex
	connected    bool
	accessToken  string
	refreshToken string
}

var _ contract.TaskService = &Client{} // Compile-time check

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for debug messages.
func WithLogger(log *contract.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithInsecureSkipVerify disables TLS certificate verification.
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		c.httpClient = &http.Client{
			Timeout: DefaultHTTPTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in via --verify-certs=false
			},
		}
	}
}

// NewClient creates a client for the API at baseURL. Authentication is only
// used when both user and password are set.
func NewClient(baseURL, user, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		user:       user,
		password:   password,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect opens the session and obtains a token when credentials are set.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	if c.user == "" || c.password == "" {
		return nil
	}

	var tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	}
	credentials := map[string]string{"username": c.user, "password": c.password}
	if err := c.send(ctx, http.MethodPost, "token/", nil, credentials, &tokens, ""); err != nil {
		return fmt.Errorf("authenticating as %s: %w", c.user, err)
	}

	c.mu.Lock()
	c.accessToken = tokens.Access
	c.refreshToken = tokens.Refresh
	c.mu.Unlock()
	return nil
}

// Get sends a GET request and decodes the JSON answer into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.request(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON and decodes the JSON answer into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.request(ctx, http.MethodPost, path, nil, body, out)
}

// request runs one API call. A 403 answer refreshes the access token and
// retries the call once when a refresh token is available.
func (c *Client) request(ctx context.Context, method, path string, query url.Values, body, out any) error {
	c.mu.RLock()
	connected, token, refresh := c.connected, c.accessToken, c.refreshToken
	c.mu.RUnlock()

	if !connected {
		return ErrNotConnected
	}

	err := c.send(ctx, method, path, query, body, out, token)
	if !IsStatus(err, http.StatusForbidden) || refresh == "" {
		return err
	}

	token, err = c.refreshAccessToken(ctx, refresh)
	if err != nil {
		return err
	}
	return c.send(ctx, method, path, query, body, out, token)
}

func (c *Client) refreshAccessToken(ctx context.Context, refresh string) (string, error) {
	c.log.Debugf("Refreshing token...")

	var tokens struct {
		Access string `json:"access"`
	}
	if err := c.send(ctx, http.MethodPost, "token/refresh/", nil, map[string]string{"refresh": refresh}, &tokens, ""); err != nil {
		return "", fmt.Errorf("refreshing token: %w", err)
	}

	c.mu.Lock()
	c.accessToken = tokens.Access
	c.mu.Unlock()
	return tokens.Access, nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any, token string) error {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response of %s %s: %w", method, endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Method: method, URL: endpoint, StatusCode: resp.StatusCode, Body: data}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response of %s %s: %w", method, endpoint, err)
	}
	return nil
}
