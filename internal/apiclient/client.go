// Package apiclient is the single HTTP client the web frontend uses to reach
// the CityAssist REST API. It attaches the bearer token from the persisted
// session blob and reacts to 401 responses by clearing the session and
// sending the user back to the login view.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cityassist/cityassist/go-web/internal/localstore"
	"github.com/cityassist/cityassist/go-web/pkg/logger"
	"github.com/cityassist/cityassist/go-web/pkg/metrics"
)

// LoginPath is where the 401 hook navigates.
const LoginPath = "/login"

// Navigator performs view navigation on behalf of the client.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// Client is safe for concurrent use by the handlers of one request scope.
type Client struct {
	baseURL string
	http    *http.Client
	storage localstore.Storage
	nav     Navigator

	Auth          *AuthAPI
	User          *UserAPI
	Reports       *ReportsAPI
	Notifications *NotificationsAPI
	Routing       *RoutingAPI
	Services      *ServicesAPI
	Alerts        *AlertsAPI
	Upload        *UploadAPI
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d, Transport: c.http.Transport}
		}
	}
}

// New creates a client for baseURL reading credentials from storage. nav may
// be nil when no navigation is possible (background jobs, tests).
func New(baseURL string, storage localstore.Storage, nav Navigator, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		storage: storage,
		nav:     nav,
	}
	for _, o := range opts {
		o(c)
	}
	c.Auth = &AuthAPI{c: c}
	c.User = &UserAPI{c: c}
	c.Reports = &ReportsAPI{c: c}
	c.Notifications = &NotificationsAPI{c: c}
	c.Routing = &RoutingAPI{c: c}
	c.Services = &ServicesAPI{c: c}
	c.Alerts = &AlertsAPI{c: c}
	c.Upload = &UploadAPI{c: c}
	return c
}

// persistedAuth mirrors just enough of the session blob to find the token.
type persistedAuth struct {
	State struct {
		Token *string `json:"token"`
	} `json:"state"`
}

// authorize is the request hook: bearer token from the persisted blob, if any.
// Storage and parse errors are ignored.
func (c *Client) authorize(ctx context.Context, req *http.Request) {
	if c.storage == nil {
		return
	}
	raw, err := c.storage.GetItem(ctx, localstore.AuthKey)
	if err != nil || raw == nil {
		if err != nil {
			logger.Debugf("apiclient: read %s: %v", localstore.AuthKey, err)
		}
		return
	}
	var blob persistedAuth
	if err := json.Unmarshal(raw, &blob); err != nil {
		logger.Debugf("apiclient: ignoring unparseable %s: %v", localstore.AuthKey, err)
		return
	}
	if blob.State.Token != nil && *blob.State.Token != "" {
		req.Header.Set("Authorization", "Bearer "+*blob.State.Token)
	}
}

// unauthorized is the 401 response hook.
func (c *Client) unauthorized(ctx context.Context) {
	if c.storage != nil {
		if err := c.storage.RemoveItem(ctx, localstore.AuthKey); err != nil {
			logger.Warnf("apiclient: clear %s after 401: %v", localstore.AuthKey, err)
		}
	}
	metrics.SessionEvents.WithLabelValues("expired").Inc()
	if c.nav != nil {
		c.nav.Navigate(LoginPath)
	}
}

// do sends one request through the hooks and decodes a JSON response into out
// (when out is non-nil and the response has a body).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	c.authorize(ctx, req)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.APIClientRequests.WithLabelValues(method, "network_error").Inc()
		return &Error{Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		metrics.APIClientRequests.WithLabelValues(method, fmt.Sprintf("%dxx", resp.StatusCode/100)).Inc()
		if resp.StatusCode == http.StatusUnauthorized {
			c.unauthorized(ctx)
		}
		return &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}
	metrics.APIClientRequests.WithLabelValues(method, "ok").Inc()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &Error{Kind: ErrServer, Status: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

// doJSON encodes in (if non-nil) as the JSON request body.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, query, body, contentType, out)
}

// readErrorMessage extracts {"error": "..."} or {"message": "..."} from an error body.
func readErrorMessage(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || len(b) == 0 {
		return ""
	}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(b, &payload) == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	msg := strings.TrimSpace(string(b))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
