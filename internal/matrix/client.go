// Package matrix is the HTTP client for the MT-VIKI MT-H8M88 HDMI matrix's
// embedded web interface. It speaks the vendor's CGI dialect (form-encoded
// commands, semi-structured status pages) and hides that format behind a
// typed API. The package performs no retries; retry policy, if any wanted,
// belongs to the caller.
package matrix

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/willysamz/ha-matrix-api/internal/domain/routing"
	"go.uber.org/zap"
)

// ConnState is the coarse connection state tracked across commands and
// probes, exposed on the /api/status endpoint.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected" // no request attempted yet
	StateConnected    ConnState = "connected"    // last request succeeded
	StateError        ConnState = "error"        // last request failed
)

// Config carries the device-facing settings (see internal/config).
type Config struct {
	// BaseURL of the matrix web interface, with or without a scheme.
	// "http://" is assumed when missing.
	BaseURL string
	// Timeout applied to every device request.
	Timeout time.Duration
	// VerifySSL toggles TLS certificate verification. The device ships a
	// self-signed certificate, so this defaults to off.
	VerifySSL bool
}

// Status is an immutable snapshot of the client's bookkeeping.
type Status struct {
	State        ConnState
	LastCommand  *time.Time // last successful command, nil until one lands
	LastResponse string     // raw body of the last successful command
}

// Client talks to one matrix device. Safe for concurrent use; the device's
// embedded server is single-threaded, so callers should still throttle
// concurrent requests (see middleware.LimitConcurrentRequests).
type Client struct {
	log     *zap.Logger
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	state        ConnState
	lastCommand  *time.Time
	lastResponse string
}

// New builds a Client for the device at cfg.BaseURL.
func New(log *zap.Logger, cfg Config) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !cfg.VerifySSL}

	return &Client{
		log:     log.Named("matrix_client"),
		baseURL: normalizeBaseURL(cfg.BaseURL),
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		state: StateDisconnected,
	}
}

// normalizeBaseURL defaults the scheme to http:// and strips any trailing
// slash so endpoint paths can be appended directly.
func normalizeBaseURL(raw string) string {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	return strings.TrimRight(raw, "/")
}

// BaseURL returns the normalized device URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Status returns a copy of the connection bookkeeping.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{State: c.state, LastCommand: c.lastCommand, LastResponse: c.lastResponse}
}

// SetRoute switches the given input onto the given output by sending the
// vendor command "SW+<input>+<output>". The device acknowledges only via
// HTTP status; no state re-read happens here.
func (c *Client) SetRoute(ctx context.Context, output, input int) error {
	if err := routing.ValidateID(routing.KindOutput, output); err != nil {
		return err
	}
	if err := routing.ValidateID(routing.KindInput, input); err != nil {
		return err
	}

	cmd := fmt.Sprintf("SW+%d+%d", input, output)
	_, err := c.sendCommand(ctx, cmd)
	return err
}

// Ping is the lightweight reachability probe used by the health monitor:
// a GET against the base URL, status check only, no body parsing.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.setState(StateError)
		return unreachable(err)
	}
	defer res.Body.Close()
	io.Copy(io.Discard, res.Body) // drain for connection reuse

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.setState(StateError)
		return badStatus(res.StatusCode)
	}

	c.setState(StateConnected)
	return nil
}

// sendCommand POSTs cmd to the command CGI and returns the raw body.
func (c *Client) sendCommand(ctx context.Context, cmd string) (string, error) {
	endpoint := c.baseURL + "/form-system-cmd.cgi"
	form := url.Values{"cmd": {cmd}}

	c.log.Debug("sending matrix command", zap.String("cmd", cmd), zap.String("endpoint", endpoint))

	body, err := c.postForm(ctx, endpoint, form)
	if err != nil {
		c.log.Error("matrix command failed", zap.String("cmd", cmd), zap.Error(err))
		return "", err
	}

	now := time.Now().UTC()
	c.mu.Lock()
	c.state = StateConnected
	c.lastCommand = &now
	c.lastResponse = body
	c.mu.Unlock()

	c.log.Info("matrix command ok", zap.String("cmd", cmd), zap.Int("response_length", len(body)))
	return body, nil
}

// postForm issues one form-encoded POST and classifies failures into the
// package's error taxonomy. Connection state is updated on failure; success
// bookkeeping is the caller's concern.
func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		c.setState(StateError)
		return "", unreachable(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.setState(StateError)
		return "", unreachable(err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.setState(StateError)
		return "", badStatus(res.StatusCode)
	}

	return string(body), nil
}

// get issues one GET and classifies failures like postForm.
func (c *Client) get(ctx context.Context, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	res, err := c.http.Do(req)
	if err != nil {
		c.setState(StateError)
		return "", unreachable(err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.setState(StateError)
		return "", unreachable(err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.setState(StateError)
		return "", badStatus(res.StatusCode)
	}

	c.setState(StateConnected)
	return string(body), nil
}

func (c *Client) setState(s ConnState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}
