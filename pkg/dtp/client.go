// Package dtp is a thin REST client for the Digital Twin Platform graph
// store, plus the session log and reverter built on top of it. Mutating
// calls are recorded as they happen so a batch run can be unwound.
package dtp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/bim2twin/dtpfix/pkg/config"
)

// Client talks to the DTP REST API. One request at a time, no retries:
// the tool assumes single-writer access and fails fast on any remote
// refusal it cannot explain.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger

	// simulation routes every mutating call to a no-op that still logs
	// the intended operation, so dry runs report real counts.
	simulation bool
	session    *SessionWriter
}

// Options configures a Client.
type Options struct {
	Simulation bool
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// NewClient creates a DTP client for the configured endpoint.
func NewClient(cfg config.DTPConfig, opts *Options) *Client {
	if opts == nil {
		opts = &Options{}
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    cfg.URL,
		token:      cfg.Token,
		httpClient: httpClient,
		logger:     logger,
		simulation: opts.Simulation,
	}
}

// Simulation reports whether the client is in dry-run mode.
func (c *Client) Simulation() bool {
	return c.simulation
}

// BeginSession opens a fresh session log under dir. Every subsequent
// mutating call is appended to it.
func (c *Client) BeginSession(dir string) error {
	writer, err := NewSessionWriter(dir)
	if err != nil {
		return err
	}
	c.session = writer
	c.logger.Info("session log opened", "path", writer.Path())
	return nil
}

// EndSession closes the current session log, if any.
func (c *Client) EndSession() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

// SessionPath returns the current session log path, or "".
func (c *Client) SessionPath() string {
	if c.session == nil {
		return ""
	}
	return c.session.Path()
}

// record appends an entry to the session log. Losing a log entry would
// make the run unrevertable, so failures here are fatal.
func (c *Client) record(entry SessionEntry) error {
	if c.session == nil {
		return nil
	}
	entry.Simulated = c.simulation
	if err := c.session.Append(entry); err != nil {
		return fmt.Errorf("session logging failed: %w", err)
	}
	return nil
}

// mutateResponse is the envelope the DTP returns for mutating calls.
type mutateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// postJSON sends a request and decodes the response envelope into out.
func (c *Client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("DTP request %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read DTP response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("DTP request %s returned status %d: %s", path, resp.StatusCode, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode DTP response for %s: %w", path, err)
	}
	return nil
}
