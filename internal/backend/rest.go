package backend

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

// RESTClient talks to the controller's HTTP surface:
// GET {base}/status and POST {base}/status/cmds.
type RESTClient struct {
	base   string
	httpc  *http.Client
	logger *slog.Logger
}

// NewRESTClient creates a REST client with a per-call timeout.
func NewRESTClient(baseURL string, timeout time.Duration, logger *slog.Logger) *RESTClient {
	return &RESTClient{
		base:   strings.TrimRight(baseURL, "/"),
		httpc:  &http.Client{Timeout: timeout},
		logger: logger.With("component", "backend-rest"),
	}
}

// Status implements Client.
func (c *RESTClient) Status(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get status: unexpected status %s", resp.Status)
	}

	var st Status
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &st, nil
}

// Cmd implements Client.
func (c *RESTClient) Cmd(ctx context.Context, cmd Command) error {
	body := map[string]any{"cmd": cmd.Name}
	for k, v := range cmd.Args {
		body[k] = v
	}
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/status/cmds", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build command request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("post command %q: %w", cmd.Name, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("post command %q: unexpected status %s", cmd.Name, resp.Status)
	}
	c.logger.Debug("command accepted", "cmd", cmd.Name)
	return nil
}
