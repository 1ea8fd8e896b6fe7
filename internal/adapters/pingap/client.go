// Package pingap talks to the pingap admin API.
package pingap

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

	"github.com/melih/pingap-docker-provider/internal/core/domain"
	"github.com/melih/pingap-docker-provider/internal/core/ports"
)

const defaultTimeout = 10 * time.Second

// StatusError is returned for any non-2xx admin API response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("pingap %s %s: http %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("pingap %s %s: http %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Is reports a 404 as ports.ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ports.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client implements ports.ProxyTransport. Each method is a single request.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the admin API rooted at baseURL. A nil
// httpClient gets a default with a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) PutUpstream(ctx context.Context, name string, upstream domain.UpstreamPayload) error {
	return c.do(ctx, http.MethodPost, c.objectURL("upstreams", name), upstream)
}

func (c *Client) PutLocation(ctx context.Context, name string, location domain.LocationPayload) error {
	return c.do(ctx, http.MethodPost, c.objectURL("locations", name), location)
}

func (c *Client) DeleteLocation(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.objectURL("locations", name), nil)
}

func (c *Client) DeleteUpstream(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodDelete, c.objectURL("upstreams", name), nil)
}

func (c *Client) objectURL(kind, name string) string {
	return c.baseURL + "/" + kind + "/" + url.PathEscape(name)
}

func (c *Client) do(ctx context.Context, method, target string, payload any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s payload: %w", target, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(msg)),
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

var _ ports.ProxyTransport = (*Client)(nil)
