package wsstore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultUserAgent = "kolejka/0.1"
	requestTimeout   = 5 * time.Second

	// Replies are small (one office's groups); anything past this is not a
	// well-formed wsstore response.
	maxResponseBytes = 1 << 20
)

// Client talks to the wsstore HTTP API. It fetches raw bytes only; decoding
// and caching are the repository's concern.
type Client struct {
	apiURL       *url.URL
	directoryURL *url.URL
	apiKey       string
	http         *http.Client
	userAgent    string
}

// NewClient builds a Client for the queue endpoint and the office directory
// endpoint. apiKey is sent as the "apikey" query parameter on queue fetches.
func NewClient(apiURL, directoryURL, apiKey string) (*Client, error) {
	api, err := parseEndpoint(apiURL, "api_url")
	if err != nil {
		return nil, err
	}
	dir, err := parseEndpoint(directoryURL, "directory_url")
	if err != nil {
		return nil, err
	}
	return &Client{
		apiURL:       api,
		directoryURL: dir,
		apiKey:       strings.TrimSpace(apiKey),
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchOffices retrieves the raw office directory reply.
func (c *Client) FetchOffices(ctx context.Context) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	return c.do(ctx, c.directoryURL)
}

// FetchGroups retrieves the raw queue reply for one office.
func (c *Client) FetchGroups(ctx context.Context, officeKey string) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(officeKey) == "" {
		return nil, fmt.Errorf("office key required")
	}
	values := c.apiURL.Query()
	values.Set("id", officeKey)
	if c.apiKey != "" {
		values.Set("apikey", c.apiKey)
	}
	reqURL := *c.apiURL
	reqURL.RawQuery = values.Encode()
	return c.do(ctx, &reqURL)
}

func (c *Client) do(ctx context.Context, reqURL *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("api %s returned status %d", reqURL.Path, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func parseEndpoint(raw, name string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%s is empty", name)
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse %s %q: %w", name, raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse %s %q: no host", name, raw)
	}
	u.Fragment = ""
	return u, nil
}
