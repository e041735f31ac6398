// Package brightdata provides a client for the Bright Data scraping API.
package brightdata

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.brightdata.com"

// ErrProviderRejected marks a non-2xx response from the provider, as opposed
// to a transport failure. Callers can treat the two differently.
var ErrProviderRejected = eris.New("brightdata: provider rejected request")

// Client fetches raw profile data through the Bright Data request API.
type Client interface {
	// Request scrapes a single URL through the configured zone and returns
	// the provider's JSON payload.
	Request(ctx context.Context, req ScrapeRequest) (ProfilePayload, error)
}

// ScrapeRequest is the request body for POST /request.
type ScrapeRequest struct {
	Zone   string `json:"zone"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

// ProfilePayload is the provider's loosely-shaped JSON response. Field names
// vary by platform, so callers pick what they need via the accessor.
type ProfilePayload map[string]json.RawMessage

// String returns the first non-empty string value among the given keys.
func (p ProfilePayload) String(keys ...string) string {
	for _, k := range keys {
		raw, ok := p[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Bright Data client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 45 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Request(ctx context.Context, req ScrapeRequest) (ProfilePayload, error) {
	if req.Format == "" {
		req.Format = "json"
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "brightdata: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/request", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "brightdata: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "brightdata: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "brightdata: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(ErrProviderRejected, "status %d: %s", resp.StatusCode, string(respBody))
	}

	var payload ProfilePayload
	if err := json.Unmarshal(respBody, &payload); err != nil {
		return nil, eris.Wrap(err, "brightdata: unmarshal response")
	}

	return payload, nil
}
