// Package remote implements the network primitives used by the sync engine:
// fetching the remote catalog and downloading a single asset.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// DefaultUserAgent is sent when no user agent is configured.
const DefaultUserAgent = "farnsworth"

// Entry is one catalog entry as served by the remote catalog.
type Entry struct {
	URL string `json:"url"`
}

// Client performs catalog and asset requests over HTTP.
// The zero value is not usable; create one with NewClient.
type Client struct {
	http      *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(cl *Client) {
		if ua != "" {
			cl.userAgent = ua
		}
	}
}

// NewClient creates a client. By default it uses a plain http.Client with no
// timeout; callers bound requests through the context.
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{},
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchCatalog retrieves the catalog at url. The response body must be a JSON
// array of {"url": string} objects.
//
// Returns CodeRemoteFetch on network failure or a non-200 status, and
// CodeCatalogParse when the body is not a valid catalog.
func (c *Client) FetchCatalog(ctx context.Context, url string) ([]Entry, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, wrapFetchError(err, "failed to read catalog response", url, 0)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, wrapParseError(err, "failed to parse catalog", url)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Download streams the asset at url into w and returns the number of bytes
// written. Returns CodeAssetDownload on any failure.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return 0, asDownloadError(err, url)
	}
	defer body.Close()

	n, err := io.Copy(w, body)
	if err != nil {
		return n, wrapDownloadError(err, "failed to copy asset body", url)
	}
	return n, nil
}

// get issues a GET request and returns the body of a 200 response.
func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, wrapFetchError(err, "failed to build request", url, 0)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapFetchError(err, "request failed", url, 0)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, wrapFetchError(
			fmt.Errorf("unexpected status %s", resp.Status),
			"remote returned non-200 status", url, resp.StatusCode)
	}

	return resp.Body, nil
}
