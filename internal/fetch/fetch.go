// Package fetch is the HTTP transport port used by the spiders.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Defaults shared by every source.
const (
	DefaultTimeout   = 60 * time.Second
	DefaultUserAgent = "NorthCloudLegalHarvester/1.0 (legal-research-bot)"
	// maxBodyBytes caps a single response; SPARQL result sets are the largest payloads.
	maxBodyBytes = 32 << 20
)

// Accept header values used by the spiders.
const (
	AcceptXML    = "application/xml"
	AcceptHTML   = "text/html,application/xhtml+xml"
	AcceptJSON   = "application/json"
	AcceptSPARQL = "application/sparql-results+json"
	AcceptRSS    = "application/rss+xml, application/atom+xml, application/xml, text/xml"
)

// Request describes a single GET.
type Request struct {
	URL    string
	Query  url.Values
	Accept string
}

// Response is the buffered result of a successful GET.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
	URL         string
}

// Fetcher issues GET requests. Implementations must be safe for concurrent use.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (*Response, error)
}

// HTTPFetcher implements Fetcher using net/http.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithClient replaces the underlying http.Client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// NewHTTPFetcher creates an HTTPFetcher with the given per-request timeout.
func NewHTTPFetcher(timeout time.Duration, opts ...Option) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	f := &HTTPFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetch performs the GET. Non-2xx statuses and network failures are returned
// as *Error.
func (f *HTTPFetcher) Fetch(ctx context.Context, r Request) (*Response, error) {
	target, err := BuildURL(r.URL, r.Query)
	if err != nil {
		return nil, ClassifyNetworkError(err, r.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, ClassifyNetworkError(fmt.Errorf("new request: %w", err), target)
	}

	req.Header.Set("User-Agent", f.userAgent)
	if r.Accept != "" {
		req.Header.Set("Accept", r.Accept)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ClassifyNetworkError(err, target)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, ClassifyHTTPStatus(resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, ClassifyNetworkError(fmt.Errorf("read body: %w", err), target)
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
		URL:         target,
	}, nil
}

// BuildURL merges query into raw, keeping any parameters already present.
func BuildURL(raw string, query url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}

	if len(query) == 0 {
		return u.String(), nil
	}

	q := u.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
