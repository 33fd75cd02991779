package util

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"jobhunt-ingest/internal/scrape/types"
)

const DefaultUserAgent = "JobHunt/1.0 (+local)"

// Client is the HTTP plumbing shared by all board adapters. Requests wait on
// the per-host limiter; non-2xx answers come back as *types.StatusError.
type Client struct {
	hc        *http.Client
	limiter   *HostLimiter
	userAgent string
}

func NewClient(hc *http.Client, limiter *HostLimiter, userAgent string) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{hc: hc, limiter: limiter, userAgent: userAgent}
}

// Get issues a GET and returns the response only for 2xx statuses.
// The caller closes the body.
func (c *Client) Get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	return c.do(ctx, req)
}

// PostJSON sends body as JSON and decodes a 2xx answer into v. Extra headers
// are set verbatim.
func (c *Client) PostJSON(ctx context.Context, rawURL string, body, v any, header http.Header) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vals := range header {
		for _, val := range vals {
			req.Header.Add(k, val)
		}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	res, err := c.do(ctx, req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)

	rawURL := req.URL.String()
	if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
		return nil, err
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		_ = res.Body.Close()
		return nil, &types.StatusError{URL: rawURL, Code: res.StatusCode}
	}
	return res, nil
}

func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	res, err := c.Get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

func (c *Client) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	res, err := c.Get(ctx, rawURL, "text/html")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	return goquery.NewDocumentFromReader(res.Body)
}
