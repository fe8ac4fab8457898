package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/AngelCh415/agency-ops/internal/utils"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &http.Client{Timeout: timeout}
}

// ClientOptions configures a Client.
type ClientOptions struct {
	BaseURL    string
	APIKey     string
	RatePerSec float64 // <= 0 disables limiting
	Retries    int
	RetryBase  time.Duration
}

// Client reads collections from the backend REST API. It is safe for
// concurrent use; all requests share one rate limiter.
type Client struct {
	httpc   HTTPClient
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	backoff utils.Backoff
}

func NewClient(httpc HTTPClient, opts ClientOptions) *Client {
	lim := rate.NewLimiter(rate.Inf, 1)
	if opts.RatePerSec > 0 {
		lim = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 200 * time.Millisecond
	}
	return &Client{
		httpc:   httpc,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		limiter: lim,
		backoff: utils.NewBackoff(opts.RetryBase, opts.Retries),
	}
}

// Fetch decodes the JSON array stored under collection into dst.
// 429 and 5xx responses and transport errors are retried; other non-2xx
// responses fail immediately.
func (c *Client) Fetch(ctx context.Context, collection string, dst any) error {
	if c.baseURL == "" {
		return eris.New("ingest: backend base url not configured")
	}
	url := c.baseURL + "/" + collection + "?select=*"
	err := c.backoff.Do(ctx, func(int) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return utils.Permanent(err)
		}
		return c.getJSON(ctx, url, dst)
	})
	return eris.Wrapf(err, "ingest: fetch %s", collection)
}

func (c *Client) getJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return utils.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return utils.Permanent(ctx.Err())
		}
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("non-2xx: %d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return err
		}
		return utils.Permanent(err)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return utils.Permanent(err)
	}
	return nil
}
