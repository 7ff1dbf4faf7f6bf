// Package almg is an HTTP client for the ALMG open data proposition search
package almg

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/logger"
)

const (
	// DefaultBaseURL is the directed proposition search endpoint
	DefaultBaseURL = "https://dadosabertos.almg.gov.br/ws/proposicoes/pesquisa/direcionada"

	defaultTimeout       = 30 * time.Second
	defaultUA            = "almgetl"
	defaultRetries       = 3
	defaultBackoffFactor = 0.3
	defaultYear          = 2023

	// maxBody caps a single page read
	maxBody = 32 << 20
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Year is the ano= filter; <=0 means 2023
	Year int

	// Retries is the total number of attempts per page; <=0 means 3
	Retries int
	// BackoffFactor seconds; the pause after attempt i is BackoffFactor*2^i
	BackoffFactor float64

	// HTTPClient overrides the default client (Timeout is then ignored)
	HTTPClient *http.Client
}

// Client fetches result pages with bounded retries
type Client struct {
	http  *http.Client
	opts  Options
	log   logger.Logger
	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewClient creates a new Client with sane defaults
func NewClient(o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = DefaultBaseURL
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Retries <= 0 {
		o.Retries = defaultRetries
	}
	if o.BackoffFactor < 0 {
		o.BackoffFactor = defaultBackoffFactor
	}
	if o.Year <= 0 {
		o.Year = defaultYear
	}
	hc := o.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: o.Timeout}
	}
	return &Client{
		http:  hc,
		opts:  o,
		log:   *logger.Named("almg"),
		now:   time.Now,
		sleep: sleepCtx,
	}
}

// Options returns the effective options after defaults
func (c *Client) Options() Options { return c.opts }

// PageURL builds the request URL for page
func (c *Client) PageURL(page int) string {
	u, err := url.Parse(c.opts.BaseURL)
	if err != nil {
		return c.opts.BaseURL
	}
	q := u.Query()
	q.Set("tp", "1000")
	q.Set("formato", "json")
	q.Set("ano", strconv.Itoa(c.opts.Year))
	q.Set("ord", "3")
	q.Set("p", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}

// Backoff returns the pause after the given zero-based failed attempt
func (c *Client) Backoff(attempt int) time.Duration {
	secs := c.opts.BackoffFactor * math.Pow(2, float64(attempt))
	return time.Duration(secs * float64(time.Second))
}

// FetchPage returns the items of page.
// Every failed attempt (transport error, non-2xx, undecodable body) is retried
// up to Retries attempts in total; after the last one the error is returned with
// ErrorCodeUnavailable or ErrorCodeTooManyRequests. A page without items is (nil, nil)
func (c *Client) FetchPage(ctx context.Context, page int) ([]Item, error) {
	target := c.PageURL(page)

	var last error
	for attempt := 0; attempt < c.opts.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := c.now()
		items, err := c.fetchOnce(ctx, target, page)
		lat := c.now().Sub(start)
		if err == nil {
			c.log.Debug().
				Int("page", page).
				Int("attempt", attempt).
				Int("items", len(items)).
				Dur("latency", lat).
				Msg("almg page fetched")
			return items, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		last = err

		if attempt == c.opts.Retries-1 {
			break
		}
		back := c.Backoff(attempt)
		c.log.Warn().
			Err(err).
			Int("page", page).
			Int("attempt", attempt).
			Dur("retry_in", back).
			Msg("almg fetch failed retrying")
		if err := c.sleep(ctx, back); err != nil {
			return nil, err
		}
	}

	code := perr.ErrorCodeUnavailable
	if perr.IsCode(last, perr.ErrorCodeTooManyRequests) {
		code = perr.ErrorCodeTooManyRequests
	}
	return nil, perr.Wrapf(last, code, "almg page %d failed after %d attempts", page, c.opts.Retries)
}

func (c *Client) fetchOnce(ctx context.Context, target string, page int) ([]Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "almg new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "almg do failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		code := perr.ErrorCodeUnavailable
		if resp.StatusCode == http.StatusTooManyRequests {
			code = perr.ErrorCodeTooManyRequests
		}
		return nil, perr.Newf(code, "almg unexpected status %d body %q", resp.StatusCode, string(body))
	}

	var env searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&env); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeJSON, "almg decode failed")
	}
	if env.Resultado == nil || len(env.Resultado.ListaItem) == 0 {
		return nil, nil
	}

	items := make([]Item, 0, len(env.Resultado.ListaItem))
	for i, raw := range env.Resultado.ListaItem {
		if string(bytes.TrimSpace(raw)) == "null" {
			continue
		}
		var it Item
		if err := json.Unmarshal(raw, &it); err != nil {
			c.log.Warn().Err(err).Int("page", page).Int("index", i).Msg("almg item is not an object; skipped")
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// sleepCtx waits d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// String renders options for startup logs
func (o Options) String() string {
	return fmt.Sprintf("base=%s year=%d retries=%d backoff=%.2fs timeout=%s", o.BaseURL, o.Year, o.Retries, o.BackoffFactor, o.Timeout)
}
