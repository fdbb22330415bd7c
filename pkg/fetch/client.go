package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"IPOPulse/pkg/logger"
)

// browserHeaders is the fixed header set applied to every outbound
// request so trivially configured blocks don't reject us.
var browserHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
	"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8",
	"Accept-Language": "en-US,en;q=0.5",
}

// ClientOption configures Client.
type ClientOption func(*Client)

// Client issues structured (JSON) and document (HTML) GETs under a
// shared retry contract: up to Retries retries with a linearly growing
// delay of attempt × BaseBackoff, one timeout per attempt, the last
// attempt's error surfaced to the caller.
type Client struct {
	http        *http.Client
	timeout     time.Duration
	retries     int
	baseBackoff time.Duration
	log         *logger.Logger

	// onAttempt, when set, observes every attempt (metrics hook).
	onAttempt func(attempt int)
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:     30 * time.Second,
		retries:     2,
		baseBackoff: time.Second,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// The attempt deadline is enforced per request context, so the
	// transport itself carries no timeout.
	c.http = &http.Client{}
	return c
}

func WithTimeout(d time.Duration) ClientOption  { return func(c *Client) { c.timeout = d } }
func WithRetries(n int) ClientOption            { return func(c *Client) { c.retries = n } }
func WithBackoff(d time.Duration) ClientOption  { return func(c *Client) { c.baseBackoff = d } }
func WithLogger(l *logger.Logger) ClientOption  { return func(c *Client) { c.log = l } }
func WithAttemptHook(fn func(int)) ClientOption { return func(c *Client) { c.onAttempt = fn } }

// GetJSON fetches url and decodes the JSON payload into dest.
func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, dest interface{}) error {
	body, err := c.get(ctx, url, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode json from %s: %w", url, err)
	}
	return nil
}

// GetDocument fetches url and parses the markup into a goquery document.
func (c *Client) GetDocument(ctx context.Context, url string, headers map[string]string) (*goquery.Document, error) {
	body, err := c.get(ctx, url, headers)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse document from %s: %w", url, err)
	}
	return doc, nil
}

func (c *Client) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var body []byte
	err := c.Retry(ctx, url, func(actx context.Context) error {
		b, err := c.attempt(actx, url, headers)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	return body, err
}

// Retry runs fn under the client's retry contract. Exposed so the
// rendered-fetch primitive shares the exact same behavior.
func (c *Client) Retry(ctx context.Context, target string, fn func(ctx context.Context) error) error {
	var lastErr error
	attempts := c.retries + 1
	for attempt := 1; attempt <= attempts; attempt++ {
		if c.onAttempt != nil {
			c.onAttempt(attempt)
		}

		actx, cancel := context.WithTimeout(ctx, c.timeout)
		err := fn(actx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
		c.log.Warn("fetch attempt failed",
			logger.String("url", target),
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", attempts),
			logger.Error(err),
		)

		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * c.baseBackoff):
		}
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
