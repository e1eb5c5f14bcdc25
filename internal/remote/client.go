// Package remote reads the published prayer dataset from its PostgREST-style
// REST API and listens for change events on its realtime socket.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mrlokans/prayerbook/internal/logger"
)

const (
	restPath = "/rest/v1/"

	defaultTimeout     = 30 * time.Second
	maxRetries         = 3
	initialRetryDelay  = 1 * time.Second
	maxRetryDelay      = 30 * time.Second
	retryBackoffFactor = 2
)

// Remote table names.
const (
	TableCategories   = "categories"
	TablePrayers      = "prayers"
	TableTranslations = "prayer_translations"
	TableLanguages    = "languages"
	TableVersion      = "version"
	TablePayPal       = "paypal"
)

// Options configures a Client.
type Options struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client fetches whole tables from the remote dataset.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	retryDelay time.Duration
}

// NewClient creates a new remote dataset client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Client{
		baseURL:    strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(limit, burst),
		retryDelay: initialRetryDelay,
	}
}

func (c *Client) FetchCategories(ctx context.Context) ([]CategoryRow, error) {
	var rows []CategoryRow
	err := c.fetchTable(ctx, TableCategories, &rows)
	return rows, err
}

func (c *Client) FetchPrayers(ctx context.Context) ([]PrayerRow, error) {
	var rows []PrayerRow
	err := c.fetchTable(ctx, TablePrayers, &rows)
	return rows, err
}

func (c *Client) FetchTranslations(ctx context.Context) ([]TranslationRow, error) {
	var rows []TranslationRow
	err := c.fetchTable(ctx, TableTranslations, &rows)
	return rows, err
}

func (c *Client) FetchLanguages(ctx context.Context) ([]LanguageRow, error) {
	var rows []LanguageRow
	err := c.fetchTable(ctx, TableLanguages, &rows)
	return rows, err
}

// FetchVersion returns the published dataset version, or ErrVersionMissing
// when the table is empty or the value is blank.
func (c *Client) FetchVersion(ctx context.Context) (string, error) {
	var rows []VersionRow
	if err := c.fetchTable(ctx, TableVersion, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", ErrVersionMissing
	}
	version := strings.TrimSpace(string(rows[0].Version))
	if version == "" {
		return "", ErrVersionMissing
	}
	return version, nil
}

// FetchPayPalLink returns the donation link, or "" when none is published.
func (c *Client) FetchPayPalLink(ctx context.Context) (string, error) {
	var rows []PayPalRow
	if err := c.fetchTable(ctx, TablePayPal, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return strings.TrimSpace(rows[0].Link), nil
}

func (c *Client) fetchTable(ctx context.Context, table string, out any) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}
	u, err := url.Parse(c.baseURL + restPath + table)
	if err != nil {
		return fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("select", "*")
	u.RawQuery = q.Encode()

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.calculateRetryDelay(attempt)
			logger.Debug("retrying remote request", "table", table, "attempt", attempt, "delay", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.doRequest(ctx, u.String(), out)
		if lastErr == nil {
			return nil
		}

		// Only retry on rate limits or server errors
		if !isRetryableError(lastErr) {
			return fmt.Errorf("fetch %s: %w", table, lastErr)
		}
	}

	return fmt.Errorf("fetch %s: max retries exceeded: %w", table, lastErr)
}

func (c *Client) doRequest(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrUnauthorized
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	if resp.StatusCode >= 500 {
		return &ServerError{StatusCode: resp.StatusCode}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) calculateRetryDelay(attempt int) time.Duration {
	delay := c.retryDelay
	for i := 0; i < attempt; i++ {
		delay *= time.Duration(retryBackoffFactor)
	}
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}
	return delay
}

func isRetryableError(err error) bool {
	return errors.Is(err, ErrRateLimited) || IsServerError(err)
}
