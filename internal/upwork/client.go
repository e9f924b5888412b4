// Package upwork scrapes job postings from Upwork's search and find-work
// pages. The scanner treats every failure here as "no data this cycle", so
// the exported fetch methods never return errors — they log and hand back an
// empty slice instead.
package upwork

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/warnigo/upwork-job-notifier-bot/internal/config"
	"github.com/warnigo/upwork-job-notifier-bot/internal/model"
	"github.com/warnigo/upwork-job-notifier-bot/internal/ratelimit"
	"github.com/warnigo/upwork-job-notifier-bot/internal/retry"
)

// Endpoint names used for rate limiting.
const (
	endpointSearch      = "search"
	endpointBestMatches = "best-matches"
	endpointMostRecent  = "most-recent"
)

// SessionProvider resolves a user's saved Upwork session. The find-work
// feeds are account-scoped and require the session cookies.
type SessionProvider interface {
	Session(userID string) (cookies string, connected bool, err error)
}

// Ensure Client implements model.PostingSource.
var _ model.PostingSource = (*Client)(nil)

// Client fetches and extracts postings from Upwork pages.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	sessions  SessionProvider
	limiter   *ratelimit.EndpointLimiter
	retrier   *retry.Fetcher
	timeout   time.Duration
	logger    *slog.Logger
}

// NewClient creates a scraping client. The limiter is shared across all
// fetches so concurrent per-user scans stay polite to the same endpoints.
func NewClient(cfg config.UpworkConfig, sessions SessionProvider, limiter *ratelimit.EndpointLimiter, httpClient *http.Client, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		client:    httpClient,
		sessions:  sessions,
		limiter:   limiter,
		retrier:   retry.NewFetcher(2, 5*time.Second, logger),
		timeout:   cfg.FetchTimeout,
		logger:    logger,
	}
}

// Search fetches postings for a keyword search, newest first. Postings whose
// title+description contain any exclude keyword are dropped at extraction,
// mirroring what the search results page cannot do server-side.
func (c *Client) Search(ctx context.Context, keywords, excludeKeywords string) []model.Posting {
	params := url.Values{}
	params.Set("q", keywords)
	params.Set("sort", "recency")
	pageURL := fmt.Sprintf("%s/nx/jobs/search/?%s", c.baseURL, params.Encode())

	body, err := c.fetchPage(ctx, endpointSearch, pageURL, "")
	if err != nil {
		c.logger.Warn("search fetch failed", "keywords", keywords, "error", err)
		return nil
	}
	return c.extract(body, excludeKeywords)
}

// BestMatches fetches the account-scoped best-matches feed for a connected
// user. Returns nothing when the user has no saved session.
func (c *Client) BestMatches(ctx context.Context, userID string) []model.Posting {
	return c.findWork(ctx, endpointBestMatches, "/nx/find-work/best-matches", userID)
}

// MostRecent fetches the account-scoped most-recent feed for a connected user.
func (c *Client) MostRecent(ctx context.Context, userID string) []model.Posting {
	return c.findWork(ctx, endpointMostRecent, "/nx/find-work/most-recent", userID)
}

func (c *Client) findWork(ctx context.Context, endpoint, path, userID string) []model.Posting {
	cookies, connected, err := c.sessions.Session(userID)
	if err != nil {
		c.logger.Warn("session lookup failed", "user", userID, "error", err)
		return nil
	}
	if !connected || cookies == "" {
		c.logger.Warn("user not connected to upwork", "user", userID, "feed", endpoint)
		return nil
	}

	body, err := c.fetchPage(ctx, endpoint, c.baseURL+path, cookies)
	if err != nil {
		c.logger.Warn("feed fetch failed", "user", userID, "feed", endpoint, "error", err)
		return nil
	}
	return c.extract(body, "")
}

// fetchPage applies rate limiting, a per-request timeout, and retry with
// backoff around a single page download.
func (c *Client) fetchPage(ctx context.Context, endpoint, pageURL, cookies string) ([]byte, error) {
	if err := c.limiter.Wait(ctx, endpoint); err != nil {
		return nil, err
	}

	return c.retrier.Fetch(ctx, func(ctx context.Context) ([]byte, error) {
		reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, fmt.Errorf("building request for %s: %w", endpoint, err)
		}
		req.Header.Set("User-Agent", c.userAgent)
		if cookies != "" {
			req.Header.Set("Cookie", cookies)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching %s: %w", endpoint, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, &model.HTTPError{
				StatusCode: resp.StatusCode,
				RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			}
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading %s response: %w", endpoint, err)
		}
		return body, nil
	})
}
