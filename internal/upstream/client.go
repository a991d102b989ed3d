// Package upstream provides the client for the profile scraping service.
package upstream

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

const (
	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default rate limit (requests per second).
	DefaultRateLimit = 5

	dispatchPath = "/scrape"
	statusPath   = "/status/"
)

// Client talks to the scraping service. One instance is shared by every
// concurrent pipeline; the rate limiter paces dispatch and poll calls
// across all of them.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	http       *resty.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

var _ interfaces.ScrapeClient = (*Client)(nil)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithTimeout sets a custom HTTP timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets a custom rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// NewClient creates a new scraping service client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient != nil {
		c.http = resty.NewWithClient(c.httpClient)
	} else {
		c.http = resty.New()
	}
	c.http.SetBaseURL(c.baseURL)
	c.http.SetTimeout(c.timeout)
	c.http.SetHeader("Accept", "application/json")

	return c
}

// APIError represents an error response from the scraping service.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scrape API error: %s (status %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsClientError reports whether the service rejected the request outright
// (4xx). The poller treats these as permanent and stops retrying.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// NormalizeSessionID strips the surrounding quotes and the provider's
// "ajax:" prefix that session cookies carry in exported form.
func NormalizeSessionID(raw string) string {
	token := strings.TrimSpace(raw)
	token = strings.Trim(token, `"`)
	return strings.TrimPrefix(token, "ajax:")
}

// Dispatch submits one batch of profile identifiers under the account's
// session. Returns the service-assigned batch handle.
func (c *Client) Dispatch(ctx context.Context, account *models.Account, items []string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit exceeded: %w", err)
	}

	payload := models.DispatchPayload{
		SessionID:  NormalizeSessionID(account.Tokens.SessionID),
		AuthToken:  account.Tokens.AuthToken,
		ProfileIDs: items,
		Proxy:      account.Proxy,
	}

	if c.logger != nil {
		c.logger.Debug().
			Str("account", account.Label()).
			Int("items", len(items)).
			Msg("Dispatching batch")
	}

	var out models.DispatchResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&out).
		Post(dispatchPath)
	if err != nil {
		return "", fmt.Errorf("failed to execute dispatch request: %w", err)
	}

	if res.IsError() {
		return "", &APIError{
			StatusCode: res.StatusCode(),
			Message:    strings.TrimSpace(string(res.Body())),
			Endpoint:   dispatchPath,
		}
	}

	if out.BatchID == "" {
		return "", fmt.Errorf("dispatch response missing batch_id")
	}

	return out.BatchID, nil
}

// Status fetches the current state of a dispatched batch.
func (c *Client) Status(ctx context.Context, batchID string) (*models.BatchStatusResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit exceeded: %w", err)
	}

	path := statusPath + batchID

	var out models.BatchStatusResponse
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		Get(path)
	if err != nil {
		return nil, fmt.Errorf("failed to execute status request: %w", err)
	}

	if res.IsError() {
		return nil, &APIError{
			StatusCode: res.StatusCode(),
			Message:    strings.TrimSpace(string(res.Body())),
			Endpoint:   path,
		}
	}

	return &out, nil
}
