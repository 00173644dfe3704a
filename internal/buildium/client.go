package buildium

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/propfolio/gl-etl/internal/logger"
)

const (
	// DefaultBaseURL is the production Buildium API endpoint.
	DefaultBaseURL = "https://api.buildium.com/v1"

	// maxAttempts bounds how many times a rate-limited request is issued
	// before giving up.
	maxAttempts = 5

	// baseRetryDelay is the first backoff interval; it doubles after every
	// rate-limited attempt.
	baseRetryDelay = 2 * time.Second
)

// ClientConfig carries the settings needed to talk to the Buildium API.
type ClientConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string

	// HTTPClient and Sleep are injectable for tests. Zero values fall back
	// to a 30s-timeout client and time.Sleep.
	HTTPClient *http.Client
	Sleep      func(time.Duration)
}

// Client fetches general ledger data from the Buildium API with bounded
// exponential backoff on rate-limit responses. The backoff sleep blocks the
// calling goroutine; an in-flight wait is not cancellable.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	sleep        func(time.Duration)
}

// NewClient builds a Client from cfg, applying defaults for unset fields.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL:      cfg.BaseURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		httpClient:   cfg.HTTPClient,
		sleep:        cfg.Sleep,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if c.sleep == nil {
		c.sleep = time.Sleep
	}
	return c
}

// FetchAccounts retrieves the full chart of general ledger accounts as a raw
// JSON payload.
func (c *Client) FetchAccounts(ctx context.Context) ([]byte, error) {
	return c.get(ctx, "/glaccounts", nil)
}

// FetchTransactions retrieves the general ledger transactions touching one
// account within a date range, as a raw JSON payload. The API accepts a list
// of account ids but is queried one account at a time so participation can
// be reconstructed per account.
func (c *Client) FetchTransactions(ctx context.Context, accountID int64, startDate, endDate civil.Date) ([]byte, error) {
	if accountID == 0 {
		return nil, &InputError{Msg: "general ledger account id is required"}
	}
	if !startDate.IsValid() || !endDate.IsValid() {
		return nil, &InputError{Msg: "start and end dates are required for transaction queries"}
	}

	params := url.Values{}
	params.Set("startdate", startDate.String())
	params.Set("enddate", endDate.String())
	params.Set("glaccountids", strconv.FormatInt(accountID, 10))
	return c.get(ctx, "/generalledger/transactions", params)
}

// get issues a GET request with credential headers, retrying on HTTP 429
// with exponential backoff up to maxAttempts. Any other non-200 response
// fails immediately with a *TransportError.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	log := logger.FromContext(ctx)

	requestURL := c.baseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	delay := baseRetryDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return nil, &TransportError{URL: requestURL, Err: err}
		}
		req.Header.Set("x-buildium-client-id", c.clientID)
		req.Header.Set("x-buildium-client-secret", c.clientSecret)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, &TransportError{URL: requestURL, Err: err}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			log.Warn().
				Str("url", requestURL).
				Dur("delay", delay).
				Int("attempt", attempt).
				Msg("Rate limit exceeded, backing off before retrying")
			c.sleep(delay)
			delay *= 2
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, &TransportError{URL: requestURL, StatusCode: resp.StatusCode}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, &TransportError{URL: requestURL, Err: fmt.Errorf("reading response body: %w", err)}
		}
		return body, nil
	}

	return nil, &RetryExhaustedError{URL: requestURL, Attempts: maxAttempts}
}
