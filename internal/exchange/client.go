// Package exchange implements the HTTP client for the Binance Alpha
// public bapi endpoints: the wallet token catalog and the alpha-trade
// ticker/klines market data.
package exchange

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvth-dev/VN-Alpha-Scan/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL   = "https://www.binance.com"
	DefaultTimeout   = 15 * time.Second
	DefaultReferer   = "https://www.binance.com/"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Endpoint names accepted by the proxy surface and mapped to bapi paths.
const (
	EndpointTokenList = "token-list"
	EndpointTicker    = "ticker"
	EndpointKlines    = "klines"
)

var endpointPaths = map[string]string{
	EndpointTokenList: "/bapi/defi/v1/public/wallet-direct/buw/wallet/cex/alpha/all/token/list",
	EndpointTicker:    "/bapi/defi/v1/public/alpha-trade/ticker",
	EndpointKlines:    "/bapi/defi/v1/public/alpha-trade/klines",
}

// ErrRateLimited indicates the upstream rejected the request with 429.
// Callers treat it like any other fetch failure; no backoff is done here.
var ErrRateLimited = errors.New("exchange: rate limited")

// ErrUnknownEndpoint is returned by Raw for endpoint names outside the
// fixed proxy allowlist.
var ErrUnknownEndpoint = errors.New("exchange: unknown endpoint")

// StatusError reports a non-success HTTP status from the upstream.
type StatusError struct {
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("exchange: upstream status %d", e.Status)
}

// APIError reports a bapi envelope with a non-success code.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("exchange: api code %s: %s", e.Code, e.Message)
}

// Client calls the public bapi endpoints. It performs no retries; a
// failed request is final for that invocation.
type Client struct {
	baseURL   string
	client    *http.Client
	referer   string
	userAgent string
	logger    zerolog.Logger
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// WithBrowserHeaders sets the Referer and User-Agent sent upstream.
func WithBrowserHeaders(referer, userAgent string) Option {
	return func(c *Client) {
		c.referer = referer
		c.userAgent = userAgent
	}
}

// WithLogger sets the logger used for request-level diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a bapi client for the given base URL. An empty
// base URL selects the production endpoint.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   baseURL,
		client:    &http.Client{Timeout: DefaultTimeout},
		referer:   DefaultReferer,
		userAgent: DefaultUserAgent,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "exchange_client").Logger()
	return c
}

// TokenList retrieves the full Alpha token catalog in upstream order.
func (c *Client) TokenList(ctx context.Context) ([]domain.TokenDescriptor, error) {
	data, err := c.get(ctx, EndpointTokenList, nil)
	if err != nil {
		return nil, err
	}

	var listed []listedToken
	if err := json.Unmarshal(data, &listed); err != nil {
		return nil, fmt.Errorf("decode token list: %w", err)
	}

	tokens := make([]domain.TokenDescriptor, 0, len(listed))
	for _, t := range listed {
		tokens = append(tokens, t.descriptor())
	}
	return tokens, nil
}

// Ticker retrieves the current quote for one trading pair.
func (c *Client) Ticker(ctx context.Context, symbol string) (*domain.TickerSnapshot, error) {
	params := url.Values{"symbol": {symbol}}
	data, err := c.get(ctx, EndpointTicker, params)
	if err != nil {
		return nil, err
	}

	var ticker domain.TickerSnapshot
	if err := json.Unmarshal(data, &ticker); err != nil {
		return nil, fmt.Errorf("decode ticker: %w", err)
	}
	return &ticker, nil
}

// Klines retrieves volume buckets for one pair, ascending by open
// time. start and end are Unix ms; zero means unset.
func (c *Client) Klines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]domain.VolumeBucket, error) {
	params := url.Values{
		"symbol":   {symbol},
		"interval": {interval},
		"limit":    {strconv.Itoa(limit)},
	}
	if start > 0 {
		params.Set("startTime", strconv.FormatInt(start, 10))
	}
	if end > 0 {
		params.Set("endTime", strconv.FormatInt(end, 10))
	}

	data, err := c.get(ctx, EndpointKlines, params)
	if err != nil {
		return nil, err
	}
	return parseKlines(data)
}

// Raw performs a pass-through request for the proxy surface and
// returns the upstream status and body verbatim. The envelope is not
// interpreted; only the endpoint allowlist and transport errors apply.
func (c *Client) Raw(ctx context.Context, endpoint string, params url.Values) (int, []byte, error) {
	path, ok := endpointPaths[endpoint]
	if !ok {
		return 0, nil, ErrUnknownEndpoint
	}

	body, status, err := c.do(ctx, path, params)
	if err != nil {
		return status, nil, err
	}
	return status, body, nil
}

// get performs a request against a named endpoint and unwraps the
// bapi envelope.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	body, status, err := c.do(ctx, endpointPaths[endpoint], params)
	if err != nil {
		return nil, err
	}
	if status == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if status != http.StatusOK {
		return nil, &StatusError{Status: status}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.Code != codeOK {
		return nil, &APIError{Code: env.Code, Message: env.Message}
	}
	return env.Data, nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, int, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = path
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Referer", c.referer)
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("upstream request")

	return body, resp.StatusCode, nil
}
