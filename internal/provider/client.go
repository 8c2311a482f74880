package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"smsrent/internal/logger"
)

const (
	defaultDialTimeout     = 5 * time.Second
	defaultTLSHandshake    = 5 * time.Second
	defaultIdleConnTimeout = 30 * time.Second
	maxResponseBytes       = 4 << 20
)

// Config holds the settings the client needs to reach the provider.
type Config struct {
	BaseURL string
	APIKey  string
	Lang    string
	Timeout time.Duration
}

// Client issues the provider's action-based HTTP calls. Every call carries the
// configured timeout and is surfaced as ErrUnavailable on transport failure.
// The client never retries internally: retry policy belongs to the caller, and
// RentNumber in particular must only be attempted once per user intent.
type Client struct {
	baseURL string
	apiKey  string
	lang    string
	http    *http.Client
}

// New builds a Client with a tuned transport and bounded timeout.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	lang := cfg.Lang
	if lang == "" {
		lang = "en"
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: defaultDialTimeout}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        10,
		IdleConnTimeout:     defaultIdleConnTimeout,
		TLSHandshakeTimeout: defaultTLSHandshake,
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		lang:    lang,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// call performs one GET against the provider endpoint and returns the raw body.
func (c *Client) call(ctx context.Context, action string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("action", action)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("provider request build: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.PROV.Warn("call failed",
			slog.String("event", "provider.call"),
			slog.String("op", action),
			slog.Duration("duration", logger.Took(start)),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return nil, fmt.Errorf("%w: %s: %v", ErrUnavailable, action, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrUnavailable, action, err)
	}
	if resp.StatusCode != http.StatusOK {
		logger.PROV.Warn("unexpected http status",
			slog.String("event", "provider.call"),
			slog.String("op", action),
			slog.Int("http_code", resp.StatusCode),
		)
		return nil, fmt.Errorf("%w: %s: http %d", ErrUnavailable, action, resp.StatusCode)
	}

	logger.PROV.Debug("call ok",
		slog.String("event", "provider.call"),
		slog.String("op", action),
		slog.Duration("duration", logger.Took(start)),
		slog.Int("bytes", len(body)),
	)
	return body, nil
}

// Balance returns the account balance.
func (c *Client) Balance(ctx context.Context) (decimal.Decimal, error) {
	body, err := c.call(ctx, "getBalance", nil)
	if err != nil {
		return decimal.Zero, err
	}
	reply := ParseReply(string(body))
	if reply.Marker != MarkerBalance {
		return decimal.Zero, &DomainError{Raw: reply.Raw}
	}
	amount, err := decimal.NewFromString(reply.Field(0))
	if err != nil {
		return decimal.Zero, &DomainError{Raw: reply.Raw}
	}
	return amount, nil
}

// Services returns every rentable service, fresh from the provider.
func (c *Client) Services(ctx context.Context) ([]Service, error) {
	params := url.Values{}
	params.Set("lang", c.lang)
	body, err := c.call(ctx, "getServicesList", params)
	if err != nil {
		return nil, err
	}
	return ServicesFromJSON(body), nil
}

// TopCountries returns the availability per country for a service, normalized
// from whichever payload shape the provider chose this time.
func (c *Client) TopCountries(ctx context.Context, service string) ([]CountryAvailability, error) {
	params := url.Values{}
	params.Set("service", service)
	body, err := c.call(ctx, "getTopCountriesByService", params)
	if err != nil {
		return nil, err
	}
	return TopCountriesFromJSON(body, service), nil
}

// Countries returns the country id -> name reference list.
func (c *Client) Countries(ctx context.Context) ([]Country, error) {
	body, err := c.call(ctx, "getCountries", nil)
	if err != nil {
		return nil, err
	}
	return CountriesFromJSON(body), nil
}

// RentNumber requests one number for (service, country) and returns the raw
// reply for the lifecycle layer to interpret. Never retried automatically:
// a blind retry could rent a second number and incur double cost.
func (c *Client) RentNumber(ctx context.Context, service string, countryID int) (Reply, error) {
	params := url.Values{}
	params.Set("service", service)
	params.Set("country", strconv.Itoa(countryID))
	body, err := c.call(ctx, "getNumber", params)
	if err != nil {
		return Reply{}, err
	}
	return ParseReply(string(body)), nil
}

// Status polls the activation for an incoming SMS code.
func (c *Client) Status(ctx context.Context, activationID string) (Reply, error) {
	params := url.Values{}
	params.Set("id", activationID)
	body, err := c.call(ctx, "getStatus", params)
	if err != nil {
		return Reply{}, err
	}
	return ParseReply(string(body)), nil
}

// SetStatus updates the activation status (confirm or cancel). The endpoint is
// idempotent for a given (id, status) pair, so caller-side retries are safe.
func (c *Client) SetStatus(ctx context.Context, activationID string, status int) (Reply, error) {
	params := url.Values{}
	params.Set("id", activationID)
	params.Set("status", strconv.Itoa(status))
	body, err := c.call(ctx, "setStatus", params)
	if err != nil {
		return Reply{}, err
	}
	return ParseReply(string(body)), nil
}

// ActiveActivations lists rentals the provider still considers in flight.
// This is the system of record after a process restart.
func (c *Client) ActiveActivations(ctx context.Context) ([]ActiveActivation, error) {
	body, err := c.call(ctx, "getActiveActivations", nil)
	if err != nil {
		return nil, err
	}
	return ActiveActivationsFromJSON(body), nil
}

// HistoryOptions bounds a history query.
type HistoryOptions struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

// History returns finished rentals within the requested window.
func (c *Client) History(ctx context.Context, opts HistoryOptions) ([]HistoryEntry, error) {
	params := url.Values{}
	if !opts.Start.IsZero() {
		params.Set("start", strconv.FormatInt(opts.Start.Unix(), 10))
	}
	if !opts.End.IsZero() {
		params.Set("end", strconv.FormatInt(opts.End.Unix(), 10))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		params.Set("offset", strconv.Itoa(opts.Offset))
	}
	body, err := c.call(ctx, "getHistory", params)
	if err != nil {
		return nil, err
	}
	return HistoryFromJSON(body), nil
}
