// Package timeapi fetches the authoritative current time for a zone from a
// timeapi.io-compatible service.
package timeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/aatuh/radioclock/logzap"
	"github.com/aatuh/radioclock/ports"
	"github.com/aatuh/radioclock/timestamp"
	"github.com/aatuh/radioclock/validation"
	"github.com/sethvargo/go-retry"
)

const (
	currentZonePath = "api/time/current/zone"
	maxBodyBytes    = 64 << 10
)

// Client is the time source adapter. It never caches; every Fetch is a
// fresh round trip.
type Client struct {
	base      *url.URL
	http      *http.Client
	log       ports.Logger
	validator ports.Validator
	timeout   time.Duration
	retries   uint64
	retryBase time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithLogger sets the logger.
func WithLogger(l ports.Logger) Option { return func(c *Client) { c.log = l } }

// WithValidator sets the validator used on response bodies.
func WithValidator(v ports.Validator) Option { return func(c *Client) { c.validator = v } }

// WithTimeout bounds each attempt. Zero means no per-attempt deadline.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.timeout = d } }

// WithRetry retries network errors up to n times with exponential backoff
// starting at base. Parse errors are never retried. n == 0 disables retry.
func WithRetry(n int, base time.Duration) Option {
	return func(c *Client) {
		if n < 0 {
			n = 0
		}
		if base <= 0 {
			base = 200 * time.Millisecond
		}
		c.retries = uint64(n)
		c.retryBase = base
	}
}

// New builds a client for the service at baseURL (scheme and host, e.g.
// "https://timeapi.io").
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q needs scheme and host", baseURL)
	}
	c := &Client{
		base: u,
		http: http.DefaultClient,
		log:  logzap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.validator == nil {
		c.validator = validation.New()
	}
	return c, nil
}

// Fetch returns the service's current time for zone, attached to zone.
// Errors are *NetworkError or *ParseError.
func (c *Client) Fetch(ctx context.Context, zone string) (timestamp.Timestamp, error) {
	if c.retries == 0 {
		return c.fetchOnce(ctx, zone)
	}

	var ts timestamp.Timestamp
	b := retry.WithMaxRetries(c.retries, retry.NewExponential(c.retryBase))
	attempt := 0
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		var err error
		ts, err = c.fetchOnce(ctx, zone)
		if errors.Is(err, ErrNetwork) && ctx.Err() == nil {
			c.log.Warn("time service fetch failed, retrying", "zone", zone, "attempt", attempt, "err", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		var ne *NetworkError
		var pe *ParseError
		if !errors.As(err, &ne) && !errors.As(err, &pe) {
			err = &NetworkError{Zone: zone, Err: err}
		}
		return timestamp.Timestamp{}, err
	}
	return ts, nil
}

func (c *Client) fetchOnce(ctx context.Context, zone string) (timestamp.Timestamp, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := c.base.JoinPath(currentZonePath)
	u.RawQuery = url.Values{"timeZone": {zone}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return timestamp.Timestamp{}, &NetworkError{Zone: zone, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return timestamp.Timestamp{}, &NetworkError{Zone: zone, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("time service responded",
		"zone", zone,
		"status", resp.StatusCode,
		"dur_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return timestamp.Timestamp{}, &NetworkError{
			Zone:   zone,
			Status: resp.StatusCode,
			Err:    errors.New(http.StatusText(resp.StatusCode)),
		}
	}

	var body currentTimeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		if ctx.Err() != nil {
			return timestamp.Timestamp{}, &NetworkError{Zone: zone, Err: err}
		}
		return timestamp.Timestamp{}, &ParseError{Zone: zone, Err: fmt.Errorf("decode body: %w", err)}
	}
	if err := c.validator.ValidateStruct(ctx, body); err != nil {
		return timestamp.Timestamp{}, &ParseError{Zone: zone, Err: err}
	}

	if body.TimeZone != zone {
		c.log.Warn("time service answered for a different zone",
			"requested", zone,
			"answered", body.TimeZone,
		)
	}

	ts, err := timestamp.New(timestamp.Fields{
		Year:        *body.Year,
		Month:       *body.Month,
		Day:         *body.Day,
		Hour:        *body.Hour,
		Minute:      *body.Minute,
		Second:      *body.Seconds,
		Millisecond: *body.MilliSeconds,
	}, zone)
	if err != nil {
		return timestamp.Timestamp{}, &ParseError{Zone: zone, Err: err}
	}
	return ts, nil
}
