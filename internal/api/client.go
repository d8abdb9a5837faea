// Package api talks to the team backend over REST and turns its answers
// into model values.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

const maxBody = 16 << 20

// Options configures a Client
type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// Retries is how many times a failed read is repeated.
	Retries uint64
	// Backoff is the first retry delay; later ones double.
	Backoff time.Duration
	// BreakerFailures consecutive failures open the circuit.
	BreakerFailures uint32
	// BreakerCooldown is how long an open circuit rejects calls.
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
	Log             *logrus.Logger
}

// Client is safe for concurrent use
type Client struct {
	base    *url.URL
	token   string
	http    *http.Client
	retries uint64
	backoff time.Duration
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Entry
}

// New validates opts and builds a client
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("api base URL is not set")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse api base URL")
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("api base URL %q must be http or https", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 10 * time.Second
	}
	log := opts.Log
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	entry := log.WithField("component", "api")

	failures := opts.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "teamboard-api",
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			var he *HTTPError
			if errors.As(err, &he) {
				return !he.Temporary()
			}
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			entry.Warnf("circuit breaker %s changed from %s to %s", name, from, to)
		},
	})

	return &Client{
		base:    base,
		token:   opts.Token,
		http:    hc,
		retries: opts.Retries,
		backoff: opts.Backoff,
		breaker: breaker,
		log:     entry,
	}, nil
}

// send performs one logical call. Reads are retried on transport errors and
// temporary statuses; writes are sent once.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
	}

	attempt := func(ctx context.Context) ([]byte, error) {
		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.roundTrip(ctx, method, path, query, payload)
		})
		if err != nil {
			return nil, err
		}
		return out.([]byte), nil
	}

	if method != http.MethodGet || c.retries == 0 {
		return attempt(ctx)
	}

	b := retry.WithMaxRetries(c.retries, retry.WithCappedDuration(5*time.Second, retry.NewExponential(c.backoff)))
	var body []byte
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		out, err := attempt(ctx)
		if err != nil {
			if retryable(ctx, err) {
				c.log.WithError(err).WithField("path", path).Debug("retrying read")
				return retry.RetryableError(err)
			}
			return err
		}
		body = out
		return nil
	})
	return body, err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return false
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Temporary()
	}
	return true
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	// path segments are escaped by the callers
	target := c.base.String() + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	log := c.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
	})
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return nil, errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: errorMessage(data),
			body:    data,
		}
	}
	return data, nil
}

const maxErrorRunes = 200

// errorMessage pulls a readable message out of an error body
func errorMessage(data []byte) string {
	var obj struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(data, &obj) == nil {
		for _, s := range []string{obj.Error, obj.Message, obj.Detail} {
			if s != "" {
				return s
			}
		}
	}
	msg := strings.TrimSpace(string(data))
	if r := []rune(msg); len(r) > maxErrorRunes {
		msg = string(r[:maxErrorRunes])
	}
	if strings.HasPrefix(msg, "{") || strings.HasPrefix(msg, "<") {
		return ""
	}
	return msg
}
