package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jonwraymond/memostore/observe"
	"github.com/jonwraymond/memostore/resilience"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"

	// DefaultUserAgent identifies requests made by this module.
	DefaultUserAgent = "ghactivity"

	maxBodyBytes = 8 << 20
)

// Client fetches user event feeds.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Context: requests honor cancellation; retries stop when ctx is done.
// - Errors: non-2xx statuses are *StatusError; a 2xx body that is not a
// JSON array is ErrUnexpectedPayload.
type Client struct {
	baseURL    *url.URL
	token      string
	userAgent  string
	httpClient *http.Client
	executor   *resilience.Executor
	middleware *observe.Middleware
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at a different API root.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		u, err := url.Parse(strings.TrimRight(raw, "/"))
		if err != nil {
			return fmt.Errorf("github: parse base url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("github: base url %q must be http or https", raw)
		}
		c.baseURL = u
		return nil
	}
}

// WithToken sends token as a bearer credential.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = strings.TrimSpace(token)
		return nil
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc != nil {
			c.httpClient = hc
		}
		return nil
	}
}

// WithExecutor sets the retry and timeout wrapper for each fetch.
func WithExecutor(e *resilience.Executor) Option {
	return func(c *Client) error {
		if e != nil {
			c.executor = e
		}
		return nil
	}
}

// WithMiddleware instruments each fetch.
func WithMiddleware(m *observe.Middleware) Option {
	return func(c *Client) error {
		if m != nil {
			c.middleware = m
		}
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if ua != "" {
			c.userAgent = ua
		}
		return nil
	}
}

// NewClient creates a Client.
func NewClient(opts ...Option) (*Client, error) {
	base, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		baseURL:    base,
		userAgent:  DefaultUserAgent,
		httpClient: &http.Client{},
		executor:   resilience.NewExecutor(),
		middleware: observe.NewMiddleware(nil, nil, nil),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DefaultRetryIf retries transport failures, 5xx and rate limiting. It never
// retries cancellation, a missing user, or other client errors.
func DefaultRetryIf(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, ErrUnexpectedPayload)
}

// NewRetryExecutor builds the executor used by the CLI: up to attempts
// tries, each bounded by timeout.
func NewRetryExecutor(attempts int, timeout time.Duration, onRetry func(int, error, time.Duration)) *resilience.Executor {
	return resilience.NewExecutor(
		resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{
			MaxAttempts:  attempts,
			InitialDelay: 250 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Jitter:       true,
			RetryIf:      DefaultRetryIf,
			OnRetry:      onRetry,
		})),
		resilience.WithTimeout(timeout),
	)
}

// EventsURL returns the endpoint listing user's public events.
func (c *Client) EventsURL(user string) string {
	u := *c.baseURL
	base := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + "/users/" + user + "/events"
	u.RawPath = base + "/users/" + url.PathEscape(user) + "/events"
	return u.String()
}

// FetchEvents returns the raw JSON array of user's recent public events.
func (c *Client) FetchEvents(ctx context.Context, user string) ([]byte, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, ErrInvalidUser
	}
	endpoint := c.EventsURL(user)

	meta := observe.OpMeta{Namespace: "github", Name: "fetch_events"}
	fetch := c.middleware.Wrap(meta, func(ctx context.Context) ([]byte, error) {
		var body []byte
		err := c.executor.Execute(ctx, func(ctx context.Context) error {
			var err error
			body, err = c.get(ctx, endpoint)
			return err
		})
		if err != nil {
			return nil, err
		}
		if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsArray() {
			msg := gjson.GetBytes(body, "message").String()
			if msg == "" {
				return nil, ErrUnexpectedPayload
			}
			return nil, fmt.Errorf("%w: %s", ErrUnexpectedPayload, msg)
		}
		return body, nil
	})
	return fetch(ctx)
}

// Rate is the core API quota reported by the rate_limit endpoint.
type Rate struct {
	Limit     int64
	Remaining int64
	Reset     time.Time
}

// RateLimit reports the caller's current core quota. The endpoint does not
// count against the quota.
func (c *Client) RateLimit(ctx context.Context) (Rate, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/rate_limit"
	u.RawPath = ""
	endpoint := u.String()

	meta := observe.OpMeta{Namespace: "github", Name: "rate_limit"}
	fetch := c.middleware.Wrap(meta, func(ctx context.Context) ([]byte, error) {
		return c.get(ctx, endpoint)
	})
	body, err := fetch(ctx)
	if err != nil {
		return Rate{}, err
	}
	core := gjson.GetBytes(body, "resources.core")
	if !core.Exists() {
		core = gjson.GetBytes(body, "rate")
	}
	if !core.IsObject() {
		return Rate{}, ErrUnexpectedPayload
	}
	return Rate{
		Limit:     core.Get("limit").Int(),
		Remaining: core.Get("remaining").Int(),
		Reset:     time.Unix(core.Get("reset").Int(), 0),
	}, nil
}

func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("github: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github: failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("github: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Code:       resp.StatusCode,
			Message:    gjson.GetBytes(body, "message").String(),
			retryAfter: parseRetryAfter(resp.Header, time.Now()),
		}
	}

	return body, nil
}
