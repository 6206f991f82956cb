package wikipedia

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"timelines/internal/logging"
	"timelines/internal/services"
)

const (
	defaultTimeout         = 20 * time.Second
	defaultMaxConcurrent   = 4
	defaultRetryAttempts   = 4
	defaultInitialBackoff  = 500 * time.Millisecond
	defaultMaxBackoff      = 8 * time.Second
	maxResponseBytes       = 16 << 20
	defaultBaseURL         = "https://en.wikipedia.org"
	defaultUserAgentString = "timelines/0.1"
)

// PageCache stores fetched page HTML by title.
type PageCache interface {
	GetPage(ctx context.Context, title string) (string, bool, error)
	PutPage(ctx context.Context, title, html string) error
}

// FetchObserver receives one call per completed fetch. kind is "page",
// "api" or "cache"; result is "ok", "not_found", "error" or "hit".
type FetchObserver interface {
	ObserveFetch(kind, result string, elapsed time.Duration)
}

// Config captures the HTTP settings shared by page and API requests.
type Config struct {
	BaseURL               string
	UserAgent             string
	Timeout               time.Duration
	MaxConcurrentRequests int
	RequestsPerSecond     float64
	RetryAttempts         int
	InitialBackoff        time.Duration
	MaxBackoff            time.Duration
}

// HTTPError is a non-2xx response.
type HTTPError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("wikipedia: http %d for %s: %s", e.StatusCode, e.URL, body)
}

func (e *HTTPError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return services.ErrNotFound
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= http.StatusInternalServerError:
		return services.ErrTransient
	default:
		return services.ErrFetch
	}
}

// Client fetches pages from a MediaWiki site. It is safe for concurrent use;
// every request made through it shares one limiter and one in-flight cap.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	inflight   *semaphore.Weighted
	group      singleflight.Group
	cache      PageCache
	observer   FetchObserver
	logger     *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCache consults cache before the network and fills it after.
func WithCache(cache PageCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithObserver reports fetch outcomes, typically to metrics.
func WithObserver(observer FetchObserver) Option {
	return func(c *Client) {
		c.observer = observer
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "wikipedia")
	}
}

// NewClient constructs a client, filling zero settings with defaults.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(cfg.UserAgent) == "" {
		cfg.UserAgent = defaultUserAgentString
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxConcurrentRequests <= 0 {
		cfg.MaxConcurrentRequests = defaultMaxConcurrent
	}
	if cfg.RetryAttempts < 0 {
		cfg.RetryAttempts = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = max(defaultMaxBackoff, cfg.InitialBackoff)
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		inflight:   semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests)),
		logger:     logging.NewComponentLogger(nil, "wikipedia"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageURL returns the article URL for title.
func (c *Client) PageURL(title string) string {
	return c.cfg.BaseURL + "/wiki/" + escapeTitle(title)
}

func escapeTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}

// FetchPage returns the rendered HTML of the article title. Concurrent calls
// for the same title share one request, which runs detached from any single
// caller so that one caller cancelling does not fail the others. A missing
// article returns an error matching services.ErrNotFound.
func (c *Client) FetchPage(ctx context.Context, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", services.Wrap(services.ErrValidation, "wikipedia", "fetch page", "empty title", nil)
	}
	if err := ctx.Err(); err != nil {
		return "", services.Wrap(services.ErrFetch, "wikipedia", "fetch page", title, err)
	}
	if html, ok := c.cached(ctx, title); ok {
		return html, nil
	}

	ch := c.group.DoChan(title, func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.fetchBudget())
		defer cancel()
		started := time.Now()
		body, err := c.get(fetchCtx, c.PageURL(title))
		c.observe("page", err, time.Since(started))
		if err != nil {
			return "", err
		}
		html := string(body)
		c.store(fetchCtx, title, html)
		return html, nil
	})
	select {
	case <-ctx.Done():
		return "", services.Wrap(services.ErrFetch, "wikipedia", "fetch page", title, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", services.Wrap(services.ErrFetch, "wikipedia", "fetch page", title, res.Err)
		}
		return res.Val.(string), nil
	}
}

// fetchBudget bounds a shared fetch: every attempt may use the full request
// timeout plus the longest backoff between attempts.
func (c *Client) fetchBudget() time.Duration {
	attempts := time.Duration(c.cfg.RetryAttempts + 1)
	return attempts*c.cfg.Timeout + time.Duration(c.cfg.RetryAttempts)*c.cfg.MaxBackoff
}

func (c *Client) cached(ctx context.Context, title string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	html, ok, err := c.cache.GetPage(ctx, title)
	if err != nil {
		c.logger.Debug("page cache read failed", logging.String("title", title), logging.Error(err))
		return "", false
	}
	if ok {
		c.observe("cache", nil, 0)
	}
	return html, ok
}

func (c *Client) store(ctx context.Context, title, html string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.PutPage(ctx, title, html); err != nil {
		logging.WarnWithContext(c.logger, "page cache write failed", "page_cache_write_failed",
			logging.String("title", title),
			logging.Error(err),
			logging.String(logging.FieldImpact, "page will be fetched again next run"),
		)
	}
}

func (c *Client) observe(kind string, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	result := "ok"
	switch {
	case kind == "cache":
		result = "hit"
	case errors.Is(err, services.ErrNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	}
	c.observer.ObserveFetch(kind, result, elapsed)
}

// get performs a rate-limited GET with retries on transient failures.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.cfg.InitialBackoff
	policy.MaxInterval = c.cfg.MaxBackoff
	policy.MaxElapsedTime = 0

	var body []byte
	operation := func() error {
		var err error
		body, err = c.getOnce(ctx, endpoint)
		if err == nil {
			return nil
		}
		if !retryable(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		c.logger.Debug("retrying wikipedia request",
			logging.String("url", endpoint),
			logging.Duration("backoff", delay),
			logging.Error(err),
		)
	}
	retryPolicy := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.cfg.RetryAttempts)), ctx)
	if err := backoff.RetryNotify(operation, retryPolicy, notify); err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) getOnce(ctx context.Context, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if err := c.inflight.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.inflight.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: new request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wikipedia: http error (timeout=%s): %w", c.cfg.Timeout, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("wikipedia: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: endpoint, Body: string(body)}
	}
	return body, nil
}

func retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *HTTPError
	if errors.As(err, &statusErr) {
		return errors.Is(statusErr, services.ErrTransient) || statusErr.StatusCode == http.StatusRequestTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
