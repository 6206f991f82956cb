package captions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"timelines/internal/services"
)

const (
	defaultHTTPTimeout    = 15 * time.Second
	defaultInitialBackoff = 500 * time.Millisecond
	defaultMaxBackoff     = 8 * time.Second
)

// Config describes the timed-text client configuration. Transient failures
// (5xx, 429 and transport errors) are retried RetryAttempts times.
type Config struct {
	BaseURL        string
	Language       string
	UserAgent      string
	Timeout        time.Duration
	HTTPClient     *http.Client
	RetryAttempts  int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Client downloads caption tracks from the timed-text endpoint.
type Client struct {
	baseURL        *url.URL
	language       string
	userAgent      string
	http           *http.Client
	retryAttempts  int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// NewClient creates a Client from the supplied configuration.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		return nil, errors.New("captions: base url is required")
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("captions: parse base url: %w", err)
	}
	language := strings.TrimSpace(cfg.Language)
	if language == "" {
		language = "en"
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	initial := cfg.InitialBackoff
	if initial <= 0 {
		initial = defaultInitialBackoff
	}
	maxBackoff := cfg.MaxBackoff
	if maxBackoff < initial {
		maxBackoff = max(defaultMaxBackoff, initial)
	}
	return &Client{
		baseURL:        baseURL,
		language:       language,
		userAgent:      strings.TrimSpace(cfg.UserAgent),
		http:           client,
		retryAttempts:  max(cfg.RetryAttempts, 0),
		initialBackoff: initial,
		maxBackoff:     maxBackoff,
	}, nil
}

// Fetch downloads and parses the caption track of a video. A video without a
// track in the configured language yields services.ErrNotFound.
func (c *Client) Fetch(ctx context.Context, videoID string) ([]TimedTextChunk, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, services.Wrap(services.ErrValidation, "captions", "fetch", "video id is empty", nil)
	}
	endpoint := *c.baseURL
	query := endpoint.Query()
	query.Set("lang", c.language)
	query.Set("v", videoID)
	endpoint.RawQuery = query.Encode()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.MaxInterval = c.maxBackoff
	policy.MaxElapsedTime = 0

	var body []byte
	operation := func() error {
		var err error
		body, err = c.fetchOnce(ctx, endpoint.String(), videoID)
		if err == nil {
			return nil
		}
		if !retryable(ctx, err) {
			return backoff.Permanent(err)
		}
		return err
	}
	retryPolicy := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.retryAttempts)), ctx)
	if err := backoff.Retry(operation, retryPolicy); err != nil {
		var status *statusError
		if errors.As(err, &status) {
			return nil, services.Wrap(services.ErrFetch, "captions", "fetch",
				fmt.Sprintf("timed text returned %d for %s", status.code, videoID), nil)
		}
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "captions", "fetch", "no "+c.language+" track for "+videoID, nil)
	}
	return ParseTimedText(bytes.NewReader(body))
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("captions: http %d", e.code)
}

func (c *Client) fetchOnce(ctx context.Context, endpoint, videoID string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("captions: build request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "captions", "fetch", videoID, err)
		}
		return nil, services.Wrap(services.ErrFetch, "captions", "fetch", videoID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, services.Wrap(services.ErrNotFound, "captions", "fetch", videoID, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrFetch, "captions", "read body", videoID, err)
	}
	return body, nil
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *statusError
	if errors.As(err, &status) {
		return status.code == http.StatusTooManyRequests || status.code >= http.StatusInternalServerError
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// LoadFile parses a caption file from disk. Files ending in .srt are read as
// SRT; anything else is treated as timed-text XML.
func LoadFile(path string) ([]TimedTextChunk, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open captions: %w", err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(path), ".srt") {
		return ParseSRT(file)
	}
	return ParseTimedText(file)
}
