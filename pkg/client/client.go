// Package client provides the HTTP client for the UK Parliament petitions API
// with response caching, back-off handling and retries.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/Sternrassler/uk-petitions/pkg/cache"
	"github.com/Sternrassler/uk-petitions/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the public petitions site.
const DefaultBaseURL = "https://petition.parliament.uk"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petitions_requests_total",
		Help: "Total petitions API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "petitions_request_duration_seconds",
		Help:    "Petitions API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "petitions_errors_total",
		Help: "Total petitions API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"
)

var petitionDetailPath = regexp.MustCompile(`^/petitions/\d+\.json$`)

// Client talks to the petitions API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	backoff    *ratelimit.Tracker
	cache      *cache.Manager
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the petitions site, e.g. "https://petition.parliament.uk"
	BaseURL string

	// User-Agent header sent with every request
	UserAgent string

	// Timeout per HTTP attempt
	Timeout time.Duration

	// Redis client for the response cache and shared back-off state.
	// Optional: without it nothing is cached and back-off is kept in memory.
	Redis *redis.Client

	// Retry
	MaxRetries     int
	InitialBackoff time.Duration
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(redis *redis.Client, userAgent string) Config {
	return Config{
		BaseURL:        DefaultBaseURL,
		UserAgent:      userAgent,
		Timeout:        30 * time.Second,
		Redis:          redis,
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
	}
}

// New creates a new petitions API client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be > 0 (got %s)", cfg.Timeout)
	}

	if cfg.MaxRetries < 1 {
		return nil, fmt.Errorf("max_retries must be >= 1 (got %d)", cfg.MaxRetries)
	}

	logger := log.With().Str("component", "petitions-client").Logger()

	var cacheManager *cache.Manager
	if cfg.Redis != nil {
		cacheManager, err = cache.NewManager(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("create cache manager: %w", err)
		}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		backoff: ratelimit.NewTracker(cfg.Redis, logger),
		cache:   cacheManager,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do performs an HTTP request. It waits out any back-off window, turns a
// cached response into a conditional request, retries server, rate-limit and
// network failures, serves 304 answers from the cache and caches 200 answers.
// 4xx answers other than 429 are returned to the caller unchanged.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	endpoint := endpointLabel(req.URL.Path)

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if err := c.backoff.Wait(ctx); err != nil {
		requestsTotal.WithLabelValues(endpoint, "backoff_cancelled").Inc()
		return nil, fmt.Errorf("wait for back-off: %w", err)
	}

	cacheKey := cache.NewKey(req.URL)
	var cachedEntry *cache.Entry
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			cachedEntry = entry
		case !errors.Is(err, cache.ErrCacheMiss):
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	if cache.ShouldMakeConditionalRequest(cachedEntry) {
		cache.AddConditionalHeaders(req, cachedEntry)
		cache.ConditionalRequestsSent.Inc()
		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("etag", cachedEntry.ETag).
			Msg("Making conditional request")
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("url", req.URL.String()).
		Str("method", req.Method).
		Msg("Executing petitions API request")

	var resp *http.Response
	retryErr := retryWithBackoff(ctx, c.retryConfig(), c.logger, func() (ErrorClass, error) {
		if err := c.backoff.Wait(ctx); err != nil {
			return "", err
		}

		r, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
			errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			return ErrorClassNetwork, &APIError{
				ErrorClass: ErrorClassNetwork,
				Endpoint:   req.URL.Path,
				Message:    "request failed",
				Err:        err,
			}
		}

		if err := c.backoff.UpdateFromResponse(ctx, r); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to record back-off window")
		}

		if r.StatusCode >= 400 {
			errClass := classifyStatus(r.StatusCode)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(r.StatusCode)).Inc()

			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("status", r.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Petitions API request error")

			if shouldRetry(errClass) {
				_, _ = io.Copy(io.Discard, r.Body)
				r.Body.Close()
				return errClass, &APIError{
					StatusCode: r.StatusCode,
					ErrorClass: errClass,
					Endpoint:   req.URL.Path,
					Message:    r.Status,
				}
			}
		} else {
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(r.StatusCode)).Inc()
		}

		resp = r
		return "", nil
	})
	if retryErr != nil {
		return nil, retryErr
	}

	if resp.StatusCode == http.StatusNotModified {
		resp.Body.Close()
		if cachedEntry == nil {
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				ErrorClass: ErrorClassClient,
				Endpoint:   req.URL.Path,
				Message:    "not modified but no cached response",
			}
		}

		c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified - using cache")
		cache.NotModifiedResponses.Inc()

		if _, err := c.cache.Refresh(ctx, cacheKey, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to refresh cache entry")
		}
		return cache.EntryToResponse(cachedEntry), nil
	}

	if resp.StatusCode == http.StatusOK && c.cache != nil {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("read response: %w", err)
		}
		if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		} else {
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("ttl", entry.TTL()).
				Msg("Cached response")
		}
	}

	return resp, nil
}

func (c *Client) retryConfig() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = c.config.MaxRetries
	if c.config.InitialBackoff > 0 {
		cfg.InitialBackoff = c.config.InitialBackoff
	}
	return cfg
}

// classifyStatus categorizes an HTTP error status.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// endpointLabel keeps metric cardinality bounded by folding petition ids.
func endpointLabel(path string) string {
	if petitionDetailPath.MatchString(path) {
		return "/petitions/{id}.json"
	}
	return path
}

// Get performs a GET request. path is resolved against the base URL and may
// carry a query string.
func (c *Client) Get(ctx context.Context, path string) (*http.Response, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.ResolveReference(ref).String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// GetJSON fetches path and decodes the JSON body into v. Any status other
// than 200 is returned as an *APIError.
func (c *Client) GetJSON(ctx context.Context, path string, v any) error {
	resp, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: classifyStatus(resp.StatusCode),
			Endpoint:   path,
			Message:    http.StatusText(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
