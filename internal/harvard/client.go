package harvard

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/artifact-explorer/artifact-explorer/internal/errors"
	"github.com/artifact-explorer/artifact-explorer/internal/httpclient"
	"github.com/artifact-explorer/artifact-explorer/internal/logger"
	"github.com/artifact-explorer/artifact-explorer/internal/observability/metrics"
)

// PageSize is the number of records requested per page, the API maximum.
const PageSize = 100

// Client fetches artifact records from the object API.
type Client struct {
	config   Config
	http     *httpclient.Client
	cache    *cache.Cache // nil when caching is disabled
	limiter  *rate.Limiter
	recorder metrics.Recorder

	firstCallOnce sync.Once
}

// NewClient creates a new object API client. A missing API key is a
// configuration error.
func NewClient(config Config, hc *httpclient.Client) (*Client, error) {
	if config.APIKey == "" {
		return nil, errors.Newf("harvard API key is required").
			Category(errors.CategoryConfiguration).
			Component("harvard").
			Build()
	}

	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	u, err := url.Parse(config.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Newf("invalid harvard base URL %q", config.BaseURL).
			Category(errors.CategoryConfiguration).
			Component("harvard").
			Build()
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	if hc == nil {
		hc = httpclient.New(nil)
	}

	limit := rate.Inf
	if config.RateLimitMS > 0 {
		limit = rate.Every(time.Duration(config.RateLimitMS) * time.Millisecond)
	}

	client := &Client{
		config:   config,
		http:     hc,
		limiter:  rate.NewLimiter(limit, 1),
		recorder: metrics.NoOpRecorder{},
	}
	if config.CacheTTL > 0 {
		client.cache = cache.New(config.CacheTTL, config.CacheTTL*2)
	}

	getLogger().Info("harvard client initialized",
		logger.String("base_url", config.BaseURL),
		logger.Duration("cache_ttl", config.CacheTTL),
		logger.Int("rate_limit_ms", config.RateLimitMS))

	return client, nil
}

// SetRecorder sets the metrics recorder. A nil recorder disables metrics.
func (c *Client) SetRecorder(r metrics.Recorder) {
	c.recorder = metrics.OrNoOp(r)
}

// FetchByClassification requests pages 1..maxPages of the given
// classification sequentially and returns the records in page order.
//
// Every page in the range is requested, even past the end of the catalog
// where the source answers with empty pages. Any failed page aborts the
// whole fetch: the result is nil and the error wraps ErrFetchFailed.
func (c *Client) FetchByClassification(ctx context.Context, classification string, maxPages int) ([]Record, error) {
	if maxPages <= 0 {
		return nil, errors.Newf("pages must be positive, got %d", maxPages).
			Category(errors.CategoryValidation).
			Component("harvard").
			Build()
	}

	log := getLogger().WithContext(ctx)
	if classification == "" {
		log.Warn("empty classification, the catalog returns every classification")
	}

	key := c.cacheKey(classification, maxPages)
	if c.cache != nil {
		if cached, found := c.cache.Get(key); found {
			if records, ok := cached.([]Record); ok {
				c.recorder.RecordFetchCache(true)
				log.Debug("fetch cache hit",
					logger.String("classification", classification),
					logger.Int("records", len(records)))
				return slices.Clone(records), nil
			}
		}
		c.recorder.RecordFetchCache(false)
	}

	start := time.Now()
	var records []Record
	for pageNum := 1; pageNum <= maxPages; pageNum++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.fetchError(err, classification, pageNum, errors.CategoryCancellation)
		}

		p, err := c.fetchPage(ctx, classification, pageNum)
		if err != nil {
			log.Warn("catalog fetch aborted",
				logger.String("classification", classification),
				logger.Int("page", pageNum),
				logger.Int("discarded_records", len(records)),
				logger.Error(err))
			return nil, err
		}
		records = append(records, p.records...)

		if p.pages > 0 && int64(pageNum) > p.pages {
			log.Debug("page beyond source page count",
				logger.String("classification", classification),
				logger.Int("page", pageNum),
				logger.Int64("source_pages", p.pages))
		}
	}

	log.Info("catalog fetch completed",
		logger.String("classification", classification),
		logger.Int("records", len(records)),
		logger.Duration("duration", time.Since(start)))

	if c.cache != nil {
		c.cache.Set(key, slices.Clone(records), cache.DefaultExpiration)
	}
	return records, nil
}

// fetchPage performs one page request. Every returned error wraps ErrFetchFailed.
func (c *Client) fetchPage(ctx context.Context, classification string, pageNum int) (page, error) {
	reqURL := c.pageURL(classification, pageNum)

	start := time.Now()
	resp, body, err := c.http.Get(ctx, reqURL, http.Header{"Accept": []string{"application/json"}})
	elapsed := time.Since(start)
	if err != nil {
		c.recorder.RecordPageFetch(metrics.StatusError, elapsed)
		category := errors.CategoryNetwork
		if ctx.Err() != nil {
			category = errors.CategoryCancellation
		}
		return page{}, c.fetchError(err, classification, pageNum, category)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		c.recorder.RecordPageFetch(metrics.StatusError, elapsed)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			getLogger().Error("harvard API rejected the API key",
				logger.Int("status_code", resp.StatusCode),
				logger.Bool("has_api_key", c.config.APIKey != ""))
		}
		statusErr := fmt.Errorf("unexpected status %d: %s", resp.StatusCode, previewBody(body))
		return page{}, c.fetchError(statusErr, classification, pageNum, getErrorCategory(resp.StatusCode))
	}

	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "json") {
		c.recorder.RecordPageFetch(metrics.StatusError, elapsed)
		ctErr := fmt.Errorf("unexpected content type %q", ct)
		return page{}, c.fetchError(ctErr, classification, pageNum, errors.CategoryFileParsing)
	}

	p, err := decodePage(body)
	if err != nil {
		c.recorder.RecordPageFetch(metrics.StatusError, elapsed)
		return page{}, c.fetchError(err, classification, pageNum, errors.CategoryFileParsing)
	}

	c.recorder.RecordPageFetch(metrics.StatusSuccess, elapsed)
	c.firstCallOnce.Do(func() {
		getLogger().Info("first successful harvard API call",
			logger.Int("records", len(p.records)),
			logger.Int64("source_pages", p.pages))
	})
	getLogger().Trace("page fetched",
		logger.String("classification", classification),
		logger.Int("page", pageNum),
		logger.Int("records", len(p.records)),
		logger.Duration("duration", elapsed))

	return p, nil
}

func (c *Client) fetchError(err error, classification string, pageNum int, category errors.ErrorCategory) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redactAPIKey(urlErr.URL)
	}
	return errors.New(fmt.Errorf("%w: page %d: %w", ErrFetchFailed, pageNum, err)).
		Component("harvard").
		Category(category).
		Context("classification", classification).
		Context("page", pageNum).
		Build()
}

func (c *Client) pageURL(classification string, pageNum int) string {
	q := url.Values{}
	q.Set("apikey", c.config.APIKey)
	q.Set("size", strconv.Itoa(PageSize))
	q.Set("page", strconv.Itoa(pageNum))
	q.Set("classification", classification)
	return c.config.BaseURL + "/object?" + q.Encode()
}

func (c *Client) cacheKey(classification string, maxPages int) string {
	h := xxhash.New()
	_, _ = h.WriteString(classification)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(strconv.Itoa(maxPages))
	return "fetch:" + strconv.FormatUint(h.Sum64(), 16)
}

// redactAPIKey replaces the apikey query value so URLs can be logged.
func redactAPIKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.ScrubMessage(raw)
	}
	q := u.Query()
	if q.Has("apikey") {
		q.Set("apikey", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// InvalidateCache drops all cached fetch results.
func (c *Client) InvalidateCache() {
	if c.cache != nil {
		c.cache.Flush()
	}
}

// getErrorCategory maps HTTP status codes to error categories
func getErrorCategory(statusCode int) errors.ErrorCategory {
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return errors.CategoryConfiguration
	case statusCode == http.StatusNotFound:
		return errors.CategoryNotFound
	case statusCode == http.StatusTooManyRequests || statusCode >= http.StatusInternalServerError:
		return errors.CategoryNetwork
	default:
		return errors.CategoryFetch
	}
}

func previewBody(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
