// Package fetch issues insights requests and memoizes their results by URL.
//
// Fetch never returns a Go error: network failures, non-2xx statuses and
// malformed bodies all become a Result carrying an error message, which the
// caller displays in place of the rows.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
	"github.com/HolgerKurtz/meta-ads-insights/internal/redact"
)

// Result is the outcome of one fetch: either rows or an error message.
type Result struct {
	Rows  []*model.Row `json:"data,omitempty"`
	Error string       `json:"error,omitempty"`
}

// Failed reports whether the fetch produced an error instead of rows.
func (r Result) Failed() bool {
	return r.Error != ""
}

func failure(format string, args ...any) Result {
	return Result{Error: redact.Secrets(fmt.Sprintf(format, args...))}
}

// Options configures a Fetcher. The zero value fetches with no timeout, no
// rate limit and an unbounded cache, which is the behavior interactive
// sessions expect.
type Options struct {
	// Client overrides the HTTP client. Timeout is ignored when set.
	Client *http.Client
	// Timeout bounds each request. Zero means no timeout.
	Timeout time.Duration
	// RateLimitRPS caps outgoing requests per second. Zero disables it.
	RateLimitRPS float64
	// MaxEntries bounds the cache, evicting least recently used URLs.
	// Zero means unbounded.
	MaxEntries int
	Logger     *slog.Logger
}

// Stats reports cache effectiveness.
type Stats struct {
	Entries  int   `json:"entries"`
	Hits     int64 `json:"hits"`
	Misses   int64 `json:"misses"`
	Requests int64 `json:"requests"`
}

// Fetcher performs insights requests. It is safe for concurrent use;
// concurrent calls for the same URL share one request.
type Fetcher struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
	group   singleflight.Group

	mu    sync.Mutex
	cache *lru.Cache
	stats Stats
}

// New creates a Fetcher.
func New(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}
	return &Fetcher{
		client:  client,
		limiter: limiter,
		logger:  logger,
		cache:   lru.New(opts.MaxEntries),
	}
}

// Fetch returns the rows under the response's "data" key, or an error
// result. Results are memoized by the exact URL string, error results
// included.
//
// The HTTP call shared by concurrent callers is detached from any single
// caller's ctx: a caller that gives up gets a failure of its own while the
// others still receive the API's answer, and nothing decided by ctx is
// remembered.
func (f *Fetcher) Fetch(ctx context.Context, url string) Result {
	if res, ok := f.lookup(url); ok {
		f.logger.Debug("insights cache hit", "url", redact.Secrets(url))
		return res
	}
	if err := ctx.Err(); err != nil {
		return failure("%v", err)
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return failure("rate limiter: %v", err)
		}
	}

	shared := context.WithoutCancel(ctx)
	ch := f.group.DoChan(url, func() (any, error) {
		// Another caller may have filled the cache while we waited.
		if res, ok := f.peek(url); ok {
			return res, nil
		}
		res := f.get(shared, url)
		f.store(url, res)
		return res, nil
	})
	select {
	case r := <-ch:
		return r.Val.(Result)
	case <-ctx.Done():
		return failure("%v", ctx.Err())
	}
}

// Forget drops the memoized result for url and reports whether one existed.
func (f *Fetcher) Forget(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cache.Get(url); !ok {
		return false
	}
	f.cache.Remove(url)
	return true
}

// Purge drops every memoized result.
func (f *Fetcher) Purge() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache.Clear()
}

// Stats returns a snapshot of the cache counters.
func (f *Fetcher) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.stats
	s.Entries = f.cache.Len()
	return s
}

func (f *Fetcher) lookup(url string) (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.cache.Get(url); ok {
		f.stats.Hits++
		return v.(Result), true
	}
	f.stats.Misses++
	return Result{}, false
}

// peek reads the cache without touching the counters.
func (f *Fetcher) peek(url string) (Result, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.cache.Get(url); ok {
		return v.(Result), true
	}
	return Result{}, false
}

func (f *Fetcher) store(url string, res Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache.Add(url, res)
}

// get performs the HTTP call.
func (f *Fetcher) get(ctx context.Context, url string) Result {
	f.mu.Lock()
	f.stats.Requests++
	f.mu.Unlock()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return failure("create request: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("insights request failed", "error", redact.Secrets(err.Error()))
		return failure("%v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return failure("read response: %v", err)
	}

	f.logger.Debug("insights request",
		"url", redact.Secrets(url),
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)

	if resp.StatusCode/100 != 2 {
		herr := newHTTPError(resp, body)
		f.logger.Warn("insights request rejected", "status", resp.StatusCode, "error", herr.Error())
		return Result{Error: herr.Error()}
	}

	rows, err := decodeRows(body)
	if err != nil {
		return failure("%v", err)
	}
	return Result{Rows: rows}
}

var errMissingData = errors.New(`response has no "data" key`)

// decodeRows extracts the row list from a response body.
func decodeRows(body []byte) ([]*model.Row, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	raw, ok := envelope["data"]
	if !ok {
		return nil, errMissingData
	}

	var rows []*model.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf(`parse "data": expected a list of objects: %w`, err)
	}
	for i, r := range rows {
		if r == nil {
			return nil, fmt.Errorf(`parse "data": row %d is null`, i)
		}
	}
	if rows == nil {
		rows = []*model.Row{}
	}
	return rows, nil
}
