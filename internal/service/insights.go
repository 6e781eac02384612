package service

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/HolgerKurtz/meta-ads-insights/internal/fetch"
	"github.com/HolgerKurtz/meta-ads-insights/internal/frame"
	"github.com/HolgerKurtz/meta-ads-insights/internal/normalize"
	"github.com/HolgerKurtz/meta-ads-insights/internal/query"
	"github.com/HolgerKurtz/meta-ads-insights/internal/redact"
	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
)

// Warnings shown alongside results.
const (
	IncompleteRangeWarning = "custom date range is missing a start or end date; no date constraint is sent"
	TruncatedWarning       = "result reached the 5000 row limit and may be incomplete"
)

// Report is the outcome of one pipeline run. Exactly one of
// ValidationMessage, Error or Table describes the result.
type Report struct {
	// URL is the request URL with the access token redacted.
	URL string
	// ValidationMessage replaces the URL when the spec cannot produce one.
	ValidationMessage string
	// Error is the fetch failure, shown in place of rows.
	Error string

	Table     *frame.Table
	RowCount  int
	Truncated bool
}

// OK reports whether the run produced a table.
func (r Report) OK() bool {
	return r.ValidationMessage == "" && r.Error == ""
}

// Fetcher is the part of fetch.Fetcher the pipeline needs.
type Fetcher interface {
	Fetch(ctx context.Context, url string) fetch.Result
}

// InsightsService runs the query → fetch → normalize → coerce pipeline.
type InsightsService struct {
	registry *schema.Registry
	fetcher  Fetcher
	baseURL  string
	opts     normalize.Options
	logger   *slog.Logger
}

// InsightsOptions configures an InsightsService.
type InsightsOptions struct {
	BaseURL   string
	Normalize normalize.Options
	Logger    *slog.Logger
}

// NewInsightsService creates an InsightsService fetching through fetcher and
// typing columns with reg. An empty BaseURL means query.DefaultBaseURL.
func NewInsightsService(reg *schema.Registry, fetcher Fetcher, opts InsightsOptions) *InsightsService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = query.DefaultBaseURL
	}
	return &InsightsService{
		registry: reg,
		fetcher:  fetcher,
		baseURL:  baseURL,
		opts:     opts.Normalize,
		logger:   logger,
	}
}

// Registry returns the schema registry the service types columns with.
func (s *InsightsService) Registry() *schema.Registry {
	return s.registry
}

// BaseURL returns the Graph API root requests are built against.
func (s *InsightsService) BaseURL() string {
	return s.baseURL
}

// Prepare fills empty selections from the registry defaults.
func (s *InsightsService) Prepare(spec query.Spec) query.Spec {
	return spec.WithDefaults(s.registry.Defaults())
}

// URL builds the request URL for spec after applying defaults. The returned
// URL still carries the access token.
func (s *InsightsService) URL(spec query.Spec) (string, error) {
	return query.BuildURL(s.baseURL, s.Prepare(spec))
}

// Run executes the pipeline for spec. It never fails: validation problems and
// fetch errors are reported through the Report.
func (s *InsightsService) Run(ctx context.Context, spec query.Spec) Report {
	spec = s.Prepare(spec)

	rawURL, err := query.BuildURL(s.baseURL, spec)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, query.ErrMissingCredentials) {
			msg = query.MissingCredentialsMessage
		}
		return Report{ValidationMessage: msg}
	}
	report := Report{URL: redact.Token(rawURL, spec.AccessToken)}

	if spec.IncompleteRange() {
		s.logger.Warn("custom date range is missing a bound; no date constraint sent",
			"start", spec.StartDate, "end", spec.EndDate)
	}

	res := s.fetcher.Fetch(ctx, rawURL)
	if res.Failed() {
		report.Error = redact.Token(res.Error, spec.AccessToken)
		s.logger.Warn("insights fetch failed", "error", report.Error)
		return report
	}

	rows := normalize.New(spec.ConversionGoal, s.opts).Rows(res.Rows)
	report.Table = frame.Coerce(frame.NewTable(rows), s.registry, s.logger)
	report.RowCount = len(rows)
	report.Truncated = report.RowCount == query.RowLimit
	if report.Truncated {
		s.logger.Warn("result hit the row cap and may be incomplete", "rows", report.RowCount)
	}

	s.logger.Info("insights run",
		"level", spec.Level,
		"rows", report.RowCount,
		"columns", len(report.Table.Columns),
		"goal", spec.ConversionGoal,
	)
	return report
}
