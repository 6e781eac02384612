package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
	"github.com/HolgerKurtz/meta-ads-insights/internal/query"
	"github.com/HolgerKurtz/meta-ads-insights/internal/redact"
	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
	"github.com/HolgerKurtz/meta-ads-insights/internal/service"
)

const defaultMaxRows = 100

// registerTools registers the insights tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {
	reg := s.svc.Registry()
	goals := make([]string, 0, len(reg.Goals()))
	for _, g := range reg.Goals() {
		goals = append(goals, g.ID)
	}
	presets := append(reg.DatePresets(), schema.CustomDatePreset)

	// Selection arguments shared by build_url and run.
	selection := []mcp.ToolOption{
		mcp.WithString("account_id",
			mcp.Required(),
			mcp.Description("Numeric ad account id, without the act_ prefix"),
		),
		mcp.WithString("access_token",
			mcp.Description("Graph API access token. Omit to use the configured token."),
		),
		mcp.WithString("level",
			mcp.Description("Aggregation level"),
			mcp.Enum(reg.Levels()...),
		),
		mcp.WithString("date_preset",
			mcp.Description("Relative date window, or 'custom' together with start_date and end_date"),
			mcp.Enum(presets...),
		),
		mcp.WithString("time_increment",
			mcp.Description("Time bucketing of rows"),
			mcp.Enum(reg.TimeIncrements()...),
		),
		mcp.WithArray("breakdowns",
			mcp.Description("Breakdown dimensions, e.g. [\"age\", \"gender\"]"),
			mcp.WithStringItems(),
		),
		mcp.WithArray("fields",
			mcp.Description("Fields to request. Omit for the default set. Conversion fields are always added."),
			mcp.WithStringItems(),
		),
		mcp.WithString("start_date",
			mcp.Description("First day of a custom range (YYYY-MM-DD)"),
		),
		mcp.WithString("end_date",
			mcp.Description("Last day of a custom range (YYYY-MM-DD)"),
		),
		mcp.WithString("conversion_goal",
			mcp.Description("Action type extracted into conversion columns"),
			mcp.Enum(goals...),
		),
	}

	// ----- Discovery -----

	srv.AddTool(
		mcp.NewTool("insights_schema",
			mcp.WithDescription(
				"List the selectable levels, date presets, time increments, breakdowns, " +
					"fields and conversion goals, the default selection, and the column " +
					"type of every known field. Call this before building a query.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleSchema,
	)

	// ----- Query -----

	srv.AddTool(
		mcp.NewTool("insights_build_url",
			append([]mcp.ToolOption{
				mcp.WithDescription(
					"Build the Graph API insights URL for a selection without fetching it. " +
						"The access token is redacted in the result.",
				),
				mcp.WithToolAnnotation(readOnlyAnnotation()),
			}, selection...)...,
		),
		s.handleBuildURL,
	)

	srv.AddTool(
		mcp.NewTool("insights_run",
			append([]mcp.ToolOption{
				mcp.WithDescription(
					"Fetch insights for a selection and return a typed table. Conversion " +
						"lists (actions, action_values, cost_per_action_type, ROAS) are flattened " +
						"into per-goal columns. Identical requests are served from the cache.",
				),
				mcp.WithToolAnnotation(remoteReadAnnotation()),
				mcp.WithNumber("max_rows",
					mcp.Description("Maximum rows to include in the response (default 100, max 5000). row_count always reports the full result."),
				),
			}, selection...)...,
		),
		s.handleRun,
	)

	// ----- Cache -----

	srv.AddTool(
		mcp.NewTool("insights_cache_stats",
			mcp.WithDescription("Report fetch cache entries, hits, misses and Graph API requests."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleCacheStats,
	)

	srv.AddTool(
		mcp.NewTool("insights_purge_cache",
			mcp.WithDescription("Drop every memoized fetch result so the next run refetches from the Graph API."),
			mcp.WithToolAnnotation(mutatingAnnotation()),
		),
		s.handlePurgeCache,
	)
}

// =========================================================================
// Tool handlers
// =========================================================================

func (s *MCPServer) handleSchema(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	return successJSON(s.svc.Registry().File())
}

func (s *MCPServer) handleBuildURL(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	spec, err := s.specFromRequest(request)
	if err != nil {
		return toolError("Invalid date: %v", err)
	}
	u, err := query.BuildURL(s.svc.BaseURL(), spec)
	if errors.Is(err, query.ErrMissingCredentials) {
		return toolError("%s", query.MissingCredentialsMessage)
	}
	if err != nil {
		return toolError("Failed to build URL: %v", err)
	}

	resp := model.URLResponse{URL: redact.Token(u, spec.AccessToken)}
	if spec.IncompleteRange() {
		resp.Warning = service.IncompleteRangeWarning
	}
	return successJSON(resp)
}

func (s *MCPServer) handleRun(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	spec, err := s.specFromRequest(request)
	if err != nil {
		return toolError("Invalid date: %v", err)
	}
	if err := query.Validate(s.svc.Registry(), spec); err != nil {
		if errors.Is(err, query.ErrMissingCredentials) {
			return toolError("%s", query.MissingCredentialsMessage)
		}
		return toolError("%v\n\nCall insights_schema for the valid selections.", err)
	}
	maxRows := clamp(optionalInt(request, "max_rows", defaultMaxRows), 1, query.RowLimit)

	rep := s.svc.Run(ctx, spec)
	switch {
	case rep.ValidationMessage != "":
		return toolError("%s", rep.ValidationMessage)
	case rep.Error != "":
		return toolError("Graph API request failed: %s\n\nURL: %s", rep.Error, rep.URL)
	}

	rows := rep.Table.Records()
	if len(rows) > maxRows {
		rows = rows[:maxRows]
	}

	type runResult struct {
		URL          string             `json:"url"`
		RowCount     int                `json:"row_count"`
		RowsReturned int                `json:"rows_returned"`
		Truncated    bool               `json:"truncated"`
		Warning      string             `json:"warning,omitempty"`
		Columns      []model.ColumnInfo `json:"columns"`
		Rows         []*model.Row       `json:"rows"`
	}
	res := runResult{
		URL:          rep.URL,
		RowCount:     rep.RowCount,
		RowsReturned: len(rows),
		Truncated:    rep.Truncated,
		Columns:      rep.Table.Describe(),
		Rows:         rows,
	}
	if rep.Truncated {
		res.Warning = service.TruncatedWarning + "; narrow the date range or drop breakdowns"
	}

	s.logger.Debug("mcp run",
		"level", spec.Level,
		"rows", rep.RowCount,
		"breakdowns", strings.Join(spec.Breakdowns, ","),
	)
	return successJSON(res)
}

func (s *MCPServer) handleCacheStats(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	return successJSON(s.cache.Stats())
}

func (s *MCPServer) handlePurgeCache(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {
	purged := s.cache.Stats().Entries
	s.cache.Purge()
	s.logger.Info("fetch cache purged", "entries", purged)
	return successJSON(map[string]int{"purged": purged})
}
