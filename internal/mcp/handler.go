package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HolgerKurtz/meta-ads-insights/internal/query"
)

// --------------------------------------------------------------------------
// Parameter extraction helpers
// --------------------------------------------------------------------------

// optionalString extracts an optional string argument from the tool request.
func optionalString(request mcp.CallToolRequest, key string) string {
	return request.GetString(key, "")
}

// optionalInt extracts an optional integer argument from the tool request.
func optionalInt(request mcp.CallToolRequest, key string, defaultVal int) int {
	return request.GetInt(key, defaultVal)
}

// optionalStringSlice extracts an optional string slice argument from the
// tool request. A comma-separated string is accepted as well.
func optionalStringSlice(request mcp.CallToolRequest, key string) []string {
	if s := optionalString(request, key); s != "" {
		return query.ParseList(s)
	}
	return request.GetStringSlice(key, nil)
}

// specFromRequest reads the query selection arguments shared by build_url
// and run. Empty selections are left for the service defaults.
func (s *MCPServer) specFromRequest(request mcp.CallToolRequest) (query.Spec, error) {
	spec := query.Spec{
		AccountID:      optionalString(request, "account_id"),
		AccessToken:    optionalString(request, "access_token"),
		Level:          optionalString(request, "level"),
		DatePreset:     optionalString(request, "date_preset"),
		TimeIncrement:  optionalString(request, "time_increment"),
		Breakdowns:     optionalStringSlice(request, "breakdowns"),
		Fields:         optionalStringSlice(request, "fields"),
		ConversionGoal: optionalString(request, "conversion_goal"),
	}
	if spec.AccessToken == "" {
		spec.AccessToken = s.accessToken
	}

	var err error
	if spec.StartDate, err = query.ParseDate(optionalString(request, "start_date")); err != nil {
		return query.Spec{}, fmt.Errorf("start_date: %w", err)
	}
	if spec.EndDate, err = query.ParseDate(optionalString(request, "end_date")); err != nil {
		return query.Spec{}, fmt.Errorf("end_date: %w", err)
	}
	return s.svc.Prepare(spec), nil
}

// --------------------------------------------------------------------------
// Response builders
// --------------------------------------------------------------------------

// successJSON marshals data to JSON and returns it as a tool result.
func successJSON(data any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError returns a tool-level error result. Errors returned this way are
// visible to the LLM so it can self-correct; they do NOT terminate the MCP
// session.
func toolError(format string, args ...any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

// clamp constrains val to [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
