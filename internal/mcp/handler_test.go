package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HolgerKurtz/meta-ads-insights/internal/fetch"
	"github.com/HolgerKurtz/meta-ads-insights/internal/query"
	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
	"github.com/HolgerKurtz/meta-ads-insights/internal/service"
)

const testToken = "EAAmcptoken"

type testEnv struct {
	srv   *MCPServer
	calls atomic.Int64
}

// newTestEnv wires an MCPServer against a fake Graph API answering with
// status and body. defaultToken stands in for the configured token.
func newTestEnv(t *testing.T, status int, body, defaultToken string) *testEnv {
	t.Helper()
	env := &testEnv{}
	graph := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.calls.Add(1)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(graph.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fetcher := fetch.New(fetch.Options{Logger: logger})
	svc := service.NewInsightsService(schema.Default(), fetcher, service.InsightsOptions{
		BaseURL: graph.URL + "/v24.0",
		Logger:  logger,
	})
	env.srv = NewMCPServer(svc, fetcher, Options{AccessToken: defaultToken, Logger: logger})
	return env
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// resultText returns the text of a single-content tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		val      int
		min      int
		max      int
		expected int
	}{
		{"value in range", 5, 1, 10, 5},
		{"value below min", -3, 1, 10, 1},
		{"value above max", 15, 1, 10, 10},
		{"value equals min", 1, 1, 10, 1},
		{"value equals max", 10, 1, 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := clamp(tt.val, tt.min, tt.max)
			if got != tt.expected {
				t.Errorf("clamp(%d, %d, %d) = %d, want %d", tt.val, tt.min, tt.max, got, tt.expected)
			}
		})
	}
}

func TestAnnotations(t *testing.T) {
	if ann := readOnlyAnnotation(); ann.ReadOnlyHint == nil || !*ann.ReadOnlyHint {
		t.Error("readOnlyAnnotation should set ReadOnlyHint=true")
	}
	if ann := remoteReadAnnotation(); ann.OpenWorldHint == nil || !*ann.OpenWorldHint {
		t.Error("remoteReadAnnotation should set OpenWorldHint=true")
	}
	if ann := mutatingAnnotation(); ann.ReadOnlyHint == nil || *ann.ReadOnlyHint {
		t.Error("mutatingAnnotation should set ReadOnlyHint=false")
	}
}

func TestOptionalStringSliceAcceptsListOrString(t *testing.T) {
	tests := []struct {
		name string
		arg  any
		want []string
	}{
		{"array", []any{"age", "gender"}, []string{"age", "gender"}},
		{"comma string", "age, gender", []string{"age", "gender"}},
		{"missing", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := map[string]any{}
			if tt.arg != nil {
				args["breakdowns"] = tt.arg
			}
			got := optionalStringSlice(callRequest("x", args), "breakdowns")
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func TestSchemaTool(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, `{"data":[]}`, "")
	res, err := env.srv.handleSchema(context.Background(), callRequest("insights_schema", nil))
	if err != nil {
		t.Fatal(err)
	}
	var file schema.File
	if err := json.Unmarshal([]byte(resultText(t, res)), &file); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(file.Levels) == 0 || len(file.ConversionGoals) == 0 {
		t.Errorf("schema = %+v", file)
	}
}

func TestBuildURLTool(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, `{"data":[]}`, "")

	res, err := env.srv.handleBuildURL(context.Background(), callRequest("insights_build_url", map[string]any{
		"account_id":   "42",
		"access_token": testToken,
		"breakdowns":   []any{"age"},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if strings.Contains(text, testToken) {
		t.Errorf("token leaked: %s", text)
	}
	for _, want := range []string{"act_42/insights", "breakdowns=age", "level=campaign"} {
		if !strings.Contains(text, want) {
			t.Errorf("result %s missing %q", text, want)
		}
	}

	res, _ = env.srv.handleBuildURL(context.Background(), callRequest("insights_build_url", map[string]any{
		"account_id": "42",
	}))
	if !res.IsError || resultText(t, res) != query.MissingCredentialsMessage {
		t.Errorf("missing token should return the credentials message, got %+v", res)
	}
	if n := env.calls.Load(); n != 0 {
		t.Errorf("build_url must not fetch, got %d calls", n)
	}
}

func TestRunToolUsesConfiguredToken(t *testing.T) {
	env := newTestEnv(t, http.StatusOK,
		`{"data":[{"campaign_name":"A","impressions":"5"},{"campaign_name":"B","impressions":"7"},{"campaign_name":"C","impressions":"9"}]}`,
		testToken)

	res, err := env.srv.handleRun(context.Background(), callRequest("insights_run", map[string]any{
		"account_id": "42",
		"max_rows":   2,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}

	var out struct {
		URL          string           `json:"url"`
		RowCount     int              `json:"row_count"`
		RowsReturned int              `json:"rows_returned"`
		Rows         []map[string]any `json:"rows"`
		Columns      []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"columns"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.RowCount != 3 || out.RowsReturned != 2 || len(out.Rows) != 2 {
		t.Errorf("counts = %d/%d/%d", out.RowCount, out.RowsReturned, len(out.Rows))
	}
	if strings.Contains(out.URL, testToken) {
		t.Errorf("token leaked: %s", out.URL)
	}
	if out.Rows[0]["impressions"] != 5.0 {
		t.Errorf("impressions = %#v", out.Rows[0]["impressions"])
	}
}

func TestRunToolErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		args   map[string]any
		want   string
	}{
		{
			name: "invalid level", status: http.StatusOK, body: `{"data":[]}`,
			args: map[string]any{"account_id": "42", "access_token": testToken, "level": "galaxy"},
			want: "unknown level",
		},
		{
			name: "missing credentials", status: http.StatusOK, body: `{"data":[]}`,
			args: map[string]any{"account_id": "42"},
			want: query.MissingCredentialsMessage,
		},
		{
			name: "bad date", status: http.StatusOK, body: `{"data":[]}`,
			args: map[string]any{"account_id": "42", "access_token": testToken, "start_date": "yesterday"},
			want: "start_date",
		},
		{
			name: "graph error", status: http.StatusBadRequest,
			body: `{"error":{"message":"Unsupported get request.","code":100}}`,
			args: map[string]any{"account_id": "42", "access_token": testToken},
			want: "Unsupported get request",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.status, tt.body, "")
			res, err := env.srv.handleRun(context.Background(), callRequest("insights_run", tt.args))
			if err != nil {
				t.Fatalf("handler error: %v", err)
			}
			text := resultText(t, res)
			if !res.IsError || !strings.Contains(text, tt.want) {
				t.Errorf("result = %q (IsError=%v), want error containing %q", text, res.IsError, tt.want)
			}
			if strings.Contains(text, testToken) {
				t.Errorf("token leaked: %s", text)
			}
		})
	}
}

func TestCacheTools(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, `{"data":[{"impressions":"1"}]}`, testToken)
	args := map[string]any{"account_id": "42"}
	for i := 0; i < 2; i++ {
		if res, _ := env.srv.handleRun(context.Background(), callRequest("insights_run", args)); res.IsError {
			t.Fatalf("run %d failed: %s", i, resultText(t, res))
		}
	}

	res, _ := env.srv.handleCacheStats(context.Background(), callRequest("insights_cache_stats", nil))
	var stats fetch.Stats
	if err := json.Unmarshal([]byte(resultText(t, res)), &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 || stats.Hits != 1 {
		t.Errorf("stats = %+v", stats)
	}

	res, _ = env.srv.handlePurgeCache(context.Background(), callRequest("insights_purge_cache", nil))
	if !strings.Contains(resultText(t, res), `"purged": 1`) {
		t.Errorf("purge result = %s", resultText(t, res))
	}
	if n := env.calls.Load(); n != 1 {
		t.Errorf("Graph calls = %d, want 1", n)
	}
}

func TestSchemaResource(t *testing.T) {
	env := newTestEnv(t, http.StatusOK, `{"data":[]}`, "")
	contents, err := env.srv.handleSchemaResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok || tc.URI != schemaURI || !strings.Contains(tc.Text, `"levels"`) {
		t.Errorf("resource = %+v", contents[0])
	}
}
