package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/HolgerKurtz/meta-ads-insights/internal/service"
)

const testToken = "EAAclitesttoken"

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("ADINSIGHTS_LOG_LEVEL", "error")
	isTerminal = func(int) bool { return false }

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd("1.2.3", "abc123", "2026-01-01")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// fakeGraph points the Graph base URL at a test server answering body.
func fakeGraph(t *testing.T, body string) *atomic.Int64 {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	t.Setenv("ADINSIGHTS_GRAPH_BASE_URL", srv.URL+"/v24.0")
	return &calls
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, out)
	}
	if info["version"] != "1.2.3" || info["commit"] != "abc123" {
		t.Errorf("info = %v", info)
	}
}

func TestURLCommand(t *testing.T) {
	t.Setenv("ADINSIGHTS_GRAPH_ACCESS_TOKEN", "")

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
		stderr  string
	}{
		{
			name:    "redacted by default",
			args:    []string{"url", "-a", "42", "--token", testToken, "-b", "age,gender"},
			want:    []string{"/act_42/insights?", "access_token=<redacted>", "breakdowns=age%2Cgender", "limit=5000"},
			notWant: []string{testToken},
		},
		{
			name: "reveal",
			args: []string{"url", "-a", "42", "--token", testToken, "--reveal"},
			want: []string{"access_token=" + testToken},
		},
		{
			name:    "custom range without end",
			args:    []string{"url", "-a", "42", "--token", testToken, "-d", "custom", "--start", "2024-03-01"},
			want:    []string{"level=campaign"},
			notWant: []string{"time_range", "date_preset"},
			stderr:  "missing a start or end date",
		},
		{
			name:   "unknown level is warned about",
			args:   []string{"url", "-a", "42", "--token", testToken, "-l", "galaxy"},
			want:   []string{"level=galaxy"},
			stderr: "galaxy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, errOut, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("url: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("output %q missing %q", out, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(out, w) {
					t.Errorf("output %q should not contain %q", out, w)
				}
			}
			if tt.stderr != "" && !strings.Contains(errOut, tt.stderr) {
				t.Errorf("stderr %q missing %q", errOut, tt.stderr)
			}
		})
	}
}

func TestURLUsesConfiguredToken(t *testing.T) {
	t.Setenv("ADINSIGHTS_GRAPH_ACCESS_TOKEN", testToken)
	out, _, err := execute(t, "url", "-a", "42", "--reveal")
	if err != nil {
		t.Fatalf("url: %v", err)
	}
	if !strings.Contains(out, "access_token="+testToken) {
		t.Errorf("output %q should use the configured token", out)
	}
}

func TestURLMissingCredentials(t *testing.T) {
	t.Setenv("ADINSIGHTS_GRAPH_ACCESS_TOKEN", "")
	_, _, err := execute(t, "url", "-a", "42")
	if err == nil || err.Error() != "Please enter Account ID and Access Token." {
		t.Errorf("err = %v", err)
	}
}

func TestRunCSV(t *testing.T) {
	calls := fakeGraph(t, `{"data":[{"campaign_name":"A","impressions":"5","spend":"1.5"},{"campaign_name":"B","impressions":"7","spend":"2"}]}`)

	out, errOut, err := execute(t, "run", "-a", "42", "--token", testToken, "--format", "csv")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "campaign_name,impressions,spend" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "A,5,1.5" || lines[2] != "B,7,2" {
		t.Errorf("rows = %q", lines[1:])
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("Graph calls = %d, want 1", n)
	}
}

func TestRunJSON(t *testing.T) {
	fakeGraph(t, `{"data":[{"date_start":"2024-03-01","impressions":"5","actions":[{"action_type":"purchase","value":"3"}]}]}`)

	out, errOut, err := execute(t, "run", "-a", "42", "--token", testToken, "-o", "json")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, errOut)
	}
	var resp struct {
		URL      string           `json:"url"`
		RowCount int              `json:"row_count"`
		Rows     []map[string]any `json:"rows"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, out)
	}
	if resp.RowCount != 1 || len(resp.Rows) != 1 {
		t.Fatalf("resp = %+v", resp)
	}
	if strings.Contains(resp.URL, testToken) {
		t.Errorf("token leaked: %s", resp.URL)
	}
	if got := resp.Rows[0]["Purchase"]; got != 3.0 {
		t.Errorf("Purchase = %#v, want 3", got)
	}
}

func TestRunJSONIncompleteRangeWarning(t *testing.T) {
	fakeGraph(t, `{"data":[{"impressions":"5"}]}`)

	out, errOut, err := execute(t, "run", "-a", "42", "--token", testToken, "-o", "json",
		"-d", "custom", "--start", "2024-03-01")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, errOut)
	}
	var resp struct {
		Warning string `json:"warning"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, out)
	}
	if resp.Warning != service.IncompleteRangeWarning {
		t.Errorf("warning = %q, want %q", resp.Warning, service.IncompleteRangeWarning)
	}
}

func TestRunErrors(t *testing.T) {
	fakeGraph(t, `{"data":[]}`)
	t.Setenv("ADINSIGHTS_GRAPH_ACCESS_TOKEN", "")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad format", []string{"run", "-a", "42", "--token", testToken, "-o", "xml"}, "unsupported format"},
		{"bad date", []string{"run", "-a", "42", "--token", testToken, "--start", "March"}, "invalid --start"},
		{"unknown breakdown", []string{"run", "-a", "42", "--token", testToken, "-b", "shoe_size"}, "shoe_size"},
		{"missing token", []string{"run", "-a", "42"}, "Please enter Account ID and Access Token."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestSchemaCommand(t *testing.T) {
	out, _, err := execute(t, "schema", "--json")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	var file map[string]any
	if err := json.Unmarshal([]byte(out), &file); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := file["levels"]; !ok {
		t.Errorf("schema missing levels: %v", file)
	}

	out, _, err = execute(t, "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(out, "levels:") {
		t.Errorf("yaml output missing levels:\n%s", out)
	}
}

func TestOpenAPICommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.json")
	if _, _, err := execute(t, "openapi", "-o", path, "--server-url", "http://api.test"); err != nil {
		t.Fatalf("openapi: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc struct {
		OpenAPI string `json:"openapi"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]any `json:"paths"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if doc.OpenAPI != "3.1.0" || len(doc.Servers) != 1 || doc.Servers[0].URL != "http://api.test" {
		t.Errorf("doc = %+v", doc)
	}
	if _, ok := doc.Paths["/api/v1/insights"]; !ok {
		t.Errorf("paths missing /api/v1/insights: %v", doc.Paths)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adinsights.yaml")

	if _, _, err := execute(t, "config", "init", "--path", path); err != nil {
		t.Fatalf("config init: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "graph:") {
		t.Errorf("config missing graph section:\n%s", b)
	}

	if _, _, err := execute(t, "config", "init", "--path", path); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, _, err := execute(t, "config", "init", "--path", path, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestConfigShowRedactsToken(t *testing.T) {
	t.Setenv("ADINSIGHTS_GRAPH_ACCESS_TOKEN", testToken)
	out, _, err := execute(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, testToken) {
		t.Errorf("token leaked:\n%s", out)
	}
	if !strings.Contains(out, "access_token: <redacted>") {
		t.Errorf("output missing redacted token:\n%s", out)
	}
}

func TestMCPRejectsUnknownTransport(t *testing.T) {
	_, _, err := execute(t, "mcp", "--transport", "carrier-pigeon")
	if err == nil || !strings.Contains(err.Error(), "unsupported transport") {
		t.Errorf("err = %v", err)
	}
}
