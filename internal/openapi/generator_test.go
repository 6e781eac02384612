package openapi

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
)

// ─── MapFieldType Tests ─────────────────────────────────────────────────────

func TestMapFieldType(t *testing.T) {
	tests := []struct {
		in         schema.FieldType
		wantType   string
		wantFormat string
	}{
		{schema.Integer, "integer", "int64"},
		{schema.Float, "number", "double"},
		{schema.DateTime, "string", "date-time"},
		{schema.Categorical, "string", ""},
		{schema.String, "string", ""},
		{schema.FieldType(99), "string", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in.String(), func(t *testing.T) {
			got := MapFieldType(tt.in)
			if got.Type != tt.wantType || got.Format != tt.wantFormat {
				t.Errorf("MapFieldType(%v) = %+v, want {%s %s}", tt.in, got, tt.wantType, tt.wantFormat)
			}
		})
	}
}

// ─── Generate Tests ─────────────────────────────────────────────────────────

func TestGenerate_PathsAndOperations(t *testing.T) {
	doc := Generate(schema.Default(), "http://localhost:8080")

	if doc.OpenAPI != "3.1.0" {
		t.Errorf("OpenAPI = %q", doc.OpenAPI)
	}
	if len(doc.Servers) != 1 || doc.Servers[0].URL != "http://localhost:8080" {
		t.Errorf("Servers = %+v", doc.Servers)
	}

	tests := []struct {
		path   string
		method string
		opID   string
	}{
		{"/healthz", "GET", "healthz"},
		{"/readyz", "GET", "readyz"},
		{"/openapi.json", "GET", "openapi"},
		{"/api/v1/schema", "GET", "get_schema"},
		{"/api/v1/url", "POST", "build_url"},
		{"/api/v1/insights", "POST", "run_insights"},
		{"/api/v1/cache", "GET", "cache_stats"},
		{"/api/v1/cache", "DELETE", "purge_cache"},
	}
	for _, tt := range tests {
		item := doc.Paths.Value(tt.path)
		if item == nil {
			t.Errorf("missing path %s", tt.path)
			continue
		}
		op := item.GetOperation(tt.method)
		if op == nil {
			t.Errorf("missing %s %s", tt.method, tt.path)
			continue
		}
		if op.OperationID != tt.opID {
			t.Errorf("%s %s OperationID = %q, want %q", tt.method, tt.path, op.OperationID, tt.opID)
		}
		if op.Responses.Value("200") == nil {
			t.Errorf("%s %s has no 200 response", tt.method, tt.path)
		}
	}

	run := doc.Paths.Value("/api/v1/insights").Post
	if run.RequestBody == nil || !run.RequestBody.Value.Required {
		t.Error("run_insights should require a body")
	}
	if run.Responses.Value("502") == nil || run.Responses.Value("422") == nil {
		t.Error("run_insights should document 422 and 502")
	}
}

func TestGenerate_PurgeCacheTakesURL(t *testing.T) {
	doc := Generate(schema.Default(), "")
	op := doc.Paths.Value("/api/v1/cache").Delete
	if p := op.Parameters.GetByInAndName("query", "url"); p == nil {
		t.Error("purge_cache should accept a url query parameter")
	}
}

func TestGenerate_Components(t *testing.T) {
	doc := Generate(schema.Default(), "")
	for _, name := range []string{"ErrorResponse", "InsightsRequest", "InsightsResponse", "InsightsRow", "URLResponse", "Schema", "CacheStats"} {
		if _, ok := doc.Components.Schemas[name]; !ok {
			t.Errorf("missing component %s", name)
		}
	}
}

func TestGenerate_RequestEnumsFollowRegistry(t *testing.T) {
	reg := schema.Default()
	doc := Generate(reg, "")
	props := doc.Components.Schemas["InsightsRequest"].Value.Properties

	level := props["level"].Value.Enum
	if len(level) != len(reg.Levels()) {
		t.Fatalf("level enum = %v, want %v", level, reg.Levels())
	}
	for i, l := range reg.Levels() {
		if level[i] != l {
			t.Errorf("level enum[%d] = %v, want %s", i, level[i], l)
		}
	}

	if !slices.Contains(props["date_preset"].Value.Enum, any(schema.CustomDatePreset)) {
		t.Error("date_preset enum should include the custom sentinel")
	}
	if got := props["start_date"].Value.Format; got != "date" {
		t.Errorf("start_date format = %q", got)
	}
	items := props["breakdowns"].Value.Items.Value.Enum
	if len(items) != len(reg.Breakdowns()) {
		t.Errorf("breakdowns enum has %d values, want %d", len(items), len(reg.Breakdowns()))
	}
}

func TestGenerate_RowSchemaUsesFieldTypes(t *testing.T) {
	reg, err := schema.Parse([]byte("field_types:\n  objective: str\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	doc := Generate(reg, "")
	row := doc.Components.Schemas["InsightsRow"].Value

	if row.AdditionalProperties.Has == nil || !*row.AdditionalProperties.Has {
		t.Error("row schema should allow additional properties")
	}
	for _, name := range reg.TypedFields() {
		prop, ok := row.Properties[name]
		if !ok {
			t.Errorf("missing row property %s", name)
			continue
		}
		ft, _ := reg.TypeOf(name)
		want := MapFieldType(ft)
		if !prop.Value.Type.Is(want.Type) || prop.Value.Format != want.Format {
			t.Errorf("%s = %v/%s, want %+v", name, prop.Value.Type, prop.Value.Format, want)
		}
		if !prop.Value.Nullable {
			t.Errorf("%s should be nullable", name)
		}
	}
	if obj := row.Properties["objective"]; obj == nil || !obj.Value.Type.Is("string") {
		t.Error("objective should be a string property")
	}
}

func TestGenerate_MarshalsToJSON(t *testing.T) {
	doc := Generate(schema.Default(), "http://localhost:8080")
	b, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if _, ok := out["paths"].(map[string]any)["/api/v1/insights"]; !ok {
		t.Error("marshalled document lacks /api/v1/insights")
	}
}
