package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"

	"github.com/HolgerKurtz/meta-ads-insights/internal/schema"
)

// Version is the API version reported in generated documents.
const Version = "1.0.0"

const (
	errorRef    = "#/components/schemas/ErrorResponse"
	requestRef  = "#/components/schemas/InsightsRequest"
	responseRef = "#/components/schemas/InsightsResponse"
	rowRef      = "#/components/schemas/InsightsRow"
	urlRef      = "#/components/schemas/URLResponse"
	schemaRef   = "#/components/schemas/Schema"
	statsRef    = "#/components/schemas/CacheStats"
)

// Generate builds the OpenAPI 3.1 document for the JSON API. Enumerations and
// row column types are taken from the registry, so the document tracks schema
// overrides loaded at startup.
func Generate(reg *schema.Registry, baseURL string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Meta Ads Insights API",
			Description: "Builds Graph API insights requests and returns typed, flattened result tables.",
			Version:     Version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	doc.Components = &components

	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"error": &openapi3.SchemaRef{
					Value: &openapi3.Schema{
						Type: &openapi3.Types{"object"},
						Properties: openapi3.Schemas{
							"code":    &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int32"}},
							"message": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}},
							"context": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
						},
					},
				},
			},
		},
	}
	doc.Components.Schemas["InsightsRequest"] = requestSchema(reg)
	doc.Components.Schemas["InsightsRow"] = rowSchema(reg)
	doc.Components.Schemas["InsightsResponse"] = insightsResponseSchema()
	doc.Components.Schemas["URLResponse"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"url"},
			Properties: openapi3.Schemas{
				"url":     stringProp("Insights request URL. The access token is redacted unless reveal=true."),
				"warning": stringProp("Set when a custom date range is missing a bound."),
			},
		},
	}
	doc.Components.Schemas["Schema"] = registrySchema()
	doc.Components.Schemas["CacheStats"] = &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"entries":  intProp("Memoized fetch results currently held."),
				"hits":     intProp("Fetches answered from the cache."),
				"misses":   intProp("Fetches that were not cached."),
				"requests": intProp("HTTP requests sent to the Graph API."),
			},
		},
	}

	doc.Paths = openapi3.NewPaths()
	addSystemPaths(doc)
	addInsightsPaths(doc)
	return doc
}

func addSystemPaths(doc *openapi3.T) {
	status := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"status": stringProp(""),
			},
		},
	}
	doc.Paths.Set("/healthz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Liveness probe",
			OperationID: "healthz",
			Responses:   newResponses("200", "Service is alive", status),
		},
	})
	doc.Paths.Set("/readyz", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "Readiness probe",
			OperationID: "readyz",
			Responses:   newResponses("200", "Service is ready", status),
		},
	})
	doc.Paths.Set("/openapi.json", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"system"},
			Summary:     "This document",
			OperationID: "openapi",
			Responses: newResponses("200", "OpenAPI document", &openapi3.SchemaRef{
				Value: &openapi3.Schema{Type: &openapi3.Types{"object"}},
			}),
		},
	})
}

func addInsightsPaths(doc *openapi3.T) {
	doc.Paths.Set("/api/v1/schema", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"insights"},
			Summary:     "Selectable levels, presets, breakdowns, fields and goals",
			OperationID: "get_schema",
			Responses:   newResponses("200", "Schema registry", openapi3.NewSchemaRef(schemaRef, nil)),
		},
	})

	doc.Paths.Set("/api/v1/url", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"insights"},
			Summary:     "Build the insights request URL",
			Description: "Applies defaults and returns the Graph API URL for the selection without fetching it.",
			OperationID: "build_url",
			Parameters: openapi3.Parameters{
				&openapi3.ParameterRef{
					Value: func() *openapi3.Parameter {
						p := openapi3.NewQueryParameter("reveal")
						p.Description = "Return the access token unredacted (\"true\" to enable)."
						p.Schema = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}}}
						return p
					}(),
				},
			},
			RequestBody: requestBody("Insights selection"),
			Responses:   newResponses("200", "Request URL", openapi3.NewSchemaRef(urlRef, nil)),
		},
	})

	doc.Paths.Set("/api/v1/insights", &openapi3.PathItem{
		Post: &openapi3.Operation{
			Tags:        []string{"insights"},
			Summary:     "Run an insights query",
			Description: "Fetches the selection, flattens conversion lists and coerces columns to their registry types.",
			OperationID: "run_insights",
			RequestBody: requestBody("Insights selection"),
			Responses:   newResponses("200", "Typed insights table", openapi3.NewSchemaRef(responseRef, nil)),
		},
	})

	purged := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"purged":    intProp("Entries removed from the cache."),
				"forgotten": {Value: &openapi3.Schema{Type: &openapi3.Types{"boolean"}, Description: "Whether the url given as a parameter was cached."}},
			},
		},
	}
	doc.Paths.Set("/api/v1/cache", &openapi3.PathItem{
		Get: &openapi3.Operation{
			Tags:        []string{"cache"},
			Summary:     "Fetch cache counters",
			OperationID: "cache_stats",
			Responses:   newResponses("200", "Cache counters", openapi3.NewSchemaRef(statsRef, nil)),
		},
		Delete: &openapi3.Operation{
			Tags:        []string{"cache"},
			Summary:     "Drop every memoized fetch result, or only the one for url",
			OperationID: "purge_cache",
			Parameters: openapi3.Parameters{
				&openapi3.ParameterRef{
					Value: func() *openapi3.Parameter {
						p := openapi3.NewQueryParameter("url")
						p.Description = "Exact request URL, access token included, to forget."
						p.Schema = &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}}}
						return p
					}(),
				},
			},
			Responses: newResponses("200", "Cache purged", purged),
		},
	})
}

// requestSchema describes InsightsRequest. Enumerations come from the registry.
func requestSchema(reg *schema.Registry) *openapi3.SchemaRef {
	presets := append(reg.DatePresets(), schema.CustomDatePreset)
	goals := make([]string, 0, len(reg.Goals()))
	for _, g := range reg.Goals() {
		goals = append(goals, g.ID)
	}

	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"account_id", "access_token"},
			Properties: openapi3.Schemas{
				"account_id":      stringProp("Numeric ad account id, without the act_ prefix."),
				"access_token":    stringProp("Graph API access token."),
				"level":           enumProp("Aggregation level.", reg.Levels()),
				"date_preset":     enumProp("Relative date window, or custom with start_date/end_date.", presets),
				"time_increment":  enumProp("Time bucketing of the rows.", reg.TimeIncrements()),
				"breakdowns":      arrayProp("Breakdown dimensions.", enumProp("", reg.Breakdowns())),
				"fields":          arrayProp("Metric and dimension fields.", enumProp("", reg.Fields())),
				"start_date":      dateProp("First day of a custom range (YYYY-MM-DD)."),
				"end_date":        dateProp("Last day of a custom range (YYYY-MM-DD)."),
				"conversion_goal": enumProp("Action type extracted into conversion columns.", goals),
			},
		},
	}
}

// rowSchema describes one result row. Registry-typed fields are listed with
// their coerced types; conversion columns and unmapped fields are allowed as
// additional properties.
func rowSchema(reg *schema.Registry) *openapi3.SchemaRef {
	props := openapi3.Schemas{}
	for _, name := range reg.TypedFields() {
		t, _ := reg.TypeOf(name)
		s := columnTypeSchema(MapFieldType(t))
		s.Nullable = true
		props[name] = &openapi3.SchemaRef{Value: s}
	}
	has := true
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:                 &openapi3.Types{"object"},
			Properties:           props,
			AdditionalProperties: openapi3.AdditionalProperties{Has: &has},
		},
	}
}

func insightsResponseSchema() *openapi3.SchemaRef {
	column := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"name", "type"},
			Properties: openapi3.Schemas{
				"name":   stringProp(""),
				"type":   enumProp("Coerced column type.", []string{"untyped", "int", "float", "datetime", "category", "str"}),
				"levels": arrayProp("Sorted category levels.", stringProp("")),
			},
		},
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:     &openapi3.Types{"object"},
			Required: []string{"url", "row_count", "truncated", "columns", "rows"},
			Properties: openapi3.Schemas{
				"url":       stringProp("Request URL with the access token redacted."),
				"row_count": intProp("Number of rows returned."),
				"truncated": &openapi3.SchemaRef{Value: &openapi3.Schema{
					Type:        &openapi3.Types{"boolean"},
					Description: "True when the row cap was reached and the result may be incomplete.",
				}},
				"warning": stringProp(""),
				"columns": arrayProp("Column descriptions in row order.", column),
				"rows":    arrayProp("Result rows.", openapi3.NewSchemaRef(rowRef, nil)),
				"took_ms": &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"number"}, Format: "double"}},
			},
		},
	}
}

func registrySchema() *openapi3.SchemaRef {
	names := arrayProp("", stringProp(""))
	goal := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"id":    stringProp(""),
				"label": stringProp(""),
			},
		},
	}
	types := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:                 &openapi3.Types{"object"},
			AdditionalProperties: openapi3.AdditionalProperties{Schema: stringProp("")},
		},
	}
	return &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type: &openapi3.Types{"object"},
			Properties: openapi3.Schemas{
				"levels":           names,
				"date_presets":     names,
				"time_increments":  names,
				"breakdowns":       names,
				"fields":           names,
				"conversion_goals": arrayProp("", goal),
				"defaults":         &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"object"}}},
				"field_types":      types,
			},
		},
	}
}

// ─── Schema Helpers ─────────────────────────────────────────────────────────

// columnTypeSchema converts a type mapping into a property schema.
func columnTypeSchema(m TypeMapping) *openapi3.Schema {
	s := &openapi3.Schema{
		Type: &openapi3.Types{m.Type},
	}
	if m.Format != "" {
		s.Format = m.Format
	}
	return s
}

func stringProp(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc}}
}

func intProp(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"integer"}, Format: "int64", Description: desc}}
}

func dateProp(desc string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Format: "date", Description: desc}}
}

func enumProp(desc string, values []string) *openapi3.SchemaRef {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"string"}, Description: desc, Enum: enum}}
}

func arrayProp(desc string, items *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{"array"}, Description: desc, Items: items}}
}

func requestBody(desc string) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Description: desc,
			Required:    true,
			Content:     openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(requestRef, nil)),
		},
	}
}

// ─── Response Helpers ───────────────────────────────────────────────────────

// newResponses builds a Responses map with a success response and the error
// responses every JSON API route can produce.
func newResponses(statusCode, description string, schema *openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()

	successDesc := description
	responses.Set(statusCode, &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &successDesc,
			Content:     openapi3.NewContentWithJSONSchemaRef(schema),
		},
	})

	failures := []struct {
		code, desc string
	}{
		{"400", "Bad request"},
		{"422", "Missing account id or access token"},
		{"429", "Too many requests"},
		{"500", "Internal server error"},
		{"502", "Graph API request failed"},
	}
	for _, e := range failures {
		desc := e.desc
		responses.Set(e.code, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &desc,
				Content:     openapi3.NewContentWithJSONSchemaRef(openapi3.NewSchemaRef(errorRef, nil)),
			},
		})
	}
	return responses
}
