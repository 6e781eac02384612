package openapi

import "github.com/HolgerKurtz/meta-ads-insights/internal/schema"

// TypeMapping maps registry field types to OpenAPI type/format pairs.
type TypeMapping struct {
	Type   string // OpenAPI type: string, integer, number, boolean, object, array
	Format string // OpenAPI format: int64, double, date-time
}

var fieldTypeToOpenAPI = map[schema.FieldType]TypeMapping{
	schema.Integer:     {"integer", "int64"},
	schema.Float:       {"number", "double"},
	schema.DateTime:    {"string", "date-time"},
	schema.Categorical: {"string", ""},
	schema.String:      {"string", ""},
}

// MapFieldType converts a registry field type to an OpenAPI type mapping.
// Falls back to {"string", ""} for unknown types.
func MapFieldType(t schema.FieldType) TypeMapping {
	if m, ok := fieldTypeToOpenAPI[t]; ok {
		return m
	}
	return TypeMapping{Type: "string"}
}
