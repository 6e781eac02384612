package model

// ErrorResponse is the standard envelope for error responses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the structured error information returned by the API.
type ErrorDetail struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
}

// URLResponse carries a built request URL. The access token is redacted
// unless the caller asked for the raw URL.
type URLResponse struct {
	URL     string `json:"url"`
	Warning string `json:"warning,omitempty"`
}

// ColumnInfo describes one column of an insights result.
type ColumnInfo struct {
	Name   string   `json:"name"`
	Type   string   `json:"type"`
	Levels []string `json:"levels,omitempty"`
}

// InsightsResponse is a typed insights table.
type InsightsResponse struct {
	URL       string       `json:"url"`
	RowCount  int          `json:"row_count"`
	Truncated bool         `json:"truncated"`
	Warning   string       `json:"warning,omitempty"`
	Columns   []ColumnInfo `json:"columns"`
	Rows      []*Row       `json:"rows"`
	TookMs    float64      `json:"took_ms"`
}
