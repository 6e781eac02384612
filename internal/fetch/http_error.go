package fetch

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/HolgerKurtz/meta-ads-insights/internal/redact"
)

// graphErrorEnvelope is the error body shape returned by the Graph API.
type graphErrorEnvelope struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		FBTraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}

// HTTPError is a sanitized summary of a non-2xx Graph API response.
//
// Raw bodies are never included verbatim; they can echo the access token.
type HTTPError struct {
	StatusCode int
	Status     string
	Type       string
	Code       int
	Subcode    int
	Message    string
	TraceID    string

	// Snippet is a redacted, truncated hint for responses without the
	// Graph error envelope.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "graph api http error"
	}
	parts := []string{fmt.Sprintf("graph api error: status=%s", strings.TrimSpace(e.Status))}
	if e.Type != "" {
		parts = append(parts, "type="+e.Type)
	}
	if e.Code != 0 {
		parts = append(parts, fmt.Sprintf("code=%d", e.Code))
	}
	if e.Subcode != 0 {
		parts = append(parts, fmt.Sprintf("subcode=%d", e.Subcode))
	}
	if e.TraceID != "" {
		parts = append(parts, "fbtrace_id="+e.TraceID)
	}
	if e.Message != "" {
		parts = append(parts, "message="+e.Message)
	}
	if e.Snippet != "" {
		parts = append(parts, "body="+e.Snippet)
	}
	return strings.Join(parts, " ")
}

func newHTTPError(resp *http.Response, body []byte) *HTTPError {
	h := &HTTPError{}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	var env graphErrorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil && env.Error.Message != "" {
		h.Type = strings.TrimSpace(env.Error.Type)
		h.Code = env.Error.Code
		h.Subcode = env.Error.ErrorSubcode
		h.Message = redact.Secrets(env.Error.Message)
		h.TraceID = strings.TrimSpace(env.Error.FBTraceID)
		return h
	}

	h.Snippet = redactAndTruncate(body)
	return h
}

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := redact.Secrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
