package handler

import (
	"encoding/json"
	"net/http"

	"github.com/HolgerKurtz/meta-ads-insights/internal/model"
)

// maxBodyBytes bounds request bodies. Query selections are small.
const maxBodyBytes = 1 << 20

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
// When v cannot be encoded nothing of it is written; the client gets a 500
// error envelope and the encode error is returned for the caller to log.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		body, _ = json.Marshal(model.ErrorResponse{
			Error: model.ErrorDetail{
				Code:    http.StatusInternalServerError,
				Message: "Failed to encode response: " + err.Error(),
			},
		})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
	return err
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]any) {
	var ctxMap map[string]any
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// readJSON decodes the request body as JSON into v. Unknown fields are
// rejected so typos in selection names surface as errors.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// queryBool extracts a boolean query parameter. Returns false if the parameter
// is missing or not "true"/"1".
func queryBool(r *http.Request, key string) bool {
	val := r.URL.Query().Get(key)
	return val == "true" || val == "1"
}

// NotFound answers unknown routes with the standard error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "no route for "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowed answers known routes called with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method "+r.Method+" not allowed on "+r.URL.Path)
}
