// Package httputil writes and reads the JSON payloads of the tenant API.
//
// The API is inconsistent about how it wraps collections and errors; the
// Envelope and ErrorStyle values name every variant it has been seen to use so
// that fakes can reproduce each of them.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope selects how a collection is wrapped
type Envelope string

const (
	EnvelopeBare   Envelope = "bare"   // [...]
	EnvelopeData   Envelope = "data"   // {"data": [...]}
	EnvelopeItems  Envelope = "items"  // {"items": [...], "total": n}
	EnvelopePlural Envelope = "plural" // {"<resource>": [...]}
)

// ErrorStyle selects the shape of an error payload
type ErrorStyle string

const (
	ErrorStyleMessage ErrorStyle = "message" // {"message": "..."}
	ErrorStyleError   ErrorStyle = "error"   // {"error": "..."}
	ErrorStyleNested  ErrorStyle = "nested"  // {"error": {"message": "..."}}
	ErrorStyleDetail  ErrorStyle = "detail"  // {"detail": "..."}
	ErrorStyleList    ErrorStyle = "list"    // {"errors": [{"message": "..."}]}
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteList writes items wrapped in env. resource names the key of the
// plural envelope, e.g. "users".
func WriteList(w http.ResponseWriter, env Envelope, resource string, items []any) error {
	if items == nil {
		items = []any{}
	}
	switch env {
	case EnvelopeBare:
		return WriteJSON(w, http.StatusOK, items)
	case EnvelopeData:
		return WriteJSON(w, http.StatusOK, map[string]any{"data": items})
	case EnvelopeItems:
		return WriteJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
	default:
		return WriteJSON(w, http.StatusOK, map[string]any{resource: items})
	}
}

// WriteItem writes a single object inside a data envelope
func WriteItem(w http.ResponseWriter, status int, item any) error {
	return WriteJSON(w, status, map[string]any{"data": item})
}

// WriteError writes message in the given style. An empty message produces an
// empty object so clients fall back to the status text.
func WriteError(w http.ResponseWriter, status int, style ErrorStyle, message string) {
	_ = WriteJSON(w, status, ErrorBody(style, message))
}

// ErrorBody builds the error payload for style
func ErrorBody(style ErrorStyle, message string) map[string]any {
	if message == "" {
		return map[string]any{}
	}
	switch style {
	case ErrorStyleError:
		return map[string]any{"error": message}
	case ErrorStyleNested:
		return map[string]any{"error": map[string]any{"message": message}}
	case ErrorStyleDetail:
		return map[string]any{"detail": message}
	case ErrorStyleList:
		return map[string]any{"errors": []any{map[string]any{"message": message}}}
	default:
		return map[string]any{"message": message}
	}
}

// WriteNoContent writes a successful response with no content (204 No Content)
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
