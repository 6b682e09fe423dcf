package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a tenant API failure for display
type Kind string

const (
	// KindNetwork means the request never reached the server or timed out
	KindNetwork Kind = "network"
	// KindServer means the server answered with a 5xx status
	KindServer Kind = "server"
	// KindValidation means the server rejected the input with a 4xx status
	KindValidation Kind = "validation"
)

// Error is the single error type returned by the client. It is produced once,
// at the HTTP boundary.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Op         string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s error (%d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a client error, or the empty kind for other errors
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsKind reports whether err is a client error of the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Transient reports whether retrying the operation could succeed
func Transient(err error) bool {
	kind := KindOf(err)
	return kind == KindNetwork || kind == KindServer
}

func networkError(op string, err error) *Error {
	return &Error{
		Kind:    KindNetwork,
		Message: "unable to reach the tenant API",
		Op:      op,
		Err:     err,
	}
}

func validationError(op, message string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		Op:      op,
	}
}

// statusError maps a non-2xx response into the taxonomy
func statusError(op string, status int, body []byte) *Error {
	e := &Error{StatusCode: status, Op: op}

	switch {
	case status >= 500:
		e.Kind = KindServer
		e.Message = "the tenant API failed to process the request"
	case status >= 400:
		e.Kind = KindValidation
		e.Message = messageFromBody(body)
		if e.Message == "" {
			e.Message = strings.ToLower(http.StatusText(status))
		}
	default:
		e.Kind = KindServer
		e.Message = fmt.Sprintf("unexpected status %d", status)
	}
	return e
}

// messageFromBody extracts a human readable message from an error payload.
// It understands {"message"}, {"error"}, {"error": {"message"}}, {"detail"}
// and {"errors": [...]} shapes.
func messageFromBody(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"message", "error", "detail"} {
		switch v := payload[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case map[string]any:
			if msg, ok := v["message"].(string); ok && msg != "" {
				return msg
			}
		}
	}

	if list, ok := payload["errors"].([]any); ok {
		var msgs []string
		for _, item := range list {
			switch v := item.(type) {
			case string:
				msgs = append(msgs, v)
			case map[string]any:
				if msg, ok := v["message"].(string); ok {
					msgs = append(msgs, msg)
				}
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
