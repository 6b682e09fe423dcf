package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes bounds request bodies; role payloads are small
const maxBodyBytes = 1 << 20

// DecodeBody decodes an optional JSON object body. An empty body yields a nil map.
func DecodeBody(r *http.Request) (map[string]any, error) {
	var body map[string]any
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return body, nil
}

// StringField returns a required non-empty string field of a decoded body
func StringField(body map[string]any, key string) (string, error) {
	v, _ := body[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}
