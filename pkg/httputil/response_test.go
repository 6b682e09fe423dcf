package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteList(t *testing.T) {
	items := []any{map[string]any{"id": "u1"}}

	tests := []struct {
		env  Envelope
		want string
	}{
		{EnvelopeBare, `[{"id":"u1"}]`},
		{EnvelopeData, `{"data":[{"id":"u1"}]}`},
		{EnvelopeItems, `{"items":[{"id":"u1"}],"total":1}`},
		{EnvelopePlural, `{"users":[{"id":"u1"}]}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.env), func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, WriteList(w, tt.env, "users", items))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestWriteList_NilIsEmptyArray(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteList(w, EnvelopeBare, "roles", nil))
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		style ErrorStyle
		want  string
	}{
		{ErrorStyleMessage, `{"message":"name taken"}`},
		{ErrorStyleError, `{"error":"name taken"}`},
		{ErrorStyleNested, `{"error":{"message":"name taken"}}`},
		{ErrorStyleDetail, `{"detail":"name taken"}`},
		{ErrorStyleList, `{"errors":[{"message":"name taken"}]}`},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(w, http.StatusConflict, tt.style, "name taken")
			assert.Equal(t, http.StatusConflict, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}

	w := httptest.NewRecorder()
	WriteError(w, http.StatusInternalServerError, ErrorStyleNested, "")
	assert.JSONEq(t, `{}`, w.Body.String())
}

func TestWriteItemAndNoContent(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, WriteItem(w, http.StatusCreated, map[string]any{"id": "r1"}))
	assert.Equal(t, http.StatusCreated, w.Code)

	var got map[string]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "r1", got["data"]["id"])

	w = httptest.NewRecorder()
	WriteNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}
