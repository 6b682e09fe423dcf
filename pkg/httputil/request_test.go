package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBody(t *testing.T) {
	r := httptest.NewRequest("POST", "/tenant/roles", strings.NewReader(`{"name":"Admin"}`))
	body, err := DecodeBody(r)
	require.NoError(t, err)
	assert.Equal(t, "Admin", body["name"])

	r = httptest.NewRequest("DELETE", "/tenant/roles/r1", nil)
	body, err = DecodeBody(r)
	require.NoError(t, err)
	assert.Nil(t, body)

	r = httptest.NewRequest("POST", "/tenant/roles", strings.NewReader(`{"name":`))
	_, err = DecodeBody(r)
	assert.ErrorContains(t, err, "invalid JSON")
}

func TestStringField(t *testing.T) {
	v, err := StringField(map[string]any{"name": "Admin"}, "name")
	require.NoError(t, err)
	assert.Equal(t, "Admin", v)

	_, err = StringField(map[string]any{"name": 3}, "name")
	assert.EqualError(t, err, "name is required")

	_, err = StringField(nil, "new_role_id")
	assert.EqualError(t, err, "new_role_id is required")
}
