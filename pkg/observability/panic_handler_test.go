package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecoverPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf)

	assert.NotPanics(t, func() {
		defer RecoverPanic(logger, "refresh hook")
		panic("boom")
	})

	entry := decodeEntry(t, &buf)
	assert.Equal(t, "PANIC recovered", entry["message"])
	assert.Equal(t, "boom", entry["panic"])
	assert.Equal(t, "refresh hook", entry["context"])
	assert.NotEmpty(t, entry["stack"])
}

func TestMustRecover(t *testing.T) {
	assert.NoError(t, MustRecover(nil))
	assert.EqualError(t, MustRecover("boom"), "panic: boom")
}
