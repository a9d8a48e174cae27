package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-password", hash)

	assert.True(t, CheckPassword("secret-password", hash))
	assert.False(t, CheckPassword("wrong-password", hash))
	assert.False(t, CheckPassword("secret-password", "not-a-hash"))
}

func TestNewUUID(t *testing.T) {
	a := NewUUID()
	b := NewUUID()

	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"短于上限", "hello", 10, "hello"},
		{"等于上限", "hello", 5, "hello"},
		{"超过上限", "hello world", 8, "hello..."},
		{"上限过小", "hello", 2, "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateString(tt.input, tt.maxLen))
		})
	}
}
