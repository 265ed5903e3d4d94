package input

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", DefaultMaxSize - 1, false},
		{"Exact Limit", DefaultMaxSize, false},
		{"Over Limit", DefaultMaxSize + 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Sanitize(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitize_ControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Normal Text", "block my card", "block my card"},
		{"Safe Controls", "Line1\nLine2\tTabbed", "Line1\nLine2\tTabbed"},
		{"ANSI Code", "\x1b[31m$5,000\x1b[0m", "[31m$5,000[0m"},
		{"Null Byte", "card\x00_001", "card_001"},
		{"Surrounding Space", "  20000\n", "20000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sanitize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitize_InvalidUTF8(t *testing.T) {
	_, err := Sanitize("bad \xff byte")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestSanitize_EnvOverride(t *testing.T) {
	t.Setenv(EnvMaxSize, "10")

	_, err := Sanitize("12345678901")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Sanitize("12345")
	assert.NoError(t, err)
}
