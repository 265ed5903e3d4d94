package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, " v1.2.0\n")
	assert.Contains(t, buf.String(), "banking assistant v1.2.0")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(60)
	require.NoError(t, err)

	out, err := render("**Loan Application** submitted")
	require.NoError(t, err)
	assert.Contains(t, out, "Loan Application")
}

func TestPlain(t *testing.T) {
	out, err := Plain("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello\n", out)
}
