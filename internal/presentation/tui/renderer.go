package tui

import (
	"github.com/charmbracelet/glamour"
)

// Renderer turns assistant replies (markdown) into terminal output.
type Renderer func(markdown string) (string, error)

// NewRenderer returns a Renderer backed by glamour, wrapping at width.
// A width of zero keeps glamour's default.
func NewRenderer(width int) (Renderer, error) {
	opts := []glamour.TermRendererOption{
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	}
	if width > 0 {
		opts = append(opts, glamour.WithWordWrap(width))
	}
	r, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return nil, err
	}
	return r.Render, nil
}

// Plain returns the reply unchanged.
func Plain(markdown string) (string, error) {
	return markdown + "\n", nil
}
