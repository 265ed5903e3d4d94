package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the teller banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Teal to blue, the colors of the bank's web chat.
	lines := []struct {
		text  string
		color string
	}{
		{"  _       _ _          ", "#2dd4bf"},
		{" | |_ ___| | |___ _ _  ", "#22d3ee"},
		{" |  _/ -_) | / -_) '_| ", "#38bdf8"},
		{"  \\__\\___|_|_\\___|_|   ", "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  banking assistant "+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
