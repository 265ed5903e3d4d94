// Package input cleans customer messages before they reach the dialogue
// engine.
package input

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// DefaultMaxSize is 4KB, well above any banking request.
	DefaultMaxSize = 4096
	// EnvMaxSize is the environment variable to override the default.
	EnvMaxSize = "TELLER_MAX_INPUT_SIZE"
)

var (
	ErrTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
)

// Sanitize enforces the size limit, validates UTF-8, strips control
// characters other than newline, tab and carriage return, and trims
// surrounding whitespace.
func Sanitize(s string) (string, error) {
	limit := maxSize()
	if len(s) > limit {
		// Reject rather than truncate: a cut-off figure reads as a different amount.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	clean := true
	for _, r := range s {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return strings.TrimSpace(s), nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxSize() int {
	if val := os.Getenv(EnvMaxSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxSize
}
