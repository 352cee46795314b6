package domain

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	ErrTextEmpty   = errors.New("text empty")
	ErrTextTooLong = errors.New("text too long")
)

// CleanText strips control characters other than newline and tab, trims
// surrounding whitespace and enforces the kind-specific codepoint budget.
// Text is otherwise opaque to the service; no markup parsing happens here.
func CleanText(raw string, maxChars int) (string, error) {
	text := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, raw)
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrTextEmpty
	}
	if utf8.RuneCountInString(text) > maxChars {
		return "", ErrTextTooLong
	}
	return text, nil
}
