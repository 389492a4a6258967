package model

import (
	"errors"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrEmptyText = errors.New("text must not be empty")
)

// NormalizeText trims the text and rejects blank input.
func NormalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	return text, nil
}
