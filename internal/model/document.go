package model

import (
	"fmt"
	"regexp"

	appErr "github.com/fedro86/almost-a-cms/internal/pkg/errors"
)

const MaxNameLength = 128

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Document is a named JSON value. Content holds the pretty-printed text.
type Document struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ValidateName accepts letters, digits, hyphen and underscore only, which
// keeps every name inside the data directory once mapped to a file.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", appErr.ErrInvalidName)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", appErr.ErrInvalidName, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", appErr.ErrInvalidName, name)
	}
	return nil
}
