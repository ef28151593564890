package core

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// IdentifierKey is the property that persists a block identifier.
const IdentifierKey = "id"

// NewIdentifier returns a time-ordered UUID (version 7), so identifiers
// generated later sort after earlier ones.
func NewIdentifier() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 only fails when the random source does.
		return uuid.NewString()
	}
	return id.String()
}

// ValidateIdentifier checks the shape of an identifier: exactly four '-'
// separators, every other character a letter or a digit.
func ValidateIdentifier(id string) error {
	if strings.Count(id, "-") != 4 {
		return fmt.Errorf("%w: identifier %q must contain exactly 4 '-'", ErrInvalidInput, id)
	}
	rest := strings.ReplaceAll(id, "-", "")
	if rest == "" {
		return fmt.Errorf("%w: identifier %q has no alphanumeric characters", ErrInvalidInput, id)
	}
	for _, r := range rest {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("%w: identifier %q must be alphanumeric apart from '-'", ErrInvalidInput, id)
		}
	}
	return nil
}
