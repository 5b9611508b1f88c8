package ability

import "errors"

var (
	// ErrInvalid is returned when an ability string is syntactically invalid.
	ErrInvalid = errors.New("ability: invalid ability format")

	// ErrNotAllowed is returned when an ability is outside the configured vocabulary.
	ErrNotAllowed = errors.New("ability: ability not in allowed list")
)
