package memberscsv

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrInvalidEncoding = errors.New("input is not valid UTF-8")
	ErrTooManyContacts = errors.New("member has more emergency contacts than column groups")
)

// ValidationError describes a malformed row. Row is the 1-based data row
// number (the header is row 0).
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
