package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyBatch is returned when a shortening batch carries no requests.
	ErrEmptyBatch = errors.New("batch is empty")
	// ErrBatchTooLarge is returned when a shortening batch exceeds the configured size.
	ErrBatchTooLarge = errors.New("batch is too large")
)

// ShortenRequest is one entry of a shortening batch. Optional fields are nil
// (or point to an empty string) when the caller did not supply them.
type ShortenRequest struct {
	LongURL         string
	ValidityMinutes *string
	PreferredCode   *string
}

// Field names a ShortenRequest field in validation errors.
type Field string

const (
	FieldLongURL         Field = "longUrl"
	FieldValidityMinutes Field = "validityMinutes"
	FieldPreferredCode   Field = "preferredCode"
)

// Kind classifies why a ShortenRequest field was rejected.
type Kind string

const (
	KindRequiredMissing        Kind = "required_missing"
	KindInvalidURL             Kind = "invalid_url"
	KindInvalidValidity        Kind = "invalid_validity"
	KindInvalidShortCodeFormat Kind = "invalid_shortcode_format"
	KindDuplicateShortCode     Kind = "duplicate_shortcode"
)

// Message returns the human readable text shown next to the rejected field.
func (k Kind) Message() string {
	switch k {
	case KindRequiredMissing:
		return "URL is required"
	case KindInvalidURL:
		return "Invalid URL format"
	case KindInvalidValidity:
		return "Validity must be a positive number"
	case KindInvalidShortCodeFormat:
		return "Shortcode must be at least 4 characters and alphanumeric"
	case KindDuplicateShortCode:
		return "Shortcode already exists"
	default:
		return "invalid value"
	}
}

// ValidationError describes the first failing field of one request of a batch.
type ValidationError struct {
	Index int
	Field Field
	Kind  Kind
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("request %d: %s: %s", e.Index, e.Field, e.Kind)
}

// ValidationErrors holds every per-request failure of a rejected batch, ordered by index.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
