// Package shortcode generates random short codes and checks user supplied ones.
package shortcode

import (
	"fmt"
	"regexp"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// Alphabet is the 62-character alphanumeric alphabet generated codes are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultLength is the length of generated codes.
	DefaultLength = 6
	// MinLength is the shortest code a user may choose.
	MinLength = 4
)

var formatRe = regexp.MustCompile(`^[A-Za-z0-9_-]{4,}$`)

// ValidateFormat reports whether code is at least four characters long and
// uses only letters, digits, underscore and hyphen.
func ValidateFormat(code string) bool {
	return formatRe.MatchString(code)
}

// Generator produces random codes of a fixed length. It performs no
// uniqueness check; callers verify the result against existing records.
type Generator struct {
	length int
}

// NewGenerator returns a Generator producing codes of the given length,
// falling back to DefaultLength for non-positive values.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{length: length}
}

// Generate returns a code drawn uniformly at random from Alphabet.
func (g *Generator) Generate() (string, error) {
	const op = "shortcode.Generator.Generate"

	code, err := gonanoid.Generate(Alphabet, g.length)
	if err != nil {
		return "", fmt.Errorf("%s: failed to generate short code: %w", op, err)
	}

	return code, nil
}

// Generate returns a DefaultLength code drawn uniformly at random from Alphabet.
func Generate() (string, error) {
	return NewGenerator(DefaultLength).Generate()
}
