// Package storage holds identifiers shared by the on-disk stores.
package storage

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrNoMatches is returned when no artifact matches an ID prefix.
	ErrNoMatches = errors.New("no artifacts found")
	// ErrManyMatches is returned when several artifacts match an ID prefix.
	ErrManyMatches = errors.New("multiple artifacts matched the input")
)

// ShortIDLen is the display length of an ID in CLI output.
const ShortIDLen = 8

// IDRegexp matches a full artifact ID.
var IDRegexp = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// NewID returns a new random artifact ID.
func NewID() string {
	return uuid.NewString()
}

var idPrefixRegexp = regexp.MustCompile(`^[0-9a-f][0-9a-f-]*$`)

// ValidIDPrefix reports whether in can be the start of an artifact ID and is
// at least minLen long.
func ValidIDPrefix(in string, minLen int) bool {
	return len(in) >= minLen && idPrefixRegexp.MatchString(in)
}

// ValidID reports whether id is a well-formed artifact ID.
func ValidID(id string) bool {
	return IDRegexp.MatchString(strings.ToLower(id))
}

// ShortID returns the display form of id.
func ShortID(id string) string {
	if len(id) <= ShortIDLen {
		return id
	}
	return id[:ShortIDLen]
}
