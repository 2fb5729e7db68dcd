// Package token generates and validates session tokens.
//
// A valid token is exactly 32 characters from [0-9A-Z]. Generated tokens only use the
// hexadecimal subset of that alphabet, so they are always valid.
package token

import (
	"crypto/rand"
	"regexp"
	"strings"

	"github.com/nordcodes/session-contract-tests/servicedef"
)

// Length is the number of characters in a valid token.
const Length = 32

const generatorAlphabet = "0123456789ABCDEF"

// Pattern matches a valid token.
var Pattern = regexp.MustCompile(servicedef.TokenPattern) //nolint:gochecknoglobals

// Generate returns a new random token of Length characters.
func Generate() string {
	return GenerateWithLength(Length)
}

// GenerateWithLength returns a random string of n characters from the generator alphabet. It is
// used for boundary cases where the length itself is what is being tested.
//
// It panics if the system entropy source fails.
func GenerateWithLength(n int) string {
	if n <= 0 {
		return ""
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("token: system entropy source failed: " + err.Error())
	}
	var sb strings.Builder
	sb.Grow(n)
	for _, b := range buf {
		sb.WriteByte(generatorAlphabet[b&0x0F])
	}
	return sb.String()
}

// IsValid returns true if s matches Pattern.
func IsValid(s string) bool {
	return Pattern.MatchString(s)
}
