package code

import (
	"crypto/rand"
	"fmt"
)

// Alphabet for generated pickup codes. Ambiguous characters (0/O, 1/I/L) are
// excluded because customers type these on a small keypad.
const alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// DefaultLength is used when no length is configured.
const DefaultLength = 6

// sampleLimit is the largest multiple of len(alphabet) below 256. Random
// bytes at or above it are rejected so every character is equally likely.
const sampleLimit = 256 - 256%len(alphabet)

// pick maps one random byte onto the alphabet, rejecting bytes that would
// skew the distribution.
func pick(b byte) (byte, bool) {
	if int(b) >= sampleLimit {
		return 0, false
	}
	return alphabet[int(b)%len(alphabet)], true
}

// Generate returns a random human-enterable pickup code of n characters.
func Generate(n int) (string, error) {
	if n <= 0 {
		n = DefaultLength
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(out) < n {
		if _, err := rand.Read(buf[:n-len(out)]); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf[:n-len(out)] {
			if ch, ok := pick(b); ok {
				out = append(out, ch)
			}
		}
	}
	return string(out), nil
}
