// Package code generates short, human-typeable room codes.
//
// Codes are fixed-length strings drawn from an unambiguous uppercase
// alphabet; characters that are easy to confuse when read aloud or typed
// (I, L, O, 0, 1) are excluded. Generation is collision-checked against a
// caller-supplied predicate with a bounded retry count.
package code

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Alphabet is the set of characters a room code may contain.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const (
	// DefaultLength is the code length used when none is configured.
	DefaultLength = 6

	// DefaultMaxAttempts bounds collision retries. With a 6-character code
	// over a 31-character alphabet the space is ~887M codes, so exhaustion
	// is practically unreachable, but it is handled rather than assumed away.
	DefaultMaxAttempts = 100
)

// ErrSpaceExhausted is returned when no collision-free code could be
// generated within the attempt budget.
var ErrSpaceExhausted = errors.New("room code space exhausted")

// Generator produces collision-checked room codes.
type Generator struct {
	length      int
	maxAttempts int
}

// NewGenerator creates a generator with the given code length and retry
// budget. Non-positive values fall back to the defaults.
func NewGenerator(length, maxAttempts int) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{length: length, maxAttempts: maxAttempts}
}

// Length returns the length of generated codes.
func (g *Generator) Length() int {
	return g.length
}

// Generate returns a fresh code for which taken reports false. The taken
// predicate is expected to be called while the caller holds whatever lock
// guards the code namespace, so the returned code stays unique until it is
// inserted. A nil predicate accepts the first candidate.
func (g *Generator) Generate(taken func(string) bool) (string, error) {
	for i := 0; i < g.maxAttempts; i++ {
		candidate, err := g.random()
		if err != nil {
			return "", err
		}
		if taken == nil || !taken(candidate) {
			return candidate, nil
		}
	}
	return "", ErrSpaceExhausted
}

// random builds one candidate code from cryptographic randomness.
func (g *Generator) random() (string, error) {
	max := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, g.length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		buf[i] = Alphabet[n.Int64()]
	}
	return string(buf), nil
}
