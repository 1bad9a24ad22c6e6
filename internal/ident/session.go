package ident

import (
	"sync"

	"github.com/google/uuid"
)

// SessionGenerator produces one token per mount of a map root.
// Implemented by UUIDv7Generator (production) and FixedSessions (tests).
type SessionGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session tokens, so
// journal sessions list in the order they were mounted.
//
// Stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedSessions returns predetermined session tokens in order.
type FixedSessions struct {
	mu     sync.Mutex
	tokens []string
	idx    int
}

// NewFixedSessions creates a generator that returns tokens in order and
// panics once they are exhausted.
func NewFixedSessions(tokens ...string) *FixedSessions {
	return &FixedSessions{tokens: tokens}
}

// Generate returns the next predetermined token.
func (g *FixedSessions) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		panic("FixedSessions: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
