package ident

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7Generator_Format(t *testing.T) {
	token := UUIDv7Generator{}.Generate()

	parsed, err := uuid.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
	assert.Len(t, token, 36)
}

func TestUUIDv7Generator_Sortable(t *testing.T) {
	g := UUIDv7Generator{}
	prev := g.Generate()
	for i := 0; i < 50; i++ {
		next := g.Generate()
		assert.Less(t, prev, next, "UUIDv7 tokens should sort by creation order")
		prev = next
	}
}

func TestFixedSessions(t *testing.T) {
	g := NewFixedSessions("s-1", "s-2")

	assert.Equal(t, "s-1", g.Generate())
	assert.Equal(t, "s-2", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}
