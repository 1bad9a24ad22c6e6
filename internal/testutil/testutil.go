// Package testutil holds deterministic fixtures shared by binding tests.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/mapbind/internal/ident"
	"github.com/roach88/mapbind/internal/loop"
	"github.com/roach88/mapbind/internal/mapengine"
	"github.com/roach88/mapbind/internal/mapengine/memmap"
)

// DeterministicAllocator returns an allocator whose random part never
// changes, so allocated ids depend only on allocation order.
//
// The same scenario with the same allocator produces byte-identical traces.
func DeterministicAllocator() *ident.Allocator {
	return ident.NewAllocatorWithSource(func() uint64 { return 0x5eed })
}

// ImageLoader returns a loader that yields 1x1 images and fails for the
// given urls.
func ImageLoader(failing ...string) memmap.ImageLoader {
	return func(ctx context.Context, url string) (mapengine.Image, error) {
		if err := ctx.Err(); err != nil {
			return mapengine.Image{}, err
		}
		if slices.Contains(failing, url) {
			return mapengine.Image{}, fmt.Errorf("load %s: 404 not found", url)
		}
		return mapengine.Image{URL: url, Width: 1, Height: 1}, nil
	}
}

// Settle drains l until done reports true.
func Settle(t testing.TB, l *loop.Loop, done func() bool) {
	t.Helper()
	require.Eventually(t, func() bool {
		l.Drain()
		return done()
	}, 2*time.Second, time.Millisecond)
}

// Trace records lifecycle entries as "phase entity".
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Trace struct {
	mu      sync.Mutex
	entries []string
}

// Record appends one entry. Its signature matches the host trace hook.
func (t *Trace) Record(phase, entity string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = append(t.entries, phase+" "+entity)
}

// Entries returns a copy of the recorded entries.
func (t *Trace) Entries() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.entries)
}

// Entities returns the entity of every entry, dropping the phase.
func (t *Trace) Entities() []string {
	entries := t.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		_, entity, _ := strings.Cut(e, " ")
		out[i] = entity
	}
	return out
}

// Palindrome reports whether the entity sequence reads the same reversed,
// which holds when every attach is matched by a detach in reverse order.
func (t *Trace) Palindrome() bool {
	ents := t.Entities()
	for i, j := 0, len(ents)-1; i < j; i, j = i+1, j-1 {
		if ents[i] != ents[j] {
			return false
		}
	}
	return true
}

// Reset clears the trace.
func (t *Trace) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = nil
}
