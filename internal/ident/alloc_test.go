package ident

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocate_MillionDistinct(t *testing.T) {
	n := 1_000_000
	if testing.Short() {
		n = 10_000
	}

	a := NewAllocator()
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		id := a.Allocate()
		if _, dup := seen[id]; dup {
			t.Fatalf("identifier %q allocated twice after %d calls", id, i)
		}
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, n)
}

func TestAllocate_DistinctEvenWithConstantRandomness(t *testing.T) {
	// The counter alone keeps outputs apart.
	a := NewAllocatorWithSource(func() uint64 { return 42 })

	first := a.Allocate()
	second := a.Allocate()

	assert.NotEqual(t, first, second)
	assert.Equal(t, "_16-1", first)
	assert.Equal(t, "_16-2", second)
}

func TestAllocate_Format(t *testing.T) {
	id := Allocate()

	require.True(t, strings.HasPrefix(id, Prefix), "got %q", id)
	parts := strings.Split(strings.TrimPrefix(id, Prefix), "-")
	require.Len(t, parts, 2)
	for _, p := range parts {
		for _, r := range p {
			assert.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z'), "non base-36 rune %q in %q", r, id)
		}
	}
}

func TestAllocate_Concurrent(t *testing.T) {
	a := NewAllocator()
	const goroutines = 20
	const perGoroutine = 500

	var (
		mu   sync.Mutex
		seen = make(map[string]bool)
		wg   sync.WaitGroup
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]string, 0, perGoroutine)
			for j := 0; j < perGoroutine; j++ {
				local = append(local, a.Allocate())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = true
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestReserved(t *testing.T) {
	assert.True(t, Reserved(Allocate()))
	assert.True(t, Reserved("_mine"))
	assert.False(t, Reserved("mine"))
	assert.False(t, Reserved(""))
}
