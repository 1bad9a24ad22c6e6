package ident

import (
	"math/rand"
	"strconv"
	"strings"
	"sync/atomic"
)

// Prefix marks allocator output. Caller supplied identifiers must not
// start with it.
const Prefix = "_"

// Reserved reports whether id lies in the allocator's namespace.
func Reserved(id string) bool {
	return strings.HasPrefix(id, Prefix)
}

// randomBits bounds the random component so identifiers stay short.
const randomBits = 40

// Allocator generates identifiers for engine entities the caller did not
// name (sources, layers).
//
// Each identifier mixes a monotonic counter with a random component, both
// base-36 encoded. The counter makes outputs of one allocator pairwise
// distinct; the random part keeps them apart from identifiers produced by
// other allocators or typed in by hand.
type Allocator struct {
	counter atomic.Uint64
	random  func() uint64
}

// NewAllocator creates an allocator backed by the runtime's random source.
func NewAllocator() *Allocator {
	return &Allocator{random: rand.Uint64}
}

// NewAllocatorWithSource creates an allocator with a caller provided random
// source. Used by tests to get reproducible identifiers.
func NewAllocatorWithSource(random func() uint64) *Allocator {
	return &Allocator{random: random}
}

// Allocate returns a fresh identifier. It never fails.
func (a *Allocator) Allocate() string {
	n := a.counter.Add(1)
	r := a.random() & (1<<randomBits - 1)
	return Prefix + strconv.FormatUint(r, 36) + "-" + strconv.FormatUint(n, 36)
}

var defaultAllocator = NewAllocator()

// Allocate returns a fresh identifier from the process-wide allocator.
func Allocate() string {
	return defaultAllocator.Allocate()
}
