package loop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoop_DrainFIFO(t *testing.T) {
	l := New()
	var got []int
	for i := 1; i <= 3; i++ {
		i := i
		require.True(t, l.Post(func() { got = append(got, i) }))
	}

	assert.Equal(t, 3, l.Drain())
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 0, l.Len())
}

func TestLoop_DrainRunsTasksPostedWhileDraining(t *testing.T) {
	l := New()
	var got []string
	l.Post(func() {
		got = append(got, "outer")
		l.Post(func() { got = append(got, "inner") })
	})

	assert.Equal(t, 2, l.Drain())
	assert.Equal(t, []string{"outer", "inner"}, got)
}

func TestLoop_PostAfterClose(t *testing.T) {
	l := New()
	l.Close()
	l.Close() // idempotent

	assert.False(t, l.Post(func() {}))
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	l := New()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	ran := make(chan struct{})
	l.Post(func() { close(ran) })

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestLoop_RunReturnsOnClose(t *testing.T) {
	l := New()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	l.Close()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
}

func TestLoop_ConcurrentPosts(t *testing.T) {
	l := New()
	const posters = 10
	const perPoster = 100

	var wg sync.WaitGroup
	for i := 0; i < posters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perPoster; j++ {
				l.Post(func() {})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, posters*perPoster, l.Drain())
}
