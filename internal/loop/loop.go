// Package loop provides the single UI thread every engine call and DOM
// splice runs on.
//
// Work arrives as tasks posted from any goroutine (asset loaders, engine
// event sources) and runs one at a time, in FIFO order, on whichever
// goroutine drives the loop: Run for a long-lived loop, Drain for
// deterministic tests and one-shot CLI commands.
package loop

import (
	"context"
	"log/slog"
	"sync"
)

// Task is a unit of UI-thread work.
type Task func()

// Loop is a FIFO task queue drained by a single goroutine.
//
// Thread-safety model:
//   - Post, Len, Close: safe from any goroutine
//   - Run, Drain: must only be called from the UI goroutine
type Loop struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool
	signal chan struct{} // buffered, size 1
}

// New creates an empty loop.
func New() *Loop {
	return &Loop{
		tasks:  make([]Task, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Post enqueues a task. Returns false if the loop is closed.
func (l *Loop) Post(t func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return false
	}
	l.tasks = append(l.tasks, t)

	// Coalesce wakeups.
	select {
	case l.signal <- struct{}{}:
	default:
	}
	return true
}

// next pops the front task without blocking.
func (l *Loop) next() (Task, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.tasks) == 0 {
		return nil, false
	}
	t := l.tasks[0]
	l.tasks[0] = nil // release for GC
	if len(l.tasks) == 1 {
		l.tasks = l.tasks[:0]
	} else {
		l.tasks = l.tasks[1:]
	}
	return t, true
}

// Drain runs queued tasks on the calling goroutine until the queue is
// empty, including tasks posted while draining. Returns the number run.
func (l *Loop) Drain() int {
	n := 0
	for {
		t, ok := l.next()
		if !ok {
			return n
		}
		t()
		n++
	}
}

// Run drains tasks as they arrive until ctx is cancelled or Close is
// called.
func (l *Loop) Run(ctx context.Context) error {
	slog.Debug("loop starting")
	for {
		if t, ok := l.next(); ok {
			t()
			continue
		}

		select {
		case <-ctx.Done():
			slog.Debug("loop stopping: context cancelled")
			l.Close()
			return ctx.Err()
		case <-l.signal:
			// The signal channel is closed by Close.
			if l.isClosed() && l.Len() == 0 {
				slog.Debug("loop stopping: closed")
				return nil
			}
		}
	}
}

// Len returns the number of queued tasks.
func (l *Loop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

func (l *Loop) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

// Close rejects further posts and wakes Run. Queued tasks still run.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	l.closed = true
	close(l.signal)
}
