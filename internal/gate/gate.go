// Package gate implements readiness gates: boolean signals that start
// false and flip to true exactly once when an asynchronous precondition
// resolves.
//
// A gate holds back the children of a node until the engine (or a batch of
// assets) is ready. Gates are single-threaded: construct, query and resolve
// them on the UI thread. Asynchronous producers hand their results back
// through a Poster.
package gate

// Poster schedules work on the UI thread. *loop.Loop implements it.
type Poster interface {
	Post(func()) bool
}

// OneShot is an event source that fires at most once per subscription.
// Subscribe registers fn and returns a function that unregisters it.
type OneShot interface {
	Subscribe(fn func()) (cancel func())
}

// OneShotFunc adapts a function to OneShot.
type OneShotFunc func(fn func()) (cancel func())

// Subscribe calls f.
func (f OneShotFunc) Subscribe(fn func()) func() {
	return f(fn)
}

// Subscription is an explicit one-shot subscription: Fire runs the
// callback at most once, Cancel unregisters it, and a fire after Cancel is
// ignored.
type Subscription struct {
	fn       func()
	unsub    func()
	fired    bool
	canceled bool
}

// Subscribe registers fn on src through a Subscription.
func Subscribe(src OneShot, fn func()) *Subscription {
	s := &Subscription{fn: fn}
	s.unsub = src.Subscribe(s.Fire)
	return s
}

// Fire runs the callback if it has not run and was not cancelled.
func (s *Subscription) Fire() {
	if s.fired || s.canceled {
		return
	}
	s.fired = true
	s.fn()
}

// Cancel unregisters the subscription. Safe to call repeatedly and after
// the subscription fired.
func (s *Subscription) Cancel() {
	if s.canceled {
		return
	}
	s.canceled = true
	if !s.fired && s.unsub != nil {
		s.unsub()
	}
}

// Fired reports whether the callback ran.
func (s *Subscription) Fired() bool {
	return s.fired
}

// Gate is a readiness flag.
type Gate struct {
	ready    bool
	canceled bool
	sub      *Subscription
	watchers []func()
}

// Open returns a gate that is already ready.
func Open() *Gate {
	return &Gate{ready: true}
}

// Pending returns a gate resolved only through Resolve.
func Pending() *Gate {
	return &Gate{}
}

// New returns a gate that is ready immediately when isReady reports true,
// and otherwise subscribes once to src and flips on its first firing.
func New(isReady func() bool, src OneShot) *Gate {
	if isReady() {
		return Open()
	}
	g := &Gate{}
	g.sub = Subscribe(src, g.Resolve)
	return g
}

// Ready reports whether the gate has flipped.
func (g *Gate) Ready() bool {
	return g.ready
}

// Canceled reports whether the gate was cancelled before flipping.
func (g *Gate) Canceled() bool {
	return g.canceled
}

// OnReady registers fn to run when the gate flips. If the gate is already
// ready fn is not called; callers check Ready first.
func (g *Gate) OnReady(fn func()) {
	if g.ready || g.canceled {
		return
	}
	g.watchers = append(g.watchers, fn)
}

// Resolve flips the gate and notifies watchers. No-op when already ready
// or cancelled.
func (g *Gate) Resolve() {
	if g.ready || g.canceled {
		return
	}
	g.ready = true
	watchers := g.watchers
	g.watchers = nil
	for _, fn := range watchers {
		fn()
	}
}

// Cancel abandons a pending gate: the source subscription is removed and
// a later resolution is ignored. No-op on a ready gate.
func (g *Gate) Cancel() {
	if g.ready || g.canceled {
		return
	}
	g.canceled = true
	g.watchers = nil
	if g.sub != nil {
		g.sub.Cancel()
	}
}
