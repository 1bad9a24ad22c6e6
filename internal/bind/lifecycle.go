package bind

import (
	"log/slog"

	"github.com/roach88/mapbind/internal/fault"
	"github.com/roach88/mapbind/internal/mapengine"
)

// State is a scene node lifecycle state.
type State int

const (
	StatePending State = iota
	StateAttached
	StateUpdating
	StateDetached
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateAttached:
		return "attached"
	case StateUpdating:
		return "updating"
	case StateDetached:
		return "detached"
	default:
		return "unknown"
	}
}

// Trace phases.
const (
	PhaseAttach = "attach"
	PhaseDetach = "detach"
)

// Env is what a binding needs from its surroundings.
type Env struct {
	Map    mapengine.Map
	Logger *slog.Logger
	// Trace, when set, observes attach and detach of every entity.
	Trace func(phase, entity string)
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Lifecycle is the state machine shared by all bindings.
type Lifecycle struct {
	entity    string
	state     State
	attachErr error
	trace     func(phase, entity string)
}

// NewLifecycle returns a pending lifecycle for entity.
func NewLifecycle(entity string, trace func(phase, entity string)) *Lifecycle {
	return &Lifecycle{entity: entity, trace: trace}
}

// Entity returns the traced entity name.
func (l *Lifecycle) Entity() string { return l.entity }

// State returns the current state.
func (l *Lifecycle) State() State { return l.state }

// Attach runs fn and moves to attached, even when fn fails: a failed
// attach may have created engine objects that Detach must release.
func (l *Lifecycle) Attach(fn func() error) error {
	if l.state != StatePending {
		return fault.IllegalTransition(l.entity, l.state.String(), StateAttached.String())
	}
	l.state = StateAttached
	if l.trace != nil {
		l.trace(PhaseAttach, l.entity)
	}
	l.attachErr = fn()
	return l.attachErr
}

// Update runs fn in the updating state. Updates after a failed attach are
// skipped.
func (l *Lifecycle) Update(fn func() error) error {
	if l.state != StateAttached {
		return fault.IllegalTransition(l.entity, l.state.String(), StateUpdating.String())
	}
	if l.attachErr != nil {
		return nil
	}
	l.state = StateUpdating
	err := fn()
	l.state = StateAttached
	return err
}

// Detach runs fn once if the lifecycle attached. Detaching a pending
// lifecycle abandons it without calling fn; detaching twice is a no-op.
func (l *Lifecycle) Detach(fn func() error) error {
	switch l.state {
	case StateDetached:
		return nil
	case StatePending:
		l.state = StateDetached
		return nil
	case StateUpdating:
		return fault.IllegalTransition(l.entity, l.state.String(), StateDetached.String())
	}
	l.state = StateDetached
	err := fn()
	if l.trace != nil {
		l.trace(PhaseDetach, l.entity)
	}
	return err
}
