package bind

import (
	"fmt"

	"github.com/roach88/mapbind/internal/desc"
	"github.com/roach88/mapbind/internal/diff"
	"github.com/roach88/mapbind/internal/mapengine"
)

// EventBinding owns one engine event subscription. The engine always
// calls the binding's dispatcher, so a new listener is swapped in without
// touching the subscription.
type EventBinding struct {
	env        Env
	lc         *Lifecycle
	cur        desc.Event
	id         mapengine.ListenerID
	subscribed bool
}

// NewEvent returns a pending event binding.
func NewEvent(env Env, name string) *EventBinding {
	return &EventBinding{env: env, lc: NewLifecycle("event:"+name, env.Trace)}
}

func (b *EventBinding) State() State { return b.lc.State() }

// Attach subscribes to ev.
func (b *EventBinding) Attach(ev desc.Event) error {
	return b.lc.Attach(func() error {
		if err := checkListener(ev.Listener); err != nil {
			return err
		}
		b.cur = ev
		b.subscribe()
		return nil
	})
}

// Update swaps the listener, or resubscribes when the event type or layer
// changed.
func (b *EventBinding) Update(next desc.Event) error {
	return b.lc.Update(func() error {
		if err := checkListener(next.Listener); err != nil {
			return err
		}
		change := diff.Event(b.cur, next)
		b.cur = next
		if change == diff.EventResubscribe {
			b.unsubscribe()
			b.subscribe()
		}
		return nil
	})
}

func (b *EventBinding) subscribe() {
	b.id = b.env.Map.On(b.cur.Event, b.cur.Layer, b.dispatch)
	b.subscribed = true
}

func (b *EventBinding) unsubscribe() {
	if b.subscribed {
		b.env.Map.Off(b.id)
		b.subscribed = false
	}
}

func (b *EventBinding) dispatch(ev mapengine.Event) {
	switch fn := b.cur.Listener.(type) {
	case mapengine.Listener:
		fn(ev)
	case func(mapengine.Event):
		fn(ev)
	case func():
		fn()
	}
}

func checkListener(l any) error {
	switch l.(type) {
	case nil, mapengine.Listener, func(mapengine.Event), func():
		return nil
	default:
		return fmt.Errorf("unsupported listener type %T", l)
	}
}

// Detach unsubscribes.
func (b *EventBinding) Detach() error {
	return b.lc.Detach(func() error {
		b.unsubscribe()
		return nil
	})
}
