// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package feed delivers order book events to subscribed listeners.
// Delivery is synchronous, in subscription order, on the publishing
// goroutine.
package feed

import (
	"sync"
)

// Listener receives events.
type Listener interface {
	Notify(Event)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(Event)

// Notify calls f.
func (f ListenerFunc) Notify(e Event) { f(e) }

// LifecycleListener receives the order lifecycle events.
type LifecycleListener interface {
	OrderCreated(*OrderCreated)
	OrderFilled(*OrderFilled)
	OrderCancelled(*OrderCancelled)
}

type subscription struct {
	id       uint64
	sig      Signature
	listener Listener
}

// Feed is a registry of listeners keyed by event signature.
type Feed struct {
	mtx  sync.RWMutex
	seq  uint64
	subs []*subscription
}

// New is the constructor for a Feed.
func New() *Feed {
	return &Feed{}
}

// Subscribe registers the listener for events with the signature. The
// returned id can be passed to Unsubscribe.
func (f *Feed) Subscribe(sig Signature, l Listener) uint64 {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	f.seq++
	f.subs = append(f.subs, &subscription{
		id:       f.seq,
		sig:      sig,
		listener: l,
	})
	log.Debugf("Subscription %d to %s events", f.seq, sig)
	return f.seq
}

// SubscribeLifecycle registers the listener for the three order lifecycle
// events, returning the subscription ids.
func (f *Feed) SubscribeLifecycle(l LifecycleListener) []uint64 {
	return []uint64{
		f.Subscribe(SigOrderCreated, ListenerFunc(func(e Event) { l.OrderCreated(e.(*OrderCreated)) })),
		f.Subscribe(SigOrderFilled, ListenerFunc(func(e Event) { l.OrderFilled(e.(*OrderFilled)) })),
		f.Subscribe(SigOrderCancelled, ListenerFunc(func(e Event) { l.OrderCancelled(e.(*OrderCancelled)) })),
	}
}

// Unsubscribe removes the subscription. The return is false if the id is
// unknown.
func (f *Feed) Unsubscribe(id uint64) bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	for i, sub := range f.subs {
		if sub.id == id {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish delivers the event to its listeners. Listeners may subscribe and
// unsubscribe while being notified, taking effect from the next Publish.
func (f *Feed) Publish(e Event) {
	sig := e.Signature()
	f.mtx.RLock()
	listeners := make([]Listener, 0, len(f.subs))
	for _, sub := range f.subs {
		if sub.sig == sig {
			listeners = append(listeners, sub.listener)
		}
	}
	f.mtx.RUnlock()

	log.Tracef("Publishing %s to %d listeners", sig, len(listeners))
	for _, l := range listeners {
		l.Notify(e)
	}
}
