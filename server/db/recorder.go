// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package db

import (
	"sync"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/feed"
)

// Recorder writes the book's lifecycle events to an Archiver. When a write
// fails the archive no longer matches the book, so the Recorder stops writing,
// keeps the error for LastErr, and closes the Fatal channel.
type Recorder struct {
	archiver Archiver
	log      dex.Logger

	mtx     sync.Mutex
	lastErr error
	fatal   chan struct{}
	ids     []uint64
}

var _ feed.LifecycleListener = (*Recorder)(nil)

// NewRecorder is the constructor for a Recorder. A nil logger disables
// logging.
func NewRecorder(archiver Archiver, logger dex.Logger) *Recorder {
	if logger == nil {
		logger = dex.Disabled
	}
	return &Recorder{
		archiver: archiver,
		log:      logger,
		fatal:    make(chan struct{}),
	}
}

// Subscribe registers the Recorder with the Feed.
func (r *Recorder) Subscribe(f *feed.Feed) {
	ids := f.SubscribeLifecycle(r)
	r.mtx.Lock()
	r.ids = append(r.ids, ids...)
	r.mtx.Unlock()
}

// Unsubscribe removes the Recorder's subscriptions from the Feed.
func (r *Recorder) Unsubscribe(f *feed.Feed) {
	r.mtx.Lock()
	ids := r.ids
	r.ids = nil
	r.mtx.Unlock()
	for _, id := range ids {
		f.Unsubscribe(id)
	}
}

// Fatal returns a channel that is closed when a write fails.
func (r *Recorder) Fatal() <-chan struct{} {
	return r.fatal
}

// LastErr returns the error that closed the Fatal channel, or nil.
func (r *Recorder) LastErr() error {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return r.lastErr
}

func (r *Recorder) record(what string, write func() error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.lastErr != nil {
		r.log.Warnf("Archive failed, not recording %s", what)
		return
	}
	if err := write(); err != nil {
		r.log.Errorf("Error recording %s: %v", what, err)
		r.lastErr = err
		close(r.fatal)
		return
	}
	r.log.Tracef("Recorded %s", what)
}

// OrderCreated stores the new order.
func (r *Recorder) OrderCreated(e *feed.OrderCreated) {
	r.record("order "+e.Order.String(), func() error {
		return r.archiver.StoreOrder(e.Order)
	})
}

// OrderFilled stores the fill.
func (r *Recorder) OrderFilled(e *feed.OrderFilled) {
	fill := e.Fill()
	r.record("fill of "+fill.OrderID().String(), func() error {
		return r.archiver.StoreFill(fill)
	})
}

// OrderCancelled marks the order cancelled.
func (r *Recorder) OrderCancelled(e *feed.OrderCancelled) {
	r.record("cancellation of "+e.Pair.ID(e.Nonce).String(), func() error {
		return r.archiver.UpdateOrderStatus(e.Pair, e.Nonce, order.StatusCancelled, e.Stamp)
	})
}
