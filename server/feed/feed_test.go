// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package feed

import (
	"testing"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/order"
)

type tLifecycle struct {
	got []Signature
}

func (l *tLifecycle) OrderCreated(*OrderCreated)     { l.got = append(l.got, SigOrderCreated) }
func (l *tLifecycle) OrderFilled(*OrderFilled)       { l.got = append(l.got, SigOrderFilled) }
func (l *tLifecycle) OrderCancelled(*OrderCancelled) { l.got = append(l.got, SigOrderCancelled) }

func TestFeed(t *testing.T) {
	UseLogger(dex.StdOutLogger("FEEDTEST", dex.LevelTrace))
	f := New()

	var calls []string
	id1 := f.Subscribe(SigPriceChanged, ListenerFunc(func(Event) { calls = append(calls, "first") }))
	f.Subscribe(SigPriceChanged, ListenerFunc(func(Event) { calls = append(calls, "second") }))
	f.Subscribe(SigOrderFilled, ListenerFunc(func(Event) { calls = append(calls, "filled") }))

	f.Publish(&PriceChanged{})
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Fatalf("wrong delivery %v", calls)
	}

	if !f.Unsubscribe(id1) {
		t.Fatalf("Unsubscribe failed")
	}
	if f.Unsubscribe(id1) {
		t.Fatalf("second Unsubscribe succeeded")
	}
	calls = nil
	f.Publish(&PriceChanged{})
	if len(calls) != 1 || calls[0] != "second" {
		t.Fatalf("wrong delivery after unsubscribe %v", calls)
	}
}

func TestSubscribeLifecycle(t *testing.T) {
	f := New()
	l := new(tLifecycle)
	ids := f.SubscribeLifecycle(l)
	if len(ids) != 3 {
		t.Fatalf("wanted 3 subscriptions, got %d", len(ids))
	}
	f.Publish(&OrderCreated{Order: &order.Order{}})
	f.Publish(&PriceChanged{})
	f.Publish(&OrderFilled{})
	f.Publish(&OrderCancelled{})
	want := []Signature{SigOrderCreated, SigOrderFilled, SigOrderCancelled}
	if len(l.got) != len(want) {
		t.Fatalf("wrong events %v", l.got)
	}
	for i := range want {
		if l.got[i] != want[i] {
			t.Fatalf("event %d: wanted %s, got %s", i, want[i], l.got[i])
		}
	}
}

func TestFillFromEvent(t *testing.T) {
	e := &OrderFilled{Nonce: 4, Seq: 9, Status: order.StatusFilled}
	e.BidFilled.SetUint64(10)
	fill := e.Fill()
	if fill.Nonce != 4 || fill.Seq != 9 || fill.BidFilled.Uint64() != 10 || fill.Status != order.StatusFilled {
		t.Fatalf("wrong fill %+v", fill)
	}
}
