// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package book

import (
	"math/rand"
	"testing"

	"decred.org/dexcore/dex"
	"github.com/holiman/uint256"
)

func TestPriceQueue(t *testing.T) {
	pq := newPriceQueue()
	if pq.PeekBest() != nil || pq.snapshot().present {
		t.Fatalf("empty queue has a best order")
	}
	insert := func(nonce, ask, bid uint64) {
		if !pq.Insert(nonce, uint256.NewInt(ask), uint256.NewInt(bid)) {
			t.Fatalf("failed to insert order %d", nonce)
		}
	}
	insert(0, 100, 300) // 3
	insert(1, 100, 200) // 2
	insert(2, 50, 100)  // 2, tie with 1
	insert(3, 10, 100)  // 10
	if pq.Insert(1, uint256.NewInt(1), uint256.NewInt(1)) {
		t.Fatalf("duplicate nonce inserted")
	}
	if pq.Count() != 4 || !pq.Contains(3) {
		t.Fatalf("wrong queue contents")
	}
	if best := pq.PeekBest(); best.nonce != 1 {
		t.Fatalf("wanted best nonce 1, got %d", best.nonce)
	}
	before := pq.snapshot()
	pq.Remove(1)
	after := pq.snapshot()
	if pq.PeekBest().nonce != 2 {
		t.Fatalf("tie not broken by nonce")
	}
	if before.changed(after) {
		t.Fatalf("tied replacement counted as a change")
	}
	pq.Remove(2)
	if !after.changed(pq.snapshot()) {
		t.Fatalf("price increase not counted as a change")
	}
	if pq.Remove(2) {
		t.Fatalf("removed a missing order")
	}
	pq.Remove(0)
	pq.Remove(3)
	if !before.changed(pq.snapshot()) || pq.snapshot().changed(bestPrice{}) {
		t.Fatalf("wrong change detection for an empty queue")
	}
}

func TestPriceQueueRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(-3405439173988651889))
	pq := newPriceQueue()
	type price struct{ ask, bid uint64 }
	live := make(map[uint64]price)
	for nonce := uint64(0); nonce < 2000; nonce++ {
		p := price{uint64(rnd.Intn(90)) + 1, uint64(rnd.Intn(90)) + 1}
		pq.Insert(nonce, uint256.NewInt(p.ask), uint256.NewInt(p.bid))
		live[nonce] = p
		if rnd.Intn(3) == 0 {
			victim := uint64(rnd.Int63n(int64(nonce) + 1))
			if pq.Remove(victim) {
				delete(live, victim)
			}
		}
	}
	if pq.Count() != len(live) {
		t.Fatalf("queue has %d orders, wanted %d", pq.Count(), len(live))
	}
	var lastAsk, lastBid uint256.Int
	var lastNonce uint64
	for i := 0; pq.Count() > 0; i++ {
		best := pq.PeekBest()
		if i > 0 {
			cmp := dex.ComparePrice(&lastAsk, &lastBid, &best.askAmount, &best.bidAmount)
			if cmp > 0 || (cmp == 0 && lastNonce > best.nonce) {
				t.Fatalf("order %d out of priority order", best.nonce)
			}
		}
		lastAsk, lastBid, lastNonce = best.askAmount, best.bidAmount, best.nonce
		pq.Remove(best.nonce)
	}
}
