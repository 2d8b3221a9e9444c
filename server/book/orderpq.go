// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package book

import (
	"container/heap"

	"decred.org/dexcore/dex"
	"github.com/holiman/uint256"
)

// pricedOrder is the type stored in the priority queue. The price of an order
// is BidAmount/AskAmount and never changes.
type pricedOrder struct {
	nonce     uint64
	askAmount uint256.Int
	bidAmount uint256.Int
	heapIdx   int
}

type orderHeap []*pricedOrder

// priceQueue is a min-oriented priority queue of the fillable orders of one
// pair, keyed by price with the lower nonce breaking a tie. Orders are
// removed by nonce when they stop being fillable. priceQueue is not safe for
// concurrent use. The Book's lock protects it.
type priceQueue struct {
	oh     orderHeap
	orders map[uint64]*pricedOrder
}

func newPriceQueue() *priceQueue {
	return &priceQueue{
		orders: make(map[uint64]*pricedOrder),
	}
}

// Satisfy heap.Inferface (Len, Less, Swap, Push, Pop). Use the heap package
// functions via the other priceQueue methods instead of calling these.

func (pq *priceQueue) Len() int {
	return len(pq.oh)
}

func (pq *priceQueue) Less(i, j int) bool {
	return lessByPriceThenNonce(pq.oh[i], pq.oh[j])
}

func (pq *priceQueue) Swap(i, j int) {
	pq.oh[i], pq.oh[j] = pq.oh[j], pq.oh[i]
	pq.oh[i].heapIdx = i
	pq.oh[j].heapIdx = j
}

func (pq *priceQueue) Push(o interface{}) {
	entry := o.(*pricedOrder)
	entry.heapIdx = len(pq.oh)
	pq.orders[entry.nonce] = entry
	pq.oh = append(pq.oh, entry)
}

func (pq *priceQueue) Pop() interface{} {
	n := len(pq.oh)
	entry := pq.oh[n-1]
	pq.oh[n-1] = nil
	pq.oh = pq.oh[:n-1]
	entry.heapIdx = -1
	delete(pq.orders, entry.nonce)
	return entry
}

// End heap.Inferface.

// lessByPriceThenNonce defines a higher priority as having a lower price, with
// older orders breaking any tie.
func lessByPriceThenNonce(a, b *pricedOrder) bool {
	switch dex.ComparePrice(&a.askAmount, &a.bidAmount, &b.askAmount, &b.bidAmount) {
	case -1:
		return true
	case 1:
		return false
	}
	return a.nonce < b.nonce
}

// Insert adds the order. An order already in the queue is not added again.
func (pq *priceQueue) Insert(nonce uint64, askAmount, bidAmount *uint256.Int) bool {
	if _, found := pq.orders[nonce]; found {
		return false
	}
	heap.Push(pq, &pricedOrder{
		nonce:     nonce,
		askAmount: *askAmount,
		bidAmount: *bidAmount,
	})
	return true
}

// Remove removes the order with the nonce, if it is queued.
func (pq *priceQueue) Remove(nonce uint64) bool {
	entry, found := pq.orders[nonce]
	if !found {
		return false
	}
	heap.Remove(pq, entry.heapIdx)
	return true
}

// Contains checks if the order with the nonce is queued.
func (pq *priceQueue) Contains(nonce uint64) bool {
	_, found := pq.orders[nonce]
	return found
}

// PeekBest returns the lowest-priced order without removing it, or nil if the
// queue is empty.
func (pq *priceQueue) PeekBest() *pricedOrder {
	if len(pq.oh) == 0 {
		return nil
	}
	return pq.oh[0]
}

// Count is the number of queued orders.
func (pq *priceQueue) Count() int {
	return len(pq.oh)
}

// bestPrice is a snapshot of a pair's best price.
type bestPrice struct {
	present   bool
	askAmount uint256.Int
	bidAmount uint256.Int
}

func (pq *priceQueue) snapshot() bestPrice {
	best := pq.PeekBest()
	if best == nil {
		return bestPrice{}
	}
	return bestPrice{
		present:   true,
		askAmount: best.askAmount,
		bidAmount: best.bidAmount,
	}
}

// changed is true if the visible price differs between the snapshots. A
// different order at the same price is not a change.
func (bp bestPrice) changed(other bestPrice) bool {
	if bp.present != other.present {
		return true
	}
	if !bp.present {
		return false
	}
	return dex.ComparePrice(&bp.askAmount, &bp.bidAmount, &other.askAmount, &other.bidAmount) != 0
}
