// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package feed

import (
	"time"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/order"
	"github.com/holiman/uint256"
)

// Signature identifies an event type.
type Signature uint8

// Event signatures.
const (
	SigOrderCreated Signature = iota + 1
	SigOrderFilled
	SigOrderCancelled
	SigPriceChanged
)

// String implements Stringer.
func (s Signature) String() string {
	switch s {
	case SigOrderCreated:
		return "OrderCreated"
	case SigOrderFilled:
		return "OrderFilled"
	case SigOrderCancelled:
		return "OrderCancelled"
	case SigPriceChanged:
		return "PriceChanged"
	}
	return "unknown"
}

// Event is implemented by all events published on a Feed.
type Event interface {
	Signature() Signature
}

// OrderCreated is published when an order is created.
type OrderCreated struct {
	Order *order.Order
	Stamp time.Time
}

// Signature is SigOrderCreated.
func (*OrderCreated) Signature() Signature { return SigOrderCreated }

// OrderFilled is published once for every order touched by a fill.
type OrderFilled struct {
	order.Pair
	Nonce uint64
	Maker dex.Address
	Taker dex.Address
	// BidFilled is the bid amount moved by this fill.
	BidFilled uint256.Int
	AskFilled uint256.Int
	// TotalFilled is the order's cumulative bid fill after this fill.
	TotalFilled uint256.Int
	Status      order.Status
	FeeAmount   uint256.Int
	AskAmount   uint256.Int
	BidAmount   uint256.Int
	// Rate is the encoded price of this fill, BidFilled over AskFilled.
	Rate  uint256.Int
	Seq   uint64
	Stamp time.Time
}

// Signature is SigOrderFilled.
func (*OrderFilled) Signature() Signature { return SigOrderFilled }

// Fill is the fill record described by the event.
func (e *OrderFilled) Fill() *order.Fill {
	return &order.Fill{
		Pair:      e.Pair,
		Nonce:     e.Nonce,
		Seq:       e.Seq,
		Maker:     e.Maker,
		Taker:     e.Taker,
		AskFilled: e.AskFilled,
		BidFilled: e.BidFilled,
		FeeAmount: e.FeeAmount,
		Rate:      e.Rate,
		Status:    e.Status,
		Stamp:     e.Stamp,
	}
}

// OrderCancelled is published when a maker cancels an order.
type OrderCancelled struct {
	order.Pair
	Nonce uint64
	Maker dex.Address
	Stamp time.Time
}

// Signature is SigOrderCancelled.
func (*OrderCancelled) Signature() Signature { return SigOrderCancelled }

// PriceChanged is published when the best price of a pair changes. Zero
// amounts mean the pair has no fillable order.
type PriceChanged struct {
	order.Pair
	AskAmount uint256.Int
	BidAmount uint256.Int
	Stamp     time.Time
}

// Signature is SigPriceChanged.
func (*PriceChanged) Signature() Signature { return SigPriceChanged }

// Empty is true if the pair has no fillable order.
func (e *PriceChanged) Empty() bool {
	return e.AskAmount.IsZero() && e.BidAmount.IsZero()
}
