// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package db defines the archive of the order book. An Archiver stores every
// order and fill, and a Recorder keeps an Archiver in sync with a book by
// listening to the book's events.
package db

import (
	"time"

	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/asset"
)

// Archiver is the interface required of an order book archive.
type Archiver interface {
	OrderArchiver
	FillArchiver
	// Close closes the archive.
	Close() error
}

// OrderArchiver stores orders.
type OrderArchiver interface {
	// Order retrieves the order with the given nonce. An unknown order is an
	// ArchiveError with code ErrUnknownOrder.
	Order(pair order.Pair, nonce uint64) (*order.Order, error)
	// Orders retrieves all archived orders.
	Orders() ([]*order.Order, error)
	// StoreOrder stores a new order. Storing an order that already exists is
	// an ArchiveError with code ErrOrderExists.
	StoreOrder(ord *order.Order) error
	// UpdateOrderStatus sets the status and update time of an archived order.
	UpdateOrderStatus(pair order.Pair, nonce uint64, status order.Status, stamp time.Time) error
}

// FillArchiver stores fills.
type FillArchiver interface {
	// Fills retrieves all archived fills.
	Fills() ([]*order.Fill, error)
	// StoreFill stores the fill and applies it to the filled order, adding
	// the fill's BidFilled to the order's and setting the order's status to
	// the fill's Status.
	StoreFill(fill *order.Fill) error
}

// LedgerArchiver is an Archiver that also stores the asset ledger.
type LedgerArchiver interface {
	Archiver
	// AssetLedger is the ledger stored alongside the archive.
	AssetLedger() asset.Ledger
}

// ApplyFill adds an archived fill to its archived order. The fill must not
// take the order past its BidAmount.
func ApplyFill(ord *order.Order, fill *order.Fill) error {
	if ord.Pair != fill.Pair || ord.Nonce != fill.Nonce {
		return ArchiveError{Code: ErrInvalidFill, Detail: "fill of another order " + fill.OrderID().String()}
	}
	ord.BidFilled.Add(&ord.BidFilled, &fill.BidFilled)
	if ord.BidFilled.Gt(&ord.BidAmount) {
		return ArchiveError{Code: ErrInvalidFill, Detail: "fill exceeds order " + ord.String()}
	}
	ord.Status, ord.UpdatedAt = fill.Status, fill.Stamp
	return nil
}
