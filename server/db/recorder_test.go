// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package db

import (
	"errors"
	"testing"
	"time"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/feed"
	"github.com/davecgh/go-spew/spew"
	"github.com/holiman/uint256"
)

var (
	tLogger = dex.StdOutLogger("XTEST", dex.LevelTrace)
	tPair   = order.Pair{Ask: dex.Address{0x01}, Bid: dex.Address{0x02}}
	tMaker  = dex.Address{0xaa}
	tTaker  = dex.Address{0xbb}
	tStamp  = time.Unix(1700000000, 0)
)

type TArchiver struct {
	orders   map[order.OrderID]*order.Order
	fills    []*order.Fill
	writeErr error
	closed   bool
}

func newTArchiver() *TArchiver {
	return &TArchiver{orders: make(map[order.OrderID]*order.Order)}
}

func (a *TArchiver) Order(pair order.Pair, nonce uint64) (*order.Order, error) {
	o := a.orders[pair.ID(nonce)]
	if o == nil {
		return nil, ArchiveError{Code: ErrUnknownOrder}
	}
	return o.Copy(), nil
}

func (a *TArchiver) Orders() ([]*order.Order, error) {
	ords := make([]*order.Order, 0, len(a.orders))
	for _, o := range a.orders {
		ords = append(ords, o.Copy())
	}
	return ords, nil
}

func (a *TArchiver) StoreOrder(o *order.Order) error {
	if a.writeErr != nil {
		return a.writeErr
	}
	if a.orders[o.ID()] != nil {
		return ArchiveError{Code: ErrOrderExists}
	}
	a.orders[o.ID()] = o.Copy()
	return nil
}

func (a *TArchiver) UpdateOrderStatus(pair order.Pair, nonce uint64, status order.Status, stamp time.Time) error {
	if a.writeErr != nil {
		return a.writeErr
	}
	o := a.orders[pair.ID(nonce)]
	if o == nil {
		return ArchiveError{Code: ErrUnknownOrder}
	}
	o.Status, o.UpdatedAt = status, stamp
	return nil
}

func (a *TArchiver) Fills() ([]*order.Fill, error) {
	return a.fills, nil
}

func (a *TArchiver) StoreFill(f *order.Fill) error {
	if a.writeErr != nil {
		return a.writeErr
	}
	o := a.orders[f.OrderID()]
	if o == nil {
		return ArchiveError{Code: ErrUnknownOrder}
	}
	o.BidFilled.Add(&o.BidFilled, &f.BidFilled)
	o.Status, o.UpdatedAt = f.Status, f.Stamp
	a.fills = append(a.fills, f)
	return nil
}

func (a *TArchiver) Close() error {
	a.closed = true
	return nil
}

func tOrder(nonce uint64) *order.Order {
	return &order.Order{
		Pair:       tPair,
		Nonce:      nonce,
		Maker:      tMaker,
		AskProxyID: dex.FungibleProxyID,
		AskAmount:  *uint256.NewInt(100),
		BidProxyID: dex.FungibleProxyID,
		BidAmount:  *uint256.NewInt(200),
		Status:     order.StatusOpen,
		CreatedAt:  tStamp,
		UpdatedAt:  tStamp,
	}
}

func isClosed(c <-chan struct{}) bool {
	select {
	case <-c:
		return true
	default:
		return false
	}
}

func TestRecorder(t *testing.T) {
	arch := newTArchiver()
	f := feed.New()
	rec := NewRecorder(arch, tLogger)
	rec.Subscribe(f)

	f.Publish(&feed.OrderCreated{Order: tOrder(0), Stamp: tStamp})
	f.Publish(&feed.OrderCreated{Order: tOrder(1), Stamp: tStamp})
	fillStamp := tStamp.Add(time.Minute)
	f.Publish(&feed.OrderFilled{
		Pair:        tPair,
		Nonce:       0,
		Maker:       tMaker,
		Taker:       tTaker,
		BidFilled:   *uint256.NewInt(50),
		AskFilled:   *uint256.NewInt(25),
		TotalFilled: *uint256.NewInt(50),
		Status:      order.StatusOpen,
		Stamp:       fillStamp,
	})
	f.Publish(&feed.OrderCancelled{Pair: tPair, Nonce: 1, Maker: tMaker, Stamp: fillStamp})
	// Not a lifecycle event.
	f.Publish(&feed.PriceChanged{Pair: tPair})

	if err := rec.LastErr(); err != nil {
		t.Fatalf("unexpected recorder error: %v", err)
	}
	if isClosed(rec.Fatal()) {
		t.Fatalf("fatal channel closed without an error")
	}

	o, _ := arch.Order(tPair, 0)
	if o.BidFilled.Uint64() != 50 || !o.UpdatedAt.Equal(fillStamp) || o.Status != order.StatusOpen {
		t.Fatalf("fill not applied: %s", spew.Sdump(o))
	}
	if len(arch.fills) != 1 || arch.fills[0].AskFilled.Uint64() != 25 || arch.fills[0].Taker != tTaker {
		t.Fatalf("wrong fills archived: %s", spew.Sdump(arch.fills))
	}
	o, _ = arch.Order(tPair, 1)
	if o.Status != order.StatusCancelled {
		t.Fatalf("cancellation not archived, status %s", o.Status)
	}

	// A failed write is fatal.
	arch.writeErr = errors.New("disk full")
	f.Publish(&feed.OrderCreated{Order: tOrder(2), Stamp: tStamp})
	if !isClosed(rec.Fatal()) {
		t.Fatalf("fatal channel not closed")
	}
	if !errors.Is(rec.LastErr(), arch.writeErr) {
		t.Fatalf("wrong last error %v", rec.LastErr())
	}

	// Nothing more is written, even once the archive recovers.
	arch.writeErr = nil
	f.Publish(&feed.OrderCreated{Order: tOrder(3), Stamp: tStamp})
	if _, err := arch.Order(tPair, 3); !IsErrOrderUnknown(err) {
		t.Fatalf("order written after a fatal error")
	}

	rec.Unsubscribe(f)
	rec2 := NewRecorder(arch, nil)
	rec2.Subscribe(f)
	f.Publish(&feed.OrderCreated{Order: tOrder(4), Stamp: tStamp})
	f.Publish(&feed.OrderCreated{Order: tOrder(4), Stamp: tStamp})
	if !IsErrOrderExists(rec2.LastErr()) {
		t.Fatalf("duplicate order not reported, got %v", rec2.LastErr())
	}
	if rec.LastErr() == rec2.LastErr() {
		t.Fatalf("unsubscribed recorder still notified")
	}
}

func TestSameErrorTypes(t *testing.T) {
	errA := ArchiveError{Code: ErrUnknownOrder, Detail: "a"}
	errB := ArchiveError{Code: ErrUnknownOrder, Detail: "b"}
	if !SameErrorTypes(errA, errB) {
		t.Errorf("same codes not matched")
	}
	if SameErrorTypes(errA, ArchiveError{Code: ErrInvalidFill}) {
		t.Errorf("different codes matched")
	}
	if SameErrorTypes(errA, errors.New("unknown order")) {
		t.Errorf("non-ArchiveError matched")
	}
	if errA.Error() != "unknown order: a" || (ArchiveError{Code: 99}).Error() != "unrecognized error" {
		t.Errorf("wrong error strings %q", errA.Error())
	}
}
