// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package dbtest is a test suite for the archive drivers.
package dbtest

import (
	"bytes"
	"errors"
	"reflect"
	"testing"
	"time"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/asset"
	"decred.org/dexcore/server/asset/fungible"
	"decred.org/dexcore/server/asset/nft"
	"decred.org/dexcore/server/book"
	"decred.org/dexcore/server/db"
	"decred.org/dexcore/server/feed"
	"github.com/davecgh/go-spew/spew"
	"github.com/holiman/uint256"
)

// Run runs the suite. newDB must return an empty database, closed by the
// test's cleanup.
func Run(t *testing.T, newDB func(t *testing.T) db.LedgerArchiver) {
	t.Run("OrdersAndFills", func(t *testing.T) {
		testOrdersAndFills(t, newDB(t))
	})
	t.Run("Ledger", func(t *testing.T) {
		testLedger(t, newDB(t).AssetLedger())
	})
	t.Run("BookArchive", func(t *testing.T) {
		arch := newDB(t)
		testBookArchive(t, arch, arch.AssetLedger())
	})
}

// RunArchive runs the suite for an archive without a ledger, using a memory
// ledger for the book. newArchive must return an empty archive, closed by the
// test's cleanup.
func RunArchive(t *testing.T, newArchive func(t *testing.T) db.Archiver) {
	t.Run("OrdersAndFills", func(t *testing.T) {
		testOrdersAndFills(t, newArchive(t))
	})
	t.Run("BookArchive", func(t *testing.T) {
		testBookArchive(t, newArchive(t), asset.NewMemoryLedger())
	})
}

var (
	tAskToken = dex.BytesToAddress([]byte{0x0a})
	tBidToken = dex.BytesToAddress([]byte{0x0b})
	tColl     = dex.BytesToAddress([]byte{0x0c})
	tMaker    = dex.BytesToAddress([]byte{0x11})
	tTaker    = dex.BytesToAddress([]byte{0x22})
	// TPair is the pair of the suite's orders.
	TPair  = order.Pair{Ask: tAskToken, Bid: tBidToken}
	tStamp = time.Unix(1700000000, 0).UTC()
)

func amt(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}

// TOrder is an open order of TPair.
func TOrder(nonce uint64) *order.Order {
	return &order.Order{
		Pair:       TPair,
		Nonce:      nonce,
		Maker:      tMaker,
		AskProxyID: dex.FungibleProxyID,
		AskAmount:  amt(100),
		BidProxyID: dex.FungibleProxyID,
		BidAmount:  amt(200),
		BidData:    []byte{0x01, 0x02},
		FeeAmount:  amt(3),
		Status:     order.StatusOpen,
		CreatedAt:  tStamp,
		UpdatedAt:  tStamp,
	}
}

func testOrdersAndFills(t *testing.T, arch db.Archiver) {
	revPair := TPair.Reverse()
	for nonce := uint64(0); nonce < 3; nonce++ {
		if err := arch.StoreOrder(TOrder(nonce)); err != nil {
			t.Fatalf("StoreOrder error: %v", err)
		}
	}
	rev := TOrder(0)
	rev.Pair = revPair
	if err := arch.StoreOrder(rev); err != nil {
		t.Fatalf("StoreOrder error: %v", err)
	}
	if err := arch.StoreOrder(TOrder(1)); !db.IsErrOrderExists(err) {
		t.Fatalf("wrong error for duplicate order: %v", err)
	}
	bad := TOrder(5)
	bad.Pair.Bid = dex.ZeroAddress
	if err := arch.StoreOrder(bad); !db.IsErrInvalidOrder(err) {
		t.Fatalf("wrong error for invalid pair: %v", err)
	}

	ord, err := arch.Order(TPair, 1)
	if err != nil {
		t.Fatalf("Order error: %v", err)
	}
	if !reflect.DeepEqual(ord, TOrder(1)) {
		t.Fatalf("wrong order retrieved: %s", spew.Sdump(ord))
	}
	if _, err := arch.Order(TPair, 3); !db.IsErrOrderUnknown(err) {
		t.Fatalf("wrong error for unknown order: %v", err)
	}

	fillStamp := tStamp.Add(time.Minute)
	fill := &order.Fill{
		Pair:      TPair,
		Nonce:     1,
		Seq:       0,
		Maker:     tMaker,
		Taker:     tTaker,
		AskFilled: amt(50),
		BidFilled: amt(100),
		Rate:      amt(2e8),
		Status:    order.StatusOpen,
		Stamp:     fillStamp,
	}
	if err := arch.StoreFill(fill); err != nil {
		t.Fatalf("StoreFill error: %v", err)
	}
	if err := arch.StoreFill(fill); !db.IsErrInvalidFill(err) {
		t.Fatalf("wrong error for duplicate fill: %v", err)
	}
	over := *fill
	over.Seq, over.BidFilled = 1, amt(101)
	if err := arch.StoreFill(&over); !db.IsErrInvalidFill(err) {
		t.Fatalf("wrong error for overfill: %v", err)
	}
	unknown := *fill
	unknown.Seq, unknown.Nonce = 1, 9
	if err := arch.StoreFill(&unknown); !db.IsErrOrderUnknown(err) {
		t.Fatalf("wrong error for fill of unknown order: %v", err)
	}
	last := *fill
	last.Seq, last.Status = 1, order.StatusFilled
	if err := arch.StoreFill(&last); err != nil {
		t.Fatalf("StoreFill error: %v", err)
	}

	ord, _ = arch.Order(TPair, 1)
	if ord.BidFilled.Uint64() != 200 || ord.Status != order.StatusFilled || !ord.UpdatedAt.Equal(fillStamp) {
		t.Fatalf("fills not applied: %s", spew.Sdump(ord))
	}

	if err := arch.UpdateOrderStatus(TPair, 2, order.StatusCancelled, fillStamp); err != nil {
		t.Fatalf("UpdateOrderStatus error: %v", err)
	}
	if err := arch.UpdateOrderStatus(TPair, 7, order.StatusCancelled, fillStamp); !db.IsErrOrderUnknown(err) {
		t.Fatalf("wrong error updating unknown order: %v", err)
	}

	ords, err := arch.Orders()
	if err != nil {
		t.Fatalf("Orders error: %v", err)
	}
	if len(ords) != 4 {
		t.Fatalf("expected 4 orders, got %d", len(ords))
	}
	for i, o := range ords[:3] {
		if o.Pair != TPair || o.Nonce != uint64(i) {
			t.Fatalf("orders not in nonce order: %s", spew.Sdump(ords))
		}
	}
	if ords[2].Status != order.StatusCancelled {
		t.Fatalf("status update not stored")
	}

	fills, err := arch.Fills()
	if err != nil {
		t.Fatalf("Fills error: %v", err)
	}
	if len(fills) != 2 || fills[0].Seq != 0 || fills[1].Seq != 1 || !reflect.DeepEqual(fills[0], fill) {
		t.Fatalf("wrong fills: %s", spew.Sdump(fills))
	}
}

func testLedger(t *testing.T, ledger asset.Ledger) {
	fung := fungible.NewProxy(ledger, dex.Disabled)
	nfts := nft.NewProxy(ledger, dex.Disabled)

	bal := amt(1000)
	if err := fung.Mint(tAskToken, tMaker, &bal); err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	allowance := amt(600)
	if err := fung.Approve(tAskToken, tMaker, fungible.ProxyAddress, &allowance); err != nil {
		t.Fatalf("Approve error: %v", err)
	}
	send := amt(400)
	if err := fung.TransferFrom(tMaker, tTaker, &send, tAskToken, nil); err != nil {
		t.Fatalf("TransferFrom error: %v", err)
	}
	if err := fung.TransferFrom(tMaker, tTaker, &send, tAskToken, nil); !errors.Is(err, asset.ErrInsufficientAllowance) {
		t.Fatalf("wrong error exceeding allowance: %v", err)
	}
	if b, _ := fung.BalanceOf(tAskToken, tMaker); b.Uint64() != 600 {
		t.Fatalf("wrong maker balance %s", b.Dec())
	}
	if b, _ := fung.BalanceOf(tAskToken, tTaker); b.Uint64() != 400 {
		t.Fatalf("wrong taker balance %s", b.Dec())
	}
	if a, _ := fung.Allowance(tAskToken, tMaker, fungible.ProxyAddress); a.Uint64() != 200 {
		t.Fatalf("wrong remaining allowance %s", a.Dec())
	}

	// A failed update writes nothing.
	errTest := errors.New("test")
	err := ledger.Update(func(tx asset.LedgerTx) error {
		zero := amt(0)
		if err := tx.SetBalance(tAskToken, tTaker, &zero); err != nil {
			return err
		}
		return errTest
	})
	if !errors.Is(err, errTest) {
		t.Fatalf("wrong Update error: %v", err)
	}
	if b, _ := fung.BalanceOf(tAskToken, tTaker); b.Uint64() != 400 {
		t.Fatalf("failed update was written")
	}

	// Writes are refused in a View.
	err = ledger.View(func(tx asset.LedgerTx) error {
		one := amt(1)
		return tx.SetBalance(tAskToken, tTaker, &one)
	})
	if err == nil {
		t.Fatalf("no error writing in a view")
	}

	id := dex.TokenID{0x01}
	if err := nfts.Mint(tColl, id, tMaker); err != nil {
		t.Fatalf("nft Mint error: %v", err)
	}
	if err := nfts.Mint(tColl, id, tTaker); err == nil {
		t.Fatalf("minted an owned token")
	}
	if nfts.CanTransferFrom(tMaker, nil, tColl, id[:]) {
		t.Fatalf("transferable without approval")
	}
	if err := nfts.SetApprovalForAll(tColl, tMaker, nft.ProxyAddress, true); err != nil {
		t.Fatalf("SetApprovalForAll error: %v", err)
	}
	if err := nfts.TransferFrom(tMaker, tTaker, nil, tColl, id[:]); err != nil {
		t.Fatalf("nft TransferFrom error: %v", err)
	}
	if owner, _ := nfts.OwnerOf(tColl, id); owner != tTaker {
		t.Fatalf("wrong owner %s", owner)
	}
	if err := nfts.SetApprovalForAll(tColl, tMaker, nft.ProxyAddress, false); err != nil {
		t.Fatalf("SetApprovalForAll error: %v", err)
	}
	ledger.View(func(tx asset.LedgerTx) error {
		if ok, _ := tx.IsApprovedForAll(tColl, tMaker, nft.ProxyAddress); ok {
			t.Fatalf("approval not revoked")
		}
		return nil
	})
}

// testBookArchive drives a book backed by the ledger and archive, then
// restores a second book from the archive.
func testBookArchive(t *testing.T, arch db.Archiver, ledger asset.Ledger) {
	fung := fungible.NewProxy(ledger, dex.Disabled)
	reg := asset.NewRegistry()
	if err := reg.Register(dex.FungibleProxyID, fung); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	for _, owner := range []dex.Address{tMaker, tTaker} {
		for _, token := range []dex.Address{tAskToken, tBidToken} {
			bal := amt(1e9)
			fung.Mint(token, owner, &bal)
			fung.Approve(token, owner, fungible.ProxyAddress, &bal)
		}
	}

	f := feed.New()
	rec := db.NewRecorder(arch, dex.Disabled)
	rec.Subscribe(f)
	now := tStamp
	b, err := book.New(&book.Config{Proxies: reg, Feed: f, Now: func() time.Time { return now }})
	if err != nil {
		t.Fatalf("book.New error: %v", err)
	}

	create := func(ask, bid uint64) {
		t.Helper()
		_, err := b.CreateOrder(&book.OrderParams{
			Pair:       TPair,
			Maker:      tMaker,
			AskProxyID: dex.FungibleProxyID,
			AskAmount:  amt(ask),
			BidProxyID: dex.FungibleProxyID,
			BidAmount:  amt(bid),
		})
		if err != nil {
			t.Fatalf("CreateOrder error: %v", err)
		}
	}
	create(100, 200)
	create(100, 300)
	create(50, 50)
	now = now.Add(time.Minute)
	if _, err := b.FillOrder(&book.FillParams{Pair: TPair, Nonce: 0, Taker: tTaker, Amount: amt(80)}); err != nil {
		t.Fatalf("FillOrder error: %v", err)
	}
	if _, err := b.FillAndCreateOrder(&book.FillParams{Pair: TPair, Nonce: 2, Taker: tTaker, Amount: amt(70)}); err != nil {
		t.Fatalf("FillAndCreateOrder error: %v", err)
	}
	if _, err := b.CancelOrder(TPair, 1, tMaker); err != nil {
		t.Fatalf("CancelOrder error: %v", err)
	}
	if err := rec.LastErr(); err != nil {
		t.Fatalf("recorder error: %v", err)
	}

	ords, err := arch.Orders()
	if err != nil {
		t.Fatalf("Orders error: %v", err)
	}
	fills, err := arch.Fills()
	if err != nil {
		t.Fatalf("Fills error: %v", err)
	}
	restored, err := book.New(&book.Config{Proxies: reg, Feed: feed.New()})
	if err != nil {
		t.Fatalf("book.New error: %v", err)
	}
	if err := restored.Restore(ords, fills); err != nil {
		t.Fatalf("Restore error: %v", err)
	}
	for _, pair := range b.Pairs() {
		want, got := b.Orders(pair, nil), restored.Orders(pair, nil)
		if len(want) != len(got) {
			t.Fatalf("restored %d orders, wanted %d", len(got), len(want))
		}
		for i := range want {
			if !bytes.Equal(order.EncodeOrder(want[i]), order.EncodeOrder(got[i])) {
				t.Fatalf("restored order differs:\n%s\n%s", spew.Sdump(want[i]), spew.Sdump(got[i]))
			}
		}
		if len(b.Fills(pair, nil)) != len(restored.Fills(pair, nil)) {
			t.Fatalf("restored fills differ")
		}
		wantAsk, wantBid, wantOK := b.BestPrice(pair)
		gotAsk, gotBid, gotOK := restored.BestPrice(pair)
		if wantOK != gotOK || !wantAsk.Eq(&gotAsk) || !wantBid.Eq(&gotBid) {
			t.Fatalf("restored best price differs")
		}
	}
}
