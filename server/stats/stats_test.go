// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package stats

import (
	"errors"
	"testing"
	"time"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/candles"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/asset"
	"decred.org/dexcore/server/asset/fungible"
	"decred.org/dexcore/server/book"
	"decred.org/dexcore/server/feed"
	"github.com/davecgh/go-spew/spew"
	"github.com/holiman/uint256"
)

var (
	tNow    = time.Unix(1700000030, 0)
	tNowBin = tNow.Unix() / 60 * 60
	tPair   = order.Pair{
		Ask: dex.BytesToAddress([]byte{0x0a}),
		Bid: dex.BytesToAddress([]byte{0x0b}),
	}
)

func newTestStats() *Stats {
	UseLogger(dex.StdOutLogger("STATTEST", dex.LevelTrace))
	return New(&Config{Now: func() time.Time { return tNow }})
}

func filled(stamp int64, bidVol, rate uint64) *feed.OrderFilled {
	e := &feed.OrderFilled{
		Pair:   tPair,
		Stamp:  time.Unix(stamp, 0),
		Status: order.StatusOpen,
	}
	e.BidFilled.SetUint64(bidVol)
	e.AskFilled.SetUint64(bidVol / 2)
	e.Rate.SetUint64(rate)
	return e
}

func TestQuotesDefaults(t *testing.T) {
	s := newTestStats()
	cs, err := s.Quotes(tPair, &QuoteRequest{})
	if err != nil {
		t.Fatalf("Quotes error: %v", err)
	}
	if len(cs) != 60 {
		t.Fatalf("wanted 60 candles, got %d", len(cs))
	}
	if cs[0].StartStamp != tNowBin-3600 || cs[59].EndStamp != tNowBin-1 {
		t.Fatalf("wrong default range %d - %d", cs[0].StartStamp, cs[59].EndStamp)
	}
	for i, c := range cs {
		if !c.Volume.IsZero() || c.Volume.Dec() != "0" {
			t.Fatalf("candle %d has volume %s", i, c.Volume.Dec())
		}
	}
}

func TestQuotesRanges(t *testing.T) {
	s := newTestStats()
	unix := func(stamp int64) time.Time { return time.Unix(stamp, 0) }
	twoHoursAgo := tNow.Add(-2 * time.Hour)
	twoHoursAgoBin := twoHoursAgo.Unix() / 60 * 60

	tests := []struct {
		name      string
		req       *QuoteRequest
		count     int
		start     int64
		candleLen int64
		wantErr   error
	}{
		{"to only", &QuoteRequest{To: twoHoursAgo}, 60, twoHoursAgoBin - 3600, 60, nil},
		{"from only", &QuoteRequest{From: unix(tNowBin - 600 + 13)}, 10, tNowBin - 600, 60, nil},
		{"5 minute candles", &QuoteRequest{From: unix(tNowBin - 3600), To: tNow, Resolution: 300}, 12, tNowBin - 3600, 300, nil},
		{"uneven resolution", &QuoteRequest{From: unix(tNowBin - 3600), Resolution: 420}, 9, tNowBin - 3780, 420, nil},
		{"max candles", &QuoteRequest{From: unix(tNowBin - 60*candles.MaxCandles)}, candles.MaxCandles, tNowBin - 60*candles.MaxCandles, 60, nil},
		{"bad resolution", &QuoteRequest{Resolution: 90}, 0, 0, 0, ErrInvalidResolution},
		{"negative resolution", &QuoteRequest{Resolution: -60}, 0, 0, 0, ErrInvalidResolution},
		{"inverted range", &QuoteRequest{From: tNow, To: twoHoursAgo}, 0, 0, 0, ErrInvalidRange},
		{"same minute", &QuoteRequest{From: unix(tNowBin + 1), To: unix(tNowBin + 50)}, 0, 0, 0, ErrInvalidRange},
		{"too many candles", &QuoteRequest{From: unix(tNowBin - 60*(candles.MaxCandles+1))}, 0, 0, 0, ErrTooManyCandles},
	}
	for _, tt := range tests {
		cs, err := s.Quotes(tPair, tt.req)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("%s: wanted %v, got %v", tt.name, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: Quotes error: %v", tt.name, err)
		}
		if len(cs) != tt.count {
			t.Fatalf("%s: wanted %d candles, got %d", tt.name, tt.count, len(cs))
		}
		if cs[0].StartStamp != tt.start {
			t.Fatalf("%s: wanted start %d, got %d", tt.name, tt.start, cs[0].StartStamp)
		}
		for i, c := range cs {
			if c.EndStamp-c.StartStamp+1 != tt.candleLen {
				t.Fatalf("%s: candle %d spans %d seconds", tt.name, i, c.EndStamp-c.StartStamp+1)
			}
			if i > 0 && c.StartStamp != cs[i-1].EndStamp+1 {
				t.Fatalf("%s: candle %d not contiguous", tt.name, i)
			}
		}
	}
}

func TestQuotesCarryForward(t *testing.T) {
	s := newTestStats()
	s.OrderFilled(filled(tNowBin-7200, 999, 300))   // before the window
	s.OrderFilled(filled(tNowBin-3000+5, 100, 200)) // candle 10
	s.OrderFilled(filled(tNowBin-1200+1, 50, 400))  // candle 40
	s.OrderFilled(filled(tNowBin-1200+30, 25, 100)) // candle 40
	s.OrderFilled(filled(tNowBin+10, 5, 1))         // current minute, excluded

	cs, err := s.Quotes(tPair, &QuoteRequest{})
	if err != nil {
		t.Fatalf("Quotes error: %v", err)
	}
	var vol uint256.Int
	for _, c := range cs {
		vol.Add(&vol, &c.Volume)
	}
	if vol.Uint64() != 175 {
		t.Fatalf("wanted window volume 175, got %s", vol.Dec())
	}
	for i, c := range cs {
		var want uint64
		switch {
		case i < 10:
			want = 300
		case i < 40:
			want = 200
		default:
			want = 100
		}
		if c.EndRate.Uint64() != want {
			t.Fatalf("candle %d: wanted close %d, got %s", i, want, c.EndRate.Dec())
		}
	}
	c := cs[40]
	if c.Trades != 2 || c.StartRate.Uint64() != 400 || c.HighRate.Uint64() != 400 || c.LowRate.Uint64() != 100 {
		t.Fatalf("wrong candle 40 %s", spew.Sdump(c))
	}
	if cs[0].Trades != 0 || cs[0].StartRate.Uint64() != 300 {
		t.Fatalf("leading candle did not carry the earlier close")
	}

	// With nothing before the window, the leading candles report zero.
	other := order.Pair{Ask: tPair.Bid, Bid: tPair.Ask}
	e := filled(tNowBin-600, 10, 50)
	e.Pair = other
	s.OrderFilled(e)
	cs, _ = s.Quotes(other, &QuoteRequest{})
	if !cs[49].EndRate.IsZero() || cs[50].EndRate.Uint64() != 50 || cs[59].EndRate.Uint64() != 50 {
		t.Fatalf("wrong leading rates")
	}
}

func TestSummaryAndPrice(t *testing.T) {
	s := newTestStats()
	f := feed.New()
	if ids := s.Subscribe(f); len(ids) != 4 {
		t.Fatalf("wanted 4 subscriptions, got %d", len(ids))
	}
	if _, ok := s.Price(tPair); ok {
		t.Fatalf("price known before any event")
	}
	f.Publish(&feed.OrderCreated{Order: &order.Order{Pair: tPair}})
	f.Publish(&feed.OrderCreated{Order: &order.Order{Pair: tPair, Nonce: 1}})
	e := filled(tNowBin-100, 40, 7)
	e.Status = order.StatusFilled
	f.Publish(e)
	f.Publish(&feed.OrderCancelled{Pair: tPair, Nonce: 1})
	pc := &feed.PriceChanged{Pair: tPair}
	pc.AskAmount.SetUint64(3)
	pc.BidAmount.SetUint64(9)
	f.Publish(pc)

	sum := s.Summary(tPair)
	if sum.Created != 2 || sum.Fills != 1 || sum.Filled != 1 || sum.Cancelled != 1 ||
		sum.Volume.Uint64() != 40 || sum.AskVolume.Uint64() != 20 || sum.LastRate.Uint64() != 7 ||
		!sum.LastTrade.Equal(e.Stamp) {
		t.Fatalf("wrong summary %s", spew.Sdump(sum))
	}
	price, ok := s.Price(tPair)
	if !ok || price.AskAmount.Uint64() != 3 || price.BidAmount.Uint64() != 9 {
		t.Fatalf("wrong price %s", spew.Sdump(price))
	}
}

func TestReplay(t *testing.T) {
	s := newTestStats()
	s.OrderFilled(filled(tNowBin-60, 1000, 1))
	fill := filled(tNowBin-120, 30, 5).Fill()
	s.Replay([]*order.Order{
		{Pair: tPair, Status: order.StatusOpen},
		{Pair: tPair, Nonce: 1, Status: order.StatusCancelled},
	}, []*order.Fill{fill})
	sum := s.Summary(tPair)
	if sum.Created != 2 || sum.Cancelled != 1 || sum.Volume.Uint64() != 30 {
		t.Fatalf("wrong replayed summary %s", spew.Sdump(sum))
	}
	cs, _ := s.Quotes(tPair, &QuoteRequest{})
	if cs[58].Volume.Uint64() != 30 || !cs[59].Volume.IsZero() {
		t.Fatalf("wrong replayed candles")
	}
}

// TestBookRoundTrip drives a Book and checks that the candle volumes add up to
// the volumes of the published fills.
func TestBookRoundTrip(t *testing.T) {
	s := newTestStats()
	now := tNow.Add(-50 * time.Minute)
	clock := func() time.Time { return now }
	s.now = func() time.Time { return tNow }

	ledger := asset.NewMemoryLedger()
	fung := fungible.NewProxy(ledger, dex.Disabled)
	reg := asset.NewRegistry()
	reg.Register(dex.FungibleProxyID, fung)
	f := feed.New()
	s.Subscribe(f)
	var published uint256.Int
	f.Subscribe(feed.SigOrderFilled, feed.ListenerFunc(func(e feed.Event) {
		ev := e.(*feed.OrderFilled)
		published.Add(&published, &ev.BidFilled)
	}))
	b, err := book.New(&book.Config{Proxies: reg, Feed: f, Now: clock})
	if err != nil {
		t.Fatalf("book.New error: %v", err)
	}

	maker := dex.BytesToAddress([]byte{0x01})
	taker := dex.BytesToAddress([]byte{0x02})
	supply := uint256.NewInt(1e9)
	for _, owner := range []dex.Address{maker, taker} {
		for _, token := range []dex.Address{tPair.Ask, tPair.Bid} {
			fung.Mint(token, owner, supply)
			fung.Approve(token, owner, fungible.ProxyAddress, supply)
		}
	}

	for i := 0; i < 8; i++ {
		ord, err := b.CreateOrder(&book.OrderParams{
			Pair:       tPair,
			Maker:      maker,
			AskProxyID: dex.FungibleProxyID,
			AskAmount:  *uint256.NewInt(uint64(1000 * (i + 1))),
			BidProxyID: dex.FungibleProxyID,
			BidAmount:  *uint256.NewInt(uint64(3000 * (i + 1))),
		})
		if err != nil {
			t.Fatalf("CreateOrder error: %v", err)
		}
		for j := 0; j < 3; j++ {
			now = now.Add(97 * time.Second)
			_, err = b.FillOrder(&book.FillParams{
				Pair:   tPair,
				Nonce:  ord.Nonce,
				Taker:  taker,
				Amount: *uint256.NewInt(uint64(700 * (j + 1))),
			})
			if err != nil {
				t.Fatalf("FillOrder error: %v", err)
			}
		}
	}
	if now.After(tNow) {
		t.Fatalf("fills past the query window")
	}

	cs, err := s.Quotes(tPair, &QuoteRequest{From: tNow.Add(-time.Hour), To: tNow.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Quotes error: %v", err)
	}
	var vol uint256.Int
	var trades uint32
	for _, c := range cs {
		vol.Add(&vol, &c.Volume)
		trades += c.Trades
	}
	if !vol.Eq(&published) || trades != 24 {
		t.Fatalf("candle volume %s in %d trades, published %s in 24", vol.Dec(), trades, published.Dec())
	}
	if sum := s.Summary(tPair); sum.Created != 8 || sum.Fills != 24 || !sum.Volume.Eq(&published) {
		t.Fatalf("wrong summary %s", spew.Sdump(sum))
	}
	if pc, ok := s.Price(tPair); !ok || pc.Empty() {
		t.Fatalf("no best price recorded")
	}
}

func TestCandleFillRate(t *testing.T) {
	s := newTestStats()
	ledger := asset.NewMemoryLedger()
	fung := fungible.NewProxy(ledger, dex.Disabled)
	reg := asset.NewRegistry()
	reg.Register(dex.FungibleProxyID, fung)
	f := feed.New()
	s.Subscribe(f)
	stamp := tNow.Add(-10 * time.Minute)
	b, err := book.New(&book.Config{Proxies: reg, Feed: f, Now: func() time.Time { return stamp }})
	if err != nil {
		t.Fatalf("book.New error: %v", err)
	}

	maker := dex.BytesToAddress([]byte{0x01})
	taker := dex.BytesToAddress([]byte{0x02})
	supply := uint256.NewInt(1e9)
	for _, owner := range []dex.Address{maker, taker} {
		for _, token := range []dex.Address{tPair.Ask, tPair.Bid} {
			fung.Mint(token, owner, supply)
			fung.Approve(token, owner, fungible.ProxyAddress, supply)
		}
	}
	ord, err := b.CreateOrder(&book.OrderParams{
		Pair:       tPair,
		Maker:      maker,
		AskProxyID: dex.FungibleProxyID,
		AskAmount:  *uint256.NewInt(3),
		BidProxyID: dex.FungibleProxyID,
		BidAmount:  *uint256.NewInt(10),
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if _, err = b.FillOrder(&book.FillParams{
		Pair:   tPair,
		Nonce:  ord.Nonce,
		Taker:  taker,
		Amount: *uint256.NewInt(7),
	}); err != nil {
		t.Fatalf("FillOrder error: %v", err)
	}

	cs, err := s.Quotes(tPair, &QuoteRequest{From: tNow.Add(-time.Hour), To: tNow.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Quotes error: %v", err)
	}
	var found bool
	for _, c := range cs {
		if c.Trades == 0 {
			continue
		}
		found = true
		// The order is priced at 333333333 but the fill at 7/2.
		for _, r := range []uint256.Int{c.StartRate, c.EndRate, c.HighRate, c.LowRate} {
			if r.Uint64() != 350000000 {
				t.Fatalf("candle priced at the order rate %s", spew.Sdump(c))
			}
		}
		if c.Volume.Uint64() != 7 || c.AskVolume.Uint64() != 2 {
			t.Fatalf("wrong candle volume %s", spew.Sdump(c))
		}
	}
	if !found {
		t.Fatalf("no candle for the fill")
	}
}
