// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package stats aggregates the order book's trades into candles. Stats
// listens to the book's events, recording every fill into per-pair 60 second
// bins, and merges the bins into candles of any multiple of 60 seconds on
// request.
package stats

import (
	"fmt"
	"sync"
	"time"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/candles"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/feed"
	"github.com/holiman/uint256"
)

// ErrInvalidQuery is the kind of every Quotes request error.
const ErrInvalidQuery = dex.ErrorKind("invalid quote request")

var (
	ErrInvalidResolution = dex.NewError(ErrInvalidQuery, "resolution must be a positive multiple of 60 seconds")
	ErrInvalidRange      = dex.NewError(ErrInvalidQuery, "range start not before range end")
	ErrTooManyCandles    = dex.NewError(ErrInvalidQuery, "too many candles")
)

// Summary is the lifetime activity of a pair.
type Summary struct {
	Created   uint64
	Fills     uint64
	Filled    uint64
	Cancelled uint64
	// Volume is the bid asset volume.
	Volume uint256.Int
	// AskVolume is the ask asset volume.
	AskVolume uint256.Int
	LastRate  uint256.Int
	LastTrade time.Time
}

// QuoteRequest specifies a range of candles. A zero To is the current time.
// A zero From is an hour before the current time, or an hour before To if To
// is earlier. Both are rounded down to the minute, and To is exclusive. A
// zero Resolution is 60 seconds.
type QuoteRequest struct {
	From       time.Time
	To         time.Time
	Resolution int64
}

// Config is the Stats configuration.
type Config struct {
	// Now is optional, defaulting to time.Now.
	Now func() time.Time
}

// Stats is the quote aggregator. Stats is a feed.LifecycleListener.
type Stats struct {
	now func() time.Time

	cacheMtx  sync.RWMutex
	series    map[order.Pair]*candles.Series
	summaries map[order.Pair]*Summary

	priceMtx sync.RWMutex
	prices   map[order.Pair]*feed.PriceChanged
}

var _ feed.LifecycleListener = (*Stats)(nil)

// New is the constructor for a Stats.
func New(cfg *Config) *Stats {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Stats{
		now:       now,
		series:    make(map[order.Pair]*candles.Series),
		summaries: make(map[order.Pair]*Summary),
		prices:    make(map[order.Pair]*feed.PriceChanged),
	}
}

// Subscribe registers the Stats with the Feed for the lifecycle and price
// events.
func (s *Stats) Subscribe(f *feed.Feed) []uint64 {
	ids := f.SubscribeLifecycle(s)
	return append(ids, f.Subscribe(feed.SigPriceChanged, feed.ListenerFunc(func(e feed.Event) {
		s.PriceChanged(e.(*feed.PriceChanged))
	})))
}

// summary must be called with the cacheMtx locked.
func (s *Stats) summary(pair order.Pair) *Summary {
	sum := s.summaries[pair]
	if sum == nil {
		sum = new(Summary)
		s.summaries[pair] = sum
	}
	return sum
}

// OrderCreated counts the order.
func (s *Stats) OrderCreated(e *feed.OrderCreated) {
	s.cacheMtx.Lock()
	s.summary(e.Order.Pair).Created++
	s.cacheMtx.Unlock()
}

// OrderFilled records the fill in its bin at the fill's rate.
func (s *Stats) OrderFilled(e *feed.OrderFilled) {
	s.cacheMtx.Lock()
	defer s.cacheMtx.Unlock()
	s.addFill(e.Pair, e.Stamp, &e.Rate, &e.BidFilled, &e.AskFilled, e.Status)
	log.Tracef("Recorded fill of %s at rate %s on %s", e.BidFilled.Dec(), e.Rate.Dec(), e.Pair)
}

// addFill must be called with the cacheMtx locked.
func (s *Stats) addFill(pair order.Pair, stamp time.Time, rate, bidVol, askVol *uint256.Int, status order.Status) {
	series := s.series[pair]
	if series == nil {
		series = candles.NewSeries()
		s.series[pair] = series
	}
	series.Add(stamp, rate, bidVol, askVol)

	sum := s.summary(pair)
	sum.Fills++
	if status == order.StatusFilled {
		sum.Filled++
	}
	sum.Volume.Add(&sum.Volume, bidVol)
	sum.AskVolume.Add(&sum.AskVolume, askVol)
	if !stamp.Before(sum.LastTrade) {
		sum.LastTrade = stamp
		sum.LastRate = *rate
	}
}

// OrderCancelled counts the cancellation.
func (s *Stats) OrderCancelled(e *feed.OrderCancelled) {
	s.cacheMtx.Lock()
	s.summary(e.Pair).Cancelled++
	s.cacheMtx.Unlock()
}

// PriceChanged stores the pair's new best price.
func (s *Stats) PriceChanged(e *feed.PriceChanged) {
	pc := *e
	s.priceMtx.Lock()
	s.prices[e.Pair] = &pc
	s.priceMtx.Unlock()
}

// Price is the last best price published for the pair. ok is false if none
// has been published.
func (s *Stats) Price(pair order.Pair) (pc feed.PriceChanged, ok bool) {
	s.priceMtx.RLock()
	defer s.priceMtx.RUnlock()
	p := s.prices[pair]
	if p == nil {
		return feed.PriceChanged{Pair: pair}, false
	}
	return *p, true
}

// Summary is the pair's lifetime activity.
func (s *Stats) Summary(pair order.Pair) Summary {
	s.cacheMtx.RLock()
	defer s.cacheMtx.RUnlock()
	if sum := s.summaries[pair]; sum != nil {
		return *sum
	}
	return Summary{}
}

// Replay replaces the aggregated data with that derived from archived orders
// and fills. Best prices are not restored, since they are not archived.
func (s *Stats) Replay(orders []*order.Order, fills []*order.Fill) {
	s.cacheMtx.Lock()
	defer s.cacheMtx.Unlock()
	s.series = make(map[order.Pair]*candles.Series)
	s.summaries = make(map[order.Pair]*Summary)
	for _, o := range orders {
		sum := s.summary(o.Pair)
		sum.Created++
		if o.Status == order.StatusCancelled {
			sum.Cancelled++
		}
	}
	for _, f := range fills {
		s.addFill(f.Pair, f.Stamp, &f.Rate, &f.BidFilled, &f.AskFilled, f.Status)
	}
	log.Infof("Replayed %d fills of %d orders", len(fills), len(orders))
}

func floorMinute(stamp int64) int64 {
	return candles.BinIndex(stamp) * candles.BinSize
}

// Quotes returns the pair's candles over the requested range, oldest first.
// If the resolution does not divide the range, the first candle starts
// before the requested start.
func (s *Stats) Quotes(pair order.Pair, req *QuoteRequest) ([]candles.Candle, error) {
	res := req.Resolution
	if res == 0 {
		res = candles.BinSize
	}
	if res < 0 || res%candles.BinSize != 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, res)
	}

	nowBin := floorMinute(s.now().Unix())
	to := nowBin
	if !req.To.IsZero() {
		to = floorMinute(req.To.Unix())
	}
	var from int64
	if req.From.IsZero() {
		from = nowBin - candles.DefaultWindow
		if from >= to {
			from = to - candles.DefaultWindow
		}
	} else {
		from = floorMinute(req.From.Unix())
	}
	if from >= to {
		return nil, fmt.Errorf("%w: %d >= %d", ErrInvalidRange, from, to)
	}

	span := to - from
	count := span / res
	if span%res != 0 {
		count++
	}
	if count > candles.MaxCandles {
		return nil, fmt.Errorf("%w: %d requested, limit %d", ErrTooManyCandles, count, candles.MaxCandles)
	}
	start := to - count*res

	s.cacheMtx.RLock()
	defer s.cacheMtx.RUnlock()
	series := s.series[pair]
	if series == nil {
		series = candles.NewSeries()
	}
	return series.Candles(start, int(count), res), nil
}
