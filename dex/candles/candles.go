// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package candles

import (
	"time"

	"github.com/holiman/uint256"
	"github.com/huandu/skiplist"
)

const (
	// BinSize is the width, in seconds, of the raw bins that trades are
	// recorded into. Every requested candle width is a multiple of BinSize.
	BinSize = 60
	// DefaultWindow is the default span of a candle request, in seconds.
	DefaultWindow = 3600
	// MaxCandles is the largest number of candles that can be requested at
	// once.
	MaxCandles = 10000
)

// Candle is a report about the trading activity of a pair over the period
// [StartStamp, EndStamp], both in unix seconds and inclusive. Rates are
// encoded with dex.RateEncodingFactor. A candle with no trades carries the
// closing rate of the most recent earlier trade, or zero if there has been
// none.
type Candle struct {
	StartStamp int64
	EndStamp   int64
	// Volume is the bid asset volume.
	Volume uint256.Int
	// AskVolume is the ask asset volume.
	AskVolume uint256.Int
	Trades    uint32
	HighRate  uint256.Int
	LowRate   uint256.Int
	StartRate uint256.Int
	EndRate   uint256.Int
}

// binKeys is a skiplist.Comparable for int64 bin indexes.
type binKeys struct{}

var _ skiplist.Comparable = binKeys{}

func (binKeys) Compare(lhs, rhs interface{}) int {
	l, r := lhs.(int64), rhs.(int64)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

func (binKeys) CalcScore(key interface{}) float64 {
	return float64(key.(int64))
}

// Series is the unbounded history of raw BinSize bins for one pair. Only bins
// with at least one trade are stored. Series is not safe for concurrent use.
type Series struct {
	bins *skiplist.SkipList
}

// NewSeries is a constructor for a Series.
func NewSeries() *Series {
	return &Series{
		bins: skiplist.New(binKeys{}),
	}
}

// BinIndex is the index of the raw bin containing the stamp.
func BinIndex(stamp int64) int64 {
	if stamp < 0 {
		return (stamp - BinSize + 1) / BinSize
	}
	return stamp / BinSize
}

// Len is the number of stored bins.
func (s *Series) Len() int {
	return s.bins.Len()
}

// Add records a trade at the given rate and volumes. Trades may be added out
// of order.
func (s *Series) Add(stamp time.Time, rate, bidVol, askVol *uint256.Int) {
	idx := BinIndex(stamp.Unix())
	trade := &Candle{
		StartStamp: idx * BinSize,
		EndStamp:   idx*BinSize + BinSize - 1,
		Volume:     *bidVol,
		AskVolume:  *askVol,
		Trades:     1,
		HighRate:   *rate,
		LowRate:    *rate,
		StartRate:  *rate,
		EndRate:    *rate,
	}
	if elem := s.bins.Get(idx); elem != nil {
		combineCandles(elem.Value.(*Candle), trade)
		return
	}
	s.bins.Set(idx, trade)
}

// Candles merges the raw bins into count candles of width binSize seconds,
// beginning at start. start and binSize must be multiples of BinSize.
func (s *Series) Candles(start int64, count int, binSize int64) []Candle {
	if count <= 0 || binSize < BinSize {
		return nil
	}
	perCandle := binSize / BinSize
	startIdx := BinIndex(start)

	// The closing rate of the last bin before the range seeds the carry.
	var carry uint256.Int
	elem := s.bins.Find(startIdx)
	if elem == nil {
		if back := s.bins.Back(); back != nil {
			carry = back.Value.(*Candle).EndRate
		}
	} else if prev := elem.Prev(); prev != nil {
		carry = prev.Value.(*Candle).EndRate
	}

	out := make([]Candle, count)
	for i := range out {
		c := &out[i]
		c.StartStamp = start + int64(i)*binSize
		c.EndStamp = c.StartStamp + binSize - 1
		endIdx := startIdx + int64(i+1)*perCandle
		for elem != nil && elem.Key().(int64) < endIdx {
			combineCandles(c, elem.Value.(*Candle))
			elem = elem.Next()
		}
		if c.Trades == 0 {
			c.StartRate, c.EndRate, c.HighRate, c.LowRate = carry, carry, carry, carry
			continue
		}
		carry = c.EndRate
	}
	return out
}

// combineCandles adds the later candidate candle to the target candle
// in-place. The target's stamps are not modified.
func combineCandles(target, candidate *Candle) {
	if candidate.Trades == 0 {
		return
	}
	if target.Trades == 0 {
		target.StartRate = candidate.StartRate
		target.HighRate = candidate.HighRate
		target.LowRate = candidate.LowRate
	} else {
		if candidate.HighRate.Gt(&target.HighRate) {
			target.HighRate = candidate.HighRate
		}
		if candidate.LowRate.Lt(&target.LowRate) {
			target.LowRate = candidate.LowRate
		}
	}
	target.EndRate = candidate.EndRate
	target.Volume.Add(&target.Volume, &candidate.Volume)
	target.AskVolume.Add(&target.AskVolume, &candidate.AskVolume)
	target.Trades += candidate.Trades
}
