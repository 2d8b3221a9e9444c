// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"time"

	"decred.org/dexcore/dex/candles"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/stats"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// The command output types. Amounts are decimal strings and times are unix
// seconds.

type orderView struct {
	ID         string `json:"id"`
	Pair       string `json:"pair"`
	Nonce      uint64 `json:"nonce"`
	Maker      string `json:"maker"`
	AskProxyID string `json:"askProxyId"`
	AskAmount  string `json:"askAmount"`
	AskData    string `json:"askData,omitempty"`
	BidProxyID string `json:"bidProxyId"`
	BidAmount  string `json:"bidAmount"`
	BidData    string `json:"bidData,omitempty"`
	BidFilled  string `json:"bidFilled"`
	FeeAmount  string `json:"feeAmount"`
	Rate       string `json:"rate"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"createdAt"`
	UpdatedAt  int64  `json:"updatedAt"`
}

func hexData(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return hexutil.Encode(b)
}

func newOrderView(o *order.Order) *orderView {
	if o == nil {
		return nil
	}
	rate := o.Rate()
	return &orderView{
		ID:         o.ID().String(),
		Pair:       o.Pair.String(),
		Nonce:      o.Nonce,
		Maker:      o.Maker.Hex(),
		AskProxyID: o.AskProxyID.String(),
		AskAmount:  o.AskAmount.Dec(),
		AskData:    hexData(o.AskData),
		BidProxyID: o.BidProxyID.String(),
		BidAmount:  o.BidAmount.Dec(),
		BidData:    hexData(o.BidData),
		BidFilled:  o.BidFilled.Dec(),
		FeeAmount:  o.FeeAmount.Dec(),
		Rate:       rate.Dec(),
		Status:     o.Status.String(),
		CreatedAt:  unixStamp(o.CreatedAt),
		UpdatedAt:  unixStamp(o.UpdatedAt),
	}
}

func unixStamp(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func newOrderViews(ords []*order.Order) []*orderView {
	views := make([]*orderView, 0, len(ords))
	for _, o := range ords {
		views = append(views, newOrderView(o))
	}
	return views
}

type fillView struct {
	ID        string `json:"id"`
	Pair      string `json:"pair"`
	Nonce     uint64 `json:"nonce"`
	Seq       uint64 `json:"seq"`
	Maker     string `json:"maker"`
	Taker     string `json:"taker"`
	AskFilled string `json:"askFilled"`
	BidFilled string `json:"bidFilled"`
	FeeAmount string `json:"feeAmount"`
	Rate      string `json:"rate"`
	Status    string `json:"status"`
	Stamp     int64  `json:"stamp"`
}

func newFillViews(fills []*order.Fill) []*fillView {
	views := make([]*fillView, 0, len(fills))
	for _, f := range fills {
		views = append(views, &fillView{
			ID:        f.ID().String(),
			Pair:      f.Pair.String(),
			Nonce:     f.Nonce,
			Seq:       f.Seq,
			Maker:     f.Maker.Hex(),
			Taker:     f.Taker.Hex(),
			AskFilled: f.AskFilled.Dec(),
			BidFilled: f.BidFilled.Dec(),
			FeeAmount: f.FeeAmount.Dec(),
			Rate:      f.Rate.Dec(),
			Status:    f.Status.String(),
			Stamp:     f.Stamp.Unix(),
		})
	}
	return views
}

type fillResultView struct {
	Fills   []*fillView  `json:"fills"`
	Orders  []*orderView `json:"orders"`
	Spent   string       `json:"spent"`
	Created *orderView   `json:"created,omitempty"`
}

type candleView struct {
	StartStamp int64  `json:"startStamp"`
	EndStamp   int64  `json:"endStamp"`
	Volume     string `json:"volume"`
	AskVolume  string `json:"askVolume"`
	Trades     uint32 `json:"trades"`
	HighRate   string `json:"highRate"`
	LowRate    string `json:"lowRate"`
	StartRate  string `json:"startRate"`
	EndRate    string `json:"endRate"`
}

func newCandleViews(cs []candles.Candle) []*candleView {
	views := make([]*candleView, 0, len(cs))
	for i := range cs {
		c := &cs[i]
		views = append(views, &candleView{
			StartStamp: c.StartStamp,
			EndStamp:   c.EndStamp,
			Volume:     c.Volume.Dec(),
			AskVolume:  c.AskVolume.Dec(),
			Trades:     c.Trades,
			HighRate:   c.HighRate.Dec(),
			LowRate:    c.LowRate.Dec(),
			StartRate:  c.StartRate.Dec(),
			EndRate:    c.EndRate.Dec(),
		})
	}
	return views
}

type summaryView struct {
	Created   uint64 `json:"created"`
	Fills     uint64 `json:"fills"`
	Filled    uint64 `json:"filled"`
	Cancelled uint64 `json:"cancelled"`
	Volume    string `json:"volume"`
	AskVolume string `json:"askVolume"`
	LastRate  string `json:"lastRate"`
	LastTrade int64  `json:"lastTrade"`
}

func newSummaryView(s *stats.Summary) *summaryView {
	return &summaryView{
		Created:   s.Created,
		Fills:     s.Fills,
		Filled:    s.Filled,
		Cancelled: s.Cancelled,
		Volume:    s.Volume.Dec(),
		AskVolume: s.AskVolume.Dec(),
		LastRate:  s.LastRate.Dec(),
		LastTrade: unixStamp(s.LastTrade),
	}
}

type priceView struct {
	Pair      string       `json:"pair"`
	Present   bool         `json:"present"`
	AskAmount string       `json:"askAmount"`
	BidAmount string       `json:"bidAmount"`
	Rate      string       `json:"rate,omitempty"`
	Nonce     *uint64      `json:"nonce,omitempty"`
	Summary   *summaryView `json:"summary"`
}

type balanceView struct {
	Token     string `json:"token"`
	Owner     string `json:"owner"`
	Balance   string `json:"balance"`
	Allowance string `json:"allowance"`
}

type tokenView struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Owner      string `json:"owner"`
	Approved   bool   `json:"approved"`
}

type proxyView struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

type seedView struct {
	Balances   int `json:"balances"`
	Ownerships int `json:"ownerships"`
}
