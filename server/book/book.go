// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package book defines the order book. Orders on a pair offer an amount of
// the ask asset for an amount of the bid asset. Takers fill them by paying
// the bid asset, and the asset movements are delegated to the asset proxies
// named by each order. Every operation applies completely or not at all.
package book

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/encode"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/asset"
	"decred.org/dexcore/server/feed"
	"github.com/holiman/uint256"
)

// ProxySource resolves proxy ids. *asset.Registry is a ProxySource.
type ProxySource interface {
	ProxyOf(dex.ProxyID) asset.Proxy
}

// Publisher receives the Book's events. *feed.Feed is a Publisher.
type Publisher interface {
	Publish(feed.Event)
}

// Config is the Book configuration.
type Config struct {
	Proxies ProxySource
	// Feed is optional.
	Feed Publisher
	// Now is optional, defaulting to time.Now. Stamps are truncated to the
	// second.
	Now func() time.Time
}

type pairBook struct {
	orders []*order.Order // index == nonce
	fills  []*order.Fill  // index == seq
	pq     *priceQueue
}

func newPairBook() *pairBook {
	return &pairBook{pq: newPriceQueue()}
}

// Book is the order book for all pairs. A single lock serializes the
// mutating operations. Events are published while the lock is held, after the
// operation's changes are applied, so listeners must not call back into the
// Book's mutating methods.
type Book struct {
	mtx     sync.RWMutex
	proxies ProxySource
	feed    Publisher
	now     func() time.Time
	pairs   map[order.Pair]*pairBook
}

// New is the constructor for a Book.
func New(cfg *Config) (*Book, error) {
	if cfg.Proxies == nil {
		return nil, errors.New("book: no proxy source")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Book{
		proxies: cfg.Proxies,
		feed:    cfg.Feed,
		now:     now,
		pairs:   make(map[order.Pair]*pairBook),
	}, nil
}

// OrderParams are the parameters of a new order.
type OrderParams struct {
	order.Pair
	Maker      dex.Address
	AskProxyID dex.ProxyID
	AskAmount  uint256.Int
	AskData    []byte
	BidProxyID dex.ProxyID
	BidAmount  uint256.Int
	BidData    []byte
	FeeAmount  uint256.Int
}

// FillParams are the parameters of a fill of a single order. Amount is in
// units of the bid asset.
type FillParams struct {
	order.Pair
	Nonce     uint64
	Taker     dex.Address
	Amount    uint256.Int
	FeeAmount uint256.Int
}

// SweepParams are the parameters of a fill of several orders of a pair, in
// the listed order, against a shared bid asset budget.
type SweepParams struct {
	order.Pair
	Nonces    []uint64
	Taker     dex.Address
	Amount    uint256.Int
	FeeAmount uint256.Int
}

// FillResult is the outcome of a single order fill.
type FillResult struct {
	Fill  *order.Fill
	Order *order.Order
	// Created is the taker's order for the overfill, if one was created.
	Created *order.Order
}

// SweepResult is the outcome of a sweep.
type SweepResult struct {
	Fills []*order.Fill
	// Orders are the filled orders, in the order of their first fill.
	Orders []*order.Order
	// Spent is the total bid amount paid.
	Spent   uint256.Int
	Created *order.Order
}

// change is the staged result of an operation. Nothing in a change is
// visible until it is applied.
type change struct {
	stamp   time.Time
	updated []*order.Order
	staged  map[order.OrderID]*order.Order
	fills   []*feed.OrderFilled
	created *order.Order
}

func newChange(stamp time.Time) *change {
	return &change{
		stamp:  stamp,
		staged: make(map[order.OrderID]*order.Order),
	}
}

// stage returns the staged copy of the order, creating it on first use.
func (c *change) stage(o *order.Order) *order.Order {
	oid := o.ID()
	if staged, found := c.staged[oid]; found {
		return staged
	}
	staged := o.Copy()
	c.staged[oid] = staged
	c.updated = append(c.updated, staged)
	return staged
}

func (b *Book) stamp() time.Time {
	return b.now().Truncate(time.Second)
}

func (b *Book) pairBook(pair order.Pair) *pairBook {
	pb := b.pairs[pair]
	if pb == nil {
		pb = newPairBook()
		b.pairs[pair] = pb
	}
	return pb
}

func (b *Book) findOrder(pair order.Pair, nonce uint64) (*order.Order, error) {
	pb := b.pairs[pair]
	if pb == nil || nonce >= uint64(len(pb.orders)) {
		return nil, fmt.Errorf("%w: %s#%d", ErrOrderNotFound, pair, nonce)
	}
	return pb.orders[nonce], nil
}

func validFee(fee *uint256.Int) bool {
	return fee.BitLen() <= dex.MaxAmountBits
}

func checkFillArgs(pair order.Pair, taker dex.Address, amount, fee *uint256.Int) error {
	if !pair.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidAsset, pair)
	}
	if taker == dex.ZeroAddress {
		return fmt.Errorf("%w: taker", ErrInvalidAddress)
	}
	if !dex.ValidAmount(amount) {
		return fmt.Errorf("%w: fill amount %s", ErrInvalidAmount, amount.Dec())
	}
	if !validFee(fee) {
		return fmt.Errorf("%w: fee %s", ErrInvalidAmount, fee.Dec())
	}
	return nil
}

// checkOrder validates new order parameters against the current holdings of
// the maker.
func (b *Book) checkOrder(p *OrderParams) error {
	if p.AskProxyID == 0 || p.BidProxyID == 0 {
		return fmt.Errorf("%w: zero proxy id", ErrInvalidProxy)
	}
	askProxy := b.proxies.ProxyOf(p.AskProxyID)
	if askProxy == nil {
		return fmt.Errorf("%w: %s not registered", ErrInvalidProxy, p.AskProxyID)
	}
	bidProxy := b.proxies.ProxyOf(p.BidProxyID)
	if bidProxy == nil {
		return fmt.Errorf("%w: %s not registered", ErrInvalidProxy, p.BidProxyID)
	}
	if !p.Pair.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidAsset, p.Pair)
	}
	if p.Maker == dex.ZeroAddress {
		return fmt.Errorf("%w: maker", ErrInvalidAddress)
	}
	if !dex.ValidAmount(&p.AskAmount) {
		return fmt.Errorf("%w: ask amount %s", ErrInvalidAmount, p.AskAmount.Dec())
	}
	if !dex.ValidAmount(&p.BidAmount) {
		return fmt.Errorf("%w: bid amount %s", ErrInvalidAmount, p.BidAmount.Dec())
	}
	if !validFee(&p.FeeAmount) {
		return fmt.Errorf("%w: fee %s", ErrInvalidAmount, p.FeeAmount.Dec())
	}
	if _, err := askProxy.Decode(p.Ask, &p.AskAmount, p.AskData); err != nil {
		return fmt.Errorf("%w: ask: %v", ErrInvalidAsset, err)
	}
	if _, err := bidProxy.Decode(p.Bid, &p.BidAmount, p.BidData); err != nil {
		return fmt.Errorf("%w: bid: %v", ErrInvalidAsset, err)
	}
	if !askProxy.CanTransferFrom(p.Maker, &p.AskAmount, p.Ask, p.AskData) {
		return fmt.Errorf("%w: %s of %s from %s", ErrNotTransferable, p.AskAmount.Dec(), p.Ask, p.Maker)
	}
	return nil
}

func newOrder(p *OrderParams, stamp time.Time) *order.Order {
	return &order.Order{
		Pair:       p.Pair,
		Maker:      p.Maker,
		AskProxyID: p.AskProxyID,
		AskAmount:  p.AskAmount,
		AskData:    encode.CopySlice(p.AskData),
		BidProxyID: p.BidProxyID,
		BidAmount:  p.BidAmount,
		BidData:    encode.CopySlice(p.BidData),
		FeeAmount:  p.FeeAmount,
		Status:     order.StatusOpen,
		CreatedAt:  stamp,
		UpdatedAt:  stamp,
	}
}

// CreateOrder validates and stores a new open order. The order's nonce is the
// next one for the pair.
func (b *Book) CreateOrder(p *OrderParams) (*order.Order, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if err := b.checkOrder(p); err != nil {
		return nil, err
	}
	c := newChange(b.stamp())
	c.created = newOrder(p, c.stamp)
	b.apply(c)
	log.Debugf("Created order %s: ask %s, bid %s", c.created, c.created.AskAmount.Dec(), c.created.BidAmount.Dec())
	return c.created.Copy(), nil
}

// transfer moves an asset with the proxy, scheduling its reversal with the
// closer.
func (b *Book) transfer(closer *dex.ErrorCloser, proxyID dex.ProxyID, from, to dex.Address, amt *uint256.Int, assetAddr dex.Address, data []byte) error {
	p := b.proxies.ProxyOf(proxyID)
	if p == nil {
		return fmt.Errorf("%w: proxy %s not registered", ErrTransferFailed, proxyID)
	}
	amount := *amt
	if err := p.TransferFrom(from, to, &amount, assetAddr, data); err != nil {
		return fmt.Errorf("%w: %s of %s from %s to %s: %v", ErrTransferFailed, amount.Dec(), assetAddr, from, to, err)
	}
	closer.Add(func() error {
		r, ok := p.(asset.Reverter)
		if !ok {
			return fmt.Errorf("proxy %s cannot revert a transfer of %s from %s to %s", proxyID, assetAddr, from, to)
		}
		return r.Revert(from, to, &amount, assetAddr, data)
	})
	return nil
}

// fillStaged fills the staged order with up to budget of the bid asset,
// executing both transfers. The amount of the budget spent is returned.
func (b *Book) fillStaged(closer *dex.ErrorCloser, c *change, ord *order.Order, taker dex.Address, budget, fee *uint256.Int) (uint256.Int, error) {
	rem := ord.Remaining()
	fillBid := dex.MinAmount(budget, &rem)
	fillAsk := ord.AskFor(&fillBid)
	if fillAsk.IsZero() {
		return uint256.Int{}, dex.NewError(ErrInsufficientFillAmount,
			fmt.Sprintf("%s of %s buys nothing from order %s", fillBid.Dec(), ord.Bid, ord))
	}

	if err := b.transfer(closer, ord.BidProxyID, taker, ord.Maker, &fillBid, ord.Bid, ord.BidData); err != nil {
		return uint256.Int{}, err
	}
	if err := b.transfer(closer, ord.AskProxyID, ord.Maker, taker, &fillAsk, ord.Ask, ord.AskData); err != nil {
		return uint256.Int{}, err
	}

	ord.BidFilled.Add(&ord.BidFilled, &fillBid)
	ord.UpdatedAt = c.stamp
	// Close out the order once the remainder cannot buy a single ask unit.
	rem = ord.Remaining()
	if askRem := ord.AskFor(&rem); askRem.IsZero() {
		ord.Status = order.StatusFilled
	}

	// The fill's own price differs from the order's when fillAsk was floored.
	rate := dex.Rate(&fillAsk, &fillBid)
	c.fills = append(c.fills, &feed.OrderFilled{
		Pair:        ord.Pair,
		Nonce:       ord.Nonce,
		Maker:       ord.Maker,
		Taker:       taker,
		BidFilled:   fillBid,
		AskFilled:   fillAsk,
		TotalFilled: ord.BidFilled,
		Status:      ord.Status,
		FeeAmount:   *fee,
		AskAmount:   ord.AskAmount,
		BidAmount:   ord.BidAmount,
		Rate:        rate,
		Stamp:       c.stamp,
	})
	return fillBid, nil
}

// stageOverfill stages the taker's order for the unspent amount, at the price
// of the last order filled. The order is validated after the fill transfers,
// so the taker must still hold the overfill amount. No order is created when
// the overfill buys nothing at that price.
func (b *Book) stageOverfill(c *change, last *order.Order, taker dex.Address, overfill *uint256.Int) error {
	if overfill.IsZero() {
		return nil
	}
	bid := last.AskFor(overfill)
	if bid.IsZero() {
		log.Debugf("Overfill of %s on %s too small for a new order", overfill.Dec(), last.Pair)
		return nil
	}
	p := &OrderParams{
		Pair:       last.Pair.Reverse(),
		Maker:      taker,
		AskProxyID: last.BidProxyID,
		AskAmount:  *overfill,
		AskData:    last.BidData,
		BidProxyID: last.AskProxyID,
		BidAmount:  bid,
		BidData:    last.AskData,
	}
	if err := b.checkOrder(p); err != nil {
		return fmt.Errorf("overfill order: %w", err)
	}
	c.created = newOrder(p, c.stamp)
	return nil
}

func (b *Book) fill(p *FillParams, create bool) (*FillResult, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if err := checkFillArgs(p.Pair, p.Taker, &p.Amount, &p.FeeAmount); err != nil {
		return nil, err
	}
	o, err := b.findOrder(p.Pair, p.Nonce)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusOpen {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotOpen, o, o.Status)
	}

	closer := dex.NewErrorCloser()
	defer closer.Done(log)

	c := newChange(b.stamp())
	ord := c.stage(o)
	spent, err := b.fillStaged(closer, c, ord, p.Taker, &p.Amount, &p.FeeAmount)
	if err != nil {
		return nil, err
	}
	if create {
		var overfill uint256.Int
		overfill.Sub(&p.Amount, &spent)
		if err := b.stageOverfill(c, ord, p.Taker, &overfill); err != nil {
			return nil, err
		}
	}

	closer.Success()
	fills := b.apply(c)
	log.Debugf("Filled order %s with %s, status %s", ord, spent.Dec(), ord.Status)
	res := &FillResult{
		Fill:  fills[0],
		Order: ord.Copy(),
	}
	if c.created != nil {
		res.Created = c.created.Copy()
	}
	return res, nil
}

// FillOrder fills the order with up to Amount of the bid asset. The taker
// pays the bid asset to the maker and receives the ask asset at the order's
// price, rounded down. A fill that would buy nothing fails with
// ErrInsufficientFillAmount.
func (b *Book) FillOrder(p *FillParams) (*FillResult, error) {
	return b.fill(p, false)
}

// FillAndCreateOrder is FillOrder, except that the part of Amount exceeding
// the order's remainder becomes a new order of the taker on the reversed
// pair, at the filled order's price.
func (b *Book) FillAndCreateOrder(p *FillParams) (*FillResult, error) {
	return b.fill(p, true)
}

func (b *Book) sweep(p *SweepParams, create bool) (*SweepResult, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if err := checkFillArgs(p.Pair, p.Taker, &p.Amount, &p.FeeAmount); err != nil {
		return nil, err
	}
	if len(p.Nonces) == 0 {
		return nil, ErrNoNonces
	}
	for _, nonce := range p.Nonces {
		if _, err := b.findOrder(p.Pair, nonce); err != nil {
			return nil, err
		}
	}

	closer := dex.NewErrorCloser()
	defer closer.Done(log)

	c := newChange(b.stamp())
	budget := p.Amount
	var last *order.Order
	for _, nonce := range p.Nonces {
		if budget.IsZero() {
			break
		}
		o := b.pairs[p.Pair].orders[nonce]
		if staged, found := c.staged[o.ID()]; found {
			o = staged
		}
		if o.Status != order.StatusOpen {
			continue
		}
		// Work on a scratch copy so that a skipped order is not staged.
		ord := o.Copy()
		spent, err := b.fillStaged(closer, c, ord, p.Taker, &budget, &p.FeeAmount)
		if errors.Is(err, ErrInsufficientFillAmount) {
			log.Tracef("Skipping order %s in sweep: %v", o, err)
			continue
		}
		if err != nil {
			return nil, err
		}
		*c.stage(o) = *ord
		last = c.staged[o.ID()]
		budget.Sub(&budget, &spent)
	}
	if last == nil {
		return nil, fmt.Errorf("%w: no order of %v could be filled", ErrNothingFilled, p.Nonces)
	}
	if create {
		if err := b.stageOverfill(c, last, p.Taker, &budget); err != nil {
			return nil, err
		}
	}

	closer.Success()
	res := &SweepResult{
		Fills: b.apply(c),
	}
	res.Spent.Sub(&p.Amount, &budget)
	for _, ord := range c.updated {
		res.Orders = append(res.Orders, ord.Copy())
	}
	if c.created != nil {
		res.Created = c.created.Copy()
	}
	log.Debugf("Sweep of %s filled %d orders with %s", p.Pair, len(res.Orders), res.Spent.Dec())
	return res, nil
}

// FillOrders sweeps the listed orders in the listed order. Closed orders and
// orders the remaining budget cannot buy from are skipped. Every nonce must
// exist. A sweep that fills nothing fails with ErrNothingFilled.
func (b *Book) FillOrders(p *SweepParams) (*SweepResult, error) {
	return b.sweep(p, false)
}

// FillAndCreateOrders is FillOrders, except that the unspent budget becomes a
// new order of the taker on the reversed pair, at the price of the last order
// filled.
func (b *Book) FillAndCreateOrders(p *SweepParams) (*SweepResult, error) {
	return b.sweep(p, true)
}

// CancelOrder cancels the open order. Only the maker may cancel.
func (b *Book) CancelOrder(pair order.Pair, nonce uint64, caller dex.Address) (*order.Order, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	o, err := b.findOrder(pair, nonce)
	if err != nil {
		return nil, err
	}
	if o.Status != order.StatusOpen {
		return nil, fmt.Errorf("%w: %s is %s", ErrOrderNotOpen, o, o.Status)
	}
	if caller != o.Maker {
		return nil, fmt.Errorf("%w: %s cannot cancel %s", ErrNotMaker, caller, o)
	}
	c := newChange(b.stamp())
	ord := c.stage(o)
	ord.Status = order.StatusCancelled
	ord.UpdatedAt = c.stamp
	b.apply(c)
	log.Debugf("Cancelled order %s", ord)
	return ord.Copy(), nil
}

// apply makes the staged change visible, updating the price queues, and
// publishes the resulting events. The fill records are returned.
func (b *Book) apply(c *change) []*order.Fill {
	var touched []order.Pair
	before := make(map[order.Pair]bestPrice)
	touch := func(pair order.Pair) *pairBook {
		pb := b.pairBook(pair)
		if _, found := before[pair]; !found {
			before[pair] = pb.pq.snapshot()
			touched = append(touched, pair)
		}
		return pb
	}

	events := make([]feed.Event, 0, len(c.fills)+len(touched)+1)

	for _, ord := range c.updated {
		pb := touch(ord.Pair)
		pb.orders[ord.Nonce] = ord.Copy()
		if !ord.Fillable() {
			pb.pq.Remove(ord.Nonce)
		}
		if ord.Status == order.StatusCancelled {
			events = append(events, &feed.OrderCancelled{
				Pair:  ord.Pair,
				Nonce: ord.Nonce,
				Maker: ord.Maker,
				Stamp: c.stamp,
			})
		}
	}

	fills := make([]*order.Fill, 0, len(c.fills))
	for _, ev := range c.fills {
		pb := touch(ev.Pair)
		ev.Seq = uint64(len(pb.fills))
		fill := ev.Fill()
		pb.fills = append(pb.fills, fill)
		fills = append(fills, fill)
		events = append(events, ev)
	}

	if ord := c.created; ord != nil {
		pb := touch(ord.Pair)
		ord.Nonce = uint64(len(pb.orders))
		pb.orders = append(pb.orders, ord.Copy())
		if ord.Fillable() {
			pb.pq.Insert(ord.Nonce, &ord.AskAmount, &ord.BidAmount)
		}
		events = append(events, &feed.OrderCreated{
			Order: ord.Copy(),
			Stamp: c.stamp,
		})
	}

	for _, pair := range touched {
		after := b.pairs[pair].pq.snapshot()
		if !before[pair].changed(after) {
			continue
		}
		log.Tracef("Best price of %s changed to %s/%s", pair, after.bidAmount.Dec(), after.askAmount.Dec())
		events = append(events, &feed.PriceChanged{
			Pair:      pair,
			AskAmount: after.askAmount,
			BidAmount: after.bidAmount,
			Stamp:     c.stamp,
		})
	}

	if b.feed != nil {
		for _, e := range events {
			b.feed.Publish(e)
		}
	}
	return fills
}

// Restore replaces the Book's state with archived orders and fills. Every
// pair's nonces and fill sequence numbers must be contiguous from zero. No
// events are published.
func (b *Book) Restore(orders []*order.Order, fills []*order.Fill) error {
	pairs := make(map[order.Pair]*pairBook)
	sorted := make([]*order.Order, len(orders))
	copy(sorted, orders)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Nonce < sorted[j].Nonce })
	for _, o := range sorted {
		pb := pairs[o.Pair]
		if pb == nil {
			pb = newPairBook()
			pairs[o.Pair] = pb
		}
		if o.Nonce != uint64(len(pb.orders)) {
			return fmt.Errorf("order %s out of sequence, expected nonce %d", o, len(pb.orders))
		}
		if o.BidFilled.Gt(&o.BidAmount) {
			return fmt.Errorf("order %s overfilled", o)
		}
		pb.orders = append(pb.orders, o.Copy())
		if o.Fillable() {
			pb.pq.Insert(o.Nonce, &o.AskAmount, &o.BidAmount)
		}
	}

	sortedFills := make([]*order.Fill, len(fills))
	copy(sortedFills, fills)
	sort.SliceStable(sortedFills, func(i, j int) bool { return sortedFills[i].Seq < sortedFills[j].Seq })
	for _, f := range sortedFills {
		pb := pairs[f.Pair]
		if pb == nil || f.Nonce >= uint64(len(pb.orders)) {
			return fmt.Errorf("fill %d of unknown order %s#%d", f.Seq, f.Pair, f.Nonce)
		}
		if f.Seq != uint64(len(pb.fills)) {
			return fmt.Errorf("fill %d of %s out of sequence, expected %d", f.Seq, f.Pair, len(pb.fills))
		}
		fill := *f
		pb.fills = append(pb.fills, &fill)
	}

	b.mtx.Lock()
	b.pairs = pairs
	b.mtx.Unlock()
	log.Infof("Restored %d orders and %d fills on %d pairs", len(orders), len(fills), len(pairs))
	return nil
}

// Order returns a copy of the order. If it does not exist, the returned
// order has only its pair and nonce set, and StatusUnknown.
func (b *Book) Order(pair order.Pair, nonce uint64) *order.Order {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	o, err := b.findOrder(pair, nonce)
	if err != nil {
		return &order.Order{Pair: pair, Nonce: nonce}
	}
	return o.Copy()
}

// OrderFilter selects orders. The zero value of each field matches any
// order. The time bounds are inclusive.
type OrderFilter struct {
	Status order.Status
	Maker  dex.Address
	From   time.Time
	To     time.Time
}

func inRange(t, from, to time.Time) bool {
	if !from.IsZero() && t.Before(from) {
		return false
	}
	if !to.IsZero() && t.After(to) {
		return false
	}
	return true
}

func (f *OrderFilter) matches(o *order.Order) bool {
	if f == nil {
		return true
	}
	if f.Status != order.StatusUnknown && o.Status != f.Status {
		return false
	}
	if f.Maker != dex.ZeroAddress && o.Maker != f.Maker {
		return false
	}
	return inRange(o.CreatedAt, f.From, f.To)
}

// Orders lists copies of the pair's orders matching the filter, in nonce
// order. A nil filter matches every order.
func (b *Book) Orders(pair order.Pair, filter *OrderFilter) []*order.Order {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	pb := b.pairs[pair]
	if pb == nil {
		return nil
	}
	var ords []*order.Order
	for _, o := range pb.orders {
		if filter.matches(o) {
			ords = append(ords, o.Copy())
		}
	}
	return ords
}

// FillFilter selects fills. The zero value of each field matches any fill.
// The time bounds are inclusive.
type FillFilter struct {
	Taker dex.Address
	From  time.Time
	To    time.Time
}

func (f *FillFilter) matches(fill *order.Fill) bool {
	if f == nil {
		return true
	}
	if f.Taker != dex.ZeroAddress && fill.Taker != f.Taker {
		return false
	}
	return inRange(fill.Stamp, f.From, f.To)
}

// Fills lists copies of the pair's fills matching the filter, oldest first.
func (b *Book) Fills(pair order.Pair, filter *FillFilter) []*order.Fill {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	pb := b.pairs[pair]
	if pb == nil {
		return nil
	}
	var fills []*order.Fill
	for _, f := range pb.fills {
		if filter.matches(f) {
			fill := *f
			fills = append(fills, &fill)
		}
	}
	return fills
}

// BestPrice is the ask and bid amounts of the pair's lowest-priced fillable
// order. ok is false if there is none.
func (b *Book) BestPrice(pair order.Pair) (ask, bid uint256.Int, ok bool) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	pb := b.pairs[pair]
	if pb == nil {
		return
	}
	best := pb.pq.snapshot()
	return best.askAmount, best.bidAmount, best.present
}

// BestOrder is the nonce of the order holding the pair's best price.
func (b *Book) BestOrder(pair order.Pair) (nonce uint64, ok bool) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	pb := b.pairs[pair]
	if pb == nil {
		return 0, false
	}
	best := pb.pq.PeekBest()
	if best == nil {
		return 0, false
	}
	return best.nonce, true
}

// Pairs lists the pairs with at least one order.
func (b *Book) Pairs() []order.Pair {
	b.mtx.RLock()
	defer b.mtx.RUnlock()
	pairs := make([]order.Pair, 0, len(b.pairs))
	for pair, pb := range b.pairs {
		if len(pb.orders) > 0 {
			pairs = append(pairs, pair)
		}
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })
	return pairs
}
