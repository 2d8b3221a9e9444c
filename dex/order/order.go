// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package order defines the Order and Fill types of the exchange, and their
// identifiers and encodings.
package order

import (
	"encoding/hex"
	"fmt"
	"time"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/encode"
	"github.com/decred/dcrd/crypto/blake256"
	"github.com/holiman/uint256"
)

// OrderIDSize defines the length in bytes of an OrderID.
const OrderIDSize = blake256.Size // 32

// OrderID is a compact, unique identifier for an order, derived from its
// pair and nonce.
type OrderID [OrderIDSize]byte

// String returns a hexadecimal representation of the OrderID. String implements
// fmt.Stringer.
func (oid OrderID) String() string {
	return hex.EncodeToString(oid[:])
}

// FillID is the unique identifier of a fill.
type FillID [blake256.Size]byte

// String returns a hexadecimal representation of the FillID.
func (fid FillID) String() string {
	return hex.EncodeToString(fid[:])
}

// Pair is an ordered pair of asset addresses. Orders on a Pair offer the Ask
// asset in exchange for the Bid asset.
type Pair struct {
	Ask dex.Address
	Bid dex.Address
}

// Reverse returns the pair with ask and bid swapped.
func (p Pair) Reverse() Pair {
	return Pair{Ask: p.Bid, Bid: p.Ask}
}

// Valid is true if neither asset address is zero.
func (p Pair) Valid() bool {
	return p.Ask != dex.ZeroAddress && p.Bid != dex.ZeroAddress
}

// Key is the 40-byte concatenation of the ask and bid addresses.
func (p Pair) Key() []byte {
	k := make([]byte, 0, 2*dex.AddressLength)
	k = append(k, p.Ask[:]...)
	return append(k, p.Bid[:]...)
}

// PairFromKey decodes a Key.
func PairFromKey(k []byte) (Pair, error) {
	if len(k) != 2*dex.AddressLength {
		return Pair{}, fmt.Errorf("invalid pair key length %d", len(k))
	}
	return Pair{
		Ask: dex.BytesToAddress(k[:dex.AddressLength]),
		Bid: dex.BytesToAddress(k[dex.AddressLength:]),
	}, nil
}

// String implements Stringer.
func (p Pair) String() string {
	return p.Ask.Hex() + "/" + p.Bid.Hex()
}

// ID computes the OrderID for the order with the given nonce on the pair.
func (p Pair) ID(nonce uint64) OrderID {
	return OrderID(blake256.Sum256(append(p.Key(), encode.Uint64Bytes(nonce)...)))
}

// Order is a standing offer of AskAmount of the ask asset in exchange for
// BidAmount of the bid asset.
type Order struct {
	Pair
	Nonce      uint64
	Maker      dex.Address
	AskProxyID dex.ProxyID
	AskAmount  uint256.Int
	AskData    []byte
	BidProxyID dex.ProxyID
	BidAmount  uint256.Int
	BidData    []byte
	// BidFilled is the cumulative amount of the bid asset received by the
	// maker.
	BidFilled uint256.Int
	FeeAmount uint256.Int
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ID computes the order's OrderID.
func (o *Order) ID() OrderID {
	return o.Pair.ID(o.Nonce)
}

// String implements Stringer.
func (o *Order) String() string {
	return fmt.Sprintf("%s#%d", o.Pair, o.Nonce)
}

// Remaining is the bid amount still unfilled.
func (o *Order) Remaining() uint256.Int {
	var r uint256.Int
	r.Sub(&o.BidAmount, &o.BidFilled)
	return r
}

// AskFor is the ask amount bought by bidAmt at the order's price, rounded
// down.
func (o *Order) AskFor(bidAmt *uint256.Int) uint256.Int {
	return dex.MulDiv(bidAmt, &o.AskAmount, &o.BidAmount)
}

// Fillable is true if the order is open and its remaining bid amount can buy
// at least one unit of the ask asset.
func (o *Order) Fillable() bool {
	if o.Status != StatusOpen {
		return false
	}
	rem := o.Remaining()
	askRem := o.AskFor(&rem)
	return !askRem.IsZero()
}

// Rate is the encoded price of the order. See dex.Rate.
func (o *Order) Rate() uint256.Int {
	return dex.Rate(&o.AskAmount, &o.BidAmount)
}

// Copy creates a deep copy of the Order.
func (o *Order) Copy() *Order {
	ord := *o
	ord.AskData = encode.CopySlice(o.AskData)
	ord.BidData = encode.CopySlice(o.BidData)
	return &ord
}

// Fill is the record of a single fill of a single order. Batch fills produce
// one Fill per order they touch.
type Fill struct {
	Pair
	Nonce uint64
	// Seq is the fill's position in the pair's fill log.
	Seq       uint64
	Maker     dex.Address
	Taker     dex.Address
	AskFilled uint256.Int
	BidFilled uint256.Int
	FeeAmount uint256.Int
	// Rate is the encoded price of this fill, BidFilled over AskFilled.
	Rate uint256.Int
	// Status is the order's status after the fill.
	Status Status
	Stamp  time.Time
}

// ID computes the FillID.
func (f *Fill) ID() FillID {
	b := append(f.Pair.Key(), encode.Uint64Bytes(f.Nonce)...)
	return FillID(blake256.Sum256(append(b, encode.Uint64Bytes(f.Seq)...)))
}

// OrderID is the ID of the filled order.
func (f *Fill) OrderID() OrderID {
	return f.Pair.ID(f.Nonce)
}
