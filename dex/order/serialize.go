// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package order

import (
	"fmt"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/encode"
	"github.com/holiman/uint256"
)

const (
	orderVersion = 0
	fillVersion  = 0
)

// EncodeOrder serializes the Order to a versioned blob.
func EncodeOrder(o *Order) []byte {
	return encode.BuildyBytes{orderVersion}.
		AddData(o.Pair.Key()).
		AddData(encode.Uint64Bytes(o.Nonce)).
		AddData(o.Maker[:]).
		AddData(encode.Uint32Bytes(uint32(o.AskProxyID))).
		AddData(encode.AmountBytes(&o.AskAmount)).
		AddData(o.AskData).
		AddData(encode.Uint32Bytes(uint32(o.BidProxyID))).
		AddData(encode.AmountBytes(&o.BidAmount)).
		AddData(o.BidData).
		AddData(encode.AmountBytes(&o.BidFilled)).
		AddData(encode.AmountBytes(&o.FeeAmount)).
		AddData([]byte{byte(o.Status)}).
		AddData(encode.TimeBytes(o.CreatedAt)).
		AddData(encode.TimeBytes(o.UpdatedAt))
}

// DecodeOrder decodes the versioned blob created with EncodeOrder.
func DecodeOrder(b []byte) (*Order, error) {
	ver, pushes, err := encode.DecodeBlob(b, 14)
	if err != nil {
		return nil, fmt.Errorf("error decoding order blob: %w", err)
	}
	if ver != orderVersion {
		return nil, fmt.Errorf("unknown order encoding version %d", ver)
	}
	if len(pushes) != 14 {
		return nil, fmt.Errorf("expected 14 pushes for order, got %d", len(pushes))
	}
	pair, err := PairFromKey(pushes[0])
	if err != nil {
		return nil, err
	}
	if err := checkLens(pushes, map[int]int{1: 8, 2: dex.AddressLength, 3: 4, 6: 4, 11: 1, 12: 8, 13: 8}); err != nil {
		return nil, err
	}
	amts, err := decodeAmounts(pushes[4], pushes[7], pushes[9], pushes[10])
	if err != nil {
		return nil, err
	}
	return &Order{
		Pair:       pair,
		Nonce:      encode.BytesToUint64(pushes[1]),
		Maker:      dex.BytesToAddress(pushes[2]),
		AskProxyID: dex.ProxyID(encode.BytesToUint32(pushes[3])),
		AskAmount:  amts[0],
		AskData:    encode.CopySlice(pushes[5]),
		BidProxyID: dex.ProxyID(encode.BytesToUint32(pushes[6])),
		BidAmount:  amts[1],
		BidData:    encode.CopySlice(pushes[8]),
		BidFilled:  amts[2],
		FeeAmount:  amts[3],
		Status:     Status(pushes[11][0]),
		CreatedAt:  encode.DecodeTime(pushes[12]),
		UpdatedAt:  encode.DecodeTime(pushes[13]),
	}, nil
}

// EncodeFill serializes the Fill to a versioned blob.
func EncodeFill(f *Fill) []byte {
	return encode.BuildyBytes{fillVersion}.
		AddData(f.Pair.Key()).
		AddData(encode.Uint64Bytes(f.Nonce)).
		AddData(encode.Uint64Bytes(f.Seq)).
		AddData(f.Maker[:]).
		AddData(f.Taker[:]).
		AddData(encode.AmountBytes(&f.AskFilled)).
		AddData(encode.AmountBytes(&f.BidFilled)).
		AddData(encode.AmountBytes(&f.FeeAmount)).
		AddData(encode.AmountBytes(&f.Rate)).
		AddData([]byte{byte(f.Status)}).
		AddData(encode.TimeBytes(f.Stamp))
}

// DecodeFill decodes the versioned blob created with EncodeFill.
func DecodeFill(b []byte) (*Fill, error) {
	ver, pushes, err := encode.DecodeBlob(b, 11)
	if err != nil {
		return nil, fmt.Errorf("error decoding fill blob: %w", err)
	}
	if ver != fillVersion {
		return nil, fmt.Errorf("unknown fill encoding version %d", ver)
	}
	if len(pushes) != 11 {
		return nil, fmt.Errorf("expected 11 pushes for fill, got %d", len(pushes))
	}
	pair, err := PairFromKey(pushes[0])
	if err != nil {
		return nil, err
	}
	if err := checkLens(pushes, map[int]int{1: 8, 2: 8, 3: dex.AddressLength, 4: dex.AddressLength, 9: 1, 10: 8}); err != nil {
		return nil, err
	}
	amts, err := decodeAmounts(pushes[5], pushes[6], pushes[7], pushes[8])
	if err != nil {
		return nil, err
	}
	return &Fill{
		Pair:      pair,
		Nonce:     encode.BytesToUint64(pushes[1]),
		Seq:       encode.BytesToUint64(pushes[2]),
		Maker:     dex.BytesToAddress(pushes[3]),
		Taker:     dex.BytesToAddress(pushes[4]),
		AskFilled: amts[0],
		BidFilled: amts[1],
		FeeAmount: amts[2],
		Rate:      amts[3],
		Status:    Status(pushes[9][0]),
		Stamp:     encode.DecodeTime(pushes[10]),
	}, nil
}

func checkLens(pushes [][]byte, lens map[int]int) error {
	for i, l := range lens {
		if len(pushes[i]) != l {
			return fmt.Errorf("push %d has length %d, expected %d", i, len(pushes[i]), l)
		}
	}
	return nil
}

func decodeAmounts(bs ...[]byte) ([]uint256.Int, error) {
	amts := make([]uint256.Int, len(bs))
	for i, b := range bs {
		amt, err := encode.BytesToAmount(b)
		if err != nil {
			return nil, err
		}
		amts[i] = amt
	}
	return amts, nil
}
