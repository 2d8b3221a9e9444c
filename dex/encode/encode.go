// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package encode provides the byte-level encodings used to persist orders,
// fills and ledger entries.
package encode

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/holiman/uint256"
)

var (
	// IntCoder is the integer byte-encoding order. IntCoder must be BigEndian
	// so that encoded integers sort correctly as database keys.
	IntCoder = binary.BigEndian
	// A byte-slice representation of boolean false.
	ByteFalse = []byte{0}
	// A byte-slice representation of boolean true.
	ByteTrue = []byte{1}
)

// AmountSize is the length of an encoded amount.
const AmountSize = 32

// Uint32Bytes converts the uint32 to a length-4, big-endian encoded byte slice.
func Uint32Bytes(i uint32) []byte {
	b := make([]byte, 4)
	IntCoder.PutUint32(b, i)
	return b
}

// BytesToUint32 converts the length-4, big-endian encoded byte slice to a uint32.
func BytesToUint32(b []byte) uint32 {
	return IntCoder.Uint32(b[:4])
}

// Uint64Bytes converts the uint64 to a length-8, big-endian encoded byte slice.
func Uint64Bytes(i uint64) []byte {
	b := make([]byte, 8)
	IntCoder.PutUint64(b, i)
	return b
}

// BytesToUint64 converts the length-8, big-endian encoded byte slice to a uint64.
func BytesToUint64(b []byte) uint64 {
	return IntCoder.Uint64(b[:8])
}

// AmountBytes encodes the amount as a length-32, big-endian byte slice.
func AmountBytes(amt *uint256.Int) []byte {
	b := amt.Bytes32()
	return b[:]
}

// BytesToAmount decodes a big-endian amount of up to 32 bytes.
func BytesToAmount(b []byte) (uint256.Int, error) {
	var amt uint256.Int
	if len(b) > AmountSize {
		return amt, fmt.Errorf("amount encoding too long: %d bytes", len(b))
	}
	amt.SetBytes(b)
	return amt, nil
}

// TimeBytes encodes the time as 8 bytes of unix seconds. The zero time is
// encoded as zero.
func TimeBytes(t time.Time) []byte {
	if t.IsZero() {
		return Uint64Bytes(0)
	}
	return Uint64Bytes(uint64(t.Unix()))
}

// DecodeTime interprets bytes as a uint64 unix-seconds timestamp.
func DecodeTime(b []byte) time.Time {
	secs := BytesToUint64(b)
	if secs == 0 {
		return time.Time{}
	}
	return time.Unix(int64(secs), 0).UTC()
}

// CopySlice makes a copy of the slice.
func CopySlice(b []byte) []byte {
	if b == nil {
		return nil
	}
	newB := make([]byte, len(b))
	copy(newB, b)
	return newB
}

// BuildyBytes is a byte-slice with an AddData method for building linearly
// encoded 2D byte slices. The canonical use is a "versioned blob", where the
// BuildyBytes starts with a single version byte:
//
//	b := BuildyBytes{0}.AddData(data1).AddData(data2)
//
// Decode with DecodeBlob.
type BuildyBytes []byte

// AddData appends the length-prefixed data. Lengths under 255 take a single
// byte. Longer pushes are flagged with 0xff followed by a 4-byte length.
func (b BuildyBytes) AddData(d []byte) BuildyBytes {
	l := len(d)
	if l < 0xff {
		b = append(b, byte(l))
		return append(b, d...)
	}
	if uint64(l) > math.MaxUint32 {
		panic("cannot use AddData for pushes > 4294967295 bytes")
	}
	b = append(b, 0xff)
	b = append(b, Uint32Bytes(uint32(l))...)
	return append(b, d...)
}

// ExtractPushes parses the linearly-encoded 2D byte slice into a slice of
// slices. Empty pushes are nil slices.
func ExtractPushes(b []byte, preAlloc ...int) ([][]byte, error) {
	allocPushes := 2
	if len(preAlloc) > 0 {
		allocPushes = preAlloc[0]
	}
	pushes := make([][]byte, 0, allocPushes)
	for len(b) > 0 {
		l := int(b[0])
		b = b[1:]
		if l == 0xff {
			if len(b) < 4 {
				return nil, fmt.Errorf("4 bytes not available for data length")
			}
			l = int(BytesToUint32(b))
			b = b[4:]
		}
		if len(b) < l {
			return nil, fmt.Errorf("data too short for pop of %d bytes", l)
		}
		if l == 0 {
			pushes = append(pushes, nil)
			continue
		}
		pushes = append(pushes, b[:l])
		b = b[l:]
	}
	return pushes, nil
}

// DecodeBlob decodes a versioned blob into its version and the pushes extracted
// from its data. Empty pushes will be nil.
func DecodeBlob(b []byte, preAlloc ...int) (byte, [][]byte, error) {
	if len(b) == 0 {
		return 0, nil, fmt.Errorf("zero length blob not allowed")
	}
	ver := b[0]
	pushes, err := ExtractPushes(b[1:], preAlloc...)
	return ver, pushes, err
}
