// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package dex

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AddressLength is the byte length of an Address.
const AddressLength = common.AddressLength

// Address identifies a principal (maker, taker, proxy) or an asset contract.
type Address = common.Address

// ZeroAddress is the unset Address. It is the "any" sentinel in filters.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed hex address.
func ParseAddress(s string) (Address, error) {
	if !common.IsHexAddress(s) {
		return ZeroAddress, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// BytesToAddress converts the last AddressLength bytes of b to an Address.
func BytesToAddress(b []byte) Address {
	return common.BytesToAddress(b)
}
