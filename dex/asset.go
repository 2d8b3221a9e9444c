// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package dex

import (
	"encoding/hex"
	"fmt"
	"strconv"
)

// ProxyID is the 4-byte capability id of an asset proxy.
type ProxyID uint32

// Known proxy ids.
const (
	FungibleProxyID    ProxyID = 0xcc4aa204
	NonFungibleProxyID ProxyID = 0x9013e617
)

// String returns the 0x-prefixed, zero-padded hex representation.
func (id ProxyID) String() string {
	return fmt.Sprintf("0x%08x", uint32(id))
}

// ParseProxyID parses a hex (with or without 0x) proxy id.
func ParseProxyID(s string) (ProxyID, error) {
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid proxy id %q: %w", s, err)
	}
	return ProxyID(v), nil
}

// TokenIDSize is the length of a non-fungible token identity.
const TokenIDSize = 32

// TokenID identifies a single non-fungible token within its collection.
type TokenID [TokenIDSize]byte

// String returns the 0x-prefixed hex representation.
func (id TokenID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// ParseTokenID parses a hex token id, with or without the 0x prefix. Shorter
// ids are left-padded with zeros, so "0x2a" is token 42.
func ParseTokenID(s string) (TokenID, error) {
	var id TokenID
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("invalid token id: %w", err)
	}
	if len(b) > TokenIDSize {
		return id, fmt.Errorf("token id too long: %d bytes", len(b))
	}
	copy(id[TokenIDSize-len(b):], b)
	return id, nil
}
