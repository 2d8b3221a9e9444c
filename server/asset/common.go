// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package asset

import (
	"decred.org/dexcore/dex"
	"github.com/holiman/uint256"
)

// Errors returned by proxies and the registry.
const (
	ErrZeroProxyID           = dex.ErrorKind("zero proxy id")
	ErrProxyRegistered       = dex.ErrorKind("proxy already registered")
	ErrNilProxy              = dex.ErrorKind("nil proxy")
	ErrInvalidData           = dex.ErrorKind("invalid asset data")
	ErrInvalidAmount         = dex.ErrorKind("invalid amount")
	ErrZeroAddress           = dex.ErrorKind("zero address")
	ErrInsufficientBalance   = dex.ErrorKind("insufficient balance")
	ErrInsufficientAllowance = dex.ErrorKind("insufficient allowance")
	ErrNotOwner              = dex.ErrorKind("not token owner")
	ErrNotApproved           = dex.ErrorKind("proxy not approved")
)

// Proxy moves one class of asset on behalf of its owners. Owners authorize a
// proxy by approving its Address as a spender or operator on the ledger.
type Proxy interface {
	// ID is the proxy's capability id.
	ID() dex.ProxyID
	// Address is the identity owners approve.
	Address() dex.Address
	// Decode validates the asset-specific data and amount for the asset,
	// returning the tagged reference they describe.
	Decode(assetAddr dex.Address, amount *uint256.Int, data []byte) (Ref, error)
	// CanTransferFrom checks that the owner holds and has authorized the
	// transfer of the asset. It is a soft check. TransferFrom may still
	// fail later if the ledger changes.
	CanTransferFrom(owner dex.Address, amount *uint256.Int, assetAddr dex.Address, data []byte) bool
	// TransferFrom moves the asset from one principal to another.
	TransferFrom(from, to dex.Address, amount *uint256.Int, assetAddr dex.Address, data []byte) error
}

// Reverter is implemented by proxies that can undo a completed TransferFrom
// with the same arguments. Reverting restores both the holdings and any
// consumed authorization.
type Reverter interface {
	Revert(from, to dex.Address, amount *uint256.Int, assetAddr dex.Address, data []byte) error
}

// Ref is a decoded, typed reference to an asset amount. It is one of
// *FungibleRef or *NonFungibleRef.
type Ref interface {
	ProxyID() dex.ProxyID
	Asset() dex.Address
}

// FungibleRef is an amount of a fungible token.
type FungibleRef struct {
	Token  dex.Address
	Amount uint256.Int
}

// ProxyID is the fungible proxy id.
func (r *FungibleRef) ProxyID() dex.ProxyID { return dex.FungibleProxyID }

// Asset is the token address.
func (r *FungibleRef) Asset() dex.Address { return r.Token }

// NonFungibleRef is a single non-fungible token.
type NonFungibleRef struct {
	Collection dex.Address
	ID         dex.TokenID
}

// ProxyID is the non-fungible proxy id.
func (r *NonFungibleRef) ProxyID() dex.ProxyID { return dex.NonFungibleProxyID }

// Asset is the collection address.
func (r *NonFungibleRef) Asset() dex.Address { return r.Collection }

// TokenIDFromData extracts the token identity from the first 32 bytes of
// non-fungible asset data. Trailing bytes are ignored.
func TokenIDFromData(data []byte) (dex.TokenID, error) {
	var id dex.TokenID
	if len(data) < dex.TokenIDSize {
		return id, dex.NewError(ErrInvalidData, "token data must be at least 32 bytes")
	}
	copy(id[:], data[:dex.TokenIDSize])
	return id, nil
}
