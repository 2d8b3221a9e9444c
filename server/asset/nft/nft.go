// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package nft implements the asset proxy for non-fungible tokens. A token is
// identified by its collection address and the first 32 bytes of the asset
// data. Amounts are ignored. An owner authorizes the proxy by approving its
// Address as an operator for the collection.
package nft

import (
	"decred.org/dexcore/dex"
	"decred.org/dexcore/server/asset"
	"github.com/decred/dcrd/crypto/blake256"
	"github.com/holiman/uint256"
)

const driverName = "nft"

// ProxyAddress is the operator identity owners approve.
var ProxyAddress = func() dex.Address {
	h := blake256.Sum256([]byte("dexcore non-fungible asset proxy"))
	return dex.BytesToAddress(h[:])
}()

// Driver implements asset.Driver.
type Driver struct{}

// Setup creates the non-fungible Proxy.
func (d *Driver) Setup(ledger asset.Ledger, logger dex.Logger) (asset.Proxy, error) {
	return NewProxy(ledger, logger), nil
}

func init() {
	asset.Register(driverName, &Driver{})
}

// Proxy is the non-fungible token proxy.
type Proxy struct {
	ledger asset.Ledger
	log    dex.Logger
}

var (
	_ asset.Proxy    = (*Proxy)(nil)
	_ asset.Reverter = (*Proxy)(nil)
)

// NewProxy is the constructor for a Proxy.
func NewProxy(ledger asset.Ledger, logger dex.Logger) *Proxy {
	return &Proxy{
		ledger: ledger,
		log:    logger,
	}
}

// ID is dex.NonFungibleProxyID.
func (p *Proxy) ID() dex.ProxyID {
	return dex.NonFungibleProxyID
}

// Address is ProxyAddress.
func (p *Proxy) Address() dex.Address {
	return ProxyAddress
}

// Decode extracts the token id from the data. The amount is not checked.
func (p *Proxy) Decode(collection dex.Address, _ *uint256.Int, data []byte) (asset.Ref, error) {
	if collection == dex.ZeroAddress {
		return nil, dex.NewError(asset.ErrZeroAddress, "collection")
	}
	id, err := asset.TokenIDFromData(data)
	if err != nil {
		return nil, err
	}
	return &asset.NonFungibleRef{Collection: collection, ID: id}, nil
}

// CanTransferFrom checks that the owner holds the token and has approved the
// proxy as an operator.
func (p *Proxy) CanTransferFrom(owner dex.Address, _ *uint256.Int, collection dex.Address, data []byte) bool {
	id, err := asset.TokenIDFromData(data)
	if err != nil {
		return false
	}
	var ok bool
	err = p.ledger.View(func(tx asset.LedgerTx) error {
		ok = checkOperator(tx, collection, id, owner) == nil
		return nil
	})
	if err != nil {
		p.log.Errorf("ledger view failed: %v", err)
		return false
	}
	return ok
}

func checkOperator(tx asset.Tokens, collection dex.Address, id dex.TokenID, owner dex.Address) error {
	holder, err := tx.OwnerOf(collection, id)
	if err != nil {
		return err
	}
	if holder != owner || owner == dex.ZeroAddress {
		return dex.NewError(asset.ErrNotOwner, id.String())
	}
	approved, err := tx.IsApprovedForAll(collection, owner, ProxyAddress)
	if err != nil {
		return err
	}
	if !approved {
		return dex.NewError(asset.ErrNotApproved, owner.String())
	}
	return nil
}

// TransferFrom moves the token identified by data from one owner to another.
func (p *Proxy) TransferFrom(from, to dex.Address, _ *uint256.Int, collection dex.Address, data []byte) error {
	if to == dex.ZeroAddress {
		return dex.NewError(asset.ErrZeroAddress, "recipient")
	}
	id, err := asset.TokenIDFromData(data)
	if err != nil {
		return err
	}
	err = p.ledger.Update(func(tx asset.LedgerTx) error {
		if err := checkOperator(tx, collection, id, from); err != nil {
			return err
		}
		return tx.SetOwner(collection, id, to)
	})
	if err != nil {
		return err
	}
	p.log.Tracef("Transferred token %s of collection %s from %s to %s", id, collection, from, to)
	return nil
}

// Revert returns a transferred token to its previous owner. The recipient must
// still hold it.
func (p *Proxy) Revert(from, to dex.Address, _ *uint256.Int, collection dex.Address, data []byte) error {
	id, err := asset.TokenIDFromData(data)
	if err != nil {
		return err
	}
	err = p.ledger.Update(func(tx asset.LedgerTx) error {
		holder, err := tx.OwnerOf(collection, id)
		if err != nil {
			return err
		}
		if holder != to {
			return dex.NewError(asset.ErrNotOwner, id.String())
		}
		return tx.SetOwner(collection, id, from)
	})
	if err != nil {
		return err
	}
	p.log.Debugf("Reverted transfer of token %s of collection %s from %s to %s", id, collection, from, to)
	return nil
}

// Mint assigns an unowned token to the owner.
func (p *Proxy) Mint(collection dex.Address, id dex.TokenID, owner dex.Address) error {
	if collection == dex.ZeroAddress || owner == dex.ZeroAddress {
		return asset.ErrZeroAddress
	}
	return p.ledger.Update(func(tx asset.LedgerTx) error {
		holder, err := tx.OwnerOf(collection, id)
		if err != nil {
			return err
		}
		if holder != dex.ZeroAddress {
			return dex.NewError(asset.ErrInvalidData, "token "+id.String()+" already minted")
		}
		return tx.SetOwner(collection, id, owner)
	})
}

// SetApprovalForAll approves or revokes the operator for all of the owner's
// tokens in the collection.
func (p *Proxy) SetApprovalForAll(collection, owner, operator dex.Address, approved bool) error {
	if collection == dex.ZeroAddress || owner == dex.ZeroAddress || operator == dex.ZeroAddress {
		return asset.ErrZeroAddress
	}
	return p.ledger.Update(func(tx asset.LedgerTx) error {
		return tx.SetApprovalForAll(collection, owner, operator, approved)
	})
}

// OwnerOf is the token's owner, or the zero address if it has not been
// minted.
func (p *Proxy) OwnerOf(collection dex.Address, id dex.TokenID) (owner dex.Address, err error) {
	err = p.ledger.View(func(tx asset.LedgerTx) error {
		owner, err = tx.OwnerOf(collection, id)
		return err
	})
	return
}
