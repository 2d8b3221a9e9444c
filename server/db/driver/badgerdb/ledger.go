// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package badgerdb

import (
	"errors"
	"fmt"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/encode"
	"decred.org/dexcore/server/asset"
	"github.com/dgraph-io/badger/v4"
	"github.com/holiman/uint256"
)

// Ledger is an asset.Ledger stored in the DB. Zero amounts, unowned tokens
// and revoked approvals are deleted rather than stored.
type Ledger struct {
	db *DB
}

var _ asset.Ledger = (*Ledger)(nil)

// Ledger returns the asset ledger stored in the database.
func (d *DB) Ledger() *Ledger {
	return &Ledger{db: d}
}

// AssetLedger is the Ledger as an asset.Ledger.
func (d *DB) AssetLedger() asset.Ledger {
	return d.Ledger()
}

// View runs f in a read-only transaction.
func (l *Ledger) View(f func(asset.LedgerTx) error) error {
	return l.db.View(func(txn *badger.Txn) error {
		return f(&ledgerTx{txn})
	})
}

// Update runs f in a read-write transaction. Nothing is written if f returns
// an error.
func (l *Ledger) Update(f func(asset.LedgerTx) error) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return f(&ledgerTx{txn})
	})
}

type ledgerTx struct {
	txn *badger.Txn
}

func addrKey(p keyPrefix, addrs ...dex.Address) []byte {
	parts := make([][]byte, 0, len(addrs))
	for i := range addrs {
		parts = append(parts, addrs[i][:])
	}
	return prefixedKey(p, parts...)
}

// get returns nil for a missing key.
func (tx *ledgerTx) get(k []byte) ([]byte, error) {
	item, err := tx.txn.Get(k)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (tx *ledgerTx) getAmount(k []byte) (uint256.Int, error) {
	v, err := tx.get(k)
	if err != nil || v == nil {
		return uint256.Int{}, err
	}
	return encode.BytesToAmount(v)
}

func (tx *ledgerTx) putAmount(k []byte, amt *uint256.Int) error {
	if amt.IsZero() {
		return tx.txn.Delete(k)
	}
	return tx.txn.Set(k, encode.AmountBytes(amt))
}

func (tx *ledgerTx) Balance(token, owner dex.Address) (uint256.Int, error) {
	return tx.getAmount(addrKey(balancesPrefix, token, owner))
}

func (tx *ledgerTx) SetBalance(token, owner dex.Address, amt *uint256.Int) error {
	return tx.putAmount(addrKey(balancesPrefix, token, owner), amt)
}

func (tx *ledgerTx) Allowance(token, owner, spender dex.Address) (uint256.Int, error) {
	return tx.getAmount(addrKey(allowancesPrefix, token, owner, spender))
}

func (tx *ledgerTx) SetAllowance(token, owner, spender dex.Address, amt *uint256.Int) error {
	return tx.putAmount(addrKey(allowancesPrefix, token, owner, spender), amt)
}

func tokenKey(collection dex.Address, id dex.TokenID) []byte {
	return prefixedKey(ownersPrefix, collection[:], id[:])
}

func (tx *ledgerTx) OwnerOf(collection dex.Address, id dex.TokenID) (dex.Address, error) {
	v, err := tx.get(tokenKey(collection, id))
	if err != nil || v == nil {
		return dex.ZeroAddress, err
	}
	if len(v) != dex.AddressLength {
		return dex.ZeroAddress, fmt.Errorf("owner of token %s has length %d", id, len(v))
	}
	return dex.BytesToAddress(v), nil
}

func (tx *ledgerTx) SetOwner(collection dex.Address, id dex.TokenID, owner dex.Address) error {
	k := tokenKey(collection, id)
	if owner == dex.ZeroAddress {
		return tx.txn.Delete(k)
	}
	return tx.txn.Set(k, encode.CopySlice(owner[:]))
}

func (tx *ledgerTx) IsApprovedForAll(collection, owner, operator dex.Address) (bool, error) {
	v, err := tx.get(addrKey(approvalsPrefix, collection, owner, operator))
	return v != nil, err
}

func (tx *ledgerTx) SetApprovalForAll(collection, owner, operator dex.Address, approved bool) error {
	k := addrKey(approvalsPrefix, collection, owner, operator)
	if !approved {
		return tx.txn.Delete(k)
	}
	return tx.txn.Set(k, encode.ByteTrue)
}
