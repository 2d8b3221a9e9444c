// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package bolt

import (
	"fmt"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/encode"
	"decred.org/dexcore/server/asset"
	"github.com/holiman/uint256"
	"go.etcd.io/bbolt"
)

// Ledger is an asset.Ledger stored in the BoltDB. Zero balances, zero
// allowances, unowned tokens and revoked approvals are deleted rather than
// stored.
type Ledger struct {
	db *BoltDB
}

var _ asset.Ledger = (*Ledger)(nil)

// Ledger returns the asset ledger stored in the database.
func (bdb *BoltDB) Ledger() *Ledger {
	return &Ledger{db: bdb}
}

// AssetLedger is the Ledger as an asset.Ledger.
func (bdb *BoltDB) AssetLedger() asset.Ledger {
	return bdb.Ledger()
}

// View runs f in a read-only transaction.
func (l *Ledger) View(f func(asset.LedgerTx) error) error {
	return l.db.View(func(tx *bbolt.Tx) error {
		ltx, err := newLedgerTx(tx)
		if err != nil {
			return err
		}
		return f(ltx)
	})
}

// Update runs f in a read-write transaction. The transaction is rolled back if
// f returns an error.
func (l *Ledger) Update(f func(asset.LedgerTx) error) error {
	return l.db.Update(func(tx *bbolt.Tx) error {
		ltx, err := newLedgerTx(tx)
		if err != nil {
			return err
		}
		return f(ltx)
	})
}

type ledgerTx struct {
	balances, allowances, owners, approvals *bbolt.Bucket
}

func newLedgerTx(tx *bbolt.Tx) (*ledgerTx, error) {
	ltx := &ledgerTx{
		balances:   tx.Bucket(balancesBucket),
		allowances: tx.Bucket(allowancesBucket),
		owners:     tx.Bucket(ownersBucket),
		approvals:  tx.Bucket(approvalsBucket),
	}
	if ltx.balances == nil || ltx.allowances == nil || ltx.owners == nil || ltx.approvals == nil {
		return nil, fmt.Errorf("failed to open ledger buckets")
	}
	return ltx, nil
}

func addrKey(addrs ...dex.Address) []byte {
	k := make([]byte, 0, len(addrs)*dex.AddressLength)
	for _, a := range addrs {
		k = append(k, a[:]...)
	}
	return k
}

func getAmount(bkt *bbolt.Bucket, k []byte) (uint256.Int, error) {
	v := bkt.Get(k)
	if v == nil {
		return uint256.Int{}, nil
	}
	return encode.BytesToAmount(v)
}

func putAmount(bkt *bbolt.Bucket, k []byte, amt *uint256.Int) error {
	if amt.IsZero() {
		return bkt.Delete(k)
	}
	return bkt.Put(k, encode.AmountBytes(amt))
}

func (tx *ledgerTx) Balance(token, owner dex.Address) (uint256.Int, error) {
	return getAmount(tx.balances, addrKey(token, owner))
}

func (tx *ledgerTx) SetBalance(token, owner dex.Address, amt *uint256.Int) error {
	return putAmount(tx.balances, addrKey(token, owner), amt)
}

func (tx *ledgerTx) Allowance(token, owner, spender dex.Address) (uint256.Int, error) {
	return getAmount(tx.allowances, addrKey(token, owner, spender))
}

func (tx *ledgerTx) SetAllowance(token, owner, spender dex.Address, amt *uint256.Int) error {
	return putAmount(tx.allowances, addrKey(token, owner, spender), amt)
}

func tokenKey(collection dex.Address, id dex.TokenID) []byte {
	return append(addrKey(collection), id[:]...)
}

func (tx *ledgerTx) OwnerOf(collection dex.Address, id dex.TokenID) (dex.Address, error) {
	v := tx.owners.Get(tokenKey(collection, id))
	if v == nil {
		return dex.ZeroAddress, nil
	}
	if len(v) != dex.AddressLength {
		return dex.ZeroAddress, fmt.Errorf("owner of token %s has length %d", id, len(v))
	}
	return dex.BytesToAddress(v), nil
}

func (tx *ledgerTx) SetOwner(collection dex.Address, id dex.TokenID, owner dex.Address) error {
	k := tokenKey(collection, id)
	if owner == dex.ZeroAddress {
		return tx.owners.Delete(k)
	}
	return tx.owners.Put(k, bCopy(owner[:]))
}

func (tx *ledgerTx) IsApprovedForAll(collection, owner, operator dex.Address) (bool, error) {
	return tx.approvals.Get(addrKey(collection, owner, operator)) != nil, nil
}

func (tx *ledgerTx) SetApprovalForAll(collection, owner, operator dex.Address, approved bool) error {
	k := addrKey(collection, owner, operator)
	if !approved {
		return tx.approvals.Delete(k)
	}
	return tx.approvals.Put(k, encode.ByteTrue)
}
