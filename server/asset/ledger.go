// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package asset

import (
	"sync"

	"decred.org/dexcore/dex"
	"github.com/holiman/uint256"
)

// Balances is the fungible token view of a ledger transaction.
type Balances interface {
	Balance(token, owner dex.Address) (uint256.Int, error)
	SetBalance(token, owner dex.Address, amt *uint256.Int) error
	Allowance(token, owner, spender dex.Address) (uint256.Int, error)
	SetAllowance(token, owner, spender dex.Address, amt *uint256.Int) error
}

// Tokens is the non-fungible token view of a ledger transaction. An unowned
// token has the zero address as its owner.
type Tokens interface {
	OwnerOf(collection dex.Address, id dex.TokenID) (dex.Address, error)
	SetOwner(collection dex.Address, id dex.TokenID, owner dex.Address) error
	IsApprovedForAll(collection, owner, operator dex.Address) (bool, error)
	SetApprovalForAll(collection, owner, operator dex.Address, approved bool) error
}

// LedgerTx is a read or read-write ledger transaction.
type LedgerTx interface {
	Balances
	Tokens
}

// Ledger is the hosting runtime's record of asset holdings. Update must apply
// all or none of the writes made by the function, depending on whether it
// returns an error.
type Ledger interface {
	View(func(LedgerTx) error) error
	Update(func(LedgerTx) error) error
}

type balanceKey struct {
	token, owner dex.Address
}

type allowanceKey struct {
	token, owner, spender dex.Address
}

type tokenKey struct {
	collection dex.Address
	id         dex.TokenID
}

type approvalKey struct {
	collection, owner, operator dex.Address
}

// MemoryLedger is an in-process Ledger.
type MemoryLedger struct {
	mtx        sync.RWMutex
	balances   map[balanceKey]uint256.Int
	allowances map[allowanceKey]uint256.Int
	owners     map[tokenKey]dex.Address
	approvals  map[approvalKey]bool
}

var _ Ledger = (*MemoryLedger)(nil)

// NewMemoryLedger is the constructor for an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances:   make(map[balanceKey]uint256.Int),
		allowances: make(map[allowanceKey]uint256.Int),
		owners:     make(map[tokenKey]dex.Address),
		approvals:  make(map[approvalKey]bool),
	}
}

// View runs the function with a read-only transaction. Writes fail.
func (l *MemoryLedger) View(f func(LedgerTx) error) error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return f(&memTx{l: l})
}

// Update runs the function with a read-write transaction. If the function
// returns an error, every write it made is undone.
func (l *MemoryLedger) Update(f func(LedgerTx) error) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	tx := &memTx{l: l, writable: true}
	err := f(tx)
	if err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
	}
	return err
}

const errReadOnly = dex.ErrorKind("write in read-only ledger transaction")

// memTx journals the previous value of every write so that a failed Update
// can be undone.
type memTx struct {
	l        *MemoryLedger
	writable bool
	undo     []func()
}

func (tx *memTx) Balance(token, owner dex.Address) (uint256.Int, error) {
	return tx.l.balances[balanceKey{token, owner}], nil
}

func (tx *memTx) SetBalance(token, owner dex.Address, amt *uint256.Int) error {
	if !tx.writable {
		return errReadOnly
	}
	k := balanceKey{token, owner}
	prev, had := tx.l.balances[k]
	tx.undo = append(tx.undo, func() {
		if had {
			tx.l.balances[k] = prev
		} else {
			delete(tx.l.balances, k)
		}
	})
	tx.l.balances[k] = *amt
	return nil
}

func (tx *memTx) Allowance(token, owner, spender dex.Address) (uint256.Int, error) {
	return tx.l.allowances[allowanceKey{token, owner, spender}], nil
}

func (tx *memTx) SetAllowance(token, owner, spender dex.Address, amt *uint256.Int) error {
	if !tx.writable {
		return errReadOnly
	}
	k := allowanceKey{token, owner, spender}
	prev, had := tx.l.allowances[k]
	tx.undo = append(tx.undo, func() {
		if had {
			tx.l.allowances[k] = prev
		} else {
			delete(tx.l.allowances, k)
		}
	})
	tx.l.allowances[k] = *amt
	return nil
}

func (tx *memTx) OwnerOf(collection dex.Address, id dex.TokenID) (dex.Address, error) {
	return tx.l.owners[tokenKey{collection, id}], nil
}

func (tx *memTx) SetOwner(collection dex.Address, id dex.TokenID, owner dex.Address) error {
	if !tx.writable {
		return errReadOnly
	}
	k := tokenKey{collection, id}
	prev, had := tx.l.owners[k]
	tx.undo = append(tx.undo, func() {
		if had {
			tx.l.owners[k] = prev
		} else {
			delete(tx.l.owners, k)
		}
	})
	tx.l.owners[k] = owner
	return nil
}

func (tx *memTx) IsApprovedForAll(collection, owner, operator dex.Address) (bool, error) {
	return tx.l.approvals[approvalKey{collection, owner, operator}], nil
}

func (tx *memTx) SetApprovalForAll(collection, owner, operator dex.Address, approved bool) error {
	if !tx.writable {
		return errReadOnly
	}
	k := approvalKey{collection, owner, operator}
	prev, had := tx.l.approvals[k]
	tx.undo = append(tx.undo, func() {
		if had {
			tx.l.approvals[k] = prev
		} else {
			delete(tx.l.approvals, k)
		}
	})
	tx.l.approvals[k] = approved
	return nil
}
