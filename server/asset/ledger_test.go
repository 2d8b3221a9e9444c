// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package asset

import (
	"errors"
	"testing"

	"decred.org/dexcore/dex"
	"github.com/holiman/uint256"
)

func TestMemoryLedgerRollback(t *testing.T) {
	l := NewMemoryLedger()
	token := dex.BytesToAddress([]byte{0xaa})
	coll := dex.BytesToAddress([]byte{0xbb})
	alice := dex.BytesToAddress([]byte{0x01})
	bob := dex.BytesToAddress([]byte{0x02})
	var id dex.TokenID
	id[31] = 5

	err := l.Update(func(tx LedgerTx) error {
		if err := tx.SetBalance(token, alice, uint256.NewInt(100)); err != nil {
			return err
		}
		if err := tx.SetAllowance(token, alice, bob, uint256.NewInt(50)); err != nil {
			return err
		}
		return tx.SetOwner(coll, id, alice)
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	errBoom := errors.New("boom")
	err = l.Update(func(tx LedgerTx) error {
		tx.SetBalance(token, alice, uint256.NewInt(1))
		tx.SetBalance(token, bob, uint256.NewInt(99))
		tx.SetAllowance(token, alice, bob, new(uint256.Int))
		tx.SetOwner(coll, id, bob)
		tx.SetApprovalForAll(coll, alice, bob, true)
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("wrong error %v", err)
	}

	err = l.View(func(tx LedgerTx) error {
		if bal, _ := tx.Balance(token, alice); bal.Uint64() != 100 {
			t.Errorf("alice balance not restored, got %s", bal.Dec())
		}
		if bal, _ := tx.Balance(token, bob); !bal.IsZero() {
			t.Errorf("bob balance not removed, got %s", bal.Dec())
		}
		if allow, _ := tx.Allowance(token, alice, bob); allow.Uint64() != 50 {
			t.Errorf("allowance not restored, got %s", allow.Dec())
		}
		if owner, _ := tx.OwnerOf(coll, id); owner != alice {
			t.Errorf("owner not restored, got %s", owner)
		}
		if ok, _ := tx.IsApprovedForAll(coll, alice, bob); ok {
			t.Errorf("approval not removed")
		}
		if err := tx.SetBalance(token, alice, uint256.NewInt(1)); err == nil {
			t.Errorf("write allowed in View")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View error: %v", err)
	}
}
