// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package nft

import (
	"errors"
	"testing"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/server/asset"
)

var (
	tColl  = dex.BytesToAddress([]byte{0xc0, 0x11})
	tAlice = dex.BytesToAddress([]byte{0xa1})
	tBob   = dex.BytesToAddress([]byte{0xb0})
)

func tokenData(id byte, extra ...byte) ([]byte, dex.TokenID) {
	var tid dex.TokenID
	tid[31] = id
	return append(tid[:], extra...), tid
}

func TestDecode(t *testing.T) {
	p := NewProxy(asset.NewMemoryLedger(), dex.Disabled)
	data, id := tokenData(3, 0xff, 0xee)
	ref, err := p.Decode(tColl, nil, data)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	nref, ok := ref.(*asset.NonFungibleRef)
	if !ok || nref.ID != id || nref.Collection != tColl || ref.ProxyID() != dex.NonFungibleProxyID {
		t.Fatalf("wrong ref %+v", ref)
	}
	if _, err = p.Decode(tColl, nil, data[:20]); !errors.Is(err, asset.ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}

func TestTransferFrom(t *testing.T) {
	p := NewProxy(asset.NewMemoryLedger(), dex.StdOutLogger("NFTTEST", dex.LevelTrace))
	data, id := tokenData(1)
	if err := p.Mint(tColl, id, tAlice); err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if err := p.Mint(tColl, id, tBob); err == nil {
		t.Fatalf("no error minting a token twice")
	}
	if p.CanTransferFrom(tAlice, nil, tColl, data) {
		t.Fatalf("transfer allowed without approval")
	}
	if err := p.TransferFrom(tAlice, tBob, nil, tColl, data); !errors.Is(err, asset.ErrNotApproved) {
		t.Fatalf("expected ErrNotApproved, got %v", err)
	}
	if err := p.SetApprovalForAll(tColl, tAlice, ProxyAddress, true); err != nil {
		t.Fatalf("SetApprovalForAll error: %v", err)
	}
	if p.CanTransferFrom(tBob, nil, tColl, data) {
		t.Fatalf("non-owner can transfer")
	}
	if !p.CanTransferFrom(tAlice, nil, tColl, data) {
		t.Fatalf("owner cannot transfer")
	}
	// Trailing bytes do not change the token.
	longData := append(append([]byte{}, data...), 9, 9, 9)
	if err := p.TransferFrom(tAlice, tBob, nil, tColl, longData); err != nil {
		t.Fatalf("TransferFrom error: %v", err)
	}
	if owner, _ := p.OwnerOf(tColl, id); owner != tBob {
		t.Fatalf("wrong owner %s after transfer", owner)
	}
	if err := p.TransferFrom(tAlice, tBob, nil, tColl, data); !errors.Is(err, asset.ErrNotOwner) {
		t.Fatalf("expected ErrNotOwner, got %v", err)
	}
	if err := p.Revert(tAlice, tBob, nil, tColl, data); err != nil {
		t.Fatalf("Revert error: %v", err)
	}
	if owner, _ := p.OwnerOf(tColl, id); owner != tAlice {
		t.Fatalf("wrong owner %s after revert", owner)
	}
}
