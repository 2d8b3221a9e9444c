// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package asset

import (
	"errors"
	"testing"

	"decred.org/dexcore/dex"
	"github.com/holiman/uint256"
)

type tProxy struct {
	id   dex.ProxyID
	addr dex.Address
}

func (p *tProxy) ID() dex.ProxyID      { return p.id }
func (p *tProxy) Address() dex.Address { return p.addr }
func (p *tProxy) Decode(assetAddr dex.Address, amount *uint256.Int, data []byte) (Ref, error) {
	return &FungibleRef{Token: assetAddr, Amount: *amount}, nil
}
func (p *tProxy) CanTransferFrom(dex.Address, *uint256.Int, dex.Address, []byte) bool {
	return true
}
func (p *tProxy) TransferFrom(dex.Address, dex.Address, *uint256.Int, dex.Address, []byte) error {
	return nil
}

type tDriver struct{}

func (tDriver) Setup(ledger Ledger, logger dex.Logger) (Proxy, error) {
	return &tProxy{id: 7}, nil
}

func startLogger() {
	UseLogger(dex.StdOutLogger("ASSETTEST", dex.LevelTrace))
}

func TestRegistry(t *testing.T) {
	startLogger()
	r := NewRegistry()
	p1 := &tProxy{id: 1, addr: dex.BytesToAddress([]byte{1})}
	p2 := &tProxy{id: 2, addr: dex.BytesToAddress([]byte{2})}

	if r.ProxyOf(1) != nil {
		t.Fatalf("proxy found in empty registry")
	}
	if err := r.Register(0, p1); !errors.Is(err, ErrZeroProxyID) {
		t.Fatalf("expected ErrZeroProxyID, got %v", err)
	}
	if err := r.Register(1, nil); !errors.Is(err, ErrNilProxy) {
		t.Fatalf("expected ErrNilProxy, got %v", err)
	}
	if err := r.Register(2, p2); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := r.Register(1, p1); err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if err := r.Register(1, p2); !errors.Is(err, ErrProxyRegistered) {
		t.Fatalf("expected ErrProxyRegistered, got %v", err)
	}
	if r.ProxyOf(1) != p1 || r.ProxyOf(2) != p2 {
		t.Fatalf("wrong proxies returned")
	}
	ids := r.IDs()
	if len(ids) != 2 || ids[0] != 2 || ids[1] != 1 {
		t.Fatalf("wrong ids %v", ids)
	}
}

func TestDrivers(t *testing.T) {
	Register("tdriver", tDriver{})
	p, err := Setup("tdriver", NewMemoryLedger(), dex.Disabled)
	if err != nil {
		t.Fatalf("Setup error: %v", err)
	}
	if p.ID() != 7 {
		t.Fatalf("wrong proxy from driver")
	}
	if _, err := Setup("nope", nil, dex.Disabled); err == nil {
		t.Fatalf("no error for unknown driver")
	}
	var found bool
	for _, name := range Drivers() {
		found = found || name == "tdriver"
	}
	if !found {
		t.Fatalf("registered driver not listed")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("no panic for duplicate driver")
		}
	}()
	Register("tdriver", tDriver{})
}

func TestTokenIDFromData(t *testing.T) {
	data := make([]byte, 40)
	data[31] = 42
	data[35] = 9
	id, err := TokenIDFromData(data)
	if err != nil {
		t.Fatalf("TokenIDFromData error: %v", err)
	}
	if id[31] != 42 {
		t.Fatalf("wrong token id %s", id)
	}
	if _, err = TokenIDFromData(data[:31]); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("expected ErrInvalidData, got %v", err)
	}
}
