// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package fungible implements the asset proxy for fungible tokens. Balances
// and allowances live in an asset.Ledger. An owner authorizes the proxy by
// granting an allowance to the proxy's Address.
package fungible

import (
	"fmt"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/server/asset"
	"github.com/decred/dcrd/crypto/blake256"
	"github.com/holiman/uint256"
)

const driverName = "fungible"

// ProxyAddress is the spender identity owners approve.
var ProxyAddress = func() dex.Address {
	h := blake256.Sum256([]byte("dexcore fungible asset proxy"))
	return dex.BytesToAddress(h[:])
}()

// Driver implements asset.Driver.
type Driver struct{}

// Setup creates the fungible Proxy.
func (d *Driver) Setup(ledger asset.Ledger, logger dex.Logger) (asset.Proxy, error) {
	return NewProxy(ledger, logger), nil
}

func init() {
	asset.Register(driverName, &Driver{})
}

// Proxy is the fungible token proxy.
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

// ID is dex.FungibleProxyID.
func (p *Proxy) ID() dex.ProxyID {
	return dex.FungibleProxyID
}

// Address is ProxyAddress.
func (p *Proxy) Address() dex.Address {
	return ProxyAddress
}

// Decode checks the token address and amount. Fungible assets carry no data,
// so any data is ignored.
func (p *Proxy) Decode(token dex.Address, amount *uint256.Int, _ []byte) (asset.Ref, error) {
	if token == dex.ZeroAddress {
		return nil, dex.NewError(asset.ErrZeroAddress, "token")
	}
	if !dex.ValidAmount(amount) {
		return nil, dex.NewError(asset.ErrInvalidAmount, amount.Dec())
	}
	return &asset.FungibleRef{Token: token, Amount: *amount}, nil
}

// CanTransferFrom checks that the owner has at least amount of the token and
// has allowed the proxy to spend at least that much.
func (p *Proxy) CanTransferFrom(owner dex.Address, amount *uint256.Int, token dex.Address, _ []byte) bool {
	if !dex.ValidAmount(amount) {
		return false
	}
	var ok bool
	err := p.ledger.View(func(tx asset.LedgerTx) error {
		ok = checkSpend(tx, token, owner, amount) == nil
		return nil
	})
	if err != nil {
		p.log.Errorf("ledger view failed: %v", err)
		return false
	}
	return ok
}

func checkSpend(tx asset.Balances, token, owner dex.Address, amount *uint256.Int) error {
	bal, err := tx.Balance(token, owner)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return dex.NewError(asset.ErrInsufficientBalance, fmt.Sprintf("%s has %s, needs %s", owner, bal.Dec(), amount.Dec()))
	}
	allowance, err := tx.Allowance(token, owner, ProxyAddress)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return dex.NewError(asset.ErrInsufficientAllowance, fmt.Sprintf("%s allows %s, needs %s", owner, allowance.Dec(), amount.Dec()))
	}
	return nil
}

// TransferFrom moves amount of the token from one owner to another, consuming
// the same amount of the sender's allowance.
func (p *Proxy) TransferFrom(from, to dex.Address, amount *uint256.Int, token dex.Address, _ []byte) error {
	if to == dex.ZeroAddress {
		return dex.NewError(asset.ErrZeroAddress, "recipient")
	}
	if !dex.ValidAmount(amount) {
		return dex.NewError(asset.ErrInvalidAmount, amount.Dec())
	}
	err := p.ledger.Update(func(tx asset.LedgerTx) error {
		if err := checkSpend(tx, token, from, amount); err != nil {
			return err
		}
		allowance, err := tx.Allowance(token, from, ProxyAddress)
		if err != nil {
			return err
		}
		allowance.Sub(&allowance, amount)
		if err = tx.SetAllowance(token, from, ProxyAddress, &allowance); err != nil {
			return err
		}
		return move(tx, token, from, to, amount)
	})
	if err != nil {
		return err
	}
	p.log.Tracef("Transferred %s of token %s from %s to %s", amount.Dec(), token, from, to)
	return nil
}

// Revert undoes a TransferFrom with the same arguments, returning the tokens
// and restoring the consumed allowance.
func (p *Proxy) Revert(from, to dex.Address, amount *uint256.Int, token dex.Address, _ []byte) error {
	err := p.ledger.Update(func(tx asset.LedgerTx) error {
		if err := move(tx, token, to, from, amount); err != nil {
			return err
		}
		allowance, err := tx.Allowance(token, from, ProxyAddress)
		if err != nil {
			return err
		}
		if _, overflow := allowance.AddOverflow(&allowance, amount); overflow {
			return dex.NewError(asset.ErrInvalidAmount, "allowance overflow")
		}
		return tx.SetAllowance(token, from, ProxyAddress, &allowance)
	})
	if err != nil {
		return err
	}
	p.log.Debugf("Reverted transfer of %s of token %s from %s to %s", amount.Dec(), token, from, to)
	return nil
}

// move shifts balance without touching allowances.
func move(tx asset.Balances, token, from, to dex.Address, amount *uint256.Int) error {
	fromBal, err := tx.Balance(token, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return dex.NewError(asset.ErrInsufficientBalance, from.String())
	}
	fromBal.Sub(&fromBal, amount)
	if err = tx.SetBalance(token, from, &fromBal); err != nil {
		return err
	}
	toBal, err := tx.Balance(token, to)
	if err != nil {
		return err
	}
	if _, overflow := toBal.AddOverflow(&toBal, amount); overflow {
		return dex.NewError(asset.ErrInvalidAmount, "balance overflow")
	}
	return tx.SetBalance(token, to, &toBal)
}

// Mint credits the owner with amount of the token.
func (p *Proxy) Mint(token, owner dex.Address, amount *uint256.Int) error {
	if token == dex.ZeroAddress || owner == dex.ZeroAddress {
		return asset.ErrZeroAddress
	}
	return p.ledger.Update(func(tx asset.LedgerTx) error {
		bal, err := tx.Balance(token, owner)
		if err != nil {
			return err
		}
		if _, overflow := bal.AddOverflow(&bal, amount); overflow {
			return dex.NewError(asset.ErrInvalidAmount, "balance overflow")
		}
		return tx.SetBalance(token, owner, &bal)
	})
}

// Approve sets the amount of the owner's token that the spender may move.
func (p *Proxy) Approve(token, owner, spender dex.Address, amount *uint256.Int) error {
	if token == dex.ZeroAddress || owner == dex.ZeroAddress || spender == dex.ZeroAddress {
		return asset.ErrZeroAddress
	}
	return p.ledger.Update(func(tx asset.LedgerTx) error {
		return tx.SetAllowance(token, owner, spender, amount)
	})
}

// BalanceOf is the owner's balance of the token.
func (p *Proxy) BalanceOf(token, owner dex.Address) (bal uint256.Int, err error) {
	err = p.ledger.View(func(tx asset.LedgerTx) error {
		bal, err = tx.Balance(token, owner)
		return err
	})
	return
}

// Allowance is the amount of the owner's token the spender may move.
func (p *Proxy) Allowance(token, owner, spender dex.Address) (allowance uint256.Int, err error) {
	err = p.ledger.View(func(tx asset.LedgerTx) error {
		allowance, err = tx.Allowance(token, owner, spender)
		return err
	})
	return
}
