// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

// Package config parses ini-formatted seed files that describe initial ledger
// state: fungible token balances and non-fungible token ownership.
//
// A seed file has one section per asset:
//
//	[token 0x00000000000000000000000000000000000000aa]
//	0x0000000000000000000000000000000000000001 = 1000000
//
//	[collection 0x00000000000000000000000000000000000000bb]
//	0x2a = 0x0000000000000000000000000000000000000001
package config

import (
	"fmt"
	"strings"

	"decred.org/dexcore/dex"
	"github.com/holiman/uint256"
	"gopkg.in/ini.v1"
)

const (
	tokenSectionPrefix      = "token "
	collectionSectionPrefix = "collection "
)

// Balance is a fungible token balance.
type Balance struct {
	Token  dex.Address
	Owner  dex.Address
	Amount uint256.Int
}

// Ownership assigns a non-fungible token to an owner.
type Ownership struct {
	Collection dex.Address
	ID         dex.TokenID
	Owner      dex.Address
}

// Seed is the parsed content of a seed file.
type Seed struct {
	Balances   []*Balance
	Ownerships []*Ownership
}

// Options returns a collection of all key-value options in the provided
// config file path or []byte data, keyed by "section.key". Keys in the default
// section are not prefixed.
func Options(cfgPathOrData interface{}) (map[string]string, error) {
	cfgFile, err := ini.Load(cfgPathOrData)
	if err != nil {
		return nil, err
	}
	options := make(map[string]string)
	for _, section := range cfgFile.Sections() {
		prefix := ""
		if section.Name() != ini.DefaultSection {
			prefix = section.Name() + "."
		}
		for _, key := range section.Keys() {
			options[prefix+key.Name()] = key.String()
		}
	}
	return options, nil
}

// LoadSeed parses the seed file path or []byte data. Sections other than
// token and collection sections are an error, as are keys in the default
// section.
func LoadSeed(cfgPathOrData interface{}) (*Seed, error) {
	cfgFile, err := ini.Load(cfgPathOrData)
	if err != nil {
		return nil, err
	}
	seed := new(Seed)
	for _, section := range cfgFile.Sections() {
		name := strings.TrimSpace(section.Name())
		switch {
		case name == ini.DefaultSection:
			if len(section.Keys()) > 0 {
				return nil, fmt.Errorf("seed entries must be in a token or collection section")
			}
		case strings.HasPrefix(name, tokenSectionPrefix):
			token, err := dex.ParseAddress(strings.TrimSpace(name[len(tokenSectionPrefix):]))
			if err != nil {
				return nil, fmt.Errorf("section %q: %w", name, err)
			}
			for _, key := range section.Keys() {
				owner, err := dex.ParseAddress(key.Name())
				if err != nil {
					return nil, fmt.Errorf("section %q: %w", name, err)
				}
				amt, err := dex.ParseAmount(key.String())
				if err != nil {
					return nil, fmt.Errorf("section %q, owner %s: %w", name, key.Name(), err)
				}
				seed.Balances = append(seed.Balances, &Balance{Token: token, Owner: owner, Amount: amt})
			}
		case strings.HasPrefix(name, collectionSectionPrefix):
			coll, err := dex.ParseAddress(strings.TrimSpace(name[len(collectionSectionPrefix):]))
			if err != nil {
				return nil, fmt.Errorf("section %q: %w", name, err)
			}
			for _, key := range section.Keys() {
				id, err := dex.ParseTokenID(key.Name())
				if err != nil {
					return nil, fmt.Errorf("section %q: %w", name, err)
				}
				owner, err := dex.ParseAddress(key.String())
				if err != nil {
					return nil, fmt.Errorf("section %q, token %s: %w", name, key.Name(), err)
				}
				seed.Ownerships = append(seed.Ownerships, &Ownership{Collection: coll, ID: id, Owner: owner})
			}
		default:
			return nil, fmt.Errorf("unknown seed section %q", name)
		}
	}
	return seed, nil
}
