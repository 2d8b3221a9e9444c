// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"decred.org/dexcore/dex"
)

const tSeed = `
[token 0x00000000000000000000000000000000000000aa]
0x0000000000000000000000000000000000000001 = 1000000
0x0000000000000000000000000000000000000002 = 340282366920938463463374607431768211455

[collection 0x00000000000000000000000000000000000000bb]
0x2a = 0x0000000000000000000000000000000000000003
`

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.ini")
	if err := os.WriteFile(path, []byte(tSeed), 0600); err != nil {
		t.Fatalf("error writing seed file: %v", err)
	}
	seed, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed error: %v", err)
	}
	if len(seed.Balances) != 2 {
		t.Fatalf("wanted 2 balances, got %d", len(seed.Balances))
	}
	var sawMax bool
	for _, b := range seed.Balances {
		if b.Token != dex.BytesToAddress([]byte{0xaa}) {
			t.Fatalf("wrong token %s", b.Token)
		}
		if b.Amount.Eq(&dex.MaxAmount) {
			sawMax = true
		}
	}
	if !sawMax {
		t.Fatalf("max amount balance not parsed")
	}
	if len(seed.Ownerships) != 1 {
		t.Fatalf("wanted 1 ownership, got %d", len(seed.Ownerships))
	}
	own := seed.Ownerships[0]
	if own.ID[dex.TokenIDSize-1] != 0x2a || own.Owner != dex.BytesToAddress([]byte{0x03}) {
		t.Fatalf("wrong ownership %v", own)
	}
}

func TestLoadSeedErrors(t *testing.T) {
	for name, data := range map[string]string{
		"default section key": "0x0000000000000000000000000000000000000001 = 5\n",
		"unknown section":     "[wallet 0x00000000000000000000000000000000000000aa]\n",
		"bad token address":   "[token 0xzz]\n",
		"zero amount":         "[token 0x00000000000000000000000000000000000000aa]\n0x0000000000000000000000000000000000000001 = 0\n",
		"too large amount":    "[token 0x00000000000000000000000000000000000000aa]\n0x0000000000000000000000000000000000000001 = 340282366920938463463374607431768211456\n",
		"bad owner":           "[collection 0x00000000000000000000000000000000000000bb]\n0x01 = nobody\n",
	} {
		if _, err := LoadSeed([]byte(data)); err == nil {
			t.Errorf("%s: no error", name)
		}
	}
}

func TestOptions(t *testing.T) {
	opts, err := Options([]byte("a = 1\n[sec]\nb = two\n"))
	if err != nil {
		t.Fatalf("Options error: %v", err)
	}
	if opts["a"] != "1" || opts["sec.b"] != "two" {
		t.Fatalf("wrong options %v", opts)
	}
}
