// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"decred.org/dexcore/dex"
	"github.com/davecgh/go-spew/spew"
)

var (
	tTokenA = dex.BytesToAddress([]byte{0xaa}).Hex()
	tTokenB = dex.BytesToAddress([]byte{0xbb}).Hex()
	tColl   = dex.BytesToAddress([]byte{0xcc}).Hex()
	tMaker  = dex.BytesToAddress([]byte{0x01}).Hex()
	tTaker  = dex.BytesToAddress([]byte{0x02}).Hex()
)

type tRunner struct {
	t       *testing.T
	appData string
	extra   []string
}

func newRunner(t *testing.T, extra ...string) *tRunner {
	return &tRunner{t: t, appData: t.TempDir(), extra: extra}
}

func (r *tRunner) args(args []string) []string {
	all := append([]string{"--appdata=" + r.appData, "--debuglevel=error"}, r.extra...)
	return append(all, args...)
}

// run runs the command and decodes the output into v, failing the test on
// error.
func (r *tRunner) run(v any, args ...string) {
	r.t.Helper()
	var out bytes.Buffer
	if err := runCommand(context.Background(), r.args(args), &out); err != nil {
		r.t.Fatalf("%s error: %v", args[0], err)
	}
	if v == nil {
		return
	}
	if err := json.Unmarshal(out.Bytes(), v); err != nil {
		r.t.Fatalf("%s output %q not decoded: %v", args[0], out.String(), err)
	}
}

func (r *tRunner) fail(args ...string) error {
	r.t.Helper()
	var out bytes.Buffer
	err := runCommand(context.Background(), r.args(args), &out)
	if err == nil {
		r.t.Fatalf("no error for %v", args)
	}
	return err
}

func (r *tRunner) fund() {
	r.t.Helper()
	r.run(nil, "mint", "--token="+tTokenA, "--owner="+tMaker, "--amount=1000")
	r.run(nil, "approve", "--token="+tTokenA, "--owner="+tMaker, "--amount=1000")
	r.run(nil, "mint", "--token="+tTokenB, "--owner="+tTaker, "--amount=1000")
	r.run(nil, "approve", "--token="+tTokenB, "--owner="+tTaker, "--amount=1000")
}

func pairArgs() []string {
	return []string{"--ask=" + tTokenA, "--bid=" + tTokenB}
}

func TestCommands(t *testing.T) {
	r := newRunner(t)
	r.fund()

	var bal balanceView
	r.run(&bal, "balance", "--token="+tTokenA, "--owner="+tMaker)
	if bal.Balance != "1000" || bal.Allowance != "1000" {
		t.Fatalf("wrong maker balance %+v", bal)
	}

	create := func(ask, bid string) *orderView {
		t.Helper()
		var ov orderView
		r.run(&ov, append(append([]string{"create"}, pairArgs()...),
			"--maker="+tMaker, "--askamount="+ask, "--bidamount="+bid)...)
		return &ov
	}
	o0 := create("100", "200")
	o1 := create("100", "300")
	if o0.Nonce != 0 || o1.Nonce != 1 || o0.Status != "open" {
		t.Fatalf("wrong created orders %s", spew.Sdump(o0, o1))
	}

	var price priceView
	r.run(&price, append([]string{"price"}, pairArgs()...)...)
	if !price.Present || price.AskAmount != "100" || price.BidAmount != "200" || price.Nonce == nil || *price.Nonce != 0 {
		t.Fatalf("wrong best price %s", spew.Sdump(price))
	}

	// Half of order 0.
	var res fillResultView
	r.run(&res, append(append([]string{"fill"}, pairArgs()...),
		"--nonce=0", "--taker="+tTaker, "--amount=100")...)
	if len(res.Fills) != 1 || res.Fills[0].AskFilled != "50" || res.Orders[0].Status != "open" || res.Created != nil {
		t.Fatalf("wrong fill result %s", spew.Sdump(res))
	}

	// The rest of order 0, then all of order 1, with 50 left over.
	res = fillResultView{}
	r.run(&res, append(append([]string{"sweep"}, pairArgs()...),
		"--nonce=0", "--nonce=1", "--taker="+tTaker, "--amount=450", "--create")...)
	if len(res.Fills) != 2 || res.Spent != "400" {
		t.Fatalf("wrong sweep result %s", spew.Sdump(res))
	}
	if res.Created == nil || res.Created.AskAmount != "50" || res.Created.BidAmount != "16" || res.Created.Maker != tTaker {
		t.Fatalf("overfill order not created %s", spew.Sdump(res.Created))
	}

	r.run(&bal, "balance", "--token="+tTokenA, "--owner="+tTaker)
	if bal.Balance != "200" {
		t.Fatalf("wrong taker balance %s", bal.Balance)
	}

	var ords []*orderView
	r.run(&ords, append(append([]string{"orders"}, pairArgs()...), "--status=filled")...)
	if len(ords) != 2 {
		t.Fatalf("wanted 2 filled orders, got %d", len(ords))
	}

	var fills []*fillView
	r.run(&fills, append(append([]string{"fills"}, pairArgs()...), "--taker="+tTaker)...)
	if len(fills) != 3 {
		t.Fatalf("wanted 3 fills, got %d", len(fills))
	}

	var quotes []*candleView
	r.run(&quotes, append([]string{"quotes"}, pairArgs()...)...)
	if len(quotes) != 60 {
		t.Fatalf("wanted 60 candles, got %d", len(quotes))
	}

	// The created order is on the reversed pair.
	var ov orderView
	r.run(&ov, "order", "--ask="+tTokenB, "--bid="+tTokenA, "--nonce=0")
	if ov.Status != "open" {
		t.Fatalf("reversed order not open %+v", ov)
	}
	if err := r.fail("cancel", "--ask="+tTokenB, "--bid="+tTokenA, "--nonce=0", "--maker="+tMaker); err == nil {
		t.Fatalf("non-maker cancelled the order")
	}
	r.run(&ov, "cancel", "--ask="+tTokenB, "--bid="+tTokenA, "--nonce=0", "--maker="+tTaker)
	if ov.Status != "cancelled" {
		t.Fatalf("order not cancelled %+v", ov)
	}

	var proxies []*proxyView
	r.run(&proxies, "proxies")
	if len(proxies) != 2 {
		t.Fatalf("wanted 2 proxies, got %d", len(proxies))
	}

	var backup map[string]string
	r.run(&backup, "backup")
	if _, err := os.Stat(backup["path"]); err != nil {
		t.Fatalf("backup not written: %v", err)
	}
}

func TestNFTCommands(t *testing.T) {
	r := newRunner(t)
	var tv tokenView
	r.run(&tv, "mintnft", "--collection="+tColl, "--id=0x2a", "--owner="+tMaker)
	if tv.Owner != tMaker || tv.Approved {
		t.Fatalf("wrong minted token %+v", tv)
	}
	r.run(nil, "approvenft", "--collection="+tColl, "--owner="+tMaker)
	r.run(&tv, "balance", "--collection="+tColl, "--id=0x2a")
	if !tv.Approved {
		t.Fatalf("approval not stored %+v", tv)
	}
	r.run(nil, "approvenft", "--collection="+tColl, "--owner="+tMaker, "--revoke")
	r.run(&tv, "balance", "--collection="+tColl, "--id=0x2a")
	if tv.Approved {
		t.Fatalf("approval not revoked %+v", tv)
	}
	r.fail("balance", "--collection="+tColl, "--token="+tTokenA)
}

func TestSeedCommand(t *testing.T) {
	r := newRunner(t)
	seedFile := filepath.Join(t.TempDir(), "seed.ini")
	seed := "[token " + tTokenA + "]\n" + tMaker + " = 500\n\n" +
		"[collection " + tColl + "]\n0x07 = " + tTaker + "\n"
	if err := os.WriteFile(seedFile, []byte(seed), 0600); err != nil {
		t.Fatalf("error writing seed file: %v", err)
	}
	var sv seedView
	r.run(&sv, "seed", seedFile)
	if sv.Balances != 1 || sv.Ownerships != 1 {
		t.Fatalf("wrong seed result %+v", sv)
	}
	var bal balanceView
	r.run(&bal, "balance", "--token="+tTokenA, "--owner="+tMaker)
	if bal.Balance != "500" {
		t.Fatalf("seeded balance not stored: %s", bal.Balance)
	}
}

func TestNoArchive(t *testing.T) {
	r := newRunner(t, "--noarchive")
	var bal balanceView
	r.run(&bal, "mint", "--token="+tTokenA, "--owner="+tMaker, "--amount=10")
	if bal.Balance != "10" {
		t.Fatalf("wrong minted balance %s", bal.Balance)
	}
	// Nothing outlives the invocation.
	r.run(&bal, "balance", "--token="+tTokenA, "--owner="+tMaker)
	if bal.Balance != "0" {
		t.Fatalf("balance persisted without an archive: %s", bal.Balance)
	}
	r.fail("backup")
}

func TestCommandErrors(t *testing.T) {
	r := newRunner(t)
	r.fail("create", "--ask=nope", "--bid="+tTokenB, "--maker="+tMaker)
	// Unfunded maker.
	r.fail(append(append([]string{"create"}, pairArgs()...),
		"--maker="+tMaker, "--askamount=1", "--bidamount=1")...)
	r.fail(append(append([]string{"fill"}, pairArgs()...),
		"--nonce=3", "--taker="+tTaker, "--amount=1")...)
	r.fail(append(append([]string{"quotes"}, pairArgs()...), "--resolution=90")...)
	r.fail("orders", "--ask="+tTokenA)
	r.fail("nosuchcommand")
}

func TestHelpAndVersion(t *testing.T) {
	var out bytes.Buffer
	if err := runCommand(context.Background(), []string{"-V"}, &out); err != nil {
		t.Fatalf("version error: %v", err)
	}
	if !strings.HasPrefix(out.String(), appName+" version") {
		t.Fatalf("wrong version output %q", out.String())
	}
	out.Reset()
	if err := runCommand(context.Background(), []string{"--appdata=" + t.TempDir(), "-h"}, &out); err != nil {
		t.Fatalf("help error: %v", err)
	}
	if !strings.Contains(out.String(), "sweep") {
		t.Fatalf("help does not list commands: %q", out.String())
	}
}

func TestBadgerArchive(t *testing.T) {
	r := newRunner(t, "--dbdriver=badger")
	r.fund()
	var ov orderView
	r.run(&ov, append(append([]string{"create"}, pairArgs()...),
		"--maker="+tMaker, "--askamount=100", "--bidamount=200")...)

	// A new invocation restores the book from the badger archive.
	var ords []*orderView
	r.run(&ords, append([]string{"orders"}, pairArgs()...)...)
	if len(ords) != 1 || ords[0].ID != ov.ID {
		t.Fatalf("wrong restored orders %s", spew.Sdump(ords))
	}
	var bal balanceView
	r.run(&bal, "balance", "--token="+tTokenA, "--owner="+tMaker)
	if bal.Balance != "1000" {
		t.Fatalf("wrong balance %s", bal.Balance)
	}

	var backup map[string]string
	r.run(&backup, "backup")
	if filepath.Base(backup["path"]) != "dexcore.badger.bak" {
		t.Fatalf("wrong backup %v", backup)
	}
	if _, err := os.Stat(backup["path"]); err != nil {
		t.Fatalf("backup not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(r.appData, "data", defaultDBFilename)); !os.IsNotExist(err) {
		t.Fatalf("bolt database created for the badger archive: %v", err)
	}
}
