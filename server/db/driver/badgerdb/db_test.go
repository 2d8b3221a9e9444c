// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package badgerdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/server/db"
	"decred.org/dexcore/server/db/dbtest"
	"github.com/dgraph-io/badger/v4"
)

func TestMain(m *testing.M) {
	UseLogger(dex.StdOutLogger("XTEST", dex.LevelDebug))
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "dexcore.badger"), log)
	if err != nil {
		t.Fatalf("error creating DB: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestArchive(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) db.LedgerArchiver {
		return newTestDB(t)
	})
}

func TestKeyLayout(t *testing.T) {
	k := orderKey(dbtest.TPair, 7)
	if len(k) != 1+40+8 || k[0] != byte(ordersPrefix) || k[len(k)-1] != 7 {
		t.Fatalf("wrong order key %x", k)
	}
	// Fills and orders of the same pair do not share a prefix.
	if fk := fillKey(dbtest.TPair, 7); fk[0] == k[0] {
		t.Fatalf("fill key in the orders table")
	}
}

func TestBackup(t *testing.T) {
	d := newTestDB(t)
	if err := d.StoreOrder(dbtest.TOrder(0)); err != nil {
		t.Fatalf("StoreOrder error: %v", err)
	}
	path, err := d.Backup()
	if err != nil {
		t.Fatalf("Backup error: %v", err)
	}

	restored := newTestDB(t)
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("error opening backup: %v", err)
	}
	defer f.Close()
	if err := restored.Load(f, 16); err != nil {
		t.Fatalf("error loading backup: %v", err)
	}
	if _, err := restored.Order(dbtest.TPair, 0); err != nil {
		t.Fatalf("order missing from backup: %v", err)
	}
}

func TestUpdateConflictRetry(t *testing.T) {
	d := newTestDB(t)
	k := []byte{0xff, 0x01}
	var tries int
	err := d.Update(func(txn *badger.Txn) error {
		tries++
		if tries < 3 {
			return badger.ErrConflict
		}
		return txn.Set(k, []byte{1})
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if tries != 3 {
		t.Fatalf("expected 3 tries, got %d", tries)
	}
}

func TestDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "driver.badger")
	arch, err := db.Open(context.Background(), driverName, &Config{Path: path})
	if err != nil {
		t.Fatalf("db.Open error: %v", err)
	}
	if _, ok := arch.(db.LedgerArchiver); !ok {
		t.Fatalf("archiver %T has no ledger", arch)
	}
	if err := arch.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if _, err := db.Open(context.Background(), driverName, Config{}); err == nil {
		t.Fatalf("no error for an empty path")
	}
}
