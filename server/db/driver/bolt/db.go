// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package bolt

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"decred.org/dexcore/dex/encode"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/db"
	"go.etcd.io/bbolt"
)

// Short names for some commonly used imported functions.
var (
	uint64Bytes = encode.Uint64Bytes
	bCopy       = encode.CopySlice
)

// Bolt works on []byte keys and values. These are the top-level buckets.
var (
	ordersBucket     = []byte("orders")
	fillsBucket      = []byte("fills")
	balancesBucket   = []byte("balances")
	allowancesBucket = []byte("allowances")
	ownersBucket     = []byte("owners")
	approvalsBucket  = []byte("approvals")
	backupDir        = "backup"
)

type bucketFunc func(*bbolt.Bucket) error

// BoltDB is a bbolt-based archive and asset ledger. BoltDB satisfies the
// db.Archiver interface, and its Ledger satisfies asset.Ledger.
type BoltDB struct {
	*bbolt.DB
}

// Check that BoltDB satisfies the db.LedgerArchiver interface.
var _ db.LedgerArchiver = (*BoltDB)(nil)

// NewDB is a constructor for a *BoltDB.
func NewDB(dbPath string) (*BoltDB, error) {
	bdb, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}

	boltDB := &BoltDB{
		DB: bdb,
	}
	if err := boltDB.makeTopLevelBuckets([][]byte{ordersBucket, fillsBucket,
		balancesBucket, allowancesBucket, ownersBucket, approvalsBucket}); err != nil {
		bdb.Close()
		return nil, err
	}
	return boltDB, nil
}

// orderKey is the pair key followed by the big-endian nonce, so a pair's
// orders iterate in nonce order.
func orderKey(pair order.Pair, nonce uint64) []byte {
	return append(pair.Key(), uint64Bytes(nonce)...)
}

func fillKey(pair order.Pair, seq uint64) []byte {
	return append(pair.Key(), uint64Bytes(seq)...)
}

// Order retrieves the order with the given nonce.
func (bdb *BoltDB) Order(pair order.Pair, nonce uint64) (ord *order.Order, err error) {
	err = bdb.ordersView(func(bkt *bbolt.Bucket) error {
		ord, err = getOrder(bkt, pair, nonce)
		return err
	})
	return ord, err
}

func getOrder(bkt *bbolt.Bucket, pair order.Pair, nonce uint64) (*order.Order, error) {
	b := bkt.Get(orderKey(pair, nonce))
	if b == nil {
		return nil, db.ArchiveError{Code: db.ErrUnknownOrder, Detail: fmt.Sprintf("%s#%d", pair, nonce)}
	}
	ord, err := order.DecodeOrder(b)
	if err != nil {
		return nil, db.ArchiveError{Code: db.ErrGeneralFailure, Detail: err.Error()}
	}
	return ord, nil
}

// Orders retrieves all archived orders, grouped by pair in nonce order.
func (bdb *BoltDB) Orders() ([]*order.Order, error) {
	var ords []*order.Order
	err := bdb.ordersView(func(bkt *bbolt.Bucket) error {
		return bkt.ForEach(func(k, v []byte) error {
			ord, err := order.DecodeOrder(v)
			if err != nil {
				return fmt.Errorf("error decoding order %x: %w", k, err)
			}
			ords = append(ords, ord)
			return nil
		})
	})
	return ords, err
}

// StoreOrder stores a new order.
func (bdb *BoltDB) StoreOrder(ord *order.Order) error {
	if !ord.Pair.Valid() {
		return db.ArchiveError{Code: db.ErrInvalidOrder, Detail: "invalid pair " + ord.Pair.String()}
	}
	return bdb.ordersUpdate(func(bkt *bbolt.Bucket) error {
		k := orderKey(ord.Pair, ord.Nonce)
		if bkt.Get(k) != nil {
			return db.ArchiveError{Code: db.ErrOrderExists, Detail: ord.String()}
		}
		return bkt.Put(k, order.EncodeOrder(ord))
	})
}

// UpdateOrderStatus sets the status and update time of an archived order.
func (bdb *BoltDB) UpdateOrderStatus(pair order.Pair, nonce uint64, status order.Status, stamp time.Time) error {
	return bdb.ordersUpdate(func(bkt *bbolt.Bucket) error {
		ord, err := getOrder(bkt, pair, nonce)
		if err != nil {
			return err
		}
		ord.Status, ord.UpdatedAt = status, stamp
		return bkt.Put(orderKey(pair, nonce), order.EncodeOrder(ord))
	})
}

// Fills retrieves all archived fills, grouped by pair in sequence order.
func (bdb *BoltDB) Fills() ([]*order.Fill, error) {
	var fills []*order.Fill
	err := bdb.fillsView(func(bkt *bbolt.Bucket) error {
		return bkt.ForEach(func(k, v []byte) error {
			fill, err := order.DecodeFill(v)
			if err != nil {
				return fmt.Errorf("error decoding fill %x: %w", k, err)
			}
			fills = append(fills, fill)
			return nil
		})
	})
	return fills, err
}

// StoreFill stores the fill and applies it to the filled order in the same
// transaction.
func (bdb *BoltDB) StoreFill(fill *order.Fill) error {
	return bdb.Update(func(tx *bbolt.Tx) error {
		oBkt, fBkt := tx.Bucket(ordersBucket), tx.Bucket(fillsBucket)
		if oBkt == nil || fBkt == nil {
			return fmt.Errorf("failed to open orders and fills buckets")
		}
		fk := fillKey(fill.Pair, fill.Seq)
		if fBkt.Get(fk) != nil {
			return db.ArchiveError{Code: db.ErrInvalidFill, Detail: fmt.Sprintf("duplicate fill %d of %s", fill.Seq, fill.Pair)}
		}
		ord, err := getOrder(oBkt, fill.Pair, fill.Nonce)
		if err != nil {
			return err
		}
		if err := db.ApplyFill(ord, fill); err != nil {
			return err
		}
		if err := fBkt.Put(fk, order.EncodeFill(fill)); err != nil {
			return err
		}
		return oBkt.Put(orderKey(ord.Pair, ord.Nonce), order.EncodeOrder(ord))
	})
}

func (bdb *BoltDB) ordersView(f bucketFunc) error {
	return bdb.withBucket(ordersBucket, bdb.View, f)
}

func (bdb *BoltDB) ordersUpdate(f bucketFunc) error {
	return bdb.withBucket(ordersBucket, bdb.Update, f)
}

func (bdb *BoltDB) fillsView(f bucketFunc) error {
	return bdb.withBucket(fillsBucket, bdb.View, f)
}

// makeTopLevelBuckets creates a top-level bucket for each of the provided keys,
// if the bucket doesn't already exist.
func (bdb *BoltDB) makeTopLevelBuckets(buckets [][]byte) error {
	return bdb.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range buckets {
			_, err := tx.CreateBucketIfNotExists(bucket)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// withBucket creates a view into a top-level bucket. The viewer can be
// read-only (db.View), or read-write (db.Update).
func (bdb *BoltDB) withBucket(bkt []byte, viewer func(func(*bbolt.Tx) error) error, f bucketFunc) error {
	return viewer(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bkt)
		if bucket == nil {
			return fmt.Errorf("failed to open %s bucket", string(bkt))
		}
		return f(bucket)
	})
}

// Backup makes a copy of the database in the backup directory next to the
// database file, returning the copy's path.
func (bdb *BoltDB) Backup() (string, error) {
	dir := filepath.Join(filepath.Dir(bdb.Path()), backupDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("unable to create backup directory: %w", err)
	}

	path := filepath.Join(dir, filepath.Base(bdb.Path()))
	return path, bdb.View(func(tx *bbolt.Tx) error {
		return tx.CopyFile(path, 0600)
	})
}
