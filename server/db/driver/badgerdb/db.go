// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package badgerdb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/encode"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/db"
	"github.com/dgraph-io/badger/v4"
)

// keyPrefix separates the tables in the key space. Every key is a one-byte
// table prefix followed by the table's own key.
type keyPrefix byte

const (
	ordersPrefix keyPrefix = iota + 1
	fillsPrefix
	balancesPrefix
	allowancesPrefix
	ownersPrefix
	approvalsPrefix
)

const (
	backupDir      = "backup"
	backupFilename = "dexcore.badger.bak"
	gcInterval     = 5 * time.Minute
)

func prefixedKey(p keyPrefix, parts ...[]byte) []byte {
	n := 1
	for _, b := range parts {
		n += len(b)
	}
	k := make([]byte, 1, n)
	k[0] = byte(p)
	for _, b := range parts {
		k = append(k, b...)
	}
	return k
}

func orderKey(pair order.Pair, nonce uint64) []byte {
	return prefixedKey(ordersPrefix, pair.Key(), encode.Uint64Bytes(nonce))
}

func fillKey(pair order.Pair, seq uint64) []byte {
	return prefixedKey(fillsPrefix, pair.Key(), encode.Uint64Bytes(seq))
}

// DB is a badger-based archive and asset ledger.
type DB struct {
	*badger.DB
	log    dex.Logger
	path   string
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

var _ db.LedgerArchiver = (*DB)(nil)

// NewDB opens the badger database in the directory dir. The value log garbage
// collector runs until ctx is canceled or the DB is closed.
func NewDB(ctx context.Context, dir string, logger dex.Logger) (*DB, error) {
	if logger == nil {
		logger = dex.Disabled
	}
	opts := badger.DefaultOptions(dir).WithLogger(&badgerLoggerWrapper{logger})
	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	d := &DB{
		DB:     bdb,
		log:    logger,
		path:   dir,
		cancel: cancel,
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.runGC(ctx)
	}()
	return d, nil
}

// runGC periodically garbage collects the value log.
func (d *DB) runGC(ctx context.Context) {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			err := d.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				d.log.Errorf("garbage collection error: %v", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// Close stops the garbage collector and closes the database.
func (d *DB) Close() error {
	d.cancel()
	d.wg.Wait()
	return d.DB.Close()
}

// Update runs f in a read-write transaction, retrying on transaction
// conflicts.
func (d *DB) Update(f func(txn *badger.Txn) error) (err error) {
	const maxRetries = 10
	sleepTime := 5 * time.Millisecond
	for i := 0; i < maxRetries; i++ {
		if err = d.DB.Update(f); err == nil || !errors.Is(err, badger.ErrConflict) {
			return err
		}
		sleepTime *= 2
		time.Sleep(sleepTime)
	}
	return err
}

func getOrder(txn *badger.Txn, pair order.Pair, nonce uint64) (*order.Order, error) {
	item, err := txn.Get(orderKey(pair, nonce))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, db.ArchiveError{Code: db.ErrUnknownOrder, Detail: fmt.Sprintf("%s#%d", pair, nonce)}
	}
	if err != nil {
		return nil, err
	}
	b, err := item.ValueCopy(nil)
	if err != nil {
		return nil, err
	}
	ord, err := order.DecodeOrder(b)
	if err != nil {
		return nil, db.ArchiveError{Code: db.ErrGeneralFailure, Detail: err.Error()}
	}
	return ord, nil
}

// Order retrieves the order with the given nonce.
func (d *DB) Order(pair order.Pair, nonce uint64) (*order.Order, error) {
	var ord *order.Order
	err := d.View(func(txn *badger.Txn) error {
		var err error
		ord, err = getOrder(txn, pair, nonce)
		return err
	})
	return ord, err
}

// iteratePrefix calls f with every value in the table, in key order.
func iteratePrefix(txn *badger.Txn, p keyPrefix, f func(k, v []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte{byte(p)}
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		item := it.Item()
		k := item.Key()
		if err := item.Value(func(v []byte) error {
			return f(k, v)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Orders retrieves all archived orders, grouped by pair in nonce order.
func (d *DB) Orders() ([]*order.Order, error) {
	var ords []*order.Order
	err := d.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, ordersPrefix, func(k, v []byte) error {
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
func (d *DB) StoreOrder(ord *order.Order) error {
	if !ord.Pair.Valid() {
		return db.ArchiveError{Code: db.ErrInvalidOrder, Detail: "invalid pair " + ord.Pair.String()}
	}
	k := orderKey(ord.Pair, ord.Nonce)
	return d.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		if err == nil {
			return db.ArchiveError{Code: db.ErrOrderExists, Detail: ord.String()}
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(k, order.EncodeOrder(ord))
	})
}

// UpdateOrderStatus sets the status and update time of an archived order.
func (d *DB) UpdateOrderStatus(pair order.Pair, nonce uint64, status order.Status, stamp time.Time) error {
	return d.Update(func(txn *badger.Txn) error {
		ord, err := getOrder(txn, pair, nonce)
		if err != nil {
			return err
		}
		ord.Status, ord.UpdatedAt = status, stamp
		return txn.Set(orderKey(pair, nonce), order.EncodeOrder(ord))
	})
}

// Fills retrieves all archived fills, grouped by pair in sequence order.
func (d *DB) Fills() ([]*order.Fill, error) {
	var fills []*order.Fill
	err := d.View(func(txn *badger.Txn) error {
		return iteratePrefix(txn, fillsPrefix, func(k, v []byte) error {
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
func (d *DB) StoreFill(fill *order.Fill) error {
	fk := fillKey(fill.Pair, fill.Seq)
	return d.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(fk)
		if err == nil {
			return db.ArchiveError{Code: db.ErrInvalidFill, Detail: fmt.Sprintf("duplicate fill %d of %s", fill.Seq, fill.Pair)}
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		ord, err := getOrder(txn, fill.Pair, fill.Nonce)
		if err != nil {
			return err
		}
		if err := db.ApplyFill(ord, fill); err != nil {
			return err
		}
		if err := txn.Set(fk, order.EncodeFill(fill)); err != nil {
			return err
		}
		return txn.Set(orderKey(ord.Pair, ord.Nonce), order.EncodeOrder(ord))
	})
}

// Backup writes a full backup of the database to the backup directory next to
// the database directory, returning the backup file's path.
func (d *DB) Backup() (string, error) {
	dir := filepath.Join(filepath.Dir(filepath.Clean(d.path)), backupDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("unable to create backup directory: %w", err)
	}
	path := filepath.Join(dir, backupFilename)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return "", err
	}
	if _, err := d.DB.Backup(f, 0); err != nil {
		f.Close()
		return "", fmt.Errorf("backup error: %w", err)
	}
	return path, f.Close()
}

// badgerLoggerWrapper wraps dex.Logger and translates Warnf to Warningf to
// satisfy badger.Logger. It also lowers the log level of Infof to Debugf
// and Debugf to Tracef.
type badgerLoggerWrapper struct {
	dex.Logger
}

var _ badger.Logger = (*badgerLoggerWrapper)(nil)

// Debugf -> dex.Logger.Tracef
func (log *badgerLoggerWrapper) Debugf(s string, a ...any) {
	log.Tracef(s, a...)
}

// Infof -> dex.Logger.Debugf
func (log *badgerLoggerWrapper) Infof(s string, a ...any) {
	log.Debugf(s, a...)
}

// Warningf -> dex.Logger.Warnf
func (log *badgerLoggerWrapper) Warningf(s string, a ...any) {
	log.Warnf(s, a...)
}
