// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/asset"
	"decred.org/dexcore/server/asset/fungible"
	"decred.org/dexcore/server/asset/nft"
	"decred.org/dexcore/server/book"
	"decred.org/dexcore/server/db"
	"decred.org/dexcore/server/db/driver/bolt"
	"decred.org/dexcore/server/feed"
	"decred.org/dexcore/server/stats"
	"golang.org/x/sync/errgroup"

	// Register the archive drivers.
	_ "decred.org/dexcore/server/db/driver/badgerdb"
	_ "decred.org/dexcore/server/db/driver/pg"
)

// backuper is an archive that can back itself up.
type backuper interface {
	Backup() (string, error)
}

// dexCore is the order book, its asset proxies and its archive, restored and
// ready for a single command.
type dexCore struct {
	out     io.Writer
	archive db.Archiver
	// ledgerDB holds the ledger when the archive has none.
	ledgerDB *bolt.BoltDB
	ledger   asset.Ledger
	proxies  *asset.Registry
	fungible *fungible.Proxy
	nft      *nft.Proxy
	feed     *feed.Feed
	book     *book.Book
	stats    *stats.Stats
	recorder *db.Recorder
}

// openCore opens the archive and ledger, sets up the asset proxies, and
// restores the book and the quote aggregator from the archive.
func openCore(ctx context.Context, cfg *coreConfig, out io.Writer) (*dexCore, error) {
	core := &dexCore{
		out:     out,
		proxies: asset.NewRegistry(),
		feed:    feed.New(),
		stats:   stats.New(&stats.Config{}),
	}

	closer := dex.NewErrorCloser()
	defer closer.Done(log)

	var ledger asset.Ledger
	if cfg.NoArchive {
		log.Infof("Running without an archive")
		ledger = asset.NewMemoryLedger()
	} else {
		archive, err := db.Open(ctx, cfg.DBDriver, cfg.DBConfig)
		if err != nil {
			return nil, fmt.Errorf("error opening %s archive: %w", cfg.DBDriver, err)
		}
		closer.Add(archive.Close)
		core.archive = archive
		if la, ok := archive.(db.LedgerArchiver); ok {
			ledger = la.AssetLedger()
		} else {
			log.Infof("The %s archive has no asset ledger, using %s", cfg.DBDriver, cfg.DBPath)
			core.ledgerDB, err = bolt.NewDB(cfg.DBPath)
			if err != nil {
				return nil, fmt.Errorf("error opening ledger: %w", err)
			}
			closer.Add(core.ledgerDB.Close)
			ledger = core.ledgerDB.Ledger()
		}
	}

	for _, name := range cfg.Proxies {
		proxy, err := asset.Setup(name, ledger, cfg.logger("ASET", name))
		if err != nil {
			return nil, fmt.Errorf("error setting up %s proxy: %w", name, err)
		}
		if err := core.proxies.Register(proxy.ID(), proxy); err != nil {
			return nil, fmt.Errorf("error registering %s proxy: %w", name, err)
		}
		switch p := proxy.(type) {
		case *fungible.Proxy:
			core.fungible = p
		case *nft.Proxy:
			core.nft = p
		}
	}
	core.ledger = ledger
	log.Debugf("Asset proxies: %s", core.proxies)

	var err error
	core.book, err = book.New(&book.Config{
		Proxies: core.proxies,
		Feed:    core.feed,
	})
	if err != nil {
		return nil, err
	}
	core.stats.Subscribe(core.feed)

	if core.archive != nil {
		var ords []*order.Order
		var fills []*order.Fill
		var g errgroup.Group
		g.Go(func() (err error) {
			if ords, err = core.archive.Orders(); err != nil {
				err = fmt.Errorf("error loading orders: %w", err)
			}
			return
		})
		g.Go(func() (err error) {
			if fills, err = core.archive.Fills(); err != nil {
				err = fmt.Errorf("error loading fills: %w", err)
			}
			return
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		if err := core.book.Restore(ords, fills); err != nil {
			return nil, fmt.Errorf("error restoring book: %w", err)
		}
		core.stats.Replay(ords, fills)
		log.Debugf("Restored %d orders and %d fills", len(ords), len(fills))

		core.recorder = db.NewRecorder(core.archive, cfg.logger("DB", "REC"))
		core.recorder.Subscribe(core.feed)
	}

	closer.Success()
	return core, nil
}

// archiveErr is the recorder's fatal error, if any.
func (core *dexCore) archiveErr() error {
	if core.recorder == nil {
		return nil
	}
	select {
	case <-core.recorder.Fatal():
		return fmt.Errorf("archive failed, the book and archive are out of sync: %w", core.recorder.LastErr())
	default:
		return nil
	}
}

// Close closes the archive and the ledger database.
func (core *dexCore) Close() error {
	if core.archive == nil {
		return nil
	}
	core.recorder.Unsubscribe(core.feed)
	err := core.archive.Close()
	if core.ledgerDB != nil {
		if lerr := core.ledgerDB.Close(); err == nil {
			err = lerr
		}
	}
	return err
}

// write encodes the result as indented JSON.
func (core *dexCore) write(v any) error {
	enc := json.NewEncoder(core.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (core *dexCore) fungibleProxy() (*fungible.Proxy, error) {
	if core.fungible == nil {
		return nil, fmt.Errorf("the fungible proxy is not loaded")
	}
	return core.fungible, nil
}

func (core *dexCore) nftProxy() (*nft.Proxy, error) {
	if core.nft == nil {
		return nil, fmt.Errorf("the nft proxy is not loaded")
	}
	return core.nft, nil
}
