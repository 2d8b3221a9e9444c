// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package badgerdb

import (
	"context"
	"fmt"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/server/db"
)

const driverName = "badger"

// Config is the badger driver configuration.
type Config struct {
	// Path is the database directory.
	Path string
}

// Driver implements db.Driver.
type Driver struct{}

// Open opens the DB. cfg must be a *Config or Config. The garbage collector
// stops when ctx is canceled.
func (d *Driver) Open(ctx context.Context, cfg any) (db.Archiver, error) {
	switch c := cfg.(type) {
	case *Config:
		return open(ctx, c)
	case Config:
		return open(ctx, &c)
	default:
		return nil, fmt.Errorf("invalid config type %T", cfg)
	}
}

func open(ctx context.Context, cfg *Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("no database path")
	}
	d, err := NewDB(ctx, cfg.Path, log)
	if err != nil {
		return nil, err
	}
	log.Infof("Opened badger database %s", cfg.Path)
	return d, nil
}

// UseLogger sets the package-wide logger for the registered DB Driver.
func (*Driver) UseLogger(logger dex.Logger) {
	UseLogger(logger)
}

func init() {
	db.Register(driverName, &Driver{})
}
