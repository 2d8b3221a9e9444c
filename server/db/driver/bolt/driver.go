// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package bolt

import (
	"context"
	"fmt"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/server/db"
)

const driverName = "bolt"

// Config is the bolt driver configuration.
type Config struct {
	// Path is the database file.
	Path string
}

// Driver implements db.Driver.
type Driver struct{}

// Open creates the BoltDB. cfg must be a *Config or Config.
func (d *Driver) Open(_ context.Context, cfg any) (db.Archiver, error) {
	switch c := cfg.(type) {
	case *Config:
		return open(c)
	case Config:
		return open(&c)
	default:
		return nil, fmt.Errorf("invalid config type %T", cfg)
	}
}

func open(cfg *Config) (*BoltDB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("no database path")
	}
	bdb, err := NewDB(cfg.Path)
	if err != nil {
		return nil, err
	}
	log.Infof("Opened bolt database %s", cfg.Path)
	return bdb, nil
}

// UseLogger sets the package-wide logger for the registered DB Driver.
func (*Driver) UseLogger(logger dex.Logger) {
	UseLogger(logger)
}

func init() {
	db.Register(driverName, &Driver{})
}
