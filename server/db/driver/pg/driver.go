// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package pg

import (
	"context"
	"fmt"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/server/db"
)

const driverName = "pg"

// Driver implements db.Driver.
type Driver struct{}

// Open creates the Archiver. cfg must be a *Config or Config.
func (d *Driver) Open(ctx context.Context, cfg any) (db.Archiver, error) {
	switch c := cfg.(type) {
	case *Config:
		return NewArchiver(ctx, c)
	case Config:
		return NewArchiver(ctx, &c)
	default:
		return nil, fmt.Errorf("invalid config type %T", cfg)
	}
}

// UseLogger sets the package-wide logger for the registered DB Driver.
func (*Driver) UseLogger(logger dex.Logger) {
	UseLogger(logger)
}

func init() {
	db.Register(driverName, &Driver{})
}
