// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"decred.org/dexcore/server/db"
)

const (
	defaultQueryTimeout = 20 * time.Minute
)

// Config holds the Archiver's configuration.
type Config struct {
	Host, Port, User, Pass, DBName string
	QueryTimeout                   time.Duration
}

// Archiver is a PostgreSQL order and fill archive. It does not hold an asset
// ledger.
type Archiver struct {
	ctx          context.Context
	queryTimeout time.Duration
	db           *sql.DB
}

var _ db.Archiver = (*Archiver)(nil)

// NewArchiver constructs a new Archiver. Use Close when done with the Archiver.
func NewArchiver(ctx context.Context, cfg *Config) (*Archiver, error) {
	// Connect to the PostgreSQL daemon and return the *sql.DB.
	pgdb, err := connect(cfg.Host, cfg.Port, cfg.User, cfg.Pass, cfg.DBName)
	if err != nil {
		return nil, err
	}

	// Put the PostgreSQL time zone in UTC.
	initTZ, err := checkCurrentTimeZone(pgdb)
	if err != nil {
		pgdb.Close()
		return nil, err
	}
	if initTZ != "UTC" {
		log.Infof("Switching PostgreSQL time zone to UTC for this session.")
		if _, err = pgdb.Exec(`SET TIME ZONE UTC`); err != nil {
			pgdb.Close()
			return nil, fmt.Errorf("failed to set time zone to UTC: %w", err)
		}
	}

	pgVersion, err := retrievePGVersion(pgdb)
	if err != nil {
		pgdb.Close()
		return nil, err
	}
	log.Info(pgVersion)

	queryTimeout := cfg.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}

	if err = prepareTables(pgdb); err != nil {
		pgdb.Close()
		return nil, err
	}

	return &Archiver{
		ctx:          ctx,
		db:           pgdb,
		queryTimeout: queryTimeout,
	}, nil
}

// Close closes the underlying DB connection.
func (a *Archiver) Close() error {
	return a.db.Close()
}
