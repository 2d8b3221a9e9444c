// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package internal

const (
	// CreateFillsTable creates a table specified via the %s printf specifier
	// for the fill log.
	CreateFillsTable = `CREATE TABLE IF NOT EXISTS %s (
		ask BYTEA,
		bid BYTEA,
		seq INT8,
		nonce INT8,
		maker BYTEA,
		taker BYTEA,
		ask_filled NUMERIC(78),
		bid_filled NUMERIC(78),
		fee_amount NUMERIC(78),
		rate NUMERIC(78),
		status INT2,
		stamp INT8,
		PRIMARY KEY (ask, bid, seq)  -- pair:seq is unique
	);`

	// CreateFillsTakerIndex creates an index on the fill log's taker column.
	CreateFillsTakerIndex = `CREATE INDEX IF NOT EXISTS %s ON %s (taker);`

	// InsertFill inserts a fill.
	InsertFill = `INSERT INTO %s (ask, bid, seq, nonce, maker, taker,
		ask_filled, bid_filled, fee_amount, rate, status, stamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	// SelectFills retrieves the fill log, grouped by pair in sequence order.
	SelectFills = `SELECT ask, bid, seq, nonce, maker, taker,
		ask_filled, bid_filled, fee_amount, rate, status, stamp
		FROM %s ORDER BY ask, bid, seq;`
)
