// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package internal

const (
	// CreateOrdersTable creates a table specified via the %s printf specifier
	// for orders. Amounts are decimal strings of up to 78 digits, enough for
	// any 256-bit value. Times are unix seconds.
	CreateOrdersTable = `CREATE TABLE IF NOT EXISTS %s (
		ask BYTEA,
		bid BYTEA,
		nonce INT8,
		maker BYTEA,
		ask_proxy INT8,
		ask_amount NUMERIC(78),
		ask_data BYTEA,
		bid_proxy INT8,
		bid_amount NUMERIC(78),
		bid_data BYTEA,
		bid_filled NUMERIC(78),
		fee_amount NUMERIC(78),
		status INT2,
		created_at INT8,
		updated_at INT8,
		PRIMARY KEY (ask, bid, nonce)  -- pair:nonce is unique
	);`

	// InsertOrder inserts a new order.
	InsertOrder = `INSERT INTO %s (ask, bid, nonce, maker,
		ask_proxy, ask_amount, ask_data, bid_proxy, bid_amount, bid_data,
		bid_filled, fee_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`

	orderColumns = `ask, bid, nonce, maker,
		ask_proxy, ask_amount, ask_data, bid_proxy, bid_amount, bid_data,
		bid_filled, fee_amount, status, created_at, updated_at`

	// SelectOrder retrieves an order by pair and nonce.
	SelectOrder = `SELECT ` + orderColumns + ` FROM %s
		WHERE ask = $1 AND bid = $2 AND nonce = $3;`

	// SelectOrderForUpdate retrieves an order by pair and nonce, locking the
	// row until the end of the transaction.
	SelectOrderForUpdate = `SELECT ` + orderColumns + ` FROM %s
		WHERE ask = $1 AND bid = $2 AND nonce = $3
		FOR UPDATE;`

	// SelectOrders retrieves all orders, grouped by pair in nonce order.
	SelectOrders = `SELECT ` + orderColumns + ` FROM %s
		ORDER BY ask, bid, nonce;`

	// UpdateOrderStatus sets an order's status and update time.
	UpdateOrderStatus = `UPDATE %s SET status = $4, updated_at = $5
		WHERE ask = $1 AND bid = $2 AND nonce = $3;`

	// UpdateOrderFill sets an order's filled amount, status and update time.
	UpdateOrderFill = `UPDATE %s SET bid_filled = $4, status = $5, updated_at = $6
		WHERE ask = $1 AND bid = $2 AND nonce = $3;`
)
