// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"decred.org/dexcore/dex/order"
	"decred.org/dexcore/server/db"
	"decred.org/dexcore/server/db/driver/pg/internal"
	"github.com/lib/pq"
)

// pqUniqueViolation is the PostgreSQL error code for a unique constraint
// violation.
const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation
}

// rowScanner is implemented by both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var ord order.Order
	var nonce fastUint64
	var askProxy, bidProxy fastUint64
	var status int16
	err := row.Scan(dbAddress{&ord.Pair.Ask}, dbAddress{&ord.Pair.Bid}, &nonce, dbAddress{&ord.Maker},
		&askProxy, dbAmount{&ord.AskAmount}, &ord.AskData,
		&bidProxy, dbAmount{&ord.BidAmount}, &ord.BidData,
		dbAmount{&ord.BidFilled}, dbAmount{&ord.FeeAmount}, &status,
		dbStamp{&ord.CreatedAt}, dbStamp{&ord.UpdatedAt})
	if err != nil {
		return nil, err
	}
	ord.Nonce = uint64(nonce)
	ord.AskProxyID, ord.BidProxyID = dexProxyID(askProxy), dexProxyID(bidProxy)
	ord.Status = order.Status(status)
	return &ord, nil
}

func orderArgs(ord *order.Order) []any {
	return []any{ord.Pair.Ask.Bytes(), ord.Pair.Bid.Bytes(), int64(ord.Nonce), ord.Maker.Bytes(),
		int64(ord.AskProxyID), dbAmount{&ord.AskAmount}, nullBytes(ord.AskData),
		int64(ord.BidProxyID), dbAmount{&ord.BidAmount}, nullBytes(ord.BidData),
		dbAmount{&ord.BidFilled}, dbAmount{&ord.FeeAmount}, int16(ord.Status),
		dbStamp{&ord.CreatedAt}, dbStamp{&ord.UpdatedAt}}
}

func unknownOrder(pair order.Pair, nonce uint64) error {
	return db.ArchiveError{Code: db.ErrUnknownOrder, Detail: fmt.Sprintf("%s#%d", pair, nonce)}
}

func (a *Archiver) queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(a.ctx, a.queryTimeout)
}

// Order retrieves the order with the given nonce.
func (a *Archiver) Order(pair order.Pair, nonce uint64) (*order.Order, error) {
	ctx, cancel := a.queryContext()
	defer cancel()
	stmt := fmt.Sprintf(internal.SelectOrder, fullTableName(ordersTableName))
	ord, err := scanOrder(a.db.QueryRowContext(ctx, stmt, pair.Ask.Bytes(), pair.Bid.Bytes(), int64(nonce)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, unknownOrder(pair, nonce)
	}
	return ord, err
}

// Orders retrieves all archived orders, grouped by pair in nonce order.
func (a *Archiver) Orders() ([]*order.Order, error) {
	ctx, cancel := a.queryContext()
	defer cancel()
	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(internal.SelectOrders, fullTableName(ordersTableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ords []*order.Order
	for rows.Next() {
		ord, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		ords = append(ords, ord)
	}
	return ords, rows.Err()
}

// StoreOrder stores a new order.
func (a *Archiver) StoreOrder(ord *order.Order) error {
	if !ord.Pair.Valid() {
		return db.ArchiveError{Code: db.ErrInvalidOrder, Detail: "invalid pair " + ord.Pair.String()}
	}
	ctx, cancel := a.queryContext()
	defer cancel()
	stmt := fmt.Sprintf(internal.InsertOrder, fullTableName(ordersTableName))
	_, err := a.db.ExecContext(ctx, stmt, orderArgs(ord)...)
	if isUniqueViolation(err) {
		return db.ArchiveError{Code: db.ErrOrderExists, Detail: ord.String()}
	}
	return err
}

// UpdateOrderStatus sets the status and update time of an archived order.
func (a *Archiver) UpdateOrderStatus(pair order.Pair, nonce uint64, status order.Status, stamp time.Time) error {
	ctx, cancel := a.queryContext()
	defer cancel()
	stmt := fmt.Sprintf(internal.UpdateOrderStatus, fullTableName(ordersTableName))
	res, err := a.db.ExecContext(ctx, stmt, pair.Ask.Bytes(), pair.Bid.Bytes(), int64(nonce),
		int16(status), dbStamp{&stamp})
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return unknownOrder(pair, nonce)
	}
	return nil
}

func scanFill(row rowScanner) (*order.Fill, error) {
	var fill order.Fill
	var seq, nonce fastUint64
	var status int16
	err := row.Scan(dbAddress{&fill.Pair.Ask}, dbAddress{&fill.Pair.Bid}, &seq, &nonce,
		dbAddress{&fill.Maker}, dbAddress{&fill.Taker},
		dbAmount{&fill.AskFilled}, dbAmount{&fill.BidFilled}, dbAmount{&fill.FeeAmount},
		dbAmount{&fill.Rate}, &status, dbStamp{&fill.Stamp})
	if err != nil {
		return nil, err
	}
	fill.Seq, fill.Nonce = uint64(seq), uint64(nonce)
	fill.Status = order.Status(status)
	return &fill, nil
}

// Fills retrieves all archived fills, grouped by pair in sequence order.
func (a *Archiver) Fills() ([]*order.Fill, error) {
	ctx, cancel := a.queryContext()
	defer cancel()
	rows, err := a.db.QueryContext(ctx, fmt.Sprintf(internal.SelectFills, fullTableName(fillsTableName)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fills []*order.Fill
	for rows.Next() {
		fill, err := scanFill(rows)
		if err != nil {
			return nil, err
		}
		fills = append(fills, fill)
	}
	return fills, rows.Err()
}

// StoreFill stores the fill and applies it to the filled order in the same
// transaction. The order row is locked until the transaction ends.
func (a *Archiver) StoreFill(fill *order.Fill) (err error) {
	ctx, cancel := a.queryContext()
	defer cancel()
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err == nil {
			err = tx.Commit()
			return
		}
		if errR := tx.Rollback(); errR != nil {
			log.Errorf("Rollback failed: %v", errR)
		}
	}()

	ordersTable := fullTableName(ordersTableName)
	stmt := fmt.Sprintf(internal.SelectOrderForUpdate, ordersTable)
	pair := fill.Pair
	ord, err := scanOrder(tx.QueryRowContext(ctx, stmt, pair.Ask.Bytes(), pair.Bid.Bytes(), int64(fill.Nonce)))
	if errors.Is(err, sql.ErrNoRows) {
		return unknownOrder(pair, fill.Nonce)
	}
	if err != nil {
		return err
	}
	if err = db.ApplyFill(ord, fill); err != nil {
		return err
	}

	stmt = fmt.Sprintf(internal.InsertFill, fullTableName(fillsTableName))
	_, err = tx.ExecContext(ctx, stmt, pair.Ask.Bytes(), pair.Bid.Bytes(), int64(fill.Seq), int64(fill.Nonce),
		fill.Maker.Bytes(), fill.Taker.Bytes(),
		dbAmount{&fill.AskFilled}, dbAmount{&fill.BidFilled}, dbAmount{&fill.FeeAmount},
		dbAmount{&fill.Rate}, int16(fill.Status), dbStamp{&fill.Stamp})
	if isUniqueViolation(err) {
		return db.ArchiveError{Code: db.ErrInvalidFill, Detail: fmt.Sprintf("duplicate fill %d of %s", fill.Seq, pair)}
	}
	if err != nil {
		return err
	}

	stmt = fmt.Sprintf(internal.UpdateOrderFill, ordersTable)
	_, err = tx.ExecContext(ctx, stmt, pair.Ask.Bytes(), pair.Bid.Bytes(), int64(ord.Nonce),
		dbAmount{&ord.BidFilled}, int16(ord.Status), dbStamp{&ord.UpdatedAt})
	return err
}
