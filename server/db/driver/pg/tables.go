// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package pg

import (
	"database/sql"
	"fmt"

	"decred.org/dexcore/server/db/driver/pg/internal"
)

const (
	ordersTableName = "orders"
	fillsTableName  = "fills"
	fillsTakerIndex = "fills_taker_idx"
)

type tableStmt struct {
	name string
	stmt string
}

var createTableStatements = []tableStmt{
	{ordersTableName, internal.CreateOrdersTable},
	{fillsTableName, internal.CreateFillsTable},
}

func fullTableName(tableName string) string {
	return publicSchema + "." + tableName
}

// prepareTables creates the orders and fills tables and their indexes if they
// do not exist.
func prepareTables(db *sql.DB) error {
	for _, c := range createTableStatements {
		if _, err := createTable(db, c.stmt, publicSchema, c.name); err != nil {
			return fmt.Errorf("error creating %s table: %w", c.name, err)
		}
	}
	_, err := db.Exec(fmt.Sprintf(internal.CreateFillsTakerIndex, fillsTakerIndex, fullTableName(fillsTableName)))
	return err
}
