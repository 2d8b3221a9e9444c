// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package pg

import (
	"database/sql"
	"fmt"
	"strings"

	"decred.org/dexcore/server/db/driver/pg/internal"
	_ "github.com/lib/pq" // Start the PostgreSQL sql driver
)

const publicSchema = "public"

// connString builds the lib/pq connection string. The host may be an IP
// address or hostname for a TCP connection, or an absolute path to a UNIX
// domain socket directory, in which case the port is omitted.
func connString(host, port, user, pass, dbName string) string {
	psqlInfo := fmt.Sprintf("host=%s user=%s ", host, user)
	if pass != "" {
		psqlInfo += fmt.Sprintf("password=%s ", pass)
	}
	psqlInfo += fmt.Sprintf("dbname=%s sslmode=disable", dbName)
	if !strings.HasPrefix(host, "/") {
		psqlInfo += fmt.Sprintf(" port=%s", port)
	}
	return psqlInfo
}

// connect opens a connection to a PostgreSQL database. The caller is
// responsible for calling Close() on the returned db when finished using it.
func connect(host, port, user, pass, dbName string) (*sql.DB, error) {
	pgdb, err := sql.Open("postgres", connString(host, port, user, pass, dbName))
	if err != nil {
		return nil, err
	}

	// Establish a connection and verify it is alive.
	if err = pgdb.Ping(); err != nil {
		pgdb.Close()
		return nil, err
	}
	return pgdb, nil
}

// sqlExecutor is implemented by both sql.DB and sql.Tx.
type sqlExecutor interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// namespacedTableExists checks if the specified table exists.
func namespacedTableExists(db *sql.DB, schema, tableName string) (bool, error) {
	rows, err := db.Query(internal.TableExists, schema, tableName)
	if err != nil {
		return false, err
	}
	defer func() {
		if e := rows.Close(); e != nil {
			log.Errorf("Close of Query failed: %v", e)
		}
	}()
	return rows.Next(), nil
}

// createTable creates a table with the given name using the provided SQL
// statement, if it does not already exist.
func createTable(db *sql.DB, fmtStmt, schema, tableName string) (bool, error) {
	exists, err := namespacedTableExists(db, schema, tableName)
	if err != nil {
		return false, err
	}
	nameSpacedTable := schema + "." + tableName
	if exists {
		log.Tracef(`Table "%s" exists.`, nameSpacedTable)
		return false, nil
	}
	log.Infof(`Creating the "%s" table.`, nameSpacedTable)
	if _, err = db.Exec(fmt.Sprintf(fmtStmt, nameSpacedTable)); err != nil {
		return false, err
	}
	return true, nil
}

func dropTable(db sqlExecutor, tableName string) error {
	_, err := db.Exec(fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, tableName))
	return err
}

func retrievePGVersion(db *sql.DB) (ver string, err error) {
	err = db.QueryRow(internal.RetrievePGVersion).Scan(&ver)
	return
}

func checkCurrentTimeZone(db *sql.DB) (currentTZ string, err error) {
	if err = db.QueryRow(`SHOW TIME ZONE`).Scan(&currentTZ); err != nil {
		err = fmt.Errorf("unable to query current time zone: %w", err)
	}
	return
}
