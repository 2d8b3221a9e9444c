// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package internal

const (
	// RetrievePGVersion retrieves the PostgreSQL version string.
	RetrievePGVersion = `SELECT version();`

	// TableExists checks for a table in a schema.
	TableExists = `SELECT 1 FROM pg_tables WHERE schemaname = $1 AND tablename = $2;`
)
