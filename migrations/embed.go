// Package migrations embeds the SQL schema for each supported driver.
package migrations

import "embed"

// FS holds sqlite/*.sql and postgres/*.sql
//
//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Dir returns the migration directory for a database driver.
func Dir(driver string) string {
	if driver == "pgx" {
		return "postgres"
	}
	return "sqlite"
}
