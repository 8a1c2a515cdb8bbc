// Package migrations embeds the goose migrations for both supported databases.
package migrations

import "embed"

// Migrations holds one directory per dialect.
//
//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

const (
	PostgresDir = "postgres"
	SQLiteDir   = "sqlite"
)
