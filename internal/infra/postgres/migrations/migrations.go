// Package migrations holds the bun migrations for the question store.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is populated by the numbered files in this package.
var Migrations = migrate.NewMigrations()
