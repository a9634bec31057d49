// Package migrations embeds the SQL schema so the binary can migrate its
// database without the files on disk.
package migrations

import "embed"

// FS holds the migration files at its root, ready for database.Migrate.
//
//go:embed *.sql
var FS embed.FS
