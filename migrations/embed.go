// Package migrations embeds the Postgres schema migrations.
package migrations

import "embed"

// FS holds the *.up.sql and *.down.sql files for golang-migrate.
//
//go:embed *.sql
var FS embed.FS
