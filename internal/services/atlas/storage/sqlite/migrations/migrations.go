// Package migrations embeds the atlas SQLite schema migrations.
package migrations

import "embed"

// FS holds the ordered migration files.
//
//go:embed *.sql
var FS embed.FS
