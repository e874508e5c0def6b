package migrations

import "embed"

// FS embeds the SQL migrations for the SQLite key-value store.
//
//go:embed *.sql
var FS embed.FS
