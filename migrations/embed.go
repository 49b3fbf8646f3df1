// Package migrations holds the PostgreSQL run archive schema as
// golang-migrate up/down files.
package migrations

import "embed"

// FS contains the embedded PostgreSQL migrations.
//
//go:embed *.sql
var FS embed.FS
