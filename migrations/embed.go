package migrations

import "embed"

// FS contains the PostgreSQL schema migrations for the storefront database.
//
//go:embed *.sql
var FS embed.FS
