package migrations

import "embed"

// FS exposes the SQL migrations for the iofs migrate driver.
//
//go:embed *.sql
var FS embed.FS
