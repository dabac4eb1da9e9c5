// Package migrations carries the archive schema as embedded SQL files,
// applied in filename order (NNN_name.up.sql).
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
