// Package schemas provides the embedded SQL migrations of the result history.
package schemas

import "embed"

// Migrations holds golang-migrate files named NNNNNN_name.{up,down}.sql.
//
//go:embed migrations/*.sql
var Migrations embed.FS
