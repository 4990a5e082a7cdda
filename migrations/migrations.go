// Package migrations embeds the SQL schema for the SQL record store backends.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
