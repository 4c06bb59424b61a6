// Package migrations embeds the SQL schema files applied in filename order.
package migrations

import "embed"

// Files embeds the SQL migrations.
//
//go:embed *.sql
var Files embed.FS
