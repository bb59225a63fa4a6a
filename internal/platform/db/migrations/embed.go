// Package migrations embeds the dashboard's PostgreSQL schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
