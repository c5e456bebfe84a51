// Package migrations embeds the SQL migrations for the client preference
// store. They are applied with goose at startup.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
