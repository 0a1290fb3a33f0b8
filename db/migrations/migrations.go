// Package migrations embeds the SQL migrations for the operations journal.
// The golang-migrate iofs driver reads them when InitPostgres applies
// pending migrations at startup.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS

// Version is the schema version the journal expects.
const Version = 1
