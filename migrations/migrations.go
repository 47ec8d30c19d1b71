// Package migrations embeds the SQL schema for the session store and
// applies it to a connection on startup.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed schema/**/*.sql
var schemaFS embed.FS

// Schema returns the embedded schema filesystem, rooted so callers see
// "0001_init/up.sql" rather than "schema/0001_init/up.sql".
func Schema() fs.FS {
	sub, err := fs.Sub(schemaFS, "schema")
	if err != nil {
		panic(err) // should never happen since we control the embed path
	}
	return sub
}
