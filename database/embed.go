package database

import (
	"embed"
	"io/fs"
)

// EmbeddedMigrations holds migrations/*.sql.
// Use fs.Sub(EmbeddedMigrations, "migrations") before passing it to New,
// or call MigrationsFS.
//
//go:embed migrations/*.sql
var EmbeddedMigrations embed.FS

// MigrationsFS returns the embedded migrations rooted at migrations/.
func MigrationsFS() fs.FS {
	sub, err := fs.Sub(EmbeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}
