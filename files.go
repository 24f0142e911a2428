package accounts

import (
	"embed"
	"io/fs"
)

//go:embed data/sql/migrations
var embeddedSQL embed.FS

// migrationsRoot is the embed path prefix stripped before handing the tree to
// the persistence client.
const migrationsRoot = "data/sql/migrations"

// MigrationsFS returns the embedded migration tree rooted at the dialect
// directories (sqlite/, postgres/).
func MigrationsFS() (fs.FS, error) {
	return fs.Sub(embeddedSQL, migrationsRoot)
}
