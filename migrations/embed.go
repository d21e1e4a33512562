// Package migrations embeds the SQL migration files into the binary
// so deployments never depend on loose .sql files on disk.
package migrations

import (
	"embed"

	"github.com/habitatworks/habitat-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // files sit at the embedded FS root
}
