package storage

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationSource 内嵌的 SQL 迁移
func MigrationSource() migrate.MigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationsFS,
		Root:       "migrations",
	}
}

// Migrate 执行迁移，返回本次应用的数量
func Migrate(db *sql.DB, direction migrate.MigrationDirection) (int, error) {
	n, err := migrate.Exec(db, "postgres", MigrationSource(), direction)
	if err != nil {
		return n, errors.Wrap(err, "failed to apply migrations")
	}
	return n, nil
}

// PendingMigrations 尚未应用的迁移数量
func PendingMigrations(db *sql.DB) (int, error) {
	planned, _, err := migrate.PlanMigration(db, "postgres", MigrationSource(), migrate.Up, 0)
	if err != nil {
		return 0, errors.Wrap(err, "failed to plan migrations")
	}
	return len(planned), nil
}
