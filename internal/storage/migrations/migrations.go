// Package migrations embeds the schema for every supported database and
// applies it with goose.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed sqlite/*.sql postgres/*.sql
var FS embed.FS

// Dialects understood by Up. The values double as the directory holding
// that dialect's migrations.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

var gooseDialects = map[string]goose.Dialect{
	DialectSQLite:   goose.DialectSQLite3,
	DialectPostgres: goose.DialectPostgres,
}

// runProvider is a seam for testing. Each call builds its own goose
// Provider, so stores with different dialects can migrate concurrently.
var runProvider = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return err
	}
	_, err = provider.Up(ctx)
	return err
}

// Up applies every pending migration for dialect to db.
func Up(ctx context.Context, db *sql.DB, dialect string) error {
	gooseDialect, ok := gooseDialects[dialect]
	if !ok {
		return fmt.Errorf("migrations: unknown dialect %q", dialect)
	}

	fsys, err := fs.Sub(FS, dialect)
	if err != nil {
		return fmt.Errorf("migrations: open %s: %w", dialect, err)
	}
	if err := runProvider(ctx, gooseDialect, db, fsys); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	return nil
}
