package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/mattn/go-sqlite3"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUp_SQLiteCreatesTables(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, Up(ctx, db, DialectSQLite))
	// second run is a no-op
	require.NoError(t, Up(ctx, db, DialectSQLite))

	for _, table := range []string{"students", "marks"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
}

func TestUp_ConcurrentStores(t *testing.T) {
	ctx := context.Background()
	dbs := make([]*sql.DB, 4)
	for i := range dbs {
		db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), fmt.Sprintf("c%d.db", i)))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		dbs[i] = db
	}

	errs := make([]error, len(dbs))
	var wg sync.WaitGroup
	for i, db := range dbs {
		i, db := i, db
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = Up(ctx, db, DialectSQLite)
		}()
	}
	// a concurrent caller with another dialect must not disturb the others
	assert.ErrorContains(t, Up(ctx, nil, "oracle"), "unknown dialect")
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "db %d", i)
		var n int
		require.NoError(t, dbs[i].QueryRow(`SELECT COUNT(*) FROM students`).Scan(&n))
	}
}

func TestUp_UnknownDialect(t *testing.T) {
	err := Up(context.Background(), nil, "oracle")
	assert.ErrorContains(t, err, "unknown dialect")
}

func TestUp_WrapsGooseError(t *testing.T) {
	orig := runProvider
	runProvider = func(ctx context.Context, dialect goose.Dialect, db *sql.DB, fsys fs.FS) error {
		assert.Equal(t, goose.DialectPostgres, dialect)
		_, err := fs.Stat(fsys, "00001_create_students_marks.sql")
		assert.NoError(t, err)
		return errors.New("boom")
	}
	defer func() { runProvider = orig }()

	err := Up(context.Background(), nil, DialectPostgres)
	assert.ErrorContains(t, err, "migrations: up: boom")
}

func TestFS_HasMigrationsForEveryDialect(t *testing.T) {
	for dialect := range gooseDialects {
		entries, err := FS.ReadDir(dialect)
		require.NoError(t, err, dialect)
		assert.NotEmpty(t, entries, dialect)
	}
}
