// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is the default backend; PostgreSQL is available through the
// postgres package when the service outgrows a single file.
//
// The blank import below registers the sqlite3 driver with database/sql.
// The driver's init() function does this automatically when the package
// is loaded; we never call anything from it directly.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"

	"github.com/aanand-mishra/student-marks-api/internal/config"
	"github.com/aanand-mishra/student-marks-api/internal/storage"
	"github.com/aanand-mishra/student-marks-api/internal/storage/migrations"
	"github.com/aanand-mishra/student-marks-api/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

var _ storage.Storage = (*SQLite)(nil)

// dsn turns a file path into a go-sqlite3 data source name.
//
//	_foreign_keys=on    enforce REFERENCES ... ON DELETE CASCADE
//	_txlock=immediate   BEGIN IMMEDIATE: a write transaction takes the write
//	                    lock up front instead of failing to upgrade later
//	_busy_timeout=5000  wait up to 5s for that lock
func dsn(path string) string {
	return path + "?_foreign_keys=on&_txlock=immediate&_busy_timeout=5000"
}

// New opens the SQLite database at cfg.Path, applies the embedded schema
// migrations and returns a ready-to-use *SQLite.
func New(ctx context.Context, cfg config.Storage) (*SQLite, error) {
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	// sql.Open does NOT open a real connection yet; it just validates
	// the driver name and data source name (DSN).
	db, err := sql.Open("sqlite3", dsn(cfg.Path))
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: ping: %w", err)
	}

	if err := migrations.Up(ctx, db, migrations.DialectSQLite); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// withTx begins a transaction, runs fn with it, and then commits on
// success or rolls back on error/panic. Panics are rethrown.
func (s *SQLite) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.Db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	return fn(tx)
}

// nullable stores an empty optional text field as NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent inserts the student row and, if a mark was supplied, the
// first mark row referencing it. Both inserts share one transaction, so a
// failing mark insert leaves no orphan student behind.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error) {
	var student types.Student

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"INSERT INTO students (name, email, phone) VALUES (?, ?, ?)",
			in.Name, in.Email, nullable(in.Phone),
		)
		if err != nil {
			return fmt.Errorf("insert student: %w", err)
		}

		// LastInsertId returns the auto-generated primary key of the new row.
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}

		if mark := in.Mark.Ptr(); mark != nil {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO marks (student_id, mark) VALUES (?, ?)",
				id, *mark,
			); err != nil {
				return fmt.Errorf("insert mark: %w", err)
			}
		}

		student = types.Student{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone}
		return nil
	})
	if err != nil {
		return types.Student{}, fmt.Errorf("CreateStudent: %w", err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudents returns one page of students with their marks.
//
// Two queries instead of one join: the page window is applied to students
// alone (a LIMIT over a join would count mark rows, not students), then all
// marks for the ids on the page are fetched in a single IN (...) query and
// attached in memory.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetStudents(ctx context.Context, page types.PageRequest) ([]types.StudentWithMarks, int64, error) {
	var total int64
	if err := s.Db.QueryRowContext(ctx, "SELECT COUNT(*) FROM students").Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("GetStudents: count: %w", err)
	}

	rows, err := s.Db.QueryContext(ctx,
		"SELECT id, name, email, phone FROM students ORDER BY id LIMIT ? OFFSET ?",
		page.Limit, page.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	// Pre-allocate an empty (non-nil) slice.
	// Returning [] instead of null in JSON is better API behaviour.
	students := make([]types.StudentWithMarks, 0, page.Limit)
	index := make(map[int64]int)

	for rows.Next() {
		var (
			st    types.StudentWithMarks
			phone sql.NullString
		)
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &phone); err != nil {
			return nil, 0, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		st.Phone = phone.String
		st.Marks = make([]types.Mark, 0)

		index[st.ID] = len(students)
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	if len(students) == 0 {
		return students, total, nil
	}

	if err := s.attachMarks(ctx, students, index); err != nil {
		return nil, 0, fmt.Errorf("GetStudents: %w", err)
	}

	return students, total, nil
}

func (s *SQLite) attachMarks(ctx context.Context, students []types.StudentWithMarks, index map[int64]int) error {
	ids := make([]int64, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}

	// squirrel expands Eq over a slice into student_id IN (?,?,...).
	query, args, err := sq.Select("id", "student_id", "mark").
		From("marks").
		Where(sq.Eq{"student_id": ids}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build marks query: %w", err)
	}

	rows, err := s.Db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query marks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m types.Mark
		if err := rows.Scan(&m.ID, &m.StudentID, &m.Mark); err != nil {
			return fmt.Errorf("scan mark: %w", err)
		}
		i := index[m.StudentID]
		students[i].Marks = append(students[i].Marks, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("marks iteration: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudentByID fetches one student joined to its most recent mark.
//
// ORDER BY m.id DESC LIMIT 1 keeps only the newest mark row; a student
// without marks still yields one row with a NULL mark thanks to LEFT JOIN.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetStudentByID(ctx context.Context, id int64) (types.StudentWithMark, error) {
	var (
		student types.StudentWithMark
		phone   sql.NullString
		mark    sql.NullFloat64
	)

	err := s.Db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.email, s.phone, m.mark
		FROM students s
		LEFT JOIN marks m ON m.student_id = s.id
		WHERE s.id = ?
		ORDER BY m.id DESC
		LIMIT 1`, id,
	).Scan(&student.ID, &student.Name, &student.Email, &phone, &mark)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StudentWithMark{}, fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
		}
		return types.StudentWithMark{}, fmt.Errorf("GetStudentByID: scan: %w", err)
	}

	student.Phone = phone.String
	if mark.Valid {
		student.Mark = &mark.Float64
	}
	return student, nil
}

// upsertLatestMark is one statement: when the student already has marks,
// the subquery yields the newest mark id and ON CONFLICT turns the insert
// into an update of that row; when it has none the subquery yields NULL,
// and inserting NULL into an INTEGER PRIMARY KEY allocates a fresh id.
const upsertLatestMark = `
	INSERT INTO marks (id, student_id, mark)
	VALUES ((SELECT MAX(id) FROM marks WHERE student_id = ?), ?, ?)
	ON CONFLICT (id) DO UPDATE SET mark = excluded.mark`

// ─────────────────────────────────────────────────────────────────────────────
// UpdateStudentByID replaces a student's fields and upserts its latest mark.
// Returns storage.ErrNotFound (and changes nothing) when the id is unknown.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) UpdateStudentByID(ctx context.Context, id int64, in types.StudentInput) (types.Student, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx,
			"UPDATE students SET name = ?, email = ?, phone = ? WHERE id = ?",
			in.Name, in.Email, nullable(in.Phone), id,
		)
		if err != nil {
			return fmt.Errorf("update student: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
		}

		if mark := in.Mark.Ptr(); mark != nil {
			if _, err := tx.ExecContext(ctx, upsertLatestMark, id, id, *mark); err != nil {
				return fmt.Errorf("upsert mark: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: %w", err)
	}

	return types.Student{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// DeleteStudentByID removes the student's marks and then the student.
// The schema also cascades, but the marks are deleted explicitly so the
// outcome never depends on the foreign_keys pragma being on.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) DeleteStudentByID(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM marks WHERE student_id = ?", id); err != nil {
			return fmt.Errorf("delete marks: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM students WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: %w", err)
	}
	return nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close() error {
	return s.Db.Close()
}
