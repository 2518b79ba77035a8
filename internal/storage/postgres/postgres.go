// Package postgres implements storage.Storage on PostgreSQL through a
// pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/aanand-mishra/student-marks-api/internal/config"
	"github.com/aanand-mishra/student-marks-api/internal/storage"
	"github.com/aanand-mishra/student-marks-api/internal/storage/migrations"
	"github.com/aanand-mishra/student-marks-api/internal/types"
)

// psql builds statements with PostgreSQL's $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type Postgres struct {
	pool *pgxpool.Pool
}

var _ storage.Storage = (*Postgres)(nil)

// New connects to cfg.DSN, verifies the connection and applies the
// embedded schema migrations.
func New(ctx context.Context, cfg config.Storage) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pgx ping: %w", err)
	}

	// goose speaks database/sql; borrow the pool through the pgx stdlib
	// adapter for the duration of the migration.
	db := stdlib.OpenDBFromPool(pool)
	err = migrations.Up(ctx, db, migrations.DialectPostgres)
	_ = db.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

func (p *Postgres) CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error) {
	const insertStudent = `
	INSERT INTO students (name, email, phone)
	VALUES ($1, $2, NULLIF($3, ''))
	RETURNING id, name, email, COALESCE(phone, '');`

	const insertMark = `
	INSERT INTO marks (student_id, mark)
	VALUES ($1, $2);`

	var student types.Student
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, insertStudent, in.Name, in.Email, in.Phone)
		if err := row.Scan(&student.ID, &student.Name, &student.Email, &student.Phone); err != nil {
			return fmt.Errorf("insert student: %w", err)
		}

		if mark := in.Mark.Ptr(); mark != nil {
			if _, err := tx.Exec(ctx, insertMark, student.ID, *mark); err != nil {
				return fmt.Errorf("insert mark: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return types.Student{}, fmt.Errorf("create student: %w", err)
	}
	return student, nil
}

// marksAgg builds each student's mark list in one pass; FILTER drops the
// all-NULL row a LEFT JOIN produces for students without marks, and
// COALESCE turns the resulting NULL aggregate into [].
const marksAgg = `COALESCE(
	JSON_AGG(
		JSON_BUILD_OBJECT('id', m.id, 'student_id', m.student_id, 'mark', m.mark)
		ORDER BY m.id
	) FILTER (WHERE m.id IS NOT NULL),
	'[]'
) AS marks`

func (p *Postgres) GetStudents(ctx context.Context, page types.PageRequest) ([]types.StudentWithMarks, int64, error) {
	countQuery, countArgs, err := psql.Select("COUNT(*)").From("students").ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count query: %w", err)
	}

	pageQuery, pageArgs, err := psql.
		Select("s.id", "s.name", "s.email", "COALESCE(s.phone, '')", marksAgg).
		From("students s").
		LeftJoin("marks m ON m.student_id = s.id").
		GroupBy("s.id").
		OrderBy("s.id").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset())).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list query: %w", err)
	}

	var total int64
	if err := p.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	rows, err := p.pool.Query(ctx, pageQuery, pageArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := make([]types.StudentWithMarks, 0, page.Limit)
	for rows.Next() {
		var st types.StudentWithMarks
		if err := rows.Scan(&st.ID, &st.Name, &st.Email, &st.Phone, &st.Marks); err != nil {
			return nil, 0, fmt.Errorf("scan student: %w", err)
		}
		if st.Marks == nil {
			st.Marks = make([]types.Mark, 0)
		}
		students = append(students, st)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate students: %w", err)
	}
	return students, total, nil
}

func (p *Postgres) GetStudentByID(ctx context.Context, id int64) (types.StudentWithMark, error) {
	const query = `
	SELECT s.id, s.name, s.email, COALESCE(s.phone, ''), m.mark
	FROM students s
	LEFT JOIN marks m ON m.student_id = s.id
	WHERE s.id = $1
	ORDER BY m.id DESC NULLS LAST
	LIMIT 1;`

	var st types.StudentWithMark
	err := p.pool.QueryRow(ctx, query, id).Scan(&st.ID, &st.Name, &st.Email, &st.Phone, &st.Mark)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.StudentWithMark{}, fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
		}
		return types.StudentWithMark{}, fmt.Errorf("get student: %w", err)
	}
	return st, nil
}

// upsertLatestMark updates the student's newest mark row or, when the
// student has none, inserts one. The caller holds the student's row lock
// (taken by the preceding UPDATE students), so two concurrent upserts for
// the same student cannot both take the insert branch.
const upsertLatestMark = `
	WITH latest AS (
	    SELECT id FROM marks WHERE student_id = $1 ORDER BY id DESC LIMIT 1
	), updated AS (
	    UPDATE marks SET mark = $2 WHERE id IN (SELECT id FROM latest) RETURNING id
	)
	INSERT INTO marks (student_id, mark)
	SELECT $1, $2
	WHERE NOT EXISTS (SELECT 1 FROM updated);`

func (p *Postgres) UpdateStudentByID(ctx context.Context, id int64, in types.StudentInput) (types.Student, error) {
	const updateStudent = `
	UPDATE students SET name = $1, email = $2, phone = NULLIF($3, '')
	WHERE id = $4
	RETURNING id, name, email, COALESCE(phone, '');`

	var student types.Student
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, updateStudent, in.Name, in.Email, in.Phone, id)
		if err := row.Scan(&student.ID, &student.Name, &student.Email, &student.Phone); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("no student found with id %d: %w", id, storage.ErrNotFound)
			}
			return fmt.Errorf("update student: %w", err)
		}

		if mark := in.Mark.Ptr(); mark != nil {
			if _, err := tx.Exec(ctx, upsertLatestMark, id, *mark); err != nil {
				return fmt.Errorf("upsert mark: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return types.Student{}, fmt.Errorf("update student: %w", err)
	}
	return student, nil
}

func (p *Postgres) DeleteStudentByID(ctx context.Context, id int64) error {
	err := pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM marks WHERE student_id = $1;`, id); err != nil {
			return fmt.Errorf("delete marks: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM students WHERE id = $1;`, id); err != nil {
			return fmt.Errorf("delete student: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
