// Package storage defines the Storage interface, a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// Handlers (HTTP layer) should not know or care which database they are
// talking to. By depending only on this interface:
//
//   - Switching databases = pick another implementation in main.go
//     (sqlite or postgres). Zero handler changes.
//
//   - Writing tests = pass a fake that satisfies the interface.
//     No real database needed for handler unit tests.
//
// A Storage value is a lifecycle-scoped handle: main constructs exactly one
// at startup, hands it to every handler explicitly, and calls Close on
// shutdown.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-marks-api/internal/types"
)

// ErrNotFound is returned when the referenced student does not exist.
// Callers should test for it with errors.Is.
var ErrNotFound = errors.New("student not found")

// Storage is the database contract.
//
// Every multi-statement write runs inside a single transaction: either all
// of its statements take effect or none do.
type Storage interface {
	// CreateStudent inserts a student and, when in.Mark is present, its
	// first mark row. Returns the stored student.
	CreateStudent(ctx context.Context, in types.StudentInput) (types.Student, error)

	// GetStudents returns one page of students ordered by id, each with
	// all of its marks, plus the total number of students.
	GetStudents(ctx context.Context, page types.PageRequest) ([]types.StudentWithMarks, int64, error)

	// GetStudentByID returns the student with its most recent mark.
	// Returns ErrNotFound when there is no such student.
	GetStudentByID(ctx context.Context, id int64) (types.StudentWithMark, error)

	// UpdateStudentByID replaces name, email and phone and, when in.Mark is
	// present, upserts the student's latest mark row.
	// Returns ErrNotFound when there is no such student.
	UpdateStudentByID(ctx context.Context, id int64, in types.StudentInput) (types.Student, error)

	// DeleteStudentByID removes the student and all of its marks.
	// Deleting an id that does not exist is not an error.
	DeleteStudentByID(ctx context.Context, id int64) error

	// Ping reports whether the database is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying connection pool.
	Close() error
}
