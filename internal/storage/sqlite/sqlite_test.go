package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-marks-api/internal/config"
	"github.com/aanand-mishra/student-marks-api/internal/storage"
	"github.com/aanand-mishra/student-marks-api/internal/types"
)

func setupStorage(t *testing.T) *SQLite {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "students.db")
	s, err := New(context.Background(), config.Storage{Driver: config.DriverSQLite, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func input(name string, mark *float64) types.StudentInput {
	in := types.StudentInput{Name: name, Email: name + "@x.com"}
	if mark != nil {
		in.Mark = types.NewMark(*mark)
	}
	return in
}

func ptr(v float64) *float64 { return &v }

func countMarks(t *testing.T, s *SQLite, studentID int64) int {
	t.Helper()
	var n int
	require.NoError(t, s.Db.QueryRow(`SELECT COUNT(*) FROM marks WHERE student_id = ?`, studentID).Scan(&n))
	return n
}

func TestCreateStudent_WithoutMark(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, input("ada", nil))
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, "ada", created.Name)
	assert.Equal(t, "ada@x.com", created.Email)
	assert.Equal(t, "", created.Phone)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got.Student)
	assert.Nil(t, got.Mark)
	assert.Equal(t, 0, countMarks(t, s, created.ID))
}

func TestCreateStudent_WithPhoneAndZeroMark(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	in := input("bob", ptr(0))
	in.Phone = "0123456789"
	created, err := s.CreateStudent(ctx, in)
	require.NoError(t, err)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", got.Phone)
	require.NotNil(t, got.Mark)
	assert.Equal(t, 0.0, *got.Mark)
}

func TestGetStudentByID_NotFound(t *testing.T) {
	s := setupStorage(t)

	_, err := s.GetStudentByID(context.Background(), 999)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMarkLifecycle_UpdateTouchesSameRow(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, types.StudentInput{Name: "Ada", Email: "ada@x.com", Mark: types.NewMark(95)})
	require.NoError(t, err)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Mark)
	assert.Equal(t, 95.0, *got.Mark)

	var markID int64
	require.NoError(t, s.Db.QueryRow(`SELECT id FROM marks WHERE student_id = ?`, created.ID).Scan(&markID))

	updated, err := s.UpdateStudentByID(ctx, created.ID, types.StudentInput{Name: "Ada L", Email: "ada@x.com", Mark: types.NewMark(80)})
	require.NoError(t, err)
	assert.Equal(t, "Ada L", updated.Name)

	got, err = s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Mark)
	assert.Equal(t, 80.0, *got.Mark)
	assert.Equal(t, "Ada L", got.Name)

	assert.Equal(t, 1, countMarks(t, s, created.ID))
	var afterID int64
	require.NoError(t, s.Db.QueryRow(`SELECT id FROM marks WHERE student_id = ?`, created.ID).Scan(&afterID))
	assert.Equal(t, markID, afterID)
}

func TestUpdateStudentByID_InsertsFirstMark(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, input("cy", nil))
	require.NoError(t, err)

	_, err = s.UpdateStudentByID(ctx, created.ID, input("cy", ptr(70)))
	require.NoError(t, err)
	assert.Equal(t, 1, countMarks(t, s, created.ID))

	// a second update must not add another row
	_, err = s.UpdateStudentByID(ctx, created.ID, input("cy", ptr(71)))
	require.NoError(t, err)
	assert.Equal(t, 1, countMarks(t, s, created.ID))

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 71.0, *got.Mark)
}

func TestUpdateStudentByID_WithoutMarkKeepsMarks(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, input("di", ptr(55)))
	require.NoError(t, err)

	in := input("di", nil)
	in.Phone = "9876543210"
	_, err = s.UpdateStudentByID(ctx, created.ID, in)
	require.NoError(t, err)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "9876543210", got.Phone)
	assert.Equal(t, 55.0, *got.Mark)
}

func TestUpdateStudentByID_NotFound(t *testing.T) {
	s := setupStorage(t)

	_, err := s.UpdateStudentByID(context.Background(), 42, input("x", ptr(10)))
	require.ErrorIs(t, err, storage.ErrNotFound)

	var n int
	require.NoError(t, s.Db.QueryRow(`SELECT COUNT(*) FROM marks`).Scan(&n))
	assert.Zero(t, n, "no orphan mark may be written for a missing student")
}

func TestMultipleMarks_LatestWinsAndUpdateTargetsLatest(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, input("ed", ptr(10)))
	require.NoError(t, err)
	_, err = s.Db.Exec(`INSERT INTO marks (student_id, mark) VALUES (?, ?)`, created.ID, 20)
	require.NoError(t, err)

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 20.0, *got.Mark)

	_, err = s.UpdateStudentByID(ctx, created.ID, input("ed", ptr(30)))
	require.NoError(t, err)

	page, _, err := s.GetStudents(ctx, types.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Len(t, page[0].Marks, 2)
	assert.Equal(t, 10.0, page[0].Marks[0].Mark)
	assert.Equal(t, 30.0, page[0].Marks[1].Mark)
	assert.Less(t, page[0].Marks[0].ID, page[0].Marks[1].ID)
}

func TestGetStudents_Pagination(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 7; i++ {
		var mark *float64
		if i%2 == 0 {
			mark = ptr(float64(50 + i))
		}
		created, err := s.CreateStudent(ctx, input(string(rune('a'+i)), mark))
		require.NoError(t, err)
		ids = append(ids, created.ID)
	}

	page, total, err := s.GetStudents(ctx, types.PageRequest{Page: 2, Limit: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	require.Len(t, page, 2)
	assert.Equal(t, ids[5], page[0].ID)
	assert.Equal(t, ids[6], page[1].ID)

	// ids[5] has no mark, ids[6] has one
	assert.NotNil(t, page[0].Marks)
	assert.Empty(t, page[0].Marks)
	require.Len(t, page[1].Marks, 1)
	assert.Equal(t, 56.0, page[1].Marks[0].Mark)
	assert.Equal(t, ids[6], page[1].Marks[0].StudentID)

	page, total, err = s.GetStudents(ctx, types.PageRequest{Page: 3, Limit: 5})
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func TestDeleteStudentByID_RemovesMarks(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, input("fi", ptr(99)))
	require.NoError(t, err)

	require.NoError(t, s.DeleteStudentByID(ctx, created.ID))

	_, err = s.GetStudentByID(ctx, created.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 0, countMarks(t, s, created.ID))
}

func TestDeleteStudentByID_MissingIsNotAnError(t *testing.T) {
	s := setupStorage(t)
	require.NoError(t, s.DeleteStudentByID(context.Background(), 12345))
}

func TestSchema_RejectsOutOfRangeMarkAndOrphans(t *testing.T) {
	s := setupStorage(t)
	ctx := context.Background()

	created, err := s.CreateStudent(ctx, input("gi", nil))
	require.NoError(t, err)

	_, err = s.Db.Exec(`INSERT INTO marks (student_id, mark) VALUES (?, ?)`, created.ID, 150)
	assert.Error(t, err, "CHECK constraint must reject marks above 100")

	_, err = s.Db.Exec(`INSERT INTO marks (student_id, mark) VALUES (?, ?)`, 9999, 50)
	assert.Error(t, err, "foreign key must reject marks for unknown students")
}

func TestNew_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.db")
	cfg := config.Storage{Driver: config.DriverSQLite, Path: path}
	ctx := context.Background()

	s, err := New(ctx, cfg)
	require.NoError(t, err)
	created, err := s.CreateStudent(ctx, input("hi", ptr(1)))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(ctx, cfg)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetStudentByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.0, *got.Mark)
}

func TestPing(t *testing.T) {
	s := setupStorage(t)
	assert.NoError(t, s.Ping(context.Background()))
}
