package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/educonnect/educonnect-api/internal/models"
)

func courseSummaryRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "description", "price", "instructor_id", "status", "created_at", "updated_at", "instructor_name"})
}

func TestCourseRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := courseSummaryRows().
		AddRow("c-1", "Go Basics", "Intro", 49.99, "u-1", models.CourseStatusActive, time.Now(), time.Now(), "Alice").
		AddRow("c-2", "SQL Basics", "Intro", 29.99, "u-2", models.CourseStatusActive, time.Now(), time.Now(), "Unknown Instructor")
	mock.ExpectQuery(`SELECT c\.id, c\.title, .+ FROM courses c\s+LEFT JOIN users u ON u\.id = c\.instructor_id\s+WHERE c\.status = \$1`).
		WithArgs(models.CourseStatusActive).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM courses WHERE status = \$1`).
		WithArgs(models.CourseStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	courses, total, err := repo.ListActive(context.Background(), models.CourseFilter{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.Equal(t, 2, total)
	require.Equal(t, "Unknown Instructor", courses[1].InstructorName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryListActiveDefaultsPageSize(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(`ORDER BY c\.created_at DESC LIMIT 10 OFFSET 0`).
		WithArgs(models.CourseStatusActive).
		WillReturnRows(courseSummaryRows())
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM courses WHERE status = \$1`).
		WithArgs(models.CourseStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.ListActive(context.Background(), models.CourseFilter{Page: 0, PageSize: 0})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindActiveByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	rows := courseSummaryRows().
		AddRow("c-1", "Go Basics", "Intro", 49.99, "u-1", models.CourseStatusActive, time.Now(), time.Now(), "Alice")
	mock.ExpectQuery(`WHERE c\.id = \$1 AND c\.status = \$2`).
		WithArgs("c-1", models.CourseStatusActive).
		WillReturnRows(rows)

	course, err := repo.FindActiveByID(context.Background(), "c-1")
	require.NoError(t, err)
	require.Equal(t, "Go Basics", course.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryFindActiveByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectQuery(`WHERE c\.id = \$1 AND c\.status = \$2`).
		WithArgs("c-404", models.CourseStatusActive).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByID(context.Background(), "c-404")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCourseRepositoryListEnrollmentsWithUsers(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	name := "Alice"
	email := "alice@example.com"
	rows := sqlmock.NewRows([]string{"id", "user_id", "course_id", "progress_percentage", "enrolled_at", "user_name", "user_email"}).
		AddRow("e-1", "u-1", "c-1", 40.0, time.Now(), name, email).
		AddRow("e-2", "u-gone", "c-1", 0.0, time.Now(), nil, nil)
	mock.ExpectQuery(`FROM enrollments e\s+LEFT JOIN users u ON u\.id = e\.user_id\s+WHERE e\.course_id = \$1`).
		WithArgs("c-1").
		WillReturnRows(rows)

	enrollments, err := repo.ListEnrollmentsWithUsers(context.Background(), "c-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.Equal(t, "Alice", *enrollments[0].UserName)
	require.Nil(t, enrollments[1].UserName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("INSERT INTO courses").
		WillReturnResult(sqlmock.NewResult(0, 1))

	course := &models.Course{Title: "Go Basics", Status: models.CourseStatusDraft}
	require.NoError(t, repo.Create(context.Background(), course))
	require.NotEmpty(t, course.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCourseRepository(db)

	mock.ExpectExec("DELETE FROM courses WHERE id").
		WithArgs("c-404").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "c-404")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
