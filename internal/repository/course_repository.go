package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/educonnect/educonnect-api/internal/models"
)

// CourseRepository handles persistence of courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseSummaryColumns = `c.id, c.title, c.description, c.price, c.instructor_id, c.status, c.created_at, c.updated_at,
        COALESCE(u.name, 'Unknown Instructor') AS instructor_name`

// ListActive returns a page of active courses annotated with instructor
// names. Courses whose instructor row is gone fall back to the placeholder
// name instead of being dropped.
func (r *CourseRepository) ListActive(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s
        FROM courses c
        LEFT JOIN users u ON u.id = c.instructor_id
        WHERE c.status = $1
        ORDER BY c.created_at DESC LIMIT %d OFFSET %d`, courseSummaryColumns, size, offset)

	var courses []models.CourseSummary
	if err := r.db.SelectContext(ctx, &courses, query, models.CourseStatusActive); err != nil {
		return nil, 0, fmt.Errorf("list active courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses WHERE status = $1`, models.CourseStatusActive); err != nil {
		return nil, 0, fmt.Errorf("count active courses: %w", err)
	}
	return courses, total, nil
}

// FindActiveByID returns an active course with instructor name.
func (r *CourseRepository) FindActiveByID(ctx context.Context, id string) (*models.CourseSummary, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM courses c
        LEFT JOIN users u ON u.id = c.instructor_id
        WHERE c.id = $1 AND c.status = $2`, courseSummaryColumns)
	var course models.CourseSummary
	if err := r.db.GetContext(ctx, &course, query, id, models.CourseStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active course: %w", err)
	}
	return &course, nil
}

// FindByID returns a course regardless of status, for admin operations.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	const query = `SELECT id, title, description, price, instructor_id, status, created_at, updated_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// ListEnrollmentsWithUsers returns every enrollment of a course joined with
// the enrolled user.
func (r *CourseRepository) ListEnrollmentsWithUsers(ctx context.Context, courseID string) ([]models.EnrollmentWithUser, error) {
	const query = `SELECT e.id, e.user_id, e.course_id, e.progress_percentage, e.enrolled_at,
        u.name AS user_name, u.email AS user_email
        FROM enrollments e
        LEFT JOIN users u ON u.id = e.user_id
        WHERE e.course_id = $1
        ORDER BY e.enrolled_at ASC`
	var enrollments []models.EnrollmentWithUser
	if err := r.db.SelectContext(ctx, &enrollments, query, courseID); err != nil {
		return nil, fmt.Errorf("list course enrollments: %w", err)
	}
	return enrollments, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, title, description, price, instructor_id, status, created_at, updated_at)
        VALUES (:id, :title, :description, :price, :instructor_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update updates mutable fields of a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET title = :title, description = :description, price = :price, instructor_id = :instructor_id, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course row. Dependent enrollments are intentionally not
// cascaded; cleanup is the maintenance tool's job.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Count returns the total number of courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}
