package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/educonnect/educonnect-api/internal/models"
)

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Create persists a new enrollment in a single insert. The unique index on
// (user_id, course_id) makes concurrent duplicates impossible; a violation is
// surfaced as ErrDuplicate instead of a racy existence pre-check.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.EnrolledAt.IsZero() {
		enrollment.EnrolledAt = time.Now().UTC()
	}
	const query = `INSERT INTO enrollments (id, user_id, course_id, progress_percentage, enrolled_at)
        VALUES (:id, :user_id, :course_id, :progress_percentage, :enrolled_at)`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// ListCoursesByUser returns every course the user is enrolled in, annotated
// with the user's progress, enrollment time and the instructor name.
func (r *EnrollmentRepository) ListCoursesByUser(ctx context.Context, userID string) ([]models.EnrolledCourse, error) {
	const query = `SELECT c.id, c.title, c.description, c.price, c.instructor_id, c.status, c.created_at, c.updated_at,
        COALESCE(u.name, 'Unknown Instructor') AS instructor_name,
        e.progress_percentage, e.enrolled_at
        FROM enrollments e
        JOIN courses c ON c.id = e.course_id
        LEFT JOIN users u ON u.id = c.instructor_id
        WHERE e.user_id = $1
        ORDER BY e.enrolled_at DESC`
	var courses []models.EnrolledCourse
	if err := r.db.SelectContext(ctx, &courses, query, userID); err != nil {
		return nil, fmt.Errorf("list enrolled courses: %w", err)
	}
	return courses, nil
}

// ListRecords returns every enrollment joined with user and course context,
// for the admin export. Joined fields are nullable since either side may have
// been deleted.
func (r *EnrollmentRepository) ListRecords(ctx context.Context) ([]models.EnrollmentRecord, error) {
	const query = `SELECT e.id, e.user_id, e.course_id, e.progress_percentage, e.enrolled_at,
        u.name AS user_name, u.email AS user_email, c.title AS course_title
        FROM enrollments e
        LEFT JOIN users u ON u.id = e.user_id
        LEFT JOIN courses c ON c.id = e.course_id
        ORDER BY e.enrolled_at DESC`
	var records []models.EnrollmentRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list enrollment records: %w", err)
	}
	return records, nil
}

// Count returns the total number of enrollments.
func (r *EnrollmentRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM enrollments`); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return total, nil
}

// CountOrphans counts enrollments dangling on each foreign key. The two
// buckets are computed independently.
func (r *EnrollmentRepository) CountOrphans(ctx context.Context) (models.OrphanReport, error) {
	var report models.OrphanReport
	const userQuery = `SELECT COUNT(*) FROM enrollments e WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.id = e.user_id)`
	if err := r.db.GetContext(ctx, &report.DeletedUsers, userQuery); err != nil {
		return report, fmt.Errorf("count user orphans: %w", err)
	}
	const courseQuery = `SELECT COUNT(*) FROM enrollments e WHERE NOT EXISTS (SELECT 1 FROM courses c WHERE c.id = e.course_id)`
	if err := r.db.GetContext(ctx, &report.DeletedCourses, courseQuery); err != nil {
		return report, fmt.Errorf("count course orphans: %w", err)
	}
	return report, nil
}

// ListOrphanedByUser returns the IDs of enrollments whose user is gone.
func (r *EnrollmentRepository) ListOrphanedByUser(ctx context.Context) ([]string, error) {
	const query = `SELECT e.id FROM enrollments e WHERE NOT EXISTS (SELECT 1 FROM users u WHERE u.id = e.user_id)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list user orphans: %w", err)
	}
	return ids, nil
}

// ListOrphanedByCourse returns the IDs of enrollments whose course is gone.
func (r *EnrollmentRepository) ListOrphanedByCourse(ctx context.Context) ([]string, error) {
	const query = `SELECT e.id FROM enrollments e WHERE NOT EXISTS (SELECT 1 FROM courses c WHERE c.id = e.course_id)`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list course orphans: %w", err)
	}
	return ids, nil
}

// DeleteByIDs removes enrollments by ID in chunks.
func (r *EnrollmentRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	const chunkSize = 100
	for start := 0; start < len(ids); start += chunkSize {
		end := start + chunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]
		placeholders := make([]string, len(chunk))
		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
			args[i] = id
		}
		query := fmt.Sprintf("DELETE FROM enrollments WHERE id IN (%s)", strings.Join(placeholders, ","))
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete enrollments: %w", err)
		}
	}
	return nil
}
