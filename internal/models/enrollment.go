package models

import "time"

// Enrollment links a student to a course and tracks progress. The storage
// layer enforces uniqueness of (user_id, course_id).
type Enrollment struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"user_id"`
	CourseID           string    `db:"course_id" json:"course_id"`
	ProgressPercentage float64   `db:"progress_percentage" json:"progress_percentage"`
	EnrolledAt         time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentWithUser is an enrollment joined with the enrolled user, as
// embedded in the course detail view. User fields are nullable because the
// user row may have been deleted out from under the enrollment.
type EnrollmentWithUser struct {
	Enrollment
	UserName  *string `db:"user_name" json:"user_name,omitempty"`
	UserEmail *string `db:"user_email" json:"user_email,omitempty"`
}

// EnrolledCourse is a course annotated with the caller's enrollment state,
// returned by the my-courses operation.
type EnrolledCourse struct {
	CourseSummary
	ProgressPercentage float64   `db:"progress_percentage" json:"progress_percentage"`
	EnrolledAt         time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// EnrollmentRecord is an enrollment joined with user and course context for
// the admin export. Joined fields are nullable because either referenced row
// may have been deleted.
type EnrollmentRecord struct {
	Enrollment
	UserName    *string `db:"user_name" json:"user_name,omitempty"`
	UserEmail   *string `db:"user_email" json:"user_email,omitempty"`
	CourseTitle *string `db:"course_title" json:"course_title,omitempty"`
}

// OrphanReport summarises enrollments dangling on either foreign key. A row
// orphaned on both keys is counted under both buckets; the overlap is a
// documented reporting characteristic, not deduplicated.
type OrphanReport struct {
	DeletedUsers   int `json:"deleted_users"`
	DeletedCourses int `json:"deleted_courses"`
}

// Clean reports whether no orphans were found.
func (r OrphanReport) Clean() bool {
	return r.DeletedUsers == 0 && r.DeletedCourses == 0
}
