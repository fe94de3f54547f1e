package models

import "time"

// CourseStatus enumerates course visibility states. Only active courses are
// exposed through the public API.
type CourseStatus string

const (
	CourseStatusActive   CourseStatus = "active"
	CourseStatusInactive CourseStatus = "inactive"
	CourseStatusDraft    CourseStatus = "draft"
)

// MaxCoursePrice is the upper bound accepted for course prices.
const MaxCoursePrice = 42949672.95

// Course represents an enrollable unit owned by an instructor.
type Course struct {
	ID           string       `db:"id" json:"id"`
	Title        string       `db:"title" json:"title"`
	Description  string       `db:"description" json:"description"`
	Price        float64      `db:"price" json:"price"`
	InstructorID string       `db:"instructor_id" json:"instructor_id"`
	Status       CourseStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// CourseSummary is a course annotated with its instructor's display name.
// InstructorName falls back to "Unknown Instructor" when the instructor row
// no longer exists.
type CourseSummary struct {
	Course
	InstructorName string `db:"instructor_name" json:"instructor_name"`
}

// CourseDetail carries the full public view of a course: instructor name and
// the complete enrollment list with enrolled users.
type CourseDetail struct {
	CourseSummary
	Enrollments []EnrollmentWithUser `json:"enrollments"`
}

// CourseFilter captures listing criteria for the public catalogue.
type CourseFilter struct {
	Page     int
	PageSize int
}
