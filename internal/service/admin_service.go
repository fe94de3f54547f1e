package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/educonnect/educonnect-api/internal/models"
	appErrors "github.com/educonnect/educonnect-api/pkg/errors"
	"github.com/educonnect/educonnect-api/pkg/export"
)

type adminCourseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type adminUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type adminEnrollmentRepository interface {
	ListRecords(ctx context.Context) ([]models.EnrollmentRecord, error)
	Count(ctx context.Context) (int, error)
}

// PlatformStats aggregates the counts shown on the back-office overview.
type PlatformStats struct {
	TotalUsers       int `json:"total_users"`
	TotalCourses     int `json:"total_courses"`
	TotalEnrollments int `json:"total_enrollments"`
}

// CourseInput is the admin payload for creating or updating a course.
type CourseInput struct {
	Title        string  `json:"title" validate:"required,max=255"`
	Description  string  `json:"description" validate:"required"`
	Price        float64 `json:"price" validate:"gte=0,lte=42949672.95"`
	InstructorID string  `json:"instructor_id" validate:"required"`
	Status       string  `json:"status" validate:"required,oneof=active inactive draft"`
}

// ExportResult is a rendered enrollment export.
type ExportResult struct {
	Content     []byte
	ContentType string
	Filename    string
}

// AdminService backs the administrative API surface.
type AdminService struct {
	courses     adminCourseRepository
	users       adminUserRepository
	enrollments adminEnrollmentRepository
	cache       *CacheService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAdminService constructs AdminService.
func NewAdminService(courses adminCourseRepository, users adminUserRepository, enrollments adminEnrollmentRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AdminService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{
		courses:     courses,
		users:       users,
		enrollments: enrollments,
		cache:       cache,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		validator:   validate,
		logger:      logger,
	}
}

// Stats returns platform-wide entity counts.
func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
	}
	courses, err := s.courses.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	enrollments, err := s.enrollments.Count(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}
	return &PlatformStats{TotalUsers: users, TotalCourses: courses, TotalEnrollments: enrollments}, nil
}

// CreateCourse creates a course owned by an existing instructor.
func (s *AdminService) CreateCourse(ctx context.Context, input CourseInput) (*models.Course, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	if _, err := s.users.FindByID(ctx, input.InstructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "instructor does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	course := &models.Course{
		Title:        input.Title,
		Description:  input.Description,
		Price:        input.Price,
		InstructorID: input.InstructorID,
		Status:       models.CourseStatus(input.Status),
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}

	s.cache.InvalidateEntity(ctx, EntityCourses)
	return course, nil
}

// UpdateCourse applies the input to an existing course.
func (s *AdminService) UpdateCourse(ctx context.Context, id string, input CourseInput) (*models.Course, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.users.FindByID(ctx, input.InstructorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "instructor does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	course.Title = input.Title
	course.Description = input.Description
	course.Price = input.Price
	course.InstructorID = input.InstructorID
	course.Status = models.CourseStatus(input.Status)

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}

	s.cache.InvalidateEntity(ctx, EntityCourses)
	return course, nil
}

// DeleteCourse removes a course. Enrollments referencing it are left behind
// on purpose; the maintenance tool reports and heals the drift.
func (s *AdminService) DeleteCourse(ctx context.Context, id string) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Course not found.")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.cache.InvalidateEntity(ctx, EntityCourses)
	return nil
}

// ListUsers returns a page of accounts.
func (s *AdminService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// DeleteUser removes an account. Enrollments referencing it are left behind
// on purpose; the maintenance tool reports and heals the drift.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "User not found.")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	s.cache.InvalidateEntity(ctx, EntityUsers)
	s.cache.InvalidateEntity(ctx, EntityCourses)
	return nil
}

// ExportEnrollments renders every enrollment with user/course context into
// the requested format.
func (s *AdminService) ExportEnrollments(ctx context.Context, format string) (*ExportResult, error) {
	records, err := s.enrollments.ListRecords(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	dataset := export.Dataset{
		Headers: []string{"Enrollment ID", "Student", "Email", "Course", "Progress", "Enrolled At"},
	}
	for _, rec := range records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Enrollment ID": rec.ID,
			"Student":       stringOrDash(rec.UserName),
			"Email":         stringOrDash(rec.UserEmail),
			"Course":        stringOrDash(rec.CourseTitle),
			"Progress":      fmt.Sprintf("%.2f%%", rec.ProgressPercentage),
			"Enrolled At":   rec.EnrolledAt.UTC().Format("2006-01-02 15:04"),
		})
	}

	switch strings.ToLower(format) {
	case "csv", "":
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Content: content, ContentType: "text/csv", Filename: "enrollments.csv"}, nil
	case "pdf":
		content, err := s.pdf.Render(dataset, "Enrollments")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Content: content, ContentType: "application/pdf", Filename: "enrollments.pdf"}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func stringOrDash(v *string) string {
	if v == nil || *v == "" {
		return "-"
	}
	return *v
}
