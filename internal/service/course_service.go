package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/educonnect/educonnect-api/internal/models"
	"github.com/educonnect/educonnect-api/internal/repository"
	appErrors "github.com/educonnect/educonnect-api/pkg/errors"
)

type courseReader interface {
	ListActive(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, int, error)
	FindActiveByID(ctx context.Context, id string) (*models.CourseSummary, error)
	ListEnrollmentsWithUsers(ctx context.Context, courseID string) ([]models.EnrollmentWithUser, error)
}

type enrollmentStore interface {
	Create(ctx context.Context, enrollment *models.Enrollment) error
	ListCoursesByUser(ctx context.Context, userID string) ([]models.EnrolledCourse, error)
}

// CourseTTLConfig tunes cache freshness per read surface.
type CourseTTLConfig struct {
	List      time.Duration
	Detail    time.Duration
	MyCourses time.Duration
}

// CourseService serves the public course catalogue and enrollment flow.
type CourseService struct {
	courses     courseReader
	enrollments enrollmentStore
	cache       *CacheService
	ttl         CourseTTLConfig
	logger      *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(courses courseReader, enrollments enrollmentStore, cache *CacheService, ttl CourseTTLConfig, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, enrollments: enrollments, cache: cache, ttl: ttl, logger: logger}
}

type courseListPayload struct {
	Courses []models.CourseSummary `json:"courses"`
	Total   int                    `json:"total"`
}

// List returns a page of active courses with pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseSummary, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 10
	}

	var payload courseListPayload
	_, err := s.cache.GetOrLoad(ctx, CourseListKey(filter.Page, filter.PageSize), s.ttl.List, &payload, func(ctx context.Context) error {
		courses, total, err := s.courses.ListActive(ctx, filter)
		if err != nil {
			return err
		}
		payload = courseListPayload{Courses: courses, Total: total}
		return nil
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}

	if payload.Courses == nil {
		payload.Courses = []models.CourseSummary{}
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: payload.Total}
	return payload.Courses, pagination, nil
}

// Show returns one active course including its instructor name and the full
// enrollment list with enrolled users.
func (s *CourseService) Show(ctx context.Context, id string) (*models.CourseDetail, error) {
	var detail models.CourseDetail
	_, err := s.cache.GetOrLoad(ctx, CourseDetailKey(id), s.ttl.Detail, &detail, func(ctx context.Context) error {
		course, err := s.courses.FindActiveByID(ctx, id)
		if err != nil {
			return err
		}
		enrollments, err := s.courses.ListEnrollmentsWithUsers(ctx, id)
		if err != nil {
			return err
		}
		if enrollments == nil {
			enrollments = []models.EnrollmentWithUser{}
		}
		detail = models.CourseDetail{CourseSummary: *course, Enrollments: enrollments}
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return &detail, nil
}

// Enroll registers the caller on an active course. The insert is atomic; a
// unique-constraint violation is the duplicate signal.
func (s *CourseService) Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	if _, err := s.courses.FindActiveByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Course not found.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	enrollment := &models.Enrollment{
		UserID:             userID,
		CourseID:           courseID,
		ProgressPercentage: 0,
		EnrolledAt:         time.Now().UTC(),
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Already enrolled in this course.")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.cache.InvalidateEntity(ctx, EntityEnrollments)

	s.logger.Info("enrollment created",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("user_id", userID),
		zap.String("course_id", courseID),
	)
	return enrollment, nil
}

// MyCourses returns every course the caller is enrolled in. Zero enrollments
// yields an empty list, not an error.
func (s *CourseService) MyCourses(ctx context.Context, userID string) ([]models.EnrolledCourse, error) {
	var courses []models.EnrolledCourse
	_, err := s.cache.GetOrLoad(ctx, MyCoursesKey(userID), s.ttl.MyCourses, &courses, func(ctx context.Context) error {
		list, err := s.enrollments.ListCoursesByUser(ctx, userID)
		if err != nil {
			return err
		}
		courses = list
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrolled courses")
	}
	if courses == nil {
		courses = []models.EnrolledCourse{}
	}
	return courses, nil
}
