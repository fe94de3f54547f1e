package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/educonnect/educonnect-api/internal/models"
	"github.com/educonnect/educonnect-api/internal/service"
)

type fakeAdminCourseRepo struct {
	course    *models.Course
	findErr   error
	deleteErr error
	count     int
}

func (f *fakeAdminCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.course, nil
}

func (f *fakeAdminCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "c-created"
	return nil
}

func (f *fakeAdminCourseRepo) Update(ctx context.Context, course *models.Course) error {
	return nil
}

func (f *fakeAdminCourseRepo) Delete(ctx context.Context, id string) error {
	return f.deleteErr
}

func (f *fakeAdminCourseRepo) Count(ctx context.Context) (int, error) {
	return f.count, nil
}

type fakeAdminUserRepo struct {
	user       *models.User
	findErr    error
	users      []models.User
	total      int
	deleteErr  error
	count      int
	lastFilter models.UserFilter
}

func (f *fakeAdminUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.user, nil
}

func (f *fakeAdminUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	f.lastFilter = filter
	return f.users, f.total, nil
}

func (f *fakeAdminUserRepo) Delete(ctx context.Context, id string) error {
	return f.deleteErr
}

func (f *fakeAdminUserRepo) Count(ctx context.Context) (int, error) {
	return f.count, nil
}

type fakeAdminEnrollmentRepo struct {
	records []models.EnrollmentRecord
	count   int
}

func (f *fakeAdminEnrollmentRepo) ListRecords(ctx context.Context) ([]models.EnrollmentRecord, error) {
	return f.records, nil
}

func (f *fakeAdminEnrollmentRepo) Count(ctx context.Context) (int, error) {
	return f.count, nil
}

func newTestAdminHandler(courses *fakeAdminCourseRepo, users *fakeAdminUserRepo, enrollments *fakeAdminEnrollmentRepo) *AdminHandler {
	cache := service.NewCacheService(nil, nil, zap.NewNop(), false)
	svc := service.NewAdminService(courses, users, enrollments, cache, validator.New(), zap.NewNop())
	return NewAdminHandler(svc)
}

func TestAdminHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAdminHandler(
		&fakeAdminCourseRepo{count: 3},
		&fakeAdminUserRepo{count: 10},
		&fakeAdminEnrollmentRepo{count: 17},
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/stats", nil)

	h.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data service.PlatformStats `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 10, envelope.Data.TotalUsers)
	assert.Equal(t, 3, envelope.Data.TotalCourses)
	assert.Equal(t, 17, envelope.Data.TotalEnrollments)
}

func TestAdminHandlerCreateCourse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAdminHandler(
		&fakeAdminCourseRepo{},
		&fakeAdminUserRepo{user: &models.User{ID: "u-1"}},
		&fakeAdminEnrollmentRepo{},
	)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/admin/courses", service.CourseInput{
		Title:        "Go Basics",
		Description:  "An introduction",
		Price:        49.99,
		InstructorID: "u-1",
		Status:       "active",
	})

	h.CreateCourse(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminHandlerCreateCourseInvalidStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAdminHandler(&fakeAdminCourseRepo{}, &fakeAdminUserRepo{}, &fakeAdminEnrollmentRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(t, http.MethodPost, "/admin/courses", service.CourseInput{
		Title:        "Go Basics",
		Description:  "An introduction",
		InstructorID: "u-1",
		Status:       "archived",
	})

	h.CreateCourse(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAdminHandlerDeleteCourseMissing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAdminHandler(&fakeAdminCourseRepo{deleteErr: sql.ErrNoRows}, &fakeAdminUserRepo{}, &fakeAdminEnrollmentRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/admin/courses/c-404", nil)
	c.Params = gin.Params{{Key: "id", Value: "c-404"}}

	h.DeleteCourse(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandlerDeleteUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAdminHandler(&fakeAdminCourseRepo{}, &fakeAdminUserRepo{}, &fakeAdminEnrollmentRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/admin/users/u-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "u-1"}}

	h.DeleteUser(c)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAdminHandlerListUsersRoleFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	users := &fakeAdminUserRepo{users: []models.User{{ID: "u-1", Role: models.RoleStudent}}, total: 1}
	h := newTestAdminHandler(&fakeAdminCourseRepo{}, users, &fakeAdminEnrollmentRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/users?role=student&search=ali", nil)

	h.ListUsers(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, users.lastFilter.Role)
	assert.Equal(t, models.RoleStudent, *users.lastFilter.Role)
	assert.Equal(t, "ali", users.lastFilter.Search)
}

func TestAdminHandlerExportEnrollmentsCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAdminHandler(&fakeAdminCourseRepo{}, &fakeAdminUserRepo{}, &fakeAdminEnrollmentRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/enrollments/export", nil)

	h.ExportEnrollments(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "enrollments.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Enrollment ID"))
}

func TestAdminHandlerExportEnrollmentsUnknownFormat(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newTestAdminHandler(&fakeAdminCourseRepo{}, &fakeAdminUserRepo{}, &fakeAdminEnrollmentRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/admin/enrollments/export?format=xlsx", nil)

	h.ExportEnrollments(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
