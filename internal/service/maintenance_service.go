package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/educonnect/educonnect-api/internal/models"
	appErrors "github.com/educonnect/educonnect-api/pkg/errors"
)

type orphanRepository interface {
	CountOrphans(ctx context.Context) (models.OrphanReport, error)
	ListOrphanedByUser(ctx context.Context) ([]string, error)
	ListOrphanedByCourse(ctx context.Context) ([]string, error)
	DeleteByIDs(ctx context.Context, ids []string) error
}

// OrphanSnapshot holds the enrollment IDs dangling on each foreign key at
// scan time. The two buckets are independent: a row orphaned on both keys
// appears in both, so bucket sizes may overlap. Rows created after the scan
// are not covered, which is acceptable for an offline maintenance run.
type OrphanSnapshot struct {
	UserOrphans   []string
	CourseOrphans []string
}

// Report converts the snapshot into per-bucket counts.
func (s OrphanSnapshot) Report() models.OrphanReport {
	return models.OrphanReport{DeletedUsers: len(s.UserOrphans), DeletedCourses: len(s.CourseOrphans)}
}

// MaintenanceService detects and repairs enrollments that reference deleted
// users or courses.
type MaintenanceService struct {
	repo   orphanRepository
	logger *zap.Logger
}

// NewMaintenanceService constructs MaintenanceService.
func NewMaintenanceService(repo orphanRepository, logger *zap.Logger) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceService{repo: repo, logger: logger}
}

// Check counts orphaned enrollments per bucket without touching any rows.
func (s *MaintenanceService) Check(ctx context.Context) (models.OrphanReport, error) {
	report, err := s.repo.CountOrphans(ctx)
	if err != nil {
		return report, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count orphaned enrollments")
	}
	return report, nil
}

// Snapshot collects the IDs of orphaned enrollments in both buckets.
func (s *MaintenanceService) Snapshot(ctx context.Context) (OrphanSnapshot, error) {
	var snapshot OrphanSnapshot

	userOrphans, err := s.repo.ListOrphanedByUser(ctx)
	if err != nil {
		return snapshot, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan user orphans")
	}
	courseOrphans, err := s.repo.ListOrphanedByCourse(ctx)
	if err != nil {
		return snapshot, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to scan course orphans")
	}

	snapshot.UserOrphans = userOrphans
	snapshot.CourseOrphans = courseOrphans
	return snapshot, nil
}

// Fix deletes every enrollment in the snapshot, bucket by bucket. Deletion
// failure is fatal for the run; there is no partial-failure tolerance. The
// reported totals keep the dual-bucket counting: rows present in both buckets
// count twice even though the second delete finds them already gone.
func (s *MaintenanceService) Fix(ctx context.Context, snapshot OrphanSnapshot) (models.OrphanReport, error) {
	report := snapshot.Report()

	if err := s.repo.DeleteByIDs(ctx, snapshot.UserOrphans); err != nil {
		return models.OrphanReport{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user orphans")
	}
	if err := s.repo.DeleteByIDs(ctx, snapshot.CourseOrphans); err != nil {
		return models.OrphanReport{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course orphans")
	}

	s.logger.Info("orphaned enrollments deleted",
		zap.Int("deleted_users_bucket", report.DeletedUsers),
		zap.Int("deleted_courses_bucket", report.DeletedCourses),
	)
	return report, nil
}
