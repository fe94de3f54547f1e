package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/educonnect/educonnect-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// Cache entity groups. Invalidation is keyed by logical entity instead of
// ad-hoc key-prefix matching at call sites.
const (
	EntityCourses     = "courses"
	EntityEnrollments = "enrollments"
	EntityUsers       = "users"
)

var entityPatterns = map[string][]string{
	EntityCourses:     {"courses:*"},
	EntityEnrollments: {"courses:detail:*", "users:*:courses"},
	EntityUsers:       {"users:*"},
}

// CourseListKey builds the cache key for a page of the course catalogue.
func CourseListKey(page, pageSize int) string {
	return fmt.Sprintf("courses:list:p%d:s%d", page, pageSize)
}

// CourseDetailKey builds the cache key for a single course view.
func CourseDetailKey(id string) string {
	return fmt.Sprintf("courses:detail:%s", id)
}

// MyCoursesKey builds the cache key for a user's enrolled courses.
func MyCoursesKey(userID string) string {
	return fmt.Sprintf("users:%s:courses", userID)
}

// CacheService provides a single cache-access abstraction (key, TTL, loader)
// shared by every cached read path.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, logger *zap.Logger, enabled bool) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// GetOrLoad reads the cached value for key into dest, falling back to the
// loader on a miss. The loader fills dest; the loaded value is then stored
// best-effort with the given TTL. Returns true on a cache hit. Cache errors
// never fail the read path.
func (s *CacheService) GetOrLoad(ctx context.Context, key string, ttl time.Duration, dest interface{}, load func(ctx context.Context) error) (bool, error) {
	if !s.Enabled() {
		return false, load(ctx)
	}

	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	if err == nil {
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(true, time.Since(start))
		}
		return true, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheOperation(false, time.Since(start))
	}
	if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	if err := load(ctx); err != nil {
		return false, err
	}

	if err := s.repo.Set(ctx, key, dest, ttl); err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return false, nil
}

// InvalidateEntity removes every cached payload belonging to the logical
// entity group.
func (s *CacheService) InvalidateEntity(ctx context.Context, entity string) {
	if !s.Enabled() {
		return
	}
	patterns, ok := entityPatterns[entity]
	if !ok {
		s.logger.Warn("unknown cache entity", zap.String("entity", entity))
		return
	}
	for _, pattern := range patterns {
		if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
