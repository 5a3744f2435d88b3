package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/edulibrary/edulibrary-api/internal/models"
	appErrors "github.com/edulibrary/edulibrary-api/pkg/errors"
)

type reviewStatsStore interface {
	Stats(ctx context.Context, resourceID string) (*models.RatingStats, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// ResourceStats is the derived rating summary for one resource. AverageRating
// is rounded to one decimal place and reported as 0 when no reviews exist.
type ResourceStats struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
	OneStarCount  int     `json:"one_star_count"`
}

// StatsService derives rating summaries from stored reviews, with an optional
// Redis read-through cache in front of the aggregate query.
type StatsService struct {
	reviews reviewStatsStore
	cache   statsCache
	metrics *MetricsService
	logger  *zap.Logger
	ttl     time.Duration
}

// NewStatsService constructs a stats service. Cache may be nil.
func NewStatsService(reviews reviewStatsStore, cache statsCache, metrics *MetricsService, logger *zap.Logger, ttl time.Duration) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &StatsService{reviews: reviews, cache: cache, metrics: metrics, logger: logger, ttl: ttl}
}

// ResourceStats returns the rating summary for a resource, serving from cache
// when possible. Cache failures degrade to a database read.
func (s *StatsService) ResourceStats(ctx context.Context, resourceID string) (*ResourceStats, error) {
	key := statsCacheKey(resourceID)

	if s.cache != nil {
		var cached ResourceStats
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			if s.metrics != nil {
				s.metrics.ObserveCacheHit()
			}
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.String("resource_id", resourceID), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.ObserveCacheMiss()
		}
	}

	raw, err := s.reviews.Stats(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("load review stats: %w", err)
	}

	stats := &ResourceStats{
		ReviewCount:  raw.ReviewCount,
		OneStarCount: raw.OneStarCount,
	}
	if raw.ReviewCount > 0 {
		stats.AverageRating = roundToOneDecimal(float64(raw.RatingSum) / float64(raw.ReviewCount))
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.ttl); err != nil {
			s.logger.Warn("stats cache write failed", zap.String("resource_id", resourceID), zap.Error(err))
		}
	}

	return stats, nil
}

// InvalidateResource drops the cached summary for a resource. Called after
// review writes so the next read recomputes.
func (s *StatsService) InvalidateResource(ctx context.Context, resourceID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey(resourceID)); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.String("resource_id", resourceID), zap.Error(err))
	}
}

func statsCacheKey(resourceID string) string {
	return "stats:resource:" + resourceID
}

func roundToOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
