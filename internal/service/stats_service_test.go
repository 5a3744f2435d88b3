package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulibrary/edulibrary-api/internal/models"
	appErrors "github.com/edulibrary/edulibrary-api/pkg/errors"
)

type fakeReviewStats struct {
	stats *models.RatingStats
	err   error
	calls int
}

func (f *fakeReviewStats) Stats(_ context.Context, _ string) (*models.RatingStats, error) {
	f.calls++
	return f.stats, f.err
}

type fakeStatsCache struct {
	entries map[string]*ResourceStats
	deleted []string
}

func newFakeStatsCache() *fakeStatsCache {
	return &fakeStatsCache{entries: map[string]*ResourceStats{}}
}

func (f *fakeStatsCache) Get(_ context.Context, key string, dest interface{}) error {
	cached, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*dest.(*ResourceStats) = *cached
	return nil
}

func (f *fakeStatsCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	stats := value.(*ResourceStats)
	copied := *stats
	f.entries[key] = &copied
	return nil
}

func (f *fakeStatsCache) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.entries, key)
	return nil
}

func TestResourceStatsAverageRoundsToOneDecimal(t *testing.T) {
	// ratings 5, 5, 4 -> 14/3 = 4.666... -> 4.7
	reviews := &fakeReviewStats{stats: &models.RatingStats{ReviewCount: 3, RatingSum: 14, OneStarCount: 0}}
	svc := NewStatsService(reviews, nil, nil, nil, time.Minute)

	stats, err := svc.ResourceStats(context.Background(), "res-1")

	require.NoError(t, err)
	assert.Equal(t, 4.7, stats.AverageRating)
	assert.Equal(t, 3, stats.ReviewCount)
}

func TestResourceStatsZeroReviews(t *testing.T) {
	reviews := &fakeReviewStats{stats: &models.RatingStats{}}
	svc := NewStatsService(reviews, nil, nil, nil, time.Minute)

	stats, err := svc.ResourceStats(context.Background(), "res-1")

	require.NoError(t, err)
	assert.Zero(t, stats.AverageRating)
	assert.Zero(t, stats.ReviewCount)
	assert.Zero(t, stats.OneStarCount)
}

func TestResourceStatsServedFromCache(t *testing.T) {
	reviews := &fakeReviewStats{stats: &models.RatingStats{ReviewCount: 2, RatingSum: 6}}
	cache := newFakeStatsCache()
	svc := NewStatsService(reviews, cache, nil, nil, time.Minute)

	first, err := svc.ResourceStats(context.Background(), "res-1")
	require.NoError(t, err)

	second, err := svc.ResourceStats(context.Background(), "res-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, reviews.calls)
}

func TestInvalidateResourceDropsCacheEntry(t *testing.T) {
	reviews := &fakeReviewStats{stats: &models.RatingStats{ReviewCount: 1, RatingSum: 1, OneStarCount: 1}}
	cache := newFakeStatsCache()
	svc := NewStatsService(reviews, cache, nil, nil, time.Minute)

	_, err := svc.ResourceStats(context.Background(), "res-1")
	require.NoError(t, err)

	svc.InvalidateResource(context.Background(), "res-1")

	_, err = svc.ResourceStats(context.Background(), "res-1")
	require.NoError(t, err)
	assert.Equal(t, 2, reviews.calls)
	assert.Contains(t, cache.deleted, "stats:resource:res-1")
}
