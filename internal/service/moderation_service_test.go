package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulibrary/edulibrary-api/internal/models"
)

type fakeModerationResources struct {
	resource     *models.Resource
	findErr      error
	updateErr    error
	updateCalled bool
	updatedCount int
	updatedFlag  bool
}

func (f *fakeModerationResources) FindByID(_ context.Context, _ string) (*models.Resource, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.resource, nil
}

func (f *fakeModerationResources) UpdateModeration(_ context.Context, _ string, count int, flag bool) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updateCalled = true
	f.updatedCount = count
	f.updatedFlag = flag
	return nil
}

type fakeModerationReviews struct {
	count int
	err   error
}

func (f *fakeModerationReviews) CountOneStar(_ context.Context, _ string) (int, error) {
	return f.count, f.err
}

type fakeModerationUsers struct {
	user        *models.User
	findErr     error
	blockErr    error
	blockedID   string
	blockReason string
}

func (f *fakeModerationUsers) FindByID(_ context.Context, _ string) (*models.User, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.user, nil
}

func (f *fakeModerationUsers) Block(_ context.Context, id, reason string, _ time.Time) error {
	if f.blockErr != nil {
		return f.blockErr
	}
	f.blockedID = id
	f.blockReason = reason
	return nil
}

func newModerationFixture(oneStarCount int) (*ModerationService, *fakeModerationResources, *fakeModerationUsers) {
	resources := &fakeModerationResources{
		resource: &models.Resource{ID: "res-1", Title: "Intro to Algebra", UploadedBy: "admin-1"},
	}
	users := &fakeModerationUsers{
		user: &models.User{ID: "admin-1", Role: models.RoleAdmin},
	}
	svc := NewModerationService(resources, &fakeModerationReviews{count: oneStarCount}, users, nil, nil, ModerationConfig{
		RedFlagThreshold: 10,
		BlockThreshold:   100,
	})
	return svc, resources, users
}

func oneStarReview() *models.Review {
	return &models.Review{ID: "rev-1", ResourceID: "res-1", Rating: 1}
}

func TestApplyReviewIgnoresHigherRatings(t *testing.T) {
	svc, resources, _ := newModerationFixture(50)

	outcome := svc.ApplyReview(context.Background(), &models.Review{ResourceID: "res-1", Rating: 4})

	assert.Equal(t, &ModerationOutcome{}, outcome)
	assert.False(t, resources.updateCalled)
}

func TestApplyReviewBelowThresholdDoesNotFlag(t *testing.T) {
	svc, resources, _ := newModerationFixture(9)

	outcome := svc.ApplyReview(context.Background(), oneStarReview())

	assert.Equal(t, 9, outcome.OneStarCount)
	assert.False(t, outcome.ResourceFlagged)
	assert.False(t, outcome.OwnerBlocked)
	require.True(t, resources.updateCalled)
	assert.Equal(t, 9, resources.updatedCount)
	assert.False(t, resources.updatedFlag)
}

func TestApplyReviewFlagsAtThreshold(t *testing.T) {
	svc, resources, users := newModerationFixture(10)

	outcome := svc.ApplyReview(context.Background(), oneStarReview())

	assert.Equal(t, 10, outcome.OneStarCount)
	assert.True(t, outcome.ResourceFlagged)
	assert.False(t, outcome.OwnerBlocked)
	assert.True(t, resources.updatedFlag)
	assert.Empty(t, users.blockedID)
}

func TestApplyReviewBlocksOwnerAtThreshold(t *testing.T) {
	svc, _, users := newModerationFixture(100)

	outcome := svc.ApplyReview(context.Background(), oneStarReview())

	assert.True(t, outcome.ResourceFlagged)
	assert.True(t, outcome.OwnerBlocked)
	assert.Equal(t, "admin-1", users.blockedID)
	assert.Contains(t, users.blockReason, "Intro to Algebra")
	assert.Contains(t, users.blockReason, "100")
}

func TestApplyReviewLeavesBlockedOwnerAlone(t *testing.T) {
	svc, _, users := newModerationFixture(150)
	users.user.IsBlocked = true

	outcome := svc.ApplyReview(context.Background(), oneStarReview())

	assert.True(t, outcome.ResourceFlagged)
	assert.False(t, outcome.OwnerBlocked)
	assert.Empty(t, users.blockedID)
}

func TestApplyReviewMissingResourceIsBestEffort(t *testing.T) {
	svc, resources, users := newModerationFixture(100)
	resources.updateErr = sql.ErrNoRows

	outcome := svc.ApplyReview(context.Background(), oneStarReview())

	assert.Equal(t, 100, outcome.OneStarCount)
	assert.False(t, outcome.ResourceFlagged)
	assert.False(t, outcome.OwnerBlocked)
	assert.Empty(t, users.blockedID)
}

func TestApplyReviewMissingOwnerIsBestEffort(t *testing.T) {
	svc, _, users := newModerationFixture(100)
	users.findErr = sql.ErrNoRows

	outcome := svc.ApplyReview(context.Background(), oneStarReview())

	assert.True(t, outcome.ResourceFlagged)
	assert.False(t, outcome.OwnerBlocked)
}

func TestApplyReviewCountErrorReturnsZeroOutcome(t *testing.T) {
	resources := &fakeModerationResources{}
	svc := NewModerationService(resources, &fakeModerationReviews{err: sql.ErrConnDone}, &fakeModerationUsers{}, nil, nil, ModerationConfig{})

	outcome := svc.ApplyReview(context.Background(), oneStarReview())

	assert.Equal(t, &ModerationOutcome{}, outcome)
	assert.False(t, resources.updateCalled)
}
