package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulibrary/edulibrary-api/internal/models"
	appErrors "github.com/edulibrary/edulibrary-api/pkg/errors"
)

type fakeReviewStore struct {
	created *models.Review
	reviews []models.Review
	deleted []string
}

func (f *fakeReviewStore) Create(_ context.Context, review *models.Review) error {
	f.created = review
	return nil
}

func (f *fakeReviewStore) ListAll(_ context.Context) ([]models.Review, error) {
	return f.reviews, nil
}

func (f *fakeReviewStore) ListByResource(_ context.Context, _ string) ([]models.Review, error) {
	return f.reviews, nil
}

func (f *fakeReviewStore) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeReviewResources struct {
	exists bool
}

func (f *fakeReviewResources) FindByID(_ context.Context, id string) (*models.Resource, error) {
	if !f.exists {
		return nil, sql.ErrNoRows
	}
	return &models.Resource{ID: id}, nil
}

type fakeModeration struct {
	applied *models.Review
	outcome *ModerationOutcome
}

func (f *fakeModeration) ApplyReview(_ context.Context, review *models.Review) *ModerationOutcome {
	f.applied = review
	if f.outcome != nil {
		return f.outcome
	}
	return &ModerationOutcome{}
}

type fakeAudit struct {
	actions []models.AuditAction
}

func (f *fakeAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.actions = append(f.actions, log.Action)
	return nil
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "student-1", Name: "Stu Dent", Role: models.RoleStudent}
}

func TestCreateReviewRunsModeration(t *testing.T) {
	store := &fakeReviewStore{}
	moderation := &fakeModeration{outcome: &ModerationOutcome{OneStarCount: 10, ResourceFlagged: true}}
	audit := &fakeAudit{}
	svc := NewReviewService(store, &fakeReviewResources{exists: true}, moderation, nil, audit, nil)

	result, err := svc.Create(context.Background(), "res-1", studentClaims(), CreateReviewRequest{
		Rating:  1,
		Comment: "missing half the chapters",
	})

	require.NoError(t, err)
	require.NotNil(t, store.created)
	assert.Equal(t, "res-1", store.created.ResourceID)
	assert.Equal(t, "student-1", store.created.StudentID)
	assert.Equal(t, store.created, moderation.applied)
	assert.True(t, result.Moderation.ResourceFlagged)
	assert.Equal(t, 10, result.Moderation.OneStarCount)
	assert.Contains(t, audit.actions, models.AuditActionReviewCreate)
}

func TestCreateReviewUnknownResource(t *testing.T) {
	store := &fakeReviewStore{}
	svc := NewReviewService(store, &fakeReviewResources{}, &fakeModeration{}, nil, nil, nil)

	_, err := svc.Create(context.Background(), "missing", studentClaims(), CreateReviewRequest{
		Rating:  3,
		Comment: "fine",
	})

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Nil(t, store.created)
}

func TestCreateReviewRejectsOutOfRangeRating(t *testing.T) {
	svc := NewReviewService(&fakeReviewStore{}, &fakeReviewResources{exists: true}, &fakeModeration{}, nil, nil, nil)

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), "res-1", studentClaims(), CreateReviewRequest{
			Rating:  rating,
			Comment: "whatever",
		})
		require.Error(t, err, "rating %d", rating)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestDeleteReviewIsIdempotent(t *testing.T) {
	store := &fakeReviewStore{}
	svc := NewReviewService(store, &fakeReviewResources{exists: true}, &fakeModeration{}, nil, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), studentClaims(), "rev-1"))
	require.NoError(t, svc.Delete(context.Background(), studentClaims(), "rev-1"))
	assert.Equal(t, []string{"rev-1", "rev-1"}, store.deleted)
}
