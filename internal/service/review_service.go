package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edulibrary/edulibrary-api/internal/models"
	appErrors "github.com/edulibrary/edulibrary-api/pkg/errors"
)

type reviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	ListAll(ctx context.Context) ([]models.Review, error)
	ListByResource(ctx context.Context, resourceID string) ([]models.Review, error)
	Delete(ctx context.Context, id string) error
}

type reviewResourceStore interface {
	FindByID(ctx context.Context, id string) (*models.Resource, error)
}

type moderationEngine interface {
	ApplyReview(ctx context.Context, review *models.Review) *ModerationOutcome
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// CreateReviewRequest is the payload for submitting a review.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// ReviewResult pairs a stored review with the moderation outcome it produced.
type ReviewResult struct {
	Review     *models.Review     `json:"review"`
	Moderation *ModerationOutcome `json:"moderation"`
}

// ReviewService manages review submission and retrieval. Submitting a review
// persists it and then runs the moderation engine synchronously.
type ReviewService struct {
	reviews    reviewStore
	resources  reviewResourceStore
	moderation moderationEngine
	stats      *StatsService
	audit      auditWriter
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewReviewService constructs a review service.
func NewReviewService(reviews reviewStore, resources reviewResourceStore, moderation moderationEngine, stats *StatsService, audit auditWriter, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		reviews:    reviews,
		resources:  resources,
		moderation: moderation,
		stats:      stats,
		audit:      audit,
		validator:  validator.New(),
		logger:     logger,
	}
}

// Create validates and persists a review for the given resource, then applies
// moderation and invalidates the cached rating summary.
func (s *ReviewService) Create(ctx context.Context, resourceID string, student *models.JWTClaims, req CreateReviewRequest) (*ReviewResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.ValidationError(err)
	}

	if _, err := s.resources.FindByID(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}

	review := &models.Review{
		ID:          uuid.NewString(),
		ResourceID:  resourceID,
		StudentID:   student.UserID,
		StudentName: student.Name,
		Rating:      req.Rating,
		Comment:     req.Comment,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}

	outcome := s.moderation.ApplyReview(ctx, review)
	if s.stats != nil {
		s.stats.InvalidateResource(ctx, resourceID)
	}
	s.writeAudit(ctx, student.UserID, models.AuditActionReviewCreate, review.ID)

	s.logger.Info("review created",
		zap.String("review_id", review.ID),
		zap.String("resource_id", resourceID),
		zap.Int("rating", review.Rating),
	)

	return &ReviewResult{Review: review, Moderation: outcome}, nil
}

// ListAll returns every stored review, newest first.
func (s *ReviewService) ListAll(ctx context.Context) ([]models.Review, error) {
	reviews, err := s.reviews.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ListByResource returns the reviews for one resource, newest first. The
// resource must exist.
func (s *ReviewService) ListByResource(ctx context.Context, resourceID string) ([]models.Review, error) {
	if _, err := s.resources.FindByID(ctx, resourceID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}

	reviews, err := s.reviews.ListByResource(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Delete removes a review. Deleting an absent review succeeds; moderation
// counters are not recomputed retroactively.
func (s *ReviewService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if err := s.reviews.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	s.writeAudit(ctx, actor.UserID, models.AuditActionReviewDelete, id)
	return nil
}

func (s *ReviewService) writeAudit(ctx context.Context, userID string, action models.AuditAction, entityID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		UserID:    &userID,
		Action:    action,
		Entity:    "review",
		EntityID:  &entityID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}
