package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/edulibrary/edulibrary-api/internal/models"
)

type moderationResourceStore interface {
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	UpdateModeration(ctx context.Context, id string, oneStarCount int, hasRedFlag bool) error
}

type moderationReviewCounter interface {
	CountOneStar(ctx context.Context, resourceID string) (int, error)
}

type moderationUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Block(ctx context.Context, id, reason string, blockedAt time.Time) error
}

// ModerationConfig carries the thresholds for flagging and blocking.
type ModerationConfig struct {
	RedFlagThreshold int
	BlockThreshold   int
}

// ModerationOutcome reports what a moderation pass changed. It is advisory:
// the caller surfaces it to the client but nothing downstream depends on it.
type ModerationOutcome struct {
	OneStarCount    int  `json:"one_star_count"`
	ResourceFlagged bool `json:"resource_flagged"`
	OwnerBlocked    bool `json:"owner_blocked"`
}

// ModerationService maintains per-resource red-flag state and per-user block
// state as a function of accumulated one-star reviews. It runs synchronously
// after each review is persisted and is best-effort: a failure here never
// fails the review submission itself.
type ModerationService struct {
	resources moderationResourceStore
	reviews   moderationReviewCounter
	users     moderationUserStore
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ModerationConfig
}

// NewModerationService constructs the moderation engine.
func NewModerationService(resources moderationResourceStore, reviews moderationReviewCounter, users moderationUserStore, metrics *MetricsService, logger *zap.Logger, cfg ModerationConfig) *ModerationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RedFlagThreshold <= 0 {
		cfg.RedFlagThreshold = 10
	}
	if cfg.BlockThreshold <= 0 {
		cfg.BlockThreshold = 100
	}
	return &ModerationService{
		resources: resources,
		reviews:   reviews,
		users:     users,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
	}
}

// ApplyReview recomputes moderation state after a review has been persisted.
// Ratings above one star are a no-op. For one-star reviews the engine recounts
// every matching review from the store rather than incrementing a counter, so
// a flag update lost to an earlier crash heals on the next pass.
func (s *ModerationService) ApplyReview(ctx context.Context, review *models.Review) *ModerationOutcome {
	outcome := &ModerationOutcome{}
	if review == nil || review.Rating != 1 {
		return outcome
	}

	count, err := s.reviews.CountOneStar(ctx, review.ResourceID)
	if err != nil {
		s.logger.Warn("moderation recount failed", zap.String("resource_id", review.ResourceID), zap.Error(err))
		return outcome
	}
	outcome.OneStarCount = count

	flagged := count >= s.cfg.RedFlagThreshold
	if err := s.resources.UpdateModeration(ctx, review.ResourceID, count, flagged); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("moderation skipped: resource missing", zap.String("resource_id", review.ResourceID))
		} else {
			s.logger.Warn("moderation flag update failed", zap.String("resource_id", review.ResourceID), zap.Error(err))
		}
		return outcome
	}
	outcome.ResourceFlagged = flagged

	if flagged && count == s.cfg.RedFlagThreshold && s.metrics != nil {
		s.metrics.ObserveResourceFlagged()
	}

	if count >= s.cfg.BlockThreshold {
		outcome.OwnerBlocked = s.blockOwner(ctx, review.ResourceID, count)
	}

	return outcome
}

// blockOwner blocks the admin account owning the resource. Missing records
// and non-admin owners are silent no-ops; an already blocked account stays
// blocked with its original reason and timestamp.
func (s *ModerationService) blockOwner(ctx context.Context, resourceID string, count int) bool {
	resource, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		s.logger.Warn("moderation block skipped: resource lookup failed", zap.String("resource_id", resourceID), zap.Error(err))
		return false
	}

	owner, err := s.users.FindByID(ctx, resource.UploadedBy)
	if err != nil {
		s.logger.Warn("moderation block skipped: owner lookup failed", zap.String("user_id", resource.UploadedBy), zap.Error(err))
		return false
	}

	if owner.Role != models.RoleAdmin || owner.IsBlocked {
		return false
	}

	reason := fmt.Sprintf("resource %q accumulated %d one-star reviews", resource.Title, count)
	if err := s.users.Block(ctx, owner.ID, reason, time.Now().UTC()); err != nil {
		s.logger.Warn("moderation block failed", zap.String("user_id", owner.ID), zap.Error(err))
		return false
	}

	if s.metrics != nil {
		s.metrics.ObserveAccountBlocked()
	}
	s.logger.Info("admin account blocked",
		zap.String("user_id", owner.ID),
		zap.String("resource_id", resourceID),
		zap.Int("one_star_count", count),
	)
	return true
}
