package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulibrary/edulibrary-api/internal/models"
)

const reviewColumns = `id, resource_id, student_id, student_name, rating, comment, created_at`

// ReviewRepository provides record-store access for reviews.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository creates a new instance of ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a new review record. Reviews are never updated afterwards.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO reviews (id, resource_id, student_id, student_name, rating, comment, created_at) VALUES (:id, :resource_id, :student_id, :student_name, :rating, :comment, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// ListAll returns every review in the collection.
func (r *ReviewRepository) ListAll(ctx context.Context) ([]models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews ORDER BY created_at DESC`, reviewColumns)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// ListByResource returns the reviews for one resource, the store's secondary
// lookup path on resource_id.
func (r *ReviewRepository) ListByResource(ctx context.Context, resourceID string) ([]models.Review, error) {
	query := fmt.Sprintf(`SELECT %s FROM reviews WHERE resource_id = $1 ORDER BY created_at DESC`, reviewColumns)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, resourceID); err != nil {
		return nil, fmt.Errorf("list reviews by resource: %w", err)
	}
	return reviews, nil
}

// Stats aggregates review counts for one resource in a single scan.
func (r *ReviewRepository) Stats(ctx context.Context, resourceID string) (*models.RatingStats, error) {
	const query = `SELECT COUNT(*) AS review_count, COALESCE(SUM(rating), 0) AS rating_sum, COUNT(*) FILTER (WHERE rating = 1) AS one_star_count FROM reviews WHERE resource_id = $1`
	var stats models.RatingStats
	if err := r.db.GetContext(ctx, &stats, query, resourceID); err != nil {
		return nil, fmt.Errorf("review stats: %w", err)
	}
	return &stats, nil
}

// CountOneStar recounts the one-star reviews for a resource. The moderation
// engine calls this on every new one-star review instead of keeping an
// incremental counter, so a previously lost flag write heals on the next
// recount.
func (r *ReviewRepository) CountOneStar(ctx context.Context, resourceID string) (int, error) {
	const query = `SELECT COUNT(*) FROM reviews WHERE resource_id = $1 AND rating = 1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, resourceID); err != nil {
		return 0, fmt.Errorf("count one-star reviews: %w", err)
	}
	return count, nil
}

// Delete removes a review record. Deleting an absent id is a no-op success.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM reviews WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
