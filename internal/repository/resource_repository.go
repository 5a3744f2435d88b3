package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edulibrary/edulibrary-api/internal/models"
)

// resourceListColumns deliberately excludes file_data: list scans never load
// the binary payload.
const resourceListColumns = `id, title, description, category, file_name, file_size, uploaded_by, uploaded_by_name, one_star_count, has_red_flag, uploaded_at`

// ResourceRepository provides record-store access for library resources.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository creates a new instance of ResourceRepository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// Create inserts a new resource record including its file payload.
func (r *ResourceRepository) Create(ctx context.Context, resource *models.Resource) error {
	if resource.ID == "" {
		resource.ID = uuid.NewString()
	}
	if resource.UploadedAt.IsZero() {
		resource.UploadedAt = time.Now().UTC()
	}

	const query = `INSERT INTO resources (id, title, description, category, file_name, file_size, file_data, uploaded_by, uploaded_by_name, one_star_count, has_red_flag, uploaded_at) VALUES (:id, :title, :description, :category, :file_name, :file_size, :file_data, :uploaded_by, :uploaded_by_name, :one_star_count, :has_red_flag, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, resource); err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

// FindByID returns a resource by identifier without its file payload.
func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE id = $1 LIMIT 1`, resourceListColumns)
	var resource models.Resource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find resource by id: %w", err)
	}
	return &resource, nil
}

// FindByIDWithFile returns a resource including the stored PDF bytes.
func (r *ResourceRepository) FindByIDWithFile(ctx context.Context, id string) (*models.Resource, error) {
	query := fmt.Sprintf(`SELECT %s, file_data FROM resources WHERE id = $1 LIMIT 1`, resourceListColumns)
	var resource models.Resource
	if err := r.db.GetContext(ctx, &resource, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find resource with file: %w", err)
	}
	return &resource, nil
}

// List returns resources based on filters with total count. Category filtering
// uses the store's secondary index on category.
func (r *ResourceRepository) List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, int, error) {
	baseQuery := `FROM resources WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, *filter.Category)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY uploaded_at DESC LIMIT %d OFFSET %d", resourceListColumns, baseQuery, pageSize, offset)

	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count resources: %w", err)
	}

	return resources, total, nil
}

// ListByUploader returns every resource owned by one account.
func (r *ResourceRepository) ListByUploader(ctx context.Context, userID string) ([]models.Resource, error) {
	query := fmt.Sprintf(`SELECT %s FROM resources WHERE uploaded_by = $1 ORDER BY uploaded_at DESC`, resourceListColumns)
	var resources []models.Resource
	if err := r.db.SelectContext(ctx, &resources, query, userID); err != nil {
		return nil, fmt.Errorf("list resources by uploader: %w", err)
	}
	return resources, nil
}

// UpdateModeration writes the derived moderation fields for a resource. The
// moderation engine recomputes both values from the reviews collection, so
// this is a plain overwrite, not an increment.
func (r *ResourceRepository) UpdateModeration(ctx context.Context, id string, oneStarCount int, hasRedFlag bool) error {
	const query = `UPDATE resources SET one_star_count = $2, has_red_flag = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, oneStarCount, hasRedFlag)
	if err != nil {
		return fmt.Errorf("update resource moderation: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a resource record. Reviews referencing it are left in place:
// the schema carries no cross-collection constraints, relationships are
// maintained by application logic only. Deleting an absent id is a no-op
// success.
func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM resources WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	return nil
}
