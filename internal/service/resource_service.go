package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/edulibrary/edulibrary-api/internal/models"
	"github.com/edulibrary/edulibrary-api/pkg/config"
	appErrors "github.com/edulibrary/edulibrary-api/pkg/errors"
)

var pdfMagic = []byte("%PDF")

type resourceStore interface {
	Create(ctx context.Context, resource *models.Resource) error
	FindByID(ctx context.Context, id string) (*models.Resource, error)
	FindByIDWithFile(ctx context.Context, id string) (*models.Resource, error)
	List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, int, error)
	ListByUploader(ctx context.Context, userID string) ([]models.Resource, error)
	Delete(ctx context.Context, id string) error
}

type resourceUserStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// UploadResourceRequest is the metadata half of a multipart upload.
type UploadResourceRequest struct {
	Title       string `json:"title" validate:"required,max=300"`
	Description string `json:"description" validate:"required,max=5000"`
	Category    string `json:"category" validate:"required"`
}

// ResourceWithStats decorates a resource with its derived rating summary.
type ResourceWithStats struct {
	models.Resource
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// ResourceService manages the resource library: uploads, listing, download
// and deletion.
type ResourceService struct {
	resources resourceStore
	users     resourceUserStore
	stats     *StatsService
	audit     auditWriter
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.LibraryConfig
}

// NewResourceService constructs a resource service.
func NewResourceService(resources resourceStore, users resourceUserStore, stats *StatsService, audit auditWriter, logger *zap.Logger, cfg config.LibraryConfig) *ResourceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResourceService{
		resources: resources,
		users:     users,
		stats:     stats,
		audit:     audit,
		validator: validator.New(),
		logger:    logger,
		cfg:       cfg,
	}
}

// Upload validates and stores a new PDF resource. Only unblocked admins may
// upload; the file must carry a .pdf extension, start with the PDF magic
// bytes and fit within the configured size limit.
func (s *ResourceService) Upload(ctx context.Context, uploader *models.JWTClaims, req UploadResourceRequest, fileName string, fileData []byte) (*models.Resource, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.ValidationError(err)
	}

	category := models.ResourceCategory(req.Category)
	if !category.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("category must be one of %v", models.Categories))
	}

	user, err := s.users.FindByID(ctx, uploader.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("find uploader: %w", err)
	}
	if user.IsBlocked {
		return nil, appErrors.ErrAccountBlocked
	}

	if err := validatePDF(fileName, fileData, s.cfg.MaxFileSizeBytes); err != nil {
		return nil, err
	}

	resource := &models.Resource{
		ID:             uuid.NewString(),
		Title:          req.Title,
		Description:    req.Description,
		Category:       category,
		FileName:       fileName,
		FileSize:       formatFileSize(int64(len(fileData))),
		FileData:       fileData,
		UploadedBy:     user.ID,
		UploadedByName: user.Name,
		UploadedAt:     time.Now().UTC(),
	}

	if err := s.resources.Create(ctx, resource); err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	s.writeAudit(ctx, user.ID, models.AuditActionResourceUpload, resource.ID)
	s.logger.Info("resource uploaded",
		zap.String("resource_id", resource.ID),
		zap.String("category", string(resource.Category)),
		zap.String("file_size", resource.FileSize),
	)
	return resource, nil
}

// List returns resources matching the filter, each decorated with its rating
// summary.
func (s *ResourceService) List(ctx context.Context, filter models.ResourceFilter) ([]ResourceWithStats, int, error) {
	resources, total, err := s.resources.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list resources: %w", err)
	}
	return s.decorate(ctx, resources), total, nil
}

// ListByUploader returns the resources owned by one admin, with rating
// summaries.
func (s *ResourceService) ListByUploader(ctx context.Context, userID string) ([]ResourceWithStats, error) {
	resources, err := s.resources.ListByUploader(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return s.decorate(ctx, resources), nil
}

// Get returns one resource with its rating summary.
func (s *ResourceService) Get(ctx context.Context, id string) (*ResourceWithStats, error) {
	resource, err := s.resources.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}
	decorated := s.decorate(ctx, []models.Resource{*resource})
	return &decorated[0], nil
}

// Download returns the resource including its stored file bytes.
func (s *ResourceService) Download(ctx context.Context, id string) (*models.Resource, error) {
	resource, err := s.resources.FindByIDWithFile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}
	return resource, nil
}

// Delete removes a resource. Admins may only delete their own uploads.
// Reviews referencing the resource are left in place; deleting an absent
// resource succeeds.
func (s *ResourceService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	resource, err := s.resources.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("find resource: %w", err)
	}
	if resource.UploadedBy != actor.UserID {
		return appErrors.ErrForbidden
	}

	if err := s.resources.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}

	if s.stats != nil {
		s.stats.InvalidateResource(ctx, id)
	}
	s.writeAudit(ctx, actor.UserID, models.AuditActionResourceDelete, id)
	return nil
}

func (s *ResourceService) decorate(ctx context.Context, resources []models.Resource) []ResourceWithStats {
	out := make([]ResourceWithStats, 0, len(resources))
	for _, resource := range resources {
		item := ResourceWithStats{Resource: resource}
		if s.stats != nil {
			if stats, err := s.stats.ResourceStats(ctx, resource.ID); err == nil {
				item.AverageRating = stats.AverageRating
				item.ReviewCount = stats.ReviewCount
			} else {
				s.logger.Warn("rating summary unavailable", zap.String("resource_id", resource.ID), zap.Error(err))
			}
		}
		out = append(out, item)
	}
	return out
}

func (s *ResourceService) writeAudit(ctx context.Context, userID string, action models.AuditAction, entityID string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		UserID:    &userID,
		Action:    action,
		Entity:    "resource",
		EntityID:  &entityID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("audit write failed", zap.String("action", string(action)), zap.Error(err))
	}
}

func validatePDF(fileName string, fileData []byte, maxSize int64) error {
	if strings.ToLower(filepath.Ext(fileName)) != ".pdf" {
		return appErrors.ErrUnsupportedFile
	}
	if !bytes.HasPrefix(fileData, pdfMagic) {
		return appErrors.ErrUnsupportedFile
	}
	if maxSize > 0 && int64(len(fileData)) > maxSize {
		return appErrors.Clone(appErrors.ErrFileTooLarge, fmt.Sprintf("file exceeds the %s MB upload limit", formatFileSize(maxSize)))
	}
	return nil
}

// formatFileSize renders a byte count as megabytes with two decimals, the
// format persisted alongside each resource.
func formatFileSize(size int64) string {
	return fmt.Sprintf("%.2f", float64(size)/(1024*1024))
}
