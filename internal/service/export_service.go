package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/edulibrary/edulibrary-api/internal/models"
	"github.com/edulibrary/edulibrary-api/pkg/export"
	"github.com/edulibrary/edulibrary-api/pkg/storage"
)

type exportResourceLister interface {
	List(ctx context.Context, filter models.ResourceFilter) ([]models.Resource, int, error)
}

// ExportResult describes one rendered snapshot file together with its signed
// download token.
type ExportResult struct {
	RelPath   string
	Token     string
	ExpiresAt time.Time
}

// ExportService renders library snapshot reports and stores them on disk.
type ExportService struct {
	resources exportResourceLister
	stats     *StatsService
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	storage   *storage.LocalStorage
	signer    *storage.SignedURLSigner
	logger    *zap.Logger
}

// NewExportService constructs an export service.
func NewExportService(resources exportResourceLister, stats *StatsService, store *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		resources: resources,
		stats:     stats,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		storage:   store,
		signer:    signer,
		logger:    logger,
	}
}

// GenerateLibrarySnapshot builds the snapshot dataset, renders it in the
// requested format and saves the file under the report storage directory.
func (s *ExportService) GenerateLibrarySnapshot(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	dataset, err := s.buildDataset(ctx)
	if err != nil {
		return nil, err
	}

	var rendered []byte
	switch job.Format {
	case models.ReportFormatCSV:
		rendered, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		rendered, err = s.pdf.Render(dataset, "Library Snapshot")
	default:
		return nil, fmt.Errorf("unsupported report format: %s", job.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s report: %w", job.Format, err)
	}

	fileName := fmt.Sprintf("library-snapshot-%s.%s", job.ID, job.Format)
	relPath, err := s.storage.Save(fileName, rendered)
	if err != nil {
		return nil, fmt.Errorf("store report file: %w", err)
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, fmt.Errorf("sign report url: %w", err)
	}

	s.logger.Info("library snapshot generated",
		zap.String("job_id", job.ID),
		zap.String("format", string(job.Format)),
		zap.Int("rows", len(dataset.Rows)),
	)
	return &ExportResult{RelPath: relPath, Token: token, ExpiresAt: expiresAt}, nil
}

// Resolve verifies a signed token and returns the stored file path it names.
func (s *ExportService) Resolve(token string) (jobID, relPath string, err error) {
	jobID, relPath, _, err = s.signer.Parse(token, false)
	return jobID, relPath, err
}

// exportPageSize stays within the listing clamp so every page round-trips
// at its full size.
const exportPageSize = 100

func (s *ExportService) buildDataset(ctx context.Context) (export.Dataset, error) {
	// a snapshot covers every resource, so walk the listing page by page
	var resources []models.Resource
	for page := 1; ; page++ {
		chunk, total, err := s.resources.List(ctx, models.ResourceFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return export.Dataset{}, fmt.Errorf("list resources for report: %w", err)
		}
		resources = append(resources, chunk...)
		if len(chunk) == 0 || len(resources) >= total {
			break
		}
	}

	dataset := export.Dataset{
		Headers: []string{"Title", "Category", "Uploaded By", "File Size (MB)", "Reviews", "Average Rating", "One-Star Count", "Red Flag", "Uploaded At"},
	}
	for _, resource := range resources {
		row := map[string]string{
			"Title":          resource.Title,
			"Category":       string(resource.Category),
			"Uploaded By":    resource.UploadedByName,
			"File Size (MB)": resource.FileSize,
			"One-Star Count": strconv.Itoa(resource.OneStarCount),
			"Red Flag":       strconv.FormatBool(resource.HasRedFlag),
			"Uploaded At":    resource.UploadedAt.Format(time.RFC3339),
		}
		if s.stats != nil {
			if stats, err := s.stats.ResourceStats(ctx, resource.ID); err == nil {
				row["Reviews"] = strconv.Itoa(stats.ReviewCount)
				row["Average Rating"] = strconv.FormatFloat(stats.AverageRating, 'f', 1, 64)
			}
		}
		dataset.Rows = append(dataset.Rows, row)
	}
	return dataset, nil
}
