package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulibrary/edulibrary-api/internal/models"
	"github.com/edulibrary/edulibrary-api/pkg/storage"
)

// pagedResourceLister serves a fixed catalogue through the same pagination
// contract as the repository, including its page-size clamp.
type pagedResourceLister struct {
	catalogue []models.Resource
}

func (f *pagedResourceLister) List(_ context.Context, filter models.ResourceFilter) ([]models.Resource, int, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(f.catalogue) {
		return nil, len(f.catalogue), nil
	}
	end := start + pageSize
	if end > len(f.catalogue) {
		end = len(f.catalogue)
	}
	return f.catalogue[start:end], len(f.catalogue), nil
}

func buildCatalogue(n int) []models.Resource {
	resources := make([]models.Resource, 0, n)
	for i := 0; i < n; i++ {
		resources = append(resources, models.Resource{
			ID:             fmt.Sprintf("res-%03d", i),
			Title:          fmt.Sprintf("Resource %03d", i),
			Category:       models.CategoryTextbooks,
			FileSize:       "1.00",
			UploadedByName: "Ad Min",
			UploadedAt:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		})
	}
	return resources
}

func TestSnapshotCoversEveryResourceAcrossPages(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	lister := &pagedResourceLister{catalogue: buildCatalogue(250)}
	svc := NewExportService(lister, nil, store, signer, nil)

	job := &models.ReportJob{ID: "job-1", Format: models.ReportFormatCSV}
	result, err := svc.GenerateLibrarySnapshot(context.Background(), job)

	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	file, err := store.Open(result.RelPath)
	require.NoError(t, err)
	defer file.Close()

	content, err := io.ReadAll(file)
	require.NoError(t, err)

	// header plus one row per resource
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Len(t, lines, 251)
	assert.Contains(t, string(content), "Resource 000")
	assert.Contains(t, string(content), "Resource 249")
}

func TestSnapshotEmptyCatalogue(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)

	svc := NewExportService(&pagedResourceLister{}, nil, store, signer, nil)

	result, err := svc.GenerateLibrarySnapshot(context.Background(), &models.ReportJob{ID: "job-2", Format: models.ReportFormatCSV})

	require.NoError(t, err)
	assert.NotEmpty(t, result.RelPath)
}
