package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulibrary/edulibrary-api/internal/models"
)

func TestResourceCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec("INSERT INTO resources").WillReturnResult(sqlmock.NewResult(1, 1))

	resource := &models.Resource{
		Title:          "Intro to Algorithms",
		Description:    "Course textbook",
		Category:       models.CategoryTextbooks,
		FileName:       "clrs.pdf",
		FileSize:       "12.40",
		FileData:       []byte("%PDF-1.4 test"),
		UploadedBy:     "u1",
		UploadedByName: "Admin",
	}
	err := repo.Create(context.Background(), resource)
	require.NoError(t, err)
	assert.NotEmpty(t, resource.ID)
	assert.False(t, resource.UploadedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceFindByIDWithFile(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	payload := []byte("%PDF-1.4 round trip")
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "title", "description", "category", "file_name", "file_size", "uploaded_by", "uploaded_by_name", "one_star_count", "has_red_flag", "uploaded_at", "file_data"}).
		AddRow("r1", "Intro to Algorithms", "Course textbook", string(models.CategoryTextbooks), "clrs.pdf", "12.40", "u1", "Admin", 0, false, now, payload)
	mock.ExpectQuery("SELECT (.+), file_data FROM resources WHERE id").
		WithArgs("r1").
		WillReturnRows(rows)

	resource, err := repo.FindByIDWithFile(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, payload, resource.FileData)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceListByCategory(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows([]string{"id", "title", "description", "category", "file_name", "file_size", "uploaded_by", "uploaded_by_name", "one_star_count", "has_red_flag", "uploaded_at"}).
		AddRow("r1", "Linear Algebra Notes", "Week 1-12", string(models.CategoryLectureNotes), "la.pdf", "2.10", "u1", "Admin", 0, false, now)
	mock.ExpectQuery(regexp.QuoteMeta("category = $1")).
		WithArgs(models.CategoryLectureNotes).
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM resources")).
		WithArgs(models.CategoryLectureNotes).
		WillReturnRows(countRows)

	category := models.CategoryLectureNotes
	resources, total, err := repo.List(context.Background(), models.ResourceFilter{Category: &category})
	require.NoError(t, err)
	assert.Len(t, resources, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceUpdateModeration(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources SET one_star_count = $2, has_red_flag = $3 WHERE id = $1")).
		WithArgs("r1", 10, true).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateModeration(context.Background(), "r1", 10, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceUpdateModerationMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE resources SET one_star_count = $2, has_red_flag = $3 WHERE id = $1")).
		WithArgs("missing", 1, false).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateModeration(context.Background(), "missing", 1, false)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceDeleteMissingIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM resources WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
