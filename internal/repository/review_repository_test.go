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

func TestReviewCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectExec("INSERT INTO reviews").WillReturnResult(sqlmock.NewResult(1, 1))

	review := &models.Review{ResourceID: "r1", StudentID: "s1", StudentName: "Student", Rating: 5, Comment: "clear and complete"}
	err := repo.Create(context.Background(), review)
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewListByResource(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "resource_id", "student_id", "student_name", "rating", "comment", "created_at"}).
		AddRow("rev1", "r1", "s1", "Student", 5, "clear and complete", now).
		AddRow("rev2", "r1", "s2", "Other", 1, "missing chapters", now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, resource_id, student_id, student_name, rating, comment, created_at FROM reviews WHERE resource_id = $1 ORDER BY created_at DESC")).
		WithArgs("r1").
		WillReturnRows(rows)

	reviews, err := repo.ListByResource(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, reviews, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	rows := sqlmock.NewRows([]string{"review_count", "rating_sum", "one_star_count"}).AddRow(3, 14, 0)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS review_count").
		WithArgs("r1").
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.ReviewCount)
	assert.Equal(t, 14, stats.RatingSum)
	assert.Equal(t, 0, stats.OneStarCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewCountOneStar(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	rows := sqlmock.NewRows([]string{"count"}).AddRow(10)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reviews WHERE resource_id = $1 AND rating = 1")).
		WithArgs("r1").
		WillReturnRows(rows)

	count, err := repo.CountOneStar(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 10, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewDeleteMissingIsNoop(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM reviews WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "missing")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
