package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/edulibrary/edulibrary-api/internal/middleware"
	"github.com/edulibrary/edulibrary-api/internal/models"
	"github.com/edulibrary/edulibrary-api/internal/service"
)

type reviewStoreStub struct {
	created *models.Review
}

func (s *reviewStoreStub) Create(_ context.Context, review *models.Review) error {
	s.created = review
	return nil
}

func (s *reviewStoreStub) ListAll(_ context.Context) ([]models.Review, error) { return nil, nil }

func (s *reviewStoreStub) ListByResource(_ context.Context, _ string) ([]models.Review, error) {
	return nil, nil
}

func (s *reviewStoreStub) Delete(_ context.Context, _ string) error { return nil }

type resourceStoreStub struct {
	exists bool
}

func (s *resourceStoreStub) FindByID(_ context.Context, id string) (*models.Resource, error) {
	if !s.exists {
		return nil, sql.ErrNoRows
	}
	return &models.Resource{ID: id}, nil
}

type moderationStub struct {
	outcome service.ModerationOutcome
}

func (s *moderationStub) ApplyReview(_ context.Context, _ *models.Review) *service.ModerationOutcome {
	outcome := s.outcome
	return &outcome
}

func buildReviewRouter(exists bool, outcome service.ModerationOutcome) (*gin.Engine, *reviewStoreStub) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: "test-user",
				Name:   "Test User",
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	store := &reviewStoreStub{}
	reviews := service.NewReviewService(store, &resourceStoreStub{exists: exists}, &moderationStub{outcome: outcome}, nil, nil, nil)
	reviewHandler := NewReviewHandler(reviews, nil)

	router.POST("/resources/:id/reviews", internalmiddleware.RequireRoles(models.RoleStudent), reviewHandler.Create)
	return router, store
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const reviewPayload = `{"rating":1,"comment":"scanned pages are unreadable"}`

func TestSubmitReviewReturnsModerationOutcome(t *testing.T) {
	router, store := buildReviewRouter(true, service.ModerationOutcome{OneStarCount: 10, ResourceFlagged: true})

	req, _ := http.NewRequest(http.MethodPost, "/resources/res-1/reviews", bytes.NewBufferString(reviewPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Contains(t, resp.Body.String(), `"resource_flagged":true`)
	require.Contains(t, resp.Body.String(), `"one_star_count":10`)
	require.NotNil(t, store.created)
	require.Equal(t, "test-user", store.created.StudentID)
}

func TestSubmitReviewForbiddenForAdmins(t *testing.T) {
	router, store := buildReviewRouter(true, service.ModerationOutcome{})

	req, _ := http.NewRequest(http.MethodPost, "/resources/res-1/reviews", bytes.NewBufferString(reviewPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusForbidden, resp.Code)
	require.Nil(t, store.created)
}

func TestSubmitReviewUnauthorizedWithoutUser(t *testing.T) {
	router, _ := buildReviewRouter(true, service.ModerationOutcome{})

	req, _ := http.NewRequest(http.MethodPost, "/resources/res-1/reviews", bytes.NewBufferString(reviewPayload))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestSubmitReviewUnknownResource(t *testing.T) {
	router, _ := buildReviewRouter(false, service.ModerationOutcome{})

	req, _ := http.NewRequest(http.MethodPost, "/resources/missing/reviews", bytes.NewBufferString(reviewPayload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	resp := performRequest(router, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
}
