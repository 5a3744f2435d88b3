package handler

import (
	"context"
	"database/sql"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/edulibrary/edulibrary-api/internal/middleware"
	"github.com/edulibrary/edulibrary-api/internal/models"
	"github.com/edulibrary/edulibrary-api/internal/service"
)

type userStoreStub struct {
	users map[string]*models.User
}

func (s *userStoreStub) FindByID(_ context.Context, id string) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userStoreStub) List(_ context.Context, _ models.UserFilter) ([]models.User, int, error) {
	return nil, 0, nil
}

func (s *userStoreStub) Delete(_ context.Context, _ string) error { return nil }

func (s *userStoreStub) CreateAuditLog(_ context.Context, _ *models.AuditLog) error { return nil }

func buildUserRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if role := c.GetHeader("X-Test-Role"); role != "" {
			c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{
				UserID: c.GetHeader("X-Test-User"),
				Role:   models.UserRole(role),
			})
		}
		c.Next()
	})

	store := &userStoreStub{users: map[string]*models.User{
		"student-1": {ID: "student-1", Email: "one@example.edu", Role: models.RoleStudent},
		"student-2": {ID: "student-2", Email: "two@example.edu", Role: models.RoleStudent},
	}}
	userHandler := NewUserHandler(service.NewUserService(store, nil))

	router.GET("/users/:id", userHandler.Get)
	return router
}

func TestGetUserAllowsSelf(t *testing.T) {
	router := buildUserRouter()

	req, _ := http.NewRequest(http.MethodGet, "/users/student-1", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "student-1")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "one@example.edu")
}

func TestGetUserForbiddenForOtherAccount(t *testing.T) {
	router := buildUserRouter()

	req, _ := http.NewRequest(http.MethodGet, "/users/student-2", nil)
	req.Header.Set("X-Test-Role", string(models.RoleStudent))
	req.Header.Set("X-Test-User", "student-1")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestGetUserAdminReadsAnyAccount(t *testing.T) {
	router := buildUserRouter()

	req, _ := http.NewRequest(http.MethodGet, "/users/student-2", nil)
	req.Header.Set("X-Test-Role", string(models.RoleAdmin))
	req.Header.Set("X-Test-User", "admin-1")
	resp := performRequest(router, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "two@example.edu")
}
