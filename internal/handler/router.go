package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulibrary/edulibrary-api/internal/middleware"
	"github.com/edulibrary/edulibrary-api/internal/models"
	"github.com/edulibrary/edulibrary-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth      *AuthHandler
	Users     *UserHandler
	Resources *ResourceHandler
	Reviews   *ReviewHandler
	Reports   *ReportHandler
}

// RegisterRoutes mounts the API surface under the given prefix. Reports may
// be nil when report generation is disabled.
func RegisterRoutes(r *gin.Engine, prefix string, auth *service.AuthService, metrics *service.MetricsService, h Handlers) {
	api := r.Group(prefix)

	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth))

	secured.POST("/auth/logout", h.Auth.Logout)
	secured.GET("/auth/me", h.Auth.Me)

	// catalogue reads are available to every authenticated user
	secured.GET("/resources", h.Resources.List)
	secured.GET("/resources/:id", h.Resources.Get)
	secured.GET("/resources/:id/file", h.Resources.Download)
	secured.GET("/resources/:id/reviews", h.Reviews.ListByResource)
	secured.GET("/resources/:id/stats", h.Reviews.Stats)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	secured.POST("/resources", adminOnly, h.Resources.Upload)
	secured.GET("/resources/mine", adminOnly, h.Resources.Mine)
	secured.DELETE("/resources/:id", adminOnly, h.Resources.Delete)

	secured.POST("/resources/:id/reviews", middleware.RequireRoles(models.RoleStudent), h.Reviews.Create)
	secured.GET("/reviews", adminOnly, h.Reviews.ListAll)
	secured.DELETE("/reviews/:id", adminOnly, h.Reviews.Delete)

	secured.GET("/users", adminOnly, h.Users.List)
	// admins can read any account, everyone else only their own
	secured.GET("/users/:id", h.Users.Get)
	secured.DELETE("/users/:id", adminOnly, h.Users.Delete)

	if h.Reports != nil {
		secured.POST("/reports", adminOnly, h.Reports.Create)
		secured.GET("/reports/:id", adminOnly, h.Reports.Get)
		// the token itself authorizes the download
		api.GET("/reports/download", h.Reports.Download)
	}

	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
}

// RegisterHealth mounts liveness and readiness probes.
func RegisterHealth(r *gin.Engine, ready func() error) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if ready != nil {
			if err := ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
}
