package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulibrary/edulibrary-api/internal/middleware"
	"github.com/edulibrary/edulibrary-api/internal/service"
	appErrors "github.com/edulibrary/edulibrary-api/pkg/errors"
	"github.com/edulibrary/edulibrary-api/pkg/response"
)

// ReviewHandler exposes the review endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
	stats   *service.StatsService
}

// NewReviewHandler constructs ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService, stats *service.StatsService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, stats: stats}
}

// Create godoc
// @Summary Submit a review for a resource
// @Tags Reviews
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Resource ID"
// @Param payload body service.CreateReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Router /resources/{id}/reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.ValidationError(err))
		return
	}

	result, err := h.reviews.Create(c.Request.Context(), c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListByResource godoc
// @Summary List reviews for a resource
// @Tags Reviews
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /resources/{id}/reviews [get]
func (h *ReviewHandler) ListByResource(c *gin.Context) {
	reviews, err := h.reviews.ListByResource(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Stats godoc
// @Summary Rating summary for a resource
// @Tags Reviews
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /resources/{id}/stats [get]
func (h *ReviewHandler) Stats(c *gin.Context) {
	stats, err := h.stats.ResourceStats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// ListAll godoc
// @Summary List every review
// @Tags Reviews
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reviews [get]
func (h *ReviewHandler) ListAll(c *gin.Context) {
	reviews, err := h.reviews.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// Delete godoc
// @Summary Delete a review
// @Tags Reviews
// @Security BearerAuth
// @Produce json
// @Param id path string true "Review ID"
// @Success 204
// @Router /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.reviews.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
