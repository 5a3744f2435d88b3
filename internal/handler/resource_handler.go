package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edulibrary/edulibrary-api/internal/middleware"
	"github.com/edulibrary/edulibrary-api/internal/models"
	"github.com/edulibrary/edulibrary-api/internal/service"
	appErrors "github.com/edulibrary/edulibrary-api/pkg/errors"
	"github.com/edulibrary/edulibrary-api/pkg/response"
)

// ResourceHandler exposes the resource library endpoints.
type ResourceHandler struct {
	resources   *service.ResourceService
	maxFileSize int64
}

// NewResourceHandler constructs ResourceHandler.
func NewResourceHandler(resources *service.ResourceService, maxFileSize int64) *ResourceHandler {
	return &ResourceHandler{resources: resources, maxFileSize: maxFileSize}
}

// Upload godoc
// @Summary Upload a PDF resource
// @Tags Resources
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param category formData string true "Category"
// @Param file formData file true "PDF file"
// @Success 201 {object} response.Envelope
// @Router /resources [post]
func (h *ResourceHandler) Upload(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req := service.UploadResourceRequest{
		Title:       strings.TrimSpace(c.PostForm("title")),
		Description: strings.TrimSpace(c.PostForm("description")),
		Category:    c.PostForm("category"),
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	if h.maxFileSize > 0 && fileHeader.Size > h.maxFileSize {
		response.Error(c, appErrors.ErrFileTooLarge)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unreadable file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.Error(c, err)
		return
	}

	resource, err := h.resources.Upload(c.Request.Context(), claims, req, fileHeader.Filename, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, resource)
}

// List godoc
// @Summary List resources
// @Tags Resources
// @Produce json
// @Param category query string false "Filter by category"
// @Param search query string false "Search by title or description"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /resources [get]
func (h *ResourceHandler) List(c *gin.Context) {
	var filter models.ResourceFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if category := models.ResourceCategory(c.Query("category")); category.Valid() {
		filter.Category = &category
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	resources, total, err := h.resources.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resources, &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	})
}

// Mine godoc
// @Summary List the current admin's uploads
// @Tags Resources
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /resources/mine [get]
func (h *ResourceHandler) Mine(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	resources, err := h.resources.ListByUploader(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resources, nil)
}

// Get godoc
// @Summary Get resource detail
// @Tags Resources
// @Produce json
// @Param id path string true "Resource ID"
// @Success 200 {object} response.Envelope
// @Router /resources/{id} [get]
func (h *ResourceHandler) Get(c *gin.Context) {
	resource, err := h.resources.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resource, nil)
}

// Download godoc
// @Summary Download the stored PDF
// @Tags Resources
// @Produce application/pdf
// @Param id path string true "Resource ID"
// @Success 200 {file} binary
// @Router /resources/{id}/file [get]
func (h *ResourceHandler) Download(c *gin.Context) {
	resource, err := h.resources.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", resource.FileName))
	c.Data(http.StatusOK, "application/pdf", resource.FileData)
}

// Delete godoc
// @Summary Delete a resource
// @Tags Resources
// @Security BearerAuth
// @Produce json
// @Param id path string true "Resource ID"
// @Success 204
// @Router /resources/{id} [delete]
func (h *ResourceHandler) Delete(c *gin.Context) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.resources.Delete(c.Request.Context(), claims, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
