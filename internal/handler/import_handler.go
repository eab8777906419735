package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
	"github.com/noah-isme/hr-engage-api/pkg/response"
)

type importService interface {
	Upload(ctx context.Context, actor models.Actor, fileName string, size int64, r io.Reader) (*models.ImportSession, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.ImportSession, error)
	Approve(ctx context.Context, actor models.Actor, id string) (*models.ImportSession, error)
	Cancel(ctx context.Context, actor models.Actor, id string) (*models.ImportSession, error)
}

// ImportHandler exposes the bulk employee import workflow.
type ImportHandler struct {
	service     importService
	maxFileSize int64
}

// NewImportHandler constructs the handler.
func NewImportHandler(service importService, maxFileSize int64) *ImportHandler {
	return &ImportHandler{service: service, maxFileSize: maxFileSize}
}

// Upload godoc
// @Summary Upload an employee file for analysis
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /imports [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.maxFileSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxFileSize+(1<<20))
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unable to read file"))
		return
	}
	defer file.Close() //nolint:errcheck

	session, err := h.service.Upload(c.Request.Context(), actor, header.Filename, header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Get godoc
// @Summary Get import session status, preview or result
// @Tags Imports
// @Produce json
// @Param id path string true "Import session ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /imports/{id} [get]
func (h *ImportHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Approve godoc
// @Summary Approve a previewed import
// @Tags Imports
// @Produce json
// @Param id path string true "Import session ID"
// @Success 202 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /imports/{id}/approve [post]
func (h *ImportHandler) Approve(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session, err := h.service.Approve(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, session)
}

// Cancel godoc
// @Summary Discard a previewed import
// @Tags Imports
// @Produce json
// @Param id path string true "Import session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /imports/{id}/cancel [post]
func (h *ImportHandler) Cancel(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	session, err := h.service.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
