package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/hr-engage-api/internal/dto"
	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
	"github.com/noah-isme/hr-engage-api/pkg/response"
)

type workspaceService interface {
	Open(ctx context.Context, actor models.Actor, filters models.EmployeeFilters) (*models.WorkspaceView, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.WorkspaceView, error)
	ApplyFilters(ctx context.Context, actor models.Actor, id string, filters models.EmployeeFilters) (*models.WorkspaceView, error)
	Select(ctx context.Context, actor models.Actor, id string, employeeID int64, selected bool) (*models.WorkspaceView, error)
	SelectAll(ctx context.Context, actor models.Actor, id string, selected bool) (*models.WorkspaceView, error)
	ClearSelection(ctx context.Context, actor models.Actor, id string) (*models.WorkspaceView, error)
	RequestAction(ctx context.Context, actor models.Actor, id string, actionType models.BulkActionType, value string) (*models.ActionRequestResult, error)
	ConfirmAction(ctx context.Context, actor models.Actor, id string) (*models.ActionOutcome, *models.WorkspaceView, error)
	CancelAction(ctx context.Context, actor models.Actor, id string) (*models.WorkspaceView, error)
	Close(ctx context.Context, actor models.Actor, id string) error
}

// WorkspaceHandler exposes filter, selection and bulk action endpoints.
type WorkspaceHandler struct {
	service   workspaceService
	validator *validator.Validate
}

// NewWorkspaceHandler constructs the handler.
func NewWorkspaceHandler(service workspaceService, validate *validator.Validate) *WorkspaceHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &WorkspaceHandler{service: service, validator: validate}
}

// Open godoc
// @Summary Open a bulk-action workspace over the employee directory
// @Tags Workspaces
// @Accept json
// @Produce json
// @Param payload body dto.OpenWorkspaceRequest false "Initial filters"
// @Success 201 {object} response.Envelope
// @Router /workspaces [post]
func (h *WorkspaceHandler) Open(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.OpenWorkspaceRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid workspace payload"))
		return
	}
	view, err := h.service.Open(c.Request.Context(), actor, req.Filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get workspace state
// @Tags Workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id} [get]
func (h *WorkspaceHandler) Get(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, actor models.Actor) (*models.WorkspaceView, error) {
		return h.service.Get(ctx, actor, c.Param("id"))
	})
}

// ApplyFilters godoc
// @Summary Replace workspace filters
// @Tags Workspaces
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param payload body models.EmployeeFilters true "Filters"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/filters [put]
func (h *WorkspaceHandler) ApplyFilters(c *gin.Context) {
	var filters models.EmployeeFilters
	if err := c.ShouldBindJSON(&filters); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid filters payload"))
		return
	}
	h.respondView(c, func(ctx context.Context, actor models.Actor) (*models.WorkspaceView, error) {
		return h.service.ApplyFilters(ctx, actor, c.Param("id"), filters)
	})
}

// Select godoc
// @Summary Select or deselect one employee
// @Tags Workspaces
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param payload body dto.SelectEmployeeRequest true "Selection change"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/selection [post]
func (h *WorkspaceHandler) Select(c *gin.Context) {
	var req dto.SelectEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid selection payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	h.respondView(c, func(ctx context.Context, actor models.Actor) (*models.WorkspaceView, error) {
		return h.service.Select(ctx, actor, c.Param("id"), req.EmployeeID, *req.Selected)
	})
}

// SelectAll godoc
// @Summary Select every visible employee or clear the selection
// @Tags Workspaces
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param payload body dto.SelectAllRequest true "Select all"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/selection/all [post]
func (h *WorkspaceHandler) SelectAll(c *gin.Context) {
	var req dto.SelectAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid selection payload"))
		return
	}
	h.respondView(c, func(ctx context.Context, actor models.Actor) (*models.WorkspaceView, error) {
		return h.service.SelectAll(ctx, actor, c.Param("id"), req.Selected)
	})
}

// ClearSelection godoc
// @Summary Clear the selection
// @Tags Workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/selection [delete]
func (h *WorkspaceHandler) ClearSelection(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, actor models.Actor) (*models.WorkspaceView, error) {
		return h.service.ClearSelection(ctx, actor, c.Param("id"))
	})
}

// RequestAction godoc
// @Summary Request a bulk action over the selection
// @Description Exports are returned immediately as a file download. Other actions return a confirmation payload.
// @Tags Workspaces
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param payload body dto.BulkActionRequest true "Bulk action"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /workspaces/{id}/actions [post]
func (h *WorkspaceHandler) RequestAction(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.BulkActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid bulk action payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, err.Error()))
		return
	}
	result, err := h.service.RequestAction(c.Request.Context(), actor, c.Param("id"), req.Type, req.Value)
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.Outcome != nil && result.Outcome.Export != nil {
		file := result.Outcome.Export
		response.Attachment(c, file.Filename, file.ContentType, file.Data)
		return
	}
	response.Accepted(c, result)
}

// ConfirmAction godoc
// @Summary Confirm the pending bulk action
// @Tags Workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /workspaces/{id}/actions/confirm [post]
func (h *WorkspaceHandler) ConfirmAction(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	outcome, view, err := h.service.ConfirmAction(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ConfirmActionResponse{Outcome: outcome, Workspace: view}, nil)
}

// CancelAction godoc
// @Summary Discard the pending bulk action
// @Tags Workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/actions/cancel [post]
func (h *WorkspaceHandler) CancelAction(c *gin.Context) {
	h.respondView(c, func(ctx context.Context, actor models.Actor) (*models.WorkspaceView, error) {
		return h.service.CancelAction(ctx, actor, c.Param("id"))
	})
}

// Close godoc
// @Summary Close a workspace
// @Tags Workspaces
// @Param id path string true "Workspace ID"
// @Success 204
// @Router /workspaces/{id} [delete]
func (h *WorkspaceHandler) Close(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Close(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *WorkspaceHandler) respondView(c *gin.Context, fn func(ctx context.Context, actor models.Actor) (*models.WorkspaceView, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	view, err := fn(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
