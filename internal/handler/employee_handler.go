package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/hr-engage-api/internal/dto"
	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
	"github.com/noah-isme/hr-engage-api/pkg/response"
)

type employeeService interface {
	List(ctx context.Context, actor models.Actor, query dto.EmployeeListQuery) ([]models.Employee, *models.Pagination, error)
	Get(ctx context.Context, actor models.Actor, id int64) (*models.Employee, error)
	Create(ctx context.Context, actor models.Actor, req dto.CreateEmployeeRequest) (*models.Employee, error)
	Departments(ctx context.Context, actor models.Actor) ([]string, error)
}

// EmployeeHandler exposes the employee directory.
type EmployeeHandler struct {
	service employeeService
}

// NewEmployeeHandler constructs the handler.
func NewEmployeeHandler(service employeeService) *EmployeeHandler {
	return &EmployeeHandler{service: service}
}

// List godoc
// @Summary List employees
// @Tags Employees
// @Produce json
// @Param search query string false "Case-insensitive match on name, surname, email or username"
// @Param department query string false "Exact department"
// @Param location query string false "Exact location"
// @Param status query string false "active, inactive, pending, terminated or unknown"
// @Param isAdmin query bool false "Admin flag"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /employees [get]
func (h *EmployeeHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filters, err := filtersFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	employees, pagination, err := h.service.List(c.Request.Context(), actor, dto.EmployeeListQuery{
		Filters:  filters,
		Page:     page,
		PageSize: size,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employees, pagination)
}

// Get godoc
// @Summary Get an employee
// @Tags Employees
// @Produce json
// @Param id path int true "Employee ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /employees/{id} [get]
func (h *EmployeeHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseInt64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	employee, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, employee, nil)
}

// Create godoc
// @Summary Create an employee
// @Tags Employees
// @Accept json
// @Produce json
// @Param payload body dto.CreateEmployeeRequest true "Employee"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /employees [post]
func (h *EmployeeHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid employee payload"))
		return
	}
	employee, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, employee)
}

// Departments godoc
// @Summary List department names
// @Tags Employees
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *EmployeeHandler) Departments(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	names, err := h.service.Departments(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, names, nil)
}
