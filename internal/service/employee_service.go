package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-engage-api/internal/dto"
	"github.com/noah-isme/hr-engage-api/internal/models"
	"github.com/noah-isme/hr-engage-api/internal/repository"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
	"github.com/noah-isme/hr-engage-api/pkg/tabular"
)

// EmployeeService exposes directory reads and single employee creation.
type EmployeeService struct {
	employees   employeeStore
	departments departmentStore
	filter      *FilterEngine
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewEmployeeService constructs an EmployeeService.
func NewEmployeeService(employees employeeStore, departments departmentStore, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{
		employees:   employees,
		departments: departments,
		filter:      NewFilterEngine(),
		validator:   validate,
		logger:      logger,
	}
}

// List filters the organization's employees and returns one page.
func (s *EmployeeService) List(ctx context.Context, actor models.Actor, query dto.EmployeeListQuery) ([]models.Employee, *models.Pagination, error) {
	all, err := s.employees.GetEmployees(ctx, actor.OrgID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}
	visible := s.filter.Apply(all, query.Filters)

	page := query.Page
	if page < 1 {
		page = 1
	}
	size := query.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	start := len(visible)
	if page-1 <= len(visible)/size {
		start = min((page-1)*size, len(visible))
	}
	end := start + size
	if end > len(visible) {
		end = len(visible)
	}
	return visible[start:end], &models.Pagination{Page: page, PageSize: size, TotalCount: len(visible)}, nil
}

// Get returns one employee.
func (s *EmployeeService) Get(ctx context.Context, actor models.Actor, id int64) (*models.Employee, error) {
	employee, err := s.employees.FindEmployee(ctx, actor.OrgID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "employee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// Create validates and stores a single employee, creating the department when
// it does not exist yet.
func (s *EmployeeService) Create(ctx context.Context, actor models.Actor, req dto.CreateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	birthDate, err := optionalDate(models.ColumnBirthDate, req.BirthDate)
	if err != nil {
		return nil, err
	}
	hireDate, err := optionalDate(models.ColumnHireDate, req.HireDate)
	if err != nil {
		return nil, err
	}

	if err := s.ensureDepartment(ctx, actor.OrgID, req.Department); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.EmployeeStatusActive
	}
	record := recordFromRow(models.CandidateRow{
		Name:        req.Name,
		Surname:     req.Surname,
		Email:       req.Email,
		Department:  req.Department,
		Location:    req.Location,
		JobTitle:    req.JobTitle,
		PhoneNumber: req.PhoneNumber,
	})
	record.Status = &status
	record.IsAdmin = req.IsAdmin
	record.BirthDate = birthDate
	record.HireDate = hireDate

	employee, err := s.employees.CreateEmployee(ctx, actor.OrgID, record)
	if err != nil {
		if errors.Is(err, repository.ErrEmployeeExists) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an employee with this email already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	s.logger.Info("employee created", zap.Int64("employee_id", employee.ID), zap.String("actor_id", actor.UserID))
	return employee, nil
}

// Departments lists department names for the organization.
func (s *EmployeeService) Departments(ctx context.Context, actor models.Actor) ([]string, error) {
	names, err := s.departments.GetDepartments(ctx, actor.OrgID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load departments")
	}
	sort.Strings(names)
	return names, nil
}

func (s *EmployeeService) ensureDepartment(ctx context.Context, orgID, name string) error {
	err := s.departments.CreateDepartment(ctx, orgID, name)
	if err == nil || errors.Is(err, repository.ErrDepartmentExists) {
		return nil
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create department")
}

func optionalDate(field, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := tabular.ParseDate(raw)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: %v", field, err))
	}
	return &t, nil
}
