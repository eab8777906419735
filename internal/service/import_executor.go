package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/hr-engage-api/internal/models"
	"github.com/noah-isme/hr-engage-api/internal/repository"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
	"github.com/noah-isme/hr-engage-api/pkg/tabular"
)

type employeeStore interface {
	GetEmployees(ctx context.Context, orgID string) ([]models.Employee, error)
	FindEmployee(ctx context.Context, orgID string, id int64) (*models.Employee, error)
	CreateEmployee(ctx context.Context, orgID string, record models.EmployeeRecord) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, orgID string, id int64, patch models.EmployeePatch) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, orgID string, id int64) error
}

type departmentStore interface {
	GetDepartments(ctx context.Context, orgID string) ([]string, error)
	CreateDepartment(ctx context.Context, orgID, name string) error
}

// ExecutionError is returned when execution is attempted on a report that
// still carries validation errors.
type ExecutionError struct {
	Errors []string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("import blocked by %d validation error(s)", len(e.Errors))
}

// Unwrap maps the failure onto the HTTP-aware sentinel.
func (e *ExecutionError) Unwrap() error {
	return appErrors.ErrImportBlocked
}

// ImportExecutor applies an approved preview to the store.
type ImportExecutor struct {
	employees   employeeStore
	departments departmentStore
	metrics     *MetricsService
	logger      *zap.Logger
	concurrency int
}

// ImportExecutorOption customises the executor.
type ImportExecutorOption func(*ImportExecutor)

// WithExecutorConcurrency bounds the number of in-flight row calls.
func WithExecutorConcurrency(n int) ImportExecutorOption {
	return func(e *ImportExecutor) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// WithExecutorMetrics records row and department counters.
func WithExecutorMetrics(metrics *MetricsService) ImportExecutorOption {
	return func(e *ImportExecutor) {
		e.metrics = metrics
	}
}

// NewImportExecutor constructs the executor.
func NewImportExecutor(employees employeeStore, departments departmentStore, logger *zap.Logger, opts ...ImportExecutorOption) *ImportExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	executor := &ImportExecutor{
		employees:   employees,
		departments: departments,
		logger:      logger,
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(executor)
	}
	return executor
}

type rowOutcome struct {
	updated bool
	err     error
}

// Execute creates departments first, then creates or updates one employee per
// distinct email. Row failures are collected and never abort the batch. The
// run ignores cancellation of ctx once it has started.
func (e *ImportExecutor) Execute(ctx context.Context, report *models.PreviewReport, actor models.Actor) (*models.ImportResult, error) {
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import report is required")
	}
	if report.Validation.HasErrors {
		return nil, &ExecutionError{Errors: append([]string(nil), report.Validation.Errors...)}
	}
	ctx = context.WithoutCancel(ctx)
	log := e.logger.With(zap.String("org_id", actor.OrgID), zap.String("actor_id", actor.UserID))

	existing, err := e.employees.GetEmployees(ctx, actor.OrgID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}
	byEmail := make(map[string]int64, len(existing))
	for _, employee := range existing {
		byEmail[emailKey(employee.Email)] = employee.ID
	}

	result := &models.ImportResult{FailedRows: []models.FailedRow{}}
	for _, name := range report.NewDepartments {
		if err := e.departments.CreateDepartment(ctx, actor.OrgID, name); err != nil {
			if errors.Is(err, repository.ErrDepartmentExists) {
				log.Info("department already exists", zap.String("department", name))
				continue
			}
			log.Warn("create department failed", zap.String("department", name), zap.Error(err))
			continue
		}
		result.DepartmentsCreated++
	}

	rows := collapseByEmail(report.Employees)
	result.DuplicatesCollapsed = len(report.Employees) - len(rows)

	outcomes := make([]rowOutcome, len(rows))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, row := range rows {
		g.Go(func() error {
			outcomes[i] = e.applyRow(ctx, actor.OrgID, row, byEmail)
			return nil
		})
	}
	_ = g.Wait()

	for i, outcome := range outcomes {
		switch {
		case outcome.err != nil:
			log.Warn("import row failed", zap.Int("row", rows[i].Row), zap.String("email", rows[i].Email), zap.Error(outcome.err))
			result.FailedRows = append(result.FailedRows, models.FailedRow{
				Row:    rows[i].Row,
				Email:  rows[i].Email,
				Reason: outcome.err.Error(),
			})
		case outcome.updated:
			result.UpdateCount++
		default:
			result.SuccessCount++
		}
	}

	e.metrics.RecordImportResult(result)
	log.Info("import executed",
		zap.Int("created", result.SuccessCount),
		zap.Int("updated", result.UpdateCount),
		zap.Int("failed", len(result.FailedRows)),
		zap.Int("departments_created", result.DepartmentsCreated),
	)
	return result, nil
}

func (e *ImportExecutor) applyRow(ctx context.Context, orgID string, row models.CandidateRow, byEmail map[string]int64) rowOutcome {
	if id, ok := byEmail[emailKey(row.Email)]; ok {
		if _, err := e.employees.UpdateEmployee(ctx, orgID, id, patchFromRow(row)); err != nil {
			return rowOutcome{updated: true, err: err}
		}
		return rowOutcome{updated: true}
	}
	if _, err := e.employees.CreateEmployee(ctx, orgID, recordFromRow(row)); err != nil {
		return rowOutcome{err: err}
	}
	return rowOutcome{}
}

// collapseByEmail keeps the last row for each email, positioned where that
// email first appeared.
func collapseByEmail(rows []models.CandidateRow) []models.CandidateRow {
	index := make(map[string]int, len(rows))
	collapsed := make([]models.CandidateRow, 0, len(rows))
	for _, row := range rows {
		key := emailKey(row.Email)
		if i, ok := index[key]; ok {
			collapsed[i] = row
			continue
		}
		index[key] = len(collapsed)
		collapsed = append(collapsed, row)
	}
	return collapsed
}

func recordFromRow(row models.CandidateRow) models.EmployeeRecord {
	status := models.EmployeeStatusActive
	email := strings.TrimSpace(row.Email)
	return models.EmployeeRecord{
		Name:        row.Name,
		Surname:     models.StringPtr(row.Surname),
		Email:       email,
		Username:    email,
		PhoneNumber: models.StringPtr(row.PhoneNumber),
		JobTitle:    models.StringPtr(row.JobTitle),
		Department:  models.StringPtr(row.Department),
		Location:    models.StringPtr(row.Location),
		Status:      &status,
		HireDate:    parseOptionalDate(row.HireDate),
		BirthDate:   parseOptionalDate(row.BirthDate),
	}
}

// patchFromRow leaves fields the file does not supply untouched.
func patchFromRow(row models.CandidateRow) models.EmployeePatch {
	return models.EmployeePatch{
		Name:        models.StringPtr(row.Name),
		Surname:     models.StringPtr(row.Surname),
		PhoneNumber: models.StringPtr(row.PhoneNumber),
		JobTitle:    models.StringPtr(row.JobTitle),
		Department:  models.StringPtr(row.Department),
		Location:    models.StringPtr(row.Location),
		HireDate:    parseOptionalDate(row.HireDate),
		BirthDate:   parseOptionalDate(row.BirthDate),
	}
}

func parseOptionalDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := tabular.ParseDate(raw)
	if err != nil {
		return nil
	}
	return &t
}
