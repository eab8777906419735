package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/hr-engage-api/internal/models"
)

const employeeColumns = `id, org_id, name, surname, email, username, phone_number, job_title, department, location, status, is_admin, admin_scope, allowed_sites, allowed_departments, hire_date, birth_date, avatar_url, created_at, updated_at`

// EmployeeRepository provides database access for the employee directory.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository creates a new instance of EmployeeRepository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

// GetEmployees returns every employee of an organization ordered by id.
func (r *EmployeeRepository) GetEmployees(ctx context.Context, orgID string) ([]models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE org_id = $1 ORDER BY id ASC`, employeeColumns)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, orgID); err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	return employees, nil
}

// FindEmployee returns one employee scoped to the organization.
func (r *EmployeeRepository) FindEmployee(ctx context.Context, orgID string, id int64) (*models.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE org_id = $1 AND id = $2 LIMIT 1`, employeeColumns)
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, orgID, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &employee, nil
}

// CreateEmployee inserts an employee and returns the stored row.
func (r *EmployeeRepository) CreateEmployee(ctx context.Context, orgID string, record models.EmployeeRecord) (*models.Employee, error) {
	query := fmt.Sprintf(`INSERT INTO employees (org_id, name, surname, email, username, phone_number, job_title, department, location, status, is_admin, hire_date, birth_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
RETURNING %s`, employeeColumns)
	var employee models.Employee
	err := r.db.GetContext(ctx, &employee, query,
		orgID, record.Name, record.Surname, record.Email, record.Username, record.PhoneNumber,
		record.JobTitle, record.Department, record.Location, record.Status, record.IsAdmin,
		record.HireDate, record.BirthDate,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmployeeExists
		}
		return nil, fmt.Errorf("create employee: %w", err)
	}
	return &employee, nil
}

// UpdateEmployee applies the non-nil fields of patch and returns the stored row.
func (r *EmployeeRepository) UpdateEmployee(ctx context.Context, orgID string, id int64, patch models.EmployeePatch) (*models.Employee, error) {
	if patch.Empty() {
		return r.FindEmployee(ctx, orgID, id)
	}

	var sets []string
	var args []interface{}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Surname != nil {
		set("surname", *patch.Surname)
	}
	if patch.PhoneNumber != nil {
		set("phone_number", *patch.PhoneNumber)
	}
	if patch.JobTitle != nil {
		set("job_title", *patch.JobTitle)
	}
	if patch.Department != nil {
		set("department", *patch.Department)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Status != nil {
		set("status", *patch.Status)
	}
	if patch.HireDate != nil {
		set("hire_date", *patch.HireDate)
	}
	if patch.BirthDate != nil {
		set("birth_date", *patch.BirthDate)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, orgID, id)
	query := fmt.Sprintf(`UPDATE employees SET %s WHERE org_id = $%d AND id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args)-1, len(args), employeeColumns)

	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update employee: %w", err)
	}
	return &employee, nil
}

// DeleteEmployee removes an employee. A missing row yields sql.ErrNoRows.
func (r *EmployeeRepository) DeleteEmployee(ctx context.Context, orgID string, id int64) error {
	const query = `DELETE FROM employees WHERE org_id = $1 AND id = $2`
	res, err := r.db.ExecContext(ctx, query, orgID, id)
	if err != nil {
		return fmt.Errorf("delete employee: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete employee rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
