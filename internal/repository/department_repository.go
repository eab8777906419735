package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DepartmentRepository stores department names per organization.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// GetDepartments lists department names for an organization ordered by name.
func (r *DepartmentRepository) GetDepartments(ctx context.Context, orgID string) ([]string, error) {
	const query = `SELECT name FROM departments WHERE org_id = $1 ORDER BY name ASC`
	var names []string
	if err := r.db.SelectContext(ctx, &names, query, orgID); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return names, nil
}

// CreateDepartment inserts a department. A duplicate name yields ErrDepartmentExists.
func (r *DepartmentRepository) CreateDepartment(ctx context.Context, orgID, name string) error {
	const query = `INSERT INTO departments (org_id, name, created_at) VALUES ($1, $2, NOW())`
	if _, err := r.db.ExecContext(ctx, query, orgID, name); err != nil {
		if isUniqueViolation(err) {
			return ErrDepartmentExists
		}
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}
