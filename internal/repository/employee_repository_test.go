package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-engage-api/internal/models"
)

var employeeColumnNames = []string{
	"id", "org_id", "name", "surname", "email", "username", "phone_number", "job_title", "department", "location",
	"status", "is_admin", "admin_scope", "allowed_sites", "allowed_departments", "hire_date", "birth_date", "avatar_url",
	"created_at", "updated_at",
}

func employeeRow(rows *sqlmock.Rows, id int64, email, department string) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, "org-1", "Ann", "Lee", email, email, nil, nil, department, nil,
		"active", false, nil, "{}", "{Eng}", nil, nil, nil, now, now)
}

func TestEmployeeRepositoryGetEmployees(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	rows := sqlmock.NewRows(employeeColumnNames)
	employeeRow(rows, 1, "ann@x.com", "Eng")
	employeeRow(rows, 2, "bo@x.com", "Sales")
	mock.ExpectQuery(regexp.QuoteMeta("FROM employees WHERE org_id = $1 ORDER BY id ASC")).
		WithArgs("org-1").
		WillReturnRows(rows)

	employees, err := repo.GetEmployees(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, employees, 2)
	assert.Equal(t, "bo@x.com", employees[1].Email)
	require.NotNil(t, employees[0].Status)
	assert.Equal(t, models.EmployeeStatusActive, *employees[0].Status)
	assert.Equal(t, []string{"Eng"}, []string(employees[0].AllowedDepartments))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryFindEmployeeNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM employees WHERE org_id = $1 AND id = $2 LIMIT 1")).
		WithArgs("org-1", int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindEmployee(context.Background(), "org-1", 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEmployeeRepositoryCreateEmployee(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	rows := sqlmock.NewRows(employeeColumnNames)
	employeeRow(rows, 7, "ann@x.com", "Eng")
	mock.ExpectQuery("INSERT INTO employees").WillReturnRows(rows)

	employee, err := repo.CreateEmployee(context.Background(), "org-1", models.EmployeeRecord{
		Name:       "Ann",
		Surname:    models.StringPtr("Lee"),
		Email:      "ann@x.com",
		Username:   "ann@x.com",
		Department: models.StringPtr("Eng"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), employee.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryCreateEmployeeConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectQuery("INSERT INTO employees").WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.CreateEmployee(context.Background(), "org-1", models.EmployeeRecord{Name: "Ann", Email: "ann@x.com"})
	assert.ErrorIs(t, err, ErrEmployeeExists)
}

func TestEmployeeRepositoryUpdateEmployeeBuildsSetClause(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	status := models.EmployeeStatusInactive
	rows := sqlmock.NewRows(employeeColumnNames)
	employeeRow(rows, 3, "ann@x.com", "Ops")
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE employees SET department = $1, status = $2, updated_at = NOW() WHERE org_id = $3 AND id = $4 RETURNING")).
		WithArgs("Ops", status, "org-1", int64(3)).
		WillReturnRows(rows)

	employee, err := repo.UpdateEmployee(context.Background(), "org-1", 3, models.EmployeePatch{
		Department: models.StringPtr("Ops"),
		Status:     &status,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ops", *employee.Department)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryUpdateEmptyPatchReads(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	rows := sqlmock.NewRows(employeeColumnNames)
	employeeRow(rows, 3, "ann@x.com", "Eng")
	mock.ExpectQuery(regexp.QuoteMeta("FROM employees WHERE org_id = $1 AND id = $2 LIMIT 1")).
		WithArgs("org-1", int64(3)).
		WillReturnRows(rows)

	_, err := repo.UpdateEmployee(context.Background(), "org-1", 3, models.EmployeePatch{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmployeeRepositoryDeleteEmployee(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEmployeeRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees WHERE org_id = $1 AND id = $2")).
		WithArgs("org-1", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM employees WHERE org_id = $1 AND id = $2")).
		WithArgs("org-1", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.DeleteEmployee(context.Background(), "org-1", 1))
	assert.ErrorIs(t, repo.DeleteEmployee(context.Background(), "org-1", 2), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
