package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepartmentRepositoryGetDepartments(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM departments WHERE org_id = $1 ORDER BY name ASC")).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("Eng").AddRow("Sales"))

	names, err := repo.GetDepartments(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Eng", "Sales"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryCreateDepartment(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec("INSERT INTO departments").
		WithArgs("org-1", "Sales").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.CreateDepartment(context.Background(), "org-1", "Sales"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryCreateDepartmentConflict(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec("INSERT INTO departments").
		WithArgs("org-1", "Eng").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.CreateDepartment(context.Background(), "org-1", "Eng")
	assert.ErrorIs(t, err, ErrDepartmentExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDepartmentRepositoryCreateDepartmentFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDepartmentRepository(db)

	mock.ExpectExec("INSERT INTO departments").WillReturnError(errors.New("connection reset"))

	err := repo.CreateDepartment(context.Background(), "org-1", "Ops")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDepartmentExists)
	assert.Contains(t, err.Error(), "create department")
}
