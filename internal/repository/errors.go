package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors for unique constraint conflicts.
var (
	ErrDepartmentExists = errors.New("department already exists")
	ErrEmployeeExists   = errors.New("employee email already exists")
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
