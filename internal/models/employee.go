package models

import (
	"time"

	"github.com/lib/pq"
)

// EmployeeStatus enumerates lifecycle states of an employee record.
type EmployeeStatus string

const (
	EmployeeStatusActive     EmployeeStatus = "active"
	EmployeeStatusInactive   EmployeeStatus = "inactive"
	EmployeeStatusPending    EmployeeStatus = "pending"
	EmployeeStatusTerminated EmployeeStatus = "terminated"
)

// StatusUnknown is the filter literal matching employees without a status.
const StatusUnknown = "unknown"

// Valid reports whether s is one of the known statuses.
func (s EmployeeStatus) Valid() bool {
	switch s {
	case EmployeeStatusActive, EmployeeStatusInactive, EmployeeStatusPending, EmployeeStatusTerminated:
		return true
	default:
		return false
	}
}

// Employee is the directory identity record for one person in an organization.
type Employee struct {
	ID                 int64           `db:"id" json:"id"`
	OrgID              string          `db:"org_id" json:"orgId"`
	Name               string          `db:"name" json:"name"`
	Surname            *string         `db:"surname" json:"surname"`
	Email              string          `db:"email" json:"email"`
	Username           string          `db:"username" json:"username"`
	PhoneNumber        *string         `db:"phone_number" json:"phoneNumber"`
	JobTitle           *string         `db:"job_title" json:"jobTitle"`
	Department         *string         `db:"department" json:"department"`
	Location           *string         `db:"location" json:"location"`
	Status             *EmployeeStatus `db:"status" json:"status"`
	IsAdmin            bool            `db:"is_admin" json:"isAdmin"`
	AdminScope         *string         `db:"admin_scope" json:"adminScope,omitempty"`
	AllowedSites       pq.StringArray  `db:"allowed_sites" json:"allowedSites,omitempty"`
	AllowedDepartments pq.StringArray  `db:"allowed_departments" json:"allowedDepartments,omitempty"`
	HireDate           *time.Time      `db:"hire_date" json:"hireDate"`
	BirthDate          *time.Time      `db:"birth_date" json:"birthDate"`
	AvatarURL          *string         `db:"avatar_url" json:"avatarUrl"`
	CreatedAt          time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time       `db:"updated_at" json:"updatedAt"`
}

// EmployeeRecord carries the fields needed to create an employee.
type EmployeeRecord struct {
	Name        string          `db:"name"`
	Surname     *string         `db:"surname"`
	Email       string          `db:"email"`
	Username    string          `db:"username"`
	PhoneNumber *string         `db:"phone_number"`
	JobTitle    *string         `db:"job_title"`
	Department  *string         `db:"department"`
	Location    *string         `db:"location"`
	Status      *EmployeeStatus `db:"status"`
	IsAdmin     bool            `db:"is_admin"`
	HireDate    *time.Time      `db:"hire_date"`
	BirthDate   *time.Time      `db:"birth_date"`
}

// EmployeePatch lists the fields to change; nil pointers are left untouched.
type EmployeePatch struct {
	Name        *string
	Surname     *string
	PhoneNumber *string
	JobTitle    *string
	Department  *string
	Location    *string
	Status      *EmployeeStatus
	HireDate    *time.Time
	BirthDate   *time.Time
}

// Empty reports whether the patch changes nothing.
func (p EmployeePatch) Empty() bool {
	return p.Name == nil && p.Surname == nil && p.PhoneNumber == nil && p.JobTitle == nil &&
		p.Department == nil && p.Location == nil && p.Status == nil && p.HireDate == nil && p.BirthDate == nil
}

// EmployeeFilters narrows a directory listing. Empty strings and a nil IsAdmin
// leave that dimension unconstrained.
type EmployeeFilters struct {
	Search     string `json:"search" form:"search"`
	Department string `json:"department" form:"department"`
	Location   string `json:"location" form:"location"`
	Status     string `json:"status" form:"status"`
	IsAdmin    *bool  `json:"isAdmin" form:"isAdmin"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}

// StringPtr returns nil for blank input and a pointer otherwise.
func StringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
