package dto

import "github.com/noah-isme/hr-engage-api/internal/models"

// CreateEmployeeRequest payload for adding a single employee.
type CreateEmployeeRequest struct {
	Name        string                `json:"name" validate:"required"`
	Surname     string                `json:"surname" validate:"required"`
	Email       string                `json:"email" validate:"required,email"`
	Department  string                `json:"department" validate:"required"`
	Location    string                `json:"location"`
	JobTitle    string                `json:"jobTitle"`
	PhoneNumber string                `json:"phoneNumber"`
	Status      models.EmployeeStatus `json:"status" validate:"omitempty,oneof=active inactive pending terminated"`
	IsAdmin     bool                  `json:"isAdmin"`
	BirthDate   string                `json:"birthDate"`
	HireDate    string                `json:"hireDate"`
}

// EmployeeListQuery mirrors the directory listing query string.
type EmployeeListQuery struct {
	Filters  models.EmployeeFilters
	Page     int
	PageSize int
}
