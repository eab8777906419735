package models

import "time"

// RawRow is one parsed input row keyed by header name.
type RawRow = map[string]string

// Column names accepted on the import header row. Matching is case-sensitive.
const (
	ColumnName        = "name"
	ColumnSurname     = "surname"
	ColumnEmail       = "email"
	ColumnDepartment  = "department"
	ColumnLocation    = "location"
	ColumnJobTitle    = "jobTitle"
	ColumnPhoneNumber = "phoneNumber"
	ColumnBirthDate   = "birthDate"
	ColumnHireDate    = "hireDate"
)

// ImportColumns lists every recognized column in export order.
var ImportColumns = []string{
	ColumnName, ColumnSurname, ColumnEmail, ColumnDepartment, ColumnLocation,
	ColumnJobTitle, ColumnPhoneNumber, ColumnBirthDate, ColumnHireDate,
}

// CandidateRow is the typed view of one input row. Row is the 1-based data
// row position.
type CandidateRow struct {
	Row         int    `json:"row"`
	Name        string `json:"name"`
	Surname     string `json:"surname"`
	Email       string `json:"email"`
	Department  string `json:"department"`
	Location    string `json:"location,omitempty"`
	JobTitle    string `json:"jobTitle,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	BirthDate   string `json:"birthDate,omitempty"`
	HireDate    string `json:"hireDate,omitempty"`
}

// ValidationSummary aggregates analyzer findings.
type ValidationSummary struct {
	HasErrors bool     `json:"hasErrors"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// PreviewReport is the analyzed, not yet approved view of an import file.
type PreviewReport struct {
	Employees           []CandidateRow    `json:"employees"`
	NewDepartments      []string          `json:"newDepartments"`
	ExistingDepartments []string          `json:"existingDepartments"`
	EmployeeCount       int               `json:"employeeCount"`
	Validation          ValidationSummary `json:"validation"`
}

// FailedRow records a row the store rejected during execution.
type FailedRow struct {
	Row    int    `json:"row"`
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// ImportResult summarizes an executed import.
type ImportResult struct {
	SuccessCount        int         `json:"successCount"`
	UpdateCount         int         `json:"updateCount"`
	DepartmentsCreated  int         `json:"departmentsCreated"`
	DuplicatesCollapsed int         `json:"duplicatesCollapsed"`
	FailedRows          []FailedRow `json:"failedRows"`
}

// ImportState is the operator-visible stage of an import session.
type ImportState string

const (
	ImportStateIdle       ImportState = "idle"
	ImportStateAnalyzing  ImportState = "analyzing"
	ImportStatePreviewing ImportState = "previewing"
	ImportStateExecuting  ImportState = "executing"
)

// ImportOutcome explains how a session returned to idle.
type ImportOutcome string

const (
	ImportOutcomeCancelled ImportOutcome = "cancelled"
	ImportOutcomeCompleted ImportOutcome = "completed"
	ImportOutcomeFailed    ImportOutcome = "failed"
)

// ImportSession tracks one file from upload to completion.
type ImportSession struct {
	ID         string         `json:"id"`
	OrgID      string         `json:"orgId"`
	ActorID    string         `json:"actorId"`
	FileName   string         `json:"fileName"`
	State      ImportState    `json:"state"`
	Outcome    ImportOutcome  `json:"outcome,omitempty"`
	Report     *PreviewReport `json:"report,omitempty"`
	Result     *ImportResult  `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	ApprovedAt *time.Time     `json:"approvedAt,omitempty"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
}
