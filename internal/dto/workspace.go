package dto

import "github.com/noah-isme/hr-engage-api/internal/models"

// OpenWorkspaceRequest optionally seeds the initial filters.
type OpenWorkspaceRequest struct {
	Filters models.EmployeeFilters `json:"filters"`
}

// SelectEmployeeRequest toggles one employee in the selection.
type SelectEmployeeRequest struct {
	EmployeeID int64 `json:"employeeId" validate:"required,gt=0"`
	Selected   *bool `json:"selected" validate:"required"`
}

// SelectAllRequest selects every visible employee or clears the selection.
type SelectAllRequest struct {
	Selected bool `json:"selected"`
}

// BulkActionRequest asks for an action over the current selection. Value is
// the status, the department or the export format depending on Type.
type BulkActionRequest struct {
	Type  models.BulkActionType `json:"type" validate:"required,oneof=export updateStatus updateDepartment delete"`
	Value string                `json:"value"`
}

// ConfirmActionResponse returns the outcome together with the refreshed view.
type ConfirmActionResponse struct {
	Outcome   *models.ActionOutcome `json:"outcome"`
	Workspace *models.WorkspaceView `json:"workspace"`
}
