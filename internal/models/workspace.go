package models

import "time"

// WorkspaceView is the operator-facing state of a bulk-action workspace.
type WorkspaceView struct {
	ID            string               `json:"id"`
	Filters       EmployeeFilters      `json:"filters"`
	Employees     []Employee           `json:"employees"`
	TotalCount    int                  `json:"totalCount"`
	VisibleCount  int                  `json:"visibleCount"`
	SelectedIDs   []int64              `json:"selectedIds"`
	PendingAction *ConfirmationPayload `json:"pendingAction,omitempty"`
	RefreshedAt   time.Time            `json:"refreshedAt"`
}
