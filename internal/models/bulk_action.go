package models

// BulkActionType enumerates operations that target a selection.
type BulkActionType string

const (
	BulkActionExport           BulkActionType = "export"
	BulkActionUpdateStatus     BulkActionType = "updateStatus"
	BulkActionUpdateDepartment BulkActionType = "updateDepartment"
	BulkActionDelete           BulkActionType = "delete"
)

// RequiresConfirmation reports whether the action mutates data and must be
// confirmed before it runs.
func (t BulkActionType) RequiresConfirmation() bool {
	switch t {
	case BulkActionUpdateStatus, BulkActionUpdateDepartment, BulkActionDelete:
		return true
	default:
		return false
	}
}

// BulkAction is a request to apply one operation to a snapshot of ids.
type BulkAction struct {
	Type        BulkActionType `json:"type"`
	Value       string         `json:"value,omitempty"`
	EmployeeIDs []int64        `json:"employeeIds"`
}

// ConfirmationPayload describes a pending action to the operator.
type ConfirmationPayload struct {
	Type         BulkActionType `json:"type"`
	Count        int            `json:"count"`
	Value        string         `json:"value,omitempty"`
	Irreversible bool           `json:"irreversible"`
	Message      string         `json:"message"`
}

// ExportFile is a rendered export ready for download.
type ExportFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// ActionOutcome summarizes an executed bulk action.
type ActionOutcome struct {
	Type      BulkActionType `json:"type"`
	Requested int            `json:"requested"`
	Affected  int            `json:"affected"`
	FailedIDs []int64        `json:"failedIds"`
	Export    *ExportFile    `json:"export,omitempty"`
}

// ActionRequestResult is returned when an action is requested.
type ActionRequestResult struct {
	RequiresConfirmation bool                 `json:"requiresConfirmation"`
	Confirmation         *ConfirmationPayload `json:"confirmation,omitempty"`
	Outcome              *ActionOutcome       `json:"outcome,omitempty"`
}
