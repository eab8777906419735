package models

import "time"

// NotificationType classifies notifications sent to operators.
type NotificationType string

const (
	NotificationImportCompleted NotificationType = "import.completed"
	NotificationImportFailed    NotificationType = "import.failed"
)

// Notification is delivered to the actor who started an operation.
type Notification struct {
	Type      NotificationType `json:"type"`
	Recipient string           `json:"recipient"`
	OrgID     string           `json:"orgId"`
	SessionID string           `json:"sessionId,omitempty"`
	Message   string           `json:"message"`
	Result    *ImportResult    `json:"result,omitempty"`
	SentAt    time.Time        `json:"sentAt"`
}
