package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
)

type bulkEmployeeStore interface {
	UpdateEmployee(ctx context.Context, orgID string, id int64, patch models.EmployeePatch) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, orgID string, id int64) error
}

type bulkExporter interface {
	ExportEmployees(ctx context.Context, actor models.Actor, ids []int64, format string) (*models.ExportFile, error)
}

// BulkActionCoordinator gates mutating bulk actions behind an explicit
// confirmation and runs them against a snapshot of employee ids.
type BulkActionCoordinator struct {
	actor     models.Actor
	selection *SelectionStore
	store     bulkEmployeeStore
	exporter  bulkExporter
	metrics   *MetricsService
	logger    *zap.Logger

	mu      sync.Mutex
	pending *models.BulkAction
}

// NewBulkActionCoordinator builds a coordinator acting for actor.
func NewBulkActionCoordinator(actor models.Actor, selection *SelectionStore, store bulkEmployeeStore, exporter bulkExporter, metrics *MetricsService, logger *zap.Logger) *BulkActionCoordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if selection == nil {
		selection = NewSelectionStore(nil)
	}
	return &BulkActionCoordinator{
		actor:     actor,
		selection: selection,
		store:     store,
		exporter:  exporter,
		metrics:   metrics,
		logger:    logger,
	}
}

// RequestAction runs exports immediately and parks every other action until
// Confirm. A new request replaces any pending action.
func (c *BulkActionCoordinator) RequestAction(ctx context.Context, action models.BulkAction) (*models.ActionRequestResult, error) {
	if len(action.EmployeeIDs) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no employees selected")
	}
	snapshot := models.BulkAction{
		Type:        action.Type,
		Value:       strings.TrimSpace(action.Value),
		EmployeeIDs: append([]int64(nil), action.EmployeeIDs...),
	}

	if !snapshot.Type.RequiresConfirmation() {
		if snapshot.Type == models.BulkActionExport {
			return c.export(ctx, snapshot)
		}
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported bulk action %q", snapshot.Type))
	}
	switch snapshot.Type {
	case models.BulkActionUpdateStatus:
		if !models.EmployeeStatus(snapshot.Value).Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", snapshot.Value))
		}
	case models.BulkActionUpdateDepartment:
		if snapshot.Value == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department is required")
		}
	}

	c.mu.Lock()
	replaced := c.pending != nil
	c.pending = &snapshot
	c.mu.Unlock()
	if replaced {
		c.logger.Debug("pending bulk action replaced", zap.String("type", string(snapshot.Type)))
	}
	c.metrics.RecordBulkAction(snapshot.Type, "requested")

	return &models.ActionRequestResult{
		RequiresConfirmation: true,
		Confirmation:         confirmationFor(snapshot),
	}, nil
}

func (c *BulkActionCoordinator) export(ctx context.Context, action models.BulkAction) (*models.ActionRequestResult, error) {
	if c.exporter == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export is not configured")
	}
	file, err := c.exporter.ExportEmployees(ctx, c.actor, action.EmployeeIDs, action.Value)
	if err != nil {
		c.metrics.RecordBulkAction(action.Type, "failed")
		return nil, err
	}
	c.metrics.RecordBulkAction(action.Type, "completed")
	return &models.ActionRequestResult{
		Outcome: &models.ActionOutcome{
			Type:      action.Type,
			Requested: len(action.EmployeeIDs),
			Affected:  len(action.EmployeeIDs),
			FailedIDs: []int64{},
			Export:    file,
		},
	}, nil
}

// Pending returns a copy of the action awaiting confirmation, if any.
func (c *BulkActionCoordinator) Pending() *models.BulkAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return nil
	}
	copied := *c.pending
	copied.EmployeeIDs = append([]int64(nil), c.pending.EmployeeIDs...)
	return &copied
}

// PendingConfirmation describes the pending action, if any.
func (c *BulkActionCoordinator) PendingConfirmation() *models.ConfirmationPayload {
	pending := c.Pending()
	if pending == nil {
		return nil
	}
	return confirmationFor(*pending)
}

// Cancel discards the pending action. The selection is left as is.
func (c *BulkActionCoordinator) Cancel() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	if pending != nil {
		c.metrics.RecordBulkAction(pending.Type, "cancelled")
	}
}

// Confirm executes the pending action with one store call per id and clears
// the selection whatever the per-id results.
func (c *BulkActionCoordinator) Confirm(ctx context.Context) (*models.ActionOutcome, error) {
	c.mu.Lock()
	action := c.pending
	c.pending = nil
	c.mu.Unlock()
	if action == nil {
		return nil, appErrors.ErrNoPendingAction
	}

	outcome := &models.ActionOutcome{
		Type:      action.Type,
		Requested: len(action.EmployeeIDs),
		FailedIDs: []int64{},
	}
	for _, id := range action.EmployeeIDs {
		if err := c.apply(ctx, *action, id); err != nil {
			c.logger.Warn("bulk action failed for employee",
				zap.String("type", string(action.Type)),
				zap.Int64("employee_id", id),
				zap.Error(err),
			)
			outcome.FailedIDs = append(outcome.FailedIDs, id)
			continue
		}
		outcome.Affected++
	}
	c.selection.Clear()

	result := "completed"
	if len(outcome.FailedIDs) > 0 {
		result = "partial"
	}
	c.metrics.RecordBulkAction(action.Type, result)
	c.logger.Info("bulk action confirmed",
		zap.String("org_id", c.actor.OrgID),
		zap.String("actor_id", c.actor.UserID),
		zap.String("type", string(action.Type)),
		zap.Int("requested", outcome.Requested),
		zap.Int("affected", outcome.Affected),
	)
	return outcome, nil
}

func (c *BulkActionCoordinator) apply(ctx context.Context, action models.BulkAction, id int64) error {
	switch action.Type {
	case models.BulkActionUpdateStatus:
		status := models.EmployeeStatus(action.Value)
		_, err := c.store.UpdateEmployee(ctx, c.actor.OrgID, id, models.EmployeePatch{Status: &status})
		return err
	case models.BulkActionUpdateDepartment:
		department := action.Value
		_, err := c.store.UpdateEmployee(ctx, c.actor.OrgID, id, models.EmployeePatch{Department: &department})
		return err
	case models.BulkActionDelete:
		return c.store.DeleteEmployee(ctx, c.actor.OrgID, id)
	default:
		return fmt.Errorf("unsupported bulk action %q", action.Type)
	}
}

func confirmationFor(action models.BulkAction) *models.ConfirmationPayload {
	count := len(action.EmployeeIDs)
	payload := &models.ConfirmationPayload{
		Type:  action.Type,
		Count: count,
		Value: action.Value,
	}
	switch action.Type {
	case models.BulkActionUpdateStatus:
		payload.Message = fmt.Sprintf("Set status to %s for %s?", action.Value, pluralEmployees(count))
	case models.BulkActionUpdateDepartment:
		payload.Message = fmt.Sprintf("Move %s to department %s?", pluralEmployees(count), action.Value)
	case models.BulkActionDelete:
		payload.Irreversible = true
		payload.Message = fmt.Sprintf("Delete %s? This cannot be undone.", pluralEmployees(count))
	}
	return payload
}

func pluralEmployees(n int) string {
	if n == 1 {
		return "1 employee"
	}
	return fmt.Sprintf("%d employees", n)
}
