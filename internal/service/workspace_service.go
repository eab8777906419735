package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
)

type workspaceEmployeeStore interface {
	GetEmployees(ctx context.Context, orgID string) ([]models.Employee, error)
	UpdateEmployee(ctx context.Context, orgID string, id int64, patch models.EmployeePatch) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, orgID string, id int64) error
}

type workspace struct {
	mu          sync.Mutex
	id          string
	actor       models.Actor
	employees   []models.Employee
	filters     models.EmployeeFilters
	visible     []models.Employee
	selection   *SelectionStore
	coordinator *BulkActionCoordinator
	refreshedAt time.Time
	lastUsed    time.Time
}

// WorkspaceService keeps one in-memory workspace per open operator view. A
// workspace holds the fetched collection, active filters, selection and any
// pending bulk action, and is only reachable by the actor who opened it.
type WorkspaceService struct {
	employees workspaceEmployeeStore
	exporter  bulkExporter
	filter    *FilterEngine
	metrics   *MetricsService
	logger    *zap.Logger
	idleTTL   time.Duration
	now       func() time.Time

	mu    sync.Mutex
	items map[string]*workspace
}

// NewWorkspaceService constructs the service.
func NewWorkspaceService(employees workspaceEmployeeStore, exporter bulkExporter, metrics *MetricsService, logger *zap.Logger, idleTTL time.Duration) *WorkspaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if idleTTL <= 0 {
		idleTTL = 2 * time.Hour
	}
	return &WorkspaceService{
		employees: employees,
		exporter:  exporter,
		filter:    NewFilterEngine(),
		metrics:   metrics,
		logger:    logger,
		idleTTL:   idleTTL,
		now:       time.Now,
		items:     make(map[string]*workspace),
	}
}

// Open fetches the organization's employees and starts a workspace.
func (s *WorkspaceService) Open(ctx context.Context, actor models.Actor, filters models.EmployeeFilters) (*models.WorkspaceView, error) {
	employees, err := s.employees.GetEmployees(ctx, actor.OrgID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employees")
	}

	now := s.now()
	selection := NewSelectionStore(nil)
	ws := &workspace{
		id:          uuid.NewString(),
		actor:       actor,
		employees:   employees,
		selection:   selection,
		coordinator: NewBulkActionCoordinator(actor, selection, s.employees, s.exporter, s.metrics, s.logger),
		refreshedAt: now.UTC(),
		lastUsed:    now,
	}
	ws.applyFilters(s.filter, filters)

	s.mu.Lock()
	s.items[ws.id] = ws
	s.mu.Unlock()
	s.logger.Debug("workspace opened", zap.String("workspace_id", ws.id), zap.String("actor_id", actor.UserID))
	return ws.view(), nil
}

// Get returns the current workspace state.
func (s *WorkspaceService) Get(_ context.Context, actor models.Actor, id string) (*models.WorkspaceView, error) {
	ws, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.view(), nil
}

// ApplyFilters recomputes the visible set and prunes the selection to it.
func (s *WorkspaceService) ApplyFilters(_ context.Context, actor models.Actor, id string, filters models.EmployeeFilters) (*models.WorkspaceView, error) {
	ws, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.applyFilters(s.filter, filters)
	return ws.view(), nil
}

// Select toggles one employee. Employees outside the visible set are ignored.
func (s *WorkspaceService) Select(_ context.Context, actor models.Actor, id string, employeeID int64, selected bool) (*models.WorkspaceView, error) {
	ws, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.selection.Select(employeeID, selected)
	return ws.view(), nil
}

// SelectAll selects every visible employee, or clears the selection.
func (s *WorkspaceService) SelectAll(_ context.Context, actor models.Actor, id string, selected bool) (*models.WorkspaceView, error) {
	ws, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.selection.SelectAll(selected, IDs(ws.visible))
	return ws.view(), nil
}

// ClearSelection empties the selection.
func (s *WorkspaceService) ClearSelection(ctx context.Context, actor models.Actor, id string) (*models.WorkspaceView, error) {
	return s.SelectAll(ctx, actor, id, false)
}

// RequestAction snapshots the current selection into a bulk action.
func (s *WorkspaceService) RequestAction(ctx context.Context, actor models.Actor, id string, actionType models.BulkActionType, value string) (*models.ActionRequestResult, error) {
	ws, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.coordinator.RequestAction(ctx, models.BulkAction{
		Type:        actionType,
		Value:       value,
		EmployeeIDs: ws.selection.Current(),
	})
}

// ConfirmAction runs the pending action and then refreshes the collection.
// A failed refresh keeps the previous collection.
func (s *WorkspaceService) ConfirmAction(ctx context.Context, actor models.Actor, id string) (*models.ActionOutcome, *models.WorkspaceView, error) {
	ws, err := s.lookup(actor, id)
	if err != nil {
		return nil, nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()

	outcome, err := ws.coordinator.Confirm(ctx)
	if err != nil {
		return nil, nil, err
	}
	employees, err := s.employees.GetEmployees(ctx, actor.OrgID)
	if err != nil {
		s.logger.Warn("workspace refresh failed", zap.String("workspace_id", ws.id), zap.Error(err))
	} else {
		ws.employees = employees
		ws.refreshedAt = s.now().UTC()
	}
	ws.applyFilters(s.filter, ws.filters)
	return outcome, ws.view(), nil
}

// CancelAction discards the pending action.
func (s *WorkspaceService) CancelAction(_ context.Context, actor models.Actor, id string) (*models.WorkspaceView, error) {
	ws, err := s.lookup(actor, id)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	defer ws.mu.Unlock()
	ws.coordinator.Cancel()
	return ws.view(), nil
}

// Close discards the workspace.
func (s *WorkspaceService) Close(_ context.Context, actor models.Actor, id string) error {
	if _, err := s.lookup(actor, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}

// Sweep drops workspaces idle for longer than the configured TTL and returns
// how many were removed.
func (s *WorkspaceService) Sweep() int {
	cutoff := s.now().Add(-s.idleTTL)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, ws := range s.items {
		ws.mu.Lock()
		idle := ws.lastUsed.Before(cutoff)
		ws.mu.Unlock()
		if idle {
			delete(s.items, id)
			removed++
		}
	}
	return removed
}

// Run sweeps idle workspaces until ctx is cancelled.
func (s *WorkspaceService) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(); removed > 0 {
				s.logger.Debug("idle workspaces removed", zap.Int("count", removed))
			}
		}
	}
}

func (s *WorkspaceService) lookup(actor models.Actor, id string) (*workspace, error) {
	s.mu.Lock()
	ws, ok := s.items[id]
	s.mu.Unlock()
	if !ok || ws.actor.UserID != actor.UserID || ws.actor.OrgID != actor.OrgID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "workspace not found")
	}
	ws.mu.Lock()
	ws.lastUsed = s.now()
	ws.mu.Unlock()
	return ws, nil
}

func (ws *workspace) applyFilters(engine *FilterEngine, filters models.EmployeeFilters) {
	ws.filters = filters
	ws.visible = engine.Apply(ws.employees, filters)
	ws.selection.SetVisible(IDs(ws.visible))
}

func (ws *workspace) view() *models.WorkspaceView {
	return &models.WorkspaceView{
		ID:            ws.id,
		Filters:       ws.filters,
		Employees:     ws.visible,
		TotalCount:    len(ws.employees),
		VisibleCount:  len(ws.visible),
		SelectedIDs:   ws.selection.Current(),
		PendingAction: ws.coordinator.PendingConfirmation(),
		RefreshedAt:   ws.refreshedAt,
	}
}
