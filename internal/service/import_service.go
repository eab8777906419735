package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
	"github.com/noah-isme/hr-engage-api/pkg/jobs"
	"github.com/noah-isme/hr-engage-api/pkg/tabular"
)

// JobTypeImportExecute identifies queued import executions.
const JobTypeImportExecute = "import.execute"

type departmentLister interface {
	GetDepartments(ctx context.Context, orgID string) ([]string, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ImportJobPayload is carried by queued import executions.
type ImportJobPayload struct {
	SessionID string
	Actor     models.Actor
}

// ImportServiceConfig governs import behaviour.
type ImportServiceConfig struct {
	Enabled          bool
	MaxFileSizeBytes int64
	// SessionRetention is how long finished or cancelled sessions stay
	// readable. Sessions awaiting approval never expire.
	SessionRetention time.Duration
}

// ImportService drives the upload, preview, approve and execute lifecycle.
type ImportService struct {
	departments departmentLister
	analyzer    *ImportAnalyzer
	sessions    ImportSessionStore
	queue       jobDispatcher
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         ImportServiceConfig
	now         func() time.Time
}

var errAnalysisDiscarded = errors.New("import analysis discarded")

// NewImportService constructs the import service.
func NewImportService(departments departmentLister, analyzer *ImportAnalyzer, sessions ImportSessionStore, queue jobDispatcher, metrics *MetricsService, logger *zap.Logger, cfg ImportServiceConfig) *ImportService {
	if analyzer == nil {
		analyzer = NewImportAnalyzer(nil, nil)
	}
	if sessions == nil {
		sessions = NewMemoryImportSessionStore()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 5 << 20
	}
	if cfg.SessionRetention <= 0 {
		cfg.SessionRetention = 24 * time.Hour
	}
	return &ImportService{
		departments: departments,
		analyzer:    analyzer,
		sessions:    sessions,
		queue:       queue,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		now:         time.Now,
	}
}

// Upload parses and analyzes a file. On success the session waits in the
// previewing state for approval or cancellation.
func (s *ImportService) Upload(ctx context.Context, actor models.Actor, fileName string, size int64, r io.Reader) (*models.ImportSession, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "imports are disabled")
	}
	if size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSizeBytes))
	}

	session := &models.ImportSession{
		ID:        uuid.NewString(),
		OrgID:     actor.OrgID,
		ActorID:   actor.UserID,
		FileName:  fileName,
		State:     models.ImportStateAnalyzing,
		CreatedAt: s.now().UTC(),
	}
	if err := s.sessions.Save(ctx, session, 0); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store import session")
	}
	log := s.logger.With(zap.String("session_id", session.ID), zap.String("org_id", actor.OrgID))

	report, err := s.analyze(ctx, actor, fileName, r)
	if err != nil {
		log.Warn("import analysis failed", zap.Error(err))
		if _, updateErr := s.sessions.Update(ctx, session.ID, s.cfg.SessionRetention, func(current *models.ImportSession) error {
			if current.State != models.ImportStateAnalyzing {
				return errAnalysisDiscarded
			}
			s.markFinished(current, models.ImportOutcomeFailed, err.Error())
			return nil
		}); updateErr != nil && !errors.Is(updateErr, errAnalysisDiscarded) {
			log.Warn("failed to store import session", zap.Error(updateErr))
		}
		return nil, err
	}
	s.metrics.RecordImportAnalyzed()

	var discarded *models.ImportSession
	session, err = s.sessions.Update(ctx, session.ID, 0, func(current *models.ImportSession) error {
		if current.State != models.ImportStateAnalyzing {
			snapshot := *current
			discarded = &snapshot
			return errAnalysisDiscarded
		}
		current.State = models.ImportStatePreviewing
		current.Report = report
		return nil
	})
	if errors.Is(err, errAnalysisDiscarded) {
		log.Info("import analysis discarded", zap.String("state", string(discarded.State)))
		return discarded, nil
	}
	if err != nil {
		return nil, sessionStoreError(err, "failed to store import preview")
	}
	log.Info("import analyzed",
		zap.Int("employees", report.EmployeeCount),
		zap.Int("new_departments", len(report.NewDepartments)),
		zap.Int("errors", len(report.Validation.Errors)),
		zap.Int("warnings", len(report.Validation.Warnings)),
	)
	return session, nil
}

func (s *ImportService) analyze(ctx context.Context, actor models.Actor, fileName string, r io.Reader) (*models.PreviewReport, error) {
	rows, err := tabular.Read(fileName, io.LimitReader(r, s.cfg.MaxFileSizeBytes+1))
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedFormat) || errors.Is(err, tabular.ErrNoHeader) {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to parse import file")
	}
	existing, err := s.departments.GetDepartments(ctx, actor.OrgID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load departments")
	}
	return s.analyzer.Analyze(rows, existing), nil
}

// Get returns a session owned by the actor's organization.
func (s *ImportService) Get(ctx context.Context, actor models.Actor, id string) (*models.ImportSession, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.OrgID != actor.OrgID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import session not found")
	}
	return session, nil
}

// Approve moves a previewing session to executing and queues the run. The
// transition is made atomically in the session store, so only one approval
// of a session can succeed across replicas.
func (s *ImportService) Approve(ctx context.Context, actor models.Actor, id string) (*models.ImportSession, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "import queue is not configured")
	}

	approvedAt := s.now().UTC()
	session, err := s.sessions.Update(ctx, id, 0, func(current *models.ImportSession) error {
		if current.State != models.ImportStatePreviewing || current.Report == nil {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("import session is %s, not awaiting approval", current.State))
		}
		if current.Report.Validation.HasErrors {
			return &ExecutionError{Errors: current.Report.Validation.Errors}
		}
		current.State = models.ImportStateExecuting
		current.ApprovedAt = &approvedAt
		return nil
	})
	if err != nil {
		return nil, sessionStoreError(err, "failed to store import session")
	}
	if err := s.queue.Enqueue(jobs.Job{
		ID:      session.ID,
		Type:    JobTypeImportExecute,
		Payload: ImportJobPayload{SessionID: session.ID, Actor: actor},
	}); err != nil {
		if _, revertErr := s.sessions.Update(ctx, id, 0, func(current *models.ImportSession) error {
			if current.State != models.ImportStateExecuting {
				return appErrors.Clone(appErrors.ErrConflict, "import session left executing state")
			}
			current.State = models.ImportStatePreviewing
			current.ApprovedAt = nil
			return nil
		}); revertErr != nil {
			s.logger.Warn("failed to revert import session", zap.String("session_id", session.ID), zap.Error(revertErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue import")
	}
	s.logger.Info("import approved", zap.String("session_id", session.ID), zap.String("actor_id", actor.UserID))
	return session, nil
}

// Cancel discards a preview, or an analysis still in progress.
func (s *ImportService) Cancel(ctx context.Context, actor models.Actor, id string) (*models.ImportSession, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	session, err := s.sessions.Update(ctx, id, s.cfg.SessionRetention, func(current *models.ImportSession) error {
		switch current.State {
		case models.ImportStatePreviewing, models.ImportStateAnalyzing:
		case models.ImportStateExecuting:
			return appErrors.Clone(appErrors.ErrConflict, "import is executing and cannot be cancelled")
		default:
			return appErrors.Clone(appErrors.ErrConflict, "import session has already finished")
		}
		current.Report = nil
		s.markFinished(current, models.ImportOutcomeCancelled, "")
		return nil
	})
	if err != nil {
		return nil, sessionStoreError(err, "failed to store import session")
	}
	return session, nil
}

func (s *ImportService) markFinished(session *models.ImportSession, outcome models.ImportOutcome, message string) {
	finishedAt := s.now().UTC()
	session.State = models.ImportStateIdle
	session.Outcome = outcome
	session.Error = message
	session.FinishedAt = &finishedAt
}

// sessionStoreError passes API errors raised inside a session update through
// and wraps store failures.
func sessionStoreError(err error, message string) error {
	var appErr *appErrors.Error
	var execErr *ExecutionError
	if errors.As(err, &appErr) || errors.As(err, &execErr) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

type importRunner interface {
	Execute(ctx context.Context, report *models.PreviewReport, actor models.Actor) (*models.ImportResult, error)
}

// ImportWorker runs approved imports from the queue.
type ImportWorker struct {
	sessions  ImportSessionStore
	executor  importRunner
	notifier  Notifier
	logger    *zap.Logger
	retention time.Duration
	now       func() time.Time
}

// NewImportWorker constructs a worker.
func NewImportWorker(sessions ImportSessionStore, executor importRunner, notifier Notifier, retention time.Duration, logger *zap.Logger) *ImportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &ImportWorker{
		sessions:  sessions,
		executor:  executor,
		notifier:  notifier,
		logger:    logger,
		retention: retention,
		now:       time.Now,
	}
}

// Handle processes a queued import job.
func (w *ImportWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ImportJobPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	session, err := w.sessions.Get(ctx, payload.SessionID)
	if err != nil {
		return err
	}
	if session.State != models.ImportStateExecuting {
		w.logger.Warn("skipping import not in executing state", zap.String("session_id", session.ID), zap.String("state", string(session.State)))
		return nil
	}

	result, execErr := w.executor.Execute(ctx, session.Report, payload.Actor)
	finishedAt := w.now().UTC()
	session.State = models.ImportStateIdle
	session.FinishedAt = &finishedAt
	notification := models.Notification{
		Recipient: payload.Actor.UserID,
		OrgID:     payload.Actor.OrgID,
		SessionID: session.ID,
		SentAt:    finishedAt,
	}
	if execErr != nil {
		session.Outcome = models.ImportOutcomeFailed
		session.Error = execErr.Error()
		notification.Type = models.NotificationImportFailed
		notification.Message = fmt.Sprintf("Import of %s failed: %s", session.FileName, execErr.Error())
	} else {
		session.Outcome = models.ImportOutcomeCompleted
		session.Result = result
		notification.Type = models.NotificationImportCompleted
		notification.Result = result
		notification.Message = fmt.Sprintf("Successfully created %d employees, updated %d employees, created %d departments",
			result.SuccessCount, result.UpdateCount, result.DepartmentsCreated)
	}

	if err := w.sessions.Save(ctx, session, w.retention); err != nil {
		w.logger.Error("failed to store import result", zap.String("session_id", session.ID), zap.Error(err))
	}
	if err := w.notifier.Notify(ctx, notification); err != nil {
		w.logger.Warn("import notification failed", zap.String("session_id", session.ID), zap.Error(err))
	}
	return nil
}
