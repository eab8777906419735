package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
	"github.com/noah-isme/hr-engage-api/pkg/jobs"
)

const scenarioBCSV = "name,surname,email,department\nAnn,Lee,ann@x.com,Eng\nBo,Kim,bo@x.com,Sales\n"

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type notifierStub struct {
	mu   sync.Mutex
	sent []models.Notification
	err  error
}

func (n *notifierStub) Notify(ctx context.Context, notification models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return n.err
}

type hookedDepartments struct {
	*departmentStoreStub
	onList func()
}

func (d hookedDepartments) GetDepartments(ctx context.Context, orgID string) ([]string, error) {
	if d.onList != nil {
		d.onList()
	}
	return d.departmentStoreStub.GetDepartments(ctx, orgID)
}

type importFixture struct {
	service     *ImportService
	worker      *ImportWorker
	sessions    *MemoryImportSessionStore
	queue       *queueStub
	notifier    *notifierStub
	employees   *employeeStoreStub
	departments *departmentStoreStub
}

func newImportFixture() *importFixture {
	f := &importFixture{
		sessions:    NewMemoryImportSessionStore(),
		queue:       &queueStub{},
		notifier:    &notifierStub{},
		employees:   newEmployeeStoreStub(),
		departments: &departmentStoreStub{names: []string{"Eng"}},
	}
	f.service = NewImportService(f.departments, nil, f.sessions, f.queue, nil, nil, ImportServiceConfig{
		Enabled:          true,
		MaxFileSizeBytes: 1 << 20,
		SessionRetention: time.Hour,
	})
	executor := NewImportExecutor(f.employees, f.departments, nil)
	f.worker = NewImportWorker(f.sessions, executor, f.notifier, time.Hour, nil)
	return f
}

func (f *importFixture) upload(t *testing.T, csv string) *models.ImportSession {
	t.Helper()
	session, err := f.service.Upload(context.Background(), testActor, "people.csv", int64(len(csv)), strings.NewReader(csv))
	require.NoError(t, err)
	return session
}

func TestImportServiceFullLifecycle(t *testing.T) {
	f := newImportFixture()
	session := f.upload(t, scenarioBCSV)
	assert.Equal(t, models.ImportStatePreviewing, session.State)
	require.NotNil(t, session.Report)
	assert.Equal(t, []string{"Sales"}, session.Report.NewDepartments)
	assert.Equal(t, 0, f.employees.calls(), "analysis never mutates the store")

	approved, err := f.service.Approve(context.Background(), testActor, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateExecuting, approved.State)
	require.NotNil(t, approved.ApprovedAt)
	require.Len(t, f.queue.jobs, 1)
	assert.Equal(t, JobTypeImportExecute, f.queue.jobs[0].Type)

	require.NoError(t, f.worker.Handle(context.Background(), f.queue.jobs[0]))

	done, err := f.service.Get(context.Background(), testActor, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateIdle, done.State)
	assert.Equal(t, models.ImportOutcomeCompleted, done.Outcome)
	require.NotNil(t, done.Result)
	assert.Equal(t, 2, done.Result.SuccessCount)
	assert.Equal(t, 1, done.Result.DepartmentsCreated)

	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, models.NotificationImportCompleted, sent.Type)
	assert.Equal(t, testActor.UserID, sent.Recipient)
	assert.Equal(t, "Successfully created 2 employees, updated 0 employees, created 1 departments", sent.Message)
}

func TestImportServiceApproveBlockedByErrors(t *testing.T) {
	f := newImportFixture()
	session := f.upload(t, "name,surname,email,department\nBo,,bad-email,Eng\n")
	require.True(t, session.Report.Validation.HasErrors)

	_, err := f.service.Approve(context.Background(), testActor, session.ID)
	require.Error(t, err)
	var execErr *ExecutionError
	assert.True(t, errors.As(err, &execErr))
	assert.Empty(t, f.queue.jobs)

	stored, err := f.service.Get(context.Background(), testActor, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatePreviewing, stored.State)
}

func TestImportServiceApproveTwiceConflicts(t *testing.T) {
	f := newImportFixture()
	session := f.upload(t, scenarioBCSV)
	_, err := f.service.Approve(context.Background(), testActor, session.ID)
	require.NoError(t, err)

	_, err = f.service.Approve(context.Background(), testActor, session.ID)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	_, err = f.service.Cancel(context.Background(), testActor, session.ID)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Len(t, f.queue.jobs, 1)
}

func TestImportServiceApproveRevertsWhenQueueFails(t *testing.T) {
	f := newImportFixture()
	f.queue.err = errors.New("queue is not running")
	session := f.upload(t, scenarioBCSV)

	_, err := f.service.Approve(context.Background(), testActor, session.ID)
	assert.ErrorIs(t, err, appErrors.ErrInternal)

	stored, err := f.service.Get(context.Background(), testActor, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatePreviewing, stored.State)
	assert.Nil(t, stored.ApprovedAt)
}

func TestImportServiceCancelPreview(t *testing.T) {
	f := newImportFixture()
	session := f.upload(t, scenarioBCSV)

	cancelled, err := f.service.Cancel(context.Background(), testActor, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateIdle, cancelled.State)
	assert.Equal(t, models.ImportOutcomeCancelled, cancelled.Outcome)
	assert.Nil(t, cancelled.Report)

	_, err = f.service.Approve(context.Background(), testActor, session.ID)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Equal(t, 0, f.employees.calls())
	assert.Empty(t, f.departments.created)
}

func TestImportServiceCancelDuringAnalysisDiscardsResult(t *testing.T) {
	f := newImportFixture()
	f.service.departments = hookedDepartments{
		departmentStoreStub: f.departments,
		onList: func() {
			f.sessions.mu.RLock()
			var id string
			for key := range f.sessions.items {
				id = key
			}
			f.sessions.mu.RUnlock()
			_, err := f.service.Cancel(context.Background(), testActor, id)
			require.NoError(t, err)
		},
	}

	session := f.upload(t, scenarioBCSV)
	assert.Equal(t, models.ImportStateIdle, session.State)
	assert.Equal(t, models.ImportOutcomeCancelled, session.Outcome)
	assert.Nil(t, session.Report)
}

func TestImportServiceUploadRejections(t *testing.T) {
	f := newImportFixture()

	_, err := f.service.Upload(context.Background(), testActor, "people.pdf", 10, strings.NewReader("x"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = f.service.Upload(context.Background(), testActor, "people.csv", 2<<20, strings.NewReader(scenarioBCSV))
	assert.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)

	f.service.cfg.Enabled = false
	_, err = f.service.Upload(context.Background(), testActor, "people.csv", 10, strings.NewReader(scenarioBCSV))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestImportServiceIsolatesOrganizations(t *testing.T) {
	f := newImportFixture()
	session := f.upload(t, scenarioBCSV)
	other := models.Actor{UserID: "admin-2", OrgID: "org-2", Role: models.RoleAdmin}

	_, err := f.service.Get(context.Background(), other, session.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = f.service.Approve(context.Background(), other, session.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

type failingRunner struct{}

func (failingRunner) Execute(ctx context.Context, report *models.PreviewReport, actor models.Actor) (*models.ImportResult, error) {
	return nil, errStoreDown
}

func TestImportWorkerReportsFailure(t *testing.T) {
	f := newImportFixture()
	session := f.upload(t, scenarioBCSV)
	_, err := f.service.Approve(context.Background(), testActor, session.ID)
	require.NoError(t, err)

	worker := NewImportWorker(f.sessions, failingRunner{}, f.notifier, time.Hour, nil)
	require.NoError(t, worker.Handle(context.Background(), f.queue.jobs[0]))

	stored, err := f.sessions.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportOutcomeFailed, stored.Outcome)
	assert.Equal(t, errStoreDown.Error(), stored.Error)
	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, models.NotificationImportFailed, f.notifier.sent[0].Type)
}

func TestImportWorkerSkipsSessionsNotExecuting(t *testing.T) {
	f := newImportFixture()
	session := f.upload(t, scenarioBCSV)

	err := f.worker.Handle(context.Background(), jobs.Job{
		ID:      session.ID,
		Type:    JobTypeImportExecute,
		Payload: ImportJobPayload{SessionID: session.ID, Actor: testActor},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, f.employees.calls())
	assert.Empty(t, f.notifier.sent)
}

func TestImportWorkerRejectsUnknownPayload(t *testing.T) {
	f := newImportFixture()
	err := f.worker.Handle(context.Background(), jobs.Job{ID: "x", Payload: "nope"})
	assert.Error(t, err)
}

func TestMemoryImportSessionStoreExpiry(t *testing.T) {
	store := NewMemoryImportSessionStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(context.Background(), &models.ImportSession{ID: "keep"}, 0))
	require.NoError(t, store.Save(context.Background(), &models.ImportSession{ID: "short"}, time.Minute))

	now = now.Add(2 * time.Minute)
	_, err := store.Get(context.Background(), "keep")
	assert.NoError(t, err)
	_, err = store.Get(context.Background(), "short")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestMemoryImportSessionStoreReturnsCopies(t *testing.T) {
	store := NewMemoryImportSessionStore()
	session := &models.ImportSession{ID: "s1", State: models.ImportStatePreviewing}
	require.NoError(t, store.Save(context.Background(), session, 0))
	session.State = models.ImportStateExecuting

	stored, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportStatePreviewing, stored.State)
}

type interleavedSessionStore struct {
	*MemoryImportSessionStore
	beforeUpdate func()
}

func (s *interleavedSessionStore) Update(ctx context.Context, id string, ttl time.Duration, mutate func(*models.ImportSession) error) (*models.ImportSession, error) {
	if hook := s.beforeUpdate; hook != nil {
		s.beforeUpdate = nil
		hook()
	}
	return s.MemoryImportSessionStore.Update(ctx, id, ttl, mutate)
}

func TestImportServiceApproveAcrossReplicasRunsOnce(t *testing.T) {
	f := newImportFixture()
	session := f.upload(t, scenarioBCSV)

	otherQueue := &queueStub{}
	other := NewImportService(f.departments, nil, f.sessions, otherQueue, nil, nil, ImportServiceConfig{Enabled: true})
	shared := &interleavedSessionStore{MemoryImportSessionStore: f.sessions}
	shared.beforeUpdate = func() {
		_, err := other.Approve(context.Background(), testActor, session.ID)
		require.NoError(t, err)
	}
	f.service.sessions = shared

	_, err := f.service.Approve(context.Background(), testActor, session.ID)
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, f.queue.jobs)
	assert.Len(t, otherQueue.jobs, 1)

	stored, err := f.sessions.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateExecuting, stored.State)
}

func TestImportServiceConcurrentApprovalsEnqueueOnce(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newImportFixture()
		session := f.upload(t, scenarioBCSV)
		replicas := []*queueStub{f.queue, {}}
		services := []*ImportService{
			f.service,
			NewImportService(f.departments, nil, f.sessions, replicas[1], nil, nil, ImportServiceConfig{Enabled: true}),
		}

		var wg sync.WaitGroup
		errs := make([]error, len(services))
		for idx := range services {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				_, errs[idx] = services[idx].Approve(context.Background(), testActor, session.ID)
			}(idx)
		}
		wg.Wait()

		succeeded := 0
		for idx, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, appErrors.ErrConflict, "replica %d", idx)
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 1, len(replicas[0].jobs)+len(replicas[1].jobs))
	}
}

func TestMemoryImportSessionStoreUpdate(t *testing.T) {
	store := NewMemoryImportSessionStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	require.NoError(t, store.Save(context.Background(), &models.ImportSession{ID: "s1", State: models.ImportStatePreviewing}, 0))

	updated, err := store.Update(context.Background(), "s1", time.Minute, func(session *models.ImportSession) error {
		session.State = models.ImportStateIdle
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateIdle, updated.State)

	blocked := errors.New("blocked")
	_, err = store.Update(context.Background(), "s1", 0, func(session *models.ImportSession) error {
		session.State = models.ImportStateExecuting
		return blocked
	})
	assert.ErrorIs(t, err, blocked)
	stored, err := store.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, models.ImportStateIdle, stored.State)

	now = now.Add(2 * time.Minute)
	_, err = store.Update(context.Background(), "s1", 0, func(*models.ImportSession) error { return nil })
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	_, err = store.Update(context.Background(), "missing", 0, func(*models.ImportSession) error { return nil })
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}
