package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
)

// ImportSessionStore persists import sessions between requests.
//
// Update loads the session, applies mutate and stores the result as one atomic
// step, so a state transition observed by mutate cannot race with another
// writer. An error from mutate aborts the update and is returned unchanged.
type ImportSessionStore interface {
	Save(ctx context.Context, session *models.ImportSession, ttl time.Duration) error
	Get(ctx context.Context, id string) (*models.ImportSession, error)
	Update(ctx context.Context, id string, ttl time.Duration, mutate func(*models.ImportSession) error) (*models.ImportSession, error)
	Delete(ctx context.Context, id string) error
}

type storedSession struct {
	session   models.ImportSession
	expiresAt time.Time
}

// MemoryImportSessionStore keeps sessions in process memory. Entries saved
// with a zero ttl never expire.
type MemoryImportSessionStore struct {
	mu    sync.RWMutex
	items map[string]storedSession
	now   func() time.Time
}

// NewMemoryImportSessionStore constructs an empty store.
func NewMemoryImportSessionStore() *MemoryImportSessionStore {
	return &MemoryImportSessionStore{
		items: make(map[string]storedSession),
		now:   time.Now,
	}
}

// Save stores a copy of the session.
func (s *MemoryImportSessionStore) Save(_ context.Context, session *models.ImportSession, ttl time.Duration) error {
	entry := storedSession{session: *session}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.items[session.ID] = entry
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the session or ErrNotFound.
func (s *MemoryImportSessionStore) Get(ctx context.Context, id string) (*models.ImportSession, error) {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import session not found")
	}
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		_ = s.Delete(ctx, id)
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import session not found")
	}
	session := entry.session
	return &session, nil
}

// Update applies mutate to the stored session under the store lock.
func (s *MemoryImportSessionStore) Update(_ context.Context, id string, ttl time.Duration, mutate func(*models.ImportSession) error) (*models.ImportSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.items[id]
	if ok && !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		delete(s.items, id)
		ok = false
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "import session not found")
	}

	session := entry.session
	if err := mutate(&session); err != nil {
		return nil, err
	}
	next := storedSession{session: session}
	if ttl > 0 {
		next.expiresAt = s.now().Add(ttl)
	}
	s.items[id] = next
	return &session, nil
}

// Delete removes the session.
func (s *MemoryImportSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}
