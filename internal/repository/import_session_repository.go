package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/hr-engage-api/internal/models"
	appErrors "github.com/noah-isme/hr-engage-api/pkg/errors"
)

const (
	importSessionPrefix = "imports:session:"
	maxUpdateAttempts   = 3
)

// ImportSessionRepository keeps import sessions in Redis so any API replica
// can serve status polls and approvals.
type ImportSessionRepository struct {
	client *redis.Client
}

// NewImportSessionRepository constructs the repository.
func NewImportSessionRepository(client *redis.Client) *ImportSessionRepository {
	return &ImportSessionRepository{client: client}
}

func importSessionKey(id string) string {
	return importSessionPrefix + id
}

// Save stores the session. A zero ttl keeps the key until it is overwritten.
func (r *ImportSessionRepository) Save(ctx context.Context, session *models.ImportSession, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal import session %s: %w", session.ID, err)
	}
	if err := r.client.Set(ctx, importSessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set import session %s: %w", session.ID, err)
	}
	return nil
}

// Get loads a session or returns ErrNotFound.
func (r *ImportSessionRepository) Get(ctx context.Context, id string) (*models.ImportSession, error) {
	return decodeImportSession(id, r.client.Get(ctx, importSessionKey(id)))
}

// Update runs mutate inside a WATCH/MULTI transaction on the session key. A
// write from another replica between the read and EXEC aborts the
// transaction, and the update is retried against the fresh value.
func (r *ImportSessionRepository) Update(ctx context.Context, id string, ttl time.Duration, mutate func(*models.ImportSession) error) (*models.ImportSession, error) {
	key := importSessionKey(id)
	var updated *models.ImportSession
	txf := func(tx *redis.Tx) error {
		session, err := decodeImportSession(id, tx.Get(ctx, key))
		if err != nil {
			return err
		}
		if err := mutate(session); err != nil {
			return err
		}
		payload, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal import session %s: %w", id, err)
		}
		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		}); err != nil {
			return fmt.Errorf("redis update import session %s: %w", id, err)
		}
		updated = session
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "import session was modified concurrently")
}

func decodeImportSession(id string, cmd *redis.StringCmd) (*models.ImportSession, error) {
	raw, err := cmd.Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "import session not found")
		}
		return nil, fmt.Errorf("redis get import session %s: %w", id, err)
	}
	var session models.ImportSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("unmarshal import session %s: %w", id, err)
	}
	return &session, nil
}

// Delete removes a session.
func (r *ImportSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, importSessionKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete import session %s: %w", id, err)
	}
	return nil
}
