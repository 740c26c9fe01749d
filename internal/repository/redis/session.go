package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/shopvista/internal/domain"
	"github.com/utafrali/shopvista/pkg/database"
	apperrors "github.com/utafrali/shopvista/pkg/errors"
)

const keyPrefix = "storefront:session:"

var errVersionMismatch = errors.New("session version mismatch")

// SessionRepository implements repository.SessionRepository using Redis.
// Each session is a JSON document whose key expires after the idle TTL; every
// successful save refreshes the expiry.
type SessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a new Redis-backed session repository.
func NewSessionRepository(client *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

// Get retrieves a session by ID from Redis.
func (r *SessionRepository) Get(ctx context.Context, id string) (_ *domain.Session, err error) {
	ctx, end := database.TraceOp(ctx, "redis", "GetSession", keyPrefix+id)
	defer func() { end(err) }()

	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("session", id)
		}
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// SaveIfVersion writes the session inside a WATCH/MULTI transaction so that a
// concurrent writer between the version check and the write aborts this one.
func (r *SessionRepository) SaveIfVersion(ctx context.Context, session *domain.Session, expectedVersion int) (_ bool, err error) {
	key := keyPrefix + session.ID
	ctx, end := database.TraceOp(ctx, "redis", "SaveSession", key)
	defer func() { end(err) }()

	next := session.Clone()
	next.Version = expectedVersion + 1
	payload, err := json.Marshal(next)
	if err != nil {
		return false, fmt.Errorf("marshal session: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := storedVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if current != expectedVersion {
			return errVersionMismatch
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		session.Version = next.Version
		return true, nil
	case errors.Is(err, errVersionMismatch), errors.Is(err, redis.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("redis save session: %w", err)
	}
}

// storedVersion returns the version of the session at key, or 0 when absent.
func storedVersion(ctx context.Context, tx *redis.Tx, key string) (int, error) {
	data, err := tx.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get session: %w", err)
	}

	var stored struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return 0, fmt.Errorf("unmarshal session: %w", err)
	}
	return stored.Version, nil
}

// Delete removes a session from Redis.
func (r *SessionRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "DeleteSession", keyPrefix+id)
	defer func() { end(err) }()

	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
