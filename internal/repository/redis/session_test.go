package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/shopvista/internal/domain"
	apperrors "github.com/utafrali/shopvista/pkg/errors"
)

func setupTestRedis(t *testing.T) (*SessionRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSessionRepository(client, 2*time.Hour), mr
}

func sampleSession() *domain.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	desc := "Classic American novel by F. Scott Fitzgerald"
	s := domain.NewSession("7f1c2b0e-3d4a-4c5b-9e8f-0a1b2c3d4e5f", now, 2*time.Hour)
	s.Cart = domain.Cart{
		{
			Product: domain.Product{
				ID:          3,
				Name:        "The Great Gatsby",
				Category:    domain.CategoryBooks,
				Price:       1199,
				Description: &desc,
			},
			Quantity: 2,
		},
	}
	return s
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestSessionRepository_Get_Success(t *testing.T) {
	repo, mr := setupTestRedis(t)

	s := sampleSession()
	s.Version = 4
	data, err := json.Marshal(s)
	require.NoError(t, err)
	require.NoError(t, mr.Set(keyPrefix+s.ID, string(data)))

	got, err := repo.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, 4, got.Version)
	require.Len(t, got.Cart, 1)
	assert.Equal(t, int64(3), got.Cart[0].ID)
	assert.Equal(t, "The Great Gatsby", got.Cart[0].Name)
	assert.Equal(t, 2, got.Cart[0].Quantity)
	require.NotNil(t, got.Cart[0].Description)
	assert.Equal(t, "Classic American novel by F. Scott Fitzgerald", *got.Cart[0].Description)
	assert.Nil(t, got.Cart[0].Rating)
}

func TestSessionRepository_Get_NotFound(t *testing.T) {
	repo, _ := setupTestRedis(t)

	got, err := repo.Get(context.Background(), "nope")
	assert.Nil(t, got)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionRepository_Get_InvalidJSON(t *testing.T) {
	repo, mr := setupTestRedis(t)
	require.NoError(t, mr.Set(keyPrefix+"bad", "{{not-json"))

	got, err := repo.Get(context.Background(), "bad")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal session")
}

func TestSessionRepository_Get_ConnectionError(t *testing.T) {
	repo, mr := setupTestRedis(t)
	mr.Close()

	_, err := repo.Get(context.Background(), "any")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get session")
}

// ---------------------------------------------------------------------------
// SaveIfVersion
// ---------------------------------------------------------------------------

func TestSessionRepository_SaveIfVersion_Create(t *testing.T) {
	repo, mr := setupTestRedis(t)
	s := sampleSession()

	ok, err := repo.SaveIfVersion(context.Background(), s, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, s.Version)

	assert.True(t, mr.Exists(keyPrefix+s.ID))
	assert.Equal(t, 2*time.Hour, mr.TTL(keyPrefix+s.ID))

	raw, err := mr.Get(keyPrefix + s.ID)
	require.NoError(t, err)
	var stored domain.Session
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, 1, stored.Version)
	assert.Equal(t, s.Cart.Total(), stored.Cart.Total())
}

func TestSessionRepository_SaveIfVersion_VersionMismatch(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()
	s := sampleSession()

	ok, err := repo.SaveIfVersion(ctx, s, 0)
	require.NoError(t, err)
	require.True(t, ok)

	stale := sampleSession()
	ok, err = repo.SaveIfVersion(ctx, stale, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, stale.Version)

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
}

func TestSessionRepository_SaveIfVersion_Update(t *testing.T) {
	repo, _ := setupTestRedis(t)
	ctx := context.Background()
	s := sampleSession()

	_, err := repo.SaveIfVersion(ctx, s, 0)
	require.NoError(t, err)

	s.Cart = domain.Cart{}
	ok, err := repo.SaveIfVersion(ctx, s, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, s.Version)

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Cart)
	assert.Equal(t, 2, got.Version)
}

func TestSessionRepository_SaveIfVersion_RefreshesTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()
	s := sampleSession()

	_, err := repo.SaveIfVersion(ctx, s, 0)
	require.NoError(t, err)
	mr.FastForward(90 * time.Minute)

	_, err = repo.SaveIfVersion(ctx, s, 1)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, mr.TTL(keyPrefix+s.ID))
}

func TestSessionRepository_ExpiresAfterTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()
	s := sampleSession()

	_, err := repo.SaveIfVersion(ctx, s, 0)
	require.NoError(t, err)
	mr.FastForward(3 * time.Hour)

	_, err = repo.Get(ctx, s.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSessionRepository_SaveIfVersion_CorruptStoredValue(t *testing.T) {
	repo, mr := setupTestRedis(t)
	s := sampleSession()
	require.NoError(t, mr.Set(keyPrefix+s.ID, "garbage"))

	ok, err := repo.SaveIfVersion(context.Background(), s, 0)
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis save session")
}

// ---------------------------------------------------------------------------
// Delete / Ping
// ---------------------------------------------------------------------------

func TestSessionRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()
	s := sampleSession()
	_, err := repo.SaveIfVersion(ctx, s, 0)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, s.ID))
	assert.False(t, mr.Exists(keyPrefix+s.ID))

	require.NoError(t, repo.Delete(ctx, "never-existed"))
}

func TestSessionRepository_Ping(t *testing.T) {
	repo, mr := setupTestRedis(t)
	assert.NoError(t, repo.Ping(context.Background()))

	mr.Close()
	assert.Error(t, repo.Ping(context.Background()))
}
