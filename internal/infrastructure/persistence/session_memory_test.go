package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yaarfetch/fetch-gateway/internal/domain/entity"
	"github.com/yaarfetch/fetch-gateway/internal/pkg/apperror"
)

func TestMemorySessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	session := entity.NewSession(entity.User{ID: "u1", Name: "Ali"}, "tok", time.Now().Add(time.Hour))

	require.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", got.AccessToken)

	// копия не должна менять сохранённую сессию
	got.AccessToken = "changed"
	again, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, "tok", again.AccessToken)

	require.NoError(t, store.Delete(ctx, session.ID))
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()
	live := entity.NewSession(entity.User{ID: "u1"}, "a", time.Now().Add(time.Hour))
	dead := entity.NewSession(entity.User{ID: "u2"}, "b", time.Now().Add(-time.Second))

	require.NoError(t, store.Save(ctx, live))
	require.NoError(t, store.Save(ctx, dead))

	_, err := store.Get(ctx, dead.ID)
	assert.ErrorIs(t, err, apperror.ErrSessionNotFound)

	removed, err := store.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
	assert.Equal(t, 1, store.Len())
}
