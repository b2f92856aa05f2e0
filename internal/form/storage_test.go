package form

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goodboy-intake/internal/common/database"
)

func newMockedStorage(t *testing.T, ttl time.Duration) (*RedisStorage, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	return NewRedisStorage(&database.RedisClient{Client: client}, ttl), mock
}

func TestRedisStorageLoad(t *testing.T) {
	t.Run("existing draft", func(t *testing.T) {
		storage, mock := newMockedStorage(t, 0)
		mock.ExpectGet("draft:abc").SetVal(`{"status":"draft"}`)

		data, err := storage.Load(context.Background(), "draft:abc")
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"draft"}`, string(data))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing draft maps to ErrNotFound", func(t *testing.T) {
		storage, mock := newMockedStorage(t, 0)
		mock.ExpectGet("draft:missing").RedisNil()

		_, err := storage.Load(context.Background(), "draft:missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("transport errors pass through", func(t *testing.T) {
		storage, mock := newMockedStorage(t, 0)
		mock.ExpectGet("draft:abc").SetErr(errors.New("connection refused"))

		_, err := storage.Load(context.Background(), "draft:abc")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisStorageSaveAppliesTTL(t *testing.T) {
	storage, mock := newMockedStorage(t, 30*24*time.Hour)
	mock.ExpectSet("draft:abc", []byte(`{}`), 30*24*time.Hour).SetVal("OK")

	require.NoError(t, storage.Save(context.Background(), "draft:abc", []byte(`{}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStorageDelete(t *testing.T) {
	storage, mock := newMockedStorage(t, 0)
	mock.ExpectDel("draft:abc").SetVal(1)

	require.NoError(t, storage.Delete(context.Background(), "draft:abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryStorage(t *testing.T) {
	storage := NewMemoryStorage()
	ctx := context.Background()

	_, err := storage.Load(ctx, "draft:abc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, storage.Save(ctx, "draft:abc", []byte(`{"a":1}`)))

	data, err := storage.Load(ctx, "draft:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(data))

	// Callers get a copy, not a view into the stored slice.
	data[0] = 'x'
	again, err := storage.Load(ctx, "draft:abc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(again))

	require.NoError(t, storage.Delete(ctx, "draft:abc"))
	_, err = storage.Load(ctx, "draft:abc")
	assert.ErrorIs(t, err, ErrNotFound)
}
