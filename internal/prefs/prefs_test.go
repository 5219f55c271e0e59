package prefs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type failingStore struct{}

func (failingStore) Get(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("connection reset")
}
func (failingStore) Set(context.Context, string, string, []byte) error {
	return errors.New("connection reset")
}
func (failingStore) Delete(context.Context, string, string) error {
	return errors.New("connection reset")
}

func TestSanitizeServiceIDs(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"nil", nil, []int{}},
		{"order kept", []int{337, 8, 9}, []int{337, 8, 9}},
		{"duplicates dropped", []int{8, 9, 8, 9}, []int{8, 9}},
		{"unknown dropped", []int{2, 8, -1, 0, 99999, 1899}, []int{8, 1899}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeServiceIDs(tt.in))
		})
	}
}

func testStoreContract(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	client := uuid.NewString()

	_, err := st.Get(ctx, client, ServicesKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Set(ctx, client, ServicesKey, []byte(`[8,9]`)))
	got, err := st.Get(ctx, client, ServicesKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[8,9]`, string(got))

	require.NoError(t, st.Set(ctx, client, ServicesKey, []byte(`[337]`)))
	got, err = st.Get(ctx, client, ServicesKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[337]`, string(got))

	_, err = st.Get(ctx, uuid.NewString(), ServicesKey)
	assert.ErrorIs(t, err, ErrNotFound, "clients are isolated")

	require.NoError(t, st.Delete(ctx, client, ServicesKey))
	require.NoError(t, st.Delete(ctx, client, ServicesKey))
	_, err = st.Get(ctx, client, ServicesKey)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	st := NewMemoryStore()
	buf := []byte(`[8]`)
	require.NoError(t, st.Set(context.Background(), "c", "k", buf))
	buf[1] = '9'

	got, err := st.Get(context.Background(), "c", "k")
	require.NoError(t, err)
	assert.Equal(t, `[8]`, string(got))
}

func TestFileStore(t *testing.T) {
	testStoreContract(t, NewFileStore(filepath.Join(t.TempDir(), "nested", "prefs.json")))
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	ctx := context.Background()

	_, err := SaveServices(ctx, NewFileStore(path), "local", []int{9, 8})
	require.NoError(t, err)

	assert.Equal(t, []int{9, 8}, LoadServices(ctx, NewFileStore(path), "local", quietLogger()))
}

func TestFileStoreRejectsNonJSON(t *testing.T) {
	st := NewFileStore(filepath.Join(t.TempDir(), "prefs.json"))
	assert.Error(t, st.Set(context.Background(), "c", "k", []byte("not json")))
}

func TestFileStoreDamagedFileReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o600))

	assert.Equal(t, []int{}, LoadServices(context.Background(), NewFileStore(path), "local", quietLogger()))
}

func TestLoadServicesDegrades(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	assert.Equal(t, []int{}, LoadServices(ctx, st, "absent", quietLogger()))

	require.NoError(t, st.Set(ctx, "corrupt", ServicesKey, []byte(`{"not":"a list"}`)))
	assert.Equal(t, []int{}, LoadServices(ctx, st, "corrupt", quietLogger()))

	require.NoError(t, st.Set(ctx, "stale", ServicesKey, []byte(`[8,2,8,337]`)))
	assert.Equal(t, []int{8, 337}, LoadServices(ctx, st, "stale", quietLogger()))

	assert.Equal(t, []int{}, LoadServices(ctx, failingStore{}, "any", nil))
}

func TestSaveServicesStoresSanitized(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	saved, err := SaveServices(ctx, st, "c", []int{15, 15, 7, 531})
	require.NoError(t, err)
	assert.Equal(t, []int{15, 531}, saved)

	raw, err := st.Get(ctx, "c", ServicesKey)
	require.NoError(t, err)
	assert.JSONEq(t, `[15,531]`, string(raw))

	_, err = SaveServices(ctx, failingStore{}, "c", []int{8})
	assert.Error(t, err)
}

func TestClearServices(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	_, err := SaveServices(ctx, st, "c", []int{8})
	require.NoError(t, err)

	require.NoError(t, ClearServices(ctx, st, "c"))
	assert.Equal(t, []int{}, LoadServices(ctx, st, "c", quietLogger()))
	assert.Error(t, ClearServices(ctx, failingStore{}, "c"))
}

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := OpenRedis(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStoreContract(t *testing.T) {
	_, client := newMiniRedis(t)
	st := NewRedisStore(client, time.Hour)
	require.NoError(t, st.HealthCheck(context.Background()))
	testStoreContract(t, st)
}

func TestRedisStoreKeysAndExpiry(t *testing.T) {
	mr, client := newMiniRedis(t)
	ctx := context.Background()
	st := NewRedisStore(client, time.Hour)

	_, err := SaveServices(ctx, st, "client-1", []int{9, 8})
	require.NoError(t, err)
	raw, err := mr.Get("reelpick:prefs:client-1:services")
	require.NoError(t, err)
	assert.JSONEq(t, `[9,8]`, raw)
	assert.Equal(t, time.Hour, mr.TTL("reelpick:prefs:client-1:services"))

	mr.FastForward(30 * time.Minute)
	_, err = SaveServices(ctx, st, "client-1", []int{8})
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL("reelpick:prefs:client-1:services"), "writes refresh the expiry")

	mr.FastForward(time.Hour + time.Second)
	_, err = st.Get(ctx, "client-1", ServicesKey)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []int{}, LoadServices(ctx, st, "client-1", quietLogger()))
}

func TestRedisStoreZeroTTLKeepsValues(t *testing.T) {
	mr, client := newMiniRedis(t)
	st := NewRedisStore(client, 0)

	require.NoError(t, st.Set(context.Background(), "c", ServicesKey, []byte(`[8]`)))
	assert.Equal(t, time.Duration(0), mr.TTL("reelpick:prefs:c:services"))
	mr.FastForward(24 * 365 * time.Hour)
	got, err := st.Get(context.Background(), "c", ServicesKey)
	require.NoError(t, err)
	assert.Equal(t, `[8]`, string(got))
}

func TestRedisStoreServerErrors(t *testing.T) {
	mr, client := newMiniRedis(t)
	ctx := context.Background()
	st := NewRedisStore(client, time.Hour)

	mr.SetError("LOADING dataset in memory")
	_, err := st.Get(ctx, "c", ServicesKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Error(t, st.Set(ctx, "c", ServicesKey, []byte(`[8]`)))
	assert.Error(t, st.Delete(ctx, "c", ServicesKey))
	assert.Error(t, st.HealthCheck(ctx))
}

func TestRedisStoreExternalServer(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := OpenRedis(ctx, url)
	require.NoError(t, err)
	defer client.Close()

	st := NewRedisStore(client, time.Minute)
	require.NoError(t, st.HealthCheck(ctx))
	testStoreContract(t, st)

	clientID := uuid.NewString()
	require.NoError(t, st.Set(ctx, clientID, ServicesKey, []byte(`[8]`)))
	ttl, err := client.TTL(ctx, redisKey(clientID, ServicesKey)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestOpenRedisRejectsBadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "://nope")
	assert.Error(t, err)
}
