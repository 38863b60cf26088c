package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"rentalhub/internal/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBackendContract(t *testing.T, b Backend) {
	ctx := context.Background()

	_, _, err := b.Load(ctx)
	require.ErrorIs(t, err, ErrNoDocument)

	rev1, err := b.Save(ctx, []byte(`{"users":[]}`), 0)
	require.NoError(t, err)
	assert.NotZero(t, rev1)

	_, err = b.Save(ctx, []byte(`{"users":[{"id":1}]}`), 0)
	assert.ErrorIs(t, err, ErrRevisionConflict, "create must fail when a document exists")

	data, rev, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, rev1, rev)
	assert.JSONEq(t, `{"users":[]}`, string(data))

	rev2, err := b.Save(ctx, []byte(`{"users":[{"id":1}]}`), rev1)
	require.NoError(t, err)
	assert.NotEqual(t, rev1, rev2)

	_, err = b.Save(ctx, []byte(`{"users":[{"id":2}]}`), rev1)
	assert.ErrorIs(t, err, ErrRevisionConflict, "stale revision must be rejected")

	_, err = b.Save(ctx, []byte(`{"users":[{"id":3}]}`), AnyRevision)
	require.NoError(t, err)

	data, _, err = b.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[{"id":3}]}`, string(data))

	assert.NoError(t, b.Ping(ctx))
}

func TestMemoryBackend(t *testing.T) {
	testBackendContract(t, NewMemoryBackend())
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")
	b, err := NewFileBackend(path)
	require.NoError(t, err)

	testBackendContract(t, b)

	tmps, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, tmps, "temp files must not be left behind")

	_, err = NewFileBackend("")
	assert.Error(t, err)
}

func TestFileBackend_SharedBetweenStores(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.json")

	b1, err := NewFileBackend(path)
	require.NoError(t, err)
	b2, err := NewFileBackend(path)
	require.NoError(t, err)

	s1 := newTestStore(t, b1, Options{})
	s2 := newTestStore(t, b2, Options{})

	_, err = s1.AddItem(ctx, CollectionUsers, Record{"email": "a@example.com"})
	require.NoError(t, err)
	_, err = s2.AddItem(ctx, CollectionUsers, Record{"email": "b@example.com"})
	require.NoError(t, err)

	items, err := s1.GetCollection(ctx, CollectionUsers)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestFileBackend_ConcurrentInstancesConflict(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.json")

	const writers = 8
	backends := make([]*FileBackend, writers)
	for i := range backends {
		b, err := NewFileBackend(path)
		require.NoError(t, err)
		backends[i] = b
	}

	run := func(expected Revision) (int, int) {
		var (
			wg        sync.WaitGroup
			ok        atomic.Int32
			conflicts atomic.Int32
			start     = make(chan struct{})
		)
		for i, b := range backends {
			wg.Add(1)
			go func(i int, b *FileBackend) {
				defer wg.Done()
				<-start
				_, err := b.Save(ctx, []byte(fmt.Sprintf(`{"users":[{"id":%d}]}`, i)), expected)
				switch {
				case err == nil:
					ok.Add(1)
				case errors.Is(err, ErrRevisionConflict):
					conflicts.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}(i, b)
		}
		close(start)
		wg.Wait()
		return int(ok.Load()), int(conflicts.Load())
	}

	ok, conflicts := run(0)
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, conflicts)

	_, rev, err := backends[0].Load(ctx)
	require.NoError(t, err)

	ok, conflicts = run(rev)
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, conflicts)
}

func TestSQLiteBackend(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "rentalhub.db"), "test")
	require.NoError(t, err)
	defer b.Close()

	testBackendContract(t, b)
}

func TestRedisBackend(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	b := NewRedisBackend(client, "test")
	testBackendContract(t, b)

	assert.True(t, s.Exists("test:document"))
	assert.True(t, s.Exists("test:revision"))

	t.Run("NilClient", func(t *testing.T) {
		nb := &RedisBackend{}
		_, _, err := nb.Load(context.Background())
		assert.Error(t, err)
	})
}

func TestOpenBackend(t *testing.T) {
	logger := zerolog.Nop()
	dir := t.TempDir()

	b, err := OpenBackend(config.StorageConfig{Driver: config.DriverMemory}, nil, config.RedisConfig{}, &logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryBackend{}, b)

	b, err = OpenBackend(config.StorageConfig{Driver: config.DriverFile, Path: filepath.Join(dir, "db.json"), FallbackToMemory: true}, nil, config.RedisConfig{}, &logger)
	require.NoError(t, err)
	assert.IsType(t, &FailoverBackend{}, b)

	_, err = OpenBackend(config.StorageConfig{Driver: config.DriverRedis}, nil, config.RedisConfig{}, &logger)
	assert.Error(t, err)

	_, err = OpenBackend(config.StorageConfig{Driver: "mongo"}, nil, config.RedisConfig{}, &logger)
	assert.Error(t, err)
}
