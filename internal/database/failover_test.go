package database

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Load(ctx context.Context) ([]byte, Revision, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, Revision(args.Int(1)), args.Error(2)
	}
	return args.Get(0).([]byte), Revision(args.Int(1)), args.Error(2)
}

func (m *mockBackend) Save(ctx context.Context, data []byte, expected Revision) (Revision, error) {
	args := m.Called(ctx, data, expected)
	return Revision(args.Int(0)), args.Error(1)
}

func (m *mockBackend) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockBackend) Close() error {
	return m.Called().Error(0)
}

func TestFailoverBackend(t *testing.T) {
	ctx := context.Background()
	primary := new(mockBackend)
	fallback := NewMemoryBackend()
	logger := zerolog.New(io.Discard)
	b := NewFailoverBackend(primary, fallback, &logger)

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }

	doc := []byte(`{"users":[{"id":1}]}`)

	t.Run("PrimarySuccess", func(t *testing.T) {
		primary.On("Load", ctx).Return(doc, 3, nil).Once()

		data, rev, err := b.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, Revision(3), rev)
		assert.Equal(t, doc, data)
		assert.False(t, b.Degraded())
		primary.AssertExpectations(t)
	})

	t.Run("ConflictIsNotAFailure", func(t *testing.T) {
		primary.On("Save", ctx, doc, Revision(2)).Return(0, ErrRevisionConflict).Once()

		_, err := b.Save(ctx, doc, 2)
		assert.ErrorIs(t, err, ErrRevisionConflict)
		assert.False(t, b.Degraded())
	})

	t.Run("PrimaryFailureSwitchesToFallback", func(t *testing.T) {
		primary.On("Load", ctx).Return(nil, 0, errors.New("connection refused")).Once()

		data, _, err := b.Load(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, string(doc), string(data), "fallback starts from the last primary document")
		assert.True(t, b.Degraded())
	})

	t.Run("StaysOnFallbackBeforeRecoveryInterval", func(t *testing.T) {
		_, rev, err := fallback.Load(ctx)
		require.NoError(t, err)

		_, err = b.Save(ctx, []byte(`{"users":[{"id":2}]}`), rev)
		require.NoError(t, err)
		primary.AssertNumberOfCalls(t, "Save", 1)
	})

	t.Run("RecoveryWritesBack", func(t *testing.T) {
		clock = clock.Add(2 * time.Minute)
		primary.On("Ping", ctx).Return(nil).Once()
		primary.On("Save", ctx, []byte(`{"users":[{"id":2}]}`), AnyRevision).Return(9, nil).Once()
		primary.On("Load", ctx).Return([]byte(`{"users":[{"id":2}]}`), 9, nil).Once()

		_, rev, err := b.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, Revision(9), rev)
		assert.False(t, b.Degraded())
		primary.AssertExpectations(t)
	})
}

// flakyBackend is a memory backend that can be switched off.
type flakyBackend struct {
	*MemoryBackend
	down atomic.Bool
}

var errUnavailable = errors.New("connection refused")

func (b *flakyBackend) Load(ctx context.Context) ([]byte, Revision, error) {
	if b.down.Load() {
		return nil, 0, errUnavailable
	}
	return b.MemoryBackend.Load(ctx)
}

func (b *flakyBackend) Save(ctx context.Context, data []byte, expected Revision) (Revision, error) {
	if b.down.Load() {
		return 0, errUnavailable
	}
	return b.MemoryBackend.Save(ctx, data, expected)
}

func (b *flakyBackend) Ping(ctx context.Context) error {
	if b.down.Load() {
		return errUnavailable
	}
	return nil
}

func TestFailoverBackend_SecondOutage(t *testing.T) {
	ctx := context.Background()
	primary := &flakyBackend{MemoryBackend: NewMemoryBackend()}
	logger := zerolog.New(io.Discard)
	b := NewFailoverBackend(primary, NewMemoryBackend(), &logger)

	clock := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return clock }
	s := newTestStore(t, b, Options{})

	add := func(name string) {
		t.Helper()
		_, err := s.AddItem(ctx, CollectionProducts, Record{"name": name})
		require.NoError(t, err)
	}
	names := func() []string {
		t.Helper()
		items, err := s.GetCollection(ctx, CollectionProducts)
		require.NoError(t, err)
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item["name"].(string))
		}
		return out
	}

	add("A")

	primary.down.Store(true)
	add("B")
	require.True(t, b.Degraded())

	primary.down.Store(false)
	clock = clock.Add(2 * time.Minute)
	add("C")
	require.False(t, b.Degraded())
	add("D")

	primary.down.Store(true)
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(), "fallback must not serve the first outage's document")
	require.True(t, b.Degraded())

	primary.down.Store(false)
	clock = clock.Add(2 * time.Minute)
	add("E")
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, names())

	data, _, err := primary.MemoryBackend.Load(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"E"`)
	assert.Contains(t, string(data), `"D"`)
}
