package database

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, backend Backend, opts Options) *Store {
	t.Helper()
	if opts.Backoff == nil {
		opts.Backoff = func(int) time.Duration { return time.Millisecond }
	}
	s, err := Open(context.Background(), backend, nil, opts)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedWith(doc Document) Seeder {
	return func() (Document, error) {
		out := Document{}
		for name, items := range doc {
			copied := make([]Record, 0, len(items))
			for _, item := range items {
				copied = append(copied, item.clone())
			}
			out[name] = copied
		}
		return out, nil
	}
}

func TestStore_Initialize(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	seeder := seedWith(Document{
		CollectionProducts: {{"id": 1, "name": "Drill"}},
	})

	s, err := Open(ctx, backend, seeder, Options{})
	require.NoError(t, err)

	items, err := s.GetCollection(ctx, CollectionProducts)
	require.NoError(t, err)
	require.Len(t, items, 1)

	users, err := s.GetCollection(ctx, CollectionUsers)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	_, err = s.AddItem(ctx, CollectionProducts, Record{"name": "Saw"})
	require.NoError(t, err)

	// A second Open on the same backend must not re-seed.
	s2, err := Open(ctx, backend, seeder, Options{})
	require.NoError(t, err)
	items, err = s2.GetCollection(ctx, CollectionProducts)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	require.NoError(t, s2.Reset(ctx))
	items, err = s2.GetCollection(ctx, CollectionProducts)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryBackend(), Options{})

	t.Run("AddAssignsSequentialIDs", func(t *testing.T) {
		first, err := s.AddItem(ctx, CollectionProducts, Record{"name": "Tent", "price": 25})
		require.NoError(t, err)
		id, ok := first.ID()
		require.True(t, ok)
		assert.Equal(t, int64(1), id)

		second, err := s.AddItem(ctx, CollectionProducts, map[string]any{"name": "Kayak", "id": 99})
		require.NoError(t, err)
		id, _ = second.ID()
		assert.Equal(t, int64(2), id)
	})

	t.Run("AddUsesMaxPlusOne", func(t *testing.T) {
		require.NoError(t, s.SaveCollection(ctx, CollectionReviews, []Record{{"id": 7}, {"id": 3}}))
		rec, err := s.AddItem(ctx, CollectionReviews, Record{"rating": 5})
		require.NoError(t, err)
		id, _ := rec.ID()
		assert.Equal(t, int64(8), id)
	})

	t.Run("AddCopiesInput", func(t *testing.T) {
		in := Record{"name": "Bike"}
		_, err := s.AddItem(ctx, CollectionProducts, in)
		require.NoError(t, err)
		_, hasID := in["id"]
		assert.False(t, hasID)
	})

	t.Run("GetItemCoercesID", func(t *testing.T) {
		for _, id := range []any{1, int64(1), 1.0, "1", json.Number("1")} {
			rec, err := s.GetItem(ctx, CollectionProducts, id)
			require.NoError(t, err)
			require.NotNil(t, rec, "id %v", id)
			assert.Equal(t, "Tent", rec["name"])
		}

		rec, err := s.GetItem(ctx, CollectionProducts, 404)
		require.NoError(t, err)
		assert.Nil(t, rec)

		rec, err = s.GetItem(ctx, CollectionProducts, "abc")
		require.NoError(t, err)
		assert.Nil(t, rec)

		rec, err = s.GetItem(ctx, "missing", 1)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("UpdateMergesShallow", func(t *testing.T) {
		rec, err := s.UpdateItem(ctx, CollectionProducts, 1, Record{"price": 30, "id": 50, "status": "rented"})
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, "Tent", rec["name"])
		assert.Equal(t, json.Number("30"), rec["price"])
		assert.Equal(t, "rented", rec["status"])
		id, _ := rec.ID()
		assert.Equal(t, int64(1), id)

		rec, err = s.GetItem(ctx, CollectionProducts, 50)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("UpdateMissingReturnsNil", func(t *testing.T) {
		before, err := s.Export(ctx)
		require.NoError(t, err)

		rec, err := s.UpdateItem(ctx, CollectionProducts, 404, Record{"name": "x"})
		require.NoError(t, err)
		assert.Nil(t, rec)

		after, err := s.Export(ctx)
		require.NoError(t, err)
		assert.JSONEq(t, string(before), string(after))
	})

	t.Run("Delete", func(t *testing.T) {
		ok, err := s.DeleteItem(ctx, CollectionProducts, 2)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.DeleteItem(ctx, CollectionProducts, 2)
		require.NoError(t, err)
		assert.False(t, ok)

		items, err := s.GetCollection(ctx, CollectionProducts)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("DeleteDoesNotReuseMaxID", func(t *testing.T) {
		rec, err := s.AddItem(ctx, CollectionProducts, Record{"name": "Canoe"})
		require.NoError(t, err)
		id, _ := rec.ID()
		assert.Equal(t, int64(4), id)
	})

	t.Run("FilterAndQuery", func(t *testing.T) {
		require.NoError(t, s.SaveCollection(ctx, CollectionBookings, []Record{
			{"id": 1, "user_id": 2, "status": "pending"},
			{"id": 2, "user_id": 3, "status": "pending"},
			{"id": 3, "user_id": 2, "status": "completed"},
		}))

		got, err := s.QueryCollection(ctx, CollectionBookings, Record{"user_id": "2"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = s.QueryCollection(ctx, CollectionBookings, Record{"user_id": 2, "status": "completed"})
		require.NoError(t, err)
		require.Len(t, got, 1)

		got, err = s.FilterCollection(ctx, CollectionBookings, func(r Record) bool { return r["status"] == "pending" })
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = s.FilterCollection(ctx, "missing", func(Record) bool { return true })
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, NewMemoryBackend(), nil, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.GetCollection(ctx, CollectionUsers)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.AddItem(ctx, CollectionUsers, Record{})
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Ping(ctx), ErrClosed)
	assert.NoError(t, s.Close())
}

func TestStore_CorruptDocument(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	_, err := backend.Save(ctx, []byte("{not json"), 0)
	require.NoError(t, err)

	s, err := Open(ctx, backend, nil, Options{})
	require.NoError(t, err)

	_, err = s.GetCollection(ctx, CollectionUsers)
	assert.ErrorIs(t, err, ErrCorruptDocument)
}

// interleavingBackend lets another writer save between the store's load and
// save for the first n saves.
type interleavingBackend struct {
	*MemoryBackend
	mu      sync.Mutex
	n       int
	foreign func(ctx context.Context)
}

func (b *interleavingBackend) Save(ctx context.Context, data []byte, expected Revision) (Revision, error) {
	b.mu.Lock()
	if b.n > 0 {
		b.n--
		b.mu.Unlock()
		b.foreign(ctx)
	} else {
		b.mu.Unlock()
	}
	return b.MemoryBackend.Save(ctx, data, expected)
}

func TestStore_ConflictRetry(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, n int, opts Options) (*Store, *Store) {
		mem := NewMemoryBackend()
		other := newTestStore(t, mem, Options{})
		backend := &interleavingBackend{MemoryBackend: mem, n: n}
		backend.foreign = func(ctx context.Context) {
			_, err := other.AddItem(ctx, CollectionNotifications, Record{"message": "foreign"})
			require.NoError(t, err)
		}
		return newTestStore(t, backend, opts), other
	}

	t.Run("RetriesAndKeepsBothWrites", func(t *testing.T) {
		s, other := setup(t, 1, Options{})

		rec, err := s.AddItem(ctx, CollectionNotifications, Record{"message": "mine"})
		require.NoError(t, err)
		id, _ := rec.ID()
		assert.Equal(t, int64(2), id)

		items, err := other.GetCollection(ctx, CollectionNotifications)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("GivesUp", func(t *testing.T) {
		s, _ := setup(t, 10, Options{MaxConflictRetries: 2})

		_, err := s.AddItem(ctx, CollectionNotifications, Record{"message": "mine"})
		assert.True(t, errors.Is(err, ErrConcurrentModification))
	})

	t.Run("LastWriteWinsLosesForeignWrite", func(t *testing.T) {
		s, other := setup(t, 1, Options{LastWriteWins: true})

		_, err := s.AddItem(ctx, CollectionNotifications, Record{"message": "mine"})
		require.NoError(t, err)

		items, err := other.GetCollection(ctx, CollectionNotifications)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "mine", items[0]["message"])
	})
}

func TestStore_ConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	opts := Options{MaxConflictRetries: 100}
	a := newTestStore(t, backend, opts)
	b := newTestStore(t, backend, opts)

	const perStore = 20
	var wg sync.WaitGroup
	for _, s := range []*Store{a, b} {
		for i := 0; i < perStore; i++ {
			wg.Add(1)
			go func(s *Store) {
				defer wg.Done()
				_, err := s.AddItem(ctx, CollectionBookings, Record{"status": "pending"})
				assert.NoError(t, err)
			}(s)
		}
	}
	wg.Wait()

	items, err := a.GetCollection(ctx, CollectionBookings)
	require.NoError(t, err)
	require.Len(t, items, 2*perStore)

	seen := map[int64]bool{}
	for _, item := range items {
		id, ok := item.ID()
		require.True(t, ok)
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}

func TestStore_SaveCollectionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryBackend(), Options{})

	items := []Record{
		{"id": 1, "name": "Drill", "price": 2.5, "tags": []string{"a", "b"}, "meta": map[string]any{"deposit": 100}},
		{"id": 2, "name": "Saw", "price": 0, "tags": []string{}, "available": true},
	}
	require.NoError(t, s.SaveCollection(ctx, CollectionProducts, items))

	got, err := s.GetCollection(ctx, CollectionProducts)
	require.NoError(t, err)

	want, err := json.Marshal(items)
	require.NoError(t, err)
	back, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(back))

	// Values come back in their JSON form.
	assert.Equal(t, json.Number("2.5"), got[0]["price"])
	assert.Equal(t, []any{"a", "b"}, got[0]["tags"])
}

func TestStore_AddItemIf(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryBackend(), Options{})
	errTaken := errors.New("name taken")

	unique := func(name string) func([]Record) error {
		return func(items []Record) error {
			for _, item := range items {
				if item["name"] == name {
					return errTaken
				}
			}
			return nil
		}
	}

	rec, err := s.AddItemIf(ctx, CollectionProducts, Record{"name": "Drill"}, unique("Drill"))
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), rec["id"])

	_, err = s.AddItemIf(ctx, CollectionProducts, Record{"name": "Drill"}, unique("Drill"))
	assert.ErrorIs(t, err, errTaken)

	items, err := s.GetCollection(ctx, CollectionProducts)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStore_AddItemIfConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryBackend(), Options{})

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		added int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddItemIf(ctx, CollectionUsers, Record{"email": "dup@example.com"}, func(items []Record) error {
				for _, item := range items {
					if item["email"] == "dup@example.com" {
						return errors.New("email taken")
					}
				}
				return nil
			})
			if err == nil {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, added)
	items, err := s.GetCollection(ctx, CollectionUsers)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStore_UpdateItemFunc(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, NewMemoryBackend(), Options{})
	_, err := s.AddItem(ctx, CollectionBookings, Record{"status": "confirmed"})
	require.NoError(t, err)

	errFinal := errors.New("status is final")
	finish := func(status string) func(Record, []Record) (any, error) {
		return func(current Record, _ []Record) (any, error) {
			if current["status"] != "confirmed" {
				return nil, errFinal
			}
			return Record{"status": status, "id": 99}, nil
		}
	}

	rec, err := s.UpdateItemFunc(ctx, CollectionBookings, 1, finish("completed"))
	require.NoError(t, err)
	assert.Equal(t, "completed", rec["status"])
	assert.Equal(t, json.Number("1"), rec["id"])

	_, err = s.UpdateItemFunc(ctx, CollectionBookings, 1, finish("cancelled"))
	assert.ErrorIs(t, err, errFinal)

	rec, err = s.GetItem(ctx, CollectionBookings, 1)
	require.NoError(t, err)
	assert.Equal(t, "completed", rec["status"])

	rec, err = s.UpdateItemFunc(ctx, CollectionBookings, 7, finish("completed"))
	require.NoError(t, err)
	assert.Nil(t, rec)
}
