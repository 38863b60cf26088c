package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"rentalhub/internal/metrics"

	"github.com/rs/zerolog"
)

const (
	CollectionUsers         = "users"
	CollectionProducts      = "products"
	CollectionBookings      = "bookings"
	CollectionReviews       = "reviews"
	CollectionNotifications = "notifications"
	CollectionScheduledJobs = "scheduled_jobs"
)

// Collections lists the collections every seeded document carries.
var Collections = []string{
	CollectionUsers,
	CollectionProducts,
	CollectionBookings,
	CollectionReviews,
	CollectionNotifications,
	CollectionScheduledJobs,
}

const DefaultMaxConflictRetries = 3

// Seeder produces the dataset written on first start and on Reset.
type Seeder func() (Document, error)

// EmptyDocument returns a document with every known collection empty.
func EmptyDocument() Document {
	doc := make(Document, len(Collections))
	for _, name := range Collections {
		doc[name] = []Record{}
	}
	return doc
}

type Options struct {
	// LastWriteWins skips the revision check on save.
	LastWriteWins      bool
	MaxConflictRetries int
	// Backoff returns the pause before the given conflict retry.
	Backoff func(attempt int) time.Duration
	Logger  *zerolog.Logger
}

// Store is the document store. Every operation reads the whole document
// from the backend and every write stores the whole document back.
type Store struct {
	backend Backend
	seeder  Seeder
	opts    Options
	logger  *zerolog.Logger

	mu     sync.Mutex
	closed bool
}

// Open wraps backend and seeds it when no document exists yet.
func Open(ctx context.Context, backend Backend, seeder Seeder, opts Options) (*Store, error) {
	if backend == nil {
		return nil, errors.New("store: backend is required")
	}
	if seeder == nil {
		seeder = func() (Document, error) { return EmptyDocument(), nil }
	}
	if opts.MaxConflictRetries <= 0 {
		opts.MaxConflictRetries = DefaultMaxConflictRetries
	}
	if opts.Backoff == nil {
		opts.Backoff = func(attempt int) time.Duration { return time.Duration(attempt) * 10 * time.Millisecond }
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "store").Logger()

	s := &Store{backend: backend, seeder: seeder, opts: opts, logger: &l}
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Initialize writes the seed dataset if nothing is stored. It is a no-op
// when a document already exists.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	_, _, err := s.backend.Load(ctx)
	if err == nil {
		s.logger.Debug().Msg("Document already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, ErrNoDocument) {
		return fmt.Errorf("failed to check document: %w", err)
	}

	data, err := s.seedBytes()
	if err != nil {
		return err
	}
	_, err = s.backend.Save(ctx, data, 0)
	if errors.Is(err, ErrRevisionConflict) {
		// Another process seeded first.
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to seed document: %w", err)
	}
	s.logger.Info().Msg("Document seeded with default data")
	return nil
}

// Reset overwrites the stored document with the seed dataset.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	data, err := s.seedBytes()
	if err != nil {
		return err
	}
	if _, err := s.backend.Save(ctx, data, AnyRevision); err != nil {
		metrics.ObserveStoreOp("reset", err)
		return fmt.Errorf("failed to reset document: %w", err)
	}
	metrics.ObserveStoreOp("reset", nil)
	s.logger.Warn().Msg("Document reset to default data")
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.backend.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return ErrClosed
	}
	return s.backend.Ping(ctx)
}

// Export returns the stored document bytes.
func (s *Store) Export(ctx context.Context) ([]byte, error) {
	var out []byte
	err := s.read(ctx, "export", func(doc Document) error {
		data, err := json.MarshalIndent(doc, "", "  ")
		out = data
		return err
	})
	return out, err
}

// GetCollection returns every record of the collection, or an empty slice
// when the collection does not exist. Values come back in their JSON form,
// see SaveCollection.
func (s *Store) GetCollection(ctx context.Context, name string) ([]Record, error) {
	var out []Record
	err := s.read(ctx, "get_collection", func(doc Document) error {
		out = append([]Record{}, doc[name]...)
		return nil
	})
	return out, err
}

// GetItem returns the first record whose id equals id, or nil.
func (s *Store) GetItem(ctx context.Context, name string, id any) (Record, error) {
	want, ok := ToID(id)
	if !ok {
		return nil, nil
	}
	var out Record
	err := s.read(ctx, "get_item", func(doc Document) error {
		items := doc[name]
		if i := indexOf(items, want); i >= 0 {
			out = items[i]
		}
		return nil
	})
	return out, err
}

// FilterCollection returns the records for which pred is true.
func (s *Store) FilterCollection(ctx context.Context, name string, pred func(Record) bool) ([]Record, error) {
	out := []Record{}
	err := s.read(ctx, "filter", func(doc Document) error {
		for _, item := range doc[name] {
			if pred(item) {
				out = append(out, item)
			}
		}
		return nil
	})
	return out, err
}

// QueryCollection returns the records whose fields equal every field of match.
func (s *Store) QueryCollection(ctx context.Context, name string, match Record) ([]Record, error) {
	normalized, err := ToRecord(match)
	if err != nil {
		return nil, err
	}
	return s.FilterCollection(ctx, name, func(r Record) bool {
		return matches(r, normalized)
	})
}

// AddItem stores a copy of item with id = max(existing ids) + 1.
// References to other collections are not checked.
func (s *Store) AddItem(ctx context.Context, name string, item any) (Record, error) {
	return s.AddItemIf(ctx, name, item, nil)
}

// AddItemIf is AddItem guarded by check. check sees the current records of
// the collection within the same read-modify-write as the insert, so no other
// write can slip in between; its error is returned unchanged and nothing is
// stored. check must not modify items.
func (s *Store) AddItemIf(ctx context.Context, name string, item any, check func(items []Record) error) (Record, error) {
	rec, err := ToRecord(item)
	if err != nil {
		return nil, err
	}

	var stored Record
	err = s.mutate(ctx, "add", func(doc Document) (bool, error) {
		items := doc[name]
		if check != nil {
			if err := check(items); err != nil {
				return false, err
			}
		}
		stored = rec.clone()
		stored["id"] = json.Number(fmt.Sprint(nextID(items)))
		doc[name] = append(items, stored)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// UpdateItem shallow-merges partial into the record with the given id and
// returns the merged record, or nil when no such record exists. The id field
// itself is never changed.
func (s *Store) UpdateItem(ctx context.Context, name string, id any, partial any) (Record, error) {
	fields, err := ToRecord(partial)
	if err != nil {
		return nil, err
	}
	return s.UpdateItemFunc(ctx, name, id, func(Record, []Record) (any, error) {
		return fields, nil
	})
}

// UpdateItemFunc merges the fields returned by fn into the record with the
// given id. fn gets a copy of the current record and the whole collection,
// and runs within the same read-modify-write as the save; an error from fn
// is returned unchanged and nothing is saved. The result is nil when no
// record has the id.
func (s *Store) UpdateItemFunc(ctx context.Context, name string, id any, fn func(current Record, items []Record) (any, error)) (Record, error) {
	want, ok := ToID(id)
	if !ok {
		return nil, nil
	}

	var updated Record
	err := s.mutate(ctx, "update", func(doc Document) (bool, error) {
		updated = nil
		items := doc[name]
		i := indexOf(items, want)
		if i < 0 {
			return false, nil
		}
		partial, err := fn(items[i].clone(), items)
		if err != nil {
			return false, err
		}
		fields, err := ToRecord(partial)
		if err != nil {
			return false, err
		}
		merged := items[i].clone()
		for k, v := range fields {
			if k == "id" {
				continue
			}
			merged[k] = v
		}
		items[i] = merged
		updated = merged
		return len(fields) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes the record with the given id and reports whether one
// was removed.
func (s *Store) DeleteItem(ctx context.Context, name string, id any) (bool, error) {
	want, ok := ToID(id)
	if !ok {
		return false, nil
	}

	var deleted bool
	err := s.mutate(ctx, "delete", func(doc Document) (bool, error) {
		items := doc[name]
		i := indexOf(items, want)
		deleted = i >= 0
		if !deleted {
			return false, nil
		}
		doc[name] = append(items[:i:i], items[i+1:]...)
		return true, nil
	})
	return deleted, err
}

// SaveCollection replaces a whole collection. Items are stored in their JSON
// form: GetCollection returns numbers as json.Number, arrays as []any and
// objects as map[string]any, so a round trip is equal as JSON rather than
// as Go values.
func (s *Store) SaveCollection(ctx context.Context, name string, items []Record) error {
	normalized := make([]Record, 0, len(items))
	for _, item := range items {
		rec, err := ToRecord(item)
		if err != nil {
			return err
		}
		normalized = append(normalized, rec)
	}
	return s.mutate(ctx, "save_collection", func(doc Document) (bool, error) {
		doc[name] = normalized
		return true, nil
	})
}

func (s *Store) read(ctx context.Context, op string, fn func(doc Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	doc, _, err := s.load(ctx)
	if err == nil {
		err = fn(doc)
	}
	metrics.ObserveStoreOp(op, err)
	return err
}

// mutate runs fn against a freshly loaded document and saves the result.
// When the backend reports that someone else saved in between, the document
// is loaded again and fn is re-applied, up to MaxConflictRetries times.
// fn returns false when it made no change; nothing is saved then.
func (s *Store) mutate(ctx context.Context, op string, fn func(doc Document) (bool, error)) (err error) {
	defer func() { metrics.ObserveStoreOp(op, err) }()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	for attempt := 0; ; attempt++ {
		doc, rev, err := s.load(ctx)
		if err != nil {
			return err
		}
		changed, err := fn(doc)
		if err != nil || !changed {
			return err
		}

		err = s.save(ctx, doc, rev)
		if !errors.Is(err, ErrRevisionConflict) {
			return err
		}

		metrics.IncStoreConflict()
		if attempt >= s.opts.MaxConflictRetries {
			s.logger.Error().Str("op", op).Int("attempts", attempt+1).Msg("Giving up after revision conflicts")
			return fmt.Errorf("%s: %w", op, ErrConcurrentModification)
		}
		delay := s.opts.Backoff(attempt + 1)
		s.logger.Warn().Str("op", op).Int("attempt", attempt+1).Dur("retry_in", delay).Msg("Document changed concurrently, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (s *Store) load(ctx context.Context) (Document, Revision, error) {
	data, rev, err := s.backend.Load(ctx)
	if errors.Is(err, ErrNoDocument) {
		return Document{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load document: %w", err)
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, 0, err
	}
	return doc, rev, nil
}

func (s *Store) save(ctx context.Context, doc Document, rev Revision) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if s.opts.LastWriteWins {
		rev = AnyRevision
	}
	if _, err := s.backend.Save(ctx, data, rev); err != nil {
		if errors.Is(err, ErrRevisionConflict) {
			return err
		}
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}

func (s *Store) seedBytes() ([]byte, error) {
	doc, err := s.seeder()
	if err != nil {
		return nil, fmt.Errorf("failed to build seed data: %w", err)
	}
	for _, name := range Collections {
		if _, ok := doc[name]; !ok {
			doc[name] = []Record{}
		}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal seed data: %w", err)
	}
	return data, nil
}
