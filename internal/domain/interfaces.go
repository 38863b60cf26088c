package domain

import (
	"context"
	"time"

	"rentalhub/internal/database"
	"rentalhub/internal/models"
)

// Collection is typed access to one collection of the document store.
// Lookups return nil (or false) without an error when nothing matches.
type Collection[T any] interface {
	Name() string
	All(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id any) (*T, error)
	Add(ctx context.Context, item T) (*T, error)
	// AddIf adds item only when check accepts the existing items; both
	// happen in one write.
	AddIf(ctx context.Context, item T, check func(existing []T) error) (*T, error)
	Update(ctx context.Context, id any, fields database.Record) (*T, error)
	// UpdateFunc merges the fields fn derives from the current item, in one
	// write. An error from fn aborts the update and is returned as is.
	UpdateFunc(ctx context.Context, id any, fn func(current *T, all []T) (database.Record, error)) (*T, error)
	Delete(ctx context.Context, id any) (bool, error)
	Filter(ctx context.Context, pred func(*T) bool) ([]T, error)
	Query(ctx context.Context, match database.Record) ([]T, error)
}

type EventPublisher interface {
	PublishJSON(ctx context.Context, eventType string, payload any) error
}

// JobScheduler runs a handler for a job type after a delay. Scheduled jobs
// are persisted, so they run even if the process restarts in between.
type JobScheduler interface {
	Schedule(ctx context.Context, jobType string, payload any, delay time.Duration) (*models.ScheduledJob, error)
	Handle(jobType string, handler func(ctx context.Context, payload []byte) error)
}

// StoreAdmin is the administrative surface of the document store.
type StoreAdmin interface {
	Reset(ctx context.Context) error
	Export(ctx context.Context) ([]byte, error)
	Ping(ctx context.Context) error
}
