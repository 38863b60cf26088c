package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const defaultRecoveryInterval = time.Minute

// FailoverBackend serves from primary and switches to fallback when primary
// fails. Every switch overwrites fallback with the last document seen on
// primary, so a second outage never resurrects data from the first one.
// Primary is pinged again after the recovery interval; on recovery the
// fallback document is written back to primary.
type FailoverBackend struct {
	primary  Backend
	fallback Backend
	logger   *zerolog.Logger

	isDown       atomic.Bool
	mu           sync.Mutex
	lastCheck    time.Time
	lastGood     []byte
	recoverAfter time.Duration
	now          func() time.Time
}

func NewFailoverBackend(primary, fallback Backend, logger *zerolog.Logger) *FailoverBackend {
	return &FailoverBackend{
		primary:      primary,
		fallback:     fallback,
		logger:       logger,
		recoverAfter: defaultRecoveryInterval,
		now:          time.Now,
	}
}

func (b *FailoverBackend) Load(ctx context.Context) ([]byte, Revision, error) {
	if b.usePrimary(ctx) {
		data, rev, err := b.primary.Load(ctx)
		if !isInfraError(err) {
			if err == nil {
				b.remember(data)
			}
			return data, rev, err
		}
		b.markDown(ctx, err)
	}
	return b.fallback.Load(ctx)
}

func (b *FailoverBackend) Save(ctx context.Context, data []byte, expected Revision) (Revision, error) {
	if b.usePrimary(ctx) {
		rev, err := b.primary.Save(ctx, data, expected)
		if !isInfraError(err) {
			if err == nil {
				b.remember(data)
			}
			return rev, err
		}
		b.markDown(ctx, err)
		// The caller's revision belongs to primary; let it re-read from fallback.
		if expected != AnyRevision {
			return 0, ErrRevisionConflict
		}
	}
	return b.fallback.Save(ctx, data, expected)
}

// Ping reports primary health while it is up and fallback health otherwise.
func (b *FailoverBackend) Ping(ctx context.Context) error {
	if !b.isDown.Load() {
		return b.primary.Ping(ctx)
	}
	return b.fallback.Ping(ctx)
}

func (b *FailoverBackend) Degraded() bool {
	return b.isDown.Load()
}

func (b *FailoverBackend) Close() error {
	return errors.Join(b.primary.Close(), b.fallback.Close())
}

func (b *FailoverBackend) usePrimary(ctx context.Context) bool {
	if !b.isDown.Load() {
		return true
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.now().Sub(b.lastCheck) <= b.recoverAfter {
		return false
	}
	b.lastCheck = b.now()

	if err := b.primary.Ping(ctx); err != nil {
		return false
	}
	if data, _, err := b.fallback.Load(ctx); err == nil {
		if _, err := b.primary.Save(ctx, data, AnyRevision); err != nil {
			b.logger.Error().Err(err).Msg("Failed to write fallback document back to primary")
			return false
		}
		b.lastGood = append(b.lastGood[:0], data...)
	}
	b.logger.Info().Msg("Primary storage recovered")
	b.isDown.Store(false)
	return true
}

func (b *FailoverBackend) markDown(ctx context.Context, cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastCheck = b.now()
	if b.isDown.Swap(true) {
		// Another caller already switched; fallback may hold newer writes.
		return
	}
	b.logger.Error().Err(cause).Msg("Primary storage failed, falling back to memory")

	if b.lastGood == nil {
		return
	}
	if _, err := b.fallback.Save(ctx, b.lastGood, AnyRevision); err != nil {
		b.logger.Error().Err(err).Msg("Failed to copy last document into fallback")
	}
}

func (b *FailoverBackend) remember(data []byte) {
	b.mu.Lock()
	b.lastGood = append(b.lastGood[:0], data...)
	b.mu.Unlock()
}

func isInfraError(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNoDocument) &&
		!errors.Is(err, ErrRevisionConflict) &&
		!errors.Is(err, context.Canceled) &&
		!errors.Is(err, context.DeadlineExceeded)
}
