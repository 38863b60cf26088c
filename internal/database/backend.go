package database

import (
	"context"
	"hash/fnv"
	"sync"
)

// Revision identifies one stored version of the document. Zero means no
// document is stored.
type Revision uint64

// AnyRevision disables the optimistic check in Backend.Save.
const AnyRevision = ^Revision(0)

// Backend persists the raw document bytes.
type Backend interface {
	// Load returns ErrNoDocument when nothing is stored.
	Load(ctx context.Context) ([]byte, Revision, error)
	// Save stores data if the current revision equals expected (0 means the
	// document must not exist yet) and returns the new revision. It returns
	// ErrRevisionConflict otherwise.
	Save(ctx context.Context, data []byte, expected Revision) (Revision, error)
	Ping(ctx context.Context) error
	Close() error
}

func checksum(data []byte) Revision {
	h := fnv.New64a()
	_, _ = h.Write(data)
	rev := Revision(h.Sum64())
	if rev == 0 || rev == AnyRevision {
		rev = 1
	}
	return rev
}

// MemoryBackend keeps the document in process memory.
type MemoryBackend struct {
	mu       sync.RWMutex
	data     []byte
	revision Revision
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (b *MemoryBackend) Load(ctx context.Context) ([]byte, Revision, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.revision == 0 {
		return nil, 0, ErrNoDocument
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, b.revision, nil
}

func (b *MemoryBackend) Save(ctx context.Context, data []byte, expected Revision) (Revision, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if expected != AnyRevision && expected != b.revision {
		return 0, ErrRevisionConflict
	}
	b.data = append([]byte(nil), data...)
	b.revision++
	return b.revision, nil
}

func (b *MemoryBackend) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (b *MemoryBackend) Close() error {
	return nil
}
