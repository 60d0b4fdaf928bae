package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrStorage is the error FailingStorage returns by default.
var ErrStorage = errors.New("testutil: storage unavailable")

// Storage mirrors the key/value contract used by the persistence adapter.
type Storage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// FailingStorage fails every operation and counts the attempts.
//
// Thread-safety: safe for concurrent use.
type FailingStorage struct {
	Err error

	mu    sync.Mutex
	calls map[string]int
}

// NewFailingStorage creates a FailingStorage returning err, or ErrStorage
// when err is nil.
func NewFailingStorage(err error) *FailingStorage {
	if err == nil {
		err = ErrStorage
	}
	return &FailingStorage{Err: err, calls: make(map[string]int)}
}

func (f *FailingStorage) record(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.Err
}

func (f *FailingStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	return "", false, f.record("get")
}

func (f *FailingStorage) SetItem(ctx context.Context, key, value string) error {
	return f.record("set")
}

func (f *FailingStorage) RemoveItem(ctx context.Context, key string) error {
	return f.record("remove")
}

// Calls returns how many times op ("get", "set", "remove") was attempted.
func (f *FailingStorage) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// BlockingStorage delegates to Inner but parks every operation until
// Release is called, so tests can hold an operation in flight.
//
// Thread-safety: safe for concurrent use.
type BlockingStorage struct {
	Inner Storage

	// Started receives one value each time an operation begins waiting.
	Started chan string

	gate     chan struct{}
	releaser sync.Once
}

// NewBlockingStorage wraps inner.
func NewBlockingStorage(inner Storage) *BlockingStorage {
	return &BlockingStorage{
		Inner:   inner,
		Started: make(chan string, 64),
		gate:    make(chan struct{}),
	}
}

// Release unblocks all current and future operations.
func (b *BlockingStorage) Release() {
	b.releaser.Do(func() { close(b.gate) })
}

func (b *BlockingStorage) wait(ctx context.Context, op string) error {
	b.Started <- op
	select {
	case <-b.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *BlockingStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := b.wait(ctx, "get"); err != nil {
		return "", false, err
	}
	return b.Inner.GetItem(ctx, key)
}

func (b *BlockingStorage) SetItem(ctx context.Context, key, value string) error {
	if err := b.wait(ctx, "set"); err != nil {
		return err
	}
	return b.Inner.SetItem(ctx, key, value)
}

func (b *BlockingStorage) RemoveItem(ctx context.Context, key string) error {
	if err := b.wait(ctx, "remove"); err != nil {
		return err
	}
	return b.Inner.RemoveItem(ctx, key)
}
