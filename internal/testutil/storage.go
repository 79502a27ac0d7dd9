package testutil

import (
	"errors"
	"sync"

	"yd-go/internal/storage"
	"yd-go/internal/yd"
)

// NewTestStorage creates an empty in-memory storage.
func NewTestStorage() *storage.MemoryStorage {
	return storage.NewMemoryStorage()
}

// NewQuotaTestStorage creates an in-memory storage capped at limit bytes.
func NewQuotaTestStorage(limit int64) *storage.QuotaStorage {
	return storage.NewQuotaStorage(storage.NewMemoryStorage(), limit)
}

// ErrInjected is returned by FailingStorage writes.
var ErrInjected = errors.New("injected storage failure")

// FailingStorage wraps a storage and fails writes on demand.
type FailingStorage struct {
	yd.Storage

	mu        sync.Mutex
	failSet   error
	setCalls  int
	lastValue string
}

// NewFailingStorage wraps inner. Writes pass through until FailWith is called.
func NewFailingStorage(inner yd.Storage) *FailingStorage {
	return &FailingStorage{Storage: inner}
}

// FailWith makes every following SetItem return err. A nil err restores
// normal writes.
func (f *FailingStorage) FailWith(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = err
}

func (f *FailingStorage) SetItem(key, value string) error {
	f.mu.Lock()
	f.setCalls++
	f.lastValue = value
	err := f.failSet
	f.mu.Unlock()

	if err != nil {
		return err
	}
	return f.Storage.SetItem(key, value)
}

// SetCalls returns how many writes were attempted.
func (f *FailingStorage) SetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setCalls
}

// LastValue returns the value of the last attempted write.
func (f *FailingStorage) LastValue() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastValue
}
