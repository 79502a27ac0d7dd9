package storage

import (
	"fmt"
	"sync"

	"yd-go/internal/yd"
)

// QuotaStorage caps the total size of another store the way browsers cap
// local storage. Usage is the byte length of every key plus its value.
type QuotaStorage struct {
	inner yd.Storage
	limit int64
	mu    sync.Mutex
}

// NewQuotaStorage wraps inner with a capacity of limit bytes.
func NewQuotaStorage(inner yd.Storage, limit int64) *QuotaStorage {
	return &QuotaStorage{inner: inner, limit: limit}
}

// Limit returns the capacity in bytes.
func (q *QuotaStorage) Limit() int64 { return q.limit }

// Usage returns the bytes currently stored.
func (q *QuotaStorage) Usage() (int64, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.usageExcept("")
}

func (q *QuotaStorage) usageExcept(skip string) (int64, error) {
	keys, err := q.inner.Keys()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, k := range keys {
		if k == skip {
			continue
		}
		v, ok, err := q.inner.GetItem(k)
		if err != nil {
			return 0, err
		}
		if ok {
			total += int64(len(k) + len(v))
		}
	}
	return total, nil
}

func (q *QuotaStorage) GetItem(key string) (string, bool, error) {
	return q.inner.GetItem(key)
}

// SetItem fails with yd.ErrQuotaExceeded when the write would push usage
// past the limit. The previous value is kept in that case.
func (q *QuotaStorage) SetItem(key, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	used, err := q.usageExcept(key)
	if err != nil {
		return fmt.Errorf("measuring usage: %w", err)
	}
	need := int64(len(key) + len(value))
	if used+need > q.limit {
		return fmt.Errorf("%w: %d bytes used, %d requested, limit %d", yd.ErrQuotaExceeded, used, need, q.limit)
	}
	return q.inner.SetItem(key, value)
}

func (q *QuotaStorage) RemoveItem(key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.inner.RemoveItem(key)
}

func (q *QuotaStorage) Keys() ([]string, error) {
	return q.inner.Keys()
}

// Close closes the wrapped store if it holds resources.
func (q *QuotaStorage) Close() error {
	if c, ok := q.inner.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

var _ yd.Storage = (*QuotaStorage)(nil)
