package yd

// Storage is a string key-value store modelled on browser local storage.
// Backends live in internal/storage.
type Storage interface {
	// GetItem returns the value stored under key. ok is false when the key
	// has never been written or was removed.
	GetItem(key string) (value string, ok bool, err error)

	// SetItem stores value under key, replacing any previous value.
	// Returns an error wrapping ErrQuotaExceeded when the write does not fit.
	SetItem(key, value string) error

	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(key string) error

	// Keys lists every stored key.
	Keys() ([]string, error)
}
