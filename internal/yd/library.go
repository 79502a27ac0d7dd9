package yd

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// LibraryKey is the storage key holding the JSON array of drawings.
const LibraryKey = "saved_drawings"

// Library is the persisted collection of drawing records. The whole
// collection lives under a single storage key. Writes are serialised.
type Library struct {
	mu      sync.Mutex
	storage Storage
	clock   Clock
	logger  Logger
}

// NewLibrary creates a Library over storage.
func NewLibrary(storage Storage, clock Clock, logger Logger) *Library {
	return &Library{storage: storage, clock: clock, logger: logger}
}

// List returns every record in storage order.
func (l *Library) List() ([]Drawing, error) {
	raw, ok, err := l.storage.GetItem(LibraryKey)
	if err != nil {
		return nil, fmt.Errorf("reading drawings: %w", err)
	}
	if !ok || raw == "" {
		return []Drawing{}, nil
	}

	var drawings []Drawing
	if err := json.Unmarshal([]byte(raw), &drawings); err != nil {
		return nil, fmt.Errorf("decoding drawings: %w", err)
	}
	if drawings == nil {
		drawings = []Drawing{}
	}
	return drawings, nil
}

// ListRecent returns every record, most recently updated first.
func (l *Library) ListRecent() ([]Drawing, error) {
	drawings, err := l.List()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(drawings, func(i, j int) bool {
		return drawings[i].UpdatedAt > drawings[j].UpdatedAt
	})
	return drawings, nil
}

// Get returns the record with the given id, or ErrNotFound.
func (l *Library) Get(id string) (*Drawing, error) {
	drawings, err := l.List()
	if err != nil {
		return nil, err
	}
	for i := range drawings {
		if drawings[i].ID == id {
			return &drawings[i], nil
		}
	}
	l.logger.Debug("drawing not found", "id", id)
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Save inserts or replaces the record with d.ID. UpdatedAt is always set
// to now; CreatedAt of an existing record is kept.
//
// When storage is full, Save retries once with the thumbnails of every
// other record blanked. If that fails too the returned record is still the
// updated one, together with a *PersistError.
func (l *Library) Save(d Drawing) (Drawing, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	drawings, err := l.List()
	if err != nil {
		return d, &PersistError{DrawingID: d.ID, Err: err}
	}

	now := Millis(l.clock.Now())
	d.UpdatedAt = now

	idx := -1
	for i := range drawings {
		if drawings[i].ID == d.ID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		d.CreatedAt = drawings[idx].CreatedAt
		drawings[idx] = d
		l.logger.Info("updating drawing", "id", d.ID, "name", d.Name)
	} else {
		if d.CreatedAt == 0 {
			d.CreatedAt = now
		}
		drawings = append(drawings, d)
		l.logger.Info("adding drawing", "id", d.ID, "name", d.Name)
	}

	err = l.write(drawings)
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, ErrQuotaExceeded) {
		l.logger.Error("saving drawing failed", "id", d.ID, "error", err)
		return d, &PersistError{DrawingID: d.ID, Err: err}
	}

	l.logger.Warn("storage full, retrying without other thumbnails", "id", d.ID, "records", len(drawings))
	for i := range drawings {
		if drawings[i].ID != d.ID {
			drawings[i].Thumbnail = ""
		}
	}
	if err := l.write(drawings); err != nil {
		l.logger.Error("saving drawing failed after stripping thumbnails", "id", d.ID, "error", err)
		return d, &PersistError{DrawingID: d.ID, Err: err}
	}
	return d, nil
}

// Delete removes the record with id. It reports false if nothing matched.
func (l *Library) Delete(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	drawings, err := l.List()
	if err != nil {
		return false, err
	}

	kept := drawings[:0]
	for _, d := range drawings {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(drawings) {
		l.logger.Debug("nothing to delete", "id", id)
		return false, nil
	}

	if err := l.write(kept); err != nil {
		return false, fmt.Errorf("deleting drawing %s: %w", id, err)
	}
	l.logger.Info("deleted drawing", "id", id)
	return true, nil
}

func (l *Library) write(drawings []Drawing) error {
	data, err := json.Marshal(drawings)
	if err != nil {
		return fmt.Errorf("encoding drawings: %w", err)
	}
	if err := l.storage.SetItem(LibraryKey, string(data)); err != nil {
		return fmt.Errorf("writing drawings: %w", err)
	}
	return nil
}
