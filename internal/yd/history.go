package yd

// History is a linear undo buffer of serialized scene snapshots.
// The entry at Index is always the state on screen. Recording a new
// snapshot after an undo discards everything past Index; there is no redo.
type History struct {
	entries []string
	index   int
	limit   int
}

// NewHistory returns an empty history. A positive limit caps the number
// of retained entries, dropping the oldest first.
func NewHistory(limit int) *History {
	return &History{index: -1, limit: limit}
}

// Snapshot records state as the new current entry.
func (h *History) Snapshot(state string) {
	if h.index < len(h.entries)-1 {
		h.entries = h.entries[:h.index+1]
	}
	h.entries = append(h.entries, state)
	h.index = len(h.entries) - 1

	if h.limit > 0 && len(h.entries) > h.limit {
		drop := len(h.entries) - h.limit
		h.entries = append([]string(nil), h.entries[drop:]...)
		h.index -= drop
	}
}

// Undo steps back one entry and returns the state to restore.
// ok is false when already at the first entry.
func (h *History) Undo() (state string, ok bool) {
	if h.index <= 0 {
		return "", false
	}
	h.index--
	return h.entries[h.index], true
}

// Previous returns the entry Undo would restore without moving Index.
func (h *History) Previous() (string, bool) {
	if h.index <= 0 {
		return "", false
	}
	return h.entries[h.index-1], true
}

// Reset drops every entry and starts over with state as the only one.
func (h *History) Reset(state string) {
	h.entries = []string{state}
	h.index = 0
}

// Current returns the entry at Index.
func (h *History) Current() (string, bool) {
	if h.index < 0 {
		return "", false
	}
	return h.entries[h.index], true
}

// CanUndo reports whether Undo would do anything.
func (h *History) CanUndo() bool { return h.index > 0 }

// Index returns the position of the current entry, -1 when empty.
func (h *History) Index() int { return h.index }

// Len returns the number of retained entries, including redo candidates.
func (h *History) Len() int { return len(h.entries) }
