package yd

import "time"

// Drawing is a named drawing record as persisted in the gallery.
// Timestamps are Unix milliseconds.
type Drawing struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Thumbnail string `json:"thumbnail"`
	Data      string `json:"data"`
	CreatedAt int64  `json:"createdAt"`
	UpdatedAt int64  `json:"updatedAt"`
}

// Created returns CreatedAt as a time.Time.
func (d Drawing) Created() time.Time { return time.UnixMilli(d.CreatedAt) }

// Updated returns UpdatedAt as a time.Time.
func (d Drawing) Updated() time.Time { return time.UnixMilli(d.UpdatedAt) }
