package model

import (
	"time"

	"slotgen/internal/slots"
)

// Batch is one generated set of slots, kept around so it can be
// re-rendered, paged and exported after the fact. Header carries the
// rendered settings summary the batch was generated with.
type Batch struct {
	ID        string           `json:"id"`
	ChatID    int64            `json:"chat_id"`
	CreatedAt time.Time        `json:"created_at"`
	Requested int              `json:"requested"`
	Profile   string           `json:"profile,omitempty"`
	Header    string           `json:"header"`
	Slots     []slots.TimeSlot `json:"slots"`
}

// Underfulfilled reports whether fewer slots were placed than requested.
func (b *Batch) Underfulfilled() bool {
	return len(b.Slots) < b.Requested
}
