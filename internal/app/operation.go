package app

import (
	"time"

	"yd-go/internal/yd"
)

// Operation tracks one CLI invocation. Its ID tags every log line the
// invocation writes, so a session can be followed through yd.log.
type Operation struct {
	ID        string
	Command   string
	Args      string
	Status    string // "success" or "error"
	StartedAt time.Time
}

// NewOperation creates an operation for command, stamped with clock.
func NewOperation(command, args string, clock yd.Clock) *Operation {
	now := clock.Now().UTC()
	return &Operation{
		ID:        now.Format("20060102T150405.000Z"),
		Command:   command,
		Args:      args,
		Status:    "success",
		StartedAt: now,
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() {
	op.Status = "error"
}

// Elapsed returns the time since the operation started.
func (op *Operation) Elapsed(clock yd.Clock) time.Duration {
	return clock.Now().Sub(op.StartedAt)
}
