package appointments

import (
	"context"
	"errors"
)

// ErrSlotNotFound indicates the identity tuple matches no slot.
var ErrSlotNotFound = errors.New("appointments: slot not found")

// ErrSlotTaken indicates the slot exists but was already booked.
var ErrSlotTaken = errors.New("appointments: slot already taken")

// Store is the narrow contract the dialogue engine books against.
//
// ListAvailableToday returns today's open slots in the store's reference
// timezone, ordered by time ascending and truncated to limit. Callers are
// expected to treat an error as "no slots": a data-source outage degrades the
// bot, it never crashes a turn.
//
// MarkUnavailable flips the availability flag for exactly one slot as a single
// conditional write keyed on the identity tuple, so two racing bookings cannot
// both succeed. Losing the race yields ErrSlotTaken.
type Store interface {
	ListAvailableToday(ctx context.Context, limit int) ([]Slot, error)
	MarkUnavailable(ctx context.Context, key SlotKey) error
}
