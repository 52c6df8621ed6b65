// Package appointments provides read/book access to the clinic's slot table.
package appointments

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for a slot's calendar date.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format for a slot's time of day.
const TimeLayout = "15:04"

// Slot is a single bookable appointment. Identity is (Date, Time, Provider).
type Slot struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Time      string `json:"time"` // HH:MM, 24-hour
	Provider  string `json:"provider"`
	Specialty string `json:"specialty"`
	Available bool   `json:"available"`
}

// SlotKey is the identity tuple used for booking.
type SlotKey struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	Provider string `json:"provider"`
}

// Key returns the slot's identity tuple.
func (s Slot) Key() SlotKey {
	return SlotKey{Date: s.Date, Time: s.Time, Provider: s.Provider}
}

// StartsAt combines Date and Time into a wall-clock instant in loc.
func (s Slot) StartsAt(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, s.Date+" "+s.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("appointments: parse slot start %q %q: %w", s.Date, s.Time, err)
	}
	return t, nil
}
