// Package dialogue implements the per-user conversation state machine that
// drives slot booking and FAQ resolution.
package dialogue

import (
	"time"

	"github.com/andeshealth/citabot/internal/appointments"
	"github.com/andeshealth/citabot/internal/faq"
)

// State tags a user's position in the conversation.
type State string

const (
	// StateInitial is the resting state: booking intents and free-text
	// questions are resolved from here.
	StateInitial State = "initial"
	// StateAwaitingSlotChoice means a numbered slot list was offered and the
	// next message should pick one.
	StateAwaitingSlotChoice State = "awaiting_slot_choice"
	// StateAwaitingFAQChoice means ambiguous FAQ candidates were offered and
	// the next message should pick one.
	StateAwaitingFAQChoice State = "awaiting_faq_choice"
)

// Session is one user's conversation position. The payload slice that is
// populated always matches the state tag: Slots while awaiting a slot choice,
// Candidates while awaiting an FAQ choice, neither in the initial state.
type Session struct {
	State        State               `json:"state"`
	Slots        []appointments.Slot `json:"slots,omitempty"`
	Candidates   []faq.Entry         `json:"candidates,omitempty"`
	LastActivity time.Time           `json:"last_activity"`
}

// NewSession returns a fresh initial-state session stamped at now.
func NewSession(now time.Time) *Session {
	return &Session{State: StateInitial, LastActivity: now}
}

// ExpiredAt reports whether the session has been idle longer than ttl.
func (s *Session) ExpiredAt(now time.Time, ttl time.Duration) bool {
	if s == nil {
		return true
	}
	return ttl > 0 && now.Sub(s.LastActivity) > ttl
}

// reset clears payloads and returns the session to the initial state.
func (s *Session) reset() {
	s.State = StateInitial
	s.Slots = nil
	s.Candidates = nil
}
