package dialogue

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andeshealth/citabot/internal/appointments"
	"github.com/andeshealth/citabot/internal/calendar"
	"github.com/andeshealth/citabot/internal/faq"
	"github.com/andeshealth/citabot/internal/observability/metrics"
	"github.com/andeshealth/citabot/pkg/logging"
)

// BookingNotice describes a confirmed booking for out-of-band notification.
type BookingNotice struct {
	BookingID   string
	UserID      string
	Slot        appointments.Slot
	ConfirmedAt time.Time
}

// BookingNotifier is told about confirmed bookings. Delivery is best effort;
// the patient's turn never fails because a notification did.
type BookingNotifier interface {
	BookingConfirmed(ctx context.Context, notice BookingNotice)
}

var resetKeywords = []string{"menu", "menú", "inicio", "volver"}

var bookingKeywords = []string{"agendar", "reservar", "cita"}

// Config wires an Engine.
type Config struct {
	Sessions SessionStore
	Slots    appointments.Store
	Matcher  *faq.Matcher

	// SlotLimit caps the offered list. Default 3.
	SlotLimit int
	// SessionTTL is the inactivity window after which a session is discarded
	// before the next turn is processed. Default 15 minutes.
	SessionTTL time.Duration
	// Location is the reference timezone for calendar links.
	Location *time.Location
	// CalendarLocation goes into the calendar event's location field.
	CalendarLocation string

	Notifier BookingNotifier
	Metrics  *metrics.ConversationMetrics
	Logger   *logging.Logger
}

// Engine is the per-user dialogue state machine. One turn is synchronous:
// load state, at most one store/index round trip, mutate state, reply.
type Engine struct {
	sessions SessionStore
	slots    appointments.Store
	matcher  *faq.Matcher

	slotLimit        int
	sessionTTL       time.Duration
	loc              *time.Location
	calendarLocation string

	notifier BookingNotifier
	metrics  *metrics.ConversationMetrics
	logger   *logging.Logger
	locks    *keyedMutex
	now      func() time.Time
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Sessions == nil {
		panic("dialogue: session store required")
	}
	if cfg.Slots == nil {
		panic("dialogue: appointment store required")
	}
	if cfg.Matcher == nil {
		panic("dialogue: matcher required")
	}
	if cfg.SlotLimit <= 0 {
		cfg.SlotLimit = 3
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 15 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Engine{
		sessions:         cfg.Sessions,
		slots:            cfg.Slots,
		matcher:          cfg.Matcher,
		slotLimit:        cfg.SlotLimit,
		sessionTTL:       cfg.SessionTTL,
		loc:              cfg.Location,
		calendarLocation: cfg.CalendarLocation,
		notifier:         cfg.Notifier,
		metrics:          cfg.Metrics,
		logger:           cfg.Logger,
		locks:            newKeyedMutex(),
		now:              time.Now,
	}
}

// WithClock overrides the engine's notion of now. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// HandleMessage processes one inbound message and returns the reply text.
// Turns for the same user are serialized; different users proceed in
// parallel. This method never returns an empty reply.
func (e *Engine) HandleMessage(ctx context.Context, userID, body string) string {
	lock := e.locks.get(userID)
	lock.Lock()
	defer lock.Unlock()

	now := e.now()
	sess := e.loadSession(ctx, userID, now)
	entryState := string(sess.State)

	reply, outcome := e.dispatch(ctx, userID, sess, body)

	sess.LastActivity = now
	if err := e.sessions.Put(ctx, userID, sess); err != nil {
		// The reply still goes out; the next turn starts from a stale or
		// fresh session, both of which the machine tolerates.
		e.logger.Error("failed to persist session", "error", err, "user_id", userID)
	}

	e.metrics.ObserveTurn(entryState, outcome)
	e.logger.Info("turn handled",
		"user_id", userID,
		"state", entryState,
		"new_state", sess.State,
		"outcome", outcome,
	)
	return reply
}

// loadSession fetches the user's session, discarding it when idle past the
// TTL. Store read failures degrade to a fresh session.
func (e *Engine) loadSession(ctx context.Context, userID string, now time.Time) *Session {
	sess, err := e.sessions.Get(ctx, userID)
	if err != nil {
		e.logger.Error("failed to load session", "error", err, "user_id", userID)
		return NewSession(now)
	}
	if sess == nil {
		return NewSession(now)
	}
	if sess.ExpiredAt(now, e.sessionTTL) {
		e.logger.Debug("session expired", "user_id", userID, "idle_since", sess.LastActivity)
		return NewSession(now)
	}
	return sess
}

func (e *Engine) dispatch(ctx context.Context, userID string, sess *Session, body string) (string, string) {
	input := strings.ToLower(strings.TrimSpace(body))

	if isResetKeyword(input) {
		sess.reset()
		return replyMenu, "menu"
	}

	switch sess.State {
	case StateAwaitingSlotChoice:
		return e.handleSlotChoice(ctx, userID, sess, input)
	case StateAwaitingFAQChoice:
		return e.handleFAQChoice(sess, input)
	default:
		return e.handleInitial(ctx, sess, input)
	}
}

func (e *Engine) handleInitial(ctx context.Context, sess *Session, input string) (string, string) {
	if containsBookingIntent(input) {
		slots, err := e.slots.ListAvailableToday(ctx, e.slotLimit)
		if err != nil {
			// Data source down: degrade to "no slots", never crash the turn.
			e.logger.Error("failed to list available slots", "error", err)
			slots = nil
		}
		if len(slots) == 0 {
			return replyNoSlots, "no_slots"
		}
		sess.State = StateAwaitingSlotChoice
		sess.Slots = slots
		sess.Candidates = nil
		return replySlotList(slots), "slots_offered"
	}

	result := e.matcher.Match(input)
	switch result.Outcome {
	case faq.Confident:
		return result.Top().Entry.Answer, "faq_answer"
	case faq.Ambiguous:
		candidates := make([]faq.Entry, 0, len(result.Candidates))
		for _, c := range result.Candidates {
			candidates = append(candidates, c.Entry)
		}
		sess.State = StateAwaitingFAQChoice
		sess.Candidates = candidates
		sess.Slots = nil
		return replyFAQChoices(candidates), "faq_disambiguation"
	default:
		return replyGuidance, "no_match"
	}
}

func (e *Engine) handleSlotChoice(ctx context.Context, userID string, sess *Session, input string) (string, string) {
	n, ok := parseChoice(input)
	if !ok {
		return replyNotANumber(len(sess.Slots)), "invalid_number"
	}
	if n < 1 || n > len(sess.Slots) {
		return replyOutOfRange(len(sess.Slots)), "out_of_range"
	}
	chosen := sess.Slots[n-1]

	// Availability can change between offer and confirmation; re-validate
	// against a fresh read before committing.
	fresh, err := e.slots.ListAvailableToday(ctx, e.slotLimit)
	if err != nil {
		e.logger.Error("failed to re-validate availability", "error", err)
		fresh = nil
	}
	if !containsSlot(fresh, chosen.Key()) {
		sess.reset()
		e.metrics.ObserveBooking("stale")
		return replySlotStale, "slot_stale"
	}

	if err := e.slots.MarkUnavailable(ctx, chosen.Key()); err != nil {
		if errors.Is(err, appointments.ErrSlotTaken) || errors.Is(err, appointments.ErrSlotNotFound) {
			// Lost the race after re-validation.
			sess.reset()
			e.metrics.ObserveBooking("stale")
			return replySlotStale, "slot_stale"
		}
		e.logger.Error("failed to mark slot unavailable", "error", err, "slot", chosen.Key())
		e.metrics.ObserveBooking("retry")
		return replyBookingRetry, "booking_retry"
	}

	link, err := calendar.EventLink(chosen, e.loc, e.calendarLocation)
	if err != nil {
		// Confirmation without the link beats losing the booking.
		e.logger.Warn("failed to build calendar link", "error", err, "slot", chosen.Key())
		link = ""
	}

	e.notifyBooking(ctx, userID, chosen)
	sess.reset()
	e.metrics.ObserveBooking("confirmed")
	return replyBookingConfirmed(chosen, link), "booked"
}

func (e *Engine) handleFAQChoice(sess *Session, input string) (string, string) {
	n, ok := parseChoice(input)
	if !ok {
		return replyNotANumber(len(sess.Candidates)), "invalid_number"
	}
	if n < 1 || n > len(sess.Candidates) {
		return replyOutOfRange(len(sess.Candidates)), "out_of_range"
	}
	answer := sess.Candidates[n-1].Answer
	sess.reset()
	return answer, "faq_selected"
}

func (e *Engine) notifyBooking(ctx context.Context, userID string, slot appointments.Slot) {
	if e.notifier == nil {
		return
	}
	e.notifier.BookingConfirmed(ctx, BookingNotice{
		BookingID:   uuid.NewString(),
		UserID:      userID,
		Slot:        slot,
		ConfirmedAt: e.now(),
	})
}

func isResetKeyword(input string) bool {
	for _, kw := range resetKeywords {
		if input == kw {
			return true
		}
	}
	return false
}

func containsBookingIntent(input string) bool {
	for _, kw := range bookingKeywords {
		if strings.Contains(input, kw) {
			return true
		}
	}
	return false
}

// parseChoice strips everything but digits before parsing, so "1.", " 2 "
// and "opción 3" all count as numeric answers.
func parseChoice(input string) (int, bool) {
	var digits strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0, false
	}
	return n, true
}

func containsSlot(slots []appointments.Slot, key appointments.SlotKey) bool {
	for _, s := range slots {
		if s.Key() == key {
			return true
		}
	}
	return false
}
