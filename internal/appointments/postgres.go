package appointments

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore reads and books slots in the appointment_slots table.
type PostgresStore struct {
	db  db
	loc *time.Location
	now func() time.Time
}

// NewPostgresStore creates a store that resolves "today" in loc.
func NewPostgresStore(db db, loc *time.Location) *PostgresStore {
	if db == nil {
		panic("appointments: db required")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PostgresStore{
		db:  db,
		loc: loc,
		now: time.Now,
	}
}

// WithClock overrides the store's notion of now. Test hook.
func (s *PostgresStore) WithClock(now func() time.Time) *PostgresStore {
	s.now = now
	return s
}

// ListAvailableToday returns today's open slots ordered by time ascending.
func (s *PostgresStore) ListAvailableToday(ctx context.Context, limit int) ([]Slot, error) {
	if limit <= 0 {
		return nil, nil
	}
	today := s.now().In(s.loc).Format(DateLayout)

	query := `
		SELECT date, time, provider, specialty
		FROM appointment_slots
		WHERE date = $1 AND available
		ORDER BY time ASC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, today, limit)
	if err != nil {
		return nil, fmt.Errorf("appointments: list available: %w", err)
	}
	defer rows.Close()

	var slots []Slot
	for rows.Next() {
		var (
			date time.Time
			slot Slot
		)
		if err := rows.Scan(&date, &slot.Time, &slot.Provider, &slot.Specialty); err != nil {
			return nil, fmt.Errorf("appointments: scan slot: %w", err)
		}
		slot.Date = date.Format(DateLayout)
		slot.Available = true
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate slots: %w", err)
	}
	return slots, nil
}

// MarkUnavailable books a slot with a single conditional write. The
// availability predicate in the WHERE clause is what keeps two racing
// bookings from both succeeding.
func (s *PostgresStore) MarkUnavailable(ctx context.Context, key SlotKey) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE appointment_slots
		SET available = false
		WHERE date = $1 AND time = $2 AND provider = $3 AND available
	`, key.Date, key.Time, key.Provider)
	if err != nil {
		return fmt.Errorf("appointments: mark unavailable: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointment_slots
			WHERE date = $1 AND time = $2 AND provider = $3
		)
	`, key.Date, key.Time, key.Provider).Scan(&exists)
	if err != nil {
		return fmt.Errorf("appointments: check slot existence: %w", err)
	}
	if exists {
		return ErrSlotTaken
	}
	return ErrSlotNotFound
}
