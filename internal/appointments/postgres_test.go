package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresStoreListAvailableToday(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	now := time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)
	store := NewPostgresStore(mock, time.UTC).WithClock(fixedClock(now))

	rows := pgxmock.NewRows([]string{"date", "time", "provider", "specialty"}).
		AddRow(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), "09:00", "Dr. Soto", "Medicina General").
		AddRow(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), "10:15", "Dra. Rojas", "Dermatología")
	mock.ExpectQuery("SELECT date, time, provider, specialty").
		WithArgs("2030-01-01", 3).
		WillReturnRows(rows)

	slots, err := store.ListAvailableToday(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListAvailableToday: %v", err)
	}
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d", len(slots))
	}
	if slots[0].Date != "2030-01-01" || slots[0].Time != "09:00" || !slots[0].Available {
		t.Errorf("unexpected first slot %#v", slots[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreListFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock, time.UTC)
	mock.ExpectQuery("SELECT date, time, provider, specialty").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	if _, err := store.ListAvailableToday(context.Background(), 3); err == nil {
		t.Fatal("expected error on query failure")
	}
}

func TestPostgresStoreMarkUnavailable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock, time.UTC)
	key := SlotKey{Date: "2030-01-01", Time: "09:00", Provider: "Dr. Soto"}

	mock.ExpectExec("UPDATE appointment_slots").
		WithArgs(key.Date, key.Time, key.Provider).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.MarkUnavailable(context.Background(), key); err != nil {
		t.Fatalf("MarkUnavailable: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreMarkUnavailableTaken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock, time.UTC)
	key := SlotKey{Date: "2030-01-01", Time: "09:00", Provider: "Dr. Soto"}

	mock.ExpectExec("UPDATE appointment_slots").
		WithArgs(key.Date, key.Time, key.Provider).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(key.Date, key.Time, key.Provider).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	if err := store.MarkUnavailable(context.Background(), key); !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestPostgresStoreMarkUnavailableNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStore(mock, time.UTC)
	key := SlotKey{Date: "2030-01-01", Time: "23:00", Provider: "Nadie"}

	mock.ExpectExec("UPDATE appointment_slots").
		WithArgs(key.Date, key.Time, key.Provider).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(key.Date, key.Time, key.Provider).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	if err := store.MarkUnavailable(context.Background(), key); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}
