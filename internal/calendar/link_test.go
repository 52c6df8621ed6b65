package calendar

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/andeshealth/citabot/internal/appointments"
)

func TestEventLink(t *testing.T) {
	// Fixed-offset zone keeps the UTC conversion independent of tzdata.
	loc := time.FixedZone("CLT", -4*60*60)
	slot := appointments.Slot{
		Date:      "2030-01-15",
		Time:      "09:30",
		Provider:  "Dr. Soto",
		Specialty: "Medicina General",
	}

	link, err := EventLink(slot, loc, "Hospital DIPRECA")
	if err != nil {
		t.Fatalf("EventLink: %v", err)
	}
	if !strings.HasPrefix(link, "https://www.google.com/calendar/render?") {
		t.Fatalf("unexpected endpoint in %s", link)
	}

	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	q := parsed.Query()

	if got := q.Get("action"); got != "TEMPLATE" {
		t.Errorf("action = %q", got)
	}
	if got := q.Get("text"); got != "Cita médica con Dr. Soto" {
		t.Errorf("text = %q", got)
	}
	// 09:30 at UTC-4 is 13:30 UTC; the window is 30 minutes.
	if got := q.Get("dates"); got != "20300115T133000Z/20300115T140000Z" {
		t.Errorf("dates = %q", got)
	}
	if got := q.Get("details"); got != "Especialidad: Medicina General" {
		t.Errorf("details = %q", got)
	}
	if got := q.Get("location"); got != "Hospital DIPRECA" {
		t.Errorf("location = %q", got)
	}
}

func TestEventLinkBadSlot(t *testing.T) {
	_, err := EventLink(appointments.Slot{Date: "mañana", Time: "temprano"}, time.UTC, "")
	if err == nil {
		t.Fatal("expected error for unparseable slot")
	}
}
