// Package calendar builds "add to calendar" links for confirmed bookings.
package calendar

import (
	"fmt"
	"net/url"
	"time"

	"github.com/andeshealth/citabot/internal/appointments"
)

const renderEndpoint = "https://www.google.com/calendar/render"

const eventDuration = 30 * time.Minute

const stampLayout = "20060102T150405Z"

// EventLink returns a Google Calendar template URL for a booked slot.
// The slot's wall-clock start in loc is normalized to UTC and given the
// default 30-minute duration.
func EventLink(slot appointments.Slot, loc *time.Location, location string) (string, error) {
	start, err := slot.StartsAt(loc)
	if err != nil {
		return "", fmt.Errorf("calendar: %w", err)
	}
	startUTC := start.UTC()
	endUTC := startUTC.Add(eventDuration)

	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", fmt.Sprintf("Cita médica con %s", slot.Provider))
	params.Set("dates", startUTC.Format(stampLayout)+"/"+endUTC.Format(stampLayout))
	params.Set("details", fmt.Sprintf("Especialidad: %s", slot.Specialty))
	params.Set("location", location)

	return renderEndpoint + "?" + params.Encode(), nil
}
