package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/andeshealth/citabot/internal/dialogue"
	"github.com/andeshealth/citabot/pkg/logging"
)

// Service emails hospital staff about confirmed bookings. Delivery runs on
// its own timeout; a slow mail provider never holds up a patient's reply.
type Service struct {
	email      EmailSender
	staffEmail string
	loc        *time.Location
	logger     *logging.Logger
}

// NewService creates a booking notification service.
func NewService(email EmailSender, staffEmail string, loc *time.Location, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		email:      email,
		staffEmail: staffEmail,
		loc:        loc,
		logger:     logger,
	}
}

var _ dialogue.BookingNotifier = (*Service)(nil)

// BookingConfirmed emails staff about a new booking. Failures are logged,
// never propagated.
func (s *Service) BookingConfirmed(ctx context.Context, notice dialogue.BookingNotice) {
	if s.email == nil || s.staffEmail == "" {
		s.logger.Debug("notify: email not configured, skipping booking notification",
			"booking_id", notice.BookingID)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	msg := EmailMessage{
		To:      s.staffEmail,
		ToName:  "Equipo de agenda",
		Subject: fmt.Sprintf("Nueva reserva: %s %s con %s", notice.Slot.Date, notice.Slot.Time, notice.Slot.Provider),
		Body:    s.formatBody(notice),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send booking notification", "error", err,
			"booking_id", notice.BookingID)
		return
	}
	s.logger.Info("booking notification sent", "booking_id", notice.BookingID, "to", s.staffEmail)
}

func (s *Service) formatBody(notice dialogue.BookingNotice) string {
	return fmt.Sprintf(`Se agendó una nueva cita vía WhatsApp.

Paciente: %s
Fecha: %s
Hora: %s
Profesional: %s
Especialidad: %s

Reserva: %s
Confirmada: %s
`,
		notice.UserID,
		notice.Slot.Date,
		notice.Slot.Time,
		notice.Slot.Provider,
		notice.Slot.Specialty,
		notice.BookingID,
		notice.ConfirmedAt.In(s.loc).Format("2006-01-02 15:04:05"),
	)
}
