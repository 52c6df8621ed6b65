package dialogue

import (
	"fmt"
	"strings"

	"github.com/andeshealth/citabot/internal/appointments"
	"github.com/andeshealth/citabot/internal/faq"
)

// User-facing copy. The bot speaks Spanish; everything a patient can receive
// lives here so the engine logic stays free of string building.

const (
	replyMenu = "👋 Hola, escribe *'agendar'* para ver las horas disponibles de hoy, " +
		"o hazme una pregunta sobre el hospital. Escribe *'menu'* para volver aquí."

	replyNoSlots = "⛔ No hay horas disponibles por ahora. Intenta más tarde."

	replyGuidance = "🤔 No entendí tu mensaje. Escribe *'agendar'* para ver las horas " +
		"disponibles o pregúntame, por ejemplo, por el *horario de atención*."

	replySlotStale = "⛔ Esa hora ya no está disponible. Escribe *'agendar'* para ver " +
		"las opciones actualizadas."

	replyBookingRetry = "⚠️ No pudimos completar la reserva en este momento. " +
		"Responde nuevamente con el número de la opción para reintentar."
)

func replyNotANumber(max int) string {
	return fmt.Sprintf("❌ Por favor responde solo con el número de la opción (1 a %d).", max)
}

func replyOutOfRange(max int) string {
	return fmt.Sprintf("❌ Opción no válida. Escribe un número del 1 al %d.", max)
}

func replySlotList(slots []appointments.Slot) string {
	var b strings.Builder
	b.WriteString("📅 *Opciones de cita disponibles:*\n\n")
	for i, slot := range slots {
		fmt.Fprintf(&b, "%d. %s - %s (%s)\n", i+1, slot.Time, slot.Provider, slot.Specialty)
	}
	b.WriteString("\nEscribe el *número* de la opción que deseas reservar ✅")
	return b.String()
}

func replyFAQChoices(candidates []faq.Entry) string {
	var b strings.Builder
	b.WriteString("🤔 Encontré varias respuestas posibles:\n\n")
	for i, entry := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, entry.Question)
	}
	b.WriteString("\nResponde con el *número* de tu pregunta.")
	return b.String()
}

func replyBookingConfirmed(slot appointments.Slot, calendarLink string) string {
	msg := fmt.Sprintf("✅ Cita con *%s* agendada para el %s a las %s.",
		slot.Provider, slot.Date, slot.Time)
	if calendarLink != "" {
		msg += "\n\n📲 Agrega la cita a tu calendario aquí:\n" + calendarLink
	}
	return msg
}
