package messaging

import (
	"regexp"
	"strings"
)

const whatsappPrefix = "whatsapp:"

var phoneDigitsRe = regexp.MustCompile(`\d+`)

func sanitizePhone(value string) string {
	if value == "" {
		return ""
	}
	digits := phoneDigitsRe.FindAllString(value, -1)
	return strings.Join(digits, "")
}

// NormalizeWhatsApp strips the whatsapp: channel prefix and normalizes the
// remainder to E.164. The result identifies the patient across turns.
func NormalizeWhatsApp(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, whatsappPrefix)
	if value == "" {
		return ""
	}
	digits := sanitizePhone(value)
	if digits == "" {
		return ""
	}
	return "+" + digits
}

// WhatsAppAddress prefixes an E.164 number for Twilio's WhatsApp channel.
// Already-prefixed values pass through unchanged.
func WhatsAppAddress(value string) string {
	value = strings.TrimSpace(value)
	if value == "" || strings.HasPrefix(value, whatsappPrefix) {
		return value
	}
	return whatsappPrefix + value
}
