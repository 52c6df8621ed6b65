package messaging

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestValidateTwilioSignature(t *testing.T) {
	authToken := "test_token"
	webhookURL := "https://example.com/webhooks/whatsapp"

	formData := url.Values{}
	formData.Set("MessageSid", "SM123")
	formData.Set("From", "whatsapp:+56912345678")
	formData.Set("Body", "hola")

	req := httptest.NewRequest(http.MethodPost, webhookURL, strings.NewReader(formData.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	payload := buildSignaturePayload(webhookURL, formData)
	req.Header.Set("X-Twilio-Signature", computeSignature(payload, authToken))

	if !ValidateTwilioSignature(req, authToken, webhookURL) {
		t.Error("expected signature validation to pass")
	}
}

func TestValidateTwilioSignature_InvalidSignature(t *testing.T) {
	formData := url.Values{}
	formData.Set("MessageSid", "SM123")

	req := httptest.NewRequest(http.MethodPost, "https://example.com/webhooks/whatsapp", strings.NewReader(formData.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Twilio-Signature", "invalid_signature")

	if ValidateTwilioSignature(req, "test_token", "https://example.com/webhooks/whatsapp") {
		t.Error("expected signature validation to fail")
	}
}

func TestValidateTwilioSignature_MissingSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "https://example.com/webhooks/whatsapp", nil)

	if ValidateTwilioSignature(req, "test_token", "https://example.com/webhooks/whatsapp") {
		t.Error("expected signature validation to fail without signature header")
	}
}

func TestParseTwilioWebhook(t *testing.T) {
	formData := url.Values{}
	formData.Set("MessageSid", "SM123")
	formData.Set("AccountSid", "AC456")
	formData.Set("From", "whatsapp:+56912345678")
	formData.Set("To", "whatsapp:+56200000000")
	formData.Set("Body", "agendar")

	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp", strings.NewReader(formData.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	webhook, err := ParseTwilioWebhook(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if webhook.MessageSid != "SM123" {
		t.Errorf("MessageSid = %q, want SM123", webhook.MessageSid)
	}
	if webhook.From != "whatsapp:+56912345678" {
		t.Errorf("From = %q", webhook.From)
	}
	if webhook.Body != "agendar" {
		t.Errorf("Body = %q", webhook.Body)
	}
}

func TestNormalizeWhatsApp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"whatsapp:+56912345678", "+56912345678"},
		{"+56912345678", "+56912345678"},
		{" whatsapp:+56 9 1234 5678 ", "+56912345678"},
		{"whatsapp:", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeWhatsApp(tc.in); got != tc.want {
			t.Errorf("NormalizeWhatsApp(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWhatsAppAddress(t *testing.T) {
	if got := WhatsAppAddress("+56912345678"); got != "whatsapp:+56912345678" {
		t.Errorf("WhatsAppAddress = %q", got)
	}
	if got := WhatsAppAddress("whatsapp:+56912345678"); got != "whatsapp:+56912345678" {
		t.Errorf("WhatsAppAddress kept prefix wrong: %q", got)
	}
}

func TestRenderTwiMLEscapesBody(t *testing.T) {
	twiml, err := RenderTwiML("hola https://example.com/?a=1&b=2 <fin>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(twiml, "a=1&amp;b=2") {
		t.Errorf("ampersand not escaped: %s", twiml)
	}
	if !strings.Contains(twiml, "&lt;fin&gt;") {
		t.Errorf("angle brackets not escaped: %s", twiml)
	}
	if !strings.HasPrefix(twiml, xmlHeader+"<Response><Message>") {
		t.Errorf("unexpected envelope: %s", twiml)
	}
}
