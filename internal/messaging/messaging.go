// Package messaging handles the WhatsApp provider boundary: parsing inbound
// webhook payloads, normalizing phone handles, and sending replies.
package messaging

import (
	"context"
	"strings"
)

// IncomingMessage is the minimal inbound shape the pipeline consumes.
// Absent provider fields are empty strings, never errors.
type IncomingMessage struct {
	From        string
	Body        string
	MessageID   string
	DisplayName string
	WaID        string
}

// Gateway sends outbound messages. Implemented by the Twilio client and by
// test doubles.
type Gateway interface {
	Send(ctx context.Context, to, text string) (sid string, err error)
}

// ParseIncoming extracts the named fields from a provider payload, treating
// every value as an opaque string and defaulting absent ones to "".
func ParseIncoming(payload map[string]string) IncomingMessage {
	return IncomingMessage{
		From:        payload["From"],
		Body:        payload["Body"],
		MessageID:   payload["MessageSid"],
		DisplayName: strings.TrimSpace(payload["ProfileName"]),
		WaID:        payload["WaId"],
	}
}

// NormalizePhone converts a provider handle to canonical E.164-ish form:
// the "whatsapp:" prefix and all whitespace are stripped, and a leading "+"
// is added if missing. Total and idempotent — normalizing an
// already-normalized value returns it unchanged.
func NormalizePhone(input string) string {
	clean := strings.ReplaceAll(input, "whatsapp:", "")
	clean = strings.Join(strings.Fields(clean), "")
	if clean == "" {
		return clean
	}
	if !strings.HasPrefix(clean, "+") {
		clean = "+" + clean
	}
	return clean
}
