package domain

import "time"

type NotificationKind string

const (
	// NotificationCheckInDetected fires when the guest agent extracts a
	// concrete check-in time from a conversation.
	NotificationCheckInDetected NotificationKind = "checkin_detected"
)

func ParseNotificationKind(s string) (NotificationKind, bool) {
	switch NotificationKind(s) {
	case NotificationCheckInDetected:
		return NotificationKind(s), true
	default:
		return "", false
	}
}

// CheckInPayload carries what the landlord needs to act on: who asked, in
// which chat, the extracted time string, and the listing involved.
type CheckInPayload struct {
	GuestID string `json:"guest_id"`
	ChatID  string `json:"chat_id"`
	Time    string `json:"time"`
	ItemID  int64  `json:"item_id,omitempty"`
}

// NotificationEvent crosses the relay boundary exactly once: produced by
// the guest agent, consumed by the landlord surface. The relay assigns ID
// and CreatedAt when the sender leaves them empty.
type NotificationEvent struct {
	ID        string           `json:"id,omitempty"`
	Kind      NotificationKind `json:"kind"`
	Audience  []int64          `json:"audience,omitempty"`
	Payload   CheckInPayload   `json:"payload"`
	CreatedAt time.Time        `json:"created_at,omitempty"`
}
