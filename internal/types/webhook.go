package types

import (
	"encoding/json"
	"time"
)

// WebhookEvent is the envelope handed to the notification sink. Payload
// construction is the service's responsibility; delivery and fan-out belong
// to the downstream notification service.
type WebhookEvent struct {
	ID        string          `json:"id"`
	EventName string          `json:"event_name"`
	UserID    string          `json:"user_id"`
	TeamID    string          `json:"team_id"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// Listing lifecycle event names
const (
	WebhookEventListingCreated = "listing.created"
	WebhookEventListingUpdated = "listing.updated"
	WebhookEventListingDeleted = "listing.deleted"
)
