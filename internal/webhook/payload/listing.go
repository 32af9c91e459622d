package payload

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openhousehq/openhouse/internal/domain/listing"
	"github.com/openhousehq/openhouse/internal/types"
)

// ListingEvent is the payload carried by listing lifecycle events
type ListingEvent struct {
	EntityType string           `json:"entity_type"`
	EntityID   string           `json:"entity_id"`
	Action     string           `json:"action"`
	Data       ListingEventData `json:"data"`
}

// ListingEventData is the listing summary downstream consumers render
type ListingEventData struct {
	ID              string              `json:"id"`
	MLSNumber       string              `json:"mls_number"`
	PropertyAddress string              `json:"property_address"`
	ListPrice       decimal.Decimal     `json:"list_price"`
	Status          types.ListingStatus `json:"status"`
}

// Actions for listing lifecycle events
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// NewListingWebhookEvent builds the webhook envelope for a listing lifecycle
// action. The caller only constructs the payload; transport and fan-out are
// the notification service's concern.
func NewListingWebhookEvent(eventName, action string, l *listing.Listing, userID, teamID string) (*types.WebhookEvent, error) {
	body := ListingEvent{
		EntityType: "listing",
		EntityID:   l.ID,
		Action:     action,
		Data: ListingEventData{
			ID:              l.ID,
			MLSNumber:       l.MLSNumber,
			PropertyAddress: l.PropertyAddress,
			ListPrice:       l.ListPrice,
			Status:          l.Status,
		},
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	return &types.WebhookEvent{
		ID:        types.GenerateUUIDWithPrefix(types.UUID_PREFIX_WEBHOOK_EVENT),
		EventName: eventName,
		UserID:    userID,
		TeamID:    teamID,
		Timestamp: time.Now().UTC(),
		Payload:   raw,
	}, nil
}
