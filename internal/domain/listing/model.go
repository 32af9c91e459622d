package listing

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	ierr "github.com/openhousehq/openhouse/internal/errors"
	"github.com/openhousehq/openhouse/internal/types"
)

// Listing represents a property listing in the system
type Listing struct {
	// ID is the unique identifier for the listing, immutable after creation
	ID string `db:"id" json:"id"`

	// MLSNumber is the business-facing listing reference, generated once at
	// creation and never reassigned
	MLSNumber string `db:"mls_number" json:"mls_number"`

	// PropertyAddress is the street address of the property
	PropertyAddress string `db:"property_address" json:"property_address"`

	// DisplayAddress is an optional public-facing address override
	DisplayAddress string `db:"display_address" json:"display_address"`

	City    string `db:"city" json:"city"`
	State   string `db:"state" json:"state"`
	ZipCode string `db:"zip_code" json:"zip_code"`

	// ListPrice is the asking price
	ListPrice decimal.Decimal `db:"list_price" json:"list_price"`

	PropertyType string `db:"property_type" json:"property_type"`
	Bedrooms     int    `db:"bedrooms" json:"bedrooms"`
	Bathrooms    int    `db:"bathrooms" json:"bathrooms"`
	SquareFeet   int    `db:"square_feet" json:"square_feet"`
	LotSize      int    `db:"lot_size" json:"lot_size"`
	YearBuilt    int    `db:"year_built" json:"year_built"`
	Description  string `db:"description" json:"description"`

	VirtualTourLink string `db:"virtual_tour_link" json:"virtual_tour_link"`

	// Commission terms in percent
	ListingCommission decimal.Decimal `db:"listing_commission" json:"listing_commission"`
	BuyerCommission   decimal.Decimal `db:"buyer_commission" json:"buyer_commission"`

	// Status is the marketing status; it only changes through transitions
	// permitted by types.ListingStatus
	Status types.ListingStatus `db:"status" json:"status"`

	// ListingDate and DaysOnMarket are reset when the listing transitions
	// into Active; derived reporting beyond that reset lives outside this
	// service
	ListingDate  *time.Time `db:"listing_date" json:"listing_date"`
	DaysOnMarket *int       `db:"days_on_market" json:"days_on_market"`

	// Version increments by exactly 1 on every accepted update and backs the
	// optimistic-concurrency check
	Version int `db:"version" json:"version"`

	// ArchivedAt is null while the listing is live and set exactly once by
	// Archive. An archived listing always has status Cancelled.
	ArchivedAt *time.Time `db:"archived_at" json:"archived_at"`

	// Ownership scope
	ListingAgentID string `db:"listing_agent_id" json:"listing_agent_id"`
	TeamID         string `db:"team_id" json:"team_id"`

	types.BaseModel
}

// InitialVersion is the version assigned at creation
const InitialVersion = 1

// IsArchived reports whether the listing has been soft-deleted
func (l *Listing) IsArchived() bool {
	return l.ArchivedAt != nil
}

// OwnedBy reports whether the listing falls under the given ownership scope
func (l *Listing) OwnedBy(scope types.OwnerScope) bool {
	if scope.AgentID != "" && l.ListingAgentID == scope.AgentID {
		return true
	}
	return scope.TeamID != "" && l.TeamID == scope.TeamID
}

// Validate checks the creation invariants: non-empty address, non-negative
// price, known status
func (l *Listing) Validate() error {
	if l.PropertyAddress == "" {
		return ierr.NewError("property address is required").
			WithHint("Provide the property address").
			Mark(ierr.ErrValidation)
	}
	if l.ListPrice.IsNegative() {
		return ierr.NewError("list price cannot be negative").
			WithHint("List price must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if !l.Status.Validate() {
		return ierr.NewErrorf("unknown listing status %q", l.Status).
			WithHint("Provide a valid listing status").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// transitionEffect mutates a listing when it enters a target status
type transitionEffect func(l *Listing, now time.Time)

// transitionEffects is keyed by the target status so new side effects stay
// additive and testable in isolation. Only entering Active currently carries
// an effect: the listing is considered freshly marketed, so the
// days-on-market counter and listing date restart.
var transitionEffects = map[types.ListingStatus]transitionEffect{
	types.ListingStatusActive: func(l *Listing, now time.Time) {
		l.DaysOnMarket = lo.ToPtr(0)
		l.ListingDate = lo.ToPtr(now.Truncate(24 * time.Hour))
	},
}

// ApplyTransitionEffects applies the side effects registered for the target
// status. Statuses without a registered effect leave the listing untouched.
func ApplyTransitionEffects(l *Listing, target types.ListingStatus, now time.Time) {
	if effect, ok := transitionEffects[target]; ok {
		effect(l, now)
	}
	l.Status = target
}
