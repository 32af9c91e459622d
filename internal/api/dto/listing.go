package dto

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/openhousehq/openhouse/internal/domain/listing"
	ierr "github.com/openhousehq/openhouse/internal/errors"
	"github.com/openhousehq/openhouse/internal/types"
	"github.com/openhousehq/openhouse/internal/validator"
)

// CreateListingRequest carries the client-supplied fields for a new listing.
// MLS number, version and ownership are assigned by the service.
type CreateListingRequest struct {
	PropertyAddress   string          `json:"property_address" validate:"required"`
	DisplayAddress    string          `json:"display_address,omitempty"`
	City              string          `json:"city,omitempty"`
	State             string          `json:"state,omitempty"`
	ZipCode           string          `json:"zip_code,omitempty"`
	ListPrice         decimal.Decimal `json:"list_price"`
	PropertyType      string          `json:"property_type,omitempty"`
	Bedrooms          int             `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms         int             `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	SquareFeet        int             `json:"square_feet,omitempty" validate:"omitempty,gte=0"`
	LotSize           int             `json:"lot_size,omitempty" validate:"omitempty,gte=0"`
	YearBuilt         int             `json:"year_built,omitempty"`
	Description       string          `json:"description,omitempty"`
	VirtualTourLink   string          `json:"virtual_tour_link,omitempty"`
	ListingCommission decimal.Decimal `json:"listing_commission,omitempty"`
	BuyerCommission   decimal.Decimal `json:"buyer_commission,omitempty"`

	// Status is optional; listings default to Coming Soon
	Status types.ListingStatus `json:"status,omitempty"`
}

func (r *CreateListingRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.ListPrice.IsNegative() {
		return ierr.NewError("list price cannot be negative").
			WithHint("List price must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if r.Status != "" && !r.Status.Validate() {
		return ierr.NewErrorf("unknown listing status %q", r.Status).
			WithHint("Provide a valid listing status").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ToListing builds the domain listing. Unless the request names a status the
// listing starts in Coming Soon; ownership comes from the request context.
func (r *CreateListingRequest) ToListing(ctx context.Context) *listing.Listing {
	status := r.Status
	if status == "" {
		status = types.ListingStatusComingSoon
	}

	return &listing.Listing{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LISTING),
		PropertyAddress:   r.PropertyAddress,
		DisplayAddress:    r.DisplayAddress,
		City:              r.City,
		State:             r.State,
		ZipCode:           r.ZipCode,
		ListPrice:         r.ListPrice,
		PropertyType:      r.PropertyType,
		Bedrooms:          r.Bedrooms,
		Bathrooms:         r.Bathrooms,
		SquareFeet:        r.SquareFeet,
		LotSize:           r.LotSize,
		YearBuilt:         r.YearBuilt,
		Description:       r.Description,
		VirtualTourLink:   r.VirtualTourLink,
		ListingCommission: r.ListingCommission,
		BuyerCommission:   r.BuyerCommission,
		Status:            status,
		Version:           listing.InitialVersion,
		ListingAgentID:    types.GetUserID(ctx),
		TeamID:            types.GetTeamID(ctx),
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
}

// UpdateListingRequest is the mutable-field whitelist for general updates.
// Only non-nil fields are applied; identity, version and ownership fields
// cannot be changed through this request. A status change rides along as a
// transition validated against the stored status before anything is written.
//
// Version is the optimistic-concurrency token: it must match the version the
// client last read. Force skips the match but the write is still conditional
// at the storage layer.
type UpdateListingRequest struct {
	PropertyAddress   *string          `json:"property_address,omitempty"`
	DisplayAddress    *string          `json:"display_address,omitempty"`
	City              *string          `json:"city,omitempty"`
	State             *string          `json:"state,omitempty"`
	ZipCode           *string          `json:"zip_code,omitempty"`
	ListPrice         *decimal.Decimal `json:"list_price,omitempty"`
	PropertyType      *string          `json:"property_type,omitempty"`
	Bedrooms          *int             `json:"bedrooms,omitempty" validate:"omitempty,gte=0"`
	Bathrooms         *int             `json:"bathrooms,omitempty" validate:"omitempty,gte=0"`
	SquareFeet        *int             `json:"square_feet,omitempty" validate:"omitempty,gte=0"`
	LotSize           *int             `json:"lot_size,omitempty" validate:"omitempty,gte=0"`
	YearBuilt         *int             `json:"year_built,omitempty"`
	Description       *string          `json:"description,omitempty"`
	VirtualTourLink   *string          `json:"virtual_tour_link,omitempty"`
	ListingCommission *decimal.Decimal `json:"listing_commission,omitempty"`
	BuyerCommission   *decimal.Decimal `json:"buyer_commission,omitempty"`

	Status *types.ListingStatus `json:"status,omitempty"`

	Version *int `json:"version,omitempty"`
	Force   bool `json:"force,omitempty"`
}

func (r *UpdateListingRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.ListPrice != nil && r.ListPrice.IsNegative() {
		return ierr.NewError("list price cannot be negative").
			WithHint("List price must be zero or positive").
			Mark(ierr.ErrValidation)
	}
	if r.Status != nil && !r.Status.Validate() {
		return ierr.NewErrorf("unknown listing status %q", *r.Status).
			WithHint("Provide a valid listing status").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// Apply copies the non-nil fields onto the listing
func (r *UpdateListingRequest) Apply(l *listing.Listing) {
	if r.PropertyAddress != nil {
		l.PropertyAddress = *r.PropertyAddress
	}
	if r.DisplayAddress != nil {
		l.DisplayAddress = *r.DisplayAddress
	}
	if r.City != nil {
		l.City = *r.City
	}
	if r.State != nil {
		l.State = *r.State
	}
	if r.ZipCode != nil {
		l.ZipCode = *r.ZipCode
	}
	if r.ListPrice != nil {
		l.ListPrice = *r.ListPrice
	}
	if r.PropertyType != nil {
		l.PropertyType = *r.PropertyType
	}
	if r.Bedrooms != nil {
		l.Bedrooms = *r.Bedrooms
	}
	if r.Bathrooms != nil {
		l.Bathrooms = *r.Bathrooms
	}
	if r.SquareFeet != nil {
		l.SquareFeet = *r.SquareFeet
	}
	if r.LotSize != nil {
		l.LotSize = *r.LotSize
	}
	if r.YearBuilt != nil {
		l.YearBuilt = *r.YearBuilt
	}
	if r.Description != nil {
		l.Description = *r.Description
	}
	if r.VirtualTourLink != nil {
		l.VirtualTourLink = *r.VirtualTourLink
	}
	if r.ListingCommission != nil {
		l.ListingCommission = *r.ListingCommission
	}
	if r.BuyerCommission != nil {
		l.BuyerCommission = *r.BuyerCommission
	}
}

// UpdateListingStatusRequest moves a listing to a new marketing status.
// The transition is validated against the stored status before any write.
type UpdateListingStatusRequest struct {
	Status  types.ListingStatus `json:"status" validate:"required"`
	Version *int                `json:"version,omitempty"`
	Force   bool                `json:"force,omitempty"`
}

func (r *UpdateListingStatusRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if !r.Status.Validate() {
		return ierr.NewErrorf("unknown listing status %q", r.Status).
			WithHint("Provide a valid listing status").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// BatchDeleteListingsRequest permanently deletes a set of archived listings
type BatchDeleteListingsRequest struct {
	ListingIDs []string `json:"listing_ids" validate:"required,min=1,dive,required"`
}

func (r *BatchDeleteListingsRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// BatchDeleteListingsResponse reports the ids removed in the transaction
type BatchDeleteListingsResponse struct {
	DeletedIDs []string `json:"deleted_ids"`
	Count      int      `json:"count"`
}

// ListingResponse is the API representation of a listing
type ListingResponse struct {
	*listing.Listing
}

func NewListingResponse(l *listing.Listing) *ListingResponse {
	return &ListingResponse{Listing: l}
}

// ListListingsResponse is a paginated page of listings
type ListListingsResponse = types.ListResponse[*ListingResponse]
