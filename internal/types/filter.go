package types

import "github.com/shopspring/decimal"

// ListingFilter narrows listing list/count queries. Archived rows are never
// visible through it.
type ListingFilter struct {
	QueryFilter

	Status          *ListingStatus   `json:"status,omitempty" form:"status"`
	PropertyType    *string          `json:"property_type,omitempty" form:"property_type"`
	MinPrice        *decimal.Decimal `json:"min_price,omitempty" form:"min_price"`
	MaxPrice        *decimal.Decimal `json:"max_price,omitempty" form:"max_price"`
	MinDaysOnMarket *int             `json:"min_days_on_market,omitempty" form:"min_days_on_market"`
	MaxDaysOnMarket *int             `json:"max_days_on_market,omitempty" form:"max_days_on_market"`
	ListingIDs      []string         `json:"listing_ids,omitempty" form:"listing_ids"`
}

// listingSortColumns whitelists the columns the listing queries may order by
var listingSortColumns = map[string]bool{
	"created_at":     true,
	"list_price":     true,
	"listing_date":   true,
	"days_on_market": true,
}

// GetSort returns the requested sort column if whitelisted, else created_at
func (f ListingFilter) GetSort() string {
	sort := f.QueryFilter.GetSort()
	if !listingSortColumns[sort] {
		return "created_at"
	}
	return sort
}

// GetOrder normalizes the sort direction to asc/desc
func (f ListingFilter) GetOrder() string {
	if f.QueryFilter.GetOrder() == "asc" {
		return "asc"
	}
	return "desc"
}
