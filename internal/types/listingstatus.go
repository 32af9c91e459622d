package types

// ListingStatus is the marketing status of a listing. Status only ever
// changes through a transition permitted by the table below.
type ListingStatus string

const (
	ListingStatusComingSoon ListingStatus = "Coming Soon"
	ListingStatusActive     ListingStatus = "Active"
	ListingStatusPending    ListingStatus = "Pending"
	ListingStatusSold       ListingStatus = "Sold"
	ListingStatusExpired    ListingStatus = "Expired"
	ListingStatusCancelled  ListingStatus = "Cancelled"
	ListingStatusWithdrawn  ListingStatus = "Withdrawn"
)

// validListingStatusTransitions maps a current status to the set of statuses
// it may move to. Sold is terminal; every other status can return to Active,
// modeling re-listing.
var validListingStatusTransitions = map[ListingStatus][]ListingStatus{
	ListingStatusComingSoon: {ListingStatusActive, ListingStatusCancelled},
	ListingStatusActive:     {ListingStatusPending, ListingStatusSold, ListingStatusExpired, ListingStatusCancelled, ListingStatusWithdrawn},
	ListingStatusPending:    {ListingStatusActive, ListingStatusSold, ListingStatusCancelled},
	ListingStatusSold:       {},
	ListingStatusExpired:    {ListingStatusActive, ListingStatusWithdrawn},
	ListingStatusCancelled:  {ListingStatusActive},
	ListingStatusWithdrawn:  {ListingStatusActive},
}

func (s ListingStatus) String() string {
	return string(s)
}

// Validate checks that the status is one of the known enum values
func (s ListingStatus) Validate() bool {
	_, ok := validListingStatusTransitions[s]
	return ok
}

// CanTransition reports whether a listing currently in status s may move to
// next.
func (s ListingStatus) CanTransition(next ListingStatus) bool {
	for _, allowed := range validListingStatusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the set of statuses reachable from s. The slice
// is a copy; callers may keep it. Empty for Sold.
func (s ListingStatus) AllowedTransitions() []ListingStatus {
	allowed := validListingStatusTransitions[s]
	out := make([]ListingStatus, len(allowed))
	copy(out, allowed)
	return out
}

// IsTerminal reports whether no transition leaves s
func (s ListingStatus) IsTerminal() bool {
	return len(validListingStatusTransitions[s]) == 0
}
