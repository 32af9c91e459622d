package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/openhousehq/openhouse/internal/domain/listing"
	ierr "github.com/openhousehq/openhouse/internal/errors"
	"github.com/openhousehq/openhouse/internal/types"
)

// InMemoryListingStore implements listing.Repository with the same
// conditional-write semantics as the postgres implementation: version
// compare-and-swap, archived-ness predicates and ownership scoping all
// resolve inside the store.
type InMemoryListingStore struct {
	*InMemoryStore[*listing.Listing]

	// writeMu serializes conditional writes so the read-check-write sequence
	// behaves like a single statement
	writeMu sync.Mutex
}

func NewInMemoryListingStore() *InMemoryListingStore {
	return &InMemoryListingStore{
		InMemoryStore: NewInMemoryStore[*listing.Listing](),
	}
}

// cloneListing copies the listing and its pointer fields so callers cannot
// mutate stored state in place
func cloneListing(l *listing.Listing) *listing.Listing {
	if l == nil {
		return nil
	}
	c := *l
	if l.ListingDate != nil {
		d := *l.ListingDate
		c.ListingDate = &d
	}
	if l.DaysOnMarket != nil {
		d := *l.DaysOnMarket
		c.DaysOnMarket = &d
	}
	if l.ArchivedAt != nil {
		d := *l.ArchivedAt
		c.ArchivedAt = &d
	}
	return &c
}

func listingNotFound() error {
	return ierr.NewError("listing not found").
		WithHint("No listing matches the given id").
		Mark(ierr.ErrNotFound)
}

func (s *InMemoryListingStore) Create(ctx context.Context, l *listing.Listing) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	// The unique constraint on mls_number
	all, _ := s.InMemoryStore.List(ctx, nil, nil, nil)
	for _, existing := range all {
		if existing.MLSNumber == l.MLSNumber {
			return ierr.NewError("mls number already exists").
				WithHint("A listing with this MLS number already exists").
				Mark(ierr.ErrAlreadyExists)
		}
	}

	if err := s.InMemoryStore.Create(ctx, l.ID, cloneListing(l)); err != nil {
		return ierr.WithError(err).
			WithHint("A listing with this id already exists").
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryListingStore) Get(ctx context.Context, id string) (*listing.Listing, error) {
	l, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || l.IsArchived() {
		return nil, listingNotFound()
	}
	return cloneListing(l), nil
}

func (s *InMemoryListingStore) GetAny(ctx context.Context, id string) (*listing.Listing, error) {
	l, err := s.InMemoryStore.Get(ctx, id)
	if err != nil {
		return nil, listingNotFound()
	}
	return cloneListing(l), nil
}

func matchesListingFilter(_ context.Context, l *listing.Listing, rawFilter interface{}) bool {
	if l.IsArchived() {
		return false
	}
	filter, ok := rawFilter.(*types.ListingFilter)
	if !ok || filter == nil {
		return true
	}
	if filter.Status != nil && l.Status != *filter.Status {
		return false
	}
	if filter.PropertyType != nil && l.PropertyType != *filter.PropertyType {
		return false
	}
	if filter.MinPrice != nil && l.ListPrice.LessThan(*filter.MinPrice) {
		return false
	}
	if filter.MaxPrice != nil && l.ListPrice.GreaterThan(*filter.MaxPrice) {
		return false
	}
	if filter.MinDaysOnMarket != nil && (l.DaysOnMarket == nil || *l.DaysOnMarket < *filter.MinDaysOnMarket) {
		return false
	}
	if filter.MaxDaysOnMarket != nil && (l.DaysOnMarket == nil || *l.DaysOnMarket > *filter.MaxDaysOnMarket) {
		return false
	}
	if len(filter.ListingIDs) > 0 {
		found := false
		for _, id := range filter.ListingIDs {
			if l.ID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (s *InMemoryListingStore) List(ctx context.Context, filter *types.ListingFilter) ([]*listing.Listing, error) {
	items, err := s.InMemoryStore.List(ctx, filter, matchesListingFilter,
		func(i, j *listing.Listing) bool {
			return i.CreatedAt.After(j.CreatedAt)
		})
	if err != nil {
		return nil, err
	}
	result := make([]*listing.Listing, len(items))
	for i, l := range items {
		result[i] = cloneListing(l)
	}
	return result, nil
}

func (s *InMemoryListingStore) Count(ctx context.Context, filter *types.ListingFilter) (int, error) {
	return s.InMemoryStore.Count(ctx, filter, matchesListingFilter)
}

func (s *InMemoryListingStore) ListByIDs(ctx context.Context, ids []string, scope types.OwnerScope) ([]*listing.Listing, error) {
	result := make([]*listing.Listing, 0, len(ids))
	for _, id := range ids {
		l, err := s.InMemoryStore.Get(ctx, id)
		if err != nil || !l.OwnedBy(scope) {
			continue
		}
		result = append(result, cloneListing(l))
	}
	return result, nil
}

func (s *InMemoryListingStore) UpdateWithVersion(ctx context.Context, l *listing.Listing, expected int) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.InMemoryStore.Get(ctx, l.ID)
	if err != nil || current.IsArchived() {
		return listingNotFound()
	}
	if current.Version != expected {
		return ierr.NewError("conditional write lost the race").
			WithReportableDetails(map[string]any{
				"current_version": current.Version,
			}).
			Mark(ierr.ErrVersionConflict)
	}
	return s.InMemoryStore.Update(ctx, l.ID, cloneListing(l))
}

func (s *InMemoryListingStore) Archive(ctx context.Context, id string, scope types.OwnerScope) (*listing.Listing, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || current.IsArchived() || !current.OwnedBy(scope) {
		return nil, listingNotFound()
	}

	now := time.Now().UTC()
	updated := cloneListing(current)
	updated.ArchivedAt = &now
	updated.Status = types.ListingStatusCancelled
	updated.UpdatedAt = now
	updated.LastModifiedBy = types.GetUserID(ctx)

	if err := s.InMemoryStore.Update(ctx, id, updated); err != nil {
		return nil, listingNotFound()
	}
	return cloneListing(updated), nil
}

func (s *InMemoryListingStore) Restore(ctx context.Context, id string, scope types.OwnerScope) (*listing.Listing, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !current.IsArchived() || !current.OwnedBy(scope) {
		return nil, listingNotFound()
	}

	updated := cloneListing(current)
	updated.ArchivedAt = nil
	updated.Status = types.ListingStatusActive
	updated.UpdatedAt = time.Now().UTC()
	updated.LastModifiedBy = types.GetUserID(ctx)

	if err := s.InMemoryStore.Update(ctx, id, updated); err != nil {
		return nil, listingNotFound()
	}
	return cloneListing(updated), nil
}

func (s *InMemoryListingStore) Delete(ctx context.Context, id string, scope types.OwnerScope) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !current.IsArchived() || !current.OwnedBy(scope) {
		return listingNotFound()
	}
	return s.InMemoryStore.Delete(ctx, id)
}

func (s *InMemoryListingStore) DeleteBatch(ctx context.Context, ids []string, scope types.OwnerScope) ([]string, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	deleted := make([]string, 0, len(ids))
	for _, id := range ids {
		current, err := s.InMemoryStore.Get(ctx, id)
		if err != nil || !current.IsArchived() || !current.OwnedBy(scope) {
			continue
		}
		if err := s.InMemoryStore.Delete(ctx, id); err != nil {
			return nil, err
		}
		deleted = append(deleted, id)
	}
	return deleted, nil
}
