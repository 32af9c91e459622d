package listing_test

import (
	"context"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openhousehq/openhouse/internal/domain/listing"
	ierr "github.com/openhousehq/openhouse/internal/errors"
	"github.com/openhousehq/openhouse/internal/testutil"
	"github.com/openhousehq/openhouse/internal/types"
)

func seedListing(t *testing.T, store *testutil.InMemoryListingStore, version int) *listing.Listing {
	t.Helper()

	l := &listing.Listing{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LISTING),
		MLSNumber:       types.GenerateMLSNumber(time.Now().UTC()),
		PropertyAddress: "123 Main St",
		ListPrice:       decimal.NewFromInt(500000),
		Status:          types.ListingStatusComingSoon,
		Version:         version,
		ListingAgentID:  types.DefaultUserID,
		TeamID:          types.DefaultTeamID,
	}
	require.NoError(t, store.Create(context.Background(), l))
	return l
}

func TestGuardRequiresVersion(t *testing.T) {
	store := testutil.NewInMemoryListingStore()
	guard := listing.NewGuard(store)

	_, err := guard.ApplyWithVersion(context.Background(), "lst_missing", nil, false, func(l *listing.Listing) error {
		return nil
	})

	assert.True(t, ierr.IsValidation(err))
}

func TestGuardAppliesMutationAndIncrementsVersion(t *testing.T) {
	store := testutil.NewInMemoryListingStore()
	guard := listing.NewGuard(store)
	ctx := types.SetUserID(context.Background(), types.DefaultUserID)
	seeded := seedListing(t, store, 1)

	updated, err := guard.ApplyWithVersion(ctx, seeded.ID, lo.ToPtr(1), false, func(l *listing.Listing) error {
		l.Description = "updated"
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, "updated", updated.Description)

	stored, err := store.Get(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, "updated", stored.Description)
}

func TestGuardRejectsStaleVersion(t *testing.T) {
	store := testutil.NewInMemoryListingStore()
	guard := listing.NewGuard(store)
	ctx := context.Background()
	seeded := seedListing(t, store, 3)

	_, err := guard.ApplyWithVersion(ctx, seeded.ID, lo.ToPtr(2), false, func(l *listing.Listing) error {
		l.Description = "should not land"
		return nil
	})

	assert.True(t, ierr.IsVersionConflict(err))

	stored, getErr := store.Get(ctx, seeded.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 3, stored.Version)
	assert.Empty(t, stored.Description)
}

func TestGuardForceSkipsVersionCheck(t *testing.T) {
	store := testutil.NewInMemoryListingStore()
	guard := listing.NewGuard(store)
	ctx := context.Background()
	seeded := seedListing(t, store, 5)

	updated, err := guard.ApplyWithVersion(ctx, seeded.ID, nil, true, func(l *listing.Listing) error {
		l.Description = "forced"
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 6, updated.Version)
}

func TestGuardConflictWhenWriteRacesAnotherEditor(t *testing.T) {
	store := testutil.NewInMemoryListingStore()
	guard := listing.NewGuard(store)
	ctx := context.Background()
	seeded := seedListing(t, store, 1)

	// A second editor lands a write between the guard's read and its CAS.
	// The mutation hook is the window where that interleaving happens.
	_, err := guard.ApplyWithVersion(ctx, seeded.ID, lo.ToPtr(1), false, func(l *listing.Listing) error {
		winner, getErr := store.Get(ctx, seeded.ID)
		require.NoError(t, getErr)
		winner.Description = "landed first"
		winner.Version = 2
		require.NoError(t, store.UpdateWithVersion(ctx, winner, 1))

		l.Description = "too late"
		return nil
	})

	assert.True(t, ierr.IsVersionConflict(err))

	// The conflict names the winner's version so the loser can re-fetch
	details := testutil.ErrorDetails(err)
	assert.Equal(t, float64(1), details["attempted_version"])
	assert.Equal(t, float64(2), details["current_version"])

	stored, getErr := store.Get(ctx, seeded.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, "landed first", stored.Description)
}

func TestGuardMutationErrorLeavesListingUntouched(t *testing.T) {
	store := testutil.NewInMemoryListingStore()
	guard := listing.NewGuard(store)
	ctx := context.Background()
	seeded := seedListing(t, store, 1)

	wantErr := ierr.NewError("mutation failed").Mark(ierr.ErrValidation)
	_, err := guard.ApplyWithVersion(ctx, seeded.ID, lo.ToPtr(1), false, func(l *listing.Listing) error {
		return wantErr
	})

	assert.True(t, ierr.IsValidation(err))

	stored, getErr := store.Get(ctx, seeded.ID)
	require.NoError(t, getErr)
	assert.Equal(t, 1, stored.Version)
}

func TestGuardNotFound(t *testing.T) {
	store := testutil.NewInMemoryListingStore()
	guard := listing.NewGuard(store)

	_, err := guard.ApplyWithVersion(context.Background(), "lst_missing", lo.ToPtr(1), false, func(l *listing.Listing) error {
		return nil
	})

	assert.True(t, ierr.IsNotFound(err))
}
