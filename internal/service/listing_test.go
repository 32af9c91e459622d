package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/openhousehq/openhouse/internal/api/dto"
	"github.com/openhousehq/openhouse/internal/domain/listing"
	ierr "github.com/openhousehq/openhouse/internal/errors"
	"github.com/openhousehq/openhouse/internal/logger"
	"github.com/openhousehq/openhouse/internal/testutil"
	"github.com/openhousehq/openhouse/internal/types"
	webhookPayload "github.com/openhousehq/openhouse/internal/webhook/payload"
)

type ListingServiceSuite struct {
	testutil.BaseServiceSuite
	service ListingService
}

func TestListingService(t *testing.T) {
	suite.Run(t, new(ListingServiceSuite))
}

func (s *ListingServiceSuite) SetupTest() {
	s.BaseServiceSuite.SetupTest()
	s.service = NewListingService(ServiceParams{
		Logger:           s.GetLogger(),
		DB:               s.GetClient(),
		ListingRepo:      s.GetListingStore(),
		WebhookPublisher: s.GetPublisher(),
	})
}

func (s *ListingServiceSuite) createListing(address string) *dto.ListingResponse {
	resp, err := s.service.CreateListing(s.GetContext(), &dto.CreateListingRequest{
		PropertyAddress: address,
		City:            "Austin",
		State:           "TX",
		ListPrice:       decimal.NewFromInt(750000),
		PropertyType:    "Single Family",
		Bedrooms:        4,
		Bathrooms:       3,
	})
	s.Require().NoError(err)
	return resp
}

// createArchivedListing creates a listing and walks it into the archive
func (s *ListingServiceSuite) createArchivedListing(address string) *dto.ListingResponse {
	created := s.createListing(address)
	archived, err := s.service.ArchiveListing(s.GetContext(), created.ID)
	s.Require().NoError(err)
	return archived
}

func (s *ListingServiceSuite) TestCreateListing() {
	resp := s.createListing("123 Main St")

	s.Equal(types.ListingStatusComingSoon, resp.Status)
	s.Equal(1, resp.Version)
	s.Regexp("^lst_", resp.ID)
	s.Regexp("^MLS[0-9]{8}$", resp.MLSNumber)
	s.Nil(resp.ArchivedAt)
	s.Equal(types.DefaultUserID, resp.ListingAgentID)
	s.Equal(types.DefaultTeamID, resp.TeamID)
}

func (s *ListingServiceSuite) TestCreateListingWithActiveStatus() {
	resp, err := s.service.CreateListing(s.GetContext(), &dto.CreateListingRequest{
		PropertyAddress: "123 Main St",
		ListPrice:       decimal.NewFromInt(750000),
		Status:          types.ListingStatusActive,
	})
	s.Require().NoError(err)

	s.Equal(types.ListingStatusActive, resp.Status)
	s.Equal(1, resp.Version)
	s.Require().NotNil(resp.DaysOnMarket)
	s.Equal(0, *resp.DaysOnMarket)
	s.NotNil(resp.ListingDate)
}

func (s *ListingServiceSuite) TestCreateListingUnknownStatus() {
	_, err := s.service.CreateListing(s.GetContext(), &dto.CreateListingRequest{
		PropertyAddress: "123 Main St",
		ListPrice:       decimal.NewFromInt(100),
		Status:          types.ListingStatus("On Hold"),
	})
	s.True(ierr.IsValidation(err))
}

func (s *ListingServiceSuite) TestCreateListingEmitsCreatedEvent() {
	resp := s.createListing("123 Main St")

	events := s.GetPublisher().EventsByName(types.WebhookEventListingCreated)
	s.Require().Len(events, 1)

	var payload webhookPayload.ListingEvent
	s.Require().NoError(json.Unmarshal(events[0].Payload, &payload))
	s.Equal("listing", payload.EntityType)
	s.Equal(resp.ID, payload.EntityID)
	s.Equal(webhookPayload.ActionCreated, payload.Action)
	s.Equal(resp.MLSNumber, payload.Data.MLSNumber)
	s.Equal("123 Main St", payload.Data.PropertyAddress)
	s.Equal(types.ListingStatusComingSoon, payload.Data.Status)
}

func (s *ListingServiceSuite) TestCreateListingValidation() {
	_, err := s.service.CreateListing(s.GetContext(), &dto.CreateListingRequest{
		ListPrice: decimal.NewFromInt(100),
	})
	s.True(ierr.IsValidation(err), "missing address should fail")

	_, err = s.service.CreateListing(s.GetContext(), &dto.CreateListingRequest{
		PropertyAddress: "123 Main St",
		ListPrice:       decimal.NewFromInt(-1),
	})
	s.True(ierr.IsValidation(err), "negative price should fail")

	s.Empty(s.GetPublisher().Events(), "no events for rejected creates")
}

func (s *ListingServiceSuite) TestGetListing() {
	created := s.createListing("123 Main St")

	resp, err := s.service.GetListing(s.GetContext(), created.ID)
	s.Require().NoError(err)
	s.Equal(created.ID, resp.ID)

	_, err = s.service.GetListing(s.GetContext(), "lst_missing")
	s.True(ierr.IsNotFound(err))
}

func (s *ListingServiceSuite) TestListListings() {
	first := s.createListing("1 First St")
	s.createListing("2 Second St")

	// Move one listing to Active so the status filter has something to split on
	_, err := s.service.UpdateListingStatus(s.GetContext(), first.ID, &dto.UpdateListingStatusRequest{
		Status:  types.ListingStatusActive,
		Version: lo.ToPtr(1),
	})
	s.Require().NoError(err)

	all, err := s.service.ListListings(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Equal(2, all.Pagination.Total)
	s.Len(all.Items, 2)

	active, err := s.service.ListListings(s.GetContext(), &types.ListingFilter{
		Status: lo.ToPtr(types.ListingStatusActive),
	})
	s.Require().NoError(err)
	s.Require().Len(active.Items, 1)
	s.Equal(first.ID, active.Items[0].ID)

	paged, err := s.service.ListListings(s.GetContext(), &types.ListingFilter{
		QueryFilter: types.QueryFilter{Limit: lo.ToPtr(1), Offset: lo.ToPtr(0)},
	})
	s.Require().NoError(err)
	s.Len(paged.Items, 1)
	s.Equal(2, paged.Pagination.Total)
	s.Equal(1, paged.Pagination.Limit)
}

func (s *ListingServiceSuite) TestUpdateListingAppliesWhitelistedFields() {
	created := s.createListing("123 Main St")

	resp, err := s.service.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		ListPrice:   lo.ToPtr(decimal.NewFromInt(800000)),
		Description: lo.ToPtr("Remodeled kitchen"),
		Version:     lo.ToPtr(1),
	})
	s.Require().NoError(err)

	s.Equal(2, resp.Version)
	s.True(resp.ListPrice.Equal(decimal.NewFromInt(800000)))
	s.Equal("Remodeled kitchen", resp.Description)

	// Untouched fields survive
	s.Equal("123 Main St", resp.PropertyAddress)
	s.Equal(created.MLSNumber, resp.MLSNumber)
	s.Equal(types.ListingStatusComingSoon, resp.Status)
}

func (s *ListingServiceSuite) TestUpdateListingRequiresVersion() {
	created := s.createListing("123 Main St")

	_, err := s.service.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		Description: lo.ToPtr("no version"),
	})
	s.True(ierr.IsValidation(err))
}

func (s *ListingServiceSuite) TestUpdateListingForce() {
	created := s.createListing("123 Main St")

	resp, err := s.service.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		Description: lo.ToPtr("forced write"),
		Force:       true,
	})
	s.Require().NoError(err)
	s.Equal(2, resp.Version)
}

func (s *ListingServiceSuite) TestConcurrentEditorsLoseWithStaleVersion() {
	created := s.createListing("123 Main St")

	// First editor moves the listing to Active; version goes 1 -> 2
	activated, err := s.service.UpdateListingStatus(s.GetContext(), created.ID, &dto.UpdateListingStatusRequest{
		Status:  types.ListingStatusActive,
		Version: lo.ToPtr(1),
	})
	s.Require().NoError(err)
	s.Equal(2, activated.Version)
	s.Require().NotNil(activated.DaysOnMarket)
	s.Equal(0, *activated.DaysOnMarket)
	s.NotNil(activated.ListingDate)

	// Second editor still holds version 1 and must lose; the conflict carries
	// the winner's version so the editor can re-fetch
	_, err = s.service.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		ListPrice: lo.ToPtr(decimal.NewFromInt(1)),
		Version:   lo.ToPtr(1),
	})
	s.True(ierr.IsVersionConflict(err))

	details := testutil.ErrorDetails(err)
	s.Equal(float64(2), details["current_version"])
	s.Equal(float64(1), details["attempted_version"])

	// The winner's write is intact
	current, err := s.service.GetListing(s.GetContext(), created.ID)
	s.Require().NoError(err)
	s.Equal(2, current.Version)
	s.Equal(types.ListingStatusActive, current.Status)
	s.True(current.ListPrice.Equal(decimal.NewFromInt(750000)))
}

// Walks the whole lifecycle through the general update path: an illegal jump
// is rejected with the allowed set, the legal transition wins the version
// race, and the stale editor conflicts against the winner's version.
func (s *ListingServiceSuite) TestUpdateListingWritesAuditLog() {
	core, logs := observer.New(zap.InfoLevel)
	svc := NewListingService(ServiceParams{
		Logger:           &logger.Logger{SugaredLogger: zap.New(core).Sugar()},
		DB:               s.GetClient(),
		ListingRepo:      s.GetListingStore(),
		WebhookPublisher: s.GetPublisher(),
	})
	created := s.createListing("123 Main St")

	_, err := svc.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		ListPrice: lo.ToPtr(decimal.NewFromInt(800000)),
		Version:   lo.ToPtr(1),
	})
	s.Require().NoError(err)

	priceEntries := logs.FilterMessage("listing price changed").All()
	s.Require().Len(priceEntries, 1)
	priceFields := priceEntries[0].ContextMap()
	s.Equal(created.ID, priceFields["listing_id"])
	s.Equal(types.DefaultUserID, priceFields["updated_by"])
	s.Equal("750000", priceFields["old_price"].(decimal.Decimal).String())
	s.Equal("800000", priceFields["new_price"].(decimal.Decimal).String())

	_, err = svc.UpdateListingStatus(s.GetContext(), created.ID, &dto.UpdateListingStatusRequest{
		Status:  types.ListingStatusActive,
		Version: lo.ToPtr(2),
	})
	s.Require().NoError(err)

	statusEntries := logs.FilterMessage("listing status changed").All()
	s.Require().Len(statusEntries, 1)
	statusFields := statusEntries[0].ContextMap()
	s.Equal(created.ID, statusFields["listing_id"])
	s.Equal(types.ListingStatusComingSoon, statusFields["old_status"])
	s.Equal(types.ListingStatusActive, statusFields["new_status"])
	s.Equal(types.DefaultUserID, statusFields["updated_by"])

	// A field-only update keeps the audit trail quiet
	_, err = svc.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		Description: lo.ToPtr("no price or status change"),
		Version:     lo.ToPtr(3),
	})
	s.Require().NoError(err)
	s.Len(logs.FilterMessage("listing price changed").All(), 1)
	s.Len(logs.FilterMessage("listing status changed").All(), 1)
}

func (s *ListingServiceSuite) TestUpdateListingStatusThroughGeneralUpdate() {
	created := s.createListing("123 Main St")

	_, err := s.service.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		Status:  lo.ToPtr(types.ListingStatusSold),
		Version: lo.ToPtr(1),
	})
	s.True(ierr.IsInvalidTransition(err))

	activated, err := s.service.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		Status:  lo.ToPtr(types.ListingStatusActive),
		Version: lo.ToPtr(1),
	})
	s.Require().NoError(err)
	s.Equal(2, activated.Version)
	s.Require().NotNil(activated.DaysOnMarket)
	s.Equal(0, *activated.DaysOnMarket)

	_, err = s.service.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		Description: lo.ToPtr("stale edit"),
		Version:     lo.ToPtr(1),
	})
	s.True(ierr.IsVersionConflict(err))
}

func (s *ListingServiceSuite) TestUpdateListingSameStatusIsNotATransition() {
	created := s.createListing("123 Main St")

	resp, err := s.service.UpdateListing(s.GetContext(), created.ID, &dto.UpdateListingRequest{
		Status:      lo.ToPtr(types.ListingStatusComingSoon),
		Description: lo.ToPtr("still coming soon"),
		Version:     lo.ToPtr(1),
	})
	s.Require().NoError(err)
	s.Equal(types.ListingStatusComingSoon, resp.Status)
	s.Equal(2, resp.Version)
}

func (s *ListingServiceSuite) TestUpdateListingStatusRejectsInvalidTransition() {
	created := s.createListing("123 Main St")

	_, err := s.service.UpdateListingStatus(s.GetContext(), created.ID, &dto.UpdateListingStatusRequest{
		Status:  types.ListingStatusSold,
		Version: lo.ToPtr(1),
	})
	s.True(ierr.IsInvalidTransition(err), "Coming Soon cannot jump to Sold")

	// The rejection names the allowed-next set so the caller can self-correct
	details := testutil.ErrorDetails(err)
	s.Equal("Coming Soon", details["current_status"])
	s.Equal("Sold", details["requested_status"])
	s.ElementsMatch([]any{"Active", "Cancelled"}, details["allowed_transitions"])

	// Rejected transition writes nothing
	current, getErr := s.service.GetListing(s.GetContext(), created.ID)
	s.Require().NoError(getErr)
	s.Equal(types.ListingStatusComingSoon, current.Status)
	s.Equal(1, current.Version)
	s.Empty(s.GetPublisher().EventsByName(types.WebhookEventListingUpdated))
}

func (s *ListingServiceSuite) TestUpdateListingStatusSoldIsTerminal() {
	created := s.createListing("123 Main St")

	for i, status := range []types.ListingStatus{types.ListingStatusActive, types.ListingStatusSold} {
		_, err := s.service.UpdateListingStatus(s.GetContext(), created.ID, &dto.UpdateListingStatusRequest{
			Status:  status,
			Version: lo.ToPtr(i + 1),
		})
		s.Require().NoError(err)
	}

	_, err := s.service.UpdateListingStatus(s.GetContext(), created.ID, &dto.UpdateListingStatusRequest{
		Status:  types.ListingStatusActive,
		Version: lo.ToPtr(3),
	})
	s.True(ierr.IsInvalidTransition(err))
}

func (s *ListingServiceSuite) TestUpdateListingStatusUnknownStatus() {
	created := s.createListing("123 Main St")

	_, err := s.service.UpdateListingStatus(s.GetContext(), created.ID, &dto.UpdateListingStatusRequest{
		Status:  types.ListingStatus("Archived"),
		Version: lo.ToPtr(1),
	})
	s.True(ierr.IsValidation(err))
}

func (s *ListingServiceSuite) TestArchiveListing() {
	created := s.createListing("123 Main St")

	archived, err := s.service.ArchiveListing(s.GetContext(), created.ID)
	s.Require().NoError(err)
	s.Equal(types.ListingStatusCancelled, archived.Status)
	s.NotNil(archived.ArchivedAt)

	// Archived listings disappear from reads and lists
	_, err = s.service.GetListing(s.GetContext(), created.ID)
	s.True(ierr.IsNotFound(err))

	all, err := s.service.ListListings(s.GetContext(), nil)
	s.Require().NoError(err)
	s.Equal(0, all.Pagination.Total)
}

func (s *ListingServiceSuite) TestArchiveListingTwice() {
	created := s.createListing("123 Main St")

	first, err := s.service.ArchiveListing(s.GetContext(), created.ID)
	s.Require().NoError(err)
	eventsAfterFirst := len(s.GetPublisher().Events())

	// The conditional write finds no live row the second time
	_, err = s.service.ArchiveListing(s.GetContext(), created.ID)
	s.True(ierr.IsNotFound(err))

	stored, getErr := s.GetListingStore().GetAny(s.GetContext(), created.ID)
	s.Require().NoError(getErr)
	s.Require().NotNil(stored.ArchivedAt)
	s.Equal(*first.ArchivedAt, *stored.ArchivedAt, "archived_at never moves")
	s.Len(s.GetPublisher().Events(), eventsAfterFirst, "failed archive emits nothing")
}

func (s *ListingServiceSuite) TestArchiveListingOutsideScope() {
	created := s.createListing("123 Main St")

	strangerCtx := s.ContextFor("usr_stranger", "team_stranger")
	_, err := s.service.ArchiveListing(strangerCtx, created.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *ListingServiceSuite) TestRestoreListing() {
	archived := s.createArchivedListing("123 Main St")

	restored, err := s.service.RestoreListing(s.GetContext(), archived.ID)
	s.Require().NoError(err)
	s.Equal(types.ListingStatusActive, restored.Status)
	s.Nil(restored.ArchivedAt)

	_, err = s.service.GetListing(s.GetContext(), archived.ID)
	s.NoError(err)
}

func (s *ListingServiceSuite) TestRestoreLiveListingFails() {
	created := s.createListing("123 Main St")

	_, err := s.service.RestoreListing(s.GetContext(), created.ID)
	s.True(ierr.IsNotFound(err))
}

func (s *ListingServiceSuite) TestDeleteListingRequiresArchive() {
	created := s.createListing("123 Main St")

	err := s.service.DeleteListing(s.GetContext(), created.ID)
	s.True(ierr.IsNotArchived(err))

	// The listing is still there
	_, err = s.service.GetListing(s.GetContext(), created.ID)
	s.NoError(err)
}

func (s *ListingServiceSuite) TestDeleteListing() {
	archived := s.createArchivedListing("123 Main St")

	s.Require().NoError(s.service.DeleteListing(s.GetContext(), archived.ID))

	_, err := s.GetListingStore().GetAny(s.GetContext(), archived.ID)
	s.True(ierr.IsNotFound(err), "row is gone, not soft-deleted")

	deleteEvents := s.GetPublisher().EventsByName(types.WebhookEventListingDeleted)
	s.Require().Len(deleteEvents, 1)

	var payload webhookPayload.ListingEvent
	s.Require().NoError(json.Unmarshal(deleteEvents[0].Payload, &payload))
	s.Equal(archived.ID, payload.EntityID)
	s.Equal(webhookPayload.ActionDeleted, payload.Action)
}

func (s *ListingServiceSuite) TestDeleteListingOutsideScope() {
	archived := s.createArchivedListing("123 Main St")

	strangerCtx := s.ContextFor("usr_stranger", "team_stranger")
	err := s.service.DeleteListing(strangerCtx, archived.ID)
	s.True(ierr.IsNotFound(err), "foreign listings read as not found")
}

func (s *ListingServiceSuite) TestBatchDeleteListings() {
	a := s.createArchivedListing("1 First St")
	b := s.createArchivedListing("2 Second St")

	resp, err := s.service.BatchDeleteListings(s.GetContext(), &dto.BatchDeleteListingsRequest{
		ListingIDs: []string{a.ID, b.ID},
	})
	s.Require().NoError(err)
	s.Equal(2, resp.Count)
	s.ElementsMatch([]string{a.ID, b.ID}, resp.DeletedIDs)

	deleteEvents := s.GetPublisher().EventsByName(types.WebhookEventListingDeleted)
	s.Len(deleteEvents, 2)
}

func (s *ListingServiceSuite) TestBatchDeleteMissingListingFailsWholeBatch() {
	a := s.createArchivedListing("1 First St")

	_, err := s.service.BatchDeleteListings(s.GetContext(), &dto.BatchDeleteListingsRequest{
		ListingIDs: []string{a.ID, "lst_missing"},
	})
	s.True(ierr.IsNotFound(err))
	s.ElementsMatch([]any{"lst_missing"}, testutil.ErrorDetails(err)["missing_ids"])

	// Nothing was deleted
	_, getErr := s.GetListingStore().GetAny(s.GetContext(), a.ID)
	s.NoError(getErr)
}

func (s *ListingServiceSuite) TestBatchDeleteLiveListingFailsWholeBatch() {
	archived := s.createArchivedListing("1 First St")
	live := s.createListing("2 Second St")

	_, err := s.service.BatchDeleteListings(s.GetContext(), &dto.BatchDeleteListingsRequest{
		ListingIDs: []string{archived.ID, live.ID},
	})
	s.True(ierr.IsNotArchived(err))
	s.ElementsMatch([]any{live.ID}, testutil.ErrorDetails(err)["not_archived_ids"])

	// The archived listing survived the failed batch
	_, getErr := s.GetListingStore().GetAny(s.GetContext(), archived.ID)
	s.NoError(getErr)
	s.Empty(s.GetPublisher().EventsByName(types.WebhookEventListingDeleted))
}

// shortDeleteRepo drops one id from DeleteBatch results, standing in for a
// row that slipped out from under the batch between verification and delete
type shortDeleteRepo struct {
	listing.Repository
}

func (r shortDeleteRepo) DeleteBatch(ctx context.Context, ids []string, scope types.OwnerScope) ([]string, error) {
	deleted, err := r.Repository.DeleteBatch(ctx, ids, scope)
	if err != nil || len(deleted) == 0 {
		return deleted, err
	}
	return deleted[:len(deleted)-1], nil
}

func (s *ListingServiceSuite) TestBatchDeleteShortCountFailsBatch() {
	a := s.createArchivedListing("1 First St")
	b := s.createArchivedListing("2 Second St")

	svc := NewListingService(ServiceParams{
		Logger:           s.GetLogger(),
		DB:               s.GetClient(),
		ListingRepo:      shortDeleteRepo{s.GetListingStore()},
		WebhookPublisher: s.GetPublisher(),
	})

	_, err := svc.BatchDeleteListings(s.GetContext(), &dto.BatchDeleteListingsRequest{
		ListingIDs: []string{a.ID, b.ID},
	})
	s.True(ierr.IsDatabase(err), "a partial delete must fail the batch")
	s.Empty(s.GetPublisher().EventsByName(types.WebhookEventListingDeleted))
}

func (s *ListingServiceSuite) TestBatchDeleteValidation() {
	_, err := s.service.BatchDeleteListings(s.GetContext(), &dto.BatchDeleteListingsRequest{})
	s.True(ierr.IsValidation(err))
}

func (s *ListingServiceSuite) TestPublishFailureDoesNotFailOperation() {
	s.GetPublisher().SetPublishError(errors.New("sink down"))

	resp, err := s.service.CreateListing(s.GetContext(), &dto.CreateListingRequest{
		PropertyAddress: "123 Main St",
		ListPrice:       decimal.NewFromInt(100),
	})
	s.Require().NoError(err, "event failures never fail the write")
	s.NotNil(resp)
}

func (s *ListingServiceSuite) TestMLSNumberUniqueAtStore() {
	created := s.createListing("123 Main St")

	dup := *created.Listing
	dup.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_LISTING)
	err := s.GetListingStore().Create(s.GetContext(), &dup)
	s.True(ierr.IsAlreadyExists(err))
}
