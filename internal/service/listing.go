package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/openhousehq/openhouse/internal/api/dto"
	"github.com/openhousehq/openhouse/internal/domain/listing"
	ierr "github.com/openhousehq/openhouse/internal/errors"
	"github.com/openhousehq/openhouse/internal/types"
	webhookPayload "github.com/openhousehq/openhouse/internal/webhook/payload"
)

// mlsGenerationAttempts bounds the retry loop when a generated MLS number
// collides with an existing listing
const mlsGenerationAttempts = 3

// ListingService owns the listing lifecycle: creation, guarded updates,
// status transitions, archive-before-delete and the events each step emits
type ListingService interface {
	CreateListing(ctx context.Context, req *dto.CreateListingRequest) (*dto.ListingResponse, error)
	GetListing(ctx context.Context, id string) (*dto.ListingResponse, error)
	ListListings(ctx context.Context, filter *types.ListingFilter) (*dto.ListListingsResponse, error)
	UpdateListing(ctx context.Context, id string, req *dto.UpdateListingRequest) (*dto.ListingResponse, error)
	UpdateListingStatus(ctx context.Context, id string, req *dto.UpdateListingStatusRequest) (*dto.ListingResponse, error)
	ArchiveListing(ctx context.Context, id string) (*dto.ListingResponse, error)
	RestoreListing(ctx context.Context, id string) (*dto.ListingResponse, error)
	DeleteListing(ctx context.Context, id string) error
	BatchDeleteListings(ctx context.Context, req *dto.BatchDeleteListingsRequest) (*dto.BatchDeleteListingsResponse, error)
}

type listingService struct {
	ServiceParams
	guard *listing.Guard
}

func NewListingService(params ServiceParams) ListingService {
	return &listingService{
		ServiceParams: params,
		guard:         listing.NewGuard(params.ListingRepo),
	}
}

func (s *listingService) CreateListing(ctx context.Context, req *dto.CreateListingRequest) (*dto.ListingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	l := req.ToListing(ctx)
	if err := l.Validate(); err != nil {
		return nil, err
	}

	// A listing born Active is freshly marketed, same as one transitioning in
	if l.Status == types.ListingStatusActive {
		listing.ApplyTransitionEffects(l, types.ListingStatusActive, time.Now().UTC())
	}

	// The MLS number is random within the year, so a collision is possible
	// under the storage unique constraint. Regenerate a bounded number of
	// times rather than read-then-check, which would race.
	var err error
	for attempt := 0; attempt < mlsGenerationAttempts; attempt++ {
		l.MLSNumber = types.GenerateMLSNumber(time.Now().UTC())
		err = s.ListingRepo.Create(ctx, l)
		if err == nil || !ierr.IsAlreadyExists(err) {
			break
		}
		s.Logger.Warnw("mls number collision, regenerating",
			"listing_id", l.ID,
			"mls_number", l.MLSNumber,
			"attempt", attempt+1,
		)
	}
	if err != nil {
		return nil, err
	}

	s.publishListingEvent(ctx, types.WebhookEventListingCreated, webhookPayload.ActionCreated, l)

	return dto.NewListingResponse(l), nil
}

func (s *listingService) GetListing(ctx context.Context, id string) (*dto.ListingResponse, error) {
	l, err := s.ListingRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewListingResponse(l), nil
}

func (s *listingService) ListListings(ctx context.Context, filter *types.ListingFilter) (*dto.ListListingsResponse, error) {
	if filter == nil {
		filter = &types.ListingFilter{QueryFilter: types.DefaultQueryFilter}
	}

	listings, err := s.ListingRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	total, err := s.ListingRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := lo.Map(listings, func(l *listing.Listing, _ int) *dto.ListingResponse {
		return dto.NewListingResponse(l)
	})

	response := types.NewListResponse(items, total, filter.GetLimit(), filter.GetOffset())
	return &response, nil
}

func (s *listingService) UpdateListing(ctx context.Context, id string, req *dto.UpdateListingRequest) (*dto.ListingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var priceBefore decimal.Decimal
	var statusBefore types.ListingStatus

	updated, err := s.guard.ApplyWithVersion(ctx, id, req.Version, req.Force, func(l *listing.Listing) error {
		priceBefore = l.ListPrice
		statusBefore = l.Status

		// Transition legality is checked against the stored status before any
		// field lands
		if req.Status != nil {
			if err := applyStatusTransition(l, *req.Status); err != nil {
				return err
			}
		}
		req.Apply(l)
		return l.Validate()
	})
	if err != nil {
		return nil, err
	}

	if !priceBefore.Equal(updated.ListPrice) {
		s.Logger.Infow("listing price changed",
			"listing_id", updated.ID,
			"mls_number", updated.MLSNumber,
			"old_price", priceBefore,
			"new_price", updated.ListPrice,
			"updated_by", types.GetUserID(ctx),
		)
	}
	s.logStatusChange(ctx, updated, statusBefore)

	s.publishListingEvent(ctx, types.WebhookEventListingUpdated, webhookPayload.ActionUpdated, updated)

	return dto.NewListingResponse(updated), nil
}

func (s *listingService) UpdateListingStatus(ctx context.Context, id string, req *dto.UpdateListingStatusRequest) (*dto.ListingResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var statusBefore types.ListingStatus

	updated, err := s.guard.ApplyWithVersion(ctx, id, req.Version, req.Force, func(l *listing.Listing) error {
		statusBefore = l.Status
		return applyStatusTransition(l, req.Status)
	})
	if err != nil {
		return nil, err
	}

	s.logStatusChange(ctx, updated, statusBefore)

	s.publishListingEvent(ctx, types.WebhookEventListingUpdated, webhookPayload.ActionUpdated, updated)

	return dto.NewListingResponse(updated), nil
}

// logStatusChange writes the status audit line for accepted transitions
func (s *listingService) logStatusChange(ctx context.Context, l *listing.Listing, statusBefore types.ListingStatus) {
	if statusBefore == l.Status {
		return
	}
	s.Logger.Infow("listing status changed",
		"listing_id", l.ID,
		"mls_number", l.MLSNumber,
		"old_status", statusBefore,
		"new_status", l.Status,
		"updated_by", types.GetUserID(ctx),
	)
}

// applyStatusTransition validates the move against the transition table and
// applies the target status with its registered side effects. Writing the
// current status back is a no-op rather than a transition.
func applyStatusTransition(l *listing.Listing, target types.ListingStatus) error {
	if target == l.Status {
		return nil
	}
	if !l.Status.CanTransition(target) {
		return ierr.NewErrorf("cannot transition listing from %s to %s", l.Status, target).
			WithHint("This status change is not allowed from the listing's current status").
			WithReportableDetails(map[string]any{
				"current_status":      l.Status,
				"requested_status":    target,
				"allowed_transitions": l.Status.AllowedTransitions(),
			}).
			Mark(ierr.ErrInvalidTransition)
	}
	listing.ApplyTransitionEffects(l, target, time.Now().UTC())
	return nil
}

// ArchiveListing soft-deletes through a single conditional write. A second
// call finds no live row and reports not-found; the original archived_at
// never changes.
func (s *listingService) ArchiveListing(ctx context.Context, id string) (*dto.ListingResponse, error) {
	scope := types.GetOwnerScope(ctx)

	archived, err := s.ListingRepo.Archive(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	s.publishListingEvent(ctx, types.WebhookEventListingUpdated, webhookPayload.ActionUpdated, archived)

	return dto.NewListingResponse(archived), nil
}

func (s *listingService) RestoreListing(ctx context.Context, id string) (*dto.ListingResponse, error) {
	scope := types.GetOwnerScope(ctx)

	restored, err := s.ListingRepo.Restore(ctx, id, scope)
	if err != nil {
		return nil, err
	}

	s.publishListingEvent(ctx, types.WebhookEventListingUpdated, webhookPayload.ActionUpdated, restored)

	return dto.NewListingResponse(restored), nil
}

func (s *listingService) DeleteListing(ctx context.Context, id string) error {
	scope := types.GetOwnerScope(ctx)

	current, err := s.ListingRepo.GetAny(ctx, id)
	if err != nil {
		return err
	}
	if !current.OwnedBy(scope) {
		// Ownership failures read as not-found so ids outside the caller's
		// scope do not leak existence
		return ierr.NewError("listing not found").
			WithHint("No listing matches the given id").
			Mark(ierr.ErrNotFound)
	}
	if !current.IsArchived() {
		return s.notArchivedError([]string{id})
	}

	if err := s.ListingRepo.Delete(ctx, id, scope); err != nil {
		return err
	}

	s.publishListingEvent(ctx, types.WebhookEventListingDeleted, webhookPayload.ActionDeleted, current)

	return nil
}

func (s *listingService) BatchDeleteListings(ctx context.Context, req *dto.BatchDeleteListingsRequest) (*dto.BatchDeleteListingsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	scope := types.GetOwnerScope(ctx)
	ids := lo.Uniq(req.ListingIDs)

	var deleted []string
	var victims []*listing.Listing

	// The verification reads and the delete share one transaction so the
	// batch is all-or-nothing even against concurrent archives and deletes.
	err := s.DB.WithTx(ctx, func(txCtx context.Context) error {
		found, err := s.ListingRepo.ListByIDs(txCtx, ids, scope)
		if err != nil {
			return err
		}

		byID := lo.KeyBy(found, func(l *listing.Listing) string { return l.ID })

		missing := lo.Filter(ids, func(id string, _ int) bool {
			_, ok := byID[id]
			return !ok
		})
		if len(missing) > 0 {
			return ierr.NewError("some listings were not found").
				WithHint("One or more listings do not exist or are outside your scope").
				WithReportableDetails(map[string]any{
					"missing_ids": missing,
				}).
				Mark(ierr.ErrNotFound)
		}

		notArchived := lo.FilterMap(found, func(l *listing.Listing, _ int) (string, bool) {
			return l.ID, !l.IsArchived()
		})
		if len(notArchived) > 0 {
			return s.notArchivedError(notArchived)
		}

		deleted, err = s.ListingRepo.DeleteBatch(txCtx, ids, scope)
		if err != nil {
			return err
		}

		// A row verified above can still slip out of the delete predicate if
		// a concurrent restore commits in between; roll back rather than
		// report a partial batch as complete.
		if len(deleted) != len(ids) {
			return ierr.NewError("batch delete removed fewer listings than verified").
				WithHint("A listing changed while the batch was being deleted. Retry the operation.").
				Mark(ierr.ErrDatabase)
		}

		victims = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Events go out only after the transaction has committed
	for _, l := range victims {
		s.publishListingEvent(ctx, types.WebhookEventListingDeleted, webhookPayload.ActionDeleted, l)
	}

	return &dto.BatchDeleteListingsResponse{
		DeletedIDs: deleted,
		Count:      len(deleted),
	}, nil
}

func (s *listingService) notArchivedError(ids []string) error {
	return ierr.NewError("listing must be archived before deletion").
		WithHint("Archive the listing first, then delete it").
		WithReportableDetails(map[string]any{
			"not_archived_ids": ids,
		}).
		Mark(ierr.ErrNotArchived)
}

// publishListingEvent emits a lifecycle event. Publish failures are logged
// and never fail the operation that triggered them.
func (s *listingService) publishListingEvent(ctx context.Context, eventName, action string, l *listing.Listing) {
	if s.WebhookPublisher == nil {
		return
	}

	event, err := webhookPayload.NewListingWebhookEvent(eventName, action, l, types.GetUserID(ctx), types.GetTeamID(ctx))
	if err != nil {
		s.Logger.Errorw("failed to build listing event",
			"error", err,
			"listing_id", l.ID,
			"event_name", eventName,
		)
		return
	}

	if err := s.WebhookPublisher.PublishWebhook(ctx, event); err != nil {
		s.Logger.Errorw("failed to publish listing event",
			"error", err,
			"listing_id", l.ID,
			"event_name", eventName,
		)
	}
}
