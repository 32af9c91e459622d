package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/openhousehq/openhouse/internal/domain/listing"
	ierr "github.com/openhousehq/openhouse/internal/errors"
	"github.com/openhousehq/openhouse/internal/logger"
	"github.com/openhousehq/openhouse/internal/postgres"
	"github.com/openhousehq/openhouse/internal/types"
)

// pq error code for unique_violation
const pqUniqueViolation = "23505"

const listingColumns = `
	id, mls_number, property_address, display_address, city, state, zip_code,
	list_price, property_type, bedrooms, bathrooms, square_feet, lot_size,
	year_built, description, virtual_tour_link, listing_commission,
	buyer_commission, status, listing_date, days_on_market, version,
	archived_at, listing_agent_id, team_id, created_at, updated_at,
	created_by, last_modified_by`

type listingRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewListingRepository creates a postgres-backed listing repository
func NewListingRepository(db *postgres.DB, logger *logger.Logger) listing.Repository {
	return &listingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *listingRepository) Create(ctx context.Context, l *listing.Listing) error {
	query := `
		INSERT INTO listings (` + listingColumns + `)
		VALUES (
			:id, :mls_number, :property_address, :display_address, :city,
			:state, :zip_code, :list_price, :property_type, :bedrooms,
			:bathrooms, :square_feet, :lot_size, :year_built, :description,
			:virtual_tour_link, :listing_commission, :buyer_commission,
			:status, :listing_date, :days_on_market, :version, :archived_at,
			:listing_agent_id, :team_id, :created_at, :updated_at,
			:created_by, :last_modified_by
		)`

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, l); err != nil {
		var pqErr *pq.Error
		if ierr.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return ierr.WithError(err).
				WithHint("A listing with this MLS number already exists").
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithHint("Failed to create listing").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *listingRepository) Get(ctx context.Context, id string) (*listing.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1 AND archived_at IS NULL`
	return r.getOne(ctx, query, id)
}

func (r *listingRepository) GetAny(ctx context.Context, id string) (*listing.Listing, error) {
	query := `SELECT ` + listingColumns + ` FROM listings WHERE id = $1`
	return r.getOne(ctx, query, id)
}

func (r *listingRepository) getOne(ctx context.Context, query string, args ...interface{}) (*listing.Listing, error) {
	var l listing.Listing
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &l, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("listing not found").
				WithHint("No listing matches the given id").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch listing").
			Mark(ierr.ErrDatabase)
	}
	return &l, nil
}

// buildListingWhere translates the filter into parameterized conditions.
// Archived rows are always excluded from filtered reads.
func buildListingWhere(filter *types.ListingFilter) (string, []interface{}) {
	conditions := []string{"archived_at IS NULL"}
	var params []interface{}

	add := func(condition string, value interface{}) {
		params = append(params, value)
		conditions = append(conditions, fmt.Sprintf(condition, len(params)))
	}

	if filter != nil {
		if filter.Status != nil {
			add("status = $%d", *filter.Status)
		}
		if filter.PropertyType != nil {
			add("property_type = $%d", *filter.PropertyType)
		}
		if filter.MinPrice != nil {
			add("list_price >= $%d", *filter.MinPrice)
		}
		if filter.MaxPrice != nil {
			add("list_price <= $%d", *filter.MaxPrice)
		}
		if filter.MinDaysOnMarket != nil {
			add("days_on_market >= $%d", *filter.MinDaysOnMarket)
		}
		if filter.MaxDaysOnMarket != nil {
			add("days_on_market <= $%d", *filter.MaxDaysOnMarket)
		}
		if len(filter.ListingIDs) > 0 {
			add("id = ANY($%d)", pq.Array(filter.ListingIDs))
		}
	}

	return "WHERE " + strings.Join(conditions, " AND "), params
}

func (r *listingRepository) List(ctx context.Context, filter *types.ListingFilter) ([]*listing.Listing, error) {
	where, params := buildListingWhere(filter)

	f := filter
	if f == nil {
		f = &types.ListingFilter{}
	}

	params = append(params, f.GetLimit(), f.GetOffset())
	query := fmt.Sprintf(
		`SELECT %s FROM listings %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		listingColumns, where, f.GetSort(), f.GetOrder(), len(params)-1, len(params),
	)

	listings := make([]*listing.Listing, 0)
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &listings, query, params...); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to list listings").
			Mark(ierr.ErrDatabase)
	}
	return listings, nil
}

func (r *listingRepository) Count(ctx context.Context, filter *types.ListingFilter) (int, error) {
	where, params := buildListingWhere(filter)

	var count int
	query := `SELECT COUNT(*) FROM listings ` + where
	if err := r.db.GetQuerier(ctx).GetContext(ctx, &count, query, params...); err != nil {
		return 0, ierr.WithError(err).
			WithHint("Failed to count listings").
			Mark(ierr.ErrDatabase)
	}
	return count, nil
}

func (r *listingRepository) ListByIDs(ctx context.Context, ids []string, scope types.OwnerScope) ([]*listing.Listing, error) {
	query := `SELECT ` + listingColumns + `
		FROM listings
		WHERE id = ANY($1) AND (listing_agent_id = $2 OR team_id = $3)`

	listings := make([]*listing.Listing, 0)
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &listings, query, pq.Array(ids), scope.AgentID, scope.TeamID); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to fetch listings").
			Mark(ierr.ErrDatabase)
	}
	return listings, nil
}

// UpdateWithVersion persists the listing as a single conditional write: the
// update only lands when the stored row is live and its version still equals
// expected. The distinction between a missing row and a lost race is decided
// by a follow-up existence read.
func (r *listingRepository) UpdateWithVersion(ctx context.Context, l *listing.Listing, expected int) error {
	query := `
		UPDATE listings SET
			property_address = $1,
			display_address = $2,
			city = $3,
			state = $4,
			zip_code = $5,
			list_price = $6,
			property_type = $7,
			bedrooms = $8,
			bathrooms = $9,
			square_feet = $10,
			lot_size = $11,
			year_built = $12,
			description = $13,
			virtual_tour_link = $14,
			listing_commission = $15,
			buyer_commission = $16,
			status = $17,
			listing_date = $18,
			days_on_market = $19,
			version = $20,
			updated_at = $21,
			last_modified_by = $22
		WHERE id = $23 AND archived_at IS NULL AND version = $24`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query,
		l.PropertyAddress, l.DisplayAddress, l.City, l.State, l.ZipCode,
		l.ListPrice, l.PropertyType, l.Bedrooms, l.Bathrooms, l.SquareFeet,
		l.LotSize, l.YearBuilt, l.Description, l.VirtualTourLink,
		l.ListingCommission, l.BuyerCommission, l.Status, l.ListingDate,
		l.DaysOnMarket, l.Version, l.UpdatedAt, l.LastModifiedBy,
		l.ID, expected,
	)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update listing").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update listing").
			Mark(ierr.ErrDatabase)
	}
	if affected > 0 {
		return nil
	}

	// Conditional write matched nothing: either the row is gone/archived or
	// another writer moved the version.
	var version int
	err = r.db.GetQuerier(ctx).GetContext(ctx, &version,
		`SELECT version FROM listings WHERE id = $1 AND archived_at IS NULL`, l.ID)
	if err == sql.ErrNoRows {
		return ierr.NewError("listing not found").
			WithHint("No listing matches the given id").
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to update listing").
			Mark(ierr.ErrDatabase)
	}

	return ierr.NewError("conditional write lost the race").
		WithReportableDetails(map[string]any{
			"current_version": version,
		}).
		Mark(ierr.ErrVersionConflict)
}

func (r *listingRepository) Archive(ctx context.Context, id string, scope types.OwnerScope) (*listing.Listing, error) {
	query := `
		UPDATE listings SET
			archived_at = NOW(),
			status = $1,
			updated_at = NOW(),
			last_modified_by = $2
		WHERE id = $3
		AND archived_at IS NULL
		AND (listing_agent_id = $4 OR team_id = $5)
		RETURNING ` + listingColumns

	return r.conditionalWrite(ctx, query,
		types.ListingStatusCancelled, types.GetUserID(ctx), id, scope.AgentID, scope.TeamID)
}

func (r *listingRepository) Restore(ctx context.Context, id string, scope types.OwnerScope) (*listing.Listing, error) {
	query := `
		UPDATE listings SET
			archived_at = NULL,
			status = $1,
			updated_at = NOW(),
			last_modified_by = $2
		WHERE id = $3
		AND archived_at IS NOT NULL
		AND (listing_agent_id = $4 OR team_id = $5)
		RETURNING ` + listingColumns

	return r.conditionalWrite(ctx, query,
		types.ListingStatusActive, types.GetUserID(ctx), id, scope.AgentID, scope.TeamID)
}

// conditionalWrite runs a predicate-carrying UPDATE ... RETURNING and maps an
// empty match to not-found
func (r *listingRepository) conditionalWrite(ctx context.Context, query string, args ...interface{}) (*listing.Listing, error) {
	var l listing.Listing
	if err := r.db.GetQuerier(ctx).QueryRowxContext(ctx, query, args...).StructScan(&l); err != nil {
		if err == sql.ErrNoRows {
			return nil, ierr.NewError("listing not found").
				WithHint("No matching listing for this operation").
				Mark(ierr.ErrNotFound)
		}
		return nil, ierr.WithError(err).
			WithHint("Failed to write listing").
			Mark(ierr.ErrDatabase)
	}
	return &l, nil
}

func (r *listingRepository) Delete(ctx context.Context, id string, scope types.OwnerScope) error {
	query := `
		DELETE FROM listings
		WHERE id = $1
		AND archived_at IS NOT NULL
		AND (listing_agent_id = $2 OR team_id = $3)`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, scope.AgentID, scope.TeamID)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete listing").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to delete listing").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("listing not found").
			WithHint("No archived listing matches the given id").
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *listingRepository) DeleteBatch(ctx context.Context, ids []string, scope types.OwnerScope) ([]string, error) {
	query := `
		DELETE FROM listings
		WHERE id = ANY($1)
		AND archived_at IS NOT NULL
		AND (listing_agent_id = $2 OR team_id = $3)
		RETURNING id`

	rows, err := r.db.GetQuerier(ctx).QueryxContext(ctx, query, pq.Array(ids), scope.AgentID, scope.TeamID)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to delete listings").
			Mark(ierr.ErrDatabase)
	}
	defer rows.Close()

	deleted := make([]string, 0, len(ids))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, ierr.WithError(err).
				WithHint("Failed to delete listings").
				Mark(ierr.ErrDatabase)
		}
		deleted = append(deleted, id)
	}
	if err := rows.Err(); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to delete listings").
			Mark(ierr.ErrDatabase)
	}
	return deleted, nil
}
