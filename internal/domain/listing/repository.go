package listing

import (
	"context"

	"github.com/openhousehq/openhouse/internal/types"
)

// Repository defines the interface for listing data access. The service
// treats it as a conditional store: every write carries its predicate
// (version equality, archived-ness, ownership) so that races resolve at the
// storage boundary rather than in process.
type Repository interface {
	// Create inserts a new listing. Returns ErrAlreadyExists when the MLS
	// number collides with an existing row.
	Create(ctx context.Context, l *Listing) error

	// Get returns a live (non-archived) listing by id
	Get(ctx context.Context, id string) (*Listing, error)

	// GetAny returns a listing by id regardless of archive state
	GetAny(ctx context.Context, id string) (*Listing, error)

	// List and Count return live listings matching the filter
	List(ctx context.Context, filter *types.ListingFilter) ([]*Listing, error)
	Count(ctx context.Context, filter *types.ListingFilter) (int, error)

	// ListByIDs returns listings (archived included) matching the ids under
	// the ownership scope. Missing ids are simply absent from the result.
	ListByIDs(ctx context.Context, ids []string, scope types.OwnerScope) ([]*Listing, error)

	// UpdateWithVersion persists l only if the stored row is live and its
	// version still equals expected (compare-and-swap). Returns
	// ErrVersionConflict when the predicate fails against an existing row
	// and ErrNotFound when no live row matches the id.
	UpdateWithVersion(ctx context.Context, l *Listing, expected int) error

	// Archive soft-deletes: matches archived_at IS NULL plus the ownership
	// scope, sets archived_at and forces status Cancelled. Returns
	// ErrNotFound when no live owned row matches (including the
	// already-archived case).
	Archive(ctx context.Context, id string, scope types.OwnerScope) (*Listing, error)

	// Restore reverses Archive: matches archived_at IS NOT NULL plus the
	// ownership scope, clears archived_at and sets status Active.
	Restore(ctx context.Context, id string, scope types.OwnerScope) (*Listing, error)

	// Delete hard-deletes an archived listing: matches archived_at IS NOT
	// NULL plus the ownership scope.
	Delete(ctx context.Context, id string, scope types.OwnerScope) error

	// DeleteBatch hard-deletes the given archived listings under the
	// ownership scope and returns the deleted ids. Callers wrap it in a
	// transaction together with the verification reads.
	DeleteBatch(ctx context.Context, ids []string, scope types.OwnerScope) ([]string, error)
}
