package listing

import (
	"context"
	"time"

	ierr "github.com/openhousehq/openhouse/internal/errors"
	"github.com/openhousehq/openhouse/internal/types"
)

// Mutation edits a listing in place between the version check and the
// conditional write
type Mutation func(l *Listing) error

// Guard wraps listing updates with an expected-version check so that two
// concurrent editors cannot silently clobber each other: the write is
// persisted as a compare-and-swap against the version last read, and the
// losing writer gets a conflict carrying the winner's version.
type Guard struct {
	repo Repository
}

func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// ApplyWithVersion reads the live listing, checks expected against the
// stored version, applies mutate, increments the version by exactly 1 and
// persists through the repository's conditional write.
//
// expected is mandatory: an unconditional write requires the explicit force
// flag, and even then the write is still CAS'd against the version just read
// so a racing editor loses at the storage boundary instead of being
// overwritten.
func (g *Guard) ApplyWithVersion(ctx context.Context, id string, expected *int, force bool, mutate Mutation) (*Listing, error) {
	if expected == nil && !force {
		return nil, ierr.NewError("version is required for updates").
			WithHint("Pass the version you loaded, or set force for an unconditional write").
			Mark(ierr.ErrValidation)
	}

	current, err := g.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if expected != nil && *expected != current.Version {
		return nil, g.conflict(id, *expected, current.Version)
	}

	prior := current.Version
	if err := mutate(current); err != nil {
		return nil, err
	}

	current.Version = prior + 1
	current.UpdatedAt = time.Now().UTC()
	current.LastModifiedBy = types.GetUserID(ctx)

	if err := g.repo.UpdateWithVersion(ctx, current, prior); err != nil {
		if ierr.IsVersionConflict(err) {
			// Lost the race between read and write; report the winner's
			// version so the caller can re-fetch and resubmit.
			if latest, getErr := g.repo.Get(ctx, id); getErr == nil {
				return nil, g.conflict(id, prior, latest.Version)
			}
		}
		return nil, err
	}

	return current, nil
}

func (g *Guard) conflict(id string, attempted, current int) error {
	return ierr.NewError("listing was modified by another user").
		WithHint("This listing changed since you loaded it. Refresh and try again.").
		WithReportableDetails(map[string]any{
			"listing_id":        id,
			"attempted_version": attempted,
			"current_version":   current,
		}).
		Mark(ierr.ErrVersionConflict)
}
