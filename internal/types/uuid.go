package types

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/oklog/ulid/v2"
)

// GenerateUUID returns a k-sortable unique identifier
func GenerateUUID() string {
	return ulid.Make().String()
}

// GenerateUUIDWithPrefix returns a k-sortable unique identifier
// with a prefix ex lst_0ujsswThIGTUYm2K8FjOOfXtY1K
func GenerateUUIDWithPrefix(prefix string) string {
	if prefix == "" {
		return GenerateUUID()
	}
	return fmt.Sprintf("%s_%s", prefix, GenerateUUID())
}

const (
	// Prefixes for all domains and entities
	UUID_PREFIX_LISTING       = "lst"
	UUID_PREFIX_WEBHOOK_EVENT = "whe"
)

// GenerateMLSNumber returns a business-facing listing reference of the form
// MLS<year><4 digits>. The suffix is drawn from a non-cryptographic source
// and carries no uniqueness guarantee on its own; the listings table enforces
// uniqueness and callers regenerate on conflict.
func GenerateMLSNumber(now time.Time) string {
	return fmt.Sprintf("MLS%d%04d", now.Year(), rand.IntN(10000))
}
