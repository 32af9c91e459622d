package types

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUUIDWithPrefix(t *testing.T) {
	id := GenerateUUIDWithPrefix(UUID_PREFIX_LISTING)
	assert.Regexp(t, "^lst_[0-9A-Z]{26}$", id)

	bare := GenerateUUIDWithPrefix("")
	assert.Len(t, bare, 26)
}

func TestGenerateMLSNumber(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		mls := GenerateMLSNumber(now)
		assert.Regexp(t, fmt.Sprintf("^MLS%d[0-9]{4}$", now.Year()), mls)
		assert.Len(t, mls, 11)
	}
}
