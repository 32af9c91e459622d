package testutil

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorDetails extracts the reportable details attached to an error through
// the error builder, decoded the same way the HTTP error handler surfaces
// them to callers.
func ErrorDetails(err error) map[string]any {
	details := make(map[string]any)

	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			if strings.HasPrefix(payload, "__json__:") {
				var jsonDetails map[string]any
				if jsonErr := json.Unmarshal([]byte(payload[len("__json__:"):]), &jsonDetails); jsonErr == nil {
					for k, v := range jsonDetails {
						details[k] = v
					}
				}
			}
		}
	}

	return details
}
