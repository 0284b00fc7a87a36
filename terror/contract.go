// SPDX-License-Identifier: ice License 1.0

package terror

// Public API.

type (
	// Err carries a sentinel error together with structured details for the caller.
	Err struct {
		error
		Data map[string]any `json:"data"`
	}
)
