// SPDX-License-Identifier: ice License 1.0

package log

import (
	"strings"
)

// redact replaces the value of every key/value pair whose key is sensitive.
// The input is never mutated.
func redact(fields []any) []any {
	var out []any
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		if _, sensitive := sensitiveKeys[strings.ToLower(key)]; !sensitive {
			continue
		}
		if out == nil {
			out = append(make([]any, 0, len(fields)), fields...)
		}
		out[i+1] = Redacted
	}
	if out == nil {
		return fields
	}

	return out
}
