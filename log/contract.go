// SPDX-License-Identifier: ice License 1.0

package log

// Public API.

const (
	Redacted = "[REDACTED]"
)

// Private API.

type (
	cfg struct {
		Encoder string `yaml:"encoder" mapstructure:"encoder"`
		Level   string `yaml:"level" mapstructure:"level"`
	}
)

//nolint:gochecknoglobals // Immutable.
var sensitiveKeys = map[string]struct{}{
	"secret":        {},
	"code":          {},
	"totpcode":      {},
	"backupcode":    {},
	"backupcodes":   {},
	"token":         {},
	"accesstoken":   {},
	"refreshtoken":  {},
	"authorization": {},
	"password":      {},
}
