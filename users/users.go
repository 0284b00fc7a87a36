// SPDX-License-Identifier: ice License 1.0

package users

import (
	"crypto/rand"
	"slices"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

//nolint:gochecknoglobals // Computed once, it's a constant afterwards.
var unusablePasswordHash = sync.OnceValue(func() string {
	hash, err := bcrypt.GenerateFromPassword([]byte(rand.Text()), bcrypt.DefaultCost)
	if err != nil {
		panic(errors.Wrap(err, "failed to hash the unusable password")) //nolint:forbidigo // Never happens.
	}

	return string(hash)
})

func ParseRole(val string) (Role, error) {
	if role := Role(strings.ToUpper(val)); role.Valid() {
		return role, nil
	}

	return "", errors.Wrapf(ErrInvalidRole, "%q", val)
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	clone := *r
	if r.TwoFactorSecret != nil {
		secret := *r.TwoFactorSecret
		clone.TwoFactorSecret = &secret
	}
	if r.PasswordHash != nil {
		hash := *r.PasswordHash
		clone.PasswordHash = &hash
	}
	clone.BackupCodes = slices.Clone(r.BackupCodes)

	return &clone
}

func (r *Record) HasTwoFactorSecret() bool {
	return r.TwoFactorSecret != nil && *r.TwoFactorSecret != ""
}

// HashPassword hashes password with bcrypt; a cost out of bcrypt's range falls back to bcrypt.DefaultCost.
func HashPassword(password string, cost int) (string, error) {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return "", errors.Wrapf(ErrInvalidPassword, "length has to be between %v and %v", minPasswordLength, maxPasswordLength)
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}

	return string(hash), nil
}

// CheckPassword takes about as long whether or not the record has a password, so unknown and password-less accounts
// can be checked against a nil record without revealing that.
func (r *Record) CheckPassword(password string) bool {
	hash := unusablePasswordHash()
	if r != nil && r.PasswordHash != nil && *r.PasswordHash != "" {
		hash = *r.PasswordHash
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil && hash != unusablePasswordHash()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
