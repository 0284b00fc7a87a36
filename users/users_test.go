// SPDX-License-Identifier: ice License 1.0

package users

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	storage "github.com/ice-blockchain/warden/connectors/storage/v2"
	"github.com/ice-blockchain/warden/connectors/storage/v2/fixture"
	"github.com/ice-blockchain/warden/privacy"
)

func TestParseRole(t *testing.T) {
	t.Parallel()
	role, err := ParseRole("admin")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)
	role, err = ParseRole("USER")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, role)
	_, err = ParseRole("ROOT")
	require.ErrorIs(t, err, ErrInvalidRole)
	assert.False(t, Role("").Valid())
}

func TestClone(t *testing.T) {
	t.Parallel()
	secret := "JBSWY3DPEHPK3PXP"
	rec := &Record{ID: 1, TwoFactorSecret: &secret, BackupCodes: []string{"12345678"}}
	clone := rec.Clone()
	*clone.TwoFactorSecret = "changed"
	clone.BackupCodes[0] = "changed"
	assert.Equal(t, "JBSWY3DPEHPK3PXP", *rec.TwoFactorSecret)
	assert.Equal(t, "12345678", rec.BackupCodes[0])
	assert.True(t, rec.HasTwoFactorSecret())
	assert.False(t, (&Record{}).HasTwoFactorSecret())
	assert.Nil(t, (*Record)(nil).Clone())
}

func TestPassword(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("correct horse battery", bcrypt.MinCost)
	require.NoError(t, err)
	rec := &Record{PasswordHash: &hash}
	assert.True(t, rec.CheckPassword("correct horse battery"))
	assert.False(t, rec.CheckPassword("correct horse battery "))
	assert.False(t, rec.CheckPassword(""))
	assert.False(t, (&Record{}).CheckPassword(""))
	assert.False(t, (*Record)(nil).CheckPassword("correct horse battery"))

	clone := rec.Clone()
	*clone.PasswordHash = "changed"
	assert.Equal(t, hash, *rec.PasswordHash)

	_, err = HashPassword("short", bcrypt.MinCost)
	require.ErrorIs(t, err, ErrInvalidPassword)
	_, err = HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	require.ErrorIs(t, err, ErrInvalidPassword)
}

func TestInMemory(t *testing.T) {
	t.Parallel()
	testRepository(t, NewInMemory())
}

func TestPostgres(t *testing.T) {
	t.Parallel()
	container := fixture.MustStart(t)
	url, drop := container.MustTempDB(t.Context())
	t.Cleanup(drop)
	secrets := privacy.New("self")
	repo := NewPostgres(storage.MustConnectWithConfig(t.Context(), DDL(), &storage.Config{PrimaryURL: url, RunDDL: true}), secrets)
	t.Cleanup(func() { require.NoError(t, repo.Close()) })

	testRepository(t, repo)

	var stored string
	db := repo.(*postgresStore).db //nolint:forcetypeassert,errcheck // We know for sure.
	require.NoError(t, db.Primary().QueryRow(t.Context(), `SELECT two_factor_secret FROM users WHERE id = 1`).Scan(&stored))
	assert.NotContains(t, stored, "JBSWY3DPEHPK3PXP")
	decrypted, err := secrets.Decrypt(stored)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", decrypted)
}

//nolint:funlen // A whole lifecycle.
func testRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := t.Context()

	require.NoError(t, repo.Create(ctx, &Record{ID: 1, Email: " JDoe@Example.com", Role: RoleUser}))
	require.NoError(t, repo.Create(ctx, &Record{ID: 2, Email: "admin@example.com", Role: RoleAdmin}))
	require.ErrorIs(t, repo.Create(ctx, &Record{ID: 1, Email: "other@example.com", Role: RoleUser}), ErrDuplicate)
	require.ErrorIs(t, repo.Create(ctx, &Record{ID: 3, Email: "jdoe@example.com", Role: RoleUser}), ErrDuplicate)
	require.ErrorIs(t, repo.Create(ctx, &Record{ID: 3, Email: "root@example.com", Role: "ROOT"}), ErrInvalidRole)

	_, err := repo.Get(ctx, 404)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)

	rec, err := repo.GetByEmail(ctx, "JDOE@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, "jdoe@example.com", rec.Email)
	assert.Equal(t, int64(0), rec.Version)
	assert.False(t, rec.HasTwoFactorSecret())
	assert.Empty(t, rec.BackupCodes)

	assert.False(t, rec.CheckPassword("correct horse battery"))

	password, err := HashPassword("correct horse battery", bcrypt.MinCost)
	require.NoError(t, err)
	secret := "JBSWY3DPEHPK3PXP"
	rec.PasswordHash, rec.TwoFactorSecret = &password, &secret
	rec.BackupCodes = []string{"hash1", "hash2"}
	require.NoError(t, repo.Save(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	stale, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, stale.TwoFactorSecret)
	assert.Equal(t, secret, *stale.TwoFactorSecret)
	assert.Equal(t, []string{"hash1", "hash2"}, stale.BackupCodes)
	assert.True(t, stale.CheckPassword("correct horse battery"))
	assert.Equal(t, int64(1), stale.Version)

	rec.TwoFactorEnabled = true
	require.NoError(t, repo.Save(ctx, rec))
	assert.Equal(t, int64(2), rec.Version)

	stale.TwoFactorSecret = nil
	require.ErrorIs(t, repo.Save(ctx, stale), ErrVersionConflict)
	require.ErrorIs(t, repo.Save(ctx, &Record{ID: 404, Email: "ghost@example.com", Role: RoleUser}), ErrNotFound)

	current, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, current.TwoFactorEnabled)
	assert.Equal(t, secret, *current.TwoFactorSecret)

	current.TwoFactorSecret, current.TwoFactorEnabled, current.BackupCodes = nil, false, nil
	require.NoError(t, repo.Save(ctx, current))
	current, err = repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, current.TwoFactorSecret)
	assert.Empty(t, current.BackupCodes)

	testConcurrentSaves(t, repo, 2)
}

func testConcurrentSaves(t *testing.T, repo Repository, userID int64) {
	t.Helper()
	const writers = 8
	var (
		wg, ready sync.WaitGroup
		succeeded atomic.Int64
		start     = make(chan struct{})
	)
	ready.Add(writers)
	for i := range writers {
		wg.Go(func() {
			rec, err := repo.Get(context.Background(), userID)
			ready.Done()
			if !assert.NoError(t, err) {
				return
			}
			<-start
			rec.BackupCodes = []string{strings.Repeat("x", i+1)}
			if err = repo.Save(context.Background(), rec); err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrVersionConflict)
			}
		})
	}
	ready.Wait()
	close(start)
	wg.Wait()
	assert.Equal(t, int64(1), succeeded.Load())
}
