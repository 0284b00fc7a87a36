// SPDX-License-Identifier: ice License 1.0

package users

import (
	"context"

	"github.com/pkg/errors"

	storage "github.com/ice-blockchain/warden/connectors/storage/v2"
	"github.com/ice-blockchain/warden/privacy"
)

// NewPostgres stores the two factor secret encrypted with secrets.
func NewPostgres(db *storage.DB, secrets privacy.EncryptDecrypter) Repository {
	return &postgresStore{db: db, secrets: secrets}
}

// DDL is the schema expected by the postgres repository.
func DDL() string {
	return ddl
}

func (s *postgresStore) Get(ctx context.Context, id int64) (*Record, error) {
	rec, err := storage.Get[Record](ctx, s.db, `SELECT * FROM users WHERE id = $1`, id)
	if err != nil {
		return nil, errors.Wrapf(mapDBError(err), "failed to get user by id %v", id)
	}
	if err = s.decrypt(rec); err != nil {
		return nil, errors.Wrapf(err, "failed to decrypt user %v", id)
	}

	return rec, nil
}

func (s *postgresStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	rec, err := storage.Get[Record](ctx, s.db, `SELECT * FROM users WHERE email = $1`, normalizeEmail(email))
	if err != nil {
		return nil, errors.Wrapf(mapDBError(err), "failed to get user by email %v", email)
	}
	if err = s.decrypt(rec); err != nil {
		return nil, errors.Wrapf(err, "failed to decrypt user %v", rec.ID)
	}

	return rec, nil
}

func (s *postgresStore) Create(ctx context.Context, rec *Record) error {
	if !rec.Role.Valid() {
		return errors.Wrapf(ErrInvalidRole, "%q", rec.Role)
	}
	secret, err := s.encrypt(rec.TwoFactorSecret)
	if err != nil {
		return err
	}
	sql := `INSERT INTO users (id, version, email, role, password_hash, two_factor_secret, two_factor_enabled, backup_codes)
			VALUES ($1, 0, $2, $3, $4, $5, $6, $7)`
	if _, err = storage.Exec(ctx, s.db, sql,
		rec.ID, normalizeEmail(rec.Email), rec.Role, rec.PasswordHash, secret, rec.TwoFactorEnabled, nonNil(rec.BackupCodes)); err != nil {
		return errors.Wrapf(mapDBError(err), "failed to insert user %v", rec.ID)
	}
	rec.Email, rec.Version = normalizeEmail(rec.Email), 0

	return nil
}

func (s *postgresStore) Save(ctx context.Context, rec *Record) error {
	if !rec.Role.Valid() {
		return errors.Wrapf(ErrInvalidRole, "%q", rec.Role)
	}
	secret, err := s.encrypt(rec.TwoFactorSecret)
	if err != nil {
		return err
	}
	sql := `UPDATE users
			SET version = version + 1,
				email = $3,
				role = $4,
				two_factor_secret = $5,
				two_factor_enabled = $6,
				backup_codes = $7,
				password_hash = $8
			WHERE id = $1
			  AND version = $2`
	updated, err := storage.Exec(ctx, s.db, sql,
		rec.ID, rec.Version, normalizeEmail(rec.Email), rec.Role, secret, rec.TwoFactorEnabled, nonNil(rec.BackupCodes), rec.PasswordHash)
	if err != nil {
		return errors.Wrapf(mapDBError(err), "failed to update user %v", rec.ID)
	}
	if updated == 0 {
		if _, gErr := storage.ExecOne[Record](ctx, s.db, `SELECT * FROM users WHERE id = $1`, rec.ID); storage.IsErr(gErr, storage.ErrNotFound) {
			return errors.Wrapf(ErrNotFound, "id %v", rec.ID)
		}

		return errors.Wrapf(ErrVersionConflict, "id %v, expected version %v", rec.ID, rec.Version)
	}
	rec.Email, rec.Version = normalizeEmail(rec.Email), rec.Version+1

	return nil
}

func (s *postgresStore) Close() error {
	return errors.Wrap(s.db.Close(), "failed to close db")
}

func (s *postgresStore) encrypt(secret *string) (*string, error) {
	if secret == nil {
		return nil, nil //nolint:nilnil // Nothing to encrypt.
	}
	encrypted, err := s.secrets.Encrypt(*secret)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt two factor secret")
	}

	return &encrypted, nil
}

func (s *postgresStore) decrypt(rec *Record) error {
	if rec.TwoFactorSecret == nil {
		return nil
	}
	decrypted, err := s.secrets.Decrypt(*rec.TwoFactorSecret)
	if err != nil {
		return err //nolint:wrapcheck // Wrapped by the caller.
	}
	rec.TwoFactorSecret = &decrypted

	return nil
}

func mapDBError(err error) error {
	switch {
	case storage.IsErr(err, storage.ErrNotFound):
		return ErrNotFound
	case storage.IsErr(err, storage.ErrDuplicate):
		return ErrDuplicate
	case storage.IsErr(err, storage.ErrCheckFailed, "role"):
		return ErrInvalidRole
	default:
		return err
	}
}

func nonNil(codes []string) []string {
	if codes == nil {
		return []string{}
	}

	return codes
}
