// SPDX-License-Identifier: ice License 1.0

package users

import (
	"context"

	"github.com/pkg/errors"
)

// NewInMemory returns a process local Repository, used in tests and single instance deployments.
func NewInMemory(records ...*Record) Repository {
	s := &memoryStore{byID: make(map[int64]*Record, len(records)), byEmail: make(map[string]int64, len(records))}
	for _, rec := range records {
		if err := s.Create(context.Background(), rec); err != nil {
			panic(err) //nolint:forbidigo // Static seeding.
		}
	}

	return s
}

func (s *memoryStore) Get(_ context.Context, id int64) (*Record, error) {
	s.mx.RLock()
	defer s.mx.RUnlock()
	rec, found := s.byID[id]
	if !found {
		return nil, errors.Wrapf(ErrNotFound, "id %v", id)
	}

	return rec.Clone(), nil
}

func (s *memoryStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	s.mx.RLock()
	id, found := s.byEmail[normalizeEmail(email)]
	s.mx.RUnlock()
	if !found {
		return nil, errors.Wrapf(ErrNotFound, "email %v", email)
	}

	return s.Get(ctx, id)
}

func (s *memoryStore) Create(_ context.Context, rec *Record) error {
	if !rec.Role.Valid() {
		return errors.Wrapf(ErrInvalidRole, "%q", rec.Role)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	email := normalizeEmail(rec.Email)
	if _, found := s.byID[rec.ID]; found {
		return errors.Wrapf(ErrDuplicate, "id %v", rec.ID)
	}
	if _, found := s.byEmail[email]; found {
		return errors.Wrapf(ErrDuplicate, "email %v", rec.Email)
	}
	stored := rec.Clone()
	stored.Email = email
	stored.Version = 0
	s.byID[rec.ID] = stored
	s.byEmail[email] = rec.ID
	rec.Email, rec.Version = email, 0

	return nil
}

func (s *memoryStore) Save(_ context.Context, rec *Record) error {
	if !rec.Role.Valid() {
		return errors.Wrapf(ErrInvalidRole, "%q", rec.Role)
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	current, found := s.byID[rec.ID]
	if !found {
		return errors.Wrapf(ErrNotFound, "id %v", rec.ID)
	}
	if current.Version != rec.Version {
		return errors.Wrapf(ErrVersionConflict, "id %v, expected version %v, actual %v", rec.ID, rec.Version, current.Version)
	}
	email := normalizeEmail(rec.Email)
	if id, taken := s.byEmail[email]; taken && id != rec.ID {
		return errors.Wrapf(ErrDuplicate, "email %v", rec.Email)
	}
	stored := rec.Clone()
	stored.Email = email
	stored.Version++
	delete(s.byEmail, current.Email)
	s.byEmail[email] = rec.ID
	s.byID[rec.ID] = stored
	rec.Email, rec.Version = email, stored.Version

	return nil
}

func (*memoryStore) Close() error {
	return nil
}
