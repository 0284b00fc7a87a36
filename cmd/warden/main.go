// SPDX-License-Identifier: ice License 1.0

package main

import (
	"context"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/ice-blockchain/warden/auth"
	appCfg "github.com/ice-blockchain/warden/config"
	storage "github.com/ice-blockchain/warden/connectors/storage/v2"
	"github.com/ice-blockchain/warden/log"
	"github.com/ice-blockchain/warden/privacy"
	"github.com/ice-blockchain/warden/ratelimit"
	"github.com/ice-blockchain/warden/server"
	"github.com/ice-blockchain/warden/totp"
	"github.com/ice-blockchain/warden/twofactor"
	"github.com/ice-blockchain/warden/users"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	svc := newService(ctx, applicationYAMLKey)
	server.New(svc, applicationYAMLKey, svc.auth).ListenAndServe(ctx, cancel)
}

func newService(ctx context.Context, cfgKey string) *service {
	var cfg config
	appCfg.MustLoadFromKey(cfgKey, &cfg)
	svc := new(service)
	var locker twofactor.Locker
	switch strings.ToLower(cfg.Storage) {
	case "", storageMemory:
		svc.users = users.NewInMemory()
		locker = twofactor.NewInMemoryLocker()
	case storagePostgres:
		db := storage.MustConnect(ctx, users.DDL(), cfgKey)
		svc.users = users.NewPostgres(db, privacy.New(cfgKey))
		locker = twofactor.NewAdvisoryLocker(db)
	default:
		log.Panic(errors.Errorf("unsupported storage %q", cfg.Storage))
	}
	for _, seed := range cfg.SeedUsers {
		role, err := users.ParseRole(seed.Role)
		log.Panic(errors.Wrapf(err, "invalid seed user %v", seed.ID))
		rec := &users.Record{ID: seed.ID, Email: seed.Email, Role: role}
		if seed.Password != "" {
			hash, hErr := users.HashPassword(seed.Password, cfg.PasswordHashCost)
			log.Panic(errors.Wrapf(hErr, "invalid password of seed user %v", seed.ID))
			rec.PasswordHash = &hash
		}
		if err = svc.users.Create(ctx, rec); err != nil && !errors.Is(err, users.ErrDuplicate) {
			log.Panic(errors.Wrapf(err, "failed to seed user %v", seed.ID))
		}
	}
	svc.auth = auth.New(cfgKey, svc.users)
	svc.twoFactor = twofactor.New(cfgKey, svc.users, totp.New(cfgKey), locker)
	svc.limiter = ratelimit.New(ctx, cfgKey)

	return svc
}

func (*service) Init(context.Context, context.CancelFunc) {
	log.Info("warden initialized")
}

func (s *service) Close(_ context.Context) error {
	return errors.Wrap(multiClose(s.limiter, s.users), "could not close service state")
}

func (s *service) CheckHealth(ctx context.Context) error {
	_, err := s.users.Get(ctx, 0)
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return errors.Wrap(err, "user store is unhealthy")
	}
	if _, err = s.limiter.Remaining(ctx, "health-check"); err != nil {
		return errors.Wrap(err, "rate limiter is unhealthy")
	}

	return nil
}

func multiClose(closers ...io.Closer) error {
	errs := make([]error, 0, len(closers))
	for _, closer := range closers {
		errs = append(errs, closer.Close())
	}

	return multierror.Append(nil, errs...).ErrorOrNil() //nolint:wrapcheck // Wrapped by the caller.
}
