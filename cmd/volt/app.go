package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ericfisherdev/volt/internal/adapter/driven/keyring"
	sqliteadapter "github.com/ericfisherdev/volt/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/volt/internal/adapter/driving/http"
	"github.com/ericfisherdev/volt/internal/application"
	"github.com/ericfisherdev/volt/internal/config"
	"github.com/ericfisherdev/volt/internal/domain/port/driven"
)

// app is the composition root shared by every subcommand.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	svc    httphandler.Services

	closers []func() error
}

// openApp loads configuration, opens both stores, applies migrations and
// wires the application services.
func openApp(ctx context.Context) (_ *app, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)

	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	db, err := openStore(ctx, cfg.DBPath, sqliteadapter.MetadataMigrations)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, db.Close)
	logger.Debug("metadata store opened", "path", cfg.DBPath)

	secrets, err := a.openSecrets(ctx)
	if err != nil {
		return nil, err
	}

	gate := application.NewGate()
	groups := sqliteadapter.NewGroupRepo(db)
	creds := sqliteadapter.NewCredentialRepo(db)
	icons := sqliteadapter.NewIconRepo(db)

	a.svc = httphandler.Services{
		Vault: application.NewVaultService(gate, groups, creds, icons, secrets, creds, logger),
		Query: application.NewQueryService(gate, groups, creds, secrets),
		Icons: application.NewIconService(gate, icons, logger),
		Audit: application.NewAuditService(gate, creds, secrets, logger),
	}

	if _, err := a.svc.Icons.EnsureDefaultIcon(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// openSecrets builds the configured SecretStore backend.
func (a *app) openSecrets(ctx context.Context) (driven.SecretStore, error) {
	sc := a.cfg.Secrets

	switch sc.Backend {
	case config.BackendKeyring:
		store, err := keyring.Open(keyring.Config{
			ServiceName: sc.KeyringService,
			FileDir:     sc.KeyringDir,
			Passphrase:  sc.Passphrase,
		})
		if err != nil {
			return nil, err
		}
		a.logger.Debug("keyring secret store opened", "service", sc.KeyringService)
		return store, nil

	default:
		if !sc.HasKey() {
			return nil, errors.New("the sqlite secret backend needs VOLT_SECRET_KEY or VOLT_PASSPHRASE with VOLT_SALT")
		}
		db, err := openStore(ctx, sc.DBPath, sqliteadapter.SecretMigrations)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		a.logger.Debug("sqlite secret store opened", "path", sc.DBPath)
		return sqliteadapter.NewSecretRepo(db, sc.Key), nil
	}
}

// Close releases every store opened by openApp, newest first.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func openStore(ctx context.Context, path string, set sqliteadapter.MigrationSet) (*sqliteadapter.DB, error) {
	db, err := sqliteadapter.NewDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := sqliteadapter.RunMigrations(db.Writer, set); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}
	return db, nil
}
