// Package app wires the data layer together: store, migrations, cache,
// synchronizer, notifier, and gateway.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/medisync/medisync/internal/cache"
	"github.com/medisync/medisync/internal/config"
	"github.com/medisync/medisync/internal/gateway"
	"github.com/medisync/medisync/internal/migrate"
	"github.com/medisync/medisync/internal/notify"
	"github.com/medisync/medisync/internal/patient"
	"github.com/medisync/medisync/internal/store"
	"github.com/medisync/medisync/internal/syncer"
)

// App owns the assembled data layer. The UI mutation path runs through it:
// cache write, then a synchronizer pass, then a change notification, so
// every subscribed view re-reads.
type App struct {
	Config   config.Config
	Log      *zap.Logger
	Manager  *store.Manager
	Store    *store.Store
	Cache    *cache.Cache
	Syncer   *syncer.Syncer
	Notifier *notify.Notifier
	Gateway  *gateway.Gateway
	Patients *patient.Service
}

// New builds the data layer from config: opens the store, replays
// migrations, loads the cache, and starts the cross-context listener.
// Store and migration failures are fatal and abort startup.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	manager := store.NewManager(cfg.StoreConfig())
	st, err := manager.Open()
	if err != nil {
		return nil, err
	}

	applied, err := migrate.NewRunner(st, log).Run(ctx)
	if err != nil {
		manager.Close()
		return nil, err
	}
	if len(applied) > 0 {
		log.Info("migrations applied", zap.Strings("names", applied))
	}

	c, err := cache.Open(cfg.CachePath, log)
	if err != nil {
		manager.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	sync := syncer.New(c, st, log)

	notifier := notify.New(
		notify.NewBus(),
		notify.NewFileTransport(cfg.SignalPath, log),
		log,
	)
	if err := notifier.Start(); err != nil {
		manager.Close()
		return nil, fmt.Errorf("start notifier: %w", err)
	}

	return &App{
		Config:   cfg,
		Log:      log,
		Manager:  manager,
		Store:    st,
		Cache:    c,
		Syncer:   sync,
		Notifier: notifier,
		Gateway:  gateway.New(st, sync, notifier, log),
		Patients: patient.NewService(st, log),
	}, nil
}

// Close releases the notifier and the store handle.
func (a *App) Close() error {
	return errors.Join(a.Notifier.Close(), a.Manager.Close())
}

// SavePatient runs the UI mutation path for one record: validate, write to
// the cache, push the cache into the store, and notify every observer.
// Assigns a canonical identifier when the record has none; if a freshly
// generated identifier collides with a cached record, a collision-free one
// is used instead.
func (a *App) SavePatient(ctx context.Context, rec patient.Record) (patient.Record, error) {
	if err := patient.Validate(rec); err != nil {
		return patient.Record{}, err
	}

	if rec.ID == "" {
		rec.ID = patient.NewID()
		if _, exists := a.Cache.FindByID(rec.ID); exists {
			rec.ID = patient.NewCollisionFreeID()
		}
	}

	if err := a.Cache.Upsert(rec); err != nil {
		return patient.Record{}, fmt.Errorf("cache write: %w", err)
	}

	res := a.Syncer.Sync(ctx)
	if res.Failed > 0 {
		a.Log.Warn("sync pass had failures",
			zap.Int("synced", res.Synced), zap.Int("failed", res.Failed))
	}

	a.Notifier.NotifyDataChanged("patients")
	return rec, nil
}

// DeletePatient removes a record from the cache, converges the store, and
// notifies. Deleting an unknown identifier is a no-op.
func (a *App) DeletePatient(ctx context.Context, id string) error {
	if err := a.Cache.Delete(id); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}

	a.Syncer.Sync(ctx)
	a.Notifier.NotifyDataChanged("patients")
	return nil
}
