package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/daap14/secrets/internal/config"
	"github.com/daap14/secrets/internal/database"
	"github.com/daap14/secrets/internal/session"
	"github.com/daap14/secrets/internal/sweeper"
	"github.com/daap14/secrets/internal/user"
)

// stores groups the user and session stores with their teardown.
type stores struct {
	users    user.Repository
	sessions session.Store
	pruner   sweeper.Pruner // nil unless the session store needs sweeping
	closers  []func()
}

// Close releases every store connection in reverse order of opening.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	s := &stores{}

	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, db.Close)

		if err := db.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		slog.Info("database migrations applied")

		s.users = user.NewPostgresRepository(db.Pool())
		if cfg.SessionStore == config.DriverPostgres {
			pg := session.NewPostgresStore(db.Pool())
			s.sessions = pg
			s.pruner = pg
		}

	case config.DriverMongo:
		m, err := database.NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := m.Close(closeCtx); err != nil {
				slog.Warn("failed to disconnect from mongodb", "error", err)
			}
		})

		repo := user.NewMongoRepository(m.Database())
		if err := repo.EnsureIndexes(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.users = repo

	case config.DriverMemory:
		slog.Warn("using in-memory user store; accounts are lost on restart")
		s.users = user.NewMemoryRepository()

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	if s.sessions == nil {
		mem, err := session.NewMemoryStore(cfg.SessionTTL)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, func() {
			if err := mem.Close(); err != nil {
				slog.Warn("failed to close session cache", "error", err)
			}
		})
		s.sessions = mem
	}

	return s, nil
}
