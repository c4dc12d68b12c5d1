package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type Subscriber interface {
	Subscribe(fn func(online bool)) (unsubscribe func())
}

// Migrator applies the schema file once per process. A failed attempt is
// retried on the next call.
type Migrator struct {
	db   execer
	path string
	log  *slog.Logger

	mu      sync.Mutex
	applied bool
}

func NewMigrator(pool *pgxpool.Pool, path string, log *slog.Logger) *Migrator {
	return &Migrator{db: pool, path: path, log: log}
}

func (m *Migrator) Apply(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.applied {
		return nil
	}

	migration, err := os.ReadFile(m.path)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := m.db.Exec(ctx, string(migration)); err != nil {
		return remote("apply migration", err)
	}
	m.applied = true
	m.log.InfoContext(ctx, "migration applied", "file", m.path)
	return nil
}

// ApplyWhenOnline retries Apply on every reconnect until it succeeds, for
// processes that start while the database is unreachable.
func (m *Migrator) ApplyWhenOnline(ctx context.Context, sub Subscriber) (stop func()) {
	return sub.Subscribe(func(online bool) {
		if !online || ctx.Err() != nil {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := m.Apply(ctx); err != nil {
			m.log.WarnContext(ctx, "migration failed", "err", err)
		}
	})
}
