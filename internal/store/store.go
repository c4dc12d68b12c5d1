package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the remote event/account store backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Ping(ctx context.Context) error {
	return remote("ping", s.pool.Ping(ctx))
}
