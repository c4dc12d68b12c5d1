package store

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"campus-events/internal/apperr"
)

// remote marks failures where the database could not be reached or the call
// could not complete as ConnectivityError. Other errors pass through.
func remote(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		connErr *pgconn.ConnectError
		netErr  net.Error
	)
	if errors.As(err, &connErr) ||
		errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		pgconn.SafeToRetry(err) {
		return apperr.NewConnectivity("%s: %w", op, err)
	}
	return err
}
