package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"campus-events/internal/apperr"
	"campus-events/internal/model"
)

func (s *Store) CreateAccount(ctx context.Context, a *model.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (id, email, full_name, role) VALUES ($1,$2,$3,$4)`,
		a.ID, a.Email, a.FullName, a.Role,
	)
	return remote("insert account", err)
}

func (s *Store) AccountRole(ctx context.Context, accountID string) (model.Role, error) {
	var role model.Role
	err := s.pool.QueryRow(ctx, `SELECT role FROM accounts WHERE id = $1`, accountID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", apperr.NewNotFound("account %s not found", accountID)
	}
	if err != nil {
		return "", remote("look up account", err)
	}
	return role, nil
}
