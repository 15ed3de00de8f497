// Package admins stores the accounts allowed to edit site content.
package admins

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/dbx"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, admin *models.Admin) (bool, error) {
	if admin.ID == "" {
		admin.ID = models.NewID()
	}

	query :=
		`INSERT INTO admins (id, username, password_hash, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (username) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, admin.ID, admin.Username, admin.PasswordHash, admin.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	created, err := dbx.AffectedOne(res)
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return created, nil
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	query :=
		`SELECT id, username, password_hash, created_at FROM admins
		 WHERE username = $1`

	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return admin, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	query :=
		`SELECT id, username, password_hash, created_at FROM admins
		 WHERE id = $1`

	admin := &models.Admin{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return admin, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	res, err := r.db.ExecContext(ctx, `UPDATE admins SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	ok, err := dbx.AffectedOne(res)
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if !ok {
		return common.ErrorNotFound
	}
	return nil
}
