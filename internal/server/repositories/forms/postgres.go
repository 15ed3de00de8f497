// Package forms provides form submission repositories for the PostgreSQL and
// MongoDB backends.
package forms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/dbx"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

const formColumns = `id, form_name, form_data, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Form, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+formColumns+` FROM forms ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Form{}
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE id = $1`
	return scanForm(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM forms WHERE form_name = $1 ORDER BY created_at ASC LIMIT 1`
	return scanForm(r.db.QueryRowContext(ctx, query, name))
}

func (r *PostgresRepository) Create(ctx context.Context, form *models.Form) (*models.Form, error) {
	if form.ID == "" {
		form.ID = models.NewID()
	}

	query :=
		`INSERT INTO forms (id, form_name, form_data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, query, form.ID, form.FormName, dataArg(form.FormData), form.CreatedAt, form.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return form, nil
}

func (r *PostgresRepository) Update(ctx context.Context, form *models.Form) error {
	query := `UPDATE forms SET form_name = $2, form_data = $3, updated_at = $4 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, form.ID, form.FormName, dataArg(form.FormData), form.UpdatedAt)
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

func (r *PostgresRepository) UpdateField(ctx context.Context, id, field string, value any, updatedAt time.Time) (bool, error) {
	var query string
	switch field {
	case models.FieldFormName:
		if _, ok := value.(string); !ok {
			return false, fmt.Errorf("%w: formName must be a string", common.ErrArgumentInvalid)
		}
		query = `UPDATE forms SET form_name = $1, updated_at = $2 WHERE id = $3`
	case models.FieldFormData:
		raw, ok := value.(json.RawMessage)
		if !ok {
			return false, fmt.Errorf("%w: formData must be JSON", common.ErrArgumentInvalid)
		}
		value = dataArg(raw)
		query = `UPDATE forms SET form_data = $1, updated_at = $2 WHERE id = $3`
	default:
		return false, fmt.Errorf("%w: unknown form field %q", common.ErrArgumentInvalid, field)
	}

	res, err := r.db.ExecContext(ctx, query, value, updatedAt, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	matched, err := dbx.AffectedOne(res)
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return matched, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forms WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	deleted, err := dbx.AffectedOne(res)
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return deleted, nil
}

// dataArg passes form data as text so the JSONB cast happens server-side.
func dataArg(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

func scanForm(row dbx.RowScanner) (*models.Form, error) {
	var (
		f    models.Form
		data []byte
	)
	if err := row.Scan(&f.ID, &f.FormName, &data, &f.CreatedAt, &f.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	f.FormData = json.RawMessage(dataArg(data))
	return &f, nil
}
