// Package pages provides page repositories for the PostgreSQL and MongoDB
// backends.
package pages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/dbx"
	"github.com/dmitrijs2005/pagekeeper/internal/doctree"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

const pageColumns = `id, page_name, sections, images, videos, pdfs, created_at, updated_at`

// fieldColumns maps page fields to their columns. Anything else is rejected
// before it reaches SQL.
var fieldColumns = map[string]string{
	models.FieldPageName: "page_name",
	models.FieldSections: "sections",
	models.FieldImages:   "images",
	models.FieldVideos:   "videos",
	models.FieldPDFs:     "pdfs",
}

// PostgresRepository stores pages in a single table with JSONB columns for
// sections and media lists.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// List returns all pages, newest first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Page{}
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE id = $1`
	return scanPage(r.db.QueryRowContext(ctx, query, id))
}

// GetByName returns the oldest page with that name; names are not unique.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Page, error) {
	query := `SELECT ` + pageColumns + ` FROM pages WHERE page_name = $1 ORDER BY created_at ASC LIMIT 1`
	return scanPage(r.db.QueryRowContext(ctx, query, name))
}

func (r *PostgresRepository) Create(ctx context.Context, page *models.Page) (*models.Page, error) {
	if page.ID == "" {
		page.ID = models.NewID()
	}
	args, err := pageArgs(page)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO pages (id, page_name, sections, images, videos, pdfs, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	args = append([]any{page.ID}, args...)
	args = append(args, page.CreatedAt, page.UpdatedAt)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return page, nil
}

// Update overwrites every mutable column of the page.
func (r *PostgresRepository) Update(ctx context.Context, page *models.Page) error {
	args, err := pageArgs(page)
	if err != nil {
		return err
	}

	query :=
		`UPDATE pages SET page_name = $2, sections = $3, images = $4, videos = $5, pdfs = $6, updated_at = $7
		 WHERE id = $1`

	args = append([]any{page.ID}, args...)
	args = append(args, page.UpdatedAt)

	res, err := r.db.ExecContext(ctx, query, args...)
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
	column, ok := fieldColumns[field]
	if !ok {
		return false, fmt.Errorf("%w: unknown page field %q", common.ErrArgumentInvalid, field)
	}

	arg, err := columnValue(field, value)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf(`UPDATE pages SET %s = $1, updated_at = $2 WHERE id = $3`, column)

	res, err := r.db.ExecContext(ctx, query, arg, updatedAt, id)
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
	res, err := r.db.ExecContext(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	deleted, err := dbx.AffectedOne(res)
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return deleted, nil
}

// pageArgs returns page_name, sections, images, videos and pdfs encoded for
// their columns.
func pageArgs(p *models.Page) ([]any, error) {
	p.EnsureDefaults()

	sections, err := doctree.Encode(p.Sections)
	if err != nil {
		return nil, fmt.Errorf("encode sections: %w", err)
	}
	images, err := encodeList(p.Images)
	if err != nil {
		return nil, err
	}
	videos, err := encodeList(p.Videos)
	if err != nil {
		return nil, err
	}
	pdfs, err := encodeList(p.PDFs)
	if err != nil {
		return nil, err
	}
	return []any{p.PageName, sections, images, videos, pdfs}, nil
}

func columnValue(field string, value any) (any, error) {
	switch field {
	case models.FieldPageName:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("%w: pageName must be a string", common.ErrArgumentInvalid)
		}
		return s, nil
	case models.FieldSections:
		return doctree.Encode(value)
	default:
		list, ok := value.([]string)
		if !ok {
			return nil, fmt.Errorf("%w: %s must be a list of strings", common.ErrArgumentInvalid, field)
		}
		return encodeList(list)
	}
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func scanPage(row dbx.RowScanner) (*models.Page, error) {
	var (
		p                              models.Page
		sections, images, videos, pdfs []byte
	)

	err := row.Scan(&p.ID, &p.PageName, &sections, &images, &videos, &pdfs, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if p.Sections, err = doctree.Normalize(json.RawMessage(sections)); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		raw []byte
		dst *[]string
	}{{images, &p.Images}, {videos, &p.Videos}, {pdfs, &p.PDFs}} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode media list: %w", err)
		}
	}
	p.EnsureDefaults()

	return &p, nil
}
