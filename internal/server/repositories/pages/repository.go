package pages

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

// Repository is the storage collaborator for pages. Missing records are
// reported as common.ErrorNotFound.
type Repository interface {
	List(ctx context.Context) ([]*models.Page, error)
	GetByID(ctx context.Context, id string) (*models.Page, error)
	GetByName(ctx context.Context, name string) (*models.Page, error)
	Create(ctx context.Context, page *models.Page) (*models.Page, error)
	Update(ctx context.Context, page *models.Page) error
	// UpdateField sets one top-level field (see models.IsPageField) and
	// stamps updatedAt. It reports whether a page matched.
	UpdateField(ctx context.Context, id, field string, value any, updatedAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}
