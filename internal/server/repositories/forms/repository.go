package forms

import (
	"context"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

// Repository is the storage collaborator for form submissions.
type Repository interface {
	List(ctx context.Context) ([]*models.Form, error)
	GetByID(ctx context.Context, id string) (*models.Form, error)
	GetByName(ctx context.Context, name string) (*models.Form, error)
	Create(ctx context.Context, form *models.Form) (*models.Form, error)
	Update(ctx context.Context, form *models.Form) error
	// UpdateField accepts only formName (string) and formData (json.RawMessage).
	UpdateField(ctx context.Context, id, field string, value any, updatedAt time.Time) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}
