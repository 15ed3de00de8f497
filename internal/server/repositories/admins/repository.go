package admins

import (
	"context"

	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
)

type Repository interface {
	// Create inserts the admin unless the username is taken and reports
	// whether a row was written.
	Create(ctx context.Context, admin *models.Admin) (bool, error)
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	GetByID(ctx context.Context, id string) (*models.Admin, error)
	UpdatePassword(ctx context.Context, id string, hash []byte) error
}
