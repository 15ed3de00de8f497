// Package repomanager opens the configured storage backend and vends the
// repositories built on top of it.
package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/admins"
	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/forms"
	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/pages"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type RepositoryManager interface {
	Pages() pages.Repository
	Forms() forms.Repository
	Admins() admins.Repository
	// RunMigrations brings the schema (tables or indexes) up to date.
	RunMigrations(ctx context.Context) error
	Close(ctx context.Context) error
}

// Settings selects and addresses a backend.
type Settings struct {
	Driver        string
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string
}

// Open connects to the backend named by s.Driver.
func Open(ctx context.Context, s Settings) (RepositoryManager, error) {
	switch s.Driver {
	case DriverPostgres:
		return OpenPostgres(ctx, s.PostgresDSN)
	case DriverMongo:
		return ConnectMongo(ctx, s.MongoURI, s.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown database driver %q", s.Driver)
	}
}
