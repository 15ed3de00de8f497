package repomanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/admins"
	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/forms"
	"github.com/dmitrijs2005/pagekeeper/internal/server/repositories/pages"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoRepositoryManager vends MongoDB-backed repositories over one database.
type MongoRepositoryManager struct {
	client *mongo.Client
	db     *mongo.Database
}

// ConnectMongo dials the deployment at uri and pings the primary.
func ConnectMongo(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect error: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping error: %w", err)
	}
	return NewMongoRepositoryManager(client, database), nil
}

func NewMongoRepositoryManager(client *mongo.Client, database string) *MongoRepositoryManager {
	return &MongoRepositoryManager{client: client, db: client.Database(database)}
}

func (m *MongoRepositoryManager) Pages() pages.Repository {
	return pages.NewMongoRepository(m.db)
}

func (m *MongoRepositoryManager) Forms() forms.Repository {
	return forms.NewMongoRepository(m.db)
}

func (m *MongoRepositoryManager) Admins() admins.Repository {
	return admins.NewMongoRepository(m.db)
}

// RunMigrations creates the lookup indexes. Creating an existing index is a
// no-op on the server, so this runs on every start.
func (m *MongoRepositoryManager) RunMigrations(ctx context.Context) error {
	indexes := []struct {
		collection string
		model      mongo.IndexModel
	}{
		{pages.CollectionName, mongo.IndexModel{Keys: bson.D{{Key: "page", Value: 1}, {Key: "createdAt", Value: 1}}}},
		{forms.CollectionName, mongo.IndexModel{Keys: bson.D{{Key: "formName", Value: 1}, {Key: "createdAt", Value: 1}}}},
		{admins.CollectionName, mongo.IndexModel{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
	}

	for _, idx := range indexes {
		if _, err := m.db.Collection(idx.collection).Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.collection, err)
		}
	}
	return nil
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
