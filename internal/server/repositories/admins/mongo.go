package admins

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "admins"

// adminDocument is the stored shape. The bcrypt hash is kept as a string
// under "password", the name other writers of the collection use.
type adminDocument struct {
	ID           primitive.ObjectID `bson:"_id"`
	Username     string             `bson:"username"`
	PasswordHash string             `bson:"password"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

func (d *adminDocument) toModel() *models.Admin {
	return &models.Admin{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: []byte(d.PasswordHash),
		CreatedAt:    d.CreatedAt,
	}
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// Create relies on the unique username index; a duplicate key means the
// admin already exists.
func (r *MongoRepository) Create(ctx context.Context, admin *models.Admin) (bool, error) {
	if admin.ID == "" {
		admin.ID = models.NewID()
	}
	oid, err := primitive.ObjectIDFromHex(admin.ID)
	if err != nil {
		return false, fmt.Errorf("%w: bad admin id %q", common.ErrArgumentInvalid, admin.ID)
	}

	doc := adminDocument{
		ID:           oid,
		Username:     admin.Username,
		PasswordHash: string(admin.PasswordHash),
		CreatedAt:    admin.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return true, nil
}

func (r *MongoRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return r.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Admin, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D) (*models.Admin, error) {
	var doc adminDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "password", Value: string(hash)}}}}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}
