package forms

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "forms"

// formDocument is the stored shape. Object payloads are embedded documents;
// other JSON values are kept as text.
type formDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	FormName  string             `bson:"formName"`
	FormData  bson.RawValue      `bson:"formData"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.Form, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	var docs []formDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]*models.Form, 0, len(docs))
	for i := range docs {
		f, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	return result, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Form, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, options.FindOne())
}

func (r *MongoRepository) GetByName(ctx context.Context, name string) (*models.Form, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.findOne(ctx, bson.D{{Key: "formName", Value: name}}, opts)
}

func (r *MongoRepository) Create(ctx context.Context, form *models.Form) (*models.Form, error) {
	if form.ID == "" {
		form.ID = models.NewID()
	}
	doc, err := fromModel(form)
	if err != nil {
		return nil, err
	}
	if _, err := r.coll.InsertOne(ctx, doc.insert()); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return form, nil
}

func (r *MongoRepository) Update(ctx context.Context, form *models.Form) error {
	doc, err := fromModel(form)
	if err != nil {
		return err
	}
	set := bson.D{
		{Key: "formName", Value: doc.formName},
		{Key: "formData", Value: doc.formData},
		{Key: "updatedAt", Value: doc.updatedAt},
	}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: doc.id}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) UpdateField(ctx context.Context, id, field string, value any, updatedAt time.Time) (bool, error) {
	switch field {
	case models.FieldFormName:
		if _, ok := value.(string); !ok {
			return false, fmt.Errorf("%w: formName must be a string", common.ErrArgumentInvalid)
		}
	case models.FieldFormData:
		raw, ok := value.(json.RawMessage)
		if !ok {
			return false, fmt.Errorf("%w: formData must be JSON", common.ErrArgumentInvalid)
		}
		encoded, err := encodeData(raw)
		if err != nil {
			return false, err
		}
		value = encoded
	default:
		return false, fmt.Errorf("%w: unknown form field %q", common.ErrArgumentInvalid, field)
	}

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: field, Value: value},
		{Key: "updatedAt", Value: updatedAt},
	}}}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptions) (*models.Form, error) {
	var doc formDocument
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel()
}

func dataText(raw json.RawMessage) string {
	if len(bytes.TrimSpace(raw)) == 0 {
		return "{}"
	}
	return string(raw)
}

// encodeData turns a JSON object into a BSON document so other readers of
// the collection see formData as an embedded document.
func encodeData(raw json.RawMessage) (any, error) {
	text := dataText(raw)
	if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		return text, nil
	}
	var doc bson.D
	if err := bson.UnmarshalExtJSON([]byte(text), false, &doc); err != nil {
		return nil, fmt.Errorf("%w: formData: %v", common.ErrArgumentInvalid, err)
	}
	return doc, nil
}

func decodeData(v bson.RawValue) (json.RawMessage, error) {
	switch v.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return json.RawMessage("{}"), nil
	case bsontype.String:
		return json.RawMessage(dataText(json.RawMessage(v.StringValue()))), nil
	case bsontype.EmbeddedDocument:
		text, err := bson.MarshalExtJSON(v.Document(), false, false)
		if err != nil {
			return nil, fmt.Errorf("decode formData: %w", err)
		}
		return json.RawMessage(text), nil
	default:
		return nil, fmt.Errorf("formData stored as %s", v.Type)
	}
}

type formWrite struct {
	id        primitive.ObjectID
	formName  string
	formData  any
	createdAt time.Time
	updatedAt time.Time
}

func (w *formWrite) insert() bson.D {
	return bson.D{
		{Key: "_id", Value: w.id},
		{Key: "formName", Value: w.formName},
		{Key: "formData", Value: w.formData},
		{Key: "createdAt", Value: w.createdAt},
		{Key: "updatedAt", Value: w.updatedAt},
	}
}

func fromModel(f *models.Form) (*formWrite, error) {
	oid, err := primitive.ObjectIDFromHex(f.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad form id %q", common.ErrArgumentInvalid, f.ID)
	}
	data, err := encodeData(f.FormData)
	if err != nil {
		return nil, err
	}
	return &formWrite{
		id:        oid,
		formName:  f.FormName,
		formData:  data,
		createdAt: f.CreatedAt,
		updatedAt: f.UpdatedAt,
	}, nil
}

func (d *formDocument) toModel() (*models.Form, error) {
	data, err := decodeData(d.FormData)
	if err != nil {
		return nil, fmt.Errorf("form %s: %w", d.ID.Hex(), err)
	}
	return &models.Form{
		ID:        d.ID.Hex(),
		FormName:  d.FormName,
		FormData:  data,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}
