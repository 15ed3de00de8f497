package pages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/pagekeeper/internal/common"
	"github.com/dmitrijs2005/pagekeeper/internal/doctree"
	"github.com/dmitrijs2005/pagekeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding pages.
const CollectionName = "pages"

// Stored field names shared with other writers of the collection.
const (
	mongoFieldName     = "page"
	mongoFieldSections = "sections"
)

// pageDocument is the stored shape. Sections are written as canonical JSON
// text; older writers stored an embedded document, so reads accept both.
type pageDocument struct {
	ID        primitive.ObjectID `bson:"_id"`
	PageName  string             `bson:"page"`
	Sections  bson.RawValue      `bson:"sections"`
	Images    []string           `bson:"images"`
	Videos    []string           `bson:"videos"`
	PDFs      []string           `bson:"pdfs"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// MongoRepository implements Repository over a MongoDB collection.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.Page, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer cur.Close(ctx)

	var docs []pageDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	result := make([]*models.Page, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Page, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, nil)
}

func (r *MongoRepository) GetByName(ctx context.Context, name string) (*models.Page, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.findOne(ctx, bson.D{{Key: mongoFieldName, Value: name}}, opts)
}

func (r *MongoRepository) Create(ctx context.Context, page *models.Page) (*models.Page, error) {
	if page.ID == "" {
		page.ID = models.NewID()
	}
	doc, err := fromModel(page)
	if err != nil {
		return nil, err
	}
	if _, err := r.coll.InsertOne(ctx, doc.insert()); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return page, nil
}

func (r *MongoRepository) Update(ctx context.Context, page *models.Page) error {
	doc, err := fromModel(page)
	if err != nil {
		return err
	}

	set := bson.D{
		{Key: mongoFieldName, Value: doc.PageName},
		{Key: mongoFieldSections, Value: doc.Sections},
		{Key: "images", Value: doc.Images},
		{Key: "videos", Value: doc.Videos},
		{Key: "pdfs", Value: doc.PDFs},
		{Key: "updatedAt", Value: doc.UpdatedAt},
	}
	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) UpdateField(ctx context.Context, id, field string, value any, updatedAt time.Time) (bool, error) {
	if !models.IsPageField(field) {
		return false, fmt.Errorf("%w: unknown page field %q", common.ErrArgumentInvalid, field)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}

	key := field
	switch field {
	case models.FieldPageName:
		key = mongoFieldName
	case models.FieldSections:
		if value, err = doctree.Encode(value); err != nil {
			return false, fmt.Errorf("encode sections: %w", err)
		}
	}

	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: key, Value: value},
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

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptions) (*models.Page, error) {
	var doc pageDocument

	var err error
	if opts != nil {
		err = r.coll.FindOne(ctx, filter, opts).Decode(&doc)
	} else {
		err = r.coll.FindOne(ctx, filter).Decode(&doc)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return doc.toModel()
}

// pageWrite is what fromModel produces for inserts and updates.
type pageWrite struct {
	ID        primitive.ObjectID
	PageName  string
	Sections  string
	Images    []string
	Videos    []string
	PDFs      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (w *pageWrite) insert() bson.D {
	return bson.D{
		{Key: "_id", Value: w.ID},
		{Key: mongoFieldName, Value: w.PageName},
		{Key: mongoFieldSections, Value: w.Sections},
		{Key: "images", Value: w.Images},
		{Key: "videos", Value: w.Videos},
		{Key: "pdfs", Value: w.PDFs},
		{Key: "createdAt", Value: w.CreatedAt},
		{Key: "updatedAt", Value: w.UpdatedAt},
	}
}

func fromModel(p *models.Page) (*pageWrite, error) {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: bad page id %q", common.ErrArgumentInvalid, p.ID)
	}
	p.EnsureDefaults()

	sections, err := doctree.Encode(p.Sections)
	if err != nil {
		return nil, fmt.Errorf("encode sections: %w", err)
	}

	return &pageWrite{
		ID:        oid,
		PageName:  p.PageName,
		Sections:  sections,
		Images:    p.Images,
		Videos:    p.Videos,
		PDFs:      p.PDFs,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}, nil
}

func (d *pageDocument) toModel() (*models.Page, error) {
	sections, err := decodeSections(d.Sections)
	if err != nil {
		return nil, fmt.Errorf("page %s: %w", d.ID.Hex(), err)
	}
	p := &models.Page{
		ID:        d.ID.Hex(),
		PageName:  d.PageName,
		Sections:  sections,
		Images:    d.Images,
		Videos:    d.Videos,
		PDFs:      d.PDFs,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	p.EnsureDefaults()
	return p, nil
}

// decodeSections accepts sections stored as JSON text or as an embedded
// document. Missing and null values yield an empty tree.
func decodeSections(v bson.RawValue) (map[string]any, error) {
	switch v.Type {
	case 0, bsontype.Null, bsontype.Undefined:
		return doctree.Normalize(nil)
	case bsontype.String:
		return doctree.Normalize(v.StringValue())
	case bsontype.EmbeddedDocument:
		text, err := bson.MarshalExtJSON(v.Document(), false, false)
		if err != nil {
			return nil, fmt.Errorf("decode sections: %w", err)
		}
		return doctree.Normalize(json.RawMessage(text))
	default:
		return nil, fmt.Errorf("%w: sections stored as %s", common.ErrInvalidSectionsJSON, v.Type)
	}
}
