package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/syrena/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrPlaceNotFound = errors.New("place not found")

// PlaceRepository defines the interface for place data operations
type PlaceRepository interface {
	CreatePlace(ctx context.Context, place *models.Place) error
	GetPlaceByID(ctx context.Context, id string) (*models.Place, error)
	ListByOwners(ctx context.Context, ownerIDs []string, skip, limit int64) ([]models.Place, error)
	AddVisitor(ctx context.Context, id, visitorID string) (*models.Place, error)
	RemoveVisitor(ctx context.Context, id, visitorID string) (*models.Place, error)
	DeletePlace(ctx context.Context, id string) error
}

// MongoPlaceRepository implements PlaceRepository for MongoDB
type MongoPlaceRepository struct {
	collection *mongo.Collection
}

// NewMongoPlaceRepository creates a new MongoPlaceRepository
func NewMongoPlaceRepository(db *mongo.Database) *MongoPlaceRepository {
	return &MongoPlaceRepository{collection: db.Collection("places")}
}

// EnsureIndexes creates the owner index used by ListByOwners.
func (r *MongoPlaceRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *MongoPlaceRepository) CreatePlace(ctx context.Context, place *models.Place) error {
	now := time.Now().UTC()
	place.ID = primitive.NewObjectID()
	place.CreatedAt = now
	place.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, place)
	return err
}

func (r *MongoPlaceRepository) GetPlaceByID(ctx context.Context, id string) (*models.Place, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPlaceNotFound
	}

	var place models.Place
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&place)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}
	return &place, nil
}

// ListByOwners returns places whose owner_id is in ownerIDs, newest first.
func (r *MongoPlaceRepository) ListByOwners(ctx context.Context, ownerIDs []string, skip, limit int64) ([]models.Place, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"owner_id": bson.M{"$in": ownerIDs}}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var places []models.Place
	if err = cursor.All(ctx, &places); err != nil {
		return nil, err
	}
	return places, nil
}

// AddVisitor records visitorID as a visitor of the place. visit_count only
// moves when the visitor set changes, so repeating a visit is a no-op.
func (r *MongoPlaceRepository) AddVisitor(ctx context.Context, id, visitorID string) (*models.Place, error) {
	return r.toggleVisitor(ctx, id,
		bson.M{"visitors": bson.M{"$ne": visitorID}},
		bson.M{"$addToSet": bson.M{"visitors": visitorID}, "$inc": bson.M{"visit_count": 1}})
}

// RemoveVisitor undoes AddVisitor. Removing an absent visitor is a no-op.
func (r *MongoPlaceRepository) RemoveVisitor(ctx context.Context, id, visitorID string) (*models.Place, error) {
	return r.toggleVisitor(ctx, id,
		bson.M{"visitors": visitorID},
		bson.M{"$pull": bson.M{"visitors": visitorID}, "$inc": bson.M{"visit_count": -1}})
}

func (r *MongoPlaceRepository) toggleVisitor(ctx context.Context, id string, guard, update bson.M) (*models.Place, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrPlaceNotFound
	}

	filter := bson.M{"_id": objID}
	for k, v := range guard {
		filter[k] = v
	}
	update["$set"] = bson.M{"updated_at": time.Now().UTC()}

	var place models.Place
	err = r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&place)
	if err == mongo.ErrNoDocuments {
		// guard did not match: already in the requested state, or gone
		return r.GetPlaceByID(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update visitors: %w", err)
	}
	return &place, nil
}

func (r *MongoPlaceRepository) DeletePlace(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrPlaceNotFound
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPlaceNotFound
	}
	return nil
}
