package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const itemCollectionName = "posts"

// ItemRepository implements domain.ItemRepository using MongoDB.
type ItemRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewItemRepository(ctx context.Context, db *mongo.Database, log *logger.Logger) *ItemRepository {
	collection := db.Collection(itemCollectionName)
	log = log.Named("ItemRepository")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: query.FieldOwner, Value: 1}, {Key: query.FieldID, Value: -1}}},
		{Keys: bson.D{{Key: query.FieldTags, Value: 1}}},
		{Keys: bson.D{{Key: query.FieldItemType, Value: 1}}},
	}
	if err := ensureIndexes(ctx, collection, indexes); err != nil {
		// Indexes may already exist or be managed out of band.
		log.Error("Failed to create indexes for posts collection", zap.Error(err))
	}

	return &ItemRepository{collection: collection, logger: log}
}

func (r *ItemRepository) Create(ctx context.Context, item *domain.Item) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	if _, err := r.collection.InsertOne(ctx, fromDomainItem(item)); err != nil {
		r.logger.Error("Failed to insert item", zap.Error(err), zap.String("owner_id", item.OwnerID.Hex()))
		return unavailable("db insert failed", err)
	}
	r.logger.Debug("Item created", zap.String("item_id", item.ID.Hex()))
	return nil
}

func (r *ItemRepository) FindByID(ctx context.Context, id domain.ID) (*domain.Item, error) {
	var doc itemDocument
	err := r.collection.FindOne(ctx, bson.M{query.FieldID: id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get item by ID", zap.Error(err), zap.String("item_id", id.Hex()))
		return nil, unavailable("db findone failed", err)
	}
	return doc.toDomain(), nil
}

// Find returns one page of items newest first.
func (r *ItemRepository) Find(ctx context.Context, q query.Query) ([]*domain.Item, error) {
	filter, err := toBSON(q.Filter)
	if err != nil {
		return nil, err
	}

	cursor, err := r.collection.Find(ctx, filter, pageOptions(q))
	if err != nil {
		r.logger.Error("Failed to find items", zap.Error(err), zap.Any("filter", filter))
		return nil, unavailable("db find failed", err)
	}
	defer cursor.Close(ctx)

	var docs []*itemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode items", zap.Error(err))
		return nil, unavailable("db cursor all failed", err)
	}

	items := make([]*domain.Item, len(docs))
	for i, doc := range docs {
		items[i] = doc.toDomain()
	}
	return items, nil
}

func (r *ItemRepository) Count(ctx context.Context, p query.Predicate) (int64, error) {
	filter, err := toBSON(p)
	if err != nil {
		return 0, err
	}
	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to count items", zap.Error(err))
		return 0, unavailable("db count failed", err)
	}
	return n, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrUnavailable, err)
}
