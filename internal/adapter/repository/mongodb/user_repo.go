package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const userCollectionName = "users"

// UserRepository implements domain.UserRepository using MongoDB.
type UserRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewUserRepository(ctx context.Context, db *mongo.Database, log *logger.Logger) *UserRepository {
	collection := db.Collection(userCollectionName)
	log = log.Named("UserRepository")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: query.FieldUsername, Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if err := ensureIndexes(ctx, collection, indexes); err != nil {
		log.Error("Failed to create indexes for users collection", zap.Error(err))
	}
	return &UserRepository{collection: collection, logger: log}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, fromDomainUser(user))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.Warn("Duplicate key on user creation", zap.String("username", user.Username))
			return domain.ErrDuplicateAccount
		}
		r.logger.Error("Failed to insert user", zap.Error(err))
		return unavailable("db insert failed", err)
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id domain.ID) (*domain.User, error) {
	return r.findOne(ctx, bson.M{query.FieldID: id})
}

func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{query.FieldUsername: login},
		bson.M{"email": login},
	}})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	var doc userDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("Failed to get user", zap.Error(err))
		return nil, unavailable("db findone failed", err)
	}
	return doc.toDomain(), nil
}

// FindOwners fetches only the public projection of the given users.
func (r *UserRepository) FindOwners(ctx context.Context, ids []domain.ID) (map[domain.ID]domain.Owner, error) {
	owners := make(map[domain.ID]domain.Owner, len(ids))
	if len(ids) == 0 {
		return owners, nil
	}

	opts := options.Find().SetProjection(bson.M{query.FieldUsername: 1, query.FieldName: 1})
	cursor, err := r.collection.Find(ctx, bson.M{query.FieldID: bson.M{"$in": ids}}, opts)
	if err != nil {
		r.logger.Error("Failed to resolve owners", zap.Error(err), zap.Int("count", len(ids)))
		return nil, unavailable("db find failed", err)
	}
	defer cursor.Close(ctx)

	var docs []ownerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, unavailable("db cursor all failed", err)
	}
	for _, d := range docs {
		owners[d.ID] = domain.Owner{ID: d.ID, Username: d.Username, Name: d.Name}
	}
	return owners, nil
}

func (r *UserRepository) Find(ctx context.Context, q query.Query) ([]*domain.User, error) {
	filter, err := toBSON(q.Filter)
	if err != nil {
		return nil, err
	}
	opts := pageOptions(q).SetProjection(bson.M{"password": 0})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to find users", zap.Error(err))
		return nil, unavailable("db find failed", err)
	}
	defer cursor.Close(ctx)

	var docs []*userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, unavailable("db cursor all failed", err)
	}
	users := make([]*domain.User, len(docs))
	for i, doc := range docs {
		users[i] = doc.toDomain()
	}
	return users, nil
}

func (r *UserRepository) Count(ctx context.Context, p query.Predicate) (int64, error) {
	filter, err := toBSON(p)
	if err != nil {
		return 0, err
	}
	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, unavailable("db count failed", err)
	}
	return n, nil
}

// Follow records the edge on both ends: the follower's following list and
// the target's followers list.
func (r *UserRepository) Follow(ctx context.Context, followerID, targetID domain.ID) error {
	return r.updateEdge(ctx, "$addToSet", followerID, targetID)
}

func (r *UserRepository) Unfollow(ctx context.Context, followerID, targetID domain.ID) error {
	return r.updateEdge(ctx, "$pull", followerID, targetID)
}

func (r *UserRepository) updateEdge(ctx context.Context, op string, followerID, targetID domain.ID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{query.FieldID: targetID},
		bson.M{op: bson.M{"followers": followerID}})
	if err != nil {
		r.logger.Error("Failed to update followers", zap.Error(err), zap.String("target_id", targetID.Hex()))
		return unavailable("db update failed", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}

	res, err = r.collection.UpdateOne(ctx,
		bson.M{query.FieldID: followerID},
		bson.M{op: bson.M{"following": targetID}})
	if err != nil {
		r.logger.Error("Failed to update following", zap.Error(err), zap.String("follower_id", followerID.Hex()))
		return unavailable("db update failed", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) AddPost(ctx context.Context, ownerID, itemID domain.ID) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{query.FieldID: ownerID},
		bson.M{"$addToSet": bson.M{"posts": itemID}})
	if err != nil {
		return unavailable("db update failed", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}
