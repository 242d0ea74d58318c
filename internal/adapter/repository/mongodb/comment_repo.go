package mongodb

import (
	"context"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const commentCollectionName = "comments"

type CommentRepository struct {
	collection *mongo.Collection
	logger     *logger.Logger
}

func NewCommentRepository(ctx context.Context, db *mongo.Database, log *logger.Logger) *CommentRepository {
	collection := db.Collection(commentCollectionName)
	log = log.Named("CommentRepository")

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: query.FieldPost, Value: 1}, {Key: query.FieldID, Value: -1}}},
	}
	if err := ensureIndexes(ctx, collection, indexes); err != nil {
		log.Error("Failed to create indexes for comments collection", zap.Error(err))
	}
	return &CommentRepository{collection: collection, logger: log}
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	if _, err := r.collection.InsertOne(ctx, fromDomainComment(comment)); err != nil {
		r.logger.Error("Failed to insert comment", zap.Error(err), zap.String("post_id", comment.PostID.Hex()))
		return unavailable("db insert failed", err)
	}
	return nil
}

func (r *CommentRepository) Find(ctx context.Context, q query.Query) ([]*domain.Comment, error) {
	filter, err := toBSON(q.Filter)
	if err != nil {
		return nil, err
	}
	cursor, err := r.collection.Find(ctx, filter, pageOptions(q))
	if err != nil {
		r.logger.Error("Failed to find comments", zap.Error(err))
		return nil, unavailable("db find failed", err)
	}
	defer cursor.Close(ctx)

	var docs []*commentDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, unavailable("db cursor all failed", err)
	}
	comments := make([]*domain.Comment, len(docs))
	for i, doc := range docs {
		comments[i] = doc.toDomain()
	}
	return comments, nil
}
