package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CommentRepository struct {
	mu       sync.RWMutex
	comments []*domain.Comment
}

func NewCommentRepository() *CommentRepository {
	return &CommentRepository{}
}

func (r *CommentRepository) Create(_ context.Context, c *domain.Comment) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	cp := *c
	r.mu.Lock()
	r.comments = append(r.comments, &cp)
	r.mu.Unlock()
	return nil
}

func (r *CommentRepository) Find(_ context.Context, q query.Query) ([]*domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	page, err := selectPage(r.comments, commentID, asCommentRecord, q)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Comment, len(page))
	for i, c := range page {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}

func commentID(c *domain.Comment) domain.ID { return c.ID }
func asCommentRecord(c *domain.Comment) query.Record { return commentRecord{c} }
