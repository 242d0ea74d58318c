// Package memory holds map-backed repositories that evaluate predicates in
// process. The HTTP server uses them when no Mongo URI is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ItemRepository struct {
	mu    sync.RWMutex
	items []*domain.Item
}

func NewItemRepository() *ItemRepository {
	return &ItemRepository{}
}

func (r *ItemRepository) Create(_ context.Context, item *domain.Item) error {
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	cp := *item
	r.mu.Lock()
	r.items = append(r.items, &cp)
	r.mu.Unlock()
	return nil
}

func (r *ItemRepository) FindByID(_ context.Context, id domain.ID) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, it := range r.items {
		if it.ID == id {
			cp := *it
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *ItemRepository) Find(_ context.Context, q query.Query) ([]*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	page, err := selectPage(r.items, itemID, asItemRecord, q)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Item, len(page))
	for i, it := range page {
		cp := *it
		out[i] = &cp
	}
	return out, nil
}

func (r *ItemRepository) Count(_ context.Context, p query.Predicate) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return countMatches(r.items, asItemRecord, p)
}

func itemID(i *domain.Item) domain.ID { return i.ID }
func asItemRecord(i *domain.Item) query.Record { return itemRecord{i} }
