package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository struct {
	mu    sync.RWMutex
	users []*domain.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, user.Username) || strings.EqualFold(u.Email, user.Email) {
			return domain.ErrDuplicateAccount
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	r.users = append(r.users, cloneUser(user))
	return nil
}

func (r *UserRepository) FindByID(_ context.Context, id domain.ID) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if u := r.byID(id); u != nil {
		return cloneUser(u), nil
	}
	return nil, domain.ErrNotFound
}

func (r *UserRepository) FindByLogin(_ context.Context, login string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == login || u.Email == login {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *UserRepository) FindOwners(_ context.Context, ids []domain.ID) (map[domain.ID]domain.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owners := make(map[domain.ID]domain.Owner, len(ids))
	for _, id := range ids {
		if u := r.byID(id); u != nil {
			owners[id] = u.Owner()
		}
	}
	return owners, nil
}

func (r *UserRepository) Find(_ context.Context, q query.Query) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	page, err := selectPage(r.users, userID, asUserRecord, q)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.User, len(page))
	for i, u := range page {
		cp := cloneUser(u)
		cp.PasswordHash = ""
		out[i] = cp
	}
	return out, nil
}

func (r *UserRepository) Count(_ context.Context, p query.Predicate) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return countMatches(r.users, asUserRecord, p)
}

func (r *UserRepository) Follow(_ context.Context, followerID, targetID domain.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	follower, target := r.byID(followerID), r.byID(targetID)
	if follower == nil || target == nil {
		return domain.ErrNotFound
	}
	if !domain.ContainsID(follower.Following, targetID) {
		follower.Following = append(follower.Following, targetID)
	}
	if !domain.ContainsID(target.Followers, followerID) {
		target.Followers = append(target.Followers, followerID)
	}
	return nil
}

func (r *UserRepository) Unfollow(_ context.Context, followerID, targetID domain.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	follower, target := r.byID(followerID), r.byID(targetID)
	if follower == nil || target == nil {
		return domain.ErrNotFound
	}
	follower.Following = without(follower.Following, targetID)
	target.Followers = without(target.Followers, followerID)
	return nil
}

func (r *UserRepository) AddPost(_ context.Context, ownerID, itemID domain.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byID(ownerID)
	if u == nil {
		return domain.ErrNotFound
	}
	if !domain.ContainsID(u.PostIDs, itemID) {
		u.PostIDs = append(u.PostIDs, itemID)
	}
	return nil
}

func (r *UserRepository) byID(id domain.ID) *domain.User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	cp.Followers = append([]domain.ID(nil), u.Followers...)
	cp.Following = append([]domain.ID(nil), u.Following...)
	cp.LikedPosts = append([]domain.ID(nil), u.LikedPosts...)
	cp.PostIDs = append([]domain.ID(nil), u.PostIDs...)
	return &cp
}

func without(ids []domain.ID, id domain.ID) []domain.ID {
	out := ids[:0]
	for _, x := range ids {
		if x != id {
			out = append(out, x)
		}
	}
	return out
}

func userID(u *domain.User) domain.ID { return u.ID }
func asUserRecord(u *domain.User) query.Record { return userRecord{u} }
