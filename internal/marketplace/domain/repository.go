package domain

import (
	"context"
	"io"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
)

// ItemRepository persists items. Find must honour the query's filter, the
// fixed _id-descending order and the limit.
type ItemRepository interface {
	Create(ctx context.Context, item *Item) error
	FindByID(ctx context.Context, id ID) (*Item, error)
	Find(ctx context.Context, q query.Query) ([]*Item, error)
	Count(ctx context.Context, p query.Predicate) (int64, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id ID) (*User, error)
	// FindByLogin looks a user up by username or email.
	FindByLogin(ctx context.Context, login string) (*User, error)
	// FindOwners resolves the public projection of each id; unknown ids are absent.
	FindOwners(ctx context.Context, ids []ID) (map[ID]Owner, error)
	Find(ctx context.Context, q query.Query) ([]*User, error)
	Count(ctx context.Context, p query.Predicate) (int64, error)
	Follow(ctx context.Context, followerID, targetID ID) error
	Unfollow(ctx context.Context, followerID, targetID ID) error
	AddPost(ctx context.Context, ownerID, itemID ID) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *Comment) error
	Find(ctx context.Context, q query.Query) ([]*Comment, error)
}

// ObjectStore holds binary objects and hands out time-limited links to them.
type ObjectStore interface {
	Put(ctx context.Context, fileName, contentType string, data io.Reader, size int64) (string, error)
	Sign(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// URLCache remembers signed URLs for less than their lifetime.
type URLCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, url string, ttl time.Duration) error
}

type AuthService interface {
	HashPassword(password string) (string, error)
	VerifyCredentials(hash, password string) error
	IssueToken(userID ID) (string, error)
	VerifyToken(token string) (ID, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

type Mailer interface {
	SendWelcome(ctx context.Context, toEmail, name string) error
}
