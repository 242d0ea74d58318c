package mongodb

import (
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// itemDocument is an item as stored in the "posts" collection. Field names
// must stay in sync with the query.Field* constants.
type itemDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Price       float64            `bson:"price"`
	Owner       primitive.ObjectID `bson:"owner"`
	Image       string             `bson:"image,omitempty"`
	Tags        []string           `bson:"tags"`
	ItemType    string             `bson:"item_type"`
	Sizes       []string           `bson:"sizes"`
	CreatedAt   time.Time          `bson:"created_at"`
}

type userDocument struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty"`
	Name           string               `bson:"name"`
	Username       string               `bson:"username"`
	Email          string               `bson:"email"`
	Password       string               `bson:"password"`
	Bio            string               `bson:"bio"`
	ProfilePicture string               `bson:"profile_picture,omitempty"`
	Followers      []primitive.ObjectID `bson:"followers"`
	Following      []primitive.ObjectID `bson:"following"`
	LikedPosts     []primitive.ObjectID `bson:"liked_posts"`
	Posts          []primitive.ObjectID `bson:"posts"`
	CreatedAt      time.Time            `bson:"created_at"`
}

// ownerDocument is the projection used to resolve item owners.
type ownerDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
	Name     string             `bson:"name"`
}

type commentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Post      primitive.ObjectID `bson:"post"`
	Owner     primitive.ObjectID `bson:"owner"`
	Text      string             `bson:"text"`
	Likes     int64              `bson:"likes"`
	CreatedAt time.Time          `bson:"created_at"`
}

func fromDomainItem(i *domain.Item) *itemDocument {
	return &itemDocument{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Price:       i.Price,
		Owner:       i.OwnerID,
		Image:       i.ImageKey,
		Tags:        nonNil(i.Tags),
		ItemType:    i.ItemType,
		Sizes:       nonNil(i.Sizes),
		CreatedAt:   i.CreatedAt,
	}
}

func (d *itemDocument) toDomain() *domain.Item {
	return &domain.Item{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Price:       d.Price,
		OwnerID:     d.Owner,
		ImageKey:    d.Image,
		Tags:        d.Tags,
		ItemType:    d.ItemType,
		Sizes:       d.Sizes,
		CreatedAt:   d.CreatedAt,
	}
}

func fromDomainUser(u *domain.User) *userDocument {
	return &userDocument{
		ID:             u.ID,
		Name:           u.Name,
		Username:       u.Username,
		Email:          u.Email,
		Password:       u.PasswordHash,
		Bio:            u.Bio,
		ProfilePicture: u.ProfilePictureKey,
		Followers:      nonNil(u.Followers),
		Following:      nonNil(u.Following),
		LikedPosts:     nonNil(u.LikedPosts),
		Posts:          nonNil(u.PostIDs),
		CreatedAt:      u.CreatedAt,
	}
}

func (d *userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:                d.ID,
		Name:              d.Name,
		Username:          d.Username,
		Email:             d.Email,
		PasswordHash:      d.Password,
		Bio:               d.Bio,
		ProfilePictureKey: d.ProfilePicture,
		Followers:         d.Followers,
		Following:         d.Following,
		LikedPosts:        d.LikedPosts,
		PostIDs:           d.Posts,
		CreatedAt:         d.CreatedAt,
	}
}

func fromDomainComment(c *domain.Comment) *commentDocument {
	return &commentDocument{
		ID:        c.ID,
		Post:      c.PostID,
		Owner:     c.OwnerID,
		Text:      c.Text,
		Likes:     c.Likes,
		CreatedAt: c.CreatedAt,
	}
}

func (d *commentDocument) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:        d.ID,
		PostID:    d.Post,
		OwnerID:   d.Owner,
		Text:      d.Text,
		Likes:     d.Likes,
		CreatedAt: d.CreatedAt,
	}
}

// nonNil stores empty arrays instead of null so $all/$in behave uniformly.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
