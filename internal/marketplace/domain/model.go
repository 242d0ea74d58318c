package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identifiers are Mongo ObjectIDs: their leading timestamp makes them
// monotonic in creation order, which the feed cursor relies on.
type ID = primitive.ObjectID

const (
	MaxBioLength   = 300
	MaxQueryLength = 100
)

// Item is a post offering something for sale.
type Item struct {
	ID          ID
	Title       string
	Description string
	Price       float64
	OwnerID     ID
	ImageKey    string // key in object storage, empty when the item has no image
	Tags        []string
	ItemType    string
	Sizes       []string
	CreatedAt   time.Time
}

// User is an account. PasswordHash never leaves the service.
type User struct {
	ID                ID
	Name              string
	Username          string
	Email             string
	PasswordHash      string
	Bio               string
	ProfilePictureKey string
	Followers         []ID
	Following         []ID
	LikedPosts        []ID
	PostIDs           []ID
	CreatedAt         time.Time
}

// Owner is the minimal public projection of a user attached to feed items.
type Owner struct {
	ID       ID     `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

func (u *User) Owner() Owner {
	return Owner{ID: u.ID, Username: u.Username, Name: u.Name}
}

// Comment on an item.
type Comment struct {
	ID        ID
	PostID    ID
	OwnerID   ID
	Text      string
	Likes     int64
	CreatedAt time.Time
}

// FeedItem is an item after post-processing: owner resolved and image signed.
type FeedItem struct {
	Item
	Owner    Owner
	ImageURL string
}

// FeedPage is one page of a feed. ResultCount is only set by search.
type FeedPage struct {
	Items       []*FeedItem
	ResultCount int64
}

// Profile is the public view of a user.
type Profile struct {
	ID             ID
	Name           string
	Username       string
	Bio            string
	ProfilePicture string
	Followers      int
	Following      int
}

// AccountPage is one page of account search results.
type AccountPage struct {
	Users       []*Profile
	ResultCount int64
}

// CommentView is a comment with its author projection.
type CommentView struct {
	Comment
	Owner Owner
}

// TagMode selects how requested tags are matched against an item's tags.
type TagMode string

const (
	TagsAny TagMode = "any"
	TagsAll TagMode = "all"
)

func ParseTagMode(s string) (TagMode, error) {
	switch TagMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TagsAny:
		return TagsAny, nil
	case TagsAll:
		return TagsAll, nil
	}
	return "", ErrInvalidInput
}

// ItemFilter holds the optional server-side filters for search and explore.
// Empty slices and nil bounds mean "no constraint".
type ItemFilter struct {
	Tags     []string
	TagsMode TagMode
	MinPrice *float64
	MaxPrice *float64
	Types    []string
}

// NormalizeQuery trims the search term and caps it to MaxQueryLength runes.
func NormalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if r := []rune(q); len(r) > MaxQueryLength {
		q = strings.TrimSpace(string(r[:MaxQueryLength]))
	}
	return q
}

// ParseID parses a 24-character hex identifier.
func ParseID(s string) (ID, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, ErrInvalidInput
	}
	return id, nil
}

func ContainsID(ids []ID, id ID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
