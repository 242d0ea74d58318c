package httpapi

import (
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
)

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type OwnerResponse struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// ItemResponse is the public item shape. Image is always a signed URL or
// the placeholder, never a storage key.
type ItemResponse struct {
	ID          string        `json:"_id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Price       float64       `json:"price"`
	Image       string        `json:"image"`
	Tags        []string      `json:"tags"`
	ItemType    string        `json:"itemType"`
	Sizes       []string      `json:"sizes"`
	Owner       OwnerResponse `json:"owner"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type SearchResponse struct {
	Success     bool           `json:"success"`
	Posts       []ItemResponse `json:"posts"`
	ResultCount int64          `json:"resultCount"`
}

type ItemEnvelope struct {
	Success bool         `json:"success"`
	Post    ItemResponse `json:"post"`
}

type ProfileResponse struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Username       string `json:"username"`
	Bio            string `json:"bio"`
	ProfilePicture string `json:"profilePicture"`
	Followers      int    `json:"followers"`
	Following      int    `json:"following"`
}

type AccountSearchResponse struct {
	Success     bool              `json:"success"`
	Users       []ProfileResponse `json:"users"`
	ResultCount int64             `json:"resultCount"`
}

type ProfileEnvelope struct {
	Success bool            `json:"success"`
	User    ProfileResponse `json:"user"`
}

type AuthResponse struct {
	Success bool             `json:"success"`
	Token   string           `json:"token"`
	User    *ProfileResponse `json:"user,omitempty"`
}

type CommentResponse struct {
	ID        string        `json:"_id"`
	Post      string        `json:"post"`
	Text      string        `json:"text"`
	Likes     int64         `json:"likes"`
	Owner     OwnerResponse `json:"owner"`
	CreatedAt time.Time     `json:"createdAt"`
}

type CommentEnvelope struct {
	Success bool            `json:"success"`
	Comment CommentResponse `json:"comment"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

// LoginRequest accepts either a username or an email in Login; Username and
// Email are kept for older clients.
type LoginRequest struct {
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r LoginRequest) identifier() string {
	switch {
	case r.Login != "":
		return r.Login
	case r.Username != "":
		return r.Username
	}
	return r.Email
}

type CommentRequest struct {
	Text string `json:"text"`
}

func toOwner(o domain.Owner) OwnerResponse {
	return OwnerResponse{ID: o.ID.Hex(), Username: o.Username, Name: o.Name}
}

func toItem(it *domain.FeedItem) ItemResponse {
	return ItemResponse{
		ID:          it.ID.Hex(),
		Title:       it.Title,
		Description: it.Description,
		Price:       it.Price,
		Image:       it.ImageURL,
		Tags:        nonNil(it.Tags),
		ItemType:    it.ItemType,
		Sizes:       nonNil(it.Sizes),
		Owner:       toOwner(it.Owner),
		CreatedAt:   it.CreatedAt,
	}
}

// toItems keeps the fetched order and never returns nil, so an empty feed
// encodes as [].
func toItems(items []*domain.FeedItem) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, toItem(it))
	}
	return out
}

func toProfile(p *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:             p.ID.Hex(),
		Name:           p.Name,
		Username:       p.Username,
		Bio:            p.Bio,
		ProfilePicture: p.ProfilePicture,
		Followers:      p.Followers,
		Following:      p.Following,
	}
}

func toProfiles(ps []*domain.Profile) []ProfileResponse {
	out := make([]ProfileResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProfile(p))
	}
	return out
}

func toComment(c *domain.CommentView) CommentResponse {
	return CommentResponse{
		ID:        c.ID.Hex(),
		Post:      c.PostID.Hex(),
		Text:      c.Text,
		Likes:     c.Likes,
		Owner:     toOwner(c.Owner),
		CreatedAt: c.CreatedAt,
	}
}

func toComments(cs []*domain.CommentView) []CommentResponse {
	out := make([]CommentResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, toComment(c))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
