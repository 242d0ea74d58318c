// Package httpapi exposes the marketplace over JSON/HTTP using chi.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/usecase"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"go.uber.org/zap"
)

type FeedService interface {
	Search(ctx context.Context, term string, filter domain.ItemFilter, rawCursor string) (*domain.FeedPage, error)
	Explore(ctx context.Context, filter domain.ItemFilter, rawCursor string) (*domain.FeedPage, error)
	Following(ctx context.Context, viewerID domain.ID, rawCursor string) (*domain.FeedPage, error)
	UserOwned(ctx context.Context, ownerID domain.ID, rawCursor string) (*domain.FeedPage, error)
}

type ItemService interface {
	Create(ctx context.Context, ownerID domain.ID, in usecase.CreateItemInput) (*domain.FeedItem, error)
	Get(ctx context.Context, id domain.ID) (*domain.FeedItem, error)
}

type CommentService interface {
	Create(ctx context.Context, ownerID, postID domain.ID, text string) (*domain.CommentView, error)
	List(ctx context.Context, postID domain.ID, rawCursor string) ([]*domain.CommentView, error)
}

type AccountService interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*domain.Profile, string, error)
	Login(ctx context.Context, login, password string) (string, error)
	Profile(ctx context.Context, id domain.ID) (*domain.Profile, error)
	Search(ctx context.Context, term, rawCursor string) (*domain.AccountPage, error)
	Follow(ctx context.Context, viewerID, targetID domain.ID) error
	Unfollow(ctx context.Context, viewerID, targetID domain.ID) error
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInvalidCursor):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrAlreadyFollowing),
		errors.Is(err, domain.ErrNotFollowing):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("Failed to encode response", zap.Error(err))
	}
}

// writeError renders the {success:false,message} envelope. Server-side
// failures get a generic message; details stay in the log.
func writeError(w http.ResponseWriter, log *logger.Logger, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusServiceUnavailable:
		log.Error(op+" failed: dependency unavailable", zap.Error(err))
		msg = "service temporarily unavailable, please retry"
		w.Header().Set("Retry-After", "1")
	case http.StatusInternalServerError:
		log.Error(op+" failed", zap.Error(err))
		msg = "internal server error"
	default:
		log.Debug(op+" rejected", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, log, status, ErrorResponse{Success: false, Message: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalid("request body is not valid JSON")
	}
	return nil
}

type inputError string

func (e inputError) Error() string { return domain.ErrInvalidInput.Error() + ": " + string(e) }

func (e inputError) Unwrap() error { return domain.ErrInvalidInput }

func invalid(msg string) error { return inputError(msg) }
