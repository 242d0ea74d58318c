package httpapi

import (
	"context"
	"net/http"

	"github.com/Abdurahmanit/merchsy/internal/adapter/httpapi/middleware"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/usecase"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
)

type AccountHandler struct {
	accounts AccountService
	logger   *logger.Logger
}

func NewAccountHandler(accounts AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: log.Named("AccountHandler")}
}

// HandleRegister: POST /account/register
func (h *AccountHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, "Register", err)
		return
	}
	profile, token, err := h.accounts.Register(r.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Bio:      req.Bio,
	})
	if err != nil {
		writeError(w, h.logger, "Register", err)
		return
	}
	user := toProfile(profile)
	writeJSON(w, h.logger, http.StatusCreated, AuthResponse{Success: true, Token: token, User: &user})
}

// HandleLogin: POST /account/login
func (h *AccountHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, "Login", err)
		return
	}
	token, err := h.accounts.Login(r.Context(), req.identifier(), req.Password)
	if err != nil {
		writeError(w, h.logger, "Login", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, AuthResponse{Success: true, Token: token})
}

// HandleProfile: GET /account/{id}
func (h *AccountHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "Profile", err)
		return
	}
	profile, err := h.accounts.Profile(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, "Profile", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ProfileEnvelope{Success: true, User: toProfile(profile)})
}

// HandleSearch: GET /account/search?query=&lastId=
func (h *AccountHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.accounts.Search(r.Context(), q.Get("query"), q.Get("lastId"))
	if err != nil {
		writeError(w, h.logger, "AccountSearch", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, AccountSearchResponse{
		Success:     true,
		Users:       toProfiles(page.Users),
		ResultCount: page.ResultCount,
	})
}

// HandleFollow: POST /account/{id}/follow
func (h *AccountHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	h.edge(w, r, "Follow", h.accounts.Follow, "followed")
}

// HandleUnfollow: DELETE /account/{id}/follow
func (h *AccountHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	h.edge(w, r, "Unfollow", h.accounts.Unfollow, "unfollowed")
}

func (h *AccountHandler) edge(w http.ResponseWriter, r *http.Request, op string, apply func(ctx context.Context, viewerID, targetID domain.ID) error, done string) {
	viewerID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, h.logger, op, domain.ErrUnauthenticated)
		return
	}
	targetID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	if err := apply(r.Context(), viewerID, targetID); err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, SuccessResponse{Success: true, Message: done})
}
