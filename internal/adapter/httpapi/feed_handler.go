package httpapi

import (
	"net/http"

	"github.com/Abdurahmanit/merchsy/internal/adapter/httpapi/middleware"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
)

// FeedHandler serves the cursor-paginated item feeds.
type FeedHandler struct {
	feeds  FeedService
	logger *logger.Logger
}

func NewFeedHandler(feeds FeedService, log *logger.Logger) *FeedHandler {
	return &FeedHandler{feeds: feeds, logger: log.Named("FeedHandler")}
}

// HandleSearch: GET /posts/search?query=&lastId=
func (h *FeedHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := parseItemFilter(q)
	if err != nil {
		writeError(w, h.logger, "Search", err)
		return
	}
	page, err := h.feeds.Search(r.Context(), q.Get("query"), filter, q.Get("lastId"))
	if err != nil {
		writeError(w, h.logger, "Search", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, SearchResponse{
		Success:     true,
		Posts:       toItems(page.Items),
		ResultCount: page.ResultCount,
	})
}

// HandleExplore: GET /posts/explore?lastId=
func (h *FeedHandler) HandleExplore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := parseItemFilter(q)
	if err != nil {
		writeError(w, h.logger, "Explore", err)
		return
	}
	page, err := h.feeds.Explore(r.Context(), filter, q.Get("lastId"))
	if err != nil {
		writeError(w, h.logger, "Explore", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toItems(page.Items))
}

// HandleFollowing: GET /posts/following?lastId=
func (h *FeedHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, h.logger, "Following", domain.ErrUnauthenticated)
		return
	}
	page, err := h.feeds.Following(r.Context(), viewerID, r.URL.Query().Get("lastId"))
	if err != nil {
		writeError(w, h.logger, "Following", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toItems(page.Items))
}

// HandleOwnPosts: GET /posts/user?lastId=
func (h *FeedHandler) HandleOwnPosts(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, h.logger, "UserPosts", domain.ErrUnauthenticated)
		return
	}
	h.userOwned(w, r, ownerID)
}

// HandleAccountPosts: GET /account/{id}/posts?lastId=
func (h *FeedHandler) HandleAccountPosts(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "AccountPosts", err)
		return
	}
	h.userOwned(w, r, ownerID)
}

func (h *FeedHandler) userOwned(w http.ResponseWriter, r *http.Request, ownerID domain.ID) {
	page, err := h.feeds.UserOwned(r.Context(), ownerID, r.URL.Query().Get("lastId"))
	if err != nil {
		writeError(w, h.logger, "UserPosts", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toItems(page.Items))
}
