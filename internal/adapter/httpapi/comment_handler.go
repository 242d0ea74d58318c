package httpapi

import (
	"net/http"

	"github.com/Abdurahmanit/merchsy/internal/adapter/httpapi/middleware"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
)

const maxJSONBody = 64 << 10

type CommentHandler struct {
	comments CommentService
	logger   *logger.Logger
}

func NewCommentHandler(comments CommentService, log *logger.Logger) *CommentHandler {
	return &CommentHandler{comments: comments, logger: log.Named("CommentHandler")}
}

// HandleList: GET /posts/{id}/comments?lastId=
func (h *CommentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "ListComments", err)
		return
	}
	views, err := h.comments.List(r.Context(), postID, r.URL.Query().Get("lastId"))
	if err != nil {
		writeError(w, h.logger, "ListComments", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, toComments(views))
}

// HandleCreate: POST /posts/{id}/comments
func (h *CommentHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.UserID(r.Context())
	if !ok {
		writeError(w, h.logger, "CreateComment", domain.ErrUnauthenticated)
		return
	}
	postID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, "CreateComment", err)
		return
	}
	var req CommentRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, "CreateComment", err)
		return
	}
	view, err := h.comments.Create(r.Context(), ownerID, postID, req.Text)
	if err != nil {
		writeError(w, h.logger, "CreateComment", err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, CommentEnvelope{Success: true, Comment: toComment(view)})
}
