package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
)

const maxCommentLength = 1000

type CommentUsecase struct {
	comments  domain.CommentRepository
	items     domain.ItemRepository
	presenter *Presenter
	events    domain.EventPublisher
	pageSize  int
	logger    *logger.Logger
}

func NewCommentUsecase(comments domain.CommentRepository, items domain.ItemRepository, presenter *Presenter, events domain.EventPublisher, pageSize int, log *logger.Logger) *CommentUsecase {
	if pageSize <= 0 {
		pageSize = query.PageSize
	}
	return &CommentUsecase{
		comments:  comments,
		items:     items,
		presenter: presenter,
		events:    events,
		pageSize:  pageSize,
		logger:    log.Named("CommentUsecase"),
	}
}

func (uc *CommentUsecase) Create(ctx context.Context, ownerID, postID domain.ID, text string) (*domain.CommentView, error) {
	if ownerID.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrInvalidInput)
	}
	if len([]rune(text)) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment must be at most %d characters", domain.ErrInvalidInput, maxCommentLength)
	}
	if _, err := uc.items.FindByID(ctx, postID); err != nil {
		return nil, storeError("find post", err)
	}

	c := &domain.Comment{PostID: postID, OwnerID: ownerID, Text: text, CreatedAt: time.Now().UTC()}
	if err := uc.comments.Create(ctx, c); err != nil {
		return nil, storeError("create comment", err)
	}
	publish(ctx, uc.events, uc.logger, SubjectCommentCreated, map[string]any{
		"comment_id": c.ID.Hex(),
		"post_id":    postID.Hex(),
		"owner_id":   ownerID.Hex(),
	})

	views, err := uc.presenter.Comments(ctx, []*domain.Comment{c})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// List pages through a post's comments newest first.
func (uc *CommentUsecase) List(ctx context.Context, postID domain.ID, rawCursor string) ([]*domain.CommentView, error) {
	cursor, err := query.ParseCursor(rawCursor)
	if err != nil {
		return nil, err
	}
	if _, err := uc.items.FindByID(ctx, postID); err != nil {
		return nil, storeError("find post", err)
	}
	comments, err := uc.comments.Find(ctx, query.Page(query.Eq(query.FieldPost, postID), cursor, uc.pageSize))
	if err != nil {
		return nil, storeError("list comments", err)
	}
	return uc.presenter.Comments(ctx, comments)
}
