package usecase

import (
	"context"
	"errors"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
	"github.com/Abdurahmanit/merchsy/internal/platform/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("merchsy/usecase")

// Feed names used for metrics and tracing.
const (
	FeedSearch    = "search"
	FeedExplore   = "explore"
	FeedFollowing = "following"
	FeedUser      = "user"
)

// searchFields are matched by the free-text term of a post search.
var searchFields = []string{query.FieldTitle, query.FieldDescription, query.FieldTags}

// FeedUsecase serves the paginated item feeds. It is the only reader of the
// item store for feed purposes.
type FeedUsecase struct {
	items     domain.ItemRepository
	users     domain.UserRepository
	presenter *Presenter
	pageSize  int
	metrics   *metrics.MetricsManager
	logger    *logger.Logger
}

// NewFeedUsecase wires the feed reader. A non-positive pageSize selects
// query.PageSize.
func NewFeedUsecase(items domain.ItemRepository, users domain.UserRepository, presenter *Presenter, pageSize int, m *metrics.MetricsManager, log *logger.Logger) *FeedUsecase {
	if pageSize <= 0 {
		pageSize = query.PageSize
	}
	return &FeedUsecase{
		items:     items,
		users:     users,
		presenter: presenter,
		pageSize:  pageSize,
		metrics:   m,
		logger:    log.Named("FeedUsecase"),
	}
}

// Search matches term against title, description and tags, narrowed by the
// optional server filters. ResultCount ignores the cursor so it is stable
// across pages.
func (uc *FeedUsecase) Search(ctx context.Context, term string, filter domain.ItemFilter, rawCursor string) (page *domain.FeedPage, err error) {
	ctx, span := uc.startSpan(ctx, FeedSearch)
	defer func() { endSpan(span, err) }()

	cursor, err := query.ParseCursor(rawCursor)
	if err != nil {
		return nil, err
	}
	term = domain.NormalizeQuery(term)
	pred := query.All(query.TextSearch(term, searchFields...), filterPredicate(filter))

	var (
		items []*domain.Item
		total int64
	)
	if !pred.IsFalse() {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			items, err = uc.items.Find(gctx, query.Page(pred, cursor, uc.pageSize))
			return err
		})
		g.Go(func() error {
			var err error
			total, err = uc.items.Count(gctx, pred)
			return err
		})
		if err := g.Wait(); err != nil {
			uc.logger.Error("Search query failed", zap.String("term", term), zap.Error(err))
			return nil, storeError("search items", err)
		}
	}

	page, err = uc.finish(ctx, FeedSearch, items)
	if err != nil {
		return nil, err
	}
	page.ResultCount = total
	return page, nil
}

// Explore pages through every item, optionally narrowed by server filters.
func (uc *FeedUsecase) Explore(ctx context.Context, filter domain.ItemFilter, rawCursor string) (page *domain.FeedPage, err error) {
	ctx, span := uc.startSpan(ctx, FeedExplore)
	defer func() { endSpan(span, err) }()

	cursor, err := query.ParseCursor(rawCursor)
	if err != nil {
		return nil, err
	}
	return uc.fetch(ctx, FeedExplore, filterPredicate(filter), cursor)
}

// Following pages through items owned by accounts the viewer follows. A
// viewer who follows nobody gets an empty page without an item query.
func (uc *FeedUsecase) Following(ctx context.Context, viewerID domain.ID, rawCursor string) (page *domain.FeedPage, err error) {
	ctx, span := uc.startSpan(ctx, FeedFollowing)
	defer func() { endSpan(span, err) }()

	if viewerID.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	cursor, err := query.ParseCursor(rawCursor)
	if err != nil {
		return nil, err
	}

	viewer, err := uc.users.FindByID(ctx, viewerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthenticated
		}
		return nil, storeError("load viewer", err)
	}
	if len(viewer.Following) == 0 {
		uc.logger.Debug("Viewer follows nobody", zap.String("viewer_id", viewerID.Hex()))
		return uc.finish(ctx, FeedFollowing, nil)
	}
	return uc.fetch(ctx, FeedFollowing, query.OwnerIn(viewer.Following), cursor)
}

// UserOwned pages through the items owned by ownerID.
func (uc *FeedUsecase) UserOwned(ctx context.Context, ownerID domain.ID, rawCursor string) (page *domain.FeedPage, err error) {
	ctx, span := uc.startSpan(ctx, FeedUser)
	defer func() { endSpan(span, err) }()

	if ownerID.IsZero() {
		return nil, domain.ErrUnauthenticated
	}
	cursor, err := query.ParseCursor(rawCursor)
	if err != nil {
		return nil, err
	}
	return uc.fetch(ctx, FeedUser, query.Eq(query.FieldOwner, ownerID), cursor)
}

func (uc *FeedUsecase) fetch(ctx context.Context, feed string, pred query.Predicate, cursor *domain.ID) (*domain.FeedPage, error) {
	if pred.IsFalse() {
		return uc.finish(ctx, feed, nil)
	}
	items, err := uc.items.Find(ctx, query.Page(pred, cursor, uc.pageSize))
	if err != nil {
		uc.logger.Error("Feed query failed", zap.String("feed", feed), zap.Error(err))
		return nil, storeError("find "+feed+" items", err)
	}
	return uc.finish(ctx, feed, items)
}

func (uc *FeedUsecase) finish(ctx context.Context, feed string, items []*domain.Item) (*domain.FeedPage, error) {
	out, err := uc.presenter.Items(ctx, items)
	if err != nil {
		return nil, err
	}
	uc.metrics.ObserveFeedPage(feed, len(out))
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("feed.items", len(out)))
	return &domain.FeedPage{Items: out}, nil
}

func (uc *FeedUsecase) startSpan(ctx context.Context, feed string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "FeedUsecase."+feed, trace.WithAttributes(attribute.String("feed", feed)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// filterPredicate composes the optional server-side item filters.
func filterPredicate(f domain.ItemFilter) query.Predicate {
	return query.All(
		query.Tags(f.Tags, f.TagsMode == domain.TagsAll),
		query.Range(query.FieldPrice, f.MinPrice, f.MaxPrice),
		query.OneOf(query.FieldItemType, f.Types),
	)
}
