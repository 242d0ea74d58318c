package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
	"github.com/Abdurahmanit/merchsy/internal/platform/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentSigns bounds the signing fan-out for one page.
const maxConcurrentSigns = 8

// SignerOptions configures how stored image keys become client URLs.
type SignerOptions struct {
	URLTTL      time.Duration // lifetime of a signed URL
	Timeout     time.Duration // deadline for signing a whole page
	Placeholder string        // served when a key is empty or cannot be signed
}

// ImageSigner turns object keys into time-limited URLs. A failure for one key
// degrades that key to the placeholder and never fails the batch.
type ImageSigner struct {
	store   domain.ObjectStore
	cache   domain.URLCache
	opts    SignerOptions
	metrics *metrics.MetricsManager
	logger  *logger.Logger
}

// NewImageSigner builds a signer. cache and m may be nil.
func NewImageSigner(store domain.ObjectStore, cache domain.URLCache, opts SignerOptions, m *metrics.MetricsManager, log *logger.Logger) *ImageSigner {
	if opts.URLTTL <= 0 {
		opts.URLTTL = 15 * time.Minute
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	return &ImageSigner{
		store:   store,
		cache:   cache,
		opts:    opts,
		metrics: m,
		logger:  log.Named("ImageSigner"),
	}
}

// SignAll signs keys concurrently under a single timeout and returns the URLs
// in input order. No store call is made for an empty batch.
func (s *ImageSigner) SignAll(ctx context.Context, keys []string) []string {
	urls := make([]string, len(keys))
	if len(keys) == 0 {
		return urls
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSigns)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			urls[i] = s.sign(gctx, key)
			return nil
		})
	}
	_ = g.Wait()
	return urls
}

func (s *ImageSigner) Sign(ctx context.Context, key string) string {
	return s.SignAll(ctx, []string{key})[0]
}

func (s *ImageSigner) sign(ctx context.Context, key string) string {
	if key == "" {
		return s.opts.Placeholder
	}

	if s.cache != nil {
		if url, ok, err := s.cache.Get(ctx, key); err == nil && ok {
			return url
		} else if err != nil {
			s.logger.Debug("URL cache lookup failed", zap.String("key", key), zap.Error(err))
		}
	}

	url, err := s.store.Sign(ctx, key, s.opts.URLTTL)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		s.logger.Warn("Failed to sign image, using placeholder", zap.String("key", key), zap.Error(err))
		s.metrics.IncSignFailure()
		return s.opts.Placeholder
	}

	if s.cache != nil {
		// Cached entries expire well before the URL itself does.
		if err := s.cache.Set(ctx, key, url, s.opts.URLTTL/2); err != nil {
			s.logger.Debug("URL cache store failed", zap.String("key", key), zap.Error(err))
		}
	}
	return url
}

// Presenter resolves owner projections and signed image URLs for items.
type Presenter struct {
	users  domain.UserRepository
	signer *ImageSigner
}

func NewPresenter(users domain.UserRepository, signer *ImageSigner) *Presenter {
	return &Presenter{users: users, signer: signer}
}

// Items post-processes a fetched page. Order is preserved and an empty page
// touches neither the user store nor the object store.
func (p *Presenter) Items(ctx context.Context, items []*domain.Item) ([]*domain.FeedItem, error) {
	out := make([]*domain.FeedItem, 0, len(items))
	if len(items) == 0 {
		return out, nil
	}

	ownerIDs := make([]domain.ID, len(items))
	keys := make([]string, len(items))
	for i, it := range items {
		ownerIDs[i] = it.OwnerID
		keys[i] = it.ImageKey
	}

	owners, err := p.owners(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}
	urls := p.signer.SignAll(ctx, keys)

	for i, it := range items {
		out = append(out, &domain.FeedItem{
			Item:     *it,
			Owner:    owners[it.OwnerID],
			ImageURL: urls[i],
		})
	}
	return out, nil
}

func (p *Presenter) Comments(ctx context.Context, comments []*domain.Comment) ([]*domain.CommentView, error) {
	out := make([]*domain.CommentView, 0, len(comments))
	if len(comments) == 0 {
		return out, nil
	}
	ids := make([]domain.ID, len(comments))
	for i, c := range comments {
		ids[i] = c.OwnerID
	}
	owners, err := p.owners(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range comments {
		out = append(out, &domain.CommentView{Comment: *c, Owner: owners[c.OwnerID]})
	}
	return out, nil
}

func (p *Presenter) Profiles(ctx context.Context, users []*domain.User) []*domain.Profile {
	keys := make([]string, len(users))
	for i, u := range users {
		keys[i] = u.ProfilePictureKey
	}
	urls := p.signer.SignAll(ctx, keys)

	out := make([]*domain.Profile, len(users))
	for i, u := range users {
		out[i] = &domain.Profile{
			ID:             u.ID,
			Name:           u.Name,
			Username:       u.Username,
			Bio:            u.Bio,
			ProfilePicture: urls[i],
			Followers:      len(u.Followers),
			Following:      len(u.Following),
		}
	}
	return out
}

// owners returns a projection for every id; ids unknown to the store keep
// just their identifier.
func (p *Presenter) owners(ctx context.Context, ids []domain.ID) (map[domain.ID]domain.Owner, error) {
	unique := make([]domain.ID, 0, len(ids))
	seen := make(map[domain.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := p.users.FindOwners(ctx, unique)
	if err != nil {
		return nil, storeError("resolve owners", err)
	}
	owners := make(map[domain.ID]domain.Owner, len(unique))
	for _, id := range unique {
		if o, ok := found[id]; ok {
			owners[id] = o
		} else {
			owners[id] = domain.Owner{ID: id}
		}
	}
	return owners, nil
}

// storeError classifies a repository failure. Domain errors pass through;
// anything else is an upstream failure the client may retry.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnavailable),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrDuplicateAccount),
		errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %v", op, domain.ErrUnavailable, err)
}
