package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/adapter/repository/memory"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"
	"github.com/Abdurahmanit/merchsy/internal/platform/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const placeholder = "https://cdn.test/placeholder.png"

func idN(n int) domain.ID {
	var id domain.ID
	id[10] = byte(n >> 8)
	id[11] = byte(n)
	return id
}

type feedFixture struct {
	items   *memory.ItemRepository
	users   *memory.UserRepository
	store   *fakeStore
	metrics *metrics.MetricsManager
	uc      *FeedUsecase
}

func newFeedFixture(t *testing.T, pageSize int) *feedFixture {
	t.Helper()
	f := &feedFixture{
		items:   memory.NewItemRepository(),
		users:   memory.NewUserRepository(),
		store:   &fakeStore{},
		metrics: metrics.NewMetricsManager("test"),
	}
	signer := NewImageSigner(f.store, nil, SignerOptions{URLTTL: time.Minute, Timeout: time.Second, Placeholder: placeholder}, f.metrics, logger.NewNop())
	f.uc = NewFeedUsecase(f.items, f.users, NewPresenter(f.users, signer), pageSize, f.metrics, logger.NewNop())
	return f
}

func (f *feedFixture) addUser(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{Name: username + " name", Username: username, Email: username + "@x.test", PasswordHash: "secret"}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *feedFixture) addItem(t *testing.T, item domain.Item) {
	t.Helper()
	require.NoError(t, f.items.Create(context.Background(), &item))
}

func pageIDs(p *domain.FeedPage) []domain.ID {
	ids := make([]domain.ID, len(p.Items))
	for i, it := range p.Items {
		ids[i] = it.ID
	}
	return ids
}

func TestExplore_TenItemsPageSizeThree(t *testing.T) {
	f := newFeedFixture(t, 3)
	owner := f.addUser(t, "seller")
	for n := 10; n <= 100; n += 10 {
		f.addItem(t, domain.Item{ID: idN(n), Title: "item", OwnerID: owner.ID, ItemType: "hat"})
	}
	ctx := context.Background()

	p1, err := f.uc.Explore(ctx, domain.ItemFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(100), idN(90), idN(80)}, pageIDs(p1))

	p2, err := f.uc.Explore(ctx, domain.ItemFilter{}, idN(80).Hex())
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(70), idN(60), idN(50)}, pageIDs(p2))

	p3, err := f.uc.Explore(ctx, domain.ItemFilter{}, idN(50).Hex())
	require.NoError(t, err)
	assert.Len(t, p3.Items, 3)

	p4, err := f.uc.Explore(ctx, domain.ItemFilter{}, p3.Items[2].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(10)}, pageIDs(p4))
	assert.Less(t, len(p4.Items), 3)
}

func TestExplore_ChainedPagesAreStrictlyDescendingWithoutDuplicates(t *testing.T) {
	f := newFeedFixture(t, 4)
	owner := f.addUser(t, "seller")
	for n := 1; n <= 23; n++ {
		f.addItem(t, domain.Item{ID: idN(n * 7), Title: "x", OwnerID: owner.ID, ItemType: "tee"})
	}

	var all []domain.ID
	cursor := ""
	for {
		page, err := f.uc.Explore(context.Background(), domain.ItemFilter{}, cursor)
		require.NoError(t, err)
		all = append(all, pageIDs(page)...)
		if len(page.Items) < 4 {
			break
		}
		cursor = page.Items[len(page.Items)-1].ID.Hex()
	}

	require.Len(t, all, 23)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i-1].Hex(), all[i].Hex())
	}
}

func TestExplore_NewItemsDoNotShiftLaterPages(t *testing.T) {
	f := newFeedFixture(t, 2)
	owner := f.addUser(t, "seller")
	for _, n := range []int{10, 20, 30, 40} {
		f.addItem(t, domain.Item{ID: idN(n), OwnerID: owner.ID, ItemType: "hat"})
	}
	p1, err := f.uc.Explore(context.Background(), domain.ItemFilter{}, "")
	require.NoError(t, err)

	f.addItem(t, domain.Item{ID: idN(50), OwnerID: owner.ID, ItemType: "hat"})

	p2, err := f.uc.Explore(context.Background(), domain.ItemFilter{}, p1.Items[1].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(20), idN(10)}, pageIDs(p2))
}

func TestUserOwned_CursorAndOwnerAreBothApplied(t *testing.T) {
	f := newFeedFixture(t, 2)
	me := f.addUser(t, "me")
	other := f.addUser(t, "other")
	for n := 1; n <= 8; n++ {
		owner := me.ID
		if n%2 == 0 {
			owner = other.ID
		}
		f.addItem(t, domain.Item{ID: idN(n), OwnerID: owner, ItemType: "hat"})
	}

	p1, err := f.uc.UserOwned(context.Background(), me.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(7), idN(5)}, pageIDs(p1))

	p2, err := f.uc.UserOwned(context.Background(), me.ID, idN(5).Hex())
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(3), idN(1)}, pageIDs(p2))
	for _, it := range p2.Items {
		assert.Equal(t, me.ID, it.OwnerID)
	}
}

func TestUserOwned_BuildsConjunctionOfOwnerAndCursor(t *testing.T) {
	items := new(mockItemRepo)
	users := memory.NewUserRepository()
	signer := NewImageSigner(&fakeStore{}, nil, SignerOptions{Placeholder: placeholder}, nil, logger.NewNop())
	uc := NewFeedUsecase(items, users, NewPresenter(users, signer), 0, nil, logger.NewNop())

	owner := idN(1)
	last := idN(99)
	items.On("Find", mock.Anything, mock.Anything).Return([]*domain.Item{}, nil).Once()

	_, err := uc.UserOwned(context.Background(), owner, last.Hex())
	require.NoError(t, err)

	q := items.Calls[0].Arguments.Get(1).(query.Query)
	require.Equal(t, query.OpAnd, q.Filter.Op)
	assert.ElementsMatch(t, []query.Predicate{
		query.Eq(query.FieldOwner, owner),
		query.Less(query.FieldID, last),
	}, q.Filter.Children)
	assert.EqualValues(t, query.PageSize, q.Limit)
}

func TestFollowing_EmptyFollowingSetShortCircuits(t *testing.T) {
	items := new(mockItemRepo)
	users := memory.NewUserRepository()
	store := new(mockObjectStore)
	signer := NewImageSigner(store, nil, SignerOptions{Placeholder: placeholder}, nil, logger.NewNop())
	uc := NewFeedUsecase(items, users, NewPresenter(users, signer), 0, nil, logger.NewNop())

	viewer := &domain.User{Username: "lonely", Email: "l@x.test"}
	require.NoError(t, users.Create(context.Background(), viewer))

	page, err := uc.Following(context.Background(), viewer.ID, "")
	require.NoError(t, err)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)

	items.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	items.AssertNotCalled(t, "Count", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Sign", mock.Anything, mock.Anything, mock.Anything)
}

func TestFollowing_OnlyFollowedOwners(t *testing.T) {
	f := newFeedFixture(t, 25)
	viewer := f.addUser(t, "viewer")
	followed := f.addUser(t, "followed")
	stranger := f.addUser(t, "stranger")
	require.NoError(t, f.users.Follow(context.Background(), viewer.ID, followed.ID))

	f.addItem(t, domain.Item{ID: idN(1), OwnerID: followed.ID, ItemType: "hat"})
	f.addItem(t, domain.Item{ID: idN(2), OwnerID: stranger.ID, ItemType: "hat"})
	f.addItem(t, domain.Item{ID: idN(3), OwnerID: followed.ID, ItemType: "hat"})

	page, err := f.uc.Following(context.Background(), viewer.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(3), idN(1)}, pageIDs(page))
}

func TestFollowing_FailsClosedWithoutViewer(t *testing.T) {
	f := newFeedFixture(t, 25)
	_, err := f.uc.Following(context.Background(), domain.ID{}, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.uc.Following(context.Background(), idN(42), "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	_, err = f.uc.UserOwned(context.Background(), domain.ID{}, "")
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestFeeds_RejectMalformedCursorBeforeTouchingStore(t *testing.T) {
	items := new(mockItemRepo)
	users := memory.NewUserRepository()
	signer := NewImageSigner(&fakeStore{}, nil, SignerOptions{}, nil, logger.NewNop())
	uc := NewFeedUsecase(items, users, NewPresenter(users, signer), 0, nil, logger.NewNop())
	viewer := &domain.User{Username: "v", Email: "v@x.test", Following: []domain.ID{idN(1)}}
	require.NoError(t, users.Create(context.Background(), viewer))
	ctx := context.Background()

	_, err := uc.Search(ctx, "hat", domain.ItemFilter{}, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
	_, err = uc.Explore(ctx, domain.ItemFilter{}, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
	_, err = uc.Following(ctx, viewer.ID, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)
	_, err = uc.UserOwned(ctx, viewer.ID, "not-an-id")
	assert.ErrorIs(t, err, domain.ErrInvalidCursor)

	assert.Empty(t, items.Calls)
}

func TestSearch_ResultCountIgnoresCursor(t *testing.T) {
	f := newFeedFixture(t, 2)
	owner := f.addUser(t, "seller")
	for n := 1; n <= 5; n++ {
		f.addItem(t, domain.Item{ID: idN(n), Title: "Band Tee", OwnerID: owner.ID, ItemType: "tee"})
	}
	f.addItem(t, domain.Item{ID: idN(6), Title: "Poster", OwnerID: owner.ID, ItemType: "poster"})

	p1, err := f.uc.Search(context.Background(), "  band ", domain.ItemFilter{}, "")
	require.NoError(t, err)
	assert.EqualValues(t, 5, p1.ResultCount)
	assert.Equal(t, []domain.ID{idN(5), idN(4)}, pageIDs(p1))

	p2, err := f.uc.Search(context.Background(), "band", domain.ItemFilter{}, idN(4).Hex())
	require.NoError(t, err)
	assert.EqualValues(t, 5, p2.ResultCount)
	assert.Equal(t, []domain.ID{idN(3), idN(2)}, pageIDs(p2))
}

func TestSearch_MetacharactersAreLiteral(t *testing.T) {
	f := newFeedFixture(t, 25)
	owner := f.addUser(t, "seller")
	f.addItem(t, domain.Item{ID: idN(1), Title: "a.*b sticker", OwnerID: owner.ID, ItemType: "sticker"})
	f.addItem(t, domain.Item{ID: idN(2), Title: "a big b", OwnerID: owner.ID, ItemType: "sticker"})

	page, err := f.uc.Search(context.Background(), "a.*b", domain.ItemFilter{}, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(1)}, pageIDs(page))
	assert.EqualValues(t, 1, page.ResultCount)
}

func TestSearch_ServerFilters(t *testing.T) {
	f := newFeedFixture(t, 25)
	owner := f.addUser(t, "seller")
	f.addItem(t, domain.Item{ID: idN(1), Title: "tee", Tags: []string{"a"}, Price: 10, OwnerID: owner.ID, ItemType: "tee"})
	f.addItem(t, domain.Item{ID: idN(2), Title: "tee", Tags: []string{"a", "b", "c"}, Price: 30, OwnerID: owner.ID, ItemType: "tee"})
	f.addItem(t, domain.Item{ID: idN(3), Title: "tee", Tags: []string{"a", "b"}, Price: 80, OwnerID: owner.ID, ItemType: "hoodie"})

	all, err := f.uc.Search(context.Background(), "tee", domain.ItemFilter{Tags: []string{"a", "b"}, TagsMode: domain.TagsAll}, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(3), idN(2)}, pageIDs(all))

	max := 50.0
	narrowed, err := f.uc.Search(context.Background(), "tee", domain.ItemFilter{
		Tags:     []string{"b"},
		MaxPrice: &max,
		Types:    []string{"tee"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{idN(2)}, pageIDs(narrowed))
	assert.EqualValues(t, 1, narrowed.ResultCount)
}

func TestPostProcessing_OwnerProjectionAndSignedImages(t *testing.T) {
	f := newFeedFixture(t, 25)
	owner := f.addUser(t, "seller")
	f.addItem(t, domain.Item{ID: idN(1), OwnerID: owner.ID, ImageKey: "posts/one.png", ItemType: "hat"})
	f.addItem(t, domain.Item{ID: idN(2), OwnerID: owner.ID, ItemType: "hat"})

	page, err := f.uc.Explore(context.Background(), domain.ItemFilter{}, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)

	assert.Equal(t, domain.Owner{ID: owner.ID, Username: "seller", Name: "seller name"}, page.Items[0].Owner)
	assert.Equal(t, placeholder, page.Items[0].ImageURL)
	assert.Equal(t, "https://cdn.test/posts/one.png?sig=1", page.Items[1].ImageURL)
	assert.Equal(t, []string{"posts/one.png"}, f.store.calls())
}

func TestPostProcessing_SignFailureDegradesToPlaceholder(t *testing.T) {
	f := newFeedFixture(t, 25)
	owner := f.addUser(t, "seller")
	f.store.fail = map[string]error{"posts/bad.png": errors.New("denied")}
	f.addItem(t, domain.Item{ID: idN(1), OwnerID: owner.ID, ImageKey: "posts/good.png", ItemType: "hat"})
	f.addItem(t, domain.Item{ID: idN(2), OwnerID: owner.ID, ImageKey: "posts/bad.png", ItemType: "hat"})

	page, err := f.uc.Explore(context.Background(), domain.ItemFilter{}, "")
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, placeholder, page.Items[0].ImageURL)
	assert.Equal(t, "https://cdn.test/posts/good.png?sig=1", page.Items[1].ImageURL)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.SignFailuresTotal))
}

func TestPostProcessing_SingleTimeoutForWholeFanOut(t *testing.T) {
	users := memory.NewUserRepository()
	items := memory.NewItemRepository()
	store := &fakeStore{block: true}
	signer := NewImageSigner(store, nil, SignerOptions{Timeout: 50 * time.Millisecond, Placeholder: placeholder}, nil, logger.NewNop())
	uc := NewFeedUsecase(items, users, NewPresenter(users, signer), 0, nil, logger.NewNop())
	for n := 1; n <= 20; n++ {
		require.NoError(t, items.Create(context.Background(), &domain.Item{ID: idN(n), ImageKey: "k", ItemType: "hat"}))
	}

	start := time.Now()
	page, err := uc.Explore(context.Background(), domain.ItemFilter{}, "")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	for _, it := range page.Items {
		assert.Equal(t, placeholder, it.ImageURL)
	}
}

func TestPostProcessing_UsesURLCache(t *testing.T) {
	users := memory.NewUserRepository()
	items := memory.NewItemRepository()
	store := &fakeStore{}
	cache := &mapCache{}
	signer := NewImageSigner(store, cache, SignerOptions{Placeholder: placeholder}, nil, logger.NewNop())
	uc := NewFeedUsecase(items, users, NewPresenter(users, signer), 0, nil, logger.NewNop())
	require.NoError(t, items.Create(context.Background(), &domain.Item{ID: idN(1), ImageKey: "posts/a.png", ItemType: "hat"}))

	for i := 0; i < 3; i++ {
		page, err := uc.Explore(context.Background(), domain.ItemFilter{}, "")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.test/posts/a.png?sig=1", page.Items[0].ImageURL)
	}
	assert.Len(t, store.calls(), 1)
}

func TestFeeds_StoreFailureIsRetryableUpstreamError(t *testing.T) {
	items := new(mockItemRepo)
	users := memory.NewUserRepository()
	signer := NewImageSigner(&fakeStore{}, nil, SignerOptions{}, nil, logger.NewNop())
	uc := NewFeedUsecase(items, users, NewPresenter(users, signer), 0, nil, logger.NewNop())

	items.On("Find", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	items.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

	_, err := uc.Explore(context.Background(), domain.ItemFilter{}, "")
	assert.ErrorIs(t, err, domain.ErrUnavailable)

	_, err = uc.Search(context.Background(), "x", domain.ItemFilter{}, "")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}
