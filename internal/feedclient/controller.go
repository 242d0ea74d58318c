package feedclient

import (
	"context"
	"errors"
	"sync"

	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"go.uber.org/zap"
)

// DefaultPageSize matches the server's fixed page size.
const DefaultPageSize = 25

// ErrClosed is returned by LoadNext after Close.
var ErrClosed = errors.New("feed controller closed")

// Snapshot is an immutable copy of the controller state.
type Snapshot struct {
	Items       []Item
	HasMore     bool
	Loading     bool
	Err         error
	ResultCount int64
	Filters     FilterState
}

type Option func(*Controller)

func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithOnChange registers a callback invoked after every state transition.
// It runs outside the controller lock.
func WithOnChange(fn func(Snapshot)) Option {
	return func(c *Controller) { c.onChange = fn }
}

// WithFilters sets the filters the first page is fetched under.
func WithFilters(f FilterState) Option {
	return func(c *Controller) { c.filters = f.clone() }
}

func WithLogger(log *logger.Logger) Option {
	return func(c *Controller) { c.logger = log.Named("FeedController") }
}

// Controller drives one feed view: it accumulates pages, deduplicates them
// by id and allows at most one fetch in flight. Filter changes start a new
// epoch; responses from an older epoch or after Close are dropped.
type Controller struct {
	fetcher  Fetcher
	kind     Kind
	pageSize int
	onChange func(Snapshot)
	logger   *logger.Logger

	mu          sync.Mutex
	items       []Item
	loadedIDs   map[string]struct{}
	hasMore     bool
	loading     bool
	cursor      string
	filters     FilterState
	resultCount int64
	err         error
	epoch       uint64
	closed      bool
	cancel      context.CancelFunc
	inflight    sync.WaitGroup
}

func NewController(fetcher Fetcher, kind Kind, opts ...Option) *Controller {
	c := &Controller{
		fetcher:   fetcher,
		kind:      kind,
		pageSize:  DefaultPageSize,
		logger:    logger.NewNop(),
		loadedIDs: make(map[string]struct{}),
		hasMore:   true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type ticket struct {
	epoch uint64
	req   Request
	ctx   context.Context
}

// begin moves Idle to Loading. It reports false when the controller is
// closed, already loading or exhausted.
func (c *Controller) begin(ctx context.Context) (ticket, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.loading || !c.hasMore {
		return ticket{}, false
	}
	c.loading = true
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.inflight.Add(1)
	return ticket{
		epoch: c.epoch,
		req:   Request{Kind: c.kind, Cursor: c.cursor, Filters: c.filters.clone()},
		ctx:   fctx,
	}, true
}

func (c *Controller) run(t ticket) error {
	defer c.inflight.Done()
	page, err := c.fetcher.Fetch(t.ctx, t.req)
	return c.complete(t, page, err)
}

// complete applies a finished fetch unless it is stale.
func (c *Controller) complete(t ticket, page Page, fetchErr error) error {
	c.mu.Lock()
	if c.closed || t.epoch != c.epoch {
		c.mu.Unlock()
		c.logger.Debug("Discarding stale page", zap.Uint64("epoch", t.epoch), zap.Int("items", len(page.Items)))
		return nil
	}
	c.loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if fetchErr != nil {
		c.hasMore = false
		c.err = fetchErr
		c.mu.Unlock()
		c.logger.Warn("Feed fetch failed", zap.String("feed", string(c.kind)), zap.Error(fetchErr))
		c.notify()
		return fetchErr
	}

	added := c.mergeLocked(page.Items)
	c.hasMore = len(page.Items) == c.pageSize
	if n := len(page.Items); n > 0 {
		c.cursor = page.Items[n-1].ID
	}
	if c.kind == KindSearch {
		c.resultCount = page.ResultCount
	}
	c.mu.Unlock()

	c.logger.Debug("Page merged", zap.String("feed", string(c.kind)), zap.Int("received", len(page.Items)), zap.Int("added", added))
	c.notify()
	return nil
}

// mergeLocked appends items whose id has not been seen, preserving order.
func (c *Controller) mergeLocked(items []Item) int {
	added := 0
	for _, it := range items {
		if _, ok := c.loadedIDs[it.ID]; ok {
			continue
		}
		c.loadedIDs[it.ID] = struct{}{}
		c.items = append(c.items, it)
		added++
	}
	return added
}

// Trigger starts loading the next page in the background, as a sentinel
// intersection would. It is a no-op while a fetch is in flight.
func (c *Controller) Trigger(ctx context.Context) bool {
	t, ok := c.begin(ctx)
	if !ok {
		return false
	}
	c.notify()
	go func() { _ = c.run(t) }()
	return true
}

// LoadNext fetches the next page synchronously. started is false when the
// call was dropped by the guard.
func (c *Controller) LoadNext(ctx context.Context) (started bool, err error) {
	t, ok := c.begin(ctx)
	if !ok {
		if c.isClosed() {
			return false, ErrClosed
		}
		return false, nil
	}
	c.notify()
	return true, c.run(t)
}

// Mount starts the first fetch.
func (c *Controller) Mount(ctx context.Context) bool {
	return c.Trigger(ctx)
}

// SetFilters resets the feed when f differs from the current filters and
// starts fetching the first page under them.
func (c *Controller) SetFilters(ctx context.Context, f FilterState) bool {
	c.mu.Lock()
	if c.closed || c.filters.Equal(f) {
		c.mu.Unlock()
		return false
	}
	c.filters = f.clone()
	c.resetLocked()
	c.mu.Unlock()

	c.notify()
	c.Trigger(ctx)
	return true
}

// Reload restarts the feed under the current filters, clearing any error.
func (c *Controller) Reload(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	c.mu.Unlock()

	c.notify()
	c.Trigger(ctx)
}

func (c *Controller) resetLocked() {
	c.epoch++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.items = nil
	c.loadedIDs = make(map[string]struct{})
	c.cursor = ""
	c.hasMore = true
	c.loading = false
	c.err = nil
	c.resultCount = 0
}

// Close tears the controller down. An in-flight response is discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.loading = false
	c.mu.Unlock()
}

// Wait blocks until no fetch started by this controller is running.
func (c *Controller) Wait() {
	c.inflight.Wait()
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Items:       append([]Item(nil), c.items...),
		HasMore:     c.hasMore,
		Loading:     c.loading,
		Err:         c.err,
		ResultCount: c.resultCount,
		Filters:     c.filters.clone(),
	}
}

func (c *Controller) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Controller) notify() {
	if c.onChange == nil {
		return
	}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	s := c.snapshotLocked()
	c.mu.Unlock()
	c.onChange(s)
}
