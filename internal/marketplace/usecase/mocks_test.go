package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/stretchr/testify/mock"
)

type mockItemRepo struct{ mock.Mock }

func (m *mockItemRepo) Create(ctx context.Context, item *domain.Item) error {
	return m.Called(ctx, item).Error(0)
}

func (m *mockItemRepo) FindByID(ctx context.Context, id domain.ID) (*domain.Item, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*domain.Item)
	return item, args.Error(1)
}

func (m *mockItemRepo) Find(ctx context.Context, q query.Query) ([]*domain.Item, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]*domain.Item)
	return items, args.Error(1)
}

func (m *mockItemRepo) Count(ctx context.Context, p query.Predicate) (int64, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(int64), args.Error(1)
}

type mockObjectStore struct{ mock.Mock }

func (m *mockObjectStore) Put(ctx context.Context, fileName, contentType string, data io.Reader, size int64) (string, error) {
	args := m.Called(ctx, fileName, contentType, data, size)
	return args.String(0), args.Error(1)
}

func (m *mockObjectStore) Sign(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, subject string, payload any) error {
	return m.Called(ctx, subject, payload).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendWelcome(ctx context.Context, toEmail, name string) error {
	return m.Called(ctx, toEmail, name).Error(0)
}

// fakeStore signs deterministically and records every key it was asked for.
type fakeStore struct {
	mu     sync.Mutex
	signed []string
	fail   map[string]error
	block  bool
}

func (s *fakeStore) Put(_ context.Context, fileName, _ string, _ io.Reader, _ int64) (string, error) {
	return "posts/" + fileName, nil
}

func (s *fakeStore) Sign(ctx context.Context, key string, _ time.Duration) (string, error) {
	s.mu.Lock()
	s.signed = append(s.signed, key)
	s.mu.Unlock()
	if s.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err := s.fail[key]; err != nil {
		return "", err
	}
	return "https://cdn.test/" + key + "?sig=1", nil
}

func (s *fakeStore) calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.signed...)
}

// fakeAuth is a transparent AuthService for account flows.
type fakeAuth struct{}

func (fakeAuth) HashPassword(pw string) (string, error) { return "hash:" + pw, nil }

func (fakeAuth) VerifyCredentials(hash, pw string) error {
	if hash != "hash:"+pw {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (fakeAuth) IssueToken(id domain.ID) (string, error) { return "token:" + id.Hex(), nil }

func (fakeAuth) VerifyToken(token string) (domain.ID, error) {
	return domain.ParseID(token[len("token:"):])
}

// mapCache is an in-process domain.URLCache.
type mapCache struct {
	mu sync.Mutex
	m  map[string]string
}

func (c *mapCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok, nil
}

func (c *mapCache) Set(_ context.Context, key, url string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.m == nil {
		c.m = map[string]string{}
	}
	c.m[key] = url
	return nil
}
