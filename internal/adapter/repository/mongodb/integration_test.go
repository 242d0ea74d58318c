//go:build integration

package mongodb

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/Abdurahmanit/merchsy/internal/platform/logger"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var testDB *mongo.Database

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("Could not construct pool: %s", err)
	}
	if err := pool.Client.Ping(); err != nil {
		log.Fatalf("Could not connect to Docker: %s", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "6.0",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("Could not start MongoDB resource: %s", err)
	}
	uri := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))

	var client *mongo.Client
	if err := pool.Retry(func() error {
		var errRetry error
		client, errRetry = mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if errRetry != nil {
			return errRetry
		}
		return client.Ping(context.Background(), nil)
	}); err != nil {
		log.Fatalf("Could not connect to MongoDB: %s", err)
	}
	testDB = client.Database("merchsy_test")

	code := m.Run()

	_ = client.Disconnect(context.Background())
	if err := pool.Purge(resource); err != nil {
		log.Printf("Could not purge MongoDB resource: %s", err)
	}
	os.Exit(code)
}

func TestItemRepository_CursorPagination(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.Collection(itemCollectionName).Drop(ctx))
	repo := NewItemRepository(ctx, testDB, logger.NewNop())

	owner := domain.ID{}
	owner[11] = 1
	other := domain.ID{}
	other[11] = 2

	var ids []domain.ID
	for i := 0; i < 10; i++ {
		item := &domain.Item{
			Title:    fmt.Sprintf("item %d", i),
			Price:    float64(i),
			OwnerID:  owner,
			ItemType: "hat",
			Tags:     []string{"a"},
		}
		if i%2 == 1 {
			item.OwnerID = other
		}
		require.NoError(t, repo.Create(ctx, item))
		ids = append(ids, item.ID)
		time.Sleep(time.Millisecond)
	}

	first, err := repo.Find(ctx, query.Page(query.Eq(query.FieldOwner, owner), nil, 3))
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, ids[8], first[0].ID)
	assert.Equal(t, ids[4], first[2].ID)

	last := first[2].ID
	second, err := repo.Find(ctx, query.Page(query.Eq(query.FieldOwner, owner), &last, 3))
	require.NoError(t, err)
	require.Len(t, second, 2)
	for _, it := range second {
		assert.Equal(t, owner, it.OwnerID)
		assert.Less(t, it.ID.Hex(), last.Hex())
	}

	n, err := repo.Count(ctx, query.TextSearch("item", query.FieldTitle))
	require.NoError(t, err)
	assert.EqualValues(t, 10, n)
}

func TestUserRepository_DuplicateAndFollow(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.Collection(userCollectionName).Drop(ctx))
	repo := NewUserRepository(ctx, testDB, logger.NewNop())

	alice := &domain.User{Name: "Alice", Username: "alice", Email: "a@example.com", PasswordHash: "h"}
	bob := &domain.User{Name: "Bob", Username: "bob", Email: "b@example.com", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))

	err := repo.Create(ctx, &domain.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, domain.ErrDuplicateAccount)

	require.NoError(t, repo.Follow(ctx, alice.ID, bob.ID))
	got, err := repo.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []domain.ID{bob.ID}, got.Following)

	owners, err := repo.FindOwners(ctx, []domain.ID{alice.ID, bob.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.Owner{ID: bob.ID, Username: "bob", Name: "Bob"}, owners[bob.ID])
}
