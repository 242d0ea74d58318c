package memory

import (
	"context"
	"testing"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/domain"
	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seqID(n byte) domain.ID {
	var id domain.ID
	id[11] = n
	return id
}

func TestItemRepository_FindOrdersNewestFirstAndLimits(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository()
	for _, n := range []byte{3, 9, 1, 7, 5} {
		require.NoError(t, repo.Create(ctx, &domain.Item{ID: seqID(n), Title: "x"}))
	}

	got, err := repo.Find(ctx, query.Query{Filter: query.True(), Limit: 3})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []domain.ID{seqID(9), seqID(7), seqID(5)}, []domain.ID{got[0].ID, got[1].ID, got[2].ID})

	n, err := repo.Count(ctx, query.True())
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

func TestItemRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewItemRepository()
	item := &domain.Item{ID: seqID(1), Title: "original"}
	require.NoError(t, repo.Create(ctx, item))
	item.Title = "mutated"

	got, err := repo.FindByID(ctx, seqID(1))
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)

	_, err = repo.FindByID(ctx, seqID(2))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepository_FollowEdges(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	a := &domain.User{Username: "a", Email: "a@x"}
	b := &domain.User{Username: "b", Email: "b@x"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))
	assert.ErrorIs(t, repo.Create(ctx, &domain.User{Username: "A", Email: "c@x"}), domain.ErrDuplicateAccount)

	require.NoError(t, repo.Follow(ctx, a.ID, b.ID))
	require.NoError(t, repo.Follow(ctx, a.ID, b.ID))

	gotA, _ := repo.FindByID(ctx, a.ID)
	gotB, _ := repo.FindByID(ctx, b.ID)
	assert.Equal(t, []domain.ID{b.ID}, gotA.Following)
	assert.Equal(t, []domain.ID{a.ID}, gotB.Followers)

	require.NoError(t, repo.Unfollow(ctx, a.ID, b.ID))
	gotA, _ = repo.FindByID(ctx, a.ID)
	assert.Empty(t, gotA.Following)
}

func TestUserRepository_FindHidesPasswordHash(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()
	require.NoError(t, repo.Create(ctx, &domain.User{Username: "seller", Name: "Sam", Email: "s@x", PasswordHash: "secret"}))

	users, err := repo.Find(ctx, query.Page(query.TextSearch("SELL", query.FieldUsername, query.FieldName), nil, 25))
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Empty(t, users[0].PasswordHash)
}
