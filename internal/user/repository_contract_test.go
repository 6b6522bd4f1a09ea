package user_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daap14/secrets/internal/user"
)

func strPtr(s string) *string { return &s }

func localUser(name string) *user.User {
	return &user.User{
		Username:     strPtr(name),
		PasswordHash: strPtr("$2a$04$abcdefghijklmnopqrstuuAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"),
	}
}

// runRepositoryContract exercises behavior every Repository backend must share.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) user.Repository) {
	t.Run("create and get", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		u := localUser("alice")
		require.NoError(t, repo.Create(ctx, u))
		assert.NotEqual(t, uuid.Nil, u.ID)
		assert.False(t, u.CreatedAt.IsZero())

		got, err := repo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.DisplayName())
		assert.Nil(t, got.GoogleID)
		assert.Nil(t, got.Secret)
	})

	t.Run("duplicate username", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, localUser("alice")))
		err := repo.Create(ctx, localUser("alice"))
		assert.ErrorIs(t, err, user.ErrUsernameTaken)
	})

	t.Run("unreachable user rejected", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.Create(context.Background(), &user.User{Secret: strPtr("orphan")})
		assert.ErrorIs(t, err, user.ErrUnreachable)
	})

	t.Run("find by username", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		u := localUser("bob")
		require.NoError(t, repo.Create(ctx, u))

		got, err := repo.Find(ctx, user.ByUsername("bob"))
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)

		_, err = repo.Find(ctx, user.ByUsername("nobody"))
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("find with invalid key", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.Find(context.Background(), user.Key{Field: "email", Value: "x"})
		assert.ErrorIs(t, err, user.ErrInvalidKey)

		_, err = repo.Find(context.Background(), user.ByGoogleID(""))
		assert.ErrorIs(t, err, user.ErrInvalidKey)
	})

	t.Run("get unknown id", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(context.Background(), uuid.New())
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("find or create is idempotent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		build := func() *user.User { return &user.User{} }

		first, created, err := repo.FindOrCreate(ctx, user.ByGoogleID("g-123"), build)
		require.NoError(t, err)
		assert.True(t, created)
		require.NotNil(t, first.GoogleID)
		assert.Equal(t, "g-123", *first.GoogleID)
		assert.Nil(t, first.Username)
		assert.Nil(t, first.PasswordHash)

		second, created, err := repo.FindOrCreate(ctx, user.ByGoogleID("g-123"), build)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("find or create under concurrency", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		const workers = 8
		ids := make([]uuid.UUID, workers)
		createdCount := 0
		var mu sync.Mutex
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				u, created, err := repo.FindOrCreate(ctx, user.ByGoogleID("g-race"), func() *user.User { return &user.User{} })
				if !assert.NoError(t, err) {
					return
				}
				mu.Lock()
				defer mu.Unlock()
				ids[i] = u.ID
				if created {
					createdCount++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, createdCount)
		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
	})

	t.Run("secret overwrite and listing", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		alice := localUser("alice")
		require.NoError(t, repo.Create(ctx, alice))
		require.NoError(t, repo.Create(ctx, localUser("silent")))

		require.NoError(t, repo.SetSecret(ctx, alice.ID, "A"))
		require.NoError(t, repo.SetSecret(ctx, alice.ID, "B"))

		users, err := repo.ListWithSecrets(ctx)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, alice.ID, users[0].ID)
		assert.Equal(t, "B", users[0].SecretText())
	})

	t.Run("empty secret is not listed", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		u := localUser("carol")
		require.NoError(t, repo.Create(ctx, u))
		require.NoError(t, repo.SetSecret(ctx, u.ID, ""))

		users, err := repo.ListWithSecrets(ctx)
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("set secret on unknown user", func(t *testing.T) {
		repo := newRepo(t)
		err := repo.SetSecret(context.Background(), uuid.New(), "x")
		assert.ErrorIs(t, err, user.ErrUserNotFound)
	})

	t.Run("ping", func(t *testing.T) {
		repo := newRepo(t)
		assert.NoError(t, repo.Ping(context.Background()))
	})
}

func TestMemoryRepository(t *testing.T) {
	runRepositoryContract(t, func(t *testing.T) user.Repository {
		return user.NewMemoryRepository()
	})
}

func TestMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := user.NewMemoryRepository()
	ctx := context.Background()

	u := localUser("dave")
	require.NoError(t, repo.Create(ctx, u))

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	*got.Username = "mallory"

	again, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "dave", again.DisplayName())
}

func TestUser_Reachable(t *testing.T) {
	assert.False(t, (&user.User{}).Reachable())
	assert.False(t, (&user.User{Username: strPtr("")}).Reachable())
	assert.True(t, (&user.User{Username: strPtr("alice")}).Reachable())
	assert.True(t, (&user.User{GoogleID: strPtr("g-1")}).Reachable())
}
