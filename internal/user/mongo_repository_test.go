package user_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/daap14/secrets/internal/database"
	"github.com/daap14/secrets/internal/user"
)

func setupMongoRepo(t *testing.T) user.Repository {
	t.Helper()

	uri := os.Getenv("TEST_MONGO_URI")
	if uri == "" {
		t.Skip("skipping: TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	m, err := database.NewMongo(ctx, uri, "secrets_test")
	if err != nil {
		t.Skipf("skipping: cannot connect to test mongo: %v", err)
	}
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	// Clean slate
	require.NoError(t, m.Database().Collection(user.CollectionName).Drop(ctx))

	repo := user.NewMongoRepository(m.Database())
	require.NoError(t, repo.EnsureIndexes(ctx))
	return repo
}

func TestMongoRepository(t *testing.T) {
	runRepositoryContract(t, setupMongoRepo)
}
