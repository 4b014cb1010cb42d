package users

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	dbPath := "./test_users_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(&entities.User{})
	require.NoError(t, err)

	repo := NewRepository(db)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return repo, cleanup
}

func TestRepository_CreateUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	user, token, err := repo.CreateUser(context.Background(), "testuser", "test@example.com")

	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Len(t, token, 64)
	assert.Equal(t, HashToken(token), user.Token)
	assert.NotEqual(t, token, user.Token, "only the digest is stored")
}

func TestRepository_GetUserByToken(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	created, token, err := repo.CreateUser(ctx, "testuser", "test@example.com")
	require.NoError(t, err)

	user, err := repo.GetUserByToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = repo.GetUserByToken(ctx, created.Token)
	assert.Error(t, err, "the stored digest is not a valid token")

	_, err = repo.GetUserByToken(ctx, "nonexistent-token")
	assert.Error(t, err)
}

func TestRepository_GetUserByID(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	created, _, err := repo.CreateUser(ctx, "testuser", "test@example.com")
	require.NoError(t, err)

	user, err := repo.GetUserByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)

	_, err = repo.GetUserByID(ctx, 999)
	assert.Error(t, err)
}

func TestRepository_EnsureUser(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	first, err := repo.EnsureUser(ctx, "local", "local@localhost")
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	second, err := repo.EnsureUser(ctx, "local", "local@localhost")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}
