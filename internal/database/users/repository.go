// Package users provides database operations for user management.
//
// API tokens are only stored as SHA-256 digests. CreateUser returns the
// plaintext token once; lookups hash the presented token.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, token, err := repo.CreateUser(ctx, "jamie", "jamie@example.com")
//	user, err = repo.GetUserByToken(ctx, token)
package users

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser creates a new user with a generated token and returns the
// plaintext token alongside the user.
func (r *Repository) CreateUser(ctx context.Context, username, email string) (*entities.User, string, error) {
	token, err := generateToken()
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	user := &entities.User{
		Username: username,
		Email:    email,
		Token:    HashToken(token),
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// EnsureUser returns the user with the given username, creating it when missing.
func (r *Repository) EnsureUser(ctx context.Context, username, email string) (*entities.User, error) {
	user, err := r.GetUserByUsername(ctx, username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user, _, err = r.CreateUser(ctx, username, email)
	return user, err
}

// GetUserByToken retrieves a user by their plaintext token.
func (r *Repository) GetUserByToken(ctx context.Context, token string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("token = ?", HashToken(token)).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*entities.User, error) {
	var user entities.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// HashToken returns the hex SHA-256 digest stored for a token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
