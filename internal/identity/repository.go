package identity

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/zionnet/newsflow/internal/domain"
)

// UserRepository defines all persistence operations for identity records.
// The pgx implementation is in pg_user_repo.go; tests use a hand-written
// in-memory mock (mock_user_repo.go).
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Insert(ctx context.Context, u *domain.User) error
	UpdatePreferences(ctx context.Context, id string, preferences []string) error
}

// HashPassword produces a salted bcrypt hash. The plaintext is hashed before
// any persistence call; only the hash is ever stored.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
