package ports

import (
	"context"

	"github.com/clinicore/user-service/internal/core/domain"
)

// AuthService authenticates users and issues access tokens.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.SanitizedUser, error)
}
