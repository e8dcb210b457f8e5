package ports

import (
	"context"

	"github.com/clinicore/user-service/internal/core/domain"
)

// SortDirection is ascending or descending.
type SortDirection int

const (
	SortDesc SortDirection = -1
	SortAsc  SortDirection = 1
)

// UserFilter carries every query parameter of a user listing.
type UserFilter struct {
	Status    domain.UserStatus // optional
	Role      domain.Role       // optional
	IsDeleted *bool             // nil = both deleted and live users
	Search    string            // case-insensitive match on first name, last name or email
	Page      int               // 1-based
	Limit     int
	SortBy    string
	SortDir   SortDirection
}

// UserRepository persists users. Not-found lookups return
// domain.ErrUserNotFound; conditional writes whose version no longer matches
// return domain.ErrConcurrentModification.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByVerificationToken(ctx context.Context, tokenHash string) (*domain.User, error)
	FindByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)

	// Create inserts u, assigning its ID. A taken email yields domain.ErrEmailExists.
	Create(ctx context.Context, u *domain.User) error
	// Update replaces the stored document when its version equals u.Version,
	// then bumps u.Version.
	Update(ctx context.Context, u *domain.User) error

	SetStatus(ctx context.Context, id string, version int64, status domain.UserStatus, modifiedBy string) (*domain.User, error)
	SoftDelete(ctx context.Context, id string, version int64, deletedBy, reason string) (*domain.User, error)
	Restore(ctx context.Context, id string, version int64, restoredBy string) (*domain.User, error)

	List(ctx context.Context, filter UserFilter) ([]*domain.User, int64, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
}
