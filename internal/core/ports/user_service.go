package ports

import (
	"context"
	"io"
	"time"

	"github.com/clinicore/user-service/internal/core/domain"
)

// Caller identifies the authenticated actor of a request.
type Caller struct {
	ID   string
	Role domain.Role
}

// PersonalInfo groups the fields a user may edit about themselves.
// Nil pointers leave the stored value untouched.
type PersonalInfo struct {
	FirstName        *string
	LastName         *string
	Phone            *string
	DateOfBirth      *time.Time
	Gender           *string
	Address          *domain.Address
	EmergencyContact *domain.EmergencyContact
}

// ProfessionalInfo only applies to staff roles.
type ProfessionalInfo struct {
	LicenseNumber  *string
	Department     *string
	Specialization *string
}

// CreateUserInput carries everything needed to create a user.
type CreateUserInput struct {
	Email    string
	Password string
	Role     domain.Role
	PersonalInfo
	ProfessionalInfo
}

// UpdateUserInput is the whitelist of fields an administrator may patch.
// Role, status and password have dedicated operations.
type UpdateUserInput struct {
	Email *string
	PersonalInfo
	ProfessionalInfo
}

// Upload is a file received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ListUsersInput carries the list endpoint parameters.
type ListUsersInput struct {
	Status         domain.UserStatus
	Role           domain.Role
	Search         string
	IncludeDeleted bool
	Page           int
	Limit          int
	SortBy         string
	SortOrder      string // "asc" or "desc"
}

// Pagination describes a page of results.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// ListUsersResult is returned by the list operations.
type ListUsersResult struct {
	Items      []*domain.SanitizedUser
	Pagination Pagination
}

// UserPermissions describes what a user's role allows.
type UserPermissions struct {
	UserID      string
	Role        domain.Role
	Rank        int
	Permissions []domain.Permission
}

// UserService is the user lifecycle use-case boundary.
type UserService interface {
	CreateUser(ctx context.Context, in CreateUserInput, caller *Caller) (*domain.SanitizedUser, error)
	GetUserByID(ctx context.Context, id string, includeSensitive bool) (*domain.SanitizedUser, error)
	UpdateUser(ctx context.Context, id string, in UpdateUserInput, caller Caller) (*domain.SanitizedUser, error)
	UpdateProfile(ctx context.Context, caller Caller, in PersonalInfo) (*domain.SanitizedUser, error)
	AssignRole(ctx context.Context, id string, role domain.Role, caller Caller) (*domain.SanitizedUser, error)
	DisableUser(ctx context.Context, id, reason string, caller Caller) error
	EnableUser(ctx context.Context, id string, caller Caller) (*domain.SanitizedUser, error)
	DeleteUser(ctx context.Context, id, reason string, caller Caller) error
	RestoreUser(ctx context.Context, id string, caller Caller) (*domain.SanitizedUser, error)
	ListUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
	ListDeletedUsers(ctx context.Context, in ListUsersInput) (*ListUsersResult, error)
	GetUserPermissions(ctx context.Context, id string) (*UserPermissions, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
	UploadProfilePicture(ctx context.Context, id string, file Upload) (*domain.SanitizedUser, error)
	VerifyEmail(ctx context.Context, token string) (*domain.SanitizedUser, error)
	ResendVerificationEmail(ctx context.Context, id string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}
