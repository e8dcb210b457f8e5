package handler

import (
	"time"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

// --- Request types ---

type addressRequest struct {
	Street     string `json:"street"      validate:"max=200"`
	City       string `json:"city"        validate:"max=100"`
	State      string `json:"state"       validate:"max=100"`
	PostalCode string `json:"postal_code" validate:"max=20"`
	Country    string `json:"country"     validate:"max=100"`
}

type emergencyContactRequest struct {
	Name         string `json:"name"         validate:"required,max=100"`
	Relationship string `json:"relationship" validate:"required,max=50"`
	Phone        string `json:"phone"        validate:"required,max=30"`
}

// personalInfoRequest is shared by create, update and profile requests.
// Absent fields are left untouched on update.
type personalInfoRequest struct {
	FirstName        *string                  `json:"first_name"        validate:"omitempty,min=1,max=100"`
	LastName         *string                  `json:"last_name"         validate:"omitempty,min=1,max=100"`
	Phone            *string                  `json:"phone"             validate:"omitempty,max=30"`
	DateOfBirth      *time.Time               `json:"date_of_birth"`
	Gender           *string                  `json:"gender"            validate:"omitempty,oneof=male female other prefer_not_to_say"`
	Address          *addressRequest          `json:"address"`
	EmergencyContact *emergencyContactRequest `json:"emergency_contact"`
}

type professionalInfoRequest struct {
	LicenseNumber  *string `json:"license_number" validate:"omitempty,max=50"`
	Department     *string `json:"department"     validate:"omitempty,max=100"`
	Specialization *string `json:"specialization" validate:"omitempty,max=100"`
}

type registerRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,strong_password"`
	Role      string `json:"role"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	personalInfoRequest
}

type createUserRequest struct {
	Email     string `json:"email"      validate:"required,email"`
	Password  string `json:"password"   validate:"required,strong_password"`
	Role      string `json:"role"       validate:"required"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name"  validate:"required,max=100"`
	personalInfoRequest
	professionalInfoRequest
}

type updateUserRequest struct {
	Email *string `json:"email" validate:"omitempty,email"`
	personalInfoRequest
	professionalInfoRequest
}

type assignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required,strong_password"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"        validate:"required"`
	NewPassword string `json:"new_password" validate:"required,strong_password"`
}

type listUsersQuery struct {
	Status         string `query:"status"`
	Role           string `query:"role"`
	Search         string `query:"search"         validate:"max=100"`
	IncludeDeleted bool   `query:"includeDeleted"`
	Page           int    `query:"page"           validate:"omitempty,min=1"`
	Limit          int    `query:"limit"          validate:"omitempty,min=1"`
	SortBy         string `query:"sortBy"`
	SortOrder      string `query:"sortOrder"      validate:"omitempty,oneof=asc desc"`
}

// --- Response types ---

type userResponse struct {
	Data *domain.SanitizedUser `json:"data"`
}

type listUsersResponse struct {
	Data       []*domain.SanitizedUser `json:"data"`
	Pagination ports.Pagination        `json:"pagination"`
}

type permissionsResponse struct {
	UserID      string              `json:"user_id"`
	Role        domain.Role         `json:"role"`
	Rank        int                 `json:"rank"`
	Permissions []domain.Permission `json:"permissions"`
}

type loginResponse struct {
	Token string                `json:"token"`
	User  *domain.SanitizedUser `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse documents the envelope rendered by the API error handler.
type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
