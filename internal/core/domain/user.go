package domain

import (
	"strings"
	"time"
)

// UserStatus is the enable/disable axis of the user lifecycle.
type UserStatus string

const (
	StatusActive   UserStatus = "ACTIVE"
	StatusInactive UserStatus = "INACTIVE"
)

// Address is a postal address.
type Address struct {
	Street     string `json:"street,omitempty" bson:"street,omitempty"`
	City       string `json:"city,omitempty" bson:"city,omitempty"`
	State      string `json:"state,omitempty" bson:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty" bson:"postal_code,omitempty"`
	Country    string `json:"country,omitempty" bson:"country,omitempty"`
}

// EmergencyContact is sensitive and only returned to SUPER_ADMIN callers.
type EmergencyContact struct {
	Name         string `json:"name" bson:"name"`
	Relationship string `json:"relationship" bson:"relationship"`
	Phone        string `json:"phone" bson:"phone"`
}

// User is the aggregate root of the lifecycle service.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	Status       UserStatus
	IsActive     bool
	Version      int64

	FirstName        string
	LastName         string
	Phone            string
	DateOfBirth      *time.Time
	Gender           string
	Address          *Address
	ProfilePicture   string
	EmergencyContact *EmergencyContact

	LicenseNumber  string
	Department     string
	Specialization string

	IsEmailVerified       bool
	VerificationTokenHash string
	VerificationExpires   *time.Time

	ResetTokenHash    string
	ResetTokenExpires *time.Time
	LoginAttempts     int
	LockUntil         *time.Time
	LastLoginAt       *time.Time

	IsDeleted    bool
	DeletedAt    *time.Time
	DeletedBy    string
	DeleteReason string

	CreatedBy      string
	LastModifiedBy string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SetStatus keeps Status and IsActive in agreement.
func (u *User) SetStatus(s UserStatus) {
	u.Status = s
	u.IsActive = s == StatusActive
}

// IsLocked reports whether failed logins have locked the account at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// FullName joins the name parts.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// NormalizeEmail trims and lower-cases an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizedUser is the projection returned to every caller. Credential and
// security fields never appear here; sensitive fields are nil unless requested.
type SanitizedUser struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	Role             Role              `json:"role"`
	Status           UserStatus        `json:"status"`
	IsActive         bool              `json:"is_active"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	Phone            string            `json:"phone,omitempty"`
	DateOfBirth      *time.Time        `json:"date_of_birth,omitempty"`
	Gender           string            `json:"gender,omitempty"`
	Address          *Address          `json:"address,omitempty"`
	ProfilePicture   string            `json:"profile_picture,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergency_contact,omitempty"`
	LicenseNumber    string            `json:"license_number,omitempty"`
	Department       string            `json:"department,omitempty"`
	Specialization   string            `json:"specialization,omitempty"`
	IsEmailVerified  bool              `json:"is_email_verified"`
	IsDeleted        bool              `json:"is_deleted"`
	DeletedAt        *time.Time        `json:"deleted_at,omitempty"`
	DeletedBy        string            `json:"deleted_by,omitempty"`
	CreatedBy        string            `json:"created_by,omitempty"`
	LastModifiedBy   string            `json:"last_modified_by,omitempty"`
	LastLoginAt      *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// Sanitize projects u for output. Password, token and login-attempt fields are
// always dropped; EmergencyContact and LicenseNumber only survive when
// includeSensitive is set.
func Sanitize(u *User, includeSensitive bool) *SanitizedUser {
	if u == nil {
		return nil
	}
	out := &SanitizedUser{
		ID:              u.ID,
		Email:           u.Email,
		Role:            u.Role,
		Status:          u.Status,
		IsActive:        u.IsActive,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Phone:           u.Phone,
		DateOfBirth:     u.DateOfBirth,
		Gender:          u.Gender,
		Address:         u.Address,
		ProfilePicture:  u.ProfilePicture,
		Department:      u.Department,
		Specialization:  u.Specialization,
		IsEmailVerified: u.IsEmailVerified,
		IsDeleted:       u.IsDeleted,
		DeletedAt:       u.DeletedAt,
		DeletedBy:       u.DeletedBy,
		CreatedBy:       u.CreatedBy,
		LastModifiedBy:  u.LastModifiedBy,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
	if includeSensitive {
		if u.EmergencyContact != nil {
			ec := *u.EmergencyContact
			out.EmergencyContact = &ec
		}
		out.LicenseNumber = u.LicenseNumber
	}
	return out
}
