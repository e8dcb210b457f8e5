package domain

import "time"

// Audit action tags written for every successful mutation.
const (
	AuditUserCreated          = "USER_CREATED"
	AuditUserRegistered       = "USER_REGISTERED"
	AuditUserUpdated          = "USER_UPDATED"
	AuditProfileUpdated       = "PROFILE_UPDATED"
	AuditRoleAssigned         = "USER_ROLE_ASSIGNED"
	AuditUserDisabled         = "USER_DISABLED"
	AuditUserEnabled          = "USER_ENABLED"
	AuditUserDeleted          = "USER_DELETED"
	AuditUserRestored         = "USER_RESTORED"
	AuditPasswordChanged      = "PASSWORD_CHANGED"
	AuditPasswordReset        = "PASSWORD_RESET"
	AuditPictureUploaded      = "PROFILE_PICTURE_UPLOADED"
	AuditEmailVerified        = "EMAIL_VERIFIED"
	AuditVerificationResent   = "VERIFICATION_EMAIL_RESENT"
	AuditUserLoggedIn         = "USER_LOGGED_IN"
	AuditPasswordResetRequest = "PASSWORD_RESET_REQUESTED"
)

// AuditEntry is an append-only record of who changed what.
type AuditEntry struct {
	ID        string
	Action    string
	ActorID   string // empty for anonymous or system actions
	TargetID  string
	Metadata  map[string]any
	CreatedAt time.Time
}
