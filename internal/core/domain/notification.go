package domain

// NotificationKind selects the message template.
type NotificationKind string

const (
	NotifyWelcome          NotificationKind = "welcome"
	NotifyAccountActivated NotificationKind = "account_activated"
	NotifyVerification     NotificationKind = "email_verification"
	NotifyPasswordReset    NotificationKind = "password_reset"
)

// Notification is a message addressed to a single user.
type Notification struct {
	Kind   NotificationKind `json:"kind"`
	UserID string           `json:"user_id"`
	To     string           `json:"to"`
	Name   string           `json:"name"`
	Role   Role             `json:"role,omitempty"`
	URL    string           `json:"url,omitempty"`
}
