package ports

import (
	"context"
	"io"
	"time"

	"github.com/clinicore/user-service/internal/core/domain"
)

// AuditStore is write-only.
type AuditStore interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}

// Notifier delivers a notification. Implementations may be synchronous (SMTP)
// or hand off to a queue.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// FileStore keeps uploaded files under generated names.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Delete(ctx context.Context, name string) error
}

// Cooldown rate-limits repeated actions per key.
type Cooldown interface {
	// Acquire returns false when key is still cooling down.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// UserLifecycleHooks receives the lifecycle transitions other aggregates
// must follow.
type UserLifecycleHooks interface {
	OnUserCreated(ctx context.Context, u *domain.User) error
	OnUserSoftDeleted(ctx context.Context, u *domain.User) error
	OnUserRestored(ctx context.Context, u *domain.User) error
}
