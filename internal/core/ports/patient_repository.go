package ports

import (
	"context"

	"github.com/clinicore/user-service/internal/core/domain"
)

// PatientRepository persists patient profiles keyed by their owning user.
type PatientRepository interface {
	Create(ctx context.Context, p *domain.PatientProfile) error
	// FindByUserID returns domain.ErrPatientProfileNotFound when no profile exists.
	FindByUserID(ctx context.Context, userID string) (*domain.PatientProfile, error)
	// SoftDeleteByUserID and RestoreByUserID report whether a profile matched.
	SoftDeleteByUserID(ctx context.Context, userID, deletedBy string) (bool, error)
	RestoreByUserID(ctx context.Context, userID string) (bool, error)
}
