package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

const (
	patientIDPrefix     = "PAT"
	patientSuffixLength = 5
	base36Alphabet      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// PatientProfileSync keeps patient profiles in lockstep with their owning
// PATIENT users. It implements ports.UserLifecycleHooks.
type PatientProfileSync struct {
	repo ports.PatientRepository
	log  zerolog.Logger
	now  func() time.Time
}

func NewPatientProfileSync(repo ports.PatientRepository, log zerolog.Logger) *PatientProfileSync {
	return &PatientProfileSync{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// OnUserCreated creates exactly one profile for a new PATIENT user. Other
// roles are ignored.
func (p *PatientProfileSync) OnUserCreated(ctx context.Context, u *domain.User) error {
	if u.Role != domain.RolePatient {
		return nil
	}
	if _, err := p.repo.FindByUserID(ctx, u.ID); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrPatientProfileNotFound) {
		return fmt.Errorf("lookup patient profile: %w", err)
	}

	now := p.now()
	patientID, err := GeneratePatientID(now)
	if err != nil {
		return err
	}
	profile := &domain.PatientProfile{
		PatientID:   patientID,
		UserID:      u.ID,
		Preferences: domain.DefaultPatientPreferences(),
		CreatedBy:   u.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.repo.Create(ctx, profile); err != nil {
		return fmt.Errorf("create patient profile: %w", err)
	}
	p.log.Info().Str("user_id", u.ID).Str("patient_id", patientID).Msg("patient profile created")
	return nil
}

func (p *PatientProfileSync) OnUserSoftDeleted(ctx context.Context, u *domain.User) error {
	found, err := p.repo.SoftDeleteByUserID(ctx, u.ID, u.DeletedBy)
	if err != nil {
		return fmt.Errorf("soft delete patient profile: %w", err)
	}
	if found {
		p.log.Info().Str("user_id", u.ID).Msg("patient profile soft-deleted")
	}
	return nil
}

func (p *PatientProfileSync) OnUserRestored(ctx context.Context, u *domain.User) error {
	found, err := p.repo.RestoreByUserID(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("restore patient profile: %w", err)
	}
	if found {
		p.log.Info().Str("user_id", u.ID).Msg("patient profile restored")
	}
	return nil
}

// GeneratePatientID returns an id of the form PAT<unix millis><5 base36 chars>,
// upper-cased.
func GeneratePatientID(now time.Time) (string, error) {
	var sb strings.Builder
	sb.WriteString(patientIDPrefix)
	sb.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < patientSuffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate patient id: %w", err)
		}
		sb.WriteByte(base36Alphabet[n.Int64()])
	}
	return strings.ToUpper(sb.String()), nil
}

type noopHooks struct{}

func (noopHooks) OnUserCreated(context.Context, *domain.User) error     { return nil }
func (noopHooks) OnUserSoftDeleted(context.Context, *domain.User) error { return nil }
func (noopHooks) OnUserRestored(context.Context, *domain.User) error    { return nil }
