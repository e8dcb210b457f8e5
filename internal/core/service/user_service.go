package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/policy"
	"github.com/clinicore/user-service/internal/core/ports"
)

const (
	defaultPageLimit = 10
	maxPageLimit     = 100

	defaultMaxUploadBytes  = 5 << 20
	defaultVerificationTTL = 24 * time.Hour
	defaultResetTTL        = time.Hour
	defaultResendCooldown  = time.Minute
)

var sortableFields = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"email":      {},
	"first_name": {},
	"last_name":  {},
	"role":       {},
	"status":     {},
}

// UserServiceConfig holds the tunables of the lifecycle service.
type UserServiceConfig struct {
	// RequireEmailVerification issues a verification token on creation.
	// When false new users start verified.
	RequireEmailVerification bool
	VerificationTTL          time.Duration
	ResetTTL                 time.Duration
	ResendCooldown           time.Duration
	MaxUploadBytes           int64
	// AppBaseURL prefixes the links sent in verification and reset emails.
	AppBaseURL string
}

// UserServiceDeps are the collaborators of the lifecycle service. Hooks and
// Cooldown are optional.
type UserServiceDeps struct {
	Users    ports.UserRepository
	Audit    ports.AuditStore
	Notifier ports.Notifier
	Files    ports.FileStore
	Cooldown ports.Cooldown
	Hooks    ports.UserLifecycleHooks
	Policy   *policy.Policy
}

// UserService enforces the authorization rules and invariants around every
// state transition of a user.
type UserService struct {
	users    ports.UserRepository
	audit    ports.AuditStore
	notifier ports.Notifier
	files    ports.FileStore
	cooldown ports.Cooldown
	hooks    ports.UserLifecycleHooks
	policy   *policy.Policy
	cfg      UserServiceConfig
	log      zerolog.Logger
	now      func() time.Time
}

var _ ports.UserService = (*UserService)(nil)

func NewUserService(deps UserServiceDeps, cfg UserServiceConfig, log zerolog.Logger) *UserService {
	if deps.Hooks == nil {
		deps.Hooks = noopHooks{}
	}
	if deps.Policy == nil {
		deps.Policy = policy.Default()
	}
	if cfg.VerificationTTL <= 0 {
		cfg.VerificationTTL = defaultVerificationTTL
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = defaultResetTTL
	}
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = defaultResendCooldown
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	cfg.AppBaseURL = strings.TrimRight(cfg.AppBaseURL, "/")
	return &UserService{
		users:    deps.Users,
		audit:    deps.Audit,
		notifier: deps.Notifier,
		files:    deps.Files,
		cooldown: deps.Cooldown,
		hooks:    deps.Hooks,
		policy:   deps.Policy,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateUser creates a user on behalf of caller. A nil caller is a
// self-registration and is treated as GUEST.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput, caller *ports.Caller) (_ *domain.SanitizedUser, err error) {
	defer func() { observe("create", err) }()

	email := domain.NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if !s.policy.IsKnown(in.Role) {
		return nil, domain.NewError(domain.KindValidationFailed, fmt.Sprintf("unknown role %q", in.Role))
	}
	if !s.mayCreate(caller, in.Role) {
		return nil, domain.NewError(domain.KindInsufficientPermissions,
			fmt.Sprintf("not allowed to create a user with role %s", in.Role))
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("create user: %w", err)
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	now := s.now()
	u := &domain.User{
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	u.SetStatus(domain.StatusActive)
	applyPersonalInfo(u, in.PersonalInfo)
	if u.Role.IsStaff() {
		applyProfessionalInfo(u, in.ProfessionalInfo)
	}
	if caller != nil {
		u.CreatedBy = caller.ID
		u.LastModifiedBy = caller.ID
	}

	var verifyToken string
	if s.cfg.RequireEmailVerification {
		raw, tokenHash, err := newToken()
		if err != nil {
			return nil, err
		}
		expires := now.Add(s.cfg.VerificationTTL)
		verifyToken = raw
		u.VerificationTokenHash = tokenHash
		u.VerificationExpires = &expires
	} else {
		u.IsEmailVerified = true
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.hooks.OnUserCreated(ctx, u); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID).Msg("user created but lifecycle hook failed")
		return nil, fmt.Errorf("create user: %w", err)
	}

	action, actor := domain.AuditUserCreated, ""
	if caller == nil {
		action, actor = domain.AuditUserRegistered, u.ID
	} else {
		actor = caller.ID
	}
	s.record(ctx, action, actor, u.ID, map[string]any{"role": string(u.Role), "email": u.Email})

	s.notify(ctx, notificationFor(domain.NotifyWelcome, u, ""))
	if verifyToken != "" {
		s.notify(ctx, notificationFor(domain.NotifyVerification, u, s.link("/verify-email", verifyToken)))
	}

	s.log.Info().Str("user_id", u.ID).Str("role", string(u.Role)).Str("actor_id", actor).Msg("user created")
	return domain.Sanitize(u, false), nil
}

// GetUserByID returns the user, soft-deleted or not.
func (s *UserService) GetUserByID(ctx context.Context, id string, includeSensitive bool) (*domain.SanitizedUser, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStore("get user", err)
	}
	return domain.Sanitize(u, includeSensitive), nil
}

// UpdateUser applies the administrative whitelist of mutable fields.
func (s *UserService) UpdateUser(ctx context.Context, id string, in ports.UpdateUserInput, caller ports.Caller) (_ *domain.SanitizedUser, err error) {
	defer func() { observe("update", err) }()

	u, err := s.loadLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guardRank(u, caller); err != nil {
		return nil, err
	}

	changed := applyPersonalInfo(u, in.PersonalInfo)
	if u.Role.IsStaff() {
		changed = append(changed, applyProfessionalInfo(u, in.ProfessionalInfo)...)
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email != u.Email {
			if err := validateEmail(email); err != nil {
				return nil, err
			}
			if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
				return nil, err
			}
			u.Email = email
			changed = append(changed, "email")
		}
	}

	u.LastModifiedBy = caller.ID
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, wrapStore("update user", err)
	}

	s.record(ctx, domain.AuditUserUpdated, caller.ID, u.ID, map[string]any{"fields": changed})
	return domain.Sanitize(u, false), nil
}

// UpdateProfile lets a user edit their own personal information.
func (s *UserService) UpdateProfile(ctx context.Context, caller ports.Caller, in ports.PersonalInfo) (_ *domain.SanitizedUser, err error) {
	defer func() { observe("update_profile", err) }()

	u, err := s.loadLive(ctx, caller.ID)
	if err != nil {
		return nil, err
	}
	changed := applyPersonalInfo(u, in)
	u.LastModifiedBy = caller.ID
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, wrapStore("update profile", err)
	}

	s.record(ctx, domain.AuditProfileUpdated, caller.ID, u.ID, map[string]any{"fields": changed})
	return domain.Sanitize(u, false), nil
}

// AssignRole changes the role of a user. The caller must outrank-or-equal the
// target and be allowed to create the new role.
func (s *UserService) AssignRole(ctx context.Context, id string, role domain.Role, caller ports.Caller) (_ *domain.SanitizedUser, err error) {
	defer func() { observe("assign_role", err) }()

	if !s.policy.IsKnown(role) {
		return nil, domain.NewError(domain.KindValidationFailed, fmt.Sprintf("unknown role %q", role))
	}
	u, err := s.loadLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guardRank(u, caller); err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleSuperAdmin && !s.policy.CanCreate(caller.Role, role) {
		return nil, domain.NewError(domain.KindInsufficientPermissions,
			fmt.Sprintf("not allowed to assign role %s", role))
	}

	previous := u.Role
	u.Role = role
	if !role.IsStaff() {
		u.LicenseNumber, u.Department, u.Specialization = "", "", ""
	}
	u.LastModifiedBy = caller.ID
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return nil, wrapStore("assign role", err)
	}

	if role == domain.RolePatient && previous != domain.RolePatient {
		if err := s.hooks.OnUserCreated(ctx, u); err != nil {
			s.log.Error().Err(err).Str("user_id", u.ID).Msg("patient profile provisioning failed after role change")
		}
	}

	s.record(ctx, domain.AuditRoleAssigned, caller.ID, u.ID, map[string]any{
		"previous_role": string(previous),
		"role":          string(role),
	})
	s.log.Info().Str("user_id", u.ID).Str("actor_id", caller.ID).Str("role", string(role)).Msg("role assigned")
	return domain.Sanitize(u, false), nil
}

func (s *UserService) DisableUser(ctx context.Context, id, reason string, caller ports.Caller) (err error) {
	defer func() { observe("disable", err) }()

	if id == caller.ID {
		return domain.NewError(domain.KindOperationNotAllowed, "you cannot disable your own account")
	}
	u, err := s.loadLive(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guardRank(u, caller); err != nil {
		return err
	}
	if _, err := s.users.SetStatus(ctx, u.ID, u.Version, domain.StatusInactive, caller.ID); err != nil {
		return wrapStore("disable user", err)
	}

	s.record(ctx, domain.AuditUserDisabled, caller.ID, u.ID, map[string]any{"reason": reason})
	s.log.Info().Str("user_id", u.ID).Str("actor_id", caller.ID).Msg("user disabled")
	return nil
}

func (s *UserService) EnableUser(ctx context.Context, id string, caller ports.Caller) (_ *domain.SanitizedUser, err error) {
	defer func() { observe("enable", err) }()

	u, err := s.loadLive(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.guardRank(u, caller); err != nil {
		return nil, err
	}
	updated, err := s.users.SetStatus(ctx, u.ID, u.Version, domain.StatusActive, caller.ID)
	if err != nil {
		return nil, wrapStore("enable user", err)
	}

	s.record(ctx, domain.AuditUserEnabled, caller.ID, updated.ID, nil)
	s.notify(ctx, notificationFor(domain.NotifyAccountActivated, updated, ""))
	s.log.Info().Str("user_id", updated.ID).Str("actor_id", caller.ID).Msg("user enabled")
	return domain.Sanitize(updated, false), nil
}

// DeleteUser soft-deletes a user and cascades to dependent records.
func (s *UserService) DeleteUser(ctx context.Context, id, reason string, caller ports.Caller) (err error) {
	defer func() { observe("delete", err) }()

	if id == caller.ID {
		return domain.NewError(domain.KindOperationNotAllowed, "you cannot delete your own account")
	}
	u, err := s.loadLive(ctx, id)
	if err != nil {
		return err
	}
	if err := s.guardRank(u, caller); err != nil {
		return err
	}
	deleted, err := s.users.SoftDelete(ctx, u.ID, u.Version, caller.ID, reason)
	if err != nil {
		return wrapStore("delete user", err)
	}
	if err := s.hooks.OnUserSoftDeleted(ctx, deleted); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID).Msg("user deleted but cascade failed")
		return fmt.Errorf("delete user: %w", err)
	}

	s.record(ctx, domain.AuditUserDeleted, caller.ID, u.ID, map[string]any{
		"reason":          reason,
		"previous_status": string(u.Status),
	})
	s.log.Info().Str("user_id", u.ID).Str("actor_id", caller.ID).Msg("user soft-deleted")
	return nil
}

// RestoreUser brings a soft-deleted user back as ACTIVE.
func (s *UserService) RestoreUser(ctx context.Context, id string, caller ports.Caller) (_ *domain.SanitizedUser, err error) {
	defer func() { observe("restore", err) }()

	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStore("restore user", err)
	}
	if !u.IsDeleted {
		return nil, domain.NewError(domain.KindUserNotFound, "no deleted user with this id")
	}
	if err := s.guardRank(u, caller); err != nil {
		return nil, err
	}
	restored, err := s.users.Restore(ctx, u.ID, u.Version, caller.ID)
	if err != nil {
		return nil, wrapStore("restore user", err)
	}
	if err := s.hooks.OnUserRestored(ctx, restored); err != nil {
		s.log.Error().Err(err).Str("user_id", u.ID).Msg("user restored but cascade failed")
		return nil, fmt.Errorf("restore user: %w", err)
	}

	s.record(ctx, domain.AuditUserRestored, caller.ID, u.ID, nil)
	s.log.Info().Str("user_id", u.ID).Str("actor_id", caller.ID).Msg("user restored")
	return domain.Sanitize(restored, false), nil
}

// ListUsers lists live users unless IncludeDeleted is set.
func (s *UserService) ListUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	filter, err := s.buildFilter(in)
	if err != nil {
		return nil, err
	}
	if !in.IncludeDeleted {
		notDeleted := false
		filter.IsDeleted = &notDeleted
	}
	return s.list(ctx, filter)
}

// ListDeletedUsers lists soft-deleted users only.
func (s *UserService) ListDeletedUsers(ctx context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	filter, err := s.buildFilter(in)
	if err != nil {
		return nil, err
	}
	deleted := true
	filter.IsDeleted = &deleted
	return s.list(ctx, filter)
}

func (s *UserService) GetUserPermissions(ctx context.Context, id string) (*ports.UserPermissions, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStore("get permissions", err)
	}
	return &ports.UserPermissions{
		UserID:      u.ID,
		Role:        u.Role,
		Rank:        s.policy.Rank(u.Role),
		Permissions: s.policy.PermissionsOf(u.Role),
	}, nil
}

// ChangePassword replaces the password after verifying the old one. The
// stored record is untouched when verification fails.
func (s *UserService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) (err error) {
	defer func() { observe("change_password", err) }()

	u, err := s.loadLive(ctx, id)
	if err != nil {
		return err
	}
	if !checkPassword(u.PasswordHash, oldPassword) {
		return domain.NewError(domain.KindInvalidCredentials, "current password is incorrect")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	u.PasswordHash = hash
	u.LastModifiedBy = id
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		return wrapStore("change password", err)
	}

	s.record(ctx, domain.AuditPasswordChanged, id, id, nil)
	return nil
}

// UploadProfilePicture stores an image under a generated name and removes the
// previous picture on a best-effort basis.
func (s *UserService) UploadProfilePicture(ctx context.Context, id string, file ports.Upload) (_ *domain.SanitizedUser, err error) {
	defer func() { observe("upload_picture", err) }()

	if file.Content == nil || file.Size <= 0 {
		return nil, domain.NewError(domain.KindValidationFailed, "no file uploaded")
	}
	if !strings.HasPrefix(strings.ToLower(file.ContentType), "image/") {
		return nil, domain.NewError(domain.KindValidationFailed, "only image files are allowed")
	}
	if file.Size > s.cfg.MaxUploadBytes {
		return nil, domain.NewError(domain.KindValidationFailed,
			fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxUploadBytes))
	}

	u, err := s.loadLive(ctx, id)
	if err != nil {
		return nil, err
	}

	name := "profile-" + uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := s.files.Save(ctx, name, file.Content); err != nil {
		return nil, fmt.Errorf("upload picture: %w", err)
	}

	previous := u.ProfilePicture
	u.ProfilePicture = name
	u.UpdatedAt = s.now()
	if err := s.users.Update(ctx, u); err != nil {
		s.deleteFile(ctx, name)
		return nil, wrapStore("upload picture", err)
	}
	if previous != "" {
		s.deleteFile(ctx, previous)
	}

	s.record(ctx, domain.AuditPictureUploaded, id, id, map[string]any{"file": name})
	return domain.Sanitize(u, false), nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *UserService) mayCreate(caller *ports.Caller, target domain.Role) bool {
	if caller == nil {
		return s.policy.CanCreate(domain.RoleGuest, target) || s.policy.CanRegisterAs(target)
	}
	return caller.Role == domain.RoleSuperAdmin || s.policy.CanCreate(caller.Role, target)
}

// guardRank rejects callers that rank below the target. SUPER_ADMIN bypasses it.
func (s *UserService) guardRank(target *domain.User, caller ports.Caller) error {
	if caller.Role == domain.RoleSuperAdmin {
		return nil
	}
	if s.policy.Outranks(target.Role, caller.Role) {
		return domain.NewError(domain.KindInsufficientPermissions,
			fmt.Sprintf("a %s cannot modify a %s", caller.Role, target.Role))
	}
	return nil
}

// loadLive fetches a user that is not soft-deleted.
func (s *UserService) loadLive(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, wrapStore("load user", err)
	}
	if u.IsDeleted {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, email, ownerID string) error {
	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != ownerID:
		return domain.ErrEmailExists
	case err == nil, errors.Is(err, domain.ErrUserNotFound):
		return nil
	default:
		return fmt.Errorf("check email: %w", err)
	}
}

func (s *UserService) buildFilter(in ports.ListUsersInput) (ports.UserFilter, error) {
	f := ports.UserFilter{
		Status:  in.Status,
		Role:    in.Role,
		Search:  strings.TrimSpace(in.Search),
		Page:    in.Page,
		Limit:   in.Limit,
		SortBy:  in.SortBy,
		SortDir: ports.SortDesc,
	}
	if f.Status != "" && f.Status != domain.StatusActive && f.Status != domain.StatusInactive {
		return f, domain.NewError(domain.KindValidationFailed, fmt.Sprintf("unknown status %q", f.Status))
	}
	if f.Role != "" && !s.policy.IsKnown(f.Role) {
		return f, domain.NewError(domain.KindValidationFailed, fmt.Sprintf("unknown role %q", f.Role))
	}
	if f.SortBy == "" {
		f.SortBy = "created_at"
	}
	if _, ok := sortableFields[f.SortBy]; !ok {
		return f, domain.NewError(domain.KindValidationFailed, fmt.Sprintf("cannot sort by %q", f.SortBy))
	}
	switch strings.ToLower(in.SortOrder) {
	case "", "desc":
	case "asc":
		f.SortDir = ports.SortAsc
	default:
		return f, domain.NewError(domain.KindValidationFailed, "sort order must be asc or desc")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return f, nil
}

func (s *UserService) list(ctx context.Context, filter ports.UserFilter) (*ports.ListUsersResult, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	items := make([]*domain.SanitizedUser, 0, len(users))
	for _, u := range users {
		items = append(items, domain.Sanitize(u, false))
	}
	return &ports.ListUsersResult{
		Items: items,
		Pagination: ports.Pagination{
			Page:  filter.Page,
			Limit: filter.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		},
	}, nil
}

func (s *UserService) record(ctx context.Context, action, actorID, targetID string, meta map[string]any) {
	entry := &domain.AuditEntry{
		ID:        uuid.NewString(),
		Action:    action,
		ActorID:   actorID,
		TargetID:  targetID,
		Metadata:  meta,
		CreatedAt: s.now(),
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Str("user_id", targetID).Msg("audit append failed")
	}
}

// notify never fails the calling operation.
func (s *UserService) notify(ctx context.Context, n domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn().Err(err).Str("kind", string(n.Kind)).Str("user_id", n.UserID).Msg("notification failed")
	}
}

func (s *UserService) deleteFile(ctx context.Context, name string) {
	if err := s.files.Delete(ctx, name); err != nil {
		s.log.Warn().Err(err).Str("file", name).Msg("failed to delete file")
	}
}

func (s *UserService) link(path, token string) string {
	return s.cfg.AppBaseURL + path + "?token=" + token
}

func notificationFor(kind domain.NotificationKind, u *domain.User, url string) domain.Notification {
	return domain.Notification{
		Kind:   kind,
		UserID: u.ID,
		To:     u.Email,
		Name:   u.FullName(),
		Role:   u.Role,
		URL:    url,
	}
}

func applyPersonalInfo(u *domain.User, in ports.PersonalInfo) []string {
	var changed []string
	setString := func(field string, dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
			changed = append(changed, field)
		}
	}
	setString("first_name", &u.FirstName, in.FirstName)
	setString("last_name", &u.LastName, in.LastName)
	setString("phone", &u.Phone, in.Phone)
	setString("gender", &u.Gender, in.Gender)
	if in.DateOfBirth != nil {
		dob := *in.DateOfBirth
		u.DateOfBirth = &dob
		changed = append(changed, "date_of_birth")
	}
	if in.Address != nil {
		addr := *in.Address
		u.Address = &addr
		changed = append(changed, "address")
	}
	if in.EmergencyContact != nil {
		ec := *in.EmergencyContact
		u.EmergencyContact = &ec
		changed = append(changed, "emergency_contact")
	}
	return changed
}

func applyProfessionalInfo(u *domain.User, in ports.ProfessionalInfo) []string {
	var changed []string
	if in.LicenseNumber != nil {
		u.LicenseNumber = strings.TrimSpace(*in.LicenseNumber)
		changed = append(changed, "license_number")
	}
	if in.Department != nil {
		u.Department = strings.TrimSpace(*in.Department)
		changed = append(changed, "department")
	}
	if in.Specialization != nil {
		u.Specialization = strings.TrimSpace(*in.Specialization)
		changed = append(changed, "specialization")
	}
	return changed
}

// wrapStore passes domain errors through and wraps storage failures.
func wrapStore(op string, err error) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
