package handler

import (
	"context"
	"io"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// user service
// ---------------------------------------------------------------------------

// stubUserService records the last call and answers with user/err.
type stubUserService struct {
	user *domain.SanitizedUser
	list *ports.ListUsersResult
	err  error

	lastID        string
	lastCaller    *ports.Caller
	lastCreate    ports.CreateUserInput
	lastUpdate    ports.UpdateUserInput
	lastProfile   ports.PersonalInfo
	lastList      ports.ListUsersInput
	lastRole      domain.Role
	lastReason    string
	lastSensitive bool
	lastUpload    ports.Upload
	uploadBody    []byte
	lastPasswords [2]string
	lastToken     string
	lastEmail     string
}

var _ ports.UserService = (*stubUserService)(nil)

func (s *stubUserService) CreateUser(_ context.Context, in ports.CreateUserInput, caller *ports.Caller) (*domain.SanitizedUser, error) {
	s.lastCreate, s.lastCaller = in, caller
	return s.user, s.err
}

func (s *stubUserService) GetUserByID(_ context.Context, id string, includeSensitive bool) (*domain.SanitizedUser, error) {
	s.lastID, s.lastSensitive = id, includeSensitive
	return s.user, s.err
}

func (s *stubUserService) UpdateUser(_ context.Context, id string, in ports.UpdateUserInput, caller ports.Caller) (*domain.SanitizedUser, error) {
	s.lastID, s.lastUpdate, s.lastCaller = id, in, &caller
	return s.user, s.err
}

func (s *stubUserService) UpdateProfile(_ context.Context, caller ports.Caller, in ports.PersonalInfo) (*domain.SanitizedUser, error) {
	s.lastCaller, s.lastProfile = &caller, in
	return s.user, s.err
}

func (s *stubUserService) AssignRole(_ context.Context, id string, role domain.Role, caller ports.Caller) (*domain.SanitizedUser, error) {
	s.lastID, s.lastRole, s.lastCaller = id, role, &caller
	return s.user, s.err
}

func (s *stubUserService) DisableUser(_ context.Context, id, reason string, caller ports.Caller) error {
	s.lastID, s.lastReason, s.lastCaller = id, reason, &caller
	return s.err
}

func (s *stubUserService) EnableUser(_ context.Context, id string, caller ports.Caller) (*domain.SanitizedUser, error) {
	s.lastID, s.lastCaller = id, &caller
	return s.user, s.err
}

func (s *stubUserService) DeleteUser(_ context.Context, id, reason string, caller ports.Caller) error {
	s.lastID, s.lastReason, s.lastCaller = id, reason, &caller
	return s.err
}

func (s *stubUserService) RestoreUser(_ context.Context, id string, caller ports.Caller) (*domain.SanitizedUser, error) {
	s.lastID, s.lastCaller = id, &caller
	return s.user, s.err
}

func (s *stubUserService) ListUsers(_ context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	s.lastList = in
	return s.list, s.err
}

func (s *stubUserService) ListDeletedUsers(_ context.Context, in ports.ListUsersInput) (*ports.ListUsersResult, error) {
	s.lastList = in
	return s.list, s.err
}

func (s *stubUserService) GetUserPermissions(_ context.Context, id string) (*ports.UserPermissions, error) {
	s.lastID = id
	if s.err != nil {
		return nil, s.err
	}
	return &ports.UserPermissions{UserID: id, Role: domain.RoleNurse, Rank: 6,
		Permissions: []domain.Permission{domain.PermUsersRead}}, nil
}

func (s *stubUserService) ChangePassword(_ context.Context, id, oldPassword, newPassword string) error {
	s.lastID, s.lastPasswords = id, [2]string{oldPassword, newPassword}
	return s.err
}

func (s *stubUserService) UploadProfilePicture(_ context.Context, id string, file ports.Upload) (*domain.SanitizedUser, error) {
	s.lastID, s.lastUpload = id, file
	s.uploadBody, _ = io.ReadAll(file.Content)
	return s.user, s.err
}

func (s *stubUserService) VerifyEmail(_ context.Context, token string) (*domain.SanitizedUser, error) {
	s.lastToken = token
	return s.user, s.err
}

func (s *stubUserService) ResendVerificationEmail(_ context.Context, id string) error {
	s.lastID = id
	return s.err
}

func (s *stubUserService) RequestPasswordReset(_ context.Context, email string) error {
	s.lastEmail = email
	return s.err
}

func (s *stubUserService) ResetPassword(_ context.Context, token, newPassword string) error {
	s.lastToken, s.lastPasswords = token, [2]string{"", newPassword}
	return s.err
}

// ---------------------------------------------------------------------------
// auth service
// ---------------------------------------------------------------------------

type stubAuthService struct {
	token string
	user  *domain.SanitizedUser
	err   error
}

func (s *stubAuthService) Login(_ context.Context, _, _ string) (string, *domain.SanitizedUser, error) {
	return s.token, s.user, s.err
}
