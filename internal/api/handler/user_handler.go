package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/user-service/internal/api/middleware"
	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

const pictureField = "picture"

// UserHandler handles HTTP requests for user lifecycle operations.
type UserHandler struct {
	service ports.UserService
	policy  middleware.PermissionChecker
}

func NewUserHandler(service ports.UserService, policy middleware.PermissionChecker) *UserHandler {
	return &UserHandler{service: service, policy: policy}
}

// Create handles POST /v1/users.
//
// @Summary      Create a user
// @Description  The caller must rank strictly above the requested role unless they are SUPER_ADMIN.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createUserRequest  true  "User details"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/users [post]
func (h *UserHandler) Create(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req createUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.CreateUser(c.Request().Context(), toCreateUserInput(req), &caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, userResponse{Data: user})
}

// Get handles GET /v1/users/:id.
//
// @Summary      Get a user
// @Description  Emergency contact and license number are only returned to callers allowed to read sensitive fields.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	caller, err := h.selfOr(c, domain.PermUsersRead)
	if err != nil {
		return err
	}

	user, err := h.service.GetUserByID(c.Request().Context(), c.Param("id"), h.sensitive(caller))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Data: user})
}

// Me handles GET /v1/users/me.
//
// @Summary      Get the authenticated user
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	user, err := h.service.GetUserByID(c.Request().Context(), caller.ID, h.sensitive(caller))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Data: user})
}

// Update handles PATCH /v1/users/:id.
//
// @Summary      Update a user
// @Description  Role, status and password cannot be changed here.
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateUser(c.Request().Context(), c.Param("id"), toUpdateUserInput(req), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Data: user})
}

// UpdateMe handles PATCH /v1/users/me.
//
// @Summary      Update own personal information
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      personalInfoRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/users/me [patch]
func (h *UserHandler) UpdateMe(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req personalInfoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), caller, toPersonalInfo(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Data: user})
}

// ChangePassword handles POST /v1/users/me/password.
//
// @Summary      Change own password
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      changePasswordRequest  true  "Current and new password"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Router       /v1/users/me/password [post]
func (h *UserHandler) ChangePassword(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req changePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.ChangePassword(c.Request().Context(), caller.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "password changed"})
}

// AssignRole handles POST /v1/users/:id/role.
//
// @Summary      Assign a role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      assignRoleRequest  true  "New role"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/{id}/role [post]
func (h *UserHandler) AssignRole(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req assignRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.service.AssignRole(c.Request().Context(), c.Param("id"), toRole(req.Role), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Data: user})
}

// Disable handles POST /v1/users/:id/disable.
//
// @Summary      Disable a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string         true   "User id"
// @Param        body  body      reasonRequest  false  "Reason"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/users/{id}/disable [post]
func (h *UserHandler) Disable(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req reasonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.DisableUser(c.Request().Context(), c.Param("id"), req.Reason, caller); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "user disabled"})
}

// Enable handles POST /v1/users/:id/enable.
//
// @Summary      Enable a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id}/enable [post]
func (h *UserHandler) Enable(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	user, err := h.service.EnableUser(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Data: user})
}

// Delete handles DELETE /v1/users/:id. The user is soft-deleted and can be restored.
//
// @Summary      Soft-delete a user
// @Tags         users
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string         true   "User id"
// @Param        body  body  reasonRequest  false  "Reason"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var req reasonRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Reason == "" {
		req.Reason = c.QueryParam("reason")
	}

	if err := h.service.DeleteUser(c.Request().Context(), c.Param("id"), req.Reason, caller); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Restore handles POST /v1/users/:id/restore.
//
// @Summary      Restore a soft-deleted user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id}/restore [post]
func (h *UserHandler) Restore(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}

	user, err := h.service.RestoreUser(c.Request().Context(), c.Param("id"), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Data: user})
}

// List handles GET /v1/users.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page            query     int     false  "Page (1-based)"
// @Param        limit           query     int     false  "Page size, capped at 100"
// @Param        status          query     string  false  "ACTIVE or INACTIVE"
// @Param        role            query     string  false  "Role filter"
// @Param        search          query     string  false  "Matches first name, last name or email"
// @Param        includeDeleted  query     bool    false  "Include soft-deleted users"
// @Param        sortBy          query     string  false  "Sort field"
// @Param        sortOrder       query     string  false  "asc or desc"
// @Success      200             {object}  listUsersResponse
// @Failure      400             {object}  errorResponse
// @Failure      403             {object}  errorResponse
// @Router       /v1/users [get]
func (h *UserHandler) List(c echo.Context) error {
	caller, err := callerFrom(c)
	if err != nil {
		return err
	}
	var q listUsersQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	if q.IncludeDeleted && !h.policy.HasPermission(caller.Role, domain.PermUsersReadDeleted) {
		return domain.ErrInsufficientPermissions
	}

	res, err := h.service.ListUsers(c.Request().Context(), toListInput(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res))
}

// ListDeleted handles GET /v1/users/deleted.
//
// @Summary      List soft-deleted users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page       query     int     false  "Page (1-based)"
// @Param        limit      query     int     false  "Page size, capped at 100"
// @Param        search     query     string  false  "Matches first name, last name or email"
// @Param        sortBy     query     string  false  "Sort field"
// @Param        sortOrder  query     string  false  "asc or desc"
// @Success      200        {object}  listUsersResponse
// @Failure      400        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Router       /v1/users/deleted [get]
func (h *UserHandler) ListDeleted(c echo.Context) error {
	var q listUsersQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	res, err := h.service.ListDeletedUsers(c.Request().Context(), toListInput(q))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(res))
}

// Permissions handles GET /v1/users/:id/permissions.
//
// @Summary      Get a user's role and permissions
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  permissionsResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id}/permissions [get]
func (h *UserHandler) Permissions(c echo.Context) error {
	if _, err := h.selfOr(c, domain.PermUsersRead); err != nil {
		return err
	}

	perms, err := h.service.GetUserPermissions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPermissionsResponse(perms))
}

// UploadPicture handles POST /v1/users/:id/upload-picture.
//
// @Summary      Upload a profile picture
// @Tags         users
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string  true  "User id"
// @Param        picture  formData  file    true  "Image file, 5MB max"
// @Success      200      {object}  userResponse
// @Failure      400      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /v1/users/{id}/upload-picture [post]
func (h *UserHandler) UploadPicture(c echo.Context) error {
	if _, err := h.selfOr(c, domain.PermUsersUpdate); err != nil {
		return err
	}

	fh, err := c.FormFile(pictureField)
	if err != nil {
		return domain.NewError(domain.KindValidationFailed, "a "+pictureField+" file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return domain.NewError(domain.KindValidationFailed, "uploaded file could not be read")
	}
	defer f.Close()

	user, err := h.service.UploadProfilePicture(c.Request().Context(), c.Param("id"), ports.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(echo.HeaderContentType),
		Size:        fh.Size,
		Content:     f,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, userResponse{Data: user})
}

// ResendVerification handles POST /v1/users/:id/resend-verification.
//
// @Summary      Resend the verification email
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      202  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/users/{id}/resend-verification [post]
func (h *UserHandler) ResendVerification(c echo.Context) error {
	if _, err := h.selfOr(c, domain.PermUsersUpdate); err != nil {
		return err
	}

	if err := h.service.ResendVerificationEmail(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, messageResponse{Message: "verification email sent"})
}

// selfOr lets the request through when the caller targets their own record
// or holds perm.
func (h *UserHandler) selfOr(c echo.Context, perm domain.Permission) (ports.Caller, error) {
	caller, err := callerFrom(c)
	if err != nil {
		return caller, err
	}
	if caller.ID == c.Param("id") || h.policy.HasPermission(caller.Role, perm) {
		return caller, nil
	}
	return caller, domain.ErrInsufficientPermissions
}

func (h *UserHandler) sensitive(caller ports.Caller) bool {
	return h.policy.HasPermission(caller.Role, domain.PermUsersReadSensitive)
}
