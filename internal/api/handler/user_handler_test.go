package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/user-service/internal/api/middleware"
	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/policy"
	"github.com/clinicore/user-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = NewValidator()
	return e
}

// newCtx builds a context for method/target carrying body as JSON and the
// given caller identity. An empty callerID leaves the request anonymous.
func newCtx(e *echo.Echo, method, target, body, callerID string, role domain.Role) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if callerID != "" {
		c.Set(middleware.CtxUserID, callerID)
		c.Set(middleware.CtxRole, role)
	}
	return c, rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

func newUserHandler(svc *stubUserService) *UserHandler {
	return NewUserHandler(svc, policy.Default())
}

func sampleUser() *domain.SanitizedUser {
	return &domain.SanitizedUser{ID: "u-1", Email: "jane@clinic.test", Role: domain.RoleNurse, Status: domain.StatusActive}
}

func assertKindErr(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	var de *domain.Error
	if !errors.As(err, &de) || de.Kind != kind {
		t.Fatalf("expected %s, got %v", kind, err)
	}
}

// ---------------------------------------------------------------------------
// create
// ---------------------------------------------------------------------------

func TestCreate_PassesCallerAndMapsBody(t *testing.T) {
	svc := &stubUserService{user: sampleUser()}
	h := newUserHandler(svc)
	body := `{"email":"jane@clinic.test","password":"Str0ngPass","role":"nurse","first_name":"Jane","last_name":"Doe",
		"department":"ER","emergency_contact":{"name":"Bob","relationship":"brother","phone":"555"}}`
	c, rec := newCtx(newEcho(), http.MethodPost, "/v1/users", body, "admin-1", domain.RoleAdmin)

	if err := h.Create(c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.lastCaller == nil || svc.lastCaller.ID != "admin-1" || svc.lastCaller.Role != domain.RoleAdmin {
		t.Fatalf("caller not forwarded: %+v", svc.lastCaller)
	}
	in := svc.lastCreate
	if in.Role != domain.RoleNurse {
		t.Fatalf("role should be upper-cased, got %s", in.Role)
	}
	if in.FirstName == nil || *in.FirstName != "Jane" || in.Department == nil || *in.Department != "ER" {
		t.Fatalf("fields not mapped: %+v", in)
	}
	if in.EmergencyContact == nil || in.EmergencyContact.Name != "Bob" {
		t.Fatalf("emergency contact not mapped")
	}
}

func TestCreate_RejectsWeakPasswordBeforeService(t *testing.T) {
	svc := &stubUserService{user: sampleUser()}
	h := newUserHandler(svc)
	body := `{"email":"jane@clinic.test","password":"weak","role":"NURSE","first_name":"Jane","last_name":"Doe"}`
	c, _ := newCtx(newEcho(), http.MethodPost, "/v1/users", body, "admin-1", domain.RoleAdmin)

	err := h.Create(c)
	assertKindErr(t, err, domain.KindValidationFailed)
	if !strings.Contains(err.Error(), "password") {
		t.Fatalf("message should name the field: %v", err)
	}
	if svc.lastCreate.Email != "" {
		t.Fatalf("service should not be called")
	}
}

func TestCreate_MalformedJSON(t *testing.T) {
	h := newUserHandler(&stubUserService{})
	c, _ := newCtx(newEcho(), http.MethodPost, "/v1/users", `{"email":`, "admin-1", domain.RoleAdmin)
	assertKindErr(t, h.Create(c), domain.KindValidationFailed)
}

func TestCreate_RequiresCaller(t *testing.T) {
	h := newUserHandler(&stubUserService{})
	c, _ := newCtx(newEcho(), http.MethodPost, "/v1/users", `{}`, "", "")

	var he *echo.HTTPError
	if err := h.Create(c); !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestCreate_ServiceErrorPropagates(t *testing.T) {
	svc := &stubUserService{err: domain.ErrInsufficientPermissions}
	h := newUserHandler(svc)
	body := `{"email":"x@clinic.test","password":"Str0ngPass","role":"SUPER_ADMIN","first_name":"X","last_name":"Y"}`
	c, _ := newCtx(newEcho(), http.MethodPost, "/v1/users", body, "admin-1", domain.RoleAdmin)

	if err := h.Create(c); !errors.Is(err, domain.ErrInsufficientPermissions) {
		t.Fatalf("expected insufficient permissions, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// read
// ---------------------------------------------------------------------------

func TestGet_SensitiveOnlyForSuperAdmin(t *testing.T) {
	cases := map[domain.Role]bool{
		domain.RoleSuperAdmin: true,
		domain.RoleAdmin:      false,
		domain.RoleDoctor:     false,
	}
	for role, want := range cases {
		svc := &stubUserService{user: sampleUser()}
		c, rec := newCtx(newEcho(), http.MethodGet, "/v1/users/u-9", "", "caller", role)
		if err := newUserHandler(svc).Get(withID(c, "u-9")); err != nil {
			t.Fatalf("%s: %v", role, err)
		}
		if rec.Code != http.StatusOK || svc.lastID != "u-9" {
			t.Fatalf("%s: unexpected response %d for %q", role, rec.Code, svc.lastID)
		}
		if svc.lastSensitive != want {
			t.Fatalf("%s: includeSensitive = %v, want %v", role, svc.lastSensitive, want)
		}
	}
}

func TestGet_SelfOrPermission(t *testing.T) {
	svc := &stubUserService{user: sampleUser()}
	h := newUserHandler(svc)

	c, _ := newCtx(newEcho(), http.MethodGet, "/v1/users/p-1", "", "p-1", domain.RolePatient)
	if err := h.Get(withID(c, "p-1")); err != nil {
		t.Fatalf("patient reading self: %v", err)
	}

	c, _ = newCtx(newEcho(), http.MethodGet, "/v1/users/p-2", "", "p-1", domain.RolePatient)
	if err := h.Get(withID(c, "p-2")); !errors.Is(err, domain.ErrInsufficientPermissions) {
		t.Fatalf("patient reading another user: expected 403, got %v", err)
	}
}

func TestMe_UsesCallerID(t *testing.T) {
	svc := &stubUserService{user: sampleUser()}
	c, rec := newCtx(newEcho(), http.MethodGet, "/v1/users/me", "", "p-7", domain.RolePatient)
	if err := newUserHandler(svc).Me(c); err != nil {
		t.Fatalf("me: %v", err)
	}
	if svc.lastID != "p-7" || rec.Code != http.StatusOK {
		t.Fatalf("expected lookup of caller, got %q/%d", svc.lastID, rec.Code)
	}

	var resp userResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Data == nil || resp.Data.ID != "u-1" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// mutations
// ---------------------------------------------------------------------------

func TestUpdate_WhitelistMapping(t *testing.T) {
	svc := &stubUserService{user: sampleUser()}
	body := `{"email":"new@clinic.test","phone":"123","role":"SUPER_ADMIN","status":"INACTIVE"}`
	c, rec := newCtx(newEcho(), http.MethodPatch, "/v1/users/u-2", body, "admin-1", domain.RoleAdmin)

	if err := newUserHandler(svc).Update(withID(c, "u-2")); err != nil {
		t.Fatalf("update: %v", err)
	}
	if rec.Code != http.StatusOK || svc.lastID != "u-2" {
		t.Fatalf("unexpected %d for %q", rec.Code, svc.lastID)
	}
	in := svc.lastUpdate
	if in.Email == nil || *in.Email != "new@clinic.test" || in.Phone == nil || *in.Phone != "123" {
		t.Fatalf("whitelisted fields not mapped: %+v", in)
	}
	if in.FirstName != nil || in.Department != nil {
		t.Fatalf("absent fields must stay nil")
	}
}

func TestUpdateMe_PersonalInfoOnly(t *testing.T) {
	svc := &stubUserService{user: sampleUser()}
	c, _ := newCtx(newEcho(), http.MethodPatch, "/v1/users/me", `{"first_name":"Ann","gender":"female"}`, "p-1", domain.RolePatient)

	if err := newUserHandler(svc).UpdateMe(c); err != nil {
		t.Fatalf("update me: %v", err)
	}
	if svc.lastCaller.ID != "p-1" || svc.lastProfile.FirstName == nil || *svc.lastProfile.FirstName != "Ann" {
		t.Fatalf("profile not forwarded: %+v", svc.lastProfile)
	}
}

func TestUpdateMe_RejectsUnknownGender(t *testing.T) {
	c, _ := newCtx(newEcho(), http.MethodPatch, "/v1/users/me", `{"gender":"robot"}`, "p-1", domain.RolePatient)
	assertKindErr(t, newUserHandler(&stubUserService{}).UpdateMe(c), domain.KindValidationFailed)
}

func TestAssignRole(t *testing.T) {
	svc := &stubUserService{user: sampleUser()}
	c, _ := newCtx(newEcho(), http.MethodPost, "/v1/users/u-3/role", `{"role":"doctor"}`, "admin-1", domain.RoleAdmin)

	if err := newUserHandler(svc).AssignRole(withID(c, "u-3")); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if svc.lastRole != domain.RoleDoctor || svc.lastID != "u-3" {
		t.Fatalf("unexpected call %s/%s", svc.lastID, svc.lastRole)
	}
}

func TestDisableAndDelete_ForwardReason(t *testing.T) {
	svc := &stubUserService{}
	h := newUserHandler(svc)

	c, rec := newCtx(newEcho(), http.MethodPost, "/v1/users/u-4/disable", `{"reason":"left clinic"}`, "admin-1", domain.RoleAdmin)
	if err := h.Disable(withID(c, "u-4")); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if rec.Code != http.StatusOK || svc.lastReason != "left clinic" {
		t.Fatalf("disable: %d %q", rec.Code, svc.lastReason)
	}

	c, rec = newCtx(newEcho(), http.MethodDelete, "/v1/users/u-4?reason=duplicate", "", "admin-1", domain.RoleAdmin)
	if err := h.Delete(withID(c, "u-4")); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if rec.Code != http.StatusNoContent || svc.lastReason != "duplicate" {
		t.Fatalf("delete: %d %q", rec.Code, svc.lastReason)
	}
}

func TestEnableAndRestore(t *testing.T) {
	svc := &stubUserService{user: sampleUser()}
	h := newUserHandler(svc)

	c, rec := newCtx(newEcho(), http.MethodPost, "/v1/users/u-5/enable", "", "admin-1", domain.RoleAdmin)
	if err := h.Enable(withID(c, "u-5")); err != nil || rec.Code != http.StatusOK {
		t.Fatalf("enable: %v %d", err, rec.Code)
	}

	svc.err = domain.NewError(domain.KindOperationNotAllowed, "user is not deleted")
	c, _ = newCtx(newEcho(), http.MethodPost, "/v1/users/u-5/restore", "", "admin-1", domain.RoleAdmin)
	assertKindErr(t, h.Restore(withID(c, "u-5")), domain.KindOperationNotAllowed)
}

func TestChangePassword(t *testing.T) {
	svc := &stubUserService{}
	body := `{"current_password":"OldPass1x","new_password":"N3wPassword"}`
	c, rec := newCtx(newEcho(), http.MethodPost, "/v1/users/me/password", body, "p-1", domain.RolePatient)

	if err := newUserHandler(svc).ChangePassword(c); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if rec.Code != http.StatusOK || svc.lastID != "p-1" || svc.lastPasswords != [2]string{"OldPass1x", "N3wPassword"} {
		t.Fatalf("unexpected call %q %v", svc.lastID, svc.lastPasswords)
	}
}

// ---------------------------------------------------------------------------
// listing
// ---------------------------------------------------------------------------

func TestList_MapsQuery(t *testing.T) {
	svc := &stubUserService{list: &ports.ListUsersResult{
		Items:      []*domain.SanitizedUser{sampleUser()},
		Pagination: ports.Pagination{Page: 2, Limit: 5, Total: 6, Pages: 2},
	}}
	target := "/v1/users?page=2&limit=5&status=active&role=nurse&search=%20jane%20&sortBy=email&sortOrder=asc"
	c, rec := newCtx(newEcho(), http.MethodGet, target, "", "admin-1", domain.RoleAdmin)

	if err := newUserHandler(svc).List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	want := ports.ListUsersInput{
		Status: domain.StatusActive, Role: domain.RoleNurse, Search: "jane",
		Page: 2, Limit: 5, SortBy: "email", SortOrder: "asc",
	}
	if svc.lastList != want {
		t.Fatalf("got %+v, want %+v", svc.lastList, want)
	}

	var resp listUsersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Pagination.Pages != 2 || resp.Pagination.Total != 6 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestList_EmptyResultIsArray(t *testing.T) {
	svc := &stubUserService{list: &ports.ListUsersResult{Pagination: ports.Pagination{Page: 1, Limit: 10}}}
	c, rec := newCtx(newEcho(), http.MethodGet, "/v1/users", "", "admin-1", domain.RoleAdmin)

	if err := newUserHandler(svc).List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty array, got %s", rec.Body.String())
	}
}

func TestList_IncludeDeletedNeedsPermission(t *testing.T) {
	svc := &stubUserService{list: &ports.ListUsersResult{}}
	c, _ := newCtx(newEcho(), http.MethodGet, "/v1/users?includeDeleted=true", "", "doc-1", domain.RoleDoctor)

	if err := newUserHandler(svc).List(c); !errors.Is(err, domain.ErrInsufficientPermissions) {
		t.Fatalf("expected 403, got %v", err)
	}

	c, _ = newCtx(newEcho(), http.MethodGet, "/v1/users?includeDeleted=true", "", "admin-1", domain.RoleAdmin)
	if err := newUserHandler(svc).List(c); err != nil || !svc.lastList.IncludeDeleted {
		t.Fatalf("admin should list deleted users: %v", err)
	}
}

func TestList_InvalidSortOrder(t *testing.T) {
	c, _ := newCtx(newEcho(), http.MethodGet, "/v1/users?sortOrder=sideways", "", "admin-1", domain.RoleAdmin)
	assertKindErr(t, newUserHandler(&stubUserService{}).List(c), domain.KindValidationFailed)
}

func TestPermissions_Self(t *testing.T) {
	svc := &stubUserService{}
	c, rec := newCtx(newEcho(), http.MethodGet, "/v1/users/n-1/permissions", "", "n-1", domain.RoleGuest)

	if err := newUserHandler(svc).Permissions(withID(c, "n-1")); err != nil {
		t.Fatalf("permissions: %v", err)
	}
	var resp permissionsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Rank != 6 || len(resp.Permissions) != 1 {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

// ---------------------------------------------------------------------------
// upload and verification
// ---------------------------------------------------------------------------

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestUploadPicture_ForwardsFile(t *testing.T) {
	svc := &stubUserService{user: sampleUser()}
	body, ct := multipartBody(t, pictureField, "Me.PNG", "image/png", []byte("\x89PNG data"))

	e := newEcho()
	req := httptest.NewRequest(http.MethodPost, "/v1/users/u-1/upload-picture", body)
	req.Header.Set(echo.HeaderContentType, ct)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.CtxUserID, "u-1")
	c.Set(middleware.CtxRole, domain.RolePatient)

	if err := newUserHandler(svc).UploadPicture(withID(c, "u-1")); err != nil {
		t.Fatalf("upload: %v", err)
	}
	up := svc.lastUpload
	if up.Filename != "Me.PNG" || up.ContentType != "image/png" || up.Size != int64(len("\x89PNG data")) {
		t.Fatalf("upload metadata not forwarded: %+v", up)
	}
	if string(svc.uploadBody) != "\x89PNG data" {
		t.Fatalf("content not forwarded")
	}
}

func TestUploadPicture_MissingFile(t *testing.T) {
	body, ct := multipartBody(t, "other", "a.png", "image/png", []byte("x"))

	e := newEcho()
	req := httptest.NewRequest(http.MethodPost, "/v1/users/u-1/upload-picture", body)
	req.Header.Set(echo.HeaderContentType, ct)
	c := e.NewContext(req, httptest.NewRecorder())
	c.Set(middleware.CtxUserID, "u-1")
	c.Set(middleware.CtxRole, domain.RolePatient)

	assertKindErr(t, newUserHandler(&stubUserService{}).UploadPicture(withID(c, "u-1")), domain.KindValidationFailed)
}

func TestUploadPicture_OtherUserNeedsPermission(t *testing.T) {
	c, _ := newCtx(newEcho(), http.MethodPost, "/v1/users/u-2/upload-picture", "", "u-1", domain.RolePatient)
	if err := newUserHandler(&stubUserService{}).UploadPicture(withID(c, "u-2")); !errors.Is(err, domain.ErrInsufficientPermissions) {
		t.Fatalf("expected 403, got %v", err)
	}
}

func TestResendVerification(t *testing.T) {
	svc := &stubUserService{}
	c, rec := newCtx(newEcho(), http.MethodPost, "/v1/users/u-1/resend-verification", "", "u-1", domain.RolePatient)

	if err := newUserHandler(svc).ResendVerification(withID(c, "u-1")); err != nil {
		t.Fatalf("resend: %v", err)
	}
	if rec.Code != http.StatusAccepted || svc.lastID != "u-1" {
		t.Fatalf("unexpected %d %q", rec.Code, svc.lastID)
	}
}
