package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/user-service/internal/core/domain"
)

func TestDefault_RanksFollowHierarchy(t *testing.T) {
	p := Default()

	for i, r := range DefaultHierarchy {
		assert.Equal(t, i, p.Rank(r), "rank of %s", r)
	}
	assert.Equal(t, -1, p.Rank("JANITOR"))
	assert.Equal(t, DefaultHierarchy, p.Roles())
}

func TestCanCreate_StrictlyGreater(t *testing.T) {
	p := Default()

	assert.True(t, p.CanCreate(domain.RoleAdmin, domain.RoleDoctor))
	assert.False(t, p.CanCreate(domain.RoleAdmin, domain.RoleAdmin), "equal rank must not create")
	assert.False(t, p.CanCreate(domain.RoleAdmin, domain.RoleSuperAdmin))
	assert.False(t, p.CanCreate(domain.RoleGuest, domain.RolePatient))
	assert.False(t, p.CanCreate("UNKNOWN", domain.RoleGuest))
	assert.False(t, p.CanCreate(domain.RoleSuperAdmin, "UNKNOWN"))
}

func TestOutranks(t *testing.T) {
	p := Default()

	assert.True(t, p.Outranks(domain.RoleSuperAdmin, domain.RoleAdmin))
	assert.False(t, p.Outranks(domain.RoleAdmin, domain.RoleAdmin))
	assert.False(t, p.Outranks(domain.RoleNurse, domain.RoleDoctor))
}

func TestPermissionsOf_SortedCopy(t *testing.T) {
	p := Default()

	perms := p.PermissionsOf(domain.RoleAdmin)
	require.NotEmpty(t, perms)
	for i := 1; i < len(perms); i++ {
		assert.Less(t, string(perms[i-1]), string(perms[i]))
	}

	perms[0] = "tampered"
	assert.NotEqual(t, domain.Permission("tampered"), p.PermissionsOf(domain.RoleAdmin)[0])
}

func TestHasPermission(t *testing.T) {
	p := Default()

	assert.True(t, p.HasPermission(domain.RoleSuperAdmin, domain.PermUsersReadSensitive))
	assert.False(t, p.HasPermission(domain.RoleAdmin, domain.PermUsersReadSensitive))
	assert.True(t, p.HasPermission(domain.RolePatient, domain.PermProfileUpdateOwn))
	assert.False(t, p.HasPermission(domain.RolePatient, domain.PermUsersRead))
	assert.False(t, p.HasPermission("UNKNOWN", domain.PermUsersRead))
}

func TestCanRegisterAs(t *testing.T) {
	p := Default()

	assert.True(t, p.CanRegisterAs(domain.RolePatient))
	assert.False(t, p.CanRegisterAs(domain.RoleDoctor))
}

func TestNew_RejectsBadTables(t *testing.T) {
	cases := []struct {
		name      string
		hierarchy []domain.Role
		perms     map[domain.Role][]domain.Permission
		self      []domain.Role
	}{
		{name: "empty hierarchy"},
		{name: "duplicate role", hierarchy: []domain.Role{domain.RoleGuest, domain.RoleGuest}},
		{name: "blank role", hierarchy: []domain.Role{domain.RoleGuest, ""}},
		{
			name:      "permissions for unknown role",
			hierarchy: []domain.Role{domain.RoleGuest},
			perms:     map[domain.Role][]domain.Permission{domain.RoleAdmin: {domain.PermUsersRead}},
		},
		{
			name:      "self registration for unknown role",
			hierarchy: []domain.Role{domain.RoleGuest},
			self:      []domain.Role{domain.RolePatient},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.hierarchy, tc.perms, tc.self)
			assert.Error(t, err)
		})
	}
}

func TestNew_DedupesPermissions(t *testing.T) {
	p, err := New(
		[]domain.Role{domain.RoleGuest},
		map[domain.Role][]domain.Permission{
			domain.RoleGuest: {domain.PermProfileReadOwn, domain.PermProfileReadOwn},
		},
		nil,
	)
	require.NoError(t, err)
	assert.Equal(t, []domain.Permission{domain.PermProfileReadOwn}, p.PermissionsOf(domain.RoleGuest))
}
