// Package policy answers the two static authorization questions of the
// service: can role A create or assign role B, and what may role R do.
//
// The hierarchy is an ordered list; a role's rank is its position in it and a
// higher rank means more privilege. Tables are validated once in New so an
// unknown role is a startup failure rather than a request-time surprise.
package policy

import (
	"fmt"
	"sort"

	"github.com/clinicore/user-service/internal/core/domain"
)

// DefaultHierarchy lists every role from least to most privileged. A role's
// rank is its index here, so GUEST is 0 and SUPER_ADMIN is 9.
var DefaultHierarchy = []domain.Role{
	domain.RoleGuest,
	domain.RolePatient,
	domain.RoleReceptionist,
	domain.RoleBillingStaff,
	domain.RoleLabTechnician,
	domain.RolePharmacist,
	domain.RoleNurse,
	domain.RoleDoctor,
	domain.RoleAdmin,
	domain.RoleSuperAdmin,
}

// DefaultSelfRegistration lists the roles an anonymous caller may sign up as.
var DefaultSelfRegistration = []domain.Role{domain.RolePatient}

var ownProfile = []domain.Permission{
	domain.PermProfileReadOwn,
	domain.PermProfileUpdateOwn,
}

var userAdmin = []domain.Permission{
	domain.PermUsersCreate,
	domain.PermUsersRead,
	domain.PermUsersReadDeleted,
	domain.PermUsersUpdate,
	domain.PermUsersDisable,
	domain.PermUsersDelete,
	domain.PermUsersRestore,
	domain.PermUsersAssignRole,
	domain.PermAuditRead,
}

// DefaultPermissions is the built-in capability table.
var DefaultPermissions = map[domain.Role][]domain.Permission{
	domain.RoleGuest: {domain.PermProfileReadOwn},
	domain.RolePatient: join(ownProfile,
		domain.PermAppointmentsRead, domain.PermPrescriptionsRead, domain.PermMessagesSend),
	domain.RoleReceptionist: join(ownProfile,
		domain.PermUsersRead, domain.PermUsersCreate, domain.PermAppointmentsRead,
		domain.PermAppointmentsWrite, domain.PermMessagesSend),
	domain.RoleBillingStaff: join(ownProfile,
		domain.PermUsersRead, domain.PermBillingManage, domain.PermMessagesSend),
	domain.RoleLabTechnician: join(ownProfile,
		domain.PermUsersRead, domain.PermLabResultsWrite, domain.PermMessagesSend),
	domain.RolePharmacist: join(ownProfile,
		domain.PermUsersRead, domain.PermPrescriptionsRead, domain.PermMedicationsDispense,
		domain.PermMessagesSend),
	domain.RoleNurse: join(ownProfile,
		domain.PermUsersRead, domain.PermAppointmentsRead, domain.PermAppointmentsWrite,
		domain.PermPrescriptionsRead, domain.PermMessagesSend),
	domain.RoleDoctor: join(ownProfile,
		domain.PermUsersRead, domain.PermUsersCreate, domain.PermUsersUpdate,
		domain.PermAppointmentsRead, domain.PermAppointmentsWrite, domain.PermPrescriptionsRead,
		domain.PermPrescriptionsWrite, domain.PermMessagesSend),
	domain.RoleAdmin: join(join(ownProfile, userAdmin...),
		domain.PermAppointmentsRead, domain.PermAppointmentsWrite, domain.PermBillingManage,
		domain.PermMessagesSend),
	domain.RoleSuperAdmin: join(join(ownProfile, userAdmin...),
		domain.PermUsersReadSensitive, domain.PermAppointmentsRead, domain.PermAppointmentsWrite,
		domain.PermPrescriptionsRead, domain.PermPrescriptionsWrite, domain.PermMedicationsDispense,
		domain.PermLabResultsWrite, domain.PermBillingManage, domain.PermMessagesSend),
}

// Policy is an immutable role table. It is safe for concurrent use.
type Policy struct {
	ranks        map[domain.Role]int
	permissions  map[domain.Role][]domain.Permission
	selfRegister map[domain.Role]struct{}
}

// New validates and builds a Policy. Duplicate roles in the hierarchy, and
// permission or self-registration entries naming roles outside it, are
// rejected.
func New(hierarchy []domain.Role, permissions map[domain.Role][]domain.Permission, selfRegister []domain.Role) (*Policy, error) {
	if len(hierarchy) == 0 {
		return nil, fmt.Errorf("policy: empty role hierarchy")
	}

	p := &Policy{
		ranks:        make(map[domain.Role]int, len(hierarchy)),
		permissions:  make(map[domain.Role][]domain.Permission, len(hierarchy)),
		selfRegister: make(map[domain.Role]struct{}, len(selfRegister)),
	}
	for i, r := range hierarchy {
		if r == "" {
			return nil, fmt.Errorf("policy: empty role at position %d", i)
		}
		if _, dup := p.ranks[r]; dup {
			return nil, fmt.Errorf("policy: role %s listed twice in hierarchy", r)
		}
		p.ranks[r] = i
	}
	for r, perms := range permissions {
		if _, ok := p.ranks[r]; !ok {
			return nil, fmt.Errorf("policy: permissions declared for unknown role %s", r)
		}
		p.permissions[r] = dedupe(perms)
	}
	for _, r := range selfRegister {
		if _, ok := p.ranks[r]; !ok {
			return nil, fmt.Errorf("policy: self-registration allowed for unknown role %s", r)
		}
		p.selfRegister[r] = struct{}{}
	}
	return p, nil
}

// Default returns the built-in policy.
func Default() *Policy {
	p, err := New(DefaultHierarchy, DefaultPermissions, DefaultSelfRegistration)
	if err != nil {
		panic(err)
	}
	return p
}

// IsKnown reports whether r appears in the hierarchy.
func (p *Policy) IsKnown(r domain.Role) bool {
	_, ok := p.ranks[r]
	return ok
}

// Rank returns r's position in the hierarchy, or -1 for unknown roles.
func (p *Policy) Rank(r domain.Role) int {
	if rank, ok := p.ranks[r]; ok {
		return rank
	}
	return -1
}

// CanCreate reports whether a caller holding role caller may create or assign
// a user of role target. The caller must rank strictly above the target.
// SUPER_ADMIN bypass is handled by the lifecycle service, not here.
func (p *Policy) CanCreate(caller, target domain.Role) bool {
	cr, ok := p.ranks[caller]
	if !ok {
		return false
	}
	tr, ok := p.ranks[target]
	if !ok {
		return false
	}
	return cr > tr
}

// Outranks reports whether target ranks strictly above caller.
func (p *Policy) Outranks(target, caller domain.Role) bool {
	return p.Rank(target) > p.Rank(caller)
}

// CanRegisterAs reports whether anonymous sign-up may request role r.
func (p *Policy) CanRegisterAs(r domain.Role) bool {
	_, ok := p.selfRegister[r]
	return ok
}

// PermissionsOf returns a copy of r's permission set, sorted at construction.
func (p *Policy) PermissionsOf(r domain.Role) []domain.Permission {
	perms := p.permissions[r]
	out := make([]domain.Permission, len(perms))
	copy(out, perms)
	return out
}

// HasPermission reports whether role r holds perm.
func (p *Policy) HasPermission(r domain.Role, perm domain.Permission) bool {
	perms := p.permissions[r]
	i := sort.Search(len(perms), func(i int) bool { return perms[i] >= perm })
	return i < len(perms) && perms[i] == perm
}

// Roles returns the hierarchy in rank order.
func (p *Policy) Roles() []domain.Role {
	out := make([]domain.Role, len(p.ranks))
	for r, i := range p.ranks {
		out[i] = r
	}
	return out
}

func join(base []domain.Permission, extra ...domain.Permission) []domain.Permission {
	out := make([]domain.Permission, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

func dedupe(perms []domain.Permission) []domain.Permission {
	seen := make(map[domain.Permission]struct{}, len(perms))
	out := make([]domain.Permission, 0, len(perms))
	for _, p := range perms {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
