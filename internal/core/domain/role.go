package domain

// Role is the single authorization tag carried by every user.
type Role string

const (
	RoleGuest         Role = "GUEST"
	RolePatient       Role = "PATIENT"
	RoleReceptionist  Role = "RECEPTIONIST"
	RoleBillingStaff  Role = "BILLING_STAFF"
	RoleLabTechnician Role = "LAB_TECHNICIAN"
	RolePharmacist    Role = "PHARMACIST"
	RoleNurse         Role = "NURSE"
	RoleDoctor        Role = "DOCTOR"
	RoleAdmin         Role = "ADMIN"
	RoleSuperAdmin    Role = "SUPER_ADMIN"
)

// IsStaff reports whether users with this role carry professional info.
func (r Role) IsStaff() bool {
	switch r {
	case RoleGuest, RolePatient, "":
		return false
	default:
		return true
	}
}

// Permission is a "resource:action" capability tag.
type Permission string

const (
	PermUsersCreate        Permission = "users:create"
	PermUsersRead          Permission = "users:read"
	PermUsersReadSensitive Permission = "users:read_sensitive"
	PermUsersReadDeleted   Permission = "users:read_deleted"
	PermUsersUpdate        Permission = "users:update"
	PermUsersDisable       Permission = "users:disable"
	PermUsersDelete        Permission = "users:delete"
	PermUsersRestore       Permission = "users:restore"
	PermUsersAssignRole    Permission = "users:assign_role"
	PermProfileReadOwn     Permission = "profile:read_own"
	PermProfileUpdateOwn   Permission = "profile:update_own"

	PermAppointmentsRead    Permission = "appointments:read"
	PermAppointmentsWrite   Permission = "appointments:write"
	PermPrescriptionsRead   Permission = "prescriptions:read"
	PermPrescriptionsWrite  Permission = "prescriptions:write"
	PermMedicationsDispense Permission = "medications:dispense"
	PermLabResultsWrite     Permission = "lab_results:write"
	PermBillingManage       Permission = "billing:manage"
	PermMessagesSend        Permission = "messages:send"
	PermAuditRead           Permission = "audit:read"
)
