package handler

import (
	"strings"

	"github.com/clinicore/user-service/internal/core/domain"
	"github.com/clinicore/user-service/internal/core/ports"
)

// --- Request → Service input ---

func toPersonalInfo(r personalInfoRequest) ports.PersonalInfo {
	info := ports.PersonalInfo{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Phone:       r.Phone,
		DateOfBirth: r.DateOfBirth,
		Gender:      r.Gender,
	}
	if r.Address != nil {
		info.Address = &domain.Address{
			Street:     r.Address.Street,
			City:       r.Address.City,
			State:      r.Address.State,
			PostalCode: r.Address.PostalCode,
			Country:    r.Address.Country,
		}
	}
	if r.EmergencyContact != nil {
		info.EmergencyContact = &domain.EmergencyContact{
			Name:         r.EmergencyContact.Name,
			Relationship: r.EmergencyContact.Relationship,
			Phone:        r.EmergencyContact.Phone,
		}
	}
	return info
}

func toProfessionalInfo(r professionalInfoRequest) ports.ProfessionalInfo {
	return ports.ProfessionalInfo{
		LicenseNumber:  r.LicenseNumber,
		Department:     r.Department,
		Specialization: r.Specialization,
	}
}

func toRole(s string) domain.Role {
	return domain.Role(strings.ToUpper(strings.TrimSpace(s)))
}

func toRegisterInput(req registerRequest) ports.CreateUserInput {
	role := toRole(req.Role)
	if role == "" {
		role = domain.RolePatient
	}
	in := ports.CreateUserInput{
		Email:        req.Email,
		Password:     req.Password,
		Role:         role,
		PersonalInfo: toPersonalInfo(req.personalInfoRequest),
	}
	in.FirstName = &req.FirstName
	in.LastName = &req.LastName
	return in
}

func toCreateUserInput(req createUserRequest) ports.CreateUserInput {
	in := ports.CreateUserInput{
		Email:            req.Email,
		Password:         req.Password,
		Role:             toRole(req.Role),
		PersonalInfo:     toPersonalInfo(req.personalInfoRequest),
		ProfessionalInfo: toProfessionalInfo(req.professionalInfoRequest),
	}
	in.FirstName = &req.FirstName
	in.LastName = &req.LastName
	return in
}

func toUpdateUserInput(req updateUserRequest) ports.UpdateUserInput {
	return ports.UpdateUserInput{
		Email:            req.Email,
		PersonalInfo:     toPersonalInfo(req.personalInfoRequest),
		ProfessionalInfo: toProfessionalInfo(req.professionalInfoRequest),
	}
}

func toListInput(q listUsersQuery) ports.ListUsersInput {
	return ports.ListUsersInput{
		Status:         domain.UserStatus(strings.ToUpper(strings.TrimSpace(q.Status))),
		Role:           toRole(q.Role),
		Search:         strings.TrimSpace(q.Search),
		IncludeDeleted: q.IncludeDeleted,
		Page:           q.Page,
		Limit:          q.Limit,
		SortBy:         q.SortBy,
		SortOrder:      q.SortOrder,
	}
}

// --- Service output → Response ---

func toListResponse(res *ports.ListUsersResult) listUsersResponse {
	items := res.Items
	if items == nil {
		items = []*domain.SanitizedUser{}
	}
	return listUsersResponse{Data: items, Pagination: res.Pagination}
}

func toPermissionsResponse(p *ports.UserPermissions) permissionsResponse {
	perms := p.Permissions
	if perms == nil {
		perms = []domain.Permission{}
	}
	return permissionsResponse{UserID: p.UserID, Role: p.Role, Rank: p.Rank, Permissions: perms}
}
