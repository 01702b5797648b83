package services

import (
	"context"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/repositories"
	"urbanfix-be/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminService backs the admin-only user management and audit report.
type AdminService struct {
	users  repositories.UserRepository
	audits repositories.AuditRepository
	audit  auditor
	now    func() time.Time
}

func NewAdminService(users repositories.UserRepository, audits repositories.AuditRepository, now func() time.Time) *AdminService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &AdminService{users: users, audits: audits, audit: auditor{repo: audits, now: now}, now: now}
}

type UserList struct {
	Items []models.User `json:"items"`
	Count int64         `json:"count"`
	Page  int64         `json:"page"`
	Limit int64         `json:"limit"`
}

type AuditList struct {
	Items []models.AuditRecord `json:"items"`
	Count int64                `json:"count"`
	Page  int64                `json:"page"`
	Limit int64                `json:"limit"`
}

type UserAdminPatch struct {
	Role     *models.Role
	IsActive *bool
}

func (s *AdminService) ListUsers(ctx context.Context, q repositories.UserQuery, page utils.Page) (*UserList, error) {
	if q.Role != "" && !q.Role.Valid() {
		return nil, apperr.Validation("Invalid role")
	}
	q.Skip = page.Skip()
	q.Limit = page.Limit
	users, total, err := s.users.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &UserList{Items: users, Count: total, Page: page.Page, Limit: page.Limit}, nil
}

// UpdateUser changes a user's role or active flag. Admins cannot demote or
// deactivate themselves.
func (s *AdminService) UpdateUser(ctx context.Context, id primitive.ObjectID, actor models.Actor, patch UserAdminPatch) (*models.User, error) {
	if patch.Role != nil && !patch.Role.Valid() {
		return nil, apperr.Validation("Invalid role")
	}
	if id == actor.ID {
		if patch.Role != nil && *patch.Role != models.RoleAdmin {
			return nil, apperr.Validation("You cannot change your own role")
		}
		if patch.IsActive != nil && !*patch.IsActive {
			return nil, apperr.Validation("You cannot deactivate your own account")
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}

	details := map[string]any{}
	if patch.Role != nil {
		details["role"] = map[string]any{"from": user.Role, "to": *patch.Role}
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		details["isActive"] = *patch.IsActive
		user.IsActive = *patch.IsActive
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if err := s.audit.record(ctx, actor, models.ActionUserUpdated, models.EntityUser, user.ID, details); err != nil {
		return nil, err
	}
	return user, nil
}

// ListAudits reads the audit trail newest first.
func (s *AdminService) ListAudits(ctx context.Context, q repositories.AuditQuery, page utils.Page) (*AuditList, error) {
	q.Skip = page.Skip()
	q.Limit = page.Limit
	records, total, err := s.audits.List(ctx, q)
	if err != nil {
		return nil, err
	}
	return &AuditList{Items: records, Count: total, Page: page.Page, Limit: page.Limit}, nil
}
