package services

import (
	"context"
	"testing"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/repositories"
	"urbanfix-be/repositories/mocks"
	"urbanfix-be/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/mock/gomock"
)

func newAdminService(t *testing.T) (*AdminService, *mocks.MockUserRepository, *mocks.MockAuditRepository) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	audits := mocks.NewMockAuditRepository(ctrl)
	return NewAdminService(users, audits, func() time.Time { return fixedNow }), users, audits
}

func TestAdminService_UpdateUser(t *testing.T) {
	svc, users, audits := newAdminService(t)
	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	user := &models.User{ID: primitive.NewObjectID(), Role: models.RoleCitizen, IsActive: true}
	role := models.RoleStaff

	users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
	users.EXPECT().Update(gomock.Any(), user).Return(nil)
	audits.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, rec *models.AuditRecord) error {
		assert.Equal(t, models.ActionUserUpdated, rec.Action)
		assert.Equal(t, models.EntityRef{Kind: models.EntityUser, ID: user.ID}, rec.Entity)
		return nil
	})

	got, err := svc.UpdateUser(context.Background(), user.ID, admin, UserAdminPatch{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, got.Role)
	assert.Equal(t, fixedNow, got.UpdatedAt)
}

func TestAdminService_UpdateUserGuards(t *testing.T) {
	svc, users, _ := newAdminService(t)
	admin := models.Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	citizenRole := models.RoleCitizen
	inactive := false
	bogus := models.Role("ROOT")

	_, err := svc.UpdateUser(context.Background(), admin.ID, admin, UserAdminPatch{Role: &citizenRole})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))

	_, err = svc.UpdateUser(context.Background(), admin.ID, admin, UserAdminPatch{IsActive: &inactive})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))

	_, err = svc.UpdateUser(context.Background(), primitive.NewObjectID(), admin, UserAdminPatch{Role: &bogus})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))

	missing := primitive.NewObjectID()
	users.EXPECT().FindByID(gomock.Any(), missing).Return(nil, nil)
	_, err = svc.UpdateUser(context.Background(), missing, admin, UserAdminPatch{IsActive: &inactive})
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

func TestAdminService_ListUsersAndAudits(t *testing.T) {
	svc, users, audits := newAdminService(t)
	page := utils.ParsePage("3", "5")

	users.EXPECT().List(gomock.Any(), repositories.UserQuery{Q: "sam", Skip: 10, Limit: 5}).
		Return([]models.User{{Name: "Sam"}}, int64(11), nil)
	ul, err := svc.ListUsers(context.Background(), repositories.UserQuery{Q: "sam"}, page)
	require.NoError(t, err)
	assert.Equal(t, int64(11), ul.Count)
	assert.Equal(t, int64(3), ul.Page)

	audits.EXPECT().List(gomock.Any(), repositories.AuditQuery{Kind: models.EntityIssue, Skip: 10, Limit: 5}).
		Return([]models.AuditRecord{}, int64(0), nil)
	al, err := svc.ListAudits(context.Background(), repositories.AuditQuery{Kind: models.EntityIssue}, page)
	require.NoError(t, err)
	assert.Empty(t, al.Items)

	_, err = svc.ListUsers(context.Background(), repositories.UserQuery{Role: "ROOT"}, page)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))
}
