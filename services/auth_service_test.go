package services

import (
	"context"
	"testing"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/repositories/mocks"
	"urbanfix-be/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/mock/gomock"
)

const testSecret = "test-secret"

func newAuthService(t *testing.T) (*AuthService, *mocks.MockUserRepository) {
	ctrl := gomock.NewController(t)
	users := mocks.NewMockUserRepository(ctrl)
	return NewAuthService(users, testSecret, time.Hour, func() time.Time { return fixedNow }), users
}

func storedUser(t *testing.T, password string, active bool) *models.User {
	u := &models.User{
		ID:       primitive.NewObjectID(),
		Name:     "Sam",
		Email:    "sam@example.com",
		Password: password,
		Role:     models.RoleStaff,
		IsActive: active,
	}
	require.NoError(t, u.HashPassword())
	return u
}

func TestAuthService_Register(t *testing.T) {
	svc, users := newAuthService(t)

	users.EXPECT().FindByEmail(gomock.Any(), "sam@example.com").Return(nil, nil)
	users.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, u *models.User) error {
		assert.NotEqual(t, "hunter22", u.Password)
		assert.True(t, u.ComparePassword("hunter22"))
		assert.Equal(t, models.RoleCitizen, u.Role)
		assert.True(t, u.IsActive)
		return nil
	})

	res, err := svc.Register(context.Background(), RegisterInput{Name: " Sam ", Email: " SAM@example.com", Password: "hunter22"})
	require.NoError(t, err)

	assert.Equal(t, "Sam", res.Name)
	assert.Equal(t, "sam@example.com", res.Email)
	claims, err := utils.ParseToken(testSecret, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.ID.Hex(), claims.ID)
	assert.Equal(t, "CITIZEN", claims.Role)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, users := newAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.c", Password: "hunter22"})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))

	_, err = svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.c", Password: "123"})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))

	users.EXPECT().FindByEmail(gomock.Any(), "a@b.c").Return(&models.User{}, nil)
	_, err = svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.c", Password: "hunter22"})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))
}

func duplicateKey() error {
	return mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key error"}}}
}

func TestAuthService_Register_ConcurrentDuplicate(t *testing.T) {
	svc, users := newAuthService(t)

	users.EXPECT().FindByEmail(gomock.Any(), "sam@example.com").Return(nil, nil)
	users.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(duplicateKey())

	_, err := svc.Register(context.Background(), RegisterInput{Name: "Sam", Email: "sam@example.com", Password: "hunter22"})
	require.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument), "got %v", err)
	assert.Equal(t, "User already exists", err.Error())
}

func TestAuthService_UpdateProfile_ConcurrentDuplicate(t *testing.T) {
	svc, users := newAuthService(t)
	user := storedUser(t, "hunter22", true)
	email := "new@example.com"

	users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
	users.EXPECT().FindByEmail(gomock.Any(), email).Return(nil, nil)
	users.EXPECT().Update(gomock.Any(), user).Return(duplicateKey())

	_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileInput{Email: &email})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument), "got %v", err)
}

func TestAuthService_Login(t *testing.T) {
	svc, users := newAuthService(t)
	user := storedUser(t, "hunter22", true)

	users.EXPECT().FindByEmail(gomock.Any(), "sam@example.com").Return(user, nil)
	users.EXPECT().Update(gomock.Any(), user).Return(nil)

	res, err := svc.Login(context.Background(), "Sam@Example.com", "hunter22")
	require.NoError(t, err)

	assert.Equal(t, models.RoleStaff, res.Role)
	assert.Equal(t, fixedNow, *user.LastLogin)
}

func TestAuthService_LoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		user     func(t *testing.T) *models.User
		password string
	}{
		{"unknown email", func(*testing.T) *models.User { return nil }, "hunter22"},
		{"wrong password", func(t *testing.T) *models.User { return storedUser(t, "hunter22", true) }, "hunter23"},
		{"inactive", func(t *testing.T) *models.User { return storedUser(t, "hunter22", false) }, "hunter22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users := newAuthService(t)
			users.EXPECT().FindByEmail(gomock.Any(), "sam@example.com").Return(tt.user(t), nil)

			_, err := svc.Login(context.Background(), "sam@example.com", tt.password)
			assert.True(t, apperr.HasCode(err, apperr.CodeUnauthenticated), "got %v", err)
		})
	}
}

func TestAuthService_Authenticate(t *testing.T) {
	svc, users := newAuthService(t)
	user := storedUser(t, "hunter22", true)
	token, err := utils.GenerateToken(testSecret, user.ID.Hex(), string(user.Role), time.Hour)
	require.NoError(t, err)

	users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
	got, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Same(t, user, got)

	_, err = svc.Authenticate(context.Background(), "garbage")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthenticated))

	user.IsActive = false
	users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
	_, err = svc.Authenticate(context.Background(), token)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthenticated))

	users.EXPECT().FindByID(gomock.Any(), user.ID).Return(nil, nil)
	_, err = svc.Authenticate(context.Background(), token)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthenticated))
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, users := newAuthService(t)
	user := storedUser(t, "hunter22", true)
	name := "Samantha"
	email := "taken@example.com"
	password := "newpass1"

	users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil).Times(2)
	users.EXPECT().FindByEmail(gomock.Any(), email).Return(&models.User{ID: primitive.NewObjectID()}, nil)

	_, err := svc.UpdateProfile(context.Background(), user.ID, ProfileInput{Email: &email})
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidArgument))

	users.EXPECT().Update(gomock.Any(), user).Return(nil)
	res, err := svc.UpdateProfile(context.Background(), user.ID, ProfileInput{Name: &name, Password: &password})
	require.NoError(t, err)

	assert.Equal(t, "Samantha", res.Name)
	assert.True(t, user.ComparePassword("newpass1"))
	assert.NotEmpty(t, res.Token)
}
