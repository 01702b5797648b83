package services

import (
	"context"
	"strings"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/repositories"
	"urbanfix-be/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const MinPasswordLength = 6

type AuthService struct {
	users  repositories.UserRepository
	secret string
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthService(users repositories.UserRepository, secret string, ttl time.Duration, now func() time.Time) *AuthService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &AuthService{users: users, secret: secret, ttl: ttl, now: now}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Address  string
}

type ProfileInput struct {
	Name     *string
	Email    *string
	Address  *string
	Password *string
}

// AuthResult is the public profile plus a fresh bearer token.
type AuthResult struct {
	ID      primitive.ObjectID `json:"id"`
	Name    string             `json:"name"`
	Email   string             `json:"email"`
	Address string             `json:"address,omitempty"`
	Role    models.Role        `json:"role"`
	Token   string             `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, apperr.Validation("name, email, and password are required")
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Validation("User already exists")
	}

	now := s.now()
	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  in.Password,
		Address:   strings.TrimSpace(in.Address),
		Role:      models.RoleCitizen,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := user.HashPassword(); err != nil {
		return nil, apperr.Internal("Something went wrong", err)
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Validation("User already exists")
		}
		return nil, err
	}
	return s.result(user)
}

// Login checks credentials and records the login time. Unknown email, wrong
// password and deactivated accounts all fail with an auth error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.ComparePassword(password) {
		return nil, apperr.Auth("Invalid email or password")
	}
	if !user.IsActive {
		return nil, apperr.Auth("Account is deactivated")
	}

	now := s.now()
	user.LastLogin = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return s.result(user)
}

// Authenticate resolves a bearer token to an active user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := utils.ParseToken(s.secret, token)
	if err != nil {
		return nil, apperr.Auth("Invalid authorization token")
	}
	id, err := primitive.ObjectIDFromHex(claims.ID)
	if err != nil {
		return nil, apperr.Auth("Invalid token claims")
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.Auth("User no longer exists")
	}
	if !user.IsActive {
		return nil, apperr.Auth("Account is deactivated")
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("User not found")
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, id primitive.ObjectID, in ProfileInput) (*AuthResult, error) {
	user, err := s.Profile(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("Name cannot be empty")
		}
		user.Name = name
	}
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email == "" {
			return nil, apperr.Validation("Email cannot be empty")
		}
		if email != user.Email {
			other, err := s.users.FindByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil {
				return nil, apperr.Validation("Email is already in use")
			}
		}
		user.Email = email
	}
	if in.Address != nil {
		user.Address = strings.TrimSpace(*in.Address)
	}
	if in.Password != nil && *in.Password != "" {
		if len(*in.Password) < MinPasswordLength {
			return nil, apperr.Validation("Password must be at least 6 characters")
		}
		user.Password = *in.Password
		if err := user.HashPassword(); err != nil {
			return nil, apperr.Internal("Something went wrong", err)
		}
	}
	user.UpdatedAt = s.now()

	if err := s.users.Update(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Validation("Email is already in use")
		}
		return nil, err
	}
	return s.result(user)
}

func (s *AuthService) result(user *models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(s.secret, user.ID.Hex(), string(user.Role), s.ttl)
	if err != nil {
		return nil, apperr.Internal("Something went wrong", err)
	}
	return &AuthResult{
		ID:      user.ID,
		Name:    user.Name,
		Email:   user.Email,
		Address: user.Address,
		Role:    user.Role,
		Token:   token,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
