package middlewares

import (
	"context"
	"net/http"
	"strings"

	"urbanfix-be/apperr"
	"urbanfix-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"

	// AuthCookie carries the token for browser clients that do not send an
	// Authorization header.
	AuthCookie = "auth_token"
)

// Authenticator resolves a bearer token to an active user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.Request.Header.Get("Authorization")
		if authHeader == "" {
			if cookie, err := c.Cookie(AuthCookie); err == nil {
				authHeader = cookie
			}
		}

		// Extracting token from "Bearer <token>" format
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == "" {
			abortWith(c, apperr.Auth("No authorization token provided"))
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			abortWith(c, err)
			return
		}

		c.Set(userIDKey, user.ID.Hex())
		c.Set(roleKey, user.Role)
		c.Next()
	}
}

// RequireRoles must run after AuthMiddleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role, _ := c.Get(roleKey)
		r, ok := role.(models.Role)
		if !ok || !allowed[r] {
			abortWith(c, apperr.Forbidden("Insufficient permissions"))
			return
		}
		c.Next()
	}
}

// CurrentActor builds the acting user from the authenticated request.
func CurrentActor(c *gin.Context) (models.Actor, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(userIDKey))
	if err != nil {
		return models.Actor{}, false
	}
	role, _ := c.Get(roleKey)
	r, _ := role.(models.Role)
	return models.Actor{
		ID:        id,
		Role:      r,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}, true
}

// SetActor is used by tests and internal callers to mark a request as
// authenticated.
func SetActor(c *gin.Context, id primitive.ObjectID, role models.Role) {
	c.Set(userIDKey, id.Hex())
	c.Set(roleKey, role)
}

func abortWith(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Something went wrong"
	if appErr, ok := apperr.As(err); ok {
		status = appErr.HTTPStatus()
		message = appErr.Message()
	}
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}
