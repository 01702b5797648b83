package controllers

import (
	"context"
	"net/http"
	"time"

	"urbanfix-be/middlewares"
	"urbanfix-be/services"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	auth    *services.AuthService
	ttl     time.Duration
	secure  bool
	respond *Responder
}

// NewAuthController issues auth cookies that live as long as the token. They
// are marked Secure when secure is set.
func NewAuthController(auth *services.AuthService, ttl time.Duration, secure bool, respond *Responder) *AuthController {
	return &AuthController{auth: auth, ttl: ttl, secure: secure, respond: respond}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Address  string `json:"address"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Address  *string `json:"address"`
	Password *string `json:"password"`
}

// RegisterUser handles POST /api/auth/register
func (h *AuthController) RegisterUser(c *gin.Context) {
	var input registerRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respond.Error(c, bindError(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := h.auth.Register(ctx, services.RegisterInput{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Address:  input.Address,
	})
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	h.setCookie(c, res.Token)
	c.JSON(http.StatusCreated, res)
}

// LoginUser handles POST /api/auth/login
func (h *AuthController) LoginUser(c *gin.Context) {
	var input loginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respond.Error(c, bindError(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := h.auth.Login(ctx, input.Email, input.Password)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	h.setCookie(c, res.Token)
	c.JSON(http.StatusOK, res)
}

// LogoutUser clears the auth cookie. Bearer tokens stay valid until they expire.
func (h *AuthController) LogoutUser(c *gin.Context) {
	http.SetCookie(c.Writer, h.cookie("", -1))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetMe handles GET /api/auth/profile
func (h *AuthController) GetMe(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.auth.Profile(ctx, a.ID)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe handles PUT /api/auth/profile and returns a fresh token.
func (h *AuthController) UpdateMe(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}

	var input profileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respond.Error(c, bindError(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	res, err := h.auth.UpdateProfile(ctx, a.ID, services.ProfileInput{
		Name:     input.Name,
		Email:    input.Email,
		Address:  input.Address,
		Password: input.Password,
	})
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	h.setCookie(c, res.Token)
	c.JSON(http.StatusOK, res)
}

func (h *AuthController) setCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, h.cookie(token, int(h.ttl.Seconds())))
}

func (h *AuthController) cookie(value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if h.secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     middlewares.AuthCookie,
		Value:    value,
		MaxAge:   maxAge,
		Path:     "/",
		Secure:   h.secure,
		HttpOnly: true,
		SameSite: sameSite,
	}
}
