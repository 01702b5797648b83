package controllers

import (
	"context"
	"net/http"
	"strconv"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/repositories"
	"urbanfix-be/services"
	"urbanfix-be/utils"

	"github.com/gin-gonic/gin"
)

// UserController serves the admin endpoints for accounts and the audit trail.
type UserController struct {
	admin   *services.AdminService
	respond *Responder
}

func NewUserController(admin *services.AdminService, respond *Responder) *UserController {
	return &UserController{admin: admin, respond: respond}
}

type updateUserRequest struct {
	Role     *models.Role `json:"role" binding:"omitempty,role"`
	IsActive *bool        `json:"isActive"`
}

// GetUsers handles GET /api/admin/users?q=&role=&active=&page=&limit=
func (h *UserController) GetUsers(c *gin.Context) {
	q := repositories.UserQuery{
		Q:    c.Query("q"),
		Role: models.Role(c.Query("role")),
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			h.respond.Error(c, apperr.Validation("Invalid active"))
			return
		}
		q.Active = &active
	}
	page := utils.ParsePage(c.Query("page"), c.Query("limit"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, err := h.admin.ListUsers(ctx, q, page)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateUser handles PATCH /api/admin/users/:id
func (h *UserController) UpdateUser(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	var input updateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respond.Error(c, bindError(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	user, err := h.admin.UpdateUser(ctx, id, a, services.UserAdminPatch{Role: input.Role, IsActive: input.IsActive})
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// GetAudits handles GET /api/admin/audits?kind=&id=&actor=&page=&limit=
func (h *UserController) GetAudits(c *gin.Context) {
	q := repositories.AuditQuery{Kind: models.EntityKind(c.Query("kind"))}
	var err error
	if q.EntityID, err = optionalID(c.Query("id"), "id"); err != nil {
		h.respond.Error(c, err)
		return
	}
	if q.Actor, err = optionalID(c.Query("actor"), "actor"); err != nil {
		h.respond.Error(c, err)
		return
	}
	page := utils.ParsePage(c.Query("page"), c.Query("limit"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, err := h.admin.ListAudits(ctx, q, page)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
