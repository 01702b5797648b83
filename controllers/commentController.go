package controllers

import (
	"context"
	"net/http"

	"urbanfix-be/models"
	"urbanfix-be/services"

	"github.com/gin-gonic/gin"
)

type addCommentRequest struct {
	Body        string              `json:"body" binding:"required"`
	Attachments []models.Attachment `json:"attachments" binding:"omitempty,dive"`
	IsInternal  bool                `json:"isInternal"`
}

// AddComment handles POST /api/issues/:id/comments
func (h *IssueController) AddComment(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	var input addCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respond.Error(c, bindError(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	comment, err := h.comments.Add(ctx, id, a, services.AddCommentInput{
		Body:        input.Body,
		Attachments: input.Attachments,
		IsInternal:  input.IsInternal,
	})
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GetComments handles GET /api/issues/:id/comments
func (h *IssueController) GetComments(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	comments, err := h.comments.List(ctx, id, a)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}
