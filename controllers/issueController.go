package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/middlewares"
	"urbanfix-be/models"
	"urbanfix-be/repositories"
	"urbanfix-be/services"
	"urbanfix-be/utils"

	"github.com/gin-gonic/gin"
)

const requestTimeout = 10 * time.Second

type IssueController struct {
	issues   *services.IssueService
	comments *services.CommentService
	photos   *services.PhotoService
	respond  *Responder
}

func NewIssueController(issues *services.IssueService, comments *services.CommentService, photos *services.PhotoService, respond *Responder) *IssueController {
	return &IssueController{issues: issues, comments: comments, photos: photos, respond: respond}
}

type createIssueRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Type        models.IssueType    `json:"type" binding:"omitempty,issuetype"`
	Priority    models.Priority     `json:"priority" binding:"omitempty,priority"`
	Location    models.Location     `json:"location"`
	Photos      []models.Attachment `json:"photos" binding:"omitempty,dive"`
	Tags        []string            `json:"tags"`
}

type changeStatusRequest struct {
	Status models.IssueStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

func actor(c *gin.Context, respond *Responder) (models.Actor, bool) {
	a, ok := middlewares.CurrentActor(c)
	if !ok {
		respond.Error(c, apperr.Auth("User not authenticated"))
	}
	return a, ok
}

// CreateIssue handles POST /api/issues
func (h *IssueController) CreateIssue(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}

	var input createIssueRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respond.Error(c, bindError(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := h.issues.Create(ctx, a, services.CreateIssueInput{
		Title:       input.Title,
		Description: input.Description,
		Type:        input.Type,
		Priority:    input.Priority,
		Location:    input.Location,
		Photos:      input.Photos,
		Tags:        input.Tags,
	})
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, issue)
}

// GetAllIssues handles GET /api/issues
func (h *IssueController) GetAllIssues(c *gin.Context) {
	q, err := parseIssueQuery(c)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	page := utils.ParsePage(c.Query("page"), c.Query("limit"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	list, err := h.issues.List(ctx, q, page)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetIssue handles GET /api/issues/:id
func (h *IssueController) GetIssue(c *gin.Context) {
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

	issue, err := h.issues.Get(ctx, id, a)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// UpdateIssue handles PUT /api/issues/:id. Keys outside the patchable set
// are ignored.
func (h *IssueController) UpdateIssue(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		h.respond.Error(c, apperr.Validation("Invalid request body"))
		return
	}
	patch, err := models.ParseIssuePatch(body)
	if err != nil {
		h.respond.Error(c, apperr.Validation(err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := h.issues.UpdateFields(ctx, id, a, patch)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// ChangeStatus handles PATCH /api/issues/:id/status
func (h *IssueController) ChangeStatus(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	var input changeStatusRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respond.Error(c, bindError(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	issue, err := h.issues.ChangeStatus(ctx, id, a, input.Status, input.Note)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, issue)
}

// DeleteIssue handles DELETE /api/issues/:id
func (h *IssueController) DeleteIssue(c *gin.Context) {
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

	if err := h.issues.SoftDelete(ctx, id, a); err != nil {
		h.respond.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetStats handles GET /api/issues/stats
func (h *IssueController) GetStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	stats, err := h.issues.Stats(ctx)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// UploadPhoto handles POST /api/issues/:id/photos (multipart field "photo").
func (h *IssueController) UploadPhoto(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}
	id, err := parseID(c, "id")
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	header, err := c.FormFile("photo")
	if err != nil {
		h.respond.Error(c, apperr.Validation("photo file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		h.respond.Error(c, apperr.Validation("Could not read photo"))
		return
	}
	defer file.Close()

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	photo, err := h.photos.Add(ctx, id, a, services.PhotoUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Caption:     c.PostForm("caption"),
		Body:        file,
	})
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, photo)
}

// GetPhotoURL handles GET /api/issues/:id/photos/:photoId/url
func (h *IssueController) GetPhotoURL(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	photoID, err := parseID(c, "photoId")
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	url, err := h.photos.URL(ctx, id, photoID)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url, "expiresIn": int(services.PhotoURLLifetime.Seconds())})
}

// parseIssueQuery reads list filters. Proximity applies only when lng, lat
// and maxDistance are all present.
func parseIssueQuery(c *gin.Context) (repositories.IssueQuery, error) {
	var q repositories.IssueQuery

	for _, s := range splitList(c.Query("status")) {
		status := models.IssueStatus(s)
		if !status.Valid() {
			return q, apperr.Validation("Invalid status filter")
		}
		q.Statuses = append(q.Statuses, status)
	}
	for _, t := range splitList(c.Query("type")) {
		typ := models.IssueType(t)
		if !typ.Valid() {
			return q, apperr.Validation("Invalid type filter")
		}
		q.Types = append(q.Types, typ)
	}

	var err error
	if q.AssignedTo, err = optionalID(c.Query("assignedTo"), "assignedTo"); err != nil {
		return q, err
	}
	if q.Reporter, err = optionalID(c.Query("reporter"), "reporter"); err != nil {
		return q, err
	}
	if q.After, err = parseTime(c.Query("after"), "after"); err != nil {
		return q, err
	}
	if q.Before, err = parseTime(c.Query("before"), "before"); err != nil {
		return q, err
	}
	q.Text = strings.TrimSpace(c.Query("q"))

	lng, lat, dist := c.Query("lng"), c.Query("lat"), c.Query("maxDistance")
	if lng != "" && lat != "" && dist != "" {
		near := &repositories.GeoNear{}
		if near.Lng, err = strconv.ParseFloat(lng, 64); err != nil || near.Lng < -180 || near.Lng > 180 {
			return q, apperr.Validation("Invalid lng")
		}
		if near.Lat, err = strconv.ParseFloat(lat, 64); err != nil || near.Lat < -90 || near.Lat > 90 {
			return q, apperr.Validation("Invalid lat")
		}
		if near.MaxDistance, err = strconv.ParseFloat(dist, 64); err != nil || near.MaxDistance <= 0 {
			return q, apperr.Validation("Invalid maxDistance")
		}
		q.Near = near
	}
	return q, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseTime accepts RFC 3339 timestamps or plain dates.
func parseTime(raw, name string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Validation("Invalid " + name)
}
