package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/repositories"
	"urbanfix-be/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkOrderController struct {
	orders  *services.WorkOrderService
	respond *Responder
}

func NewWorkOrderController(orders *services.WorkOrderService, respond *Responder) *WorkOrderController {
	return &WorkOrderController{orders: orders, respond: respond}
}

type createWorkOrderRequest struct {
	Issue    string            `json:"issue" binding:"required"`
	Assignee string            `json:"assignee" binding:"required"`
	Status   models.WorkStatus `json:"status" binding:"omitempty,workstatus"`
	ETA      *time.Time        `json:"eta"`
	Notes    string            `json:"notes"`
}

// CreateWorkOrder handles POST /api/workorders
func (h *WorkOrderController) CreateWorkOrder(c *gin.Context) {
	a, ok := actor(c, h.respond)
	if !ok {
		return
	}

	var input createWorkOrderRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		h.respond.Error(c, bindError(err))
		return
	}
	issueID, err := primitive.ObjectIDFromHex(input.Issue)
	if err != nil {
		h.respond.Error(c, apperr.Validation("Invalid issue"))
		return
	}
	assignee, err := primitive.ObjectIDFromHex(input.Assignee)
	if err != nil {
		h.respond.Error(c, apperr.Validation("Invalid assignee"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	wo, err := h.orders.Create(ctx, a, services.CreateWorkOrderInput{
		Issue:    issueID,
		Assignee: assignee,
		Status:   input.Status,
		ETA:      input.ETA,
		Notes:    input.Notes,
	})
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, wo)
}

// GetWorkOrders handles GET /api/workorders?assignee=&issue=&status=
func (h *WorkOrderController) GetWorkOrders(c *gin.Context) {
	var q repositories.WorkOrderQuery
	var err error
	if q.Assignee, err = optionalID(c.Query("assignee"), "assignee"); err != nil {
		h.respond.Error(c, err)
		return
	}
	if q.Issue, err = optionalID(c.Query("issue"), "issue"); err != nil {
		h.respond.Error(c, err)
		return
	}
	q.Status = models.WorkStatus(c.Query("status"))

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	orders, err := h.orders.List(ctx, q)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetWorkOrder handles GET /api/workorders/:id
func (h *WorkOrderController) GetWorkOrder(c *gin.Context) {
	id, err := parseID(c, "id")
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	wo, err := h.orders.Get(ctx, id)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

// UpdateWorkOrder handles PUT and PATCH /api/workorders/:id
func (h *WorkOrderController) UpdateWorkOrder(c *gin.Context) {
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
	patch, err := parseWorkOrderPatch(body)
	if err != nil {
		h.respond.Error(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	wo, err := h.orders.Update(ctx, id, a, patch)
	if err != nil {
		h.respond.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, wo)
}

func parseWorkOrderPatch(body map[string]json.RawMessage) (services.WorkOrderPatch, error) {
	patch := services.WorkOrderPatch{Fields: []string{}}
	for _, key := range []string{"status", "eta", "notes", "assignee"} {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var err error
		switch key {
		case "status":
			patch.Status = new(models.WorkStatus)
			err = json.Unmarshal(raw, patch.Status)
		case "eta":
			if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				patch.ClearETA = true
				break
			}
			patch.ETA = new(time.Time)
			err = json.Unmarshal(raw, patch.ETA)
		case "notes":
			patch.Notes = new(string)
			err = json.Unmarshal(raw, patch.Notes)
		case "assignee":
			var hex string
			if err = json.Unmarshal(raw, &hex); err == nil {
				id, perr := primitive.ObjectIDFromHex(hex)
				if perr != nil {
					return patch, apperr.Validation("Invalid assignee")
				}
				patch.Assignee = &id
			}
		}
		if err != nil {
			return patch, apperr.Validation("Invalid " + key)
		}
		patch.Fields = append(patch.Fields, key)
	}
	return patch, nil
}
