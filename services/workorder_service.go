package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"urbanfix-be/apperr"
	"urbanfix-be/models"
	"urbanfix-be/notify"
	"urbanfix-be/repositories"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkOrderService manages staff assignments. Work order status never
// changes the issue status.
type WorkOrderService struct {
	orders repositories.WorkOrderRepository
	issues repositories.IssueRepository
	tx     repositories.TxRunner
	audit  auditor
	notify notifier
	now    func() time.Time
}

func NewWorkOrderService(
	orders repositories.WorkOrderRepository,
	issues repositories.IssueRepository,
	audits repositories.AuditRepository,
	tx repositories.TxRunner,
	pub notify.Publisher,
	now func() time.Time,
	log zerolog.Logger,
) *WorkOrderService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &WorkOrderService{
		orders: orders,
		issues: issues,
		tx:     tx,
		audit:  auditor{repo: audits, now: now},
		notify: notifier{pub: pub, log: log, now: now},
		now:    now,
	}
}

type CreateWorkOrderInput struct {
	Issue    primitive.ObjectID
	Assignee primitive.ObjectID
	Status   models.WorkStatus
	ETA      *time.Time
	Notes    string
}

// WorkOrderPatch carries the fields present in an update request.
type WorkOrderPatch struct {
	Status   *models.WorkStatus
	ETA      *time.Time
	// ClearETA removes the ETA; set when the request sends "eta": null.
	ClearETA bool
	Notes    *string
	Assignee *primitive.ObjectID
	// Fields lists the request keys, recorded on the audit entry.
	Fields []string
}

func (s *WorkOrderService) Create(ctx context.Context, actor models.Actor, in CreateWorkOrderInput) (*models.WorkOrder, error) {
	if in.Issue.IsZero() || in.Assignee.IsZero() {
		return nil, apperr.Validation("issue and assignee are required")
	}
	status := in.Status
	if status == "" {
		status = models.WorkAssigned
	}
	if !status.Valid() {
		return nil, apperr.Validation("Invalid status")
	}

	issue, err := s.issues.FindByID(ctx, in.Issue)
	if err != nil {
		return nil, err
	}
	if issue == nil || issue.IsDeleted {
		return nil, apperr.NotFound("Issue not found")
	}

	now := s.now()
	wo := &models.WorkOrder{
		ID:         primitive.NewObjectID(),
		Issue:      issue.ID,
		Assignee:   in.Assignee,
		AssignedBy: actor.ID,
		ETA:        in.ETA,
		Notes:      strings.TrimSpace(in.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	wo.SetStatus(status, now)

	err = runTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.orders.Insert(ctx, wo); err != nil {
			return err
		}
		return s.audit.record(ctx, actor, models.ActionWorkOrderCreated, models.EntityWorkOrder, wo.ID, map[string]any{
			"issue":    wo.Issue,
			"assignee": wo.Assignee,
		})
	})
	if err != nil {
		return nil, err
	}
	return wo, nil
}

func (s *WorkOrderService) Update(ctx context.Context, id primitive.ObjectID, actor models.Actor, patch WorkOrderPatch) (*models.WorkOrder, error) {
	wo, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, apperr.Validation("Invalid status")
	}

	now := s.now()
	previous := wo.Status
	if patch.Status != nil {
		wo.SetStatus(*patch.Status, now)
	}
	switch {
	case patch.ClearETA:
		wo.ETA = nil
	case patch.ETA != nil:
		eta := *patch.ETA
		wo.ETA = &eta
	}
	if patch.Notes != nil {
		wo.Notes = strings.TrimSpace(*patch.Notes)
	}
	if patch.Assignee != nil {
		if patch.Assignee.IsZero() {
			return nil, apperr.Validation("Invalid assignee")
		}
		wo.Assignee = *patch.Assignee
	}
	wo.UpdatedAt = now

	fields := patch.Fields
	if fields == nil {
		fields = []string{}
	}
	err = runTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.orders.Update(ctx, wo); err != nil {
			return err
		}
		return s.audit.record(ctx, actor, models.ActionWorkOrderUpdated, models.EntityWorkOrder, wo.ID, map[string]any{
			"fields": fields,
		})
	})
	if err != nil {
		return nil, err
	}

	if wo.Status != previous {
		s.notify.send(ctx, notify.Event{
			Type:      notify.WorkOrderStatusChanged,
			Recipient: wo.AssignedBy,
			Issue:     wo.Issue,
			Message:   fmt.Sprintf("Work order moved from %s to %s", previous, wo.Status),
			Data:      map[string]any{"workOrder": wo.ID, "status": wo.Status},
		})
	}
	return wo, nil
}

func (s *WorkOrderService) Get(ctx context.Context, id primitive.ObjectID) (*models.WorkOrder, error) {
	wo, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if wo == nil {
		return nil, apperr.NotFound("Work order not found")
	}
	return wo, nil
}

func (s *WorkOrderService) List(ctx context.Context, q repositories.WorkOrderQuery) ([]models.WorkOrder, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, apperr.Validation("Invalid status")
	}
	return s.orders.List(ctx, q)
}
