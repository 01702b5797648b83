package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkStatus enum
type WorkStatus string

const (
	WorkPending    WorkStatus = "PENDING"
	WorkAssigned   WorkStatus = "ASSIGNED"
	WorkInProgress WorkStatus = "IN_PROGRESS"
	WorkOnHold     WorkStatus = "ON_HOLD"
	WorkDone       WorkStatus = "DONE"
	WorkCancelled  WorkStatus = "CANCELLED"
)

var WorkStatuses = []WorkStatus{WorkPending, WorkAssigned, WorkInProgress, WorkOnHold, WorkDone, WorkCancelled}

func (s WorkStatus) Valid() bool {
	for _, v := range WorkStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// WorkOrder is a staff assignment against an issue. Its status is independent
// of the issue status.
type WorkOrder struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Issue       primitive.ObjectID `bson:"issue" json:"issue"`
	Assignee    primitive.ObjectID `bson:"assignee" json:"assignee"`
	AssignedBy  primitive.ObjectID `bson:"assignedBy" json:"assignedBy"`
	Status      WorkStatus         `bson:"status" json:"status"`
	ETA         *time.Time         `bson:"eta,omitempty" json:"eta,omitempty"`
	StartedAt   *time.Time         `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SetStatus updates the status and stamps startedAt / completedAt once.
func (w *WorkOrder) SetStatus(status WorkStatus, at time.Time) {
	w.Status = status
	switch status {
	case WorkInProgress:
		if w.StartedAt == nil {
			w.StartedAt = &at
		}
	case WorkDone:
		if w.CompletedAt == nil {
			w.CompletedAt = &at
		}
	}
}
