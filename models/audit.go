package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EntityKind identifies the collection an audit record points at.
type EntityKind string

const (
	EntityIssue     EntityKind = "Issue"
	EntityComment   EntityKind = "Comment"
	EntityWorkOrder EntityKind = "WorkOrder"
	EntityUser      EntityKind = "User"
)

// Audit actions
const (
	ActionIssueCreated       = "ISSUE_CREATED"
	ActionIssueUpdated       = "ISSUE_UPDATED"
	ActionIssueStatusChanged = "ISSUE_STATUS_CHANGED"
	ActionIssueDeleted       = "ISSUE_DELETED"
	ActionIssuePhotoAdded    = "ISSUE_PHOTO_ADDED"
	ActionCommentAdded       = "COMMENT_ADDED"
	ActionWorkOrderCreated   = "WORKORDER_CREATED"
	ActionWorkOrderUpdated   = "WORKORDER_UPDATED"
	ActionUserUpdated        = "USER_UPDATED"
)

type EntityRef struct {
	Kind EntityKind         `bson:"kind" json:"kind"`
	ID   primitive.ObjectID `bson:"id" json:"id"`
}

// AuditRecord is append-only: nothing updates or deletes it.
type AuditRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Actor     primitive.ObjectID `bson:"actor" json:"actor"`
	Action    string             `bson:"action" json:"action"`
	Entity    EntityRef          `bson:"entity" json:"entity"`
	Details   map[string]any     `bson:"details,omitempty" json:"details,omitempty"`
	IP        string             `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewAudit stamps the record with the actor and its request metadata.
func NewAudit(actor Actor, action string, kind EntityKind, id primitive.ObjectID, details map[string]any, now time.Time) *AuditRecord {
	return &AuditRecord{
		ID:        primitive.NewObjectID(),
		Actor:     actor.ID,
		Action:    action,
		Entity:    EntityRef{Kind: kind, ID: id},
		Details:   details,
		IP:        actor.IP,
		UserAgent: actor.UserAgent,
		CreatedAt: now,
	}
}
