package repositories

import (
	"time"

	"urbanfix-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeoNear restricts results to MaxDistance metres around a point.
type GeoNear struct {
	Lng         float64
	Lat         float64
	MaxDistance float64
}

type IssueQuery struct {
	Statuses   []models.IssueStatus
	Types      []models.IssueType
	AssignedTo *primitive.ObjectID
	Reporter   *primitive.ObjectID
	After      *time.Time
	Before     *time.Time
	Text       string
	Near       *GeoNear
	Skip       int64
	Limit      int64
}

type WorkOrderQuery struct {
	Assignee *primitive.ObjectID
	Issue    *primitive.ObjectID
	Status   models.WorkStatus
}

type AuditQuery struct {
	Kind     models.EntityKind
	EntityID *primitive.ObjectID
	Actor    *primitive.ObjectID
	Skip     int64
	Limit    int64
}

type UserQuery struct {
	Q      string
	Role   models.Role
	Active *bool
	Skip   int64
	Limit  int64
}

type DayCount struct {
	Date  string `bson:"_id" json:"date"`
	Count int64  `bson:"count" json:"count"`
}

type IssueStats struct {
	Total     int64            `json:"total"`
	Open      int64            `json:"open"`
	ByStatus  map[string]int64 `json:"byStatus"`
	ByType    map[string]int64 `json:"byType"`
	Last7Days []DayCount       `json:"last7Days"`
}
