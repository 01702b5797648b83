package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueType enum
type IssueType string

const (
	Pothole     IssueType = "POTHOLE"
	StreetLight IssueType = "STREET_LIGHT"
	Graffiti    IssueType = "GRAFFITI"
	Trash       IssueType = "TRASH"
	WaterLeak   IssueType = "WATER_LEAK"
	Sidewalk    IssueType = "SIDEWALK"
	Signage     IssueType = "SIGNAGE"
	OtherType   IssueType = "OTHER"
)

var IssueTypes = []IssueType{Pothole, StreetLight, Graffiti, Trash, WaterLeak, Sidewalk, Signage, OtherType}

func (t IssueType) Valid() bool {
	for _, v := range IssueTypes {
		if v == t {
			return true
		}
	}
	return false
}

// IssueStatus enum
type IssueStatus string

const (
	StatusOpen       IssueStatus = "OPEN"
	StatusInProgress IssueStatus = "IN_PROGRESS"
	StatusResolved   IssueStatus = "RESOLVED"
	StatusClosed     IssueStatus = "CLOSED"
	StatusRejected   IssueStatus = "REJECTED"
)

var IssueStatuses = []IssueStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed, StatusRejected}

func (s IssueStatus) Valid() bool {
	for _, v := range IssueStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Priority enum
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if v == p {
			return true
		}
	}
	return false
}

const (
	MaxTitleLength       = 140
	MaxDescriptionLength = 5000
)

// GeoPoint is a GeoJSON point; Coordinates is [lng, lat].
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

func NewGeoPoint(lng, lat float64) GeoPoint {
	return GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}

// Valid reports whether the point holds a [lng, lat] pair within range.
func (g GeoPoint) Valid() bool {
	if len(g.Coordinates) != 2 {
		return false
	}
	lng, lat := g.Coordinates[0], g.Coordinates[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

type Location struct {
	Geo      GeoPoint `bson:"geo" json:"geo"`
	Address  string   `bson:"address,omitempty" json:"address,omitempty"`
	Suburb   string   `bson:"suburb,omitempty" json:"suburb,omitempty"`
	Postcode string   `bson:"postcode,omitempty" json:"postcode,omitempty"`
	Council  string   `bson:"council,omitempty" json:"council,omitempty"`
}

// Normalize trims the text fields and defaults the GeoJSON type.
func (l *Location) Normalize() {
	if l.Geo.Type == "" {
		l.Geo.Type = "Point"
	}
	l.Address = strings.TrimSpace(l.Address)
	l.Suburb = strings.TrimSpace(l.Suburb)
	l.Postcode = strings.TrimSpace(l.Postcode)
	l.Council = strings.TrimSpace(l.Council)
}

func (l Location) Valid() bool {
	return l.Geo.Type == "Point" && l.Geo.Valid()
}

// StatusEvent is one entry of an issue's status history.
type StatusEvent struct {
	Status IssueStatus        `bson:"status" json:"status"`
	Note   string             `bson:"note,omitempty" json:"note,omitempty"`
	By     primitive.ObjectID `bson:"by" json:"by"`
	At     time.Time          `bson:"at" json:"at"`
}

// Issue represents an infrastructure problem reported by a citizen
type Issue struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title         string              `bson:"title" json:"title"`
	Description   string              `bson:"description" json:"description"`
	Type          IssueType           `bson:"type" json:"type"`
	Status        IssueStatus         `bson:"status" json:"status"`
	Priority      Priority            `bson:"priority" json:"priority"`
	Reporter      primitive.ObjectID  `bson:"reporter" json:"reporter"`
	AssignedTo    *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Location      Location            `bson:"location" json:"location"`
	Photos        []Attachment        `bson:"photos" json:"photos"`
	OpenedAt      time.Time           `bson:"openedAt" json:"openedAt"`
	StartedAt     *time.Time          `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	ResolvedAt    *time.Time          `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	ClosedAt      *time.Time          `bson:"closedAt,omitempty" json:"closedAt,omitempty"`
	StatusHistory []StatusEvent       `bson:"statusHistory" json:"statusHistory"`
	Tags          []string            `bson:"tags" json:"tags"`
	DuplicateOf   *primitive.ObjectID `bson:"duplicateOf,omitempty" json:"duplicateOf,omitempty"`
	IsDeleted     bool                `bson:"isDeleted" json:"isDeleted"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// NewIssue builds an OPEN issue with an empty history.
func NewIssue(reporter primitive.ObjectID, title string, typ IssueType, loc Location, now time.Time) *Issue {
	return &Issue{
		ID:            primitive.NewObjectID(),
		Title:         title,
		Type:          typ,
		Status:        StatusOpen,
		Priority:      PriorityMedium,
		Reporter:      reporter,
		Location:      loc,
		Photos:        []Attachment{},
		OpenedAt:      now,
		StatusHistory: []StatusEvent{},
		Tags:          []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetStatus is the only way status changes. Every call appends one history
// entry for the new status and stamps the phase timestamps on first entry
// into a phase. The appended entries are returned so the caller can persist
// them with $push.
//
// With splitNote a non-empty note is recorded as a second entry instead of
// on the generated one.
func (i *Issue) SetStatus(status IssueStatus, by primitive.ObjectID, note string, at time.Time, splitNote bool) []StatusEvent {
	i.Status = status

	entry := StatusEvent{Status: status, By: by, At: at}
	if !splitNote {
		entry.Note = note
	}
	added := []StatusEvent{entry}
	if splitNote && note != "" {
		added = append(added, StatusEvent{Status: status, Note: note, By: by, At: at})
	}
	i.StatusHistory = append(i.StatusHistory, added...)

	switch status {
	case StatusInProgress:
		if i.StartedAt == nil {
			i.StartedAt = &at
		}
	case StatusResolved:
		if i.ResolvedAt == nil {
			i.ResolvedAt = &at
		}
	case StatusClosed:
		if i.ClosedAt == nil {
			i.ClosedAt = &at
		}
	}
	i.UpdatedAt = at
	return added
}

// IssueDetail is the view returned by GET /issues/:id. Reporter replaces the
// bare id of the embedded issue in JSON output.
type IssueDetail struct {
	*Issue
	Reporter UserSummary   `json:"reporter"`
	Comments []CommentView `json:"comments"`
}
