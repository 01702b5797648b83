package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestIssue() *Issue {
	return NewIssue(primitive.NewObjectID(), "Pothole", Pothole, Location{Geo: NewGeoPoint(153.02, -27.47)}, t0)
}

func TestNewIssue(t *testing.T) {
	issue := newTestIssue()

	assert.Equal(t, StatusOpen, issue.Status)
	assert.Equal(t, PriorityMedium, issue.Priority)
	assert.Equal(t, t0, issue.OpenedAt)
	assert.Empty(t, issue.StatusHistory)
	assert.NotNil(t, issue.StatusHistory)
	assert.Nil(t, issue.StartedAt)
	assert.Nil(t, issue.ResolvedAt)
	assert.Nil(t, issue.ClosedAt)
}

func TestSetStatus_OneEntryPerCall(t *testing.T) {
	issue := newTestIssue()
	by := primitive.NewObjectID()

	added := issue.SetStatus(StatusResolved, by, "", t0.Add(time.Hour), false)
	require.Len(t, added, 1)
	assert.Len(t, issue.StatusHistory, 1)
	require.NotNil(t, issue.ResolvedAt)
	assert.Equal(t, t0.Add(time.Hour), *issue.ResolvedAt)

	issue.SetStatus(StatusResolved, by, "", t0.Add(2*time.Hour), false)
	assert.Len(t, issue.StatusHistory, 2)
	assert.Equal(t, t0.Add(time.Hour), *issue.ResolvedAt)
}

func TestSetStatus_NoteOnSingleEntry(t *testing.T) {
	issue := newTestIssue()

	added := issue.SetStatus(StatusInProgress, primitive.NewObjectID(), "crew dispatched", t0, false)

	require.Len(t, added, 1)
	assert.Equal(t, "crew dispatched", added[0].Note)
	assert.Equal(t, StatusInProgress, added[0].Status)
}

func TestSetStatus_SplitNote(t *testing.T) {
	issue := newTestIssue()
	by := primitive.NewObjectID()

	added := issue.SetStatus(StatusInProgress, by, "crew dispatched", t0, true)
	require.Len(t, added, 2)
	assert.Empty(t, added[0].Note)
	assert.Equal(t, "crew dispatched", added[1].Note)
	assert.Equal(t, by, added[1].By)

	added = issue.SetStatus(StatusResolved, by, "", t0, true)
	assert.Len(t, added, 1)
	assert.Len(t, issue.StatusHistory, 3)
}

func TestSetStatus_PhaseTimestampsSetOnce(t *testing.T) {
	issue := newTestIssue()
	by := primitive.NewObjectID()

	issue.SetStatus(StatusInProgress, by, "", t0, false)
	issue.SetStatus(StatusOpen, by, "", t0.Add(time.Minute), false)
	issue.SetStatus(StatusInProgress, by, "", t0.Add(2*time.Minute), false)
	issue.SetStatus(StatusClosed, by, "", t0.Add(3*time.Minute), false)
	issue.SetStatus(StatusOpen, by, "", t0.Add(4*time.Minute), false)
	issue.SetStatus(StatusClosed, by, "", t0.Add(5*time.Minute), false)

	assert.Equal(t, t0, *issue.StartedAt)
	assert.Equal(t, t0.Add(3*time.Minute), *issue.ClosedAt)
	assert.Nil(t, issue.ResolvedAt)
	assert.Equal(t, t0.Add(5*time.Minute), issue.UpdatedAt)
	assert.Len(t, issue.StatusHistory, 6)
}

func TestLocationValid(t *testing.T) {
	tests := []struct {
		name string
		loc  Location
		want bool
	}{
		{"valid", Location{Geo: NewGeoPoint(153.02, -27.47)}, true},
		{"missing type", Location{Geo: GeoPoint{Coordinates: []float64{1, 2}}}, false},
		{"lng out of range", Location{Geo: NewGeoPoint(181, 0)}, false},
		{"lat out of range", Location{Geo: NewGeoPoint(0, -91)}, false},
		{"single coordinate", Location{Geo: GeoPoint{Type: "Point", Coordinates: []float64{1}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.Valid())
		})
	}
}

func TestLocationNormalize(t *testing.T) {
	loc := Location{Geo: GeoPoint{Coordinates: []float64{1, 2}}, Suburb: "  Fortitude Valley "}
	loc.Normalize()

	assert.Equal(t, "Point", loc.Geo.Type)
	assert.Equal(t, "Fortitude Valley", loc.Suburb)
	assert.True(t, loc.Valid())
}

func TestParseIssuePatch(t *testing.T) {
	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{
		"title": "Broken light",
		"priority": "HIGH",
		"tags": ["night"],
		"status": "CLOSED",
		"reporter": "507f1f77bcf86cd799439011"
	}`), &body))

	patch, err := ParseIssuePatch(body)
	require.NoError(t, err)

	assert.Equal(t, "Broken light", *patch.Title)
	assert.Equal(t, PriorityHigh, *patch.Priority)
	assert.Equal(t, []string{"night"}, *patch.Tags)
	assert.Equal(t, []string{"title", "priority", "tags"}, patch.Fields())
}

func TestParseIssuePatch_Assignee(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		unassign bool
		assigned bool
		wantErr  bool
	}{
		{"null unassigns", `{"assignedTo": null}`, true, false, false},
		{"empty unassigns", `{"assignedTo": ""}`, true, false, false},
		{"hex assigns", `{"assignedTo": "507f1f77bcf86cd799439011"}`, false, true, false},
		{"bad hex", `{"assignedTo": "nope"}`, false, false, true},
		{"wrong type", `{"assignedTo": 12}`, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(tt.body), &body))

			patch, err := ParseIssuePatch(body)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.unassign, patch.Unassign)
			assert.Equal(t, tt.assigned, patch.AssignedTo != nil)
			assert.Equal(t, []string{"assignedTo"}, patch.Fields())
		})
	}
}

func TestParseIssuePatch_DuplicateOf(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		clear   bool
		marked  bool
		wantErr bool
	}{
		{"null clears", `{"duplicateOf": null}`, true, false, false},
		{"empty clears", `{"duplicateOf": ""}`, true, false, false},
		{"hex marks", `{"duplicateOf": "507f1f77bcf86cd799439011"}`, false, true, false},
		{"bad hex", `{"duplicateOf": "nope"}`, false, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(tt.body), &body))

			patch, err := ParseIssuePatch(body)
			if tt.wantErr {
				assert.EqualError(t, err, "duplicateOf must be a valid issue id")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.clear, patch.ClearDuplicate)
			assert.Equal(t, tt.marked, patch.DuplicateOf != nil)
			assert.Equal(t, []string{"duplicateOf"}, patch.Fields())
		})
	}
}

func TestWorkOrderSetStatus(t *testing.T) {
	wo := &WorkOrder{Status: WorkAssigned}

	wo.SetStatus(WorkInProgress, t0)
	wo.SetStatus(WorkOnHold, t0.Add(time.Hour))
	wo.SetStatus(WorkInProgress, t0.Add(2*time.Hour))
	wo.SetStatus(WorkDone, t0.Add(3*time.Hour))

	assert.Equal(t, t0, *wo.StartedAt)
	assert.Equal(t, t0.Add(3*time.Hour), *wo.CompletedAt)
	assert.Equal(t, WorkDone, wo.Status)
}

func TestUserPassword(t *testing.T) {
	u := &User{Password: "secret1"}
	require.NoError(t, u.HashPassword())

	assert.NotEqual(t, "secret1", u.Password)
	assert.True(t, u.ComparePassword("secret1"))
	assert.False(t, u.ComparePassword("secret2"))
}

func TestNormalizeAttachments(t *testing.T) {
	by := primitive.NewObjectID()
	out := NormalizeAttachments([]Attachment{{Key: "a.jpg"}}, by, t0)

	require.Len(t, out, 1)
	assert.False(t, out[0].ID.IsZero())
	assert.Equal(t, StorageLocal, out[0].Storage)
	assert.Equal(t, by, *out[0].UploadedBy)
	assert.Equal(t, t0, out[0].CreatedAt)

	spoofed := primitive.NewObjectID()
	earlier := t0.AddDate(-1, 0, 0)
	out = NormalizeAttachments([]Attachment{{ID: spoofed, Key: "b.jpg", Storage: StorageGCS, UploadedBy: &spoofed, CreatedAt: earlier}}, by, t0)
	assert.NotEqual(t, spoofed, out[0].ID)
	assert.Equal(t, StorageGCS, out[0].Storage)
	assert.Equal(t, by, *out[0].UploadedBy)
	assert.Equal(t, t0, out[0].CreatedAt)
}

func TestAttachmentStorage_Valid(t *testing.T) {
	assert.True(t, StorageS3.Valid())
	assert.True(t, StorageGridFS.Valid())
	assert.False(t, AttachmentStorage("ftp").Valid())
	assert.False(t, AttachmentStorage("").Valid())
}
