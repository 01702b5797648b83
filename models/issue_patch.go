package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PatchableIssueFields is the allow-list for partial issue updates. Any other
// key in an update body is ignored.
var PatchableIssueFields = []string{"title", "description", "type", "priority", "location", "tags", "assignedTo", "duplicateOf"}

// IssuePatch holds the allow-listed fields present in an update request.
// A nil pointer means the field was absent.
type IssuePatch struct {
	Title       *string
	Description *string
	Type        *IssueType
	Priority    *Priority
	Location    *Location
	Tags        *[]string
	AssignedTo  *primitive.ObjectID
	// Unassign marks an explicit null or empty assignedTo.
	Unassign    bool
	DuplicateOf *primitive.ObjectID
	// ClearDuplicate marks an explicit null or empty duplicateOf.
	ClearDuplicate bool
}

// ParseIssuePatch decodes allow-listed keys from a raw JSON object.
func ParseIssuePatch(body map[string]json.RawMessage) (IssuePatch, error) {
	var p IssuePatch
	for _, key := range PatchableIssueFields {
		raw, ok := body[key]
		if !ok {
			continue
		}
		var err error
		switch key {
		case "title":
			p.Title = new(string)
			err = json.Unmarshal(raw, p.Title)
		case "description":
			p.Description = new(string)
			err = json.Unmarshal(raw, p.Description)
		case "type":
			p.Type = new(IssueType)
			err = json.Unmarshal(raw, p.Type)
		case "priority":
			p.Priority = new(Priority)
			err = json.Unmarshal(raw, p.Priority)
		case "location":
			p.Location = new(Location)
			err = json.Unmarshal(raw, p.Location)
		case "tags":
			tags := []string{}
			err = json.Unmarshal(raw, &tags)
			p.Tags = &tags
		case "assignedTo":
			if isNull(raw) {
				p.Unassign = true
				continue
			}
			var hex string
			if err = json.Unmarshal(raw, &hex); err != nil {
				break
			}
			if hex == "" {
				p.Unassign = true
				continue
			}
			id, perr := primitive.ObjectIDFromHex(hex)
			if perr != nil {
				return p, fmt.Errorf("assignedTo must be a valid user id")
			}
			p.AssignedTo = &id
		case "duplicateOf":
			if isNull(raw) {
				p.ClearDuplicate = true
				continue
			}
			var hex string
			if err = json.Unmarshal(raw, &hex); err != nil {
				break
			}
			if hex == "" {
				p.ClearDuplicate = true
				continue
			}
			id, perr := primitive.ObjectIDFromHex(hex)
			if perr != nil {
				return p, fmt.Errorf("duplicateOf must be a valid issue id")
			}
			p.DuplicateOf = &id
		}
		if err != nil {
			return p, fmt.Errorf("invalid value for %s", key)
		}
	}
	return p, nil
}

// Fields lists the keys present in the patch, in allow-list order.
func (p IssuePatch) Fields() []string {
	present := map[string]bool{
		"title":       p.Title != nil,
		"description": p.Description != nil,
		"type":        p.Type != nil,
		"priority":    p.Priority != nil,
		"location":    p.Location != nil,
		"tags":        p.Tags != nil,
		"assignedTo":  p.AssignedTo != nil || p.Unassign,
		"duplicateOf": p.DuplicateOf != nil || p.ClearDuplicate,
	}
	fields := make([]string, 0, len(PatchableIssueFields))
	for _, f := range PatchableIssueFields {
		if present[f] {
			fields = append(fields, f)
		}
	}
	return fields
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
