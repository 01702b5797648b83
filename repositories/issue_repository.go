package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"urbanfix-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	IssuesCollection = "issues"

	// earthRadiusMeters converts metres to radians for $centerSphere.
	earthRadiusMeters = 6378100.0
)

type IssueRepo struct {
	col *mongo.Collection
}

func NewIssueRepo(db *mongo.Database) *IssueRepo {
	return &IssueRepo{col: db.Collection(IssuesCollection)}
}

func (r *IssueRepo) Insert(ctx context.Context, issue *models.Issue) error {
	_, err := r.col.InsertOne(ctx, issue)
	return err
}

func (r *IssueRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &issue, nil
}

func (r *IssueRepo) SaveStatus(ctx context.Context, issue *models.Issue, added []models.StatusEvent) error {
	set := bson.M{
		"status":    issue.Status,
		"updatedAt": issue.UpdatedAt,
	}
	if issue.StartedAt != nil {
		set["startedAt"] = issue.StartedAt
	}
	if issue.ResolvedAt != nil {
		set["resolvedAt"] = issue.ResolvedAt
	}
	if issue.ClosedAt != nil {
		set["closedAt"] = issue.ClosedAt
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"statusHistory": bson.M{"$each": added}},
	}
	return r.updateOne(ctx, issue.ID, update)
}

func (r *IssueRepo) Update(ctx context.Context, issue *models.Issue, fields []string) error {
	set := bson.M{"updatedAt": issue.UpdatedAt}
	unset := bson.M{}
	for _, f := range fields {
		switch f {
		case "title":
			set["title"] = issue.Title
		case "description":
			set["description"] = issue.Description
		case "type":
			set["type"] = issue.Type
		case "priority":
			set["priority"] = issue.Priority
		case "location":
			set["location"] = issue.Location
		case "tags":
			set["tags"] = issue.Tags
		case "assignedTo":
			if issue.AssignedTo == nil {
				unset["assignedTo"] = ""
			} else {
				set["assignedTo"] = issue.AssignedTo
			}
		case "duplicateOf":
			if issue.DuplicateOf == nil {
				unset["duplicateOf"] = ""
			} else {
				set["duplicateOf"] = issue.DuplicateOf
			}
		default:
			return fmt.Errorf("issue field %q is not updatable", f)
		}
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return r.updateOne(ctx, issue.ID, update)
}

func (r *IssueRepo) SoftDelete(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.updateOne(ctx, id, bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": at}})
}

func (r *IssueRepo) AddPhoto(ctx context.Context, id primitive.ObjectID, photo models.Attachment, at time.Time) error {
	return r.updateOne(ctx, id, bson.M{
		"$push": bson.M{"photos": photo},
		"$set":  bson.M{"updatedAt": at},
	})
}

func (r *IssueRepo) updateOne(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *IssueRepo) List(ctx context.Context, q IssueQuery) ([]models.Issue, error) {
	findOptions := options.Find().
		SetSkip(q.Skip).
		SetLimit(q.Limit)
	if sort := issueSort(q); sort != nil {
		findOptions.SetSort(sort)
	}
	if q.Text != "" {
		findOptions.SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}})
	}

	cursor, err := r.col.Find(ctx, IssueFilter(q, false), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *IssueRepo) Count(ctx context.Context, q IssueQuery) (int64, error) {
	return r.col.CountDocuments(ctx, IssueFilter(q, true))
}

// IssueFilter builds the Mongo filter for a listing. $near is not accepted by
// countDocuments nor next to $text, so in those cases the proximity clause is
// expressed with $geoWithin/$centerSphere, which selects the same documents.
func IssueFilter(q IssueQuery, forCount bool) bson.M {
	filter := bson.M{"isDeleted": false}

	if len(q.Statuses) > 0 {
		filter["status"] = bson.M{"$in": q.Statuses}
	}
	if len(q.Types) > 0 {
		filter["type"] = bson.M{"$in": q.Types}
	}
	if q.AssignedTo != nil {
		filter["assignedTo"] = *q.AssignedTo
	}
	if q.Reporter != nil {
		filter["reporter"] = *q.Reporter
	}
	if q.After != nil || q.Before != nil {
		created := bson.M{}
		if q.After != nil {
			created["$gte"] = *q.After
		}
		if q.Before != nil {
			created["$lte"] = *q.Before
		}
		filter["createdAt"] = created
	}
	if q.Text != "" {
		filter["$text"] = bson.M{"$search": q.Text}
	}
	if q.Near != nil {
		center := bson.A{q.Near.Lng, q.Near.Lat}
		if forCount || q.Text != "" {
			filter["location.geo"] = bson.M{
				"$geoWithin": bson.M{"$centerSphere": bson.A{center, q.Near.MaxDistance / earthRadiusMeters}},
			}
		} else {
			filter["location.geo"] = bson.M{
				"$near": bson.M{
					"$geometry":    bson.M{"type": "Point", "coordinates": center},
					"$maxDistance": q.Near.MaxDistance,
				},
			}
		}
	}
	return filter
}

// issueSort returns nil when $near already orders by distance.
func issueSort(q IssueQuery) bson.D {
	switch {
	case q.Text != "":
		return bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}, {Key: "createdAt", Value: -1}}
	case q.Near != nil:
		return nil
	default:
		return bson.D{{Key: "createdAt", Value: -1}}
	}
}

// Stats aggregates the staff dashboard numbers over live issues.
func (r *IssueRepo) Stats(ctx context.Context, since time.Time) (*IssueStats, error) {
	live := bson.M{"isDeleted": false}
	stats := &IssueStats{ByStatus: map[string]int64{}, ByType: map[string]int64{}}

	byStatus, err := r.groupCount(ctx, live, "$status")
	if err != nil {
		return nil, err
	}
	for k, v := range byStatus {
		stats.ByStatus[k] = v
		stats.Total += v
		if k == string(models.StatusOpen) || k == string(models.StatusInProgress) {
			stats.Open += v
		}
	}

	byType, err := r.groupCount(ctx, live, "$type")
	if err != nil {
		return nil, err
	}
	stats.ByType = byType

	dailyPipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"isDeleted": false, "createdAt": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": "$createdAt"}},
			"count": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cursor, err := r.col.Aggregate(ctx, dailyPipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	stats.Last7Days = []DayCount{}
	if err := cursor.All(ctx, &stats.Last7Days); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *IssueRepo) groupCount(ctx context.Context, match bson.M, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{"_id": field, "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.ID] = row.Count
	}
	return out, nil
}
