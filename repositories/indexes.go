package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the geo, text and listing indexes. CreateMany is a
// no-op for indexes that already exist with the same keys and options.
func EnsureIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	specs := map[string][]mongo.IndexModel{
		IssuesCollection: {
			{Keys: bson.D{{Key: "location.geo", Value: "2dsphere"}}},
			{Keys: bson.D{
				{Key: "title", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "tags", Value: "text"},
			}},
			{Keys: bson.D{
				{Key: "type", Value: 1},
				{Key: "status", Value: 1},
				{Key: "priority", Value: 1},
				{Key: "openedAt", Value: -1},
			}},
			{Keys: bson.D{{Key: "reporter", Value: 1}, {Key: "openedAt", Value: -1}}},
			{Keys: bson.D{{Key: "assignedTo", Value: 1}, {Key: "status", Value: 1}}},
		},
		CommentsCollection: {
			{Keys: bson.D{{Key: "issue", Value: 1}, {Key: "createdAt", Value: 1}}},
		},
		WorkOrdersCollection: {
			{Keys: bson.D{{Key: "assignee", Value: 1}, {Key: "status", Value: 1}, {Key: "eta", Value: 1}}},
		},
		AuditsCollection: {
			{Keys: bson.D{{Key: "entity.kind", Value: 1}, {Key: "entity.id", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, indexes := range specs {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return err
		}
	}
	return nil
}
