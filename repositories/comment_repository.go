package repositories

import (
	"context"

	"urbanfix-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CommentsCollection = "comments"

type CommentRepo struct {
	col *mongo.Collection
}

func NewCommentRepo(db *mongo.Database) *CommentRepo {
	return &CommentRepo{col: db.Collection(CommentsCollection)}
}

func (r *CommentRepo) Insert(ctx context.Context, comment *models.Comment) error {
	_, err := r.col.InsertOne(ctx, comment)
	return err
}

// ListByIssue returns the thread oldest first.
func (r *CommentRepo) ListByIssue(ctx context.Context, issueID primitive.ObjectID, includeInternal bool) ([]models.Comment, error) {
	filter := bson.M{"issue": issueID}
	if !includeInternal {
		filter["isInternal"] = false
	}
	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}
