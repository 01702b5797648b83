package repositories

import (
	"context"

	"urbanfix-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const AuditsCollection = "audits"

// AuditRepo only inserts and reads; records are never changed.
type AuditRepo struct {
	col *mongo.Collection
}

func NewAuditRepo(db *mongo.Database) *AuditRepo {
	return &AuditRepo{col: db.Collection(AuditsCollection)}
}

func (r *AuditRepo) Insert(ctx context.Context, rec *models.AuditRecord) error {
	_, err := r.col.InsertOne(ctx, rec)
	return err
}

func (r *AuditRepo) List(ctx context.Context, q AuditQuery) ([]models.AuditRecord, int64, error) {
	filter := AuditFilter(q)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(q.Skip).
		SetLimit(q.Limit)
	cursor, err := r.col.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	records := []models.AuditRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func AuditFilter(q AuditQuery) bson.M {
	filter := bson.M{}
	if q.Kind != "" {
		filter["entity.kind"] = q.Kind
	}
	if q.EntityID != nil {
		filter["entity.id"] = *q.EntityID
	}
	if q.Actor != nil {
		filter["actor"] = *q.Actor
	}
	return filter
}
