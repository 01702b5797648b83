package repositories

import (
	"context"
	"errors"

	"urbanfix-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const WorkOrdersCollection = "workorders"

type WorkOrderRepo struct {
	col *mongo.Collection
}

func NewWorkOrderRepo(db *mongo.Database) *WorkOrderRepo {
	return &WorkOrderRepo{col: db.Collection(WorkOrdersCollection)}
}

func (r *WorkOrderRepo) Insert(ctx context.Context, wo *models.WorkOrder) error {
	_, err := r.col.InsertOne(ctx, wo)
	return err
}

func (r *WorkOrderRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.WorkOrder, error) {
	var wo models.WorkOrder
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&wo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &wo, nil
}

func (r *WorkOrderRepo) Update(ctx context.Context, wo *models.WorkOrder) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": wo.ID}, wo)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *WorkOrderRepo) List(ctx context.Context, q WorkOrderQuery) ([]models.WorkOrder, error) {
	cursor, err := r.col.Find(ctx, WorkOrderFilter(q), options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	orders := []models.WorkOrder{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func WorkOrderFilter(q WorkOrderQuery) bson.M {
	filter := bson.M{}
	if q.Assignee != nil {
		filter["assignee"] = *q.Assignee
	}
	if q.Issue != nil {
		filter["issue"] = *q.Issue
	}
	if q.Status != "" {
		filter["status"] = q.Status
	}
	return filter
}
