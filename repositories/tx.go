package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

// MongoTx runs fn inside a session transaction. Requires a replica set.
type MongoTx struct {
	client *mongo.Client
}

func NewMongoTx(client *mongo.Client) *MongoTx {
	return &MongoTx{client: client}
}

func (t *MongoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// NoTx runs fn directly; each write commits on its own.
type NoTx struct{}

func (NoTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
