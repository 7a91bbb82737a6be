package repository

import (
	"context"
	"time"

	"github.com/hobbiz/hobbiz-backend/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const alertsCollection = "alerts"

// AlertRepository is append/read only.
type AlertRepository interface {
	Insert(ctx context.Context, a *model.Alert) error
	List(ctx context.Context, username string, limit int64) ([]model.Alert, error)
}

type alertRepository struct {
	coll *mongo.Collection
}

func NewAlertRepository(db *mongo.Database) AlertRepository {
	if db == nil {
		return &alertRepository{}
	}
	return &alertRepository{coll: db.Collection(alertsCollection)}
}

func (r *alertRepository) Insert(ctx context.Context, a *model.Alert) error {
	if r.coll == nil {
		return ErrDBNotReady
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	res, err := r.coll.InsertOne(ctx, a)
	if err != nil {
		return err
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = id
	}
	return nil
}

func (r *alertRepository) List(ctx context.Context, username string, limit int64) ([]model.Alert, error) {
	if r.coll == nil {
		return nil, ErrDBNotReady
	}
	filter := bson.M{}
	if username != "" {
		filter["username"] = username
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	list := make([]model.Alert, 0)
	if err := cur.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}
