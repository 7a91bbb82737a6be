package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert is an append-only free-text record kept in MongoDB.
type Alert struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username  string             `bson:"username" json:"username"`
	Alert     string             `bson:"alert" json:"alert"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}
