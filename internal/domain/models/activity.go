// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity actions.
const (
	ActionCreated = "created"
	ActionEdited  = "edited"
	ActionJoined  = "joined"
	ActionRemoved = "removed"
)

// Activity target types.
const (
	TargetProgram = "program"
	TargetFolder  = "folder"
	TargetGroup   = "group"
	TargetMember  = "member"
)

// Activity is an append-only log entry describing something a user did.
type Activity struct {
	ID         primitive.ObjectID  `bson:"_id" json:"id"`
	UserID     primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Action     string              `bson:"action" json:"action"`
	TargetType string              `bson:"target_type" json:"target_type"`
	TargetID   *primitive.ObjectID `bson:"target_id,omitempty" json:"target_id,omitempty"`
	TargetName string              `bson:"target_name,omitempty" json:"target_name,omitempty"`
	GroupID    *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
}
