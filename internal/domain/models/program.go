// internal/domain/models/program.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program is a titled source file.
//
// Personal programs (IsGroupProgram=false) belong to UserID alone.
// Group programs are shared with every member of GroupID; UserID records the author.
type Program struct {
	ID             primitive.ObjectID  `bson:"_id" json:"id"`
	Title          string              `bson:"title" json:"title"`
	Language       Language            `bson:"language" json:"language"`
	Code           string              `bson:"code" json:"code"`
	FolderID       *primitive.ObjectID `bson:"folder_id,omitempty" json:"folder_id,omitempty"`
	UserID         primitive.ObjectID  `bson:"user_id" json:"user_id"`
	GroupID        *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`
	IsGroupProgram bool                `bson:"is_group_program" json:"is_group_program"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
