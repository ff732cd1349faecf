// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"

	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Role returns the user's role in the group, or "" when they are not a
// member, according to the authoritative group_members collection.
func Role(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (string, error) {
	var m models.GroupMembership
	err := db.Collection("group_members").FindOne(ctx, bson.M{
		"group_id": groupID,
		"user_id":  userID,
	}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.Role, nil
}

// IsMember reports whether the user belongs to the group in any role.
// An error means the check itself failed, not that access is denied.
func IsMember(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	role, err := Role(ctx, db, groupID, userID)
	return role != "", err
}

// IsAdmin reports whether the user administers the group.
func IsAdmin(ctx context.Context, db *mongo.Database, groupID, userID primitive.ObjectID) (bool, error) {
	role, err := Role(ctx, db, groupID, userID)
	return role == models.RoleAdmin, err
}
