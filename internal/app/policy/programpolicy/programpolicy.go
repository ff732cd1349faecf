// internal/app/policy/programpolicy/programpolicy.go
package programpolicy

import (
	"context"

	"github.com/dalemusser/codeprephub/internal/app/policy/grouppolicy"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CanView reports whether userID may open p. Personal programs belong to
// their owner; group programs are open to every member of the group.
func CanView(ctx context.Context, db *mongo.Database, p models.Program, userID primitive.ObjectID) (bool, error) {
	if !p.IsGroupProgram || p.GroupID == nil {
		return p.UserID == userID, nil
	}
	return grouppolicy.IsMember(ctx, db, *p.GroupID, userID)
}

// CanEdit has the same rule as CanView: any member may write a group
// program, regardless of who created it.
func CanEdit(ctx context.Context, db *mongo.Database, p models.Program, userID primitive.ObjectID) (bool, error) {
	return CanView(ctx, db, p, userID)
}

// CanDelete allows the owner of a personal program, and the author or a
// group admin for a group program.
func CanDelete(ctx context.Context, db *mongo.Database, p models.Program, userID primitive.ObjectID) (bool, error) {
	if p.UserID == userID {
		if !p.IsGroupProgram || p.GroupID == nil {
			return true, nil
		}
		// Authors who have left the group lose the program.
		return grouppolicy.IsMember(ctx, db, *p.GroupID, userID)
	}
	if !p.IsGroupProgram || p.GroupID == nil {
		return false, nil
	}
	return grouppolicy.IsAdmin(ctx, db, *p.GroupID, userID)
}
