// internal/app/store/profiles/fetcher.go
package profilestore

import (
	"context"

	"github.com/dalemusser/codeprephub/internal/app/system/auth"
	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher so each request sees the current profile.
type Fetcher struct {
	c *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{c: db.Collection("profiles")}
}

// FetchUser returns nil if the profile is missing or any error occurs.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var row struct {
		ID    primitive.ObjectID `bson:"_id"`
		Name  string             `bson:"name"`
		Email string             `bson:"email"`
	}
	proj := options.FindOne().SetProjection(bson.M{"_id": 1, "name": 1, "email": 1})
	if err := f.c.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&row); err != nil {
		return nil
	}
	return &auth.SessionUser{
		ID:    row.ID.Hex(),
		Name:  row.Name,
		Email: row.Email,
	}
}
