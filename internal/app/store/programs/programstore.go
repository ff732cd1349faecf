// internal/app/store/programs/programstore.go
package programstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by writes that matched no program.
var ErrNotFound = errors.New("program not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("programs")}
}

// Create inserts p, assigning its ID and timestamps.
func (s *Store) Create(ctx context.Context, p models.Program) (models.Program, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		return models.Program{}, err
	}
	return p, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Program, error) {
	var p models.Program
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return models.Program{}, err
	}
	return p, nil
}

// ListPersonal returns the user's personal programs ordered by title.
func (s *Store) ListPersonal(ctx context.Context, userID primitive.ObjectID) ([]models.Program, error) {
	opts := options.Find().SetSort(bson.D{{Key: "title", Value: 1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"user_id": userID, "is_group_program": false}, opts)
}

// ListByGroup returns a group's programs, most recently updated first.
func (s *Store) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Program, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: 1}})
	return s.find(ctx, bson.M{"group_id": groupID, "is_group_program": true}, opts)
}

// ListIDsInFolders returns the IDs of the user's programs filed under any of folderIDs.
func (s *Store) ListIDsInFolders(ctx context.Context, userID primitive.ObjectID, folderIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(folderIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "folder_id": bson.M{"$in": folderIDs}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.ID)
	}
	return ids, cur.Err()
}

// UpdateSource writes code and language and bumps updated_at.
// It returns the new updated_at, or ErrNotFound if the program is gone.
// Concurrent writers are not detected; the last write wins.
func (s *Store) UpdateSource(ctx context.Context, id primitive.ObjectID, code string, lang models.Language) (time.Time, error) {
	now := time.Now().UTC()
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"code":       code,
		"language":   lang,
		"updated_at": now,
	}})
	if err != nil {
		return time.Time{}, err
	}
	if res.MatchedCount == 0 {
		return time.Time{}, ErrNotFound
	}
	return now, nil
}

// Delete removes a program by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteInFolders removes the user's programs filed under any of folderIDs.
func (s *Store) DeleteInFolders(ctx context.Context, userID primitive.ObjectID, folderIDs []primitive.ObjectID) (int64, error) {
	if len(folderIDs) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID, "folder_id": bson.M{"$in": folderIDs}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountPersonal returns the number of personal programs owned by the user.
func (s *Store) CountPersonal(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID, "is_group_program": false})
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Program, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	programs := []models.Program{}
	if err := cur.All(ctx, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}
