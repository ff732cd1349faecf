// internal/app/store/folders/folderstore.go
package folderstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/codeprephub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrParentNotFound means the requested parent is missing or owned by someone else.
var ErrParentNotFound = errors.New("parent folder not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("folders")}
}

// Create inserts f. A non-nil ParentID must name one of the same user's folders,
// which keeps the hierarchy acyclic since folders are never re-parented.
func (s *Store) Create(ctx context.Context, f models.Folder) (models.Folder, error) {
	if f.ParentID != nil {
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": *f.ParentID, "user_id": f.UserID})
		if err != nil {
			return models.Folder{}, err
		}
		if n == 0 {
			return models.Folder{}, ErrParentNotFound
		}
	}
	f.ID = primitive.NewObjectID()
	f.NameCI = text.Fold(f.Name)
	f.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.Folder{}, err
	}
	return f, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Folder, error) {
	var f models.Folder
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		return models.Folder{}, err
	}
	return f, nil
}

// ListByUser returns all of the user's folders ordered by name.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Folder, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	folders := []models.Folder{}
	if err := cur.All(ctx, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// SubtreeIDs returns rootID followed by every descendant folder of the user,
// breadth first.
func (s *Store) SubtreeIDs(ctx context.Context, userID, rootID primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids := []primitive.ObjectID{rootID}
	seen := map[primitive.ObjectID]bool{rootID: true}
	frontier := []primitive.ObjectID{rootID}

	for len(frontier) > 0 {
		cur, err := s.c.Find(ctx,
			bson.M{"user_id": userID, "parent_id": bson.M{"$in": frontier}},
			options.Find().SetProjection(bson.M{"_id": 1}))
		if err != nil {
			return nil, err
		}
		var next []primitive.ObjectID
		for cur.Next(ctx) {
			var row struct {
				ID primitive.ObjectID `bson:"_id"`
			}
			if err := cur.Decode(&row); err != nil {
				cur.Close(ctx)
				return nil, err
			}
			if !seen[row.ID] {
				seen[row.ID] = true
				ids = append(ids, row.ID)
				next = append(next, row.ID)
			}
		}
		err = cur.Err()
		cur.Close(ctx)
		if err != nil {
			return nil, err
		}
		frontier = next
	}
	return ids, nil
}

// DeleteMany removes the listed folders owned by the user.
func (s *Store) DeleteMany(ctx context.Context, userID primitive.ObjectID, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID, "_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountByUser returns the number of folders the user owns.
func (s *Store) CountByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"user_id": userID})
}
