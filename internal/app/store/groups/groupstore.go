// internal/app/store/groups/groupstore.go
package groupstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/codeprephub/internal/app/system/paging"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateInviteCode is returned when a caller-supplied invite code is taken.
var ErrDuplicateInviteCode = errors.New("invite code already in use")

// inviteCodeLen is the number of hex characters in a generated invite code.
const inviteCodeLen = 12

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("groups")}
}

// NewInviteCode returns a fresh random invite code.
func NewInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:inviteCodeLen]
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// GetByInviteCode looks a group up by exact invite code.
func (s *Store) GetByInviteCode(ctx context.Context, code string) (models.Group, error) {
	var g models.Group
	if err := s.c.FindOne(ctx, bson.M{"invite_code": code}).Decode(&g); err != nil {
		return models.Group{}, err
	}
	return g, nil
}

// Create inserts g. When g.InviteCode is empty a code is generated, and a
// collision with an existing code is retried with a new one.
func (s *Store) Create(ctx context.Context, g models.Group) (models.Group, error) {
	generated := g.InviteCode == ""
	g.ID = primitive.NewObjectID()
	g.NameCI = text.Fold(g.Name)
	g.CreatedAt = time.Now().UTC()

	for attempt := 0; ; attempt++ {
		if generated {
			g.InviteCode = NewInviteCode()
		}
		_, err := s.c.InsertOne(ctx, g)
		if err == nil {
			return g, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Group{}, err
		}
		if !generated || attempt >= 2 {
			return models.Group{}, ErrDuplicateInviteCode
		}
	}
}

// ListPage returns one page of the groups with the given IDs, ordered by
// case-folded name. A non-empty search keeps names starting with it.
func (s *Store) ListPage(ctx context.Context, ids []primitive.ObjectID, search string, k paging.Keyset) ([]models.Group, paging.Page, error) {
	groups := []models.Group{}
	if len(ids) == 0 {
		return groups, paging.Page{}, nil
	}

	clauses := []bson.M{{"_id": bson.M{"$in": ids}}}
	if fq := text.Fold(search); fq != "" {
		clauses = append(clauses, bson.M{"name_ci": bson.M{"$gte": fq, "$lt": fq + "\uffff"}})
	}
	if ks := k.Window("name_ci"); ks != nil {
		clauses = append(clauses, ks)
	}

	cur, err := s.c.Find(ctx, bson.M{"$and": clauses}, k.FindOptions("name_ci"))
	if err != nil {
		return nil, paging.Page{}, err
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, &groups); err != nil {
		return nil, paging.Page{}, err
	}
	groups, page := paging.Finish(k, groups,
		func(g models.Group) string { return g.NameCI },
		func(g models.Group) primitive.ObjectID { return g.ID })
	return groups, page, nil
}
