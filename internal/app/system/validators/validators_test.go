package validators_test

import (
	"testing"
	"time"

	"github.com/dalemusser/codeprephub/internal/app/system/validators"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"github.com/dalemusser/codeprephub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func setup(t *testing.T) *mongo.Database {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return db
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := validators.EnsureAll(ctx, db, zap.NewNop()); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesCollections(t *testing.T) {
	db := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	names, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		t.Fatalf("ListCollectionNames failed: %v", err)
	}
	have := map[string]bool{}
	for _, n := range names {
		have[n] = true
	}
	for _, want := range []string{"profiles", "folders", "programs", "groups", "group_members", "activities"} {
		if !have[want] {
			t.Errorf("collection %q not created", want)
		}
	}
}

func TestValidators(t *testing.T) {
	db := setup(t)
	now := time.Now().UTC()
	gid := primitive.NewObjectID()

	tests := []struct {
		name    string
		coll    string
		doc     bson.M
		wantErr bool
	}{
		{"profile ok", "profiles", bson.M{"name": "Ada", "email": "ada@example.com", "password_hash": "h", "created_at": now}, false},
		{"profile blank name", "profiles", bson.M{"name": "   ", "email": "ada@example.com", "password_hash": "h", "created_at": now}, true},
		{"profile missing hash", "profiles", bson.M{"name": "Ada", "email": "ada@example.com", "created_at": now}, true},

		{"folder ok", "folders", bson.M{"name": "Sorting", "name_ci": "sorting", "user_id": primitive.NewObjectID(), "created_at": now}, false},
		{"folder missing user", "folders", bson.M{"name": "Sorting", "name_ci": "sorting", "created_at": now}, true},

		{"personal program ok", "programs", bson.M{
			"title": "hello", "language": "python", "code": "", "user_id": primitive.NewObjectID(),
			"is_group_program": false, "created_at": now, "updated_at": now,
		}, false},
		{"group program ok", "programs", bson.M{
			"title": "hello", "language": "javascript", "code": "x", "user_id": primitive.NewObjectID(),
			"group_id": gid, "is_group_program": true, "created_at": now, "updated_at": now,
		}, false},
		{"group program without group", "programs", bson.M{
			"title": "hello", "language": "javascript", "code": "x", "user_id": primitive.NewObjectID(),
			"is_group_program": true, "created_at": now, "updated_at": now,
		}, true},
		{"personal program with group", "programs", bson.M{
			"title": "hello", "language": "javascript", "code": "x", "user_id": primitive.NewObjectID(),
			"group_id": gid, "is_group_program": false, "created_at": now, "updated_at": now,
		}, true},
		{"program unknown language", "programs", bson.M{
			"title": "hello", "language": "ruby", "code": "x", "user_id": primitive.NewObjectID(),
			"is_group_program": false, "created_at": now, "updated_at": now,
		}, true},

		{"group ok", "groups", bson.M{"name": "Study", "name_ci": "study", "invite_code": "abc", "created_by": primitive.NewObjectID(), "created_at": now}, false},
		{"group missing invite", "groups", bson.M{"name": "Study", "name_ci": "study", "created_by": primitive.NewObjectID(), "created_at": now}, true},

		{"membership ok", "group_members", bson.M{"group_id": gid, "user_id": primitive.NewObjectID(), "role": models.RoleMember, "joined_at": now}, false},
		{"membership bad role", "group_members", bson.M{"group_id": gid, "user_id": primitive.NewObjectID(), "role": "owner", "joined_at": now}, true},

		{"activity ok", "activities", bson.M{"user_id": primitive.NewObjectID(), "action": models.ActionJoined, "target_type": models.TargetGroup, "created_at": now}, false},
		{"activity bad action", "activities", bson.M{"user_id": primitive.NewObjectID(), "action": "deleted", "target_type": models.TargetGroup, "created_at": now}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testutil.TestContext()
			defer cancel()
			_, err := db.Collection(tt.coll).InsertOne(ctx, tt.doc)
			if (err != nil) != tt.wantErr {
				t.Errorf("insert into %s: err = %v, wantErr %v", tt.coll, err, tt.wantErr)
			}
		})
	}
}
