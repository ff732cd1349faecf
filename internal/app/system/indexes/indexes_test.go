package indexes_test

import (
	"testing"

	"github.com/dalemusser/codeprephub/internal/app/system/indexes"
	"github.com/dalemusser/codeprephub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func indexNames(t *testing.T, db *mongo.Database, collection string) map[string]bool {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cur, err := db.Collection(collection).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes on %s failed: %v", collection, err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			t.Fatalf("Decode index failed: %v", err)
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"profiles":      {"uniq_profiles_email"},
		"programs":      {"idx_programs_user_title", "idx_programs_group_updated", "idx_programs_folder"},
		"folders":       {"idx_folders_user_name", "idx_folders_user_parent"},
		"groups":        {"uniq_groups_invite_code"},
		"group_members": {"uniq_group_members_group_user", "idx_group_members_user"},
		"activities":    {"idx_activities_user_created", "idx_activities_group_created"},
	}
	for collection, want := range expected {
		names := indexNames(t, db, collection)
		for _, name := range want {
			if !names[name] {
				t.Errorf("expected index %q to exist on %s collection", name, collection)
			}
		}
	}
}

func TestEnsureAll_RenamesIndexWithSameKeys(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := db.Collection("groups").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "invite_code", Value: 1}},
		Options: options.Index().SetName("legacy_invite"),
	})
	if err != nil {
		t.Fatalf("create legacy index failed: %v", err)
	}

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	names := indexNames(t, db, "groups")
	if names["legacy_invite"] {
		t.Error("expected legacy index to be replaced")
	}
	if !names["uniq_groups_invite_code"] {
		t.Error("expected uniq_groups_invite_code to exist")
	}
}

func TestEnsureAll_UniqueIndexEnforced(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	groupID := primitive.NewObjectID()
	userID := primitive.NewObjectID()
	members := db.Collection("group_members")
	if _, err := members.InsertOne(ctx, bson.M{"group_id": groupID, "user_id": userID, "role": "member"}); err != nil {
		t.Fatalf("Insert membership failed: %v", err)
	}
	if _, err := members.InsertOne(ctx, bson.M{"group_id": groupID, "user_id": userID, "role": "admin"}); err == nil {
		t.Error("expected duplicate key error for unique index on group_members(group_id, user_id)")
	}
}
