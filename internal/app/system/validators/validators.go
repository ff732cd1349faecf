// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/codeprephub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the app's collections (if missing) and attaches
// JSON-Schema validators. On servers that don't support collMod/validators
// (e.g. some DocumentDB versions), it logs and skips.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
			return
		}
		logger.Debug("validator ensured", zap.String("collection", coll))
	}

	ensure("profiles", profilesSchema())
	ensure("folders", foldersSchema())
	ensure("programs", programsSchema())
	ensure("groups", groupsSchema())
	ensure("group_members", groupMembersSchema())
	ensure("activities", activitiesSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

// ensureCollection idempotently makes sure name exists.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && len(names) > 0 {
		return nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	logger.Info("created collection", zap.String("collection", name))
	return nil
}

// setValidator uses moderate validation: documents that already violate
// the schema can still be updated, new writes must conform.
func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	return db.RunCommand(ctx, cmd).Decode(&out)
}

/* ------------------------- error helpers ------------------------- */

func isNamespaceExistsErr(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 48 || strings.Contains(strings.ToLower(ce.Message), "already exists")) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

func isNoSuchCommand(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 59 {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "no such command")
}

func isNotImplemented(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 115 {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "not implemented") || strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

// nonBlank matches a string with at least one non-space character.
var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func languageEnum() bson.A {
	langs := models.Languages()
	out := make(bson.A, 0, len(langs))
	for _, l := range langs {
		out = append(out, string(l))
	}
	return out
}

func profilesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "email", "password_hash", "created_at"},
			"properties": bson.M{
				"name":          nonBlank,
				"email":         bson.M{"bsonType": "string", "minLength": 3},
				"password_hash": bson.M{"bsonType": "string", "minLength": 1},
				"avatar_url":    bson.M{"bsonType": "string"},
				"created_at":    bson.M{"bsonType": "date"},
			},
		},
	}
}

func foldersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "user_id", "created_at"},
			"properties": bson.M{
				"name":       nonBlank,
				"name_ci":    nonBlank,
				"user_id":    bson.M{"bsonType": "objectId"},
				"parent_id":  bson.M{"bsonType": bson.A{"objectId", "null"}},
				"created_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

// A group program must carry its group_id; a personal one must not.
func programsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "language", "code", "user_id", "is_group_program", "created_at", "updated_at"},
			"properties": bson.M{
				"title":            nonBlank,
				"language":         bson.M{"enum": languageEnum()},
				"code":             bson.M{"bsonType": "string"},
				"user_id":          bson.M{"bsonType": "objectId"},
				"folder_id":        bson.M{"bsonType": bson.A{"objectId", "null"}},
				"group_id":         bson.M{"bsonType": bson.A{"objectId", "null"}},
				"is_group_program": bson.M{"bsonType": "bool"},
				"created_at":       bson.M{"bsonType": "date"},
				"updated_at":       bson.M{"bsonType": "date"},
			},
			"oneOf": bson.A{
				bson.M{
					"properties": bson.M{"is_group_program": bson.M{"enum": bson.A{true}}},
					"required":   bson.A{"group_id"},
				},
				bson.M{
					"properties": bson.M{"is_group_program": bson.M{"enum": bson.A{false}}},
					"not":        bson.M{"required": bson.A{"group_id"}},
				},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci", "invite_code", "created_by", "created_at"},
			"properties": bson.M{
				"name":        nonBlank,
				"name_ci":     nonBlank,
				"description": bson.M{"bsonType": "string"},
				"invite_code": nonBlank,
				"created_by":  bson.M{"bsonType": "objectId"},
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}

func groupMembersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"group_id", "user_id", "role", "joined_at"},
			"properties": bson.M{
				"group_id":  bson.M{"bsonType": "objectId"},
				"user_id":   bson.M{"bsonType": "objectId"},
				"role":      bson.M{"enum": bson.A{models.RoleAdmin, models.RoleMember}},
				"joined_at": bson.M{"bsonType": "date"},
			},
		},
	}
}

func activitiesSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"user_id", "action", "target_type", "created_at"},
			"properties": bson.M{
				"user_id":     bson.M{"bsonType": "objectId"},
				"action":      bson.M{"enum": bson.A{models.ActionCreated, models.ActionEdited, models.ActionJoined, models.ActionRemoved}},
				"target_type": bson.M{"enum": bson.A{models.TargetProgram, models.TargetFolder, models.TargetGroup, models.TargetMember}},
				"target_id":   bson.M{"bsonType": "objectId"},
				"target_name": bson.M{"bsonType": "string"},
				"group_id":    bson.M{"bsonType": "objectId"},
				"created_at":  bson.M{"bsonType": "date"},
			},
		},
	}
}
