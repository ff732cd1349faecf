// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// collectionIndexes is the desired index set for one collection.
type collectionIndexes struct {
	collection string
	models     []mongo.IndexModel
}

/*
EnsureAll is called at startup. Reconciling is idempotent; every collection
is attempted and problems are aggregated so startup can fail fast with the
whole picture.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string
	for _, set := range desired() {
		if err := ensureIndexSet(ctx, db.Collection(set.collection), set.models); err != nil {
			problems = append(problems, set.collection+": "+err.Error())
		}
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func desired() []collectionIndexes {
	return []collectionIndexes{
		{"profiles", []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_profiles_email").SetUnique(true)},
		}},
		{"programs", []mongo.IndexModel{
			// personal listing: user_id + is_group_program, sorted by title
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_group_program", Value: 1}, {Key: "title", Value: 1}}, Options: options.Index().SetName("idx_programs_user_title")},
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "updated_at", Value: -1}}, Options: options.Index().SetName("idx_programs_group_updated")},
			{Keys: bson.D{{Key: "folder_id", Value: 1}}, Options: options.Index().SetName("idx_programs_folder")},
		}},
		{"folders", []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "name_ci", Value: 1}}, Options: options.Index().SetName("idx_folders_user_name")},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "parent_id", Value: 1}}, Options: options.Index().SetName("idx_folders_user_parent")},
		}},
		{"groups", []mongo.IndexModel{
			{Keys: bson.D{{Key: "invite_code", Value: 1}}, Options: options.Index().SetName("uniq_groups_invite_code").SetUnique(true)},
			{Keys: bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("idx_groups_name")},
		}},
		{"group_members", []mongo.IndexModel{
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: options.Index().SetName("uniq_group_members_group_user").SetUnique(true)},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "joined_at", Value: 1}}, Options: options.Index().SetName("idx_group_members_user")},
		}},
		{"activities", []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_activities_user_created")},
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_activities_group_created")},
		}},
	}
}

/* -------------------------------------------------------------------------- */
/* Reconcile a set of desired indexes for one collection                      */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

// sameBoolPtr treats nil as false.
func sameBoolPtr(a, b *bool) bool {
	return (a != nil && *a) == (b != nil && *b)
}

// Best-effort duplicate-detector (works cross-vendors)
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	s := err.Error()
	return strings.Contains(s, "E11000") || strings.Contains(strings.ToLower(s), "duplicate key")
}

// Some servers report IndexOptionsConflict when the same keys already exist
// under another name or with other options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}

// desiredIndex is the part of a mongo.IndexModel the reconciler compares.
type desiredIndex struct {
	model  mongo.IndexModel
	name   string
	unique bool
	sig    string
}

func describe(m mongo.IndexModel) desiredIndex {
	d := desiredIndex{model: m, sig: keySig(m.Keys.(bson.D))}
	if m.Options != nil {
		if m.Options.Name != nil {
			d.name = *m.Options.Name
		}
		d.unique = m.Options.Unique != nil && *m.Options.Unique
	}
	return d
}

func (d desiredIndex) fields(coll *mongo.Collection, start time.Time) []zap.Field {
	return []zap.Field{
		zap.String("collection", coll.Name()),
		zap.String("name", d.name),
		zap.String("keys", d.sig),
		zap.Bool("unique", d.unique),
		zap.Duration("took", time.Since(start)),
	}
}

// listExisting maps key signature to the index currently holding it.
func listExisting(ctx context.Context, coll *mongo.Collection) map[string]existingIndex {
	out := map[string]existingIndex{}
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		// A collection that does not exist yet has no indexes.
		return out
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out
}

// recreate drops the index named old and creates d in its place.
func recreate(ctx context.Context, coll *mongo.Collection, old string, d desiredIndex) error {
	if _, err := coll.Indexes().DropOne(ctx, old); err != nil {
		return fmt.Errorf("drop %s failed: %w", old, err)
	}
	return create(ctx, coll, d)
}

func create(ctx context.Context, coll *mongo.Collection, d desiredIndex) error {
	_, err := coll.Indexes().CreateOne(ctx, d.model)
	if err != nil && d.unique && isDuplicateKeyErr(err) {
		return fmt.Errorf("cannot create unique index on %s (duplicates present)", d.sig)
	}
	return err
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	var errs []string

	for _, m := range models {
		d := describe(m)
		start := time.Now()

		zap.L().Info("ensuring index",
			zap.String("collection", coll.Name()),
			zap.String("name", d.name),
			zap.String("keys", d.sig),
			zap.Bool("unique", d.unique))

		ex, found := listExisting(ctx, coll)[d.sig]
		switch {
		case found && sameBoolPtr(&d.unique, ex.Unique) && (d.name == "" || ex.Name == d.name):
			zap.L().Info("reusing existing index", d.fields(coll, start)...)
			continue

		case found:
			// Same keys under another name or with other options.
			if err := recreate(ctx, coll, ex.Name, d); err != nil {
				zap.L().Warn("index recreate failed", append(d.fields(coll, start), zap.Error(err))...)
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err))
				continue
			}
			zap.L().Info("index dropped and recreated", append(d.fields(coll, start), zap.String("from", ex.Name))...)
			continue
		}

		err := create(ctx, coll, d)
		if err != nil && isOptionsConflictErr(err) {
			// Raced with another creator; reconcile against what is there now.
			if ex, ok := listExisting(ctx, coll)[d.sig]; ok {
				if sameBoolPtr(&d.unique, ex.Unique) {
					zap.L().Info("reusing existing index (post-conflict)", d.fields(coll, start)...)
					continue
				}
				err = recreate(ctx, coll, ex.Name, d)
			}
		}
		if err != nil {
			zap.L().Warn("index ensure failed", append(d.fields(coll, start), zap.Error(err))...)
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), d.name, err))
			continue
		}
		zap.L().Info("index ensured", d.fields(coll, start)...)
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
