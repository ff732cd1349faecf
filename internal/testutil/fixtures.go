// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/codeprephub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Calling it repeatedly on the same request accumulates parameters.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateProfile inserts a profile. The password hash is a placeholder;
// use the profiles store when a test needs to log in.
func (f *Fixtures) CreateProfile(ctx context.Context, name, email string) models.Profile {
	f.t.Helper()

	p := models.Profile{
		ID:           primitive.NewObjectID(),
		Name:         name,
		Email:        text.Fold(email),
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}
	return p
}

// CreateFolder inserts a personal folder.
func (f *Fixtures) CreateFolder(ctx context.Context, userID primitive.ObjectID, name string, parentID *primitive.ObjectID) models.Folder {
	f.t.Helper()

	folder := models.Folder{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		UserID:    userID,
		ParentID:  parentID,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("folders").InsertOne(ctx, folder); err != nil {
		f.t.Fatalf("failed to create test folder: %v", err)
	}
	return folder
}

// CreateProgram inserts a personal program with the language's default code.
func (f *Fixtures) CreateProgram(ctx context.Context, userID primitive.ObjectID, title string, lang models.Language, folderID *primitive.ObjectID) models.Program {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Program{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Language:  lang,
		Code:      lang.DefaultCode(),
		FolderID:  folderID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("programs").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test program: %v", err)
	}
	return p
}

// CreateGroupProgram inserts a program shared with groupID.
func (f *Fixtures) CreateGroupProgram(ctx context.Context, authorID, groupID primitive.ObjectID, title string, lang models.Language) models.Program {
	f.t.Helper()

	now := time.Now().UTC()
	gid := groupID
	p := models.Program{
		ID:             primitive.NewObjectID(),
		Title:          title,
		Language:       lang,
		Code:           lang.DefaultCode(),
		UserID:         authorID,
		GroupID:        &gid,
		IsGroupProgram: true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if _, err := f.db.Collection("programs").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test group program: %v", err)
	}
	return p
}

// CreateGroup inserts a group with a fixed invite code.
func (f *Fixtures) CreateGroup(ctx context.Context, name, inviteCode string, createdBy primitive.ObjectID) models.Group {
	f.t.Helper()

	g := models.Group{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test group description",
		InviteCode:  inviteCode,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateGroupMembership links a user to a group with the given role.
func (f *Fixtures) CreateGroupMembership(ctx context.Context, userID, groupID primitive.ObjectID, role string) models.GroupMembership {
	f.t.Helper()

	m := models.GroupMembership{
		ID:       primitive.NewObjectID(),
		UserID:   userID,
		GroupID:  groupID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("group_members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test group membership: %v", err)
	}
	return m
}
