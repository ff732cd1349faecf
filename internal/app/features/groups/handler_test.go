package groups_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	uierrors "github.com/dalemusser/codeprephub/internal/app/features/errors"
	"github.com/dalemusser/codeprephub/internal/app/features/groups"
	"github.com/dalemusser/codeprephub/internal/app/policy/grouppolicy"
	"github.com/dalemusser/codeprephub/internal/app/store/activity"
	programstore "github.com/dalemusser/codeprephub/internal/app/store/programs"
	"github.com/dalemusser/codeprephub/internal/app/system/paging"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"github.com/dalemusser/codeprephub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T, db *mongo.Database) (*groups.Handler, *workspace.Registry) {
	t.Helper()
	logger := zap.NewNop()
	reg := workspace.NewRegistry(workspace.Deps{Log: logger})
	return groups.NewHandler(db, reg, uierrors.NewErrorLogger(logger), logger), reg
}

func withParams(r *http.Request, kv ...string) *http.Request {
	for i := 0; i+1 < len(kv); i += 2 {
		r = testutil.WithChiURLParam(r, kv[i], kv[i+1])
	}
	return r
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var b uierrors.Body
	testutil.DecodeJSON(t, rec, &b)
	return b.Error
}

func TestHandleCreateGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ada := fx.CreateProfile(ctx, "Ada", "ada@example.com")

	h, _ := newTestHandler(t, db)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/groups", map[string]string{
		"name":        "Algorithms",
		"description": "<script>alert(1)</script>Weekly <em>practice</em>",
	})
	rec := httptest.NewRecorder()
	h.HandleCreateGroup(rec, testutil.WithProfile(req, ada))

	testutil.AssertStatus(t, rec, http.StatusCreated)
	var body struct {
		Group models.Group `json:"group"`
	}
	testutil.DecodeJSON(t, rec, &body)

	if !regexp.MustCompile(`^[0-9a-f]{12}$`).MatchString(body.Group.InviteCode) {
		t.Errorf("invite code = %q", body.Group.InviteCode)
	}
	if body.Group.Description != "Weekly practice" {
		t.Errorf("description = %q, want sanitized text", body.Group.Description)
	}
	if body.Group.CreatedBy != ada.ID {
		t.Errorf("created_by = %s", body.Group.CreatedBy.Hex())
	}

	admin, err := grouppolicy.IsAdmin(ctx, db, body.Group.ID, ada.ID)
	if err != nil || !admin {
		t.Errorf("creator should be admin: admin=%v err=%v", admin, err)
	}

	acts, err := activity.New(db).ListByGroup(ctx, body.Group.ID, 10)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(acts) != 1 || acts[0].Action != models.ActionCreated || acts[0].TargetType != models.TargetGroup {
		t.Errorf("activity: got %+v", acts)
	}
}

func TestHandleCreateGroup_NameRequired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ada := fx.CreateProfile(ctx, "Ada", "ada@example.com")

	h, _ := newTestHandler(t, db)
	req := testutil.NewJSONRequest(t, http.MethodPost, "/groups", map[string]string{"name": "  "})
	rec := httptest.NewRecorder()
	h.HandleCreateGroup(rec, testutil.WithProfile(req, ada))

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
}

func TestServeGroupsList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ada := fx.CreateProfile(ctx, "Ada", "ada@example.com")
	bob := fx.CreateProfile(ctx, "Bob", "bob@example.com")
	mine := fx.CreateGroup(ctx, "Mine", "aaaaaaaaaaaa", ada.ID)
	fx.CreateGroupMembership(ctx, ada.ID, mine.ID, models.RoleAdmin)
	other := fx.CreateGroup(ctx, "Other", "bbbbbbbbbbbb", bob.ID)
	fx.CreateGroupMembership(ctx, bob.ID, other.ID, models.RoleAdmin)

	h, _ := newTestHandler(t, db)
	rec := httptest.NewRecorder()
	h.ServeGroupsList(rec, testutil.WithProfile(httptest.NewRequest(http.MethodGet, "/groups", nil), ada))

	testutil.AssertStatus(t, rec, http.StatusOK)
	var body struct {
		Groups []models.Group `json:"groups"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if len(body.Groups) != 1 || body.Groups[0].ID != mine.ID {
		t.Errorf("groups: got %+v", body.Groups)
	}
}

func TestServeGroupsList_SearchAndPage(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ada := fx.CreateProfile(ctx, "Ada", "ada@example.com")
	for i, name := range []string{"Graphs", "Greedy", "Sorting"} {
		g := fx.CreateGroup(ctx, name, fmt.Sprintf("c0de0000000%d", i), ada.ID)
		fx.CreateGroupMembership(ctx, ada.ID, g.ID, models.RoleMember)
	}

	h, _ := newTestHandler(t, db)
	rec := httptest.NewRecorder()
	h.ServeGroupsList(rec, testutil.WithProfile(httptest.NewRequest(http.MethodGet, "/groups?q=gr", nil), ada))

	testutil.AssertStatus(t, rec, http.StatusOK)
	var body struct {
		Groups []models.Group `json:"groups"`
		Page   paging.Page    `json:"page"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if len(body.Groups) != 2 || body.Groups[0].Name != "Graphs" || body.Groups[1].Name != "Greedy" {
		t.Errorf("groups: got %+v", body.Groups)
	}
	if body.Page.HasNext || body.Page.HasPrev {
		t.Errorf("page: got %+v", body.Page)
	}
}

func TestHandleJoinGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ada := fx.CreateProfile(ctx, "Ada", "ada@example.com")
	bob := fx.CreateProfile(ctx, "Bob", "bob@example.com")
	g := fx.CreateGroup(ctx, "Study", "c0ffee123456", ada.ID)
	fx.CreateGroupMembership(ctx, ada.ID, g.ID, models.RoleAdmin)

	h, _ := newTestHandler(t, db)
	join := func(code string) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/groups/join", map[string]string{"invite_code": code})
		rec := httptest.NewRecorder()
		h.HandleJoinGroup(rec, testutil.WithProfile(req, bob))
		return rec
	}

	rec := join("nope00000000")
	testutil.AssertStatus(t, rec, http.StatusNotFound)
	if msg := errorBody(t, rec); msg != "Invalid invite code" {
		t.Errorf("error = %q", msg)
	}

	testutil.AssertStatus(t, join("  c0ffee123456 "), http.StatusOK)
	role, err := grouppolicy.Role(ctx, db, g.ID, bob.ID)
	if err != nil || role != models.RoleMember {
		t.Errorf("role = %q, err = %v", role, err)
	}

	rec = join("c0ffee123456")
	testutil.AssertStatus(t, rec, http.StatusConflict)
	if msg := errorBody(t, rec); msg != "You are already a member of this group" {
		t.Errorf("error = %q", msg)
	}

	acts, err := activity.New(db).ListByUser(ctx, bob.ID, 10)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(acts) != 1 || acts[0].Action != models.ActionJoined {
		t.Errorf("activity: got %+v", acts)
	}
}

func TestServeGroupView(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ada := fx.CreateProfile(ctx, "Ada", "ada@example.com")
	bob := fx.CreateProfile(ctx, "Bob", "bob@example.com")
	eve := fx.CreateProfile(ctx, "Eve", "eve@example.com")
	g := fx.CreateGroup(ctx, "Study", "123456abcdef", ada.ID)
	fx.CreateGroupMembership(ctx, ada.ID, g.ID, models.RoleAdmin)
	fx.CreateGroupMembership(ctx, bob.ID, g.ID, models.RoleMember)
	fx.CreateGroupProgram(ctx, ada.ID, g.ID, "first.js", models.LanguageJavaScript)
	fx.CreateGroupProgram(ctx, bob.ID, g.ID, "second.py", models.LanguagePython)
	// A departed author still has a name slot.
	fx.CreateGroupProgram(ctx, primitive.NewObjectID(), g.ID, "orphan.js", models.LanguageJavaScript)

	h, _ := newTestHandler(t, db)
	view := func(p models.Profile) *httptest.ResponseRecorder {
		req := withParams(httptest.NewRequest(http.MethodGet, "/groups/"+g.ID.Hex(), nil), "id", g.ID.Hex())
		rec := httptest.NewRecorder()
		h.ServeGroupView(rec, testutil.WithProfile(req, p))
		return rec
	}

	testutil.AssertStatus(t, view(eve), http.StatusNotFound)

	rec := view(bob)
	testutil.AssertStatus(t, rec, http.StatusOK)
	var body struct {
		Group   models.Group `json:"group"`
		Role    string       `json:"role"`
		Members []struct {
			Name string `json:"name"`
			Role string `json:"role"`
		} `json:"members"`
		Programs []struct {
			Title      string `json:"title"`
			AuthorName string `json:"author_name"`
		} `json:"programs"`
	}
	testutil.DecodeJSON(t, rec, &body)

	if body.Role != models.RoleMember {
		t.Errorf("role = %q", body.Role)
	}
	if len(body.Members) != 2 || body.Members[0].Name != "Ada" || body.Members[0].Role != models.RoleAdmin {
		t.Errorf("members: got %+v", body.Members)
	}
	if len(body.Programs) != 3 {
		t.Fatalf("programs: got %d, want 3", len(body.Programs))
	}
	authors := map[string]string{}
	for _, p := range body.Programs {
		authors[p.Title] = p.AuthorName
	}
	if authors["first.js"] != "Ada" || authors["second.py"] != "Bob" || authors["orphan.js"] != "Unknown" {
		t.Errorf("authors: got %v", authors)
	}
}

func TestHandleCreateGroupProgram(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ada := fx.CreateProfile(ctx, "Ada", "ada@example.com")
	eve := fx.CreateProfile(ctx, "Eve", "eve@example.com")
	g := fx.CreateGroup(ctx, "Study", "0a0a0a0a0a0a", ada.ID)
	fx.CreateGroupMembership(ctx, ada.ID, g.ID, models.RoleAdmin)

	h, reg := newTestHandler(t, db)
	create := func(p models.Profile) *httptest.ResponseRecorder {
		req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]string{"title": "Sorts", "language": "java"})
		rec := httptest.NewRecorder()
		h.HandleCreateGroupProgram(rec, testutil.WithProfile(withParams(req, "id", g.ID.Hex()), p))
		return rec
	}

	testutil.AssertStatus(t, create(eve), http.StatusNotFound)

	rec := create(ada)
	testutil.AssertStatus(t, rec, http.StatusCreated)
	var body struct {
		Program models.Program `json:"program"`
	}
	testutil.DecodeJSON(t, rec, &body)
	if !body.Program.IsGroupProgram || body.Program.GroupID == nil || *body.Program.GroupID != g.ID {
		t.Errorf("program: got %+v", body.Program)
	}

	st := reg.Get(ada.ID, workspace.Group(g.ID)).Snapshot()
	if st.ActiveProgram == nil || st.ActiveProgram.ID != body.Program.ID || st.Language != models.LanguageJava {
		t.Errorf("group workspace: got %+v", st)
	}
	if personal := reg.Get(ada.ID, workspace.Personal()).Snapshot(); personal.ActiveProgram != nil {
		t.Error("personal workspace should be untouched")
	}
}

func TestHandleDeleteGroupProgram(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	admin := fx.CreateProfile(ctx, "Admin", "admin@example.com")
	author := fx.CreateProfile(ctx, "Author", "author@example.com")
	other := fx.CreateProfile(ctx, "Other", "other@example.com")
	g := fx.CreateGroup(ctx, "Study", "deadbeef0000", admin.ID)
	fx.CreateGroupMembership(ctx, admin.ID, g.ID, models.RoleAdmin)
	fx.CreateGroupMembership(ctx, author.ID, g.ID, models.RoleMember)
	fx.CreateGroupMembership(ctx, other.ID, g.ID, models.RoleMember)
	byAuthor := fx.CreateGroupProgram(ctx, author.ID, g.ID, "a.js", models.LanguageJavaScript)
	byAuthor2 := fx.CreateGroupProgram(ctx, author.ID, g.ID, "b.js", models.LanguageJavaScript)

	h, _ := newTestHandler(t, db)
	del := func(p models.Profile, programID primitive.ObjectID) *httptest.ResponseRecorder {
		req := withParams(httptest.NewRequest(http.MethodDelete, "/", nil), "id", g.ID.Hex(), "programID", programID.Hex())
		rec := httptest.NewRecorder()
		h.HandleDeleteGroupProgram(rec, testutil.WithProfile(req, p))
		return rec
	}

	testutil.AssertStatus(t, del(other, byAuthor.ID), http.StatusForbidden)
	testutil.AssertStatus(t, del(author, byAuthor.ID), http.StatusNoContent)
	testutil.AssertStatus(t, del(admin, byAuthor2.ID), http.StatusNoContent)

	left, err := programstore.New(db).ListByGroup(ctx, g.ID)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	if len(left) != 0 {
		t.Errorf("programs left: %d", len(left))
	}
}

func TestHandleLeaveGroup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ada := fx.CreateProfile(ctx, "Ada", "ada@example.com")
	bob := fx.CreateProfile(ctx, "Bob", "bob@example.com")
	g := fx.CreateGroup(ctx, "Study", "feedfacecafe", ada.ID)
	fx.CreateGroupMembership(ctx, ada.ID, g.ID, models.RoleAdmin)
	fx.CreateGroupMembership(ctx, bob.ID, g.ID, models.RoleMember)

	h, reg := newTestHandler(t, db)
	reg.Get(bob.ID, workspace.Group(g.ID))
	before := reg.Len()

	leave := func() *httptest.ResponseRecorder {
		req := withParams(httptest.NewRequest(http.MethodPost, "/", nil), "id", g.ID.Hex())
		rec := httptest.NewRecorder()
		h.HandleLeaveGroup(rec, testutil.WithProfile(req, bob))
		return rec
	}

	testutil.AssertStatus(t, leave(), http.StatusNoContent)
	if member, _ := grouppolicy.IsMember(ctx, db, g.ID, bob.ID); member {
		t.Error("bob should no longer be a member")
	}
	if reg.Len() != before-1 {
		t.Errorf("workspaces: got %d, want %d", reg.Len(), before-1)
	}
	testutil.AssertStatus(t, leave(), http.StatusNotFound)
}

func TestHandleRemoveMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	ada := fx.CreateProfile(ctx, "Ada", "ada@example.com")
	bob := fx.CreateProfile(ctx, "Bob", "bob@example.com")
	g := fx.CreateGroup(ctx, "Study", "112233445566", ada.ID)
	fx.CreateGroupMembership(ctx, ada.ID, g.ID, models.RoleAdmin)
	fx.CreateGroupMembership(ctx, bob.ID, g.ID, models.RoleMember)
	ghost := primitive.NewObjectID()
	fx.CreateGroupMembership(ctx, ghost, g.ID, models.RoleMember)

	h, _ := newTestHandler(t, db)
	remove := func(actor models.Profile, target primitive.ObjectID) *httptest.ResponseRecorder {
		req := withParams(httptest.NewRequest(http.MethodPost, "/", nil), "id", g.ID.Hex(), "userID", target.Hex())
		rec := httptest.NewRecorder()
		h.HandleRemoveMember(rec, testutil.WithProfile(req, actor))
		return rec
	}

	testutil.AssertStatus(t, remove(bob, ada.ID), http.StatusForbidden)
	testutil.AssertStatus(t, remove(ada, ada.ID), http.StatusBadRequest)
	testutil.AssertStatus(t, remove(ada, bob.ID), http.StatusNoContent)
	testutil.AssertStatus(t, remove(ada, bob.ID), http.StatusNotFound)
	testutil.AssertStatus(t, remove(ada, ghost), http.StatusNoContent)

	acts, err := activity.New(db).ListByGroup(ctx, g.ID, 10)
	if err != nil {
		t.Fatalf("ListByGroup: %v", err)
	}
	names := map[string]bool{}
	for _, a := range acts {
		if a.Action == models.ActionRemoved && a.TargetType == models.TargetMember {
			names[a.TargetName] = true
		}
	}
	if !names["Bob"] || !names["Unknown"] {
		t.Errorf("removed names: got %v, want Bob and Unknown", names)
	}
}
