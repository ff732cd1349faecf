package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/codeprephub/internal/app/system/timeouts"
	"github.com/dalemusser/codeprephub/internal/app/system/workspace"
	"github.com/dalemusser/codeprephub/internal/domain/models"
	"github.com/dalemusser/codeprephub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validAppConfig() AppConfig {
	return AppConfig{
		MongoURI:               "mongodb://localhost:27017",
		MongoDatabase:          "codeprephub_test",
		SessionName:            "codeprephub-session",
		SessionMaxAge:          time.Hour,
		RunTimeout:             2 * time.Second,
		WorkspaceIdleTTL:       time.Hour,
		WorkspaceSweepInterval: time.Minute,
		LoginRateLimit:         10,
		LoginRateWindow:        time.Minute,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid dev", "dev", func(*AppConfig) {}, false},
		{"bad uri", "dev", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, true},
		{"empty database", "dev", func(c *AppConfig) { c.MongoDatabase = "" }, true},
		{"zero run timeout", "dev", func(c *AppConfig) { c.RunTimeout = 0 }, true},
		{"negative idle ttl", "dev", func(c *AppConfig) { c.WorkspaceIdleTTL = -time.Second }, true},
		{"zero rate limit", "dev", func(c *AppConfig) { c.LoginRateLimit = 0 }, true},
		{"prod without key", "prod", func(*AppConfig) {}, true},
		{"prod with key", "prod", func(c *AppConfig) { c.SessionKey = "0123456789abcdef0123456789abcdef" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validAppConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConfig() err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildHandler_RequiresStartup(t *testing.T) {
	_, err := BuildHandler(&config.CoreConfig{Env: "dev"}, validAppConfig(), DBDeps{}, testLogger())
	if err == nil {
		t.Fatal("expected an error when Startup has not run")
	}
}

func TestConfigureTimeouts(t *testing.T) {
	t.Cleanup(timeouts.Reset)

	cfg := validAppConfig()
	configureTimeouts(cfg, testLogger())
	if got := timeouts.Run(); got != cfg.RunTimeout {
		t.Errorf("Run() = %v, want run_timeout %v", got, cfg.RunTimeout)
	}

	t.Setenv("TIMEOUT_RUN", "250ms")
	configureTimeouts(cfg, testLogger())
	if got := timeouts.Run(); got != 250*time.Millisecond {
		t.Errorf("Run() = %v, want TIMEOUT_RUN 250ms", got)
	}
}

// startApp runs the Startup and BuildHandler hooks against the test database
// and serves the handler. The Mongo client is owned by testutil, so Shutdown
// only stops the services.
func startApp(t *testing.T) (*httptest.Server, DBDeps) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coreCfg := &config.CoreConfig{Env: "dev"}
	appCfg := validAppConfig()
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db, Services: &Services{}}

	if err := EnsureSchema(ctx, coreCfg, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if err := Startup(ctx, coreCfg, appCfg, deps, testLogger()); err != nil {
		t.Fatalf("Startup: %v", err)
	}
	h, err := BuildHandler(coreCfg, appCfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler: %v", err)
	}

	srv := httptest.NewServer(h)
	t.Cleanup(func() {
		srv.Close()
		timeouts.Reset()
		services := DBDeps{Services: deps.Services}
		if err := Shutdown(context.Background(), coreCfg, appCfg, services, testLogger()); err != nil {
			t.Errorf("Shutdown: %v", err)
		}
	})
	return srv, deps
}

type client struct {
	t   *testing.T
	srv *httptest.Server
	hc  *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &client{t: t, srv: srv, hc: &http.Client{Jar: jar}}
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatalf("encode: %v", err)
		}
	}
	req, err := http.NewRequest(method, c.srv.URL+path, &buf)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.hc.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type editorBody struct {
	State   workspace.State `json:"state"`
	Notices []struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	} `json:"notices"`
}

func TestApp_EndToEnd(t *testing.T) {
	srv, deps := startApp(t)
	c := newClient(t, srv)

	if got := c.do(http.MethodGet, "/health", nil, nil); got != http.StatusOK {
		t.Fatalf("health: got %d", got)
	}
	if got := c.do(http.MethodGet, "/dashboard", nil, nil); got != http.StatusUnauthorized {
		t.Fatalf("dashboard before sign-in: got %d", got)
	}

	signup := map[string]string{"name": "Ada", "email": "ada@example.com", "password": "correct horse"}
	if got := c.do(http.MethodPost, "/signup", signup, nil); got != http.StatusCreated {
		t.Fatalf("signup: got %d", got)
	}

	var created struct {
		Program models.Program  `json:"program"`
		State   workspace.State `json:"state"`
	}
	newProgram := map[string]string{"title": "hello", "language": "javascript"}
	if got := c.do(http.MethodPost, "/files/programs", newProgram, &created); got != http.StatusCreated {
		t.Fatalf("create program: got %d", got)
	}

	var eb editorBody
	if got := c.do(http.MethodPost, "/editor/personal/select", map[string]string{"program_id": created.Program.ID.Hex()}, &eb); got != http.StatusOK {
		t.Fatalf("select: got %d", got)
	}
	if got := c.do(http.MethodPut, "/editor/personal/code", map[string]string{"code": `console.log("a"); console.log("b")`}, &eb); got != http.StatusOK {
		t.Fatalf("set code: got %d", got)
	}
	if got := c.do(http.MethodPost, "/editor/personal/save", nil, &eb); got != http.StatusOK {
		t.Fatalf("save: got %d", got)
	}
	if len(eb.Notices) != 1 || eb.Notices[0].Level != "success" {
		t.Fatalf("save notices: got %+v", eb.Notices)
	}
	if got := c.do(http.MethodPost, "/editor/personal/run", nil, &eb); got != http.StatusOK {
		t.Fatalf("run: got %d", got)
	}
	if eb.State.Output != "a\nb" || eb.State.Error || eb.State.Running {
		t.Errorf("run state: got %+v", eb.State)
	}

	var dash struct {
		Stats struct {
			TotalPrograms int64 `json:"total_programs"`
		} `json:"stats"`
		RecentActivity []models.Activity `json:"recent_activity"`
	}
	if got := c.do(http.MethodGet, "/dashboard", nil, &dash); got != http.StatusOK {
		t.Fatalf("dashboard: got %d", got)
	}
	if dash.Stats.TotalPrograms != 1 {
		t.Errorf("total_programs: got %d, want 1", dash.Stats.TotalPrograms)
	}
	if len(dash.RecentActivity) != 2 || dash.RecentActivity[0].Action != models.ActionEdited {
		t.Errorf("recent activity: got %+v", dash.RecentActivity)
	}

	if deps.Services.Workspaces.Len() == 0 {
		t.Fatal("expected a live workspace before logout")
	}
	if got := c.do(http.MethodPost, "/logout", nil, nil); got != http.StatusOK {
		t.Fatalf("logout: got %d", got)
	}
	if n := deps.Services.Workspaces.Len(); n != 0 {
		t.Errorf("workspaces after logout: got %d, want 0", n)
	}
	if got := c.do(http.MethodGet, "/me", nil, nil); got != http.StatusUnauthorized {
		t.Errorf("me after logout: got %d", got)
	}
}
