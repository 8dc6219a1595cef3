package commands

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/creatorhub-dev/creatorhub/internal/cli/client"
	"github.com/creatorhub-dev/creatorhub/internal/cli/config"
	"github.com/creatorhub-dev/creatorhub/internal/cli/storage"
	"github.com/creatorhub-dev/creatorhub/internal/cli/userconfig"
	apiconfig "github.com/creatorhub-dev/creatorhub/internal/config"
	"github.com/creatorhub-dev/creatorhub/internal/models"
	"github.com/creatorhub-dev/creatorhub/internal/server"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// cliEnv runs commands against a real API server on a temporary database
type cliEnv struct {
	t   *testing.T
	app *App
	fs  afero.Fs
	db  *gorm.DB
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	dir := t.TempDir()
	db, err := server.OpenDatabase(filepath.Join(dir, "api.sqlite"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { server.CloseDatabase(db) })

	srv, err := server.New(&apiconfig.Config{
		Auth: apiconfig.AuthConfig{
			JWTSecret:       "cli-test-secret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
		Media: apiconfig.MediaConfig{Dir: dir},
	}, db, zerolog.Nop(), "test", server.WithMediaFs(afero.NewMemMapFs()))
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	fs := afero.NewMemMapFs()
	cfg := &config.Config{
		APIURL:      ts.URL,
		AuthTimeout: 5 * time.Second,
		Timeout:     5 * time.Second,
		Locale:      "en",
		Storage:     config.StorageFile,
		Dir:         "/home/creatorhub",
	}

	app, err := NewApp(cfg, storage.NewMemory(), userconfig.New(fs, cfg.UserConfigFile()), zerolog.Nop())
	require.NoError(t, err)

	return &cliEnv{t: t, app: app, fs: fs, db: db}
}

// run executes one command line on a fresh command tree
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()

	root := &cobra.Command{Use: "creatorhub", SilenceUsage: true, SilenceErrors: true}
	Register(root, func() (*App, error) { return e.app, nil }, e.fs)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()

	out, err := e.run(args...)
	require.NoError(e.t, err, "creatorhub %s\n%s", strings.Join(args, " "), out)
	return out
}

func (e *cliEnv) login() {
	e.t.Helper()
	e.mustRun("register", "--email", "jane@example.com", "--name", "Jane Owner", "--password", "secret123")
}

func TestCommands_RequireLogin(t *testing.T) {
	env := newCLIEnv(t)

	for _, args := range [][]string{
		{"whoami"},
		{"creators", "ls"},
		{"contents", "ls"},
		{"dashboard"},
	} {
		_, err := env.run(args...)
		require.Error(t, err, args)
		assert.Contains(t, err.Error(), "not logged in", args)
	}
}

func TestCommands_Auth(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("register", "--email", "jane@example.com", "--name", "Jane Owner", "--password", "secret123")
	assert.Contains(t, out, "Account created")

	var info struct {
		User      client.User `json:"user"`
		APIURL    string      `json:"apiUrl"`
		ExpiresAt *time.Time  `json:"expiresAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("whoami", "-o", "json")), &info))
	assert.Equal(t, "jane@example.com", info.User.Email)
	assert.Equal(t, env.app.Config.APIURL, info.APIURL)
	require.NotNil(t, info.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Minute), *info.ExpiresAt, 10*time.Second)

	assert.Contains(t, env.mustRun("refresh"), "Session refreshed")
	assert.True(t, env.app.Session.State().IsAuthenticated)

	assert.Contains(t, env.mustRun("profile", "update", "--name", "Jane Renamed"), "Profile updated: Jane Renamed")
	assert.Contains(t, env.mustRun("whoami", "--remote"), "Jane Renamed")

	assert.Contains(t, env.mustRun("logout"), "Logged out")
	_, err := env.run("whoami")
	require.Error(t, err)

	_, err = env.run("login", "--email", "jane@example.com", "--password", "wrong-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")

	out = env.mustRun("login", "--email", "jane@example.com", "--password", "secret123")
	assert.Contains(t, out, "Login successful")
	assert.Contains(t, out, "Jane Renamed")
}

func TestCommands_LoginValidatesLocally(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("login", "--email", "not-an-email", "--password", "secret123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
	assert.False(t, env.app.Session.State().IsAuthenticated)
}

func TestCommands_Creators(t *testing.T) {
	env := newCLIEnv(t)
	env.login()

	out := env.mustRun("creators", "ls")
	assert.Contains(t, out, "No creators found")

	out = env.mustRun("creators", "create", "--name", "Jane Doe", "--email", "janedoe@example.com", "--tag", "fitness")
	assert.Contains(t, out, "Creator Jane Doe created")
	env.mustRun("creators", "create", "--name", "John Roe", "--email", "johnroe@example.com")

	out = env.mustRun("creators", "ls")
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "John Roe")

	out = env.mustRun("creators", "select", "john roe")
	assert.Contains(t, out, "Selected creator: John Roe")

	assert.Contains(t, env.mustRun("creators", "update", "--bio", "Cyclist"), "Creator John Roe updated")

	var creator client.Creator
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("creators", "get", "-o", "json")), &creator))
	assert.Equal(t, "John Roe", creator.Name)
	assert.Equal(t, "Cyclist", creator.Bio)

	out = env.mustRun("platforms", "connect", "youtube", "--token", "oauth-token")
	assert.Contains(t, out, "youtube connected to John Roe")
	assert.Contains(t, env.mustRun("platforms", "sync", "youtube"), "youtube synced")

	out = env.mustRun("creators", "get", "John Roe")
	assert.Contains(t, out, "youtube")
	assert.Contains(t, out, "johnroe")

	assert.Contains(t, env.mustRun("platforms", "disconnect", "youtube"), "youtube disconnected")

	_, err := env.run("platforms", "connect", "myspace", "--token", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown platform")

	assert.Contains(t, env.mustRun("creators", "delete", "John Roe", "--yes"), "Creator John Roe deleted")
	selected, err := env.app.Users.SelectedCreator()
	require.NoError(t, err)
	assert.Empty(t, selected)
}

func TestCommands_ContentLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	env.login()
	env.mustRun("creators", "create", "--name", "Jane Doe", "--email", "janedoe@example.com")

	require.NoError(t, afero.WriteFile(env.fs, "/media/morning-run.png", pngHeader, 0o644))
	require.NoError(t, afero.WriteFile(env.fs, "/media/notes.txt", []byte("plain text"), 0o644))

	_, err := env.run("contents", "upload", "/media/notes.txt", "--platform", "instagram")
	require.Error(t, err)

	_, err = env.run("contents", "upload", "/media/morning-run.png")
	require.Error(t, err, "platforms are required")

	out := env.mustRun("contents", "upload", "/media/morning-run.png", "--platform", "instagram", "--tag", "running")
	assert.Contains(t, out, `Uploaded "morning-run"`)

	var contents []client.Content
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("contents", "ls", "-o", "json")), &contents))
	require.Len(t, contents, 1)
	content := contents[0]
	assert.Equal(t, client.StatusDraft, content.Status)
	assert.Equal(t, client.ContentImage, content.Type)

	_, err = env.run("contents", "schedule", content.ID, "--at", "2001-01-01 10:00")
	require.Error(t, err)

	at := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	assert.Contains(t, env.mustRun("contents", "schedule", content.ID, "--at", at), "scheduled for")

	out = env.mustRun("dashboard")
	assert.Contains(t, out, "Jane Doe")
	assert.Contains(t, out, "0 draft, 1 scheduled, 0 published")
	assert.Contains(t, out, "morning-run")

	assert.Contains(t, env.mustRun("contents", "update", content.ID, "--title", "Sunrise run"), `"Sunrise run" updated`)

	out = env.mustRun("contents", "publish", content.ID)
	assert.Contains(t, out, `"Sunrise run" published to instagram`)

	_, err = env.run("contents", "publish", content.ID)
	require.Error(t, err)

	out = env.mustRun("contents", "ls", "--status", "published")
	assert.Contains(t, out, "Sunrise run")
	out = env.mustRun("contents", "ls", "--status", "draft")
	assert.Contains(t, out, "No content found")

	out = env.mustRun("analytics", "content", content.ID)
	assert.Contains(t, out, "VIEWS")

	assert.Contains(t, env.mustRun("contents", "delete", content.ID), "deleted")
	_, err = env.run("contents", "get", content.ID)
	require.Error(t, err)
}

func TestCommands_AnalyticsAndExport(t *testing.T) {
	env := newCLIEnv(t)
	env.login()
	env.mustRun("creators", "create", "--name", "Jane Doe", "--email", "janedoe@example.com")

	var creator models.Creator
	require.NoError(t, env.db.First(&creator).Error)
	require.NoError(t, env.db.Create(&models.Subscription{
		CreatorID:    creator.ID,
		SubscriberID: "fan-1",
		Tier:         "premium",
		Price:        9.99,
		Status:       models.SubscriptionActive,
		BillingCycle: "monthly",
		StartDate:    time.Now().UTC().Add(-time.Hour),
	}).Error)

	var analytics client.Analytics
	require.NoError(t, json.Unmarshal([]byte(env.mustRun("analytics", "creator", "--period", "week", "-o", "json")), &analytics))
	assert.Equal(t, client.PeriodWeek, analytics.Period)
	assert.Equal(t, int64(1), analytics.NewFollowers)

	_, err := env.run("analytics", "creator", "--period", "decade")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid period")

	out := env.mustRun("subscribers", "ls")
	assert.Contains(t, out, "fan-1")
	assert.Contains(t, out, "premium")

	out = env.mustRun("subscribers", "export", "-f", "/exports/subscribers.csv")
	assert.Contains(t, out, "Exported subscribers of Jane Doe")

	data, err := afero.ReadFile(env.fs, "/exports/subscribers.csv")
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "fan-1", records[1][1])

	_, err = env.run("subscribers", "export", "--format", "xlsx")
	require.Error(t, err)

	_, err = env.run("subscribers", "export", "--format", "pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")

	out = env.mustRun("dashboard", "-o", "yaml")
	assert.Contains(t, out, "premium: 1")
}

func TestParseScheduleTime(t *testing.T) {
	got, err := parseScheduleTime("2030-05-01T10:00:00Z")
	if err != nil {
		t.Fatalf("expected RFC 3339 to parse, got %v", err)
	}
	if !got.Equal(time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected time %v", got)
	}

	got, err = parseScheduleTime("2030-05-01 10:00")
	if err != nil {
		t.Fatalf("expected local layout to parse, got %v", err)
	}
	if got.Location() != time.Local || got.Hour() != 10 {
		t.Errorf("expected 10:00 local time, got %v", got)
	}

	if _, err := parseScheduleTime("next tuesday"); err == nil {
		t.Error("expected error for unparseable time")
	}
}

func TestParsePlatform(t *testing.T) {
	p, err := parsePlatform("YouTube")
	if err != nil || p != client.PlatformYouTube {
		t.Errorf("expected youtube, got %q (%v)", p, err)
	}

	if _, err := parsePlatform("myspace"); err == nil || !strings.Contains(err.Error(), "onlyfans") {
		t.Errorf("expected error listing the platforms, got %v", err)
	}
}

func TestRender_UnknownFormat(t *testing.T) {
	cmd := &cobra.Command{}
	AddOutputFlag(cmd)
	if err := cmd.PersistentFlags().Set("output", "xml"); err != nil {
		t.Fatal(err)
	}

	err := render(cmd, nil, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}
