package app

import (
	"context"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/p-blackswan/taskboard/internal/config"
	perrors "github.com/p-blackswan/taskboard/internal/errors"
	"github.com/p-blackswan/taskboard/internal/fakeremote"
	"github.com/p-blackswan/taskboard/internal/health"
	"github.com/p-blackswan/taskboard/internal/metrics"
	"github.com/p-blackswan/taskboard/internal/models"
	"github.com/p-blackswan/taskboard/internal/navigation"
	"github.com/p-blackswan/taskboard/internal/schedule"
	"github.com/p-blackswan/taskboard/internal/session"
	"github.com/p-blackswan/taskboard/internal/store"
	"github.com/p-blackswan/taskboard/pkg/tokenstore"
)

func strPtr(v string) *string { return &v }

func testConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		LogLevel:          "debug",
		APIBaseURL:        "http://remote.test",
		RequestTimeout:    5 * time.Second,
		TokenBackend:      tokenstore.BackendMemory,
		ProjectUpdateMode: config.UpdateRefetch,
		TaskUpdateMode:    config.UpdateInPlace,
		UserUpdateMode:    config.UpdateRefetch,
	}
}

type world struct {
	remote *fakeremote.Server
	tokens tokenstore.Store
	app    *App
	alice  models.User
}

func newWorld(t *testing.T, opts ...Option) *world {
	t.Helper()
	remote := fakeremote.New(fakeremote.Config{Secret: "s3cret"}, zerolog.Nop())
	alice := remote.SeedUser("alice", "alice@example.com", "password1", models.RoleManager)

	tokens := tokenstore.NewMemoryStore()
	opts = append([]Option{WithHTTPClient(remote), WithTokenStore(tokens)}, opts...)
	a, err := New(testConfig(), zerolog.Nop(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Dispose() })

	return &world{remote: remote, tokens: tokens, app: a, alice: alice}
}

func (w *world) login(t *testing.T) {
	t.Helper()
	_, err := w.app.Auth.Login(context.Background(), models.Credentials{Identifier: "alice", Password: "password1"})
	require.NoError(t, err)
}

func TestNew_InvalidUpdateMode(t *testing.T) {
	cfg := testConfig()
	cfg.TaskUpdateMode = "sometimes"
	_, err := New(cfg, zerolog.Nop(), WithTokenStore(tokenstore.NewMemoryStore()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tasks update mode")
}

func TestNew_StoreModesFollowConfig(t *testing.T) {
	w := newWorld(t)
	assert.Equal(t, store.Refetch, w.app.Projects.Mode())
	assert.Equal(t, store.InPlace, w.app.Tasks.Mode())
	assert.Equal(t, store.Refetch, w.app.Users.Mode())
}

func TestApp_LoginAndBrowse(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	a := w.remote.SeedProject(models.Project{Name: "A", StartTime: strPtr("2024-01-01"), EndTime: strPtr("2024-01-05")})
	b := w.remote.SeedProject(models.Project{Name: "B", StartTime: strPtr("2024-01-06"), EndTime: strPtr("2024-01-09")}, a.ID)
	w.remote.SeedTask(models.Task{Name: "Design", ProjectID: a.ID}, w.alice.ID)
	w.remote.SetCriticalPath(&models.CriticalPath{Path: []int{b.ID}})

	require.NoError(t, w.app.Init(ctx))
	assert.False(t, w.app.Session.IsAuthenticated())

	w.login(t)
	assert.Equal(t, session.StateAuthenticated, w.app.Session.State())
	require.NotNil(t, w.app.Session.Identity())
	assert.Equal(t, "alice", w.app.Session.Identity().Username)

	projects, err := w.app.Projects.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, projects, 2)

	mine, err := w.app.Tasks.FetchMine(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Design", mine[0].Name)

	_, err = w.app.Schedule.FetchScheduleData(ctx)
	require.NoError(t, err)
	_, err = w.app.Schedule.FetchCriticalPath(ctx)
	require.NoError(t, err)
	critical := w.app.Schedule.CriticalSubset()
	require.Len(t, critical, 1)
	assert.Equal(t, "B", critical[0].Name)

	id, err := schedule.ParseTaskID(critical[0].ID)
	require.NoError(t, err)
	loc, err := w.app.Router.Navigate(fmt.Sprintf("/projects/%d", id))
	require.NoError(t, err)
	assert.Equal(t, navigation.Project, loc.Route.Name)
	assert.Equal(t, strconv.Itoa(b.ID), loc.Param("id"))
}

func TestApp_RejectedTokenLogsOutAndRedirects(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)
	w.login(t)

	_, err := w.app.Router.Navigate("/")
	require.NoError(t, err)

	w.remote.RotateSecret()

	_, err = w.app.Projects.FetchAll(ctx)
	require.Error(t, err)
	assert.Equal(t, perrors.KindUnauthorized, perrors.KindOf(err))

	assert.False(t, w.app.Session.IsAuthenticated())
	assert.Empty(t, w.app.Session.Token())
	assert.Equal(t, navigation.Login, w.app.Router.Current().Route.Name)

	_, err = w.tokens.Get(ctx)
	assert.ErrorIs(t, err, tokenstore.ErrTokenNotFound)
}

func TestApp_InitRestoresPersistedToken(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	token, err := w.remote.IssueToken(w.alice.ID)
	require.NoError(t, err)
	require.NoError(t, w.tokens.Set(ctx, tokenstore.NewToken(token)))

	require.NoError(t, w.app.Init(ctx))
	assert.Equal(t, session.StateAuthenticated, w.app.Session.State())
	assert.Equal(t, token, w.app.Session.Token())
}

func TestApp_InitWithRevokedTokenCleansUp(t *testing.T) {
	ctx := context.Background()
	w := newWorld(t)

	token, err := w.remote.IssueToken(w.alice.ID)
	require.NoError(t, err)
	require.NoError(t, w.tokens.Set(ctx, tokenstore.NewToken(token)))
	w.remote.RotateSecret()

	require.Error(t, w.app.Init(ctx))
	assert.False(t, w.app.Session.IsAuthenticated())
}

func TestApp_Health(t *testing.T) {
	w := newWorld(t)
	report := w.app.Health.Report(context.Background())
	assert.Equal(t, []health.Result{
		{Name: "remote", Status: health.StatusOK},
		{Name: "token_store", Status: health.StatusOK},
	}, report)
}

func TestApp_Metrics(t *testing.T) {
	m := metrics.New()
	w := newWorld(t, WithMetrics(m))
	w.login(t)

	_, err := w.app.Projects.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Greater(t, testutil.CollectAndCount(m.Registry()), 0)
}

func TestApp_DisposeDetachesListeners(t *testing.T) {
	w := newWorld(t)
	w.login(t)
	require.NoError(t, w.app.Dispose())

	w.remote.RotateSecret()
	_, err := w.app.Projects.FetchAll(context.Background())
	require.Error(t, err)

	assert.Equal(t, session.StateAuthenticated, w.app.Session.State())
}
