package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"timestudy/adapters/excel"
	"timestudy/internal/auth"
	"timestudy/internal/catalog"
	"timestudy/internal/errors"
	"timestudy/internal/report"
	"timestudy/internal/testkit"
	"timestudy/internal/timestudy"
	"timestudy/models"
	"timestudy/ui"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*httptest.Server, *testkit.Store, *testkit.Fixture) {
	t.Helper()
	store := testkit.NewStore()
	f, err := store.Seed(context.Background(), "Acme", 2)
	require.NoError(t, err)

	codec := excel.NewCodec()
	srv := ui.NewServer(ui.Services{
		Auth:     auth.NewService(store.Users(), store.AuthSessions(), time.Hour, nil),
		Users:    auth.NewUserService(store.Users(), store.Processes()),
		Sessions: timestudy.NewSessionManager(store.Users(), store.Processes(), store.Operations(), store.Sessions(), nil),
		Recorder: timestudy.NewRecorder(store.Sessions(), store.Timings(), store.Operations(), nil),
		Catalog:  catalog.NewService(store.Processes(), store.Operations(), codec),
		Reports:  report.NewAggregator(store.Reports(), store.Processes(), codec, time.UTC),
	}, ui.Options{})

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, store, f
}

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(5 * time.Second)
	return c.now
}

func TestClientDrivesFullCycle(t *testing.T) {
	ts, store, f := newTestServer(t)
	ctx := context.Background()

	client := NewClient(ts.URL+"/", time.Second)
	who, err := client.Login(ctx, f.Operator.BadgeID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOperator, who.Role)
	assert.Equal(t, f.Operator.ID, who.UserID)
	assert.Equal(t, f.Company.ID, who.CompanyID)

	ops, err := client.ListOperations(ctx, f.Process.ID)
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "OP1", ops[0].Code)

	clock := &stepClock{now: time.Now().Add(-time.Minute)}
	cycle, err := timestudy.NewCycle(client, f.Process.ID, ops, clock.Now)
	require.NoError(t, err)

	var last *timestudy.Event
	for _, command := range []string{"start", "end", "start", "end"} {
		last, err = cycle.Handle(ctx, command)
		require.NoError(t, err, command)
	}
	assert.True(t, last.CycleComplete)
	assert.Equal(t, 5.0, last.ElapsedSeconds)

	sessions := store.SessionsOf(f.Operator.ID)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.SessionStatusCompleted, sessions[0].Status)

	require.NoError(t, client.Logout(ctx))
	_, err = client.ListOperations(ctx, f.Process.ID)
	assert.True(t, errors.IsUnauthorized(err))
}

func TestClientMapsServerErrors(t *testing.T) {
	ts, _, f := newTestServer(t)
	ctx := context.Background()

	client := NewClient(ts.URL, time.Second)
	_, err := client.Login(ctx, "nobody")
	assert.True(t, errors.IsUnauthorized(err))
	assert.Equal(t, "invalid badge id", errors.Message(err))

	_, err = client.Login(ctx, f.Operator.BadgeID)
	require.NoError(t, err)

	sessionID, err := client.CreateSession(ctx, f.Process.ID)
	require.NoError(t, err)

	at := time.Now()
	_, err = client.StartOperation(ctx, sessionID, f.Operations[0].ID, at)
	require.NoError(t, err)
	_, err = client.StartOperation(ctx, sessionID, f.Operations[0].ID, at)
	assert.True(t, errors.IsConflict(err))

	_, err = client.EndOperation(ctx, sessionID, f.Operations[1].ID, at, 3)
	assert.True(t, errors.IsNotFound(err))

	_, err = client.CreateSession(ctx, uuid.New())
	assert.Error(t, err)
}

func TestResponseErrorWithoutBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewClient(ts.URL, 0).CreateSession(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, errors.CodeInternalError, errors.GetCode(err))
	assert.Equal(t, "API returned status 502", errors.Message(err))
}

func TestIDFieldValidation(t *testing.T) {
	_, err := idField([]byte(`{}`), "timing_id")
	assert.ErrorContains(t, err, "missing timing_id")

	_, err = idField([]byte(`{"timing_id":"nope"}`), "timing_id")
	assert.Error(t, err)

	id := uuid.New()
	got, err := idField([]byte(`{"timing_id":"`+id.String()+`"}`), "timing_id")
	require.NoError(t, err)
	assert.Equal(t, id, got)
}
