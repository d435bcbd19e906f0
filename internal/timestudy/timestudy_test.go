package timestudy

import (
	"context"
	"testing"
	"time"

	"timestudy/internal/errors"
	"timestudy/internal/testkit"
	"timestudy/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	store    *testkit.Store
	fixture  *testkit.Fixture
	clock    *fakeClock
	manager  *SessionManager
	recorder *Recorder
}

func newHarness(t *testing.T, operations int) *harness {
	t.Helper()
	store := testkit.NewStore()
	fixture, err := store.Seed(context.Background(), "Acme", operations)
	require.NoError(t, err)

	clock := newFakeClock()
	return &harness{
		store:    store,
		fixture:  fixture,
		clock:    clock,
		manager:  NewSessionManager(store.Users(), store.Processes(), store.Operations(), store.Sessions(), clock.Now),
		recorder: NewRecorder(store.Sessions(), store.Timings(), store.Operations(), clock.Now),
	}
}

func (h *harness) openSession(t *testing.T) *models.TimingSession {
	t.Helper()
	session, err := h.manager.CreateSession(context.Background(), h.fixture.OperatorIdentity(), h.fixture.Process.ID)
	require.NoError(t, err)
	return session
}

func TestCreateSessionBumpsTrackingCounter(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	session := h.openSession(t)
	assert.Equal(t, models.SessionStatusOpen, session.Status)
	assert.Equal(t, h.clock.Now(), session.StartedAt)

	process, err := h.store.Processes().GetByID(ctx, h.fixture.Company.ID, h.fixture.Process.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, process.TrackingCount)
	require.NotNil(t, process.LastTrackedAt)
	assert.Equal(t, h.clock.Now(), *process.LastTrackedAt)
}

func TestCreateSessionWithoutGrantIsDenied(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()

	other, err := h.store.Seed(ctx, "Globex", 1)
	require.NoError(t, err)

	tests := []struct {
		name      string
		processID uuid.UUID
	}{
		{"other tenant's process", other.Process.ID},
		{"unknown process", uuid.New()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.manager.CreateSession(ctx, h.fixture.OperatorIdentity(), tt.processID)
			assert.True(t, errors.IsAccessDenied(err))
		})
	}

	assert.Equal(t, 0, h.store.SessionCount())
	process, err := h.store.Processes().GetByID(ctx, other.Company.ID, other.Process.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, process.TrackingCount)
}

func TestProcessForTiming(t *testing.T) {
	h := newHarness(t, 3)
	ctx := context.Background()

	detail, err := h.manager.ProcessForTiming(ctx, h.fixture.OperatorIdentity(), h.fixture.Process.ID)
	require.NoError(t, err)
	require.Len(t, detail.Operations, 3)
	for i, op := range detail.Operations {
		assert.Equal(t, i, op.SequenceNumber)
	}

	_, err = h.manager.ProcessForTiming(ctx, h.fixture.AdminIdentity(), h.fixture.Process.ID)
	assert.True(t, errors.IsAccessDenied(err))

	granted, err := h.manager.GrantedProcesses(ctx, h.fixture.OperatorIdentity())
	require.NoError(t, err)
	require.Len(t, granted, 1)
	assert.Equal(t, 3, granted[0].OperationCount)
}

func TestStartValidatesSessionAndOperation(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	session := h.openSession(t)

	other, err := h.store.Seed(ctx, "Globex", 1)
	require.NoError(t, err)

	tests := []struct {
		name string
		who  models.Identity
		req  StartRequest
	}{
		{
			name: "unknown session",
			who:  h.fixture.OperatorIdentity(),
			req:  StartRequest{SessionID: uuid.New(), OperationID: h.fixture.Operations[0].ID},
		},
		{
			name: "session of another operator",
			who:  other.OperatorIdentity(),
			req:  StartRequest{SessionID: session.ID, OperationID: h.fixture.Operations[0].ID},
		},
		{
			name: "operation of another process",
			who:  h.fixture.OperatorIdentity(),
			req:  StartRequest{SessionID: session.ID, OperationID: other.Operations[0].ID},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.recorder.Start(ctx, tt.who, tt.req)
			assert.True(t, errors.IsNotFound(err), "got %v", err)
		})
	}
}

func TestStartRejectsSecondOpenTiming(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	who := h.fixture.OperatorIdentity()
	session := h.openSession(t)
	req := StartRequest{SessionID: session.ID, OperationID: h.fixture.Operations[0].ID}

	first, err := h.recorder.Start(ctx, who, req)
	require.NoError(t, err)
	assert.True(t, first.IsOpen())

	_, err = h.recorder.Start(ctx, who, req)
	assert.True(t, errors.IsConflict(err))
}

func TestEndWithoutOpenTimingIsNotFound(t *testing.T) {
	h := newHarness(t, 2)
	session := h.openSession(t)

	_, err := h.recorder.End(context.Background(), h.fixture.OperatorIdentity(), EndRequest{
		SessionID:   session.ID,
		OperationID: h.fixture.Operations[0].ID,
	})
	assert.True(t, errors.IsNotFound(err))
}

func TestEndRejectsBadInput(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	who := h.fixture.OperatorIdentity()
	session := h.openSession(t)
	op := h.fixture.Operations[0].ID

	_, err := h.recorder.Start(ctx, who, StartRequest{SessionID: session.ID, OperationID: op})
	require.NoError(t, err)

	negative := -1.0
	_, err = h.recorder.End(ctx, who, EndRequest{SessionID: session.ID, OperationID: op, TotalTimeSeconds: &negative})
	assert.True(t, errors.IsValidation(err))

	early := h.clock.Now().Add(-time.Minute)
	_, err = h.recorder.End(ctx, who, EndRequest{SessionID: session.ID, OperationID: op, EndTime: &early})
	assert.True(t, errors.IsValidation(err))

	h.clock.Advance(time.Second)
	closed, err := h.recorder.End(ctx, who, EndRequest{SessionID: session.ID, OperationID: op})
	require.NoError(t, err)
	assert.Nil(t, closed.TotalTimeSeconds, "absent total stays absent")
}

func TestGapTimesFollowPreviousClosedTiming(t *testing.T) {
	h := newHarness(t, 4)
	ctx := context.Background()
	who := h.fixture.OperatorIdentity()
	session := h.openSession(t)

	idle := []time.Duration{0, 5500 * time.Millisecond, 999 * time.Millisecond, 2 * time.Minute}
	for i, op := range h.fixture.Operations {
		h.clock.Advance(idle[i])
		_, err := h.recorder.Start(ctx, who, StartRequest{SessionID: session.ID, OperationID: op.ID})
		require.NoError(t, err)

		h.clock.Advance(10 * time.Second)
		total := 10.0
		_, err = h.recorder.End(ctx, who, EndRequest{SessionID: session.ID, OperationID: op.ID, TotalTimeSeconds: &total})
		require.NoError(t, err)
	}

	timings, err := h.store.Timings().ListBySession(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, timings, 4)

	assert.Nil(t, timings[0].TimeBetweenOperationsSeconds, "first timing has no gap")
	expected := []int64{5, 0, 120}
	for k := 1; k < len(timings); k++ {
		require.NotNil(t, timings[k].EndTime)
		assert.False(t, timings[k].EndTime.Before(timings[k].StartTime))
		require.NotNil(t, timings[k].TimeBetweenOperationsSeconds)
		assert.Equal(t, expected[k-1], *timings[k].TimeBetweenOperationsSeconds)
	}
}

func TestGapSecondsFloors(t *testing.T) {
	end := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		start time.Time
		want  int64
	}{
		{"immediate", end, 0},
		{"just under a second", end.Add(999 * time.Millisecond), 0},
		{"one and a half", end.Add(1500 * time.Millisecond), 1},
		{"overlapping", end.Add(-500 * time.Millisecond), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GapSeconds(&end, tt.start))
		})
	}
}

func TestEndOfLastOperationCompletesSession(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	who := h.fixture.OperatorIdentity()
	session := h.openSession(t)

	for i, op := range h.fixture.Operations {
		_, err := h.recorder.Start(ctx, who, StartRequest{SessionID: session.ID, OperationID: op.ID})
		require.NoError(t, err)
		h.clock.Advance(3 * time.Second)
		_, err = h.recorder.End(ctx, who, EndRequest{SessionID: session.ID, OperationID: op.ID})
		require.NoError(t, err)

		got, err := h.store.Sessions().GetSession(ctx, who.UserID, session.ID)
		require.NoError(t, err)
		if i < len(h.fixture.Operations)-1 {
			assert.Equal(t, models.SessionStatusOpen, got.Status)
		} else {
			assert.Equal(t, models.SessionStatusCompleted, got.Status)
			require.NotNil(t, got.CompletedAt)
		}
	}

	_, err := h.recorder.Start(ctx, who, StartRequest{SessionID: session.ID, OperationID: h.fixture.Operations[0].ID})
	assert.True(t, errors.IsConflict(err), "completed sessions take no new timings")
}

func TestSweeperAbandonsStaleSessions(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	session := h.openSession(t)

	require.NoError(t, h.store.AuthSessions().Create(ctx, &models.AuthSession{
		Token: "old", UserID: h.fixture.Operator.ID, ExpiresAt: h.clock.Now().Add(time.Hour),
	}))

	sweeper := NewSweeper(h.store.Sessions(), h.store.AuthSessions(), 12*time.Hour, h.clock.Now)

	result, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, SweepResult{}, result)

	h.clock.Advance(13 * time.Hour)
	result, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.AbandonedSessions)
	assert.Equal(t, int64(1), result.ExpiredTokens)

	got, err := h.store.Sessions().GetSession(ctx, h.fixture.Operator.ID, session.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAbandoned, got.Status)
}

func TestStartReportsConcurrentInsertAsConflict(t *testing.T) {
	h := newHarness(t, 2)
	ctx := context.Background()
	session := h.openSession(t)

	// Another request inserted the open timing between the lookup and the insert.
	h.store.FailNext(errors.Conflict("open operation timing already exists"))
	_, err := h.recorder.Start(ctx, h.fixture.OperatorIdentity(), StartRequest{
		SessionID:   session.ID,
		OperationID: h.fixture.Operations[0].ID,
	})
	require.Error(t, err)
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, "operation is already being timed", errors.Message(err))
}
