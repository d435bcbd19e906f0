package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"timestudy/internal/testkit"
	"timestudy/internal/timestudy"
	"timestudy/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunScanDrivesCycle(t *testing.T) {
	store := testkit.NewStore()
	ctx := context.Background()
	f, err := store.Seed(ctx, "Acme", 2)
	require.NoError(t, err)

	manager := timestudy.NewSessionManager(store.Users(), store.Processes(), store.Operations(), store.Sessions(), nil)
	recorder := timestudy.NewRecorder(store.Sessions(), store.Timings(), store.Operations(), nil)
	client := timestudy.NewLocalClient(manager, recorder, f.OperatorIdentity())

	ops, err := client.ListOperations(ctx, f.Process.ID)
	require.NoError(t, err)

	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		now = now.Add(3 * time.Second)
		return now
	}
	cycle, err := timestudy.NewCycle(client, f.Process.ID, ops, clock)
	require.NoError(t, err)

	in := strings.NewReader("end\nstart\n\nEND\npause\nstart\nend\n")
	var out bytes.Buffer
	require.NoError(t, runScan(ctx, cycle, in, &out))

	text := out.String()
	assert.Contains(t, text, "rejected: timer is not running")
	assert.Contains(t, text, "started OP1 Step 1")
	assert.Contains(t, text, "ended OP1 after 3s")
	assert.Contains(t, text, "> OP2 running, scan end")
	assert.Contains(t, text, "ended OP2 after 3s\ncycle complete\n> next OP1, scan start")
	assert.Contains(t, text, "rejected: unknown command pause")

	sessions := store.SessionsOf(f.Operator.ID)
	require.Len(t, sessions, 1)
	assert.Equal(t, models.SessionStatusCompleted, sessions[0].Status)
}

func TestRunScanStopsOnCancel(t *testing.T) {
	cycle, err := timestudy.NewCycle(nil, uuid.New(), []models.Operation{{Code: "OP1"}}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = runScan(ctx, cycle, strings.NewReader("start\n"), &bytes.Buffer{})
	assert.ErrorIs(t, err, context.Canceled)
}
