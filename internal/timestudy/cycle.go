package timestudy

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"

	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// Phase is the session state of a client cycle
type Phase int

const (
	// NoSession: the next start opens a fresh session
	NoSession Phase = iota
	// SessionPending: session creation is in flight
	SessionPending
	// SessionActive: timings are recorded against the held session
	SessionActive
)

func (p Phase) String() string {
	switch p {
	case SessionPending:
		return "pending"
	case SessionActive:
		return "active"
	default:
		return "none"
	}
}

// Commands accepted by Cycle.Handle
const (
	CommandStart = "start"
	CommandEnd   = "end"
)

// Event reports what a command did
type Event struct {
	Command        string
	SessionID      uuid.UUID
	TimingID       uuid.UUID
	Operation      models.Operation
	ElapsedSeconds float64
	// CycleComplete is set when the last operation ended and the session was released
	CycleComplete bool
}

// Cycle drives an operator through the operations of one process, one start/end pair
// at a time. The timer is client-side; the server only receives the measured duration.
type Cycle struct {
	mu sync.Mutex

	client     ports.TimingClient
	processID  uuid.UUID
	operations []models.Operation
	now        Clock

	phase     Phase
	sessionID uuid.UUID
	index     int
	running   bool
	startedAt time.Time
}

// NewCycle creates a cycle over the operations of a process, in sequence order
func NewCycle(client ports.TimingClient, processID uuid.UUID, operations []models.Operation, now Clock) (*Cycle, error) {
	if len(operations) == 0 {
		return nil, errors.ValidationError("process has no operations to time")
	}
	if now == nil {
		now = SystemClock
	}
	return &Cycle{
		client:     client,
		processID:  processID,
		operations: operations,
		now:        now,
	}, nil
}

// Phase returns the session state
func (c *Cycle) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Running reports whether the timer is running
func (c *Cycle) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Current returns the operation the next command applies to
func (c *Cycle) Current() models.Operation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.operations[c.index]
}

// SessionID returns the held session, or uuid.Nil
func (c *Cycle) SessionID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Handle applies one operator command
func (c *Cycle) Handle(ctx context.Context, command string) (*Event, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch strings.ToLower(strings.TrimSpace(command)) {
	case CommandStart:
		return c.start(ctx)
	case CommandEnd:
		return c.end(ctx)
	default:
		return nil, errors.InvalidInput("unknown command " + strings.TrimSpace(command) + `, expected "start" or "end"`)
	}
}

func (c *Cycle) start(ctx context.Context) (*Event, error) {
	if c.running {
		return nil, errors.ValidationError("timer is already running")
	}

	if c.phase == NoSession {
		c.phase = SessionPending
		id, err := c.client.CreateSession(ctx, c.processID)
		if err != nil {
			c.phase = NoSession
			return nil, errors.Wrap(err, "failed to create session")
		}
		c.sessionID = id
		c.phase = SessionActive
	}

	op := c.operations[c.index]
	at := c.now()
	timingID, err := c.client.StartOperation(ctx, c.sessionID, op.ID, at)
	if err != nil {
		if errors.IsConflict(err) {
			// The server refuses timings on the held session; start over on a new one.
			c.release()
			return nil, errors.Wrap(err, "session released, scan start to begin a new cycle")
		}
		return nil, errors.Wrap(err, "failed to start operation")
	}

	c.running = true
	c.startedAt = at
	return &Event{Command: CommandStart, SessionID: c.sessionID, TimingID: timingID, Operation: op}, nil
}

func (c *Cycle) end(ctx context.Context) (*Event, error) {
	if !c.running {
		return nil, errors.ValidationError("timer is not running")
	}

	// The timer stops whether or not the server accepts the end.
	c.running = false
	op := c.operations[c.index]
	at := c.now()
	elapsed := math.Floor(at.Sub(c.startedAt).Seconds())

	timingID, err := c.client.EndOperation(ctx, c.sessionID, op.ID, at, elapsed)
	if err != nil {
		return nil, errors.Wrap(err, "failed to end operation")
	}

	event := &Event{
		Command:        CommandEnd,
		SessionID:      c.sessionID,
		TimingID:       timingID,
		Operation:      op,
		ElapsedSeconds: elapsed,
	}

	c.index = (c.index + 1) % len(c.operations)
	if c.index == 0 {
		c.release()
		event.CycleComplete = true
	}
	return event, nil
}

// release drops the held session and rewinds to the first operation
func (c *Cycle) release() {
	c.phase = NoSession
	c.sessionID = uuid.Nil
	c.index = 0
}
