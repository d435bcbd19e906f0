package timestudy

import (
	"context"
	"time"

	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// LocalClient runs the timing client contract in-process for one operator
type LocalClient struct {
	manager  *SessionManager
	recorder *Recorder
	who      models.Identity
}

var _ ports.TimingClient = (*LocalClient)(nil)

// NewLocalClient binds the timing services to an operator identity
func NewLocalClient(manager *SessionManager, recorder *Recorder, who models.Identity) *LocalClient {
	return &LocalClient{manager: manager, recorder: recorder, who: who}
}

func (c *LocalClient) ListOperations(ctx context.Context, processID uuid.UUID) ([]models.Operation, error) {
	detail, err := c.manager.ProcessForTiming(ctx, c.who, processID)
	if err != nil {
		return nil, err
	}
	return detail.Operations, nil
}

func (c *LocalClient) CreateSession(ctx context.Context, processID uuid.UUID) (uuid.UUID, error) {
	session, err := c.manager.CreateSession(ctx, c.who, processID)
	if err != nil {
		return uuid.Nil, err
	}
	return session.ID, nil
}

func (c *LocalClient) StartOperation(ctx context.Context, sessionID, operationID uuid.UUID, at time.Time) (uuid.UUID, error) {
	timing, err := c.recorder.Start(ctx, c.who, StartRequest{SessionID: sessionID, OperationID: operationID, StartTime: &at})
	if err != nil {
		return uuid.Nil, err
	}
	return timing.ID, nil
}

func (c *LocalClient) EndOperation(ctx context.Context, sessionID, operationID uuid.UUID, at time.Time, totalSeconds float64) (uuid.UUID, error) {
	timing, err := c.recorder.End(ctx, c.who, EndRequest{
		SessionID:        sessionID,
		OperationID:      operationID,
		EndTime:          &at,
		TotalTimeSeconds: &totalSeconds,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return timing.ID, nil
}
