package ports

import (
	"context"
	"time"

	"timestudy/models"

	"github.com/google/uuid"
)

// TimingClient is the operator-side view of the timing endpoints. It is implemented
// in-process by the timing services and remotely by the HTTP API client.
type TimingClient interface {
	// ListOperations returns the operations of a granted process in sequence order
	ListOperations(ctx context.Context, processID uuid.UUID) ([]models.Operation, error)

	// CreateSession opens a timing session for a granted process
	CreateSession(ctx context.Context, processID uuid.UUID) (uuid.UUID, error)

	// StartOperation opens a timing and returns its ID
	StartOperation(ctx context.Context, sessionID, operationID uuid.UUID, at time.Time) (uuid.UUID, error)

	// EndOperation closes the open timing of an operation with the client-measured duration
	EndOperation(ctx context.Context, sessionID, operationID uuid.UUID, at time.Time, totalSeconds float64) (uuid.UUID, error)
}
