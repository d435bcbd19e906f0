package ports

import (
	"context"

	"timestudy/models"

	"github.com/google/uuid"
)

// ProcessRepository defines the interface for process data operations.
// Every lookup is scoped to the caller's company.
type ProcessRepository interface {
	// CreateWithOperations inserts a process and its operations as one atomic batch
	CreateWithOperations(ctx context.Context, process *models.Process, operations []models.Operation) error

	// GetByID retrieves a process of a company
	GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Process, error)

	// GetByName retrieves a process of a company by its unique name
	GetByName(ctx context.Context, companyID uuid.UUID, name string) (*models.Process, error)

	// List returns the processes of a company ordered by name, with operation counts
	List(ctx context.Context, companyID uuid.UUID) ([]*models.Process, error)

	// Delete removes a process together with its operations, grants, sessions and timings
	Delete(ctx context.Context, companyID, id uuid.UUID) error
}

// OperationRepository defines the interface for the operation catalog
type OperationRepository interface {
	// ListByProcess returns the operations of a process in sequence order
	ListByProcess(ctx context.Context, processID uuid.UUID) ([]models.Operation, error)

	// GetByID retrieves an operation belonging to a process
	GetByID(ctx context.Context, processID, id uuid.UUID) (*models.Operation, error)

	// Insert places an operation at its sequence number, shifting later operations up by one.
	// A negative or past-the-end sequence number appends; the final position is written back.
	Insert(ctx context.Context, operation *models.Operation) error

	// Update saves the editable fields of an operation; the sequence number is not changed
	Update(ctx context.Context, operation *models.Operation) error

	// DeleteAndRenumber removes an operation and shifts later operations down by one atomically
	DeleteAndRenumber(ctx context.Context, processID, id uuid.UUID) error

	// ReplaceAll deletes every operation of a process and inserts the given set atomically
	ReplaceAll(ctx context.Context, processID uuid.UUID, operations []models.Operation) error

	// LastSequence returns the highest sequence number of a process, or -1 when it has none
	LastSequence(ctx context.Context, processID uuid.UUID) (int, error)
}
