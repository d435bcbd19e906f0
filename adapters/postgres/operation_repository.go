package postgres

import (
	"context"

	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const operationColumns = `id, process_id, operation_code, description, standard_time_seconds,
	tools_required, quality_check, sequence_number`

// OperationRepositoryImpl implements OperationRepository
type OperationRepositoryImpl struct {
	db *sqlx.DB
}

// NewOperationRepository creates a new operation repository
func NewOperationRepository(db *sqlx.DB) ports.OperationRepository {
	return &OperationRepositoryImpl{db: db}
}

// insertOperations writes operations with their sequence numbers as given
func insertOperations(ctx context.Context, tx *sqlx.Tx, operations []models.Operation) error {
	if len(operations) == 0 {
		return nil
	}
	for i := range operations {
		if operations[i].ID == uuid.Nil {
			operations[i].ID = uuid.New()
		}
	}

	_, err := tx.NamedExecContext(ctx, `
		INSERT INTO operations (id, process_id, operation_code, description, standard_time_seconds,
			tools_required, quality_check, sequence_number)
		VALUES (:id, :process_id, :operation_code, :description, :standard_time_seconds,
			:tools_required, :quality_check, :sequence_number)
	`, operations)
	return translateError(err, "operation code")
}

// ListByProcess returns the operations of a process in sequence order
func (r *OperationRepositoryImpl) ListByProcess(ctx context.Context, processID uuid.UUID) ([]models.Operation, error) {
	operations := []models.Operation{}
	err := r.db.SelectContext(ctx, &operations, r.db.Rebind(`
		SELECT `+operationColumns+` FROM operations WHERE process_id = ? ORDER BY sequence_number ASC
	`), processID)
	if err != nil {
		return nil, translateError(err, "operation")
	}
	return operations, nil
}

// GetByID retrieves an operation belonging to a process
func (r *OperationRepositoryImpl) GetByID(ctx context.Context, processID, id uuid.UUID) (*models.Operation, error) {
	var operation models.Operation
	err := r.db.GetContext(ctx, &operation, r.db.Rebind(`
		SELECT `+operationColumns+` FROM operations WHERE process_id = ? AND id = ?
	`), processID, id)
	if err != nil {
		return nil, translateError(err, "operation")
	}
	return &operation, nil
}

// Insert places an operation at its sequence number, shifting later operations up by one
func (r *OperationRepositoryImpl) Insert(ctx context.Context, operation *models.Operation) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// Concurrent inserts into one process serialize on the process row.
		lock := `SELECT id FROM processes WHERE id = ?`
		if tx.DriverName() == DriverPostgres {
			lock += ` FOR UPDATE`
		}
		var processID string
		if err := tx.GetContext(ctx, &processID, tx.Rebind(lock), operation.ProcessID); err != nil {
			return translateError(err, "process")
		}

		var next int
		err := tx.GetContext(ctx, &next, tx.Rebind(`
			SELECT COALESCE(MAX(sequence_number), -1) + 1 FROM operations WHERE process_id = ?
		`), operation.ProcessID)
		if err != nil {
			return translateError(err, "operation")
		}
		if operation.SequenceNumber < 0 || operation.SequenceNumber > next {
			operation.SequenceNumber = next
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE operations SET sequence_number = sequence_number + 1
			WHERE process_id = ? AND sequence_number >= ?
		`), operation.ProcessID, operation.SequenceNumber)
		if err != nil {
			return translateError(err, "operation")
		}

		ops := []models.Operation{*operation}
		if err := insertOperations(ctx, tx, ops); err != nil {
			return err
		}
		operation.ID = ops[0].ID
		return nil
	})
}

// Update saves the editable fields of an operation
func (r *OperationRepositoryImpl) Update(ctx context.Context, operation *models.Operation) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE operations
		SET operation_code = ?, description = ?, standard_time_seconds = ?, tools_required = ?, quality_check = ?
		WHERE process_id = ? AND id = ?
	`), operation.Code, operation.Description, operation.StandardTimeSeconds, operation.ToolsRequired,
		operation.QualityCheck, operation.ProcessID, operation.ID)
	if err != nil {
		return translateError(err, "operation code")
	}
	return expectAffected(res, "operation")
}

// DeleteAndRenumber removes an operation and closes the gap it leaves in the sequence
func (r *OperationRepositoryImpl) DeleteAndRenumber(ctx context.Context, processID, id uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var seq int
		err := tx.GetContext(ctx, &seq, tx.Rebind(`
			SELECT sequence_number FROM operations WHERE process_id = ? AND id = ?
		`), processID, id)
		if err != nil {
			return translateError(err, "operation")
		}

		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM operations WHERE id = ?`), id); err != nil {
			return translateError(err, "operation")
		}

		_, err = tx.ExecContext(ctx, tx.Rebind(`
			UPDATE operations SET sequence_number = sequence_number - 1
			WHERE process_id = ? AND sequence_number > ?
		`), processID, seq)
		return translateError(err, "operation")
	})
}

// ReplaceAll deletes every operation of a process and inserts the given set atomically
func (r *OperationRepositoryImpl) ReplaceAll(ctx context.Context, processID uuid.UUID, operations []models.Operation) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM operations WHERE process_id = ?`), processID); err != nil {
			return translateError(err, "operation")
		}
		for i := range operations {
			operations[i].ProcessID = processID
		}
		return insertOperations(ctx, tx, operations)
	})
}

// LastSequence returns the highest sequence number of a process, or -1 when it has none
func (r *OperationRepositoryImpl) LastSequence(ctx context.Context, processID uuid.UUID) (int, error) {
	var seq int
	err := r.db.GetContext(ctx, &seq, r.db.Rebind(`
		SELECT COALESCE(MAX(sequence_number), -1) FROM operations WHERE process_id = ?
	`), processID)
	if err != nil {
		return 0, translateError(err, "operation")
	}
	return seq, nil
}
