package postgres

import (
	"context"
	"time"

	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const processColumns = `p.id, p.company_id, p.name, p.tracking_count, p.last_tracked_at, p.created_at,
	(SELECT COUNT(*) FROM operations o WHERE o.process_id = p.id) AS operation_count`

// ProcessRepositoryImpl implements ProcessRepository
type ProcessRepositoryImpl struct {
	db *sqlx.DB
}

// NewProcessRepository creates a new process repository
func NewProcessRepository(db *sqlx.DB) ports.ProcessRepository {
	return &ProcessRepositoryImpl{db: db}
}

// CreateWithOperations inserts a process and its operations as one atomic batch
func (r *ProcessRepositoryImpl) CreateWithOperations(ctx context.Context, process *models.Process, operations []models.Operation) error {
	if process.ID == uuid.Nil {
		process.ID = uuid.New()
	}
	if process.CreatedAt.IsZero() {
		process.CreatedAt = time.Now().UTC()
	}

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO processes (id, company_id, name, tracking_count, last_tracked_at, created_at)
			VALUES (?, ?, ?, 0, NULL, ?)
		`), process.ID, process.CompanyID, process.Name, process.CreatedAt.UTC())
		if err != nil {
			return translateError(err, "process name")
		}

		for i := range operations {
			operations[i].ProcessID = process.ID
		}
		return insertOperations(ctx, tx, operations)
	})
	if err != nil {
		return err
	}

	process.OperationCount = len(operations)
	return nil
}

// GetByID retrieves a process of a company
func (r *ProcessRepositoryImpl) GetByID(ctx context.Context, companyID, id uuid.UUID) (*models.Process, error) {
	var process models.Process
	err := r.db.GetContext(ctx, &process, r.db.Rebind(`
		SELECT `+processColumns+` FROM processes p WHERE p.company_id = ? AND p.id = ?
	`), companyID, id)
	if err != nil {
		return nil, translateError(err, "process")
	}
	return &process, nil
}

// GetByName retrieves a process of a company by its unique name
func (r *ProcessRepositoryImpl) GetByName(ctx context.Context, companyID uuid.UUID, name string) (*models.Process, error) {
	var process models.Process
	err := r.db.GetContext(ctx, &process, r.db.Rebind(`
		SELECT `+processColumns+` FROM processes p WHERE p.company_id = ? AND p.name = ?
	`), companyID, name)
	if err != nil {
		return nil, translateError(err, "process")
	}
	return &process, nil
}

// List returns the processes of a company ordered by name
func (r *ProcessRepositoryImpl) List(ctx context.Context, companyID uuid.UUID) ([]*models.Process, error) {
	processes := []*models.Process{}
	err := r.db.SelectContext(ctx, &processes, r.db.Rebind(`
		SELECT `+processColumns+` FROM processes p WHERE p.company_id = ? ORDER BY p.name ASC
	`), companyID)
	if err != nil {
		return nil, translateError(err, "process")
	}
	return processes, nil
}

// Delete removes a process; operations, grants, sessions and timings cascade
func (r *ProcessRepositoryImpl) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM processes WHERE company_id = ? AND id = ?
	`), companyID, id)
	if err != nil {
		return translateError(err, "process")
	}
	return expectAffected(res, "process")
}
