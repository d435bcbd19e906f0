package postgres

import (
	"context"
	"time"

	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CompanyRepositoryImpl implements CompanyRepository
type CompanyRepositoryImpl struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db *sqlx.DB) ports.CompanyRepository {
	return &CompanyRepositoryImpl{db: db}
}

// Create inserts a company
func (r *CompanyRepositoryImpl) Create(ctx context.Context, company *models.Company) error {
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	if company.CreatedAt.IsZero() {
		company.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO companies (id, name, created_at) VALUES (?, ?, ?)
	`), company.ID, company.Name, company.CreatedAt.UTC())
	return translateError(err, "company")
}

// GetByID retrieves a company by ID
func (r *CompanyRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var company models.Company
	err := r.db.GetContext(ctx, &company, r.db.Rebind(`
		SELECT id, name, created_at FROM companies WHERE id = ?
	`), id)
	if err != nil {
		return nil, translateError(err, "company")
	}
	return &company, nil
}

// DeleteAll removes every company; users, processes and timing history cascade
func (r *CompanyRepositoryImpl) DeleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM companies`)
	if err != nil {
		return 0, translateError(err, "company")
	}
	return res.RowsAffected()
}
