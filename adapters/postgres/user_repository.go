package postgres

import (
	"context"
	"time"

	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, badge_id, name, role, company_id, created_at, updated_at`

// UserRepositoryImpl implements UserRepository and AccessRepository
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

var (
	_ ports.UserRepository   = (*UserRepositoryImpl)(nil)
	_ ports.AccessRepository = (*UserRepositoryImpl)(nil)
)

// GetByID retrieves a user by ID
func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if err != nil {
		return nil, translateError(err, "user")
	}
	return &user, nil
}

// GetByBadgeID retrieves a user by badge
func (r *UserRepositoryImpl) GetByBadgeID(ctx context.Context, badgeID string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, r.db.Rebind(`SELECT `+userColumns+` FROM users WHERE badge_id = ?`), badgeID)
	if err != nil {
		return nil, translateError(err, "user")
	}
	return &user, nil
}

// GetWithAccess retrieves a user together with its granted processes
func (r *UserRepositoryImpl) GetWithAccess(ctx context.Context, id uuid.UUID) (*models.UserWithAccess, error) {
	user, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	processes := []models.ProcessRef{}
	err = r.db.SelectContext(ctx, &processes, r.db.Rebind(`
		SELECT p.id, p.name
		FROM operator_process_access a
		JOIN processes p ON p.id = a.process_id
		WHERE a.user_id = ?
		ORDER BY p.name ASC
	`), id)
	if err != nil {
		return nil, translateError(err, "operator access")
	}

	return &models.UserWithAccess{User: *user, Processes: processes}, nil
}

// ListByCompany returns the users of a company ordered by name
func (r *UserRepositoryImpl) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]*models.UserWithAccess, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, r.db.Rebind(`
		SELECT `+userColumns+` FROM users WHERE company_id = ? ORDER BY name ASC
	`), companyID)
	if err != nil {
		return nil, translateError(err, "user")
	}

	var grants []struct {
		UserID uuid.UUID `db:"user_id"`
		models.ProcessRef
	}
	err = r.db.SelectContext(ctx, &grants, r.db.Rebind(`
		SELECT a.user_id, p.id, p.name
		FROM operator_process_access a
		JOIN processes p ON p.id = a.process_id
		JOIN users u ON u.id = a.user_id
		WHERE u.company_id = ?
		ORDER BY p.name ASC
	`), companyID)
	if err != nil {
		return nil, translateError(err, "operator access")
	}

	byUser := make(map[uuid.UUID][]models.ProcessRef)
	for _, g := range grants {
		byUser[g.UserID] = append(byUser[g.UserID], g.ProcessRef)
	}

	result := make([]*models.UserWithAccess, 0, len(users))
	for _, u := range users {
		processes := byUser[u.ID]
		if processes == nil {
			processes = []models.ProcessRef{}
		}
		result = append(result, &models.UserWithAccess{User: u, Processes: processes})
	}
	return result, nil
}

// Create inserts a user and its process grants atomically
func (r *UserRepositoryImpl) Create(ctx context.Context, user *models.User, processIDs []uuid.UUID) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO users (id, badge_id, name, role, company_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`), user.ID, user.BadgeID, user.Name, user.Role, user.CompanyID, user.CreatedAt, user.UpdatedAt)
		if err != nil {
			return translateError(err, "badge")
		}
		return insertGrants(ctx, tx, user.ID, processIDs)
	})
}

// Update saves a user; non-nil processIDs replace the user's grants in the same transaction
func (r *UserRepositoryImpl) Update(ctx context.Context, user *models.User, processIDs []uuid.UUID) error {
	user.UpdatedAt = time.Now().UTC()

	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE users SET badge_id = ?, name = ?, role = ?, updated_at = ? WHERE id = ?
		`), user.BadgeID, user.Name, user.Role, user.UpdatedAt, user.ID)
		if err != nil {
			return translateError(err, "badge")
		}
		if err := expectAffected(res, "user"); err != nil {
			return err
		}

		if processIDs == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM operator_process_access WHERE user_id = ?`), user.ID); err != nil {
			return translateError(err, "operator access")
		}
		return insertGrants(ctx, tx, user.ID, processIDs)
	})
}

func insertGrants(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, processIDs []uuid.UUID) error {
	for _, processID := range processIDs {
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			INSERT INTO operator_process_access (user_id, process_id) VALUES (?, ?)
		`), userID, processID)
		if err != nil {
			return translateError(err, "operator access")
		}
	}
	return nil
}

// Delete removes a user
func (r *UserRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return translateError(err, "user")
	}
	return expectAffected(res, "user")
}

// HasAccess reports whether the user holds a grant for the process
func (r *UserRepositoryImpl) HasAccess(ctx context.Context, userID, processID uuid.UUID) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(`
		SELECT COUNT(*) FROM operator_process_access WHERE user_id = ? AND process_id = ?
	`), userID, processID)
	if err != nil {
		return false, translateError(err, "operator access")
	}
	return count > 0, nil
}

// ListProcessesForUser returns the processes granted to a user ordered by name
func (r *UserRepositoryImpl) ListProcessesForUser(ctx context.Context, userID uuid.UUID) ([]*models.Process, error) {
	processes := []*models.Process{}
	err := r.db.SelectContext(ctx, &processes, r.db.Rebind(`
		SELECT `+processColumns+`
		FROM operator_process_access a
		JOIN processes p ON p.id = a.process_id
		WHERE a.user_id = ?
		ORDER BY p.name ASC
	`), userID)
	if err != nil {
		return nil, translateError(err, "process")
	}
	return processes, nil
}
