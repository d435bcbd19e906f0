package auth

import (
	"context"
	"strings"

	"timestudy/internal"
	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// UserInput is the editable part of a user. ProcessAccess is only applied to operators;
// on update a nil list leaves the current grants untouched.
type UserInput struct {
	BadgeID       string      `json:"badge_id"`
	Name          string      `json:"name"`
	Role          models.Role `json:"role"`
	ProcessAccess []uuid.UUID `json:"process_access"`
}

func (in *UserInput) normalize() error {
	in.BadgeID = strings.TrimSpace(in.BadgeID)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = models.Role(strings.ToLower(strings.TrimSpace(string(in.Role))))

	if in.BadgeID == "" || in.Name == "" || in.Role == "" {
		return errors.ValidationError("badge id, name and role are required")
	}
	if !in.Role.Valid() {
		return errors.ValidationError("role must be admin or operator")
	}
	return nil
}

// UserService lets an admin manage the users of their own company
type UserService struct {
	users     ports.UserRepository
	processes ports.ProcessRepository
	logger    *internal.Logger
}

// NewUserService creates a new user administration service
func NewUserService(users ports.UserRepository, processes ports.ProcessRepository) *UserService {
	return &UserService{
		users:     users,
		processes: processes,
		logger:    internal.DefaultLogger.Named("Users"),
	}
}

// List returns the company's users ordered by name with their grants
func (s *UserService) List(ctx context.Context, who models.Identity) ([]*models.UserWithAccess, error) {
	return s.users.ListByCompany(ctx, who.CompanyID)
}

// Get returns one user of the company
func (s *UserService) Get(ctx context.Context, who models.Identity, id uuid.UUID) (*models.UserWithAccess, error) {
	user, err := s.users.GetWithAccess(ctx, id)
	if err != nil {
		return nil, err
	}
	if user.CompanyID != who.CompanyID {
		return nil, errors.AccessDenied("you do not have permission to view this user")
	}
	return user, nil
}

// Create adds a user to the company
func (s *UserService) Create(ctx context.Context, who models.Identity, in UserInput) (*models.UserWithAccess, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	grants, err := s.grantsFor(ctx, who, in)
	if err != nil {
		return nil, err
	}

	user := &models.User{BadgeID: in.BadgeID, Name: in.Name, Role: in.Role, CompanyID: who.CompanyID}
	if err := s.users.Create(ctx, user, grants); err != nil {
		return nil, err
	}

	s.logger.Info("user %s (%s) created in company %s", user.ID, user.Role, who.CompanyID)
	return s.users.GetWithAccess(ctx, user.ID)
}

// Update edits a user of the company
func (s *UserService) Update(ctx context.Context, who models.Identity, id uuid.UUID, in UserInput) (*models.UserWithAccess, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	existing, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.CompanyID != who.CompanyID {
		return nil, errors.AccessDenied("you do not have permission to update this user")
	}

	grants, err := s.grantsFor(ctx, who, in)
	if err != nil {
		return nil, err
	}
	if in.Role == models.RoleAdmin && existing.Role == models.RoleOperator {
		grants = []uuid.UUID{}
	}

	existing.BadgeID, existing.Name, existing.Role = in.BadgeID, in.Name, in.Role
	if err := s.users.Update(ctx, existing, grants); err != nil {
		return nil, err
	}
	return s.users.GetWithAccess(ctx, id)
}

// Delete removes a user of the company
func (s *UserService) Delete(ctx context.Context, who models.Identity, id uuid.UUID) error {
	existing, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.CompanyID != who.CompanyID {
		return errors.AccessDenied("you do not have permission to delete this user")
	}
	if existing.ID == who.UserID {
		return errors.ValidationError("you cannot delete your own account")
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("user %s deleted", id)
	return nil
}

// grantsFor checks that every granted process belongs to the company. Admins carry no
// grants; a nil result means "leave grants unchanged".
func (s *UserService) grantsFor(ctx context.Context, who models.Identity, in UserInput) ([]uuid.UUID, error) {
	if in.Role != models.RoleOperator || in.ProcessAccess == nil {
		return nil, nil
	}

	seen := make(map[uuid.UUID]struct{}, len(in.ProcessAccess))
	grants := make([]uuid.UUID, 0, len(in.ProcessAccess))
	for _, processID := range in.ProcessAccess {
		if _, dup := seen[processID]; dup {
			continue
		}
		seen[processID] = struct{}{}
		if _, err := s.processes.GetByID(ctx, who.CompanyID, processID); err != nil {
			if errors.IsNotFound(err) {
				return nil, errors.ValidationError("process " + processID.String() + " does not exist")
			}
			return nil, err
		}
		grants = append(grants, processID)
	}
	return grants, nil
}
