package testkit

import (
	"context"
	"fmt"

	"timestudy/models"

	"github.com/google/uuid"
)

// Fixture is a seeded tenant: one admin, one operator granted one process
type Fixture struct {
	Company    models.Company
	Admin      models.User
	Operator   models.User
	Process    models.Process
	Operations []models.Operation
}

// Seed creates a company with an admin, an operator and a process of n operations
// (codes OP1..OPn) that the operator is granted
func (s *Store) Seed(ctx context.Context, name string, n int) (*Fixture, error) {
	f := &Fixture{Company: models.Company{Name: name}}
	if err := s.Companies().Create(ctx, &f.Company); err != nil {
		return nil, err
	}

	f.Process = models.Process{CompanyID: f.Company.ID, Name: name + " Line"}
	for i := 0; i < n; i++ {
		f.Operations = append(f.Operations, models.Operation{
			Code:           fmt.Sprintf("OP%d", i+1),
			Description:    fmt.Sprintf("Step %d", i+1),
			SequenceNumber: i,
		})
	}
	if err := s.Processes().CreateWithOperations(ctx, &f.Process, f.Operations); err != nil {
		return nil, err
	}

	f.Admin = models.User{BadgeID: name + "-ADMIN", Name: name + " Admin", Role: models.RoleAdmin, CompanyID: f.Company.ID}
	if err := s.Users().Create(ctx, &f.Admin, nil); err != nil {
		return nil, err
	}
	f.Operator = models.User{BadgeID: name + "-OP", Name: name + " Operator", Role: models.RoleOperator, CompanyID: f.Company.ID}
	if err := s.Users().Create(ctx, &f.Operator, []uuid.UUID{f.Process.ID}); err != nil {
		return nil, err
	}
	return f, nil
}

// AdminIdentity returns the request identity of the fixture admin
func (f *Fixture) AdminIdentity() models.Identity {
	return models.Identity{UserID: f.Admin.ID, CompanyID: f.Company.ID, Role: models.RoleAdmin, Name: f.Admin.Name}
}

// OperatorIdentity returns the request identity of the fixture operator
func (f *Fixture) OperatorIdentity() models.Identity {
	return models.Identity{UserID: f.Operator.ID, CompanyID: f.Company.ID, Role: models.RoleOperator, Name: f.Operator.Name}
}
