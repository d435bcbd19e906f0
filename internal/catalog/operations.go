package catalog

import (
	"context"
	"strings"

	"timestudy/internal/errors"
	"timestudy/models"

	"github.com/google/uuid"
)

// OperationInput is the editable part of an operation. SequenceNumber is honoured on
// create only; nil appends the operation at the end.
type OperationInput struct {
	Code                string   `json:"operation_id"`
	Description         string   `json:"description"`
	StandardTimeSeconds *float64 `json:"standard_time_seconds"`
	ToolsRequired       *string  `json:"tools_required"`
	QualityCheck        *string  `json:"quality_check"`
	SequenceNumber      *int     `json:"sequence_number"`
}

func (in *OperationInput) normalize() error {
	in.Code = strings.TrimSpace(in.Code)
	in.Description = strings.TrimSpace(in.Description)
	if in.Code == "" || in.Description == "" {
		return errors.ValidationError("operation ID and description are required")
	}
	if !models.HasOperationPrefix(in.Code) {
		return errors.ValidationError(`operation ID must start with "OP"`)
	}
	if in.StandardTimeSeconds != nil && *in.StandardTimeSeconds < 0 {
		return errors.ValidationError("standard time must not be negative")
	}
	in.ToolsRequired = trimOptional(in.ToolsRequired)
	in.QualityCheck = trimOptional(in.QualityCheck)
	return nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// ListOperations returns the operations of a company process in sequence order
func (s *Service) ListOperations(ctx context.Context, who models.Identity, processID uuid.UUID) ([]models.Operation, error) {
	if _, err := s.processes.GetByID(ctx, who.CompanyID, processID); err != nil {
		return nil, err
	}
	return s.operations.ListByProcess(ctx, processID)
}

// GetOperation returns one operation of a company process
func (s *Service) GetOperation(ctx context.Context, who models.Identity, processID, operationID uuid.UUID) (*models.Operation, error) {
	if _, err := s.processes.GetByID(ctx, who.CompanyID, processID); err != nil {
		return nil, err
	}
	return s.operations.GetByID(ctx, processID, operationID)
}

// CreateOperation adds an operation, keeping the sequence dense
func (s *Service) CreateOperation(ctx context.Context, who models.Identity, processID uuid.UUID, in OperationInput) (*models.Operation, error) {
	if _, err := s.processes.GetByID(ctx, who.CompanyID, processID); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	seq := -1
	if in.SequenceNumber != nil {
		seq = *in.SequenceNumber
	}

	op := &models.Operation{
		ProcessID:           processID,
		Code:                in.Code,
		Description:         in.Description,
		StandardTimeSeconds: in.StandardTimeSeconds,
		ToolsRequired:       in.ToolsRequired,
		QualityCheck:        in.QualityCheck,
		SequenceNumber:      seq,
	}
	if err := s.operations.Insert(ctx, op); err != nil {
		return nil, err
	}
	s.logger.Info("operation %s added to process %s at %d", op.Code, processID, op.SequenceNumber)
	return op, nil
}

// UpdateOperation edits an operation in place; its position does not change
func (s *Service) UpdateOperation(ctx context.Context, who models.Identity, processID, operationID uuid.UUID, in OperationInput) (*models.Operation, error) {
	existing, err := s.GetOperation(ctx, who, processID, operationID)
	if err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	existing.Code = in.Code
	existing.Description = in.Description
	existing.StandardTimeSeconds = in.StandardTimeSeconds
	existing.ToolsRequired = in.ToolsRequired
	existing.QualityCheck = in.QualityCheck
	if err := s.operations.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeleteOperation removes an operation and shifts later operations down by one
func (s *Service) DeleteOperation(ctx context.Context, who models.Identity, processID, operationID uuid.UUID) error {
	if _, err := s.processes.GetByID(ctx, who.CompanyID, processID); err != nil {
		return err
	}
	if err := s.operations.DeleteAndRenumber(ctx, processID, operationID); err != nil {
		return err
	}
	s.logger.Info("operation %s removed from process %s", operationID, processID)
	return nil
}
