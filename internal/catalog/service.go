package catalog

import (
	"context"
	"strings"

	"timestudy/internal"
	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// Service administers a company's processes and their operation catalogs
type Service struct {
	processes  ports.ProcessRepository
	operations ports.OperationRepository
	codec      ports.SpreadsheetCodec
	logger     *internal.Logger
}

// NewService creates a new catalog service
func NewService(processes ports.ProcessRepository, operations ports.OperationRepository, codec ports.SpreadsheetCodec) *Service {
	return &Service{
		processes:  processes,
		operations: operations,
		codec:      codec,
		logger:     internal.DefaultLogger.Named("Catalog"),
	}
}

// ImportResult describes a created process
type ImportResult struct {
	ProcessID      uuid.UUID `json:"process_id"`
	ProcessName    string    `json:"process_name"`
	OperationCount int       `json:"operation_count"`
}

// ListProcesses returns the company's processes ordered by name
func (s *Service) ListProcesses(ctx context.Context, who models.Identity) ([]*models.Process, error) {
	return s.processes.List(ctx, who.CompanyID)
}

// GetProcess returns a process of the company with its operations
func (s *Service) GetProcess(ctx context.Context, who models.Identity, processID uuid.UUID) (*models.ProcessDetail, error) {
	process, err := s.processes.GetByID(ctx, who.CompanyID, processID)
	if err != nil {
		return nil, err
	}
	ops, err := s.operations.ListByProcess(ctx, processID)
	if err != nil {
		return nil, err
	}
	return &models.ProcessDetail{Process: *process, Operations: ops}, nil
}

// DeleteProcess removes a process with its operations and timing history
func (s *Service) DeleteProcess(ctx context.Context, who models.Identity, processID uuid.UUID) error {
	if err := s.processes.Delete(ctx, who.CompanyID, processID); err != nil {
		return err
	}
	s.logger.Info("process %s deleted by %s", processID, who.UserID)
	return nil
}

// NameExists reports whether the company already has a process with this name
func (s *Service) NameExists(ctx context.Context, who models.Identity, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, errors.ValidationError("name is required")
	}
	_, err := s.processes.GetByName(ctx, who.CompanyID, name)
	switch {
	case err == nil:
		return true, nil
	case errors.IsNotFound(err):
		return false, nil
	default:
		return false, err
	}
}

// ExtractName reads the process name cell of an import template. A nil result means
// the cell is empty.
func (s *Service) ExtractName(data []byte) (*string, error) {
	rows, err := s.parse(data)
	if err != nil {
		return nil, err
	}
	name := ExtractProcessName(rows)
	if name == "" {
		return nil, nil
	}
	return &name, nil
}

// Import creates a process from an import template. The name comes from processName
// when given, otherwise from the template. Rows are validated before anything is
// written; the process and its operations are then inserted as one batch.
func (s *Service) Import(ctx context.Context, who models.Identity, data []byte, processName string) (*ImportResult, error) {
	rows, err := s.parse(data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.ValidationError("spreadsheet is empty")
	}

	name := strings.TrimSpace(processName)
	if name == "" {
		name = ExtractProcessName(rows)
	}
	if name == "" {
		return nil, errors.ValidationError("process name not found in spreadsheet and not provided")
	}

	exists, err := s.NameExists(ctx, who, name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, errors.ValidationError("process name already exists")
	}

	operations, err := ParseImportRows(rows)
	if err != nil {
		s.logger.Warn("import of %q rejected: %v", name, err)
		return nil, err
	}

	process := &models.Process{CompanyID: who.CompanyID, Name: name}
	if err := s.processes.CreateWithOperations(ctx, process, operations); err != nil {
		s.logger.Error("import of %q failed: %v", name, err)
		return nil, err
	}

	s.logger.Info("imported process %q (%s) with %d operations", name, process.ID, len(operations))
	return &ImportResult{ProcessID: process.ID, ProcessName: name, OperationCount: len(operations)}, nil
}

// Replace swaps the operation catalog of a process for the rows of a sheet. Nothing is
// deleted unless the sheet yields at least one valid operation.
func (s *Service) Replace(ctx context.Context, who models.Identity, processID uuid.UUID, data []byte) (int, error) {
	if _, err := s.processes.GetByID(ctx, who.CompanyID, processID); err != nil {
		return 0, err
	}

	rows, err := s.parse(data)
	if err != nil {
		return 0, err
	}
	operations, err := ParseReplaceRows(rows)
	if err != nil {
		s.logger.Warn("replace of process %s rejected: %v", processID, err)
		return 0, err
	}

	if err := s.operations.ReplaceAll(ctx, processID, operations); err != nil {
		s.logger.Error("replace of process %s failed: %v", processID, err)
		return 0, err
	}

	s.logger.Info("replaced operations of process %s with %d rows", processID, len(operations))
	return len(operations), nil
}

func (s *Service) parse(data []byte) ([][]ports.Cell, error) {
	if len(data) == 0 {
		return nil, errors.ValidationError("file is required")
	}
	rows, err := s.codec.Parse(data)
	if err != nil {
		return nil, errors.WithCode(errors.CodeValidationError, errors.Wrap(err, "could not read spreadsheet"))
	}
	return rows, nil
}
