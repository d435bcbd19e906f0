package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OperationCodePrefix is the prefix every operation code starts with, compared case-insensitively
const OperationCodePrefix = "op"

// Process is a tenant-scoped named ordered collection of operations
type Process struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	CompanyID      uuid.UUID  `json:"company_id" db:"company_id"`
	Name           string     `json:"name" db:"name"`
	TrackingCount  int        `json:"tracking_count" db:"tracking_count"`
	LastTrackedAt  *time.Time `json:"last_tracked_at,omitempty" db:"last_tracked_at"`
	OperationCount int        `json:"operation_count" db:"operation_count"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Operation is one ordered step within a process
type Operation struct {
	ID                  uuid.UUID `json:"id" db:"id"`
	ProcessID           uuid.UUID `json:"process_id" db:"process_id"`
	Code                string    `json:"operation_id" db:"operation_code"`
	Description         string    `json:"description" db:"description"`
	StandardTimeSeconds *float64  `json:"standard_time_seconds" db:"standard_time_seconds"`
	ToolsRequired       *string   `json:"tools_required" db:"tools_required"`
	QualityCheck        *string   `json:"quality_check" db:"quality_check"`
	SequenceNumber      int       `json:"sequence_number" db:"sequence_number"`
}

// HasOperationPrefix reports whether code is a recognizable operation code.
func HasOperationPrefix(code string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(code)), OperationCodePrefix)
}

// ProcessDetail is a process with its operations in sequence order
type ProcessDetail struct {
	Process
	Operations []Operation `json:"operations"`
}
