package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportFilter selects timings whose session started inside [From, To]
type ReportFilter struct {
	CompanyID uuid.UUID
	ProcessID *uuid.UUID
	From      time.Time
	To        time.Time
}

// TimingRecord is an operation timing joined with its operation, session, operator and process
type TimingRecord struct {
	TimingID                     uuid.UUID     `db:"timing_id"`
	SessionID                    uuid.UUID     `db:"session_id"`
	SessionStartedAt             time.Time     `db:"session_started_at"`
	SessionStatus                SessionStatus `db:"session_status"`
	ProcessID                    uuid.UUID     `db:"process_id"`
	ProcessName                  string        `db:"process_name"`
	OperatorName                 string        `db:"operator_name"`
	OperatorBadgeID              string        `db:"operator_badge_id"`
	OperationID                  uuid.UUID     `db:"operation_id"`
	OperationCode                string        `db:"operation_code"`
	OperationDescription         string        `db:"operation_description"`
	StandardTimeSeconds          *float64      `db:"standard_time_seconds"`
	ToolsRequired                *string       `db:"tools_required"`
	QualityCheck                 *string       `db:"quality_check"`
	StartTime                    time.Time     `db:"start_time"`
	EndTime                      *time.Time    `db:"end_time"`
	TotalTimeSeconds             *float64      `db:"total_time_seconds"`
	TimeBetweenOperationsSeconds *int64        `db:"time_between_operations_seconds"`
}

// ReportRow is the on-screen projection of a timing record
type ReportRow struct {
	ID                   uuid.UUID     `json:"id"`
	SessionStatus        SessionStatus `json:"session_status"`
	OperationID          string        `json:"operation_id"`
	OperationDescription string        `json:"operation_description"`
	Operator             string        `json:"operator"`
	OperatorBadgeID      string        `json:"operator_badge_id"`
	ProcessName          string        `json:"process_name"`
	StartTime            string        `json:"start_time"`
	EndTime              *string       `json:"end_time"`
	TotalTime            *string       `json:"total_time"`
	TimeBetweenOps       *string       `json:"time_between_ops"`
}

// OperationSummary aggregates observed times of one operation
type OperationSummary struct {
	ProcessName          string   `json:"process_name"`
	OperationID          string   `json:"operation_id"`
	OperationDescription string   `json:"operation_description"`
	StandardTimeSeconds  *float64 `json:"standard_time_seconds"`
	Count                int      `json:"count"`
	MeanSeconds          float64  `json:"mean_seconds"`
	MedianSeconds        float64  `json:"median_seconds"`
	StdDevSeconds        float64  `json:"std_dev_seconds"`
	P90Seconds           float64  `json:"p90_seconds"`
}
