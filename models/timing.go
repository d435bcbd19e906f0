package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus tracks the lifecycle of a timing session
type SessionStatus string

const (
	SessionStatusOpen      SessionStatus = "open"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusAbandoned SessionStatus = "abandoned"
)

// TimingSession is one operator's pass through a process's operation cycle
type TimingSession struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	UserID      uuid.UUID     `json:"user_id" db:"user_id"`
	ProcessID   uuid.UUID     `json:"process_id" db:"process_id"`
	Status      SessionStatus `json:"status" db:"status"`
	StartedAt   time.Time     `json:"started_at" db:"started_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty" db:"completed_at"`
}

// OperationTiming is one measured interval for one operation within one session
type OperationTiming struct {
	ID                           uuid.UUID  `json:"id" db:"id"`
	SessionID                    uuid.UUID  `json:"session_id" db:"session_id"`
	OperationID                  uuid.UUID  `json:"operation_id" db:"operation_id"`
	StartTime                    time.Time  `json:"start_time" db:"start_time"`
	EndTime                      *time.Time `json:"end_time,omitempty" db:"end_time"`
	TotalTimeSeconds             *float64   `json:"total_time_seconds,omitempty" db:"total_time_seconds"`
	TimeBetweenOperationsSeconds *int64     `json:"time_between_operations_seconds,omitempty" db:"time_between_operations_seconds"`
}

// IsOpen reports whether the timing has not been closed yet.
func (t *OperationTiming) IsOpen() bool {
	return t.EndTime == nil
}
