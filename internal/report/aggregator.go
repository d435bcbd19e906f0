package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"timestudy/internal"
	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// DateLayout is the format of report date parameters
const DateLayout = "2006-01-02"

// Query selects report rows. StartDate and EndDate are calendar dates in DateLayout.
type Query struct {
	ProcessID *uuid.UUID
	StartDate string
	EndDate   string
}

// Aggregator builds report rows, exports and summaries from one filtered query
type Aggregator struct {
	reports   ports.ReportRepository
	processes ports.ProcessRepository
	codec     ports.SpreadsheetCodec
	location  *time.Location
	logger    *internal.Logger
}

// NewAggregator creates a report aggregator. Calendar days are interpreted in loc.
func NewAggregator(reports ports.ReportRepository, processes ports.ProcessRepository, codec ports.SpreadsheetCodec, loc *time.Location) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &Aggregator{
		reports:   reports,
		processes: processes,
		codec:     codec,
		location:  loc,
		logger:    internal.DefaultLogger.Named("ReportAggregator"),
	}
}

// DayRange returns the first and last instant of the calendar days start..end in loc
func DayRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return time.Time{}, time.Time{}, errors.ValidationError("start and end dates are required")
	}

	from, err := time.ParseInLocation(DateLayout, start, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ValidationError(fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", start))
	}
	day, err := time.ParseInLocation(DateLayout, end, loc)
	if err != nil {
		return time.Time{}, time.Time{}, errors.ValidationError(fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", end))
	}
	to := day.AddDate(0, 0, 1).Add(-time.Millisecond)
	if to.Before(from) {
		return time.Time{}, time.Time{}, errors.ValidationError("end date is before start date")
	}
	return from, to, nil
}

// Records runs the report query shared by every presentation
func (a *Aggregator) Records(ctx context.Context, who models.Identity, q Query) ([]models.TimingRecord, error) {
	from, to, err := DayRange(q.StartDate, q.EndDate, a.location)
	if err != nil {
		return nil, err
	}
	return a.query(ctx, models.ReportFilter{CompanyID: who.CompanyID, ProcessID: q.ProcessID, From: from, To: to})
}

func (a *Aggregator) query(ctx context.Context, filter models.ReportFilter) ([]models.TimingRecord, error) {
	records, err := a.reports.QueryTimings(ctx, filter)
	if err != nil {
		a.logger.Error("report query failed: %v", err)
		return nil, errors.Wrap(err, "failed to load time study data")
	}
	a.logger.Debug("report query returned %d rows", len(records))
	return records, nil
}

// Rows returns the on-screen projection of the report
func (a *Aggregator) Rows(ctx context.Context, who models.Identity, q Query) ([]models.ReportRow, error) {
	records, err := a.Records(ctx, who, q)
	if err != nil {
		return nil, err
	}
	rows := make([]models.ReportRow, len(records))
	for i, r := range records {
		rows[i] = ToRow(r)
	}
	return rows, nil
}

// ToRow flattens a timing record for display
func ToRow(r models.TimingRecord) models.ReportRow {
	row := models.ReportRow{
		ID:                   r.TimingID,
		SessionStatus:        r.SessionStatus,
		OperationID:          r.OperationCode,
		OperationDescription: r.OperationDescription,
		Operator:             r.OperatorName,
		OperatorBadgeID:      r.OperatorBadgeID,
		ProcessName:          r.ProcessName,
		StartTime:            FormatTime(r.StartTime),
		TotalTime:            FormatSeconds(r.TotalTimeSeconds),
	}
	if r.EndTime != nil {
		end := FormatTime(*r.EndTime)
		row.EndTime = &end
	}
	if r.TimeBetweenOperationsSeconds != nil {
		gap := float64(*r.TimeBetweenOperationsSeconds)
		row.TimeBetweenOps = FormatSeconds(&gap)
	}
	return row
}

// FormatTime renders an instant as UTC ISO-8601 with milliseconds
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// FormatSeconds renders a duration with one decimal place, or nil when absent
func FormatSeconds(seconds *float64) *string {
	if seconds == nil {
		return nil
	}
	s := fmt.Sprintf("%.1fs", *seconds)
	return &s
}
