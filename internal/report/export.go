package report

import (
	"context"
	"regexp"
	"strings"
	"time"

	"timestudy/internal/errors"
	"timestudy/models"
	"timestudy/ports"

	"github.com/google/uuid"
)

// Sheet names of exported workbooks
const (
	DataSheetName    = "Time Study Data"
	SummarySheetName = "Operation Summary"
)

// ExportColumns are the headers of the data sheet
var ExportColumns = []string{
	"Unique Operation ID",
	"Process Name",
	"User ID",
	"User Name",
	"Operation ID",
	"Operation Description",
	"Standard Time (sec)",
	"Tools Required",
	"Quality Check",
	"Start Time",
	"End Time",
	"Total Time (seconds)",
	"Time Between Operations (seconds)",
	"Session ID",
	"Session Status",
}

// SummaryColumns are the headers of the summary sheet
var SummaryColumns = []string{
	"Process Name",
	"Operation ID",
	"Operation Description",
	"Standard Time (sec)",
	"Timings",
	"Mean (sec)",
	"Median (sec)",
	"Std Dev (sec)",
	"P90 (sec)",
}

// Workbook is an exported spreadsheet ready for download
type Workbook struct {
	Filename string
	Data     []byte
	Rows     int
}

// Export writes the report for a date range. The filename is derived from the process
// name when the query is limited to one process.
func (a *Aggregator) Export(ctx context.Context, who models.Identity, q Query) (*Workbook, error) {
	records, err := a.Records(ctx, who, q)
	if err != nil {
		return nil, err
	}

	base := "time-study-report"
	if q.ProcessID != nil {
		process, err := a.processes.GetByID(ctx, who.CompanyID, *q.ProcessID)
		if err != nil && !errors.IsNotFound(err) {
			return nil, err
		}
		if process != nil {
			base = Slug(process.Name) + "_time_study"
		}
	}

	data, err := a.serialize(records)
	if err != nil {
		return nil, err
	}
	return &Workbook{
		Filename: base + "_" + strings.TrimSpace(q.StartDate) + "_to_" + strings.TrimSpace(q.EndDate) + ".xlsx",
		Data:     data,
		Rows:     len(records),
	}, nil
}

// ExportProcess writes every timing ever recorded for one process
func (a *Aggregator) ExportProcess(ctx context.Context, who models.Identity, processID uuid.UUID) (*Workbook, error) {
	process, err := a.processes.GetByID(ctx, who.CompanyID, processID)
	if err != nil {
		return nil, err
	}

	records, err := a.query(ctx, models.ReportFilter{
		CompanyID: who.CompanyID,
		ProcessID: &processID,
		From:      time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC),
	})
	if err != nil {
		return nil, err
	}

	data, err := a.serialize(records)
	if err != nil {
		return nil, err
	}
	return &Workbook{
		Filename: Slug(process.Name) + "_time_study_data.xlsx",
		Data:     data,
		Rows:     len(records),
	}, nil
}

func (a *Aggregator) serialize(records []models.TimingRecord) ([]byte, error) {
	data := ports.Sheet{Name: DataSheetName, Columns: ExportColumns, Rows: make([][]ports.Cell, len(records))}
	for i, r := range records {
		data.Rows[i] = exportRow(r)
	}

	summaries := Summarize(records)
	summary := ports.Sheet{Name: SummarySheetName, Columns: SummaryColumns, Rows: make([][]ports.Cell, len(summaries))}
	for i, s := range summaries {
		summary.Rows[i] = []ports.Cell{
			s.ProcessName,
			s.OperationID,
			s.OperationDescription,
			floatCell(s.StandardTimeSeconds),
			float64(s.Count),
			round1(s.MeanSeconds),
			round1(s.MedianSeconds),
			round1(s.StdDevSeconds),
			round1(s.P90Seconds),
		}
	}

	out, err := a.codec.Serialize(data, summary)
	if err != nil {
		a.logger.Error("workbook serialization failed: %v", err)
		return nil, err
	}
	return out, nil
}

func exportRow(r models.TimingRecord) []ports.Cell {
	var end ports.Cell
	if r.EndTime != nil {
		end = FormatTime(*r.EndTime)
	}
	var gap ports.Cell
	if r.TimeBetweenOperationsSeconds != nil {
		gap = float64(*r.TimeBetweenOperationsSeconds)
	}
	return []ports.Cell{
		r.TimingID.String(),
		r.ProcessName,
		r.OperatorBadgeID,
		r.OperatorName,
		r.OperationCode,
		r.OperationDescription,
		floatCell(r.StandardTimeSeconds),
		stringCell(r.ToolsRequired),
		stringCell(r.QualityCheck),
		FormatTime(r.StartTime),
		end,
		floatCell(r.TotalTimeSeconds),
		gap,
		r.SessionID.String(),
		string(r.SessionStatus),
	}
}

func floatCell(v *float64) ports.Cell {
	if v == nil {
		return nil
	}
	return *v
}

func stringCell(v *string) ports.Cell {
	if v == nil {
		return nil
	}
	return *v
}

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Slug lower-cases a name and collapses every run of non-alphanumeric characters to "_"
func Slug(name string) string {
	return strings.ToLower(nonAlphanumeric.ReplaceAllString(name, "_"))
}
