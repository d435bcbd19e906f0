package postgres

import (
	"context"
	"strings"

	"timestudy/models"
	"timestudy/ports"

	"github.com/jmoiron/sqlx"
)

// ReportRepositoryImpl implements ReportRepository
type ReportRepositoryImpl struct {
	db *sqlx.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sqlx.DB) ports.ReportRepository {
	return &ReportRepositoryImpl{db: db}
}

// QueryTimings joins timings to their session, operator, operation and process. Tenancy is
// decided by the operator's company.
func (r *ReportRepositoryImpl) QueryTimings(ctx context.Context, filter models.ReportFilter) ([]models.TimingRecord, error) {
	var query strings.Builder
	query.WriteString(`
		SELECT
			t.id AS timing_id,
			s.id AS session_id,
			s.started_at AS session_started_at,
			s.status AS session_status,
			p.id AS process_id,
			p.name AS process_name,
			u.name AS operator_name,
			u.badge_id AS operator_badge_id,
			o.id AS operation_id,
			o.operation_code AS operation_code,
			o.description AS operation_description,
			o.standard_time_seconds AS standard_time_seconds,
			o.tools_required AS tools_required,
			o.quality_check AS quality_check,
			t.start_time AS start_time,
			t.end_time AS end_time,
			t.total_time_seconds AS total_time_seconds,
			t.time_between_operations_seconds AS time_between_operations_seconds
		FROM operation_timings t
		JOIN time_study_sessions s ON s.id = t.session_id
		JOIN users u ON u.id = s.user_id
		JOIN operations o ON o.id = t.operation_id
		JOIN processes p ON p.id = s.process_id
		WHERE u.company_id = ? AND s.started_at >= ? AND s.started_at <= ?`)

	args := []interface{}{filter.CompanyID, filter.From.UTC(), filter.To.UTC()}
	if filter.ProcessID != nil {
		query.WriteString(` AND s.process_id = ?`)
		args = append(args, *filter.ProcessID)
	}
	query.WriteString(`
		ORDER BY s.started_at DESC, s.id ASC, t.start_time ASC`)

	records := []models.TimingRecord{}
	if err := r.db.SelectContext(ctx, &records, r.db.Rebind(query.String()), args...); err != nil {
		return nil, translateError(err, "time study data")
	}
	return records, nil
}
