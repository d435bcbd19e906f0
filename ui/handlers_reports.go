package ui

import (
	"net/http"

	"timestudy/internal/errors"
	"timestudy/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const reportFailureMessage = "Failed to load time study data, please try again"

// reportQuery reads startDate, endDate and the optional processId query parameters
func (s *Server) reportQuery(c *gin.Context) (report.Query, bool) {
	q := report.Query{StartDate: c.Query("startDate"), EndDate: c.Query("endDate")}
	if raw := c.Query("processId"); raw != "" && raw != "all" {
		id, err := uuid.Parse(raw)
		if err != nil {
			s.respondError(c, "reportQuery", errors.InvalidInput("invalid processId"))
			return q, false
		}
		q.ProcessID = &id
	}
	return q, true
}

func (s *Server) respondReportError(c *gin.Context, handler string, err error) {
	s.respondErrorWith(c, handler, err, reportFailureMessage)
}

func (s *Server) handleReportRows(c *gin.Context) {
	q, ok := s.reportQuery(c)
	if !ok {
		return
	}
	rows, err := s.svc.Reports.Rows(c.Request.Context(), identity(c), q)
	if err != nil {
		s.respondReportError(c, "handleReportRows", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleReportExport(c *gin.Context) {
	q, ok := s.reportQuery(c)
	if !ok {
		return
	}
	wb, err := s.svc.Reports.Export(c.Request.Context(), identity(c), q)
	if err != nil {
		s.respondReportError(c, "handleReportExport", err)
		return
	}
	sendWorkbook(c, wb.Filename, wb.Data)
}

func (s *Server) handleReportSummary(c *gin.Context) {
	q, ok := s.reportQuery(c)
	if !ok {
		return
	}
	summaries, err := s.svc.Reports.Summary(c.Request.Context(), identity(c), q)
	if err != nil {
		s.respondReportError(c, "handleReportSummary", err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}
