package ui

import (
	"log"
	"net/http"

	"timestudy/internal/catalog"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleListProcesses(c *gin.Context) {
	processes, err := s.svc.Catalog.ListProcesses(c.Request.Context(), identity(c))
	if err != nil {
		s.respondError(c, "handleListProcesses", err)
		return
	}
	c.JSON(http.StatusOK, processes)
}

func (s *Server) handleGetProcess(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	detail, err := s.svc.Catalog.GetProcess(c.Request.Context(), identity(c), processID)
	if err != nil {
		s.respondError(c, "handleGetProcess", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) handleCheckProcessName(c *gin.Context) {
	exists, err := s.svc.Catalog.NameExists(c.Request.Context(), identity(c), c.Query("name"))
	if err != nil {
		s.respondError(c, "handleCheckProcessName", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (s *Server) handleDeleteProcess(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := s.svc.Catalog.DeleteProcess(c.Request.Context(), identity(c), processID); err != nil {
		s.respondError(c, "handleDeleteProcess", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleImportProcess creates a process from an uploaded template. The optional
// "process_name" form field overrides the name cell of the sheet.
func (s *Server) handleImportProcess(c *gin.Context) {
	log.Printf("[handleImportProcess] Starting process import")

	data, err := s.readUpload(c)
	if err != nil {
		s.respondError(c, "handleImportProcess", err)
		return
	}
	result, err := s.svc.Catalog.Import(c.Request.Context(), identity(c), data, c.PostForm("process_name"))
	if err != nil {
		s.respondError(c, "handleImportProcess", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) handleExtractProcessName(c *gin.Context) {
	data, err := s.readUpload(c)
	if err != nil {
		s.respondError(c, "handleExtractProcessName", err)
		return
	}
	name, err := s.svc.Catalog.ExtractName(data)
	if err != nil {
		s.respondError(c, "handleExtractProcessName", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"process_name": name})
}

func (s *Server) handleReplaceOperations(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	data, err := s.readUpload(c)
	if err != nil {
		s.respondError(c, "handleReplaceOperations", err)
		return
	}
	count, err := s.svc.Catalog.Replace(c.Request.Context(), identity(c), processID, data)
	if err != nil {
		s.respondError(c, "handleReplaceOperations", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operation_count": count})
}

func (s *Server) handleExportProcess(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	wb, err := s.svc.Reports.ExportProcess(c.Request.Context(), identity(c), processID)
	if err != nil {
		s.respondError(c, "handleExportProcess", err)
		return
	}
	sendWorkbook(c, wb.Filename, wb.Data)
}

func (s *Server) handleListOperations(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	ops, err := s.svc.Catalog.ListOperations(c.Request.Context(), identity(c), processID)
	if err != nil {
		s.respondError(c, "handleListOperations", err)
		return
	}
	c.JSON(http.StatusOK, ops)
}

func (s *Server) handleGetOperation(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	operationID, ok := s.uuidParam(c, "operationId")
	if !ok {
		return
	}
	op, err := s.svc.Catalog.GetOperation(c.Request.Context(), identity(c), processID, operationID)
	if err != nil {
		s.respondError(c, "handleGetOperation", err)
		return
	}
	c.JSON(http.StatusOK, op)
}

func (s *Server) handleCreateOperation(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	var in catalog.OperationInput
	if !s.bindJSON(c, "handleCreateOperation", &in) {
		return
	}
	op, err := s.svc.Catalog.CreateOperation(c.Request.Context(), identity(c), processID, in)
	if err != nil {
		s.respondError(c, "handleCreateOperation", err)
		return
	}
	c.JSON(http.StatusCreated, op)
}

func (s *Server) handleUpdateOperation(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	operationID, ok := s.uuidParam(c, "operationId")
	if !ok {
		return
	}
	var in catalog.OperationInput
	if !s.bindJSON(c, "handleUpdateOperation", &in) {
		return
	}
	op, err := s.svc.Catalog.UpdateOperation(c.Request.Context(), identity(c), processID, operationID, in)
	if err != nil {
		s.respondError(c, "handleUpdateOperation", err)
		return
	}
	c.JSON(http.StatusOK, op)
}

func (s *Server) handleDeleteOperation(c *gin.Context) {
	processID, ok := s.uuidParam(c, "id")
	if !ok {
		return
	}
	operationID, ok := s.uuidParam(c, "operationId")
	if !ok {
		return
	}
	if err := s.svc.Catalog.DeleteOperation(c.Request.Context(), identity(c), processID, operationID); err != nil {
		s.respondError(c, "handleDeleteOperation", err)
		return
	}
	c.Status(http.StatusNoContent)
}
