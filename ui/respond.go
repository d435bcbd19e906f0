package ui

import (
	"io"
	"log"
	"net/http"
	"strings"

	"timestudy/adapters/excel"
	"timestudy/internal/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const retryMessage = "Something went wrong, please try again"

// respondError writes {"error", "code"} for err. Internal failures are logged and
// reported with a generic message.
func (s *Server) respondError(c *gin.Context, handler string, err error) {
	s.respondErrorWith(c, handler, err, retryMessage)
}

// respondErrorWith is respondError with the message shown for internal failures
func (s *Server) respondErrorWith(c *gin.Context, handler string, err error, internalMessage string) {
	status := errors.HTTPStatus(err)
	message := errors.Message(err)
	if status == http.StatusInternalServerError {
		log.Printf("[%s] FAILED - %v", handler, err)
		message = internalMessage
	} else {
		log.Printf("[%s] rejected (%d): %v", handler, status, err)
	}
	c.JSON(status, gin.H{"error": message, "code": errors.GetCode(err)})
}

func (s *Server) abortWithError(c *gin.Context, handler string, err error) {
	s.respondError(c, handler, err)
	c.Abort()
}

// uuidParam parses a path parameter, responding 400 when it is not a UUID
func (s *Server) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		s.respondError(c, "uuidParam", errors.InvalidInput("invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body, responding 400 when it is malformed
func (s *Server) bindJSON(c *gin.Context, handler string, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, handler, errors.InvalidInput("invalid request body: "+err.Error()))
		return false
	}
	return true
}

// readUpload returns the bytes of the "file" form field, limited to MaxUploadBytes
func (s *Server) readUpload(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes+1024*1024)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return nil, errors.ValidationError("no file uploaded")
	}
	defer file.Close()

	if header.Size > s.opts.MaxUploadBytes {
		return nil, errors.ValidationError("file exceeds the upload size limit")
	}
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".xlsx") {
		log.Printf("[readUpload] WARNING - Unexpected file extension: %s", header.Filename)
	}

	data, err := io.ReadAll(io.LimitReader(file, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, errors.ValidationError("could not read uploaded file")
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, errors.ValidationError("file exceeds the upload size limit")
	}
	return data, nil
}

// sendWorkbook streams an xlsx attachment
func sendWorkbook(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, excel.ContentType, data)
}
