package server

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) OrderListReport(c *gin.Context) {
	s.renderPDF(c, "pedidos.pdf", s.reportSvc.OrderList)
}

func (s *Server) SizeMatrixReport(c *gin.Context) {
	s.renderPDF(c, "grade.pdf", s.reportSvc.SizeMatrix)
}

func (s *Server) renderPDF(c *gin.Context, filename string, render func(context.Context, int) (io.Reader, error)) {
	batch := 0
	if rawBatch := strings.TrimSpace(c.Query("batch")); rawBatch != "" {
		parsed, err := strconv.Atoi(rawBatch)
		if err != nil || parsed <= 0 {
			AbortWithError(c, newValidationError("batch", "invalid_batch", "invalid batch"))
			return
		}
		batch = parsed
	}

	reader, err := render(c.Request.Context(), batch)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}
