package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/jubileu50/pedidos/internal/payment/domain"
)

func (s *Server) RecordPayment(c *gin.Context) {
	var req paymentdomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.paymentSvc.RecordPayment(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *Server) CancelLastPayment(c *gin.Context) {
	result, err := s.paymentSvc.CancelLastPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) ListPayments(c *gin.Context) {
	entries, err := s.paymentSvc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": entries})
}

func (s *Server) ListLedgers(c *gin.Context) {
	ledgers, err := s.paymentSvc.Ledgers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ledgers": ledgers})
}
