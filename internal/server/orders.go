package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	orderdomain "github.com/jubileu50/pedidos/internal/order/domain"
)

func (s *Server) CreateOrder(c *gin.Context) {
	var req orderdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (s *Server) CheckSector(c *gin.Context) {
	locationType := orderdomain.LocationType(strings.ToUpper(strings.TrimSpace(c.Query("location_type"))))
	sector := c.Query("sector")

	availability, err := s.orderSvc.CheckSector(c.Request.Context(), locationType, sector)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (s *Server) CheckEmail(c *gin.Context) {
	availability, err := s.orderSvc.CheckEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, availability)
}

func (s *Server) GetOrderByCode(c *gin.Context) {
	order, err := s.orderSvc.FindByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) LookupOrdersByEmail(c *gin.Context) {
	orders, err := s.orderSvc.FindByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) ListOrders(c *gin.Context) {
	ctx := c.Request.Context()

	if term := strings.TrimSpace(c.Query("q")); term != "" {
		orders, err := s.orderSvc.Search(ctx, term)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
		return
	}

	if rawBatch := strings.TrimSpace(c.Query("batch")); rawBatch != "" {
		batch, err := strconv.Atoi(rawBatch)
		if err != nil || batch <= 0 {
			AbortWithError(c, newValidationError("batch", "invalid_batch", "invalid batch"))
			return
		}
		orders, err := s.orderSvc.ListByBatch(ctx, batch)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": orders})
		return
	}

	orders, err := s.orderSvc.List(ctx)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.orderSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) UpdateOrder(c *gin.Context) {
	var req orderdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	order, err := s.orderSvc.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) DeleteOrder(c *gin.Context) {
	if err := s.orderSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
