package handler

import (
	"net/http"

	"github.com/auditgate/auditgate/internal/middleware"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/session"
	"github.com/gin-gonic/gin"
)

// DemoHandler serves the sample shop endpoints (enabled via
// server.enable_demo) for exercising the audit trail end to end without a
// real upstream application: request row, attributed operation rows,
// debug rows, live tail.
type DemoHandler struct{}

func NewDemoHandler() *DemoHandler {
	return &DemoHandler{}
}

// RegisterRoutes mounts the shop routes and registers their legacy comment
// blocks, so order creation shows title derivation through the doc-comment
// adapter while removal uses an explicit scope.
func (h *DemoHandler) RegisterRoutes(r *gin.Engine, docs *session.DocRegistry) {
	docs.Register("shop", "order", "create", "/**\n * Create Order\n * @param sku\n * @param qty\n */")

	shop := r.Group("/shop/order")
	shop.POST("/create", h.CreateOrder)
	shop.POST("/remove", h.RemoveOrder)
}

type demoOrder struct {
	SKU string `json:"sku" form:"sku"`
	Qty int    `json:"qty" form:"qty"`
}

// CreateOrder records the mutation without pushing a title, leaving
// attribution to the registered comment block.
func (h *DemoHandler) CreateOrder(c *gin.Context) {
	ctx := c.Request.Context()

	var order demoOrder
	if err := c.ShouldBind(&order); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	s := middleware.SessionFrom(c)
	if s != nil {
		if err := s.RecordOperation(ctx, "orders", "insert", order); err != nil {
			c.Error(err)
			return
		}
		if err := s.RecordDebug(ctx, "order payload", order); err != nil {
			c.Error(err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"title": titleOf(s), "request_id": requestIDOf(s)})
}

func (h *DemoHandler) RemoveOrder(c *gin.Context) {
	ctx := c.Request.Context()

	var order demoOrder
	if err := c.ShouldBind(&order); err != nil {
		c.Error(apperrors.NewInvalidRequest(err.Error()))
		return
	}

	s := middleware.SessionFrom(c)
	if s != nil {
		defer s.TitleScope("Remove Order")()
		if err := s.RecordOperation(ctx, "orders", "delete", order); err != nil {
			c.Error(err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"title": titleOf(s), "request_id": requestIDOf(s)})
}

func titleOf(s *session.Session) string {
	if s == nil {
		return ""
	}
	return s.Title()
}

func requestIDOf(s *session.Session) int64 {
	if s == nil {
		return 0
	}
	return s.RequestID()
}
