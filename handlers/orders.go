package handlers

import (
	"errors"
	"net/http"

	"marketplace-api/middleware"
	"marketplace-api/models"
	"marketplace-api/statemachine"
	"marketplace-api/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type PlaceOrderRequest struct {
	VendorID string `json:"vendor_id" binding:"required"`
	Notes    string `json:"notes"`
	Items    []struct {
		Name      string          `json:"name" binding:"required"`
		Quantity  int             `json:"quantity" binding:"required,min=1"`
		UnitPrice decimal.Decimal `json:"unit_price"`
	} `json:"items" binding:"required,min=1,dive"`
}

// PlaceOrder creates a pending order from the caller to a vendor
func (h *Handler) PlaceOrder(c *gin.Context) {
	ctx := c.Request.Context()
	consumerID := middleware.GetUserID(c)

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vendor, err := h.Profiles.GetVendor(ctx, req.VendorID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Vendor not found"})
		return
	}
	if err != nil {
		internalError(c, "Failed to place order", err)
		return
	}
	if !vendor.IsOpen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vendor is currently closed"})
		return
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		if !it.UnitPrice.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Item '" + it.Name + "' must have a positive unit_price"})
			return
		}
		items = append(items, models.OrderItem{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.UnitPrice})
	}

	order := models.Order{
		ConsumerID: consumerID,
		VendorID:   vendor.ID,
		Notes:      req.Notes,
		Items:      items,
	}
	order.Total = order.ItemsTotal()

	if err := h.Orders.Create(ctx, &order); err != nil {
		internalError(c, "Failed to place order", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   order,
	})
}

// GetMyOrders returns the orders the caller placed as a consumer
func (h *Handler) GetMyOrders(c *gin.Context) {
	status, ok := statusQuery(c)
	if !ok {
		return
	}
	orders, err := h.Orders.List(c.Request.Context(), store.ListFilter{
		ConsumerID: middleware.GetUserID(c),
		Status:     status,
	})
	if err != nil {
		internalError(c, "Failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrderDetail returns one order with its history, for anyone with a role on it
func (h *Handler) GetOrderDetail(c *gin.Context) {
	ctx := c.Request.Context()

	order, role, err := h.Status.ReadOrder(ctx, middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		writeOrderError(c, err, "Failed to load order")
		return
	}
	history, err := h.Orders.History(ctx, order.ID)
	if err != nil {
		internalError(c, "Failed to load order", err)
		return
	}
	order.StatusHistory = history

	c.JSON(http.StatusOK, gin.H{
		"order":        order,
		"role":         role,
		"allowed_next": statemachine.AllowedNext(role, order.Status),
	})
}

// statusQuery parses the optional ?status= filter, answering 400 when it is unknown
func statusQuery(c *gin.Context) (models.OrderStatus, bool) {
	raw := c.Query("status")
	if raw == "" {
		return "", true
	}
	status, ok := models.ParseOrderStatus(raw)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status '" + raw + "'"})
		return "", false
	}
	return status, true
}
