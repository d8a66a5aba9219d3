package handlers

import (
	"errors"
	"net/http"

	"marketplace-api/auth"
	"marketplace-api/middleware"
	"marketplace-api/models"
	"marketplace-api/service"

	"github.com/gin-gonic/gin"
)

type UpdateStatusRequest struct {
	OrderID   string `json:"orderId"`
	NewStatus string `json:"newStatus"`
}

// UpdateOrderStatus applies a role-checked status transition for the authenticated caller
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	ctx := c.Request.Context()

	callerID, err := h.Status.Authenticate(ctx, middleware.BearerToken(c))
	if err != nil {
		writeOrderError(c, err, "Failed to update order status")
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.OrderID == "" || req.NewStatus == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing orderId or newStatus"})
		return
	}

	res, err := h.Status.UpdateStatusAs(ctx, callerID, req.OrderID, models.OrderStatus(req.NewStatus))
	if err != nil {
		writeOrderError(c, err, "Failed to update order status")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"orderId":        res.OrderID,
		"previousStatus": res.PreviousStatus,
		"newStatus":      res.NewStatus,
		"message":        "Order status updated to " + string(res.NewStatus),
	})
}

// writeOrderError maps service error kinds onto HTTP responses; failMsg covers infrastructure failures
func writeOrderError(c *gin.Context, err error, failMsg string) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		msg := "Not authenticated"
		if errors.Is(err, auth.ErrInvalidToken) {
			msg = "Invalid authentication"
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this order"})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Order was modified concurrently, please retry"})
	default:
		internalError(c, failMsg, err)
	}
}
