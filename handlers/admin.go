package handlers

import (
	"errors"
	"net/http"

	"marketplace-api/models"
	"marketplace-api/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminGetAllOrders returns every order with a per-status summary
func (h *Handler) AdminGetAllOrders(c *gin.Context) {
	status, ok := statusQuery(c)
	if !ok {
		return
	}
	orders, err := h.Orders.List(c.Request.Context(), store.ListFilter{
		ConsumerID: c.Query("consumer_id"),
		VendorID:   c.Query("vendor_id"),
		Status:     status,
	})
	if err != nil {
		internalError(c, "Failed to list orders", err)
		return
	}

	completedTotal := decimal.Zero
	for _, o := range orders {
		if o.Status == models.StatusCompleted {
			completedTotal = completedTotal.Add(o.Total)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"order_summary":   summarize(orders),
		"completed_total": completedTotal,
		"count":           len(orders),
		"orders":          orders,
	})
}

// AdminGetAllUsers returns all users, optionally those holding ?role=
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	if role != models.RoleNone && !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role '" + string(role) + "'"})
		return
	}
	users, err := h.Users.List(c.Request.Context(), role)
	if err != nil {
		internalError(c, "Failed to list users", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

type GrantRoleRequest struct {
	UserID string          `json:"user_id" binding:"required"`
	Role   models.UserRole `json:"role" binding:"required"`
}

// AdminGrantRole adds a global role to a user; granting twice is harmless
func (h *Handler) AdminGrantRole(c *gin.Context) {
	ctx := c.Request.Context()

	var req GrantRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role. Must be: consumer, vendor, shopper, or admin"})
		return
	}
	if _, err := h.Users.Get(ctx, req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		internalError(c, "Failed to grant role", err)
		return
	}
	if err := h.Roles.Grant(ctx, req.UserID, req.Role); err != nil {
		internalError(c, "Failed to grant role", err)
		return
	}
	roles, err := h.Roles.ListRoles(ctx, req.UserID)
	if err != nil {
		internalError(c, "Failed to grant role", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role granted", "user_id": req.UserID, "roles": roles})
}
