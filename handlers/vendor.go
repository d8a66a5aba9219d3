package handlers

import (
	"errors"
	"net/http"

	"marketplace-api/middleware"
	"marketplace-api/models"
	"marketplace-api/store"

	"github.com/gin-gonic/gin"
)

type CreateVendorRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

// CreateVendor opens a vendor profile for the caller and grants the vendor role
func (h *Handler) CreateVendor(c *gin.Context) {
	var req CreateVendorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vendor := models.Vendor{
		UserID:  middleware.GetUserID(c),
		Name:    req.Name,
		Address: req.Address,
		IsOpen:  true,
	}
	if err := h.Profiles.CreateVendor(c.Request.Context(), &vendor); err != nil {
		if errors.Is(err, store.ErrProfileExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "You already have a vendor profile"})
			return
		}
		internalError(c, "Failed to create vendor", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Vendor profile created", "vendor": vendor})
}

// GetVendorOrders returns the orders placed with the caller's vendor profile
func (h *Handler) GetVendorOrders(c *gin.Context) {
	ctx := c.Request.Context()

	vendorID, err := h.Profiles.VendorProfileID(ctx, middleware.GetUserID(c))
	if err != nil {
		internalError(c, "Failed to list orders", err)
		return
	}
	if vendorID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No vendor profile found for your account"})
		return
	}
	status, ok := statusQuery(c)
	if !ok {
		return
	}

	orders, err := h.Orders.List(ctx, store.ListFilter{VendorID: vendorID, Status: status})
	if err != nil {
		internalError(c, "Failed to list orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vendor_id":     vendorID,
		"order_summary": summarize(orders),
		"count":         len(orders),
		"orders":        orders,
	})
}

func summarize(orders []models.Order) map[models.OrderStatus]int {
	summary := map[models.OrderStatus]int{}
	for _, o := range orders {
		summary[o.Status]++
	}
	return summary
}
