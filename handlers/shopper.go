package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"marketplace-api/middleware"
	"marketplace-api/models"
	"marketplace-api/store"

	"github.com/gin-gonic/gin"
)

type CreateShopperRequest struct {
	DisplayName string `json:"display_name" binding:"required"`
}

// CreateShopper opens a shopper profile for the caller and grants the shopper role
func (h *Handler) CreateShopper(c *gin.Context) {
	var req CreateShopperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	shopper := models.Shopper{
		UserID:      middleware.GetUserID(c),
		DisplayName: req.DisplayName,
		IsAvailable: true,
	}
	if err := h.Profiles.CreateShopper(c.Request.Context(), &shopper); err != nil {
		if errors.Is(err, store.ErrProfileExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "You already have a shopper profile"})
			return
		}
		internalError(c, "Failed to create shopper", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Shopper profile created", "shopper": shopper})
}

// GetAvailableOrders shows ready orders that no shopper has claimed
func (h *Handler) GetAvailableOrders(c *gin.Context) {
	orders, err := h.Orders.ListAvailable(c.Request.Context())
	if err != nil {
		internalError(c, "Failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetMyDeliveries returns the orders assigned to the caller's shopper profile
func (h *Handler) GetMyDeliveries(c *gin.Context) {
	ctx := c.Request.Context()

	shopperID, ok := h.shopperProfile(c)
	if !ok {
		return
	}
	status, ok := statusQuery(c)
	if !ok {
		return
	}
	orders, err := h.Orders.List(ctx, store.ListFilter{ShopperID: shopperID, Status: status})
	if err != nil {
		internalError(c, "Failed to list orders", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// ClaimOrder assigns a ready, unclaimed order to the caller's shopper profile.
// The status is left at ready; picking up goes through the status endpoint.
func (h *Handler) ClaimOrder(c *gin.Context) {
	ctx := c.Request.Context()
	orderID := c.Param("id")

	shopperID, ok := h.shopperProfile(c)
	if !ok {
		return
	}

	at := time.Now().UTC()
	err := h.Orders.AssignShopper(ctx, orderID, shopperID, at)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Order is no longer available for pickup"})
		return
	case err != nil:
		internalError(c, "Failed to claim order", err)
		return
	}

	if err := h.Cache.Invalidate(ctx, orderID, at); err != nil {
		log.Printf("invalidate order %s after claim: %v", orderID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Order claimed successfully",
		"order_id":   orderID,
		"shopper_id": shopperID,
	})
}

func (h *Handler) shopperProfile(c *gin.Context) (string, bool) {
	shopperID, err := h.Profiles.ShopperProfileID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		internalError(c, "Failed to load shopper profile", err)
		return "", false
	}
	if shopperID == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "No shopper profile found for your account"})
		return "", false
	}
	return shopperID, true
}
