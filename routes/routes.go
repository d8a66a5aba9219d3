package routes

import (
	"marketplace-api/handlers"
	"marketplace-api/middleware"
	"marketplace-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, roles middleware.RoleChecker) {
	r.Use(middleware.CORS())

	r.GET("/health", handlers.Health)

	// ── Order status endpoint (authenticates itself) ──────────────
	r.POST("/functions/v1/update-order-status", h.UpdateOrderStatus)
	r.POST("/api/orders/status", h.UpdateOrderStatus)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(middleware.AuthRequired(h.Tokens))
	{
		authed.GET("/profile", h.GetProfile)

		authed.POST("/orders", h.PlaceOrder)
		authed.GET("/orders", h.GetMyOrders)
		authed.GET("/orders/:id", h.GetOrderDetail)

		authed.POST("/vendors", h.CreateVendor)
		authed.POST("/shoppers", h.CreateShopper)
	}

	// ── Vendor routes ──────────────────────────────────────────────
	vendor := r.Group("/api/vendor")
	vendor.Use(middleware.AuthRequired(h.Tokens), middleware.RoleRequired(roles, models.RoleVendor))
	{
		vendor.GET("/orders", h.GetVendorOrders)
	}

	// ── Shopper routes ─────────────────────────────────────────────
	shopper := r.Group("/api/shopper")
	shopper.Use(middleware.AuthRequired(h.Tokens), middleware.RoleRequired(roles, models.RoleShopper))
	{
		shopper.GET("/orders/available", h.GetAvailableOrders)
		shopper.GET("/orders", h.GetMyDeliveries)
		shopper.POST("/orders/:id/claim", h.ClaimOrder)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(h.Tokens), middleware.RoleRequired(roles, models.RoleAdmin))
	{
		admin.GET("/orders", h.AdminGetAllOrders)
		admin.GET("/users", h.AdminGetAllUsers)
		admin.POST("/roles", h.AdminGrantRole)
	}
}
