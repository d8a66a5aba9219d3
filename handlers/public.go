package handlers

import (
	"net/http"

	"marketplace-api/models"
	"marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
)

// GetStateMachineInfo returns the transition table for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	roles := []models.UserRole{models.RoleConsumer, models.RoleVendor, models.RoleShopper, models.RoleAdmin}
	terminal := map[models.UserRole][]models.OrderStatus{}
	for _, role := range roles {
		terminal[role] = []models.OrderStatus{}
		for _, st := range models.AllStatuses() {
			if statemachine.IsTerminalFor(role, st) {
				terminal[role] = append(terminal[role], st)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses":      models.AllStatuses(),
		"transitions":   statemachine.GetAllTransitions(),
		"terminal_for":  terminal,
		"role_priority": []models.UserRole{models.RoleAdmin, models.RoleVendor, models.RoleShopper, models.RoleConsumer},
		"description":   "Marketplace order lifecycle, per acting role",
	})
}

// Health reports liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Marketplace Order Status API",
		"version": "1.0.0",
	})
}
