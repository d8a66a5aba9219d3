package handlers

import (
	"log"
	"net/http"

	"marketplace-api/auth"
	"marketplace-api/cache"
	"marketplace-api/service"
	"marketplace-api/store"

	"github.com/gin-gonic/gin"
)

// Handler carries the collaborators every endpoint needs
type Handler struct {
	Users    *store.UserStore
	Roles    *store.RoleStore
	Profiles *store.ProfileStore
	Orders   *store.OrderStore
	Status   *service.OrderStatusService
	Tokens   *auth.JWTVerifier
	Cache    cache.OrderCache
}

// internalError logs the cause and answers with a generic message
func internalError(c *gin.Context, msg string, err error) {
	log.Printf("%s %s: %s: %v", c.Request.Method, c.FullPath(), msg, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
