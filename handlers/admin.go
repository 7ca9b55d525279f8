package handlers

import (
	"food-marketplace-api/middleware"

	"github.com/gin-gonic/gin"
)

// AdminGetAllUsers returns all users, optionally filtered by ?role= (admin only)
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.Users.ListUsers(c.Request.Context(), middleware.GetCaller(c), c.Query("role"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": len(users), "users": users})
}

// AdminGetOrderAudit returns the stored audit trail of one order (admin only)
func (h *Handler) AdminGetOrderAudit(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	entries, err := h.Orders.AuditTrail(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"order_id": id, "count": len(entries), "entries": entries})
}

// AdminGetAllRestaurants returns all restaurants with their owners (admin only)
func (h *Handler) AdminGetAllRestaurants(c *gin.Context) {
	restaurants, err := h.Restaurants.ListAll(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": len(restaurants), "restaurants": restaurants})
}
