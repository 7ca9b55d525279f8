package handlers

import (
	"food-marketplace-api/middleware"
	"food-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
)

// GetPendingOrders shows unclaimed orders, oldest first
func (h *Handler) GetPendingOrders(c *gin.Context) {
	orders, err := h.Orders.PendingOrders(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": len(orders), "orders": orders})
}

// GetMyDeliveries returns all orders claimed by the logged-in rider
func (h *Handler) GetMyDeliveries(c *gin.Context) {
	orders, err := h.Orders.MyDeliveries(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": len(orders), "orders": orders})
}

// ClaimOrder assigns a pending order to the rider. Only one rider can win.
func (h *Handler) ClaimOrder(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	order, err := h.Orders.Claim(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{
		"message":           "Order claimed",
		"order":             order,
		"valid_next_states": statemachine.ValidTransitionsFrom(order.Status),
	})
}

// DeliverOrder completes a ready order for its assigned rider
func (h *Handler) DeliverOrder(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	order, err := h.Orders.Deliver(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Order delivered", "order": order})
}
