package handlers

import (
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// GetRestaurantOrders returns orders for the owner's restaurant, or every
// restaurant for admins, optionally filtered by ?status=
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	orders, err := h.Orders.RestaurantOrders(c.Request.Context(), middleware.GetCaller(c), c.Query("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Dashboard: count by status and revenue of completed orders
	summary := map[models.OrderStatus]int{}
	revenue := decimal.Zero
	for _, o := range orders {
		summary[o.Status]++
		if o.Status == models.StatusCompleted {
			revenue = revenue.Add(o.Total)
		}
	}

	respondOK(c, gin.H{
		"order_summary": summary,
		"total_revenue": revenue,
		"count":         len(orders),
		"orders":        orders,
	})
}

// UpdateOrderStatus sets an order's status (owner of the restaurant or admin)
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	var req UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	summary, err := h.Orders.UpdateStatus(c.Request.Context(), middleware.GetCaller(c), id, req.Status, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Order status updated", "order": summary})
}
