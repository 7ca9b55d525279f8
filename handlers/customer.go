package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/service"

	"github.com/gin-gonic/gin"
)

// PlaceOrder creates a new order (customer only)
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	placed, err := h.Orders.PlaceOrder(c.Request.Context(), middleware.GetCaller(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":        "Order placed successfully",
		"order_id":       placed.OrderID,
		"total":          placed.Total,
		"status":         placed.Status,
		"payment_status": placed.PaymentStatus,
		"items":          placed.Items,
	})
}

// GetMyOrders returns the logged-in customer's orders, newest first
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.MyOrders(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": len(orders), "orders": orders})
}

// GetOrderDetail returns one order with its lines and status history
func (h *Handler) GetOrderDetail(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"order": order})
}

// CancelOrder lets a customer cancel their own order before it is ready
func (h *Handler) CancelOrder(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	order, err := h.Orders.Cancel(c.Request.Context(), middleware.GetCaller(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Order cancelled successfully", "order_id": order.ID, "status": order.Status})
}
