package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/service"

	"github.com/gin-gonic/gin"
)

// AddMenuItem adds an item to a restaurant's menu
func (h *Handler) AddMenuItem(c *gin.Context) {
	restaurantID, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	var req service.MenuItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.Menu.Create(c.Request.Context(), middleware.GetCaller(c), restaurantID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// GetMenu returns the menu for a specific restaurant (public)
func (h *Handler) GetMenu(c *gin.Context) {
	restaurantID, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	items, err := h.Menu.List(c.Request.Context(), restaurantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": len(items), "menu": items})
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	restaurantID, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	itemID, valid := h.paramID(c, "item_id")
	if !valid {
		return
	}
	item, err := h.Menu.Get(c.Request.Context(), restaurantID, itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"item": item})
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	restaurantID, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	itemID, valid := h.paramID(c, "item_id")
	if !valid {
		return
	}
	var req service.MenuItemUpdate
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.Menu.Update(c.Request.Context(), middleware.GetCaller(c), restaurantID, itemID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Menu item updated", "item": item})
}

func (h *Handler) DeleteMenuItem(c *gin.Context) {
	restaurantID, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	itemID, valid := h.paramID(c, "item_id")
	if !valid {
		return
	}
	if err := h.Menu.Delete(c.Request.Context(), middleware.GetCaller(c), restaurantID, itemID); err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Menu item deleted"})
}
