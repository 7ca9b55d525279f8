package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/service"

	"github.com/gin-gonic/gin"
)

// CreateRestaurant registers a restaurant for the logged-in owner
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req service.RestaurantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	restaurant, err := h.Restaurants.Create(c.Request.Context(), middleware.GetCaller(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": restaurant})
}

// ListRestaurants returns all restaurants (public)
func (h *Handler) ListRestaurants(c *gin.Context) {
	var filter service.RestaurantFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	restaurants, err := h.Restaurants.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// GetRestaurant returns a single restaurant with its menu and reviews
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	restaurant, err := h.Restaurants.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"restaurant": restaurant})
}

// GetMyRestaurant returns the owner's restaurant
func (h *Handler) GetMyRestaurant(c *gin.Context) {
	restaurant, err := h.Restaurants.Mine(c.Request.Context(), middleware.GetCaller(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"restaurant": restaurant})
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	var req service.RestaurantUpdate
	if !h.bindJSON(c, &req) {
		return
	}
	restaurant, err := h.Restaurants.Update(c.Request.Context(), middleware.GetCaller(c), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

// DeleteRestaurant removes a restaurant with its menu, orders and reviews
func (h *Handler) DeleteRestaurant(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	if err := h.Restaurants.Delete(c.Request.Context(), middleware.GetCaller(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Restaurant deleted"})
}
