package handlers

import (
	"net/http"

	"food-marketplace-api/middleware"
	"food-marketplace-api/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateReview(c *gin.Context) {
	var req service.ReviewRequest
	if !h.bindJSON(c, &req) {
		return
	}
	review, err := h.Reviews.Create(c.Request.Context(), middleware.GetCaller(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review added", "review": review})
}

// GetRestaurantReviews lists reviews for the restaurant in :id (public)
func (h *Handler) GetRestaurantReviews(c *gin.Context) {
	restaurantID, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	reviews, err := h.Reviews.ListByRestaurant(c.Request.Context(), restaurantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"count": len(reviews), "reviews": reviews})
}

func (h *Handler) UpdateReview(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	var req service.ReviewUpdate
	if !h.bindJSON(c, &req) {
		return
	}
	review, err := h.Reviews.Update(c.Request.Context(), middleware.GetCaller(c), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Review updated", "review": review})
}

func (h *Handler) DeleteReview(c *gin.Context) {
	id, valid := h.paramID(c, "id")
	if !valid {
		return
	}
	if err := h.Reviews.Delete(c.Request.Context(), middleware.GetCaller(c), id); err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, gin.H{"message": "Review deleted"})
}
